package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// Code tags what a Measurement measures.
type Code string

const (
	CodeWeather          Code = "weather"
	CodeTemperature      Code = "temperature"
	CodeWindSpeed        Code = "wind_speed"
	CodeWindGust         Code = "wind_gust"
	CodeWindDirection    Code = "wind_direction"
	CodeVisibility       Code = "visibility"
	CodeUV               Code = "uv"
	CodePrecipitation    Code = "precipitation"
	CodeHumidity         Code = "humidity"
	CodePressure         Code = "pressure"
	CodePressureTendency Code = "pressure_tendency"
	CodeDewPoint         Code = "dew_point"
)

// Output units. Source unit tokens are resolved during normalization and
// never passed through.
const (
	UnitCelsius    = "°C"
	UnitKMH        = "km/h"
	UnitKilometers = "km"
	UnitHPa        = "hPa"
)

// ValueKind discriminates the value carried by a Measurement.
type ValueKind uint8

const (
	KindNumber ValueKind = iota + 1
	KindText
)

func (k ValueKind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	default:
		return "invalid"
	}
}

// Measurement is one typed field of an Observation. Build it with
// NumberMeasurement or TextMeasurement and do not modify it afterwards.
type Measurement struct {
	Code    Code
	Kind    ValueKind
	Number  float64
	Text    string
	Unit    string
	RawText string // source field after markup stripping
}

// NumberMeasurement returns a numeric measurement.
func NumberMeasurement(code Code, value float64, unit, raw string) *Measurement {
	return &Measurement{Code: code, Kind: KindNumber, Number: value, Unit: unit, RawText: raw}
}

// TextMeasurement returns a textual measurement.
func TextMeasurement(code Code, value, unit, raw string) *Measurement {
	return &Measurement{Code: code, Kind: KindText, Text: value, Unit: unit, RawText: raw}
}

// Float returns the value as a number. Textual values are parsed, with the
// METAR "M" prefix read as a minus sign ("M02" -> -2).
func (m *Measurement) Float() (float64, bool) {
	if m == nil {
		return 0, false
	}
	if m.Kind == KindNumber {
		return m.Number, true
	}
	s := strings.TrimSpace(m.Text)
	neg := false
	if rest, ok := strings.CutPrefix(s, "M"); ok {
		s, neg = rest, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if neg {
		v = -v
	}
	return v, true
}

// String renders the value with its unit, e.g. "37.04 km/h".
func (m *Measurement) String() string {
	if m == nil {
		return ""
	}
	var v string
	if m.Kind == KindNumber {
		v = strconv.FormatFloat(m.Number, 'f', -1, 64)
	} else {
		v = m.Text
	}
	if m.Unit == "" {
		return v
	}
	return v + " " + m.Unit
}

type measurementJSON struct {
	Code    Code   `json:"code"`
	Value   any    `json:"value"`
	Unit    string `json:"unit,omitempty"`
	RawText string `json:"raw_text,omitempty"`
}

// MarshalJSON encodes the value as a JSON number or string according to Kind.
func (m Measurement) MarshalJSON() ([]byte, error) {
	out := measurementJSON{Code: m.Code, Unit: m.Unit, RawText: m.RawText}
	switch m.Kind {
	case KindNumber:
		out.Value = m.Number
	case KindText:
		out.Value = m.Text
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores Kind from the JSON type of the value.
func (m *Measurement) UnmarshalJSON(data []byte) error {
	var in measurementJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("decode measurement: %w", err)
	}
	*m = Measurement{Code: in.Code, Unit: in.Unit, RawText: in.RawText}
	switch v := in.Value.(type) {
	case float64:
		m.Kind, m.Number = KindNumber, v
	case string:
		m.Kind, m.Text = KindText, v
	case nil:
	default:
		return fmt.Errorf("decode measurement %s: unsupported value %v", in.Code, v)
	}
	return nil
}

// Observation is the decoded snapshot for one station at one time. Nil
// measurement slots mean the value is unavailable, never zero.
type Observation struct {
	StationName string    `json:"station"`
	Timestamp   string    `json:"timestamp"` // station local time, TimestampLayout
	ObservedAt  time.Time `json:"observed_at"`
	Condition   Condition `json:"condition"`

	Weather          *Measurement `json:"weather"`
	Temperature      *Measurement `json:"temperature"`
	WindSpeed        *Measurement `json:"wind_speed"`
	WindDirection    *Measurement `json:"wind_direction"`
	WindGust         *Measurement `json:"wind_gust"`
	Visibility       *Measurement `json:"visibility"`
	UV               *Measurement `json:"uv"`
	Precipitation    *Measurement `json:"precipitation"`
	Humidity         *Measurement `json:"humidity"`
	Pressure         *Measurement `json:"pressure"`
	PressureTendency *Measurement `json:"pressure_tendency"`
	DewPoint         *Measurement `json:"dew_point"`
}

// ID is deterministic for a station and observation time, so republishing
// the same reading yields the same key downstream.
func (o Observation) ID() string {
	hash := sha256.Sum256([]byte(o.StationName + "|" + o.Timestamp))
	short := hex.EncodeToString(hash[:8])
	if o.StationName == "" {
		return short
	}
	return strings.ToLower(o.StationName) + "-" + short
}

// VisibilityBand classifies the visibility distance. It reports false when
// visibility is unavailable.
func (o Observation) VisibilityBand() (string, bool) {
	km, ok := o.Visibility.Float()
	if !ok {
		return "", false
	}
	return VisibilityBand(km), true
}

// Measurements returns the populated slots in a stable order.
func (o Observation) Measurements() []*Measurement {
	all := []*Measurement{
		o.Weather, o.Temperature, o.WindSpeed, o.WindDirection, o.WindGust,
		o.Visibility, o.UV, o.Precipitation, o.Humidity, o.Pressure,
		o.PressureTendency, o.DewPoint,
	}
	out := make([]*Measurement, 0, len(all))
	for _, m := range all {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}
