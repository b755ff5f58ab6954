package domain

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// FeedOffset is added to the feed's wall-clock time to get station local
// time. It is a fixed assumption about the AOAWS feed; a feed that changes
// its timezone convention per station or language breaks it silently.
const FeedOffset = 8 * time.Hour

// TimestampLayout renders Observation.Timestamp.
const TimestampLayout = "2006-01-02 15:04:05"

const (
	feedTimeLayout = "2006-01-02 15:04 MST"

	knotsToKMH = 1.852
	mpsToKMH   = 3.6

	// visibilityOverKM is added to open-ended readings such as "10KM Over".
	visibilityOverKM = 10.0
)

// StationZone is the fixed UTC+8 zone ObservedAt is expressed in.
var StationZone = time.FixedZone("CST", 8*60*60)

var (
	numberRe = regexp.MustCompile(`\d+(?:\.\d+)?`)
	gustRe   = regexp.MustCompile(`(?i)gust|陣風`)
	metersRe = regexp.MustCompile(`\bm(?:eters?|etres?)?\b`)
)

// Normalize converts a located row into an Observation for station. It fails
// only when the row is too short or the observation time cannot be parsed;
// every other unparseable field leaves its slot nil. Normalize is pure:
// the same row always yields an identical Observation.
func Normalize(row RawRow, station string) (Observation, error) {
	if err := row.Validate(); err != nil {
		return Observation{}, &NormalizationError{Field: "row", Err: err}
	}

	date := row.Field(ColDate)
	observedAt, err := parseObservationTime(date)
	if err != nil {
		return Observation{}, &NormalizationError{Field: "date", Value: date, Err: err}
	}

	obs := Observation{
		StationName: station,
		Timestamp:   observedAt.Format(TimestampLayout),
		ObservedAt:  observedAt,
	}
	obs.Weather, obs.Condition = parseWeather(row)
	obs.Temperature = parseTemperature(row.Field(ColTemperature))
	obs.WindSpeed, obs.WindGust = parseWind(row.Field(ColWindSpeed))
	obs.WindDirection = parseWindDirection(row.Field(ColWindDirection))
	obs.Visibility = parseVisibility(row.Field(ColVisibility))
	obs.DewPoint, obs.Pressure = parseMetarTail(row.Field(ColMetarTail))
	return obs, nil
}

// parseObservationTime reads "YYYY-MM-DD HH:MM <TZ>" and shifts the wall
// clock by FeedOffset into StationZone. The zone token is required but its
// offset is ignored.
func parseObservationTime(s string) (time.Time, error) {
	s = strings.Join(strings.Fields(s), " ")
	t, err := time.Parse(feedTimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse observation time: %w", err)
	}
	wall := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, StationZone)
	return wall.Add(FeedOffset), nil
}

// parseWeather keeps letters and spaces of the weather column. The older
// table layout carries the text one column earlier, so an empty column 16
// falls back to column 15.
func parseWeather(row RawRow) (*Measurement, Condition) {
	raw := row.Field(ColWeather)
	text := letterText(raw)
	if text == "" {
		raw = row.Field(ColWeatherLegacy)
		text = letterText(raw)
	}
	if text == "" {
		return nil, ConditionUnknown
	}
	condition, _ := ClassifyCondition(text)
	return TextMeasurement(CodeWeather, text, "", raw), condition
}

// parseTemperature reads the first number. A '-' or METAR 'M' directly in
// front of it makes it negative. The unit is always Celsius.
func parseTemperature(s string) *Measurement {
	loc := numberRe.FindStringIndex(s)
	if loc == nil {
		return nil
	}
	v, err := strconv.ParseFloat(s[loc[0]:loc[1]], 64)
	if err != nil {
		return nil
	}
	if prefix := s[:loc[0]]; strings.HasSuffix(prefix, "-") || strings.HasSuffix(prefix, "M") {
		v = -v
	}
	return NumberMeasurement(CodeTemperature, v, UnitCelsius, s)
}

// parseWind returns sustained speed and gust in km/h. "15Gust25KT" gives
// 15 and 25 knots; "20KT" gives 20 knots and no gust.
func parseWind(s string) (speed, gust *Measurement) {
	if s == "" {
		return nil, nil
	}
	factor := windFactor(s)

	sustained := s
	var gusting string
	if loc := gustRe.FindStringIndex(s); loc != nil {
		sustained, gusting = s[:loc[0]], s[loc[1]:]
	}

	if v, ok := firstNumber(sustained); ok {
		speed = NumberMeasurement(CodeWindSpeed, round(v*factor, 2), UnitKMH, s)
	}
	if v, ok := firstNumber(gusting); ok {
		gust = NumberMeasurement(CodeWindGust, round(v*factor, 2), UnitKMH, s)
	}
	return speed, gust
}

// windFactor converts the source unit token to km/h. Fields without a
// recognized token are taken as km/h already.
func windFactor(s string) float64 {
	lower := strings.ToLower(s)
	switch {
	case strings.Contains(lower, "kt"), strings.Contains(lower, "knot"),
		strings.Contains(s, "節"), strings.Contains(s, "浬"):
		return knotsToKMH
	case strings.Contains(lower, "mps"), strings.Contains(lower, "m/s"),
		strings.Contains(s, "公尺/秒"):
		return mpsToKMH
	default:
		return 1
	}
}

// parseWindDirection keeps a numeric bearing when the field has one, with
// the remaining decoration as unit ("270°" -> 270 "°"). Otherwise the cleaned
// text is both value and unit ("VRB", "北"), since all of it is non-digit
// decoration.
func parseWindDirection(s string) *Measurement {
	if s == "" {
		return nil
	}
	loc := numberRe.FindStringIndex(s)
	if loc == nil {
		return TextMeasurement(CodeWindDirection, s, s, s)
	}
	v, err := strconv.ParseFloat(s[loc[0]:loc[1]], 64)
	if err != nil {
		return nil
	}
	unit := strings.TrimSpace(s[:loc[0]] + s[loc[1]:])
	return NumberMeasurement(CodeWindDirection, v, unit, s)
}

// parseVisibility returns the distance in kilometers. Fields without a
// recognized unit are taken as kilometers.
func parseVisibility(s string) *Measurement {
	loc := numberRe.FindStringIndex(s)
	if loc == nil {
		return nil
	}
	v, err := strconv.ParseFloat(s[loc[0]:loc[1]], 64)
	if err != nil {
		return nil
	}
	rest := strings.ToLower(s[:loc[0]] + " " + s[loc[1]:])

	isKM := strings.Contains(rest, "km") || strings.Contains(rest, "公里")
	isMeters := !isKM && (metersRe.MatchString(rest) ||
		strings.Contains(rest, "公尺") || strings.Contains(rest, "米"))
	if isMeters {
		v /= 1000
	}
	if strings.Contains(rest, "over") || strings.Contains(rest, "以上") || strings.Contains(rest, ">") {
		v += visibilityOverKM
	}
	return NumberMeasurement(CodeVisibility, round(v, 3), UnitKilometers, s)
}

// parseMetarTail scans the METAR tokens. A token with a slash carries the
// dew point after the slash; a token starting with Q carries the pressure.
// Later tokens overwrite earlier ones.
func parseMetarTail(s string) (dewPoint, pressure *Measurement) {
	for _, tok := range strings.Fields(s) {
		if _, after, ok := strings.Cut(tok, "/"); ok {
			dew, _, _ := strings.Cut(after, "/")
			if dew != "" {
				dewPoint = TextMeasurement(CodeDewPoint, dew, UnitCelsius, tok)
			}
		}
		if rest, ok := strings.CutPrefix(tok, "Q"); ok {
			if digits := onlyDigits(rest); digits != "" {
				pressure = TextMeasurement(CodePressure, digits, UnitHPa, tok)
			}
		}
	}
	return dewPoint, pressure
}

func firstNumber(s string) (float64, bool) {
	m := numberRe.FindString(s)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	return v, err == nil
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// letterText drops everything but letters and spaces and collapses runs of
// whitespace.
func letterText(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
