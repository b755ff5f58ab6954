package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testStation = "Taoyuan"
	testDate    = "2024-01-01 00:00 UTC"
)

// testRow builds a full-length row for testStation with the given columns set.
func testRow(fields map[int]string) RawRow {
	row := make(RawRow, MinRowLength)
	row[0] = "RCTP"
	row[1] = testStation
	row[ColDate] = testDate
	for col, v := range fields {
		row[col] = v
	}
	return row
}

func mustNormalize(t *testing.T, row RawRow) Observation {
	t.Helper()
	obs, err := Normalize(row, testStation)
	require.NoError(t, err)
	return obs
}

func assertNumber(t *testing.T, m *Measurement, want float64, unit string) {
	t.Helper()
	require.NotNil(t, m)
	assert.Equal(t, KindNumber, m.Kind)
	assert.InDelta(t, want, m.Number, 1e-9)
	assert.Equal(t, unit, m.Unit)
}

func TestNormalize_Timestamp(t *testing.T) {
	obs := mustNormalize(t, testRow(nil))

	assert.Equal(t, testStation, obs.StationName)
	assert.Equal(t, "2024-01-01 08:00:00", obs.Timestamp)
	assert.True(t, obs.ObservedAt.Equal(time.Date(2024, 1, 1, 8, 0, 0, 0, StationZone)))
}

func TestNormalize_TimestampCrossesMidnight(t *testing.T) {
	obs := mustNormalize(t, testRow(map[int]string{ColDate: "2024-02-29  19:30 UTC"}))
	assert.Equal(t, "2024-03-01 03:30:00", obs.Timestamp)
}

func TestNormalize_TimestampWithMarkup(t *testing.T) {
	obs := mustNormalize(t, testRow(map[int]string{ColDate: `<font color=\#999999\>2024-01-01 00:00 UTC<\/font>`}))
	assert.Equal(t, "2024-01-01 08:00:00", obs.Timestamp)
}

func TestNormalize_BadTimestamp(t *testing.T) {
	for _, date := range []string{"", "yesterday", "2024-01-01 00:00", "2024-13-01 00:00 UTC"} {
		t.Run(date, func(t *testing.T) {
			_, err := Normalize(testRow(map[int]string{ColDate: date}), testStation)
			require.Error(t, err)

			var nerr *NormalizationError
			require.ErrorAs(t, err, &nerr)
			assert.Equal(t, "date", nerr.Field)
		})
	}
}

func TestNormalize_ShortRow(t *testing.T) {
	_, err := Normalize(RawRow{"RCTP", testStation, "25"}, testStation)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRowTooShort))

	var nerr *NormalizationError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, "row", nerr.Field)
}

func TestNormalize_Wind(t *testing.T) {
	tests := []struct {
		name      string
		field     string
		wantSpeed float64
		wantGust  float64 // 0 means no gust
	}{
		{"knots", "20KT", 37.04, 0},
		{"gust english", "15Gust25KT", 27.78, 46.3},
		{"gust chinese", "15陣風25節", 27.78, 46.3},
		{"gust with spaces", "15 GUST 25 KT", 27.78, 46.3},
		{"meters per second", "5 m/s", 18, 0},
		{"no unit", "12", 12, 0},
		{"fullwidth digits", "２０KT", 37.04, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := mustNormalize(t, testRow(map[int]string{ColWindSpeed: tt.field}))
			assertNumber(t, obs.WindSpeed, tt.wantSpeed, UnitKMH)
			if tt.wantGust == 0 {
				assert.Nil(t, obs.WindGust)
				return
			}
			assertNumber(t, obs.WindGust, tt.wantGust, UnitKMH)
		})
	}

	t.Run("empty", func(t *testing.T) {
		obs := mustNormalize(t, testRow(nil))
		assert.Nil(t, obs.WindSpeed)
		assert.Nil(t, obs.WindGust)
	})
}

func TestNormalize_WindDirection(t *testing.T) {
	t.Run("bearing", func(t *testing.T) {
		obs := mustNormalize(t, testRow(map[int]string{ColWindDirection: "270"}))
		assertNumber(t, obs.WindDirection, 270, "")
	})

	t.Run("bearing with decoration", func(t *testing.T) {
		obs := mustNormalize(t, testRow(map[int]string{ColWindDirection: "270&nbsp;°"}))
		assertNumber(t, obs.WindDirection, 270, "°")
	})

	for _, dir := range []string{"VRB", "北", "N  E"} {
		t.Run("text "+dir, func(t *testing.T) {
			obs := mustNormalize(t, testRow(map[int]string{ColWindDirection: dir}))
			require.NotNil(t, obs.WindDirection)
			assert.Equal(t, KindText, obs.WindDirection.Kind)
			assert.Equal(t, dir, obs.WindDirection.Text)
			assert.Equal(t, dir, obs.WindDirection.Unit)
		})
	}

	t.Run("text with entity spacing", func(t *testing.T) {
		obs := mustNormalize(t, testRow(map[int]string{ColWindDirection: "N&nbsp;E"}))
		require.NotNil(t, obs.WindDirection)
		assert.Equal(t, "N E", obs.WindDirection.Text)
		assert.Equal(t, "N E", obs.WindDirection.Unit)
	})
}

func TestNormalize_Visibility(t *testing.T) {
	tests := []struct {
		name  string
		field string
		want  float64
	}{
		{"meters", "500 M", 0.5},
		{"meters word", "1500 meters", 1.5},
		{"meters chinese", "3000公尺", 3},
		{"kilometers", "8KM", 8},
		{"kilometers chinese", "8公里", 8},
		{"over", "10KM Over ", 20},
		{"over chinese", "10公里以上", 20},
		{"nbsp entity", "500&nbsp;M", 0.5},
		{"fullwidth", "１０ＫＭ", 10},
		{"font markup", "<font color=#999999>500 M</font>", 0.5},
		{"no unit", "6", 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := mustNormalize(t, testRow(map[int]string{ColVisibility: tt.field}))
			assertNumber(t, obs.Visibility, tt.want, UnitKilometers)
		})
	}

	t.Run("no digits", func(t *testing.T) {
		obs := mustNormalize(t, testRow(map[int]string{ColVisibility: "---"}))
		assert.Nil(t, obs.Visibility)
	})
}

func TestNormalize_Temperature(t *testing.T) {
	tests := []struct {
		field string
		want  float64
	}{
		{"25", 25},
		{"25°C", 25},
		{"27.5", 27.5},
		{"-3", -3},
		{"M02", -2},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			obs := mustNormalize(t, testRow(map[int]string{ColTemperature: tt.field}))
			assertNumber(t, obs.Temperature, tt.want, UnitCelsius)
		})
	}

	t.Run("missing", func(t *testing.T) {
		obs := mustNormalize(t, testRow(map[int]string{ColTemperature: "--"}))
		assert.Nil(t, obs.Temperature)
	})
}

func TestNormalize_Weather(t *testing.T) {
	t.Run("classified", func(t *testing.T) {
		obs := mustNormalize(t, testRow(map[int]string{ColWeather: " Light Rain, 2 "}))
		require.NotNil(t, obs.Weather)
		assert.Equal(t, KindText, obs.Weather.Kind)
		assert.Equal(t, "Light Rain", obs.Weather.Text)
		assert.Equal(t, ConditionRainy, obs.Condition)
	})

	t.Run("metar code", func(t *testing.T) {
		obs := mustNormalize(t, testRow(map[int]string{ColWeather: "-RA"}))
		assert.Equal(t, "RA", obs.Weather.Text)
		assert.Equal(t, ConditionRainy, obs.Condition)
	})

	t.Run("legacy column", func(t *testing.T) {
		obs := mustNormalize(t, testRow(map[int]string{ColWeatherLegacy: "晴"}))
		require.NotNil(t, obs.Weather)
		assert.Equal(t, "晴", obs.Weather.Text)
		assert.Equal(t, ConditionClear, obs.Condition)
	})

	t.Run("unrecognized stays unknown", func(t *testing.T) {
		obs := mustNormalize(t, testRow(map[int]string{ColWeather: "banana"}))
		require.NotNil(t, obs.Weather)
		assert.Equal(t, "banana", obs.Weather.Text)
		assert.Equal(t, ConditionUnknown, obs.Condition)
	})

	t.Run("no letters", func(t *testing.T) {
		obs := mustNormalize(t, testRow(map[int]string{ColWeather: "12 / 34"}))
		assert.Nil(t, obs.Weather)
		assert.Equal(t, ConditionUnknown, obs.Condition)
	})
}

func TestNormalize_MetarTail(t *testing.T) {
	tests := []struct {
		name         string
		tail         string
		wantDew      string
		wantPressure string
	}{
		{"basic", "A1234 12/08 Q1013", "08", "1013"},
		{"full metar", "METAR RCTP 010000Z 05012KT 9999 FEW020 22/18 Q1015 NOSIG=", "18", "1015"},
		{"last wins", "10/05 Q1010 12/08 Q1013", "08", "1013"},
		{"negative dew point", "02/M03 Q1030", "M03", "1030"},
		{"pressure only", "Q0998", "", "0998"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := mustNormalize(t, testRow(map[int]string{ColMetarTail: tt.tail}))
			if tt.wantDew == "" {
				assert.Nil(t, obs.DewPoint)
			} else {
				require.NotNil(t, obs.DewPoint)
				assert.Equal(t, KindText, obs.DewPoint.Kind)
				assert.Equal(t, tt.wantDew, obs.DewPoint.Text)
			}
			require.NotNil(t, obs.Pressure)
			assert.Equal(t, tt.wantPressure, obs.Pressure.Text)
			assert.Equal(t, UnitHPa, obs.Pressure.Unit)
		})
	}

	t.Run("empty", func(t *testing.T) {
		obs := mustNormalize(t, testRow(nil))
		assert.Nil(t, obs.DewPoint)
		assert.Nil(t, obs.Pressure)
	})
}

func TestNormalize_MissingFieldsAreNil(t *testing.T) {
	obs := mustNormalize(t, testRow(nil))

	assert.Empty(t, obs.Measurements())
	assert.Nil(t, obs.UV)
	assert.Nil(t, obs.Humidity)
	assert.Nil(t, obs.Precipitation)
	assert.Nil(t, obs.PressureTendency)
}

func TestNormalize_Idempotent(t *testing.T) {
	row := testRow(map[int]string{
		ColWindDirection: "050",
		ColWindSpeed:     "15Gust25KT",
		ColVisibility:    "10KM Over",
		ColWeather:       "Light Rain",
		ColTemperature:   "25",
		ColMetarTail:     "A1234 12/08 Q1013",
	})
	snapshot := append(RawRow(nil), row...)

	first := mustNormalize(t, row)
	second := mustNormalize(t, row)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("normalize not idempotent (-first +second):\n%s", diff)
	}
	assert.Equal(t, snapshot, row, "row must not be mutated")
	assert.Equal(t, first.ID(), second.ID())
}
