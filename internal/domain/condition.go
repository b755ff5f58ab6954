package domain

import (
	"strings"

	json "github.com/goccy/go-json"
)

// Condition is a canonical weather condition. The zero value means unknown.
type Condition string

const (
	ConditionUnknown        Condition = ""
	ConditionExceptional    Condition = "exceptional"
	ConditionSnowy          Condition = "snowy"
	ConditionSnowyRainy     Condition = "snowy-rainy"
	ConditionHail           Condition = "hail"
	ConditionLightningRainy Condition = "lightning-rainy"
	ConditionLightning      Condition = "lightning"
	ConditionPouring        Condition = "pouring"
	ConditionRainy          Condition = "rainy"
	ConditionWindyVariant   Condition = "windy-variant"
	ConditionWindy          Condition = "windy"
	ConditionFog            Condition = "fog"
	ConditionClear          Condition = "clear"
	ConditionCloudy         Condition = "cloudy"
	ConditionPartlyCloudy   Condition = "partlycloudy"
)

// MarshalJSON encodes ConditionUnknown as null so consumers cannot mistake
// it for a real condition.
func (c Condition) MarshalJSON() ([]byte, error) {
	if c == ConditionUnknown {
		return []byte("null"), nil
	}
	return json.Marshal(string(c))
}

type conditionClass struct {
	condition   Condition
	descriptors map[string]struct{}
}

// conditionClasses is consulted in declaration order; the first class
// holding the descriptor wins. English descriptors follow the feed's "en"
// page, Chinese ones its "tw" page, and the short codes are METAR present
// weather groups as they look after letter extraction ("-RA" -> "ra").
var conditionClasses = []conditionClass{
	newConditionClass(ConditionExceptional,
		"tornado", "hurricane conditions", "tropical storm conditions",
		"dust", "smoke", "haze", "hot", "cold",
		"hz", "fu", "du", "sa", "ds", "ss", "sq", "fc", "po",
		"霾", "煙", "沙塵", "塵"),
	newConditionClass(ConditionSnowy,
		"snow", "sleet", "snow/sleet", "blizzard",
		"light snow", "light snow shower", "heavy snow", "heavy snow shower",
		"sn", "shsn", "sg",
		"雪", "小雪", "大雪"),
	newConditionClass(ConditionSnowyRainy,
		"rain/snow", "rain/sleet", "freezing rain/snow", "freezing rain", "rain/freezing rain",
		"rasn", "snra", "fzra", "pl",
		"雨夾雪", "凍雨"),
	newConditionClass(ConditionHail,
		"hail", "hail shower",
		"gr", "gs", "shgr",
		"冰雹"),
	newConditionClass(ConditionLightningRainy,
		"thunder shower", "thunderstorm",
		"thunderstorm (high cloud cover)", "thunderstorm (medium cloud cover)", "thunderstorm (low cloud cover)",
		"tsra", "vctsra",
		"雷雨", "雷陣雨"),
	newConditionClass(ConditionLightning,
		"thunder",
		"ts",
		"雷", "閃電"),
	newConditionClass(ConditionPouring,
		"heavy rain shower", "heavy rain",
		"大雨", "豪雨"),
	newConditionClass(ConditionRainy,
		"rain", "light rain", "drizzle",
		"rain showers (high cloud cover)", "rain showers (low cloud cover)",
		"vcts", "vcsh", "vcts vcsh",
		"ra", "shra", "dz",
		"雨", "小雨", "陣雨", "毛毛雨"),
	newConditionClass(ConditionWindyVariant,
		"mostly cloudy and windy", "overcast and windy"),
	newConditionClass(ConditionWindy,
		"fair/clear and windy", "a few clouds and windy", "partly cloudy and windy"),
	newConditionClass(ConditionFog,
		"fog", "mist", "fog/mist",
		"fg", "br", "bcfg", "mifg",
		"霧", "靄", "輕霧"),
	newConditionClass(ConditionClear,
		"clear", "fair", "fair/clear",
		"cavok", "nsc", "skc", "clr",
		"晴", "晴天"),
	newConditionClass(ConditionCloudy,
		"mostly cloudy", "overcast",
		"ovc", "bkn",
		"陰", "陰天"),
	newConditionClass(ConditionPartlyCloudy,
		"a few clouds", "partly cloudy",
		"few", "sct",
		"多雲"),
}

func newConditionClass(c Condition, descriptors ...string) conditionClass {
	set := make(map[string]struct{}, len(descriptors))
	for _, d := range descriptors {
		set[conditionKey(d)] = struct{}{}
	}
	return conditionClass{condition: c, descriptors: set}
}

// conditionKey reduces a descriptor to lower-case letters and single spaces,
// the same reduction the normalizer applies to the weather column, so the
// descriptor "fog/mist" and a weather column reading "FOG/MIST" meet at
// "fogmist".
func conditionKey(s string) string {
	return strings.ToLower(letterText(s))
}

// ClassifyCondition maps free weather text to a canonical condition. It
// reports false for text no class recognizes; callers must treat that as
// unavailable rather than clear.
func ClassifyCondition(text string) (Condition, bool) {
	key := conditionKey(text)
	if key == "" {
		return ConditionUnknown, false
	}
	for _, class := range conditionClasses {
		if _, ok := class.descriptors[key]; ok {
			return class.condition, true
		}
	}
	return ConditionUnknown, false
}

// Conditions lists the canonical conditions in classification order.
func Conditions() []Condition {
	out := make([]Condition, len(conditionClasses))
	for i, class := range conditionClasses {
		out[i] = class.condition
	}
	return out
}
