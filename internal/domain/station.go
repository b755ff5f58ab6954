package domain

import "slices"

// Attribution is shown wherever observations are exposed.
const Attribution = "Data provided by the Taiwan Air Navigation & Weather Services"

// Languages accepted by the AOAWS page. DefaultLanguage is the local one.
const (
	LanguageEnglish = "en"
	LanguageTaiwan  = "tw"
	DefaultLanguage = LanguageTaiwan
)

// KnownStations are the aerodromes listed on the AOAWS Taiwan page.
var KnownStations = []string{
	"Taoyuan",
	"Taipei",
	"Kaohsiung",
	"Taitung",
	"Hengchun",
	"Kinmen",
	"Beigan",
	"Nangan",
	"Ludao",
	"Lanyu",
	"Penghu",
	"Qimei",
	"Wang-an",
	"Taichung",
	"Chaiyi",
	"Tainan",
	"Hualien",
}

// IsKnownStation reports whether name is one of KnownStations.
func IsKnownStation(name string) bool {
	return slices.Contains(KnownStations, name)
}

// IsSupportedLanguage reports whether lang is "en" or "tw".
func IsSupportedLanguage(lang string) bool {
	return lang == LanguageEnglish || lang == LanguageTaiwan
}
