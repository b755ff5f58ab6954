package domain

type visibilityBand struct {
	maxKM float64
	label string
}

// visibilityBands is ordered by ascending threshold.
var visibilityBands = []visibilityBand{
	{0.1, "Very Poor"},
	{0.4, "Poor"},
	{1, "Moderate"},
	{2, "Good"},
	{4, "Very Good"},
	{8, "Excellent"},
	{10, "Extreme Excellent"},
}

// VisibilityBand returns the label of the first band whose threshold is at
// least km. Distances beyond the last threshold get the last label.
func VisibilityBand(km float64) string {
	for _, b := range visibilityBands {
		if km <= b.maxKM {
			return b.label
		}
	}
	return visibilityBands[len(visibilityBands)-1].label
}
