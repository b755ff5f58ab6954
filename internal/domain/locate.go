package domain

// LocateStation returns the first row with a field containing station.
// Duplicate stations resolve to extraction order. Absence is a normal
// outcome and is reported with false.
func LocateStation(rows []RawRow, station string) (RawRow, bool) {
	if station == "" {
		return nil, false
	}
	for _, row := range rows {
		if row.Contains(station) {
			return row, true
		}
	}
	return nil, false
}
