package pipeline

import (
	"time"

	"github.com/couchcryptid/aoaws-etl/internal/domain"
)

// Snapshot is the result of one successful fetch. It is never modified after
// it is published; a new fetch replaces it as a whole.
type Snapshot struct {
	Language     string
	FetchedAt    time.Time
	Rows         []domain.RawRow
	Observations map[string]domain.Observation
	Resolved     map[string]bool
	// Failures holds the normalization error text per station.
	Failures map[string]string
}

func newSnapshot(lang string, fetchedAt time.Time, rows []domain.RawRow) *Snapshot {
	return &Snapshot{
		Language:     lang,
		FetchedAt:    fetchedAt,
		Rows:         rows,
		Observations: make(map[string]domain.Observation),
		Resolved:     make(map[string]bool),
		Failures:     make(map[string]string),
	}
}

// Observation returns the station's observation from this fetch.
func (s *Snapshot) Observation(station string) (domain.Observation, bool) {
	if s == nil {
		return domain.Observation{}, false
	}
	obs, ok := s.Observations[station]
	return obs, ok
}

// IsResolved reports whether the station was found in the fetched table.
func (s *Snapshot) IsResolved(station string) bool {
	if s == nil {
		return false
	}
	return s.Resolved[station]
}
