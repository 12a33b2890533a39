// Package snapshot maintains the latest per-site Mars clock readings.
//
// A background generator recomputes the full site table once per tick and
// publishes it through an atomic pointer, so the SSE stream and the sites
// endpoint fan one computation out to any number of readers instead of
// converting per client.
package snapshot

import (
	"sync/atomic"
	"time"

	"github.com/mars/marsclock/internal/marstime"
	"github.com/mars/marsclock/internal/site"
)

// SiteReading pairs a catalog site with its clock reading at the
// snapshot instant.
type SiteReading struct {
	Site    site.Site             `json:"site"`
	Reading marstime.ClockReading `json:"reading"`
	LTST    string                `json:"ltst"`
	MTC     string                `json:"mtc"`
}

// Snapshot is the site table at one Earth instant. Immutable after
// construction; safe to share across goroutines.
type Snapshot struct {
	EarthTime time.Time
	Readings  []SiteReading
}

// Compute builds a snapshot for the given instant and site catalog.
func Compute(t time.Time, sites []site.Site) (*Snapshot, error) {
	readings := make([]SiteReading, 0, len(sites))
	for _, s := range sites {
		r, err := marstime.Convert(t, s.LongitudeE)
		if err != nil {
			return nil, err
		}
		readings = append(readings, SiteReading{
			Site:    s,
			Reading: r,
			LTST:    marstime.FormatHMS(r.LTSTHours),
			MTC:     marstime.FormatHMS(r.MTCHours),
		})
	}
	return &Snapshot{EarthTime: t.UTC(), Readings: readings}, nil
}

// Store provides thread-safe access to the current snapshot.
type Store struct {
	snap atomic.Pointer[Snapshot]
}

// NewStore creates a new empty Store.
func NewStore() *Store {
	return &Store{}
}

// Get returns the current snapshot, or nil if none has been published.
func (s *Store) Get() *Snapshot {
	return s.snap.Load()
}

// Set atomically replaces the current snapshot.
func (s *Store) Set(snap *Snapshot) {
	s.snap.Store(snap)
}

// AgeSeconds returns the age of the current snapshot in seconds.
// Returns -1 if no snapshot has been published.
func (s *Store) AgeSeconds() float64 {
	snap := s.snap.Load()
	if snap == nil {
		return -1
	}
	return time.Since(snap.EarthTime).Seconds()
}
