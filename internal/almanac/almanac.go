// Package almanac produces sampled Mars clock series over an Earth time
// range, for sol planning views and plotting. Each requested site is
// sampled independently with bounded concurrency.
package almanac

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/mars/marsclock/internal/marstime"
	"github.com/mars/marsclock/internal/site"
)

// Sample is one point of an almanac series.
type Sample struct {
	EarthTime time.Time             `json:"earth_time"`
	Reading   marstime.ClockReading `json:"reading"`
	LTST      string                `json:"ltst"`
}

// Series holds the sampled readings for one site.
type Series struct {
	Site    site.Site `json:"site"`
	Samples []Sample  `json:"samples"`
	Error   string    `json:"error,omitempty"`
}

// Request holds the parameters for an almanac generation request.
type Request struct {
	Sites   []site.Site
	Start   time.Time
	Horizon time.Duration
	Step    time.Duration
}

// NumSamples returns the number of points each series will contain.
func (r Request) NumSamples() int {
	if r.Step <= 0 || r.Horizon < 0 {
		return 0
	}
	return int(r.Horizon/r.Step) + 1
}

// Generate computes almanac series for the given request. Each site is
// processed in its own goroutine, bounded by a semaphore sized to the
// CPU count. A cancelled context marks unfinished series rather than
// returning partial slices.
func Generate(ctx context.Context, req Request) []Series {
	results := make([]Series, len(req.Sites))
	sem := make(chan struct{}, runtime.NumCPU())
	var wg sync.WaitGroup

	for i, s := range req.Sites {
		wg.Add(1)
		go func(idx int, s site.Site) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[idx] = Series{Site: s, Error: "cancelled"}
				return
			}

			samples, err := sampleSite(ctx, req, s)
			if err != nil {
				results[idx] = Series{Site: s, Error: err.Error()}
				return
			}
			results[idx] = Series{Site: s, Samples: samples}
		}(i, s)
	}

	wg.Wait()
	return results
}

// sampleSite walks the time range for a single site.
func sampleSite(ctx context.Context, req Request, s site.Site) ([]Sample, error) {
	n := req.NumSamples()
	samples := make([]Sample, 0, n)

	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			return samples, ctx.Err()
		default:
		}

		t := req.Start.Add(time.Duration(i) * req.Step)
		r, err := marstime.Convert(t, s.LongitudeE)
		if err != nil {
			return nil, err
		}
		samples = append(samples, Sample{
			EarthTime: t.UTC(),
			Reading:   r,
			LTST:      marstime.FormatHMS(r.LTSTHours),
		})
	}

	return samples, nil
}
