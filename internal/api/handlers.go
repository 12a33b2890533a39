package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mars/marsclock/internal/almanac"
	"github.com/mars/marsclock/internal/marstime"
	"github.com/mars/marsclock/internal/metrics"
	"github.com/mars/marsclock/internal/site"
	"github.com/mars/marsclock/internal/snapshot"
)

// maxAlmanacSamples caps the per-request almanac size so one query cannot
// pin a CPU for an arbitrary horizon/step combination.
const maxAlmanacSamples = 10000

// convertRequest is the POST /api/v1/marstime body. Timestamps must be
// RFC3339 with an explicit UTC offset; lat is accepted and echoed but
// plays no part in the conversion.
type convertRequest struct {
	EarthTime string   `json:"earth_time"`
	Lon       *float64 `json:"lon"`
	Lat       *float64 `json:"lat,omitempty"`
}

type convertResponse struct {
	EarthTime string                `json:"earth_time"`
	Lon       float64               `json:"lon"`
	Lat       *float64              `json:"lat,omitempty"`
	Reading   marstime.ClockReading `json:"reading"`
	MTC       string                `json:"mtc"`
	LMST      string                `json:"lmst"`
	LTST      string                `json:"ltst"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// parseTimestamp parses an RFC3339 timestamp. Strings without an explicit
// offset ("naive" timestamps) fail here; callers must say what instant
// they mean.
func parseTimestamp(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

func (s *Server) handleConvertPost(w http.ResponseWriter, r *http.Request) {
	var req convertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.IncConversionErrors("bad_body")
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.EarthTime == "" {
		metrics.IncConversionErrors("missing_timestamp")
		writeError(w, http.StatusBadRequest, "earth_time is required")
		return
	}
	t, err := parseTimestamp(req.EarthTime)
	if err != nil {
		metrics.IncConversionErrors("bad_timestamp")
		writeError(w, http.StatusBadRequest, "earth_time must be RFC3339 with an explicit UTC offset")
		return
	}

	if req.Lon == nil {
		metrics.IncConversionErrors("missing_lon")
		writeError(w, http.StatusBadRequest, "lon is required")
		return
	}

	reading, err := marstime.Convert(t, *req.Lon)
	if err != nil {
		metrics.IncConversionErrors("bad_timestamp")
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	metrics.IncConversions()

	writeJSON(w, http.StatusOK, convertResponse{
		EarthTime: t.UTC().Format(time.RFC3339),
		Lon:       marstime.NormalizeLongitude(*req.Lon),
		Lat:       req.Lat,
		Reading:   reading,
		MTC:       marstime.FormatHMS(reading.MTCHours),
		LMST:      marstime.FormatHMS(reading.LMSTHours),
		LTST:      marstime.FormatHMS(reading.LTSTHours),
	})
}

func (s *Server) handleConvertGet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	t := time.Now().UTC()
	if v := q.Get("t"); v != "" {
		parsed, err := parseTimestamp(v)
		if err != nil {
			metrics.IncConversionErrors("bad_timestamp")
			writeError(w, http.StatusBadRequest, "t must be RFC3339 with an explicit UTC offset")
			return
		}
		t = parsed
	}

	lon := 0.0 // Airy-0 meridian.
	if v := q.Get("lon"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			metrics.IncConversionErrors("bad_lon")
			writeError(w, http.StatusBadRequest, "lon must be a number (degrees east)")
			return
		}
		lon = parsed
	}

	reading, err := marstime.Convert(t, lon)
	if err != nil {
		metrics.IncConversionErrors("bad_timestamp")
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	metrics.IncConversions()

	writeJSON(w, http.StatusOK, convertResponse{
		EarthTime: t.UTC().Format(time.RFC3339),
		Lon:       marstime.NormalizeLongitude(lon),
		Reading:   reading,
		MTC:       marstime.FormatHMS(reading.MTCHours),
		LMST:      marstime.FormatHMS(reading.LMSTHours),
		LTST:      marstime.FormatHMS(reading.LTSTHours),
	})
}

type sitesResponse struct {
	EarthTime string                 `json:"earth_time"`
	Sites     []snapshot.SiteReading `json:"sites"`
}

// handleSites serves the current site table. It prefers the published
// snapshot and recomputes only when the generator has not run yet.
func (s *Server) handleSites(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Get()
	if snap == nil {
		fresh, err := snapshot.Compute(time.Now().UTC(), s.sites)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "snapshot unavailable")
			return
		}
		snap = fresh
	}

	writeJSON(w, http.StatusOK, sitesResponse{
		EarthTime: snap.EarthTime.Format(time.RFC3339),
		Sites:     snap.Readings,
	})
}

// handleAlmanac serves a sampled reading series for one site.
// GET /api/v1/almanac?lon=137.4&start=2025-10-25T00:00:00Z&hours=24&step=600
// A catalog site can be picked by name instead of lon: ?site=Gale+Crater
func (s *Server) handleAlmanac(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var target site.Site
	switch {
	case q.Get("site") != "":
		name := q.Get("site")
		found := false
		for _, cand := range s.sites {
			if strings.EqualFold(cand.Name, name) {
				target = cand
				found = true
				break
			}
		}
		if !found {
			writeError(w, http.StatusBadRequest, "unknown site "+strconv.Quote(name))
			return
		}
	case q.Get("lon") != "":
		lon, err := strconv.ParseFloat(q.Get("lon"), 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "lon must be a number (degrees east)")
			return
		}
		target = site.Site{Name: "custom", LongitudeE: lon}
	default:
		writeError(w, http.StatusBadRequest, "lon or site is required")
		return
	}

	start := time.Now().UTC()
	if v := q.Get("start"); v != "" {
		parsed, err := parseTimestamp(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "start must be RFC3339 with an explicit UTC offset")
			return
		}
		start = parsed
	}

	hours := 24.0
	if v := q.Get("hours"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "hours must be a positive number")
			return
		}
		hours = parsed
	}

	stepSeconds := 600
	if v := q.Get("step"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "step must be a positive integer (seconds)")
			return
		}
		stepSeconds = n
	}

	req := almanac.Request{
		Sites:   []site.Site{target},
		Start:   start,
		Horizon: time.Duration(hours * float64(time.Hour)),
		Step:    time.Duration(stepSeconds) * time.Second,
	}

	if n := req.NumSamples(); n > maxAlmanacSamples {
		writeError(w, http.StatusBadRequest,
			"requested "+strconv.Itoa(n)+" samples, limit is "+strconv.Itoa(maxAlmanacSamples))
		return
	}

	results := almanac.Generate(r.Context(), req)
	series := results[0]
	if series.Error != "" {
		writeError(w, http.StatusBadRequest, series.Error)
		return
	}

	writeJSON(w, http.StatusOK, series)
}
