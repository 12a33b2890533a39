// Package stream implements Server-Sent Events (SSE) streaming of the
// site clock table. Clients connect via GET /api/v1/stream/clock and
// receive one snapshot message per interval.
//
// SSE message format:
//
//	data: {"type":"clock","t":"2025-10-25T00:10:25Z","sites":[...]}\n\n
//
// First message is always metadata:
//
//	data: {"type":"metadata","server_time":"...","site_count":5}\n\n
//
// Keep-alive comments (:\n\n) are sent every KeepaliveInterval to prevent
// timeout. Reconnecting clients receive a fresh metadata message on each
// connection.
package stream

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/mars/marsclock/internal/metrics"
	"github.com/mars/marsclock/internal/snapshot"
)

// Config holds streaming configuration loaded from environment variables.
type Config struct {
	MaxConcurrentPerIP int           // Max concurrent streams per IP (default: 10).
	KeepaliveInterval  time.Duration // Keep-alive ping interval (default: 30s).
}

// Handler manages SSE streaming connections.
type Handler struct {
	store   *snapshot.Store
	config  Config
	limiter *streamLimiter
	logger  *slog.Logger
}

// NewHandler creates a new streaming handler reading from the snapshot store.
func NewHandler(store *snapshot.Store, config Config, logger *slog.Logger) *Handler {
	return &Handler{
		store:   store,
		config:  config,
		limiter: newStreamLimiter(config.MaxConcurrentPerIP),
		logger:  logger,
	}
}

// HandleClock serves the SSE clock stream.
// GET /api/v1/stream/clock?interval=1
func (h *Handler) HandleClock(w http.ResponseWriter, r *http.Request) {
	interval := 1
	if v := r.URL.Query().Get("interval"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 60 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "invalid interval parameter, must be 1-60"})
			return
		}
		interval = n
	}

	// Rate limiting: enforce concurrent stream limit per IP.
	ip := clientIP(r)
	if !h.limiter.acquire(ip) {
		metrics.IncStreamErrors("rate_limit")
		h.logger.Warn("stream rate limit exceeded",
			"remote_ip", ip,
			"current_count", h.limiter.count(ip),
		)
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]string{"error": "too many concurrent streams"})
		return
	}

	metrics.IncStreamConnections("connect")
	metrics.IncStreamsActive()

	startTime := time.Now()
	h.logger.Info("stream connected",
		"remote_ip", ip,
		"user_agent", r.Header.Get("User-Agent"),
		"interval", interval,
	)

	// Cleanup on disconnect: release rate limit slot and update metrics.
	defer func() {
		h.limiter.release(ip)
		metrics.IncStreamConnections("disconnect")
		metrics.DecStreamsActive()
		h.logger.Info("stream disconnected",
			"remote_ip", ip,
			"duration_seconds", int(time.Since(startTime).Seconds()),
		)
	}()

	// Verify flusher support (required for SSE).
	flusher, ok := w.(http.Flusher)
	if !ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "streaming not supported"})
		return
	}

	// Set SSE response headers.
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering.
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// Use ResponseController to manage write deadlines for long-lived SSE.
	// Clear the server's default WriteTimeout for this connection.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		h.logger.Debug("could not clear write deadline", "error", err)
	}

	c := &client{
		w:       w,
		flusher: flusher,
		rc:      rc,
		ip:      ip,
		logger:  h.logger,
	}

	// Send jittered retry interval (3-7s) to prevent thundering-herd
	// reconnection storms when the server restarts.
	retryMs := 3000 + rand.Intn(4000)
	fmt.Fprintf(w, "retry: %d\n\n", retryMs)
	flusher.Flush()

	// Send metadata message (first message on every connection).
	meta := metadataMessage{
		Type:       "metadata",
		ServerTime: time.Now().UTC().Format(time.RFC3339),
	}
	if snap := h.store.Get(); snap != nil {
		meta.SiteCount = len(snap.Readings)
	}
	if err := c.sendJSON(meta); err != nil {
		metrics.IncStreamErrors("send_error")
		h.logger.Warn("stream send error (metadata)", "remote_ip", ip, "error", err)
		return
	}

	// Stream clock snapshots at the requested interval.
	ticker := time.NewTicker(time.Duration(interval) * time.Second)
	defer ticker.Stop()

	keepaliveTicker := time.NewTicker(h.config.KeepaliveInterval)
	defer keepaliveTicker.Stop()

	ctx := r.Context()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			snap := h.store.Get()
			if snap == nil {
				metrics.IncStreamErrors("no_snapshot")
				h.logger.Debug("stream tick with no snapshot", "remote_ip", ip)
				continue
			}

			if err := c.sendJSON(buildClockMessage(snap)); err != nil {
				metrics.IncStreamErrors("send_error")
				h.logger.Warn("stream send error", "remote_ip", ip, "error", err)
				return
			}

			// Reset keepalive since we just sent data.
			keepaliveTicker.Reset(h.config.KeepaliveInterval)

		case <-keepaliveTicker.C:
			if err := c.sendKeepalive(); err != nil {
				metrics.IncStreamErrors("send_error")
				h.logger.Warn("stream keepalive error", "remote_ip", ip, "error", err)
				return
			}
		}
	}
}

// buildClockMessage formats a snapshot into the SSE clock payload.
func buildClockMessage(snap *snapshot.Snapshot) clockMessage {
	sites := make([]sitePayload, len(snap.Readings))
	for i, sr := range snap.Readings {
		sites[i] = sitePayload{
			Name: sr.Site.Name,
			Lon:  sr.Site.LongitudeE,
			LTST: sr.LTST,
			MTC:  sr.MTC,
			MSD:  sr.Reading.MarsSolDate,
			Sol:  sr.Reading.SolNumber,
		}
	}
	return clockMessage{
		Type:  "clock",
		T:     snap.EarthTime.Format(time.RFC3339),
		Sites: sites,
	}
}

// clientIP extracts the client IP from RemoteAddr, tolerating addresses
// without a port.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// SSE message payload types.

type metadataMessage struct {
	Type       string `json:"type"`
	ServerTime string `json:"server_time"`
	SiteCount  int    `json:"site_count"`
}

type clockMessage struct {
	Type  string        `json:"type"`
	T     string        `json:"t"`
	Sites []sitePayload `json:"sites"`
}

type sitePayload struct {
	Name string  `json:"name"`
	Lon  float64 `json:"lon"`
	LTST string  `json:"ltst"`
	MTC  string  `json:"mtc"`
	MSD  float64 `json:"msd"`
	Sol  int64   `json:"sol"`
}
