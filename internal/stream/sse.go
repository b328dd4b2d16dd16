// Package stream implements Server-Sent Events (SSE) streaming of live
// antenna steering data. A client connects for one satellite and one
// observer location and receives a message per tick with the current look
// angles and sub-satellite point, suitable for driving a rotator.
//
// SSE message format:
//
//	data: {"type":"track","t":"2026-08-30T12:00:00Z","azimuth":...,"elevation":...}\n\n
//
// The first message on every connection is metadata:
//
//	data: {"type":"metadata","catalog":25544,"name":"ISS (ZARYA)",...}\n\n
//
// Keep-alive comments (:\n\n) are sent every KeepaliveInterval so idle
// connections survive proxies.
package stream

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/rotor/rotorgo/internal/epoch"
	"github.com/rotor/rotorgo/internal/httputil"
	"github.com/rotor/rotorgo/internal/metrics"
	"github.com/rotor/rotorgo/internal/propagation"
	"github.com/rotor/rotorgo/internal/tle"
	"github.com/rotor/rotorgo/internal/transform"
)

// Config holds streaming configuration loaded from environment variables.
type Config struct {
	MaxConcurrentPerIP int           // max concurrent streams per IP (default 10)
	MaxTotal           int           // global concurrent stream cap (default 1000)
	KeepaliveInterval  time.Duration // keep-alive ping interval (default 30s)
	TrustProxy         bool          // honor X-Forwarded-For / X-Real-IP
}

// Handler manages SSE tracking connections.
type Handler struct {
	store   *tle.Store
	config  Config
	limiter *streamLimiter
	logger  *slog.Logger
}

// NewHandler creates a new streaming handler.
func NewHandler(store *tle.Store, config Config, logger *slog.Logger) *Handler {
	return &Handler{
		store:   store,
		config:  config,
		limiter: newStreamLimiter(config.MaxConcurrentPerIP, config.MaxTotal),
		logger:  logger,
	}
}

// HandleTrack serves the SSE steering stream for one satellite.
// GET /api/v1/stream/track/{catalog}?lat=..&lon=..&alt=..&step=..
func (h *Handler) HandleTrack(w http.ResponseWriter, r *http.Request) {
	catalog, err := strconv.ParseInt(r.PathValue("catalog"), 10, 64)
	if err != nil || catalog <= 0 {
		badRequest(w, "invalid catalog number")
		return
	}

	obs, ok := observerFromQuery(w, r)
	if !ok {
		return
	}

	step := 1
	if v := r.URL.Query().Get("step"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 60 {
			badRequest(w, "invalid step parameter, must be 1-60")
			return
		}
		step = n
	}

	el := h.store.Lookup(catalog)
	if el == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "unknown catalog number"})
		return
	}

	ip := httputil.ClientIP(r, h.config.TrustProxy)
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
		"catalog", catalog,
		"step", step,
		"user_agent", r.Header.Get("User-Agent"),
	)

	defer func() {
		h.limiter.release(ip)
		metrics.IncStreamConnections("disconnect")
		metrics.DecStreamsActive()
		h.logger.Info("stream disconnected",
			"remote_ip", ip,
			"catalog", catalog,
			"duration_seconds", int(time.Since(startTime).Seconds()),
		)
	}()

	flusher, ok := w.(http.Flusher)
	if !ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "streaming not supported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // disable nginx buffering
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// Long-lived connection: clear the server's default write timeout.
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

	// Jittered retry interval (3-7s) prevents thundering-herd reconnects
	// after a restart.
	retryMs := 3000 + rand.Intn(4000)
	fmt.Fprintf(w, "retry: %d\n\n", retryMs)
	flusher.Flush()

	if ds := h.store.Get(); ds != nil {
		meta := metadataMessage{
			Type:         "metadata",
			Catalog:      el.CatalogNum,
			Name:         el.Name,
			ElementEpoch: el.Epoch.String(),
			DatasetEpoch: ds.FetchedAt.UTC().Format(time.RFC3339),
			TLEAge:       int(time.Since(ds.FetchedAt).Seconds()),
		}
		if err := c.sendJSON(meta); err != nil {
			metrics.IncStreamErrors("send_error")
			h.logger.Warn("stream send error (metadata)", "remote_ip", ip, "error", err)
			return
		}
	}

	ticker := time.NewTicker(time.Duration(step) * time.Second)
	defer ticker.Stop()

	keepaliveTicker := time.NewTicker(h.config.KeepaliveInterval)
	defer keepaliveTicker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return

		case now := <-ticker.C:
			msg, err := buildTrackMessage(el, obs, now)
			if err != nil {
				metrics.IncStreamErrors("predict_error")
				h.logger.Warn("stream predict error",
					"remote_ip", ip, "catalog", catalog, "error", err)
				continue
			}
			if err := c.sendJSON(msg); err != nil {
				metrics.IncStreamErrors("send_error")
				h.logger.Warn("stream send error", "remote_ip", ip, "error", err)
				return
			}
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

// buildTrackMessage predicts the satellite at now and formats the steering
// payload.
func buildTrackMessage(el *tle.Elements, obs *transform.Observer, now time.Time) (trackMessage, error) {
	st, err := propagation.Predict(el, epoch.FromTime(now))
	if err != nil {
		return trackMessage{}, err
	}
	la := st.Look(obs)
	lat, lon := st.GroundTrack()
	return trackMessage{
		Type:       "track",
		T:          now.UTC().Format(time.RFC3339),
		Azimuth:    la.AzimuthDeg,
		Elevation:  la.AltitudeDeg,
		RangeKm:    la.RangeKm,
		Latitude:   lat,
		Longitude:  lon,
		AltitudeKm: st.AltitudeKm(),
		Revolution: st.RevNumber,
	}, nil
}

// observerFromQuery parses and validates the observer location parameters.
// Writes the error response itself and reports ok=false on failure.
func observerFromQuery(w http.ResponseWriter, r *http.Request) (*transform.Observer, bool) {
	q := r.URL.Query()

	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		badRequest(w, "invalid lat parameter, must be -90..90")
		return nil, false
	}
	lon, err := strconv.ParseFloat(q.Get("lon"), 64)
	if err != nil || lon < -180 || lon > 180 {
		badRequest(w, "invalid lon parameter, must be -180..180")
		return nil, false
	}

	alt := 0.0
	if v := q.Get("alt"); v != "" {
		alt, err = strconv.ParseFloat(v, 64)
		if err != nil || alt < -500 || alt > 9000 {
			badRequest(w, "invalid alt parameter, must be -500..9000 meters")
			return nil, false
		}
	}

	return transform.NewObserver("query", lat, lon, alt), true
}

func badRequest(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// SSE message payload types.

type metadataMessage struct {
	Type         string `json:"type"`
	Catalog      int64  `json:"catalog"`
	Name         string `json:"name"`
	ElementEpoch string `json:"element_epoch"`
	DatasetEpoch string `json:"dataset_epoch"`
	TLEAge       int    `json:"tle_age_seconds"`
}

type trackMessage struct {
	Type       string  `json:"type"`
	T          string  `json:"t"`
	Azimuth    float64 `json:"azimuth"`
	Elevation  float64 `json:"elevation"`
	RangeKm    float64 `json:"range_km"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	AltitudeKm float64 `json:"altitude_km"`
	Revolution float64 `json:"revolution"`
}
