package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rotor/rotorgo/internal/epoch"
	"github.com/rotor/rotorgo/internal/passes"
	"github.com/rotor/rotorgo/internal/propagation"
	"github.com/rotor/rotorgo/internal/sun"
	"github.com/rotor/rotorgo/internal/tle"
	"github.com/rotor/rotorgo/internal/transform"
)

type trackResponse struct {
	Catalog    int64      `json:"catalog"`
	Name       string     `json:"name"`
	T          string     `json:"t"`
	Azimuth    float64    `json:"azimuth"`
	Elevation  float64    `json:"elevation"`
	RangeKm    float64    `json:"range_km"`
	Latitude   float64    `json:"latitude"`
	Longitude  float64    `json:"longitude"`
	AltitudeKm float64    `json:"altitude_km"`
	Revolution float64    `json:"revolution"`
	Position   [3]float64 `json:"position_km"`
	Velocity   [3]float64 `json:"velocity_km_s"`
}

// handleTrack serves a single prediction.
// GET /api/v1/track/{catalog}?lat=..&lon=..&alt=..&at=RFC3339
func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	catalog, ok := catalogParam(w, r)
	if !ok {
		return
	}
	obs, ok := observerFromQuery(w, r)
	if !ok {
		return
	}
	at, ok := timeParam(w, r, "at", time.Now())
	if !ok {
		return
	}

	el, ok := s.lookup(w, catalog)
	if !ok {
		return
	}

	st, err := propagation.Predict(el, epoch.FromTime(at))
	if err != nil {
		s.logger.Error("prediction failed", "catalog", catalog, "error", err)
		writeError(w, http.StatusInternalServerError, "prediction failed")
		return
	}

	la := st.Look(obs)
	lat, lon := st.GroundTrack()
	writeJSON(w, http.StatusOK, trackResponse{
		Catalog:    el.CatalogNum,
		Name:       el.Name,
		T:          at.UTC().Format(time.RFC3339),
		Azimuth:    la.AzimuthDeg,
		Elevation:  la.AltitudeDeg,
		RangeKm:    la.RangeKm,
		Latitude:   lat,
		Longitude:  lon,
		AltitudeKm: st.AltitudeKm(),
		Revolution: st.RevNumber,
		Position:   [3]float64{st.Position.X, st.Position.Y, st.Position.Z},
		Velocity:   [3]float64{st.Velocity.X, st.Velocity.Y, st.Velocity.Z},
	})
}

type sunResponse struct {
	T           string   `json:"t"`
	SubsolarLat float64  `json:"subsolar_lat"`
	SubsolarLon float64  `json:"subsolar_lon"`
	Azimuth     *float64 `json:"azimuth,omitempty"`
	Elevation   *float64 `json:"elevation,omitempty"`
}

// handleSun serves the solar ephemeris. Observer parameters are optional;
// when present the response includes local look angles.
// GET /api/v1/sun?lat=..&lon=..&alt=..&at=RFC3339
func (s *Server) handleSun(w http.ResponseWriter, r *http.Request) {
	at, ok := timeParam(w, r, "at", time.Now())
	if !ok {
		return
	}

	st := sun.Predict(epoch.FromTime(at))
	lat, lon := st.SubsolarPoint()
	resp := sunResponse{
		T:           at.UTC().Format(time.RFC3339),
		SubsolarLat: lat,
		SubsolarLon: lon,
	}

	q := r.URL.Query()
	if q.Get("lat") != "" || q.Get("lon") != "" {
		obs, ok := observerFromQuery(w, r)
		if !ok {
			return
		}
		la := st.Look(obs)
		resp.Azimuth = &la.AzimuthDeg
		resp.Elevation = &la.AltitudeDeg
	}

	writeJSON(w, http.StatusOK, resp)
}

type passesResponse struct {
	Catalog      int64              `json:"catalog"`
	Name         string             `json:"name"`
	Start        string             `json:"start"`
	HorizonHours float64            `json:"horizon_hours"`
	MinElevation float64            `json:"min_elevation"`
	Passes       []passes.PassEvent `json:"passes"`
}

// handlePasses serves upcoming pass predictions.
// GET /api/v1/passes/{catalog}?lat=..&lon=..&alt=..&hours=24&min_elevation=0&max_passes=10&from=RFC3339
func (s *Server) handlePasses(w http.ResponseWriter, r *http.Request) {
	catalog, ok := catalogParam(w, r)
	if !ok {
		return
	}
	obs, ok := observerFromQuery(w, r)
	if !ok {
		return
	}
	start, ok := timeParam(w, r, "from", time.Now())
	if !ok {
		return
	}

	hours := 24.0
	if v := r.URL.Query().Get("hours"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 1 || f > 72 {
			writeError(w, http.StatusBadRequest, "invalid hours parameter, must be 1-72")
			return
		}
		hours = f
	}

	minElev := 0.0
	if v := r.URL.Query().Get("min_elevation"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 || f > 90 {
			writeError(w, http.StatusBadRequest, "invalid min_elevation parameter, must be 0-90")
			return
		}
		minElev = f
	}

	maxPasses := 10
	if v := r.URL.Query().Get("max_passes"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 50 {
			writeError(w, http.StatusBadRequest, "invalid max_passes parameter, must be 1-50")
			return
		}
		maxPasses = n
	}

	el, ok := s.lookup(w, catalog)
	if !ok {
		return
	}

	events, err := passes.Predict(r.Context(), passes.Request{
		Observer:     obs,
		Elements:     el,
		Start:        epoch.FromTime(start),
		HorizonHours: hours,
		MinElevation: minElev,
		MaxPasses:    maxPasses,
	})
	if err != nil {
		s.logger.Error("pass prediction failed", "catalog", catalog, "error", err)
		writeError(w, http.StatusInternalServerError, "pass prediction failed")
		return
	}

	if events == nil {
		events = []passes.PassEvent{}
	}
	writeJSON(w, http.StatusOK, passesResponse{
		Catalog:      el.CatalogNum,
		Name:         el.Name,
		Start:        start.UTC().Format(time.RFC3339),
		HorizonHours: hours,
		MinElevation: minElev,
		Passes:       events,
	})
}

type satelliteMetadata struct {
	Catalog int64  `json:"catalog"`
	Name    string `json:"name"`
	Epoch   string `json:"epoch"`
}

type metadataResponse struct {
	Loaded     bool                `json:"loaded"`
	Source     string              `json:"source,omitempty"`
	FetchedAt  string              `json:"fetched_at,omitempty"`
	AgeSeconds float64             `json:"age_seconds,omitempty"`
	Count      int                 `json:"count"`
	EpochMin   string              `json:"epoch_min,omitempty"`
	EpochMax   string              `json:"epoch_max,omitempty"`
	Satellites []satelliteMetadata `json:"satellites,omitempty"`
}

// handleTLEMetadata reports the loaded dataset.
// GET /api/v1/tle/metadata
func (s *Server) handleTLEMetadata(w http.ResponseWriter, r *http.Request) {
	ds := s.deps.Store.Get()
	if ds == nil {
		writeJSON(w, http.StatusOK, metadataResponse{Loaded: false})
		return
	}

	sats := make([]satelliteMetadata, len(ds.Satellites))
	for i, e := range ds.Satellites {
		sats[i] = satelliteMetadata{
			Catalog: e.CatalogNum,
			Name:    e.Name,
			Epoch:   e.Epoch.String(),
		}
	}

	writeJSON(w, http.StatusOK, metadataResponse{
		Loaded:     true,
		Source:     ds.Source,
		FetchedAt:  ds.FetchedAt.UTC().Format(time.RFC3339),
		AgeSeconds: s.deps.Store.AgeSeconds(),
		Count:      len(sats),
		EpochMin:   ds.EpochRange.Min.String(),
		EpochMax:   ds.EpochRange.Max.String(),
		Satellites: sats,
	})
}

// handleTLEFetch triggers a dataset refresh from the remote source.
// POST /api/v1/tle/fetch
func (s *Server) handleTLEFetch(w http.ResponseWriter, r *http.Request) {
	if s.deps.Fetcher == nil {
		writeError(w, http.StatusServiceUnavailable, "fetching disabled")
		return
	}

	ds, err := tle.Refresh(r.Context(), s.deps.Store, s.deps.Fetcher, s.deps.Cache, s.logger)
	if err != nil {
		s.logger.Error("TLE refresh failed", "error", err)
		writeError(w, http.StatusBadGateway, "refresh failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"satellites": len(ds.Satellites),
		"source":     ds.Source,
		"fetched_at": ds.FetchedAt.UTC().Format(time.RFC3339),
	})
}

// lookup resolves a catalog number against the store, writing the error
// response on failure.
func (s *Server) lookup(w http.ResponseWriter, catalog int64) (*tle.Elements, bool) {
	if s.deps.Store.Get() == nil {
		writeError(w, http.StatusServiceUnavailable, "no element data loaded")
		return nil, false
	}
	el := s.deps.Store.Lookup(catalog)
	if el == nil {
		writeError(w, http.StatusNotFound, "unknown catalog number")
		return nil, false
	}
	return el, true
}

func catalogParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	catalog, err := strconv.ParseInt(r.PathValue("catalog"), 10, 64)
	if err != nil || catalog <= 0 {
		writeError(w, http.StatusBadRequest, "invalid catalog number")
		return 0, false
	}
	return catalog, true
}

// observerFromQuery parses and validates lat/lon/alt query parameters,
// writing the error response itself on failure.
func observerFromQuery(w http.ResponseWriter, r *http.Request) (*transform.Observer, bool) {
	q := r.URL.Query()

	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		writeError(w, http.StatusBadRequest, "invalid lat parameter, must be -90..90")
		return nil, false
	}
	lon, err := strconv.ParseFloat(q.Get("lon"), 64)
	if err != nil || lon < -180 || lon > 180 {
		writeError(w, http.StatusBadRequest, "invalid lon parameter, must be -180..180")
		return nil, false
	}

	alt := 0.0
	if v := q.Get("alt"); v != "" {
		alt, err = strconv.ParseFloat(v, 64)
		if err != nil || alt < -500 || alt > 9000 {
			writeError(w, http.StatusBadRequest, "invalid alt parameter, must be -500..9000 meters")
			return nil, false
		}
	}

	return transform.NewObserver("query", lat, lon, alt), true
}

// timeParam parses an optional RFC3339 query parameter, defaulting to def.
func timeParam(w http.ResponseWriter, r *http.Request, name string, def time.Time) (time.Time, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, true
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+name+" parameter, must be RFC3339")
		return time.Time{}, false
	}
	return t, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
