package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"salesdash/internal/core"
	applog "salesdash/internal/log"
	"salesdash/internal/observability"
	"salesdash/internal/services"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().JSON(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady reports ready once a dataset has been loaded.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ds, version := s.orders.Snapshot()
	body := map[string]any{
		"rows":       ds.Len(),
		"version":    version,
		"cache_size": s.responses.Size(),
	}
	if !s.orders.Ready() {
		body["status"] = "not_ready"
		NewJSONResponse().Status(http.StatusServiceUnavailable).JSON(body).Write(w)
		return
	}
	body["status"] = "ready"
	NewJSONResponse().JSON(body).Write(w)
}

// handleReload re-reads the dataset from its source.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	res, err := s.orders.Reload(ctx, services.TriggerHTTP)
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(ctx, "Reload request failed", applog.FieldError, err)
		ServiceUnavailableError("dataset reload failed, the previous dataset is still served").Write(w)
		return
	}
	NewJSONResponse().JSON(map[string]any{
		"rows":        res.Rows,
		"version":     res.Version,
		"duration_ms": res.Duration.Milliseconds(),
	}).Write(w)
}

// computeFunc produces the response value for one snapshot.
type computeFunc func(ds *core.Dataset) (any, error)

// serveCached answers from the response cache when the dataset version and
// query string match a previous request, and computes otherwise. Parameter
// errors become 400 and are never cached.
func (s *Server) serveCached(w http.ResponseWriter, r *http.Request, kind string, compute computeFunc) {
	ds, version := s.orders.Snapshot()
	key := fmt.Sprintf("%d|%s|%s", version, kind, r.URL.Query().Encode())

	if body, ok := s.responses.Get(key); ok {
		observability.CacheRequests.WithLabelValues("hit").Inc()
		observability.AggregationsTotal.WithLabelValues(kind, "cached").Inc()
		NewJSONResponse().Header("X-Cache", "hit").Body(body).Write(w)
		return
	}
	observability.CacheRequests.WithLabelValues("miss").Inc()

	start := time.Now()
	v, err := compute(ds)
	if err != nil {
		if isParamError(err) {
			BadRequestError(err.Error()).Write(w)
			return
		}
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Aggregation failed", "kind", kind, applog.FieldError, err)
		InternalServerError("aggregation failed").Write(w)
		return
	}
	observability.ObserveAggregation(kind, start)

	resp := NewJSONResponse().Header("X-Cache", "miss").JSON(v)
	if body, err := resp.Bytes(); err == nil {
		s.responses.Set(key, body)
	} else {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Encoding response failed", "kind", kind, applog.FieldError, err)
	}
	resp.Write(w)
}

// orderStatus maps AddOrder failures to HTTP responses.
func orderStatus(err error) *JSONResponseBuilder {
	switch {
	case errors.Is(err, core.ErrDuplicateOrder):
		return ConflictError(err.Error())
	case errors.Is(err, core.ErrMissingKey),
		errors.Is(err, core.ErrNegativeQuantity),
		errors.Is(err, core.ErrDiscountRange):
		return UnprocessableEntityError(err.Error())
	}
	return InternalServerError("failed to add order")
}
