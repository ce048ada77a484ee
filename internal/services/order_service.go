package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"salesdash/internal/core"
	"salesdash/internal/observability"
	"salesdash/internal/sheets"
)

// reloadTimeout bounds a single load from the dataset source.
const reloadTimeout = 2 * time.Minute

// Reload triggers
const (
	TriggerStartup = "startup"
	TriggerHTTP    = "http"
	TriggerAMQP    = "amqp"
	TriggerSignal  = "signal"
)

// ReloadResult describes the dataset installed by a reload.
type ReloadResult struct {
	Rows     int           `json:"rows"`
	Version  uint64        `json:"version"`
	Duration time.Duration `json:"duration"`
}

// OrderService owns the dataset served by the process. Readers take
// snapshots; AddOrder and Reload are the only writers. Every change bumps
// the version, which callers use to key derived results.
//
// Orders added through AddOrder live in memory only and are dropped by the
// next Reload.
type OrderService struct {
	loader sheets.DatasetLoader
	logger *slog.Logger

	mu       sync.RWMutex
	ds       *core.Dataset
	version  uint64
	loaded   bool
	onChange []func(version uint64)

	reloads singleflight.Group
}

func NewOrderService(loader sheets.DatasetLoader, logger *slog.Logger) *OrderService {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderService{
		loader: loader,
		logger: logger,
		ds:     core.NewDataset(nil, nil),
	}
}

// OnChange registers fn to run after every version bump. fn runs with the
// service unlocked and must not block.
func (s *OrderService) OnChange(fn func(version uint64)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

// Snapshot returns a read-only view of the current dataset and its version.
// The view never changes, even if orders are added afterwards.
func (s *OrderService) Snapshot() (*core.Dataset, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ds.Snapshot(), s.version
}

// Version returns the current dataset version.
func (s *OrderService) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Ready reports whether a dataset has been loaded.
func (s *OrderService) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// AddOrder validates r and appends it to the dataset. Missing keys yield
// core.ErrMissingKey, an existing (order, product) pair yields a
// *core.DuplicateOrderError, and the dataset is unchanged on any error. The
// stored record is returned with its row id and returned flag filled in.
func (s *OrderService) AddOrder(ctx context.Context, r core.Record) (core.Record, error) {
	s.mu.Lock()
	if err := s.ds.Append(r); err != nil {
		s.mu.Unlock()
		observability.OrdersTotal.WithLabelValues(orderResult(err)).Inc()
		s.logger.InfoContext(ctx, "Order rejected",
			"order_id", r.OrderID,
			"product_id", r.ProductID,
			"error", err)
		return core.Record{}, err
	}
	stored := s.ds.Orders[len(s.ds.Orders)-1]
	version := s.bumpLocked()
	listeners := s.onChange
	s.mu.Unlock()

	observability.OrdersTotal.WithLabelValues("added").Inc()
	s.logger.InfoContext(ctx, "Order added",
		"order_id", stored.OrderID,
		"product_id", stored.ProductID,
		"row_id", stored.RowID,
		"version", version)
	notify(listeners, version)
	return stored, nil
}

func orderResult(err error) string {
	if errors.Is(err, core.ErrDuplicateOrder) {
		return "duplicate"
	}
	return "invalid"
}

// Reload reads the dataset from the loader and installs it. Concurrent
// calls share a single load. On failure the current dataset is kept.
//
// The shared load is detached from ctx and bounded by reloadTimeout. A
// cancelled caller stops waiting without cancelling the load.
func (s *OrderService) Reload(ctx context.Context, trigger string) (ReloadResult, error) {
	ch := s.reloads.DoChan("reload", func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reloadTimeout)
		defer cancel()
		return s.reload(loadCtx, trigger)
	})

	select {
	case <-ctx.Done():
		return ReloadResult{}, ctx.Err()
	case res := <-ch:
		if res.Shared {
			s.logger.DebugContext(ctx, "Joined in-flight reload", "trigger", trigger)
		}
		if res.Err != nil {
			return ReloadResult{}, res.Err
		}
		return res.Val.(ReloadResult), nil
	}
}

func (s *OrderService) reload(ctx context.Context, trigger string) (ReloadResult, error) {
	start := time.Now()
	if s.loader == nil {
		return ReloadResult{}, errors.New("no dataset loader configured")
	}
	ds, err := s.loader.Load(ctx)
	observability.ReloadsTotal.WithLabelValues(trigger, observability.StatusLabel(err)).Inc()
	if err != nil {
		s.logger.ErrorContext(ctx, "Dataset reload failed", "trigger", trigger, "error", err)
		return ReloadResult{}, fmt.Errorf("load dataset: %w", err)
	}

	s.mu.Lock()
	s.ds = ds
	s.loaded = true
	version := s.bumpLocked()
	listeners := s.onChange
	s.mu.Unlock()

	res := ReloadResult{Rows: ds.Len(), Version: version, Duration: time.Since(start)}
	s.logger.InfoContext(ctx, "Dataset loaded",
		"trigger", trigger,
		"rows", res.Rows,
		"returns", len(ds.Returns),
		"version", version,
		"duration", res.Duration)
	notify(listeners, version)
	return res, nil
}

func (s *OrderService) bumpLocked() uint64 {
	s.version++
	observability.DatasetVersion.Set(float64(s.version))
	observability.DatasetRows.Set(float64(s.ds.Len()))
	return s.version
}

func notify(listeners []func(uint64), version uint64) {
	for _, fn := range listeners {
		fn(version)
	}
}
