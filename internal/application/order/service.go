package order

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/unistore/backend/internal/domain/order"
	"github.com/unistore/backend/internal/domain/storefront"
)

// PollState describes where the background poll loop currently is.
type PollState string

const (
	PollStateIdle      PollState = "idle"
	PollStatePolling   PollState = "polling"
	PollStateComplete  PollState = "complete"
	PollStateTimedOut  PollState = "timed_out"
	PollStateCancelled PollState = "cancelled"
)

// FetchResult is the outcome of one fan-out across the order sources.
type FetchResult struct {
	Orders       []order.Order `json:"orders"`
	AllSourcesOK bool          `json:"all_sources_ok"`
	Warnings     []string      `json:"warnings,omitempty"`
}

// PollSnapshot is the observable state of the poll loop. The last merged
// order list survives completion, timeout, and cancellation alike.
type PollSnapshot struct {
	RunID        string        `json:"run_id,omitempty"`
	State        PollState     `json:"state"`
	Orders       []order.Order `json:"orders"`
	AllSourcesOK bool          `json:"all_sources_ok"`
	Warnings     []string      `json:"warnings,omitempty"`
	StartedAt    time.Time     `json:"started_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Service aggregates orders from the remote storefronts and drives the
// checkout poll loop.
type Service struct {
	gateways []storefront.Gateway
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger

	mu       sync.Mutex
	snapshot PollSnapshot
	cancel   context.CancelFunc
}

// NewService creates an order service over the given storefront gateways.
func NewService(gateways []storefront.Gateway, interval, timeout time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		gateways: gateways,
		interval: interval,
		timeout:  timeout,
		logger:   logger,
		snapshot: PollSnapshot{State: PollStateIdle},
	}
}

// FetchOnce fans out to every order source concurrently. A failing source
// contributes zero orders and flips AllSourcesOK; it never aborts the rest.
func (s *Service) FetchOnce(ctx context.Context) FetchResult {
	type sourceResult struct {
		orders []order.Order
		err    error
	}

	results := make([]sourceResult, len(s.gateways))
	var wg sync.WaitGroup
	for i, gw := range s.gateways {
		wg.Add(1)
		go func(i int, gw storefront.Gateway) {
			defer wg.Done()
			orders, err := gw.ListOrders(ctx)
			results[i] = sourceResult{orders: orders, err: err}
		}(i, gw)
	}
	wg.Wait()

	result := FetchResult{AllSourcesOK: true}
	var batches [][]order.Order
	for i, res := range results {
		src := s.gateways[i].Source()
		if res.err != nil {
			result.AllSourcesOK = false
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("could not fetch orders from %s", src))
			s.logger.Warn("order fetch failed",
				zap.String("source", src.String()), zap.Error(res.err))
			continue
		}
		batches = append(batches, res.orders)
	}
	result.Orders = order.Merge(batches...)
	return result
}

// ListMerged runs one fan-out and returns the merged list with warnings.
// Used by the best-seller join, which needs orders but not the poll loop.
func (s *Service) ListMerged(ctx context.Context) ([]order.Order, []string) {
	result := s.FetchOnce(ctx)
	return result.Orders, result.Warnings
}

// StartPoll begins a background poll loop and returns its run id. A loop
// already in flight is cancelled first; the new run replaces it.
func (s *Service) StartPoll(ctx context.Context) string {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	runID := uuid.NewString()
	pollCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.snapshot = PollSnapshot{
		RunID:     runID,
		State:     PollStatePolling,
		StartedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	s.mu.Unlock()

	go s.poll(pollCtx, runID)
	return runID
}

// poll repeatedly fetches until every source answers, the timeout elapses,
// or the run is cancelled. The snapshot is updated after every tick so
// callers see partial progress.
func (s *Service) poll(ctx context.Context, runID string) {
	deadline := time.Now().Add(s.timeout)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if ctx.Err() != nil {
			s.finish(runID, PollStateCancelled, nil)
			return
		}

		result := s.FetchOnce(ctx)
		s.update(runID, result)

		if result.AllSourcesOK {
			s.finish(runID, PollStateComplete, nil)
			return
		}
		if time.Now().After(deadline) {
			s.finish(runID, PollStateTimedOut,
				[]string{"could not reach all order sources before the deadline"})
			return
		}

		select {
		case <-ctx.Done():
			s.finish(runID, PollStateCancelled, nil)
			return
		case <-ticker.C:
		}
	}
}

func (s *Service) update(runID string, result FetchResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot.RunID != runID {
		return
	}
	s.snapshot.Orders = result.Orders
	s.snapshot.AllSourcesOK = result.AllSourcesOK
	s.snapshot.Warnings = result.Warnings
	s.snapshot.UpdatedAt = time.Now()
}

func (s *Service) finish(runID string, state PollState, extraWarnings []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot.RunID != runID {
		return
	}
	s.snapshot.State = state
	s.snapshot.Warnings = append(s.snapshot.Warnings, extraWarnings...)
	s.snapshot.UpdatedAt = time.Now()
}

// CancelPoll stops the current poll loop, keeping the last fetched list.
func (s *Service) CancelPoll() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Snapshot returns the current observable poll state.
func (s *Service) Snapshot() PollSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snapshot
	snap.Orders = append([]order.Order(nil), s.snapshot.Orders...)
	snap.Warnings = append([]string(nil), s.snapshot.Warnings...)
	return snap
}
