// Package pipeline runs the configured collection targets through their
// chamber adapters and writes the terminal dataset index.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/devoid00/creto-votes/internal/telemetry"
	"github.com/devoid00/creto-votes/internal/votes"
)

// Collector gathers all roll calls for one target and reports how many it
// persisted.
type Collector interface {
	Collect(ctx context.Context, t votes.Target) (int, error)
}

// TargetStatus describes one target's progress within a run.
type TargetStatus struct {
	Target votes.Target `json:"target"`
	State  string       `json:"state"`
	Count  int          `json:"count"`
	Error  string       `json:"error,omitempty"`
}

// Target states as reported by Status.
const (
	StatePending   = "pending"
	StateRunning   = "running"
	StateCollected = "collected"
	StateFailed    = "failed"
)

// RunStatus is a point-in-time snapshot of the whole run.
type RunStatus struct {
	RunID      string         `json:"run_id"`
	StartedAt  string         `json:"started_at,omitempty"`
	FinishedAt string         `json:"finished_at,omitempty"`
	Targets    []TargetStatus `json:"targets"`
}

// Orchestrator walks the target list sequentially, dispatching each target
// to the adapter for its chamber. A failed target is recorded and skipped;
// the remaining targets still run and the index still covers whatever
// succeeded.
type Orchestrator struct {
	collectors map[votes.Chamber]Collector
	sink       votes.Sink
	clock      votes.Clock
	logger     *zap.Logger

	mu     sync.Mutex
	status RunStatus
}

// New builds an Orchestrator over one Collector per chamber.
func New(collectors map[votes.Chamber]Collector, sink votes.Sink, clock votes.Clock, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		collectors: collectors,
		sink:       sink,
		clock:      clock,
		logger:     logger.Named("pipeline"),
	}
}

// Run collects every target and finishes by writing the dataset index.
// The returned error is non-nil only when the run as a whole could not
// complete (no targets, an unknown chamber in the list, or an index write
// failure); per-target collection failures degrade instead.
func (o *Orchestrator) Run(ctx context.Context, targets []votes.Target) error {
	if len(targets) == 0 {
		return fmt.Errorf("no collection targets configured")
	}
	for _, t := range targets {
		if _, ok := o.collectors[t.Chamber]; !ok {
			return fmt.Errorf("no collector for chamber %q", t.Chamber)
		}
	}

	runID := uuid.NewString()
	o.begin(runID, targets)
	o.logger.Info("run started",
		zap.String("run_id", runID),
		zap.Int("targets", len(targets)),
	)

	entries := make([]votes.DatasetEntry, 0, len(targets))
	for i, t := range targets {
		if err := ctx.Err(); err != nil {
			o.logger.Warn("run interrupted", zap.String("run_id", runID))
			break
		}

		o.setTarget(i, StateRunning, 0, nil)
		count, err := o.collectors[t.Chamber].Collect(ctx, t)
		if err != nil {
			o.setTarget(i, StateFailed, 0, err)
			telemetry.ObserveTarget("failed")
			o.logger.Error("target failed",
				zap.String("target", t.String()),
				zap.Error(err),
			)
			continue
		}

		o.setTarget(i, StateCollected, count, nil)
		telemetry.ObserveTarget("collected")
		o.logger.Info("target collected",
			zap.String("target", t.String()),
			zap.Int("rollcalls", count),
		)
		entries = append(entries, votes.DatasetEntry{
			Congress: t.Congress,
			Chamber:  t.Chamber,
			Session:  t.Session,
			Count:    count,
		})
	}

	index := votes.DatasetIndex{
		GeneratedAt: o.clock.Now().UTC().Format(time.RFC3339),
		Datasets:    entries,
	}
	if err := o.sink.SaveIndex(index); err != nil {
		return fmt.Errorf("save dataset index: %w", err)
	}

	o.finish()
	o.logger.Info("run finished",
		zap.String("run_id", runID),
		zap.Int("collected", len(entries)),
	)
	return nil
}

// Status returns a copy of the current run snapshot.
func (o *Orchestrator) Status() RunStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := o.status
	out.Targets = make([]TargetStatus, len(o.status.Targets))
	copy(out.Targets, o.status.Targets)
	return out
}

func (o *Orchestrator) begin(runID string, targets []votes.Target) {
	o.mu.Lock()
	defer o.mu.Unlock()
	rows := make([]TargetStatus, len(targets))
	for i, t := range targets {
		rows[i] = TargetStatus{Target: t, State: StatePending}
	}
	o.status = RunStatus{
		RunID:     runID,
		StartedAt: o.clock.Now().UTC().Format(time.RFC3339),
		Targets:   rows,
	}
}

func (o *Orchestrator) setTarget(i int, state string, count int, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.status.Targets[i].State = state
	o.status.Targets[i].Count = count
	if err != nil {
		o.status.Targets[i].Error = err.Error()
	}
}

func (o *Orchestrator) finish() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.status.FinishedAt = o.clock.Now().UTC().Format(time.RFC3339)
}
