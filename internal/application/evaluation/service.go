// Package evaluation orchestrates the valuation workflow: it wires the
// repositories to the valuation engine, recomputes approach rows from
// scratch on every mutation, and fans out events to the index worker.
package evaluation

import (
	"context"
	"time"

	"github.com/harkencre/appraisal-platform/internal/domain/appraisal"
	"github.com/harkencre/appraisal-platform/internal/domain/approach"
	"github.com/harkencre/appraisal-platform/internal/domain/comp"
	"github.com/harkencre/appraisal-platform/internal/domain/valuation"
	"github.com/harkencre/appraisal-platform/internal/infrastructure/monitoring/logging"
	"github.com/harkencre/appraisal-platform/internal/infrastructure/monitoring/prometheus"
	"github.com/harkencre/appraisal-platform/pkg/types/common"
)

// Service is the evaluation application service consumed by the HTTP layer.
type Service interface {
	// GetSnapshot returns the appraisal with all saved approaches, served
	// from cache when fresh.
	GetSnapshot(ctx context.Context, evaluationID common.ID) (*Snapshot, error)

	// SaveApproach recomputes every comp row through the valuation engine
	// and persists the approach as one upsert.
	SaveApproach(ctx context.Context, input SaveApproachInput) (*approach.Approach, error)

	// PreviewComp runs aggregation and calculation for one comp without
	// persisting anything.
	PreviewComp(ctx context.Context, input PreviewInput) (*PreviewResult, error)

	// LinkComps appends comps to an approach, rebalances weights to the
	// equal split, recomputes, and persists.
	LinkComps(ctx context.Context, input LinkCompsInput) (*approach.Approach, error)

	// UnlinkComp removes a comp row, rebalances, recomputes, and persists.
	UnlinkComp(ctx context.Context, input UnlinkCompInput) (*approach.Approach, error)

	// SetAdjustment replaces one adjustment value on a comp row and
	// recomputes the approach.
	SetAdjustment(ctx context.Context, input SetAdjustmentInput) (*approach.Approach, error)

	// ReconcileEvaluation combines the approaches' incremental values into
	// the appraisal's weighted market value.
	ReconcileEvaluation(ctx context.Context, input ReconcileInput) (*appraisal.Appraisal, error)
}

// EventPublisher is the slice of the Kafka producer the service needs.
type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, payload interface{}) error
}

// SnapshotCache is the slice of the Redis cache the service needs.
type SnapshotCache interface {
	GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration,
		loader func(ctx context.Context) (interface{}, error)) error
	Delete(ctx context.Context, keys ...string) error
}

// Snapshot is the full evaluation state the wizard renders.
type Snapshot struct {
	Appraisal  *appraisal.Appraisal `json:"appraisal"`
	Approaches []*approach.Approach `json:"approaches"`
}

// RowInput is one comp row as submitted by the wizard. Derived figures are
// never accepted from the client; they are recomputed before save.
type RowInput struct {
	CompID common.ID `json:"comp_id"`
	Weight float64   `json:"weight"`

	OverallComparability approach.Comparability `json:"overall_comparability,omitempty"`
	AdjustmentNote       string                 `json:"adjustment_note,omitempty"`

	Adjustments            []valuation.AdjustmentLine       `json:"comps_adjustments,omitempty"`
	QualitativeAdjustments []approach.QualitativeAdjustment `json:"comps_qualitative_adjustments,omitempty"`
}

// SaveApproachInput carries a full approach save.
type SaveApproachInput struct {
	EvaluationID     common.ID       `json:"evaluation_id"`
	Type             approach.Type   `json:"type"`
	Note             string          `json:"note,omitempty"`
	EvaluationWeight float64         `json:"evaluation_weight"`
	Rows             []RowInput      `json:"rows"`
}

// PreviewInput carries a what-if calculation for one comp: the adjustment
// lines as currently entered, optionally with one value replaced.
type PreviewInput struct {
	EvaluationID common.ID                  `json:"evaluation_id"`
	CompID       common.ID                  `json:"comp_id"`
	Weight       float64                    `json:"weight"`
	Adjustments  []valuation.AdjustmentLine `json:"comps_adjustments,omitempty"`

	// ChangeIndex / ChangeValue apply one edit before aggregating; a nil
	// ChangeIndex previews the lines as-is.
	ChangeIndex *int   `json:"change_index,omitempty"`
	ChangeValue string `json:"change_value,omitempty"`
}

// PreviewResult is the calculator output plus the lines after the edit.
type PreviewResult struct {
	TotalAdjustment float64                    `json:"total_adjustment"`
	Result          valuation.CompResult       `json:"result"`
	Adjustments     []valuation.AdjustmentLine `json:"comps_adjustments"`
}

// LinkCompsInput appends comps to an approach, creating it when absent.
type LinkCompsInput struct {
	EvaluationID common.ID     `json:"evaluation_id"`
	Type         approach.Type `json:"type"`
	CompIDs      []common.ID   `json:"comp_ids"`
}

// UnlinkCompInput removes one comp from an approach.
type UnlinkCompInput struct {
	EvaluationID common.ID     `json:"evaluation_id"`
	Type         approach.Type `json:"type"`
	CompID       common.ID     `json:"comp_id"`
}

// SetAdjustmentInput replaces the value of one adjustment line on one row.
type SetAdjustmentInput struct {
	EvaluationID common.ID     `json:"evaluation_id"`
	Type         approach.Type `json:"type"`
	CompID       common.ID     `json:"comp_id"`
	Index        int           `json:"index"`
	Value        string        `json:"value"`
}

// ReconcileInput recomputes the weighted market value. WeightOverrides, when
// present, replace the approaches' stored evaluation weights and are
// persisted with them.
type ReconcileInput struct {
	EvaluationID    common.ID                  `json:"evaluation_id"`
	WeightOverrides map[approach.Type]float64  `json:"weight_overrides,omitempty"`
}

type service struct {
	appraisals appraisal.Repository
	comps      comp.Repository
	approaches approach.Repository
	publisher  EventPublisher
	cache      SnapshotCache
	metrics    *prometheus.Metrics
	logger     logging.Logger

	maxComps    int
	snapshotTTL time.Duration
}

// NewService wires the evaluation service. maxComps caps comps per approach
// (config valuation.max_comps_per_approach); snapshotTTL bounds cached
// snapshots.
func NewService(
	appraisals appraisal.Repository,
	comps comp.Repository,
	approaches approach.Repository,
	publisher EventPublisher,
	cache SnapshotCache,
	metrics *prometheus.Metrics,
	log logging.Logger,
	maxComps int,
	snapshotTTL time.Duration,
) Service {
	if maxComps < 1 {
		maxComps = 4
	}
	if snapshotTTL <= 0 {
		snapshotTTL = 5 * time.Minute
	}
	return &service{
		appraisals:  appraisals,
		comps:       comps,
		approaches:  approaches,
		publisher:   publisher,
		cache:       cache,
		metrics:     metrics,
		logger:      log.Named("evaluation"),
		maxComps:    maxComps,
		snapshotTTL: snapshotTTL,
	}
}

func snapshotKey(evaluationID common.ID) string {
	return "snapshot:" + string(evaluationID)
}

func (s *service) invalidateSnapshot(ctx context.Context, evaluationID common.ID) {
	if err := s.cache.Delete(ctx, snapshotKey(evaluationID)); err != nil {
		s.logger.Warn("failed to invalidate snapshot cache",
			logging.String("evaluation_id", string(evaluationID)),
			logging.Err(err),
		)
	}
}
