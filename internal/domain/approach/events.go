package approach

import "github.com/harkencre/appraisal-platform/pkg/types/common"

// SavedEvent is emitted after an approach save commits. The worker consumes
// it to refresh derived stores (search index, cached snapshots).
type SavedEvent struct {
	common.BaseEvent

	EvaluationID common.ID `json:"evaluation_id"`
	ApproachID   common.ID `json:"approach_id"`
	ApproachType Type      `json:"approach_type"`
	CompIDs      []common.ID `json:"comp_ids,omitempty"`
}

// NewSavedEvent builds a SavedEvent for a freshly persisted approach.
func NewSavedEvent(a *Approach) SavedEvent {
	ids := make([]common.ID, 0, len(a.CompRows))
	for _, row := range a.CompRows {
		ids = append(ids, row.CompID)
	}
	return SavedEvent{
		BaseEvent:    common.NewBaseEvent(string(a.ID)),
		EvaluationID: a.EvaluationID,
		ApproachID:   a.ID,
		ApproachType: a.Type,
		CompIDs:      ids,
	}
}
