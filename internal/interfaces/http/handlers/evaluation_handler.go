package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harkencre/appraisal-platform/internal/application/evaluation"
	"github.com/harkencre/appraisal-platform/internal/domain/approach"
	"github.com/harkencre/appraisal-platform/pkg/errors"
	"github.com/harkencre/appraisal-platform/pkg/types/common"
)

// EvaluationHandler serves the valuation workflow: snapshots, approach
// saves, comp linking, adjustment edits, previews, and reconciliation.
type EvaluationHandler struct {
	svc evaluation.Service
}

// NewEvaluationHandler builds the handler.
func NewEvaluationHandler(svc evaluation.Service) *EvaluationHandler {
	return &EvaluationHandler{svc: svc}
}

func pathApproachType(c *gin.Context) (approach.Type, error) {
	t := approach.Type(c.Param("type"))
	if !t.Valid() {
		return "", errors.New(errors.ErrCodeApproachTypeInvalid,
			"approach type must be sales, cost, or residential_cost")
	}
	return t, nil
}

func (h *EvaluationHandler) Snapshot(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	out, err := h.svc.GetSnapshot(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, out)
}

type saveApproachRequest struct {
	Note             string                 `json:"note"`
	EvaluationWeight float64                `json:"evaluation_weight"`
	Rows             []evaluation.RowInput  `json:"rows"`
}

func (h *EvaluationHandler) SaveApproach(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	approachType, err := pathApproachType(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req saveApproachRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}

	out, err := h.svc.SaveApproach(c.Request.Context(), evaluation.SaveApproachInput{
		EvaluationID:     id,
		Type:             approachType,
		Note:             req.Note,
		EvaluationWeight: req.EvaluationWeight,
		Rows:             req.Rows,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, out)
}

type linkCompsRequest struct {
	CompIDs []string `json:"comp_ids"`
}

func (h *EvaluationHandler) LinkComps(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	approachType, err := pathApproachType(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req linkCompsRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}

	input := evaluation.LinkCompsInput{EvaluationID: id, Type: approachType}
	for _, raw := range req.CompIDs {
		compID := common.ID(raw)
		if err := compID.Validate(); err != nil {
			respondError(c, errors.InvalidParam("comp_ids must be UUIDs"))
			return
		}
		input.CompIDs = append(input.CompIDs, compID)
	}

	out, err := h.svc.LinkComps(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, out)
}

func (h *EvaluationHandler) UnlinkComp(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	approachType, err := pathApproachType(c)
	if err != nil {
		respondError(c, err)
		return
	}
	compID, err := pathID(c, "compId")
	if err != nil {
		respondError(c, err)
		return
	}

	out, err := h.svc.UnlinkComp(c.Request.Context(), evaluation.UnlinkCompInput{
		EvaluationID: id,
		Type:         approachType,
		CompID:       compID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, out)
}

type setAdjustmentRequest struct {
	Index int    `json:"index"`
	Value string `json:"value"`
}

func (h *EvaluationHandler) SetAdjustment(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	approachType, err := pathApproachType(c)
	if err != nil {
		respondError(c, err)
		return
	}
	compID, err := pathID(c, "compId")
	if err != nil {
		respondError(c, err)
		return
	}
	var req setAdjustmentRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}

	out, err := h.svc.SetAdjustment(c.Request.Context(), evaluation.SetAdjustmentInput{
		EvaluationID: id,
		Type:         approachType,
		CompID:       compID,
		Index:        req.Index,
		Value:        req.Value,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, out)
}

func (h *EvaluationHandler) Preview(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	var input evaluation.PreviewInput
	if err := bindJSON(c, &input); err != nil {
		respondError(c, err)
		return
	}
	input.EvaluationID = id

	out, err := h.svc.PreviewComp(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, out)
}

type reconcileRequest struct {
	WeightOverrides map[approach.Type]float64 `json:"weight_overrides"`
}

func (h *EvaluationHandler) Reconcile(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	var req reconcileRequest
	if c.Request.ContentLength > 0 {
		if err := bindJSON(c, &req); err != nil {
			respondError(c, err)
			return
		}
	}

	out, err := h.svc.ReconcileEvaluation(c.Request.Context(), evaluation.ReconcileInput{
		EvaluationID:    id,
		WeightOverrides: req.WeightOverrides,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, out)
}
