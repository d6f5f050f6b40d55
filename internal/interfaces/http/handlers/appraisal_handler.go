package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harkencre/appraisal-platform/internal/application/appraisals"
	"github.com/harkencre/appraisal-platform/internal/domain/appraisal"
	"github.com/harkencre/appraisal-platform/pkg/errors"
)

// AppraisalHandler serves the appraisal resource.
type AppraisalHandler struct {
	svc appraisals.Service
}

// NewAppraisalHandler builds the handler.
func NewAppraisalHandler(svc appraisals.Service) *AppraisalHandler {
	return &AppraisalHandler{svc: svc}
}

func (h *AppraisalHandler) Create(c *gin.Context) {
	var a appraisal.Appraisal
	if err := bindJSON(c, &a); err != nil {
		respondError(c, err)
		return
	}
	out, err := h.svc.Create(c.Request.Context(), &a)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, out)
}

func (h *AppraisalHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	out, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, out)
}

func (h *AppraisalHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	var a appraisal.Appraisal
	if err := bindJSON(c, &a); err != nil {
		respondError(c, err)
		return
	}
	a.ID = id
	out, err := h.svc.Update(c.Request.Context(), &a)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, out)
}

func (h *AppraisalHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AppraisalHandler) List(c *gin.Context) {
	page := parsePagination(c)
	items, total, err := h.svc.List(c.Request.Context(), page)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, items, page, total)
}

type replaceZoningsRequest struct {
	Zonings []appraisal.Zoning `json:"zonings"`
}

func (h *AppraisalHandler) ReplaceZonings(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	var req replaceZoningsRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}
	out, err := h.svc.ReplaceZonings(c.Request.Context(), id, req.Zonings)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, out)
}

func (h *AppraisalHandler) Submit(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	out, err := h.svc.Submit(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, out)
}

func (h *AppraisalHandler) UploadAttachment(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		respondError(c, errors.InvalidParam("multipart field 'file' is required"))
		return
	}
	src, err := file.Open()
	if err != nil {
		respondError(c, errors.Wrap(err, errors.CodeInternal, "failed to open upload"))
		return
	}
	defer src.Close()

	key, err := h.svc.UploadAttachment(c.Request.Context(), id, file.Filename,
		src, file.Size, file.Header.Get("Content-Type"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, gin.H{"key": key})
}

func (h *AppraisalHandler) ListAttachments(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	out, err := h.svc.ListAttachments(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, out)
}

func (h *AppraisalHandler) AttachmentURL(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	filename := c.Param("filename")
	u, err := h.svc.AttachmentURL(c.Request.Context(), id, filename)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"url": u})
}

func (h *AppraisalHandler) DeleteAttachment(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.svc.DeleteAttachment(c.Request.Context(), id, c.Param("filename")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
