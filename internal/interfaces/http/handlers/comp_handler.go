package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/harkencre/appraisal-platform/internal/application/comps"
	"github.com/harkencre/appraisal-platform/internal/domain/comp"
	"github.com/harkencre/appraisal-platform/pkg/errors"
)

// CompHandler serves the comparable resource.
type CompHandler struct {
	svc comps.Service
}

// NewCompHandler builds the handler.
func NewCompHandler(svc comps.Service) *CompHandler {
	return &CompHandler{svc: svc}
}

func (h *CompHandler) Create(c *gin.Context) {
	var body comp.Comp
	if err := bindJSON(c, &body); err != nil {
		respondError(c, err)
		return
	}
	out, err := h.svc.Create(c.Request.Context(), &body)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, out)
}

func (h *CompHandler) Get(c *gin.Context) {
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

func (h *CompHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	var body comp.Comp
	if err := bindJSON(c, &body); err != nil {
		respondError(c, err)
		return
	}
	body.ID = id
	out, err := h.svc.Update(c.Request.Context(), &body)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, out)
}

func (h *CompHandler) Delete(c *gin.Context) {
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

func (h *CompHandler) List(c *gin.Context) {
	page := parsePagination(c)
	items, total, err := h.svc.List(c.Request.Context(), page)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, items, page, total)
}

// Search queries the OpenSearch index: free text plus structured filters.
func (h *CompHandler) Search(c *gin.Context) {
	q := comp.SearchQuery{
		Text:       c.Query("q"),
		SaleStatus: comp.SaleStatus(c.Query("sale_status")),
		City:       c.Query("city"),
		State:      c.Query("state"),
		Pagination: parsePagination(c),
	}
	if v := c.Query("min_price"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			respondError(c, errors.InvalidParam("min_price must be numeric"))
			return
		}
		q.MinPrice = f
	}
	if v := c.Query("max_price"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			respondError(c, errors.InvalidParam("max_price must be numeric"))
			return
		}
		q.MaxPrice = f
	}

	items, total, err := h.svc.Search(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, items, q.Pagination, total)
}

func (h *CompHandler) UploadCoverPhoto(c *gin.Context) {
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

	key, err := h.svc.UploadCoverPhoto(c.Request.Context(), id, file.Filename,
		src, file.Size, file.Header.Get("Content-Type"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, gin.H{"key": key})
}

func (h *CompHandler) CoverPhotoURL(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	u, err := h.svc.CoverPhotoURL(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"url": u})
}
