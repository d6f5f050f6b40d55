// Package handlers implements the REST endpoints over the application
// services. Handlers bind and validate input, delegate to a service, and map
// AppError codes onto HTTP statuses; no business logic lives here.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/harkencre/appraisal-platform/pkg/errors"
	"github.com/harkencre/appraisal-platform/pkg/types/common"
)

// maxPageSize caps page_size from the query string.
const maxPageSize = 100

// parsePagination extracts page and page_size query parameters with
// defaults.
func parsePagination(c *gin.Context) common.Pagination {
	page := 1
	pageSize := 20
	if v := c.Query("page"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			page = p
		}
	}
	if v := c.Query("page_size"); v != "" {
		if ps, err := strconv.Atoi(v); err == nil && ps > 0 && ps <= maxPageSize {
			pageSize = ps
		}
	}
	return common.Pagination{Page: page, PageSize: pageSize}
}

// pathID reads a UUID path parameter, returning a validation error for
// malformed values.
func pathID(c *gin.Context, name string) (common.ID, error) {
	id := common.ID(c.Param(name))
	if err := id.Validate(); err != nil {
		return "", errors.InvalidParam(name + " must be a UUID")
	}
	return id, nil
}

// respondData writes a success envelope.
func respondData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, common.NewSuccessResponse(data))
}

// respondPage writes a success envelope with pagination metadata.
func respondPage(c *gin.Context, data interface{}, p common.Pagination, total int64) {
	p.Total = total
	resp := common.NewSuccessResponse(data)
	resp.Pagination = &p
	c.JSON(http.StatusOK, resp)
}

// statusFor maps an error chain onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.IsNotFound(err):
		return http.StatusNotFound
	case errors.IsValidation(err):
		return http.StatusBadRequest
	case errors.IsConflict(err):
		return http.StatusConflict
	case errors.IsUnauthorized(err):
		return http.StatusUnauthorized
	case errors.IsForbidden(err):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the error envelope. Internal failures are masked; the
// logging middleware records the cause.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	code := errors.GetCode(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		code = errors.ErrCodeInternal
		message = "internal server error"
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, common.NewErrorResponse(code.String(), message))
}

// bindJSON decodes the request body, converting bind failures into
// validation errors.
func bindJSON(c *gin.Context, target interface{}) error {
	if err := c.ShouldBindJSON(target); err != nil {
		return errors.Wrap(err, errors.CodeValidation, "invalid request body")
	}
	return nil
}
