package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ABFerraz00/mandacafe/services"

	"github.com/gin-gonic/gin"
)

const (
	kindDatabase = "DatabaseError"
	kindUpload   = "UploadError"
)

func respondData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"data": data, "timestamp": time.Now()})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message, "timestamp": time.Now()})
}

func respondFieldError(c *gin.Context, status int, field, message string) {
	c.JSON(status, gin.H{"error": message, "field": field, "timestamp": time.Now()})
}

// respondServiceError maps service errors onto their HTTP shape. Anything
// unrecognised becomes a 500 and is attached to the context for the metrics
// middleware.
func respondServiceError(c *gin.Context, err error, exposeDetail bool) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		respondFieldError(c, http.StatusBadRequest, verr.Field, verr.Error())
	case errors.Is(err, services.ErrDuplicateCode):
		respondFieldError(c, http.StatusBadRequest, "codigo", err.Error())
	case errors.Is(err, services.ErrUnavailable):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrCategoryNotFound):
		respondError(c, http.StatusNotFound, "category not found or has no available dishes")
	case errors.Is(err, services.ErrNotFound):
		respondError(c, http.StatusNotFound, "dish not found")
	default:
		respondInternal(c, err, kindDatabase, exposeDetail)
	}
}

func respondInternal(c *gin.Context, err error, kind string, exposeDetail bool) {
	_ = c.Error(err).SetMeta(kind)
	body := gin.H{"error": "internal server error", "timestamp": time.Now()}
	if exposeDetail {
		body["detail"] = err.Error()
	}
	c.JSON(http.StatusInternalServerError, body)
}

// idParam reads a positive numeric path parameter, answering 400 otherwise.
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondFieldError(c, http.StatusBadRequest, name, name+": must be a positive integer")
		return 0, false
	}
	return uint(id), true
}
