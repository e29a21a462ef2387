package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vsinha/drumsched/pkg/domain/entities"
)

// Response codes carried in the envelope next to the HTTP status
const (
	CodeSuccess     = 0
	CodeBadRequest  = 10001
	CodeNotFound    = 10002
	CodeInvalidDate = 10003
	CodeConflict    = 40900
	CodeInternal    = 50001
)

func success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"code": CodeSuccess, "message": "success", "data": data})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"code": CodeBadRequest, "message": err.Error()})
}

// fail maps service errors onto the HTTP status and envelope code
func fail(c *gin.Context, err error) {
	var notReady *entities.NotAllReadyError
	var conflict *entities.ReservationConflictError

	switch {
	case errors.Is(err, entities.ErrInvalidDate):
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    CodeInvalidDate,
			"message": err.Error(),
			"error":   "INVALID_DATE",
		})
	case errors.Is(err, entities.ErrWeekNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"code":    CodeNotFound,
			"message": err.Error(),
			"error":   "WEEK_NOT_FOUND",
		})
	case errors.As(err, &notReady):
		c.JSON(http.StatusConflict, gin.H{
			"code":    CodeConflict,
			"message": err.Error(),
			"error":   "NOT_ALL_READY",
			"data":    gin.H{"days": notReady.Days},
		})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{
			"code":    CodeConflict,
			"message": err.Error(),
			"error":   "RESERVATION_CONFLICT",
			"data": gin.H{
				"campaign_id": conflict.CampaignID,
				"item_id":     conflict.ItemID,
				"quantity":    conflict.Quantity,
			},
		})
	case errors.Is(err, entities.ErrAlreadyApproved):
		c.JSON(http.StatusConflict, gin.H{
			"code":    CodeConflict,
			"message": err.Error(),
			"error":   "ALREADY_APPROVED",
		})
	case errors.Is(err, entities.ErrNotApproved):
		c.JSON(http.StatusConflict, gin.H{
			"code":    CodeConflict,
			"message": err.Error(),
			"error":   "NOT_APPROVED",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"code": CodeInternal, "message": err.Error()})
	}
}
