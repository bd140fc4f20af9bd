package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"fulfillment-service/internal/dto"
	"fulfillment-service/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// writeError переводит ошибку сервиса в HTTP-ответ.
func writeError(c *gin.Context, log *zap.Logger, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, dto.NewValidationError(ve.Error(), []dto.FieldError{{Field: ve.Field, Message: ve.Reason}}))
	case errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrWarehouseNotFound),
		errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrWorkerNotFound):
		c.JSON(http.StatusNotFound, dto.NewNotFoundError(err.Error()))
	case errors.Is(err, service.ErrWorkerExists),
		errors.Is(err, service.ErrOrderCompleted),
		errors.Is(err, service.ErrAlreadyFullyPicked),
		errors.Is(err, service.ErrUnitAlreadyPicked):
		c.JSON(http.StatusConflict, dto.NewConflictError(err.Error()))
	case errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrStockDrift),
		errors.Is(err, service.ErrNotPartOfOrder),
		errors.Is(err, service.ErrItemNotFoundInWarehouse):
		c.JSON(http.StatusBadRequest, dto.NewBusinessError(err.Error()))
	default:
		log.Error("Внутренняя ошибка", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.NewInternalError(err.Error()))
	}
}

func badRequest(c *gin.Context, log *zap.Logger, msg string, err error) {
	log.Warn("Некорректный запрос", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusBadRequest, dto.NewValidationError(msg, []dto.FieldError{}))
}

func paramID(c *gin.Context, name string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || n == 0 {
		c.JSON(http.StatusBadRequest, dto.NewValidationError("invalid "+name, []dto.FieldError{{Field: name, Message: "must be a positive integer"}}))
		return 0, false
	}
	return uint(n), true
}
