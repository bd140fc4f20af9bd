package handlers

import (
	"net/http"

	"fulfillment-service/internal/dto"
	"fulfillment-service/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type WorkerHandler struct {
	workers service.WorkerService
	log     *zap.Logger
}

func NewWorkerHandler(workers service.WorkerService, log *zap.Logger) *WorkerHandler {
	return &WorkerHandler{workers: workers, log: log}
}

func (h *WorkerHandler) List(c *gin.Context) {
	list, err := h.workers.ListWorkers(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToWorkers(list))
}

func (h *WorkerHandler) Create(c *gin.Context) {
	var req dto.WorkerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.log, "name required", err)
		return
	}
	w, err := h.workers.AddWorker(c.Request.Context(), req.Name)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToWorker(*w))
}

func (h *WorkerHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.workers.DeleteWorker(c.Request.Context(), id); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.StatusResponse{Status: "success"})
}
