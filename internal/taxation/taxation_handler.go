package taxation

import (
	"net/http"

	"go-paytax/internal/shared/apperror"
	"go-paytax/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("taxation.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("taxation.handler")
	}
	return &Handler{service: service, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	h.logger.Warn("taxation request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	response.FromError(c, err)
}

func (h *Handler) Upsert(c *gin.Context) {
	employeeID := c.Param("employee_id")
	taxYear := c.Param("tax_year")
	h.logger.Debug("http upsert taxation record",
		zap.String("employee_id", employeeID),
		zap.String("tax_year", taxYear),
	)

	var req UpsertTaxationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.service.Upsert(c.Request.Context(), employeeID, taxYear, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Get(c *gin.Context) {
	resp, err := h.service.Get(c.Request.Context(), c.Param("employee_id"), c.Param("tax_year"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Compute(c *gin.Context) {
	employeeID := c.Param("employee_id")
	taxYear := c.Param("tax_year")
	h.logger.Debug("http compute taxation",
		zap.String("employee_id", employeeID),
		zap.String("tax_year", taxYear),
	)

	var req ComputeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.writeServiceError(c, apperror.MapValidationError(err))
			return
		}
	}

	resp, err := h.service.Compute(c.Request.Context(), employeeID, taxYear, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) ComputeComponent(c *gin.Context) {
	var req ComputeComponentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.service.ComputeComponent(c.Request.Context(), c.Param("employee_id"), c.Param("tax_year"), req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Compare(c *gin.Context) {
	resp, err := h.service.Compare(c.Request.Context(), c.Param("employee_id"), c.Param("tax_year"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) SelectRegime(c *gin.Context) {
	employeeID := c.Param("employee_id")
	taxYear := c.Param("tax_year")

	var req SelectRegimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	h.logger.Debug("http select regime",
		zap.String("employee_id", employeeID),
		zap.String("tax_year", taxYear),
		zap.String("regime", req.Regime),
	)

	resp, err := h.service.SelectRegime(c.Request.Context(), employeeID, taxYear, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Finalize(c *gin.Context) {
	resp, err := h.service.Finalize(c.Request.Context(), c.Param("employee_id"), c.Param("tax_year"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) UpdatePayments(c *gin.Context) {
	var req UpdatePaymentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.service.UpdatePayments(c.Request.Context(), c.Param("employee_id"), c.Param("tax_year"), req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) RecordPayout(c *gin.Context) {
	var req RecordPayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.service.RecordPayout(c.Request.Context(), c.Param("employee_id"), c.Param("tax_year"), req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) BulkCompute(c *gin.Context) {
	var req BulkComputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	h.logger.Debug("http bulk compute",
		zap.String("tax_year", req.TaxYear),
		zap.Int("employees", len(req.EmployeeIDs)),
	)

	resp, err := h.service.BulkCompute(c.Request.Context(), req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}
