package handler

import (
	"net/http"
	"strconv"

	"care-booking-marketplace/internal/delivery/dto"
	"care-booking-marketplace/internal/usecase"
	"care-booking-marketplace/pkg/response"
	"care-booking-marketplace/pkg/validator"

	"github.com/gorilla/mux"
)

type AuditLogHandler struct {
	auditLogUsecase usecase.AuditLogUsecase
	validator       *validator.CustomValidator
}

func NewAuditLogHandler(auditLogUsecase usecase.AuditLogUsecase, validator *validator.CustomValidator) *AuditLogHandler {
	return &AuditLogHandler{
		auditLogUsecase: auditLogUsecase,
		validator:       validator,
	}
}

func (h *AuditLogHandler) GetAuditLog(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	auditLogID, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid audit log ID", nil)
		return
	}

	auditLog, err := h.auditLogUsecase.GetAuditLog(r.Context(), auditLogID)
	if err != nil {
		writeUsecaseError(w, err, "Failed to get audit log")
		return
	}

	response.Success(w, http.StatusOK, "Audit log retrieved successfully", auditLog)
}

func (h *AuditLogHandler) GetAllAuditLogs(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 50)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid limit", nil)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid offset", nil)
		return
	}

	q := r.URL.Query()
	query := dto.AuditLogQuery{
		UserID: q.Get("user_id"),
		Action: q.Get("action"),
		From:   q.Get("from"),
		To:     q.Get("to"),
		Limit:  limit,
		Offset: offset,
	}
	if err := h.validator.Validate(&query); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	auditLogs, err := h.auditLogUsecase.GetAllAuditLogs(r.Context(), &query)
	if err != nil {
		writeUsecaseError(w, err, "Failed to get audit logs")
		return
	}

	meta := &response.Meta{Limit: query.Limit, Total: auditLogs.Total, Page: 1}
	if query.Limit > 0 {
		meta.Page = query.Offset/query.Limit + 1
		meta.TotalPages = int((auditLogs.Total + int64(query.Limit) - 1) / int64(query.Limit))
	}
	response.SuccessWithMeta(w, http.StatusOK, "Audit logs retrieved successfully", auditLogs.Logs, meta)
}
