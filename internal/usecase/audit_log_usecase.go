package usecase

import (
	"context"
	"errors"
	"time"

	"care-booking-marketplace/internal/converter"
	"care-booking-marketplace/internal/delivery/dto"
	"care-booking-marketplace/internal/domain/entity"
	"care-booking-marketplace/internal/domain/repository"
	"care-booking-marketplace/internal/scheduling"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrAuditLogNotFound   = errors.New("audit log not found")
	ErrInvalidAuditFilter = errors.New("invalid audit log filter")
)

type AuditLogUsecase interface {
	GetAllAuditLogs(ctx context.Context, query *dto.AuditLogQuery) (*dto.AuditLogListResponse, error)
	GetAuditLog(ctx context.Context, id int64) (*dto.AuditLogResponse, error)
}

type auditLogUsecase struct {
	db           *gorm.DB
	log          *logrus.Logger
	auditLogRepo repository.AuditLogRepository
}

func NewAuditLogUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	auditLogRepo repository.AuditLogRepository,
) AuditLogUsecase {
	return &auditLogUsecase{
		db:           db,
		log:          log,
		auditLogRepo: auditLogRepo,
	}
}

func (u *auditLogUsecase) GetAllAuditLogs(ctx context.Context, query *dto.AuditLogQuery) (*dto.AuditLogListResponse, error) {
	filter, err := auditLogFilterFromQuery(query)
	if err != nil {
		return nil, err
	}

	logs, total, err := u.auditLogRepo.FindAll(ctx, u.db, filter)
	if err != nil {
		u.log.Warnf("Failed to find all audit logs: %+v", err)
		return nil, storeError("find audit logs", err)
	}

	return &dto.AuditLogListResponse{
		Logs:  converter.AuditLogsToResponses(logs),
		Total: total,
	}, nil
}

func (u *auditLogUsecase) GetAuditLog(ctx context.Context, id int64) (*dto.AuditLogResponse, error) {
	auditLog, err := u.auditLogRepo.FindByID(ctx, u.db, id)
	if err != nil {
		u.log.Warnf("Failed to find audit log %d: %+v", id, err)
		return nil, storeError("find audit log", err)
	}
	if auditLog == nil {
		return nil, ErrAuditLogNotFound
	}

	return converter.AuditLogToResponse(auditLog), nil
}

// auditLogFilterFromQuery turns query strings into a filter. To is inclusive
// of the whole day.
func auditLogFilterFromQuery(query *dto.AuditLogQuery) (entity.AuditLogFilter, error) {
	filter := entity.AuditLogFilter{
		Action: query.Action,
		Limit:  query.Limit,
		Offset: query.Offset,
	}

	if query.UserID != "" {
		id, err := uuid.Parse(query.UserID)
		if err != nil {
			return filter, ErrInvalidAuditFilter
		}
		filter.UserID = &id
	}
	if query.From != "" {
		from, err := scheduling.ParseDate(query.From, time.UTC)
		if err != nil {
			return filter, ErrInvalidDate
		}
		filter.From = &from
	}
	if query.To != "" {
		to, err := scheduling.ParseDate(query.To, time.UTC)
		if err != nil {
			return filter, ErrInvalidDate
		}
		end := to.AddDate(0, 0, 1)
		filter.To = &end
	}

	return filter, nil
}
