package revision

import (
	"context"
	"database/sql"
	"errors"
	"time"

	revisionerrors "go-paytax/internal/revision/errors"
	"go-paytax/internal/shared/fiscal"

	"gorm.io/gorm"
)

//go:generate mockgen -source=revision_repo.go -destination=mock/revision_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, ev *SalaryChangeEvent) error
	FindByID(ctx context.Context, id string) (*SalaryChangeEvent, error)
	ListByEmployeeAndYear(ctx context.Context, employeeID string, year fiscal.Year) ([]*SalaryChangeEvent, error)
	// ListApproved returns every approved event for the employee and year,
	// applied or still queued, so the projection can be rebuilt from scratch.
	ListApproved(ctx context.Context, employeeID string, year fiscal.Year) ([]*SalaryChangeEvent, error)
	ListDue(ctx context.Context, now time.Time, limit int) ([]*SalaryChangeEvent, error)
	ListDeadLettered(ctx context.Context, limit int) ([]*SalaryChangeEvent, error)
	Update(ctx context.Context, ev *SalaryChangeEvent) error
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

func (r *repository) Create(ctx context.Context, ev *SalaryChangeEvent) error {
	return r.db.WithContext(ctx).Create(ev).Error
}

func (r *repository) FindByID(ctx context.Context, id string) (*SalaryChangeEvent, error) {
	var ev SalaryChangeEvent
	err := r.db.WithContext(ctx).First(&ev, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, revisionerrors.ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	ev.PreviousSalary.Migrate()
	ev.NewSalary.Migrate()
	return &ev, nil
}

func (r *repository) ListByEmployeeAndYear(ctx context.Context, employeeID string, year fiscal.Year) ([]*SalaryChangeEvent, error) {
	var evs []*SalaryChangeEvent
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Where("tax_year = ?", year).
		Order("effective_date ASC, created_at ASC").
		Find(&evs).Error
	return evs, err
}

func (r *repository) ListApproved(ctx context.Context, employeeID string, year fiscal.Year) ([]*SalaryChangeEvent, error) {
	var evs []*SalaryChangeEvent
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Where("tax_year = ?", year).
		Where("approval_state = ?", ApprovalApproved).
		Order("effective_date ASC, created_at ASC").
		Find(&evs).Error
	return evs, err
}

func (r *repository) ListDue(ctx context.Context, now time.Time, limit int) ([]*SalaryChangeEvent, error) {
	var evs []*SalaryChangeEvent
	err := r.db.WithContext(ctx).
		Where("approval_state = ?", ApprovalApproved).
		Where("queue_status IN ?", []QueueStatus{QueueQueued, QueueFailed}).
		Where("next_retry_at IS NULL OR next_retry_at <= ?", now).
		Order("case priority when 'critical' then 0 when 'high' then 1 when 'medium' then 2 else 3 end, effective_date ASC, created_at ASC").
		Limit(limit).
		Find(&evs).Error
	return evs, err
}

func (r *repository) ListDeadLettered(ctx context.Context, limit int) ([]*SalaryChangeEvent, error) {
	var evs []*SalaryChangeEvent
	err := r.db.WithContext(ctx).
		Where("queue_status = ?", QueueDeadLetter).
		Order("updated_at ASC").
		Limit(limit).
		Find(&evs).Error
	return evs, err
}

func (r *repository) Update(ctx context.Context, ev *SalaryChangeEvent) error {
	return r.db.WithContext(ctx).
		Model(&SalaryChangeEvent{}).
		Where("id = ?", ev.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(ev).Error
}
