package taxation

import (
	"context"
	"errors"

	taxationerrors "go-paytax/internal/taxation/errors"
	"go-paytax/internal/shared/fiscal"

	"gorm.io/gorm"
)

//go:generate mockgen -source=taxation_repo.go -destination=mock/taxation_repo_mock.go -package=mock
type Repository interface {
	Create(ctx context.Context, rec *TaxationRecord) error
	FindByEmployeeAndYear(ctx context.Context, employeeID string, year fiscal.Year) (*TaxationRecord, error)
	// Save persists the record only when the stored version still matches
	// rec.Version; on success the record carries the incremented version.
	Save(ctx context.Context, rec *TaxationRecord) error
	MarkRequiresRecalculation(ctx context.Context, employeeID string, year fiscal.Year) error
	ListRequiringRecalculation(ctx context.Context, limit int) ([]TaxationRecord, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, rec *TaxationRecord) error {
	rec.Version = 1
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *repository) FindByEmployeeAndYear(ctx context.Context, employeeID string, year fiscal.Year) (*TaxationRecord, error) {
	var rec TaxationRecord
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Where("tax_year = ?", year).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, taxationerrors.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}

	rec.Salary.Migrate()
	return &rec, nil
}

func (r *repository) Save(ctx context.Context, rec *TaxationRecord) error {
	loadedVersion := rec.Version
	rec.Version = loadedVersion + 1

	res := r.db.WithContext(ctx).
		Model(&TaxationRecord{}).
		Where("id = ?", rec.ID).
		Where("version = ?", loadedVersion).
		Select("*").
		Omit("id", "created_at").
		Updates(rec)
	if res.Error != nil {
		rec.Version = loadedVersion
		return res.Error
	}
	if res.RowsAffected == 0 {
		rec.Version = loadedVersion
		return taxationerrors.ErrVersionConflict
	}
	return nil
}

func (r *repository) MarkRequiresRecalculation(ctx context.Context, employeeID string, year fiscal.Year) error {
	return r.db.WithContext(ctx).
		Model(&TaxationRecord{}).
		Where("employee_id = ?", employeeID).
		Where("tax_year = ?", year).
		Updates(map[string]any{
			"requires_recalculation": true,
			"version":                gorm.Expr("version + 1"),
		}).Error
}

func (r *repository) ListRequiringRecalculation(ctx context.Context, limit int) ([]TaxationRecord, error) {
	var recs []TaxationRecord
	err := r.db.WithContext(ctx).
		Where("requires_recalculation = ?", true).
		Order("updated_at ASC").
		Limit(limit).
		Find(&recs).Error
	return recs, err
}
