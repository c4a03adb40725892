package applications

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/macado/b2b-backend/pkg/db/models"
	"github.com/macado/b2b-backend/pkg/enums"
	"github.com/macado/b2b-backend/pkg/pagination"
)

// ListQuery filters the application queue. Limit already includes the look-ahead row.
type ListQuery struct {
	Status *enums.ApplicationStatus
	Search string
	Cursor *pagination.Cursor
	Limit  int
}

// Repository persists applications.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds an application repository to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, application *models.Application) (*models.Application, error) {
	if err := r.db.WithContext(ctx).Create(application).Error; err != nil {
		return nil, err
	}
	return application, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	var application models.Application
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&application).Error; err != nil {
		return nil, err
	}
	return &application, nil
}

// List returns applications newest first.
func (r *Repository) List(ctx context.Context, query ListQuery) ([]models.Application, error) {
	q := r.db.WithContext(ctx).Model(&models.Application{})
	if query.Status != nil {
		q = q.Where("status = ?", *query.Status)
	}
	if term := strings.ToLower(strings.TrimSpace(query.Search)); term != "" {
		like := "%" + term + "%"
		q = q.Where("LOWER(company_name) LIKE ? OR LOWER(contact_name) LIKE ? OR LOWER(email) LIKE ?", like, like, like)
	}
	if query.Cursor != nil {
		q = q.Where("(created_at < ?) OR (created_at = ? AND id < ?)", query.Cursor.CreatedAt, query.Cursor.CreatedAt, query.Cursor.ID)
	}

	var rows []models.Application
	if err := q.Order("created_at DESC").Order("id DESC").Limit(query.Limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateWhereStatus applies updates only while the application is still in status `from`.
// It reports false when no row matched, which callers treat as a lost race or stale view.
func (r *Repository) UpdateWhereStatus(ctx context.Context, id uuid.UUID, from enums.ApplicationStatus, updates map[string]any) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Application{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// CountByStatus returns the number of applications per status.
func (r *Repository) CountByStatus(ctx context.Context) (map[enums.ApplicationStatus]int64, error) {
	var rows []struct {
		Status enums.ApplicationStatus
		Count  int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Application{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[enums.ApplicationStatus]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}
