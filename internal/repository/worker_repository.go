package repository

import (
	"context"

	"gorm.io/gorm"

	"complaint-service/internal/model"
)

type WorkerRepository struct {
	db *gorm.DB
}

func NewWorkerRepository(db *gorm.DB) *WorkerRepository {
	return &WorkerRepository{db: db}
}

// FindByIDs returns the workers that exist among ids; missing IDs are simply
// absent from the result.
func (r *WorkerRepository) FindByIDs(ctx context.Context, ids []int64) ([]model.Worker, error) {
	workers := make([]model.Worker, 0, len(ids))
	if len(ids) == 0 {
		return workers, nil
	}
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&workers).Error; err != nil {
		return nil, err
	}
	return workers, nil
}

func (r *WorkerRepository) ListByDepartment(ctx context.Context, departmentID int64) ([]model.Worker, error) {
	var workers []model.Worker
	if err := r.db.WithContext(ctx).
		Where("department_id = ?", departmentID).
		Order("id ASC").
		Find(&workers).Error; err != nil {
		return nil, err
	}
	return workers, nil
}

func (r *WorkerRepository) Create(ctx context.Context, worker *model.Worker) error {
	return r.db.WithContext(ctx).Create(worker).Error
}
