package repository

import (
	"context"

	"gorm.io/gorm"

	"complaint-service/internal/model"
)

type DepartmentRepository struct {
	db *gorm.DB
}

func NewDepartmentRepository(db *gorm.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

func (r *DepartmentRepository) GetByID(ctx context.Context, id int64) (*model.Department, error) {
	var dept model.Department
	if err := r.db.WithContext(ctx).First(&dept, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &dept, nil
}

func (r *DepartmentRepository) GetByNameAndEmail(ctx context.Context, name, email string) (*model.Department, error) {
	var dept model.Department
	if err := r.db.WithContext(ctx).
		Where("name = ? AND LOWER(email) = LOWER(?)", name, email).
		First(&dept).Error; err != nil {
		return nil, err
	}
	return &dept, nil
}

func (r *DepartmentRepository) List(ctx context.Context) ([]model.Department, error) {
	var depts []model.Department
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&depts).Error; err != nil {
		return nil, err
	}
	return depts, nil
}

func (r *DepartmentRepository) Create(ctx context.Context, dept *model.Department) error {
	return r.db.WithContext(ctx).Create(dept).Error
}

// DeleteCascade removes the department together with its workers, its
// complaints and every link or log row that points at them.
func (r *DepartmentRepository) DeleteCascade(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		complaintIDs := tx.Model(&model.Complaint{}).Select("id").Where("department_id = ?", id)
		workerIDs := tx.Model(&model.Worker{}).Select("id").Where("department_id = ?", id)

		if err := tx.Where("complaint_id IN (?) OR worker_id IN (?)", complaintIDs, workerIDs).
			Delete(&complaintWorker{}).Error; err != nil {
			return err
		}
		if err := tx.Where("complaint_id IN (?)", complaintIDs).
			Delete(&model.ComplaintStatusLog{}).Error; err != nil {
			return err
		}
		if err := tx.Where("department_id = ?", id).Delete(&model.Complaint{}).Error; err != nil {
			return err
		}
		if err := tx.Where("department_id = ?", id).Delete(&model.Worker{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&model.Department{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
