package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"complaint-service/internal/model"
)

type ComplaintRepository struct {
	db *gorm.DB
}

func NewComplaintRepository(db *gorm.DB) *ComplaintRepository {
	return &ComplaintRepository{db: db}
}

type ComplaintFilter struct {
	Statuses     []model.ComplaintStatus
	UserID       *int64
	DepartmentID *int64
	Category     string
	City         string
	DateFrom     *time.Time
	DateTo       *time.Time
	Limit        int
	Offset       int
}

type complaintWorker struct {
	ComplaintID int64 `gorm:"primaryKey"`
	WorkerID    int64 `gorm:"primaryKey"`
}

func (complaintWorker) TableName() string {
	return "complaint_workers"
}

func (r *ComplaintRepository) List(ctx context.Context, filter ComplaintFilter) ([]model.Complaint, error) {
	query := r.db.WithContext(ctx).Model(&model.Complaint{})

	if len(filter.Statuses) > 0 {
		query = query.Where("complaints.status IN ?", filter.Statuses)
	}
	if filter.UserID != nil {
		query = query.Where("complaints.user_id = ?", *filter.UserID)
	}
	if filter.DepartmentID != nil {
		query = query.Where("complaints.department_id = ?", *filter.DepartmentID)
	}
	if filter.Category != "" {
		query = query.Where("LOWER(complaints.category) = LOWER(?)", filter.Category)
	}
	if filter.City != "" {
		query = query.Where("LOWER(complaints.city) = LOWER(?)", filter.City)
	}
	if filter.DateFrom != nil {
		query = query.Where("complaints.created_at >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("complaints.created_at <= ?", *filter.DateTo)
	}

	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	} else {
		query = query.Limit(200)
	}

	var complaints []model.Complaint
	if err := query.
		Order("complaints.created_at DESC, complaints.id DESC").
		Preload("Department").
		Preload("AssignedWorkers").
		Find(&complaints).Error; err != nil {
		return nil, err
	}
	return complaints, nil
}

func (r *ComplaintRepository) ListByUser(ctx context.Context, userID int64) ([]model.Complaint, error) {
	var complaints []model.Complaint
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Preload("Department").
		Preload("AssignedWorkers").
		Find(&complaints).Error; err != nil {
		return nil, err
	}
	return complaints, nil
}

func (r *ComplaintRepository) ListByDepartment(ctx context.Context, departmentID int64) ([]model.Complaint, error) {
	var complaints []model.Complaint
	if err := r.db.WithContext(ctx).
		Where("department_id = ?", departmentID).
		Order("created_at DESC, id DESC").
		Preload("AssignedWorkers").
		Find(&complaints).Error; err != nil {
		return nil, err
	}
	return complaints, nil
}

func (r *ComplaintRepository) GetByID(ctx context.Context, id int64) (*model.Complaint, error) {
	var complaint model.Complaint
	if err := r.db.WithContext(ctx).
		Preload("Department").
		Preload("AssignedWorkers").
		First(&complaint, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &complaint, nil
}

func (r *ComplaintRepository) GetWithAssignedWorkers(ctx context.Context, id int64) (*model.Complaint, error) {
	var complaint model.Complaint
	if err := r.db.WithContext(ctx).
		Preload("AssignedWorkers", func(db *gorm.DB) *gorm.DB {
			return db.Order("workers.id ASC")
		}).
		First(&complaint, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &complaint, nil
}

func (r *ComplaintRepository) Create(ctx context.Context, complaint *model.Complaint) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(complaint).Error
}

// Save writes every column of the complaint and replaces its worker links
// with complaint.AssignedWorkers.
func (r *ComplaintRepository) Save(ctx context.Context, complaint *model.Complaint) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(complaint).Error; err != nil {
		return err
	}
	return r.replaceWorkers(ctx, complaint.ID, complaint.AssignedWorkers)
}

func (r *ComplaintRepository) replaceWorkers(ctx context.Context, complaintID int64, workers []model.Worker) error {
	if err := r.db.WithContext(ctx).
		Where("complaint_id = ?", complaintID).
		Delete(&complaintWorker{}).Error; err != nil {
		return err
	}
	if len(workers) == 0 {
		return nil
	}
	links := make([]complaintWorker, 0, len(workers))
	for _, w := range workers {
		links = append(links, complaintWorker{ComplaintID: complaintID, WorkerID: w.ID})
	}
	return r.db.WithContext(ctx).Create(&links).Error
}

func (r *ComplaintRepository) DeadlineDateOf(ctx context.Context, id int64) (*time.Time, error) {
	var row struct {
		DeadlineDate *time.Time
	}
	if err := r.db.WithContext(ctx).
		Model(&model.Complaint{}).
		Select("deadline_date").
		Where("id = ?", id).
		Take(&row).Error; err != nil {
		return nil, err
	}
	return row.DeadlineDate, nil
}

func (r *ComplaintRepository) RatingOf(ctx context.Context, id int64) (*int, error) {
	var row struct {
		Rating *int
	}
	if err := r.db.WithContext(ctx).
		Model(&model.Complaint{}).
		Select("rating").
		Where("id = ?", id).
		Take(&row).Error; err != nil {
		return nil, err
	}
	return row.Rating, nil
}

func (r *ComplaintRepository) CountByDepartment(ctx context.Context) ([]model.DepartmentComplaintCount, error) {
	var rows []model.DepartmentComplaintCount
	if err := r.db.WithContext(ctx).
		Table("departments d").
		Select("d.id AS department_id, d.name AS department_name, COUNT(c.id) AS count").
		Joins("LEFT JOIN complaints c ON c.department_id = d.id").
		Group("d.id, d.name").
		Order("d.name ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ComplaintRepository) LogStatusChange(ctx context.Context, logEntry *model.ComplaintStatusLog) error {
	return r.db.WithContext(ctx).Create(logEntry).Error
}

func (r *ComplaintRepository) ListStatusLog(ctx context.Context, complaintID int64) ([]model.ComplaintStatusLog, error) {
	var entries []model.ComplaintStatusLog
	if err := r.db.WithContext(ctx).
		Where("complaint_id = ?", complaintID).
		Order("created_at ASC, id ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
