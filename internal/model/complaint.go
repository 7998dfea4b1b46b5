package model

import (
	"fmt"
	"strings"
	"time"
)

type ComplaintStatus string

const (
	ComplaintStatusPending    ComplaintStatus = "PENDING"
	ComplaintStatusInProgress ComplaintStatus = "IN_PROGRESS"
	ComplaintStatusResolved   ComplaintStatus = "RESOLVED"
)

// ParseComplaintStatus accepts any casing; spaces and hyphens are read as
// underscores so "In Progress" and "in-progress" both resolve.
func ParseComplaintStatus(raw string) (ComplaintStatus, error) {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	normalized = strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)
	switch ComplaintStatus(normalized) {
	case ComplaintStatusPending, ComplaintStatusInProgress, ComplaintStatusResolved:
		return ComplaintStatus(normalized), nil
	default:
		return "", fmt.Errorf("unknown complaint status %q", raw)
	}
}

type Complaint struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      int64  `gorm:"not null;index" json:"user_id"`
	FirstName   string `gorm:"type:varchar(255)" json:"first_name"`
	UserEmail   string `gorm:"type:varchar(255)" json:"user_email"`
	Title       string `gorm:"type:varchar(255);not null" json:"title"`
	Category    string `gorm:"type:varchar(128);not null" json:"category"`
	Description string `gorm:"type:text" json:"description"`
	City        string `gorm:"type:varchar(128)" json:"city"`
	Location    string `gorm:"type:text" json:"location"`

	Status          ComplaintStatus `gorm:"type:varchar(32);not null;default:'PENDING';index" json:"status"`
	Message         *string         `gorm:"type:text" json:"message"`
	BeforeImagePath *string         `gorm:"type:text" json:"before_image_path"`
	AfterImagePath  *string         `gorm:"type:text" json:"after_image_path"`

	DepartmentID    *int64      `gorm:"index" json:"department_id"`
	Department      *Department `gorm:"foreignKey:DepartmentID" json:"department,omitempty"`
	AssignedWorkers []Worker    `gorm:"many2many:complaint_workers;joinForeignKey:ComplaintID;joinReferences:WorkerID" json:"assigned_workers"`

	DeadlineDate *time.Time `gorm:"type:date" json:"deadline_date"`
	ResolvedAt   *time.Time `json:"resolved_at"`
	Rating       *int       `json:"rating"`
	Feedback     *string    `gorm:"type:text" json:"feedback"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Complaint) TableName() string {
	return "complaints"
}

// Submit fills the submission snapshot from the user. The name and email are
// a one-time copy and are not refreshed afterwards.
func (c *Complaint) Submit(user User) {
	c.UserID = user.ID
	c.FirstName = user.FirstName
	c.UserEmail = user.Email
	c.Status = ComplaintStatusPending
	c.DepartmentID = nil
	c.Department = nil
	c.AssignedWorkers = nil
}

// AssignTo binds the complaint to a department and its workers. Callers must
// have checked that every worker belongs to dept.
func (c *Complaint) AssignTo(dept Department, workers []Worker) {
	id := dept.ID
	c.DepartmentID = &id
	c.Department = &dept
	if len(workers) > 0 {
		c.AssignedWorkers = workers
	} else {
		c.AssignedWorkers = nil
	}

	switch c.Status {
	case ComplaintStatusPending:
		c.Status = ComplaintStatusInProgress
	case ComplaintStatusInProgress, ComplaintStatusResolved:
	}
}

// SetStatus moves the complaint to status and overwrites the message. Leaving
// RESOLVED drops the after image; ResolvedAt is kept as history.
func (c *Complaint) SetStatus(status ComplaintStatus, message string, now time.Time) {
	c.Status = status
	c.Message = &message

	switch status {
	case ComplaintStatusResolved:
		if c.ResolvedAt == nil {
			c.ResolvedAt = &now
		}
	case ComplaintStatusPending, ComplaintStatusInProgress:
		c.AfterImagePath = nil
	}
}

// Complete resolves the complaint with the after image and the workers who
// did the job.
func (c *Complaint) Complete(afterImage, message string, workers []Worker, now time.Time) {
	c.AfterImagePath = &afterImage
	c.Message = &message
	c.Status = ComplaintStatusResolved
	c.ResolvedAt = &now
	c.AssignedWorkers = workers
}

func (c *Complaint) RecordFeedback(rating int, feedback string) {
	c.Rating = &rating
	c.Feedback = &feedback
}
