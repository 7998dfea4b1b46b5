package model

import "time"

type ComplaintStatusLog struct {
	ID          int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	ComplaintID int64            `gorm:"not null;index" json:"complaint_id"`
	OldStatus   *ComplaintStatus `gorm:"type:varchar(32)" json:"old_status"`
	NewStatus   ComplaintStatus  `gorm:"type:varchar(32);not null" json:"new_status"`
	Note        string           `gorm:"type:text" json:"note"`
	CreatedAt   time.Time        `gorm:"autoCreateTime" json:"created_at"`
}

func (ComplaintStatusLog) TableName() string {
	return "complaint_status_log"
}
