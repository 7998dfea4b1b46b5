package model

import "time"

type DepartmentBrief struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type ComplaintRecord struct {
	Complaint        Complaint        `json:"complaint"`
	Department       *DepartmentBrief `json:"department"`
	CompletionOffset string           `json:"completion_offset"`
}

type DepartmentComplaintCount struct {
	DepartmentID   int64  `json:"department_id"`
	DepartmentName string `json:"department_name"`
	Count          int64  `json:"count"`
}

type AuthToken struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	Role        UserRole  `json:"role"`
	SubjectID   int64     `json:"subject_id"`
}
