package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store groups the repositories so a service can run several of them inside
// one transaction.
type Store struct {
	db          *gorm.DB
	Complaints  *ComplaintRepository
	Users       *UserRepository
	Admins      *AdminRepository
	Departments *DepartmentRepository
	Workers     *WorkerRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:          db,
		Complaints:  NewComplaintRepository(db),
		Users:       NewUserRepository(db),
		Admins:      NewAdminRepository(db),
		Departments: NewDepartmentRepository(db),
		Workers:     NewWorkerRepository(db),
	}
}

// Transaction runs fn against repositories bound to a single database
// transaction. Returning an error from fn rolls everything back.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}
