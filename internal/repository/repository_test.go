package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"complaint-service/internal/db"
	"complaint-service/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()), nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := database.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return NewStore(database)
}

func seed(t *testing.T, s *Store) (model.Department, []model.Worker, *model.Complaint) {
	t.Helper()
	ctx := context.Background()

	dept := model.Department{Name: "Roads", Email: "roads@city.gov", PasswordHash: "x"}
	require.NoError(t, s.Departments.Create(ctx, &dept))

	workers := []model.Worker{
		{Name: "A", Email: "a@city.gov", Phone: "1", DepartmentID: dept.ID},
		{Name: "B", Email: "b@city.gov", Phone: "2", DepartmentID: dept.ID},
	}
	for i := range workers {
		require.NoError(t, s.Workers.Create(ctx, &workers[i]))
	}

	complaint := &model.Complaint{Title: "t", Category: "c", City: "Pune"}
	complaint.Submit(model.User{ID: 1, FirstName: "Asha", Email: "asha@example.com"})
	require.NoError(t, s.Complaints.Create(ctx, complaint))
	return dept, workers, complaint
}

func TestSaveReplacesWorkerLinks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	dept, workers, complaint := seed(t, s)

	complaint.AssignTo(dept, workers)
	require.NoError(t, s.Complaints.Save(ctx, complaint))

	loaded, err := s.Complaints.GetWithAssignedWorkers(ctx, complaint.ID)
	require.NoError(t, err)
	assert.Len(t, loaded.AssignedWorkers, 2)

	complaint.AssignTo(dept, workers[1:])
	require.NoError(t, s.Complaints.Save(ctx, complaint))

	loaded, err = s.Complaints.GetByID(ctx, complaint.ID)
	require.NoError(t, err)
	require.Len(t, loaded.AssignedWorkers, 1)
	assert.Equal(t, workers[1].ID, loaded.AssignedWorkers[0].ID)
	require.NotNil(t, loaded.Department)
	assert.Equal(t, "Roads", loaded.Department.Name)

	complaint.AssignTo(dept, nil)
	require.NoError(t, s.Complaints.Save(ctx, complaint))
	loaded, err = s.Complaints.GetByID(ctx, complaint.ID)
	require.NoError(t, err)
	assert.Empty(t, loaded.AssignedWorkers)
}

func TestTransactionRollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	dept, workers, complaint := seed(t, s)

	err := s.Transaction(ctx, func(tx *Store) error {
		current, err := tx.Complaints.GetByID(ctx, complaint.ID)
		if err != nil {
			return err
		}
		current.AssignTo(dept, workers)
		if err := tx.Complaints.Save(ctx, current); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	loaded, err := s.Complaints.GetByID(ctx, complaint.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ComplaintStatusPending, loaded.Status)
	assert.Nil(t, loaded.DepartmentID)
	assert.Empty(t, loaded.AssignedWorkers)
}

func TestFindByIDsSkipsMissing(t *testing.T) {
	s := newTestStore(t)
	_, workers, _ := seed(t, s)

	found, err := s.Workers.FindByIDs(context.Background(), []int64{workers[1].ID, 999, workers[0].ID})
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, workers[0].ID, found[0].ID)

	none, err := s.Workers.FindByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStatusLogAndProjections(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, _, complaint := seed(t, s)

	old := model.ComplaintStatusPending
	require.NoError(t, s.Complaints.LogStatusChange(ctx, &model.ComplaintStatusLog{
		ComplaintID: complaint.ID,
		OldStatus:   &old,
		NewStatus:   model.ComplaintStatusInProgress,
		Note:        "started",
	}))
	entries, err := s.Complaints.ListStatusLog(ctx, complaint.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "started", entries[0].Note)

	rating, err := s.Complaints.RatingOf(ctx, complaint.ID)
	require.NoError(t, err)
	assert.Nil(t, rating)

	_, err = s.Complaints.DeadlineDateOf(ctx, 999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestDuplicateEmailIsTranslated(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Users.Create(ctx, &model.User{FirstName: "A", Email: "a@example.com", PasswordHash: "x"}))
	err := s.Users.Create(ctx, &model.User{FirstName: "B", Email: "a@example.com", PasswordHash: "x"})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	user, err := s.Users.GetByEmail(ctx, "A@EXAMPLE.COM")
	require.NoError(t, err)
	assert.Equal(t, "A", user.FirstName)
}
