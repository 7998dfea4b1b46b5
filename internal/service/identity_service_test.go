package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"complaint-service/internal/auth"
	"complaint-service/internal/model"
)

func TestRegisterAndLoginUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.identity.RegisterUser(ctx, RegisterUserInput{
		FirstName: "Meera",
		Email:     " Meera@Example.com ",
		Password:  "hunter22",
	})
	require.NoError(t, err)
	assert.Equal(t, "meera@example.com", user.Email)
	assert.NotEqual(t, "hunter22", user.PasswordHash)

	token, err := f.identity.LoginUser(ctx, "MEERA@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, model.UserRoleCitizen, token.Role)
	assert.Equal(t, user.ID, token.SubjectID)

	claims, err := auth.NewParser("test-secret").Parse(token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.SubjectID)

	_, err = f.identity.LoginUser(ctx, "meera@example.com", "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = f.identity.LoginUser(ctx, "nobody@example.com", "hunter22")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestRegisterUserValidationAndConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.identity.RegisterUser(ctx, RegisterUserInput{FirstName: "A", Email: "not-an-email", Password: "hunter22"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.identity.RegisterUser(ctx, RegisterUserInput{FirstName: "A", Email: "a@example.com", Password: "123"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.identity.RegisterUser(ctx, RegisterUserInput{FirstName: "A", Email: "a@example.com", Password: "hunter22"})
	require.NoError(t, err)
	_, err = f.identity.RegisterUser(ctx, RegisterUserInput{FirstName: "B", Email: "A@example.com", Password: "hunter22"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestEnsureAdminAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.identity.EnsureAdmin(ctx, "admin@city.gov", "adminpass"))
	require.NoError(t, f.identity.EnsureAdmin(ctx, "admin@city.gov", "other"))
	require.NoError(t, f.identity.EnsureAdmin(ctx, "", ""))

	token, err := f.identity.LoginAdmin(ctx, "admin@city.gov", "adminpass")
	require.NoError(t, err)
	assert.Equal(t, model.UserRoleAdmin, token.Role)

	_, err = f.identity.LoginAdmin(ctx, "admin@city.gov", "other")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestDepartmentLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	dept, err := f.identity.CreateDepartment(ctx, CreateDepartmentInput{Name: "Sanitation", Email: "san@city.gov", Password: "deptpass"})
	require.NoError(t, err)

	_, err = f.identity.CreateDepartment(ctx, CreateDepartmentInput{Name: "Sanitation", Email: "other@city.gov", Password: "deptpass"})
	assert.ErrorIs(t, err, ErrConflict)

	token, err := f.identity.LoginDepartment(ctx, "Sanitation", "SAN@city.gov", "deptpass")
	require.NoError(t, err)
	assert.Equal(t, model.UserRoleDepartment, token.Role)
	assert.Equal(t, dept.ID, token.SubjectID)

	_, err = f.identity.LoginDepartment(ctx, "Roads", "san@city.gov", "deptpass")
	assert.ErrorIs(t, err, ErrUnauthorized)

	got, err := f.identity.GetDepartment(ctx, dept.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sanitation", got.Name)

	depts, err := f.identity.ListDepartments(ctx)
	require.NoError(t, err)
	assert.Len(t, depts, 1)

	_, err = f.identity.GetDepartment(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddWorker(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dept := f.department(t, "Parks")

	worker, err := f.identity.AddWorker(ctx, dept.ID, AddWorkerInput{Name: "Ravi", Email: "ravi@city.gov", Phone: "555-0101"})
	require.NoError(t, err)
	assert.Equal(t, dept.ID, worker.DepartmentID)

	_, err = f.identity.AddWorker(ctx, dept.ID, AddWorkerInput{Name: "Ravi 2", Email: "ravi@city.gov", Phone: "555-0102"})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = f.identity.AddWorker(ctx, 999, AddWorkerInput{Name: "X", Email: "x@city.gov", Phone: "555-0199"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.identity.AddWorker(ctx, dept.ID, AddWorkerInput{Name: "", Email: "y@city.gov", Phone: "555-0103"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	workers, err := f.identity.ListWorkers(ctx, dept.ID)
	require.NoError(t, err)
	require.Len(t, workers, 1)
	assert.Equal(t, worker.ID, workers[0].ID)

	_, err = f.identity.ListWorkers(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteDepartmentCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doomed := f.department(t, "Doomed")
	kept := f.department(t, "Kept")
	doomedWorker := f.worker(t, doomed.ID)
	keptWorker := f.worker(t, kept.ID)

	gone := f.complaint(t)
	_, err := f.complaints.AssignDepartmentAndWorkers(ctx, gone.ID, doomed.ID, []int64{doomedWorker.ID})
	require.NoError(t, err)

	survivor := f.complaint(t)
	_, err = f.complaints.AssignDepartmentAndWorkers(ctx, survivor.ID, kept.ID, []int64{keptWorker.ID})
	require.NoError(t, err)
	_, err = f.complaints.CompleteTask(ctx, survivor.ID, image("after.jpg"), "done", formatID(keptWorker.ID)+","+formatID(doomedWorker.ID))
	require.NoError(t, err)

	require.NoError(t, f.identity.DeleteDepartment(ctx, doomed.ID))

	_, err = f.identity.GetDepartment(ctx, doomed.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.complaints.Get(ctx, gone.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	workers, err := f.store.Workers.FindByIDs(ctx, []int64{doomedWorker.ID, keptWorker.ID})
	require.NoError(t, err)
	assert.Equal(t, []int64{keptWorker.ID}, workerIDs(workers))

	stored := f.reload(t, survivor.ID)
	assert.Equal(t, []int64{keptWorker.ID}, workerIDs(stored.AssignedWorkers))

	assert.ErrorIs(t, f.identity.DeleteDepartment(ctx, doomed.ID), ErrNotFound)
}
