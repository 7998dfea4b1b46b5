package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"complaint-service/internal/auth"
	"complaint-service/internal/cache"
	"complaint-service/internal/model"
	"complaint-service/internal/repository"
)

type IdentityService struct {
	store    *repository.Store
	issuer   *auth.Issuer
	reports  *cache.ReportCache
	validate *validator.Validate
	log      zerolog.Logger
}

func NewIdentityService(store *repository.Store, issuer *auth.Issuer, reports *cache.ReportCache, log zerolog.Logger) *IdentityService {
	return &IdentityService{
		store:    store,
		issuer:   issuer,
		reports:  reports,
		validate: validator.New(),
		log:      log,
	}
}

type RegisterUserInput struct {
	FirstName string `validate:"required,max=255"`
	LastName  string `validate:"max=255"`
	Email     string `validate:"required,email"`
	Password  string `validate:"required,min=6"`
}

type CreateDepartmentInput struct {
	Name     string `validate:"required,max=255"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

type AddWorkerInput struct {
	Name  string `validate:"required,max=255"`
	Email string `validate:"required,email"`
	Phone string `validate:"required,max=32"`
}

func (s *IdentityService) RegisterUser(ctx context.Context, input RegisterUserInput) (*model.User, error) {
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	input.Email = normalizeEmail(input.Email)
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if _, err := s.store.Users.GetByEmail(ctx, input.Email); err == nil {
		return nil, fmt.Errorf("%w: email already registered", ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        input.Email,
		PasswordHash: hash,
	}
	if err := s.store.Users.Create(ctx, user); err != nil {
		return nil, mapWriteError(err, "email already registered")
	}
	return user, nil
}

func (s *IdentityService) LoginUser(ctx context.Context, email, password string) (model.AuthToken, error) {
	user, err := s.store.Users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return model.AuthToken{}, s.loginFailure(err)
	}
	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		return model.AuthToken{}, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}
	return s.issuer.Issue(user.ID, model.UserRoleCitizen)
}

func (s *IdentityService) LoginAdmin(ctx context.Context, email, password string) (model.AuthToken, error) {
	admin, err := s.store.Admins.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return model.AuthToken{}, s.loginFailure(err)
	}
	if err := auth.CheckPassword(admin.PasswordHash, password); err != nil {
		return model.AuthToken{}, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}
	return s.issuer.Issue(admin.ID, model.UserRoleAdmin)
}

// LoginDepartment authenticates with the department name, its email and the
// password together.
func (s *IdentityService) LoginDepartment(ctx context.Context, name, email, password string) (model.AuthToken, error) {
	dept, err := s.store.Departments.GetByNameAndEmail(ctx, strings.TrimSpace(name), normalizeEmail(email))
	if err != nil {
		return model.AuthToken{}, s.loginFailure(err)
	}
	if err := auth.CheckPassword(dept.PasswordHash, password); err != nil {
		return model.AuthToken{}, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}
	return s.issuer.Issue(dept.ID, model.UserRoleDepartment)
}

// EnsureAdmin creates the bootstrap admin when no admin with that email
// exists yet. An existing account is left untouched.
func (s *IdentityService) EnsureAdmin(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil
	}
	_, err := s.store.Admins.GetByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	if err := s.store.Admins.Create(ctx, &model.Admin{Email: email, PasswordHash: hash}); err != nil {
		return err
	}
	s.log.Info().Str("email", email).Msg("bootstrap admin created")
	return nil
}

func (s *IdentityService) CreateDepartment(ctx context.Context, input CreateDepartmentInput) (*model.Department, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = normalizeEmail(input.Email)
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	dept := &model.Department{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hash,
	}
	if err := s.store.Departments.Create(ctx, dept); err != nil {
		return nil, mapWriteError(err, "department name or email already exists")
	}
	if err := s.reports.Invalidate(ctx); err != nil {
		s.log.Warn().Err(err).Msg("failed to invalidate report cache")
	}
	return dept, nil
}

// DeleteDepartment removes the department with its workers and complaints.
func (s *IdentityService) DeleteDepartment(ctx context.Context, departmentID int64) error {
	if err := s.store.Departments.DeleteCascade(ctx, departmentID); err != nil {
		return mapLookupError(err, "department")
	}
	if err := s.reports.Invalidate(ctx); err != nil {
		s.log.Warn().Err(err).Msg("failed to invalidate report cache")
	}
	return nil
}

func (s *IdentityService) ListDepartments(ctx context.Context) ([]model.Department, error) {
	return s.store.Departments.List(ctx)
}

func (s *IdentityService) GetDepartment(ctx context.Context, departmentID int64) (*model.Department, error) {
	dept, err := s.store.Departments.GetByID(ctx, departmentID)
	if err != nil {
		return nil, mapLookupError(err, "department")
	}
	return dept, nil
}

func (s *IdentityService) AddWorker(ctx context.Context, departmentID int64, input AddWorkerInput) (*model.Worker, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = normalizeEmail(input.Email)
	input.Phone = strings.TrimSpace(input.Phone)
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	var worker *model.Worker
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := tx.Departments.GetByID(ctx, departmentID); err != nil {
			return mapLookupError(err, "department")
		}
		w := &model.Worker{
			Name:         input.Name,
			Email:        input.Email,
			Phone:        input.Phone,
			DepartmentID: departmentID,
		}
		if err := tx.Workers.Create(ctx, w); err != nil {
			return mapWriteError(err, "worker email or phone already exists")
		}
		worker = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return worker, nil
}

func (s *IdentityService) ListWorkers(ctx context.Context, departmentID int64) ([]model.Worker, error) {
	if _, err := s.store.Departments.GetByID(ctx, departmentID); err != nil {
		return nil, mapLookupError(err, "department")
	}
	return s.store.Workers.ListByDepartment(ctx, departmentID)
}

func (s *IdentityService) loginFailure(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}
	return err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func mapWriteError(err error, conflictMsg string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %s", ErrConflict, conflictMsg)
	}
	return err
}
