package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"complaint-service/internal/cache"
	"complaint-service/internal/events"
	"complaint-service/internal/media"
	"complaint-service/internal/model"
	"complaint-service/internal/repository"
)

const (
	CompletionUnavailable = "Completion time unavailable"
	CompletionOnDeadline  = "on the exact deadline day"
)

type ComplaintService struct {
	store     *repository.Store
	media     media.Store
	publisher events.Publisher
	reports   *cache.ReportCache
	validate  *validator.Validate
	log       zerolog.Logger
	now       func() time.Time
}

func NewComplaintService(
	store *repository.Store,
	mediaStore media.Store,
	publisher events.Publisher,
	reports *cache.ReportCache,
	log zerolog.Logger,
) *ComplaintService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &ComplaintService{
		store:     store,
		media:     mediaStore,
		publisher: publisher,
		reports:   reports,
		validate:  validator.New(),
		log:       log,
		now:       time.Now,
	}
}

type SubmitInput struct {
	UserID      int64  `validate:"required,gt=0"`
	Title       string `validate:"required,max=255"`
	Category    string `validate:"required,max=128"`
	Description string `validate:"required"`
	City        string `validate:"required,max=128"`
	Location    string `validate:"required"`
	BeforeImage *media.Upload
}

type ListComplaintsOptions struct {
	Statuses     []model.ComplaintStatus
	DepartmentID *int64
	Category     string
	City         string
	DateFrom     *time.Time
	DateTo       *time.Time
	Limit        int
	Offset       int
}

func (s *ComplaintService) Submit(ctx context.Context, input SubmitInput) (*model.Complaint, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Category = strings.TrimSpace(input.Category)
	input.Description = strings.TrimSpace(input.Description)
	input.City = strings.TrimSpace(input.City)
	input.Location = strings.TrimSpace(input.Location)
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	user, err := s.store.Users.GetByID(ctx, input.UserID)
	if err != nil {
		return nil, mapLookupError(err, "user")
	}

	var beforeImage *string
	if !input.BeforeImage.Empty() {
		ref, err := s.media.Save(ctx, "", input.BeforeImage.Data, input.BeforeImage.Ext())
		if err != nil {
			return nil, fmt.Errorf("%w: store before image: %v", ErrStorage, err)
		}
		beforeImage = &ref
	}

	complaint := &model.Complaint{
		Title:           input.Title,
		Category:        input.Category,
		Description:     input.Description,
		City:            input.City,
		Location:        input.Location,
		BeforeImagePath: beforeImage,
	}
	complaint.Submit(*user)

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Complaints.Create(ctx, complaint); err != nil {
			return err
		}
		return tx.Complaints.LogStatusChange(ctx, &model.ComplaintStatusLog{
			ComplaintID: complaint.ID,
			NewStatus:   complaint.Status,
			Note:        "submitted",
		})
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.TypeComplaintSubmitted, complaint)
	return complaint, nil
}

// AssignDepartmentAndWorkers binds the complaint to the department and the
// given workers. Every worker must exist and belong to the department, or the
// whole call is rejected and the prior assignment stays in place.
func (s *ComplaintService) AssignDepartmentAndWorkers(ctx context.Context, complaintID, departmentID int64, workerIDs []int64) (*model.Complaint, error) {
	return s.AssignWithTimeline(ctx, complaintID, departmentID, workerIDs, nil)
}

// AssignWithTimeline assigns like AssignDepartmentAndWorkers and, when
// timelineDays is set, schedules the deadline in the same transaction.
func (s *ComplaintService) AssignWithTimeline(ctx context.Context, complaintID, departmentID int64, workerIDs []int64, timelineDays *int) (*model.Complaint, error) {
	ids := uniqueIDs(workerIDs)

	var deadline *time.Time
	if timelineDays != nil {
		day, err := s.deadlineAfter(*timelineDays)
		if err != nil {
			return nil, err
		}
		deadline = &day
	}

	var complaint *model.Complaint
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		current, err := tx.Complaints.GetByID(ctx, complaintID)
		if err != nil {
			return mapLookupError(err, "complaint")
		}
		dept, err := tx.Departments.GetByID(ctx, departmentID)
		if err != nil {
			return mapLookupError(err, "department")
		}

		workers, err := tx.Workers.FindByIDs(ctx, ids)
		if err != nil {
			return err
		}
		if missing := len(ids) - len(workers); missing > 0 {
			return fmt.Errorf("%w: %d of %d workers not found", ErrInvalidInput, missing, len(ids))
		}
		for _, w := range workers {
			if w.DepartmentID != dept.ID {
				return fmt.Errorf("%w: worker %d does not belong to department %d", ErrInvalidInput, w.ID, dept.ID)
			}
		}

		previous := current.Status
		current.AssignTo(*dept, workers)
		if deadline != nil {
			current.DeadlineDate = deadline
		}
		if err := tx.Complaints.Save(ctx, current); err != nil {
			return err
		}
		if previous != current.Status {
			if err := logTransition(ctx, tx, current, previous, fmt.Sprintf("assigned to department %d", dept.ID)); err != nil {
				return err
			}
		}
		complaint = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateReports(ctx)
	s.publish(ctx, events.TypeComplaintAssigned, complaint)
	return complaint, nil
}

// UpdateStatus overwrites the status and message. Any status other than
// RESOLVED drops the after image.
func (s *ComplaintService) UpdateStatus(ctx context.Context, complaintID int64, rawStatus, message string) (*model.Complaint, error) {
	status, err := model.ParseComplaintStatus(rawStatus)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	var complaint *model.Complaint
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		current, err := tx.Complaints.GetByID(ctx, complaintID)
		if err != nil {
			return mapLookupError(err, "complaint")
		}
		previous := current.Status
		current.SetStatus(status, message, s.now().UTC())
		if err := tx.Complaints.Save(ctx, current); err != nil {
			return err
		}
		if err := logTransition(ctx, tx, current, previous, message); err != nil {
			return err
		}
		complaint = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.TypeStatusChanged, complaint)
	return complaint, nil
}

// CompleteTask resolves the complaint. The after image is stored before any
// database write; a failed write leaves the stored file behind.
func (s *ComplaintService) CompleteTask(ctx context.Context, complaintID int64, afterImage *media.Upload, message, workerIDsCSV string) (*model.Complaint, error) {
	if afterImage.Empty() {
		return nil, fmt.Errorf("%w: after image is required", ErrInvalidInput)
	}
	ids, err := ParseWorkerIDs(workerIDsCSV)
	if err != nil {
		return nil, err
	}

	ref, err := s.media.Save(ctx, media.AfterImagePrefix, afterImage.Data, afterImage.Ext())
	if err != nil {
		return nil, fmt.Errorf("%w: store after image: %v", ErrStorage, err)
	}

	var complaint *model.Complaint
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		current, err := tx.Complaints.GetByID(ctx, complaintID)
		if err != nil {
			return mapLookupError(err, "complaint")
		}
		// Unknown IDs are dropped and department membership is not checked.
		workers, err := tx.Workers.FindByIDs(ctx, ids)
		if err != nil {
			return err
		}
		previous := current.Status
		current.Complete(ref, message, workers, s.now().UTC())
		if err := tx.Complaints.Save(ctx, current); err != nil {
			return err
		}
		if err := logTransition(ctx, tx, current, previous, message); err != nil {
			return err
		}
		complaint = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.TypeComplaintResolved, complaint)
	return complaint, nil
}

// RecordFeedback stores the submitter's rating regardless of status.
func (s *ComplaintService) RecordFeedback(ctx context.Context, complaintID int64, rating int, feedback string) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidInput)
	}

	var complaint *model.Complaint
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		current, err := tx.Complaints.GetByID(ctx, complaintID)
		if err != nil {
			return mapLookupError(err, "complaint")
		}
		current.RecordFeedback(rating, strings.TrimSpace(feedback))
		if err := tx.Complaints.Save(ctx, current); err != nil {
			return err
		}
		complaint = current
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, events.TypeFeedbackRecorded, complaint)
	return nil
}

func (s *ComplaintService) SetDeadline(ctx context.Context, complaintID int64, deadline time.Time) (*model.Complaint, error) {
	day := startOfDay(deadline)

	var complaint *model.Complaint
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		current, err := tx.Complaints.GetByID(ctx, complaintID)
		if err != nil {
			return mapLookupError(err, "complaint")
		}
		current.DeadlineDate = &day
		if err := tx.Complaints.Save(ctx, current); err != nil {
			return err
		}
		complaint = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return complaint, nil
}

// ScheduleDeadline sets the deadline to today plus timelineDays.
func (s *ComplaintService) ScheduleDeadline(ctx context.Context, complaintID int64, timelineDays int) (*model.Complaint, error) {
	day, err := s.deadlineAfter(timelineDays)
	if err != nil {
		return nil, err
	}
	return s.SetDeadline(ctx, complaintID, day)
}

func (s *ComplaintService) deadlineAfter(timelineDays int) (time.Time, error) {
	if timelineDays < 0 {
		return time.Time{}, fmt.Errorf("%w: timeline days must not be negative", ErrInvalidInput)
	}
	return startOfDay(s.now().UTC().AddDate(0, 0, timelineDays)), nil
}

// startOfDay keeps the calendar date of t and pins it to UTC midnight.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *ComplaintService) Get(ctx context.Context, complaintID int64) (*model.ComplaintRecord, error) {
	complaint, err := s.store.Complaints.GetByID(ctx, complaintID)
	if err != nil {
		return nil, mapLookupError(err, "complaint")
	}
	record := toRecord(*complaint)
	return &record, nil
}

func (s *ComplaintService) ListByUser(ctx context.Context, userID int64) ([]model.ComplaintRecord, error) {
	complaints, err := s.store.Complaints.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toRecords(complaints), nil
}

func (s *ComplaintService) ListByDepartment(ctx context.Context, departmentID int64) ([]model.ComplaintRecord, error) {
	if _, err := s.store.Departments.GetByID(ctx, departmentID); err != nil {
		return nil, mapLookupError(err, "department")
	}
	complaints, err := s.store.Complaints.ListByDepartment(ctx, departmentID)
	if err != nil {
		return nil, err
	}
	return toRecords(complaints), nil
}

func (s *ComplaintService) ListAll(ctx context.Context, opts ListComplaintsOptions) ([]model.ComplaintRecord, error) {
	complaints, err := s.store.Complaints.List(ctx, repository.ComplaintFilter{
		Statuses:     opts.Statuses,
		DepartmentID: opts.DepartmentID,
		Category:     opts.Category,
		City:         opts.City,
		DateFrom:     opts.DateFrom,
		DateTo:       opts.DateTo,
		Limit:        opts.Limit,
		Offset:       opts.Offset,
	})
	if err != nil {
		return nil, err
	}
	return toRecords(complaints), nil
}

// AssignedWorkers returns an empty list for an unknown complaint.
func (s *ComplaintService) AssignedWorkers(ctx context.Context, complaintID int64) ([]model.Worker, error) {
	complaint, err := s.store.Complaints.GetWithAssignedWorkers(ctx, complaintID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []model.Worker{}, nil
		}
		return nil, err
	}
	if complaint.AssignedWorkers == nil {
		return []model.Worker{}, nil
	}
	return complaint.AssignedWorkers, nil
}

func (s *ComplaintService) History(ctx context.Context, complaintID int64) ([]model.ComplaintStatusLog, error) {
	if _, err := s.store.Complaints.GetByID(ctx, complaintID); err != nil {
		return nil, mapLookupError(err, "complaint")
	}
	return s.store.Complaints.ListStatusLog(ctx, complaintID)
}

func (s *ComplaintService) OpenMedia(ctx context.Context, ref string) (io.ReadCloser, error) {
	rc, err := s.media.Open(ctx, ref)
	switch {
	case err == nil:
		return rc, nil
	case errors.Is(err, media.ErrNotFound):
		return nil, fmt.Errorf("%w: file %s", ErrNotFound, ref)
	case errors.Is(err, media.ErrInvalidReference):
		return nil, fmt.Errorf("%w: file reference %q", ErrInvalidInput, ref)
	default:
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
}

// CompletionOffset describes when the complaint was resolved relative to the
// start of its deadline day, both taken in UTC. Hours are truncated, never
// rounded.
func CompletionOffset(c *model.Complaint) string {
	if c == nil || c.ResolvedAt == nil || c.DeadlineDate == nil {
		return CompletionUnavailable
	}
	resolved := c.ResolvedAt.UTC()
	deadline := startOfDay(*c.DeadlineDate)

	delta := resolved.Sub(deadline)
	if delta == 0 {
		return CompletionOnDeadline
	}

	hours := int64(delta / time.Hour)
	if hours < 0 {
		hours = -hours
	}
	days, rem := hours/24, hours%24
	if delta < 0 {
		return fmt.Sprintf("%dd %dh before deadline", days, rem)
	}
	return fmt.Sprintf("%dd %dh after deadline", days, rem)
}

// ParseWorkerIDs reads a comma separated ID list. Blank entries are skipped;
// any other non-numeric entry rejects the whole list. Zero and negative IDs
// parse and are left for the worker lookup to drop.
func ParseWorkerIDs(csv string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(csv, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed worker id %q", ErrInvalidInput, part)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: at least one worker id is required", ErrInvalidInput)
	}
	return uniqueIDs(ids), nil
}

func (s *ComplaintService) publish(ctx context.Context, eventType string, complaint *model.Complaint) {
	event := events.NewComplaintEvent(eventType, complaint)
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Warn().Err(err).
			Str("event", eventType).
			Int64("complaint_id", complaint.ID).
			Msg("failed to publish complaint event")
	}
}

func (s *ComplaintService) invalidateReports(ctx context.Context) {
	if err := s.reports.Invalidate(ctx); err != nil {
		s.log.Warn().Err(err).Msg("failed to invalidate report cache")
	}
}

func logTransition(ctx context.Context, tx *repository.Store, c *model.Complaint, previous model.ComplaintStatus, note string) error {
	old := previous
	return tx.Complaints.LogStatusChange(ctx, &model.ComplaintStatusLog{
		ComplaintID: c.ID,
		OldStatus:   &old,
		NewStatus:   c.Status,
		Note:        note,
	})
}

func toRecord(c model.Complaint) model.ComplaintRecord {
	record := model.ComplaintRecord{
		Complaint:        c,
		CompletionOffset: CompletionOffset(&c),
	}
	if c.Department != nil {
		record.Department = &model.DepartmentBrief{ID: c.Department.ID, Name: c.Department.Name}
	}
	return record
}

func toRecords(complaints []model.Complaint) []model.ComplaintRecord {
	records := make([]model.ComplaintRecord, 0, len(complaints))
	for _, c := range complaints {
		records = append(records, toRecord(c))
	}
	return records
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func mapLookupError(err error, entity string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, entity)
	}
	return err
}
