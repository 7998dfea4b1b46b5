package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"complaint-service/internal/cache"
	"complaint-service/internal/model"
	"complaint-service/internal/repository"
)

type ReportService struct {
	store *repository.Store
	cache *cache.ReportCache
	log   zerolog.Logger
}

func NewReportService(store *repository.Store, reportCache *cache.ReportCache, log zerolog.Logger) *ReportService {
	return &ReportService{store: store, cache: reportCache, log: log}
}

// DepartmentCounts serves from the cache when possible. Cache errors are
// logged and fall through to the database.
func (s *ReportService) DepartmentCounts(ctx context.Context) ([]model.DepartmentComplaintCount, error) {
	counts, ok, err := s.cache.DepartmentCounts(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("report cache read failed")
	}
	if ok {
		return counts, nil
	}

	counts, err = s.store.Complaints.CountByDepartment(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.StoreDepartmentCounts(ctx, counts); err != nil {
		s.log.Warn().Err(err).Msg("report cache write failed")
	}
	return counts, nil
}

func (s *ReportService) DeadlineOf(ctx context.Context, complaintID int64) (*time.Time, error) {
	deadline, err := s.store.Complaints.DeadlineDateOf(ctx, complaintID)
	if err != nil {
		return nil, mapLookupError(err, "complaint")
	}
	return deadline, nil
}

func (s *ReportService) RatingOf(ctx context.Context, complaintID int64) (*int, error) {
	rating, err := s.store.Complaints.RatingOf(ctx, complaintID)
	if err != nil {
		return nil, mapLookupError(err, "complaint")
	}
	return rating, nil
}
