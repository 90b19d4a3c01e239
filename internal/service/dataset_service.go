package service

import (
	"context"
	"fmt"
	"math"

	"github.com/jengzang/geolife-backend-go/internal/models"
	"github.com/jengzang/geolife-backend-go/internal/repository"
)

// DatasetService browses the ingested users, activities and track points
type DatasetService struct {
	users      *repository.UserRepository
	activities *repository.ActivityRepository
	tracks     *repository.TrackRepository
	dataset    *repository.DatasetRepository
}

// NewDatasetService creates a new dataset service
func NewDatasetService(
	users *repository.UserRepository,
	activities *repository.ActivityRepository,
	tracks *repository.TrackRepository,
	dataset *repository.DatasetRepository,
) *DatasetService {
	return &DatasetService{
		users:      users,
		activities: activities,
		tracks:     tracks,
		dataset:    dataset,
	}
}

// Counts returns the row count of every table
func (s *DatasetService) Counts(ctx context.Context) (models.DatasetCounts, error) {
	return s.dataset.Counts(ctx)
}

// ListUsers returns every user in id order
func (s *DatasetService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx)
}

// ListUserActivities returns the activities of an existing user
func (s *DatasetService) ListUserActivities(ctx context.Context, userID string) ([]models.Activity, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.activities.ListByUser(ctx, userID)
}

// GetActivityTrackPoints returns one page of an activity's track points in insertion order
func (s *DatasetService) GetActivityTrackPoints(ctx context.Context, activityID int64, page models.Page) (*models.TrackPointsResponse, error) {
	page.Normalize()

	if _, err := s.activities.GetByID(ctx, activityID); err != nil {
		return nil, err
	}

	points, total, err := s.tracks.ListByActivity(ctx, activityID, page)
	if err != nil {
		return nil, fmt.Errorf("failed to get track points: %w", err)
	}

	return &models.TrackPointsResponse{
		Data:       points,
		Total:      total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: int(math.Ceil(float64(total) / float64(page.PageSize))),
	}, nil
}
