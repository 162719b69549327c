package farm

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// AddTreeLogInput carries the fields for a new care/observation record.
type AddTreeLogInput struct {
	LogDate        time.Time
	ActivityType   string
	HealthStatus   string
	FertilizerType string
	Notes          string
	ImagePath      string
}

// AddTreeLog appends an immutable log entry to a tree's history.
func (s *Service) AddTreeLog(ctx context.Context, treeID string, input AddTreeLogInput) (*TreeLog, error) {
	if _, err := s.GetTree(ctx, treeID); err != nil {
		return nil, newServiceError(opAddTreeLog, "tree_not_found", err)
	}

	logDate := input.LogDate
	if logDate.IsZero() {
		logDate = s.clock().UTC()
	}

	id, err := s.newID(opAddTreeLog)
	if err != nil {
		return nil, err
	}

	entry := TreeLog{
		ID:             id,
		TreeID:         treeID,
		LogDate:        logDate,
		ActivityType:   input.ActivityType,
		HealthStatus:   input.HealthStatus,
		FertilizerType: input.FertilizerType,
		Notes:          input.Notes,
		ImagePath:      input.ImagePath,
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		s.logError(opAddTreeLog, "insert_failed", err, zap.String("tree_id", treeID))
		return nil, newServiceError(opAddTreeLog, "insert_failed", err)
	}
	return &entry, nil
}

// GetTreeLog loads a single log entry scoped to its tree.
func (s *Service) GetTreeLog(ctx context.Context, treeID, logID string) (*TreeLog, error) {
	var entry TreeLog
	if err := s.db.WithContext(ctx).
		Where("id = ? AND tree_id = ?", logID, treeID).
		Take(&entry).Error; err != nil {
		if IsNotFound(err) {
			return nil, newServiceError(opGetTreeLog, "not_found", err)
		}
		return nil, newServiceError(opGetTreeLog, "query_failed", err)
	}
	return &entry, nil
}

// ListTreeLogs returns a tree's full history ordered by log date ascending.
// Extraction relies on this ordering only as a convenience; the yield
// extractor re-sorts before handing events to analytics.
func (s *Service) ListTreeLogs(ctx context.Context, treeID string) ([]TreeLog, error) {
	var entries []TreeLog
	if err := s.db.WithContext(ctx).
		Where("tree_id = ?", treeID).
		Order("log_date ASC").
		Find(&entries).Error; err != nil {
		s.logError(opListTreeLogs, "query_failed", err, zap.String("tree_id", treeID))
		return nil, newServiceError(opListTreeLogs, "query_failed", err)
	}
	return entries, nil
}

// ListAllTreeLogs returns every log entry, for the farm report export.
func (s *Service) ListAllTreeLogs(ctx context.Context) ([]TreeLog, error) {
	var entries []TreeLog
	if err := s.db.WithContext(ctx).Order("log_date ASC").Find(&entries).Error; err != nil {
		s.logError(opListTreeLogs, "query_failed", err)
		return nil, newServiceError(opListTreeLogs, "query_failed", err)
	}
	return entries, nil
}
