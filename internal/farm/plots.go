package farm

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreatePlotInput carries the operator-supplied plot fields. Code is chosen
// by the operator and immutable afterwards.
type CreatePlotInput struct {
	Code        string
	Name        string
	AreaRai     *decimal.Decimal
	SoilType    string
	Description string
}

// UpdatePlotInput carries the mutable plot fields. The code is deliberately
// absent: section codes derive from it and must never drift.
type UpdatePlotInput struct {
	Name        string
	AreaRai     *decimal.Decimal
	SoilType    string
	Description string
}

// CreatePlot validates and persists a new plot.
func (s *Service) CreatePlot(ctx context.Context, input CreatePlotInput) (*Plot, error) {
	code, err := NewPlotCode(input.Code)
	if err != nil {
		return nil, newServiceError(opCreatePlot, "invalid_code", err)
	}
	if input.Name == "" {
		return nil, newServiceError(opCreatePlot, "missing_name", nil)
	}

	id, err := s.newID(opCreatePlot)
	if err != nil {
		return nil, err
	}

	plot := Plot{
		ID:          id,
		Code:        code,
		Name:        input.Name,
		AreaRai:     input.AreaRai,
		SoilType:    input.SoilType,
		Description: input.Description,
	}
	if err := s.db.WithContext(ctx).Create(&plot).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, newServiceError(opCreatePlot, "code_taken", err)
		}
		s.logError(opCreatePlot, "insert_failed", err, zap.String("plot_code", code))
		return nil, newServiceError(opCreatePlot, "insert_failed", err)
	}
	return &plot, nil
}

// GetPlot loads a single plot by id.
func (s *Service) GetPlot(ctx context.Context, plotID string) (*Plot, error) {
	var plot Plot
	if err := s.db.WithContext(ctx).Where("id = ?", plotID).Take(&plot).Error; err != nil {
		if IsNotFound(err) {
			return nil, newServiceError(opGetPlot, "not_found", err)
		}
		s.logError(opGetPlot, "query_failed", err, zap.String("plot_id", plotID))
		return nil, newServiceError(opGetPlot, "query_failed", err)
	}
	return &plot, nil
}

// ListPlots returns all plots ordered by code.
func (s *Service) ListPlots(ctx context.Context) ([]Plot, error) {
	var plots []Plot
	if err := s.db.WithContext(ctx).Order("code ASC").Find(&plots).Error; err != nil {
		s.logError(opListPlots, "query_failed", err)
		return nil, newServiceError(opListPlots, "query_failed", err)
	}
	return plots, nil
}

// UpdatePlot mutates the descriptive fields of a plot. The code cannot change.
func (s *Service) UpdatePlot(ctx context.Context, plotID string, input UpdatePlotInput) (*Plot, error) {
	if input.Name == "" {
		return nil, newServiceError(opUpdatePlot, "missing_name", nil)
	}

	var plot Plot
	if err := s.db.WithContext(ctx).Where("id = ?", plotID).Take(&plot).Error; err != nil {
		if IsNotFound(err) {
			return nil, newServiceError(opUpdatePlot, "not_found", err)
		}
		return nil, newServiceError(opUpdatePlot, "query_failed", err)
	}

	plot.Name = input.Name
	plot.AreaRai = input.AreaRai
	plot.SoilType = input.SoilType
	plot.Description = input.Description
	if err := s.db.WithContext(ctx).Save(&plot).Error; err != nil {
		s.logError(opUpdatePlot, "save_failed", err, zap.String("plot_id", plotID))
		return nil, newServiceError(opUpdatePlot, "save_failed", err)
	}
	return &plot, nil
}

// DeletePlot removes an empty plot. Plots with sections are refused so
// section codes never dangle.
func (s *Service) DeletePlot(ctx context.Context, plotID string) error {
	var sectionCount int64
	if err := s.db.WithContext(ctx).Model(&Section{}).Where("plot_id = ?", plotID).Count(&sectionCount).Error; err != nil {
		return newServiceError(opDeletePlot, "query_failed", err)
	}
	if sectionCount > 0 {
		return newServiceError(opDeletePlot, "plot_not_empty", nil)
	}

	result := s.db.WithContext(ctx).Where("id = ?", plotID).Delete(&Plot{})
	if result.Error != nil {
		s.logError(opDeletePlot, "delete_failed", result.Error, zap.String("plot_id", plotID))
		return newServiceError(opDeletePlot, "delete_failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return newServiceError(opDeletePlot, "not_found", gorm.ErrRecordNotFound)
	}
	return nil
}
