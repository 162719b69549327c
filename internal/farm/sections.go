package farm

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreateSectionInput carries the operator-supplied section fields. The number
// and code are allocated, never supplied.
type CreateSectionInput struct {
	Name        string
	AreaRai     *decimal.Decimal
	SoilType    string
	Description string
}

// UpdateSectionInput carries the mutable section fields. SectionNumber and
// SectionCode are derived state and cannot be written directly.
type UpdateSectionInput struct {
	Name        string
	AreaRai     *decimal.Decimal
	SoilType    string
	Description string
}

// CreateSection allocates the next section number under the plot and persists
// the section in the same transaction. On a numbering race the unique index
// rejects the insert and the whole transaction is retried with a recomputed
// number.
func (s *Service) CreateSection(ctx context.Context, plotID string, input CreateSectionInput) (*Section, error) {
	var created Section
	for attempt := 0; attempt < allocationAttempts; attempt++ {
		txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			plot, err := lockedPlot(tx, plotID)
			if err != nil {
				return err
			}

			number, err := nextSectionNumber(tx, plotID)
			if err != nil {
				return err
			}

			id, err := s.idProvider.NewID()
			if err != nil {
				return err
			}

			created = Section{
				ID:            id,
				PlotID:        plot.ID,
				SectionNumber: number,
				SectionCode:   SectionCode(plot.Code, number),
				Name:          input.Name,
				AreaRai:       input.AreaRai,
				SoilType:      input.SoilType,
				Description:   input.Description,
			}
			return tx.Create(&created).Error
		})
		if txErr == nil {
			return &created, nil
		}
		if IsNotFound(txErr) {
			return nil, newServiceError(opCreateSection, "plot_not_found", txErr)
		}
		if isUniqueViolation(txErr) {
			s.logger.Warn("section number allocation raced, retrying",
				zap.String("plot_id", plotID), zap.Int("attempt", attempt+1))
			continue
		}
		s.logError(opCreateSection, "insert_failed", txErr, zap.String("plot_id", plotID))
		return nil, newServiceError(opCreateSection, "insert_failed", txErr)
	}

	s.logError(opCreateSection, "allocation_conflict", errAllocationExhausted, zap.String("plot_id", plotID))
	return nil, newServiceError(opCreateSection, "allocation_conflict", errAllocationExhausted)
}

// GenerateSectionCode previews the code the next section under the plot would
// receive. The preview is advisory; creation recomputes inside a transaction.
func (s *Service) GenerateSectionCode(ctx context.Context, plotID string) (string, error) {
	var plot Plot
	if err := s.db.WithContext(ctx).Where("id = ?", plotID).Take(&plot).Error; err != nil {
		if IsNotFound(err) {
			return "", newServiceError(opCreateSection, "plot_not_found", err)
		}
		return "", newServiceError(opCreateSection, "query_failed", err)
	}
	number, err := nextSectionNumber(s.db.WithContext(ctx), plotID)
	if err != nil {
		return "", newServiceError(opCreateSection, "query_failed", err)
	}
	return SectionCode(plot.Code, number), nil
}

// GetSection loads a single section by id.
func (s *Service) GetSection(ctx context.Context, sectionID string) (*Section, error) {
	var section Section
	if err := s.db.WithContext(ctx).Where("id = ?", sectionID).Take(&section).Error; err != nil {
		if IsNotFound(err) {
			return nil, newServiceError(opGetSection, "not_found", err)
		}
		s.logError(opGetSection, "query_failed", err, zap.String("section_id", sectionID))
		return nil, newServiceError(opGetSection, "query_failed", err)
	}
	return &section, nil
}

// ListSections returns the plot's sections ordered by number.
func (s *Service) ListSections(ctx context.Context, plotID string) ([]Section, error) {
	var sections []Section
	if err := s.db.WithContext(ctx).
		Where("plot_id = ?", plotID).
		Order("section_number ASC").
		Find(&sections).Error; err != nil {
		s.logError(opListSections, "query_failed", err, zap.String("plot_id", plotID))
		return nil, newServiceError(opListSections, "query_failed", err)
	}
	return sections, nil
}

// UpdateSection mutates the descriptive fields of a section.
func (s *Service) UpdateSection(ctx context.Context, sectionID string, input UpdateSectionInput) (*Section, error) {
	var section Section
	if err := s.db.WithContext(ctx).Where("id = ?", sectionID).Take(&section).Error; err != nil {
		if IsNotFound(err) {
			return nil, newServiceError(opUpdateSection, "not_found", err)
		}
		return nil, newServiceError(opUpdateSection, "query_failed", err)
	}

	section.Name = input.Name
	section.AreaRai = input.AreaRai
	section.SoilType = input.SoilType
	section.Description = input.Description
	if err := s.db.WithContext(ctx).Save(&section).Error; err != nil {
		s.logError(opUpdateSection, "save_failed", err, zap.String("section_id", sectionID))
		return nil, newServiceError(opUpdateSection, "save_failed", err)
	}
	return &section, nil
}

// DeleteSection removes a section with no trees. The freed number is never
// reallocated; later sections keep counting from the historical maximum.
func (s *Service) DeleteSection(ctx context.Context, sectionID string) error {
	var treeCount int64
	if err := s.db.WithContext(ctx).Model(&Tree{}).Where("section_id = ?", sectionID).Count(&treeCount).Error; err != nil {
		return newServiceError(opDeleteSection, "query_failed", err)
	}
	if treeCount > 0 {
		return newServiceError(opDeleteSection, "section_not_empty", nil)
	}

	result := s.db.WithContext(ctx).Where("id = ?", sectionID).Delete(&Section{})
	if result.Error != nil {
		s.logError(opDeleteSection, "delete_failed", result.Error, zap.String("section_id", sectionID))
		return newServiceError(opDeleteSection, "delete_failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return newServiceError(opDeleteSection, "not_found", gorm.ErrRecordNotFound)
	}
	return nil
}
