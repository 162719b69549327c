package farm

import (
	"context"

	"gorm.io/gorm"
)

// Reference-data CRUD for the admin screens. These tables are small and
// read-mostly; deletes are hard deletes since rows only label dropdowns.

// CreateVariety adds a durian cultivar to the reference list.
func (s *Service) CreateVariety(ctx context.Context, name, description string) (*Variety, error) {
	if name == "" {
		return nil, newServiceError(opReference, "missing_name", nil)
	}
	id, err := s.newID(opReference)
	if err != nil {
		return nil, err
	}
	row := Variety{ID: id, Name: name, Description: description}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, newServiceError(opReference, "name_taken", err)
		}
		return nil, newServiceError(opReference, "insert_failed", err)
	}
	return &row, nil
}

// ListVarieties returns all cultivars ordered by name.
func (s *Service) ListVarieties(ctx context.Context) ([]Variety, error) {
	var rows []Variety
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, newServiceError(opReference, "query_failed", err)
	}
	return rows, nil
}

// DeleteVariety removes a cultivar from the reference list.
func (s *Service) DeleteVariety(ctx context.Context, id string) error {
	return s.deleteReference(ctx, &Variety{}, id)
}

// CreateFertilizer adds a fertilizer product to the reference list.
func (s *Service) CreateFertilizer(ctx context.Context, name, formula, description string) (*Fertilizer, error) {
	if name == "" {
		return nil, newServiceError(opReference, "missing_name", nil)
	}
	id, err := s.newID(opReference)
	if err != nil {
		return nil, err
	}
	row := Fertilizer{ID: id, Name: name, Formula: formula, Description: description}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, newServiceError(opReference, "name_taken", err)
		}
		return nil, newServiceError(opReference, "insert_failed", err)
	}
	return &row, nil
}

// ListFertilizers returns all fertilizer products ordered by name.
func (s *Service) ListFertilizers(ctx context.Context) ([]Fertilizer, error) {
	var rows []Fertilizer
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, newServiceError(opReference, "query_failed", err)
	}
	return rows, nil
}

// DeleteFertilizer removes a fertilizer product from the reference list.
func (s *Service) DeleteFertilizer(ctx context.Context, id string) error {
	return s.deleteReference(ctx, &Fertilizer{}, id)
}

// CreatePesticide adds a pest-control product to the reference list.
func (s *Service) CreatePesticide(ctx context.Context, name, targetPest, description string) (*Pesticide, error) {
	if name == "" {
		return nil, newServiceError(opReference, "missing_name", nil)
	}
	id, err := s.newID(opReference)
	if err != nil {
		return nil, err
	}
	row := Pesticide{ID: id, Name: name, TargetPest: targetPest, Description: description}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, newServiceError(opReference, "name_taken", err)
		}
		return nil, newServiceError(opReference, "insert_failed", err)
	}
	return &row, nil
}

// ListPesticides returns all pest-control products ordered by name.
func (s *Service) ListPesticides(ctx context.Context) ([]Pesticide, error) {
	var rows []Pesticide
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, newServiceError(opReference, "query_failed", err)
	}
	return rows, nil
}

// DeletePesticide removes a pest-control product from the reference list.
func (s *Service) DeletePesticide(ctx context.Context, id string) error {
	return s.deleteReference(ctx, &Pesticide{}, id)
}

func (s *Service) deleteReference(ctx context.Context, model interface{}, id string) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(model)
	if result.Error != nil {
		return newServiceError(opReference, "delete_failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return newServiceError(opReference, "not_found", gorm.ErrRecordNotFound)
	}
	return nil
}
