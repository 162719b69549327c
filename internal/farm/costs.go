package farm

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AddCostInput carries a new spending record. TreeID and PlotID are optional
// attributions; a farm-wide cost leaves both empty.
type AddCostInput struct {
	TreeID      string
	PlotID      string
	CostDate    time.Time
	Category    string
	Description string
	Amount      decimal.Decimal
}

// CostFilter narrows ListCosts.
type CostFilter struct {
	TreeID   string
	PlotID   string
	Category string
	From     time.Time
	To       time.Time
}

// AddCost validates and persists a cost record.
func (s *Service) AddCost(ctx context.Context, input AddCostInput) (*CostRecord, error) {
	if input.Category == "" {
		return nil, newServiceError(opAddCost, "missing_category", nil)
	}
	if input.Amount.IsNegative() {
		return nil, newServiceError(opAddCost, "negative_amount", nil)
	}

	costDate := input.CostDate
	if costDate.IsZero() {
		costDate = s.clock().UTC()
	}

	id, err := s.newID(opAddCost)
	if err != nil {
		return nil, err
	}

	record := CostRecord{
		ID:          id,
		CostDate:    costDate,
		Category:    input.Category,
		Description: input.Description,
		Amount:      input.Amount,
	}
	if input.TreeID != "" {
		treeID := input.TreeID
		record.TreeID = &treeID
	}
	if input.PlotID != "" {
		plotID := input.PlotID
		record.PlotID = &plotID
	}

	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		s.logError(opAddCost, "insert_failed", err)
		return nil, newServiceError(opAddCost, "insert_failed", err)
	}
	return &record, nil
}

// ListCosts returns cost records matching the filter, newest first.
func (s *Service) ListCosts(ctx context.Context, filter CostFilter) ([]CostRecord, error) {
	query := s.db.WithContext(ctx).Model(&CostRecord{})
	if filter.TreeID != "" {
		query = query.Where("tree_id = ?", filter.TreeID)
	}
	if filter.PlotID != "" {
		query = query.Where("plot_id = ?", filter.PlotID)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if !filter.From.IsZero() {
		query = query.Where("cost_date >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		query = query.Where("cost_date <= ?", filter.To)
	}

	var records []CostRecord
	if err := query.Order("cost_date DESC").Find(&records).Error; err != nil {
		s.logError(opListCosts, "query_failed", err)
		return nil, newServiceError(opListCosts, "query_failed", err)
	}
	return records, nil
}

// TotalCosts sums the amounts of the records matching the filter.
func (s *Service) TotalCosts(ctx context.Context, filter CostFilter) (decimal.Decimal, error) {
	records, err := s.ListCosts(ctx, filter)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, record := range records {
		total = total.Add(record.Amount)
	}
	return total, nil
}

// DeleteCost removes a cost record.
func (s *Service) DeleteCost(ctx context.Context, costID string) error {
	result := s.db.WithContext(ctx).Where("id = ?", costID).Delete(&CostRecord{})
	if result.Error != nil {
		s.logError(opDeleteCost, "delete_failed", result.Error)
		return newServiceError(opDeleteCost, "delete_failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return newServiceError(opDeleteCost, "not_found", gorm.ErrRecordNotFound)
	}
	return nil
}
