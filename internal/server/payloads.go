package server

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/banrai-farm/duriantrack/backend/internal/farm"
)

type plotPayload struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	AreaRai     *string   `json:"area_rai,omitempty"`
	SoilType    string    `json:"soil_type,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type sectionPayload struct {
	ID            string    `json:"id"`
	PlotID        string    `json:"plot_id"`
	SectionNumber int       `json:"section_number"`
	SectionCode   string    `json:"section_code"`
	Name          string    `json:"name,omitempty"`
	AreaRai       *string   `json:"area_rai,omitempty"`
	SoilType      string    `json:"soil_type,omitempty"`
	Description   string    `json:"description,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type treePayload struct {
	ID             string     `json:"id"`
	SectionID      string     `json:"section_id"`
	TreeNumber     int        `json:"tree_number"`
	TreeCode       string     `json:"tree_code"`
	Variety        string     `json:"variety"`
	Status         string     `json:"status"`
	BloomingStatus string     `json:"blooming_status"`
	PlantedDate    time.Time  `json:"planted_date"`
	DeathDate      *time.Time `json:"death_date,omitempty"`
	FruitCount     int        `json:"fruit_count"`
	TreeHeight     *float64   `json:"tree_height,omitempty"`
	TrunkDiameter  *float64   `json:"trunk_diameter,omitempty"`
	FlowerDate     *time.Time `json:"flower_date,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type treeLogPayload struct {
	ID             string    `json:"id"`
	TreeID         string    `json:"tree_id"`
	LogDate        time.Time `json:"log_date"`
	ActivityType   string    `json:"activity_type,omitempty"`
	HealthStatus   string    `json:"health_status,omitempty"`
	FertilizerType string    `json:"fertilizer_type,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	ImagePath      string    `json:"image_path,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type costPayload struct {
	ID          string    `json:"id"`
	TreeID      *string   `json:"tree_id,omitempty"`
	PlotID      *string   `json:"plot_id,omitempty"`
	CostDate    time.Time `json:"cost_date"`
	Category    string    `json:"category"`
	Description string    `json:"description,omitempty"`
	Amount      string    `json:"amount"`
	CreatedAt   time.Time `json:"created_at"`
}

func decimalString(value *decimal.Decimal) *string {
	if value == nil {
		return nil
	}
	rendered := value.StringFixed(2)
	return &rendered
}

func toPlotPayload(plot farm.Plot) plotPayload {
	return plotPayload{
		ID:          plot.ID,
		Code:        plot.Code,
		Name:        plot.Name,
		AreaRai:     decimalString(plot.AreaRai),
		SoilType:    plot.SoilType,
		Description: plot.Description,
		CreatedAt:   plot.CreatedAt,
		UpdatedAt:   plot.UpdatedAt,
	}
}

func toSectionPayload(section farm.Section) sectionPayload {
	return sectionPayload{
		ID:            section.ID,
		PlotID:        section.PlotID,
		SectionNumber: section.SectionNumber,
		SectionCode:   section.SectionCode,
		Name:          section.Name,
		AreaRai:       decimalString(section.AreaRai),
		SoilType:      section.SoilType,
		Description:   section.Description,
		CreatedAt:     section.CreatedAt,
		UpdatedAt:     section.UpdatedAt,
	}
}

func toTreePayload(tree farm.Tree) treePayload {
	return treePayload{
		ID:             tree.ID,
		SectionID:      tree.SectionID,
		TreeNumber:     tree.TreeNumber,
		TreeCode:       tree.TreeCode,
		Variety:        tree.Variety,
		Status:         string(tree.Status),
		BloomingStatus: string(tree.BloomingStatus),
		PlantedDate:    tree.PlantedDate,
		DeathDate:      tree.DeathDate,
		FruitCount:     tree.FruitCount,
		TreeHeight:     tree.TreeHeight,
		TrunkDiameter:  tree.TrunkDiameter,
		FlowerDate:     tree.FlowerDate,
		CreatedAt:      tree.CreatedAt,
		UpdatedAt:      tree.UpdatedAt,
	}
}

func toTreeLogPayload(entry farm.TreeLog) treeLogPayload {
	return treeLogPayload{
		ID:             entry.ID,
		TreeID:         entry.TreeID,
		LogDate:        entry.LogDate,
		ActivityType:   entry.ActivityType,
		HealthStatus:   entry.HealthStatus,
		FertilizerType: entry.FertilizerType,
		Notes:          entry.Notes,
		ImagePath:      entry.ImagePath,
		CreatedAt:      entry.CreatedAt,
	}
}

func toCostPayload(record farm.CostRecord) costPayload {
	return costPayload{
		ID:          record.ID,
		TreeID:      record.TreeID,
		PlotID:      record.PlotID,
		CostDate:    record.CostDate,
		Category:    record.Category,
		Description: record.Description,
		Amount:      record.Amount.StringFixed(2),
		CreatedAt:   record.CreatedAt,
	}
}

func toPlotPayloads(plots []farm.Plot) []plotPayload {
	payloads := make([]plotPayload, 0, len(plots))
	for _, plot := range plots {
		payloads = append(payloads, toPlotPayload(plot))
	}
	return payloads
}

func toSectionPayloads(sections []farm.Section) []sectionPayload {
	payloads := make([]sectionPayload, 0, len(sections))
	for _, section := range sections {
		payloads = append(payloads, toSectionPayload(section))
	}
	return payloads
}

func toTreePayloads(trees []farm.Tree) []treePayload {
	payloads := make([]treePayload, 0, len(trees))
	for _, tree := range trees {
		payloads = append(payloads, toTreePayload(tree))
	}
	return payloads
}

func toTreeLogPayloads(entries []farm.TreeLog) []treeLogPayload {
	payloads := make([]treeLogPayload, 0, len(entries))
	for _, entry := range entries {
		payloads = append(payloads, toTreeLogPayload(entry))
	}
	return payloads
}

func toCostPayloads(records []farm.CostRecord) []costPayload {
	payloads := make([]costPayload, 0, len(records))
	for _, record := range records {
		payloads = append(payloads, toCostPayload(record))
	}
	return payloads
}
