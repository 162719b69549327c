package farm

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TreeStatus enumerates the life state of a tree.
type TreeStatus string

const (
	TreeStatusAlive TreeStatus = "alive"
	TreeStatusSick  TreeStatus = "sick"
	TreeStatusDead  TreeStatus = "dead"
)

// BloomingStatus enumerates the flowering state of a tree.
type BloomingStatus string

const (
	BloomingStatusNone     BloomingStatus = "not_blooming"
	BloomingStatusBudding  BloomingStatus = "budding"
	BloomingStatusBlooming BloomingStatus = "blooming"
)

// Known activity types for tree logs. The column accepts free text; these are
// the values the yield extractor and the UI care about.
const (
	ActivityYieldUpdate = "yield_update"
	ActivityHarvest     = "harvest"
	ActivityFertilizing = "fertilizing"
	ActivityWatering    = "watering"
	ActivityPruning     = "pruning"
	ActivityPestControl = "pest_control"
	ActivityOther       = "other"
)

const maxPlotCodeLength = 8

var (
	// ErrInvalidPlotCode indicates an empty or oversized plot code.
	ErrInvalidPlotCode = errors.New("farm: invalid plot code")
	// ErrInvalidTreeStatus indicates an unknown tree status value.
	ErrInvalidTreeStatus = errors.New("farm: invalid tree status")
	// ErrInvalidBloomingStatus indicates an unknown blooming status value.
	ErrInvalidBloomingStatus = errors.New("farm: invalid blooming status")
)

// NewTreeStatus validates raw input and returns a TreeStatus.
func NewTreeStatus(rawInput string) (TreeStatus, error) {
	switch TreeStatus(strings.ToLower(strings.TrimSpace(rawInput))) {
	case TreeStatusAlive:
		return TreeStatusAlive, nil
	case TreeStatusSick:
		return TreeStatusSick, nil
	case TreeStatusDead:
		return TreeStatusDead, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidTreeStatus, rawInput)
	}
}

// NewBloomingStatus validates raw input and returns a BloomingStatus.
func NewBloomingStatus(rawInput string) (BloomingStatus, error) {
	switch BloomingStatus(strings.ToLower(strings.TrimSpace(rawInput))) {
	case BloomingStatusNone:
		return BloomingStatusNone, nil
	case BloomingStatusBudding:
		return BloomingStatusBudding, nil
	case BloomingStatusBlooming:
		return BloomingStatusBlooming, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidBloomingStatus, rawInput)
	}
}

// NewPlotCode validates and normalizes a plot code. Codes are operator chosen
// (the current farm uses single letters) and immutable once assigned; the
// only structural requirements are non-empty, short, and upper case.
func NewPlotCode(rawInput string) (string, error) {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidPlotCode)
	}
	if len(trimmed) > maxPlotCodeLength {
		return "", fmt.Errorf("%w: exceeds %d characters", ErrInvalidPlotCode, maxPlotCodeLength)
	}
	return strings.ToUpper(trimmed), nil
}

// Plot is a top-level land division.
type Plot struct {
	ID          string           `gorm:"column:id;primaryKey;size:36;not null"`
	Code        string           `gorm:"column:code;size:8;not null;uniqueIndex"`
	Name        string           `gorm:"column:name;size:190;not null"`
	AreaRai     *decimal.Decimal `gorm:"column:area_rai;type:decimal(10,2)"`
	SoilType    string           `gorm:"column:soil_type;size:64"`
	Description string           `gorm:"column:description;type:text"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName provides the explicit table binding for GORM.
func (Plot) TableName() string {
	return "plots"
}

// Section is a subdivision of a plot. SectionNumber is allocated per plot and
// never reused; the composite unique index is the final backstop against a
// numbering race (see allocator.go).
type Section struct {
	ID            string           `gorm:"column:id;primaryKey;size:36;not null"`
	PlotID        string           `gorm:"column:plot_id;size:36;not null;uniqueIndex:idx_sections_plot_number,priority:1"`
	SectionNumber int              `gorm:"column:section_number;not null;uniqueIndex:idx_sections_plot_number,priority:2"`
	SectionCode   string           `gorm:"column:section_code;size:16;not null;index"`
	Name          string           `gorm:"column:name;size:190"`
	AreaRai       *decimal.Decimal `gorm:"column:area_rai;type:decimal(10,2)"`
	SoilType      string           `gorm:"column:soil_type;size:64"`
	Description   string           `gorm:"column:description;type:text"`
	CreatedAt     time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName provides the explicit table binding for GORM.
func (Section) TableName() string {
	return "sections"
}

// Tree is an individual plant record. TreeNumber is allocated per section and
// never reused; TreeCode is unique system wide.
type Tree struct {
	ID             string         `gorm:"column:id;primaryKey;size:36;not null"`
	SectionID      string         `gorm:"column:section_id;size:36;not null;uniqueIndex:idx_trees_section_number,priority:1"`
	TreeNumber     int            `gorm:"column:tree_number;not null;uniqueIndex:idx_trees_section_number,priority:2"`
	TreeCode       string         `gorm:"column:tree_code;size:24;not null;uniqueIndex"`
	Variety        string         `gorm:"column:variety;size:64;not null"`
	Status         TreeStatus     `gorm:"column:status;size:16;not null;default:'alive'"`
	BloomingStatus BloomingStatus `gorm:"column:blooming_status;size:16;not null;default:'not_blooming'"`
	PlantedDate    time.Time      `gorm:"column:planted_date;not null"`
	DeathDate      *time.Time     `gorm:"column:death_date"`
	FruitCount     int            `gorm:"column:fruit_count;not null;default:0"`
	TreeHeight     *float64       `gorm:"column:tree_height"`
	TrunkDiameter  *float64       `gorm:"column:trunk_diameter"`
	FlowerDate     *time.Time     `gorm:"column:flower_date"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName provides the explicit table binding for GORM.
func (Tree) TableName() string {
	return "trees"
}

// TreeLog is an immutable care/observation/harvest record attached to a tree.
type TreeLog struct {
	ID             string    `gorm:"column:id;primaryKey;size:36;not null"`
	TreeID         string    `gorm:"column:tree_id;size:36;not null;index:idx_tree_logs_tree_date,priority:1"`
	LogDate        time.Time `gorm:"column:log_date;not null;index:idx_tree_logs_tree_date,priority:2"`
	ActivityType   string    `gorm:"column:activity_type;size:32"`
	HealthStatus   string    `gorm:"column:health_status;size:32"`
	FertilizerType string    `gorm:"column:fertilizer_type;size:64"`
	Notes          string    `gorm:"column:notes;type:text"`
	ImagePath      string    `gorm:"column:image_path;size:255"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName provides the explicit table binding for GORM.
func (TreeLog) TableName() string {
	return "tree_logs"
}

// CostRecord tracks farm spending, optionally tied to a tree or plot.
type CostRecord struct {
	ID          string          `gorm:"column:id;primaryKey;size:36;not null"`
	TreeID      *string         `gorm:"column:tree_id;size:36;index"`
	PlotID      *string         `gorm:"column:plot_id;size:36;index"`
	CostDate    time.Time       `gorm:"column:cost_date;not null;index"`
	Category    string          `gorm:"column:category;size:64;not null"`
	Description string          `gorm:"column:description;size:255"`
	Amount      decimal.Decimal `gorm:"column:amount;type:decimal(12,2);not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// TableName provides the explicit table binding for GORM.
func (CostRecord) TableName() string {
	return "cost_records"
}

// Variety is reference data for durian cultivars.
type Variety struct {
	ID          string    `gorm:"column:id;primaryKey;size:36;not null"`
	Name        string    `gorm:"column:name;size:64;not null;uniqueIndex"`
	Description string    `gorm:"column:description;type:text"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName provides the explicit table binding for GORM.
func (Variety) TableName() string {
	return "varieties"
}

// Fertilizer is reference data for fertilizer products.
type Fertilizer struct {
	ID          string    `gorm:"column:id;primaryKey;size:36;not null"`
	Name        string    `gorm:"column:name;size:64;not null;uniqueIndex"`
	Formula     string    `gorm:"column:formula;size:32"`
	Description string    `gorm:"column:description;type:text"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName provides the explicit table binding for GORM.
func (Fertilizer) TableName() string {
	return "fertilizers"
}

// Pesticide is reference data for pest control products.
type Pesticide struct {
	ID          string    `gorm:"column:id;primaryKey;size:36;not null"`
	Name        string    `gorm:"column:name;size:64;not null;uniqueIndex"`
	TargetPest  string    `gorm:"column:target_pest;size:64"`
	Description string    `gorm:"column:description;type:text"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName provides the explicit table binding for GORM.
func (Pesticide) TableName() string {
	return "pesticides"
}
