package farm

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// allocationAttempts bounds the retry loop when two writers race for the same
// number and the unique index rejects the loser.
const allocationAttempts = 3

// SectionCode composes a section code from its plot code and number.
func SectionCode(plotCode string, sectionNumber int) string {
	return fmt.Sprintf("%s%d", plotCode, sectionNumber)
}

// TreeCode composes a tree code from its section code and number.
func TreeCode(sectionCode string, treeNumber int) string {
	return fmt.Sprintf("%s-T%d", sectionCode, treeNumber)
}

// nextSectionNumber returns max(section_number)+1 for the plot, or 1 when the
// plot has no sections. Deleted sections leave gaps; numbers are never reused.
func nextSectionNumber(tx *gorm.DB, plotID string) (int, error) {
	var current *int
	err := tx.Model(&Section{}).
		Where("plot_id = ?", plotID).
		Select("MAX(section_number)").
		Scan(&current).Error
	if err != nil {
		return 0, err
	}
	if current == nil {
		return 1, nil
	}
	return *current + 1, nil
}

// nextTreeNumber returns max(tree_number)+1 for the section, or 1 when the
// section has no trees.
func nextTreeNumber(tx *gorm.DB, sectionID string) (int, error) {
	var current *int
	err := tx.Model(&Tree{}).
		Where("section_id = ?", sectionID).
		Select("MAX(tree_number)").
		Scan(&current).Error
	if err != nil {
		return 0, err
	}
	if current == nil {
		return 1, nil
	}
	return *current + 1, nil
}

func lockForUpdate() clause.Locking {
	return clause.Locking{Strength: "UPDATE"}
}

// lockedPlot loads a plot with a row lock so the compute-then-insert sequence
// is serialized against concurrent section creation.
func lockedPlot(tx *gorm.DB, plotID string) (Plot, error) {
	var plot Plot
	err := tx.Clauses(lockForUpdate()).
		Where("id = ?", plotID).
		Take(&plot).Error
	return plot, err
}

// lockedSection loads a section with a row lock, serializing tree allocation.
func lockedSection(tx *gorm.DB, sectionID string) (Section, error) {
	var section Section
	err := tx.Clauses(lockForUpdate()).
		Where("id = ?", sectionID).
		Take(&section).Error
	return section, err
}

// isUniqueViolation reports whether err is the unique-index backstop firing.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
