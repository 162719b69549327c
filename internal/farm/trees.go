package farm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrNegativeFruitCount rejects fruit-count updates that would go below zero.
var ErrNegativeFruitCount = errors.New("farm: fruit count cannot go negative")

// ErrTreeNotDead rejects regrowth of a tree that is still standing.
var ErrTreeNotDead = errors.New("farm: only a dead tree can be regrown")

// CreateTreeInput carries the operator-supplied tree fields. Number and code
// are allocated, never supplied.
type CreateTreeInput struct {
	Variety       string
	PlantedDate   time.Time
	TreeHeight    *float64
	TrunkDiameter *float64
}

// UpdateTreeInput carries the mutable tree fields. Nil pointers leave the
// stored value untouched.
type UpdateTreeInput struct {
	Variety        *string
	Status         *TreeStatus
	BloomingStatus *BloomingStatus
	TreeHeight     *float64
	TrunkDiameter  *float64
	FlowerDate     *time.Time
}

// CreateTree allocates the next tree number under the section and persists
// the tree in the same transaction, retrying on a numbering race.
func (s *Service) CreateTree(ctx context.Context, sectionID string, input CreateTreeInput) (*Tree, error) {
	if input.Variety == "" {
		return nil, newServiceError(opCreateTree, "missing_variety", nil)
	}
	plantedDate := input.PlantedDate
	if plantedDate.IsZero() {
		plantedDate = s.clock().UTC()
	}

	var created Tree
	for attempt := 0; attempt < allocationAttempts; attempt++ {
		txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			section, err := lockedSection(tx, sectionID)
			if err != nil {
				return err
			}

			number, err := nextTreeNumber(tx, sectionID)
			if err != nil {
				return err
			}

			id, err := s.idProvider.NewID()
			if err != nil {
				return err
			}

			created = Tree{
				ID:             id,
				SectionID:      section.ID,
				TreeNumber:     number,
				TreeCode:       TreeCode(section.SectionCode, number),
				Variety:        input.Variety,
				Status:         TreeStatusAlive,
				BloomingStatus: BloomingStatusNone,
				PlantedDate:    plantedDate,
				TreeHeight:     input.TreeHeight,
				TrunkDiameter:  input.TrunkDiameter,
			}
			return tx.Create(&created).Error
		})
		if txErr == nil {
			return &created, nil
		}
		if IsNotFound(txErr) {
			return nil, newServiceError(opCreateTree, "section_not_found", txErr)
		}
		if isUniqueViolation(txErr) {
			s.logger.Warn("tree number allocation raced, retrying",
				zap.String("section_id", sectionID), zap.Int("attempt", attempt+1))
			continue
		}
		s.logError(opCreateTree, "insert_failed", txErr, zap.String("section_id", sectionID))
		return nil, newServiceError(opCreateTree, "insert_failed", txErr)
	}

	s.logError(opCreateTree, "allocation_conflict", errAllocationExhausted, zap.String("section_id", sectionID))
	return nil, newServiceError(opCreateTree, "allocation_conflict", errAllocationExhausted)
}

// GenerateTreeCode previews the code the next tree under the section would
// receive. Advisory only; creation recomputes inside a transaction.
func (s *Service) GenerateTreeCode(ctx context.Context, sectionID string) (string, error) {
	var section Section
	if err := s.db.WithContext(ctx).Where("id = ?", sectionID).Take(&section).Error; err != nil {
		if IsNotFound(err) {
			return "", newServiceError(opCreateTree, "section_not_found", err)
		}
		return "", newServiceError(opCreateTree, "query_failed", err)
	}
	number, err := nextTreeNumber(s.db.WithContext(ctx), sectionID)
	if err != nil {
		return "", newServiceError(opCreateTree, "query_failed", err)
	}
	return TreeCode(section.SectionCode, number), nil
}

// RegrowTree plants a replacement for a dead tree in the same section. The
// replacement keeps the variety, takes a fresh number, and the dead record
// stays in place as history.
func (s *Service) RegrowTree(ctx context.Context, treeID string) (*Tree, error) {
	var dead Tree
	if err := s.db.WithContext(ctx).Where("id = ?", treeID).Take(&dead).Error; err != nil {
		if IsNotFound(err) {
			return nil, newServiceError(opRegrowTree, "not_found", err)
		}
		return nil, newServiceError(opRegrowTree, "query_failed", err)
	}
	if dead.Status != TreeStatusDead {
		return nil, newServiceError(opRegrowTree, "tree_not_dead", ErrTreeNotDead)
	}

	replacement, err := s.CreateTree(ctx, dead.SectionID, CreateTreeInput{
		Variety:     dead.Variety,
		PlantedDate: s.clock().UTC(),
	})
	if err != nil {
		return nil, err
	}
	return replacement, nil
}

// GetTree loads a single tree by id.
func (s *Service) GetTree(ctx context.Context, treeID string) (*Tree, error) {
	var tree Tree
	if err := s.db.WithContext(ctx).Where("id = ?", treeID).Take(&tree).Error; err != nil {
		if IsNotFound(err) {
			return nil, newServiceError(opGetTree, "not_found", err)
		}
		s.logError(opGetTree, "query_failed", err, zap.String("tree_id", treeID))
		return nil, newServiceError(opGetTree, "query_failed", err)
	}
	return &tree, nil
}

// GetTreeByCode loads a single tree by its system-wide unique code.
func (s *Service) GetTreeByCode(ctx context.Context, treeCode string) (*Tree, error) {
	var tree Tree
	if err := s.db.WithContext(ctx).Where("tree_code = ?", treeCode).Take(&tree).Error; err != nil {
		if IsNotFound(err) {
			return nil, newServiceError(opGetTree, "not_found", err)
		}
		return nil, newServiceError(opGetTree, "query_failed", err)
	}
	return &tree, nil
}

// ListTrees returns the section's trees ordered by number.
func (s *Service) ListTrees(ctx context.Context, sectionID string) ([]Tree, error) {
	var trees []Tree
	if err := s.db.WithContext(ctx).
		Where("section_id = ?", sectionID).
		Order("tree_number ASC").
		Find(&trees).Error; err != nil {
		s.logError(opListTrees, "query_failed", err, zap.String("section_id", sectionID))
		return nil, newServiceError(opListTrees, "query_failed", err)
	}
	return trees, nil
}

// ListAllTrees returns every tree ordered by code, for reports and exports.
func (s *Service) ListAllTrees(ctx context.Context) ([]Tree, error) {
	var trees []Tree
	if err := s.db.WithContext(ctx).Order("tree_code ASC").Find(&trees).Error; err != nil {
		s.logError(opListTrees, "query_failed", err)
		return nil, newServiceError(opListTrees, "query_failed", err)
	}
	return trees, nil
}

// UpdateTree applies partial updates to a tree. Setting status to dead stamps
// DeathDate; setting any other status clears it.
func (s *Service) UpdateTree(ctx context.Context, treeID string, input UpdateTreeInput) (*Tree, error) {
	var tree Tree
	if err := s.db.WithContext(ctx).Where("id = ?", treeID).Take(&tree).Error; err != nil {
		if IsNotFound(err) {
			return nil, newServiceError(opUpdateTree, "not_found", err)
		}
		return nil, newServiceError(opUpdateTree, "query_failed", err)
	}

	if input.Variety != nil {
		if *input.Variety == "" {
			return nil, newServiceError(opUpdateTree, "missing_variety", nil)
		}
		tree.Variety = *input.Variety
	}
	if input.Status != nil {
		tree.Status = *input.Status
		if tree.Status == TreeStatusDead {
			if tree.DeathDate == nil {
				deathDate := s.clock().UTC()
				tree.DeathDate = &deathDate
			}
		} else {
			tree.DeathDate = nil
		}
	}
	if input.BloomingStatus != nil {
		tree.BloomingStatus = *input.BloomingStatus
	}
	if input.TreeHeight != nil {
		tree.TreeHeight = input.TreeHeight
	}
	if input.TrunkDiameter != nil {
		tree.TrunkDiameter = input.TrunkDiameter
	}
	if input.FlowerDate != nil {
		tree.FlowerDate = input.FlowerDate
	}

	if err := s.db.WithContext(ctx).Save(&tree).Error; err != nil {
		s.logError(opUpdateTree, "save_failed", err, zap.String("tree_id", treeID))
		return nil, newServiceError(opUpdateTree, "save_failed", err)
	}
	return &tree, nil
}

// AdjustFruitCount applies a relative fruit-count change and appends a
// yield_update log recording the transition. The note uses the before/after
// template the yield extractor recognizes, so dashboards rebuild the same
// event from history. A delta that would drive the count negative is refused.
func (s *Service) AdjustFruitCount(ctx context.Context, treeID string, delta int, reason string) (*Tree, error) {
	var updated Tree
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tree Tree
		if err := tx.Clauses(lockForUpdate()).Where("id = ?", treeID).Take(&tree).Error; err != nil {
			return err
		}

		newCount := tree.FruitCount + delta
		if newCount < 0 {
			return ErrNegativeFruitCount
		}

		previous := tree.FruitCount
		tree.FruitCount = newCount
		if err := tx.Save(&tree).Error; err != nil {
			return err
		}

		logID, err := s.idProvider.NewID()
		if err != nil {
			return err
		}
		label := reason
		if label == "" {
			label = fruitUpdateLabel
		}
		entry := TreeLog{
			ID:           logID,
			TreeID:       tree.ID,
			LogDate:      s.clock().UTC(),
			ActivityType: ActivityYieldUpdate,
			Notes:        fruitChangeNote(label, previous, newCount, delta),
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		updated = tree
		return nil
	})
	if txErr != nil {
		if IsNotFound(txErr) {
			return nil, newServiceError(opAdjustFruitCount, "not_found", txErr)
		}
		if errors.Is(txErr, ErrNegativeFruitCount) {
			return nil, newServiceError(opAdjustFruitCount, "negative_fruit_count", txErr)
		}
		s.logError(opAdjustFruitCount, "update_failed", txErr, zap.String("tree_id", treeID))
		return nil, newServiceError(opAdjustFruitCount, "update_failed", txErr)
	}
	return &updated, nil
}

// DeleteTree removes a tree record. Its number stays consumed.
func (s *Service) DeleteTree(ctx context.Context, treeID string) error {
	result := s.db.WithContext(ctx).Where("id = ?", treeID).Delete(&Tree{})
	if result.Error != nil {
		s.logError(opDeleteTree, "delete_failed", result.Error, zap.String("tree_id", treeID))
		return newServiceError(opDeleteTree, "delete_failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return newServiceError(opDeleteTree, "not_found", gorm.ErrRecordNotFound)
	}
	return nil
}

// Thai note fragments for fruit-count updates. Historically stored notes use
// this exact phrasing; the extractor's default locale parses it back.
const (
	fruitUpdateLabel = "ปรับปรุงจำนวนผล"
	fruitUnitWord    = "ลูก"
	fruitFromWord    = "จาก"
	fruitToWord      = "เป็น"
)

func fruitChangeNote(label string, previous, next, delta int) string {
	return fmt.Sprintf("%s: %s %d %s %s %d %s (%+d)",
		label, fruitFromWord, previous, fruitUnitWord, fruitToWord, next, fruitUnitWord, delta)
}
