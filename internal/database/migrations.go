package database

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/banrai-farm/duriantrack/backend/internal/farm"
)

const (
	migrationFlatTreesToSections = "2025-11-12_flat_trees_to_sections"
	migrationSeedReferenceData   = "2025-11-20_seed_reference_data"
)

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	migrations := []migrationDefinition{
		{name: migrationFlatTreesToSections, apply: convertFlatTreesToSections},
		{name: migrationSeedReferenceData, apply: seedReferenceData},
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := migration.apply(db); err != nil {
			return err
		}
		appliedAt := time.Now().UTC().Unix()
		if err := db.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error; err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

// flatTree mirrors the pre-hierarchy schema, where trees hung directly off a
// plot letter with no section level.
type flatTree struct {
	ID          string    `gorm:"column:id"`
	PlotCode    string    `gorm:"column:plot_code"`
	Variety     string    `gorm:"column:variety"`
	Status      string    `gorm:"column:status"`
	PlantedDate time.Time `gorm:"column:planted_date"`
	FruitCount  int       `gorm:"column:fruit_count"`
}

func (flatTree) TableName() string {
	return "trees_flat"
}

// convertFlatTreesToSections lifts each legacy flat tree into its own section
// with the tree re-attached as T1. Section numbers are consumed per plot in
// legacy insertion order, so converted codes stay stable across reruns of the
// deployment. The legacy table is dropped afterwards.
func convertFlatTreesToSections(db *gorm.DB) error {
	if !db.Migrator().HasTable("trees_flat") {
		return nil
	}

	var legacy []flatTree
	if err := db.Order("rowid ASC").Find(&legacy).Error; err != nil {
		return err
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		nextNumbers := map[string]int{}
		for _, flat := range legacy {
			var plot farm.Plot
			if err := tx.Where("code = ?", flat.PlotCode).Take(&plot).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					plot = farm.Plot{
						ID:   uuid.NewString(),
						Code: flat.PlotCode,
						Name: "Plot " + flat.PlotCode,
					}
					if err := tx.Create(&plot).Error; err != nil {
						return err
					}
				} else {
					return err
				}
			}

			number, seen := nextNumbers[plot.ID]
			if !seen {
				var current *int
				if err := tx.Model(&farm.Section{}).
					Where("plot_id = ?", plot.ID).
					Select("MAX(section_number)").
					Scan(&current).Error; err != nil {
					return err
				}
				number = 1
				if current != nil {
					number = *current + 1
				}
			}
			nextNumbers[plot.ID] = number + 1

			section := farm.Section{
				ID:            uuid.NewString(),
				PlotID:        plot.ID,
				SectionNumber: number,
				SectionCode:   farm.SectionCode(plot.Code, number),
			}
			if err := tx.Create(&section).Error; err != nil {
				return err
			}

			status := farm.TreeStatus(flat.Status)
			if status != farm.TreeStatusAlive && status != farm.TreeStatusSick && status != farm.TreeStatusDead {
				status = farm.TreeStatusAlive
			}
			tree := farm.Tree{
				ID:             flat.ID,
				SectionID:      section.ID,
				TreeNumber:     1,
				TreeCode:       farm.TreeCode(section.SectionCode, 1),
				Variety:        flat.Variety,
				Status:         status,
				BloomingStatus: farm.BloomingStatusNone,
				PlantedDate:    flat.PlantedDate,
				FruitCount:     flat.FruitCount,
			}
			if err := tx.Create(&tree).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	return db.Migrator().DropTable("trees_flat")
}

// seedReferenceData loads the default cultivar, fertilizer, and pesticide
// lists so the dropdowns are usable on a fresh install.
func seedReferenceData(db *gorm.DB) error {
	varieties := []farm.Variety{
		{Name: "หมอนทอง", Description: "Monthong"},
		{Name: "ชะนี", Description: "Chanee"},
		{Name: "ก้านยาว", Description: "Kan Yao"},
		{Name: "กระดุม", Description: "Kradum"},
		{Name: "พวงมณี", Description: "Puang Manee"},
	}
	for index := range varieties {
		varieties[index].ID = uuid.NewString()
	}

	fertilizers := []farm.Fertilizer{
		{Name: "สูตรเสมอ 15-15-15", Formula: "15-15-15"},
		{Name: "เร่งดอก 8-24-24", Formula: "8-24-24"},
		{Name: "บำรุงผล 13-13-21", Formula: "13-13-21"},
		{Name: "มูลไก่", Description: "chicken manure"},
	}
	for index := range fertilizers {
		fertilizers[index].ID = uuid.NewString()
	}

	pesticides := []farm.Pesticide{
		{Name: "อะบาเม็กติน", TargetPest: "หนอนเจาะผล"},
		{Name: "แมนโคเซบ", TargetPest: "โรครากเน่าโคนเน่า"},
		{Name: "คาร์บาริล", TargetPest: "เพลี้ยไฟ"},
	}
	for index := range pesticides {
		pesticides[index].ID = uuid.NewString()
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&farm.Variety{}).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			if err := tx.Create(&varieties).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&farm.Fertilizer{}).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			if err := tx.Create(&fertilizers).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&farm.Pesticide{}).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			if err := tx.Create(&pesticides).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
