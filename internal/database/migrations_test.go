package database

import (
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/banrai-farm/duriantrack/backend/internal/farm"
)

func TestOpenSQLiteRequiresPath(t *testing.T) {
	if _, err := OpenSQLite("", zap.NewNop()); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestOpenSQLiteSeedsReferenceData(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "seed_test.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("open database: %v", err)
	}

	var varietyCount, fertilizerCount, pesticideCount int64
	if err := db.Model(&farm.Variety{}).Count(&varietyCount).Error; err != nil {
		t.Fatalf("count varieties: %v", err)
	}
	if varietyCount != 5 {
		t.Fatalf("seeded %d varieties, expected 5", varietyCount)
	}
	if err := db.Model(&farm.Fertilizer{}).Count(&fertilizerCount).Error; err != nil {
		t.Fatalf("count fertilizers: %v", err)
	}
	if fertilizerCount != 4 {
		t.Fatalf("seeded %d fertilizers, expected 4", fertilizerCount)
	}
	if err := db.Model(&farm.Pesticide{}).Count(&pesticideCount).Error; err != nil {
		t.Fatalf("count pesticides: %v", err)
	}
	if pesticideCount != 3 {
		t.Fatalf("seeded %d pesticides, expected 3", pesticideCount)
	}

	var monthong farm.Variety
	if err := db.Where("name = ?", "หมอนทอง").Take(&monthong).Error; err != nil {
		t.Fatalf("expected Monthong in seed data: %v", err)
	}
}

func TestMigrationsAreRecordedAndIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idempotent_test.db")

	db, err := OpenSQLite(path, zap.NewNop())
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	var records []migrationRecord
	if err := db.Find(&records).Error; err != nil {
		t.Fatalf("list migration records: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("recorded %d migrations, expected 2", len(records))
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql db: %v", err)
	}
	if err := sqlDB.Close(); err != nil {
		t.Fatalf("close database: %v", err)
	}

	db, err = OpenSQLite(path, zap.NewNop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	var varietyCount int64
	if err := db.Model(&farm.Variety{}).Count(&varietyCount).Error; err != nil {
		t.Fatalf("count varieties after reopen: %v", err)
	}
	if varietyCount != 5 {
		t.Fatalf("reopen duplicated seed data: %d varieties", varietyCount)
	}
}

func TestFlatTreesAreLiftedIntoSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flat_test.db")

	// Lay down a legacy database: flat trees hanging off plot letters.
	legacyDB, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		t.Fatalf("open legacy database: %v", err)
	}
	if err := legacyDB.AutoMigrate(&flatTree{}); err != nil {
		t.Fatalf("create legacy table: %v", err)
	}
	planted := time.Date(2019, 6, 1, 0, 0, 0, 0, time.UTC)
	legacyTrees := []flatTree{
		{ID: "legacy-1", PlotCode: "A", Variety: "หมอนทอง", Status: "alive", PlantedDate: planted, FruitCount: 12},
		{ID: "legacy-2", PlotCode: "A", Variety: "ชะนี", Status: "sick", PlantedDate: planted, FruitCount: 3},
		{ID: "legacy-3", PlotCode: "B", Variety: "ก้านยาว", Status: "fallen", PlantedDate: planted, FruitCount: 0},
	}
	if err := legacyDB.Create(&legacyTrees).Error; err != nil {
		t.Fatalf("insert legacy trees: %v", err)
	}
	legacySQL, err := legacyDB.DB()
	if err != nil {
		t.Fatalf("unwrap legacy db: %v", err)
	}
	if err := legacySQL.Close(); err != nil {
		t.Fatalf("close legacy db: %v", err)
	}

	db, err := OpenSQLite(path, zap.NewNop())
	if err != nil {
		t.Fatalf("open migrated database: %v", err)
	}

	var plots []farm.Plot
	if err := db.Order("code ASC").Find(&plots).Error; err != nil {
		t.Fatalf("list plots: %v", err)
	}
	if len(plots) != 2 || plots[0].Code != "A" || plots[1].Code != "B" {
		t.Fatalf("migrated plots = %+v, expected A and B", plots)
	}

	var sections []farm.Section
	if err := db.Where("plot_id = ?", plots[0].ID).Order("section_number ASC").Find(&sections).Error; err != nil {
		t.Fatalf("list sections: %v", err)
	}
	if len(sections) != 2 {
		t.Fatalf("plot A got %d sections, expected 2", len(sections))
	}
	if sections[0].SectionCode != "A1" || sections[1].SectionCode != "A2" {
		t.Fatalf("plot A section codes = %q %q", sections[0].SectionCode, sections[1].SectionCode)
	}

	var tree farm.Tree
	if err := db.Where("id = ?", "legacy-1").Take(&tree).Error; err != nil {
		t.Fatalf("load migrated tree: %v", err)
	}
	if tree.TreeCode != "A1-T1" || tree.TreeNumber != 1 {
		t.Fatalf("migrated tree code = %q number %d, expected A1-T1 / 1", tree.TreeCode, tree.TreeNumber)
	}
	if tree.FruitCount != 12 {
		t.Fatalf("migrated fruit count = %d, expected 12", tree.FruitCount)
	}

	// Unknown legacy status collapses to alive.
	tree = farm.Tree{}
	if err := db.Where("id = ?", "legacy-3").Take(&tree).Error; err != nil {
		t.Fatalf("load tree with unknown status: %v", err)
	}
	if tree.Status != farm.TreeStatusAlive {
		t.Fatalf("unknown legacy status mapped to %q, expected alive", tree.Status)
	}
	if tree.TreeCode != "B1-T1" {
		t.Fatalf("plot B tree code = %q, expected B1-T1", tree.TreeCode)
	}

	if db.Migrator().HasTable("trees_flat") {
		t.Fatal("legacy table survived migration")
	}
}
