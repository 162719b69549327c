package farm

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type sequenceIDProvider struct {
	prefix string
	next   int
}

func (p *sequenceIDProvider) NewID() (string, error) {
	p.next++
	return fmt.Sprintf("%s-%d", p.prefix, p.next), nil
}

func newTestDatabase(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "farm_test.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(
		&Plot{}, &Section{}, &Tree{}, &TreeLog{}, &CostRecord{},
		&Variety{}, &Fertilizer{}, &Pesticide{},
	); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := newTestDatabase(t)
	service, err := NewService(ServiceConfig{
		Database:   db,
		Clock:      func() time.Time { return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC) },
		IDProvider: &sequenceIDProvider{prefix: "id"},
	})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return service, db
}

func mustCreatePlot(t *testing.T, service *Service, code, name string) *Plot {
	t.Helper()
	plot, err := service.CreatePlot(context.Background(), CreatePlotInput{Code: code, Name: name})
	if err != nil {
		t.Fatalf("create plot %s: %v", code, err)
	}
	return plot
}

func mustCreateSection(t *testing.T, service *Service, plotID string) *Section {
	t.Helper()
	section, err := service.CreateSection(context.Background(), plotID, CreateSectionInput{})
	if err != nil {
		t.Fatalf("create section under %s: %v", plotID, err)
	}
	return section
}

func mustCreateTree(t *testing.T, service *Service, sectionID, variety string) *Tree {
	t.Helper()
	tree, err := service.CreateTree(context.Background(), sectionID, CreateTreeInput{Variety: variety})
	if err != nil {
		t.Fatalf("create tree under %s: %v", sectionID, err)
	}
	return tree
}
