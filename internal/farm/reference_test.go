package farm

import (
	"context"
	"errors"
	"testing"
)

func TestVarietyNamesAreUnique(t *testing.T) {
	service, _ := newTestService(t)

	if _, err := service.CreateVariety(context.Background(), "หมอนทอง", "Monthong"); err != nil {
		t.Fatalf("create variety: %v", err)
	}
	_, err := service.CreateVariety(context.Background(), "หมอนทอง", "duplicate")
	if err == nil {
		t.Fatal("expected conflict for duplicate variety name")
	}
	var serviceErr *ServiceError
	if !errors.As(err, &serviceErr) || serviceErr.Code() != "farm.reference.name_taken" {
		t.Fatalf("unexpected error for duplicate variety: %v", err)
	}
}

func TestReferenceListsAndDeletes(t *testing.T) {
	service, _ := newTestService(t)

	variety, err := service.CreateVariety(context.Background(), "ชะนี", "Chanee")
	if err != nil {
		t.Fatalf("create variety: %v", err)
	}
	if _, err := service.CreateFertilizer(context.Background(), "สูตรเสมอ 15-15-15", "15-15-15", ""); err != nil {
		t.Fatalf("create fertilizer: %v", err)
	}
	if _, err := service.CreatePesticide(context.Background(), "อะบาเม็กติน", "หนอนเจาะผล", ""); err != nil {
		t.Fatalf("create pesticide: %v", err)
	}

	varieties, err := service.ListVarieties(context.Background())
	if err != nil {
		t.Fatalf("list varieties: %v", err)
	}
	if len(varieties) != 1 {
		t.Fatalf("listed %d varieties, expected 1", len(varieties))
	}

	if err := service.DeleteVariety(context.Background(), variety.ID); err != nil {
		t.Fatalf("delete variety: %v", err)
	}
	if err := service.DeleteVariety(context.Background(), variety.ID); !IsNotFound(err) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}
