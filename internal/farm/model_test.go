package farm

import (
	"errors"
	"testing"
)

func TestNewPlotCode(t *testing.T) {
	testCases := []struct {
		rawInput string
		expected string
		wantErr  bool
	}{
		{rawInput: "A", expected: "A"},
		{rawInput: " b ", expected: "B"},
		{rawInput: "north", expected: "NORTH"},
		{rawInput: "", wantErr: true},
		{rawInput: "   ", wantErr: true},
		{rawInput: "TOOLONGCODE", wantErr: true},
	}
	for _, testCase := range testCases {
		code, err := NewPlotCode(testCase.rawInput)
		if testCase.wantErr {
			if !errors.Is(err, ErrInvalidPlotCode) {
				t.Fatalf("NewPlotCode(%q) err = %v, expected ErrInvalidPlotCode", testCase.rawInput, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("NewPlotCode(%q): %v", testCase.rawInput, err)
		}
		if code != testCase.expected {
			t.Fatalf("NewPlotCode(%q) = %q, expected %q", testCase.rawInput, code, testCase.expected)
		}
	}
}

func TestNewTreeStatus(t *testing.T) {
	for _, valid := range []string{"alive", "sick", "dead"} {
		status, err := NewTreeStatus(valid)
		if err != nil {
			t.Fatalf("NewTreeStatus(%q): %v", valid, err)
		}
		if string(status) != valid {
			t.Fatalf("NewTreeStatus(%q) = %q", valid, status)
		}
	}
	if _, err := NewTreeStatus("zombie"); !errors.Is(err, ErrInvalidTreeStatus) {
		t.Fatalf("expected ErrInvalidTreeStatus, got %v", err)
	}
}

func TestNewBloomingStatus(t *testing.T) {
	for _, valid := range []string{"not_blooming", "budding", "blooming"} {
		if _, err := NewBloomingStatus(valid); err != nil {
			t.Fatalf("NewBloomingStatus(%q): %v", valid, err)
		}
	}
	if _, err := NewBloomingStatus("wilting"); !errors.Is(err, ErrInvalidBloomingStatus) {
		t.Fatalf("expected ErrInvalidBloomingStatus, got %v", err)
	}
}
