package match

import (
	"testing"

	"github.com/opensme/grantscout/internal/model"
)

func TestSizeBonus(t *testing.T) {
	tests := []struct {
		name   string
		size   model.SMESize
		grants []string
		want   float64
	}{
		{"exact match", model.SizeSmall, []string{"Small", "Medium"}, 2.0},
		{"case-insensitive match", model.SizeSmall, []string{"small"}, 2.0},
		{"no match floors", model.SizeMicro, []string{"Large"}, 0.5},
		{"no sizes listed floors", model.SizeSmall, nil, 0.5},
		{"empty profile size floors", "", []string{"Small"}, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SizeBonus(tt.size, tt.grants); got != tt.want {
				t.Errorf("SizeBonus(%q, %v) = %v, want %v", tt.size, tt.grants, got, tt.want)
			}
		})
	}
}

func TestSectorBonus(t *testing.T) {
	tests := []struct {
		name      string
		sector    string
		verticals []string
		want      float64
	}{
		{"vertical contains sector", "food", []string{"Food Processing"}, 3.0},
		{"case folded", "FOOD", []string{"food processing"}, 3.0},
		{"universal vertical", "retail", []string{"All Verticals"}, 1.0},
		{"universal beats floor", "", []string{"All Verticals"}, 1.0},
		{"no alignment floors", "retail", []string{"Aerospace"}, 0.5},
		{"no verticals floors", "retail", nil, 0.5},
		// Containment is one-directional: a sector that merely contains
		// the vertical name does not count.
		{"reverse containment ignored", "food processing equipment", []string{"Food"}, 0.5},
		{"contains beats universal", "aero", []string{"All Verticals", "Aerospace"}, 3.0},
		// "All"-prefixed sector names are ordinary verticals, not the
		// universality sentinel.
		{"alloy vertical is not universal", "alloy", []string{"Alloy Smelting"}, 3.0},
		{"allied health is not universal", "health", []string{"Allied Health"}, 3.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SectorBonus(tt.sector, tt.verticals); got != tt.want {
				t.Errorf("SectorBonus(%q, %v) = %v, want %v", tt.sector, tt.verticals, got, tt.want)
			}
		})
	}
}

func TestBonusesNeverZero(t *testing.T) {
	// Candidates must never be zeroed out by missing graph metadata; the
	// floors guarantee every retrieved grant keeps a positive score.
	if SizeBonus("", nil) <= 0 {
		t.Error("SizeBonus floor must be positive")
	}
	if SectorBonus("", nil) <= 0 {
		t.Error("SectorBonus floor must be positive")
	}
}
