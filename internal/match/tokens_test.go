package match

import (
	"strings"
	"testing"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"food & beverage", "food   beverage"},
		{"R&D (applied)", "R D  applied "},
		{"plain words", "plain words"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := Sanitize(tt.input); got != tt.want {
			t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"lowercase and split", "Solar Panels", []string{"solar", "panels"}},
		{"punctuation stripped", "e-mobility (charging)", []string{"mobility", "charging"}},
		{"dedupe", "solar solar Solar", []string{"solar"}},
		{"single chars dropped", "a b solar", []string{"solar"}},
		{"empty", "   ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.input)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestBuildTSQuery(t *testing.T) {
	if got := BuildTSQuery([]string{"solar", "panels"}); got != "solar:* | panels:*" {
		t.Errorf("BuildTSQuery = %q", got)
	}
	if got := BuildTSQuery(nil); got != "" {
		t.Errorf("BuildTSQuery(nil) = %q, want empty", got)
	}
}
