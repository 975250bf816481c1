package model

import "testing"

func TestParseSMESize(t *testing.T) {
	tests := []struct {
		input string
		want  SMESize
		ok    bool
	}{
		{"micro", SizeMicro, true},
		{"Small", SizeSmall, true},
		{" MEDIUM ", SizeMedium, true},
		{"large", SizeLarge, true},
		{"enterprise", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseSMESize(tt.input)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseSMESize(%q) = %q, %v; want %q, %v", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestSMEProfileValidate(t *testing.T) {
	tests := []struct {
		name    string
		profile SMEProfile
		wantErr bool
	}{
		{"complete", SMEProfile{SMESize: SizeSmall, SectorCategory: "retail"}, false},
		{"need only", SMEProfile{SMESize: SizeMicro, NeedDescription: "solar roof"}, false},
		{"no size", SMEProfile{SectorCategory: "retail"}, true},
		{"bad size", SMEProfile{SMESize: "huge", SectorCategory: "retail"}, true},
		{"no search signal", SMEProfile{SMESize: SizeSmall}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.profile.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
