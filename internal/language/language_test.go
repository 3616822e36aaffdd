package language

import (
	"slices"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"en", "en", false},
		{" EN ", "en", false},
		{"eng", "en", false},
		{"spa", "es", false},
		{"fre", "fr", false},
		{"ger", "de", false},
		{"russian", "ru", false},
		{"Japanese", "ja", false},
		{"en-US", "en", false},
		{"pt-BR", "pt", false},
		{"", "", true},
		{"not a language!!", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Normalize(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Normalize(%q) expected error, got %q", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Normalize(%q) returned error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeList(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{"nil", nil, nil},
		{"dedup", []string{"en", "EN"}, []string{"en"}},
		{"words and codes", []string{"english", "spa", "es"}, []string{"en", "es"}},
		{"variants kept", []string{"en-GB", "en"}, []string{"en-gb", "en"}},
		{"unknown passes through", []string{"xx", " "}, []string{"xx"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeList(tt.input); !slices.Equal(got, tt.want) {
				t.Fatalf("NormalizeList(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	tests := map[string]string{
		"en":      "English",
		"eng":     "English",
		"fre":     "French",
		"german":  "German",
		"ja":      "Japanese",
		"":        "Unknown",
		"!!":      "!!",
		"pt-BR":   "Portuguese",
		"russian": "Russian",
	}
	for input, want := range tests {
		if got := DisplayName(input); got != want {
			t.Errorf("DisplayName(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestNormalizeRegion(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"US", "US", false},
		{"us", "US", false},
		{" gb ", "GB", false},
		{"", "", true},
		{"u", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := NormalizeRegion(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("NormalizeRegion(%q) expected error, got %q", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeRegion(%q) returned error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("NormalizeRegion(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
