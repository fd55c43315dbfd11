package errors

import (
	"testing"
)

func TestValidateLayoutName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "Layout1", false},
		{"with space", "Sheet A", false},
		{"model", "Model", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 300)), true},
		{"slash", "a/b", true},
		{"traversal", "..", true},
		{"backslash", "a\\b", true},
		{"control char", "foo\x01bar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLayoutName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateLayoutName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"relative", "out/drawing.pdf", false},
		{"absolute", "/tmp/drawing.pdf", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 600)), true},
		{"null byte", "foo\x00bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidPath) {
				t.Errorf("ValidatePath(%q) returned wrong error code: %v", tt.input, err)
			}
		})
	}
}

func TestSanitizeFileComponent(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Layout1", "Layout1"},
		{"Sheet A", "Sheet_A"},
		{"a/b", "a_b"},
		{"plan-v2.1", "plan-v2.1"},
		{"Grundriß", "Grundri_"},
		{"", "_"},
	}
	for _, tt := range tests {
		if got := SanitizeFileComponent(tt.in); got != tt.want {
			t.Errorf("SanitizeFileComponent(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
