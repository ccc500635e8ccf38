package errors

import (
	"strings"
	"testing"
)

func TestValidateAnalysisID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"uuid", "5b1c7c8e-0c7a-4a49-9e0e-0f6f1f4b2a11", false},
		{"short", "a1", false},
		{"empty", "", true},
		{"traversal", "../etc", true},
		{"slash", "a/b", true},
		{"control", "a\x01b", true},
		{"too long", strings.Repeat("a", 129), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAnalysisID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateAnalysisID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidID) {
				t.Errorf("expected INVALID_ID code, got %v", GetCode(err))
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	if err := ValidatePath("analysis.json"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidatePath(""); err == nil {
		t.Error("expected error for empty path")
	}
	if err := ValidatePath("a\x00b"); err == nil {
		t.Error("expected error for null byte")
	}
}

func TestValidateSessionID(t *testing.T) {
	if err := ValidateSessionID("tab-1_abc"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	for _, bad := range []string{"", "a b", strings.Repeat("x", 65), "semi;colon"} {
		if err := ValidateSessionID(bad); err == nil {
			t.Errorf("ValidateSessionID(%q) should fail", bad)
		}
	}
}
