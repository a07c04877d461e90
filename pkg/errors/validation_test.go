package errors

import (
	"strings"
	"testing"
)

func TestValidateCanvasID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{name: "object id", id: "65f1c2a9e4b0d3a1f2c4b5d6", wantErr: false},
		{name: "slug", id: "team-retro_2024", wantErr: false},
		{name: "empty", id: "", wantErr: true},
		{name: "too long", id: strings.Repeat("a", 129), wantErr: true},
		{name: "traversal", id: "../boards", wantErr: true},
		{name: "slash", id: "a/b", wantErr: true},
		{name: "backslash", id: `a\b`, wantErr: true},
		{name: "glob", id: "board:*", wantErr: true},
		{name: "space", id: "my board", wantErr: true},
		{name: "control", id: "b\x001", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCanvasID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCanvasID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidInput) {
				t.Errorf("ValidateCanvasID(%q) code = %v, want %v", tt.id, GetCode(err), ErrCodeInvalidInput)
			}
		})
	}
}

func TestValidateUserID(t *testing.T) {
	if err := ValidateUserID("alice"); err != nil {
		t.Errorf("ValidateUserID(alice) = %v, want nil", err)
	}
	err := ValidateUserID("")
	if err == nil {
		t.Fatal("ValidateUserID(\"\") = nil, want error")
	}
	if !strings.Contains(err.Error(), "user id") {
		t.Errorf("error = %q, want mention of user id", err)
	}
}
