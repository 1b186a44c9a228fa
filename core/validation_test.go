package core

import (
	"errors"
	"testing"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{
			name:    "simple name",
			input:   "MUSR00015189",
			wantErr: nil,
		},
		{
			name:    "underscores allowed",
			input:   "grp_1",
			wantErr: nil,
		},
		{
			name:    "empty name",
			input:   "",
			wantErr: ErrInvalidName,
		},
		{
			name:    "space",
			input:   "my ws",
			wantErr: ErrInvalidName,
		},
		{
			name:    "operator character",
			input:   "a+b",
			wantErr: ErrInvalidName,
		},
		{
			name:    "control character",
			input:   "ws\n",
			wantErr: ErrInvalidName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input, DefaultIllegalCharacters)

			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateName() error = %v, want nil", err)
				}
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateName() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNameMatcher(t *testing.T) {
	tests := []struct {
		name    string
		matcher NameMatcher
		a, b    string
		want    bool
	}{
		{"insensitive same case", NameMatcher{}, "ws", "ws", true},
		{"insensitive different case", NameMatcher{}, "WS", "ws", true},
		{"sensitive different case", NameMatcher{CaseSensitive: true}, "WS", "ws", false},
		{"sensitive same case", NameMatcher{CaseSensitive: true}, "Ws", "Ws", true},
		{"different names", NameMatcher{}, "a", "b", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.matcher.Match(tt.a, tt.b); got != tt.want {
				t.Errorf("Match(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
