package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"relative file", "abacus.db", false},
		{"nested relative file", "data/abacus.db", false},
		{"parent directory", "../shared/abacus.db", false},
		{"home relative", "~/.config/abacus/prefs.yml", false},
		{"absolute temp", "/tmp/abacus/history.db", false},
		{"empty", "", true},
		{"blank", "   ", true},
		{"nul byte", "abacus\x00.db", true},
		{"command separator", "abacus.db; rm -rf /", true},
		{"substitution", "$(id).db", true},
		{"etc", "/etc/abacus.db", true},
		{"etc after clean", "/tmp/../etc/passwd", true},
		{"proc", "/proc/self/environ", true},
		{"directory", "data/", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
