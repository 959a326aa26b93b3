package indexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSensitive(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"password", "the admin password is hunter2", true},
		{"passwd variant", "copy /etc/passwd somewhere safe", true},
		{"license", "the license file is attached below", true},
		{"recovery codes", "store these recovery codes offline", true},
		{"private", "this document is private to the team", true},
		{"key as substring", "press any key to continue", true},
		{"case insensitive", "SECRET launch plans", true},
		{"clean text", "quarterly revenue grew by 12 percent", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isSensitive(tt.text))
		})
	}
}
