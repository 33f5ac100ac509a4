package watcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEventKind_String(t *testing.T) {
	tests := []struct {
		name string
		kind EventKind
		want string
	}{
		{"created", Created, "CREATED"},
		{"modified", Modified, "MODIFIED"},
		{"deleted", Deleted, "DELETED"},
		{"unknown", EventKind(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.String())
		})
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, 5*time.Millisecond, opts.PollTimeout)
	assert.Equal(t, 1024, opts.EventBuffer)
}

func TestOptions_WithDefaults(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want Options
	}{
		{
			name: "empty options get defaults",
			opts: Options{},
			want: DefaultOptions(),
		},
		{
			name: "partial options keep custom values",
			opts: Options{PollTimeout: 20 * time.Millisecond},
			want: Options{PollTimeout: 20 * time.Millisecond, EventBuffer: 1024},
		},
		{
			name: "full options untouched",
			opts: Options{PollTimeout: time.Millisecond, EventBuffer: 8},
			want: Options{PollTimeout: time.Millisecond, EventBuffer: 8},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.opts.WithDefaults())
		})
	}
}
