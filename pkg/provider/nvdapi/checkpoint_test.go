package nvdapi

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckpoint_LoadDefaults(t *testing.T) {
	tests := []struct {
		name     string
		contents *string
		want     int
	}{
		{
			name:     "absent checkpoint starts from zero",
			contents: nil,
			want:     0,
		},
		{
			name:     "valid checkpoint",
			contents: ptr("42"),
			want:     42,
		},
		{
			name:     "surrounding whitespace tolerated",
			contents: ptr("  7\n"),
			want:     7,
		},
		{
			name:     "garbage degrades to zero",
			contents: ptr("not-a-number"),
			want:     0,
		},
		{
			name:     "negative value degrades to zero",
			contents: ptr("-3"),
			want:     0,
		},
		{
			name:     "empty file degrades to zero",
			contents: ptr(""),
			want:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if tt.contents != nil {
				require.NoError(t, os.WriteFile(filepath.Join(dir, checkpointFileName), []byte(*tt.contents), 0o644))
			}

			assert.Equal(t, tt.want, NewCheckpoint(dir).Load())
		})
	}
}

func TestCheckpoint_SaveThenLoad(t *testing.T) {
	dir := t.TempDir()
	c := NewCheckpoint(dir)

	require.NoError(t, c.Save(3))
	assert.Equal(t, 3, c.Load())

	require.NoError(t, c.Save(4))
	assert.Equal(t, 4, c.Load())
}

func ptr(s string) *string {
	return &s
}
