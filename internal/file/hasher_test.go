package file

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentDigest(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "data.csv", []byte("a,b\n1,2\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "other.csv", []byte("a,b\n3,4\n"), 0o644))

	digest, err := ContentDigest(fs, "data.csv")
	require.NoError(t, err)
	assert.Len(t, digest, 16)

	again, err := ContentDigest(fs, "data.csv")
	require.NoError(t, err)
	assert.Equal(t, digest, again)

	other, err := ContentDigest(fs, "other.csv")
	require.NoError(t, err)
	assert.NotEqual(t, digest, other)
}

func TestContentDigest_missingFile(t *testing.T) {
	_, err := ContentDigest(afero.NewMemMapFs(), "nope.csv")
	require.ErrorContains(t, err, "failed to open file")
}
