package pipeline

import (
	"archive/tar"
	"encoding/csv"
	"io"
	"os"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"
)

func testCommon(t *testing.T) Common {
	t.Helper()
	root := t.TempDir()
	return Common{
		DataDir: root + "/data",
		LogDir:  root + "/logs",
		Quiet:   true,
	}
}

// readPublishedTable extracts the single CSV table from a published tar.gz artifact.
func readPublishedTable(t *testing.T, archivePath string) [][]string {
	t.Helper()

	f, err := os.Open(archivePath)
	require.NoError(t, err)
	defer f.Close()

	gz, err := gzip.NewReader(f)
	require.NoError(t, err)

	tr := tar.NewReader(gz)
	_, err = tr.Next()
	require.NoError(t, err)

	rows, err := csv.NewReader(tr).ReadAll()
	require.NoError(t, err)

	return rows
}

// readPublishedTableBytes extracts the raw CSV bytes from a published tar.gz artifact.
func readPublishedTableBytes(t *testing.T, archivePath string) []byte {
	t.Helper()

	f, err := os.Open(archivePath)
	require.NoError(t, err)
	defer f.Close()

	gz, err := gzip.NewReader(f)
	require.NoError(t, err)

	tr := tar.NewReader(gz)
	_, err = tr.Next()
	require.NoError(t, err)

	by, err := io.ReadAll(tr)
	require.NoError(t, err)

	return by
}
