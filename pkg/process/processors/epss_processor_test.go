package processors

import (
	"bytes"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsmeakapa/secref/pkg/data"
)

func gzippedScores(t *testing.T, contents string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(contents))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	return &buf
}

func TestEPSSProcessor_Process(t *testing.T) {
	contents := strings.Join([]string{
		"#model_version:v2025.03.14,score_date:2024-03-15T00:00:00+0000",
		"cve,epss,percentile",
		"CVE-2024-0001,0.97455,0.99986",
		"CVE-2024-0002,0.00042,0.05013",
		"",
	}, "\n")

	processor := NewEPSSProcessor()
	records, err := processor.Process(gzippedScores(t, contents))
	require.NoError(t, err)

	assert.Equal(t, []data.Record{
		{"CVE-2024-0001", "0.97455", "0.99986"},
		{"CVE-2024-0002", "0.00042", "0.05013"},
	}, records)
	assert.Zero(t, processor.MalformedRows())
}

func TestEPSSProcessor_Process_malformedRowsStayRectangular(t *testing.T) {
	contents := strings.Join([]string{
		"cve,epss,percentile",
		"CVE-2024-0001,0.5",
		"CVE-2024-0002,0.1,0.2,extra",
		"CVE-2024-0003,0.3,0.4",
	}, "\n")

	processor := NewEPSSProcessor()
	records, err := processor.Process(gzippedScores(t, contents))
	require.NoError(t, err)

	require.Len(t, records, 3)
	for _, record := range records {
		assert.Len(t, record, len(EPSSSchema))
	}
	assert.Equal(t, data.Record{"CVE-2024-0001", "0.5", ""}, records[0])
	assert.Equal(t, data.Record{"CVE-2024-0002", "0.1", "0.2"}, records[1])
	assert.Equal(t, 2, processor.MalformedRows())
}

func TestEPSSProcessor_Process_missingHeaderTreatedAsData(t *testing.T) {
	contents := "CVE-2024-0001,0.5,0.9\n"

	records, err := NewEPSSProcessor().Process(gzippedScores(t, contents))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, data.Record{"CVE-2024-0001", "0.5", "0.9"}, records[0])
}

func TestEPSSProcessor_Process_windowsLineEndings(t *testing.T) {
	contents := "cve,epss,percentile\r\nCVE-2024-0001,0.5,0.9\r\n"

	records, err := NewEPSSProcessor().Process(gzippedScores(t, contents))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, data.Record{"CVE-2024-0001", "0.5", "0.9"}, records[0])
}

func TestEPSSProcessor_Process_notGzip(t *testing.T) {
	_, err := NewEPSSProcessor().Process(strings.NewReader("cve,epss,percentile\n"))
	require.ErrorContains(t, err, "unable to open gzip stream")
}
