package processors

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsmeakapa/secref/pkg/data"
)

func TestVulnrichmentProcessor_Process(t *testing.T) {
	f, err := os.Open("test-fixtures/CVE-2024-12345.json")
	require.NoError(t, err)
	defer f.Close()

	records, err := NewVulnrichmentProcessor().Process(f)
	require.NoError(t, err)
	require.Len(t, records, 1)

	want := data.Record{
		"CVE-2024-12345",
		"9.8",
		"CRITICAL",
		"CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H",
		"3.1",
		"CWE-79",
		"CWE-79 Cross-site Scripting",
		"active",
		"no",
		"total",
		"kev",
		"2024-05-01",
		"7.5",
		"HIGH",
		"CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:N/I:N/A:H",
		"3.1",
		"CISA ADP",
		"Vulnrichment",
	}
	assert.Equal(t, want, records[0])
	assert.Len(t, records[0], len(VulnrichmentSchema))
}

func TestVulnrichmentProcessor_Process_degradesOnMissingFields(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want data.Record
	}{
		{
			name: "empty document",
			doc:  `{}`,
			want: data.Record{"", "", "", "", "", "", "", "", "", "", "", "", "", "", "", "", "CISA ADP", "Vulnrichment"},
		},
		{
			name: "id only",
			doc:  `{"cveMetadata": {"cveId": "CVE-2024-0001"}}`,
			want: data.Record{"CVE-2024-0001", "", "", "", "", "", "", "", "", "", "", "", "", "", "", "", "CISA ADP", "Vulnrichment"},
		},
		{
			name: "adp is not a list",
			doc:  `{"cveMetadata": {"cveId": "CVE-2024-0002"}, "containers": {"adp": {"metrics": []}}}`,
			want: data.Record{"CVE-2024-0002", "", "", "", "", "", "", "", "", "", "", "", "", "", "", "", "CISA ADP", "Vulnrichment"},
		},
		{
			name: "metrics hold unexpected types",
			doc:  `{"cveMetadata": {"cveId": "CVE-2024-0003"}, "containers": {"adp": [{"metrics": ["bogus", 42, {"cvssV3_1": "not-an-object"}]}]}}`,
			want: data.Record{"CVE-2024-0003", "", "", "", "", "", "", "", "", "", "", "", "", "", "", "", "CISA ADP", "Vulnrichment"},
		},
		{
			name: "cna cwe fallback when adp has none",
			doc: `{
				"cveMetadata": {"cveId": "CVE-2024-0004"},
				"containers": {
					"adp": [{"metrics": []}],
					"cna": {"problemTypes": [{"descriptions": [{"cweId": "CWE-89", "description": "SQLi"}]}]}
				}
			}`,
			want: data.Record{"CVE-2024-0004", "", "", "", "", "CWE-89", "SQLi", "", "", "", "", "", "", "", "", "", "CISA ADP", "Vulnrichment"},
		},
		{
			name: "string base score is preserved verbatim",
			doc:  `{"cveMetadata": {"cveId": "CVE-2024-0005"}, "containers": {"cna": {"metrics": [{"cvssV2_0": {"version": "2.0", "baseScore": "10.0"}}]}}}`,
			want: data.Record{"CVE-2024-0005", "", "", "", "", "", "", "", "", "", "", "", "10.0", "", "", "2.0", "CISA ADP", "Vulnrichment"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := NewVulnrichmentProcessor().Process(strings.NewReader(tt.doc))
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, tt.want, records[0])
		})
	}
}

func TestVulnrichmentProcessor_Process_firstNonEmptyADPWins(t *testing.T) {
	doc := `{
		"cveMetadata": {"cveId": "CVE-2024-0100"},
		"containers": {
			"adp": [
				{"metrics": [{"cvssV3_1": {"version": "3.1", "baseScore": 5.3, "baseSeverity": "MEDIUM"}}]},
				{"metrics": [{"cvssV3_1": {"version": "3.1", "baseScore": 9.1, "baseSeverity": "CRITICAL"}}]}
			]
		}
	}`

	records, err := NewVulnrichmentProcessor().Process(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, "5.3", records[0][1])
	assert.Equal(t, "MEDIUM", records[0][2])
}

func TestVulnrichmentProcessor_Process_structuralFailure(t *testing.T) {
	_, err := NewVulnrichmentProcessor().Process(strings.NewReader("not json at all"))
	require.ErrorContains(t, err, "unable to parse CVE document")
}
