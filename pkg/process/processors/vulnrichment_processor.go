package processors

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/itsmeakapa/secref/internal/safepath"
	"github.com/itsmeakapa/secref/pkg/data"
)

// VulnrichmentSchema is the column set of the vulnerability enrichment table. One CVE document yields
// exactly one record.
var VulnrichmentSchema = data.Schema{
	"cve_id",
	"cisa_cvss_base_score",
	"cisa_cvss_base_severity",
	"cisa_cvss_vector_string",
	"cisa_cvss_version",
	"cwe_id",
	"cwe_description",
	"ssvc_exploitation",
	"ssvc_automatable",
	"ssvc_impact",
	"kev_entry",
	"kev_date",
	"cna_cvss_base_score",
	"cna_cvss_base_severity",
	"cna_cvss_vector_string",
	"cna_cvss_version",
	"cisa_adp",
	"vulnrichment",
}

const (
	adpLabel          = "CISA ADP"
	vulnrichmentLabel = "Vulnrichment"
)

type vulnrichmentProcessor struct{}

func NewVulnrichmentProcessor() data.Processor {
	return vulnrichmentProcessor{}
}

func (p vulnrichmentProcessor) Process(reader io.Reader) ([]data.Record, error) {
	var doc any
	if err := json.NewDecoder(reader).Decode(&doc); err != nil {
		return nil, fmt.Errorf("unable to parse CVE document: %w", err)
	}

	e := enrichment{
		cveID: safepath.String(doc, "cveMetadata", "cveId"),
	}

	// metrics can be contributed by multiple ADP containers; the first non-empty source wins
	for _, raw := range safepath.Slice(doc, "containers", "adp") {
		adp, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		e.mergeADP(adp)
	}

	if cna := safepath.Map(doc, "containers", "cna"); cna != nil {
		e.mergeCNA(cna)
	}

	return []data.Record{e.record()}, nil
}

type cvssMetric struct {
	baseScore    string
	baseSeverity string
	vectorString string
	version      string
}

type enrichment struct {
	cveID string
	adp   cvssMetric
	cna   cvssMetric

	cweID          string
	cweDescription string

	exploitation string
	automatable  string
	impact       string
	kevEntry     string
	kevDate      string
}

func (e *enrichment) mergeADP(adp map[string]any) {
	metrics := safepath.Slice(adp, "metrics")

	if cvss, ok := findCVSS(metrics); ok && e.adp == (cvssMetric{}) {
		e.adp = cvss
	}

	e.mergeSSVC(metrics)

	if e.cweID == "" {
		e.cweID, e.cweDescription = findCWE(safepath.Slice(adp, "problemTypes"))
	}
}

func (e *enrichment) mergeCNA(cna map[string]any) {
	if cvss, ok := findCVSS(safepath.Slice(cna, "metrics")); ok {
		e.cna = cvss
	}

	if e.cweID == "" {
		e.cweID, e.cweDescription = findCWE(safepath.Slice(cna, "problemTypes"))
	}
}

func (e *enrichment) mergeSSVC(metrics []any) {
	for _, raw := range metrics {
		metric, ok := raw.(map[string]any)
		if !ok {
			continue
		}

		other := safepath.Map(metric, "other")
		if other == nil {
			continue
		}
		content := safepath.Map(other, "content")

		for _, rawOption := range safepath.Slice(content, "options") {
			option, ok := rawOption.(map[string]any)
			if !ok {
				continue
			}
			setIfEmpty(&e.exploitation, safepath.String(option, "Exploitation"))
			setIfEmpty(&e.automatable, safepath.String(option, "Automatable"))
			setIfEmpty(&e.impact, safepath.String(option, "Technical Impact"))
		}

		if safepath.String(other, "type") == "kev" {
			setIfEmpty(&e.kevEntry, "kev")
			setIfEmpty(&e.kevDate, safepath.String(content, "dateAdded"))
		}
	}
}

func (e enrichment) record() data.Record {
	return data.Record{
		e.cveID,
		e.adp.baseScore,
		e.adp.baseSeverity,
		e.adp.vectorString,
		e.adp.version,
		e.cweID,
		e.cweDescription,
		e.exploitation,
		e.automatable,
		e.impact,
		e.kevEntry,
		e.kevDate,
		e.cna.baseScore,
		e.cna.baseSeverity,
		e.cna.vectorString,
		e.cna.version,
		adpLabel,
		vulnrichmentLabel,
	}
}

// findCVSS returns the first CVSS payload among the given metrics, identified by a version-prefixed key
// such as cvssV3_1. Keys are visited in sorted order so the selection is deterministic.
func findCVSS(metrics []any) (cvssMetric, bool) {
	for _, raw := range metrics {
		metric, ok := raw.(map[string]any)
		if !ok {
			continue
		}

		keys := make([]string, 0, len(metric))
		for key := range metric {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			if !strings.HasPrefix(key, "cvssV") || !strings.Contains(key, "_") {
				continue
			}
			payload, ok := metric[key].(map[string]any)
			if !ok {
				continue
			}
			return cvssMetric{
				baseScore:    scoreString(payload["baseScore"]),
				baseSeverity: safepath.String(payload, "baseSeverity"),
				vectorString: safepath.String(payload, "vectorString"),
				version:      safepath.String(payload, "version"),
			}, true
		}
	}
	return cvssMetric{}, false
}

// findCWE returns the first non-empty CWE id and its description from the given problem types.
func findCWE(problemTypes []any) (string, string) {
	for _, raw := range problemTypes {
		problemType, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		for _, rawDesc := range safepath.Slice(problemType, "descriptions") {
			desc, ok := rawDesc.(map[string]any)
			if !ok {
				continue
			}
			if cweID := safepath.String(desc, "cweId"); cweID != "" {
				return cweID, safepath.String(desc, "description")
			}
		}
	}
	return "", ""
}

func scoreString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func setIfEmpty(dst *string, value string) {
	if *dst == "" && value != "" {
		*dst = value
	}
}
