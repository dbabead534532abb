package processors

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	gocpe "github.com/umisama/go-cpe"
	"golang.org/x/text/language"

	"github.com/itsmeakapa/secref/internal/log"
	"github.com/itsmeakapa/secref/internal/safepath"
	"github.com/itsmeakapa/secref/pkg/data"
)

// CPESchema is the column set of the software identifier table. One API page yields one record per
// product on the page.
var CPESchema = data.Schema{
	"deprecated",
	"cpeName",
	"cpeNameId",
	"lastModified",
	"created",
	"title",
	"refs",
}

// CPEProcessor is stateful only to count malformed CPE names across pages for the run summary.
type CPEProcessor struct {
	invalidNames int
}

func NewCPEProcessor() *CPEProcessor {
	return &CPEProcessor{}
}

func (p *CPEProcessor) Process(reader io.Reader) ([]data.Record, error) {
	var doc any
	if err := json.NewDecoder(reader).Decode(&doc); err != nil {
		return nil, fmt.Errorf("unable to parse page payload: %w", err)
	}

	var records []data.Record
	for _, raw := range safepath.Slice(doc, "products") {
		cpe := safepath.Map(raw, "cpe")
		if cpe == nil {
			continue
		}

		name := safepath.String(cpe, "cpeName")
		if name != "" {
			if _, err := gocpe.NewItemFromFormattedString(name); err != nil {
				p.invalidNames++
				log.WithFields("cpeName", name).Trace("product has a malformed CPE name")
			}
		}

		deprecated := "false"
		if safepath.Bool(cpe, "deprecated") {
			deprecated = "true"
		}

		records = append(records, data.Record{
			deprecated,
			name,
			safepath.String(cpe, "cpeNameId"),
			safepath.String(cpe, "lastModified"),
			safepath.String(cpe, "created"),
			englishTitle(safepath.Slice(cpe, "titles")),
			joinRefs(safepath.Slice(cpe, "refs")),
		})
	}

	return records, nil
}

// InvalidNames reports how many products carried a CPE name that does not parse as a well-formed
// cpe:2.3 string. Malformed names are recorded as-is, never dropped.
func (p *CPEProcessor) InvalidNames() int {
	return p.invalidNames
}

// englishTitle selects the best English match among the per-language titles of a product.
func englishTitle(titles []any) string {
	var tags []language.Tag
	var values []string
	for _, raw := range titles {
		title, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		tag, err := language.Parse(safepath.String(title, "lang"))
		if err != nil {
			continue
		}
		tags = append(tags, tag)
		values = append(values, safepath.String(title, "title"))
	}

	if len(tags) == 0 {
		return ""
	}

	_, index, confidence := language.NewMatcher(tags).Match(language.English)
	if confidence == language.No {
		return ""
	}
	return values[index]
}

func joinRefs(refs []any) string {
	var values []string
	for _, raw := range refs {
		ref, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		values = append(values, safepath.String(ref, "ref"))
	}
	return strings.Join(values, " ")
}
