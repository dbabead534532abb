package processors

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/itsmeakapa/secref/internal/log"
	"github.com/itsmeakapa/secref/pkg/data"
)

// EPSSSchema is the column set of the exploit-probability table.
var EPSSSchema = data.Schema{
	"cve",
	"epss",
	"percentile",
}

// EPSSProcessor reads the gzipped upstream score file: leading #-prefixed model metadata is logged and
// dropped, the upstream header row is dropped (the publisher writes its own), and every remaining line
// becomes one record.
type EPSSProcessor struct {
	malformedRows int
}

func NewEPSSProcessor() *EPSSProcessor {
	return &EPSSProcessor{}
}

func (p *EPSSProcessor) Process(reader io.Reader) ([]data.Record, error) {
	gz, err := gzip.NewReader(reader)
	if err != nil {
		return nil, fmt.Errorf("unable to open gzip stream: %w", err)
	}
	defer gz.Close()

	var records []data.Record
	sawHeader := false

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")

		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "#"):
			log.WithFields("metadata", strings.TrimPrefix(line, "#")).Debug("score file metadata")
			continue
		}

		fields := strings.Split(line, ",")

		if !sawHeader {
			sawHeader = true
			if strings.EqualFold(fields[0], "cve") {
				continue
			}
		}

		if len(fields) != len(EPSSSchema) {
			p.malformedRows++
			fields = rectangular(fields, len(EPSSSchema))
		}

		records = append(records, data.Record(fields))
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("unable to read score file: %w", err)
	}

	return records, nil
}

// MalformedRows reports how many lines did not have the expected column count and were padded or
// truncated to keep the table rectangular.
func (p *EPSSProcessor) MalformedRows() int {
	return p.malformedRows
}

func rectangular(fields []string, width int) []string {
	if len(fields) > width {
		return fields[:width]
	}
	for len(fields) < width {
		fields = append(fields, "")
	}
	return fields
}
