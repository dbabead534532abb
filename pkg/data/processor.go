package data

import "io"

// Processor takes the raw payload of a single fetch unit (one CVE JSON document, one API page, one score
// file) and is responsible for producing the Records to be written to the dataset table. A processor must
// tolerate malformed fields within an otherwise-parseable unit; only a structural failure to interpret the
// unit as a whole is returned as an error.
type Processor interface {
	Process(reader io.Reader) ([]Record, error)
}
