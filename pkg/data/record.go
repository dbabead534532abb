package data

// Record is one normalized row of a dataset table. The column set is fixed per dataset; fields that could
// not be extracted from the upstream document hold an empty string rather than being omitted, so every
// record in a table has the same width as its schema.
type Record []string

// Schema is the ordered column header of a dataset table.
type Schema []string
