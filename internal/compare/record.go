// Package compare checks two screenshot runs against each other: it
// highlights where the final (post-redirect) URLs diverge, diffs the
// screenshots pixel by pixel and renders an HTML report.
package compare

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRecord is returned for a line that does not have six fields.
var ErrInvalidRecord = errors.New("compare: record must have 6 comma-separated fields")

// Record pairs one original capture with its target capture. Screenshot
// fields are file names without the ".png" extension.
type Record struct {
	OriginalLink       string
	OriginalRedirect   string
	OriginalScreenshot string
	TargetLink         string
	TargetRedirect     string
	TargetScreenshot   string
}

// ParseRecord splits a line of the form
// origLink,origRedirect,origShot,targetLink,targetRedirect,targetShot.
func ParseRecord(line string) (Record, error) {
	fields := strings.Split(strings.TrimSpace(line), ",")
	if len(fields) != 6 {
		return Record{}, fmt.Errorf("%w: got %d", ErrInvalidRecord, len(fields))
	}
	return Record{
		OriginalLink:       fields[0],
		OriginalRedirect:   fields[1],
		OriginalScreenshot: fields[2],
		TargetLink:         fields[3],
		TargetRedirect:     fields[4],
		TargetScreenshot:   fields[5],
	}, nil
}
