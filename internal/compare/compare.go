package compare

import (
	"errors"
	"html/template"
	"path/filepath"

	"github.com/google/uuid"

	"pageshot/internal/observability"
)

// Result is the outcome of one record.
type Result struct {
	Index     int
	Record    Record
	URLDiff   template.HTML
	Identical bool
	// Verdict is a short human-readable outcome of the image comparison.
	Verdict string

	OriginalImage string
	TargetImage   string
	// DiffImage is empty when no diff could be produced.
	DiffImage string
}

// Comparer resolves screenshot names against two directories and writes
// diff images into a third.
type Comparer struct {
	OriginalDir string
	TargetDir   string
	DiffDir     string
	Logger      *observability.Logger
}

// Run compares every valid record in lines. Invalid records are logged and
// skipped; an image that cannot be read is reported in the result's
// Verdict rather than failing the run.
func (c *Comparer) Run(lines []string) []Result {
	logger := c.Logger
	if logger == nil {
		logger = observability.Discard()
	}

	var results []Result
	for i, line := range lines {
		rec, err := ParseRecord(line)
		if err != nil {
			logger.Warn("Skipping invalid record", "index", i, "record", line, "error", err.Error())
			continue
		}
		res := c.compare(rec)
		res.Index = i
		results = append(results, res)

		logger.Info("Record compared",
			"index", i,
			"original", rec.OriginalScreenshot,
			"target", rec.TargetScreenshot,
			"verdict", res.Verdict,
		)
	}
	return results
}

func (c *Comparer) compare(rec Record) Result {
	res := Result{
		Record:        rec,
		URLDiff:       HighlightURLDiff(rec.OriginalRedirect, rec.TargetRedirect),
		OriginalImage: filepath.Join(c.OriginalDir, rec.OriginalScreenshot+".png"),
		TargetImage:   filepath.Join(c.TargetDir, rec.TargetScreenshot+".png"),
	}

	orig, err := LoadImage(res.OriginalImage)
	if err != nil {
		res.Verdict = "Error: " + err.Error()
		return res
	}
	target, err := LoadImage(res.TargetImage)
	if err != nil {
		res.Verdict = "Error: " + err.Error()
		return res
	}

	diff, identical, err := DiffImages(orig, target)
	if errors.Is(err, ErrSizeMismatch) {
		res.Verdict = "Images have different dimensions"
		return res
	}
	if err != nil {
		res.Verdict = "Error: " + err.Error()
		return res
	}

	diffPath := filepath.Join(c.DiffDir, "diff_"+uuid.NewString()+".png")
	if err := SavePNG(diffPath, diff); err != nil {
		res.Verdict = "Error: " + err.Error()
		return res
	}
	res.DiffImage = diffPath
	res.Identical = identical
	if identical {
		res.Verdict = "Identical"
	} else {
		res.Verdict = "Different"
	}
	return res
}
