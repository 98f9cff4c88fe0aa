package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"pageshot/internal/compare"
	"pageshot/internal/observability"
)

func main() {
	records := flag.String("records", "", "file with one record per line: origLink,origRedirect,origShot,targetLink,targetRedirect,targetShot")
	originalDir := flag.String("original", "report/original_images", "directory with the original screenshots")
	targetDir := flag.String("target", "report/target_images", "directory with the target screenshots")
	diffDir := flag.String("diffs", "report/diffs", "directory for diff images")
	out := flag.String("out", "comparison_report.html", "HTML report path")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	if *records == "" {
		log.Fatalf("usage: shotdiff -records <file> [flags]")
	}

	logger := observability.NewLogger(observability.Options{Level: *logLevel})
	defer logger.Close()

	lines, err := readLines(*records)
	if err != nil {
		log.Fatalf("Failed to read records: %v", err)
	}

	if err := os.MkdirAll(*diffDir, 0o755); err != nil {
		log.Fatalf("Failed to create diff dir: %v", err)
	}

	c := &compare.Comparer{
		OriginalDir: *originalDir,
		TargetDir:   *targetDir,
		DiffDir:     *diffDir,
		Logger:      logger,
	}
	results := c.Run(lines)
	relativize(results, filepath.Dir(*out))

	if err := compare.WriteReportFile(*out, results); err != nil {
		log.Fatalf("Failed to write report: %v", err)
	}

	identical := 0
	for _, r := range results {
		if r.Identical {
			identical++
		}
	}
	fmt.Printf("✓ Report generated: %s (%d records, %d identical)\n", *out, len(results), identical)
}

// readLines returns the non-blank lines of path.
func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, sc.Err()
}

// relativize rewrites image paths relative to the report location so the
// report can be opened from disk.
func relativize(results []compare.Result, base string) {
	rel := func(p string) string {
		if p == "" {
			return p
		}
		r, err := filepath.Rel(base, p)
		if err != nil {
			return p
		}
		return filepath.ToSlash(r)
	}
	for i := range results {
		results[i].OriginalImage = rel(results[i].OriginalImage)
		results[i].TargetImage = rel(results[i].TargetImage)
		results[i].DiffImage = rel(results[i].DiffImage)
	}
}
