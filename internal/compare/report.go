package compare

import (
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
)

var reportTmpl = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>URL and Screenshot Comparison Report</title>
<style>
body { font-family: Arial, sans-serif; margin: 20px; }
table { width: 100%; border-collapse: collapse; margin-bottom: 20px; }
th, td { border: 1px solid #ddd; padding: 8px; text-align: left; word-wrap: break-word; max-width: 300px; }
th { background-color: #f2f2f2; }
img { width: 200px; height: auto; transition: transform 0.3s; }
img:hover { transform: scale(2); z-index: 100; position: relative; }
.comparison-table td { vertical-align: top; }
.result-section { margin-bottom: 40px; }
.url-diff { word-break: break-word; max-width: 400px; }
</style>
</head>
<body>
<h1>URL and Screenshot Comparison Report</h1>

<h2>Summary of Comparisons</h2>
<table>
<tr>
<th>Index with Original Link</th>
<th>Compare 2 Actual URL Browser Results</th>
<th>Compare Screen Result</th>
<th>Details</th>
</tr>
{{- range .}}
<tr>
<td>{{.Index}}_{{.Record.OriginalLink}}</td>
<td><div class="url-diff"><b>bef_redirect_url:</b> {{.Record.OriginalRedirect}}<br><b>aft_redirect_url:</b> {{.URLDiff}}</div></td>
<td>{{.Verdict}}</td>
<td><a href="#result-{{.Index}}">Details</a></td>
</tr>
{{- end}}
</table>

<h2>Detailed Comparison Results</h2>
{{- range .}}
<div class="result-section" id="result-{{.Index}}">
<h3>{{.Index}}_{{.OriginalImage}}</h3>
<table class="comparison-table">
<tr><th>Original</th><th>Target</th><th>Result of Comparison</th></tr>
<tr>
<td><img src="{{.OriginalImage}}" alt="Original {{.Index}}"></td>
<td><img src="{{.TargetImage}}" alt="Target {{.Index}}"></td>
<td>{{if .DiffImage}}<img src="{{.DiffImage}}" alt="Diff {{.Index}}">{{else}}{{.Verdict}}{{end}}</td>
</tr>
</table>
</div>
{{- end}}
</body>
</html>
`))

// WriteReport renders results as a standalone HTML page.
func WriteReport(w io.Writer, results []Result) error {
	return reportTmpl.Execute(w, results)
}

// WriteReportFile renders results to path, creating parent directories.
func WriteReportFile(path string, results []Result) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("compare: report dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("compare: create report: %w", err)
	}
	if err := WriteReport(f, results); err != nil {
		f.Close()
		return fmt.Errorf("compare: render report: %w", err)
	}
	return f.Close()
}
