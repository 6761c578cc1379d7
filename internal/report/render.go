// Package report renders end-of-run incident reports as Markdown.
package report

import (
	"embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/template"
	"time"

	"lnops-sim/internal/incident"
)

//go:embed templates/report.md.tmpl
var templateFS embed.FS

var tpl = template.Must(template.New("report.md.tmpl").Funcs(template.FuncMap{
	"pct":   func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
	"stamp": func(t time.Time) string { return t.UTC().Format(time.RFC3339) },
}).ParseFS(templateFS, "templates/report.md.tmpl"))

// Render writes the report for o to w.
func Render(w io.Writer, o incident.OutcomeRow) error {
	return tpl.Execute(w, o)
}

// WriteFile renders the report for o into outDir/<run_id>.md and returns the path.
func WriteFile(outDir string, o incident.OutcomeRow) (string, error) {
	if o.RunID == "" {
		return "", fmt.Errorf("outcome has no run id")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(outDir, o.RunID+".md")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := Render(f, o); err != nil {
		f.Close()
		return "", fmt.Errorf("render report %s: %w", o.RunID, err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}
