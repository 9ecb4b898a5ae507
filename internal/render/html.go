package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"slices"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

// DefaultIndexPattern selects the reports listed on an index page.
const DefaultIndexPattern = "access*.html"

// HTMLOptions tweaks the HTML report page.
type HTMLOptions struct {
	Title string
	// LiveReload adds a script that reloads the page on a server-sent
	// "report-updated" event from /events.
	LiveReload bool
}

// WriteHTML renders r as a sortable, colored HTML table.
func WriteHTML(w io.Writer, r *Report, opts HTMLOptions) error {
	if opts.Title == "" {
		opts.Title = "Log"
	}
	data := struct {
		Title      string
		LiveReload bool
		Report     *Report
	}{opts.Title, opts.LiveReload, r}

	if err := templates.ExecuteTemplate(w, "report.html.tmpl", data); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}

// WriteIndex writes dir/index.html linking every report in dir that matches
// pattern, sorted by name. It returns the linked file names.
func WriteIndex(dir, pattern, title string) ([]string, error) {
	if pattern == "" {
		pattern = DefaultIndexPattern
	}
	if title == "" {
		title = "access log analysis result"
	}

	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		name := filepath.Base(m)
		if name == "index.html" {
			continue
		}
		names = append(names, name)
	}
	slices.Sort(names)

	f, err := os.Create(filepath.Join(dir, "index.html"))
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	defer f.Close()

	data := struct {
		Title   string
		Reports []string
	}{title, names}
	if err := templates.ExecuteTemplate(f, "index.html.tmpl", data); err != nil {
		return nil, fmt.Errorf("render index: %w", err)
	}
	return names, f.Close()
}
