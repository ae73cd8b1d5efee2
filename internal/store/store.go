// Package store persists finished recordings and resolves their output paths.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"
)

// DefaultNameTemplate names recordings by capture start time.
// Available placeholders: {{.Year}}, {{.Month}}, {{.Day}}, {{.Hour}}, {{.Minute}}, {{.Second}}
const DefaultNameTemplate = "recording-{{.Year}}-{{.Month}}-{{.Day}}_{{.Hour}}-{{.Minute}}-{{.Second}}.wav"

// Recordings writes recording payloads under a base directory using a
// configurable file-name template.
type Recordings struct {
	baseDir string
	tmpl    *template.Template
}

type nameFields struct {
	Year   string
	Month  string
	Day    string
	Hour   string
	Minute string
	Second string
}

// New validates the name template and returns a recordings store.
func New(baseDir string, nameTemplate string) (*Recordings, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, fmt.Errorf("recordings directory is empty")
	}
	if strings.TrimSpace(nameTemplate) == "" {
		nameTemplate = DefaultNameTemplate
	}

	tmpl, err := template.New("recording-name").Parse(nameTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse name template: %w", err)
	}

	return &Recordings{baseDir: baseDir, tmpl: tmpl}, nil
}

// BaseDir returns the resolved recordings directory.
func (r *Recordings) BaseDir() string {
	return r.baseDir
}

// NewOutputPath renders the file name for a session starting at the given time.
func (r *Recordings) NewOutputPath(start time.Time) (string, error) {
	fields := nameFields{
		Year:   start.Format("2006"),
		Month:  start.Format("01"),
		Day:    start.Format("02"),
		Hour:   start.Format("15"),
		Minute: start.Format("04"),
		Second: start.Format("05"),
	}

	var name strings.Builder
	if err := r.tmpl.Execute(&name, fields); err != nil {
		return "", fmt.Errorf("render name template: %w", err)
	}

	rendered := strings.TrimSpace(name.String())
	if rendered == "" {
		return "", fmt.Errorf("name template produced an empty file name")
	}

	return filepath.Join(r.baseDir, rendered), nil
}

// Save writes one payload to its output path, creating the directory first.
func (r *Recordings) Save(path string, payload []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create recordings dir: %w", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("write recording %q: %w", path, err)
	}
	return nil
}
