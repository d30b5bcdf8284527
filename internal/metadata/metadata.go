// Package metadata writes dataset descriptions next to cleaned occurrence
// files so a table keeps its provenance when it leaves the pipeline.
package metadata

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"gopkg.in/yaml.v3"
)

// Suffix is appended to a data file path to name its sidecar.
const Suffix = ".meta.yaml"

// Step records one processing stage applied to the data.
type Step struct {
	Name    string            `yaml:"name"`
	Params  map[string]string `yaml:"params,omitempty"`
	Removed int               `yaml:"removed,omitempty"`
}

// Description is the YAML sidecar for a data file.
type Description struct {
	Title    string    `yaml:"title"`
	Abstract string    `yaml:"abstract,omitempty"`
	Source   string    `yaml:"source,omitempty"`
	Creator  string    `yaml:"creator,omitempty"`
	License  string    `yaml:"license,omitempty"`
	RunID    string    `yaml:"run_id"`
	Created  time.Time `yaml:"created"`
	Records  int       `yaml:"records"`
	Steps    []Step    `yaml:"steps,omitempty"`
}

// Writer stamps and persists descriptions.
type Writer struct {
	clock clockwork.Clock
	newID func() string
}

// NewWriter returns a Writer using the given clock. A nil clock uses real time.
func NewWriter(clock clockwork.Clock) *Writer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Writer{clock: clock, newID: func() string { return uuid.NewString() }}
}

// SidecarPath returns the sidecar path for a data file.
func SidecarPath(dataFile string) string {
	return dataFile + Suffix
}

// Write fills RunID and Created when unset and writes the sidecar of
// dataFile. It returns the stamped description.
func (w *Writer) Write(dataFile string, d Description) (Description, error) {
	if d.Title == "" {
		return d, errors.New("metadata: title is required")
	}
	if d.RunID == "" {
		d.RunID = w.newID()
	}
	if d.Created.IsZero() {
		d.Created = w.clock.Now().UTC().Truncate(time.Second)
	}

	out, err := yaml.Marshal(d)
	if err != nil {
		return d, fmt.Errorf("encode metadata: %w", err)
	}
	path := SidecarPath(dataFile)
	if err := os.WriteFile(path, out, 0o644); err != nil { //nolint:gosec // sidecar is a public data description
		return d, fmt.Errorf("write metadata %q: %w", path, err)
	}
	return d, nil
}

// Read loads the sidecar of dataFile.
func Read(dataFile string) (Description, error) {
	var d Description
	path := SidecarPath(dataFile)
	raw, err := os.ReadFile(path) //nolint:gosec // path is derived from a user-chosen data file
	if err != nil {
		return d, fmt.Errorf("read metadata %q: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return d, fmt.Errorf("decode metadata %q: %w", path, err)
	}
	return d, nil
}

// AddStep appends a processing step.
func (d *Description) AddStep(name string, removed int, params map[string]string) {
	d.Steps = append(d.Steps, Step{Name: name, Params: params, Removed: removed})
}
