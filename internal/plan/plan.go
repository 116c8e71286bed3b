// Package plan runs a merge described in a YAML document, without a UI.
//
// A plan names its sources by location (a local path or any URL the afs
// file system understands), then lists the merge steps in order and where
// the result goes:
//
//	sources:
//	  - id: orders
//	    location: data/orders.csv
//	  - id: customers
//	    location: s3://bucket/customers.xlsx
//	    sheet: Active
//	steps:
//	  - primary: orders
//	    source: customers
//	    left_key: Customer ID
//	    right_key: ID
//	    mode: left
//	output:
//	  location: out/merged.xlsx
//	  columns: [Order, Customer ID, Name]
//
// Relative locations are resolved against the plan's own location.
package plan

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/JonMunkholm/merger/internal/core"
	"github.com/viant/afs"
	"gopkg.in/yaml.v3"
)

// Plan is a parsed merge plan.
type Plan struct {
	Sources []SourceSpec `yaml:"sources"`
	Steps   []StepSpec   `yaml:"steps"`
	Output  OutputSpec   `yaml:"output"`

	// baseURL is the directory relative locations are resolved against.
	baseURL string
}

// SourceSpec names one input file.
type SourceSpec struct {
	ID       string `yaml:"id"`
	Location string `yaml:"location"`
	Sheet    string `yaml:"sheet,omitempty"`
}

// StepSpec is one merge step. Only the first step names a primary.
type StepSpec struct {
	Primary  string `yaml:"primary,omitempty"`
	Source   string `yaml:"source"`
	LeftKey  string `yaml:"left_key"`
	RightKey string `yaml:"right_key"`
	Mode     string `yaml:"mode"`
}

// JoinRequest converts the step for the merge engine. A blank mode means
// left outer, the first choice offered in the UI.
func (s StepSpec) JoinRequest() (core.JoinRequest, error) {
	mode := core.LeftOuter
	if strings.TrimSpace(s.Mode) != "" {
		var err error
		if mode, err = core.ParseJoinMode(s.Mode); err != nil {
			return core.JoinRequest{}, err
		}
	}
	return core.JoinRequest{LeftKey: s.LeftKey, RightKey: s.RightKey, Mode: mode}, nil
}

// OutputSpec says which columns to keep and where to write them. Location
// and Table may both be set; at least one is required.
type OutputSpec struct {
	Location string   `yaml:"location,omitempty"`
	Format   string   `yaml:"format,omitempty"`
	Columns  []string `yaml:"columns"`
	Table    string   `yaml:"table,omitempty"`
}

// Parse decodes and validates a plan document. Unknown fields are errors.
func Parse(data []byte) (*Plan, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var p Plan
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("parse plan: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Load downloads a plan from location and parses it.
func Load(ctx context.Context, fs afs.Service, location string) (*Plan, error) {
	data, err := fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("read plan %s: %w", location, err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", location, err)
	}
	p.baseURL = parentOf(location)
	return p, nil
}

// Validate reports every problem with the plan at once.
func (p *Plan) Validate() error {
	var errs []error

	if len(p.Sources) < 2 {
		errs = append(errs, errors.New("a plan needs at least two sources"))
	}
	ids := make(map[string]bool, len(p.Sources))
	for i, s := range p.Sources {
		switch {
		case s.ID == "":
			errs = append(errs, fmt.Errorf("source %d: id is required", i+1))
		case ids[s.ID]:
			errs = append(errs, fmt.Errorf("source %d: id %q used twice", i+1, s.ID))
		}
		ids[s.ID] = true
		if s.Location == "" {
			errs = append(errs, fmt.Errorf("source %q: location is required", s.ID))
		}
	}

	if len(p.Steps) == 0 {
		errs = append(errs, errors.New("a plan needs at least one step"))
	}
	for i, st := range p.Steps {
		n := i + 1
		if i == 0 && st.Primary == "" {
			errs = append(errs, fmt.Errorf("step %d: the first step needs a primary source", n))
		}
		if i > 0 && st.Primary != "" {
			errs = append(errs, fmt.Errorf("step %d: only the first step names a primary source", n))
		}
		if st.Primary != "" && !ids[st.Primary] {
			errs = append(errs, fmt.Errorf("step %d: unknown source %q", n, st.Primary))
		}
		if !ids[st.Source] {
			errs = append(errs, fmt.Errorf("step %d: unknown source %q", n, st.Source))
		}
		if st.LeftKey == "" || st.RightKey == "" {
			errs = append(errs, fmt.Errorf("step %d: left_key and right_key are required", n))
		}
		if _, err := st.JoinRequest(); err != nil {
			errs = append(errs, fmt.Errorf("step %d: %w", n, err))
		}
	}

	if p.Output.Location == "" && p.Output.Table == "" {
		errs = append(errs, errors.New("output: location or table is required"))
	}
	if len(p.Output.Columns) == 0 {
		errs = append(errs, fmt.Errorf("output: %w", core.ErrNoColumnsChosen))
	}
	if _, err := p.outputFormat(); err != nil {
		errs = append(errs, fmt.Errorf("output: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid plan: %w", errors.Join(errs...))
	}
	return nil
}

// outputFormat is the explicit format, else the location's extension.
func (p *Plan) outputFormat() (core.ExportFormat, error) {
	f := p.Output.Format
	if f == "" && strings.EqualFold(path.Ext(stripQuery(p.Output.Location)), ".xlsx") {
		f = "xlsx"
	}
	return core.ParseExportFormat(f)
}

// resolve makes a relative location relative to the plan.
func (p *Plan) resolve(location string) string {
	if p.baseURL == "" || strings.Contains(location, "://") || path.IsAbs(location) {
		return location
	}
	return strings.TrimSuffix(p.baseURL, "/") + "/" + location
}

func parentOf(location string) string {
	i := strings.LastIndex(stripQuery(location), "/")
	if i < 0 {
		return ""
	}
	return location[:i]
}

func stripQuery(location string) string {
	loc, _, _ := strings.Cut(location, "?")
	return loc
}

// fileName is the last path element of a location, used to pick the parser.
func fileName(location string) string {
	return path.Base(stripQuery(location))
}
