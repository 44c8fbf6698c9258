// Package catalog loads the globe marker list from a YAML file.
package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/samirrijal/globefolio/internal/core/domain"
)

// File is the on-disk shape of a marker catalog:
//
//	markers:
//	  - id: nyc
//	    label: New York
//	    lat: 40.7128
//	    lon: -74.0060
//	    color: "#FF5252"
type File struct {
	Markers []entry `yaml:"markers"`
}

type entry struct {
	ID    string   `yaml:"id"`
	Label string   `yaml:"label"`
	Lat   *float64 `yaml:"lat"`
	Lon   *float64 `yaml:"lon"`
	Color string   `yaml:"color"`
}

// FileCatalog implements ports.MarkerCatalog over a YAML file.
type FileCatalog struct {
	path string
}

// NewFileCatalog creates a catalog reading path on Load.
func NewFileCatalog(path string) *FileCatalog {
	return &FileCatalog{path: path}
}

// Load reads and parses the catalog file.
func (c *FileCatalog) Load(ctx context.Context) ([]domain.LabeledMarker, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, fmt.Errorf("read marker catalog: %w", err)
	}
	markers, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.path, err)
	}
	return markers, nil
}

// Parse decodes a catalog. Unknown keys are rejected so typos surface at
// startup; every marker needs an id and both coordinates.
func Parse(r io.Reader) ([]domain.LabeledMarker, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("marker catalog is empty")
		}
		return nil, fmt.Errorf("parse marker catalog: %w", err)
	}

	out := make([]domain.LabeledMarker, 0, len(f.Markers))
	var errs []error
	for i, e := range f.Markers {
		if e.ID == "" {
			errs = append(errs, fmt.Errorf("marker %d: id is required", i))
			continue
		}
		if e.Lat == nil || e.Lon == nil {
			errs = append(errs, fmt.Errorf("marker %q: lat and lon are required", e.ID))
			continue
		}
		label := e.Label
		if label == "" {
			label = e.ID
		}
		out = append(out, domain.LabeledMarker{
			ID:    e.ID,
			Point: domain.GeoPoint{Lat: *e.Lat, Lon: *e.Lon},
			Label: label,
			Color: e.Color,
		})
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}
