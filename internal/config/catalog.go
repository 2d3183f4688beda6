package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/sea-level-trend/internal/domain"
)

// Catalog is the set of tide gauges a report can be generated for.
//
//	stations:
//	  - id: "8418150"
//	    name: Portland, ME
//	    mllw_offset_ft: 4.94
//	    msl_column: Monthly_MSL
type Catalog struct {
	Stations []domain.Station `yaml:"stations"`
}

// BuiltinCatalog holds only the default station.
func BuiltinCatalog() Catalog {
	return Catalog{Stations: []domain.Station{domain.DefaultStation}}
}

// LoadCatalog reads and validates a YAML station catalog.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read station catalog: %w", err)
	}

	var c Catalog
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return Catalog{}, fmt.Errorf("parse station catalog %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return Catalog{}, fmt.Errorf("station catalog %s: %w", path, err)
	}
	return c, nil
}

// Validate checks that every station has an ID, a name, and that IDs are unique.
func (c Catalog) Validate() error {
	if len(c.Stations) == 0 {
		return errors.New("no stations defined")
	}
	seen := make(map[string]bool, len(c.Stations))
	for i, s := range c.Stations {
		id := strings.TrimSpace(s.ID)
		if id == "" {
			return fmt.Errorf("station %d: id is required", i)
		}
		if strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("station %s: name is required", id)
		}
		if seen[id] {
			return fmt.Errorf("station %s: duplicate id", id)
		}
		seen[id] = true
	}
	return nil
}

// Lookup finds a station by ID. Stations without an MSL column get the NOAA default.
func (c Catalog) Lookup(id string) (domain.Station, bool) {
	for _, s := range c.Stations {
		if s.ID == id {
			if s.MSLColumn == "" {
				s.MSLColumn = domain.DefaultStation.MSLColumn
			}
			return s, true
		}
	}
	return domain.Station{}, false
}
