// Package site holds the catalog of named Mars surface locations the
// service reports clock time for. Longitude is degrees East (the only
// field the conversion uses); latitude is carried for display only.
package site

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Site is a named planetographic location.
type Site struct {
	Name       string  `yaml:"name" json:"name"`
	LongitudeE float64 `yaml:"longitude_e" json:"longitude_e"`
	// Latitude has no effect on any time conversion; it is recorded for
	// presentation alongside the site name.
	Latitude float64 `yaml:"latitude" json:"latitude"`
}

// Defaults returns the built-in catalog: five well-known landing sites
// and landmarks.
func Defaults() []Site {
	return []Site{
		{Name: "Meridiani Planum", LongitudeE: 6.1, Latitude: -1.9},
		{Name: "Gale Crater", LongitudeE: 137.4, Latitude: -4.5},
		{Name: "Jezero Crater", LongitudeE: 77.5, Latitude: 18.4},
		{Name: "Elysium Planitia", LongitudeE: 135.9, Latitude: 4.5},
		{Name: "Olympus Mons", LongitudeE: 226.2, Latitude: 18.7},
	}
}

// catalogFile is the YAML layout of a site catalog override file.
type catalogFile struct {
	Sites []Site `yaml:"sites"`
}

// Load reads a site catalog from a YAML file. An empty catalog is an
// error; a file that cannot be read is reported to the caller, which
// decides whether to fall back to Defaults.
func Load(path string) ([]Site, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading site catalog: %w", err)
	}

	var cf catalogFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parsing site catalog: %w", err)
	}
	if len(cf.Sites) == 0 {
		return nil, fmt.Errorf("site catalog %s contains no sites", path)
	}

	for i, s := range cf.Sites {
		if s.Name == "" {
			return nil, fmt.Errorf("site %d in %s has no name", i, path)
		}
	}

	return cf.Sites, nil
}
