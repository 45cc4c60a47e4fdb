// Package export writes brand collections out as spreadsheets, YAML or
// JSON, and reads YAML catalogues back in.
package export

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/jeanpaul/sakemate/internal/types"
)

type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatXLSX, FormatYAML, FormatJSON:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want xlsx, yaml or json)", s)
	}
}

// Entry is one brand in a YAML catalogue. A nil FlavorProfile means the
// profile should be looked up on import.
type Entry struct {
	Name          string               `yaml:"name" json:"name"`
	Brewery       string               `yaml:"brewery,omitempty" json:"brewery,omitempty"`
	Region        string               `yaml:"region,omitempty" json:"region,omitempty"`
	FlavorProfile *types.FlavorProfile `yaml:"flavorProfile,omitempty" json:"flavorProfile,omitempty"`
}

type catalogue struct {
	Brands []Entry `yaml:"brands"`
}

type snapshot struct {
	Users  []types.User      `json:"users"`
	Brands []types.SakeBrand `json:"brands"`
}

// Write dispatches to the writer for f.
func Write(w io.Writer, f Format, users []types.User, brands []types.SakeBrand) error {
	switch f {
	case FormatXLSX:
		return WriteXLSX(w, users, brands)
	case FormatYAML:
		return WriteYAML(w, brands)
	case FormatJSON:
		return WriteJSON(w, users, brands)
	}
	return fmt.Errorf("unknown export format %q", f)
}

// WriteJSON dumps users and brands as a single document.
func WriteJSON(w io.Writer, users []types.User, brands []types.SakeBrand) error {
	if users == nil {
		users = []types.User{}
	}
	if brands == nil {
		brands = []types.SakeBrand{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snapshot{Users: users, Brands: brands})
}

// WriteYAML writes brands as a catalogue that ReadYAML accepts. Ownership
// and ids are not part of a catalogue.
func WriteYAML(w io.Writer, brands []types.SakeBrand) error {
	c := catalogue{Brands: make([]Entry, 0, len(brands))}
	for _, b := range brands {
		fp := b.FlavorProfile
		c.Brands = append(c.Brands, Entry{Name: b.Name, Brewery: b.Brewery, Region: b.Region, FlavorProfile: &fp})
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encode catalogue: %w", err)
	}
	return enc.Close()
}

// ReadYAML parses a catalogue. Entries without a name are rejected.
func ReadYAML(r io.Reader) ([]Entry, error) {
	var c catalogue
	if err := yaml.NewDecoder(r).Decode(&c); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("parse catalogue: %w", err)
	}
	for i := range c.Brands {
		c.Brands[i].Name = strings.TrimSpace(c.Brands[i].Name)
		if c.Brands[i].Name == "" {
			return nil, fmt.Errorf("catalogue entry %d has no name", i+1)
		}
	}
	return c.Brands, nil
}

// Analyzer looks up what is known about a brand name.
type Analyzer interface {
	AnalyzeSakeBrand(ctx context.Context, brandName string) types.BrandAnalysis
}

// BrandAdder persists a brand.
type BrandAdder interface {
	AddBrand(ctx context.Context, brand types.SakeBrand) error
}

// Import adds entries as brands of userID. Entries that carry a flavor
// profile are stored as written; the rest go through the analyzer. It stops
// at the first write error and returns how many brands were added.
func Import(ctx context.Context, dst BrandAdder, a Analyzer, userID string, entries []Entry) (int, error) {
	added := 0
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return added, err
		}
		var analysis types.BrandAnalysis
		if e.FlavorProfile != nil {
			analysis = types.BrandAnalysis{IdentifiedName: e.Name, Brewery: e.Brewery, Region: e.Region, FlavorProfile: *e.FlavorProfile}
		} else {
			analysis = a.AnalyzeSakeBrand(ctx, e.Name)
			if err := ctx.Err(); err != nil {
				return added, err
			}
			if e.Brewery != "" {
				analysis.Brewery = e.Brewery
			}
			if e.Region != "" {
				analysis.Region = e.Region
			}
		}
		if err := dst.AddBrand(ctx, types.NewBrand(userID, analysis)); err != nil {
			return added, fmt.Errorf("import %q: %w", e.Name, err)
		}
		added++
	}
	return added, nil
}
