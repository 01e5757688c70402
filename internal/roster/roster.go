// Package roster describes which upstream providers feed the pipeline and
// which extra name variants the resolver should accept.
package roster

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/i474232898/ski-conditions-aggregation/internal/conditions"
)

// Kind selects the adapter used for an entry.
type Kind string

const (
	KindSnoCountry Kind = "snocountry"
	KindJSON       Kind = "json"
	KindHTML       Kind = "html"
)

// Entry configures one provider.
type Entry struct {
	ID              string            `yaml:"id" validate:"required"`
	Name            string            `yaml:"name" validate:"required"`
	Kind            Kind              `yaml:"kind" validate:"required,oneof=snocountry json html"`
	URL             string            `yaml:"url" validate:"omitempty,url"`
	Fallback        string            `yaml:"fallback" validate:"omitempty,url"`
	ResortID        string            `yaml:"resort_id"`
	Unit            conditions.Unit   `yaml:"unit" validate:"omitempty,oneof=in cm"`
	Root            string            `yaml:"root"`
	StatusThreshold *int              `yaml:"status_threshold"`
	Selectors       map[string]string `yaml:"selectors"`
}

// File is the on-disk roster.
type File struct {
	// Aliases maps an observed upstream name to a canonical identifier.
	Aliases   map[string]string `yaml:"aliases"`
	Providers []Entry           `yaml:"providers" validate:"required,min=1,dive"`
}

var (
	ErrInvalid = errors.New("invalid roster")

	validate = validator.New()
)

// Load reads and validates a YAML roster.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}
	return Parse(bytes.NewReader(data))
}

// Parse decodes a YAML roster. Unknown keys are rejected.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := validate.Struct(f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return &f, nil
}

// ApplyAliases registers every alias with reg, in sorted order.
func (f *File) ApplyAliases(reg *conditions.Registry) error {
	variants := make([]string, 0, len(f.Aliases))
	for v := range f.Aliases {
		variants = append(variants, v)
	}
	sort.Strings(variants)

	for _, v := range variants {
		if err := reg.Add(v, f.Aliases[v]); err != nil {
			return fmt.Errorf("alias %q: %w", v, err)
		}
	}
	return nil
}

// Validate checks what the struct tags cannot: unique ids, kind-specific
// fields, known selector fields, and that every configured name resolves.
func (f *File) Validate(reg *conditions.Registry) error {
	var problems []string
	seen := make(map[string]struct{}, len(f.Providers))

	for _, e := range f.Providers {
		if _, dup := seen[e.ID]; dup {
			problems = append(problems, fmt.Sprintf("%s: duplicate id", e.ID))
		}
		seen[e.ID] = struct{}{}

		switch e.Kind {
		case KindSnoCountry:
			if e.ResortID == "" {
				problems = append(problems, fmt.Sprintf("%s: resort_id is required for snocountry", e.ID))
			}
		case KindJSON, KindHTML:
			if e.URL == "" {
				problems = append(problems, fmt.Sprintf("%s: url is required for %s", e.ID, e.Kind))
			}
		}
		if e.Kind == KindHTML && len(e.Selectors) == 0 {
			problems = append(problems, fmt.Sprintf("%s: selectors are required for html", e.ID))
		}
		for key := range e.Selectors {
			if !knownField(conditions.Field(key)) {
				problems = append(problems, fmt.Sprintf("%s: unknown selector field %q", e.ID, key))
			}
		}

		if _, err := reg.Resolve(e.Name); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", e.ID, err))
		}
	}

	if len(problems) > 0 {
		sort.Strings(problems)
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// Select returns a copy of f holding only the entries with the given ids.
func (f *File) Select(ids ...string) (*File, error) {
	index := make(map[string]Entry, len(f.Providers))
	for _, e := range f.Providers {
		index[e.ID] = e
	}

	out := &File{Aliases: f.Aliases}
	for _, id := range ids {
		e, ok := index[id]
		if !ok {
			return nil, fmt.Errorf("%w: no provider with id %q", ErrInvalid, id)
		}
		out.Providers = append(out.Providers, e)
	}
	return out, nil
}

// FieldSelectors converts the entry's selector keys to record fields.
func (e Entry) FieldSelectors() map[conditions.Field]string {
	if len(e.Selectors) == 0 {
		return nil
	}
	out := make(map[conditions.Field]string, len(e.Selectors))
	for k, v := range e.Selectors {
		out[conditions.Field(k)] = v
	}
	return out
}

func knownField(f conditions.Field) bool {
	switch f {
	case conditions.FieldName, conditions.FieldBase, conditions.FieldSummit,
		conditions.FieldNewSnow24, conditions.FieldNewSnow48, conditions.FieldNewSnow7d,
		conditions.FieldSeason, conditions.FieldTrailsOpen, conditions.FieldTrailsTotal,
		conditions.FieldLiftsOpen, conditions.FieldLiftsTotal, conditions.FieldTrails,
		conditions.FieldLifts, conditions.FieldSurface, conditions.FieldStatus:
		return true
	}
	return false
}

// LoadOrDefault loads path, or returns the built-in roster when path is empty.
func LoadOrDefault(path string) (*File, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Install registers the roster's aliases with reg, then validates the roster
// against the extended registry.
func (f *File) Install(reg *conditions.Registry) error {
	if err := f.ApplyAliases(reg); err != nil {
		return err
	}
	return f.Validate(reg)
}
