package conditions

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Canonical identifiers of the Vermont roster.
const (
	Killington     = "KILLINGTON"
	Stowe          = "STOWE"
	Sugarbush      = "SUGARBUSH"
	Okemo          = "OKEMO"
	MountSnow      = "MOUNT_SNOW"
	JayPeak        = "JAY_PEAK"
	Stratton       = "STRATTON"
	SmugglersNotch = "SMUGGLERS_NOTCH"
	BoltonValley   = "BOLTON_VALLEY"
	MadRiverGlen   = "MAD_RIVER_GLEN"
	Burke          = "BURKE"
	Pico           = "PICO"
	Bromley        = "BROMLEY"
	Magic          = "MAGIC"
)

// knownVariants lists every upstream spelling observed so far. Extend it
// (or the roster file's aliases) when run logs report an unmapped name.
var knownVariants = map[string][]string{
	Killington:     {"Killington", "Killington Resort", "Killington Ski Resort", "Killington Mountain Resort"},
	Stowe:          {"Stowe", "Stowe Mountain Resort", "Stowe Mountain"},
	Sugarbush:      {"Sugarbush", "Sugarbush Resort", "Sugarbush Mountain"},
	Okemo:          {"Okemo", "Okemo Mountain Resort", "Okemo Mountain"},
	MountSnow:      {"Mount Snow", "Mt. Snow", "Mt Snow", "Mount Snow Resort"},
	JayPeak:        {"Jay Peak", "Jay Peak Resort"},
	Stratton:       {"Stratton", "Stratton Mountain", "Stratton Mountain Resort"},
	SmugglersNotch: {"Smugglers' Notch", "Smugglers Notch", "Smuggler's Notch", "Smugglers' Notch Resort", "Smugglers Notch Resort"},
	BoltonValley:   {"Bolton Valley", "Bolton Valley Resort"},
	MadRiverGlen:   {"Mad River Glen", "Mad River Glen Cooperative"},
	Burke:          {"Burke", "Burke Mountain", "Burke Mountain Resort", "Q Burke", "Q Burke Mountain Resort"},
	Pico:           {"Pico", "Pico Mountain", "Pico Mountain at Killington"},
	Bromley:        {"Bromley", "Bromley Mountain", "Bromley Mountain Resort"},
	Magic:          {"Magic", "Magic Mountain", "Magic Mountain Ski Area"},
}

// Registry maps provider-observed names to canonical identifiers.
// It is append-only: a variant, once mapped, can never point elsewhere.
// Construct it once at startup and share it by reference.
type Registry struct {
	mu     sync.RWMutex
	ids    map[string]struct{}
	exact  map[string]string
	folded map[string]string
}

// NewRegistry creates an empty registry over a closed set of identifiers.
// Each identifier resolves to itself.
func NewRegistry(ids ...string) *Registry {
	r := &Registry{
		ids:    make(map[string]struct{}, len(ids)),
		exact:  make(map[string]string),
		folded: make(map[string]string),
	}
	for _, id := range ids {
		r.ids[id] = struct{}{}
		r.exact[id] = id
		r.folded[fold(id)] = id
	}
	return r
}

// DefaultRegistry returns a registry preloaded with the Vermont roster.
func DefaultRegistry() *Registry {
	return registryFrom(knownVariants)
}

// registryFrom panics when the table maps one variant to two identifiers.
func registryFrom(table map[string][]string) *Registry {
	ids := make([]string, 0, len(table))
	for id := range table {
		ids = append(ids, id)
	}
	r := NewRegistry(ids...)
	for id, variants := range table {
		for _, v := range variants {
			if err := r.Add(v, id); err != nil {
				panic(fmt.Sprintf("built-in name table: %v", err))
			}
		}
	}
	return r
}

// Add maps variant to id.
func (r *Registry) Add(variant, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.ids[id]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownIdentifier, id)
	}
	if prev, ok := r.exact[variant]; ok && prev != id {
		return fmt.Errorf("%w: %q -> %s, not %s", ErrAliasConflict, variant, prev, id)
	}
	f := fold(variant)
	if prev, ok := r.folded[f]; ok && prev != id {
		return fmt.Errorf("%w: %q -> %s, not %s", ErrAliasConflict, variant, prev, id)
	}
	r.exact[variant] = id
	r.folded[f] = id
	return nil
}

// Resolve returns the canonical identifier for raw. It tries the raw string,
// then the trimmed string, then a case- and whitespace-folded form.
func (r *Registry) Resolve(raw string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if id, ok := r.exact[raw]; ok {
		return id, nil
	}
	if id, ok := r.exact[strings.TrimSpace(raw)]; ok {
		return id, nil
	}
	if id, ok := r.folded[fold(raw)]; ok {
		return id, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnmappedName, raw)
}

// Identifiers returns the closed set of canonical identifiers, sorted.
func (r *Registry) Identifiers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.ids))
	for id := range r.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func fold(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
