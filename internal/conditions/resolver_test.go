package conditions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistryHasNoConflicts(t *testing.T) {
	ids := make([]string, 0, len(knownVariants))
	for id := range knownVariants {
		ids = append(ids, id)
	}
	r := NewRegistry(ids...)
	for id, variants := range knownVariants {
		for _, v := range variants {
			require.NoError(t, r.Add(v, id), "variant %q", v)
		}
	}
}

func TestConflictingNameTablePanics(t *testing.T) {
	assert.NotPanics(t, func() { DefaultRegistry() })
	assert.Panics(t, func() {
		registryFrom(map[string][]string{
			Stowe: {"Stowe Mountain"},
			Okemo: {"stowe  mountain"},
		})
	})
}

func TestResolveTrimsAndFolds(t *testing.T) {
	r := DefaultRegistry()

	tests := map[string]string{
		"Killington Resort":               Killington,
		"  Killington Resort  ":           Killington,
		"killington   RESORT":             Killington,
		"Smugglers' Notch Resort":         SmugglersNotch,
		"Mt. Snow":                        MountSnow,
		"MAD_RIVER_GLEN":                  MadRiverGlen,
		"\tPico Mountain at Killington\n": Pico,
	}
	for raw, want := range tests {
		got, err := r.Resolve(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}
}

func TestResolveRejectsUnknownNames(t *testing.T) {
	r := DefaultRegistry()

	_, err := r.Resolve("Whistler Blackcomb")
	assert.ErrorIs(t, err, ErrUnmappedName)

	_, err = r.Resolve("")
	assert.ErrorIs(t, err, ErrUnmappedName)
}

func TestRegistryAddIsAppendOnly(t *testing.T) {
	r := NewRegistry(Killington, Pico)

	require.NoError(t, r.Add("The Beast", Killington))
	require.NoError(t, r.Add("The Beast", Killington), "re-adding the same mapping is a no-op")

	err := r.Add("the beast", Pico)
	assert.ErrorIs(t, err, ErrAliasConflict)

	err = r.Add("Whiteface", "WHITEFACE")
	assert.ErrorIs(t, err, ErrUnknownIdentifier)

	got, err := r.Resolve("THE BEAST")
	require.NoError(t, err)
	assert.Equal(t, Killington, got)
}

func TestIdentifiersIsTheClosedSet(t *testing.T) {
	ids := DefaultRegistry().Identifiers()

	assert.Len(t, ids, 14)
	assert.IsIncreasing(t, ids)
	assert.Contains(t, ids, Killington)
	assert.Contains(t, ids, Magic)
}
