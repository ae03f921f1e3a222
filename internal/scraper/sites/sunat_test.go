package sites

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func pageWith(values map[string]string) func(sel string) (string, bool) {
	return func(sel string) (string, bool) {
		value, ok := values[sel]
		return value, ok
	}
}

func TestResolveFieldPrefersFirstSelector(t *testing.T) {
	spec := fieldSpec{name: "estado", selectors: []string{"#a", "#b"}}
	get := pageWith(map[string]string{"#a": "ACTIVO", "#b": "BAJA"})

	value, ok := resolveField(get, spec)
	assert.True(t, ok)
	assert.Equal(t, "ACTIVO", value)
}

func TestResolveFieldFallsBack(t *testing.T) {
	spec := fieldSpec{name: "domicilio", selectors: []string{"#a", "#b"}}

	value, ok := resolveField(pageWith(map[string]string{"#b": "AV. AREQUIPA 123"}), spec)
	assert.True(t, ok)
	assert.Equal(t, "AV. AREQUIPA 123", value)

	// An empty node is a miss, not a hit.
	value, ok = resolveField(pageWith(map[string]string{"#a": "", "#b": "AV. AREQUIPA 123"}), spec)
	assert.True(t, ok)
	assert.Equal(t, "AV. AREQUIPA 123", value)
}

func TestResolveFieldWholeChainMisses(t *testing.T) {
	spec := fieldSpec{name: "nombre_comercial", selectors: []string{"#a", "#b"}}

	value, ok := resolveField(pageWith(nil), spec)
	assert.False(t, ok)
	assert.Empty(t, value)
}

func TestSunatFieldChainsAreOrdered(t *testing.T) {
	// Every field resolves top-down; fields with layout-dependent
	// positions carry the shifted selector second.
	for _, spec := range sunatFields {
		assert.NotEmpty(t, spec.selectors, spec.name)
		seen := map[string]bool{}
		for _, sel := range spec.selectors {
			assert.False(t, seen[sel], "duplicate selector in %s chain", spec.name)
			seen[sel] = true
		}
	}
}
