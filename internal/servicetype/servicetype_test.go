package servicetype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		phrase  string
		wantKey string
	}{
		{"cambio de aceite", "cambio_aceite"},
		{"quiero un cambio de aceite para mi coche", "cambio_aceite"},
		{"Cambio De Aceite", "cambio_aceite"},
		{"necesito aceite", "cambio_aceite"},
		{"revisión general", "revision_general"},
		{"una revision completa por favor", "revision_general"},
		{"alineación", "alineacion"},
		{"quiero alinear las llantas", "alineacion"},
		{"balanceo", "balanceo"},
		{"mantenimiento preventivo", "mantenimiento_preventivo"},
		{"el servicio de los 50,000 km", "mantenimiento_preventivo"},
		{"cambio_aceite", "cambio_aceite"},
	}

	for _, tt := range tests {
		t.Run(tt.phrase, func(t *testing.T) {
			s, ok := Match(tt.phrase)
			require.True(t, ok, "phrase %q should match", tt.phrase)
			assert.Equal(t, tt.wantKey, s.Key)
		})
	}
}

func TestMatchUnknown(t *testing.T) {
	for _, phrase := range []string{"", "   ", "lavado de coche", "pintura"} {
		_, ok := Match(phrase)
		assert.False(t, ok, "phrase %q should not match", phrase)
	}
}

func TestByKey(t *testing.T) {
	s, ok := ByKey("revision_general")
	require.True(t, ok)
	assert.Equal(t, "Revisión general", s.Name)
	assert.Equal(t, 90, s.DurationMinutes)

	_, ok = ByKey("nope")
	assert.False(t, ok)
}

func TestAllIsACopy(t *testing.T) {
	all := All()
	require.NotEmpty(t, all)
	all[0].Name = "mutated"

	again := All()
	assert.NotEqual(t, "mutated", again[0].Name)
}
