// Package servicetype holds the shop's service catalog: immutable reference
// data mapping each service to its nominal duration and the Spanish surface
// phrases users type for it.
package servicetype

import "strings"

// Service is a bookable service type.
type Service struct {
	Key             string
	Name            string
	DurationMinutes int

	phrases []string
}

var catalog = []Service{
	{
		Key: "cambio_aceite", Name: "Cambio de aceite", DurationMinutes: 60,
		phrases: []string{"cambio de aceite", "cambio aceite", "aceite y filtro", "aceite"},
	},
	{
		Key: "revision_general", Name: "Revisión general", DurationMinutes: 90,
		phrases: []string{"revision general", "revision completa", "diagnostico general", "revision", "general"},
	},
	{
		Key: "alineacion", Name: "Alineación", DurationMinutes: 45,
		phrases: []string{"alineacion", "alinear las llantas", "alinear"},
	},
	{
		Key: "balanceo", Name: "Balanceo", DurationMinutes: 45,
		phrases: []string{"balanceo", "balancear"},
	},
	{
		Key: "mantenimiento_preventivo", Name: "Mantenimiento preventivo", DurationMinutes: 120,
		phrases: []string{"mantenimiento preventivo", "mantenimiento", "preventivo", "50,000 km"},
	},
}

var accentFold = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u", "ñ", "n",
)

func normalize(s string) string {
	return accentFold.Replace(strings.ToLower(strings.TrimSpace(s)))
}

// All returns the full catalog.
func All() []Service {
	out := make([]Service, len(catalog))
	copy(out, catalog)
	return out
}

// ByKey looks a service up by its canonical key.
func ByKey(key string) (Service, bool) {
	for _, s := range catalog {
		if s.Key == key {
			return s, true
		}
	}
	return Service{}, false
}

// Match resolves a free-form phrase to a catalog service by normalized
// substring containment. Longer, more specific phrases are listed first per
// service so "cambio de aceite" wins over the bare "aceite".
func Match(raw string) (Service, bool) {
	needle := normalize(raw)
	if needle == "" {
		return Service{}, false
	}
	if s, ok := ByKey(needle); ok {
		return s, true
	}
	for _, s := range catalog {
		for _, p := range s.phrases {
			if strings.Contains(needle, p) {
				return s, true
			}
		}
	}
	return Service{}, false
}
