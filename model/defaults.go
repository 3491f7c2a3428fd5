// defaults.go - Geordnete Standardwerte eines Modells
package model

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Defaults gibt die Standardwerte aller Parameter in Layout-Reihenfolge
// zurueck (scale, background, Tabelle, magnetische Parameter). Die
// Reihenfolge bleibt bei JSON-Ausgabe erhalten.
func (i *Info) Defaults() *orderedmap.OrderedMap[string, float64] {
	all := i.AllParameters()
	m := orderedmap.New[string, float64]()
	for _, p := range all {
		m.Set(p.Name, p.Default)
	}
	return m
}
