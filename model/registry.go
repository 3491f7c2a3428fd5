// registry.go - Globale Registry der Modell-Beschreibungen
//
// Modelle registrieren sich in init() ueber MustRegister. Die Registry
// ist nach Namen sortiert, damit List und die CLI stabile Ausgaben liefern.
package model

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/emirpasic/gods/v2/maps/treemap"
)

var registry = struct {
	sync.RWMutex
	models *treemap.Map[string, *Info]
}{models: treemap.New[string, *Info]()}

// Register validiert info und nimmt es in die Registry auf
func Register(info *Info) error {
	if err := info.Validate(); err != nil {
		return err
	}

	registry.Lock()
	defer registry.Unlock()

	if _, exists := registry.models.Get(info.Name); exists {
		return &DescriptorError{Model: info.Name, Reason: "already registered"}
	}
	registry.models.Put(info.Name, info)
	slog.Debug("registered model", "name", info.Name, "parameters", len(info.Parameters))
	return nil
}

// MustRegister ist Register fuer eingebaute Modelle; Fehler sind
// Programmierfehler
func MustRegister(info *Info) {
	if err := Register(info); err != nil {
		panic(fmt.Sprintf("model: %v", err))
	}
}

// Lookup gibt das registrierte Modell name zurueck
func Lookup(name string) (*Info, error) {
	registry.RLock()
	defer registry.RUnlock()

	if info, ok := registry.models.Get(name); ok {
		return info, nil
	}
	return nil, unknownModel(name, registry.models.Keys())
}

// List gibt alle Modelle nach Namen sortiert zurueck
func List() []*Info {
	registry.RLock()
	defer registry.RUnlock()
	return registry.models.Values()
}

// Names gibt alle Modellnamen sortiert zurueck
func Names() []string {
	registry.RLock()
	defer registry.RUnlock()
	return registry.models.Keys()
}

