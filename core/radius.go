// radius.go - Effektiver Radius unter Dispersion
package core

import (
	"errors"
	"fmt"

	"github.com/sasview/sasmodels/dispersion"
	"github.com/sasview/sasmodels/model"
)

// ErrNoEffectiveRadius meldet ein Modell ohne ER-Funktion
var ErrNoEffectiveRadius = errors.New("model has no effective radius")

// EffectiveRadius gibt den mit der Volumendispersion gewichteten
// Mittelwert von info.ER zurueck
func EffectiveRadius(info *model.Info, params Parameters) (float64, error) {
	if info.ER == nil {
		return 0, fmt.Errorf("%s: %w", info.Name, ErrNoEffectiveRadius)
	}

	call, err := params.Resolve(info)
	if err != nil {
		return 0, err
	}

	var sets []dispersion.WeightSet
	for k, p := range info.Parameters {
		if p.Kind != model.KindVolume {
			continue
		}
		set := dispersion.Point(call.Values[len(model.Common)+k])
		if len(call.Dispersion) > 0 && call.Dispersion[k].Len() > 0 {
			set = call.Dispersion[k]
		}
		sets = append(sets, set)
	}

	volume := make([]float64, len(sets))
	var sum, norm float64
	c := dispersion.NewCursor(sets)
	for c.Next() {
		for i := range sets {
			volume[i] = c.Value(i)
		}
		w := c.Weight()
		sum += w * info.ER(volume)
		norm += w
	}

	if norm == 0 {
		return 0, nil
	}
	return sum / norm, nil
}

// EffectiveRadius ist EffectiveRadius fuer das registrierte Modell name
func (e *Engine) EffectiveRadius(name string, params Parameters) (float64, error) {
	info, err := model.Lookup(name)
	if err != nil {
		return 0, err
	}
	return EffectiveRadius(info, params)
}
