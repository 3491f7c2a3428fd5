// routes_models.go - Handler fuer Modell-Liste, Modell-Details und Backends
// Enthaelt: ListHandler(), ShowHandler(), BackendsHandler(), toParameters()

package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sasview/sasmodels/api"
	"github.com/sasview/sasmodels/model"
)

// ListHandler listet alle registrierten Modelle nach Namen sortiert
func (s *Server) ListHandler(c *gin.Context) {
	infos := model.List()
	models := make([]api.ModelSummary, 0, len(infos))
	for _, info := range infos {
		models = append(models, api.ModelSummary{
			Name:       info.Name,
			Title:      info.Title,
			Category:   info.Category,
			Parameters: len(info.Parameters),
			Magnetic:   info.IsMagnetic(),
			Host:       info.Host != nil,
		})
	}
	c.JSON(http.StatusOK, api.ListResponse{Models: models})
}

// ShowHandler gibt Parametertabelle und Metadaten eines Modells zurueck
func (s *Server) ShowHandler(c *gin.Context) {
	info, err := model.Lookup(c.Param("name"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	resp := api.ShowResponse{
		Name:            info.Name,
		Title:           info.Title,
		Description:     info.Description,
		Category:        info.Category,
		Parameters:      toParameters(append(append([]model.Parameter{}, model.Common...), info.Parameters...)),
		Demo:            info.Demo,
		Tests:           len(info.Tests),
		NormalizeVolume: info.NormalizeVolume,
		EffectiveRadius: info.ER != nil,
	}
	if info.IsMagnetic() {
		resp.Magnetic = toParameters(info.MagneticParameters())
	}
	c.JSON(http.StatusOK, resp)
}

// BackendsHandler meldet die geoeffneten und die nicht verfuegbaren Backends
func (s *Server) BackendsHandler(c *gin.Context) {
	resp := api.BackendsResponse{
		Precision: s.engine.Precision(),
		Backends:  s.engine.Backends(),
	}
	for _, a := range s.engine.Unavailable() {
		resp.Unavailable = append(resp.Unavailable, api.UnavailableBackend{Name: a.Backend, Error: a.Err.Error()})
	}
	c.JSON(http.StatusOK, resp)
}

func toParameters(ps []model.Parameter) []api.Parameter {
	out := make([]api.Parameter, len(ps))
	for i, p := range ps {
		out[i] = api.Parameter{
			Name:        p.Name,
			Units:       p.Units,
			Default:     p.Default,
			Limits:      [2]api.Bound{api.Bound(p.Limits[0]), api.Bound(p.Limits[1])},
			Kind:        string(p.Kind),
			Description: p.Description,
		}
	}
	return out
}
