// routes_eval.go - Handler fuer Auswertung, effektiven Radius, Quelltext und Selbsttest
// Enthaelt: EvalHandler(), RadiusHandler(), SourceHandler(), TestHandler(), buildResolution()

package server

import (
	"errors"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sasview/sasmodels/api"
	"github.com/sasview/sasmodels/core"
	"github.com/sasview/sasmodels/generate"
	"github.com/sasview/sasmodels/kernel"
	"github.com/sasview/sasmodels/model"
	"github.com/sasview/sasmodels/resolution"
)

// EvalHandler wertet ein Modell an den angefragten Q-Punkten aus
func (s *Server) EvalHandler(c *gin.Context) {
	start := time.Now()

	var req api.EvalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, invalid(err))
		return
	}

	info, err := model.Lookup(req.Model)
	if err != nil {
		abortWithError(c, err)
		return
	}

	params, err := core.ParseFlat(info, req.Params)
	if err != nil {
		abortWithError(c, err)
		return
	}

	q := kernel.Q1D(req.Q)
	if req.Qx != nil || req.Qy != nil {
		if req.Q != nil {
			abortWithError(c, invalid(errors.New("q and qx/qy are mutually exclusive")))
			return
		}
		q = kernel.Q2D(req.Qx, req.Qy)
	}
	if err := q.Validate(); err != nil {
		abortWithError(c, invalid(err))
		return
	}

	opts := []core.EvalOption{}

	precision := s.engine.Precision()
	if req.Precision != "" {
		if precision, err = kernel.ParsePrecision(req.Precision); err != nil {
			abortWithError(c, invalid(err))
			return
		}
		opts = append(opts, core.AtPrecision(precision))
	}

	if req.Backend != "" && req.Backend != "auto" {
		name, err := kernel.ParseName(req.Backend)
		if err != nil {
			abortWithError(c, invalid(err))
			return
		}
		opts = append(opts, core.OnBackend(name))
	}

	if req.Resolution != nil {
		res, err := buildResolution(q, req.Resolution)
		if err != nil {
			abortWithError(c, invalid(err))
			return
		}
		opts = append(opts, core.WithResolution(res))
	}

	intensity, err := s.engine.EvaluateInfo(c.Request.Context(), info, q, params, opts...)
	if err != nil {
		abortWithError(c, err)
		return
	}

	// JSON kennt kein Unendlich
	for i, v := range intensity {
		if math.IsInf(v, 0) {
			abortWithError(c, &kernel.EvaluationError{Model: info.Name, Index: i, Err: errors.New("result is infinite")})
			return
		}
	}

	c.JSON(http.StatusOK, api.EvalResponse{
		Model:         info.Name,
		Precision:     precision,
		Intensity:     intensity,
		TotalDuration: time.Since(start),
	})
}

// buildResolution waehlt die Aufloesung passend zu den gesetzten Feldern
func buildResolution(q kernel.Q, r *api.Resolution) (resolution.Resolution, error) {
	switch {
	case r.SESANS != nil:
		if q.Is2D() {
			return nil, errors.New("SESANS requires spin echo lengths in q")
		}
		return resolution.NewSESANS(q.Q, r.SESANS.Wavelength, r.SESANS.Thickness, r.SESANS.QMax, r.SESANS.RMax)
	case q.Is2D():
		if r.DQr == nil {
			return nil, errors.New("2D resolution requires dqr")
		}
		dqphi := r.DQphi
		if dqphi == nil {
			dqphi = make([]float64, len(r.DQr))
		}
		return resolution.NewPinhole2D(q.Qx, q.Qy, r.DQr, dqphi)
	case r.DQ != nil:
		return resolution.NewPinhole1D(q.Q, r.DQ)
	case r.SlitWidth != 0 || r.SlitHeight != 0:
		return resolution.NewSlit1D(q.Q, r.SlitWidth, r.SlitHeight)
	}
	return resolution.NewPerfect(q), nil
}

// RadiusHandler berechnet den effektiven Radius eines Modells
func (s *Server) RadiusHandler(c *gin.Context) {
	var req api.RadiusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, invalid(err))
		return
	}

	info, err := model.Lookup(req.Model)
	if err != nil {
		abortWithError(c, err)
		return
	}

	params, err := core.ParseFlat(info, req.Params)
	if err != nil {
		abortWithError(c, err)
		return
	}

	radius, err := core.EffectiveRadius(info, params)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.RadiusResponse{Model: info.Name, Radius: radius})
}

// SourceHandler gibt den erzeugten Kernel-Quelltext zurueck
func (s *Server) SourceHandler(c *gin.Context) {
	var req api.SourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, invalid(err))
		return
	}

	info, err := model.Lookup(req.Model)
	if err != nil {
		abortWithError(c, err)
		return
	}

	target, err := generate.ParseTarget(req.Lang, req.Precision, req.Loop)
	if err != nil {
		abortWithError(c, invalid(err))
		return
	}

	src, err := generate.Generate(info, target)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.SourceResponse{
		Model:   info.Name,
		Target:  target.String(),
		Hash:    src.Hash,
		Options: src.Options,
		Code:    src.Code,
	})
}

// TestHandler fuehrt die Referenztests auf allen geoeffneten Backends aus
func (s *Server) TestHandler(c *gin.Context) {
	var req api.TestRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		abortWithError(c, invalid(err))
		return
	}

	infos := model.List()
	if len(req.Models) > 0 {
		infos = nil
		for _, name := range req.Models {
			info, err := model.Lookup(name)
			if err != nil {
				abortWithError(c, err)
				return
			}
			infos = append(infos, info)
		}
	}

	precision := s.engine.Precision()
	if req.Precision != "" {
		var err error
		if precision, err = kernel.ParsePrecision(req.Precision); err != nil {
			abortWithError(c, invalid(err))
			return
		}
	}

	results, err := s.engine.SelfTest(c.Request.Context(), infos, precision)
	if err != nil {
		abortWithError(c, err)
		return
	}

	var resp api.TestResponse
	for _, r := range results {
		tr := api.TestResult{
			Model:     r.Model,
			Backend:   r.Backend,
			Precision: r.Precision,
			Index:     r.Index,
			MaxError:  r.MaxError,
			Skipped:   r.Skipped,
			Passed:    r.Passed(),
		}
		if r.Err != nil {
			tr.Error = r.Err.Error()
		}
		if math.IsNaN(tr.MaxError) || math.IsInf(tr.MaxError, 0) {
			tr.MaxError = -1
		}
		if !tr.Passed {
			resp.Failed++
		}
		resp.Results = append(resp.Results, tr)
	}
	c.JSON(http.StatusOK, resp)
}
