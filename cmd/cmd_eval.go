// cmd_eval.go - Eval Command
// Hauptfunktionen: EvalHandler, buildQ, evalRemote
package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"math"

	"github.com/spf13/cobra"

	"github.com/sasview/sasmodels/api"
	"github.com/sasview/sasmodels/core"
	"github.com/sasview/sasmodels/kernel"
	"github.com/sasview/sasmodels/model"
	"github.com/sasview/sasmodels/resolution"
)

// evalResult ist die Ausgabe von eval --json
type evalResult struct {
	Model     string    `json:"model"`
	Q         []float64 `json:"q,omitempty"`
	Qx        []float64 `json:"qx,omitempty"`
	Qy        []float64 `json:"qy,omitempty"`
	Intensity []float64 `json:"intensity"`
	Radius    *float64  `json:"effective_radius,omitempty"`
}

// EvalHandler - Wertet ein Modell lokal oder auf dem Server aus
func EvalHandler(cmd *cobra.Command, args []string) error {
	info, err := model.Lookup(args[0])
	if err != nil {
		return err
	}

	flat := make(map[string]any)
	if demo, _ := cmd.Flags().GetBool("demo"); demo {
		maps.Copy(flat, info.Demo)
	}
	overrides, err := parseAssignments(args[1:])
	if err != nil {
		return err
	}
	maps.Copy(flat, overrides)

	q, err := buildQ(cmd)
	if err != nil {
		return err
	}

	res, err := buildResolution(cmd, q)
	if err != nil {
		return err
	}

	var out evalResult
	if remote, _ := cmd.Flags().GetBool("remote"); remote {
		out, err = evalRemote(cmd, info.Name, q, flat, res)
	} else {
		out, err = evalLocal(cmd, info, q, flat)
	}
	if err != nil {
		return err
	}
	out.Model, out.Q, out.Qx, out.Qy = info.Name, q.Q, q.Qx, q.Qy

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	table := newTable(cmd.OutOrStdout(), "Q", "I(Q)")
	if q.Is2D() {
		table = newTable(cmd.OutOrStdout(), "QX", "QY", "I(Q)")
	}
	for i, v := range out.Intensity {
		if q.Is2D() {
			table.Append([]string{formatFloat(q.Qx[i]), formatFloat(q.Qy[i]), formatFloat(v)})
		} else {
			table.Append([]string{formatFloat(q.Q[i]), formatFloat(v)})
		}
	}
	table.Render()

	if out.Radius != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "\neffective radius: %s\n", formatFloat(*out.Radius))
	}
	return nil
}

func evalLocal(cmd *cobra.Command, info *model.Info, q kernel.Q, flat map[string]any) (evalResult, error) {
	params, err := core.ParseFlat(info, flat)
	if err != nil {
		return evalResult{}, err
	}

	engine, err := newEngine(cmd)
	if err != nil {
		return evalResult{}, err
	}
	defer engine.Close()

	var opts []core.EvalOption
	if r, err := localResolution(cmd, q); err != nil {
		return evalResult{}, err
	} else if r != nil {
		opts = append(opts, core.WithResolution(r))
	}

	intensity, err := engine.EvaluateInfo(cmd.Context(), info, q, params, opts...)
	if err != nil {
		return evalResult{}, err
	}

	out := evalResult{Intensity: intensity}
	if radius, _ := cmd.Flags().GetBool("radius"); radius {
		r, err := core.EffectiveRadius(info, params)
		if err != nil {
			return evalResult{}, err
		}
		out.Radius = &r
	}
	return out, nil
}

func evalRemote(cmd *cobra.Command, name string, q kernel.Q, flat map[string]any, res *api.Resolution) (evalResult, error) {
	client, err := api.ClientFromEnvironment()
	if err != nil {
		return evalResult{}, err
	}

	backend, _ := cmd.Flags().GetString("backend")
	precision, _ := cmd.Flags().GetString("precision")
	resp, err := client.Eval(cmd.Context(), &api.EvalRequest{
		Model:      name,
		Q:          q.Q,
		Qx:         q.Qx,
		Qy:         q.Qy,
		Params:     flat,
		Precision:  precision,
		Backend:    backend,
		Resolution: res,
	})
	if err != nil {
		return evalResult{}, err
	}

	out := evalResult{Intensity: resp.Intensity}
	if radius, _ := cmd.Flags().GetBool("radius"); radius {
		rr, err := client.Radius(cmd.Context(), &api.RadiusRequest{Model: name, Params: flat})
		if err != nil {
			return evalResult{}, err
		}
		out.Radius = &rr.Radius
	}
	return out, nil
}

// buildQ liest --q, --qx/--qy oder das Gitter aus --qmin, --qmax und --nq
func buildQ(cmd *cobra.Command) (kernel.Q, error) {
	qs, _ := cmd.Flags().GetString("q")
	qxs, _ := cmd.Flags().GetString("qx")
	qys, _ := cmd.Flags().GetString("qy")

	switch {
	case qs != "" && (qxs != "" || qys != ""):
		return kernel.Q{}, errors.New("--q and --qx/--qy are mutually exclusive")
	case qxs != "" || qys != "":
		qx, err := parseFloats(qxs)
		if err != nil {
			return kernel.Q{}, fmt.Errorf("--qx: %w", err)
		}
		qy, err := parseFloats(qys)
		if err != nil {
			return kernel.Q{}, fmt.Errorf("--qy: %w", err)
		}
		q := kernel.Q2D(qx, qy)
		return q, q.Validate()
	case qs != "":
		q, err := parseFloats(qs)
		if err != nil {
			return kernel.Q{}, fmt.Errorf("--q: %w", err)
		}
		return kernel.Q1D(q), nil
	}

	lo, _ := cmd.Flags().GetFloat64("qmin")
	hi, _ := cmd.Flags().GetFloat64("qmax")
	n, _ := cmd.Flags().GetInt("nq")
	linear, _ := cmd.Flags().GetBool("linear")
	q, err := qRange(lo, hi, n, !linear)
	if err != nil {
		return kernel.Q{}, err
	}
	return kernel.Q1D(q), nil
}

// buildResolution liest --dq-fraction und --slit-width/--slit-height
func buildResolution(cmd *cobra.Command, q kernel.Q) (*api.Resolution, error) {
	fraction, _ := cmd.Flags().GetFloat64("dq-fraction")
	width, _ := cmd.Flags().GetFloat64("slit-width")
	height, _ := cmd.Flags().GetFloat64("slit-height")

	switch {
	case fraction != 0 && (width != 0 || height != 0):
		return nil, errors.New("--dq-fraction and --slit-* are mutually exclusive")
	case fraction < 0:
		return nil, fmt.Errorf("--dq-fraction must not be negative, got %g", fraction)
	case fraction > 0 && q.Is2D():
		dqr := make([]float64, len(q.Qx))
		for i := range q.Qx {
			dqr[i] = fraction * math.Hypot(q.Qx[i], q.Qy[i])
		}
		return &api.Resolution{DQr: dqr}, nil
	case fraction > 0:
		dq := make([]float64, len(q.Q))
		for i, v := range q.Q {
			dq[i] = fraction * v
		}
		return &api.Resolution{DQ: dq}, nil
	case width != 0 || height != 0:
		if q.Is2D() {
			return nil, errors.New("slit resolution needs 1D q")
		}
		return &api.Resolution{SlitWidth: width, SlitHeight: height}, nil
	}
	return nil, nil
}

// localResolution baut die Aufloesung fuer die lokale Auswertung
func localResolution(cmd *cobra.Command, q kernel.Q) (resolution.Resolution, error) {
	r, err := buildResolution(cmd, q)
	if err != nil || r == nil {
		return nil, err
	}

	switch {
	case r.DQr != nil:
		return resolution.NewPinhole2D(q.Qx, q.Qy, r.DQr, make([]float64, len(r.DQr)))
	case r.DQ != nil:
		return resolution.NewPinhole1D(q.Q, r.DQ)
	}
	return resolution.NewSlit1D(q.Q, r.SlitWidth, r.SlitHeight)
}

func newEvalCmd() *cobra.Command {
	evalCmd := &cobra.Command{
		Use:   "eval MODEL [PARAM=VALUE ...]",
		Short: "Evaluate a model at a set of q values",
		Example: `  sasmodels eval sphere radius=60 --q 0.01,0.05,0.1
  sasmodels eval cylinder --demo --qx 0.1,0.2 --qy 0.1,0
  sasmodels eval sphere radius_pd=0.1 radius_pd_type=schulz --qmin 0.001 --qmax 0.5 --nq 100`,
		Args: cobra.MinimumNArgs(1),
		RunE: EvalHandler,
	}

	evalCmd.Flags().String("q", "", "Comma separated list of q values (1/Ang)")
	evalCmd.Flags().String("qx", "", "Comma separated list of qx values for 2D evaluation")
	evalCmd.Flags().String("qy", "", "Comma separated list of qy values for 2D evaluation")
	evalCmd.Flags().Float64("qmin", 0.001, "Lower end of the q grid when --q is not given")
	evalCmd.Flags().Float64("qmax", 0.5, "Upper end of the q grid when --q is not given")
	evalCmd.Flags().Int("nq", 50, "Number of points of the q grid")
	evalCmd.Flags().Bool("linear", false, "Use linear instead of logarithmic q spacing")
	evalCmd.Flags().Bool("demo", false, "Start from the demo parameters of the model")
	evalCmd.Flags().Float64("dq-fraction", 0, "Pinhole resolution with dq = fraction * q")
	evalCmd.Flags().Float64("slit-width", 0, "Slit resolution width (1/Ang)")
	evalCmd.Flags().Float64("slit-height", 0, "Slit resolution height (1/Ang)")
	evalCmd.Flags().Bool("radius", false, "Also report the effective radius")
	evalCmd.Flags().Bool("remote", false, "Evaluate on the server at SAS_HOST")
	evalCmd.Flags().Bool("json", false, "Print the result as JSON")
	addEngineFlags(evalCmd)

	return evalCmd
}
