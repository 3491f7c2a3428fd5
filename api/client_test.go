package api

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientFromEnvironment(t *testing.T) {
	cases := map[string]string{
		"":                       "http://127.0.0.1:8765",
		"1.2.3.4":                "http://1.2.3.4:8765",
		"example.com:1234":       "http://example.com:1234",
		"https://example.com":    "https://example.com:443",
		"http://[::1]:9000/base": "http://[::1]:9000/base",
	}

	for value, expect := range cases {
		t.Run(value, func(t *testing.T) {
			t.Setenv("SAS_HOST", value)
			client, err := ClientFromEnvironment()
			require.NoError(t, err)
			assert.Equal(t, expect, client.base.String())
		})
	}
}

func TestClientEval(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/eval", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req EvalRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "sphere", req.Model)
		assert.Equal(t, 0.2, req.Params["radius_pd"])

		json.NewEncoder(w).Encode(EvalResponse{Model: req.Model, Intensity: []float64{1, 2}})
	}))
	defer ts.Close()

	base, _ := url.Parse(ts.URL)
	resp, err := NewClient(base, ts.Client()).Eval(context.Background(), &EvalRequest{
		Model:  "sphere",
		Q:      []float64{0.1, 0.2},
		Params: map[string]any{"radius_pd": 0.2},
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, resp.Intensity)
}

func TestClientError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/models/spere":
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"unknown model \"spere\""}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("plain failure"))
		}
	}))
	defer ts.Close()

	base, _ := url.Parse(ts.URL)
	client := NewClient(base, ts.Client())

	_, err := client.Show(context.Background(), "spere")
	var serr StatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusNotFound, serr.StatusCode)
	assert.Equal(t, `unknown model "spere"`, serr.ErrorMessage)

	_, err = client.List(context.Background())
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "plain failure", serr.ErrorMessage)
}

func TestBound(t *testing.T) {
	p := Parameter{Name: "radius", Limits: [2]Bound{0, Bound(math.Inf(1))}}

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"radius","default":0,"limits":[0,"inf"]}`, string(data))

	var back Parameter
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, math.IsInf(float64(back.Limits[1]), 1))

	var b Bound
	require.NoError(t, json.Unmarshal([]byte(`"-inf"`), &b))
	assert.True(t, math.IsInf(float64(b), -1))
	assert.Error(t, json.Unmarshal([]byte(`"huge"`), &b))
}
