// Package api - Client fuer den sasmodels HTTP-Server.
//
// Package api implements the client-side API for code wishing to evaluate
// scattering models on a running sasmodels server. The methods of the
// [Client] type correspond to the routes registered by the server package.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"runtime"

	"github.com/sasview/sasmodels/envconfig"
)

// Client encapsulates client state for interacting with the sasmodels
// server. Use [ClientFromEnvironment] to create new Clients.
type Client struct {
	base *url.URL
	http *http.Client
}

func checkError(resp *http.Response, body []byte) error {
	if resp.StatusCode < http.StatusBadRequest {
		return nil
	}

	apiError := StatusError{StatusCode: resp.StatusCode, Status: resp.Status}

	err := json.Unmarshal(body, &apiError)
	if err != nil {
		// Use the full body as the message if we fail to decode a response.
		apiError.ErrorMessage = string(body)
	}

	return apiError
}

// ClientFromEnvironment creates a new [Client] using configuration from the
// environment variable SAS_HOST, which points to the network host and
// port on which the sasmodels server is listening. The format of this
// variable is:
//
//	<scheme>://<host>:<port>
//
// If the variable is not specified, a default host and port will be used.
func ClientFromEnvironment() (*Client, error) {
	return &Client{
		base: envconfig.Host(),
		http: http.DefaultClient,
	}, nil
}

func NewClient(base *url.URL, http *http.Client) *Client {
	return &Client{
		base: base,
		http: http,
	}
}

func (c *Client) do(ctx context.Context, method, path string, reqData, respData any) error {
	var reqBody io.Reader
	if reqData != nil {
		data, err := json.Marshal(reqData)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(data)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.base.JoinPath(path).String(), reqBody)
	if err != nil {
		return err
	}

	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")
	request.Header.Set("User-Agent", fmt.Sprintf("sasmodels (%s %s) Go/%s", runtime.GOARCH, runtime.GOOS, runtime.Version()))

	respObj, err := c.http.Do(request)
	if err != nil {
		return err
	}
	defer respObj.Body.Close()

	respBody, err := io.ReadAll(respObj.Body)
	if err != nil {
		return err
	}

	if err := checkError(respObj, respBody); err != nil {
		return err
	}

	if len(respBody) > 0 && respData != nil {
		if err := json.Unmarshal(respBody, respData); err != nil {
			return err
		}
	}
	return nil
}

// ============================================================================
// API-Methoden
// ============================================================================

// Heartbeat checks if the server has started and is responsive; if yes, it
// returns nil, otherwise an error.
func (c *Client) Heartbeat(ctx context.Context) error {
	return c.do(ctx, http.MethodHead, "/", nil, nil)
}

// List lists the registered models.
func (c *Client) List(ctx context.Context) (*ListResponse, error) {
	var lr ListResponse
	if err := c.do(ctx, http.MethodGet, "/api/models", nil, &lr); err != nil {
		return nil, err
	}
	return &lr, nil
}

// Show obtains the parameter table and metadata of a model.
func (c *Client) Show(ctx context.Context, name string) (*ShowResponse, error) {
	var resp ShowResponse
	if err := c.do(ctx, http.MethodGet, "/api/models/"+url.PathEscape(name), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Backends reports the backends the server could open.
func (c *Client) Backends(ctx context.Context) (*BackendsResponse, error) {
	var resp BackendsResponse
	if err := c.do(ctx, http.MethodGet, "/api/backends", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Eval evaluates a model at the requested Q points.
func (c *Client) Eval(ctx context.Context, req *EvalRequest) (*EvalResponse, error) {
	var resp EvalResponse
	if err := c.do(ctx, http.MethodPost, "/api/eval", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Radius computes the effective radius of a model.
func (c *Client) Radius(ctx context.Context, req *RadiusRequest) (*RadiusResponse, error) {
	var resp RadiusResponse
	if err := c.do(ctx, http.MethodPost, "/api/radius", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Source returns the generated kernel source of a model.
func (c *Client) Source(ctx context.Context, req *SourceRequest) (*SourceResponse, error) {
	var resp SourceResponse
	if err := c.do(ctx, http.MethodPost, "/api/source", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SelfTest runs the reference tests of the requested models on the server.
func (c *Client) SelfTest(ctx context.Context, req *TestRequest) (*TestResponse, error) {
	var resp TestResponse
	if err := c.do(ctx, http.MethodPost, "/api/test", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
