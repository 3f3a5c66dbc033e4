// Package autodesc wraps the external short-description generation
// service used to fill AutoDesc placeholders (spec §4.7 stage 10),
// grounded on the original Rust implementation's get_autodesc_description,
// which calls the same fixed "autodesc" tool endpoint with a GET request.
package autodesc

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
	"gitlab.com/tozd/go/errors"
)

const endpoint = "https://tools.wmflabs.org/autodesc/"

// Client fetches generated short descriptions for an entity.
type Client struct {
	httpClient *retryablehttp.Client
}

func New() *Client {
	hc := cleanhttp.DefaultPooledClient()
	client := retryablehttp.NewClient()
	client.HTTPClient = hc
	client.Logger = nil
	return &Client{httpClient: client}
}

// ErrNoDescription is returned when the service has nothing to offer for
// an entity.
var ErrNoDescription = errors.Base("no autodescription available")

// Describe fetches the short description for entityID in lang.
func (c *Client) Describe(ctx context.Context, entityID, lang string) (string, errors.E) {
	values := url.Values{}
	values.Set("q", entityID)
	values.Set("lang", lang)
	values.Set("mode", "short")
	values.Set("links", "wiki")
	values.Set("format", "json")

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+values.Encode(), nil)
	if err != nil {
		return "", errors.WithStack(err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.WithStack(err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.WithStack(err)
	}
	if resp.StatusCode != http.StatusOK {
		errE := errors.New("bad autodesc response status")
		errors.Details(errE)["code"] = resp.StatusCode
		return "", errE
	}

	var parsed struct {
		Result string `json:"result"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", errors.WithStack(err)
	}
	if parsed.Result == "" {
		return "", errors.WithStack(ErrNoDescription)
	}
	return parsed.Result, nil
}
