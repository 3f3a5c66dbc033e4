package wikiapi

import (
	"context"
	"encoding/json"
	"net/url"

	"gitlab.com/tozd/go/errors"
)

// SiteMatrixEntry is one site listed under a site-matrix language group or
// under "specials", trimmed to the fields internal/wikiregistry needs to
// resolve a wiki database name to its server URL.
type SiteMatrixEntry struct {
	DBName  string    `json:"dbname"`
	URL     string    `json:"url"`
	Closed  *struct{} `json:"closed,omitempty"`
	Private *struct{} `json:"private,omitempty"`
}

// SiteMatrix fetches the full site matrix (action=sitematrix) from the
// knowledge-graph API: every Wikimedia wiki's database name and server URL,
// grouped by language plus a "specials" group for cross-language projects
// like Commons and Wikidata. Grounded on the original implementation's
// SiteMatrix::new, which calls this once at startup and treats the result
// as immutable (spec §5 "the site-matrix is immutable after startup").
func (c *Client) SiteMatrix(ctx context.Context) ([]SiteMatrixEntry, errors.E) {
	values := url.Values{}
	values.Set("action", "sitematrix")
	values.Set("smlangprop", "")
	values.Set("smsiteprop", "url|dbname")

	var resp struct {
		Error      *apiError                  `json:"error,omitempty"`
		SiteMatrix map[string]json.RawMessage `json:"sitematrix"`
	}
	if errE := c.do(ctx, values, &resp); errE != nil {
		return nil, errE
	}
	if resp.Error != nil {
		return nil, classifyAPIError(resp.Error.Code, resp.Error.Info)
	}

	var entries []SiteMatrixEntry
	for key, raw := range resp.SiteMatrix {
		if key == "count" {
			continue
		}
		if key == "specials" {
			var sites []SiteMatrixEntry
			if err := json.Unmarshal(raw, &sites); err != nil {
				return nil, errors.WithStack(err)
			}
			entries = append(entries, sites...)
			continue
		}
		var group struct {
			Site []SiteMatrixEntry `json:"site"`
		}
		if err := json.Unmarshal(raw, &group); err != nil {
			return nil, errors.WithStack(err)
		}
		entries = append(entries, group.Site...)
	}

	return entries, nil
}
