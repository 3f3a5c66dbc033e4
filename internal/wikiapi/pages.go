package wikiapi

import (
	"context"
	"net/url"
	"strconv"

	"gitlab.com/tozd/go/errors"
)

// APILimit mirrors the teacher's ListAllPages limit constant: the
// MediaWiki API's per-request result cap regardless of credential.
const APILimit = 500

// ListTransclusions enumerates pages transcluding template (given with
// its full "Template:Name" title), paginating via "eicontinue" the same
// way the teacher's ListAllPages paginates via "gapcontinue" (spec §4.10,
// the CrawlDispatcher's no-database single-wiki mode).
func (c *Client) ListTransclusions(ctx context.Context, template string, output chan<- PageRef) errors.E {
	values := url.Values{}
	values.Set("action", "query")
	values.Set("list", "embeddedin")
	values.Set("eititle", template)
	values.Set("eifilterredir", "nonredirects")
	values.Set("eilimit", strconv.Itoa(APILimit))

	for {
		var resp struct {
			Error    *apiError         `json:"error,omitempty"`
			Continue map[string]string `json:"continue"`
			Query    struct {
				EmbeddedIn []PageRef `json:"embeddedin"`
			} `json:"query"`
		}

		if errE := c.do(ctx, values, &resp); errE != nil {
			return errE
		}
		if resp.Error != nil {
			return classifyAPIError(resp.Error.Code, resp.Error.Info)
		}

		for _, page := range resp.Query.EmbeddedIn {
			select {
			case <-ctx.Done():
				return errors.WithStack(ctx.Err())
			case output <- page:
			}
		}

		if len(resp.Continue) == 0 {
			return nil
		}
		for key, value := range resp.Continue {
			values.Set(key, value)
		}
	}
}
