// Package wikiapi is the thin MediaWiki action-API client the pipeline
// needs: fetching and editing a page's wikitext, purging, batch
// page-existence and imageinfo checks, template expansion, and paginated
// transclusion listing. It is grounded in the teacher's
// internal/wikipedia/api.go request-building and retry discipline.
package wikiapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"gitlab.com/tozd/go/errors"
)

// UserAgent is sent on every outbound request, per spec §4.4 step 4.
const UserAgent = "wdlists/0.1 (list-synchronization bot)"

// Client talks to one wiki's action API.
type Client struct {
	httpClient *retryablehttp.Client
	baseURL    string // e.g. "https://www.wikidata.org"
	token      string
	limiter    *rate.Limiter
	editDelay  time.Duration
	isBot      bool
}

// NewClient builds a Client for a single wiki's API base URL. editDelay is
// the post-edit pacing delay (spec §5 "Edit pacing"); isBot raises the
// per-batch existence/imageinfo chunk size from 50 to 500 (spec §4.7
// stage 4).
func NewClient(baseURL, token string, timeout, editDelay time.Duration, isBot bool) *Client {
	hc := cleanhttp.DefaultPooledClient()
	hc.Timeout = timeout
	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = hc
	retryClient.Logger = nil

	return &Client{
		httpClient: retryClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		limiter:    rate.NewLimiter(rate.Every(time.Second), 2), //nolint:mnd
		editDelay:  editDelay,
		isBot:      isBot,
	}
}

// BatchSize returns the chunk size to use for batched title/filename
// lookups: 500 for bot accounts, 50 otherwise (spec §4.7 stage 4, §5
// "Edit pacing").
func (c *Client) BatchSize() int {
	if c.isBot {
		return 500 //nolint:mnd
	}
	return 50 //nolint:mnd
}

func (c *Client) apiURL() string {
	return c.baseURL + "/w/api.php"
}

func (c *Client) do(ctx context.Context, values url.Values, out interface{}) errors.E {
	if err := c.limiter.Wait(ctx); err != nil {
		return errors.WithStack(err)
	}

	values.Set("format", "json")
	values.Set("formatversion", "2")

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.apiURL(), strings.NewReader(values.Encode()))
	if err != nil {
		return errors.WithStack(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", UserAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.WithStack(err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.WithStack(err)
	}
	if resp.StatusCode != http.StatusOK {
		errE := errors.New("bad response status")
		errors.Details(errE)["code"] = resp.StatusCode
		errors.Details(errE)["body"] = strings.TrimSpace(string(body))
		return errE
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

type apiError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

// GetWikitext fetches the current wikitext and revision id of a page.
func (c *Client) GetWikitext(ctx context.Context, title string) (text string, revID int64, errE errors.E) { //nolint:nonamedreturns
	values := url.Values{}
	values.Set("action", "query")
	values.Set("prop", "revisions")
	values.Set("rvprop", "content|ids")
	values.Set("rvslots", "main")
	values.Set("titles", title)

	var resp struct {
		Error *apiError `json:"error,omitempty"`
		Query struct {
			Pages []struct {
				Missing   bool   `json:"missing,omitempty"`
				Invalid   bool   `json:"invalid,omitempty"`
				Revisions []struct {
					RevID int64 `json:"revid"`
					Slots struct {
						Main struct {
							Content string `json:"content"`
						} `json:"main"`
					} `json:"slots"`
				} `json:"revisions,omitempty"`
			} `json:"pages"`
		} `json:"query"`
	}

	if errE := c.do(ctx, values, &resp); errE != nil {
		return "", 0, errE
	}
	if resp.Error != nil {
		return "", 0, classifyAPIError(resp.Error.Code, resp.Error.Info)
	}
	if len(resp.Query.Pages) == 0 {
		return "", 0, errors.WithStack(ErrPageDeleted)
	}
	page := resp.Query.Pages[0]
	if page.Missing {
		return "", 0, errors.WithStack(ErrPageDeleted)
	}
	if page.Invalid {
		return "", 0, errors.WithStack(ErrPageInvalid)
	}
	if len(page.Revisions) == 0 {
		return "", 0, errors.New("page has no revisions")
	}
	return page.Revisions[0].Slots.Main.Content, page.Revisions[0].RevID, nil
}

// GetCSRFToken fetches the edit token required by Edit, via the standard
// action=query&meta=tokens request.
func (c *Client) GetCSRFToken(ctx context.Context) (string, errors.E) {
	values := url.Values{}
	values.Set("action", "query")
	values.Set("meta", "tokens")
	values.Set("type", "csrf")

	var resp struct {
		Error *apiError `json:"error,omitempty"`
		Query struct {
			Tokens struct {
				CSRFToken string `json:"csrftoken"`
			} `json:"tokens"`
		} `json:"query"`
	}
	if errE := c.do(ctx, values, &resp); errE != nil {
		return "", errE
	}
	if resp.Error != nil {
		return "", classifyAPIError(resp.Error.Code, resp.Error.Info)
	}
	if resp.Query.Tokens.CSRFToken == "" {
		return "", errors.New("wiki API returned no csrf token")
	}
	return resp.Query.Tokens.CSRFToken, nil
}

// Edit replaces a page's wikitext, enforcing the post-edit pacing delay
// before returning (spec §5 "Edit pacing").
func (c *Client) Edit(ctx context.Context, title, text, summary, csrfToken string) errors.E {
	values := url.Values{}
	values.Set("action", "edit")
	values.Set("title", title)
	values.Set("text", text)
	values.Set("summary", summary)
	values.Set("bot", "1")
	values.Set("token", csrfToken)

	var resp struct {
		Error *apiError `json:"error,omitempty"`
	}
	if errE := c.do(ctx, values, &resp); errE != nil {
		return errE
	}
	if resp.Error != nil {
		return classifyAPIError(resp.Error.Code, resp.Error.Info)
	}

	if c.editDelay > 0 {
		select {
		case <-time.After(c.editDelay):
		case <-ctx.Done():
			return errors.WithStack(ctx.Err())
		}
	}
	return nil
}

// Purge purges a page's cache without editing it (spec §4.9).
func (c *Client) Purge(ctx context.Context, title string) errors.E {
	values := url.Values{}
	values.Set("action", "purge")
	values.Set("titles", title)

	var resp struct {
		Error *apiError `json:"error,omitempty"`
	}
	if errE := c.do(ctx, values, &resp); errE != nil {
		return errE
	}
	if resp.Error != nil {
		return classifyAPIError(resp.Error.Code, resp.Error.Info)
	}
	return nil
}

// ExpandTemplates submits query to the wiki's template-expansion endpoint
// (spec §4.4 step 1), used when the query text contains "{{".
func (c *Client) ExpandTemplates(ctx context.Context, text string) (string, errors.E) {
	values := url.Values{}
	values.Set("action", "expandtemplates")
	values.Set("prop", "wikitext")
	values.Set("text", text)

	var resp struct {
		Error          *apiError `json:"error,omitempty"`
		ExpandTemplates struct {
			Wikitext string `json:"wikitext"`
		} `json:"expandtemplates"`
	}
	if errE := c.do(ctx, values, &resp); errE != nil {
		return "", errE
	}
	if resp.Error != nil {
		return "", classifyAPIError(resp.Error.Code, resp.Error.Info)
	}
	return resp.ExpandTemplates.Wikitext, nil
}

// PagesExist batch-checks whether titles exist on this wiki, chunking by
// BatchSize() (spec §4.7 stage 4).
func (c *Client) PagesExist(ctx context.Context, titles []string) (map[string]bool, errors.E) {
	out := make(map[string]bool, len(titles))
	chunk := c.BatchSize()
	for i := 0; i < len(titles); i += chunk {
		end := i + chunk
		if end > len(titles) {
			end = len(titles)
		}
		batch := titles[i:end]

		values := url.Values{}
		values.Set("action", "query")
		values.Set("titles", strings.Join(batch, "|"))

		var resp struct {
			Error *apiError `json:"error,omitempty"`
			Query struct {
				Pages []struct {
					Title   string `json:"title"`
					Missing bool   `json:"missing,omitempty"`
				} `json:"pages"`
			} `json:"query"`
		}
		if errE := c.do(ctx, values, &resp); errE != nil {
			return nil, errE
		}
		if resp.Error != nil {
			return nil, classifyAPIError(resp.Error.Code, resp.Error.Info)
		}
		for _, t := range batch {
			out[t] = false
		}
		for _, page := range resp.Query.Pages {
			out[page.Title] = !page.Missing
		}
	}
	return out, nil
}

// ImageInfoRepo reports the repository a page's imageinfo entry resolves
// to for one local filename (spec §4.7 stage 5, glossary "shadow image").
type ImageInfoRepo struct {
	Filename   string
	Repository string // "local" or "shared"
}

// ImageInfo batch-fetches imagerepository for filenames, chunked by
// BatchSize().
func (c *Client) ImageInfo(ctx context.Context, filenames []string) ([]ImageInfoRepo, errors.E) {
	var out []ImageInfoRepo
	chunk := c.BatchSize()
	for i := 0; i < len(filenames); i += chunk {
		end := i + chunk
		if end > len(filenames) {
			end = len(filenames)
		}
		batch := filenames[i:end]
		titles := make([]string, len(batch))
		for j, f := range batch {
			titles[j] = "File:" + f
		}

		values := url.Values{}
		values.Set("action", "query")
		values.Set("prop", "imageinfo")
		values.Set("titles", strings.Join(titles, "|"))

		// "imagerepository" is a page-level property sibling to the
		// imageinfo array (empty for a locally-stored file, "shared" for
		// one served from Commons), not an iiprop value.
		var resp struct {
			Error *apiError `json:"error,omitempty"`
			Query struct {
				Pages []struct {
					Title           string `json:"title"`
					Missing         bool   `json:"missing,omitempty"`
					ImageRepository string `json:"imagerepository,omitempty"`
				} `json:"pages"`
			} `json:"query"`
		}
		if errE := c.do(ctx, values, &resp); errE != nil {
			return nil, errE
		}
		if resp.Error != nil {
			return nil, classifyAPIError(resp.Error.Code, resp.Error.Info)
		}
		for _, page := range resp.Query.Pages {
			name := strings.TrimPrefix(page.Title, "File:")
			repo := page.ImageRepository
			if page.Missing {
				repo = "shared" // not a local file to begin with; never shadow-filter it
			}
			out = append(out, ImageInfoRepo{Filename: name, Repository: repo})
		}
	}
	return out, nil
}

// PageRef identifies one page returned by a listing API.
type PageRef struct {
	PageID    int64  `json:"pageid"`
	Title     string `json:"title"`
	Namespace int    `json:"ns"`
}

func classifyAPIError(code, info string) errors.E {
	switch code {
	case "missingtitle":
		return errors.WithStack(ErrPageDeleted)
	case "invalid", "invalidtitle":
		return errors.WithStack(ErrPageInvalid)
	default:
		errE := errors.Errorf("wiki API error: %s", info)
		errors.Details(errE)["code"] = code
		return errE
	}
}
