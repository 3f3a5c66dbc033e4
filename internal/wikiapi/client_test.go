package wikiapi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"gitlab.com/wdlists/wdlists/internal/wikiapi"
)

func newClient(t *testing.T, handler http.HandlerFunc) *wikiapi.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return wikiapi.NewClient(server.URL, "", 5*time.Second, 0, true)
}

func TestGetWikitext(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "query", r.FormValue("action"))
		assert.Equal(t, "Main Page", r.FormValue("titles"))
		w.Write([]byte(`{"query":{"pages":[{"revisions":[{"revid":42,"slots":{"main":{` + //nolint:errcheck
			`"content":"hello world"}}}]}]}}`))
	})

	text, revID, errE := client.GetWikitext(context.Background(), "Main Page")
	require.NoError(t, errE)
	assert.Equal(t, "hello world", text)
	assert.EqualValues(t, 42, revID)
}

func TestGetWikitext_Missing(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"query":{"pages":[{"missing":true}]}}`)) //nolint:errcheck
	})

	_, _, errE := client.GetWikitext(context.Background(), "Gone")
	require.Error(t, errE)
	assert.True(t, errors.Is(errE, wikiapi.ErrPageDeleted))
}

func TestGetWikitext_Invalid(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"query":{"pages":[{"invalid":true}]}}`)) //nolint:errcheck
	})

	_, _, errE := client.GetWikitext(context.Background(), "###")
	require.Error(t, errE)
	assert.True(t, errors.Is(errE, wikiapi.ErrPageInvalid))
}

func TestGetWikitext_APIError(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":{"code":"readapidenied","info":"not allowed"}}`)) //nolint:errcheck
	})

	_, _, errE := client.GetWikitext(context.Background(), "Secret")
	require.Error(t, errE)
	assert.Contains(t, errE.Error(), "not allowed")
}

func TestGetCSRFToken(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "csrf", r.FormValue("type"))
		w.Write([]byte(`{"query":{"tokens":{"csrftoken":"deadbeef+\\"}}}`)) //nolint:errcheck
	})

	token, errE := client.GetCSRFToken(context.Background())
	require.NoError(t, errE)
	assert.Equal(t, `deadbeef+\`, token)
}

func TestEdit(t *testing.T) {
	var gotTitle, gotText, gotSummary, gotToken string
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotTitle = r.FormValue("title")
		gotText = r.FormValue("text")
		gotSummary = r.FormValue("summary")
		gotToken = r.FormValue("token")
		assert.Equal(t, "1", r.FormValue("bot"))
		w.Write([]byte(`{}`)) //nolint:errcheck
	})

	errE := client.Edit(context.Background(), "Page", "new text", "summary", "tok")
	require.NoError(t, errE)
	assert.Equal(t, "Page", gotTitle)
	assert.Equal(t, "new text", gotText)
	assert.Equal(t, "summary", gotSummary)
	assert.Equal(t, "tok", gotToken)
}

func TestPurge(t *testing.T) {
	called := false
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		called = true
		assert.Equal(t, "purge", r.FormValue("action"))
		assert.Equal(t, "Page", r.FormValue("titles"))
		w.Write([]byte(`{}`)) //nolint:errcheck
	})

	errE := client.Purge(context.Background(), "Page")
	require.NoError(t, errE)
	assert.True(t, called)
}

func TestPagesExist(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"query":{"pages":[` + //nolint:errcheck
			`{"title":"A","missing":true},{"title":"B"}]}}`))
	})

	exist, errE := client.PagesExist(context.Background(), []string{"A", "B"})
	require.NoError(t, errE)
	assert.False(t, exist["A"])
	assert.True(t, exist["B"])
}

func TestImageInfo(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"query":{"pages":[` + //nolint:errcheck
			`{"title":"File:Local.png"},{"title":"File:Shared.png","imagerepository":"shared"}]}}`))
	})

	infos, errE := client.ImageInfo(context.Background(), []string{"Local.png", "Shared.png"})
	require.NoError(t, errE)
	require.Len(t, infos, 2)
	byName := map[string]wikiapi.ImageInfoRepo{}
	for _, info := range infos {
		byName[info.Filename] = info
	}
	assert.Empty(t, byName["Local.png"].Repository)
	assert.Equal(t, "shared", byName["Shared.png"].Repository)
}

func TestExpandTemplates(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "{{foo}}", r.FormValue("text"))
		w.Write([]byte(`{"expandtemplates":{"wikitext":"expanded"}}`)) //nolint:errcheck
	})

	out, errE := client.ExpandTemplates(context.Background(), "{{foo}}")
	require.NoError(t, errE)
	assert.Equal(t, "expanded", out)
}

func TestBatchSize(t *testing.T) {
	bot := wikiapi.NewClient("http://example.invalid", "", time.Second, 0, true)
	assert.Equal(t, 500, bot.BatchSize())

	nonBot := wikiapi.NewClient("http://example.invalid", "", time.Second, 0, false)
	assert.Equal(t, 50, nonBot.BatchSize())
}
