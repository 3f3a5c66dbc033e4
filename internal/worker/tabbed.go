package worker

import (
	"context"

	"gitlab.com/tozd/go/errors"

	"gitlab.com/wdlists/wdlists/internal/list"
	"gitlab.com/wdlists/wdlists/internal/renderer"
)

const tabbedDataSummary = "Listeria tabbed data update"

// maxTitleBytes is MediaWiki's page-title length limit.
const maxTitleBytes = 255

// tabbedDataTitle builds the companion Special:TabularData page name for
// l, per the original implementation's tabbed_data_page_name
// ("Data:Listeria/<wiki>/<page title>.tab"), or "" when the result would
// exceed MediaWiki's title length limit.
func tabbedDataTitle(wiki, pageTitle string) string {
	title := "Data:Listeria/" + wiki + "/" + pageTitle + ".tab"
	if len(title) > maxTitleBytes {
		return ""
	}
	return title
}

// writeTabbedData renders l's tabbed-data JSON and saves it to its
// companion Commons page, always overwriting: the MediaWiki API returns
// success without actually editing when the content is unchanged, so no
// diff check is needed here (matching the original's write_tabbed_data).
func (w *Worker) writeTabbedData(ctx context.Context, pageTitle string, l *list.List) errors.E {
	dataTitle := tabbedDataTitle(w.Wiki, pageTitle)
	if dataTitle == "" {
		return errors.Errorf("tabbed data page name too long for %q/%q", w.Wiki, pageTitle)
	}

	payload, errE := renderer.RenderTabbedData(l)
	if errE != nil {
		return errE
	}

	token, errE := w.CommonsClient.GetCSRFToken(ctx)
	if errE != nil {
		return errE
	}
	return w.CommonsClient.Edit(ctx, dataTitle, payload, tabbedDataSummary, token)
}
