package listprocessor

import (
	"context"

	"gitlab.com/tozd/go/errors"

	"gitlab.com/wdlists/wdlists/internal/autodesc"
	"gitlab.com/wdlists/wdlists/internal/list"
	"gitlab.com/wdlists/wdlists/internal/resultcell"
)

// Autodescriptions fetches a generated short description for every
// AutoDesc placeholder and fills it in (spec §4.7 stage 10). A missing
// description (autodesc.ErrNoDescription) leaves the placeholder empty
// rather than failing the page.
func Autodescriptions(ctx context.Context, l *list.List, client *autodesc.Client) errors.E {
	rows := l.Rows.Rows()
	if len(rows) == 0 {
		return nil
	}

	var errE errors.E
	visitParts(rows, func(p *resultcell.Part) {
		if p.Kind != resultcell.AutoDesc || errE != nil {
			return
		}
		text, descErrE := client.Describe(ctx, p.EntityID, l.Language)
		if descErrE != nil {
			if errors.Is(descErrE, autodesc.ErrNoDescription) {
				return
			}
			errE = descErrE
			return
		}
		p.AutoDescText = text
	})
	return errE
}
