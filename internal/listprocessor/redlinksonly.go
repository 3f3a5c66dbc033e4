package listprocessor

import (
	"gitlab.com/tozd/go/errors"

	"gitlab.com/wdlists/wdlists/internal/entitycache"
	"gitlab.com/wdlists/wdlists/internal/list"
	"gitlab.com/wdlists/wdlists/internal/template"
)

// RedlinksOnlyFilter keeps only rows whose entity has no sitelink to the
// current wiki, when links=RED_ONLY (spec §4.7 stage 2).
func RedlinksOnlyFilter(l *list.List) errors.E {
	if l.Params.Links != template.LinksRedOnly {
		return nil
	}
	rows := l.Rows.Rows()
	if len(rows) == 0 {
		return nil
	}
	for _, row := range rows {
		entity := l.Cache.GetEntity(row.EntityID)
		if _, ok := entitycache.Sitelink(entity, l.Wiki); ok {
			row.Keep = false
		}
	}
	l.Rows.KeepMarked()
	return nil
}
