package listprocessor

import (
	"gitlab.com/wdlists/wdlists/internal/entitycache"
	"gitlab.com/wdlists/wdlists/internal/list"
	"gitlab.com/wdlists/wdlists/internal/resultcell"
)

// ItemsToLocalLinks replaces every Entity(try_localize=true) part (at top
// level and inside a SnakList) with a LocalLink when the entity has a
// sitelink to the current wiki, using the label in the current language
// (spec §4.7 stage 3).
func ItemsToLocalLinks(l *list.List) {
	rows := l.Rows.Rows()
	if len(rows) == 0 {
		return
	}
	visitParts(rows, func(p *resultcell.Part) {
		if p.Kind != resultcell.Entity || !p.TryLocalize {
			return
		}
		entity := l.Cache.GetEntity(p.EntityID)
		title, ok := entitycache.Sitelink(entity, l.Wiki)
		if !ok {
			return
		}
		label := entitycache.Label(entity, l.Language, l.DefaultLanguage)
		*p = resultcell.NewLocalLink(title, label, resultcell.TargetPage)
	})
}
