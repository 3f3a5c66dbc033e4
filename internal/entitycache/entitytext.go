package entitycache

import "gitlab.com/tozd/go/mediawiki"

// Label returns entity's label in lang, falling back to defaultLang, then
// to the bare entity id (spec §4.6 "Label | prefer current language, fall
// back to default language, else entity id").
func Label(entity *mediawiki.Entity, lang, defaultLang string) string {
	if entity == nil {
		return ""
	}
	if lv, ok := entity.Labels[lang]; ok && lv.Value != "" {
		return lv.Value
	}
	if lv, ok := entity.Labels[defaultLang]; ok && lv.Value != "" {
		return lv.Value
	}
	return entity.ID
}

// LabelLang returns entity's label in lang only, falling back to the
// current-language label (spec §4.6 "LabelLang(L) | label in L, else label
// in current language").
func LabelLang(entity *mediawiki.Entity, lang, currentLang, defaultLang string) string {
	if entity == nil {
		return ""
	}
	if lv, ok := entity.Labels[lang]; ok && lv.Value != "" {
		return lv.Value
	}
	return Label(entity, currentLang, defaultLang)
}

// Alias returns entity's first alias in lang, or "" if none.
func Alias(entity *mediawiki.Entity, lang string) string {
	if entity == nil {
		return ""
	}
	aliases := entity.Aliases[lang]
	if len(aliases) == 0 {
		return ""
	}
	return aliases[0].Value
}

// Description returns the first non-empty description among langs, in
// order, and whether one was found (spec §4.6 "Description(langs) | first
// non-empty description in the requested language order").
func Description(entity *mediawiki.Entity, langs []string) (string, bool) {
	if entity == nil {
		return "", false
	}
	for _, lang := range langs {
		if dv, ok := entity.Descriptions[lang]; ok && dv.Value != "" {
			return dv.Value, true
		}
	}
	return "", false
}

// Sitelink returns entity's sitelink title on wiki, and whether one
// exists (spec §4.6/§4.7 "sitelink to the current wiki").
func Sitelink(entity *mediawiki.Entity, wiki string) (string, bool) {
	if entity == nil {
		return "", false
	}
	sl, ok := entity.SiteLinks[wiki]
	if !ok {
		return "", false
	}
	return sl.Title, true
}

// SitelinkWikis returns every wiki entity has a sitelink to, grounded on
// the original implementation's wiki_list.rs update_wiki_list_in_database,
// which derives the set of wikis running the bot from the sitelinks of the
// configured start-template item.
func SitelinkWikis(entity *mediawiki.Entity) []string {
	if entity == nil {
		return nil
	}
	wikis := make([]string, 0, len(entity.SiteLinks))
	for wiki := range entity.SiteLinks {
		wikis = append(wikis, wiki)
	}
	return wikis
}
