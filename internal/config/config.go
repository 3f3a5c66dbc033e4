// Package config provides the sparse, JSON-backed configuration used by
// the rest of the pipeline: wiki API endpoints, per-wiki feature toggles,
// and the handful of tunables listed in the spec's external interfaces.
package config

import (
	"encoding/json"
	"os"
	"time"

	"gitlab.com/tozd/go/errors"
	"gitlab.com/tozd/go/x"
)

// Defaults mirror the values named in the spec.
const (
	DefaultThumbnailSize      = 128
	DefaultMaxThreads         = 8
	DefaultMaxSPARQLRunning   = 10
	DefaultMaxSPARQLAttempts  = 3
	DefaultMaxLocalEntities   = 5000
	DefaultAPITimeout         = 360 * time.Second
	DefaultEditDelay          = 100 * time.Millisecond
	DefaultMinSection         = 2
	DefaultLanguage           = "en"
	DefaultPatternStart       = `\{\{\s*`
	DefaultPatternEnd         = `\{\{\s*`
	DefaultMaxMWAPIsPerWiki   = 2
	DefaultMaxMWAPIsTotal     = 200
	DefaultCommonsSPARQLQuery = "https://query.wikidata.org/sparql"
)

// Template lists the hard-coded start/end template titles for a single wiki,
// or (when empty) a pair of knowledge-graph item ids whose sitelinks resolve
// the titles for every wiki.
type Template struct {
	Start  string `json:"template_start,omitempty"`
	End    string `json:"template_end,omitempty"`
	StartQ string `json:"template_start_q,omitempty"`
	EndQ   string `json:"template_end_q,omitempty"`
}

// NamespaceBlock is either the literal string "*" (every namespace blocked)
// or a list of blocked namespace ids.
type NamespaceBlock struct {
	All bool
	IDs []int
}

func (n *NamespaceBlock) UnmarshalJSON(data []byte) error {
	var all string
	if err := json.Unmarshal(data, &all); err == nil {
		if all != "*" {
			return errors.Errorf("invalid namespace block %q", all)
		}
		n.All = true
		return nil
	}
	var ids []int
	if err := json.Unmarshal(data, &ids); err != nil {
		return errors.WithStack(err)
	}
	n.IDs = ids
	return nil
}

// Blocks reports whether the given namespace id is blocked.
func (n NamespaceBlock) Blocks(namespace int) bool {
	if n.All {
		return true
	}
	for _, id := range n.IDs {
		if id == namespace {
			return true
		}
	}
	return false
}

// Configuration is the sparse mapping of string-keyed options described by
// the spec's "Configuration" component: a typed projection over a JSON
// object where absent keys fall back to defaults.
type Configuration struct {
	DefaultAPI string            `json:"default_api"`
	APIs       map[string]string `json:"apis"`

	// NamespaceBlocks maps a wiki name to either "*" (all namespaces
	// blocked) or a list of blocked namespace ids. Absent wikis allow all
	// namespaces.
	NamespaceBlocks map[string]NamespaceBlock `json:"namespace_blocks"`

	LocationTemplates map[string]string `json:"location_templates"`
	LocationRegions   []string          `json:"location_regions"`
	ShadowImagesCheck []string          `json:"shadow_images_check"`

	Template

	PreferPreferred      bool   `json:"prefer_preferred"`
	DefaultLanguageValue  string `json:"default_language"`
	DefaultThumbnailValue *int   `json:"default_thumbnail_size"`

	MaxThreadsValue        *int `json:"max_threads"`
	MaxSPARQLRunningValue  *int `json:"max_sparql_simultaneous"`
	MaxSPARQLAttemptsValue *int `json:"max_sparql_attempts"`
	MaxLocalEntitiesValue  *int `json:"max_local_cached_entities"`

	APITimeoutSecValue  *int `json:"api_timeout"`
	EditDelayMsecValue  *int `json:"ms_delay_after_edit"`

	MySQL       RawDSN `json:"mysql"`
	WikiLogin   struct {
		Token string `json:"token"`
	} `json:"wiki_login"`

	PatternStart string `json:"pattern_string_start"`
	PatternEnd   string `json:"pattern_string_end"`

	StatusServerPort int    `json:"status_server_port,omitempty"`
	WikiPagePattern  string `json:"wiki_page_pattern,omitempty"`

	DefaultSPARQLEndpoint string `json:"default_sparql_endpoint"`
}

// RawDSN is the connection string for the job store, kept under the
// spec-mandated "mysql" key even though the concrete job store
// implementation in this repository speaks to Postgres (see DESIGN.md).
type RawDSN string

// Load reads and decodes a configuration file. Unknown fields are an error,
// matching the teacher's strict-decode habit for anything that reaches the
// database or an external API.
func Load(path string) (*Configuration, errors.E) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	var c Configuration
	errE := x.UnmarshalWithoutUnknownFields(data, &c)
	if errE != nil {
		return nil, errE
	}
	return &c, nil
}

func (c *Configuration) DefaultLanguageOrDefault() string {
	if c.DefaultLanguageValue == "" {
		return DefaultLanguage
	}
	return c.DefaultLanguageValue
}

func (c *Configuration) DefaultThumbnailSizeOrDefault() int {
	if c.DefaultThumbnailValue == nil {
		return DefaultThumbnailSize
	}
	return *c.DefaultThumbnailValue
}

func (c *Configuration) MaxThreadsOrDefault() int {
	if c.MaxThreadsValue == nil {
		return DefaultMaxThreads
	}
	return *c.MaxThreadsValue
}

func (c *Configuration) MaxSPARQLRunningOrDefault() int {
	if c.MaxSPARQLRunningValue == nil {
		return DefaultMaxSPARQLRunning
	}
	return *c.MaxSPARQLRunningValue
}

func (c *Configuration) MaxSPARQLAttemptsOrDefault() int {
	if c.MaxSPARQLAttemptsValue == nil {
		return DefaultMaxSPARQLAttempts
	}
	return *c.MaxSPARQLAttemptsValue
}

func (c *Configuration) MaxLocalEntitiesOrDefault() int {
	if c.MaxLocalEntitiesValue == nil {
		return DefaultMaxLocalEntities
	}
	return *c.MaxLocalEntitiesValue
}

func (c *Configuration) APITimeoutOrDefault() time.Duration {
	if c.APITimeoutSecValue == nil {
		return DefaultAPITimeout
	}
	return time.Duration(*c.APITimeoutSecValue) * time.Second
}

func (c *Configuration) EditDelayOrDefault() time.Duration {
	if c.EditDelayMsecValue == nil {
		return DefaultEditDelay
	}
	return time.Duration(*c.EditDelayMsecValue) * time.Millisecond
}

// PatternStartOrDefault and PatternEndOrDefault fix the spec §9 open
// question: the original implementation read pattern_string_end from the
// pattern_string_start key. Here each pattern is read from its own,
// correctly named key, each independently defaulted.
func (c *Configuration) PatternStartOrDefault() string {
	if c.PatternStart == "" {
		return DefaultPatternStart
	}
	return c.PatternStart
}

func (c *Configuration) PatternEndOrDefault() string {
	if c.PatternEnd == "" {
		return DefaultPatternEnd
	}
	return c.PatternEnd
}

func (c *Configuration) DefaultSPARQLEndpointOrDefault() string {
	if c.DefaultSPARQLEndpoint == "" {
		return DefaultCommonsSPARQLQuery
	}
	return c.DefaultSPARQLEndpoint
}

// APIFor resolves the knowledge-graph API URL for a wikibase key, falling
// back to DefaultAPI when the key is not present.
func (c *Configuration) APIFor(wikibase string) (string, errors.E) {
	if url, ok := c.APIs[wikibase]; ok {
		return url, nil
	}
	if url, ok := c.APIs[c.DefaultAPI]; ok {
		return url, nil
	}
	return "", errors.Errorf("no API configured for wikibase %q", wikibase)
}

// NamespaceBlocked reports whether the given namespace id is blocked for a
// wiki. A wiki absent from NamespaceBlocks allows every namespace.
func (c *Configuration) NamespaceBlocked(wiki string, namespace int) bool {
	block, ok := c.NamespaceBlocks[wiki]
	if !ok {
		return false
	}
	return block.Blocks(namespace)
}

func (c *Configuration) LocationRegionsEnabled(wiki string) bool {
	for _, w := range c.LocationRegions {
		if w == wiki {
			return true
		}
	}
	return false
}

// LocationTemplateFor resolves the "$LAT$/$LON$/$ITEM$/$REGION$" template
// for a wiki, falling back to the "default" entry, then "" (spec §6
// "location_templates").
func (c *Configuration) LocationTemplateFor(wiki string) string {
	if t, ok := c.LocationTemplates[wiki]; ok {
		return t
	}
	return c.LocationTemplates["default"]
}

func (c *Configuration) ShadowImagesEnabled(wiki string) bool {
	for _, w := range c.ShadowImagesCheck {
		if w == wiki {
			return true
		}
	}
	return false
}
