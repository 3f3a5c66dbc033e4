// Package wdlists wires the pipeline packages under internal/ into a
// kong-based command-line bot: `update-wikis` discovers and seeds pages,
// `load-test-entities` and `page` give one-shot inspection, and `serve`
// runs the long-running dispatcher. Grounded on the teacher's root
// `config.go` + `cmd/peerdb/main.go`.
package wdlists

import (
	"github.com/alecthomas/kong"
	"gitlab.com/tozd/go/cli"
	"gitlab.com/tozd/go/zerolog"
)

// DefaultEntityWikibase is the config.Configuration.APIs key consulted for
// the knowledge-graph API backing the entity cache (spec §4.6 "Entity
// cache").
const DefaultEntityWikibase = "wikidata"

// Globals describes top-level (global) flags, shared by every subcommand.
//
//nolint:lll
type Globals struct {
	zerolog.LoggingConfig `yaml:",inline"`

	Version kong.VersionFlag `help:"Show program's version and exit."                                              short:"V" yaml:"-"`
	Config  cli.ConfigFlag   `help:"Load configuration from a JSON or YAML file." name:"config" placeholder:"PATH" short:"c" yaml:"-"`

	Options  string               `help:"Path to the bot configuration file (JSON)."                    placeholder:"PATH" required:"" short:"o" type:"path" yaml:"options"`
	Token    kong.FileContentFlag `env:"TOKEN_PATH"        help:"File with the wiki bot login token used for edits."  placeholder:"PATH"                    yaml:"token"`
	Database kong.FileContentFlag `env:"DATABASE_URL_PATH" help:"File with the PostgreSQL job store connection URL." placeholder:"PATH"                    yaml:"database"`
}

// Config provides configuration.
// It is used as configuration for Kong command-line parser as well.
//
//nolint:lll
type Config struct {
	Globals `yaml:"globals"`

	UpdateWikis      UpdateWikisCommand      `cmd:""                    help:"Refresh the monitored wiki list from the knowledge graph and sync their page lists." yaml:"updateWikis"`
	LoadTestEntities LoadTestEntitiesCommand `cmd:""                    help:"Fetch a fixed set of knowledge-graph entities and dump them as JSON."                  yaml:"loadTestEntities"`
	Page             PageCommand             `cmd:""                    help:"Process a single page once and print its outcome."                                    yaml:"page"`
	Serve            ServeCommand            `cmd:"" default:"withargs" help:"Run as the long-running bot dispatcher."                                              yaml:"serve"`
}
