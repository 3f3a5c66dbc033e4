package wdlists_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gitlab.com/wdlists/wdlists"
)

// Unlike the teacher's populate_test.go (which runs PopulateCommand.Run
// against a live Elasticsearch instance gated by the ELASTIC env var), none
// of this bot's commands have a meaningful no-network path: every Run method
// reaches a wiki or knowledge-graph API. Validate is the one piece of logic
// that runs before any of that and is worth covering directly.
func TestServeCommand_Validate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		command wdlists.ServeCommand
		wantErr bool
	}{
		{"queue mode needs nothing", wdlists.ServeCommand{Mode: "queue"}, false},
		{"crawl mode with both flags", wdlists.ServeCommand{Mode: "crawl", Wiki: "enwiki", Template: "Template:Wikidata list"}, false},
		{"crawl mode missing wiki", wdlists.ServeCommand{Mode: "crawl", Template: "Template:Wikidata list"}, true},
		{"crawl mode missing template", wdlists.ServeCommand{Mode: "crawl", Wiki: "enwiki"}, true},
		{"crawl mode missing both", wdlists.ServeCommand{Mode: "crawl"}, true},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			err := c.command.Validate()
			if c.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
