package sparqlrunner

import (
	"encoding/json"

	"gitlab.com/tozd/go/errors"

	"gitlab.com/wdlists/wdlists/internal/sparql"
	"gitlab.com/wdlists/wdlists/internal/sparqltable"
)

// apiResult is the standard SPARQL-JSON response shape (spec §3 "SPARQL
// value" decode), grounded on the teacher's JSON decode idiom in
// internal/mediawiki/json.go; here the whole body goes through one
// json.Unmarshal call.
type apiResult struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results struct {
		Bindings []map[string]json.RawMessage `json:"bindings"`
	} `json:"results"`
}

// decodeInto parses a SPARQL-JSON response body into table, which must
// already have been constructed with the response's vars as its header.
func decodeInto(data []byte, table *sparqltable.Table) errors.E {
	var result apiResult
	if err := json.Unmarshal(data, &result); err != nil {
		return errors.WithStack(err)
	}

	header := table.Header()
	vars := make([]string, len(header))
	for v, idx := range header {
		vars[idx] = v
	}

	for _, binding := range result.Results.Bindings {
		row := make(sparqltable.Row, len(vars))
		for i, v := range vars {
			raw, ok := binding[v]
			if !ok {
				row[i] = sparql.Value{Kind: sparql.KindLiteral}
				continue
			}
			value, errE := sparql.NewFromJSON(raw)
			if errE != nil {
				return errE
			}
			row[i] = value
		}
		if errE := table.Append(row); errE != nil {
			return errE
		}
	}
	return nil
}

// headerVars extracts the variable list from a raw response without fully
// decoding the bindings, used to construct the table before streaming rows
// into it.
func headerVars(data []byte) ([]string, errors.E) {
	var head struct {
		Head struct {
			Vars []string `json:"vars"`
		} `json:"head"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, errors.WithStack(err)
	}
	return head.Head.Vars, nil
}
