// Package template parses the raw text between a page's start and end
// template markers into an ordered key/value parameter map (spec §4.2),
// and projects that map into the typed Parameters a List needs (spec §3
// "Template parameters").
package template

import (
	"strings"

	"gitlab.com/tozd/go/errors"
)

// ErrUnclosedQuote is returned when the parameter blob ends while a quote
// (' or ") is still open.
var ErrUnclosedQuote = errors.Base("unclosed quote in template parameters")

// Params is an insertion-ordered key/value mapping, mirroring the spec's
// requirement that parameter order be preserved (row/header templates and
// renderer output can depend on it for reproducibility, even though lookups
// are normally by key).
type Params struct {
	keys   []string
	values map[string]string
}

// Get returns the value for key and whether it was present.
func (p *Params) Get(key string) (string, bool) {
	if p.values == nil {
		return "", false
	}
	v, ok := p.values[key]
	return v, ok
}

// GetOrDefault returns the value for key, or def if absent.
func (p *Params) GetOrDefault(key, def string) string {
	if v, ok := p.Get(key); ok {
		return v
	}
	return def
}

// Has reports whether key is present at all (used for boolean flags such
// as skip_table and wdedit, which are "set" regardless of their value).
func (p *Params) Has(key string) bool {
	_, ok := p.Get(key)
	return ok
}

// Keys returns the parameter keys in their original order.
func (p *Params) Keys() []string {
	return append([]string(nil), p.keys...)
}

func (p *Params) set(key, value string) {
	if p.values == nil {
		p.values = map[string]string{}
	}
	if _, exists := p.values[key]; !exists {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
}

// unescapePipe is the one unconditional wiki-syntax substitution the spec
// recognizes in parameter values.
func unescapePipe(s string) string {
	return strings.ReplaceAll(s, "{{!}}", "|")
}

// Parse splits the raw text between "{{<start template>" and "}}" into an
// ordered key=value map. It respects nested {{...}} braces and quoted
// substrings (" or ') so that a | inside either does not end the current
// parameter.
func Parse(body string) (*Params, errors.E) {
	params := &Params{}

	var cur strings.Builder
	depth := 0
	var quote rune
	position := 0

	flush := func() errors.E {
		raw := cur.String()
		cur.Reset()
		eq := strings.IndexByte(raw, '=')
		var key, value string
		if eq < 0 {
			// Positional parameter: key is its 1-based ordinal.
			position++
			key = positionalKey(position)
			value = strings.TrimSpace(raw)
		} else {
			key = strings.TrimSpace(raw[:eq])
			value = strings.TrimSpace(raw[eq+1:])
		}
		params.set(key, unescapePipe(value))
		return nil
	}

	runes := []rune(body)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case quote != 0:
			cur.WriteRune(r)
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
			cur.WriteRune(r)
		case r == '{':
			depth++
			cur.WriteRune(r)
		case r == '}':
			depth--
			cur.WriteRune(r)
		case r == '|' && depth == 0:
			if err := flush(); err != nil {
				return nil, err
			}
		default:
			cur.WriteRune(r)
		}
	}

	if quote != 0 {
		return nil, errors.WithStack(ErrUnclosedQuote)
	}

	if strings.TrimSpace(cur.String()) != "" || len(params.keys) > 0 {
		if err := flush(); err != nil {
			return nil, err
		}
	}

	return params, nil
}

func positionalKey(n int) string {
	// Positional parameters are rare in list-start templates (everything
	// is normally named), but MediaWiki allows them, so we still need a
	// stable synthetic key.
	return "$" + itoa(n)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var b [20]byte
	i := len(b)
	for n > 0 {
		i--
		b[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		b[i] = '-'
	}
	return string(b[i:])
}

// Unparse reconstructs a parameter blob from a Params value, used by the
// round-trip test in spec §8. It is only exact modulo whitespace trimming
// within values and the {{!}} substitution, as the spec allows.
func Unparse(p *Params) string {
	parts := make([]string, 0, len(p.keys))
	for _, k := range p.keys {
		v, _ := p.Get(k)
		v = strings.ReplaceAll(v, "|", "{{!}}")
		if strings.HasPrefix(k, "$") {
			parts = append(parts, v)
		} else {
			parts = append(parts, k+"="+v)
		}
	}
	return strings.Join(parts, "|")
}
