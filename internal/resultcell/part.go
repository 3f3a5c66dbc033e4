// Package resultcell implements ResultCellPart (spec §3 "Result cell
// part"): the terminal value in a rendered cell, and PartWithReference,
// which pairs a part with its optional reference list.
package resultcell

import (
	"fmt"
)

// Kind tags the ResultCellPart variant.
type Kind int

const (
	Number Kind = iota
	Entity
	LocalLink
	Time
	Location
	File
	URI
	ExternalID
	Text
	AutoDesc
	SnakList
)

// LinkTarget distinguishes a LocalLink's destination.
type LinkTarget int

const (
	TargetPage LinkTarget = iota
	TargetCategory
)

// Part is the closed sum described in spec §3 "Result cell part".
type Part struct {
	Kind Kind

	// Entity/AutoDesc
	EntityID     string
	TryLocalize  bool // Entity only
	AutoDescText string // filled in by the autodescription pipeline stage

	// LocalLink
	Page   string
	Label  string
	Target LinkTarget

	// Time
	TimeValue string

	// Location
	Lat, Lon float64
	Region   string

	// File
	FileName string

	// URI
	URIValue string

	// ExternalID
	Property string
	ID       string

	// Text
	TextValue string

	// Number (the 1-based row ordinal, filled by the renderer)
	Ordinal int

	// SnakList
	Parts []Part
}

// NewNumber builds a placeholder Number part; the renderer fills Ordinal in
// at render time (spec §4.6 "Number | Number placeholder").
func NewNumber() Part { return Part{Kind: Number} }

func NewEntity(id string, tryLocalize bool) Part {
	return Part{Kind: Entity, EntityID: id, TryLocalize: tryLocalize}
}

func NewLocalLink(page, label string, target LinkTarget) Part {
	return Part{Kind: LocalLink, Page: page, Label: label, Target: target}
}

func NewTime(value string) Part { return Part{Kind: Time, TimeValue: value} }

func NewLocation(lat, lon float64) Part { return Part{Kind: Location, Lat: lat, Lon: lon} }

func NewFile(name string) Part { return Part{Kind: File, FileName: name} }

func NewURI(uri string) Part { return Part{Kind: URI, URIValue: uri} }

func NewExternalID(property, id string) Part {
	return Part{Kind: ExternalID, Property: property, ID: id}
}

func NewText(text string) Part { return Part{Kind: Text, TextValue: text} }

func NewAutoDesc(entityID string) Part { return Part{Kind: AutoDesc, EntityID: entityID} }

func NewSnakList(parts ...Part) Part { return Part{Kind: SnakList, Parts: parts} }

// String renders a part to plain wikitext, ignoring references (callers
// that need reference markers use Reference.Dedup directly around this).
// Number is rendered by the caller, which knows the row's ordinal; here it
// falls back to "#" so the function stays total.
func (p Part) String() string {
	switch p.Kind {
	case Number:
		if p.Ordinal > 0 {
			return "style='text-align:right'| " + itoa(p.Ordinal)
		}
		return "#"
	case Entity:
		return "[[:d:" + p.EntityID + "|" + p.EntityID + "]]"
	case LocalLink:
		prefix := ""
		if p.Target == TargetCategory {
			prefix = ":Category:"
		}
		label := p.Label
		if label == "" {
			label = p.Page
		}
		return "[[" + prefix + p.Page + "|" + label + "]]"
	case Time:
		return p.TimeValue
	case Location:
		region := ""
		if p.Region != "" {
			region = " (" + p.Region + ")"
		}
		return fmt.Sprintf("%.4f/%.4f%s", p.Lat, p.Lon, region)
	case File:
		return "[[File:" + p.FileName + "|thumb]]"
	case URI:
		return p.URIValue
	case ExternalID:
		return p.ID
	case Text:
		return p.TextValue
	case AutoDesc:
		if p.AutoDescText != "" {
			return p.AutoDescText
		}
		return ""
	case SnakList:
		out := ""
		for i, sub := range p.Parts {
			if i > 0 {
				out += " — "
			}
			out += sub.String()
		}
		return out
	default:
		return ""
	}
}

// TabbedStringSafe renders the part to a plain string, truncated to 380
// bytes for embedding in a Special:TabularData JSON cell (spec §9 open
// question: the original implementation's equivalent computed this and then discarded it;
// here it is actually used by internal/renderer.RenderTabbedData).
func (p Part) TabbedStringSafe() string {
	s := p.String()
	const maxBytes = 380
	if len(s) <= maxBytes {
		return s
	}
	b := []byte(s)[:maxBytes]
	// Avoid cutting a UTF-8 sequence in half.
	for len(b) > 0 && b[len(b)-1]&0xC0 == 0x80 {
		b = b[:len(b)-1]
	}
	return string(b)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
