// Package sparql holds the SPARQL result value model: the tagged union
// decoded from a SPARQL-JSON binding, and the special-case URI/literal
// detection rules the spec requires (spec §3 "SPARQL value").
package sparql

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// Kind tags the Value variant.
type Kind int

const (
	KindEntity Kind = iota
	KindFile
	KindURI
	KindTime
	KindLocation
	KindLiteral
)

// Value is the closed sum Entity | File | Uri | Time | Location | Literal.
type Value struct {
	Kind Kind

	// EntityID / FileName / URIValue / TimeValue / Literal hold the
	// variant-specific payload; Lat/Lon hold Location's coordinates.
	EntityID  string
	FileName  string
	URIValue  string
	TimeValue string
	Lat, Lon  float64
	Literal   string
}

var (
	entityURIRe   = regexp.MustCompile(`/entity/([QPL][0-9]+)$`)
	filePathRe    = regexp.MustCompile(`/wiki/Special:FilePath/(.+)$`)
	wktPointRe    = regexp.MustCompile(`Point\(([\-0-9.]+)\s+([\-0-9.]+)\)`)
	midnightUTCRe = regexp.MustCompile(`T00:00:00Z$`)
)

// binding is the shape of one SPARQL-JSON result binding value.
type binding struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	DataType string `json:"datatype,omitempty"`
}

// NewFromJSON decodes a single SPARQL-JSON binding value into a Value,
// applying the URI/literal special cases from spec §3.
func NewFromJSON(data []byte) (Value, errors.E) {
	var b binding
	if err := json.Unmarshal(data, &b); err != nil {
		return Value{}, errors.WithStack(err)
	}
	return fromBinding(b), nil
}

func fromBinding(b binding) Value {
	switch b.Type {
	case "uri":
		if m := entityURIRe.FindStringSubmatch(b.Value); m != nil {
			return Value{Kind: KindEntity, EntityID: m[1]}
		}
		if m := filePathRe.FindStringSubmatch(b.Value); m != nil {
			name, err := url.PathUnescape(m[1])
			if err != nil {
				name = m[1]
			}
			name = strings.ReplaceAll(name, "_", " ")
			return Value{Kind: KindFile, FileName: name}
		}
		return Value{Kind: KindURI, URIValue: b.Value}
	case "literal", "typed-literal":
		return fromLiteral(b)
	default:
		return Value{Kind: KindLiteral, Literal: b.Value}
	}
}

func fromLiteral(b binding) Value {
	switch {
	case strings.HasSuffix(b.DataType, "geosparql#wktLiteral"):
		if m := wktPointRe.FindStringSubmatch(b.Value); m != nil {
			lon := parseFloat(m[1])
			lat := parseFloat(m[2])
			return Value{Kind: KindLocation, Lat: lat, Lon: lon}
		}
	case strings.HasSuffix(b.DataType, "XMLSchema#dateTime"):
		value := b.Value
		if midnightUTCRe.MatchString(value) {
			value = midnightUTCRe.ReplaceAllString(value, "")
		}
		return Value{Kind: KindTime, TimeValue: value}
	}
	return Value{Kind: KindLiteral, Literal: b.Value}
}

func parseFloat(s string) float64 {
	var sign float64 = 1
	if strings.HasPrefix(s, "-") {
		sign = -1
		s = s[1:]
	}
	var intPart, fracPart float64
	var fracDiv float64 = 1
	seenDot := false
	for _, r := range s {
		if r == '.' {
			seenDot = true
			continue
		}
		d := float64(r - '0')
		if d < 0 || d > 9 {
			continue
		}
		if seenDot {
			fracDiv *= 10
			fracPart = fracPart*10 + d
		} else {
			intPart = intPart*10 + d
		}
	}
	return sign * (intPart + fracPart/fracDiv)
}

// ToJSON re-encodes a Value into the SPARQL-JSON binding shape, used by the
// round-trip test in spec §8.
func (v Value) ToJSON() ([]byte, errors.E) {
	var b binding
	switch v.Kind {
	case KindEntity:
		b = binding{Type: "uri", Value: "http://www.wikidata.org/entity/" + v.EntityID}
	case KindFile:
		b = binding{Type: "uri", Value: "http://commons.wikimedia.org/wiki/Special:FilePath/" + url.PathEscape(strings.ReplaceAll(v.FileName, " ", "_"))}
	case KindURI:
		b = binding{Type: "uri", Value: v.URIValue}
	case KindTime:
		b = binding{Type: "literal", Value: v.TimeValue, DataType: "http://www.w3.org/2001/XMLSchema#dateTime"}
	case KindLocation:
		b = binding{Type: "literal", Value: formatPoint(v.Lon, v.Lat), DataType: "http://www.opengis.net/ont/geosparql#wktLiteral"}
	default:
		b = binding{Type: "literal", Value: v.Literal}
	}
	data, err := json.Marshal(b)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return data, nil
}

func formatPoint(lon, lat float64) string {
	return "Point(" + formatFloat(lon) + " " + formatFloat(lat) + ")"
}

func formatFloat(f float64) string {
	// Minimal formatter sufficient for the round-trip test; full precision
	// formatting of arbitrary floats is delegated to strconv in callers
	// that need it (the renderer formats coordinates for display, not
	// round-tripping).
	neg := f < 0
	if neg {
		f = -f
	}
	intPart := int64(f)
	frac := f - float64(intPart)
	fracStr := ""
	for i := 0; i < 7 && frac > 1e-9; i++ {
		frac *= 10
		d := int64(frac)
		fracStr += string(rune('0' + d))
		frac -= float64(d)
	}
	out := itoa64(intPart)
	if fracStr != "" {
		out += "." + fracStr
	}
	if neg {
		out = "-" + out
	}
	return out
}

func itoa64(n int64) string {
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

// ReduceTime applies the precision-based time reduction from spec §4.6/§6.
// The result never contains "T", matching the spec §8 invariant.
func ReduceTime(value string, precision int) string {
	v := strings.TrimPrefix(value, "+")
	v = strings.TrimSuffix(v, "Z")
	// v now looks like "YYYY-MM-DDTHH:MM:SS" (possibly with a leading "-").
	datePart := v
	if idx := strings.IndexByte(v, 'T'); idx >= 0 {
		datePart = v[:idx]
	}
	neg := strings.HasPrefix(datePart, "-")
	if neg {
		datePart = datePart[1:]
	}
	fields := strings.SplitN(datePart, "-", 3)
	// fields[0] is the year (possibly with leading zeros), fields[1] month, fields[2] day.
	for len(fields) < 3 {
		fields = append(fields, "01")
	}
	year := fields[0]
	month := fields[1]
	day := fields[2]
	if neg {
		year = "-" + year
	}

	switch {
	case precision >= 11:
		return year + "-" + month + "-" + day
	case precision == 10:
		return year + "-" + month
	case precision == 9:
		return year
	case precision == 8:
		return decadeOf(year) + "s"
	case precision == 7:
		return ordinal(centuryOf(year)) + " century"
	case precision == 6:
		return ordinal(millenniumOf(year)) + " millennium"
	default:
		return year
	}
}

func decadeOf(year string) string {
	n := atoi(year)
	decade := (n / 10) * 10
	return itoa(decade)
}

func centuryOf(year string) int {
	n := atoi(year)
	if n <= 0 {
		return (n-99)/100 + 1
	}
	return (n-1)/100 + 1
}

func millenniumOf(year string) int {
	n := atoi(year)
	if n <= 0 {
		return (n-999)/1000 + 1
	}
	return (n-1)/1000 + 1
}

func ordinal(n int) string {
	s := itoa(n)
	if n%100 >= 11 && n%100 <= 13 {
		return s + "th"
	}
	switch n % 10 {
	case 1:
		return s + "st"
	case 2:
		return s + "nd"
	case 3:
		return s + "rd"
	default:
		return s + "th"
	}
}

func atoi(s string) int {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			continue
		}
		n = n*10 + int(r-'0')
	}
	if neg {
		n = -n
	}
	return n
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
