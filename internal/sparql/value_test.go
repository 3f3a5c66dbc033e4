package sparql_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/wdlists/wdlists/internal/sparql"
)

func TestEntityURI(t *testing.T) {
	t.Parallel()

	v, errE := sparql.NewFromJSON([]byte(`{"type":"uri","value":"http://www.wikidata.org/entity/Q42"}`))
	require.NoError(t, errE)
	assert.Equal(t, sparql.KindEntity, v.Kind)
	assert.Equal(t, "Q42", v.EntityID)
}

func TestFileURI(t *testing.T) {
	t.Parallel()

	v, errE := sparql.NewFromJSON([]byte(`{"type":"uri","value":"http://commons.wikimedia.org/wiki/Special:FilePath/Foo_Bar.jpg"}`))
	require.NoError(t, errE)
	assert.Equal(t, sparql.KindFile, v.Kind)
	assert.Equal(t, "Foo Bar.jpg", v.FileName)
}

func TestWKTLocation(t *testing.T) {
	t.Parallel()

	v, errE := sparql.NewFromJSON([]byte(`{"type":"literal","value":"Point(13.4 52.5)","datatype":"http://www.opengis.net/ont/geosparql#wktLiteral"}`))
	require.NoError(t, errE)
	assert.Equal(t, sparql.KindLocation, v.Kind)
	assert.InDelta(t, 13.4, v.Lon, 0.001)
	assert.InDelta(t, 52.5, v.Lat, 0.001)
}

func TestDateTimeReducedToDate(t *testing.T) {
	t.Parallel()

	v, errE := sparql.NewFromJSON([]byte(`{"type":"literal","value":"1879-03-14T00:00:00Z","datatype":"http://www.w3.org/2001/XMLSchema#dateTime"}`))
	require.NoError(t, errE)
	assert.Equal(t, sparql.KindTime, v.Kind)
	assert.Equal(t, "1879-03-14", v.TimeValue)
}

func TestValueRoundTrips(t *testing.T) {
	t.Parallel()

	for _, v := range []sparql.Value{
		{Kind: sparql.KindEntity, EntityID: "Q42"},
		{Kind: sparql.KindURI, URIValue: "http://example.org/x"},
		{Kind: sparql.KindLiteral, Literal: "hello"},
	} {
		data, errE := v.ToJSON()
		require.NoError(t, errE)
		got, errE := sparql.NewFromJSON(data)
		require.NoError(t, errE)
		assert.Equal(t, v, got)
	}
}

func TestReduceTimeNeverContainsT(t *testing.T) {
	t.Parallel()

	cases := []struct {
		value     string
		precision int
		want      string
	}{
		{"+1879-03-14T00:00:00Z", 11, "1879-03-14"},
		{"+1879-03-14T00:00:00Z", 9, "1879"},
		{"+1879-03-14T00:00:00Z", 7, "19th century"},
		{"+1879-03-14T00:00:00Z", 8, "1870s"},
		{"+1879-03-14T00:00:00Z", 10, "1879-03"},
		{"+2000-01-01T00:00:00Z", 6, "2nd millennium"},
	}
	for _, c := range cases {
		got := sparql.ReduceTime(c.value, c.precision)
		assert.NotContains(t, got, "T")
		assert.Equal(t, c.want, got)
	}
}
