package soatable

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parcr/lifeactuary/lifetable"
)

const fixtureXML = `<?xml version="1.0" encoding="utf-8"?>
<XTbML>
  <ContentClassification>
    <TableIdentity>1704</TableIdentity>
    <ProviderName>Society of Actuaries</ProviderName>
    <TableReference>Demonstration extract</TableReference>
    <ContentType>Annuitant Mortality</ContentType>
    <TableName>Demo Annuitant Mortality</TableName>
    <TableDescription>Three ages for round trip tests.</TableDescription>
  </ContentClassification>
  <Table>
    <Values>
      <Axis>
        <Y t="59"></Y>
        <Y t="60">0.010000</Y>
        <Y t="61">0.0121212121</Y>
        <Y t="62">0.0143149284</Y>
        <Y t="63">NaN</Y>
      </Axis>
    </Values>
  </Table>
</XTbML>`

func TestParseFixture(t *testing.T) {
	t.Parallel()
	doc, err := Parse(strings.NewReader(fixtureXML))
	require.NoError(t, err)

	assert.Equal(t, "1704", doc.ID())
	assert.Equal(t, "Demo Annuitant Mortality", doc.Name())
	assert.Equal(t, "Annuitant Mortality", doc.Classification.ContentType)
	assert.Contains(t, doc.URL(), "TableIdentity=1704")

	minAge, qx, err := doc.Rates()
	require.NoError(t, err)
	assert.Equal(t, 60, minAge)
	require.Len(t, qx, 3)
	assert.InDelta(t, 0.01, qx[0], 1e-12)
	assert.InDelta(t, 0.0121212121, qx[1], 1e-12)
}

func TestParseRejectsEmptyDocument(t *testing.T) {
	t.Parallel()
	_, err := Parse(strings.NewReader(`<XTbML><ContentClassification><TableIdentity>9</TableIdentity></ContentClassification></XTbML>`))
	assert.Error(t, err)

	_, err = Parse(strings.NewReader(`not xml at all`))
	assert.Error(t, err)
}

func TestAxisRatesRejectsAgeGap(t *testing.T) {
	t.Parallel()
	_, _, err := axisRates(Axis{Rows: []Row{
		{Age: 60, Value: "0.01"},
		{Age: 62, Value: "0.02"},
	}})
	assert.Error(t, err)

	_, _, err = axisRates(Axis{Rows: []Row{{Age: 60, Value: ""}}})
	assert.Error(t, err)
}

func TestLifeTableConversion(t *testing.T) {
	t.Parallel()
	doc, err := Parse(strings.NewReader(fixtureXML))
	require.NoError(t, err)

	tab, err := doc.LifeTable(lifetable.UniformDeaths)
	require.NoError(t, err)
	assert.Equal(t, 60, tab.MinAge())

	s, err := tab.Survival(60, 1)
	require.NoError(t, err)
	assert.InDelta(t, 0.99, s, 1e-12)

	s, err = tab.Survival(60, 2)
	require.NoError(t, err)
	assert.InDelta(t, 0.978, s, 1e-9)
}

func TestFetch(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1704", r.URL.Query().Get("TableIdentity"))
		w.Header().Set("Content-Type", "text/xml")
		_, _ = w.Write([]byte(fixtureXML))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	doc, err := client.Fetch(context.Background(), 1704)
	require.NoError(t, err)
	assert.Equal(t, "Demo Annuitant Mortality", doc.Name())

	doc, err = client.FetchID(context.Background(), "1704")
	require.NoError(t, err)
	assert.Equal(t, "1704", doc.ID())

	_, err = client.FetchID(context.Background(), "not-a-number")
	assert.Error(t, err)
}

func TestFetchBadStatus(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	_, err := client.Fetch(context.Background(), 42)
	assert.Error(t, err)
}

func TestSearchIndex(t *testing.T) {
	t.Parallel()
	page := `<html><body><table>
<tr><td><a href="ViewTable.aspx?&TableIdentity=1704&Format=xml">Demo <b>Annuitant</b> Mortality</a></td></tr>
<tr><td><a href="ViewTable.aspx?&TableIdentity=998">1941 CSO Basic</a></td></tr>
<tr><td><a href="ViewTable.aspx?&TableIdentity=1704">Demo Annuitant Mortality again</a></td></tr>
<tr><td><a href="about.aspx">About these tables</a></td></tr>
</table></body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	entries, err := client.SearchIndex(context.Background(), "Search.aspx?Expression=demo")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, IndexEntry{ID: 998, Name: "1941 CSO Basic"}, entries[0])
	assert.Equal(t, IndexEntry{ID: 1704, Name: "Demo Annuitant Mortality"}, entries[1])
}
