package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCatalogYAML = `
base_prices:
  beatles: 500
  space_nasa: 900
  death_nyc: 89
  default: 100

items:
  - name: John Lennon Portrait Print
    category: beatles
    keywords: ["John Lennon", "Lennon"]
  - name: Apollo 11 Signed Memorabilia
    category: space_nasa
    keywords: ["Apollo 11", "Apollo"]
  - name: Death NYC Print
    category: death_nyc
    keywords: ["Death NYC"]

events:
  - event: John Lennon Death Anniversary
    date: December 8
    items: ["John Lennon", "Beatles"]
  - event: Moon Landing Anniversary (Apollo 11)
    date: July 20
    items: ["Apollo 11", "NASA"]
`

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	c, err := Load(writeCatalog(t, testCatalogYAML))
	require.NoError(t, err)
	assert.Len(t, c.Items, 3)
	assert.Len(t, c.Events, 2)
	assert.Equal(t, 500.0, c.BasePrice("beatles"))
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"no_items", "base_prices: {default: 100}\nevents: [{event: E, date: May 1, items: [x]}]", "no items"},
		{"no_events", "base_prices: {default: 100}\nitems: [{name: I, category: c, keywords: [x]}]", "no events"},
		{"no_default_price", "base_prices: {beatles: 500}\nitems: [{name: I, category: c, keywords: [x]}]\nevents: [{event: E, date: May 1, items: [x]}]", "default"},
		{"bad_yaml", "items: [unclosed", "parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeCatalog(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestBasePrice_Fallback(t *testing.T) {
	c, err := Load(writeCatalog(t, testCatalogYAML))
	require.NoError(t, err)
	assert.Equal(t, 100.0, c.BasePrice("typewriters"))
}

func TestCategorize(t *testing.T) {
	c, err := Load(writeCatalog(t, testCatalogYAML))
	require.NoError(t, err)

	tests := []struct {
		title     string
		category  string
		basePrice float64
	}{
		{"Vintage JOHN LENNON portrait lithograph", "beatles", 500},
		{"Apollo 11 crew signed photo", "space_nasa", 900},
		{"Death NYC Banksy tribute print", "death_nyc", 89},
		{"1955 Roberto Clemente rookie card", "default", 100},
	}
	for _, tt := range tests {
		category, price := c.Categorize(tt.title)
		assert.Equal(t, tt.category, category, tt.title)
		assert.Equal(t, tt.basePrice, price, tt.title)
	}
}

func TestMatchesEvent(t *testing.T) {
	lennon := Item{Name: "John Lennon Portrait Print", Category: "beatles", Keywords: []string{"John Lennon", "Lennon"}}
	apollo := Item{Name: "Apollo 11 Signed Memorabilia", Category: "space_nasa", Keywords: []string{"Apollo 11", "Apollo"}}
	deathAnniversary := Event{Name: "John Lennon Death Anniversary", Date: "December 8", Items: []string{"John Lennon", "Beatles"}}

	assert.True(t, lennon.MatchesEvent(deathAnniversary))
	assert.False(t, apollo.MatchesEvent(deathAnniversary))

	// Substring matching works in both directions.
	shortKeyword := Item{Keywords: []string{"Lennon"}}
	assert.True(t, shortKeyword.MatchesEvent(deathAnniversary))
}

func TestAsModelEvent(t *testing.T) {
	e := Event{Name: "Record Store Day", Date: "April 19"}
	me := e.AsModelEvent()
	assert.Equal(t, "Record Store Day", me.Name)
	assert.Equal(t, "April 19", me.DateStr)
}
