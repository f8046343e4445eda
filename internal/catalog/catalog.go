// Package catalog models the seller's inventory groups and the recurring
// key events worth pricing against. The catalog is authored as YAML and
// drives rule generation.
package catalog

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/dateradar/pricing-cli/internal/model"
)

const defaultCategory = "default"

// Item is one inventory group: a label plus the title keywords that
// identify its listings.
type Item struct {
	Name     string   `yaml:"name"`
	Category string   `yaml:"category"`
	Keywords []string `yaml:"keywords"`
}

// Event is one recurring key date and the item keywords it lifts.
type Event struct {
	Name  string   `yaml:"event"`
	Date  string   `yaml:"date"`
	Items []string `yaml:"items"`
}

// Catalog is the full inventory and event definition.
type Catalog struct {
	BasePrices map[string]float64 `yaml:"base_prices"`
	Items      []Item             `yaml:"items"`
	Events     []Event            `yaml:"events"`
}

// Load reads and validates a YAML catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: read %s", path)
	}

	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, eris.Wrapf(err, "catalog: parse %s", path)
	}

	if len(c.Items) == 0 {
		return nil, eris.New("catalog: no items defined")
	}
	if len(c.Events) == 0 {
		return nil, eris.New("catalog: no events defined")
	}
	if _, ok := c.BasePrices[defaultCategory]; !ok {
		return nil, eris.New("catalog: base_prices must include a default entry")
	}
	return &c, nil
}

// BasePrice returns the anchor price for a category, falling back to the
// default entry for unknown categories.
func (c *Catalog) BasePrice(category string) float64 {
	if p, ok := c.BasePrices[category]; ok {
		return p
	}
	return c.BasePrices[defaultCategory]
}

// Categorize infers the category of a listing from its title by the first
// item whose keyword appears in it. Unmatched titles get the default
// category.
func (c *Catalog) Categorize(title string) (string, float64) {
	lower := strings.ToLower(title)
	for _, item := range c.Items {
		for _, kw := range item.Keywords {
			if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
				return item.Category, c.BasePrice(item.Category)
			}
		}
	}
	return defaultCategory, c.BasePrice(defaultCategory)
}

// MatchesEvent reports whether an item is lifted by an event. Matching is
// a case-insensitive substring check in both directions, so "Lennon"
// in the event list catches the "John Lennon" item keyword and vice versa.
func (i Item) MatchesEvent(e Event) bool {
	for _, kw := range i.Keywords {
		for _, ei := range e.Items {
			k, v := strings.ToLower(kw), strings.ToLower(ei)
			if k == "" || v == "" {
				continue
			}
			if strings.Contains(v, k) || strings.Contains(k, v) {
				return true
			}
		}
	}
	return false
}

// AsModelEvent converts an event to the classifier's input shape.
func (e Event) AsModelEvent() model.Event {
	return model.Event{Name: e.Name, DateStr: e.Date}
}
