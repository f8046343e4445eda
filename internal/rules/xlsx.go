package rules

import (
	"context"
	"os"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/dateradar/pricing-cli/internal/fetcher"
)

// Column order of the PRICING_RULES sheet.
const (
	colItem = iota
	colKeywords
	colEvent
	colTier
	colIncrease
	colStart
	colEnd
	colEnabled
	colCategory // optional trailing column
)

// XLSXSource reads pricing rules from an XLSX workbook, either a local
// path or a spreadsheet export URL.
type XLSXSource struct {
	Path      string // local file path, or "" when URL is set
	URL       string // export URL fetched per load
	SheetName string // default "PRICING_RULES"
	SkipRows  int    // header rows, default 1
}

// Fetch downloads (if needed) and parses the workbook into raw rows.
// Rows too short to carry a window are dropped here; full validation
// happens in Normalize.
func (s *XLSXSource) Fetch(ctx context.Context) ([]RawRule, error) {
	path := s.Path
	if s.URL != "" {
		tmp, err := fetcher.Download(ctx, s.URL)
		if err != nil {
			return nil, err
		}
		defer os.Remove(tmp)
		path = tmp
	}
	if path == "" {
		return nil, eris.New("rules: xlsx source has neither path nor url")
	}

	sheetName := s.SheetName
	if sheetName == "" {
		sheetName = "PRICING_RULES"
	}
	skip := s.SkipRows
	if skip == 0 {
		skip = 1
	}

	rows, err := fetcher.ReadXLSX(path, fetcher.XLSXOptions{SheetName: sheetName, SkipRows: skip})
	if err != nil {
		return nil, err
	}

	var out []RawRule
	for _, row := range rows {
		if len(row) <= colEnd || strings.TrimSpace(cell(row, colItem)) == "" {
			continue
		}
		out = append(out, RawRule{
			ItemLabel:       cell(row, colItem),
			Keywords:        cell(row, colKeywords),
			EventName:       cell(row, colEvent),
			TierStr:         cell(row, colTier),
			IncreasePercent: cell(row, colIncrease),
			StartDate:       cell(row, colStart),
			EndDate:         cell(row, colEnd),
			EnabledFlag:     cell(row, colEnabled),
			Category:        cell(row, colCategory),
		})
	}
	return out, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
