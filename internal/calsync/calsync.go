// Package calsync pushes listing reminders for upcoming key dates into
// Google Calendar, one all-day event per catalog item/event pairing.
package calsync

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/dateradar/pricing-cli/internal/catalog"
	"github.com/dateradar/pricing-cli/internal/model"
	"github.com/dateradar/pricing-cli/internal/window"
	"github.com/dateradar/pricing-cli/pkg/gcal"
)

const (
	// DefaultLeadDays is how far before the key date the reminder lands,
	// leaving time to photograph and list the item.
	DefaultLeadDays = 7

	reminderTimeZone = "America/Los_Angeles"
	popupLeadMinutes = 1440
)

// Syncer creates reminder events on one calendar.
type Syncer struct {
	client     gcal.Client
	calendarID string
	leadDays   int
	now        func() time.Time
}

// New creates a syncer. Zero leadDays means DefaultLeadDays.
func New(client gcal.Client, calendarID string, leadDays int) *Syncer {
	if calendarID == "" {
		calendarID = "primary"
	}
	if leadDays <= 0 {
		leadDays = DefaultLeadDays
	}
	return &Syncer{
		client:     client,
		calendarID: calendarID,
		leadDays:   leadDays,
		now:        time.Now,
	}
}

// WithNow sets a fixed clock for testing.
func (s *Syncer) WithNow(now func() time.Time) *Syncer {
	s.now = now
	return s
}

// Result summarizes a sync run.
type Result struct {
	Created int
	Skipped int
}

// Sync creates one reminder per item/event pairing in the catalog.
// Reminders whose summary already exists in the coming year are skipped,
// so repeated runs do not pile up duplicates. Event dates that have
// passed roll to next year, matching the pricing window behavior.
func (s *Syncer) Sync(ctx context.Context, cat *catalog.Catalog) (Result, error) {
	now := s.now()
	existing, err := s.client.ListEvents(ctx, s.calendarID, now, now.AddDate(1, 0, 0))
	if err != nil {
		return Result{}, eris.Wrap(err, "calsync: list existing events")
	}
	seen := make(map[string]bool, len(existing))
	for _, e := range existing {
		seen[e.Summary] = true
	}

	var res Result
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	for _, event := range cat.Events {
		date, ok := window.ParseEventDate(event.Date, now.Year())
		if !ok {
			zap.L().Warn("calsync: unparseable event date",
				zap.String("event", event.Name),
				zap.String("date", event.Date),
			)
			res.Skipped++
			continue
		}
		// Compare by calendar date so an event happening today stays
		// current instead of rolling a year out.
		if date.Before(today) {
			date = date.AddDate(1, 0, 0)
		}
		reminderDate := date.AddDate(0, 0, -s.leadDays)

		for _, item := range cat.Items {
			if !item.MatchesEvent(event) {
				continue
			}

			summary := fmt.Sprintf("List: %s", item.Name)
			if seen[summary] {
				res.Skipped++
				continue
			}

			_, err := s.client.InsertEvent(ctx, s.calendarID, gcal.Event{
				Summary: summary,
				Description: fmt.Sprintf("Key Date: %s on %s\n\nReminder to list this item before the key date.",
					event.Name, event.Date),
				Start: gcal.EventDate{Date: reminderDate.Format(model.DateOnly), TimeZone: reminderTimeZone},
				End:   gcal.EventDate{Date: reminderDate.Format(model.DateOnly), TimeZone: reminderTimeZone},
				Reminders: &gcal.Reminders{
					UseDefault: false,
					Overrides: []gcal.ReminderOverride{
						{Method: "popup", Minutes: popupLeadMinutes},
					},
				},
			})
			if err != nil {
				zap.L().Warn("calsync: create reminder failed",
					zap.String("item", item.Name),
					zap.String("event", event.Name),
					zap.Error(err),
				)
				res.Skipped++
				continue
			}
			seen[summary] = true
			res.Created++
		}
	}

	zap.L().Info("calsync: sync complete",
		zap.Int("created", res.Created),
		zap.Int("skipped", res.Skipped),
	)
	return res, nil
}
