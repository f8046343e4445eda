package calsync

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dateradar/pricing-cli/internal/catalog"
	"github.com/dateradar/pricing-cli/pkg/gcal"
)

type mockCalendar struct {
	existing  []gcal.Event
	inserted  []gcal.Event
	listErr   error
	insertErr error
}

func (m *mockCalendar) InsertEvent(_ context.Context, _ string, ev gcal.Event) (*gcal.Event, error) {
	if m.insertErr != nil {
		return nil, m.insertErr
	}
	ev.ID = "created"
	m.inserted = append(m.inserted, ev)
	return &ev, nil
}

func (m *mockCalendar) ListEvents(context.Context, string, time.Time, time.Time) ([]gcal.Event, error) {
	return m.existing, m.listErr
}

func testCatalog() *catalog.Catalog {
	return &catalog.Catalog{
		BasePrices: map[string]float64{"default": 100},
		Items: []catalog.Item{
			{Name: "John Lennon Portrait Print", Category: "beatles", Keywords: []string{"John Lennon", "Lennon"}},
		},
		Events: []catalog.Event{
			{Name: "John Lennon Death Anniversary", Date: "December 8", Items: []string{"John Lennon"}},
		},
	}
}

func fixedNow() time.Time {
	return time.Date(2026, time.September, 1, 10, 0, 0, 0, time.UTC)
}

func TestSync_CreatesReminder(t *testing.T) {
	cal := &mockCalendar{}
	s := New(cal, "primary", 0).WithNow(fixedNow)

	res, err := s.Sync(context.Background(), testCatalog())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)

	require.Len(t, cal.inserted, 1)
	ev := cal.inserted[0]
	assert.Equal(t, "List: John Lennon Portrait Print", ev.Summary)
	// December 8 minus the default 7-day lead.
	assert.Equal(t, "2026-12-01", ev.Start.Date)
	assert.Equal(t, "America/Los_Angeles", ev.Start.TimeZone)
	require.NotNil(t, ev.Reminders)
	assert.False(t, ev.Reminders.UseDefault)
	assert.Equal(t, 1440, ev.Reminders.Overrides[0].Minutes)
}

func TestSync_PastDateRollsToNextYear(t *testing.T) {
	cat := testCatalog()
	cat.Events[0].Date = "July 20"
	cal := &mockCalendar{}
	s := New(cal, "", 7).WithNow(fixedNow)

	_, err := s.Sync(context.Background(), cat)
	require.NoError(t, err)
	require.Len(t, cal.inserted, 1)
	assert.Equal(t, "2027-07-13", cal.inserted[0].Start.Date)
}

func TestSync_SameDayEventStaysCurrent(t *testing.T) {
	cat := testCatalog()
	cat.Events[0].Date = "September 1"
	cal := &mockCalendar{}
	// fixedNow is mid-morning on September 1; the event must not roll to
	// next year just because the day has started.
	s := New(cal, "primary", 7).WithNow(fixedNow)

	_, err := s.Sync(context.Background(), cat)
	require.NoError(t, err)
	require.Len(t, cal.inserted, 1)
	assert.Equal(t, "2026-08-25", cal.inserted[0].Start.Date)
}

func TestSync_SkipsExistingReminder(t *testing.T) {
	cal := &mockCalendar{existing: []gcal.Event{
		{ID: "old", Summary: "List: John Lennon Portrait Print"},
	}}
	s := New(cal, "primary", 7).WithNow(fixedNow)

	res, err := s.Sync(context.Background(), testCatalog())
	require.NoError(t, err)
	assert.Zero(t, res.Created)
	assert.Equal(t, 1, res.Skipped)
	assert.Empty(t, cal.inserted)
}

func TestSync_UnparseableDateSkipped(t *testing.T) {
	cat := testCatalog()
	cat.Events[0].Date = "whenever"
	cal := &mockCalendar{}
	s := New(cal, "primary", 7).WithNow(fixedNow)

	res, err := s.Sync(context.Background(), cat)
	require.NoError(t, err)
	assert.Zero(t, res.Created)
	assert.Equal(t, 1, res.Skipped)
}

func TestSync_InsertFailureDoesNotAbort(t *testing.T) {
	cal := &mockCalendar{insertErr: eris.New("quota exceeded")}
	s := New(cal, "primary", 7).WithNow(fixedNow)

	res, err := s.Sync(context.Background(), testCatalog())
	require.NoError(t, err)
	assert.Zero(t, res.Created)
	assert.Equal(t, 1, res.Skipped)
}

func TestSync_ListFailureAborts(t *testing.T) {
	cal := &mockCalendar{listErr: eris.New("network down")}
	s := New(cal, "primary", 7).WithNow(fixedNow)

	_, err := s.Sync(context.Background(), testCatalog())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list existing events")
}
