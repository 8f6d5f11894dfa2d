package export

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
)

// Event is a calendar entry. Weeks greater than one add a weekly recurrence.
type Event struct {
	UID         string
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	Weeks       int
}

// ICSExporter renders events as an iCalendar feed.
type ICSExporter struct {
	productID string
	now       func() time.Time
}

// NewICSExporter constructs an ICS exporter.
func NewICSExporter() *ICSExporter {
	return &ICSExporter{
		productID: "-//timetable-engine//timetable export//EN",
		now:       time.Now,
	}
}

// Render serialises events under the given calendar name.
func (e *ICSExporter) Render(name string, events []Event) ([]byte, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(e.productID)
	if name != "" {
		cal.SetXWRCalName(name)
	}
	stamp := e.now().UTC()
	for _, ev := range events {
		if ev.UID == "" {
			return nil, fmt.Errorf("ics event requires a uid")
		}
		if !ev.End.After(ev.Start) {
			return nil, fmt.Errorf("ics event %s ends before it starts", ev.UID)
		}
		vevent := cal.AddEvent(ev.UID)
		vevent.SetDtStampTime(stamp)
		vevent.SetStartAt(ev.Start)
		vevent.SetEndAt(ev.End)
		vevent.SetSummary(ev.Summary)
		if ev.Location != "" {
			vevent.SetLocation(ev.Location)
		}
		if ev.Description != "" {
			vevent.SetDescription(ev.Description)
		}
		if ev.Weeks > 1 {
			vevent.AddRrule(fmt.Sprintf("FREQ=WEEKLY;COUNT=%d", ev.Weeks))
		}
	}
	return []byte(cal.Serialize()), nil
}
