package snapshot

import (
	"io"
	"sort"

	"github.com/gocarina/gocsv"

	"github.com/noah-isme/timetable-engine/internal/models"
)

var dayNames = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// DayName returns the English weekday for a 0-based day index.
func DayName(day int) string {
	if day < 0 || day >= len(dayNames) {
		return ""
	}
	return dayNames[day]
}

// SessionRows flattens sessions into rows ordered by week, day, start time and batch.
// Entity names replace ids where the snapshot knows them.
func SessionRows(snap models.Snapshot, sessions []models.Session) []SessionRow {
	names := map[string]string{}
	for _, s := range snap.Subjects {
		names["subject:"+s.ID] = s.Name
	}
	for _, b := range snap.Batches {
		names["batch:"+b.ID] = b.Name
	}
	for _, f := range snap.Faculty {
		names["faculty:"+f.ID] = f.Name
	}
	for _, r := range snap.Rooms {
		names["room:"+r.ID] = r.Name
	}
	slots := make(map[string]models.TimeSlot, len(snap.TimeSlots))
	for _, ts := range snap.TimeSlots {
		slots[ts.ID] = ts
	}
	label := func(kind, id string) string {
		if name := names[kind+":"+id]; name != "" {
			return name
		}
		return id
	}

	rows := make([]SessionRow, 0, len(sessions))
	days := make([]int, 0, len(sessions))
	for _, s := range sessions {
		slot := slots[s.TimeSlotID]
		rows = append(rows, SessionRow{
			Week:      s.Week,
			Day:       DayName(slot.Day),
			StartTime: slot.StartTime,
			EndTime:   slot.EndTime,
			Batch:     label("batch", s.BatchID),
			Subject:   label("subject", s.SubjectID),
			Faculty:   label("faculty", s.FacultyID),
			Room:      label("room", s.RoomID),
			Type:      string(s.Type),
			SessionID: s.ID,
		})
		days = append(days, slot.Day)
	}

	idx := make([]int, len(rows))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ra, rb := rows[idx[a]], rows[idx[b]]
		if ra.Week != rb.Week {
			return ra.Week < rb.Week
		}
		if days[idx[a]] != days[idx[b]] {
			return days[idx[a]] < days[idx[b]]
		}
		if ra.StartTime != rb.StartTime {
			return ra.StartTime < rb.StartTime
		}
		return ra.Batch < rb.Batch
	})
	sorted := make([]SessionRow, len(rows))
	for i, j := range idx {
		sorted[i] = rows[j]
	}
	return sorted
}

// WriteSessions encodes session rows as CSV.
func WriteSessions(w io.Writer, snap models.Snapshot, sessions []models.Session) error {
	rows := SessionRows(snap, sessions)
	return gocsv.Marshal(&rows, w)
}
