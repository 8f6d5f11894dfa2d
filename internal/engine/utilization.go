package engine

import (
	"math"

	"github.com/noah-isme/timetable-engine/internal/models"
)

const (
	defaultSessionMinutes = 60
	roomWeeklyCapacity    = 40.0
)

// ComputeUtilization measures how much of each faculty member's weekly allowance and
// each room's weekly capacity the sessions consume.
func ComputeUtilization(snapshot models.Snapshot, sessions []models.Session) models.Utilization {
	cat := newCatalog(snapshot)

	facultySessions := make(map[string]int)
	facultyHours := make(map[string]float64)
	roomSessions := make(map[string]int)
	for _, s := range sessions {
		minutes := defaultSessionMinutes
		if subject, ok := cat.subjects[s.SubjectID]; ok && subject.SessionDuration > 0 {
			minutes = subject.SessionDuration
		}
		facultySessions[s.FacultyID]++
		facultyHours[s.FacultyID] += float64(minutes) / minutesPerHour
		roomSessions[s.RoomID]++
	}

	u := models.Utilization{
		FacultyDetail: make([]models.EntityUtilization, 0, len(snapshot.Faculty)),
		RoomDetail:    make([]models.EntityUtilization, 0, len(snapshot.Rooms)),
	}

	var facultySum float64
	for _, f := range snapshot.Faculty {
		hours := facultyHours[f.ID]
		var pct float64
		if f.MaxClassesPerWeek > 0 {
			pct = math.Min(100, hours/float64(f.MaxClassesPerWeek)*100)
		}
		facultySum += pct
		u.FacultyDetail = append(u.FacultyDetail, models.EntityUtilization{
			ID:       f.ID,
			Name:     f.Name,
			Sessions: facultySessions[f.ID],
			Hours:    hours,
			Percent:  int(math.Round(pct)),
		})
	}
	if n := len(snapshot.Faculty); n > 0 {
		u.Faculty = int(math.Round(facultySum / float64(n)))
	}

	var roomSum float64
	for _, r := range snapshot.Rooms {
		count := roomSessions[r.ID]
		pct := math.Min(100, float64(count)/roomWeeklyCapacity*100)
		roomSum += pct
		u.RoomDetail = append(u.RoomDetail, models.EntityUtilization{
			ID:       r.ID,
			Name:     r.Name,
			Sessions: count,
			Percent:  int(math.Round(pct)),
		})
	}
	if n := len(snapshot.Rooms); n > 0 {
		u.Rooms = int(math.Round(roomSum / float64(n)))
	}
	return u
}
