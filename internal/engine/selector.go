package engine

import (
	"github.com/samber/lo"

	"github.com/noah-isme/timetable-engine/internal/models"
)

// selectFaculty picks the least loaded candidate; the first one wins ties.
func selectFaculty(candidates []models.Faculty, l *ledger) models.Faculty {
	return lo.MinBy(candidates, func(a, b models.Faculty) bool {
		return l.facultyLoad[a.ID] < l.facultyLoad[b.ID]
	})
}

func eligibleRooms(rooms []models.Room, subject models.Subject, batch models.Batch) []models.Room {
	return lo.Filter(rooms, func(r models.Room, _ int) bool {
		return r.Fits(subject, batch)
	})
}

// selectRoom picks the least used eligible room; the first one wins ties.
func selectRoom(rooms []models.Room, l *ledger) models.Room {
	return lo.MinBy(rooms, func(a, b models.Room) bool {
		return l.roomLoad[a.ID] < l.roomLoad[b.ID]
	})
}
