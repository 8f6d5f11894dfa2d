package engine

import "github.com/noah-isme/timetable-engine/internal/models"

// allocateSlot returns the first free slot on the preferred days. There is no backtracking.
func allocateSlot(
	cat *catalog,
	l *ledger,
	days []int,
	faculty models.Faculty,
	room models.Room,
	batch models.Batch,
	subject models.Subject,
) (models.Session, bool) {
	for _, day := range days {
		if day < 0 || day >= weekdays {
			continue
		}
		for _, gs := range cat.grid[day] {
			if !faculty.Available(day, gs.bucket) {
				continue
			}
			if l.occupied(gs.slot.ID, faculty.ID, room.ID, batch.ID) {
				continue
			}
			return models.Session{
				ID:         l.nextID(),
				SubjectID:  subject.ID,
				BatchID:    batch.ID,
				FacultyID:  faculty.ID,
				RoomID:     room.ID,
				TimeSlotID: gs.slot.ID,
				Type:       subject.Type,
				Week:       1,
			}, true
		}
	}
	return models.Session{}, false
}
