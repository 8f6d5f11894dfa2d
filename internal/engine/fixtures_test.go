package engine

import (
	"fmt"

	"github.com/noah-isme/timetable-engine/internal/models"
)

func weekGrid(perDay int) []models.TimeSlot {
	slots := make([]models.TimeSlot, 0, perDay*5)
	for day := 0; day < 5; day++ {
		for i := 0; i < perDay; i++ {
			hour := 9 + i
			shift := models.ShiftMorning
			if hour >= 12 {
				shift = models.ShiftAfternoon
			}
			slots = append(slots, models.TimeSlot{
				ID:        fmt.Sprintf("d%d-s%d", day, i),
				Day:       day,
				StartTime: fmt.Sprintf("%02d:00", hour),
				EndTime:   fmt.Sprintf("%02d:50", hour),
				Shift:     shift,
			})
		}
	}
	return slots
}

func fullyAvailable() *models.Availability {
	a := models.FullAvailability()
	return &a
}

// singleSubjectSnapshot is one batch of 60, one theory subject three times a week,
// one faculty member and one room of the given capacity.
func singleSubjectSnapshot(roomCapacity int) models.Snapshot {
	return models.Snapshot{
		Subjects: []models.Subject{{ID: "sub-math", Name: "Mathematics", Type: models.SubjectTypeTheory, SessionsPerWeek: 3, SessionDuration: 60}},
		Batches:  []models.Batch{{ID: "bat-a", Name: "CS-A", StudentCount: 60, SubjectIDs: models.IDList{"sub-math"}}},
		Faculty: []models.Faculty{{
			ID: "fac-1", Name: "Dr. Rao", SubjectIDs: models.IDList{"sub-math"},
			MaxClassesPerDay: 6, MaxClassesPerWeek: 20, Availability: fullyAvailable(),
		}},
		Rooms:     []models.Room{{ID: "room-1", Name: "A-101", Type: models.RoomTypeClassroom, Capacity: roomCapacity}},
		TimeSlots: weekGrid(8),
	}
}

func campusSnapshot() models.Snapshot {
	limited := models.FullAvailability()
	for bucket := 0; bucket < 3; bucket++ {
		limited[1][bucket] = false
	}
	return models.Snapshot{
		Subjects: []models.Subject{
			{ID: "sub-math", Name: "Mathematics", Type: models.SubjectTypeTheory, SessionsPerWeek: 3, SessionDuration: 60},
			{ID: "sub-phys", Name: "Physics", Type: models.SubjectTypeTheory, SessionsPerWeek: 2, SessionDuration: 60},
			{ID: "sub-chem", Name: "Chemistry Lab", Type: models.SubjectTypeLab, SessionsPerWeek: 2, SessionDuration: 120},
			{ID: "sub-art", Name: "Art History", Type: models.SubjectTypeElective, SessionsPerWeek: 1, SessionDuration: 45},
		},
		Batches: []models.Batch{
			{ID: "bat-a", Name: "CS-A", StudentCount: 60, SubjectIDs: models.IDList{"sub-math", "sub-phys", "sub-chem"}},
			{ID: "bat-b", Name: "CS-B", StudentCount: 30, SubjectIDs: models.IDList{"sub-math", "sub-chem", "sub-art"}},
			{ID: "bat-c", Name: "ME-A", StudentCount: 120, SubjectIDs: models.IDList{"sub-phys"}},
		},
		Faculty: []models.Faculty{
			{ID: "fac-1", Name: "Dr. Rao", SubjectIDs: models.IDList{"sub-math", "sub-phys"}, MaxClassesPerDay: 4, MaxClassesPerWeek: 18},
			{ID: "fac-2", Name: "Dr. Sen", SubjectIDs: models.IDList{"sub-math", "sub-chem"}, MaxClassesPerDay: 4, MaxClassesPerWeek: 18, Availability: fullyAvailable()},
			{ID: "fac-3", Name: "Dr. Iyer", SubjectIDs: models.IDList{"sub-chem", "sub-art"}, MaxClassesPerDay: 3, MaxClassesPerWeek: 12, Availability: &limited},
		},
		Rooms: []models.Room{
			{ID: "room-1", Name: "A-101", Type: models.RoomTypeClassroom, Capacity: 60},
			{ID: "room-2", Name: "A-102", Type: models.RoomTypeClassroom, Capacity: 40},
			{ID: "lab-1", Name: "Chem Lab", Type: models.RoomTypeLab, Capacity: 60},
			{ID: "aud-1", Name: "Main Hall", Type: models.RoomTypeAuditorium, Capacity: 150},
		},
		TimeSlots: weekGrid(6),
	}
}

func seed(v int64) *int64 {
	return &v
}
