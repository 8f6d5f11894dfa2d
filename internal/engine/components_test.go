package engine

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-engine/internal/models"
)

func TestAvailabilityBucket(t *testing.T) {
	cases := []struct {
		minutes int
		want    int
	}{
		{minutes: 480, want: 0},
		{minutes: 540, want: 0},
		{minutes: 585, want: 0},
		{minutes: 630, want: 1},
		{minutes: 1080, want: 9},
		{minutes: 1275, want: 9},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, availabilityBucket(tc.minutes), "minutes=%d", tc.minutes)
	}
}

func TestDayPreference(t *testing.T) {
	rng := rand.New(rand.NewSource(11))

	assert.Equal(t, []int{1, 2, 3}, dayPreference(models.Subject{Type: models.SubjectTypeLab, SessionsPerWeek: 4}, rng))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, dayPreference(models.Subject{Type: models.SubjectTypeTheory, SessionsPerWeek: 2}, rng))

	shuffled := dayPreference(models.Subject{Type: models.SubjectTypeTheory, SessionsPerWeek: 3}, rng)
	assert.ElementsMatch(t, []int{0, 1, 2, 3, 4}, shuffled)
}

func TestSelectFacultyPrefersLeastLoaded(t *testing.T) {
	l := newLedger()
	candidates := []models.Faculty{{ID: "f1"}, {ID: "f2"}, {ID: "f3"}}

	assert.Equal(t, "f1", selectFaculty(candidates, l).ID)

	l.place(models.Session{ID: "s1", FacultyID: "f1", RoomID: "r1", BatchID: "b1", TimeSlotID: "t1"})
	assert.Equal(t, "f2", selectFaculty(candidates, l).ID)

	l.place(models.Session{ID: "s2", FacultyID: "f2", RoomID: "r1", BatchID: "b1", TimeSlotID: "t2"})
	l.place(models.Session{ID: "s3", FacultyID: "f3", RoomID: "r1", BatchID: "b1", TimeSlotID: "t3"})
	assert.Equal(t, "f1", selectFaculty(candidates, l).ID)
}

func TestEligibleRoomsAndSelection(t *testing.T) {
	rooms := []models.Room{
		{ID: "small", Type: models.RoomTypeClassroom, Capacity: 20},
		{ID: "big", Type: models.RoomTypeClassroom, Capacity: 80},
		{ID: "lab", Type: models.RoomTypeLab, Capacity: 50},
	}
	batch := models.Batch{StudentCount: 40}

	theory := eligibleRooms(rooms, models.Subject{Type: models.SubjectTypeTheory}, batch)
	require.Len(t, theory, 2)
	assert.Equal(t, "big", theory[0].ID)

	lab := eligibleRooms(rooms, models.Subject{Type: models.SubjectTypeLab}, batch)
	require.Len(t, lab, 1)
	assert.Equal(t, "lab", lab[0].ID)

	l := newLedger()
	l.place(models.Session{ID: "s1", RoomID: "big", TimeSlotID: "t1"})
	assert.Equal(t, "lab", selectRoom(theory, l).ID)
}

func TestAllocateSlotSkipsUnavailableAndBusy(t *testing.T) {
	snap := singleSubjectSnapshot(60)
	avail := models.FullAvailability()
	avail[0][0] = false
	snap.Faculty[0].Availability = &avail
	cat := newCatalog(snap)
	l := newLedger()
	l.place(models.Session{ID: "other", FacultyID: "fac-9", RoomID: "room-1", BatchID: "bat-z", TimeSlotID: "d0-s1"})

	session, ok := allocateSlot(cat, l, []int{0}, snap.Faculty[0], snap.Rooms[0], snap.Batches[0], snap.Subjects[0])

	require.True(t, ok)
	assert.Equal(t, "d0-s2", session.TimeSlotID)
	assert.Equal(t, "ses-1", session.ID)
}

func TestAllocateSlotOrdersChronologically(t *testing.T) {
	snap := singleSubjectSnapshot(60)
	snap.TimeSlots = []models.TimeSlot{
		{ID: "late", Day: 2, StartTime: "14:00", EndTime: "15:00"},
		{ID: "broken", Day: 2, StartTime: "noon", EndTime: "13:00"},
		{ID: "early", Day: 2, StartTime: "09:30", EndTime: "10:30"},
		{ID: "weekend", Day: 5, StartTime: "09:00", EndTime: "10:00"},
	}
	cat := newCatalog(snap)

	session, ok := allocateSlot(cat, newLedger(), []int{0, 1, 2}, snap.Faculty[0], snap.Rooms[0], snap.Batches[0], snap.Subjects[0])

	require.True(t, ok)
	assert.Equal(t, "early", session.TimeSlotID)
	_, ok = allocateSlot(cat, newLedger(), []int{0, 1}, snap.Faculty[0], snap.Rooms[0], snap.Batches[0], snap.Subjects[0])
	assert.False(t, ok)
}

func TestDetectConflictsOrdering(t *testing.T) {
	sessions := []models.Session{
		{ID: "a", TimeSlotID: "t1", FacultyID: "f1", RoomID: "r1", BatchID: "b1"},
		{ID: "b", TimeSlotID: "t1", FacultyID: "f1", RoomID: "r2", BatchID: "b2"},
		{ID: "c", TimeSlotID: "t2", FacultyID: "f2", RoomID: "r3", BatchID: "b3"},
		{ID: "d", TimeSlotID: "t1", FacultyID: "f3", RoomID: "r1", BatchID: "b2"},
	}

	conflicts := DetectConflicts(sessions)

	require.Len(t, conflicts, 3)
	assert.Equal(t, models.ConflictTypeFaculty, conflicts[0].Type)
	assert.Equal(t, []string{"a", "b"}, conflicts[0].SessionIDs)
	assert.Equal(t, models.ConflictTypeRoom, conflicts[1].Type)
	assert.Equal(t, []string{"a", "d"}, conflicts[1].SessionIDs)
	assert.Equal(t, models.ConflictTypeBatch, conflicts[2].Type)
	assert.Equal(t, []string{"b", "d"}, conflicts[2].SessionIDs)
	assert.NotNil(t, DetectConflicts(nil))
}

func TestEvaluateBreakdown(t *testing.T) {
	snap := singleSubjectSnapshot(60)
	snap.Faculty[0].MaxClassesPerDay = 1
	snap.Rooms = append(snap.Rooms, models.Room{ID: "room-2", Type: models.RoomTypeClassroom, Capacity: 60})
	sessions := []models.Session{
		{ID: "s1", FacultyID: "fac-1", RoomID: "room-1", BatchID: "bat-a", TimeSlotID: "d0-s0", Week: 1},
		{ID: "s2", FacultyID: "fac-1", RoomID: "room-1", BatchID: "bat-a", TimeSlotID: "d0-s1", Week: 1},
		{ID: "s3", FacultyID: "fac-1", RoomID: "room-1", BatchID: "bat-a", TimeSlotID: "d0-s2", Week: 1},
		{ID: "s4", FacultyID: "fac-1", RoomID: "room-9", BatchID: "bat-a", TimeSlotID: "missing", Week: 1},
	}
	conflicts := []models.Conflict{{Type: models.ConflictTypeBatch}, {Type: models.ConflictTypeBatch}}

	b := Evaluate(snap, sessions, conflicts)

	assert.Equal(t, [5]int{3, 0, 0, 0, 0}, b.DailyCounts)
	assert.InDelta(t, 8.56, b.Distribution, 1e-9)
	assert.Equal(t, 30, b.ConflictPenalty)
	assert.Equal(t, 10, b.OverloadPenalty)
	assert.Equal(t, 1, b.DistinctRoomsUsed)
	assert.Equal(t, 5, b.RoomEfficiency)
	assert.Equal(t, 74, b.Total)
}

func TestEvaluateClampsAtZero(t *testing.T) {
	conflicts := make([]models.Conflict, 10)

	b := Evaluate(models.Snapshot{}, nil, conflicts)

	assert.Equal(t, 0, b.Total)
	assert.Equal(t, 0, b.RoomEfficiency)
}

func TestComputeUtilization(t *testing.T) {
	snap := singleSubjectSnapshot(60)
	snap.Subjects[0].SessionDuration = 90
	snap.Faculty[0].MaxClassesPerWeek = 10
	snap.Faculty = append(snap.Faculty, models.Faculty{ID: "fac-2", Name: "Dr. Nil"})
	snap.Rooms = append(snap.Rooms, models.Room{ID: "room-2"})
	sessions := []models.Session{
		{ID: "s1", SubjectID: "sub-math", FacultyID: "fac-1", RoomID: "room-1"},
		{ID: "s2", SubjectID: "sub-math", FacultyID: "fac-1", RoomID: "room-1"},
		{ID: "s3", SubjectID: "sub-math", FacultyID: "fac-1", RoomID: "room-1"},
	}

	u := ComputeUtilization(snap, sessions)

	assert.Equal(t, 23, u.Faculty)
	assert.Equal(t, 4, u.Rooms)
	require.Len(t, u.FacultyDetail, 2)
	assert.Equal(t, 45, u.FacultyDetail[0].Percent)
	assert.InDelta(t, 4.5, u.FacultyDetail[0].Hours, 1e-9)
	assert.Equal(t, 0, u.FacultyDetail[1].Percent)
	assert.Equal(t, 8, u.RoomDetail[0].Percent)

	empty := ComputeUtilization(models.Snapshot{}, sessions)
	assert.Equal(t, 0, empty.Faculty)
	assert.Equal(t, 0, empty.Rooms)
}
