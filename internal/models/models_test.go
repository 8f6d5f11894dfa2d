package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvailabilityScanDefaultsToFull(t *testing.T) {
	var a Availability
	require.NoError(t, a.Scan(nil))
	assert.True(t, a[6][9])

	f := Faculty{}
	assert.True(t, f.Available(3, 4))
}

func TestAvailabilityRoundTripThroughValue(t *testing.T) {
	a := FullAvailability()
	a[1][2] = false

	raw, err := a.Value()
	require.NoError(t, err)

	var decoded Availability
	require.NoError(t, decoded.Scan(raw))
	assert.Equal(t, a, decoded)

	f := Faculty{Availability: &decoded}
	assert.False(t, f.Available(1, 2))
	assert.False(t, f.Available(1, 10))
}

func TestIDListScan(t *testing.T) {
	var l IDList
	require.NoError(t, l.Scan([]byte(`{sub-1,sub-2}`)))
	assert.Equal(t, IDList{"sub-1", "sub-2"}, l)
	assert.True(t, l.Contains("sub-2"))
	assert.False(t, l.Contains("sub-3"))
}

func TestRoomFits(t *testing.T) {
	lab := Subject{Type: SubjectTypeLab}
	theory := Subject{Type: SubjectTypeTheory}
	batch := Batch{StudentCount: 30}

	assert.False(t, Room{Type: RoomTypeClassroom, Capacity: 60}.Fits(lab, batch))
	assert.True(t, Room{Type: RoomTypeLab, Capacity: 30}.Fits(lab, batch))
	assert.True(t, Room{Type: RoomTypeAuditorium, Capacity: 100}.Fits(theory, batch))
	assert.False(t, Room{Type: RoomTypeClassroom, Capacity: 29}.Fits(theory, batch))
}

func TestTimeSlotStartMinutes(t *testing.T) {
	m, err := TimeSlot{StartTime: "10:30"}.StartMinutes()
	require.NoError(t, err)
	assert.Equal(t, 630, m)

	_, err = TimeSlot{StartTime: "25:00"}.StartMinutes()
	assert.Error(t, err)
}

func TestConflictListScanEmpty(t *testing.T) {
	var c ConflictList
	require.NoError(t, c.Scan(nil))
	assert.NotNil(t, c)
	assert.Len(t, c, 0)
}

func TestSnapshotCounts(t *testing.T) {
	snap := Snapshot{
		Subjects: []Subject{{ID: "s1"}, {ID: "s2"}},
		Batches:  []Batch{{ID: "b1"}},
		Faculty:  []Faculty{{ID: "f1"}},
		Rooms:    []Room{{ID: "r1"}},
	}
	counts := snap.Counts()
	assert.Equal(t, 5, counts.Total())
	assert.False(t, counts.Complete())

	snap.TimeSlots = []TimeSlot{{ID: "t1"}}
	assert.True(t, snap.Counts().Complete())
}
