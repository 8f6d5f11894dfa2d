package engine

import (
	"fmt"

	"github.com/noah-isme/timetable-engine/internal/models"
)

type occupancyKey struct {
	slotID string
	kind   models.ConflictType
	id     string
}

// ledger accumulates the sessions placed during one weekly pass.
type ledger struct {
	sessions    []models.Session
	facultyLoad map[string]int
	roomLoad    map[string]int
	busy        map[occupancyKey]bool
	seq         int
}

func newLedger() *ledger {
	return &ledger{
		sessions:    make([]models.Session, 0),
		facultyLoad: make(map[string]int),
		roomLoad:    make(map[string]int),
		busy:        make(map[occupancyKey]bool),
	}
}

func (l *ledger) occupied(slotID, facultyID, roomID, batchID string) bool {
	return l.busy[occupancyKey{slotID, models.ConflictTypeFaculty, facultyID}] ||
		l.busy[occupancyKey{slotID, models.ConflictTypeRoom, roomID}] ||
		l.busy[occupancyKey{slotID, models.ConflictTypeBatch, batchID}]
}

func (l *ledger) nextID() string {
	l.seq++
	return fmt.Sprintf("ses-%d", l.seq)
}

func (l *ledger) place(session models.Session) {
	l.sessions = append(l.sessions, session)
	l.facultyLoad[session.FacultyID]++
	l.roomLoad[session.RoomID]++
	l.busy[occupancyKey{session.TimeSlotID, models.ConflictTypeFaculty, session.FacultyID}] = true
	l.busy[occupancyKey{session.TimeSlotID, models.ConflictTypeRoom, session.RoomID}] = true
	l.busy[occupancyKey{session.TimeSlotID, models.ConflictTypeBatch, session.BatchID}] = true
}
