package engine

import (
	"fmt"

	"github.com/noah-isme/timetable-engine/internal/models"
)

// Analysis is the evaluation of an externally supplied session set.
type Analysis struct {
	Conflicts   []models.Conflict     `json:"conflicts"`
	Score       int                   `json:"score"`
	Breakdown   models.ScoreBreakdown `json:"breakdown"`
	Utilization models.Utilization    `json:"utilization"`
}

// Analyze checks edited sessions against the snapshot's hard constraints, then
// runs collision detection and scoring over them.
func Analyze(snapshot models.Snapshot, sessions []models.Session) Analysis {
	cat := newCatalog(snapshot)
	conflicts := make([]models.Conflict, 0)
	for _, s := range sessions {
		conflicts = append(conflicts, validateSession(cat, s)...)
	}
	conflicts = append(conflicts, DetectConflicts(sessions)...)
	breakdown := evaluate(cat, sessions, conflicts)
	return Analysis{
		Conflicts:   conflicts,
		Score:       breakdown.Total,
		Breakdown:   breakdown,
		Utilization: ComputeUtilization(snapshot, sessions),
	}
}

func validateSession(cat *catalog, s models.Session) []models.Conflict {
	var out []models.Conflict
	flag := func(kind models.ConflictType, format string, args ...interface{}) {
		out = append(out, models.Conflict{Type: kind, Message: fmt.Sprintf(format, args...), SessionIDs: []string{s.ID}})
	}

	subject, hasSubject := cat.subjects[s.SubjectID]
	batch, hasBatch := cat.batches[s.BatchID]
	faculty, hasFaculty := cat.faculty[s.FacultyID]
	room, hasRoom := cat.rooms[s.RoomID]
	slot, hasSlot := cat.slots[s.TimeSlotID]

	if !hasSubject {
		flag(models.ConflictTypeBatch, "session %s references unknown subject %s", s.ID, s.SubjectID)
	}
	if !hasBatch {
		flag(models.ConflictTypeBatch, "session %s references unknown batch %s", s.ID, s.BatchID)
	}
	if !hasFaculty {
		flag(models.ConflictTypeFaculty, "session %s references unknown faculty %s", s.ID, s.FacultyID)
	}
	if !hasRoom {
		flag(models.ConflictTypeRoom, "session %s references unknown room %s", s.ID, s.RoomID)
	}
	if !hasSlot {
		flag(models.ConflictTypeBatch, "session %s references unknown time slot %s", s.ID, s.TimeSlotID)
	}

	if hasSubject && hasBatch && hasRoom && !room.Fits(subject, batch) {
		flag(models.ConflictTypeRoom, "room %s cannot host %s for %s", s.RoomID, cat.subjectLabel(subject.ID), cat.batchLabel(batch.ID))
	}
	if hasFaculty && hasSubject && !faculty.Teaches(subject.ID) {
		flag(models.ConflictTypeFaculty, "faculty %s does not teach %s", s.FacultyID, cat.subjectLabel(subject.ID))
	}
	if hasFaculty && hasSlot && slot.IsWeekday() {
		if start, err := slot.StartMinutes(); err == nil && !faculty.Available(slot.Day, availabilityBucket(start)) {
			flag(models.ConflictTypeFaculty, "faculty %s is unavailable in slot %s", s.FacultyID, s.TimeSlotID)
		}
	}
	return out
}
