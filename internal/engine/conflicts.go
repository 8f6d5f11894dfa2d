package engine

import (
	"fmt"

	"github.com/noah-isme/timetable-engine/internal/models"
)

type orderedGroups struct {
	order []string
	ids   map[string][]string
}

func newOrderedGroups() *orderedGroups {
	return &orderedGroups{ids: make(map[string][]string)}
}

func (g *orderedGroups) add(key, sessionID string) {
	if _, ok := g.ids[key]; !ok {
		g.order = append(g.order, key)
	}
	g.ids[key] = append(g.ids[key], sessionID)
}

type slotGroup struct {
	faculty *orderedGroups
	room    *orderedGroups
	batch   *orderedGroups
}

// DetectConflicts reports every faculty, room or batch booked more than once in the
// same time slot. Week numbers are ignored. Output order is stable for a given input:
// slots in first-seen order, then faculty, room and batch groups within each slot.
func DetectConflicts(sessions []models.Session) []models.Conflict {
	var slotOrder []string
	groups := make(map[string]*slotGroup)
	for _, s := range sessions {
		g, ok := groups[s.TimeSlotID]
		if !ok {
			g = &slotGroup{faculty: newOrderedGroups(), room: newOrderedGroups(), batch: newOrderedGroups()}
			groups[s.TimeSlotID] = g
			slotOrder = append(slotOrder, s.TimeSlotID)
		}
		g.faculty.add(s.FacultyID, s.ID)
		g.room.add(s.RoomID, s.ID)
		g.batch.add(s.BatchID, s.ID)
	}

	conflicts := make([]models.Conflict, 0)
	for _, slotID := range slotOrder {
		g := groups[slotID]
		conflicts = appendCollisions(conflicts, models.ConflictTypeFaculty, "faculty", slotID, g.faculty)
		conflicts = appendCollisions(conflicts, models.ConflictTypeRoom, "room", slotID, g.room)
		conflicts = appendCollisions(conflicts, models.ConflictTypeBatch, "batch", slotID, g.batch)
	}
	return conflicts
}

func appendCollisions(out []models.Conflict, kind models.ConflictType, label, slotID string, g *orderedGroups) []models.Conflict {
	for _, key := range g.order {
		ids := g.ids[key]
		if len(ids) < 2 {
			continue
		}
		out = append(out, models.Conflict{
			Type:       kind,
			Message:    fmt.Sprintf("%s %s is double-booked in slot %s (%d sessions)", label, key, slotID, len(ids)),
			SessionIDs: append([]string(nil), ids...),
		})
	}
	return out
}
