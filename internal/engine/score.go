package engine

import (
	"math"

	"github.com/noah-isme/timetable-engine/internal/models"
)

const (
	baseScore        = 100
	conflictWeight   = 15
	overloadWeight   = 5
	distributionCap  = 10.0
	efficiencyWeight = 10.0
)

// Evaluate scores sessions and conflicts against the snapshot on a 0..100 scale.
func Evaluate(snapshot models.Snapshot, sessions []models.Session, conflicts []models.Conflict) models.ScoreBreakdown {
	return evaluate(newCatalog(snapshot), sessions, conflicts)
}

func evaluate(cat *catalog, sessions []models.Session, conflicts []models.Conflict) models.ScoreBreakdown {
	b := models.ScoreBreakdown{Base: baseScore}
	b.ConflictPenalty = conflictWeight * len(conflicts)

	for _, s := range sessions {
		slot, ok := cat.slots[s.TimeSlotID]
		if ok && slot.IsWeekday() {
			b.DailyCounts[slot.Day]++
		}
	}
	b.Distribution = math.Max(0, distributionCap-variance(b.DailyCounts[:]))
	b.OverloadPenalty = overloadWeight * facultyOverload(cat, sessions)

	used := make(map[string]bool)
	for _, s := range sessions {
		if _, ok := cat.rooms[s.RoomID]; ok {
			used[s.RoomID] = true
		}
	}
	b.DistinctRoomsUsed = len(used)
	if len(cat.rooms) > 0 {
		b.RoomEfficiency = int(math.Round(efficiencyWeight * float64(len(used)) / float64(len(cat.rooms))))
	}

	raw := float64(b.Base-b.ConflictPenalty-b.OverloadPenalty+b.RoomEfficiency) + b.Distribution
	b.Total = clamp(int(math.Round(raw)), 0, 100)
	return b
}

// variance is the population variance.
func variance(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += float64(v)
	}
	mean := sum / float64(len(values))
	var sq float64
	for _, v := range values {
		d := float64(v) - mean
		sq += d * d
	}
	return sq / float64(len(values))
}

type dailyLoadKey struct {
	week      int
	facultyID string
	day       int
}

// facultyOverload sums, per faculty and teaching day, the sessions above maxClassesPerDay.
// A non-positive limit means unlimited.
func facultyOverload(cat *catalog, sessions []models.Session) int {
	loads := make(map[dailyLoadKey]int)
	var order []dailyLoadKey
	for _, s := range sessions {
		slot, ok := cat.slots[s.TimeSlotID]
		if !ok {
			continue
		}
		key := dailyLoadKey{week: s.Week, facultyID: s.FacultyID, day: slot.Day}
		if _, seen := loads[key]; !seen {
			order = append(order, key)
		}
		loads[key]++
	}

	total := 0
	for _, key := range order {
		f, ok := cat.faculty[key.facultyID]
		if !ok || f.MaxClassesPerDay <= 0 {
			continue
		}
		if over := loads[key] - f.MaxClassesPerDay; over > 0 {
			total += over
		}
	}
	return total
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
