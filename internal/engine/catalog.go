package engine

import (
	"sort"

	"github.com/noah-isme/timetable-engine/internal/models"
)

const (
	weekdays       = 5
	baselineHour   = 9
	maxHourBucket  = models.AvailabilityBuckets - 1
	minutesPerHour = 60
)

// gridSlot is a weekday time slot with its availability bucket resolved.
type gridSlot struct {
	slot   models.TimeSlot
	bucket int
}

// catalog indexes a snapshot for a single run.
type catalog struct {
	snapshot models.Snapshot
	subjects map[string]models.Subject
	batches  map[string]models.Batch
	faculty  map[string]models.Faculty
	rooms    map[string]models.Room
	slots    map[string]models.TimeSlot
	grid     [weekdays][]gridSlot
}

func newCatalog(snapshot models.Snapshot) *catalog {
	c := &catalog{
		snapshot: snapshot,
		subjects: make(map[string]models.Subject, len(snapshot.Subjects)),
		batches:  make(map[string]models.Batch, len(snapshot.Batches)),
		faculty:  make(map[string]models.Faculty, len(snapshot.Faculty)),
		rooms:    make(map[string]models.Room, len(snapshot.Rooms)),
		slots:    make(map[string]models.TimeSlot, len(snapshot.TimeSlots)),
	}
	// first occurrence wins on duplicate ids
	for _, s := range snapshot.Subjects {
		if _, ok := c.subjects[s.ID]; !ok {
			c.subjects[s.ID] = s
		}
	}
	for _, b := range snapshot.Batches {
		if _, ok := c.batches[b.ID]; !ok {
			c.batches[b.ID] = b
		}
	}
	for _, f := range snapshot.Faculty {
		if _, ok := c.faculty[f.ID]; !ok {
			c.faculty[f.ID] = f
		}
	}
	for _, r := range snapshot.Rooms {
		if _, ok := c.rooms[r.ID]; !ok {
			c.rooms[r.ID] = r
		}
	}

	starts := make(map[string]int, len(snapshot.TimeSlots))
	for _, ts := range snapshot.TimeSlots {
		if _, ok := c.slots[ts.ID]; ok {
			continue
		}
		c.slots[ts.ID] = ts
		if !ts.IsWeekday() {
			continue
		}
		start, err := ts.StartMinutes()
		if err != nil {
			continue
		}
		starts[ts.ID] = start
		c.grid[ts.Day] = append(c.grid[ts.Day], gridSlot{slot: ts, bucket: availabilityBucket(start)})
	}
	for day := range c.grid {
		list := c.grid[day]
		sort.SliceStable(list, func(i, j int) bool {
			return starts[list[i].slot.ID] < starts[list[j].slot.ID]
		})
	}
	return c
}

// availabilityBucket maps a start time onto the coarse hourly availability grid.
// Slots starting within the same hour share a bucket.
func availabilityBucket(startMinutes int) int {
	bucket := startMinutes/minutesPerHour - baselineHour
	if bucket < 0 {
		return 0
	}
	if bucket > maxHourBucket {
		return maxHourBucket
	}
	return bucket
}

// facultyFor returns the faculty teaching a subject in snapshot order.
func (c *catalog) facultyFor(subjectID string) []models.Faculty {
	var result []models.Faculty
	seen := make(map[string]bool)
	for _, f := range c.snapshot.Faculty {
		if seen[f.ID] || !f.Teaches(subjectID) {
			continue
		}
		seen[f.ID] = true
		result = append(result, f)
	}
	return result
}

func (c *catalog) subjectLabel(id string) string {
	if s, ok := c.subjects[id]; ok && s.Name != "" {
		return s.Name
	}
	return id
}

func (c *catalog) batchLabel(id string) string {
	if b, ok := c.batches[id]; ok && b.Name != "" {
		return b.Name
	}
	return id
}

func uniqueIDs(ids []string) []string {
	result := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		result = append(result, id)
	}
	return result
}
