package models

// Snapshot is the read-only entity set a generation run works on.
type Snapshot struct {
	Subjects  []Subject  `json:"subjects"`
	Batches   []Batch    `json:"batches"`
	Faculty   []Faculty  `json:"faculty"`
	Rooms     []Room     `json:"rooms"`
	TimeSlots []TimeSlot `json:"time_slots"`
}

// SnapshotCounts summarises collection sizes.
type SnapshotCounts struct {
	Subjects  int `json:"subjects"`
	Batches   int `json:"batches"`
	Faculty   int `json:"faculty"`
	Rooms     int `json:"rooms"`
	TimeSlots int `json:"time_slots"`
}

// Counts returns the number of entities per collection.
func (s Snapshot) Counts() SnapshotCounts {
	return SnapshotCounts{
		Subjects:  len(s.Subjects),
		Batches:   len(s.Batches),
		Faculty:   len(s.Faculty),
		Rooms:     len(s.Rooms),
		TimeSlots: len(s.TimeSlots),
	}
}

// Total is the sum of all collection sizes.
func (c SnapshotCounts) Total() int {
	return c.Subjects + c.Batches + c.Faculty + c.Rooms + c.TimeSlots
}

// Complete reports whether every collection has at least one entity.
func (c SnapshotCounts) Complete() bool {
	return c.Subjects > 0 && c.Batches > 0 && c.Faculty > 0 && c.Rooms > 0 && c.TimeSlots > 0
}
