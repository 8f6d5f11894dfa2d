package models

// EntityUtilization is the usage of a single faculty member or room.
type EntityUtilization struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Sessions int     `json:"sessions"`
	Hours    float64 `json:"hours,omitempty"`
	Percent  int     `json:"percent"`
}

// Utilization aggregates resource usage for a set of sessions.
type Utilization struct {
	Faculty       int                 `json:"faculty"`
	Rooms         int                 `json:"rooms"`
	FacultyDetail []EntityUtilization `json:"faculty_detail"`
	RoomDetail    []EntityUtilization `json:"room_detail"`
}

// ScoreBreakdown explains how a timetable score was derived.
type ScoreBreakdown struct {
	Base              int     `json:"base"`
	ConflictPenalty   int     `json:"conflict_penalty"`
	Distribution      float64 `json:"distribution"`
	OverloadPenalty   int     `json:"overload_penalty"`
	RoomEfficiency    int     `json:"room_efficiency"`
	DailyCounts       [5]int  `json:"daily_counts"`
	DistinctRoomsUsed int     `json:"distinct_rooms_used"`
	Total             int     `json:"total"`
}
