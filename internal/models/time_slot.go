package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Shift groups time slots by part of day.
type Shift string

const (
	ShiftMorning   Shift = "morning"
	ShiftAfternoon Shift = "afternoon"
	ShiftEvening   Shift = "evening"
)

// TimeSlot is a fixed interval in the weekly grid. Day 0 is Monday.
type TimeSlot struct {
	ID        string `db:"id" json:"id"`
	Day       int    `db:"day" json:"day"`
	StartTime string `db:"start_time" json:"start_time"`
	EndTime   string `db:"end_time" json:"end_time"`
	Shift     Shift  `db:"shift" json:"shift"`
}

// IsWeekday reports whether the slot falls Monday through Friday.
func (t TimeSlot) IsWeekday() bool {
	return t.Day >= 0 && t.Day <= 4
}

// StartMinutes returns the start time as minutes past midnight.
func (t TimeSlot) StartMinutes() (int, error) {
	return parseClock(t.StartTime)
}

// EndMinutes returns the end time as minutes past midnight.
func (t TimeSlot) EndMinutes() (int, error) {
	return parseClock(t.EndTime)
}

func parseClock(raw string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(raw), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock %q", raw)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", raw)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", raw)
	}
	return h*60 + m, nil
}
