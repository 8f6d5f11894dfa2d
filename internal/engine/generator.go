// Package engine builds weekly timetables from an entity snapshot.
//
// Generation is a single constructive pass: every batch's enrolled subjects are
// expanded into weekly sessions, each placed by first-fit against the faculty,
// room and batch occupancy accumulated so far. Requirements that cannot be met
// are reported as conflicts instead of errors. The result can optionally be
// replicated into a multi-week schedule and is then re-scanned for collisions
// and scored.
package engine

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/noah-isme/timetable-engine/internal/models"
)

// Replication expands the base week into a multi-week schedule.
type Replication struct {
	// Weeks is the total number of weeks including the base week.
	Weeks int
	// Probability is the chance each base session is copied into a later week.
	Probability float64
}

// DefaultReplication fills a month.
func DefaultReplication() Replication {
	return Replication{Weeks: 4, Probability: 0.9}
}

// Options tunes a single generation run.
type Options struct {
	// Seed drives every random choice. Nil picks a time based seed.
	Seed *int64
	// Replication is skipped when nil.
	Replication *Replication
}

// Result is the output of one generation run.
type Result struct {
	Sessions     []models.Session      `json:"sessions"`
	Conflicts    []models.Conflict     `json:"conflicts"`
	Score        int                   `json:"score"`
	Breakdown    models.ScoreBreakdown `json:"breakdown"`
	Seed         int64                 `json:"seed"`
	BaseSessions int                   `json:"base_sessions"`
	Weeks        int                   `json:"weeks"`
}

// Generate runs the weekly pass, optional replication, conflict detection and scoring.
// The snapshot is never modified.
func Generate(snapshot models.Snapshot, opts Options) Result {
	seed := time.Now().UnixNano()
	if opts.Seed != nil {
		seed = *opts.Seed
	}
	rng := rand.New(rand.NewSource(seed))
	cat := newCatalog(snapshot)

	l, conflicts := weeklyPass(cat, rng)
	base := len(l.sessions)
	sessions := l.sessions
	weeks := 1
	if opts.Replication != nil && opts.Replication.Weeks > 1 {
		weeks = opts.Replication.Weeks
		sessions = replicate(sessions, *opts.Replication, rng)
	}

	conflicts = append(conflicts, DetectConflicts(sessions)...)
	breakdown := evaluate(cat, sessions, conflicts)

	return Result{
		Sessions:     sessions,
		Conflicts:    conflicts,
		Score:        breakdown.Total,
		Breakdown:    breakdown,
		Seed:         seed,
		BaseSessions: base,
		Weeks:        weeks,
	}
}

func weeklyPass(cat *catalog, rng *rand.Rand) (*ledger, []models.Conflict) {
	l := newLedger()
	conflicts := make([]models.Conflict, 0)

	for _, batch := range cat.snapshot.Batches {
		for _, subjectID := range uniqueIDs(batch.SubjectIDs) {
			subject, ok := cat.subjects[subjectID]
			if !ok {
				conflicts = append(conflicts, unschedulable(models.ConflictTypeBatch,
					fmt.Sprintf("subject %s not found for %s", subjectID, cat.batchLabel(batch.ID))))
				continue
			}
			if subject.SessionsPerWeek <= 0 {
				continue
			}
			candidates := cat.facultyFor(subject.ID)
			if len(candidates) == 0 {
				conflicts = append(conflicts, unschedulable(models.ConflictTypeFaculty,
					fmt.Sprintf("no faculty available for subject %s", cat.subjectLabel(subject.ID))))
				continue
			}

			for i := 0; i < subject.SessionsPerWeek; i++ {
				days := dayPreference(subject, rng)
				faculty := selectFaculty(candidates, l)
				rooms := eligibleRooms(cat.snapshot.Rooms, subject, batch)
				if len(rooms) == 0 {
					conflicts = append(conflicts, unableToSchedule(cat, subject, batch))
					continue
				}
				room := selectRoom(rooms, l)
				session, placed := allocateSlot(cat, l, days, faculty, room, batch, subject)
				if !placed {
					conflicts = append(conflicts, unableToSchedule(cat, subject, batch))
					continue
				}
				l.place(session)
			}
		}
	}
	return l, conflicts
}

// replicate copies base sessions into later weeks without re-validating them.
func replicate(base []models.Session, rep Replication, rng *rand.Rand) []models.Session {
	out := make([]models.Session, 0, len(base)*rep.Weeks)
	out = append(out, base...)
	for week := 2; week <= rep.Weeks; week++ {
		for _, s := range base {
			if rng.Float64() >= rep.Probability {
				continue
			}
			cp := s
			cp.ID = fmt.Sprintf("%s-w%d", s.ID, week)
			cp.Week = week
			out = append(out, cp)
		}
	}
	return out
}

func unschedulable(kind models.ConflictType, message string) models.Conflict {
	return models.Conflict{Type: kind, Message: message, SessionIDs: []string{}}
}

func unableToSchedule(cat *catalog, subject models.Subject, batch models.Batch) models.Conflict {
	return unschedulable(models.ConflictTypeBatch,
		fmt.Sprintf("unable to schedule %s for %s", cat.subjectLabel(subject.ID), cat.batchLabel(batch.ID)))
}
