package engine

import (
	"math/rand"

	"github.com/noah-isme/timetable-engine/internal/models"
)

var (
	labDays     = []int{1, 2, 3}
	regularDays = []int{0, 1, 2, 3, 4}
)

// dayPreference returns the weekdays to try, in order, for one session of the subject.
// Labs stay mid-week; subjects meeting three or more times a week get a shuffled week.
func dayPreference(subject models.Subject, rng *rand.Rand) []int {
	switch {
	case subject.IsLab():
		return append([]int(nil), labDays...)
	case subject.SessionsPerWeek >= 3:
		return rng.Perm(weekdays)
	default:
		return append([]int(nil), regularDays...)
	}
}
