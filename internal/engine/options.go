package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/noah-isme/timetable-engine/internal/models"
)

var optionNames = []string{"Balanced", "Faculty Optimized", "Room Optimized"}

// Option is one candidate timetable.
type Option struct {
	Name        string             `json:"name"`
	Result      Result             `json:"result"`
	Utilization models.Utilization `json:"utilization"`
}

// GenerateOptions runs count independent generations concurrently, seeded
// baseSeed, baseSeed+1, ..., and returns them best score first.
func GenerateOptions(ctx context.Context, snapshot models.Snapshot, count int, baseSeed int64, replication *Replication) ([]Option, error) {
	if count <= 0 {
		count = len(optionNames)
	}
	options := make([]Option, count)

	var wg sync.WaitGroup
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return nil, err
		}
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			seed := baseSeed + int64(idx)
			res := Generate(snapshot, Options{Seed: &seed, Replication: replication})
			options[idx] = Option{
				Name:        optionName(idx),
				Result:      res,
				Utilization: ComputeUtilization(snapshot, res.Sessions),
			}
		}(i)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sort.SliceStable(options, func(i, j int) bool {
		return options[i].Result.Score > options[j].Result.Score
	})
	return options, nil
}

func optionName(idx int) string {
	if idx < len(optionNames) {
		return optionNames[idx]
	}
	return fmt.Sprintf("Option %d", idx+1)
}
