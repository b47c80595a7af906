// api/aggregate/average.go
package aggregate

import (
	"strconv"
	"time"

	"github.com/tidwall/gjson"

	"checkoutlens/api/models"
)

// AverageField is the mean of the numeric payload value at path across the
// given events. Events without a numeric value at path are skipped; no
// matching values yields 0.
func AverageField(events []models.FrictionEvent, path string) float64 {
	var (
		sum   float64
		count int
	)

	for _, ev := range events {
		v, ok := numericField(ev.Data, path)
		if !ok {
			continue
		}
		sum += v
		count++
	}

	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

func numericField(data, path string) (float64, bool) {
	res := gjson.Get(data, path)
	switch res.Type {
	case gjson.Number:
		return res.Num, true
	case gjson.String:
		// Producers occasionally serialize numbers as strings.
		v, err := strconv.ParseFloat(res.String(), 64)
		if err != nil {
			return 0, false
		}
		return v, true
	default:
		return 0, false
	}
}

// SessionPairDurations joins sessions holding both a startType and an endType
// event and returns, per such session, the elapsed time from the earliest
// start to the latest end. Sessions where the end precedes the start (dropped
// or duplicated beacons) are skipped.
func SessionPairDurations(events []models.FrictionEvent, startType, endType string) []time.Duration {
	type span struct {
		start time.Time
		end   time.Time
	}

	spans := make(map[string]*span)
	sessionOrder := make([]string, 0)

	for _, ev := range events {
		sp, ok := spans[ev.SessionID]
		if !ok {
			sp = &span{}
			spans[ev.SessionID] = sp
			sessionOrder = append(sessionOrder, ev.SessionID)
		}
		switch ev.Type {
		case startType:
			if sp.start.IsZero() || ev.CreatedAt.Before(sp.start) {
				sp.start = ev.CreatedAt
			}
		case endType:
			if sp.end.IsZero() || ev.CreatedAt.After(sp.end) {
				sp.end = ev.CreatedAt
			}
		}
	}

	var durations []time.Duration
	for _, sid := range sessionOrder {
		sp := spans[sid]
		if sp.start.IsZero() || sp.end.IsZero() || sp.end.Before(sp.start) {
			continue
		}
		durations = append(durations, sp.end.Sub(sp.start))
	}
	return durations
}

// AverageSeconds averages a set of durations and reports seconds, one decimal.
// Empty input yields 0.
func AverageSeconds(durations []time.Duration) float64 {
	if len(durations) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range durations {
		total += d
	}
	return Round1(total.Seconds() / float64(len(durations)))
}
