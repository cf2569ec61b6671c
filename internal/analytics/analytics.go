// Package analytics turns persisted survey responses into chart-ready
// aggregates. Everything here is a pure computation over rows the caller
// already fetched: no storage, no clock, no shared state. All functions are
// total — empty input produces zero-valued output, never an error.
package analytics

import (
	"math"
	"sort"
	"time"
)

// Status mirrors the persisted response status values.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Response is one respondent's row, already materialized from storage.
// QuestionSeconds carries optional per-question timing; per-question average
// time is only reported when at least one response has it.
type Response struct {
	Answers         map[string]any
	Status          Status
	StartedAt       time.Time
	CompletedAt     *time.Time
	Device          string
	Location        string
	AgeBracket      string
	QuestionSeconds map[string]float64
}

// Question identifies a survey question in presentation order.
type Question struct {
	ID    string
	Label string
}

// QuestionMetric reports per-question participation. DropOffRate models
// sequential abandonment: the share lost between this question and the next
// one in order, so the last question always reports 0.
type QuestionMetric struct {
	QuestionID   string   `json:"question_id"`
	Label        string   `json:"label,omitempty"`
	ResponseRate float64  `json:"response_rate"`
	AvgSeconds   *float64 `json:"avg_seconds,omitempty"`
	DropOffRate  float64  `json:"drop_off_rate"`
}

// TrendPoint is one calendar day in the completion trend.
type TrendPoint struct {
	Date  string `json:"date"`
	Value int    `json:"value"`
	Label string `json:"label"`
}

// Snapshot is the full analytics aggregate for one survey. Recomputed per
// request, never persisted.
type Snapshot struct {
	TotalResponses       int                       `json:"total_responses"`
	CompletionRate       float64                   `json:"completion_rate"`
	AvgCompletionSeconds float64                   `json:"avg_completion_seconds"`
	ResponseVelocity     float64                   `json:"response_velocity"`
	QuestionMetrics      []QuestionMetric          `json:"question_metrics"`
	Demographics         map[string]map[string]int `json:"demographics"`
	Trends               []TrendPoint              `json:"trends"`
}

const dayFormat = "2006-01-02"

// Compute builds a Snapshot from raw responses and the survey's ordered
// question list. from/to bound the daily trend; zero values derive the range
// from the completed responses themselves. Every rate degenerates to 0 when
// its denominator is 0.
func Compute(responses []Response, questions []Question, from, to time.Time) Snapshot {
	snap := Snapshot{
		TotalResponses:  len(responses),
		QuestionMetrics: make([]QuestionMetric, 0, len(questions)),
		Demographics:    map[string]map[string]int{},
	}

	completed := 0
	var completionSeconds float64
	startDays := map[string]struct{}{}
	completedByDay := map[string]int{}

	for _, r := range responses {
		startDays[r.StartedAt.UTC().Format(dayFormat)] = struct{}{}
		if r.Status == StatusCompleted {
			completed++
			if r.CompletedAt != nil {
				completionSeconds += r.CompletedAt.Sub(r.StartedAt).Seconds()
				completedByDay[r.CompletedAt.UTC().Format(dayFormat)]++
			}
		}
	}

	if snap.TotalResponses > 0 {
		snap.CompletionRate = round2(float64(completed) / float64(snap.TotalResponses) * 100)
	}
	if completed > 0 {
		snap.AvgCompletionSeconds = round2(completionSeconds / float64(completed))
	}
	if len(startDays) > 0 {
		snap.ResponseVelocity = round2(float64(completed) / float64(len(startDays)))
	}

	snap.QuestionMetrics = questionMetrics(responses, questions, snap.TotalResponses)
	snap.Demographics = demographics(responses)
	snap.Trends = trend(completedByDay, from, to)

	return snap
}

func questionMetrics(responses []Response, questions []Question, total int) []QuestionMetric {
	metrics := make([]QuestionMetric, len(questions))
	for i, q := range questions {
		m := QuestionMetric{QuestionID: q.ID, Label: q.Label}
		if total > 0 {
			count := 0
			var timed float64
			timedN := 0
			for _, r := range responses {
				if answered(r.Answers[q.ID]) {
					count++
				}
				if secs, ok := r.QuestionSeconds[q.ID]; ok && secs > 0 {
					timed += secs
					timedN++
				}
			}
			m.ResponseRate = round2(float64(count) / float64(total) * 100)
			if timedN > 0 {
				avg := round2(timed / float64(timedN))
				m.AvgSeconds = &avg
			}
		}
		metrics[i] = m
	}

	// Sequential abandonment: loss between question i and i+1. With no
	// responses at all every rate stays 0.
	if total > 0 {
		for i := range metrics {
			if i+1 < len(metrics) {
				metrics[i].DropOffRate = round2(100 - metrics[i+1].ResponseRate)
			}
		}
	}
	return metrics
}

func demographics(responses []Response) map[string]map[string]int {
	dims := map[string]map[string]int{
		"device":   {},
		"location": {},
		"age":      {},
	}
	for _, r := range responses {
		// A response missing a dimension is excluded from that dimension's
		// counts entirely, not bucketed as unknown.
		if r.Device != "" {
			dims["device"][r.Device]++
		}
		if r.Location != "" {
			dims["location"][r.Location]++
		}
		if r.AgeBracket != "" {
			dims["age"][r.AgeBracket]++
		}
	}
	return dims
}

// trend emits one point per calendar day across the whole range, zero-filled,
// so the series has no gaps.
func trend(completedByDay map[string]int, from, to time.Time) []TrendPoint {
	if from.IsZero() || to.IsZero() {
		days := make([]string, 0, len(completedByDay))
		for d := range completedByDay {
			days = append(days, d)
		}
		if len(days) == 0 {
			return []TrendPoint{}
		}
		sort.Strings(days)
		if from.IsZero() {
			from, _ = time.Parse(dayFormat, days[0])
		}
		if to.IsZero() {
			to, _ = time.Parse(dayFormat, days[len(days)-1])
		}
	}

	from = from.UTC().Truncate(24 * time.Hour)
	to = to.UTC().Truncate(24 * time.Hour)
	if to.Before(from) {
		return []TrendPoint{}
	}

	out := make([]TrendPoint, 0, int(to.Sub(from).Hours()/24)+1)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		key := d.Format(dayFormat)
		out = append(out, TrendPoint{
			Date:  key,
			Value: completedByDay[key],
			Label: d.Format("Jan 2"),
		})
	}
	return out
}

// answered reports whether a stored answer counts as a real answer. Absent
// keys, nils, empty strings and empty lists do not.
func answered(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case []string:
		return len(t) > 0
	default:
		return true
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
