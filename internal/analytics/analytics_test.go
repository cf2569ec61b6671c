package analytics

import (
	"testing"
	"time"
)

func day(d int) time.Time {
	return time.Date(2026, 5, d, 10, 0, 0, 0, time.UTC)
}

func completedResponse(start time.Time, minutes int, answers map[string]any) Response {
	done := start.Add(time.Duration(minutes) * time.Minute)
	return Response{
		Answers:     answers,
		Status:      StatusCompleted,
		StartedAt:   start,
		CompletedAt: &done,
	}
}

func TestComputeEmpty(t *testing.T) {
	questions := []Question{{ID: "q1"}, {ID: "q2"}}
	snap := Compute(nil, questions, time.Time{}, time.Time{})

	if snap.TotalResponses != 0 {
		t.Fatalf("total = %d", snap.TotalResponses)
	}
	if snap.CompletionRate != 0 || snap.AvgCompletionSeconds != 0 || snap.ResponseVelocity != 0 {
		t.Fatalf("rates not zero: %+v", snap)
	}
	if len(snap.QuestionMetrics) != 2 {
		t.Fatalf("expected a metric per question, got %d", len(snap.QuestionMetrics))
	}
	for _, m := range snap.QuestionMetrics {
		if m.ResponseRate != 0 || m.DropOffRate != 0 {
			t.Fatalf("expected zero rates, got %+v", m)
		}
		if m.AvgSeconds != nil {
			t.Fatalf("avg seconds should be absent without timing data")
		}
	}
	if len(snap.Trends) != 0 {
		t.Fatalf("expected empty trend, got %v", snap.Trends)
	}
}

func TestComputeCompletionRate(t *testing.T) {
	var responses []Response
	for i := 0; i < 7; i++ {
		responses = append(responses, completedResponse(day(1), 5, map[string]any{"q1": "yes"}))
	}
	for i := 0; i < 3; i++ {
		responses = append(responses, Response{Status: StatusInProgress, StartedAt: day(1)})
	}

	snap := Compute(responses, []Question{{ID: "q1"}}, time.Time{}, time.Time{})
	if snap.TotalResponses != 10 {
		t.Fatalf("total = %d", snap.TotalResponses)
	}
	if snap.CompletionRate != 70 {
		t.Fatalf("completion rate = %v, want 70", snap.CompletionRate)
	}
	if snap.AvgCompletionSeconds != 300 {
		t.Fatalf("avg completion = %v, want 300", snap.AvgCompletionSeconds)
	}
	// All starts on one calendar day: 7 completed / 1 day.
	if snap.ResponseVelocity != 7 {
		t.Fatalf("velocity = %v, want 7", snap.ResponseVelocity)
	}
}

func TestComputeQuestionMetricsDropOff(t *testing.T) {
	questions := []Question{{ID: "q1"}, {ID: "q2"}, {ID: "q3"}}
	responses := []Response{
		completedResponse(day(1), 4, map[string]any{"q1": "a", "q2": "b", "q3": "c"}),
		completedResponse(day(1), 4, map[string]any{"q1": "a", "q2": "b"}),
		{Status: StatusInProgress, StartedAt: day(1), Answers: map[string]any{"q1": "a"}},
		{Status: StatusInProgress, StartedAt: day(1), Answers: map[string]any{"q1": ""}},
	}

	snap := Compute(responses, questions, time.Time{}, time.Time{})
	m := snap.QuestionMetrics

	if m[0].ResponseRate != 75 { // empty string is not an answer
		t.Fatalf("q1 rate = %v, want 75", m[0].ResponseRate)
	}
	if m[1].ResponseRate != 50 {
		t.Fatalf("q2 rate = %v, want 50", m[1].ResponseRate)
	}
	if m[2].ResponseRate != 25 {
		t.Fatalf("q3 rate = %v, want 25", m[2].ResponseRate)
	}
	// Drop-off is 100 minus the next question's response rate.
	if m[0].DropOffRate != 50 {
		t.Fatalf("q1 drop-off = %v, want 50", m[0].DropOffRate)
	}
	if m[1].DropOffRate != 75 {
		t.Fatalf("q2 drop-off = %v, want 75", m[1].DropOffRate)
	}
	if m[2].DropOffRate != 0 {
		t.Fatalf("last question drop-off = %v, want 0", m[2].DropOffRate)
	}
}

func TestComputeAvgSecondsOnlyWithTiming(t *testing.T) {
	questions := []Question{{ID: "q1"}}
	r := completedResponse(day(1), 2, map[string]any{"q1": "a"})
	r.QuestionSeconds = map[string]float64{"q1": 12.5}

	snap := Compute([]Response{r, completedResponse(day(1), 2, map[string]any{"q1": "b"})}, questions, time.Time{}, time.Time{})
	m := snap.QuestionMetrics[0]
	if m.AvgSeconds == nil || *m.AvgSeconds != 12.5 {
		t.Fatalf("avg seconds = %v, want 12.5", m.AvgSeconds)
	}
}

func TestComputeVelocityAcrossDays(t *testing.T) {
	responses := []Response{
		completedResponse(day(1), 5, nil),
		completedResponse(day(2), 5, nil),
		completedResponse(day(2), 5, nil),
		completedResponse(day(4), 5, nil),
	}
	snap := Compute(responses, nil, time.Time{}, time.Time{})
	// 4 completed over 3 distinct start days.
	if snap.ResponseVelocity != 1.33 {
		t.Fatalf("velocity = %v, want 1.33", snap.ResponseVelocity)
	}
}

func TestComputeDemographics(t *testing.T) {
	responses := []Response{
		{Status: StatusCompleted, StartedAt: day(1), Device: "mobile", Location: "DE"},
		{Status: StatusCompleted, StartedAt: day(1), Device: "mobile", AgeBracket: "25-34"},
		{Status: StatusInProgress, StartedAt: day(1), Device: "desktop"},
	}
	snap := Compute(responses, nil, time.Time{}, time.Time{})

	if snap.Demographics["device"]["mobile"] != 2 || snap.Demographics["device"]["desktop"] != 1 {
		t.Fatalf("device buckets: %v", snap.Demographics["device"])
	}
	// Responses without a dimension are excluded, not zero-filled.
	if len(snap.Demographics["location"]) != 1 || snap.Demographics["location"]["DE"] != 1 {
		t.Fatalf("location buckets: %v", snap.Demographics["location"])
	}
	if len(snap.Demographics["age"]) != 1 {
		t.Fatalf("age buckets: %v", snap.Demographics["age"])
	}
}

func TestComputeTrendZeroFill(t *testing.T) {
	responses := []Response{
		completedResponse(day(1), 5, nil),
		completedResponse(day(3), 5, nil),
		completedResponse(day(3), 5, nil),
	}
	snap := Compute(responses, nil, time.Time{}, time.Time{})

	if len(snap.Trends) != 3 {
		t.Fatalf("expected contiguous 3-day trend, got %v", snap.Trends)
	}
	if snap.Trends[0].Value != 1 || snap.Trends[1].Value != 0 || snap.Trends[2].Value != 2 {
		t.Fatalf("trend values: %v", snap.Trends)
	}
	if snap.Trends[1].Date != "2026-05-02" {
		t.Fatalf("gap day = %s", snap.Trends[1].Date)
	}
}

func TestComputeTrendExplicitRange(t *testing.T) {
	responses := []Response{completedResponse(day(2), 5, nil)}
	from := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 5, 5, 0, 0, 0, 0, time.UTC)

	snap := Compute(responses, nil, from, to)
	if len(snap.Trends) != 5 {
		t.Fatalf("expected 5 days, got %d", len(snap.Trends))
	}
	total := 0
	for _, p := range snap.Trends {
		total += p.Value
	}
	if total != 1 {
		t.Fatalf("trend total = %d", total)
	}
}
