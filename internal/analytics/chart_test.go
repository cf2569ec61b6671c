package analytics

import (
	"math"
	"reflect"
	"testing"
	"time"
)

func series(points ...DataPoint) ChartData {
	return ChartData{Series: []DataSeries{{ID: "s1", Name: "Series 1", Points: points}}}
}

func TestValidateChartDataStructure(t *testing.T) {
	if ValidateChartData(ChartData{}, ChartLine) {
		t.Fatal("empty chart data must be invalid")
	}
	if ValidateChartData(ChartData{Series: []DataSeries{{ID: "s1", Name: "n"}}}, ChartLine) {
		t.Fatal("series without points must be invalid")
	}
	if ValidateChartData(ChartData{Series: []DataSeries{{ID: "", Name: "n", Points: []DataPoint{{X: 1, Y: 2}}}}}, ChartLine) {
		t.Fatal("series without id must be invalid")
	}
	if ValidateChartData(series(DataPoint{X: "a", Y: nil}), ChartLine) {
		t.Fatal("nil y must be invalid")
	}
	if !ValidateChartData(series(DataPoint{X: "a", Y: 1.5}), ChartLine) {
		t.Fatal("numeric y with category x must be valid for line")
	}
}

func TestValidateChartDataTypeRules(t *testing.T) {
	numericOnly := series(DataPoint{X: 1, Y: 2}, DataPoint{X: 2, Y: 3})
	categoryY := series(DataPoint{X: "a", Y: "big"})
	negativePie := series(DataPoint{X: "a", Y: 30.0}, DataPoint{X: "b", Y: -1.0})
	positivePie := series(DataPoint{X: "a", Y: 30.0}, DataPoint{X: "b", Y: 1.0})
	categoryX := series(DataPoint{X: "a", Y: 2})

	if ValidateChartData(categoryY, ChartBar) {
		t.Fatal("bar requires numeric y")
	}
	if ValidateChartData(negativePie, ChartPie) {
		t.Fatal("pie rejects negative y")
	}
	if !ValidateChartData(positivePie, ChartPie) {
		t.Fatal("pie accepts non-negative y")
	}
	if ValidateChartData(categoryX, ChartScatter) {
		t.Fatal("scatter requires numeric x")
	}
	if !ValidateChartData(numericOnly, ChartScatter) {
		t.Fatal("scatter accepts numeric x and y")
	}
}

func TestProcessChartDataPieSortsDescending(t *testing.T) {
	data := series(
		DataPoint{X: "A", Y: 30.0},
		DataPoint{X: "B", Y: 10.0},
		DataPoint{X: "C", Y: 60.0},
	)
	out := ProcessChartData(data, ChartConfig{Type: ChartPie})

	got := make([]string, 0, 3)
	for _, p := range out.Series[0].Points {
		got = append(got, p.X.(string))
	}
	if !reflect.DeepEqual(got, []string{"C", "A", "B"}) {
		t.Fatalf("pie order = %v, want [C A B]", got)
	}
}

func TestProcessChartDataLineSortsByX(t *testing.T) {
	data := series(
		DataPoint{X: 3, Y: 1.0},
		DataPoint{X: 1, Y: 2.0},
		DataPoint{X: 2, Y: 3.0},
	)
	out := ProcessChartData(data, ChartConfig{Type: ChartLine})
	xs := []int{}
	for _, p := range out.Series[0].Points {
		xs = append(xs, p.X.(int))
	}
	if !reflect.DeepEqual(xs, []int{1, 2, 3}) {
		t.Fatalf("line order = %v", xs)
	}

	// Date x values sort chronologically and pick up short labels.
	d1 := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	dates := series(DataPoint{X: d2, Y: 1.0}, DataPoint{X: d1, Y: 2.0})
	out = ProcessChartData(dates, ChartConfig{Type: ChartLine})
	if !out.Series[0].Points[0].X.(time.Time).Equal(d1) {
		t.Fatalf("date sort failed: %+v", out.Series[0].Points)
	}
	if out.Series[0].Points[0].Label != "Jan 5" {
		t.Fatalf("date label = %q", out.Series[0].Points[0].Label)
	}
}

func TestProcessChartDataBarSortGatedOnYDomain(t *testing.T) {
	data := series(DataPoint{X: "a", Y: 1.0}, DataPoint{X: "b", Y: 5.0})

	plain := ProcessChartData(data, ChartConfig{Type: ChartBar})
	if plain.Series[0].Points[0].X != "a" {
		t.Fatalf("bar without y-domain must keep input order: %+v", plain.Series[0].Points)
	}

	domained := ProcessChartData(data, ChartConfig{Type: ChartBar, YDomain: &YDomain{Min: 0, Max: 10}})
	if domained.Series[0].Points[0].X != "b" {
		t.Fatalf("bar with y-domain must sort descending by y: %+v", domained.Series[0].Points)
	}
}

func TestProcessChartDataFormatting(t *testing.T) {
	data := series(DataPoint{X: "a", Y: 1.23456}, DataPoint{X: "b", Y: 2.0, Label: "kept"})
	out := ProcessChartData(data, ChartConfig{Type: ChartBar})

	if out.Series[0].Points[0].Y != 1.23 {
		t.Fatalf("y = %v, want rounded 1.23", out.Series[0].Points[0].Y)
	}
	if out.Series[0].Points[0].Label != "a" {
		t.Fatalf("default label = %q, want x string form", out.Series[0].Points[0].Label)
	}
	if out.Series[0].Points[1].Label != "kept" {
		t.Fatalf("explicit label overwritten: %q", out.Series[0].Points[1].Label)
	}
}

func TestProcessChartDataDoesNotMutateInput(t *testing.T) {
	data := series(DataPoint{X: "A", Y: 1.0}, DataPoint{X: "B", Y: 9.0})
	_ = ProcessChartData(data, ChartConfig{Type: ChartPie})
	if data.Series[0].Points[0].X != "A" {
		t.Fatalf("input mutated: %+v", data.Series[0].Points)
	}
}

func TestSanitizeChartData(t *testing.T) {
	data := series(
		DataPoint{X: "a", Y: 1.0},
		DataPoint{X: nil, Y: 2.0},
		DataPoint{X: "c", Y: nil},
		DataPoint{X: "d", Y: math.NaN()},
		DataPoint{X: "e", Y: math.Inf(1)},
		DataPoint{X: "f", Y: 3.0},
	)
	out := SanitizeChartData(data)

	if len(out.Series[0].Points) != 2 {
		t.Fatalf("kept %d points, want 2", len(out.Series[0].Points))
	}
	if out.Series[0].ID != "s1" || out.Series[0].Name != "Series 1" {
		t.Fatalf("series identity changed: %+v", out.Series[0])
	}

	// Idempotence: sanitize(sanitize(d)) == sanitize(d).
	twice := SanitizeChartData(out)
	if !reflect.DeepEqual(out, twice) {
		t.Fatalf("sanitize not idempotent:\n once: %+v\ntwice: %+v", out, twice)
	}
}
