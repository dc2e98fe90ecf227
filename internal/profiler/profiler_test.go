package profiler

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/peekknuf/dqfix/internal/dataset"
)

func createTestCSV(t *testing.T, content string) string {
	t.Helper()
	filename := filepath.Join(t.TempDir(), "test.csv")
	if err := os.WriteFile(filename, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", filename, err)
	}
	return filename
}

func TestCSVProfiler(t *testing.T) {
	file := createTestCSV(t, `A,B,C
1,2,3
4,5,6
1,2,3
7,8,9
,10,11`)

	profiler := NewCSVProfiler(file)
	err := profiler.Profile()
	if err != nil {
		t.Fatalf("Profile() failed: %v", err)
	}

	metrics := profiler.CalculateQuality()

	if metrics.TotalRows != 5 {
		t.Errorf("Expected 5 rows, got %d", metrics.TotalRows)
	}

	expectedNullPercentage := 1.0 / 15.0 // 1 null out of 15 total values
	if math.Abs(metrics.NullPercentage-expectedNullPercentage) > 1e-9 {
		t.Errorf("Expected Null Percentage %f, got %f", expectedNullPercentage, metrics.NullPercentage)
	}

	// one duplicated row
	if math.Abs(metrics.DistinctRatio-0.8) > 1e-9 {
		t.Errorf("Expected Distinct Ratio 0.8, got %f", metrics.DistinctRatio)
	}

	if metrics.TypeConsistency != 1.0 {
		t.Errorf("Expected Type Consistency 1.0, got %f", metrics.TypeConsistency)
	}

	describeStats := profiler.GetDescribeStats()
	if len(describeStats) != 3 {
		t.Fatalf("Expected 3 columns in describe stats, got %d", len(describeStats))
	}
	if describeStats[0].Column != "A" || describeStats[2].Column != "C" {
		t.Errorf("Expected columns in file order, got %s..%s", describeStats[0].Column, describeStats[2].Column)
	}

	colA := describeStats[0]
	if colA.Type != TypeInt {
		t.Errorf("Expected column A type to be int, got %s", colA.Type)
	}
	if colA.Count != 4 {
		t.Errorf("Expected column A count to be 4, got %d", colA.Count)
	}
	if colA.NullCount != 1 {
		t.Errorf("Expected column A null count to be 1, got %d", colA.NullCount)
	}
	if colA.Mean != 3.25 {
		t.Errorf("Expected column A mean to be 3.25, got %f", colA.Mean)
	}
	if colA.Min != "1" || colA.Max != "7" {
		t.Errorf("Expected column A range 1..7, got %s..%s", colA.Min, colA.Max)
	}
	if colA.DistinctCount != 3 {
		t.Errorf("Expected column A distinct count to be 3, got %d", colA.DistinctCount)
	}
	if colA.Top != "1" || colA.Freq != 2 {
		t.Errorf("Expected column A top 1 (2), got %s (%d)", colA.Top, colA.Freq)
	}
	if !(colA.Q25 <= colA.Q50 && colA.Q50 <= colA.Q75) {
		t.Errorf("Expected ordered quartiles, got %f %f %f", colA.Q25, colA.Q50, colA.Q75)
	}
}

func TestColumnTypes(t *testing.T) {
	d := dataset.MustNew(
		dataset.Column{Name: "price", Values: []dataset.Value{dataset.String("1.5"), dataset.Number(2)}},
		dataset.Column{Name: "day", Values: []dataset.Value{dataset.String("2024-01-05"), dataset.String("01/06/2024")}},
		dataset.Column{Name: "name", Values: []dataset.Value{dataset.String("b"), dataset.String("a")}},
		dataset.Column{Name: "blank", Values: []dataset.Value{dataset.String(" "), dataset.Missing()}},
	)

	profiler := NewDatasetProfiler(d)
	if err := profiler.Profile(); err != nil {
		t.Fatalf("Profile() failed: %v", err)
	}

	want := map[string]string{"price": TypeFloat, "day": TypeDate, "name": TypeString, "blank": TypeEmpty}
	for name, typ := range want {
		stats, ok := profiler.Column(name)
		if !ok {
			t.Fatalf("Column %s not found", name)
		}
		if stats.Type != typ {
			t.Errorf("Expected %s type %s, got %s", name, typ, stats.Type)
		}
	}

	name, _ := profiler.Column("name")
	if name.Min != "a" || name.Max != "b" {
		t.Errorf("Expected name range a..b, got %s..%s", name.Min, name.Max)
	}

	price, _ := profiler.Column("price")
	if math.IsNaN(price.Std) {
		t.Errorf("Expected finite std, got NaN")
	}
}

func TestTypeConsistencyPenalisesMixedColumns(t *testing.T) {
	d := dataset.MustNew(
		dataset.Column{Name: "n", Values: []dataset.Value{dataset.String("1"), dataset.String("2"), dataset.String("x"), dataset.String("4")}},
	)
	profiler := NewDatasetProfiler(d)
	if err := profiler.Profile(); err != nil {
		t.Fatalf("Profile() failed: %v", err)
	}
	// three numbers and one stray string
	if got := profiler.CalculateQuality().TypeConsistency; got != 0.75 {
		t.Errorf("Expected 0.75, got %f", got)
	}
}

func TestProfileMissingFile(t *testing.T) {
	profiler := NewCSVProfiler(filepath.Join(t.TempDir(), "absent.csv"))
	if err := profiler.Profile(); err == nil {
		t.Fatal("Expected an error for a missing file")
	}
}
