package profiler

import "strings"

type QualityMetrics struct {
	TotalRows int
	// NullPercentage is a fraction in [0,1].
	NullPercentage  float64
	TypeConsistency float64
	DistinctRatio   float64
}

type DescribeStats struct {
	Column        string
	Count         int
	NullCount     int
	Type          string
	Mean          float64
	Std           float64
	Min           string
	Q25           float64
	Q50           float64
	Q75           float64
	Max           string
	DistinctCount int
	Top           string
	Freq          int
	Unique        string // Sample unique values
}

func (p *CSVProfiler) CalculateQuality() QualityMetrics {
	metrics := QualityMetrics{
		TotalRows:       p.RowCount,
		TypeConsistency: 1.0,
	}

	totalNulls, totalCells := 0, 0
	matches, present := 0, 0
	for _, stats := range p.Columns {
		totalNulls += stats.NullCount
		totalCells += stats.Count + stats.NullCount
		matches += stats.TypeMatches
		present += stats.Count
	}
	if totalCells > 0 {
		metrics.NullPercentage = float64(totalNulls) / float64(totalCells)
	}
	if present > 0 {
		metrics.TypeConsistency = float64(matches) / float64(present)
	}
	if p.RowCount > 0 {
		metrics.DistinctRatio = float64(p.distinctRows()) / float64(p.RowCount)
	}
	return metrics
}

func (p *CSVProfiler) GetDescribeStats() []DescribeStats {
	describeStats := make([]DescribeStats, 0, len(p.Columns))
	for _, stats := range p.Columns {
		desc := DescribeStats{
			Column:        stats.Name,
			Count:         stats.Count,
			NullCount:     stats.NullCount,
			Type:          stats.Type,
			Mean:          stats.Mean,
			Std:           stats.Std,
			Min:           stats.Min,
			Q25:           stats.Q25,
			Q50:           stats.Q50,
			Q75:           stats.Q75,
			Max:           stats.Max,
			DistinctCount: stats.DistinctCount,
			Top:           stats.Top,
			Freq:          stats.Freq,
		}
		if len(stats.SampleValues) > 0 {
			desc.Unique = strings.Join(stats.SampleValues, ", ")
		}
		describeStats = append(describeStats, desc)
	}
	return describeStats
}
