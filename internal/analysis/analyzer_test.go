package analysis

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tricholab/tricho-pipeline/internal/domain"
	"github.com/tricholab/tricho-pipeline/internal/fsutil"
)

func squareROI(side float64) [][]float64 {
	return [][]float64{{0, 0}, {side, 0}, {side, side}, {0, side}}
}

func hairs(widths ...float64) []domain.HairMeasure {
	hs := make([]domain.HairMeasure, 0, len(widths))
	for _, w := range widths {
		hs = append(hs, domain.HairMeasure{W: w})
	}
	return hs
}

func TestAnalyze_Geometry(t *testing.T) {
	a := NewAnalyzer()

	// 100x200 px at 10 px/mm -> 10mm x 20mm -> 2 cm2.
	data, err := a.Analyze(domain.RegionMeasurement{
		Location: "frontal",
		ROI:      [][]float64{{0, 0}, {100, 0}, {100, 200}, {0, 200}},
		PPMM:     10,
	})
	require.NoError(t, err)
	assert.Equal(t, 10.0, data.ROI.WidthMM)
	assert.Equal(t, 20.0, data.ROI.HeightMM)
	assert.Equal(t, 2.0, data.ROI.AreaCM2)
}

func TestAnalyze_BucketBoundaries(t *testing.T) {
	a := NewAnalyzer()

	// At 10 px/mm, thickness um = w * 100. Widths chosen to land exactly on
	// the bucket edges: 29.99, 30, 59.99, 60, 89.99, 90 um.
	data, err := a.Analyze(domain.RegionMeasurement{
		ROI:   squareROI(100),
		PPMM:  10,
		Hairs: hairs(0.2999, 0.30, 0.5999, 0.60, 0.8999, 0.90, 1.5),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, data.Classification["<30 μm"])
	assert.Equal(t, 2, data.Classification["30-60 μm"])
	assert.Equal(t, 2, data.Classification["60-90 μm"])
	assert.Equal(t, 2, data.Classification[">90 μm"])
}

func TestAnalyze_BucketCoverage(t *testing.T) {
	a := NewAnalyzer()

	widths := []float64{0, 0.01, 0.15, 0.3, 0.45, 0.6, 0.75, 0.9, 1.2, 2.5, 10}
	data, err := a.Analyze(domain.RegionMeasurement{
		ROI:   squareROI(100),
		PPMM:  10,
		Hairs: hairs(widths...),
	})
	require.NoError(t, err)

	total := 0
	for _, label := range defaultLabels {
		count, ok := data.Classification[label]
		require.True(t, ok, "bucket %q must always be present", label)
		total += count
	}
	assert.Equal(t, len(widths), total, "every measurement falls into exactly one bucket")
}

func TestAnalyze_EmptyHairListReportsZeroBuckets(t *testing.T) {
	a := NewAnalyzer()

	data, err := a.Analyze(domain.RegionMeasurement{ROI: squareROI(100), PPMM: 10})
	require.NoError(t, err)

	for _, label := range defaultLabels {
		assert.Equal(t, 0, data.Classification[label])
		require.Contains(t, data.Density, label)
		require.NotNil(t, data.Density[label])
		assert.Equal(t, 0.0, *data.Density[label])
	}
	assert.Equal(t, 0, data.Counts.Hairs)
}

func TestAnalyze_DegenerateAreaNullDensity(t *testing.T) {
	a := NewAnalyzer()

	// Zero width: all points share an x coordinate.
	data, err := a.Analyze(domain.RegionMeasurement{
		ROI:   [][]float64{{5, 0}, {5, 100}, {5, 200}},
		PPMM:  10,
		Hairs: hairs(0.5, 0.7),
	})
	require.NoError(t, err)

	for _, label := range defaultLabels {
		require.Contains(t, data.Density, label)
		assert.Nil(t, data.Density[label], "degenerate area must yield null density, not zero")
	}
	// Counts are unaffected by the degenerate area.
	assert.Equal(t, 2, data.Counts.Hairs)
}

func TestAnalyze_Density(t *testing.T) {
	a := NewAnalyzer()

	// 2 cm2 area, 3 hairs in the 30-60 bucket -> 1.5 per cm2.
	data, err := a.Analyze(domain.RegionMeasurement{
		ROI:   [][]float64{{0, 0}, {100, 200}},
		PPMM:  10,
		Hairs: hairs(0.4, 0.45, 0.5),
	})
	require.NoError(t, err)
	require.NotNil(t, data.Density["30-60 μm"])
	assert.Equal(t, 1.5, *data.Density["30-60 μm"])
}

func TestAnalyze_InvalidInput(t *testing.T) {
	a := NewAnalyzer()

	tests := []struct {
		name string
		m    domain.RegionMeasurement
	}{
		{name: "empty roi", m: domain.RegionMeasurement{PPMM: 10}},
		{name: "zero ppmm", m: domain.RegionMeasurement{ROI: squareROI(10)}},
		{name: "short roi point", m: domain.RegionMeasurement{ROI: [][]float64{{1}}, PPMM: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Analyze(tt.m)
			assert.Error(t, err)
		})
	}
}

func TestAnalyzeFile_MissingFile(t *testing.T) {
	a := NewAnalyzer()

	res := a.AnalyzeFile(filepath.Join(t.TempDir(), "measurement_0.json"))
	assert.True(t, res.IsError())
	assert.Equal(t, "measurement_0.json", res.File)
	assert.Equal(t, "file not found", res.ErrMessage)
}

func TestAnalyzeFile_MalformedJSON(t *testing.T) {
	a := NewAnalyzer()
	dir := t.TempDir()
	path := filepath.Join(dir, "measurement_1.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	res := a.AnalyzeFile(path)
	assert.True(t, res.IsError())
	assert.Contains(t, res.ErrMessage, "parse error")
}

func TestAnalyzeDirectory_OneMissingFile(t *testing.T) {
	a := NewAnalyzer()
	dir := t.TempDir()

	m := domain.RegionMeasurement{
		Location: "frontal",
		ROI:      squareROI(100),
		PPMM:     10,
		Hairs:    hairs(0.5),
	}
	for _, i := range []int{0, 1, 3} { // measurement_2.json deliberately absent
		require.NoError(t, fsutil.WriteJSON(filepath.Join(dir, fmt.Sprintf("measurement_%d.json", i)), m))
	}

	results := a.AnalyzeDirectory(dir)
	require.Len(t, results, 4)

	assert.False(t, results[0].IsError())
	assert.False(t, results[1].IsError())
	assert.True(t, results[2].IsError())
	assert.Equal(t, "file not found", results[2].ErrMessage)
	assert.False(t, results[3].IsError())
	assert.Equal(t, "frontal", results[0].Location)
}
