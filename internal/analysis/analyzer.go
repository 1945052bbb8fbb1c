// Package analysis computes per-region trichoscopy statistics: ROI geometry
// in physical units, hair thickness classification into fixed buckets, and
// per-bucket density.
package analysis

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/tricholab/tricho-pipeline/internal/domain"
)

// RegionFileCount is the fixed number of measurement files per run,
// measurement_0.json through measurement_3.json.
const RegionFileCount = 4

// Bucket edges in µm, half-open on the lower bound, last bucket unbounded.
var (
	defaultBins   = []float64{0, 30, 60, 90, math.Inf(1)}
	defaultLabels = []string{"<30 μm", "30-60 μm", "60-90 μm", ">90 μm"}
)

// Analyzer classifies hair thickness measurements into fixed-width buckets.
type Analyzer struct {
	bins   []float64
	labels []string
}

// NewAnalyzer creates an analyzer with the standard thickness buckets.
func NewAnalyzer() *Analyzer {
	return &Analyzer{bins: defaultBins, labels: defaultLabels}
}

// AnalyzeDirectory analyzes the fixed set of measurement files in dir. It
// always returns exactly RegionFileCount results in index order; a missing
// or malformed file yields an error record at its index, never an abort.
func (a *Analyzer) AnalyzeDirectory(dir string) []domain.RegionResult {
	results := make([]domain.RegionResult, 0, RegionFileCount)
	for i := 0; i < RegionFileCount; i++ {
		results = append(results, a.AnalyzeFile(filepath.Join(dir, fmt.Sprintf("measurement_%d.json", i))))
	}
	return results
}

// AnalyzeFile analyzes a single measurement file. Failures are reported
// in-band as error records; this never returns a Go error.
func (a *Analyzer) AnalyzeFile(path string) domain.RegionResult {
	file := filepath.Base(path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.RegionError(file, "file not found")
		}
		return domain.RegionError(file, fmt.Sprintf("read error: %v", err))
	}

	var m domain.RegionMeasurement
	if err := json.Unmarshal(data, &m); err != nil {
		return domain.RegionError(file, fmt.Sprintf("parse error: %v", err))
	}

	result, err := a.Analyze(m)
	if err != nil {
		return domain.RegionError(file, fmt.Sprintf("analysis error: %v", err))
	}
	return domain.RegionOK(file, m.Location, result)
}

// Analyze computes the region statistics for one measurement.
func (a *Analyzer) Analyze(m domain.RegionMeasurement) (*domain.RegionData, error) {
	if len(m.ROI) == 0 {
		return nil, fmt.Errorf("roi polygon is empty")
	}
	for i, p := range m.ROI {
		if len(p) < 2 {
			return nil, fmt.Errorf("roi point %d has fewer than 2 coordinates", i)
		}
	}
	if m.PPMM <= 0 {
		return nil, fmt.Errorf("ppmm must be positive, got %g", m.PPMM)
	}

	minX, maxX := m.ROI[0][0], m.ROI[0][0]
	minY, maxY := m.ROI[0][1], m.ROI[0][1]
	for _, p := range m.ROI[1:] {
		minX = math.Min(minX, p[0])
		maxX = math.Max(maxX, p[0])
		minY = math.Min(minY, p[1])
		maxY = math.Max(maxY, p[1])
	}

	widthMM := (maxX - minX) / m.PPMM
	heightMM := (maxY - minY) / m.PPMM
	areaCM2 := (widthMM * heightMM) / 100.0

	classification := make(map[string]int, len(a.labels))
	for _, label := range a.labels {
		classification[label] = 0
	}
	for _, h := range m.Hairs {
		thicknessUM := (h.W / m.PPMM) * 1000.0
		if label, ok := a.bucketLabel(thicknessUM); ok {
			classification[label]++
		}
	}

	density := make(map[string]*float64, len(a.labels))
	for _, label := range a.labels {
		if areaCM2 > 0 {
			d := round2(float64(classification[label]) / areaCM2)
			density[label] = &d
		} else {
			density[label] = nil
		}
	}

	return &domain.RegionData{
		ROI: domain.ROIGeometry{
			WidthMM:  round2(widthMM),
			HeightMM: round2(heightMM),
			AreaCM2:  round2(areaCM2),
		},
		Counts: domain.RegionCounts{
			Follicles: len(m.FollicleUnits),
			Hairs:     len(m.Hairs),
		},
		Classification: classification,
		Density:        density,
	}, nil
}

// bucketLabel returns the label of the half-open bucket [bins[i], bins[i+1])
// containing the value.
func (a *Analyzer) bucketLabel(v float64) (string, bool) {
	for i, label := range a.labels {
		if v >= a.bins[i] && v < a.bins[i+1] {
			return label, true
		}
	}
	return "", false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
