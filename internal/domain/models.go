package domain

import "encoding/json"

// ReportMetadata is the record extracted from the report's text dump. It is
// a tagged variant: either the subject fields or the error fields are set,
// never both. Use MetadataOK / MetadataError to construct it.
type ReportMetadata struct {
	Name            string
	DateOfBirth     string
	AppointmentDate string

	ErrMessage string
	RawLine    string
}

// MetadataOK builds a successful metadata record.
func MetadataOK(name, dateOfBirth, appointmentDate string) ReportMetadata {
	return ReportMetadata{
		Name:            name,
		DateOfBirth:     dateOfBirth,
		AppointmentDate: appointmentDate,
	}
}

// MetadataError builds an error record. rawLine carries the unparsed input
// for diagnosis and may be empty.
func MetadataError(reason, rawLine string) ReportMetadata {
	return ReportMetadata{ErrMessage: reason, RawLine: rawLine}
}

// IsError reports whether the record carries an extraction failure.
func (m ReportMetadata) IsError() bool {
	return m.ErrMessage != ""
}

type metadataSuccessJSON struct {
	Name            string `json:"name"`
	DateOfBirth     string `json:"date_of_birth"`
	AppointmentDate string `json:"appointment_date"`
}

type metadataErrorJSON struct {
	Error string `json:"error"`
	Raw   string `json:"raw,omitempty"`
}

func (m ReportMetadata) MarshalJSON() ([]byte, error) {
	if m.IsError() {
		return json.Marshal(metadataErrorJSON{Error: m.ErrMessage, Raw: m.RawLine})
	}
	return json.Marshal(metadataSuccessJSON{
		Name:            m.Name,
		DateOfBirth:     m.DateOfBirth,
		AppointmentDate: m.AppointmentDate,
	})
}

func (m *ReportMetadata) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name            string `json:"name"`
		DateOfBirth     string `json:"date_of_birth"`
		AppointmentDate string `json:"appointment_date"`
		Error           string `json:"error"`
		Raw             string `json:"raw"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Error != "" {
		*m = MetadataError(raw.Error, raw.Raw)
		return nil
	}
	*m = MetadataOK(raw.Name, raw.DateOfBirth, raw.AppointmentDate)
	return nil
}

// RegionMeasurement is the on-disk shape of one per-region measurement file.
type RegionMeasurement struct {
	Location      string            `json:"location"`
	ROI           [][]float64       `json:"roi"`
	PPMM          float64           `json:"ppmm"`
	FollicleUnits []json.RawMessage `json:"follicle_units"`
	Hairs         []HairMeasure     `json:"hairs"`
}

// HairMeasure is a single detected hair with its width in pixels.
type HairMeasure struct {
	W float64 `json:"w"`
}

// ROIGeometry holds the region extents in physical units.
type ROIGeometry struct {
	WidthMM  float64 `json:"width_mm"`
	HeightMM float64 `json:"height_mm"`
	AreaCM2  float64 `json:"area_cm2"`
}

// RegionCounts holds the detection counts for a region.
type RegionCounts struct {
	Follicles int `json:"follicles"`
	Hairs     int `json:"hairs"`
}

// RegionData is the computed analysis output for one region. Density values
// are nil when the region area is degenerate; the key is still present.
type RegionData struct {
	ROI            ROIGeometry         `json:"roi"`
	Counts         RegionCounts        `json:"counts"`
	Classification map[string]int      `json:"classification"`
	Density        map[string]*float64 `json:"density_per_cm2"`
}

// RegionResult is the tagged per-file analysis outcome: Data on success,
// ErrMessage on failure. The file name is always recorded.
type RegionResult struct {
	File       string
	Location   string
	Data       *RegionData
	ErrMessage string
}

// RegionOK builds a successful region result.
func RegionOK(file, location string, data *RegionData) RegionResult {
	return RegionResult{File: file, Location: location, Data: data}
}

// RegionError builds an error result for a region file.
func RegionError(file, reason string) RegionResult {
	return RegionResult{File: file, ErrMessage: reason}
}

// IsError reports whether the result carries an analysis failure.
func (r RegionResult) IsError() bool {
	return r.ErrMessage != ""
}

type regionSuccessJSON struct {
	File     string      `json:"file"`
	Location string      `json:"location"`
	Data     *RegionData `json:"data"`
}

type regionErrorJSON struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

func (r RegionResult) MarshalJSON() ([]byte, error) {
	if r.IsError() {
		return json.Marshal(regionErrorJSON{File: r.File, Error: r.ErrMessage})
	}
	return json.Marshal(regionSuccessJSON{File: r.File, Location: r.Location, Data: r.Data})
}

func (r *RegionResult) UnmarshalJSON(data []byte) error {
	var raw struct {
		File     string      `json:"file"`
		Location string      `json:"location"`
		Data     *RegionData `json:"data"`
		Error    string      `json:"error"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Error != "" {
		*r = RegionError(raw.File, raw.Error)
		return nil
	}
	*r = RegionOK(raw.File, raw.Location, raw.Data)
	return nil
}

// ExtractionInfo describes the artifacts produced by the asset extraction
// stage inside the staging root.
type ExtractionInfo struct {
	RawImageDir   string
	FilteredDir   string
	MetadataPath  string
	FilteredCount int
	RenamedCount  int
}

// ImageCounts records how many images survived filtering and renaming.
type ImageCounts struct {
	Filtered int `json:"filtered"`
	Renamed  int `json:"renamed"`
}

// Summary is the per-run report written to summary.json / summary.txt.
type Summary struct {
	TempRoot          string      `json:"temp_root"`
	FilteredImagesDir string      `json:"filtered_images_dir"`
	FinalReportJSON   string      `json:"final_report_json"`
	ImageCounts       ImageCounts `json:"image_counts"`
	Notes             []string    `json:"notes"`
}
