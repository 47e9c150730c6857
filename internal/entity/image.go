package entity

import "time"

type StyleInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Caption  string `json:"caption"`
	Filename string `json:"filename"`
}

type ImageOutput struct {
	Label    string `json:"label"`
	Caption  string `json:"caption"`
	Filename string `json:"filename"`
	Original bool   `json:"original"`
	DataURI  string `json:"data_uri"`
}

type ConvertResponse struct {
	ID          string        `json:"id"`
	Width       int           `json:"width"`
	Height      int           `json:"height"`
	Checksum    string        `json:"checksum"`
	DurationMs  int64         `json:"duration_ms"`
	Outputs     []ImageOutput `json:"outputs"`
	ArchiveName string        `json:"archive_name"`
}

type StylesResponse struct {
	Styles []StyleInfo `json:"styles"`
}

const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ConversionEvent is published once per conversion request.
type ConversionEvent struct {
	RequestID  string    `json:"request_id"`
	Checksum   string    `json:"checksum,omitempty"`
	Format     string    `json:"format,omitempty"`
	Width      int       `json:"width,omitempty"`
	Height     int       `json:"height,omitempty"`
	Styles     []string  `json:"styles,omitempty"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	Time       time.Time `json:"time"`
}
