package models

import "time"

// Scan log statuses.
const (
	ScanDetected    = "detected"
	ScanNotDetected = "not_detected"
	ScanError       = "error"
)

// ScanLog records the outcome of one recognition attempt.
type ScanLog struct {
	ID            int64     `json:"id"`
	UserID        string    `json:"userId"`
	CreatedAt     time.Time `json:"createdAt"`
	Status        string    `json:"status"`
	EquipmentName *string   `json:"equipmentName"`
	DurationMs    *int      `json:"durationMs"`
	ErrorMessage  *string   `json:"errorMessage"`
}
