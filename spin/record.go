package spin

import (
	"time"

	"github.com/google/uuid"

	"github.com/glowtap/luckywheel-backend/wheel"
)

// Status is the verification state of a spin record.
type Status string

const (
	StatusPending    Status = "pending"
	StatusVerified   Status = "verified"
	StatusMismatched Status = "mismatched"
)

// Record is the durable link between the two phases of a spin: created with
// the ledger debit, finalized at most once by verification, never deleted.
// SectorCount freezes the wheel size at spin time so verification is immune
// to later sector edits.
type Record struct {
	ID              uuid.UUID       `json:"id"`
	AccountID       int64           `json:"accountId"`
	SectorID        *int64          `json:"sectorId,omitempty"`
	Ordinal         int             `json:"sectorOrdinal"`
	SectorCount     int             `json:"sectorCount"`
	PrizeKind       wheel.PrizeKind `json:"prizeKind"`
	PrizeAmount     int             `json:"prizeMagnitude"`
	Angle           float64         `json:"rotationAngle"`
	Status          Status          `json:"status"`
	ReportedOrdinal *int            `json:"reportedOrdinal,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	VerifiedAt      *time.Time      `json:"verifiedAt,omitempty"`
}
