// Package domain contains credit reservation models. A reservation is a hold
// placed against an allocation for the estimated cost of an operation before
// the operation runs.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Status is the reservation lifecycle state. Pending is the only state that
// transitions; confirmed, released and expired are terminal.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusReleased  Status = "released"
	StatusExpired   Status = "expired"
)

type Reservation struct {
	ID           snowflake.ID      `json:"id" gorm:"primaryKey"`
	OrgID        snowflake.ID      `json:"organization_id" gorm:"column:org_id;not null;index"`
	UserID       snowflake.ID      `json:"user_id,omitempty" gorm:"not null;default:0"`
	AllocationID snowflake.ID      `json:"allocation_id" gorm:"not null;index"`
	Amount       int64             `json:"amount" gorm:"not null"`
	UsageType    string            `json:"usage_type" gorm:"type:text;not null"`
	ModelID      string            `json:"model_id,omitempty" gorm:"type:text"`
	OperationID  string            `json:"operation_id,omitempty" gorm:"type:text"`
	Status       Status            `json:"status" gorm:"type:text;not null;index"`
	ExpiresAt    time.Time         `json:"expires_at" gorm:"not null;index"`
	Metadata     datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt    time.Time         `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time         `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Reservation) TableName() string { return "reservations" }
