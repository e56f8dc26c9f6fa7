// Package domain contains the credit allocation models. An allocation is an
// organization-scoped (optionally user-scoped) credit grant and owns the one
// piece of mutable balance state in the system.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// ModelType classifies how an allocation was granted.
type ModelType string

const (
	ModelTypeSubscription ModelType = "subscription"
	ModelTypePayAsYouGo   ModelType = "pay_as_you_go"
	ModelTypeQuota        ModelType = "quota"
	ModelTypePrepaid      ModelType = "prepaid"
)

// Allocation is a credit grant. TotalCredits is the initial grant, not a cap:
// AddCredits may push RemainingCredits above it. A zero UserID means the
// allocation is org-scoped.
type Allocation struct {
	ID               snowflake.ID      `json:"id" gorm:"primaryKey"`
	OrgID            snowflake.ID      `json:"organization_id" gorm:"column:org_id;not null;index"`
	UserID           snowflake.ID      `json:"user_id,omitempty" gorm:"not null;default:0"`
	ModelType        ModelType         `json:"model_type" gorm:"type:text;not null"`
	TotalCredits     int64             `json:"total_credits" gorm:"not null"`
	RemainingCredits int64             `json:"remaining_credits" gorm:"not null"`
	ResetDate        *time.Time        `json:"reset_date,omitempty"`
	ExpirationDate   *time.Time        `json:"expiration_date,omitempty"`
	Active           bool              `json:"is_active" gorm:"not null;default:true"`
	Metadata         datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt        time.Time         `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt        time.Time         `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Allocation) TableName() string { return "allocations" }
