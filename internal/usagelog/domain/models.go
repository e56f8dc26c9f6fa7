// Package domain contains the append-only usage history models. Usage logs
// are observability rows and never feed balance math.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// UsageLog records a single usage attempt, successful or not.
type UsageLog struct {
	ID               snowflake.ID `json:"id" gorm:"primaryKey"`
	OrgID            snowflake.ID `json:"organization_id" gorm:"column:org_id;not null;index"`
	UserID           snowflake.ID `json:"user_id,omitempty" gorm:"not null;default:0"`
	UsageType        string       `json:"usage_type" gorm:"type:text;not null"`
	ModelID          string       `json:"model_id,omitempty" gorm:"type:text"`
	InputTokens      int64        `json:"input_tokens,omitempty"`
	OutputTokens     int64        `json:"output_tokens,omitempty"`
	TotalTokens      int64        `json:"total_tokens,omitempty"`
	CreditsUsed      int64        `json:"credits_used" gorm:"not null"`
	ProcessingTimeMs int64        `json:"processing_time_ms,omitempty"`
	Success          bool         `json:"success" gorm:"not null"`
	ErrorMessage     string       `json:"error_message,omitempty" gorm:"type:text"`
	ResourceID       string       `json:"resource_id,omitempty" gorm:"type:text"`
	ResourceType     string       `json:"resource_type,omitempty" gorm:"type:text"`
	CreatedAt        time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (UsageLog) TableName() string { return "usage_logs" }

// Statistics aggregates usage over a reporting window.
type Statistics struct {
	TotalRequests       int64   `json:"total_requests"`
	SuccessfulRequests  int64   `json:"successful_requests"`
	TotalCreditsUsed    int64   `json:"total_credits_used"`
	TotalTokens         int64   `json:"total_tokens"`
	AvgProcessingTimeMs float64 `json:"avg_processing_time_ms"`
}
