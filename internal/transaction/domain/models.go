// Package domain contains the append-only credit transaction ledger models.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// TransactionType marks the direction of a ledger row.
type TransactionType string

const (
	TransactionTypeCredit TransactionType = "credit"
	TransactionTypeDebit  TransactionType = "debit"
)

// Transaction is an immutable ledger row. Rows are inserted alongside every
// allocation mutation and never updated or deleted.
type Transaction struct {
	ID            snowflake.ID      `json:"id" gorm:"primaryKey"`
	OrgID         snowflake.ID      `json:"organization_id" gorm:"column:org_id;not null;index"`
	UserID        snowflake.ID      `json:"user_id,omitempty" gorm:"not null;default:0"`
	Amount        int64             `json:"amount" gorm:"not null"`
	Type          TransactionType   `json:"transaction_type" gorm:"type:text;not null"`
	UsageType     string            `json:"usage_type" gorm:"type:text;not null"`
	ModelID       string            `json:"model_id,omitempty" gorm:"type:text"`
	ModelProvider string            `json:"model_provider,omitempty" gorm:"type:text"`
	InputTokens   int64             `json:"input_tokens,omitempty"`
	OutputTokens  int64             `json:"output_tokens,omitempty"`
	OperationID   string            `json:"operation_id,omitempty" gorm:"type:text"`
	ResourceID    string            `json:"resource_id,omitempty" gorm:"type:text"`
	ResourceType  string            `json:"resource_type,omitempty" gorm:"type:text"`
	Metadata      datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt     time.Time         `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Transaction) TableName() string { return "transactions" }
