// Package model defines the core domain types for extracted records.
package model

import (
	"time"
)

// Record is a standardized extraction result for one document.
type Record struct {
	CreatedAt        time.Time
	Data             map[string]any
	SchemaTitle      string
	Model            string
	ID               int64
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	SourceBytes      int
}
