// Package models defines the durable data shapes driven through the
// settlement pipeline.
package models

import "time"

// Status is the lifecycle state of an Intent.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusSettled    Status = "SETTLED"
	StatusFailed     Status = "FAILED"
)

// Intent is the unit of work: a desired on-chain settlement.
type Intent struct {
	ID         string
	Status     Status
	Hash       string
	To         string
	Value      string
	Calldata   string
	GasLimit   string
	RetryCount int
	LastError  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// DLQEntry is an append-only record of why an Intent could not progress.
type DLQEntry struct {
	ID           string
	IntentID     string
	Reason       string
	ErrorDetails string
	EnqueuedAt   time.Time
}
