// Package settlementerr defines the tagged error algebra used to decide
// whether a failed settlement attempt should be retried or routed to the
// dead-letter queue. Classification is by kind, never by matching free text
// at the call site — ParseRPCError is the only place that inspects a raw
// error string.
package settlementerr

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Kind tags a SettlementError with one of the fixed variants. IsTransient is
// defined over Kind, not over the error's message.
type Kind int

const (
	KindNonceTooLow Kind = iota
	KindReplacementFeeTooLow
	KindNetworkError
	KindExecutionReverted
	KindInsufficientFunds
	KindValidationError
	KindStoreError
	KindUnknown
)

// Canonical DLQ reason labels. Every DLQ writer uses these constants
// literally rather than composing its own text.
const (
	ReasonPermanentError      = "Permanent Error"
	ReasonMaxRetriesExceeded  = "Max retries exceeded"
)

// SettlementError is the tagged variant every pipeline failure is mapped
// into before it crosses a component boundary.
type SettlementError struct {
	Kind Kind

	// NonceTooLow
	CurrentNonce int64
	TxNonce      int64
	Address      string

	// ReplacementFeeTooLow
	TxHash         string
	CurrentGasPrice string
	TxGasPrice      string

	// NetworkError
	Message string
	Code    string

	// ExecutionReverted
	Reason string
	Data   string

	// InsufficientFunds
	Required string
	Actual   string

	// ValidationError
	Field string

	// StoreError
	Operation string

	// Unknown
	Cause error
}

func (e *SettlementError) Error() string {
	switch e.Kind {
	case KindNonceTooLow:
		return fmt.Sprintf("nonce too low: current=%d tx=%d address=%s", e.CurrentNonce, e.TxNonce, e.Address)
	case KindReplacementFeeTooLow:
		return fmt.Sprintf("replacement fee too low: tx=%s current=%s replacement=%s", e.TxHash, e.CurrentGasPrice, e.TxGasPrice)
	case KindNetworkError:
		if e.Code != "" {
			return fmt.Sprintf("network error [%s]: %s", e.Code, e.Message)
		}
		return fmt.Sprintf("network error: %s", e.Message)
	case KindExecutionReverted:
		return fmt.Sprintf("execution reverted: %s", e.Reason)
	case KindInsufficientFunds:
		return fmt.Sprintf("insufficient funds: address=%s required=%s actual=%s", e.Address, e.Required, e.Actual)
	case KindValidationError:
		return fmt.Sprintf("validation error on field %q: %s", e.Field, e.Message)
	case KindStoreError:
		return fmt.Sprintf("store error during %s: %s", e.Operation, e.Message)
	default:
		if e.Cause != nil {
			return fmt.Sprintf("unknown error: %v", e.Cause)
		}
		return "unknown error"
	}
}

// IsTransient reports whether a SettlementError's kind warrants a retry.
// Fixed by kind per the classification discipline: NonceTooLow,
// ReplacementFeeTooLow and NetworkError are transient; everything else,
// including Unknown, is treated as permanent.
func IsTransient(err *SettlementError) bool {
	switch err.Kind {
	case KindNonceTooLow, KindReplacementFeeTooLow, KindNetworkError:
		return true
	default:
		return false
	}
}

// NewValidationError builds a ValidationError directly, bypassing
// ParseRPCError. Payload validation failures are never classified by
// substring matching.
func NewValidationError(field, message string) *SettlementError {
	return &SettlementError{Kind: KindValidationError, Field: field, Message: message}
}

// NewStoreError wraps a Store-layer failure.
func NewStoreError(operation string, err error) *SettlementError {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return &SettlementError{Kind: KindStoreError, Operation: operation, Message: msg}
}

var nonceDigits = regexp.MustCompile(`\d+`)

// ParseRPCError maps an arbitrary error returned by the Chain capability
// into a SettlementError. Matching is case-insensitive substring matching
// against the error's message, mirroring the taxonomy an EVM JSON-RPC node
// actually returns.
func ParseRPCError(err error) *SettlementError {
	if err == nil {
		return nil
	}
	if se, ok := err.(*SettlementError); ok {
		return se
	}

	msg := err.Error()
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(lower, "nonce too low"):
		current, tx := parseTwoInts(msg)
		return &SettlementError{Kind: KindNonceTooLow, CurrentNonce: current, TxNonce: tx}

	case strings.Contains(lower, "replacement fee too low"), strings.Contains(lower, "replacement transaction underpriced"), strings.Contains(lower, "gas price too low"):
		return &SettlementError{Kind: KindReplacementFeeTooLow, TxHash: extractTxHash(msg)}

	case strings.Contains(lower, "insufficient funds"), strings.Contains(lower, "insufficient balance"):
		return &SettlementError{Kind: KindInsufficientFunds, Message: msg}

	case strings.Contains(lower, "execution reverted"), strings.Contains(lower, "reverted"):
		return &SettlementError{Kind: KindExecutionReverted, Reason: msg}

	case strings.Contains(lower, "network"), strings.Contains(lower, "enotfound"), strings.Contains(lower, "econnrefused"),
		strings.Contains(lower, "timeout"), strings.Contains(lower, "connection refused"), strings.Contains(lower, "eof"):
		return &SettlementError{Kind: KindNetworkError, Message: msg}

	default:
		return &SettlementError{Kind: KindUnknown, Cause: err}
	}
}

// parseTwoInts attempts to pull two integers out of a message, in the order
// they appear, for use as (currentNonce, txNonce). Falls back to the -1
// sentinel for either value it can't find.
func parseTwoInts(msg string) (int64, int64) {
	matches := nonceDigits.FindAllString(msg, -1)
	current := int64(-1)
	tx := int64(-1)
	if len(matches) > 0 {
		if v, err := strconv.ParseInt(matches[0], 10, 64); err == nil {
			current = v
		}
	}
	if len(matches) > 1 {
		if v, err := strconv.ParseInt(matches[1], 10, 64); err == nil {
			tx = v
		}
	}
	return current, tx
}

var txHashPattern = regexp.MustCompile(`0x[0-9a-fA-F]{64}`)

func extractTxHash(msg string) string {
	return txHashPattern.FindString(msg)
}
