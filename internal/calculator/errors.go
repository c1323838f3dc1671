package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrorKind classifies split validation failures.
type ErrorKind string

const (
	KindEmptySplit                 ErrorKind = "EMPTY_SPLIT"
	KindInvalidParticipant         ErrorKind = "INVALID_PARTICIPANT"
	KindSplitMismatch              ErrorKind = "SPLIT_MISMATCH"
	KindSettlementMultiParticipant ErrorKind = "SETTLEMENT_MULTI_PARTICIPANT"
	KindNonPositiveAmount          ErrorKind = "NON_POSITIVE_AMOUNT"
)

// SplitError is a structured split validation failure.
// Sum and Expected are only set for KindSplitMismatch.
type SplitError struct {
	Kind        ErrorKind
	Message     string
	Participant string
	Sum         decimal.Decimal
	Expected    decimal.Decimal
}

// Sentinel values for errors.Is. Matching compares Kind only.
var (
	ErrEmptySplit                 = &SplitError{Kind: KindEmptySplit, Message: "split must have at least one participant"}
	ErrInvalidParticipant         = &SplitError{Kind: KindInvalidParticipant, Message: "invalid split participant"}
	ErrSplitMismatch              = &SplitError{Kind: KindSplitMismatch, Message: "split shares do not add up to the amount"}
	ErrSettlementMultiParticipant = &SplitError{Kind: KindSettlementMultiParticipant, Message: "settlement must have exactly one receiver"}
	ErrNonPositiveAmount          = &SplitError{Kind: KindNonPositiveAmount, Message: "amount must be greater than zero"}
)

// Error returns a human-readable description of the failure.
func (e *SplitError) Error() string {
	switch {
	case e.Kind == KindSplitMismatch:
		return fmt.Sprintf("%s: %s (assigned %s, expected %s)",
			e.Kind, e.Message, e.Sum.StringFixed(2), e.Expected.StringFixed(2))
	case e.Participant != "":
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Participant)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
}

// Is reports whether target is a SplitError of the same kind.
func (e *SplitError) Is(target error) bool {
	t, ok := target.(*SplitError)
	return ok && t.Kind == e.Kind
}

// Mismatch returns the absolute difference between the assigned sum and the expected total.
func (e *SplitError) Mismatch() decimal.Decimal {
	return e.Sum.Sub(e.Expected).Abs()
}

func invalidParticipant(userID, message string) *SplitError {
	return &SplitError{Kind: KindInvalidParticipant, Message: message, Participant: userID}
}
