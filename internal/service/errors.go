package service

import (
	"context"
	"errors"
	"fmt"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/storage"
)

// Metadata keys carrying split validation diagnostics on InvalidArgument errors.
const (
	HeaderSplitErrorKind   = "Split-Error-Kind"
	HeaderSplitParticipant = "Split-Participant"
	HeaderSplitSum         = "Split-Sum"
	HeaderSplitExpected    = "Split-Expected"
	HeaderSplitMismatch    = "Split-Mismatch"
)

var (
	errNotMember     = errors.New("caller is not a member of this group")
	errNotInvolved   = errors.New("caller is not involved in this transaction")
	errNotSignedIn   = errors.New("authentication required")
	errNonGroupScope = fmt.Errorf("group %q has no member balances, use GetFriendBalances", "nongroup")
)

// toConnectError maps domain and storage errors to Connect codes.
// Split validation failures carry their diagnostics as error metadata.
func toConnectError(err error) *connect.Error {
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectErr
	}

	var splitErr *calculator.SplitError
	switch {
	case errors.As(err, &splitErr):
		cerr := connect.NewError(connect.CodeInvalidArgument, err)
		cerr.Meta().Set(HeaderSplitErrorKind, string(splitErr.Kind))
		if splitErr.Participant != "" {
			cerr.Meta().Set(HeaderSplitParticipant, splitErr.Participant)
		}
		if splitErr.Kind == calculator.KindSplitMismatch {
			cerr.Meta().Set(HeaderSplitSum, splitErr.Sum.StringFixed(2))
			cerr.Meta().Set(HeaderSplitExpected, splitErr.Expected.StringFixed(2))
			cerr.Meta().Set(HeaderSplitMismatch, splitErr.Mismatch().StringFixed(2))
		}
		return cerr
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, storage.ErrAlreadyExists):
		return connect.NewError(connect.CodeAlreadyExists, err)
	case errors.Is(err, errNotMember), errors.Is(err, errNotInvolved):
		return connect.NewError(connect.CodePermissionDenied, err)
	case errors.Is(err, errNotSignedIn):
		return connect.NewError(connect.CodeUnauthenticated, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

func invalidArgument(format string, args ...any) *connect.Error {
	return connect.NewError(connect.CodeInvalidArgument, fmt.Errorf(format, args...))
}

// callerID returns the authenticated user from ctx.
func callerID(ctx context.Context) (string, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return "", toConnectError(errNotSignedIn)
	}
	return userID, nil
}
