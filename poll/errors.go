package poll

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nspcc-dev/voting-contract/contracts/voting/votingconst"
)

// Errors returned by Poll operations. Messages match exceptions thrown by
// the Voting contract, so contract faults can be mapped back with
// FromException.
var (
	ErrInvalidConfiguration = errors.New(votingconst.ErrInvalidConfiguration)
	ErrPollClosed           = errors.New(votingconst.ErrPollClosed)
	ErrPollOpen             = errors.New(votingconst.ErrPollOpen)
	ErrInsufficientPayment  = errors.New(votingconst.ErrInsufficientPayment)
	ErrInvalidOption        = errors.New(votingconst.ErrInvalidOption)
	ErrDuplicateVote        = errors.New(votingconst.ErrDuplicateVote)
	ErrCloseForbidden       = errors.New(votingconst.ErrCloseForbidden)
	ErrWithdrawForbidden    = errors.New(votingconst.ErrWithdrawForbidden)
)

// ErrCorruptedSnapshot is returned by Restore when the Snapshot breaks poll
// invariants.
var ErrCorruptedSnapshot = errors.New("corrupted poll snapshot")

var taxonomy = []error{
	ErrInvalidConfiguration,
	ErrPollClosed,
	ErrPollOpen,
	ErrInsufficientPayment,
	ErrInvalidOption,
	ErrDuplicateVote,
	ErrCloseForbidden,
	ErrWithdrawForbidden,
}

// FromException maps the fault exception of the Voting contract to one of
// the package errors. The result wraps the matched error and keeps the
// original exception text. Unknown exceptions are returned as plain errors,
// empty exception results in nil.
func FromException(exception string) error {
	if exception == "" {
		return nil
	}

	for i := range taxonomy {
		if strings.Contains(exception, taxonomy[i].Error()) {
			return fmt.Errorf("%w (%s)", taxonomy[i], exception)
		}
	}

	return errors.New(exception)
}
