package bridge

import "github.com/pkg/errors"

var (
	// ErrDepositNotFound means no matching deposit was observed; it may
	// simply mean "not yet" until the detection window is exhausted.
	ErrDepositNotFound = errors.New("deposit not found")
	// ErrLedgerUnreachable marks a transient infrastructure fault talking
	// to a chain, as opposed to a definite negative answer.
	ErrLedgerUnreachable = errors.New("ledger unreachable")
	ErrPayoutFailed      = errors.New("destination payout failed")
	ErrNotFound          = errors.New("bridge request not found")
	// ErrConflict is returned by the store when a compare-and-swap update
	// loses the race; the losing task aborts silently.
	ErrConflict      = errors.New("conflicting concurrent update")
	ErrAlreadyExists = errors.New("bridge request already exists")
)
