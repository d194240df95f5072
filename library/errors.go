package library

import "errors"

// Every failure below is a normal, caller-recoverable outcome. Callers
// discriminate with errors.Is; none of them aborts the process.
var (
	// ErrNotFound reports an unknown catalog, loan or member key.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey reports an attempt to create a record under a key
	// that already exists.
	ErrDuplicateKey = errors.New("already exists")

	// ErrConflict reports an operation the current state disallows, such
	// as deleting a book with copies still on loan.
	ErrConflict = errors.New("conflict")

	// ErrUnauthorized reports a failed identity check on return or cancel.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrAlreadyReserved reports a duplicate entry in a book's queue.
	ErrAlreadyReserved = errors.New("already reserved")

	// ErrNoCopiesAvailable reports an issue attempt against a title with
	// every copy out on loan. Callers are expected to offer a reservation.
	ErrNoCopiesAvailable = errors.New("no copies available")

	// ErrLoanIDCollision signals a bug: the sequential counter handed out
	// an identifier that is already live in the ledger. Kept distinct from
	// ErrDuplicateKey so tests can assert it never fires.
	ErrLoanIDCollision = errors.New("loan id collision")
)
