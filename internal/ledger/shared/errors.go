package shared

import "errors"

var (
	// ErrUnbalanced indicates debit != credit.
	ErrUnbalanced = errors.New("ledger: journal lines must balance")
	// ErrTooFewLines indicates less than two lines.
	ErrTooFewLines = errors.New("ledger: journal requires at least two lines")
	// ErrInvalidLine indicates a non-positive line amount.
	ErrInvalidLine = errors.New("ledger: line amount must be positive")
	// ErrPeriodClosed indicates the target period is closed for posting.
	ErrPeriodClosed = errors.New("ledger: period closed")
	// ErrPeriodConflict indicates a close/reopen against the current status.
	ErrPeriodConflict = errors.New("ledger: period already in requested status")
	// ErrJournalNotFound indicates missing entry.
	ErrJournalNotFound = errors.New("ledger: journal entry not found")
	// ErrSourceConflict indicates an entry already exists for the source.
	ErrSourceConflict = errors.New("ledger: source already posted")
	// ErrMappingNotFound indicates no mapping for the org or branch.
	ErrMappingNotFound = errors.New("ledger: account mapping not found")
	// ErrMappingConflict indicates a mapping already exists for the scope.
	ErrMappingConflict = errors.New("ledger: mapping scope already configured")
	// ErrAccountNotFound indicates a referenced account does not exist.
	ErrAccountNotFound = errors.New("ledger: account not found")
)
