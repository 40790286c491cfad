package sources

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tabella-hq/tabella/internal/ledger/journals"
)

// WriteStatusFunc updates the posting-status fields of one document.
type WriteStatusFunc func(ctx context.Context, documentID int64, result journals.PostingResult) error

// StatusRegistry routes posting results to the writer registered for a
// source tag. Business modules register a writer for each table they
// own, keeping table ownership out of the posting engine.
type StatusRegistry struct {
	mu      sync.RWMutex
	writers map[string]WriteStatusFunc
}

// NewStatusRegistry constructs an empty registry.
func NewStatusRegistry() *StatusRegistry {
	return &StatusRegistry{writers: make(map[string]WriteStatusFunc)}
}

// Register binds a writer to a source tag, replacing any previous one.
func (reg *StatusRegistry) Register(tag string, fn WriteStatusFunc) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.writers[tag] = fn
}

// Write dispatches a result to the registered writer.
func (reg *StatusRegistry) Write(ctx context.Context, sourceTag string, documentID int64, result journals.PostingResult) error {
	reg.mu.RLock()
	fn, ok := reg.writers[sourceTag]
	reg.mu.RUnlock()
	if !ok {
		return fmt.Errorf("sources: no status writer for %s", sourceTag)
	}
	return fn(ctx, documentID, result)
}

// TableStatusWriter builds a writer that maintains the gl_posting_*
// columns on a document table. The table name must be a code constant,
// never user input.
func TableStatusWriter(pool *pgxpool.Pool, table string, now func() time.Time) WriteStatusFunc {
	if now == nil {
		now = time.Now
	}
	query := fmt.Sprintf(`
        UPDATE %s
           SET gl_posting_status = $2,
               gl_journal_entry_id = $3,
               gl_posted_at = $4,
               gl_posting_error = $5
         WHERE id = $1`, table)
	return func(ctx context.Context, documentID int64, result journals.PostingResult) error {
		var entryID *int64
		if result.JournalEntryID != 0 {
			entryID = &result.JournalEntryID
		}
		var postedAt *time.Time
		if result.Status == journals.PostingStatusPosted {
			at := now().UTC()
			postedAt = &at
		}
		var errText *string
		if result.Err != "" {
			errText = &result.Err
		}
		_, err := pool.Exec(ctx, query, documentID, string(result.Status), entryID, postedAt, errText)
		if err != nil {
			return fmt.Errorf("update posting status on %s: %w", table, err)
		}
		return nil
	}
}
