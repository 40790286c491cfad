package sources

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/tabella-hq/tabella/internal/ledger/journals"
)

type stubPoster struct {
	result journals.PostingResult
	err    error

	lastDoc journals.SourceDocument
	lastTag string
}

func (p *stubPoster) Post(_ context.Context, doc journals.SourceDocument) (journals.PostingResult, error) {
	p.lastDoc = doc
	return p.result, p.err
}

func (p *stubPoster) Reverse(_ context.Context, _ int64, reversalTag string) (journals.PostingResult, error) {
	p.lastTag = reversalTag
	return p.result, p.err
}

type recordedWrite struct {
	tag        string
	documentID int64
	result     journals.PostingResult
}

type stubStatusWriter struct {
	writes []recordedWrite
}

func (w *stubStatusWriter) Write(_ context.Context, tag string, documentID int64, result journals.PostingResult) error {
	w.writes = append(w.writes, recordedWrite{tag: tag, documentID: documentID, result: result})
	return nil
}

type stubEnqueuer struct {
	documentIDs []int64
	docs        []journals.SourceDocument
	err         error
}

func (e *stubEnqueuer) EnqueueLedgerPost(_ context.Context, documentID int64, doc journals.SourceDocument) error {
	e.documentIDs = append(e.documentIDs, documentID)
	e.docs = append(e.docs, doc)
	return e.err
}

func testReceipt() GoodsReceipt {
	return GoodsReceipt{
		ID:         42,
		OrgID:      1,
		Number:     "GR-42",
		ReceivedAt: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Lines: []ReceiptLine{
			{Qty: decimal.RequireFromString("10"), UnitCost: decimal.RequireFromString("5.00")},
		},
	}
}

func TestPostGoodsReceiptWritesStatusBack(t *testing.T) {
	poster := &stubPoster{result: journals.PostingResult{Status: journals.PostingStatusPosted, JournalEntryID: 11}}
	statuses := &stubStatusWriter{}
	hooks := NewHooks(poster, statuses, nil, nil)

	result, err := hooks.PostGoodsReceipt(context.Background(), testReceipt())
	require.NoError(t, err)
	require.Equal(t, journals.PostingStatusPosted, result.Status)

	require.Len(t, statuses.writes, 1)
	require.Equal(t, TagGoodsReceipt, statuses.writes[0].tag)
	require.Equal(t, int64(42), statuses.writes[0].documentID)
	require.Equal(t, int64(11), statuses.writes[0].result.JournalEntryID)

	require.Equal(t, SourceID(TagGoodsReceipt, 42), poster.lastDoc.SourceID)
}

func TestPostWritesFailedStatusOnEngineError(t *testing.T) {
	poster := &stubPoster{err: errors.New("unbalanced")}
	statuses := &stubStatusWriter{}
	hooks := NewHooks(poster, statuses, nil, nil)

	result, err := hooks.PostGoodsReceipt(context.Background(), testReceipt())
	require.Error(t, err)
	require.Equal(t, journals.PostingStatusFailed, result.Status)
	require.Len(t, statuses.writes, 1)
	require.Equal(t, journals.PostingStatusFailed, statuses.writes[0].result.Status)
}

func TestVoidUsesVoidTag(t *testing.T) {
	poster := &stubPoster{result: journals.PostingResult{Status: journals.PostingStatusPosted, JournalEntryID: 12}}
	statuses := &stubStatusWriter{}
	hooks := NewHooks(poster, statuses, nil, nil)

	result, err := hooks.VoidGoodsReceipt(context.Background(), 42, 11)
	require.NoError(t, err)
	require.Equal(t, journals.PostingStatusPosted, result.Status)
	require.Equal(t, "INV_GOODS_RECEIPT_VOID", poster.lastTag)

	require.Len(t, statuses.writes, 1)
	require.Equal(t, TagGoodsReceipt, statuses.writes[0].tag)
	require.Equal(t, int64(12), statuses.writes[0].result.JournalEntryID)
}

func TestEnqueueMarksPendingBeforeDispatch(t *testing.T) {
	statuses := &stubStatusWriter{}
	enqueuer := &stubEnqueuer{}
	hooks := NewHooks(&stubPoster{}, statuses, enqueuer, nil)

	require.NoError(t, hooks.EnqueueGoodsReceipt(context.Background(), testReceipt()))

	require.Len(t, statuses.writes, 1)
	require.Equal(t, journals.PostingStatusPending, statuses.writes[0].result.Status)
	require.Equal(t, []int64{42}, enqueuer.documentIDs)
	require.Len(t, enqueuer.docs, 1)
	require.Equal(t, TagGoodsReceipt, enqueuer.docs[0].SourceTag)
}

func TestEnqueueWithoutQueueConfigured(t *testing.T) {
	statuses := &stubStatusWriter{}
	hooks := NewHooks(&stubPoster{}, statuses, nil, nil)

	err := hooks.EnqueueGoodsReceipt(context.Background(), testReceipt())
	require.ErrorIs(t, err, ErrNoEnqueuer)
	require.Empty(t, statuses.writes)
}

func TestEnqueuePropagatesQueueError(t *testing.T) {
	enqueuer := &stubEnqueuer{err: errors.New("redis down")}
	hooks := NewHooks(&stubPoster{}, &stubStatusWriter{}, enqueuer, nil)

	err := hooks.EnqueueWaste(context.Background(), Waste{ID: 9, OrgID: 1, RecordedAt: time.Now(), Lines: []WasteLine{{Qty: decimal.NewFromInt(1), UnitCost: decimal.NewFromInt(2)}}})
	require.Error(t, err)
}
