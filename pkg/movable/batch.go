package movable

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/idwrap"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/model/mtree"
)

type RelocateRequest struct {
	NodeID    idwrap.IDWrap
	Kind      mtree.Kind
	TargetID  idwrap.IDWrap
	Directive mtree.DropDirective
}

type BatchOptions struct {
	// ContinueOnError keeps relocating after a failed item. By default the
	// batch stops and the remaining items are reported as skipped.
	ContinueOnError bool
}

type BatchStatus string

const (
	BatchMoved   BatchStatus = "moved"
	BatchFailed  BatchStatus = "failed"
	BatchSkipped BatchStatus = "skipped"
)

type BatchItem struct {
	Request RelocateRequest
	Status  BatchStatus
	Result  *RelocationResult
	Err     error
}

// BatchReport lists every request of a batch in submission order.
type BatchReport struct {
	BatchID uuid.UUID
	Items   []BatchItem
}

func (r BatchReport) count(status BatchStatus) int {
	n := 0
	for _, it := range r.Items {
		if it.Status == status {
			n++
		}
	}
	return n
}

func (r BatchReport) Moved() int   { return r.count(BatchMoved) }
func (r BatchReport) Failed() int  { return r.count(BatchFailed) }
func (r BatchReport) Skipped() int { return r.count(BatchSkipped) }

// OK reports whether every request was moved.
func (r BatchReport) OK() bool {
	return r.Moved() == len(r.Items)
}

// FirstError returns the error of the first failed item, if any.
func (r BatchReport) FirstError() error {
	for _, it := range r.Items {
		if it.Err != nil {
			return it.Err
		}
	}
	return nil
}

// RelocateBatch relocates each request in its own transaction, in order.
// A batch is not atomic: moves that succeeded before a failure stay
// committed.
func (e *Engine[T]) RelocateBatch(ctx context.Context, reqs []RelocateRequest, opts BatchOptions) BatchReport {
	report := BatchReport{BatchID: uuid.New(), Items: make([]BatchItem, len(reqs))}
	logger := e.logger.With(slog.String("batch_id", report.BatchID.String()))

	stopped := false
	for i, req := range reqs {
		item := BatchItem{Request: req, Status: BatchSkipped}
		if !stopped {
			result, err := e.Relocate(ctx, req.NodeID, req.Kind, req.TargetID, req.Directive)
			if err != nil {
				item.Status = BatchFailed
				item.Err = err
				stopped = !opts.ContinueOnError
			} else {
				item.Status = BatchMoved
				item.Result = &result
			}
		}
		report.Items[i] = item
	}

	logger.Info("batch relocation finished",
		slog.Int("requested", len(reqs)),
		slog.Int("moved", report.Moved()),
		slog.Int("failed", report.Failed()),
		slog.Int("skipped", report.Skipped()),
	)
	return report
}
