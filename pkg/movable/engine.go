package movable

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/idwrap"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/model/mtree"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/txutil"
)

// Engine owns the transaction and scope locks around every ordering
// operation. One Engine, or at least one ScopeLocks, must be shared by all
// writers of the same store.
type Engine[T Tx] struct {
	store       Store[T]
	locks       *ScopeLocks
	lockTimeout time.Duration
	logger      *slog.Logger
}

type engineOptions struct {
	locks       *ScopeLocks
	lockTimeout time.Duration
	logger      *slog.Logger
}

type Option func(*engineOptions)

func WithLogger(logger *slog.Logger) Option {
	return func(o *engineOptions) { o.logger = logger }
}

// WithScopeLocks shares a lock table between engines over the same store.
func WithScopeLocks(locks *ScopeLocks) Option {
	return func(o *engineOptions) { o.locks = locks }
}

// WithLockTimeout bounds how long an operation waits for its scopes.
func WithLockTimeout(d time.Duration) Option {
	return func(o *engineOptions) { o.lockTimeout = d }
}

func NewEngine[T Tx](store Store[T], opts ...Option) *Engine[T] {
	o := engineOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.locks == nil {
		o.locks = NewScopeLocks()
	}
	return &Engine[T]{
		store:       store,
		locks:       o.locks,
		lockTimeout: o.lockTimeout,
		logger:      o.logger,
	}
}

// Relocate moves a node relative to target. The request is planned once to
// learn which scopes it touches, those scopes are locked, and the plan is
// recomputed and applied in a single transaction.
//
// Dropping a node on itself fails with ErrSelfReference, which also matches
// ErrTargetNotFound.
func (e *Engine[T]) Relocate(ctx context.Context, nodeID idwrap.IDWrap, kind mtree.Kind, targetID idwrap.IDWrap, d mtree.DropDirective) (RelocationResult, error) {
	logger := e.logger.With(
		slog.String("node_id", nodeID.String()),
		slog.String("kind", kind.String()),
		slog.String("target_id", targetID.String()),
		slog.String("directive", d.String()),
	)

	var result RelocationResult
	resolve := func(ctx context.Context, tx T) ([]mtree.Scope, error) {
		plan, err := PlanRelocation(ctx, tx, nodeID, kind, targetID, d)
		if err != nil {
			return nil, err
		}
		return plan.Scopes(), nil
	}
	rejected, err := e.lockedRun(ctx, logger, resolve, func(ctx context.Context, tx T, held []mtree.Scope) error {
		plan, err := PlanRelocation(ctx, tx, nodeID, kind, targetID, d)
		if err != nil {
			return err
		}
		if !covers(held, plan.Scopes()) {
			return ErrStaleScope
		}
		logger.Debug("relocation planned",
			slog.String("source", plan.Source.Scope().Key()),
			slog.String("destination", plan.Destination.Scope().Key()),
			slog.Int("position", plan.Position),
		)
		result, err = ApplyPlan(ctx, tx, plan)
		return err
	})
	if err != nil {
		msg := "relocation failed"
		if rejected {
			msg = "relocation rejected"
		}
		e.logFailure(logger, msg, err)
		return RelocationResult{}, err
	}

	logger.Info("node relocated",
		slog.String("source", result.Source.Key()),
		slog.String("destination", result.Destination.Key()),
		slog.Int("rank", result.Node.Rank),
		slog.Int("updated", len(result.Updated)),
	)
	return result, nil
}

// InsertAppend creates node as the last member of its scope.
func (e *Engine[T]) InsertAppend(ctx context.Context, node mtree.Node) (mtree.Node, error) {
	scope, err := node.Scope()
	if err != nil {
		return mtree.Node{}, err
	}
	logger := e.logger.With(slog.String("kind", node.Kind.String()), slog.String("scope", scope.Key()))

	var created mtree.Node
	err = e.Within(ctx, []mtree.Scope{scope}, func(ctx context.Context, tx T) error {
		n, err := AppendTx(ctx, tx, node)
		created = n
		return err
	})
	if err != nil {
		e.logFailure(logger, "insert failed", err)
		return mtree.Node{}, err
	}
	logger.Info("node inserted", slog.String("node_id", created.ID.String()), slog.Int("rank", created.Rank))
	return created, nil
}

// DeleteAndCompact deletes a node and closes the gap it leaves. Besides the
// node's own scope it locks every scope below the node, so nothing can be
// moved into or out of the subtree the store is about to cascade.
func (e *Engine[T]) DeleteAndCompact(ctx context.Context, nodeID idwrap.IDWrap, kind mtree.Kind) (CompactionResult, error) {
	logger := e.logger.With(slog.String("node_id", nodeID.String()), slog.String("kind", kind.String()))

	resolve := func(ctx context.Context, tx T) ([]mtree.Scope, error) {
		nav := NewNavigator(tx)
		node, err := nav.Node(ctx, nodeID, kind)
		if err != nil {
			return nil, err
		}
		scope, err := node.Scope()
		if err != nil {
			return nil, err
		}
		below, err := nav.SubtreeScopes(ctx, node.Ref())
		if err != nil {
			return nil, err
		}
		return append([]mtree.Scope{scope}, below...), nil
	}

	var result CompactionResult
	rejected, err := e.lockedRun(ctx, logger, resolve, func(ctx context.Context, tx T, held []mtree.Scope) error {
		current, err := resolve(ctx, tx)
		if err != nil {
			return err
		}
		if !covers(held, current) {
			return ErrStaleScope
		}
		result, err = DeleteTx(ctx, tx, nodeID, kind)
		return err
	})
	if err != nil {
		msg := "delete failed"
		if rejected {
			msg = "delete rejected"
		}
		e.logFailure(logger, msg, err)
		return CompactionResult{}, err
	}
	logger.Info("node deleted", slog.String("scope", result.Scope.Key()), slog.Int("updated", len(result.Updated)))
	return result, nil
}

// maxStaleRetries bounds how often an operation whose scopes changed while it
// waited for its locks is resolved again.
const maxStaleRetries = 3

// lockedRun resolves the scopes an operation needs, locks them and runs apply
// inside one transaction. apply returns ErrStaleScope when the state read
// under the locks needs more scopes than held; the operation is then resolved
// again. The bool reports a failure of the unlocked resolve step.
func (e *Engine[T]) lockedRun(
	ctx context.Context,
	logger *slog.Logger,
	resolve func(ctx context.Context, tx T) ([]mtree.Scope, error),
	apply func(ctx context.Context, tx T, held []mtree.Scope) error,
) (bool, error) {
	for attempt := 0; ; attempt++ {
		scopes, err := e.resolveScopes(ctx, resolve)
		if err != nil {
			return true, err
		}
		err = e.Within(ctx, scopes, func(ctx context.Context, tx T) error {
			return apply(ctx, tx, scopes)
		})
		if errors.Is(err, ErrStaleScope) && attempt < maxStaleRetries {
			logger.Debug("scopes changed while waiting, resolving again", slog.Int("attempt", attempt+1))
			continue
		}
		return false, err
	}
}

// Within runs fn in one transaction while holding the scope locks. fn may
// combine the Tx-level helpers with store-specific writes; returning an
// error rolls everything back.
func (e *Engine[T]) Within(ctx context.Context, scopes []mtree.Scope, fn func(ctx context.Context, tx T) error) error {
	release, err := e.locks.AcquireTimeout(ctx, e.lockTimeout, scopes...)
	if err != nil {
		return err
	}
	defer release()

	tx, err := e.store.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer txutil.TxnRollback(tx)

	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Locks exposes the lock table so other engines can share it.
func (e *Engine[T]) Locks() *ScopeLocks {
	return e.locks
}

// resolveScopes runs fn in a throwaway transaction without taking locks.
func (e *Engine[T]) resolveScopes(ctx context.Context, fn func(ctx context.Context, tx T) ([]mtree.Scope, error)) ([]mtree.Scope, error) {
	tx, err := e.store.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer txutil.TxnRollback(tx)
	return fn(ctx, tx)
}

func (e *Engine[T]) logFailure(logger *slog.Logger, msg string, err error) {
	if IsRejection(err) {
		logger.Warn(msg, slog.Any("error", err))
		return
	}
	logger.Error(msg, slog.Any("error", err))
}

// IsRejection reports whether err is a precondition failure detected before
// any write, as opposed to a storage failure that forced a rollback.
func IsRejection(err error) bool {
	for _, target := range []error{
		ErrNodeNotFound,
		ErrTargetNotFound,
		ErrParentNotFound,
		ErrUnsupportedRelocation,
		ErrKindMismatch,
		ErrSelfReference,
		ErrStaleScope,
		ErrDuplicateNode,
		ErrInvalidParentState,
		context.Canceled,
		context.DeadlineExceeded,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
