package stree

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/movable"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/txutil"
)

// Violation is one scope that breaks the ordering rules.
type Violation struct {
	Scope string `json:"scope" yaml:"scope"`
	Error string `json:"error" yaml:"error"`
}

type VerifyReport struct {
	Scopes     int         `json:"scopes" yaml:"scopes"`
	Violations []Violation `json:"violations,omitempty" yaml:"violations,omitempty"`
}

func (r VerifyReport) OK() bool {
	return len(r.Violations) == 0
}

// Verify checks every scope for ranks 1..n and a single parent per member.
// Violations are reported, never repaired. The whole walk reads one
// read-only snapshot, so writers in other processes cannot produce false
// positives.
func Verify(ctx context.Context, db *sql.DB, logger *slog.Logger) (VerifyReport, error) {
	tx, err := db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return VerifyReport{}, fmt.Errorf("begin verify snapshot: %w", err)
	}
	defer txutil.TxnRollback(tx)
	return VerifyTx(ctx, tx, logger)
}

// VerifyTx is Verify over a caller-owned transaction or connection.
func VerifyTx(ctx context.Context, db DBTX, logger *slog.Logger) (VerifyReport, error) {
	if logger == nil {
		logger = slog.Default()
	}
	repo := NewRepo(db)
	scopes, err := NewReaderFromQueries(repo.Queries(), logger).Scopes(ctx)
	if err != nil {
		return VerifyReport{}, err
	}

	report := VerifyReport{Scopes: len(scopes)}
	for _, scope := range scopes {
		err := movable.CheckScope(ctx, repo, scope)
		if err == nil {
			continue
		}
		if !errors.Is(err, movable.ErrRankIntegrity) && !errors.Is(err, movable.ErrInvalidParentState) {
			return VerifyReport{}, err
		}
		report.Violations = append(report.Violations, Violation{Scope: scope.Key(), Error: err.Error()})
	}

	sort.Slice(report.Violations, func(i, j int) bool {
		return report.Violations[i].Scope < report.Violations[j].Scope
	})
	for _, v := range report.Violations {
		logger.ErrorContext(ctx, "rank integrity violated", "scope", v.Scope, "error", v.Error)
	}
	return report, nil
}
