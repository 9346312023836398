package testutil

import (
	"context"
	"database/sql"
	"log/slog"
	"testing"

	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/dbtest"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/logger/mocklogger"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/movable"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/service/sansweroption"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/service/sform"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/service/squestion"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/service/ssection"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/service/stree"
)

type BaseDBQueries struct {
	Queries *stree.Queries
	DB      *sql.DB
	t       *testing.T
	ctx     context.Context
}

type BaseTestServices struct {
	DB     *sql.DB
	Logger *slog.Logger
	Engine *stree.Engine
	Fs     sform.FormService
	Ss     ssection.SectionService
	Qs     squestion.QuestionService
	Os     sansweroption.AnswerOptionService
}

func CreateBaseDB(ctx context.Context, t *testing.T) *BaseDBQueries {
	t.Helper()
	db, err := dbtest.GetTestDB(ctx)
	if err != nil {
		t.Fatal(err)
	}
	return &BaseDBQueries{Queries: stree.New(db), t: t, ctx: ctx, DB: db}
}

func (c BaseDBQueries) GetBaseServices() BaseTestServices {
	return c.GetBaseServicesWithLogger(mocklogger.NewMockLogger())
}

func (c BaseDBQueries) GetBaseServicesWithLogger(logger *slog.Logger) BaseTestServices {
	queries := c.Queries
	engine := stree.NewEngine(stree.NewStore(c.DB), movable.WithLogger(logger))
	return BaseTestServices{
		DB:     c.DB,
		Logger: logger,
		Engine: engine,
		Fs:     sform.New(queries, engine, logger),
		Ss:     ssection.New(queries, engine, logger),
		Qs:     squestion.New(queries, engine, logger),
		Os:     sansweroption.New(queries, engine, logger),
	}
}

func (b BaseDBQueries) Close() {
	if err := b.DB.Close(); err != nil {
		b.t.Error(err)
	}
}
