package migrations

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/the-dev-tools/dev-tools/packages/formtree/internal/migrate"
)

// MigrationCreateFormTreeID is the ULID for the initial form tree schema.
const MigrationCreateFormTreeID = "01KJ0FT3M6V8QX2N4R7BZC5HDW"

// MigrationCreateFormTreeChecksum is a stable hash of this migration.
const MigrationCreateFormTreeChecksum = "sha256:create-form-tree-v1"

func init() {
	if err := migrate.Register(migrate.Migration{
		ID:          MigrationCreateFormTreeID,
		Checksum:    MigrationCreateFormTreeChecksum,
		Description: "Create forms, sections, questions and answer_options tables",
		Apply:       applyCreateFormTree,
		Validate:    validateCreateFormTree,
	}); err != nil {
		panic("failed to register form tree migration: " + err.Error())
	}
}

var formTreeTables = []string{"forms", "sections", "questions", "answer_options"}

var formTreeStatements = []string{
	`CREATE TABLE IF NOT EXISTS forms (
		id BLOB NOT NULL PRIMARY KEY,
		title TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		display_order INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_forms_order ON forms(display_order)`,

	`CREATE TABLE IF NOT EXISTS sections (
		id BLOB NOT NULL PRIMARY KEY,
		form_id BLOB NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		display_order INTEGER NOT NULL,
		FOREIGN KEY (form_id) REFERENCES forms (id) ON DELETE CASCADE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sections_form_order ON sections(form_id, display_order)`,

	`CREATE TABLE IF NOT EXISTS questions (
		id BLOB NOT NULL PRIMARY KEY,
		form_id BLOB,
		section_id BLOB,
		title TEXT NOT NULL DEFAULT '',
		question TEXT NOT NULL DEFAULT '',
		question_type TEXT NOT NULL DEFAULT 'free_text',
		display_order INTEGER NOT NULL,
		CHECK ((form_id IS NULL) <> (section_id IS NULL)),
		FOREIGN KEY (form_id) REFERENCES forms (id) ON DELETE CASCADE,
		FOREIGN KEY (section_id) REFERENCES sections (id) ON DELETE CASCADE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_questions_form_order ON questions(form_id, display_order)`,
	`CREATE INDEX IF NOT EXISTS idx_questions_section_order ON questions(section_id, display_order)`,

	`CREATE TABLE IF NOT EXISTS answer_options (
		id BLOB NOT NULL PRIMARY KEY,
		question_id BLOB NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		label TEXT NOT NULL DEFAULT '',
		value TEXT NOT NULL DEFAULT '',
		display_order INTEGER NOT NULL,
		FOREIGN KEY (question_id) REFERENCES questions (id) ON DELETE CASCADE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_answer_options_question_order ON answer_options(question_id, display_order)`,
}

func applyCreateFormTree(ctx context.Context, tx *sql.Tx) error {
	for _, stmt := range formTreeStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create form tree schema: %w", err)
		}
	}
	return nil
}

func validateCreateFormTree(ctx context.Context, db *sql.DB) error {
	for _, table := range formTreeTables {
		var count int
		err := db.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM sqlite_master
			WHERE type='table' AND name=?
		`, table).Scan(&count)
		if err != nil {
			return fmt.Errorf("validate %s table: %w", table, err)
		}
		if count == 0 {
			return fmt.Errorf("%s table not found", table)
		}
	}
	return nil
}
