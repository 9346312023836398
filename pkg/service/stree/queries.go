package stree

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/idwrap"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/model/mform"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/model/mtree"
)

// DBTX is satisfied by *sql.DB, *sql.Tx and *sql.Conn.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

// Queries holds the SQL of the form tree tables.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const getNodeKind = `
SELECT 1 FROM forms WHERE id = ?
UNION ALL SELECT 2 FROM sections WHERE id = ?
UNION ALL SELECT 3 FROM questions WHERE id = ?
UNION ALL SELECT 4 FROM answer_options WHERE id = ?
LIMIT 1
`

func (q *Queries) GetNodeKind(ctx context.Context, id idwrap.IDWrap) (mtree.Kind, error) {
	var kind int8
	if err := q.db.QueryRowContext(ctx, getNodeKind, id, id, id, id).Scan(&kind); err != nil {
		return mtree.KindUnspecified, err
	}
	return mtree.Kind(kind), nil
}

// forms

const formColumns = `id, title, description, display_order`

func scanForm(row rowScanner) (mform.Form, error) {
	var f mform.Form
	err := row.Scan(&f.ID, &f.Title, &f.Description, &f.Rank)
	return f, err
}

func (q *Queries) GetForm(ctx context.Context, id idwrap.IDWrap) (mform.Form, error) {
	return scanForm(q.db.QueryRowContext(ctx, `SELECT `+formColumns+` FROM forms WHERE id = ?`, id))
}

func (q *Queries) ListForms(ctx context.Context) ([]mform.Form, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+formColumns+` FROM forms ORDER BY display_order, id`)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanForm)
}

func (q *Queries) CreateForm(ctx context.Context, f mform.Form) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO forms (id, title, description, display_order) VALUES (?, ?, ?, ?)`,
		f.ID, f.Title, f.Description, f.Rank,
	)
	return err
}

func (q *Queries) UpdateFormDetails(ctx context.Context, f mform.Form) (int64, error) {
	return affected(q.db.ExecContext(ctx,
		`UPDATE forms SET title = ?, description = ? WHERE id = ?`,
		f.Title, f.Description, f.ID,
	))
}

func (q *Queries) UpdateFormOrder(ctx context.Context, id idwrap.IDWrap, order int) (int64, error) {
	return affected(q.db.ExecContext(ctx, `UPDATE forms SET display_order = ? WHERE id = ?`, order, id))
}

func (q *Queries) DeleteForm(ctx context.Context, id idwrap.IDWrap) (int64, error) {
	return affected(q.db.ExecContext(ctx, `DELETE FROM forms WHERE id = ?`, id))
}

// sections

const sectionColumns = `id, form_id, title, description, display_order`

func scanSection(row rowScanner) (mform.Section, error) {
	var s mform.Section
	err := row.Scan(&s.ID, &s.FormID, &s.Title, &s.Description, &s.Rank)
	return s, err
}

func (q *Queries) GetSection(ctx context.Context, id idwrap.IDWrap) (mform.Section, error) {
	return scanSection(q.db.QueryRowContext(ctx, `SELECT `+sectionColumns+` FROM sections WHERE id = ?`, id))
}

func (q *Queries) ListSectionsByForm(ctx context.Context, formID idwrap.IDWrap) ([]mform.Section, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+sectionColumns+` FROM sections WHERE form_id = ? ORDER BY display_order, id`, formID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanSection)
}

func (q *Queries) CreateSection(ctx context.Context, s mform.Section) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO sections (id, form_id, title, description, display_order) VALUES (?, ?, ?, ?, ?)`,
		s.ID, s.FormID, s.Title, s.Description, s.Rank,
	)
	return err
}

func (q *Queries) UpdateSectionDetails(ctx context.Context, s mform.Section) (int64, error) {
	return affected(q.db.ExecContext(ctx,
		`UPDATE sections SET title = ?, description = ? WHERE id = ?`,
		s.Title, s.Description, s.ID,
	))
}

func (q *Queries) UpdateSectionPlacement(ctx context.Context, id, formID idwrap.IDWrap, order int) (int64, error) {
	return affected(q.db.ExecContext(ctx,
		`UPDATE sections SET form_id = ?, display_order = ? WHERE id = ?`, formID, order, id))
}

func (q *Queries) DeleteSection(ctx context.Context, id idwrap.IDWrap) (int64, error) {
	return affected(q.db.ExecContext(ctx, `DELETE FROM sections WHERE id = ?`, id))
}

// questions

const questionColumns = `id, form_id, section_id, title, question, question_type, display_order`

func scanQuestion(row rowScanner) (mform.Question, error) {
	var (
		q                 mform.Question
		formID, sectionID []byte
		qtype             string
	)
	if err := row.Scan(&q.ID, &formID, &sectionID, &q.Title, &q.Question, &qtype, &q.Rank); err != nil {
		return mform.Question{}, err
	}
	var err error
	if q.FormID, err = nullableID(formID); err != nil {
		return mform.Question{}, err
	}
	if q.SectionID, err = nullableID(sectionID); err != nil {
		return mform.Question{}, err
	}
	q.Type = mform.QuestionType(qtype)
	return q, nil
}

func (q *Queries) GetQuestion(ctx context.Context, id idwrap.IDWrap) (mform.Question, error) {
	return scanQuestion(q.db.QueryRowContext(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = ?`, id))
}

// ListQuestionsByForm returns the questions attached directly to the form.
func (q *Queries) ListQuestionsByForm(ctx context.Context, formID idwrap.IDWrap) ([]mform.Question, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE form_id = ? ORDER BY display_order, id`, formID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanQuestion)
}

func (q *Queries) ListQuestionsBySection(ctx context.Context, sectionID idwrap.IDWrap) ([]mform.Question, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE section_id = ? ORDER BY display_order, id`, sectionID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanQuestion)
}

func (q *Queries) CreateQuestion(ctx context.Context, question mform.Question) error {
	qtype := question.Type
	if qtype == "" {
		qtype = mform.QuestionTypeFreeText
	}
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO questions (id, form_id, section_id, title, question, question_type, display_order)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		question.ID, question.FormID, question.SectionID, question.Title, question.Question, string(qtype), question.Rank,
	)
	return err
}

func (q *Queries) UpdateQuestionDetails(ctx context.Context, question mform.Question) (int64, error) {
	return affected(q.db.ExecContext(ctx,
		`UPDATE questions SET title = ?, question = ?, question_type = ? WHERE id = ?`,
		question.Title, question.Question, string(question.Type), question.ID,
	))
}

func (q *Queries) UpdateQuestionPlacement(ctx context.Context, id idwrap.IDWrap, formID, sectionID *idwrap.IDWrap, order int) (int64, error) {
	return affected(q.db.ExecContext(ctx,
		`UPDATE questions SET form_id = ?, section_id = ?, display_order = ? WHERE id = ?`,
		formID, sectionID, order, id,
	))
}

func (q *Queries) DeleteQuestion(ctx context.Context, id idwrap.IDWrap) (int64, error) {
	return affected(q.db.ExecContext(ctx, `DELETE FROM questions WHERE id = ?`, id))
}

// answer options

const answerOptionColumns = `id, question_id, title, label, value, display_order`

func scanAnswerOption(row rowScanner) (mform.AnswerOption, error) {
	var a mform.AnswerOption
	err := row.Scan(&a.ID, &a.QuestionID, &a.Title, &a.Label, &a.Value, &a.Rank)
	return a, err
}

func (q *Queries) GetAnswerOption(ctx context.Context, id idwrap.IDWrap) (mform.AnswerOption, error) {
	return scanAnswerOption(q.db.QueryRowContext(ctx, `SELECT `+answerOptionColumns+` FROM answer_options WHERE id = ?`, id))
}

func (q *Queries) ListAnswerOptionsByQuestion(ctx context.Context, questionID idwrap.IDWrap) ([]mform.AnswerOption, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+answerOptionColumns+` FROM answer_options WHERE question_id = ? ORDER BY display_order, id`, questionID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanAnswerOption)
}

func (q *Queries) CreateAnswerOption(ctx context.Context, a mform.AnswerOption) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO answer_options (id, question_id, title, label, value, display_order) VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.QuestionID, a.Title, a.Label, a.Value, a.Rank,
	)
	return err
}

func (q *Queries) UpdateAnswerOptionDetails(ctx context.Context, a mform.AnswerOption) (int64, error) {
	return affected(q.db.ExecContext(ctx,
		`UPDATE answer_options SET title = ?, label = ?, value = ? WHERE id = ?`,
		a.Title, a.Label, a.Value, a.ID,
	))
}

func (q *Queries) UpdateAnswerOptionPlacement(ctx context.Context, id, questionID idwrap.IDWrap, order int) (int64, error) {
	return affected(q.db.ExecContext(ctx,
		`UPDATE answer_options SET question_id = ?, display_order = ? WHERE id = ?`, questionID, order, id))
}

func (q *Queries) DeleteAnswerOption(ctx context.Context, id idwrap.IDWrap) (int64, error) {
	return affected(q.db.ExecContext(ctx, `DELETE FROM answer_options WHERE id = ?`, id))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func collect[T any](rows *sql.Rows, scan func(rowScanner) (T, error)) ([]T, error) {
	defer rows.Close()
	var out []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func affected(res sql.Result, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func nullableID(raw []byte) (*idwrap.IDWrap, error) {
	if raw == nil {
		return nil, nil
	}
	id, err := idwrap.NewFromBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("scan id: %w", err)
	}
	return &id, nil
}
