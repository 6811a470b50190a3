package ingest

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"testdesk/internal/questiondoc"
)

// SQLStore keeps import history in the import_batches table. Queries use
// $n placeholders, which both the pgx and sqlite drivers accept.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

const importColumns = `id, test_name, category_name, source_name, source_format,
  parsed_count, skipped_count, submitted_count, questions_text, skipped_json,
  status, remote_response, error_message, created_at`

func (s *SQLStore) Save(ctx context.Context, rec *ImportRecord) error {
	skipped := rec.Skipped
	if skipped == nil {
		skipped = []questiondoc.Skip{}
	}
	skippedJSON, err := json.Marshal(skipped)
	if err != nil {
		return fmt.Errorf("marshal skipped: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO import_batches (`+importColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		rec.ID,
		rec.TestName,
		rec.CategoryName,
		rec.SourceName,
		rec.SourceFormat,
		rec.ParsedCount,
		rec.SkippedCount,
		rec.SubmittedCount,
		rec.QuestionsText,
		string(skippedJSON),
		rec.Status,
		rec.RemoteResponse,
		rec.ErrorMessage,
		rec.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert import batch: %w", err)
	}
	return nil
}

func (s *SQLStore) List(ctx context.Context, limit int) ([]ImportRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+importColumns+`
		FROM import_batches
		ORDER BY created_at DESC, id ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list import batches: %w", err)
	}
	defer rows.Close()

	out := make([]ImportRecord, 0, limit)
	for rows.Next() {
		rec, err := scanImport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate import batches: %w", err)
	}
	return out, nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (*ImportRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+importColumns+`
		FROM import_batches
		WHERE id = $1`, id)
	rec, err := scanImport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrImportNotFound
	}
	return rec, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanImport(row rowScanner) (*ImportRecord, error) {
	var (
		rec         ImportRecord
		skippedJSON string
		createdAtMS int64
	)
	err := row.Scan(
		&rec.ID,
		&rec.TestName,
		&rec.CategoryName,
		&rec.SourceName,
		&rec.SourceFormat,
		&rec.ParsedCount,
		&rec.SkippedCount,
		&rec.SubmittedCount,
		&rec.QuestionsText,
		&skippedJSON,
		&rec.Status,
		&rec.RemoteResponse,
		&rec.ErrorMessage,
		&createdAtMS,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan import batch: %w", err)
	}
	rec.Skipped = []questiondoc.Skip{}
	if skippedJSON != "" {
		if err := json.Unmarshal([]byte(skippedJSON), &rec.Skipped); err != nil {
			return nil, fmt.Errorf("decode skipped: %w", err)
		}
	}
	rec.CreatedAt = time.UnixMilli(createdAtMS).UTC()
	return &rec, nil
}
