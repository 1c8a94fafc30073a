package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/joseph-ayodele/site-records/internal/common"
	"github.com/joseph-ayodele/site-records/internal/runlog"
)

// Document is a run-log row as stored in the audit store.
type Document struct {
	runlog.Record
	ProcessingID string
	UpdatedAt    time.Time
}

type DocumentRepository interface {
	Upsert(ctx context.Context, r runlog.Record) error
	UpdateByOriginalFilename(ctx context.Context, name string, fn func(*runlog.Record)) (Document, error)
	Get(ctx context.Context, name string) (Document, error)
	List(ctx context.Context) ([]Document, error)
	Count(ctx context.Context) (int, error)
}

type documentRepo struct {
	db     *DB
	logger *slog.Logger
}

func NewDocumentRepository(db *DB, logger *slog.Logger) DocumentRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &documentRepo{db: db, logger: logger}
}

const documentColumns = `original_filename, processing_id, new_filename, site_id, document_type, title, sender,
	receiver, address, readable, duplicate, similarity_score, duplicate_file, supersedes, releasable,
	output_path, updated_at`

const upsertDocument = `INSERT INTO documents (` + documentColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (original_filename) DO UPDATE SET
	new_filename = excluded.new_filename,
	site_id = excluded.site_id,
	document_type = excluded.document_type,
	title = excluded.title,
	sender = excluded.sender,
	receiver = excluded.receiver,
	address = excluded.address,
	readable = excluded.readable,
	duplicate = excluded.duplicate,
	similarity_score = excluded.similarity_score,
	duplicate_file = excluded.duplicate_file,
	supersedes = excluded.supersedes,
	releasable = excluded.releasable,
	output_path = excluded.output_path,
	updated_at = excluded.updated_at`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Upsert stores r keyed by original filename. The processing ID of an existing row is kept.
func (d *documentRepo) Upsert(ctx context.Context, r runlog.Record) error {
	return d.upsert(ctx, d.db.SQL, r)
}

func (d *documentRepo) upsert(ctx context.Context, ex execer, r runlog.Record) error {
	_, err := ex.ExecContext(ctx, d.db.rebind(upsertDocument),
		r.OriginalFilename, ulid.Make().String(), r.NewFilename, r.SiteID, r.DocumentType, r.Title, r.Sender,
		r.Receiver, r.Address, r.Readable, r.Duplicate, r.SimilarityScore, r.DuplicateFile, r.Supersedes,
		r.Releasable, r.OutputPath, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		d.logger.Error("failed to upsert document", "file", r.OriginalFilename, "error", err)
		return common.NewAppError("DB_ERROR", "upsert document", errors.Join(common.ErrDatabase, err))
	}
	return nil
}

func (d *documentRepo) UpdateByOriginalFilename(ctx context.Context, name string, fn func(*runlog.Record)) (Document, error) {
	tx, err := d.db.SQL.BeginTx(ctx, nil)
	if err != nil {
		return Document{}, err
	}
	defer func() { _ = tx.Rollback() }()

	doc, err := d.get(ctx, tx, name)
	if err != nil {
		return Document{}, err
	}
	fn(&doc.Record)
	doc.OriginalFilename = name
	if err := d.upsert(ctx, tx, doc.Record); err != nil {
		return Document{}, err
	}
	if err := tx.Commit(); err != nil {
		return Document{}, fmt.Errorf("commit: %w", err)
	}
	return d.Get(ctx, name)
}

func (d *documentRepo) Get(ctx context.Context, name string) (Document, error) {
	return d.get(ctx, d.db.SQL, name)
}

func (d *documentRepo) get(ctx context.Context, ex execer, name string) (Document, error) {
	row := ex.QueryRowContext(ctx, d.db.rebind(`SELECT `+documentColumns+` FROM documents WHERE original_filename = ?`), name)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, fmt.Errorf("document %q: %w", name, common.ErrNotFound)
	}
	return doc, err
}

func (d *documentRepo) List(ctx context.Context) ([]Document, error) {
	rows, err := d.db.SQL.QueryContext(ctx, `SELECT `+documentColumns+` FROM documents ORDER BY original_filename`)
	if err != nil {
		d.logger.Error("failed to list documents", "error", err)
		return nil, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func (d *documentRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := d.db.SQL.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n)
	return n, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (Document, error) {
	var doc Document
	var updated string
	r := &doc.Record
	err := s.Scan(&r.OriginalFilename, &doc.ProcessingID, &r.NewFilename, &r.SiteID, &r.DocumentType, &r.Title,
		&r.Sender, &r.Receiver, &r.Address, &r.Readable, &r.Duplicate, &r.SimilarityScore, &r.DuplicateFile,
		&r.Supersedes, &r.Releasable, &r.OutputPath, &updated)
	if err != nil {
		return Document{}, err
	}
	doc.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
	return doc, nil
}
