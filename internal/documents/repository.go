package documents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-procure/meridian-procure/internal/activity"
	"github.com/meridian-procure/meridian-procure/internal/platform/db"
	"github.com/meridian-procure/meridian-procure/internal/shared"
)

// Repository provides PostgreSQL backed persistence for documents.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes operations bound to one transaction. The document
// header row is the serialization point: line items are only mutated by the
// transaction holding the header lock taken by the ForUpdate getters.
type TxRepository interface {
	NextNumber(ctx context.Context, kind Kind) (string, error)
	InsertDocument(ctx context.Context, doc Document) (int64, error)
	InsertLine(ctx context.Context, line LineItem) (int64, error)
	UpdateHeader(ctx context.Context, doc Document) error
	UpdateLineReceipt(ctx context.Context, lineID int64, qtyReceived int, status ItemStatus) error
	DeleteLines(ctx context.Context, documentID int64) error
	DeleteDocument(ctx context.Context, id int64) error
	GetForUpdate(ctx context.Context, id int64) (Document, []LineItem, error)
	GetByNumberForUpdate(ctx context.Context, number string) (Document, []LineItem, error)
	RecordActivity(ctx context.Context, entry activity.Entry) error
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx wraps fn in a repeatable-read transaction. Serialization failures and
// lock timeouts surface as shared.ErrConcurrency for bounded caller retry.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
	if err != nil {
		if db.IsSerializationFailure(err) || db.IsUniqueViolation(err) {
			return fmt.Errorf("documents: %v: %w", err, shared.ErrConcurrency)
		}
		return err
	}
	return nil
}

const documentColumns = `id, kind, number, status, supplier, reference, notes, approver_id, approval_date, grand_total, created_at, updated_at`

func scanDocument(row pgx.Row) (Document, error) {
	var d Document
	var approver pgtype.Int8
	var approvedAt pgtype.Timestamptz
	err := row.Scan(&d.ID, &d.Kind, &d.Number, &d.Status, &d.Supplier, &d.Reference, &d.Notes,
		&approver, &approvedAt, &d.GrandTotal, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Document{}, fmt.Errorf("documents: %w", shared.ErrNotFound)
		}
		return Document{}, err
	}
	if approver.Valid {
		d.ApproverID = approver.Int64
	}
	if approvedAt.Valid {
		d.ApprovalDate = approvedAt.Time
	}
	return d, nil
}

const lineColumns = `id, document_id, description, qty_ordered, qty_received, unit_price, item_status, position`

type rowQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func fetchLines(ctx context.Context, q rowQuerier, documentID int64) ([]LineItem, error) {
	rows, err := q.Query(ctx, `SELECT `+lineColumns+` FROM document_lines WHERE document_id = $1 ORDER BY position ASC, id ASC`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []LineItem
	for rows.Next() {
		var l LineItem
		if err := rows.Scan(&l.ID, &l.DocumentID, &l.Description, &l.QtyOrdered, &l.QtyReceived, &l.UnitPrice, &l.Status, &l.Position); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// Get returns a document header with its lines.
func (r *Repository) Get(ctx context.Context, id int64) (Document, []LineItem, error) {
	doc, err := scanDocument(r.pool.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id))
	if err != nil {
		return Document{}, nil, err
	}
	lines, err := fetchLines(ctx, r.pool, doc.ID)
	if err != nil {
		return Document{}, nil, err
	}
	return doc, lines, nil
}

// GetByNumber returns a document header with its lines by document number.
func (r *Repository) GetByNumber(ctx context.Context, number string) (Document, []LineItem, error) {
	doc, err := scanDocument(r.pool.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE number = $1`, number))
	if err != nil {
		return Document{}, nil, err
	}
	lines, err := fetchLines(ctx, r.pool, doc.ID)
	if err != nil {
		return Document{}, nil, err
	}
	return doc, lines, nil
}

// List returns document headers matching filters plus the unpaged total.
func (r *Repository) List(ctx context.Context, filters ListFilters, limit, offset int) ([]Document, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	argNum := 0

	if filters.Kind != "" {
		argNum++
		where += ` AND kind = $` + strconv.Itoa(argNum)
		args = append(args, string(filters.Kind))
	}
	if filters.Status != "" {
		argNum++
		where += ` AND status = $` + strconv.Itoa(argNum)
		args = append(args, string(filters.Status))
	}
	if filters.Search != "" {
		argNum++
		where += ` AND (number ILIKE $` + strconv.Itoa(argNum) + ` OR supplier ILIKE $` + strconv.Itoa(argNum) + `)`
		args = append(args, "%"+filters.Search+"%")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM documents`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + documentColumns + ` FROM documents` + where +
		` ORDER BY ` + sortOrder(filters.SortBy, filters.SortDir) +
		` LIMIT $` + strconv.Itoa(argNum+1) + ` OFFSET $` + strconv.Itoa(argNum+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		var approver pgtype.Int8
		var approvedAt pgtype.Timestamptz
		if err := rows.Scan(&d.ID, &d.Kind, &d.Number, &d.Status, &d.Supplier, &d.Reference, &d.Notes,
			&approver, &approvedAt, &d.GrandTotal, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, 0, err
		}
		if approver.Valid {
			d.ApproverID = approver.Int64
		}
		if approvedAt.Valid {
			d.ApprovalDate = approvedAt.Time
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

// ListPendingForApprover returns documents awaiting the given approver.
func (r *Repository) ListPendingForApprover(ctx context.Context, approverID int64) ([]Document, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+documentColumns+` FROM documents
WHERE status = $1 AND approver_id = $2 ORDER BY updated_at ASC`, string(StatusPendingApproval), approverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		var approver pgtype.Int8
		var approvedAt pgtype.Timestamptz
		if err := rows.Scan(&d.ID, &d.Kind, &d.Number, &d.Status, &d.Supplier, &d.Reference, &d.Notes,
			&approver, &approvedAt, &d.GrandTotal, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		if approver.Valid {
			d.ApproverID = approver.Int64
		}
		if approvedAt.Valid {
			d.ApprovalDate = approvedAt.Time
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// ListStalePending returns documents sitting in PendingApproval since before
// the cutoff, used by the approval reminder job.
func (r *Repository) ListStalePending(ctx context.Context, before time.Time) ([]Document, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+documentColumns+` FROM documents
WHERE status = $1 AND updated_at < $2 ORDER BY approver_id ASC, updated_at ASC`, string(StatusPendingApproval), before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		var approver pgtype.Int8
		var approvedAt pgtype.Timestamptz
		if err := rows.Scan(&d.ID, &d.Kind, &d.Number, &d.Status, &d.Supplier, &d.Reference, &d.Notes,
			&approver, &approvedAt, &d.GrandTotal, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		if approver.Valid {
			d.ApproverID = approver.Int64
		}
		if approvedAt.Valid {
			d.ApprovalDate = approvedAt.Time
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// sortOrder returns a safe ORDER BY clause for document list queries.
func sortOrder(sortBy, sortDir string) string {
	dir := "DESC"
	if sortDir == "asc" {
		dir = "ASC"
	}
	switch sortBy {
	case "number":
		return "number " + dir
	case "status":
		return "status " + dir
	case "supplier":
		return "supplier " + dir
	case "total":
		return "grand_total " + dir
	case "updated_at":
		return "updated_at " + dir
	default:
		return "created_at DESC"
	}
}

// NextNumber bumps the per-kind counter and formats the document number.
// The counter row serializes concurrent creators of the same kind and is
// never decremented, so numbers are unique and never reused even across
// deleted drafts.
func (tx *txRepo) NextNumber(ctx context.Context, kind Kind) (string, error) {
	var n int64
	err := tx.tx.QueryRow(ctx, `INSERT INTO document_sequences (kind, last_value) VALUES ($1, 1)
ON CONFLICT (kind) DO UPDATE SET last_value = document_sequences.last_value + 1
RETURNING last_value`, string(kind)).Scan(&n)
	if err != nil {
		return "", err
	}
	return FormatNumber(kind, n), nil
}

func (tx *txRepo) InsertDocument(ctx context.Context, doc Document) (int64, error) {
	var approver pgtype.Int8
	if doc.ApproverID != 0 {
		approver = pgtype.Int8{Int64: doc.ApproverID, Valid: true}
	}
	var approvedAt pgtype.Timestamptz
	if !doc.ApprovalDate.IsZero() {
		approvedAt = pgtype.Timestamptz{Time: doc.ApprovalDate, Valid: true}
	}
	now := time.Now()
	var id int64
	err := tx.tx.QueryRow(ctx, `INSERT INTO documents (kind, number, status, supplier, reference, notes, approver_id, approval_date, grand_total, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10) RETURNING id`,
		string(doc.Kind), doc.Number, string(doc.Status), doc.Supplier, doc.Reference, doc.Notes,
		approver, approvedAt, doc.GrandTotal, now).Scan(&id)
	return id, err
}

func (tx *txRepo) InsertLine(ctx context.Context, line LineItem) (int64, error) {
	var id int64
	err := tx.tx.QueryRow(ctx, `INSERT INTO document_lines (document_id, description, qty_ordered, qty_received, unit_price, item_status, position)
VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		line.DocumentID, line.Description, line.QtyOrdered, line.QtyReceived, line.UnitPrice, string(line.Status), line.Position).Scan(&id)
	return id, err
}

func (tx *txRepo) UpdateHeader(ctx context.Context, doc Document) error {
	var approver pgtype.Int8
	if doc.ApproverID != 0 {
		approver = pgtype.Int8{Int64: doc.ApproverID, Valid: true}
	}
	var approvedAt pgtype.Timestamptz
	if !doc.ApprovalDate.IsZero() {
		approvedAt = pgtype.Timestamptz{Time: doc.ApprovalDate, Valid: true}
	}
	tag, err := tx.tx.Exec(ctx, `UPDATE documents SET status = $1, supplier = $2, reference = $3, notes = $4,
approver_id = $5, approval_date = $6, grand_total = $7, updated_at = $8 WHERE id = $9`,
		string(doc.Status), doc.Supplier, doc.Reference, doc.Notes, approver, approvedAt, doc.GrandTotal, time.Now(), doc.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("documents: %w", shared.ErrNotFound)
	}
	return nil
}

func (tx *txRepo) UpdateLineReceipt(ctx context.Context, lineID int64, qtyReceived int, status ItemStatus) error {
	tag, err := tx.tx.Exec(ctx, `UPDATE document_lines SET qty_received = $1, item_status = $2 WHERE id = $3`,
		qtyReceived, string(status), lineID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("documents: line %d: %w", lineID, shared.ErrNotFound)
	}
	return nil
}

func (tx *txRepo) DeleteLines(ctx context.Context, documentID int64) error {
	_, err := tx.tx.Exec(ctx, `DELETE FROM document_lines WHERE document_id = $1`, documentID)
	return err
}

func (tx *txRepo) DeleteDocument(ctx context.Context, id int64) error {
	tag, err := tx.tx.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("documents: %w", shared.ErrNotFound)
	}
	return nil
}

func (tx *txRepo) GetForUpdate(ctx context.Context, id int64) (Document, []LineItem, error) {
	doc, err := scanDocument(tx.tx.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return Document{}, nil, err
	}
	lines, err := fetchLines(ctx, tx.tx, doc.ID)
	if err != nil {
		return Document{}, nil, err
	}
	return doc, lines, nil
}

func (tx *txRepo) GetByNumberForUpdate(ctx context.Context, number string) (Document, []LineItem, error) {
	doc, err := scanDocument(tx.tx.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE number = $1 FOR UPDATE`, number))
	if err != nil {
		return Document{}, nil, err
	}
	lines, err := fetchLines(ctx, tx.tx, doc.ID)
	if err != nil {
		return Document{}, nil, err
	}
	return doc, lines, nil
}

func (tx *txRepo) RecordActivity(ctx context.Context, entry activity.Entry) error {
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return err
	}
	at := entry.OccurredAt
	if at.IsZero() {
		at = time.Now()
	}
	_, err = tx.tx.Exec(ctx, `INSERT INTO activity_log (actor, action, entity, entity_id, ref_id, details, occurred_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.Actor, entry.Action, entry.Entity, entry.EntityID, entry.RefID, details, at)
	return err
}
