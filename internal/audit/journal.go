// Package audit keeps a journal of every command sent to the pad, backed by
// the command_journal table.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/ratpad-bridge/internal/bridge"
	"github.com/nerrad567/ratpad-bridge/internal/protocol"
)

// Page size limits for List.
const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// ErrNamespaceRequired is returned by Create for an entry without a namespace.
var ErrNamespaceRequired = errors.New("audit: namespace is required")

// timeLayout is fixed width so created_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000Z"

// Entry is one journaled command.
type Entry struct {
	ID         string             `json:"id"`
	Namespace  protocol.Namespace `json:"namespace"`
	Request    json.RawMessage    `json:"request,omitempty"`
	OK         bool               `json:"ok"`
	Kind       bridge.FailureKind `json:"kind,omitempty"`
	Error      string             `json:"error,omitempty"`
	DurationUS int64              `json:"duration_us"`
	CreatedAt  time.Time          `json:"created_at"`
}

// Filter controls which entries List returns.
type Filter struct {
	Namespace protocol.Namespace // optional: exact namespace
	Domain    string             // optional: "serial", "config" or "pad"
	Failed    bool               // only failed commands
	Since     time.Time          // optional: entries at or after this time
	Limit     int                // default 50, max 200
	Offset    int                // pagination offset
}

// ListResult contains a page of entries, newest first.
type ListResult struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
	Limit   int     `json:"limit"`
	Offset  int     `json:"offset"`
}

// Repository defines the journal operations.
type Repository interface {
	Create(ctx context.Context, e *Entry) error
	List(ctx context.Context, filter Filter) (*ListResult, error)
}

// SQLiteRepository stores the journal in SQLite. It implements
// bridge.Journal.
type SQLiteRepository struct {
	db *sql.DB
}

var _ bridge.Journal = (*SQLiteRepository)(nil)

// NewSQLiteRepository creates a journal repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// RecordCommand journals one executed command.
func (r *SQLiteRepository) RecordCommand(ctx context.Context, rec bridge.CommandRecord) error {
	return r.Create(ctx, &Entry{
		Namespace:  rec.Namespace,
		Request:    rec.Request,
		OK:         rec.OK,
		Kind:       rec.Kind,
		Error:      rec.Error,
		DurationUS: rec.Duration.Microseconds(),
		CreatedAt:  rec.At,
	})
}

// Create inserts an entry. The ID and CreatedAt are generated if empty.
func (r *SQLiteRepository) Create(ctx context.Context, e *Entry) error {
	if e.Namespace == "" {
		return ErrNamespaceRequired
	}
	if e.ID == "" {
		e.ID = "cmd-" + uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	var request any
	if len(e.Request) > 0 {
		request = string(e.Request)
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO command_journal (id, namespace, request, ok, kind, error, duration_us, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, string(e.Namespace), request, e.OK,
		nullableString(string(e.Kind)), nullableString(e.Error),
		e.DurationUS,
		e.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting journal entry: %w", err)
	}
	return nil
}

// nullableString maps "" to NULL.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// List returns entries matching the filter, newest first.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) (*ListResult, error) {
	if filter.Limit <= 0 {
		filter.Limit = DefaultLimit
	}
	if filter.Limit > MaxLimit {
		filter.Limit = MaxLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	var conditions []string
	var args []any

	if filter.Namespace != "" {
		conditions = append(conditions, "namespace = ?")
		args = append(args, string(filter.Namespace))
	}
	if filter.Domain != "" {
		conditions = append(conditions, "namespace LIKE ?")
		args = append(args, filter.Domain+".%")
	}
	if filter.Failed {
		conditions = append(conditions, "ok = 0")
	}
	if !filter.Since.IsZero() {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, filter.Since.UTC().Format(timeLayout))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT COUNT(*) FROM command_journal " + where //nolint:gosec // WHERE built from parameterised conditions
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting journal entries: %w", err)
	}

	query := "SELECT id, namespace, request, ok, kind, error, duration_us, created_at FROM command_journal " + //nolint:gosec // as above
		where + " ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?"
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying journal entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var ns, createdAt string
		var request, kind, errText sql.NullString

		if err := rows.Scan(&e.ID, &ns, &request, &e.OK, &kind, &errText, &e.DurationUS, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning journal entry: %w", err)
		}
		e.Namespace = protocol.Namespace(ns)
		if request.Valid {
			e.Request = json.RawMessage(request.String)
		}
		e.Kind = bridge.FailureKind(kind.String)
		e.Error = errText.String

		t, err := time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing journal timestamp %q: %w", createdAt, err)
		}
		e.CreatedAt = t

		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating journal entries: %w", err)
	}

	return &ListResult{
		Entries: entries,
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	}, nil
}
