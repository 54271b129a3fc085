package notify

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists portal notifications.
type Store interface {
	Insert(ctx context.Context, n *Notification) error
	ListUnread(ctx context.Context, accountID uuid.UUID, limit int) ([]*Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID, accountID uuid.UUID) error
}

type rowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore stores notifications in the relational database.
type PostgresStore struct {
	pool rowQuerier
}

// NewPostgresStore initializes a store backed by pgxpool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("notify: pgx pool required")
	}
	return &PostgresStore{pool: pool}
}

func newPostgresStoreWithExec(exec rowQuerier) *PostgresStore {
	if exec == nil {
		panic("notify: exec required")
	}
	return &PostgresStore{pool: exec}
}

// Insert persists a new notification row.
func (s *PostgresStore) Insert(ctx context.Context, n *Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	query := `
		INSERT INTO notifications (id, account_id, title, message, kind, link)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	link := pgtype.Text{}
	if n.Link != "" {
		link = pgtype.Text{String: n.Link, Valid: true}
	}
	if err := s.pool.QueryRow(ctx, query, n.ID, n.AccountID, n.Title, n.Message, n.Kind, link).Scan(&n.CreatedAt); err != nil {
		return fmt.Errorf("notify: insert notification: %w", err)
	}
	return nil
}

// ListUnread returns the newest unread notifications for an account.
func (s *PostgresStore) ListUnread(ctx context.Context, accountID uuid.UUID, limit int) ([]*Notification, error) {
	if limit <= 0 {
		limit = 5
	}
	query := `
		SELECT id, account_id, title, message, kind, link, read, created_at
		FROM notifications
		WHERE account_id = $1 AND read = false
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := s.pool.Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("notify: list unread: %w", err)
	}
	defer rows.Close()

	var out []*Notification
	for rows.Next() {
		var n Notification
		var link pgtype.Text
		if err := rows.Scan(&n.ID, &n.AccountID, &n.Title, &n.Message, &n.Kind, &link, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("notify: scan notification: %w", err)
		}
		n.Link = link.String
		out = append(out, &n)
	}
	return out, rows.Err()
}

// MarkRead flags a notification as read, scoped to its account.
func (s *PostgresStore) MarkRead(ctx context.Context, id uuid.UUID, accountID uuid.UUID) error {
	query := `UPDATE notifications SET read = true WHERE id = $1 AND account_id = $2`
	ct, err := s.pool.Exec(ctx, query, id, accountID)
	if err != nil {
		return fmt.Errorf("notify: mark read: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// InMemoryStore is an in-memory Store for tests and local development.
type InMemoryStore struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*Notification
}

// NewInMemoryStore creates a new in-memory store
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[uuid.UUID]*Notification)}
}

// Insert persists a notification in memory.
func (s *InMemoryStore) Insert(ctx context.Context, n *Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	clone := *n
	s.entries[n.ID] = &clone
	return nil
}

// ListUnread returns unread notifications, newest first.
func (s *InMemoryStore) ListUnread(ctx context.Context, accountID uuid.UUID, limit int) ([]*Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 5
	}
	var out []*Notification
	for _, n := range s.entries {
		if n.AccountID == accountID && !n.Read {
			clone := *n
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MarkRead flags a notification as read.
func (s *InMemoryStore) MarkRead(ctx context.Context, id uuid.UUID, accountID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.entries[id]
	if !ok || n.AccountID != accountID {
		return ErrNotificationNotFound
	}
	n.Read = true
	return nil
}
