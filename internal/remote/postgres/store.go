// ABOUTME: Postgres-backed remote store built on a pgx connection pool.
// ABOUTME: Classifies driver errors into transient, validation and conflict failures.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/harperreed/fitlog/internal/models"
	"github.com/harperreed/fitlog/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the multi-tenant remote store. Data access goes through ForUser.
type Store struct {
	pool *pgxpool.Pool
}

var _ storage.RemoteStore = (*Store)(nil)

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("open postgres: database url is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	s := &Store{pool: pool}
	if err := s.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Migrate ensures tables exist. Call once at startup.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return classify("schema", "migrate", err)
	}
	return nil
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return classify("connection", "ping", s.pool.Ping(ctx))
}

// Close releases every pooled connection.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// ForUser returns a Backend whose reads and writes are scoped to userID.
func (s *Store) ForUser(userID string) storage.Backend {
	return &userStore{pool: s.pool, userID: userID}
}

// FetchTier reads the user's plan tier. A user with no subscription row is
// on the free tier.
func (s *Store) FetchTier(ctx context.Context, userID string) (string, error) {
	var tier string
	err := s.pool.QueryRow(ctx,
		"SELECT plan_tier FROM subscriptions WHERE user_id = $1", userID,
	).Scan(&tier)
	if errors.Is(err, pgx.ErrNoRows) {
		return string(models.TierFree), nil
	}
	if err != nil {
		return "", classify("subscriptions", "fetch tier", err)
	}
	return tier, nil
}

// SetTier upserts the user's plan tier.
func (s *Store) SetTier(ctx context.Context, userID string, tier models.Tier) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO subscriptions (user_id, plan_tier, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (user_id) DO UPDATE SET plan_tier = EXCLUDED.plan_tier, updated_at = now()`,
		userID, string(tier))
	return classify("subscriptions", "set tier", err)
}

func classify(table, op string, err error) error {
	if err == nil {
		return nil
	}
	return storage.NewRemoteError(kindOf(err), table, op, err)
}

// A conflict means the id is already present. Other unique constraints reject
// the row itself and are validation failures.
func kindOf(err error) storage.RemoteErrorKind {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		// network loss, timeouts and closed pools never reach the server
		return storage.RemoteTransient
	}
	switch {
	case pgErr.Code == "23505" && isPrimaryKey(pgErr.ConstraintName): // unique_violation
		return storage.RemoteConflict
	case strings.HasPrefix(pgErr.Code, "23"), strings.HasPrefix(pgErr.Code, "22"):
		return storage.RemoteValidation
	default:
		return storage.RemoteTransient
	}
}

func isPrimaryKey(constraint string) bool {
	return constraint == "" || strings.HasSuffix(constraint, "_pkey")
}
