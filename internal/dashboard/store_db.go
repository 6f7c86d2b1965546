package dashboard

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
	pgUniqueCode = "23505"
)

// PostgresStore backs the local product list with a shared database
// instead of an embedded file, for deployments where the dashboard host
// is ephemeral. Records keep their insertion order via the pos column.
type PostgresStore struct {
	db  *sql.DB
	log *zap.Logger
}

func NewPostgresStore(db *sql.DB, log *zap.Logger) *PostgresStore {
	return &PostgresStore{db: db, log: log}
}

func (s *PostgresStore) InitSchema(ctx context.Context) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS local_products (
				pos     BIGSERIAL PRIMARY KEY,
				id      TEXT UNIQUE NOT NULL,
				payload JSONB NOT NULL
			);
			CREATE TABLE IF NOT EXISTS prefs (
				key   TEXT PRIMARY KEY,
				value TEXT NOT NULL
			);
		`)
		return err
	})
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	})
}

func (s *PostgresStore) LoadAll(ctx context.Context) ([]Product, error) {
	var out []Product

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT payload
			FROM local_products
			ORDER BY pos ASC
		`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var raw []byte
			if err := rows.Scan(&raw); err != nil {
				return err
			}
			var p Product
			if err := json.Unmarshal(raw, &p); err != nil {
				// Fail open on a corrupt row rather than losing the rest.
				if s.log != nil {
					s.log.Warn("skipping malformed local product row", zap.Error(err))
				}
				continue
			}
			out = append(out, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) SaveAll(ctx context.Context, products []Product) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.replaceList(ctx, products)
	})
}

func (s *PostgresStore) Append(ctx context.Context, p Product) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}

	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO local_products (id, payload)
			VALUES ($1, $2)
		`, p.ID, raw)
		if isUniqueViolation(err) {
			return fmt.Errorf("duplicate local product id %s", p.ID)
		}
		return err
	})
}

func (s *PostgresStore) Remove(ctx context.Context, match func(Product) bool) (bool, error) {
	removed := false
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		list, err := s.LoadAll(ctx)
		if err != nil {
			return err
		}

		kept := list[:0]
		for _, p := range list {
			if match(p) {
				removed = true
				continue
			}
			kept = append(kept, p)
		}
		if !removed {
			return nil
		}
		return s.replaceList(ctx, kept)
	})
	return removed, err
}

func (s *PostgresStore) Replace(ctx context.Context, match func(Product) bool, updated Product) (bool, error) {
	replaced := false
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		list, err := s.LoadAll(ctx)
		if err != nil {
			return err
		}

		for i, p := range list {
			if match(p) {
				list[i] = updated
				replaced = true
				break
			}
		}
		if !replaced {
			return nil
		}
		return s.replaceList(ctx, list)
	})
	return replaced, err
}

// replaceList rewrites the whole list in one transaction; callers see
// either the old list or the new one, never a partial write.
func (s *PostgresStore) replaceList(ctx context.Context, products []Product) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM local_products`); err != nil {
		return err
	}
	for _, p := range products {
		raw, err := json.Marshal(p)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO local_products (id, payload)
			VALUES ($1, $2)
		`, p.ID, raw); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *PostgresStore) LoadPref(ctx context.Context, key string) (string, error) {
	var value string
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx, `
			SELECT value FROM prefs WHERE key = $1
		`, key).Scan(&value)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (s *PostgresStore) SavePref(ctx context.Context, key, value string) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO prefs (key, value)
			VALUES ($1, $2)
			ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
		`, key, value)
		return err
	})
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueCode
}
