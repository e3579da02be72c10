package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hhszzzz/Graduation-Design/pkg/persistence"
)

const (
	setCredentialQuery = `
INSERT INTO newsclient.credentials (
  key, value, date_added, date_modified
) VALUES ($1, $2, $3, $4)
ON CONFLICT (key) DO UPDATE
SET
  value = EXCLUDED.value,
  date_modified = EXCLUDED.date_modified
`

	getCredentialQuery = `
SELECT
  value
FROM newsclient.credentials
WHERE key = $1
`

	deleteCredentialQuery = `DELETE FROM newsclient.credentials WHERE key = $1`
)

type Adapter struct {
	db *sql.DB

	stmts preparedStatements
}

type preparedStatements struct {
	setCredential    *sql.Stmt
	getCredential    *sql.Stmt
	deleteCredential *sql.Stmt
}

type prepareStatementSpec struct {
	label  string
	query  string
	assign func(*preparedStatements, *sql.Stmt)
}

var prepareStatementSpecs = []prepareStatementSpec{
	{
		label: "set credential",
		query: setCredentialQuery,
		assign: func(ps *preparedStatements, stmt *sql.Stmt) {
			ps.setCredential = stmt
		},
	},
	{
		label: "get credential",
		query: getCredentialQuery,
		assign: func(ps *preparedStatements, stmt *sql.Stmt) {
			ps.getCredential = stmt
		},
	},
	{
		label: "delete credential",
		query: deleteCredentialQuery,
		assign: func(ps *preparedStatements, stmt *sql.Stmt) {
			ps.deleteCredential = stmt
		},
	},
}

var _ persistence.Store = (*Adapter)(nil)

func NewAdapter(db *sql.DB) (*Adapter, error) {
	if db == nil {
		return nil, errors.New("postgres adapter: db is required")
	}

	adapter := &Adapter{db: db}
	for _, spec := range prepareStatementSpecs {
		stmt, err := db.Prepare(spec.query)
		if err != nil {
			_ = adapter.Close()
			return nil, fmt.Errorf("postgres adapter: prepare %s statement: %w", spec.label, err)
		}
		spec.assign(&adapter.stmts, stmt)
	}

	return adapter, nil
}

func (a *Adapter) Close() error {
	var errs []error
	for _, stmt := range []*sql.Stmt{a.stmts.setCredential, a.stmts.getCredential, a.stmts.deleteCredential} {
		if stmt == nil {
			continue
		}
		if err := stmt.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *Adapter) Get(ctx context.Context, key string) (string, bool, error) {
	if err := a.requirePreparedStatements(); err != nil {
		return "", false, err
	}

	var value string
	err := a.stmts.getCredential.QueryRowContext(ctx, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("postgres adapter: get %s: %w", key, err)
	}
	return value, true, nil
}

func (a *Adapter) Set(ctx context.Context, key string, value string) error {
	if err := a.requirePreparedStatements(); err != nil {
		return err
	}

	now := time.Now().UTC()
	if _, err := a.stmts.setCredential.ExecContext(ctx, key, value, now, now); err != nil {
		return fmt.Errorf("postgres adapter: set %s: %w", key, err)
	}
	return nil
}

func (a *Adapter) Delete(ctx context.Context, key string) error {
	if err := a.requirePreparedStatements(); err != nil {
		return err
	}

	if _, err := a.stmts.deleteCredential.ExecContext(ctx, key); err != nil {
		return fmt.Errorf("postgres adapter: delete %s: %w", key, err)
	}
	return nil
}

func (a *Adapter) requirePreparedStatements() error {
	if a.stmts.setCredential == nil || a.stmts.getCredential == nil || a.stmts.deleteCredential == nil {
		return errors.New("postgres adapter: prepared statements are not initialized")
	}
	return nil
}
