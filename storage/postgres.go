package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var UnexpectedDatabaseError = errors.New("unexpected-database-error")

type PostgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresRepo(ctx context.Context, connString string) (*PostgresRepo, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresRepo{pool: pool}, nil
}

func (pgr *PostgresRepo) Close() {
	pgr.pool.Close()
}

// Words returns every subject word, in id order.
func (pgr *PostgresRepo) Words(ctx context.Context) ([]string, error) {
	rows, err := pgr.pool.Query(ctx, "SELECT word FROM words ORDER BY id")
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	words := []string{}
	for rows.Next() {
		var word string
		if err := rows.Scan(&word); err != nil {
			return nil, wrapDBError(err)
		}
		words = append(words, word)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBError(err)
	}
	return words, nil
}

// AddWord inserts word unless it is already there.
func (pgr *PostgresRepo) AddWord(ctx context.Context, word string) error {
	_, err := pgr.pool.Exec(ctx, "INSERT INTO words(word) VALUES($1) ON CONFLICT (word) DO NOTHING", word)
	return wrapDBError(err)
}

func wrapDBError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: %w", UnexpectedDatabaseError, err)
	}
}
