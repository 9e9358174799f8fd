package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/theater-seat-booking/internal/database"
	"github.com/iliyamo/theater-seat-booking/internal/model"
)

// ConfigRepo stores per-theater key/value settings.
type ConfigRepo struct {
	db *database.DB
}

func NewConfigRepo(db *database.DB) *ConfigRepo {
	return &ConfigRepo{db: db}
}

// Get returns the value for key or ErrConfigNotFound.
func (r *ConfigRepo) Get(ctx context.Context, theaterID uint64, key string) (string, error) {
	return r.get(ctx, r.db, theaterID, key)
}

// GetTx is Get inside a transaction.
func (r *ConfigRepo) GetTx(ctx context.Context, tx *sql.Tx, theaterID uint64, key string) (string, error) {
	return r.get(ctx, tx, theaterID, key)
}

func (r *ConfigRepo) get(ctx context.Context, q database.Querier, theaterID uint64, key string) (string, error) {
	const query = `SELECT config_value FROM theater_configs WHERE theater_id = ? AND config_key = ?`
	var v string
	if err := q.QueryRowContext(ctx, r.db.Rebind(query), theaterID, key).Scan(&v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrConfigNotFound
		}
		return "", err
	}
	return v, nil
}

// Set inserts or replaces a setting.
func (r *ConfigRepo) Set(ctx context.Context, c model.TheaterConfig) error {
	var q string
	switch r.db.Dialect {
	case database.MySQL:
		q = `INSERT INTO theater_configs (theater_id, config_key, config_value) VALUES (?, ?, ?)
		     ON DUPLICATE KEY UPDATE config_value = VALUES(config_value)`
	default:
		q = `INSERT INTO theater_configs (theater_id, config_key, config_value) VALUES (?, ?, ?)
		     ON CONFLICT (theater_id, config_key) DO UPDATE SET config_value = excluded.config_value`
	}
	_, err := r.db.ExecContext(ctx, r.db.Rebind(q), c.TheaterID, c.Key, c.Value)
	return err
}

// List returns every setting of a theater ordered by key.
func (r *ConfigRepo) List(ctx context.Context, theaterID uint64) ([]model.TheaterConfig, error) {
	const q = `SELECT theater_id, config_key, config_value FROM theater_configs WHERE theater_id = ? ORDER BY config_key`
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(q), theaterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.TheaterConfig
	for rows.Next() {
		var c model.TheaterConfig
		if err := rows.Scan(&c.TheaterID, &c.Key, &c.Value); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Delete removes a setting.
func (r *ConfigRepo) Delete(ctx context.Context, theaterID uint64, key string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM theater_configs WHERE theater_id = ? AND config_key = ?`), theaterID, key)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrConfigNotFound
	}
	return nil
}
