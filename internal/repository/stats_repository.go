package repository

import (
	"context"

	"github.com/iliyamo/theater-seat-booking/internal/database"
	"github.com/iliyamo/theater-seat-booking/internal/model"
)

// StatsRepo runs the aggregate queries behind theater reports.
type StatsRepo struct {
	db *database.DB
}

func NewStatsRepo(db *database.DB) *StatsRepo {
	return &StatsRepo{db: db}
}

// SectionCounts returns seat totals per section of a theater.
func (r *StatsRepo) SectionCounts(ctx context.Context, theaterID uint64) ([]model.SectionStats, error) {
	const q = `SELECT sec.id, sec.name,
	                  COUNT(s.id),
	                  COALESCE(SUM(CASE WHEN s.status = 'AVAILABLE' THEN 1 ELSE 0 END), 0),
	                  COALESCE(SUM(CASE WHEN s.status = 'RESERVED' THEN 1 ELSE 0 END), 0)
	           FROM sections sec
	           LEFT JOIN seats s ON s.section_id = sec.id
	           WHERE sec.theater_id = ?
	           GROUP BY sec.id, sec.name
	           ORDER BY sec.name`
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(q), theaterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.SectionStats
	for rows.Next() {
		var s model.SectionStats
		if err := rows.Scan(&s.SectionID, &s.SectionName, &s.TotalSeats, &s.Available, &s.Booked); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Revenue sums the price of all CONFIRMED bookings of a theater.
func (r *StatsRepo) Revenue(ctx context.Context, theaterID uint64) (int64, error) {
	const q = `SELECT COALESCE(SUM(b.total_price_cents), 0)
	           FROM bookings b JOIN seats s ON s.id = b.seat_id
	           WHERE s.theater_id = ? AND b.status = 'CONFIRMED'`
	var cents int64
	err := r.db.QueryRowContext(ctx, r.db.Rebind(q), theaterID).Scan(&cents)
	return cents, err
}
