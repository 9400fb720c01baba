package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/NgocTanHoang/TRAVEL-PLANNER/internal/types"
)

// PlaceDAO provides database access for place records.
type PlaceDAO struct {
	db *DB
}

// NewPlaceDAO creates a new PlaceDAO instance.
func NewPlaceDAO(db *DB) *PlaceDAO {
	return &PlaceDAO{db: db}
}

// Upsert inserts or replaces a place record.
func (dao *PlaceDAO) Upsert(ctx context.Context, place types.PlaceRecord) error {
	query := `
		INSERT INTO places (
			id, name, category, city, latitude, longitude,
			rating, price_estimate, metadata, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			category = excluded.category,
			city = excluded.city,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			rating = excluded.rating,
			price_estimate = excluded.price_estimate,
			metadata = excluded.metadata,
			updated_at = excluded.updated_at
	`

	_, err := dao.db.ExecContext(ctx, query,
		place.ID,
		place.Name,
		string(place.Category),
		place.City,
		place.Latitude,
		place.Longitude,
		place.Rating,
		place.PriceEstimate,
		place.Metadata,
		time.Now().UnixNano(),
	)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to upsert place", err)
	}
	return nil
}

// UpsertBatch writes a batch of place records in one transaction. The batch
// is all-or-nothing so a partial write never leaves a city half-populated.
func (dao *PlaceDAO) UpsertBatch(ctx context.Context, places []types.PlaceRecord) error {
	if len(places) == 0 {
		return nil
	}

	return dao.db.WithTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO places (
				id, name, category, city, latitude, longitude,
				rating, price_estimate, metadata, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				category = excluded.category,
				city = excluded.city,
				latitude = excluded.latitude,
				longitude = excluded.longitude,
				rating = excluded.rating,
				price_estimate = excluded.price_estimate,
				metadata = excluded.metadata,
				updated_at = excluded.updated_at
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		now := time.Now().UnixNano()
		for _, place := range places {
			if _, err := stmt.ExecContext(ctx,
				place.ID, place.Name, string(place.Category), place.City,
				place.Latitude, place.Longitude, place.Rating,
				place.PriceEstimate, place.Metadata, now,
			); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetByID retrieves a single place record.
func (dao *PlaceDAO) GetByID(ctx context.Context, id string) (*types.PlaceRecord, error) {
	row := dao.db.QueryRowContext(ctx, `
		SELECT id, name, category, city, latitude, longitude,
		       rating, price_estimate, metadata
		FROM places WHERE id = ?`, id)

	place, err := scanPlace(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to get place", err)
	}
	return place, nil
}

// GetByCity returns every place record for a city, ordered by rating then
// name. An unknown city yields an empty slice, not an error.
func (dao *PlaceDAO) GetByCity(ctx context.Context, city string) ([]types.PlaceRecord, error) {
	rows, err := dao.db.QueryContext(ctx, `
		SELECT id, name, category, city, latitude, longitude,
		       rating, price_estimate, metadata
		FROM places WHERE city = ?
		ORDER BY rating DESC, name ASC`, city)
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to query places", err)
	}
	defer rows.Close()

	places := make([]types.PlaceRecord, 0)
	for rows.Next() {
		place, err := scanPlace(rows)
		if err != nil {
			return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to scan place", err)
		}
		places = append(places, *place)
	}
	if err := rows.Err(); err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "place iteration failed", err)
	}
	return places, nil
}

// Count returns the total number of stored place records.
func (dao *PlaceDAO) Count(ctx context.Context) (int, error) {
	var n int
	if err := dao.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM places`).Scan(&n); err != nil {
		return 0, types.WrapError(types.DB_QUERY_FAILED, "failed to count places", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPlace(row rowScanner) (*types.PlaceRecord, error) {
	var place types.PlaceRecord
	var category string
	var metadata sql.NullString

	err := row.Scan(
		&place.ID, &place.Name, &category, &place.City,
		&place.Latitude, &place.Longitude,
		&place.Rating, &place.PriceEstimate, &metadata,
	)
	if err != nil {
		return nil, err
	}

	place.Category = types.PlaceCategory(category)
	place.Metadata = metadata.String
	return &place, nil
}
