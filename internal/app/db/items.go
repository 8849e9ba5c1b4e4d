package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"lostfound/internal/app/item"
	"lostfound/internal/app/store"
)

const itemColumns = `id::text, place_desc, item_desc, image_url, image_key, contact, lat, lng,
	status, uploaded_by::text, username, created_at`

// haversineSQL is the great-circle distance in metres from ($1 lat, $2 lng) to a row.
const haversineSQL = `2 * 6371008.8 * asin(least(1, sqrt(
	power(sin(radians(lat - $1) / 2), 2) +
	cos(radians($1)) * cos(radians(lat)) * power(sin(radians(lng - $2) / 2), 2))))`

func scanItem(row pgx.Row, extra ...any) (item.Item, error) {
	var (
		it       item.Item
		lat, lng float64
	)
	dest := []any{
		&it.ID, &it.PlaceDesc, &it.ItemDesc, &it.ImageURL, &it.ImageKey, &it.Contact, &lat, &lng,
		&it.Status, &it.UploadedBy, &it.Username, &it.Timestamp,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return item.Item{}, err
	}
	it.Location = item.NewGeoPoint(lat, lng)
	it.Timestamp = it.Timestamp.UTC()
	return it, nil
}

func (s *Store) queryItems(ctx context.Context, query string, args ...any) ([]item.Item, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	items := make([]item.Item, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *Store) CreateItem(ctx context.Context, it *item.Item) error {
	id := uuid.NewString()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO items (id, place_desc, item_desc, image_url, image_key, contact, lat, lng,
			status, uploaded_by, username, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		id, it.PlaceDesc, it.ItemDesc, it.ImageURL, it.ImageKey, it.Contact,
		it.Location.Lat(), it.Location.Lng(), it.Status, it.UploadedBy, it.Username, it.Timestamp,
	)
	if err != nil {
		return mapError(err)
	}

	it.ID = id
	return nil
}

func (s *Store) ListItems(ctx context.Context) ([]item.Item, error) {
	return s.queryItems(ctx, `SELECT `+itemColumns+` FROM items ORDER BY created_at DESC`)
}

func (s *Store) ItemsByUploader(ctx context.Context, userID string) ([]item.Item, error) {
	if checkID(userID) != nil {
		return []item.Item{}, nil
	}
	return s.queryItems(ctx, `SELECT `+itemColumns+` FROM items WHERE uploaded_by = $1 ORDER BY created_at DESC`, userID)
}

func (s *Store) ItemsNear(ctx context.Context, area item.Area) ([]item.Item, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+itemColumns+`, distance FROM (
			SELECT *, `+haversineSQL+` AS distance FROM items
		) AS d
		WHERE distance <= $3
		ORDER BY distance, created_at DESC`,
		area.Center.Lat(), area.Center.Lng(), area.Radius,
	)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	items := make([]item.Item, 0)
	for rows.Next() {
		var distance float64
		it, err := scanItem(rows, &distance)
		if err != nil {
			return nil, err
		}
		it.Distance = &distance
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *Store) SetItemStatus(ctx context.Context, id, ownerID, status string) error {
	if err := checkID(id); err != nil {
		return err
	}
	if checkID(ownerID) != nil {
		return store.ErrNotFound
	}

	tag, err := s.pool.Exec(ctx, `UPDATE items SET status = $3 WHERE id = $1 AND uploaded_by = $2`, id, ownerID, status)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteItem(ctx context.Context, id, ownerID string) (*item.Item, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	if checkID(ownerID) != nil {
		return nil, store.ErrNotFound
	}

	row := s.pool.QueryRow(ctx,
		`DELETE FROM items WHERE id = $1 AND uploaded_by = $2 RETURNING `+itemColumns, id, ownerID)
	it, err := scanItem(row)
	if err != nil {
		return nil, mapError(err)
	}
	return &it, nil
}
