// README: Trip store backed by PostgreSQL; riders are rewritten with their trip in one transaction.
package trip

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"flock/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, t *Trip) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO trips (
				id, owner_id, name, destination, destination_id, use_suggested_drivers, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			string(t.ID), t.OwnerID, t.Name, t.Destination, string(t.DestinationID),
			t.UseSuggestedDrivers, t.CreatedAt, t.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert trip: %w", err)
		}
		return insertRiders(ctx, tx, t)
	})
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Trip, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, owner_id, name, destination, destination_id, use_suggested_drivers, created_at, updated_at
		FROM trips
		WHERE id = $1`, string(id),
	)
	var t Trip
	err := row.Scan(&t.ID, &t.OwnerID, &t.Name, &t.Destination, &t.DestinationID, &t.UseSuggestedDrivers, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	riders, err := s.riders(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	t.Riders = riders
	return &t, nil
}

// List returns the trips owned by owner, or every trip when owner is empty.
func (s *Store) List(ctx context.Context, owner string) ([]*Trip, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, owner_id, name, destination, destination_id, use_suggested_drivers, created_at, updated_at
		FROM trips
		WHERE $1 = '' OR owner_id = $1
		ORDER BY created_at DESC`, owner)
	if err != nil {
		return nil, err
	}
	var trips []*Trip
	for rows.Next() {
		var t Trip
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Name, &t.Destination, &t.DestinationID, &t.UseSuggestedDrivers, &t.CreatedAt, &t.UpdatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		trips = append(trips, &t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, t := range trips {
		riders, err := s.riders(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		t.Riders = riders
	}
	return trips, nil
}

// Update replaces the trip row and its full rider list.
func (s *Store) Update(ctx context.Context, t *Trip) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE trips
			SET name = $2, destination = $3, destination_id = $4,
			    use_suggested_drivers = $5, updated_at = $6
			WHERE id = $1`,
			string(t.ID), t.Name, t.Destination, string(t.DestinationID), t.UseSuggestedDrivers, t.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("update trip: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		if _, err := tx.Exec(ctx, `DELETE FROM trip_riders WHERE trip_id = $1`, string(t.ID)); err != nil {
			return fmt.Errorf("clear riders: %w", err)
		}
		return insertRiders(ctx, tx, t)
	})
}

func (s *Store) Delete(ctx context.Context, id types.ID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM trips WHERE id = $1`, string(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) riders(ctx context.Context, tripID types.ID) ([]Rider, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, phone_number, location, is_driver, passenger_capacity
		FROM trip_riders
		WHERE trip_id = $1
		ORDER BY position`, string(tripID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var riders []Rider
	for rows.Next() {
		var r Rider
		if err := rows.Scan(&r.ID, &r.Name, &r.PhoneNumber, &r.Location, &r.IsDriver, &r.PassengerCapacity); err != nil {
			return nil, err
		}
		riders = append(riders, r)
	}
	return riders, rows.Err()
}

func insertRiders(ctx context.Context, tx pgx.Tx, t *Trip) error {
	batch := &pgx.Batch{}
	for i, r := range t.Riders {
		batch.Queue(`
			INSERT INTO trip_riders (
				trip_id, position, id, name, phone_number, location, is_driver, passenger_capacity
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			string(t.ID), i, string(r.ID), r.Name, r.PhoneNumber, r.Location, r.IsDriver, r.PassengerCapacity,
		)
	}
	if batch.Len() == 0 {
		return nil
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert riders: %w", err)
	}
	return nil
}
