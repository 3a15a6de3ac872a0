package itinerary

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMockRepo(t *testing.T) (*RepositoryImpl, pgxmock.PgxPoolIface) {
	t.Helper()
	pool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return NewRepository(pool, zap.NewNop()), pool
}

func recordRows(pool pgxmock.PgxPoolIface, recs ...Record) *pgxmock.Rows {
	rows := pool.NewRows(itineraryColumns)
	for _, rec := range recs {
		days, _ := json.Marshal(rec.Itinerary.Days)
		rows.AddRow(rec.ID, rec.OwnerID, rec.Itinerary.Title, days, rec.Version, rec.CreatedAt, rec.UpdatedAt)
	}
	return rows
}

func TestRepositoryCreate(t *testing.T) {
	repo, pool := newMockRepo(t)
	rec := storedRecord(nil)

	pool.ExpectExec("INSERT INTO itineraries").
		WithArgs(rec.ID, rec.OwnerID, "Beijing", pgxmock.AnyArg(), 3, rec.CreatedAt, rec.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), rec))
	assert.NoError(t, pool.ExpectationsWereMet())
}

func TestRepositoryGet(t *testing.T) {
	ctx := context.Background()

	t.Run("Found", func(t *testing.T) {
		repo, pool := newMockRepo(t)
		owner := uuid.New()
		rec := storedRecord(&owner)

		pool.ExpectQuery(`SELECT (.+) FROM itineraries WHERE id = \$1`).
			WithArgs(rec.ID).
			WillReturnRows(recordRows(pool, rec))

		got, err := repo.Get(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, rec.ID, got.ID)
		require.NotNil(t, got.OwnerID)
		assert.Equal(t, owner, *got.OwnerID)
		assert.Equal(t, allNames(rec.Itinerary), allNames(got.Itinerary))
		assert.Equal(t, rec.Itinerary.Days[1].Stops[0].TimeSlot, got.Itinerary.Days[1].Stops[0].TimeSlot)
		assert.NoError(t, pool.ExpectationsWereMet())
	})

	t.Run("Missing", func(t *testing.T) {
		repo, pool := newMockRepo(t)
		id := uuid.New()
		pool.ExpectQuery(`SELECT (.+) FROM itineraries`).WithArgs(id).WillReturnRows(pool.NewRows(itineraryColumns))

		_, err := repo.Get(ctx, id)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Driver Error", func(t *testing.T) {
		repo, pool := newMockRepo(t)
		id := uuid.New()
		pool.ExpectQuery(`SELECT (.+) FROM itineraries`).WithArgs(id).WillReturnError(errors.New("conn closed"))

		_, err := repo.Get(ctx, id)
		assert.ErrorContains(t, err, "conn closed")
		assert.NotErrorIs(t, err, ErrNotFound)
	})
}

func TestRepositoryList(t *testing.T) {
	repo, pool := newMockRepo(t)
	owner := uuid.New()
	a, b := storedRecord(&owner), storedRecord(&owner)

	pool.ExpectQuery(`SELECT (.+) FROM itineraries WHERE owner_id = \$1 ORDER BY updated_at DESC LIMIT 10`).
		WithArgs(owner).
		WillReturnRows(recordRows(pool, a, b))

	recs, err := repo.List(context.Background(), &owner, 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, b.ID, recs[1].ID)
	assert.NoError(t, pool.ExpectationsWereMet())
}

func TestRepositoryUpdate(t *testing.T) {
	ctx := context.Background()
	updated := time.Date(2025, 5, 2, 10, 0, 0, 0, time.UTC)

	t.Run("Success", func(t *testing.T) {
		repo, pool := newMockRepo(t)
		rec := storedRecord(nil)
		rec.UpdatedAt = updated

		pool.ExpectQuery(`UPDATE itineraries SET (.+) version = version \+ 1, updated_at = \$3 WHERE id = \$4 AND version = \$5 RETURNING version`).
			WithArgs("Beijing", pgxmock.AnyArg(), updated, rec.ID, 3).
			WillReturnRows(pool.NewRows([]string{"version"}).AddRow(4))

		got, err := repo.Update(ctx, rec)
		require.NoError(t, err)
		assert.Equal(t, 4, got.Version)
		assert.NoError(t, pool.ExpectationsWereMet())
	})

	t.Run("Stale Version", func(t *testing.T) {
		repo, pool := newMockRepo(t)
		rec := storedRecord(nil)
		current := rec
		current.Version = 5

		pool.ExpectQuery(`UPDATE itineraries`).WillReturnRows(pool.NewRows([]string{"version"}))
		pool.ExpectQuery(`SELECT (.+) FROM itineraries`).WithArgs(rec.ID).WillReturnRows(recordRows(pool, current))

		_, err := repo.Update(ctx, rec)
		assert.ErrorIs(t, err, ErrVersionConflict)
		assert.NoError(t, pool.ExpectationsWereMet())
	})

	t.Run("Deleted Meanwhile", func(t *testing.T) {
		repo, pool := newMockRepo(t)
		rec := storedRecord(nil)

		pool.ExpectQuery(`UPDATE itineraries`).WillReturnRows(pool.NewRows([]string{"version"}))
		pool.ExpectQuery(`SELECT (.+) FROM itineraries`).WithArgs(rec.ID).WillReturnRows(pool.NewRows(itineraryColumns))

		_, err := repo.Update(ctx, rec)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
