package itinerary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-itinerary/internal/app/observability/metrics"
)

const itinerariesTable = "itineraries"

var itineraryColumns = []string{"id", "owner_id", "title", "days", "version", "created_at", "updated_at"}

// Record is a stored itinerary with its bookkeeping fields.
type Record struct {
	ID        uuid.UUID  `json:"id"`
	OwnerID   *uuid.UUID `json:"owner_id,omitempty"`
	Version   int        `json:"version"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Itinerary Itinerary  `json:"itinerary"`
}

// DB is the subset of pgxpool.Pool the repository needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository persists itineraries.
type Repository interface {
	Create(ctx context.Context, rec Record) error
	Get(ctx context.Context, id uuid.UUID) (Record, error)
	List(ctx context.Context, ownerID *uuid.UUID, limit int) ([]Record, error)
	// Update stores rec if the stored version still equals rec.Version and
	// returns the record with its new version.
	Update(ctx context.Context, rec Record) (Record, error)
}

var _ Repository = (*RepositoryImpl)(nil)

type RepositoryImpl struct {
	logger *zap.Logger
	db     DB
	psql   sq.StatementBuilderType
}

func NewRepository(db DB, logger *zap.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		logger: logger,
		db:     db,
		psql:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *RepositoryImpl) Create(ctx context.Context, rec Record) error {
	days, err := json.Marshal(rec.Itinerary.Days)
	if err != nil {
		return fmt.Errorf("failed to encode itinerary days: %w", err)
	}

	query, args, err := r.psql.Insert(itinerariesTable).
		Columns(itineraryColumns...).
		Values(rec.ID, rec.OwnerID, rec.Itinerary.Title, days, rec.Version, rec.CreatedAt, rec.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}

	defer r.observe(ctx, "create", time.Now(), &err)
	if _, err = r.db.Exec(ctx, query, args...); err != nil {
		r.logger.Error("Failed to create itinerary", zap.String("id", rec.ID.String()), zap.Error(err))
		return fmt.Errorf("failed to create itinerary: %w", err)
	}
	return nil
}

func (r *RepositoryImpl) Get(ctx context.Context, id uuid.UUID) (Record, error) {
	query, args, err := r.psql.Select(itineraryColumns...).
		From(itinerariesTable).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return Record{}, fmt.Errorf("failed to build select: %w", err)
	}

	defer r.observe(ctx, "get", time.Now(), &err)
	var rec Record
	rec, err = scanRecord(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = nil
			return Record{}, fmt.Errorf("itinerary %s: %w", id, ErrNotFound)
		}
		r.logger.Error("Failed to get itinerary", zap.String("id", id.String()), zap.Error(err))
		return Record{}, fmt.Errorf("failed to get itinerary: %w", err)
	}
	return rec, nil
}

func (r *RepositoryImpl) List(ctx context.Context, ownerID *uuid.UUID, limit int) ([]Record, error) {
	builder := r.psql.Select(itineraryColumns...).
		From(itinerariesTable).
		OrderBy("updated_at DESC")
	if ownerID != nil {
		builder = builder.Where(sq.Eq{"owner_id": *ownerID})
	}
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list: %w", err)
	}

	defer r.observe(ctx, "list", time.Now(), &err)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list itineraries", zap.Error(err))
		return nil, fmt.Errorf("failed to list itineraries: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		rec, err = scanRecord(rows)
		if err != nil {
			r.logger.Error("Failed to scan itinerary", zap.Error(err))
			return nil, fmt.Errorf("failed to scan itinerary: %w", err)
		}
		out = append(out, rec)
	}
	if err = rows.Err(); err != nil {
		r.logger.Error("Error iterating itinerary rows", zap.Error(err))
		return nil, fmt.Errorf("error iterating itinerary rows: %w", err)
	}
	return out, nil
}

func (r *RepositoryImpl) Update(ctx context.Context, rec Record) (Record, error) {
	days, err := json.Marshal(rec.Itinerary.Days)
	if err != nil {
		return Record{}, fmt.Errorf("failed to encode itinerary days: %w", err)
	}

	query, args, err := r.psql.Update(itinerariesTable).
		Set("title", rec.Itinerary.Title).
		Set("days", days).
		Set("version", sq.Expr("version + 1")).
		Set("updated_at", rec.UpdatedAt).
		Where(sq.Eq{"id": rec.ID, "version": rec.Version}).
		Suffix("RETURNING version").
		ToSql()
	if err != nil {
		return Record{}, fmt.Errorf("failed to build update: %w", err)
	}

	defer r.observe(ctx, "update", time.Now(), &err)
	var version int
	if err = r.db.QueryRow(ctx, query, args...).Scan(&version); err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			r.logger.Error("Failed to update itinerary", zap.String("id", rec.ID.String()), zap.Error(err))
			return Record{}, fmt.Errorf("failed to update itinerary: %w", err)
		}
		err = nil
		if _, getErr := r.Get(ctx, rec.ID); getErr != nil {
			return Record{}, getErr
		}
		return Record{}, fmt.Errorf("itinerary %s at version %d: %w", rec.ID, rec.Version, ErrVersionConflict)
	}

	rec.Version = version
	return rec, nil
}

func scanRecord(row pgx.Row) (Record, error) {
	var (
		rec  Record
		days []byte
	)
	if err := row.Scan(&rec.ID, &rec.OwnerID, &rec.Itinerary.Title, &days, &rec.Version, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return Record{}, err
	}
	if err := json.Unmarshal(days, &rec.Itinerary.Days); err != nil {
		return Record{}, fmt.Errorf("failed to decode itinerary days: %w", err)
	}
	return rec, nil
}

func (r *RepositoryImpl) observe(ctx context.Context, op string, start time.Time, errp *error) {
	m := metrics.Get()
	attrs := metric.WithAttributes(attribute.String("operation", op), attribute.String("table", itinerariesTable))
	m.DBQueryDurationSeconds.Record(ctx, time.Since(start).Seconds(), attrs)
	if errp != nil && *errp != nil {
		m.DBQueryErrorsTotal.Add(ctx, 1, attrs)
	}
}
