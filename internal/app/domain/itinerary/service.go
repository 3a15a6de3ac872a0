package itinerary

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-itinerary/internal/app/observability/metrics"
	"github.com/FACorreiaa/loci-itinerary/internal/pkg/cache"
)

const defaultListLimit = 50

// Actor identifies who is calling and which language they read.
type Actor struct {
	UserID   *uuid.UUID
	Language string
}

// Result is a stored itinerary after an edit together with the confirmation
// message for the user.
type Result struct {
	Record  Record `json:"record"`
	Message string `json:"message,omitempty"`
}

// DragView is what a drag endpoint hands back to the UI.
type DragView struct {
	SessionID uuid.UUID `json:"session_id"`
	State     string    `json:"state"`
	Target    *Slot     `json:"target,omitempty"`
	Itinerary Itinerary `json:"itinerary"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DragOutcome reports how a drag session ended.
type DragOutcome struct {
	Committed bool    `json:"committed"`
	Result    *Result `json:"result,omitempty"`
}

// DragEntry is a drag session parked between HTTP requests. UserID is who
// is dragging; OwnerID and CreatedAt are carried over from the stored record.
type DragEntry struct {
	ItineraryID uuid.UUID
	Version     int
	OwnerID     *uuid.UUID
	CreatedAt   time.Time
	UserID      *uuid.UUID
	Session     DragSession
}

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	Create(ctx context.Context, actor Actor, it Itinerary) (*Record, error)
	Get(ctx context.Context, id uuid.UUID) (*Record, error)
	List(ctx context.Context, actor Actor, limit int) ([]Record, error)

	DeleteStop(ctx context.Context, actor Actor, id uuid.UUID, version, day, stop int) (*Result, error)
	MoveStop(ctx context.Context, actor Actor, id uuid.UUID, version int, from, to Slot) (*Result, error)
	OptimizeRoute(ctx context.Context, actor Actor, id uuid.UUID, version, day int) (*Result, error)
	AddStop(ctx context.Context, actor Actor, id uuid.UUID, version, day, index int, s Stop) (*Result, error)
	UpdateStop(ctx context.Context, actor Actor, id uuid.UUID, version, day, stop int, s Stop) (*Result, error)

	StartDrag(ctx context.Context, actor Actor, id uuid.UUID, from Slot) (*DragView, error)
	PreviewDrag(ctx context.Context, actor Actor, sessionID uuid.UUID, target *Slot) (*DragView, error)
	EndDrag(ctx context.Context, actor Actor, sessionID uuid.UUID, target *Slot) (*DragOutcome, error)

	Annotate(it Itinerary, authoritative bool) Itinerary
}

type ServiceImpl struct {
	logger    *zap.Logger
	repo      Repository
	sessions  *cache.Store[DragEntry]
	annotator Annotator
	optimizer Optimizer
	now       func() time.Time
}

// NewService creates a new instance of ServiceImpl
func NewService(repo Repository, sessions *cache.Store[DragEntry], annotator Annotator, optimizer Optimizer, logger *zap.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:    logger,
		repo:      repo,
		sessions:  sessions,
		annotator: annotator,
		optimizer: optimizer,
		now:       time.Now,
	}
}

func (s *ServiceImpl) Create(ctx context.Context, actor Actor, it Itinerary) (*Record, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "Create", trace.WithAttributes(
		attribute.Int("itinerary.days", len(it.Days)),
		attribute.Int("itinerary.stops", it.StopCount()),
	))
	defer span.End()

	now := s.now().UTC()
	rec := Record{
		ID:        uuid.New(),
		OwnerID:   actor.UserID,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
		Itinerary: s.annotator.Annotate(it),
	}
	l := s.logger.With(zap.String("method", "Create"), zap.String("itineraryID", rec.ID.String()))

	if err := s.repo.Create(ctx, rec); err != nil {
		l.Error("Failed to create itinerary", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create itinerary")
		return nil, fmt.Errorf("failed to create itinerary: %w", err)
	}

	s.count(ctx, "create")
	l.Info("Itinerary created", zap.Int("days", len(it.Days)))
	span.SetStatus(codes.Ok, "Itinerary created")
	return &rec, nil
}

func (s *ServiceImpl) Get(ctx context.Context, id uuid.UUID) (*Record, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "Get", trace.WithAttributes(
		attribute.String("itinerary.id", id.String()),
	))
	defer span.End()

	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to get itinerary")
		return nil, err
	}
	return &rec, nil
}

func (s *ServiceImpl) List(ctx context.Context, actor Actor, limit int) ([]Record, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "List")
	defer span.End()

	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}
	recs, err := s.repo.List(ctx, actor.UserID, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to list itineraries")
		return nil, err
	}
	return recs, nil
}

func (s *ServiceImpl) DeleteStop(ctx context.Context, actor Actor, id uuid.UUID, version, day, stop int) (*Result, error) {
	return s.mutate(ctx, actor, id, version, "DeleteStop", func(it Itinerary) (Itinerary, string, error) {
		if !it.hasStop(day, stop) {
			return it, "", ErrInvalidPosition
		}
		name := it.Days[day].Stops[stop].Name
		out := s.annotator.Reannotate(DeleteStop(it, day, stop))
		return out, AdjustmentMessage(actor.Language, ActionDelete, name), nil
	})
}

func (s *ServiceImpl) MoveStop(ctx context.Context, actor Actor, id uuid.UUID, version int, from, to Slot) (*Result, error) {
	return s.mutate(ctx, actor, id, version, "MoveStop", func(it Itinerary) (Itinerary, string, error) {
		if !it.hasStop(from.Day, from.Stop) || !it.hasDay(to.Day) {
			return it, "", ErrInvalidPosition
		}
		name := it.Days[from.Day].Stops[from.Stop].Name
		out := s.annotator.Reannotate(MoveStop(it, from.Day, from.Stop, to.Day, to.Stop))
		return out, AdjustmentMessage(actor.Language, ActionMove, name), nil
	})
}

func (s *ServiceImpl) OptimizeRoute(ctx context.Context, actor Actor, id uuid.UUID, version, day int) (*Result, error) {
	return s.mutate(ctx, actor, id, version, "OptimizeRoute", func(it Itinerary) (Itinerary, string, error) {
		if !it.hasDay(day) {
			return it, "", ErrInvalidPosition
		}
		stops := it.Days[day].Stops
		if len(stops) <= 2 {
			return it, AdjustmentMessage(actor.Language, ActionOptimize, firstStopName(stops)), nil
		}
		out := s.annotator.Reannotate(s.optimizer.OptimizeRoute(it, day))
		return out, AdjustmentMessage(actor.Language, ActionOptimize, stops[0].Name), nil
	})
}

func (s *ServiceImpl) AddStop(ctx context.Context, actor Actor, id uuid.UUID, version, day, index int, stop Stop) (*Result, error) {
	return s.mutate(ctx, actor, id, version, "AddStop", func(it Itinerary) (Itinerary, string, error) {
		if !it.hasDay(day) {
			return it, "", ErrInvalidPosition
		}
		out := s.annotator.Reannotate(AddStop(it, day, index, stop))
		return out, AdjustmentMessage(actor.Language, ActionAdd, stop.Name), nil
	})
}

// UpdateStop keeps the order, so times are only filled in: the edited stop's
// own times are recomputed unless the edit supplies them.
func (s *ServiceImpl) UpdateStop(ctx context.Context, actor Actor, id uuid.UUID, version, day, stop int, edited Stop) (*Result, error) {
	return s.mutate(ctx, actor, id, version, "UpdateStop", func(it Itinerary) (Itinerary, string, error) {
		if !it.hasStop(day, stop) {
			return it, "", ErrInvalidPosition
		}
		out := s.annotator.Annotate(UpdateStop(it, day, stop, edited))
		return out, AdjustmentMessage(actor.Language, ActionEdit, edited.Name), nil
	})
}

func (s *ServiceImpl) Annotate(it Itinerary, authoritative bool) Itinerary {
	if authoritative {
		return s.annotator.Reannotate(it)
	}
	return s.annotator.Annotate(it)
}

// mutate loads the itinerary, applies edit and stores the result under
// optimistic versioning. A zero version means "whatever is current".
func (s *ServiceImpl) mutate(ctx context.Context, actor Actor, id uuid.UUID, version int, op string,
	edit func(Itinerary) (Itinerary, string, error)) (*Result, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, op, trace.WithAttributes(
		attribute.String("itinerary.id", id.String()),
		attribute.Int("itinerary.version", version),
	))
	defer span.End()

	l := s.logger.With(zap.String("method", op), zap.String("itineraryID", id.String()))

	fail := func(err error, msg string) (*Result, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, msg)
		return nil, err
	}

	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		l.Warn("Failed to load itinerary", zap.Error(err))
		return fail(err, "Itinerary not loaded")
	}
	if err := authorize(actor, rec.OwnerID); err != nil {
		l.Warn("Rejected edit from non-owner")
		return fail(err, "Forbidden")
	}
	if version != 0 && version != rec.Version {
		return fail(fmt.Errorf("itinerary %s: have version %d, request was for %d: %w", id, rec.Version, version, ErrVersionConflict), "Stale version")
	}

	next, msg, err := edit(rec.Itinerary)
	if err != nil {
		return fail(err, "Edit rejected")
	}

	rec.Itinerary = next
	rec.UpdatedAt = s.now().UTC()
	saved, err := s.repo.Update(ctx, rec)
	if err != nil {
		l.Error("Failed to save itinerary", zap.Error(err))
		return fail(err, "Failed to save itinerary")
	}

	s.count(ctx, op)
	l.Info("Itinerary updated", zap.Int("version", saved.Version))
	span.SetStatus(codes.Ok, "Itinerary updated")
	return &Result{Record: saved, Message: msg}, nil
}

func (s *ServiceImpl) StartDrag(ctx context.Context, actor Actor, id uuid.UUID, from Slot) (*DragView, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "StartDrag", trace.WithAttributes(
		attribute.String("itinerary.id", id.String()),
		attribute.Int("drag.source.day", from.Day),
		attribute.Int("drag.source.stop", from.Stop),
	))
	defer span.End()

	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := authorize(actor, rec.OwnerID); err != nil {
		span.RecordError(err)
		return nil, err
	}

	session := s.annotator.StartDrag(rec.Itinerary, from.Day, from.Stop)
	if session.State() != DragDragging {
		span.RecordError(ErrInvalidPosition)
		return nil, ErrInvalidPosition
	}

	sessionID := uuid.New()
	s.sessions.Set(sessionID.String(), DragEntry{
		ItineraryID: rec.ID,
		Version:     rec.Version,
		OwnerID:     rec.OwnerID,
		CreatedAt:   rec.CreatedAt,
		UserID:      actor.UserID,
		Session:     session,
	})
	expiresAt, _ := s.sessions.Expiry(sessionID.String())
	s.logger.Debug("Drag started",
		zap.String("sessionID", sessionID.String()),
		zap.String("itineraryID", id.String()),
		zap.Int("day", from.Day),
		zap.Int("stop", from.Stop))

	return &DragView{
		SessionID: sessionID,
		State:     session.State().String(),
		Itinerary: session.Preview(),
		ExpiresAt: expiresAt,
	}, nil
}

func (s *ServiceImpl) PreviewDrag(ctx context.Context, actor Actor, sessionID uuid.UUID, target *Slot) (*DragView, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "PreviewDrag", trace.WithAttributes(
		attribute.String("drag.session", sessionID.String()),
	))
	defer span.End()

	if err := s.ownSession(actor, sessionID); err != nil {
		span.RecordError(err)
		return nil, err
	}

	var (
		view *DragView
		err  error
	)
	s.sessions.Update(sessionID.String(), func(entry DragEntry, found bool) (DragEntry, bool) {
		if !found {
			err = ErrSessionNotFound
			return entry, false
		}
		if target != nil && !entry.Session.CanDrop(*target) {
			err = ErrInvalidPosition
			return entry, true
		}
		var preview Itinerary
		entry.Session, preview = entry.Session.Move(target)
		view = &DragView{
			SessionID: sessionID,
			State:     entry.Session.State().String(),
			Target:    entry.Session.Target(),
			Itinerary: preview,
		}
		return entry, true
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	view.ExpiresAt, _ = s.sessions.Expiry(sessionID.String())
	metrics.Get().DragPreviewsTotal.Add(ctx, 1)
	return view, nil
}

func (s *ServiceImpl) EndDrag(ctx context.Context, actor Actor, sessionID uuid.UUID, target *Slot) (*DragOutcome, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "EndDrag", trace.WithAttributes(
		attribute.String("drag.session", sessionID.String()),
		attribute.Bool("drag.has_target", target != nil),
	))
	defer span.End()

	l := s.logger.With(zap.String("method", "EndDrag"), zap.String("sessionID", sessionID.String()))

	if err := s.ownSession(actor, sessionID); err != nil {
		span.RecordError(err)
		return nil, err
	}

	var (
		entry DragEntry
		err   error
	)
	s.sessions.Update(sessionID.String(), func(current DragEntry, found bool) (DragEntry, bool) {
		if !found {
			err = ErrSessionNotFound
			return current, false
		}
		// keep the session so the drop can be retried
		if target != nil && !current.Session.CanDrop(*target) {
			err = ErrInvalidPosition
			return current, true
		}
		entry = current
		return current, false
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	session := entry.Session
	source := session.Source()
	_, result, committed := session.End(target)
	if !committed {
		s.recordDragOutcome(ctx, "cancelled")
		l.Debug("Drag cancelled")
		return &DragOutcome{Committed: false}, nil
	}

	rec := Record{
		ID:        entry.ItineraryID,
		OwnerID:   entry.OwnerID,
		Version:   entry.Version,
		CreatedAt: entry.CreatedAt,
		UpdatedAt: s.now().UTC(),
		Itinerary: result,
	}
	saved, err := s.repo.Update(ctx, rec)
	if err != nil {
		l.Warn("Failed to commit drag", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to commit drag")
		s.recordDragOutcome(ctx, "failed")
		return nil, err
	}

	name := session.Original().Days[source.Day].Stops[source.Stop].Name
	s.recordDragOutcome(ctx, "committed")
	s.count(ctx, "MoveStop")
	l.Info("Drag committed", zap.Int("version", saved.Version))
	span.SetStatus(codes.Ok, "Drag committed")
	return &DragOutcome{
		Committed: true,
		Result:    &Result{Record: saved, Message: AdjustmentMessage(actor.Language, ActionMove, name)},
	}, nil
}

// ownSession checks the caller may drive the session without touching it, so
// a rejected caller cannot extend its TTL.
func (s *ServiceImpl) ownSession(actor Actor, sessionID uuid.UUID) error {
	entry, found := s.sessions.Get(sessionID.String())
	if !found {
		return ErrSessionNotFound
	}
	return authorize(actor, entry.UserID)
}

func (s *ServiceImpl) count(ctx context.Context, op string) {
	metrics.Get().ItineraryOpsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", op)))
}

func (s *ServiceImpl) recordDragOutcome(ctx context.Context, outcome string) {
	metrics.Get().DragSessionsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// authorize lets anyone edit an unowned itinerary; owned ones only by their owner.
func authorize(actor Actor, owner *uuid.UUID) error {
	if owner == nil {
		return nil
	}
	if actor.UserID == nil || *actor.UserID != *owner {
		return ErrForbidden
	}
	return nil
}

func firstStopName(stops []Stop) string {
	if len(stops) == 0 {
		return ""
	}
	return stops[0].Name
}
