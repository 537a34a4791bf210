package logbook

import (
	"context"
	"errors"
	"fmt"

	"climblog/internal/db"
	"climblog/internal/metrics"
	"climblog/internal/stream"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound     = errors.New("log not found")
	ErrUnknownRoute = errors.New("unknown route")
)

const pgForeignKeyViolation = "23503"

// Notifier receives an event after every successful write.
type Notifier interface {
	Notify(userID string, ev stream.Event)
}

type Service struct {
	db     db.Querier
	notify Notifier
}

func NewService(q db.Querier, notifier Notifier) *Service {
	return &Service{db: q, notify: notifier}
}

func (s *Service) Create(ctx context.Context, userID string, in Input) (Log, error) {
	l := Log{
		ID:        uuid.NewString(),
		UserID:    userID,
		RouteID:   in.RouteID,
		Date:      in.Date,
		Notes:     in.Notes,
		Rating:    in.Rating,
		Completed: in.Completed,
		Photo:     in.Photo,
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO user_logs (id, user_id, route_id, date, notes, rating, completed, photo)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at
	`, l.ID, l.UserID, l.RouteID, l.Date, l.Notes, l.Rating, l.Completed, l.Photo)
	if err := row.Scan(&l.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return Log{}, fmt.Errorf("%w: %d", ErrUnknownRoute, in.RouteID)
		}
		return Log{}, err
	}
	s.publish(userID, stream.LogCreated, l.ID)
	return l, nil
}

// Update rewrites the date, notes, rating and completed flag of one of the
// user's logs. The route and photo are left alone.
func (s *Service) Update(ctx context.Context, userID, id string, in Input) (Log, error) {
	l := Log{
		ID:        id,
		UserID:    userID,
		Date:      in.Date,
		Notes:     in.Notes,
		Rating:    in.Rating,
		Completed: in.Completed,
	}
	row := s.db.QueryRow(ctx, `
		UPDATE user_logs
		SET date=$3, notes=$4, rating=$5, completed=$6
		WHERE id=$1 AND user_id=$2
		RETURNING route_id, photo, created_at
	`, id, userID, l.Date, l.Notes, l.Rating, l.Completed)
	if err := row.Scan(&l.RouteID, &l.Photo, &l.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Log{}, ErrNotFound
		}
		return Log{}, err
	}
	s.publish(userID, stream.LogUpdated, id)
	return l, nil
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM user_logs WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	s.publish(userID, stream.LogDeleted, id)
	return nil
}

// SetPhoto records filename on the log. The file itself is not checked.
func (s *Service) SetPhoto(ctx context.Context, userID, id, filename string) error {
	tag, err := s.db.Exec(ctx, `UPDATE user_logs SET photo=$3 WHERE id=$1 AND user_id=$2`, id, userID, filename)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	s.publish(userID, stream.LogPhoto, id)
	return nil
}

// ListForUser returns the user's logs with their routes, oldest first.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]Entry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT l.id, l.user_id, l.route_id, l.date, l.notes, l.rating, l.completed, l.photo, l.created_at,
		       r.name, r.v_grade, r.state, r.area, r.latitude, r.longitude, r.url
		FROM user_logs l
		JOIN routes r ON r.id = l.route_id
		WHERE l.user_id=$1
		ORDER BY l.date, l.created_at, l.id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.UserID, &e.RouteID, &e.Date, &e.Notes, &e.Rating, &e.Completed, &e.Photo, &e.CreatedAt,
			&e.Route.Name, &e.Route.Grade, &e.Route.State, &e.Route.Area, &e.Route.Latitude, &e.Route.Longitude, &e.Route.URL); err != nil {
			return nil, err
		}
		e.Route.ID = e.RouteID
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Service) publish(userID, kind, id string) {
	metrics.RecordLogEvent(kind)
	if s.notify == nil {
		return
	}
	s.notify.Notify(userID, stream.Event{Type: kind, ReviewID: id})
}
