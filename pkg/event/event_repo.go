package event

import (
	"context"
	"errors"
	"fmt"

	"github.com/gatherbot/gatherbot/internal/fault"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

type Repo interface {
	// Create inserts the event. A duplicate name within the guild returns a
	// fault.ErrConflict-wrapped error and creates nothing.
	Create(ctx context.Context, e Event) (Event, error)
	// FindByID loads the event with its participants, or (nil, nil) when it
	// no longer exists.
	FindByID(ctx context.Context, id int) (*Event, error)
	FindByName(ctx context.Context, guildID, name string) (*Event, error)
	// FindUnexpired lists all unexpired events, participants not loaded.
	FindUnexpired(ctx context.Context) ([]Event, error)
	Delete(ctx context.Context, guildID, name string) error

	SetExpired(ctx context.Context, id int) error
	SetRole(ctx context.Context, id int, roleID string) error
	ClearRole(ctx context.Context, id int) error

	SetParticipant(ctx context.Context, eventID int, userID string, d Decision) error
	RemoveParticipant(ctx context.Context, eventID int, userID string) error

	StorePost(ctx context.Context, p EventPost) error
	// FindPostByMessage returns the linking row, or (nil, nil) when the
	// message is not an event post.
	FindPostByMessage(ctx context.Context, messageID string) (*EventPost, error)
	FindPostByEvent(ctx context.Context, eventID int) (*EventPost, error)
}

type RepoImpl struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *RepoImpl {
	return &RepoImpl{db: db}
}

const uniqueViolation = "23505"

func (r *RepoImpl) Create(ctx context.Context, e Event) (Event, error) {
	query := `INSERT INTO event (guild_id, name, description, date, expired)
				VALUES ($1, $2, $3, $4, false)
				RETURNING id, created_at`
	err := r.db.QueryRow(ctx, query, e.GuildID, e.Name, e.Description, e.Date).
		Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Event{}, fault.Conflict("event %q already scheduled in guild %s", e.Name, e.GuildID)
		}
		log.Errorf("failed to create event %q: %v", e.Name, err)
		return Event{}, err
	}
	e.Expired = false
	e.Participants = nil
	return e, nil
}

const eventColumns = `id, guild_id, name, description, date, expired, role_id, created_at`

func (r *RepoImpl) FindByID(ctx context.Context, id int) (*Event, error) {
	query := `SELECT ` + eventColumns + ` FROM event WHERE id = $1`
	e, err := r.scanEvent(r.db.QueryRow(ctx, query, id))
	if err != nil || e == nil {
		return e, err
	}
	if e.Participants, err = r.loadParticipants(ctx, e.ID); err != nil {
		return nil, err
	}
	return e, nil
}

func (r *RepoImpl) FindByName(ctx context.Context, guildID, name string) (*Event, error) {
	query := `SELECT ` + eventColumns + ` FROM event WHERE guild_id = $1 AND name = $2`
	e, err := r.scanEvent(r.db.QueryRow(ctx, query, guildID, name))
	if err != nil || e == nil {
		return e, err
	}
	if e.Participants, err = r.loadParticipants(ctx, e.ID); err != nil {
		return nil, err
	}
	return e, nil
}

func (r *RepoImpl) FindUnexpired(ctx context.Context) ([]Event, error) {
	query := `SELECT ` + eventColumns + ` FROM event WHERE expired = false ORDER BY date`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		log.Errorf("failed to list unexpired events: %v", err)
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		e, err := r.scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

func (r *RepoImpl) Delete(ctx context.Context, guildID, name string) error {
	query := `DELETE FROM event WHERE guild_id = $1 AND name = $2`
	if _, err := r.db.Exec(ctx, query, guildID, name); err != nil {
		log.Errorf("failed to delete event %q: %v", name, err)
		return err
	}
	return nil
}

func (r *RepoImpl) SetExpired(ctx context.Context, id int) error {
	query := `UPDATE event SET expired = true WHERE id = $1`
	if _, err := r.db.Exec(ctx, query, id); err != nil {
		log.Errorf("failed to expire event %d: %v", id, err)
		return err
	}
	return nil
}

func (r *RepoImpl) SetRole(ctx context.Context, id int, roleID string) error {
	query := `UPDATE event SET role_id = $1 WHERE id = $2`
	if _, err := r.db.Exec(ctx, query, roleID, id); err != nil {
		log.Errorf("failed to set role for event %d: %v", id, err)
		return err
	}
	return nil
}

func (r *RepoImpl) ClearRole(ctx context.Context, id int) error {
	query := `UPDATE event SET role_id = NULL WHERE id = $1`
	if _, err := r.db.Exec(ctx, query, id); err != nil {
		log.Errorf("failed to clear role for event %d: %v", id, err)
		return err
	}
	return nil
}

func (r *RepoImpl) SetParticipant(ctx context.Context, eventID int, userID string, d Decision) error {
	query := `INSERT INTO participant (event_id, user_id, decision) VALUES ($1, $2, $3)
				ON CONFLICT (event_id, user_id) DO UPDATE SET decision = EXCLUDED.decision`
	if _, err := r.db.Exec(ctx, query, eventID, userID, string(d)); err != nil {
		log.Errorf("failed to set participant %s on event %d: %v", userID, eventID, err)
		return err
	}
	return nil
}

func (r *RepoImpl) RemoveParticipant(ctx context.Context, eventID int, userID string) error {
	query := `DELETE FROM participant WHERE event_id = $1 AND user_id = $2`
	if _, err := r.db.Exec(ctx, query, eventID, userID); err != nil {
		log.Errorf("failed to remove participant %s from event %d: %v", userID, eventID, err)
		return err
	}
	return nil
}

func (r *RepoImpl) StorePost(ctx context.Context, p EventPost) error {
	query := `INSERT INTO event_post (message_id, channel_id, event_id) VALUES ($1, $2, $3)`
	if _, err := r.db.Exec(ctx, query, p.MessageID, p.ChannelID, p.EventID); err != nil {
		log.Errorf("failed to store event post for event %d: %v", p.EventID, err)
		return err
	}
	return nil
}

func (r *RepoImpl) FindPostByMessage(ctx context.Context, messageID string) (*EventPost, error) {
	query := `SELECT message_id, channel_id, event_id FROM event_post WHERE message_id = $1`
	return r.scanPost(r.db.QueryRow(ctx, query, messageID))
}

func (r *RepoImpl) FindPostByEvent(ctx context.Context, eventID int) (*EventPost, error) {
	query := `SELECT message_id, channel_id, event_id FROM event_post WHERE event_id = $1`
	return r.scanPost(r.db.QueryRow(ctx, query, eventID))
}

func (r *RepoImpl) loadParticipants(ctx context.Context, eventID int) ([]Participant, error) {
	query := `SELECT user_id, decision FROM participant WHERE event_id = $1 ORDER BY user_id`
	rows, err := r.db.Query(ctx, query, eventID)
	if err != nil {
		log.Errorf("failed to load participants for event %d: %v", eventID, err)
		return nil, err
	}
	defer rows.Close()

	var participants []Participant
	for rows.Next() {
		var p Participant
		var decision string
		if err := rows.Scan(&p.UserID, &decision); err != nil {
			return nil, err
		}
		p.Decision = Decision(decision)
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

func (r *RepoImpl) scanEvent(row pgx.Row) (*Event, error) {
	var e Event
	var roleID *string
	err := row.Scan(&e.ID, &e.GuildID, &e.Name, &e.Description, &e.Date,
		&e.Expired, &roleID, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		err = fmt.Errorf("failed to scan event: %w", err)
		log.Error(err)
		return nil, err
	}
	if roleID != nil {
		e.RoleID = *roleID
	}
	return &e, nil
}

func (r *RepoImpl) scanPost(row pgx.Row) (*EventPost, error) {
	var p EventPost
	err := row.Scan(&p.MessageID, &p.ChannelID, &p.EventID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		err = fmt.Errorf("failed to scan event post: %w", err)
		log.Error(err)
		return nil, err
	}
	return &p, nil
}
