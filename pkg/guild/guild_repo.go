package guild

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

type Repo interface {
	// FindOrCreate returns the guild row, inserting it with a zero offset
	// on first reference.
	FindOrCreate(ctx context.Context, id string) (Guild, error)
	SetUTCOffset(ctx context.Context, id string, offset int) error
}

type RepoImpl struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *RepoImpl {
	return &RepoImpl{db: db}
}

func (r *RepoImpl) FindOrCreate(ctx context.Context, id string) (Guild, error) {
	query := `INSERT INTO guild (id, utc_offset) VALUES ($1, 0)
				ON CONFLICT (id) DO UPDATE SET id = EXCLUDED.id
				RETURNING id, utc_offset`
	var g Guild
	err := r.db.QueryRow(ctx, query, id).Scan(&g.ID, &g.UTCOffset)
	if err != nil {
		log.Errorf("failed to find or create guild %s: %v", id, err)
		return Guild{}, err
	}
	return g, nil
}

func (r *RepoImpl) SetUTCOffset(ctx context.Context, id string, offset int) error {
	query := `UPDATE guild SET utc_offset = $1 WHERE id = $2`
	if _, err := r.db.Exec(ctx, query, offset, id); err != nil {
		log.Errorf("failed to set utc offset for guild %s: %v", id, err)
		return err
	}
	return nil
}
