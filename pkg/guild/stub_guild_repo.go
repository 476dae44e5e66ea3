package guild

import "context"

type StubRepo struct {
	Guilds map[string]Guild
}

func NewStubRepo() *StubRepo {
	return &StubRepo{Guilds: map[string]Guild{}}
}

func (s *StubRepo) FindOrCreate(ctx context.Context, id string) (Guild, error) {
	if g, ok := s.Guilds[id]; ok {
		return g, nil
	}
	g := Guild{ID: id}
	s.Guilds[id] = g
	return g, nil
}

func (s *StubRepo) SetUTCOffset(ctx context.Context, id string, offset int) error {
	g := s.Guilds[id]
	g.ID = id
	g.UTCOffset = offset
	s.Guilds[id] = g
	return nil
}
