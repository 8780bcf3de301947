// Package memory is an in-process implementation of the repository
// contracts.  A single mutex guards all tables; Atomic holds it for the
// whole transaction and restores a snapshot of the seat info table when
// the callback fails.  Names, seat codes and emails compare without
// regard to case, as the MySQL columns do.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/stadium-seat-reservation/internal/model"
	"github.com/iliyamo/stadium-seat-reservation/internal/repository"
)

// Store holds every table in maps keyed by id.
type Store struct {
	mu sync.RWMutex

	stadiums  map[uint64]model.Stadium
	seats     map[uint64]model.Seat
	teams     map[uint64]model.Team
	matches   map[uint64]model.Match
	seatInfos map[uint64]model.MatchSeatInfo
	users     map[uint64]model.User
	tokens    map[string]model.RefreshToken

	seq map[string]uint64 // per-table auto increment
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		stadiums:  map[uint64]model.Stadium{},
		seats:     map[uint64]model.Seat{},
		teams:     map[uint64]model.Team{},
		matches:   map[uint64]model.Match{},
		seatInfos: map[uint64]model.MatchSeatInfo{},
		users:     map[uint64]model.User{},
		tokens:    map[string]model.RefreshToken{},
		seq:       map[string]uint64{},
	}
}

func (s *Store) id(table string) uint64 {
	s.seq[table]++
	return s.seq[table]
}

// Stadiums returns the StadiumRepo view of the store.
func (s *Store) Stadiums() repository.StadiumRepo { return stadiumRepo{s} }

// Seats returns the SeatRepo view of the store.
func (s *Store) Seats() repository.SeatRepo { return seatRepo{s} }

// Teams returns the TeamRepo view of the store.
func (s *Store) Teams() repository.TeamRepo { return teamRepo{s} }

// Matches returns the MatchRepo view of the store.
func (s *Store) Matches() repository.MatchRepo { return matchRepo{s} }

// SeatInfos returns the SeatInfoRepo view of the store.
func (s *Store) SeatInfos() repository.SeatInfoRepo { return seatInfoRepo{s} }

// Users returns the UserRepo view of the store.
func (s *Store) Users() repository.UserRepo { return userRepo{s} }

// Tokens returns the TokenRepo view of the store.
func (s *Store) Tokens() repository.TokenRepo { return tokenRepo{s} }

// SeatInfo returns a copy of the row for (matchID, seatID).  It exists
// for tests that inspect state directly.
func (s *Store) SeatInfo(matchID, seatID uint64) (model.MatchSeatInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, info := range s.seatInfos {
		if info.MatchID == matchID && info.SeatID == seatID {
			return info, true
		}
	}
	return model.MatchSeatInfo{}, false
}

// CountSeatInfos returns the number of seat info rows of a match.
func (s *Store) CountSeatInfos(matchID uint64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, info := range s.seatInfos {
		if info.MatchID == matchID {
			n++
		}
	}
	return n
}

// ---- stadiums ----

type stadiumRepo struct{ s *Store }

func (r stadiumRepo) Create(_ context.Context, st *model.Stadium) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.stadiums {
		if strings.EqualFold(other.Name, st.Name) {
			return &repository.DuplicateError{Key: repository.KeyStadiumName}
		}
		if other.Slug == st.Slug {
			return &repository.DuplicateError{Key: repository.KeyStadiumSlug}
		}
	}
	st.ID = r.s.id("stadiums")
	st.CreatedAt = time.Now().UTC()
	r.s.stadiums[st.ID] = *st
	return nil
}

func (r stadiumRepo) GetByID(_ context.Context, id uint64) (*model.Stadium, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	st, ok := r.s.stadiums[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &st, nil
}

func (r stadiumRepo) ExistsByName(_ context.Context, name string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, st := range r.s.stadiums {
		if strings.EqualFold(st.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (r stadiumRepo) ExistsBySlug(_ context.Context, slug string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, st := range r.s.stadiums {
		if st.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (r stadiumRepo) List(_ context.Context) ([]model.Stadium, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]model.Stadium, 0, len(r.s.stadiums))
	for _, st := range r.s.stadiums {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ---- seats ----

type seatRepo struct{ s *Store }

func (r seatRepo) Create(_ context.Context, seat *model.Seat) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.stadiums[seat.StadiumID]; !ok {
		return repository.ErrNotFound
	}
	for _, other := range r.s.seats {
		if other.StadiumID == seat.StadiumID && strings.EqualFold(other.Code, seat.Code) {
			return &repository.DuplicateError{Key: repository.KeySeatCode}
		}
	}
	seat.ID = r.s.id("seats")
	r.s.seats[seat.ID] = *seat
	return nil
}

func (r seatRepo) GetByID(_ context.Context, id uint64) (*model.Seat, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	seat, ok := r.s.seats[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &seat, nil
}

func (r seatRepo) ExistsByCode(_ context.Context, stadiumID uint64, code string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, seat := range r.s.seats {
		if seat.StadiumID == stadiumID && strings.EqualFold(seat.Code, code) {
			return true, nil
		}
	}
	return false, nil
}

func (r seatRepo) ListByStadium(_ context.Context, stadiumID uint64) ([]model.Seat, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []model.Seat
	for _, seat := range r.s.seats {
		if seat.StadiumID == stadiumID {
			out = append(out, seat)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// ---- teams ----

type teamRepo struct{ s *Store }

func (r teamRepo) Create(_ context.Context, t *model.Team) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.teams {
		if strings.EqualFold(other.Name, t.Name) {
			return &repository.DuplicateError{Key: repository.KeyTeamName}
		}
	}
	t.ID = r.s.id("teams")
	r.s.teams[t.ID] = *t
	return nil
}

func (r teamRepo) GetByID(_ context.Context, id uint64) (*model.Team, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.teams[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (r teamRepo) ExistsByName(_ context.Context, name string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, t := range r.s.teams {
		if strings.EqualFold(t.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (r teamRepo) List(_ context.Context) ([]model.Team, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]model.Team, 0, len(r.s.teams))
	for _, t := range r.s.teams {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ---- matches ----

type matchRepo struct{ s *Store }

func (r matchRepo) Create(_ context.Context, m *model.Match) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.matches {
		if other.StadiumID == m.StadiumID && other.Datetime.Equal(m.Datetime) {
			return &repository.DuplicateError{Key: repository.KeyMatchFixture}
		}
	}
	m.ID = r.s.id("matches")
	r.s.matches[m.ID] = *m
	return nil
}

func (r matchRepo) GetDetail(_ context.Context, id uint64) (*model.MatchDetail, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	m, ok := r.s.matches[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &model.MatchDetail{
		Match:         m,
		StadiumName:   r.s.stadiums[m.StadiumID].Name,
		HostTeamName:  r.s.teams[m.HostTeamID].Name,
		GuestTeamName: r.s.teams[m.GuestTeamID].Name,
	}, nil
}

func (r matchRepo) ExistsFixture(_ context.Context, stadiumID uint64, at time.Time) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, m := range r.s.matches {
		if m.StadiumID == stadiumID && m.Datetime.Equal(at) {
			return true, nil
		}
	}
	return false, nil
}

// ---- users and tokens ----

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u.Email = strings.TrimSpace(u.Email)
	for _, other := range r.s.users {
		if strings.EqualFold(other.Email, u.Email) {
			return &repository.DuplicateError{Key: repository.KeyUserEmail}
		}
	}
	u.ID = r.s.id("users")
	u.DateJoined = time.Now().UTC()
	r.s.users[u.ID] = *u
	return nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	email = strings.TrimSpace(email)
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r userRepo) GetByID(_ context.Context, id uint64) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

type tokenRepo struct{ s *Store }

func (r tokenRepo) StoreRefresh(_ context.Context, userID uint64, tokenHash string, exp time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tokens[tokenHash]; ok {
		return &repository.DuplicateError{Key: repository.KeyRefreshToken}
	}
	r.s.tokens[tokenHash] = model.RefreshToken{ID: r.s.id("refresh_tokens"), UserID: userID, TokenHash: tokenHash, ExpiresAt: exp}
	return nil
}

func (r tokenRepo) ValidateRefresh(_ context.Context, tokenHash string) (uint64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.tokens[tokenHash]
	if !ok || t.RevokedAt != nil || time.Now().UTC().After(t.ExpiresAt) {
		return 0, repository.ErrNotFound
	}
	return t.UserID, nil
}

func (r tokenRepo) RevokeByHash(_ context.Context, tokenHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tokens[tokenHash]
	if !ok || t.RevokedAt != nil {
		return nil
	}
	now := time.Now().UTC()
	t.RevokedAt = &now
	r.s.tokens[tokenHash] = t
	return nil
}

// Repos returns every repository view of the store.
func (s *Store) Repos() repository.Repos {
	return repository.Repos{
		Stadiums:  s.Stadiums(),
		Seats:     s.Seats(),
		Teams:     s.Teams(),
		Matches:   s.Matches(),
		SeatInfos: s.SeatInfos(),
		Users:     s.Users(),
		Tokens:    s.Tokens(),
	}
}
