package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/iliyamo/stadium-seat-reservation/internal/model"
	"github.com/iliyamo/stadium-seat-reservation/internal/repository"
)

// Layouts of the derived match view.
const (
	MatchDateLayout = "02 Jan 2006"
	MatchTimeLayout = "15 : 04"
)

// MatchInfo is the read view returned after scheduling a match.
type MatchInfo struct {
	Stadium   string `json:"stadium"`
	HostTeam  string `json:"host_team"`
	GuestTeam string `json:"guest_team"`
	Date      string `json:"date"`
	Time      string `json:"time"`
}

// NewMatchInfo derives the read view of a match.
func NewMatchInfo(d model.MatchDetail) MatchInfo {
	return MatchInfo{
		Stadium:   d.StadiumName,
		HostTeam:  d.HostTeamName,
		GuestTeam: d.GuestTeamName,
		Date:      d.Datetime.Format(MatchDateLayout),
		Time:      d.Datetime.Format(MatchTimeLayout),
	}
}

// MatchScheduler owns matches.
type MatchScheduler struct {
	Matches  repository.MatchRepo
	Stadiums repository.StadiumRepo
	Teams    repository.TeamRepo
}

// NewMatchScheduler wires a MatchScheduler to its repositories.
func NewMatchScheduler(matches repository.MatchRepo, stadiums repository.StadiumRepo, teams repository.TeamRepo) *MatchScheduler {
	return &MatchScheduler{Matches: matches, Stadiums: stadiums, Teams: teams}
}

// CreateMatch schedules a fixture.  Two teams can't play themselves and
// a stadium hosts one match per datetime.
func (s *MatchScheduler) CreateMatch(ctx context.Context, actor Actor, in MatchInput) (*model.MatchDetail, error) {
	if err := actor.Require(Admin); err != nil {
		return nil, err
	}
	in, err := ValidateMatch(in)
	if err != nil {
		return nil, err
	}

	var errs ValidationErrors
	stadium, err := s.Stadiums.GetByID(ctx, in.StadiumID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("load stadium: %w", err)
		}
		errs = append(errs, invalidPK("stadium", in.StadiumID))
	}
	host, err := s.Teams.GetByID(ctx, in.HostTeamID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("load host team: %w", err)
		}
		errs = append(errs, invalidPK("host_team", in.HostTeamID))
	}
	guest, err := s.Teams.GetByID(ctx, in.GuestTeamID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("load guest team: %w", err)
		}
		errs = append(errs, invalidPK("guest_team", in.GuestTeamID))
	}
	if err := errs.orNil(); err != nil {
		return nil, err
	}

	exists, err := s.Matches.ExistsFixture(ctx, in.StadiumID, in.Datetime)
	if err != nil {
		return nil, fmt.Errorf("check fixture: %w", err)
	}
	if exists {
		return nil, fixtureTaken()
	}
	m := model.Match{
		StadiumID:   in.StadiumID,
		HostTeamID:  in.HostTeamID,
		GuestTeamID: in.GuestTeamID,
		Datetime:    in.Datetime,
	}
	if err := s.Matches.Create(ctx, &m); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fixtureTaken()
		}
		return nil, fmt.Errorf("create match: %w", err)
	}
	return &model.MatchDetail{
		Match:         m,
		StadiumName:   stadium.Name,
		HostTeamName:  host.Name,
		GuestTeamName: guest.Name,
	}, nil
}

// GetMatch loads a match with its stadium and team names.
func (s *MatchScheduler) GetMatch(ctx context.Context, id uint64) (*model.MatchDetail, error) {
	return loadMatch(ctx, s.Matches, id)
}

func loadMatch(ctx context.Context, matches repository.MatchRepo, id uint64) (*model.MatchDetail, error) {
	d, err := matches.GetDetail(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Entity: "match", ID: id}
		}
		return nil, fmt.Errorf("load match: %w", err)
	}
	return d, nil
}

func fixtureTaken() *ValidationError {
	return invalid(CodeDuplicateFixture, NonFieldErrors, "Match with this stadium and datetime already exists.")
}

func invalidPK(field string, id uint64) *ValidationError {
	return invalid(CodeInvalid, field, fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id))
}
