package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/iliyamo/stadium-seat-reservation/internal/model"
	"github.com/iliyamo/stadium-seat-reservation/internal/repository"
)

// TeamRegistry owns teams.
type TeamRegistry struct {
	Teams repository.TeamRepo
}

// NewTeamRegistry wires a TeamRegistry to its repository.
func NewTeamRegistry(teams repository.TeamRepo) *TeamRegistry {
	return &TeamRegistry{Teams: teams}
}

// CreateTeam registers a team with a unique name.
func (r *TeamRegistry) CreateTeam(ctx context.Context, actor Actor, in TeamInput) (*model.Team, error) {
	if err := actor.Require(Admin); err != nil {
		return nil, err
	}
	in, err := ValidateTeam(in)
	if err != nil {
		return nil, err
	}
	taken, err := r.Teams.ExistsByName(ctx, in.Name)
	if err != nil {
		return nil, fmt.Errorf("check team name: %w", err)
	}
	if taken {
		return nil, teamNameTaken()
	}
	t := &model.Team{Name: in.Name}
	if err := r.Teams.Create(ctx, t); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, teamNameTaken()
		}
		return nil, fmt.Errorf("create team: %w", err)
	}
	return t, nil
}

// ListTeams returns every team ordered by id.
func (r *TeamRegistry) ListTeams(ctx context.Context) ([]model.Team, error) {
	return r.Teams.List(ctx)
}

func teamNameTaken() *ValidationError {
	return invalid(CodeDuplicateName, "name", "team with this name already exists.")
}
