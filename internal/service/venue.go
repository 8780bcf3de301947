package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/iliyamo/stadium-seat-reservation/internal/model"
	"github.com/iliyamo/stadium-seat-reservation/internal/repository"
)

// ListingInvalidator is told when a cached public listing goes stale.
type ListingInvalidator interface {
	StadiumsChanged(ctx context.Context)
	SeatsChanged(ctx context.Context, stadiumID uint64)
}

// VenueCatalog owns stadiums and their seats.
type VenueCatalog struct {
	Stadiums repository.StadiumRepo
	Seats    repository.SeatRepo
	Listings ListingInvalidator // optional
}

// NewVenueCatalog wires a VenueCatalog to its repositories.
func NewVenueCatalog(stadiums repository.StadiumRepo, seats repository.SeatRepo) *VenueCatalog {
	return &VenueCatalog{Stadiums: stadiums, Seats: seats}
}

// CreateStadium registers a stadium.  The slug is derived from the name
// here rather than by the store.
func (v *VenueCatalog) CreateStadium(ctx context.Context, actor Actor, in StadiumInput) (*model.Stadium, error) {
	if err := actor.Require(Admin); err != nil {
		return nil, err
	}
	in, err := ValidateStadium(in)
	if err != nil {
		return nil, err
	}
	taken, err := v.Stadiums.ExistsByName(ctx, in.Name)
	if err != nil {
		return nil, fmt.Errorf("check stadium name: %w", err)
	}
	if taken {
		return nil, invalid(CodeDuplicateName, "name", "stadium with this name already exists.")
	}
	slug := Slugify(in.Name)
	if slug == "" {
		return nil, invalid(CodeInvalid, "name", "Name must contain at least one letter or digit.")
	}
	taken, err = v.Stadiums.ExistsBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("check stadium slug: %w", err)
	}
	if taken {
		return nil, invalid(CodeDuplicateSlug, "name", "stadium with this slug already exists.")
	}
	s := &model.Stadium{Name: in.Name, Slug: slug}
	if err := v.Stadiums.Create(ctx, s); err != nil {
		if key, ok := repository.DuplicateKey(err); ok {
			if key == repository.KeyStadiumSlug {
				return nil, invalid(CodeDuplicateSlug, "name", "stadium with this slug already exists.")
			}
			return nil, invalid(CodeDuplicateName, "name", "stadium with this name already exists.")
		}
		return nil, fmt.Errorf("create stadium: %w", err)
	}
	if v.Listings != nil {
		v.Listings.StadiumsChanged(ctx)
	}
	return s, nil
}

// GetStadium loads a stadium by id.
func (v *VenueCatalog) GetStadium(ctx context.Context, id uint64) (*model.Stadium, error) {
	s, err := v.Stadiums.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Entity: "stadium", ID: id}
		}
		return nil, fmt.Errorf("load stadium: %w", err)
	}
	return s, nil
}

// ListStadiums returns every stadium ordered by id.
func (v *VenueCatalog) ListStadiums(ctx context.Context) ([]model.Stadium, error) {
	return v.Stadiums.List(ctx)
}

// CreateSeat adds a seat to a stadium.
func (v *VenueCatalog) CreateSeat(ctx context.Context, actor Actor, in SeatInput) (*model.Seat, error) {
	if err := actor.Require(Admin); err != nil {
		return nil, err
	}
	in, err := ValidateSeat(in)
	if err != nil {
		return nil, err
	}
	if _, err := v.GetStadium(ctx, in.StadiumID); err != nil {
		return nil, err
	}
	taken, err := v.Seats.ExistsByCode(ctx, in.StadiumID, in.Code)
	if err != nil {
		return nil, fmt.Errorf("check seat code: %w", err)
	}
	if taken {
		return nil, seatCodeTaken()
	}
	seat := &model.Seat{StadiumID: in.StadiumID, Code: in.Code}
	if err := v.Seats.Create(ctx, seat); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, seatCodeTaken()
		}
		return nil, fmt.Errorf("create seat: %w", err)
	}
	if v.Listings != nil {
		v.Listings.SeatsChanged(ctx, seat.StadiumID)
	}
	return seat, nil
}

func seatCodeTaken() *ValidationError {
	return invalid(CodeDuplicateSeatCode, NonFieldErrors, "Seat with this Stadium and Code already exists.")
}

// ListSeats returns the seats of a stadium.
func (v *VenueCatalog) ListSeats(ctx context.Context, stadiumID uint64) ([]model.Seat, error) {
	if _, err := v.GetStadium(ctx, stadiumID); err != nil {
		return nil, err
	}
	return v.Seats.ListByStadium(ctx, stadiumID)
}

// SeatBelongsToStadium reports whether seat is one of stadium's seats.
func SeatBelongsToStadium(stadium model.Stadium, seat model.Seat) bool {
	return stadium.ID != 0 && seat.StadiumID == stadium.ID
}
