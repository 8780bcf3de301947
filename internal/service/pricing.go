package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/iliyamo/stadium-seat-reservation/internal/model"
	"github.com/iliyamo/stadium-seat-reservation/internal/repository"
)

// SeatInfoView is the read view of a freshly priced seat.
type SeatInfoView struct {
	Match string `json:"match"`
	Seat  string `json:"seat"`
	Price uint64 `json:"price"`
}

// SeatPricing assigns prices to the seats of a match.
type SeatPricing struct {
	Matches   repository.MatchRepo
	Seats     repository.SeatRepo
	SeatInfos repository.SeatInfoRepo
}

// NewSeatPricing wires a SeatPricing to its repositories.
func NewSeatPricing(matches repository.MatchRepo, seats repository.SeatRepo, infos repository.SeatInfoRepo) *SeatPricing {
	return &SeatPricing{Matches: matches, Seats: seats, SeatInfos: infos}
}

// PriceSeat puts one seat on sale for a match.
func (p *SeatPricing) PriceSeat(ctx context.Context, actor Actor, in SeatPriceInput) (*model.MatchSeatInfo, SeatInfoView, error) {
	if err := actor.Require(Admin); err != nil {
		return nil, SeatInfoView{}, err
	}
	req, err := ValidateSeatPrice(in)
	if err != nil {
		return nil, SeatInfoView{}, err
	}

	var errs ValidationErrors
	match, err := p.Matches.GetDetail(ctx, req.MatchID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, SeatInfoView{}, fmt.Errorf("load match: %w", err)
		}
		errs = append(errs, invalidPK("match", req.MatchID))
	}
	seat, err := p.Seats.GetByID(ctx, req.SeatID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, SeatInfoView{}, fmt.Errorf("load seat: %w", err)
		}
		errs = append(errs, invalidPK("seat", req.SeatID))
	}
	if err := errs.orNil(); err != nil {
		return nil, SeatInfoView{}, err
	}

	priced, err := p.SeatInfos.Exists(ctx, match.ID, seat.ID)
	if err != nil {
		return nil, SeatInfoView{}, fmt.Errorf("check seat info: %w", err)
	}
	if priced {
		return nil, SeatInfoView{}, invalid(CodeSeatAlreadyPriced, NonFieldErrors, "This seat is already defined for this match.")
	}
	if seat.StadiumID != match.StadiumID {
		return nil, SeatInfoView{}, invalid(CodeSeatNotInStadium, NonFieldErrors,
			fmt.Sprintf("Stadium of this match, does not have seat with this code: %s", seat.Code))
	}

	info := &model.MatchSeatInfo{MatchID: match.ID, SeatID: seat.ID, Price: req.Price}
	if err := p.SeatInfos.Create(ctx, info); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, SeatInfoView{}, invalid(CodeSeatAlreadyPriced, NonFieldErrors, "This seat is already defined for this match.")
		}
		return nil, SeatInfoView{}, fmt.Errorf("create seat info: %w", err)
	}
	return info, SeatInfoView{
		Match: match.Title(),
		Seat:  seat.Label(match.StadiumName),
		Price: info.Price,
	}, nil
}

// BulkPriceSeats puts several seats on sale at the same price.  Either
// every seat is priced or none is.
func (p *SeatPricing) BulkPriceSeats(ctx context.Context, actor Actor, in BulkPriceInput) (int, error) {
	if err := actor.Require(Admin); err != nil {
		return 0, err
	}
	req, err := ValidateBulkPrice(in)
	if err != nil {
		return 0, err
	}
	match, err := p.Matches.GetDetail(ctx, req.MatchID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, invalid(CodeInvalid, "match", "Match does not exist")
		}
		return 0, fmt.Errorf("load match: %w", err)
	}

	n := len(req.SeatIDs)
	err = p.SeatInfos.Atomic(ctx, func(tx repository.SeatInfoTx) error {
		priced, err := tx.CountPriced(ctx, match.ID, req.SeatIDs)
		if err != nil {
			return err
		}
		if priced > 0 {
			return oneAlreadyPriced()
		}
		inStadium, err := tx.CountSeatsInStadium(ctx, match.StadiumID, req.SeatIDs)
		if err != nil {
			return err
		}
		if inStadium != n {
			return oneNotInStadium()
		}
		rows := make([]model.MatchSeatInfo, 0, n)
		for _, id := range req.SeatIDs {
			rows = append(rows, model.MatchSeatInfo{MatchID: match.ID, SeatID: id, Price: req.Price})
		}
		if err := tx.CreateBulk(ctx, rows); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return oneAlreadyPriced()
			}
			return err
		}
		return nil
	})
	if errors.Is(err, repository.ErrConflict) {
		// another request is pricing the same seats and won the locks
		return 0, oneAlreadyPriced()
	}
	if err != nil {
		return 0, err
	}
	return n, nil
}

// ListMatchSeats returns the priced seats of a match with their state.
func (p *SeatPricing) ListMatchSeats(ctx context.Context, matchID uint64) ([]model.SeatAvailability, error) {
	if _, err := loadMatch(ctx, p.Matches, matchID); err != nil {
		return nil, err
	}
	return p.SeatInfos.ListByMatch(ctx, matchID)
}

func oneAlreadyPriced() *ValidationError {
	return invalid(CodeSeatAlreadyPriced, NonFieldErrors, "One of seats is already defined for the match.")
}

func oneNotInStadium() *ValidationError {
	return invalid(CodeSeatNotInStadium, NonFieldErrors, "Stadium of this match, does not have one of seats.")
}
