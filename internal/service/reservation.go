package service

import (
	"context"
	"errors"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/iliyamo/stadium-seat-reservation/internal/model"
	"github.com/iliyamo/stadium-seat-reservation/internal/repository"
)

// Reservation describes seats that were just reserved.  It is handed to
// the ReservationNotifier after the transaction commits.
type Reservation struct {
	Match      model.MatchDetail
	BuyerID    uint64
	SeatIDs    []uint64
	ReservedAt time.Time
}

// ReservationNotifier is told about committed reservations.
type ReservationNotifier interface {
	SeatsReserved(ctx context.Context, r Reservation) error
}

// ReservationEngine moves priced seats to reserved and reserved seats to
// paid.
type ReservationEngine struct {
	Matches   repository.MatchRepo
	SeatInfos repository.SeatInfoRepo
	Notifier  ReservationNotifier // optional
	Logger    *log.Logger
	Now       func() time.Time
}

// NewReservationEngine wires a ReservationEngine.  notifier may be nil.
func NewReservationEngine(matches repository.MatchRepo, infos repository.SeatInfoRepo, notifier ReservationNotifier, logger *log.Logger) *ReservationEngine {
	if logger == nil {
		logger = log.New("reservation")
	}
	return &ReservationEngine{
		Matches:   matches,
		SeatInfos: infos,
		Notifier:  notifier,
		Logger:    logger,
		Now:       time.Now,
	}
}

// ReserveSeats reserves 1 to 10 seats of a match for the calling actor.
// The checks and the update run in one transaction, so a seat can't be
// reserved twice even under concurrent requests.
func (e *ReservationEngine) ReserveSeats(ctx context.Context, actor Actor, matchID uint64, in SeatsInput) (int, error) {
	if err := actor.Require(Authenticated); err != nil {
		return 0, err
	}
	match, err := loadMatch(ctx, e.Matches, matchID)
	if err != nil {
		return 0, err
	}
	seatIDs, err := ValidateReservation(in)
	if err != nil {
		return 0, err
	}

	n := len(seatIDs)
	now := e.Now().UTC()
	err = e.SeatInfos.Atomic(ctx, func(tx repository.SeatInfoTx) error {
		reserved, err := tx.CountReserved(ctx, match.ID, seatIDs)
		if err != nil {
			return err
		}
		if reserved > 0 {
			return oneAlreadyReserved()
		}
		inStadium, err := tx.CountSeatsInStadium(ctx, match.StadiumID, seatIDs)
		if err != nil {
			return err
		}
		if inStadium != n {
			return oneNotInStadium()
		}
		priced, err := tx.CountPriced(ctx, match.ID, seatIDs)
		if err != nil {
			return err
		}
		if priced != n {
			return invalid(CodeSeatNotPriced, NonFieldErrors, "One of seats is not defined for the match.")
		}
		changed, err := tx.MarkReserved(ctx, match.ID, seatIDs, actor.UserID, now)
		if err != nil {
			return err
		}
		if changed != n {
			return oneAlreadyReserved()
		}
		return nil
	})
	if errors.Is(err, repository.ErrConflict) {
		return 0, oneAlreadyReserved()
	}
	if err != nil {
		return 0, err
	}

	e.Logger.Infof("reserved %d seats of match %d for user %d", n, match.ID, actor.UserID)
	if e.Notifier != nil {
		r := Reservation{Match: *match, BuyerID: actor.UserID, SeatIDs: seatIDs, ReservedAt: now}
		if err := e.Notifier.SeatsReserved(ctx, r); err != nil {
			e.Logger.Warnf("notify reservation of match %d: %v", match.ID, err)
		}
	}
	return n, nil
}

// MarkPaid records payment for reserved seats of a match.  Seats that are
// not reserved can't be paid.
func (e *ReservationEngine) MarkPaid(ctx context.Context, actor Actor, matchID uint64, in SeatsInput) (int, error) {
	if err := actor.Require(Admin); err != nil {
		return 0, err
	}
	match, err := loadMatch(ctx, e.Matches, matchID)
	if err != nil {
		return 0, err
	}
	seatIDs, err := ValidateReservation(in)
	if err != nil {
		return 0, err
	}

	n := len(seatIDs)
	err = e.SeatInfos.Atomic(ctx, func(tx repository.SeatInfoTx) error {
		reserved, err := tx.CountReserved(ctx, match.ID, seatIDs)
		if err != nil {
			return err
		}
		if reserved != n {
			return invalid(CodeSeatNotReserved, NonFieldErrors, "One of seats is not reserved for the match.")
		}
		_, err = tx.MarkPaid(ctx, match.ID, seatIDs)
		return err
	})
	if errors.Is(err, repository.ErrConflict) {
		return 0, ErrBusy
	}
	if err != nil {
		return 0, err
	}
	return n, nil
}

func oneAlreadyReserved() *ValidationError {
	return invalid(CodeSeatAlreadyReserved, NonFieldErrors, "One of seats is already reserved for the match.")
}
