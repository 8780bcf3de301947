package memory

import (
	"context"
	"sort"
	"time"

	"github.com/iliyamo/stadium-seat-reservation/internal/model"
	"github.com/iliyamo/stadium-seat-reservation/internal/repository"
)

type seatInfoRepo struct{ s *Store }

func (r seatInfoRepo) Create(_ context.Context, info *model.MatchSeatInfo) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.insertSeatInfo(info)
}

func (r seatInfoRepo) Exists(_ context.Context, matchID, seatID uint64) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	_, ok := r.s.findSeatInfo(matchID, seatID)
	return ok, nil
}

func (r seatInfoRepo) ListByMatch(_ context.Context, matchID uint64) ([]model.SeatAvailability, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []model.SeatAvailability
	for _, info := range r.s.seatInfos {
		if info.MatchID != matchID {
			continue
		}
		out = append(out, model.SeatAvailability{
			SeatID:     info.SeatID,
			Code:       r.s.seats[info.SeatID].Code,
			Price:      info.Price,
			IsReserved: info.IsReserved,
			IsPaid:     info.IsPaid,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SeatID < out[j].SeatID })
	return out, nil
}

func (r seatInfoRepo) Atomic(_ context.Context, fn func(tx repository.SeatInfoTx) error) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	snapshot := make(map[uint64]model.MatchSeatInfo, len(r.s.seatInfos))
	for k, v := range r.s.seatInfos {
		snapshot[k] = v
	}
	next := r.s.seq[seatInfoTable]
	if err := fn(seatInfoTx{r.s}); err != nil {
		r.s.seatInfos = snapshot
		r.s.seq[seatInfoTable] = next
		return err
	}
	return nil
}

const seatInfoTable = "match_seat_infos"

// seatInfoTx runs with Store.mu already held by Atomic.
type seatInfoTx struct{ s *Store }

func (tx seatInfoTx) CountPriced(_ context.Context, matchID uint64, seatIDs []uint64) (int, error) {
	n := 0
	for _, id := range seatIDs {
		if _, ok := tx.s.findSeatInfo(matchID, id); ok {
			n++
		}
	}
	return n, nil
}

func (tx seatInfoTx) CountReserved(_ context.Context, matchID uint64, seatIDs []uint64) (int, error) {
	n := 0
	for _, id := range seatIDs {
		if info, ok := tx.s.findSeatInfo(matchID, id); ok && info.IsReserved {
			n++
		}
	}
	return n, nil
}

func (tx seatInfoTx) CountSeatsInStadium(_ context.Context, stadiumID uint64, seatIDs []uint64) (int, error) {
	n := 0
	for _, id := range uniq(seatIDs) {
		if seat, ok := tx.s.seats[id]; ok && seat.StadiumID == stadiumID {
			n++
		}
	}
	return n, nil
}

func (tx seatInfoTx) CreateBulk(_ context.Context, rows []model.MatchSeatInfo) error {
	for i := range rows {
		if err := tx.s.insertSeatInfo(&rows[i]); err != nil {
			return err
		}
	}
	return nil
}

func (tx seatInfoTx) MarkReserved(_ context.Context, matchID uint64, seatIDs []uint64, buyerID uint64, at time.Time) (int, error) {
	n := 0
	for _, id := range seatIDs {
		info, ok := tx.s.findSeatInfo(matchID, id)
		if !ok || info.IsReserved {
			continue
		}
		buyer, when := buyerID, at
		info.IsReserved = true
		info.BuyerID = &buyer
		info.DateReserved = &when
		tx.s.seatInfos[info.ID] = info
		n++
	}
	return n, nil
}

func (tx seatInfoTx) MarkPaid(_ context.Context, matchID uint64, seatIDs []uint64) (int, error) {
	n := 0
	for _, id := range seatIDs {
		info, ok := tx.s.findSeatInfo(matchID, id)
		if !ok || !info.IsReserved || info.IsPaid {
			continue
		}
		info.IsPaid = true
		tx.s.seatInfos[info.ID] = info
		n++
	}
	return n, nil
}

func (s *Store) findSeatInfo(matchID, seatID uint64) (model.MatchSeatInfo, bool) {
	for _, info := range s.seatInfos {
		if info.MatchID == matchID && info.SeatID == seatID {
			return info, true
		}
	}
	return model.MatchSeatInfo{}, false
}

func (s *Store) insertSeatInfo(info *model.MatchSeatInfo) error {
	if _, ok := s.matches[info.MatchID]; !ok {
		return repository.ErrNotFound
	}
	if _, ok := s.seats[info.SeatID]; !ok {
		return repository.ErrNotFound
	}
	if _, dup := s.findSeatInfo(info.MatchID, info.SeatID); dup {
		return &repository.DuplicateError{Key: repository.KeyMatchSeat}
	}
	info.ID = s.id(seatInfoTable)
	s.seatInfos[info.ID] = *info
	return nil
}

func uniq(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
