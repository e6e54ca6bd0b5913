package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-box-office/internal/model"
)

// fakeStore is an in-memory Store with the same semantics the MySQL
// implementation provides: snapshot-rollback transactions and a
// uniqueness guard over active (showtime, seat) claims.
type fakeStore struct {
	showtimes map[uint64]model.Showtime
	rules     map[uint64]model.PriceRule
	tickets   map[uint64]model.Ticket
	payments  []model.Payment
	nextID    uint64

	failWith   error // when set, every operation fails with this error
	paymentErr error // when set, InsertPayment fails with this error

	// afterExpiredRead runs after ExpiredReservations returns,
	// standing in for a transaction that commits between the
	// sweep's read and its guarded write.
	afterExpiredRead func()
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		showtimes: map[uint64]model.Showtime{},
		rules:     map[uint64]model.PriceRule{},
		tickets:   map[uint64]model.Ticket{},
		nextID:    1,
	}
}

func (f *fakeStore) snapshot() ([]model.Payment, map[uint64]model.Ticket, uint64) {
	tickets := make(map[uint64]model.Ticket, len(f.tickets))
	for id, t := range f.tickets {
		tickets[id] = t
	}
	payments := append([]model.Payment(nil), f.payments...)
	return payments, tickets, f.nextID
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(tx StoreTx) error) error {
	if f.failWith != nil {
		return f.failWith
	}
	payments, tickets, nextID := f.snapshot()
	if err := fn(&fakeTx{f}); err != nil {
		f.payments, f.tickets, f.nextID = payments, tickets, nextID
		return err
	}
	return nil
}

func (f *fakeStore) OccupiedSeatIDs(ctx context.Context, showtimeID uint64) ([]uint64, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return (&fakeTx{f}).OccupiedSeatIDs(ctx, showtimeID)
}

type fakeTx struct{ f *fakeStore }

func (tx *fakeTx) Showtime(ctx context.Context, id uint64) (model.Showtime, error) {
	st, ok := tx.f.showtimes[id]
	if !ok {
		return model.Showtime{}, ErrNotFound
	}
	return st, nil
}

func (tx *fakeTx) PriceRule(ctx context.Context, id uint64) (model.PriceRule, error) {
	r, ok := tx.f.rules[id]
	if !ok {
		return model.PriceRule{}, ErrNotFound
	}
	return r, nil
}

func (tx *fakeTx) OccupiedSeatIDs(ctx context.Context, showtimeID uint64) ([]uint64, error) {
	var ids []uint64
	for _, t := range tx.f.tickets {
		if t.ShowtimeID == showtimeID && !testStatuses.IsTerminal(t.StatusID) {
			ids = append(ids, t.SeatID)
		}
	}
	return ids, nil
}

func (tx *fakeTx) CreateTicket(ctx context.Context, t *model.Ticket) error {
	for _, other := range tx.f.tickets {
		if other.ShowtimeID == t.ShowtimeID && other.SeatID == t.SeatID && !testStatuses.IsTerminal(other.StatusID) {
			return &ConflictError{SeatIDs: []uint64{t.SeatID}}
		}
	}
	t.ID = tx.f.nextID
	tx.f.nextID++
	tx.f.tickets[t.ID] = *t
	return nil
}

func (tx *fakeTx) TicketForUpdate(ctx context.Context, id uint64) (model.Ticket, error) {
	t, ok := tx.f.tickets[id]
	if !ok {
		return model.Ticket{}, ErrNotFound
	}
	return t, nil
}

func (tx *fakeTx) UpdateTicketStatus(ctx context.Context, ticketID uint64, statusID uint8, active bool) error {
	t, ok := tx.f.tickets[ticketID]
	if !ok {
		return ErrNotFound
	}
	t.StatusID = statusID
	tx.f.tickets[ticketID] = t
	return nil
}

func (tx *fakeTx) ExpiredReservations(ctx context.Context, statusID uint8, cutoff time.Time) ([]model.Ticket, error) {
	var out []model.Ticket
	for _, t := range tx.f.tickets {
		if t.StatusID == statusID && t.CreatedAt.Before(cutoff) {
			out = append(out, t)
		}
	}
	if tx.f.afterExpiredRead != nil {
		tx.f.afterExpiredRead()
	}
	return out, nil
}

func (tx *fakeTx) CancelTicketIfStatus(ctx context.Context, ticketID uint64, fromStatus, toStatus uint8) (bool, error) {
	t, ok := tx.f.tickets[ticketID]
	if !ok || t.StatusID != fromStatus {
		return false, nil
	}
	t.StatusID = toStatus
	tx.f.tickets[ticketID] = t
	return true, nil
}

func (tx *fakeTx) InsertPayment(ctx context.Context, p *model.Payment) error {
	if tx.f.paymentErr != nil {
		return tx.f.paymentErr
	}
	p.ID = tx.f.nextID
	tx.f.nextID++
	tx.f.payments = append(tx.f.payments, *p)
	return nil
}

func (tx *fakeTx) ChargedAmountCents(ctx context.Context, ticketID uint64) (int64, error) {
	var sum int64
	for _, p := range tx.f.payments {
		if p.TicketID == ticketID && p.AmountCents > 0 {
			sum += p.AmountCents
		}
	}
	return sum, nil
}

var testStatuses = func() *model.StatusSet {
	s, err := model.NewStatusSet([]model.TicketStatus{
		{ID: 1, Name: model.StatusReserved},
		{ID: 2, Name: model.StatusPaid},
		{ID: 3, Name: model.StatusCancelled},
		{ID: 4, Name: model.StatusRefunded},
	})
	if err != nil {
		panic(err)
	}
	return s
}()

func testConfig() Config {
	return Config{
		Timeout: 30 * time.Minute,
		Price:   PriceConfig{SurchargeRate: 0.15, GuestCoefficient: 1.0},
	}
}

// newTestService wires a service over a fake store with a showtime
// (base 10000 cents, rule coefficient 1.2) and a controllable clock.
func newTestService(t *testing.T) (*Service, *fakeStore, *time.Time) {
	t.Helper()
	f := newFakeStore()
	ruleID := uint64(7)
	f.rules[ruleID] = model.PriceRule{ID: ruleID, Name: "weekend", Coefficient: 1.2}
	f.showtimes[1] = model.Showtime{
		ID:             1,
		HallID:         1,
		FilmTitle:      "Stalker",
		StartsAt:       time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC),
		EndsAt:         time.Date(2026, 3, 14, 22, 0, 0, 0, time.UTC),
		BasePriceCents: 10000,
		RuleID:         &ruleID,
	}
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	svc := NewService(f, testStatuses, testConfig(), WithClock(func() time.Time { return now }))
	return svc, f, &now
}

func customerID(id uint64) *uint64 { return &id }

func TestReserve(t *testing.T) {
	svc, f, _ := newTestService(t)
	ctx := context.Background()

	tickets, err := svc.Reserve(ctx, 1, []uint64{10, 11, 11, 0}, nil, 42)
	require.NoError(t, err)
	require.Len(t, tickets, 2) // duplicates and zero dropped
	for _, tk := range tickets {
		assert.Equal(t, testStatuses.IDOf(model.StatusReserved), tk.StatusID)
		assert.Equal(t, uint64(42), tk.UserID)
		assert.NotZero(t, tk.ID)
	}

	occupied, err := svc.OccupiedSeats(ctx, 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{10, 11}, occupied)
	assert.Empty(t, f.payments, "reserving must not charge")
}

func TestReserveNoSeats(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Reserve(context.Background(), 1, nil, nil, 42)
	assert.ErrorIs(t, err, ErrNoSeats)

	_, err = svc.Reserve(context.Background(), 1, []uint64{0, 0}, nil, 42)
	assert.ErrorIs(t, err, ErrNoSeats)
}

func TestReserveUnknownShowtime(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Reserve(context.Background(), 99, []uint64{10}, nil, 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReserveConflictIsAllOrNothing(t *testing.T) {
	svc, f, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Reserve(ctx, 1, []uint64{11}, nil, 42)
	require.NoError(t, err)

	_, err = svc.Reserve(ctx, 1, []uint64{10, 11, 12}, nil, 42)
	require.ErrorIs(t, err, ErrConflict)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []uint64{11}, conflict.SeatIDs)

	// The free seats of the failed batch must not be held.
	occupied, err := svc.OccupiedSeats(ctx, 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{11}, occupied)
	assert.Len(t, f.tickets, 1)
}

func TestDirectSaleGuest(t *testing.T) {
	svc, f, _ := newTestService(t)
	ctx := context.Background()

	ticket, payment, err := svc.DirectSale(ctx, 1, 10, nil, 42, "CASH")
	require.NoError(t, err)
	assert.Equal(t, testStatuses.IDOf(model.StatusPaid), ticket.StatusID)
	assert.Equal(t, ticket.ID, payment.TicketID)
	// Guests ignore the showtime's rule coefficient.
	assert.Equal(t, int64(10000), payment.AmountCents)
	assert.Equal(t, "CASH", payment.Method)
	require.Len(t, f.payments, 1)
}

func TestDirectSaleRegisteredUsesRule(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, payment, err := svc.DirectSale(context.Background(), 1, 10, customerID(5), 42, "CARD")
	require.NoError(t, err)
	assert.Equal(t, int64(12000), payment.AmountCents) // 10000 * 1.2, no surcharge
}

func TestDirectSaleTakenSeat(t *testing.T) {
	svc, f, _ := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.DirectSale(ctx, 1, 10, nil, 42, "CASH")
	require.NoError(t, err)

	_, _, err = svc.DirectSale(ctx, 1, 10, nil, 43, "CASH")
	assert.ErrorIs(t, err, ErrConflict)
	assert.Len(t, f.payments, 1, "losing sale must not charge")
}

func TestConfirmReservation(t *testing.T) {
	svc, f, _ := newTestService(t)
	ctx := context.Background()

	tickets, err := svc.Reserve(ctx, 1, []uint64{10}, customerID(5), 42)
	require.NoError(t, err)

	ticket, payment, err := svc.ConfirmReservation(ctx, tickets[0].ID, 42, "CARD")
	require.NoError(t, err)
	assert.Equal(t, testStatuses.IDOf(model.StatusPaid), ticket.StatusID)
	// 10000 * 1.2 = 12000, then +15% surcharge = 13800.
	assert.Equal(t, int64(13800), payment.AmountCents)

	// Confirming again is a state error, not a double charge.
	_, _, err = svc.ConfirmReservation(ctx, tickets[0].ID, 42, "CARD")
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Len(t, f.payments, 1)
}

func TestConfirmGuestReservationSkipsRule(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	tickets, err := svc.Reserve(ctx, 1, []uint64{10}, nil, 42)
	require.NoError(t, err)

	_, payment, err := svc.ConfirmReservation(ctx, tickets[0].ID, 42, "CASH")
	require.NoError(t, err)
	assert.Equal(t, int64(11500), payment.AmountCents) // 10000 + 15%
}

func TestConfirmExpiredReservation(t *testing.T) {
	svc, f, now := newTestService(t)
	ctx := context.Background()

	tickets, err := svc.Reserve(ctx, 1, []uint64{10}, nil, 42)
	require.NoError(t, err)

	*now = now.Add(31 * time.Minute)

	_, _, err = svc.ConfirmReservation(ctx, tickets[0].ID, 42, "CASH")
	require.ErrorIs(t, err, ErrExpired)

	// The cancellation is committed even though the call failed: the
	// ticket is CANCELLED and the seat is free again.
	assert.Equal(t, testStatuses.IDOf(model.StatusCancelled), f.tickets[tickets[0].ID].StatusID)
	occupied, err := svc.OccupiedSeats(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, occupied)
	assert.Empty(t, f.payments)
}

func TestConfirmUnknownTicket(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, _, err := svc.ConfirmReservation(context.Background(), 99, 42, "CASH")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRefundTicket(t *testing.T) {
	svc, f, _ := newTestService(t)
	ctx := context.Background()

	ticket, sale, err := svc.DirectSale(ctx, 1, 10, customerID(5), 42, "CARD")
	require.NoError(t, err)

	refund, err := svc.RefundTicket(ctx, ticket.ID, 42)
	require.NoError(t, err)
	assert.Equal(t, -sale.AmountCents, refund.AmountCents)
	assert.Equal(t, "REFUND", refund.Method)
	assert.Equal(t, testStatuses.IDOf(model.StatusRefunded), f.tickets[ticket.ID].StatusID)

	// The ledger keeps both entries and nets to zero.
	require.Len(t, f.payments, 2)
	assert.Equal(t, int64(0), f.payments[0].AmountCents+f.payments[1].AmountCents)

	// The seat can be sold again.
	_, _, err = svc.DirectSale(ctx, 1, 10, nil, 43, "CASH")
	assert.NoError(t, err)
}

func TestRefundRefundsConfirmationSurcharge(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	tickets, err := svc.Reserve(ctx, 1, []uint64{10}, customerID(5), 42)
	require.NoError(t, err)
	_, payment, err := svc.ConfirmReservation(ctx, tickets[0].ID, 42, "CARD")
	require.NoError(t, err)

	refund, err := svc.RefundTicket(ctx, tickets[0].ID, 42)
	require.NoError(t, err)
	assert.Equal(t, -payment.AmountCents, refund.AmountCents)
}

func TestRefundReservedTicket(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	tickets, err := svc.Reserve(ctx, 1, []uint64{10}, nil, 42)
	require.NoError(t, err)

	_, err = svc.RefundTicket(ctx, tickets[0].ID, 42)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestRefundAfterShowtimeStarts(t *testing.T) {
	svc, f, now := newTestService(t)
	ctx := context.Background()

	ticket, _, err := svc.DirectSale(ctx, 1, 10, nil, 42, "CASH")
	require.NoError(t, err)

	*now = f.showtimes[1].StartsAt.Add(time.Minute)

	_, err = svc.RefundTicket(ctx, ticket.ID, 42)
	require.ErrorIs(t, err, ErrTooLate)
	// Still paid, nothing appended to the ledger.
	assert.Equal(t, testStatuses.IDOf(model.StatusPaid), f.tickets[ticket.ID].StatusID)
	assert.Len(t, f.payments, 1)
}

func TestCancelExpiredReservations(t *testing.T) {
	svc, f, now := newTestService(t)
	ctx := context.Background()

	old, err := svc.Reserve(ctx, 1, []uint64{10, 11}, nil, 42)
	require.NoError(t, err)

	*now = now.Add(20 * time.Minute)
	fresh, err := svc.Reserve(ctx, 1, []uint64{12}, nil, 42)
	require.NoError(t, err)

	// Only the first batch is older than the 30 minute timeout.
	*now = now.Add(15 * time.Minute)
	n, err := svc.CancelExpiredReservations(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, tk := range old {
		assert.Equal(t, testStatuses.IDOf(model.StatusCancelled), f.tickets[tk.ID].StatusID)
	}
	assert.Equal(t, testStatuses.IDOf(model.StatusReserved), f.tickets[fresh[0].ID].StatusID)

	// Idempotent: a second sweep finds nothing.
	n, err = svc.CancelExpiredReservations(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSweepSkipsConcurrentlyConfirmedReservation(t *testing.T) {
	svc, f, now := newTestService(t)
	ctx := context.Background()

	tickets, err := svc.Reserve(ctx, 1, []uint64{10, 11}, customerID(5), 42)
	require.NoError(t, err)
	confirmed := tickets[0].ID

	// A cashier confirms one of the expired reservations after the
	// sweep has read its stale set but before it writes.
	*now = now.Add(31 * time.Minute)
	f.afterExpiredRead = func() {
		tk := f.tickets[confirmed]
		tk.StatusID = testStatuses.IDOf(model.StatusPaid)
		f.tickets[confirmed] = tk
		f.payments = append(f.payments, model.Payment{TicketID: confirmed, AmountCents: 13800, Method: "CARD"})
	}

	n, err := svc.CancelExpiredReservations(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "only the still-reserved ticket counts")

	// The freshly paid ticket keeps its status, its payment and its
	// seat; the other stale reservation is cancelled.
	assert.Equal(t, testStatuses.IDOf(model.StatusPaid), f.tickets[confirmed].StatusID)
	assert.Equal(t, testStatuses.IDOf(model.StatusCancelled), f.tickets[tickets[1].ID].StatusID)
	require.Len(t, f.payments, 1)
	occupied, err := svc.OccupiedSeats(ctx, 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{10}, occupied)
}

func TestPaidTicketsNeverExpire(t *testing.T) {
	svc, f, now := newTestService(t)
	ctx := context.Background()

	ticket, _, err := svc.DirectSale(ctx, 1, 10, nil, 42, "CASH")
	require.NoError(t, err)

	*now = now.Add(24 * time.Hour)
	n, err := svc.CancelExpiredReservations(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, testStatuses.IDOf(model.StatusPaid), f.tickets[ticket.ID].StatusID)
}

func TestDirectSaleRollsBackWhenPaymentFails(t *testing.T) {
	svc, f, _ := newTestService(t)
	ctx := context.Background()
	f.paymentErr = errors.New("payments table unavailable")

	_, _, err := svc.DirectSale(ctx, 1, 10, nil, 42, "CASH")
	require.Error(t, err)

	// No ticket without its payment: the whole transaction rolled
	// back and the seat stayed free.
	assert.Empty(t, f.tickets)
	assert.Empty(t, f.payments)

	f.paymentErr = nil
	_, _, err = svc.DirectSale(ctx, 1, 10, nil, 42, "CASH")
	assert.NoError(t, err)
}

func TestConfirmRollsBackWhenPaymentFails(t *testing.T) {
	svc, f, _ := newTestService(t)
	ctx := context.Background()

	tickets, err := svc.Reserve(ctx, 1, []uint64{10}, nil, 42)
	require.NoError(t, err)

	f.paymentErr = errors.New("payments table unavailable")
	_, _, err = svc.ConfirmReservation(ctx, tickets[0].ID, 42, "CASH")
	require.Error(t, err)

	// The status transition rolled back with the payment.
	assert.Equal(t, testStatuses.IDOf(model.StatusReserved), f.tickets[tickets[0].ID].StatusID)
	assert.Empty(t, f.payments)
}

func TestTransientStoreFailure(t *testing.T) {
	svc, f, _ := newTestService(t)
	boom := errors.New("connection reset")
	f.failWith = boom

	_, err := svc.Reserve(context.Background(), 1, []uint64{10}, nil, 42)
	assert.ErrorIs(t, err, boom)
	_, _, err = svc.DirectSale(context.Background(), 1, 10, nil, 42, "CASH")
	assert.ErrorIs(t, err, boom)
	_, err = svc.OccupiedSeats(context.Background(), 1)
	assert.ErrorIs(t, err, boom)
}
