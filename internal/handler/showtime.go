package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-box-office/internal/booking"
	"github.com/iliyamo/cinema-box-office/internal/model"
	"github.com/iliyamo/cinema-box-office/internal/repository"
)

// ShowtimeHandler serves showtime scheduling and the seat map.
type ShowtimeHandler struct {
	Showtimes *repository.ShowtimeRepo
	Halls     *repository.HallRepo
	Seats     *repository.SeatRepo
	Rules     *repository.PriceRuleRepo
	Booking   *booking.Service
}

func NewShowtimeHandler(st *repository.ShowtimeRepo, h *repository.HallRepo, s *repository.SeatRepo, r *repository.PriceRuleRepo, b *booking.Service) *ShowtimeHandler {
	return &ShowtimeHandler{Showtimes: st, Halls: h, Seats: s, Rules: r, Booking: b}
}

type createShowtimeReq struct {
	HallID         uint64  `json:"hall_id"`
	FilmTitle      string  `json:"film_title"`
	StartsAt       string  `json:"starts_at"` // RFC3339
	EndsAt         string  `json:"ends_at"`   // RFC3339
	BasePriceCents int64   `json:"base_price_cents"`
	RuleID         *uint64 `json:"rule_id,omitempty"`
}

type showtimeResp struct {
	ID             uint64    `json:"id"`
	HallID         uint64    `json:"hall_id"`
	FilmTitle      string    `json:"film_title"`
	StartsAt       time.Time `json:"starts_at"`
	EndsAt         time.Time `json:"ends_at"`
	BasePriceCents int64     `json:"base_price_cents"`
	RuleID         *uint64   `json:"rule_id,omitempty"`
}

func toShowtimeResp(st model.Showtime) showtimeResp {
	return showtimeResp{
		ID:             st.ID,
		HallID:         st.HallID,
		FilmTitle:      st.FilmTitle,
		StartsAt:       st.StartsAt,
		EndsAt:         st.EndsAt,
		BasePriceCents: st.BasePriceCents,
		RuleID:         st.RuleID,
	}
}

// Create schedules a new showtime.  MANAGER only.  Rejects
// malformed intervals up front and maps an overlap with another
// showtime in the same hall to 409.
func (h *ShowtimeHandler) Create(c echo.Context) error {
	var req createShowtimeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "starts_at must be RFC3339"})
	}
	endsAt, err := time.Parse(time.RFC3339, req.EndsAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ends_at must be RFC3339"})
	}
	if req.HallID == 0 || req.FilmTitle == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "hall_id and film_title required"})
	}
	if !endsAt.After(startsAt) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ends_at must be after starts_at"})
	}
	if req.BasePriceCents <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "base_price_cents must be positive"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Halls.GetByID(ctx, req.HallID); err != nil {
		if errors.Is(err, repository.ErrHallNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "hall not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if req.RuleID != nil {
		if _, err := h.Rules.GetByID(ctx, *req.RuleID); err != nil {
			if errors.Is(err, repository.ErrPriceRuleNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "price rule not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
	}

	st := model.Showtime{
		HallID:         req.HallID,
		FilmTitle:      req.FilmTitle,
		StartsAt:       startsAt.UTC(),
		EndsAt:         endsAt.UTC(),
		BasePriceCents: req.BasePriceCents,
		RuleID:         req.RuleID,
	}
	if err := h.Showtimes.Create(ctx, &st); err != nil {
		if errors.Is(err, repository.ErrShowtimeOverlap) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "showtime overlaps an existing one in this hall"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusCreated, toShowtimeResp(st))
}

// List returns upcoming showtimes (ends_at in the future).
func (h *ShowtimeHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	items, err := h.Showtimes.ListFrom(ctx, time.Now().UTC())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]showtimeResp, 0, len(items))
	for _, st := range items {
		out = append(out, toShowtimeResp(st))
	}
	return c.JSON(http.StatusOK, out)
}

// Get returns a single showtime by id.
func (h *ShowtimeHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	st, err := h.Showtimes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrShowtimeNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "showtime not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, toShowtimeResp(st))
}

type seatMapEntry struct {
	SeatID     uint64 `json:"seat_id"`
	RowLabel   string `json:"row_label"`
	SeatNumber uint32 `json:"seat_number"`
	Category   string `json:"category"`
	Occupied   bool   `json:"occupied"`
}

type seatMapResp struct {
	ShowtimeID uint64         `json:"showtime_id"`
	HallID     uint64         `json:"hall_id"`
	Seats      []seatMapEntry `json:"seats"`
	Free       int            `json:"free"`
}

// GetSeats returns the hall's seat map for a showtime with each
// seat flagged occupied when a RESERVED or PAID ticket claims it.
// The snapshot is only advisory; the actual claim is decided by the
// unique key when a ticket row is inserted.
func (h *ShowtimeHandler) GetSeats(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	st, err := h.Showtimes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrShowtimeNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "showtime not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	seats, err := h.Seats.ListByHall(ctx, st.HallID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	occupiedIDs, err := h.Booking.OccupiedSeats(ctx, st.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	occupied := make(map[uint64]struct{}, len(occupiedIDs))
	for _, sid := range occupiedIDs {
		occupied[sid] = struct{}{}
	}

	resp := seatMapResp{ShowtimeID: st.ID, HallID: st.HallID, Seats: make([]seatMapEntry, 0, len(seats))}
	for _, s := range seats {
		_, taken := occupied[s.ID]
		resp.Seats = append(resp.Seats, seatMapEntry{
			SeatID:     s.ID,
			RowLabel:   s.RowLabel,
			SeatNumber: s.SeatNumber,
			Category:   s.Category,
			Occupied:   taken,
		})
		if !taken {
			resp.Free++
		}
	}
	return c.JSON(http.StatusOK, resp)
}
