package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-box-office/internal/repository"
)

// ReportHandler serves revenue reporting for managers.  Reports
// are derived purely from the payment ledger, so refunds subtract
// naturally through their negative amounts.
type ReportHandler struct {
	Payments *repository.PaymentRepo
}

func NewReportHandler(p *repository.PaymentRepo) *ReportHandler {
	return &ReportHandler{Payments: p}
}

// Revenue returns net revenue over [from, to).  Both bounds are
// RFC3339 query parameters; `to` defaults to now and `from` to 24h
// before `to`.
func (h *ReportHandler) Revenue(c echo.Context) error {
	to := time.Now().UTC()
	if raw := c.QueryParam("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "to must be RFC3339"})
		}
		to = t.UTC()
	}
	from := to.Add(-24 * time.Hour)
	if raw := c.QueryParam("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "from must be RFC3339"})
		}
		from = t.UTC()
	}
	if !to.After(from) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "to must be after from"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	total, err := h.Payments.SumAmountBetween(ctx, from, to)
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "storage unavailable"})
	}
	payments, err := h.Payments.ListBetween(ctx, from, to)
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "storage unavailable"})
	}

	var charged, refunded int64
	byMethod := map[string]int64{}
	for _, p := range payments {
		if p.AmountCents >= 0 {
			charged += p.AmountCents
		} else {
			refunded += -p.AmountCents
		}
		byMethod[p.Method] += p.AmountCents
	}

	return c.JSON(http.StatusOK, echo.Map{
		"from":            from,
		"to":              to,
		"net_cents":       total,
		"charged_cents":   charged,
		"refunded_cents":  refunded,
		"by_method_cents": byMethod,
		"payments_count":  len(payments),
	})
}
