package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-box-office/internal/model"
	"github.com/iliyamo/cinema-box-office/internal/repository"
)

// CustomerHandler manages the registered-customer directory used
// at the counter to attach a patron to a sale.
type CustomerHandler struct {
	Customers *repository.CustomerRepo
}

func NewCustomerHandler(c *repository.CustomerRepo) *CustomerHandler {
	return &CustomerHandler{Customers: c}
}

type createCustomerReq struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}

type customerResp struct {
	ID       uint64 `json:"id"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}

func toCustomerResp(cu model.Customer) customerResp {
	return customerResp{ID: cu.ID, FullName: cu.FullName, Phone: cu.Phone}
}

// Create registers a customer.  Phone numbers are unique; a
// duplicate maps to 409.
func (h *CustomerHandler) Create(c echo.Context) error {
	var req createCustomerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.FullName = strings.TrimSpace(req.FullName)
	req.Phone = strings.TrimSpace(req.Phone)
	if req.FullName == "" || req.Phone == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "full_name and phone required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cu := model.Customer{FullName: req.FullName, Phone: req.Phone}
	if err := h.Customers.Create(ctx, &cu); err != nil {
		if errors.Is(err, repository.ErrPhoneExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "phone already registered"})
		}
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "storage unavailable"})
	}
	return c.JSON(http.StatusCreated, toCustomerResp(cu))
}

// Find looks up a customer by phone (query param) or by id.
func (h *CustomerHandler) Find(c echo.Context) error {
	phone := strings.TrimSpace(c.QueryParam("phone"))
	if phone == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "phone query param required"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	cu, err := h.Customers.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "customer not found"})
		}
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "storage unavailable"})
	}
	return c.JSON(http.StatusOK, toCustomerResp(cu))
}

// Get returns a customer by id.
func (h *CustomerHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	cu, err := h.Customers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "customer not found"})
		}
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "storage unavailable"})
	}
	return c.JSON(http.StatusOK, toCustomerResp(cu))
}
