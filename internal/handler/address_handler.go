package handler

import (
	"net/http"

	"bookstore/internal/config"
	"bookstore/internal/middleware"
	"bookstore/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /addressesのHTTP
type AddressHandler struct {
	uc *usecase.AddressUsecase
}

// DI
func NewAddressHandler(uc *usecase.AddressUsecase) *AddressHandler {
	return &AddressHandler{uc: uc}
}

type CreateAddressRequest struct {
	Name       string `json:"name"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	State      string `json:"state"`
	City       string `json:"city"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	Phone      string `json:"phone"`
	IsDefault  bool   `json:"is_default"`
}

// /addresses を登録。ログイン必須。
func (h *AddressHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/addresses")
	g.Use(middleware.AuthJWT(cfg))

	g.POST("", h.create)
	g.GET("", h.list)
}

func (h *AddressHandler) create(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req CreateAddressRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	a, err := h.uc.CreateAddress(c.Request().Context(), userID, usecase.CreateAddressInput{
		Name:       req.Name,
		PostalCode: req.PostalCode,
		Country:    req.Country,
		State:      req.State,
		City:       req.City,
		Line1:      req.Line1,
		Line2:      req.Line2,
		Phone:      req.Phone,
		IsDefault:  req.IsDefault,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, a)
}

func (h *AddressHandler) list(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	addrs, err := h.uc.ListMyAddresses(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, addrs)
}
