package handler

import (
	"net/http"
	"strconv"

	"bookstore/internal/config"
	"bookstore/internal/middleware"
	"bookstore/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /cartのHTTP
type CartHandler struct {
	uc *usecase.CartUsecase
}

// DI
func NewCartHandler(uc *usecase.CartUsecase) *CartHandler {
	return &CartHandler{uc: uc}
}

type AddCartItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

type UpdateCartItemRequest struct {
	Quantity int64 `json:"quantity"`
}

// /cart を登録。
// ゲストも使えるのでOptionalAuthJWT＋セッションCookieで識別する。
// マージだけはログイン必須。
func (h *CartHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/cart")
	g.Use(middleware.GuestSession())
	g.Use(middleware.OptionalAuthJWT(cfg))

	g.GET("", h.getCart)
	g.DELETE("", h.clearCart)
	g.POST("/items", h.addItem)
	g.PUT("/items/:productId", h.updateItem)
	g.DELETE("/items/:productId", h.removeItem)

	m := e.Group("/cart/merge")
	m.Use(middleware.GuestSession())
	m.Use(middleware.AuthJWT(cfg))
	m.POST("", h.mergeCart)
}

func (h *CartHandler) getCart(c echo.Context) error {
	userID, _ := getUserIDFromContext(c)
	sessionID := getSessionIDFromContext(c)

	out, err := h.uc.GetCart(c.Request().Context(), sessionID, userID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) addItem(c echo.Context) error {
	userID, _ := getUserIDFromContext(c)
	sessionID := getSessionIDFromContext(c)

	var req AddCartItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.AddItem(c.Request().Context(), sessionID, userID, usecase.AddItemInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) updateItem(c echo.Context) error {
	userID, _ := getUserIDFromContext(c)
	sessionID := getSessionIDFromContext(c)

	productID, err := strconv.ParseInt(c.Param("productId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req UpdateCartItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.UpdateItem(c.Request().Context(), sessionID, userID, productID, usecase.UpdateItemInput{
		Quantity: req.Quantity,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) removeItem(c echo.Context) error {
	userID, _ := getUserIDFromContext(c)
	sessionID := getSessionIDFromContext(c)

	productID, err := strconv.ParseInt(c.Param("productId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	out, err := h.uc.RemoveItem(c.Request().Context(), sessionID, userID, productID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) clearCart(c echo.Context) error {
	userID, _ := getUserIDFromContext(c)
	sessionID := getSessionIDFromContext(c)

	out, err := h.uc.ClearCart(c.Request().Context(), sessionID, userID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) mergeCart(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	sessionID := getSessionIDFromContext(c)

	out, err := h.uc.MergeCarts(c.Request().Context(), sessionID, userID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}
