package handler

import (
	"net/http"
	"strconv"

	"bookstore/internal/config"
	"bookstore/internal/middleware"
	"bookstore/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /products の公開API＋管理系
type ProductHandler struct {
	uc    *usecase.ProductUsecase
	invUC *usecase.InventoryUsecase
}

// DI
func NewProductHandler(uc *usecase.ProductUsecase, invUC *usecase.InventoryUsecase) *ProductHandler {
	return &ProductHandler{uc: uc, invUC: invUC}
}

type CreateProductRequest struct {
	Title        string `json:"title"`
	Author       string `json:"author"`
	Description  string `json:"description"`
	SellingPrice int64  `json:"selling_price"`
	CostPrice    int64  `json:"cost_price"`
	Metadata     string `json:"metadata"`
	Images       string `json:"images"`
	InitialStock int64  `json:"initial_stock"`
}

type RestockRequest struct {
	Quantity int64  `json:"quantity"`
	Reason   string `json:"reason"`
}

// 商品ルートを登録。閲覧は公開、登録・入荷はADMINのみ。
func (h *ProductHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	e.GET("/products", h.list)
	e.GET("/products/:id", h.detail)
	e.GET("/products/:id/inventory", h.inventory)

	g := e.Group("/products")
	g.Use(middleware.AuthJWT(cfg))
	g.Use(middleware.AdminRoleGuard())
	g.POST("", h.create)
	g.POST("/:id/restock", h.restock)
}

func (h *ProductHandler) list(c echo.Context) error {
	// page（default 1）
	page := 1
	if v := c.QueryParam("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid page"})
		}
		page = p
	}

	// limit（default 20）
	limit := 20
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
		}
		limit = l
	}

	q := c.QueryParam("q")

	out, err := h.uc.ListProducts(c.Request().Context(), usecase.ListProductsInput{
		Page:  page,
		Limit: limit,
		Q:     q,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *ProductHandler) detail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	p, err := h.uc.GetProductDetail(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) inventory(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	out, err := h.invUC.GetProductInventory(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *ProductHandler) create(c echo.Context) error {
	var req CreateProductRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	p, err := h.uc.CreateProduct(c.Request().Context(), usecase.CreateProductInput{
		Title:        req.Title,
		Author:       req.Author,
		Description:  req.Description,
		SellingPrice: req.SellingPrice,
		CostPrice:    req.CostPrice,
		Metadata:     req.Metadata,
		Images:       req.Images,
		InitialStock: req.InitialStock,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, p)
}

func (h *ProductHandler) restock(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req RestockRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.invUC.Restock(c.Request().Context(), id, usecase.RestockInput{
		Quantity: req.Quantity,
		Reason:   req.Reason,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}
