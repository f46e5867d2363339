package usecase

import (
	"context"
	"net/http"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"
)

type ProductUsecase struct {
	tx repo.TransactionManager
}

func NewProductUsecase(tx repo.TransactionManager) *ProductUsecase {
	return &ProductUsecase{tx: tx}
}

type ListProductsInput struct {
	Page  int
	Limit int
	Q     string
}

type ProductListOutput struct {
	Products []model.Product `json:"products"`
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	Limit    int             `json:"limit"`
}

type ProductDetailOutput struct {
	model.Product
	Available int64 `json:"available"`
}

type CreateProductInput struct {
	Title        string `json:"title"`
	Author       string `json:"author"`
	Description  string `json:"description"`
	SellingPrice int64  `json:"selling_price"`
	CostPrice    int64  `json:"cost_price"`
	Metadata     string `json:"metadata"`
	Images       string `json:"images"`

	//初期在庫。0なら在庫行は作らない
	InitialStock int64 `json:"initial_stock"`
}

func (u *ProductUsecase) ListProducts(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	if in.Page < 1 {
		in.Page = 1
	}
	if in.Limit < 1 || in.Limit > 100 {
		in.Limit = 20
	}

	var out ProductListOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		products, total, err := r.Products().List(ctx, repo.ProductListQuery{
			Page:  in.Page,
			Limit: in.Limit,
			Q:     in.Q,
		})
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
		}

		out = ProductListOutput{
			Products: products,
			Total:    total,
			Page:     in.Page,
			Limit:    in.Limit,
		}
		return nil
	})

	if err != nil {
		return ProductListOutput{}, err
	}
	return out, nil
}

func (u *ProductUsecase) GetProductDetail(ctx context.Context, productID int64) (ProductDetailOutput, error) {
	if productID <= 0 {
		return ProductDetailOutput{}, NewHTTPError(http.StatusBadRequest, CodeInvalidInput, "invalid id")
	}

	var out ProductDetailOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Products().FindByID(ctx, productID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, CodeProductNotFound, "product not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
		}

		var available int64 = 0
		inv, err := r.Inventory().FindByProductID(ctx, productID)
		if err == nil {
			available = inv.Quantity
		} else if err != repo.ErrNotFound {
			return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
		}

		out = ProductDetailOutput{Product: p, Available: available}
		return nil
	})

	if err != nil {
		return ProductDetailOutput{}, err
	}
	return out, nil
}

// CreateProduct は商品登録。初期在庫があれば台帳にinitial_stockで記録する。
func (u *ProductUsecase) CreateProduct(ctx context.Context, in CreateProductInput) (model.Product, error) {
	if in.Title == "" || in.Author == "" {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, CodeInvalidInput, "title and author are required")
	}
	if err := model.ValidateProductPrices(in.SellingPrice, in.CostPrice); err != nil {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, CodeInvalidInput, err.Error())
	}
	if in.InitialStock < 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, CodeInvalidQuantity, "initial_stock must be >= 0")
	}

	var created model.Product

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Products().Create(ctx, model.Product{
			Title:        in.Title,
			Author:       in.Author,
			Description:  in.Description,
			SellingPrice: in.SellingPrice,
			CostPrice:    in.CostPrice,
			Metadata:     in.Metadata,
			Images:       in.Images,
		})
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
		}

		if in.InitialStock > 0 {
			if _, err := r.Inventory().AddStock(ctx, p.ID, in.InitialStock, model.ReasonInitialStock); err != nil {
				return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
			}
		}

		created = p
		return nil
	})

	if err != nil {
		return model.Product{}, err
	}
	return created, nil
}
