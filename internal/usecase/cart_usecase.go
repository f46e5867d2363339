package usecase

import (
	"context"
	"net/http"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"
)

// CartUsecase は /cart の業務ロジックです。
// ゲスト（session_id）とログイン済み（user_id）の両方を扱う。
// 全ての変更系はトランザクション内で実行する。
type CartUsecase struct {
	tx repo.TransactionManager
}

func NewCartUsecase(tx repo.TransactionManager) *CartUsecase {
	return &CartUsecase{tx: tx}
}

// priceはスナップショット、availableは表示用の現在在庫。
type CartItemResponse struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	Title     string `json:"title"`
	Price     int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
	Available int64  `json:"available"`
}

type CartResponse struct {
	ID      int64              `json:"id"`
	IsGuest bool               `json:"is_guest"`
	Items   []CartItemResponse `json:"items"`
	Total   int64              `json:"total"`
}

type AddItemInput struct {
	ProductID int64
	Quantity  int64
}

type UpdateItemInput struct {
	Quantity int64
}

// GetCart はカート取得（無ければ作って空を返す）。
// userID > 0 ならユーザーカート、そうでなければセッションのゲストカート。
func (u *CartUsecase) GetCart(ctx context.Context, sessionID string, userID int64) (CartResponse, error) {
	if userID <= 0 && sessionID == "" {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, CodeInvalidInput, "missing session")
	}

	var out CartResponse

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := resolveCart(ctx, r, sessionID, userID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
		}

		out, err = buildCartResponse(ctx, r, cart)
		return err
	})

	if err != nil {
		return CartResponse{}, err
	}
	return out, nil
}

// AddItem はカートに追加。
// 同一商品が既にあれば数量を加算する（上書きしない）。加算は更新系に委譲
// するので在庫の再チェックは掛からない（引き当ては決済時に行う方針）。
// 新規明細は min(要求数, 現在庫) に丸め、追加時点の販売価格を凍結する。
func (u *CartUsecase) AddItem(ctx context.Context, sessionID string, userID int64, in AddItemInput) (CartResponse, error) {
	if userID <= 0 && sessionID == "" {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, CodeInvalidInput, "missing session")
	}
	if in.ProductID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, CodeInvalidInput, "invalid product_id")
	}
	if in.Quantity < 1 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, CodeInvalidQuantity, "invalid quantity")
	}

	var out CartResponse

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := resolveCart(ctx, r, sessionID, userID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
		}

		//商品チェック
		p, err := r.Products().FindByID(ctx, in.ProductID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, CodeProductNotFound, "product not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
		}

		//既存明細があれば加算して更新パスへ
		existing, err := r.CartItems().FindByCartAndProduct(ctx, cart.ID, in.ProductID)
		if err == nil {
			if err := setItemQuantity(ctx, r, cart, in.ProductID, existing.Quantity+in.Quantity); err != nil {
				return err
			}
			out, err = buildCartResponse(ctx, r, cart)
			return err
		}
		if err != repo.ErrNotFound {
			return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
		}

		//新規明細は在庫チェック
		available := int64(0)
		inv, err := r.Inventory().FindByProductID(ctx, in.ProductID)
		if err == nil {
			available = inv.Quantity
		} else if err != repo.ErrNotFound {
			return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
		}

		if available <= 0 {
			return NewHTTPError(http.StatusBadRequest, CodeOutOfStock, "product is out of stock")
		}

		//在庫を超える分は丸める。0数量の明細は作らない
		qty := in.Quantity
		if qty > available {
			qty = available
		}

		if _, err := r.CartItems().Create(ctx, model.CartItem{
			CartID:    cart.ID,
			ProductID: in.ProductID,
			Quantity:  qty,
			Price:     p.SellingPrice, //追加時点の価格を凍結
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
		}

		out, err = buildCartResponse(ctx, r, cart)
		return err
	})

	if err != nil {
		return CartResponse{}, err
	}
	return out, nil
}

// UpdateItem は明細の数量を直接セットする。quantity <= 0 は削除と同じ扱い。
// 在庫の再チェックはしない（引き当ては決済時のみ）。
func (u *CartUsecase) UpdateItem(ctx context.Context, sessionID string, userID int64, productID int64, in UpdateItemInput) (CartResponse, error) {
	if userID <= 0 && sessionID == "" {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, CodeInvalidInput, "missing session")
	}
	if productID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, CodeInvalidInput, "invalid product_id")
	}

	var out CartResponse

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := resolveCart(ctx, r, sessionID, userID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
		}

		if err := setItemQuantity(ctx, r, cart, productID, in.Quantity); err != nil {
			return err
		}

		out, err = buildCartResponse(ctx, r, cart)
		return err
	})

	if err != nil {
		return CartResponse{}, err
	}
	return out, nil
}

// RemoveItem は明細を削除する。
func (u *CartUsecase) RemoveItem(ctx context.Context, sessionID string, userID int64, productID int64) (CartResponse, error) {
	if userID <= 0 && sessionID == "" {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, CodeInvalidInput, "missing session")
	}
	if productID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, CodeInvalidInput, "invalid product_id")
	}

	var out CartResponse

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := resolveCart(ctx, r, sessionID, userID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
		}

		if err := r.CartItems().DeleteByCartAndProduct(ctx, cart.ID, productID); err != nil {
			if err == repo.ErrNotFound {
				return NewHTTPError(http.StatusNotFound, CodeItemNotFound, "item not found in cart")
			}
			return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
		}

		out, err = buildCartResponse(ctx, r, cart)
		return err
	})

	if err != nil {
		return CartResponse{}, err
	}
	return out, nil
}

// ClearCart は明細を全削除する。
func (u *CartUsecase) ClearCart(ctx context.Context, sessionID string, userID int64) (CartResponse, error) {
	if userID <= 0 && sessionID == "" {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, CodeInvalidInput, "missing session")
	}

	var out CartResponse

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := resolveCart(ctx, r, sessionID, userID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
		}

		if err := r.CartItems().DeleteByCartID(ctx, cart.ID); err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
		}

		out, err = buildCartResponse(ctx, r, cart)
		return err
	})

	if err != nil {
		return CartResponse{}, err
	}
	return out, nil
}

// userID優先でカートを解決。無ければ作る
func resolveCart(ctx context.Context, r repo.TxRepos, sessionID string, userID int64) (model.Cart, error) {
	if userID > 0 {
		return r.Carts().GetOrCreateByUserID(ctx, userID)
	}
	return r.Carts().GetOrCreateGuestBySessionID(ctx, sessionID)
}

// 数量セットの共通パス。quantity <= 0 なら削除
func setItemQuantity(ctx context.Context, r repo.TxRepos, cart model.Cart, productID int64, qty int64) error {
	item, err := r.CartItems().FindByCartAndProduct(ctx, cart.ID, productID)
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, CodeItemNotFound, "item not found in cart")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
	}

	if qty <= 0 {
		if err := r.CartItems().DeleteByCartAndProduct(ctx, cart.ID, productID); err != nil && err != repo.ErrNotFound {
			return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
		}
		return nil
	}

	if err := r.CartItems().UpdateQuantity(ctx, item.ID, qty); err != nil {
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, CodeItemNotFound, "item not found in cart")
		}
		return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
	}
	return nil
}

// 明細＋商品＋現在在庫をまとめてCartResponseを作る。
func buildCartResponse(ctx context.Context, r repo.TxRepos, cart model.Cart) (CartResponse, error) {
	items, err := r.CartItems().ListByCartID(ctx, cart.ID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
	}

	respItems := make([]CartItemResponse, 0, len(items))
	var total int64 = 0

	for _, it := range items {
		p, err := r.Products().FindByID(ctx, it.ProductID)
		if err != nil {
			//消えた商品は表示しない
			continue
		}

		available := int64(0)
		if inv, err := r.Inventory().FindByProductID(ctx, it.ProductID); err == nil {
			available = inv.Quantity
		}

		respItems = append(respItems, CartItemResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			Title:     p.Title,
			Price:     it.Price,
			Quantity:  it.Quantity,
			Available: available,
		})

		total += it.Price * it.Quantity
	}

	return CartResponse{
		ID:      cart.ID,
		IsGuest: cart.IsGuest,
		Items:   respItems,
		Total:   total,
	}, nil
}
