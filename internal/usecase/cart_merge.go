package usecase

import (
	"context"
	"net/http"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"
)

// MergeCarts はログイン時にゲストカートをユーザーカートへ畳み込む。
// 全体を1トランザクションで行う。
//
// 衝突ポリシーは「大きい方を採用」（加算しない）。ログイン済みカートの数量を
// 古いゲスト追加で勝手に膨らませない一方、ゲスト側が多ければそちらを信じる。
//
// ゲストカートが無ければユーザーカートを返すだけのno-op。
// 再実行してもゲストカートはもう無いので冪等。
func (u *CartUsecase) MergeCarts(ctx context.Context, sessionID string, userID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}
	if sessionID == "" {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, CodeInvalidInput, "missing session")
	}

	var out CartResponse

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		userCart, err := r.Carts().GetOrCreateByUserID(ctx, userID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
		}

		guestCart, err := r.Carts().FindGuestBySessionID(ctx, sessionID)
		if err == repo.ErrNotFound {
			//マージ対象なし
			out, err = buildCartResponse(ctx, r, userCart)
			return err
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
		}

		guestItems, err := r.CartItems().ListByCartID(ctx, guestCart.ID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
		}

		for _, gi := range guestItems {
			userItem, err := r.CartItems().FindByCartAndProduct(ctx, userCart.ID, gi.ProductID)

			if err == repo.ErrNotFound {
				//ユーザー側に無ければゲストの数量と価格スナップショットを持ち込む
				if _, err := r.CartItems().Create(ctx, model.CartItem{
					CartID:    userCart.ID,
					ProductID: gi.ProductID,
					Quantity:  gi.Quantity,
					Price:     gi.Price,
				}); err != nil {
					return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
				}
				continue
			}
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
			}

			//両方にあるときはmax。ゲストが多いときだけ上げる
			if gi.Quantity > userItem.Quantity {
				if err := r.CartItems().UpdateQuantity(ctx, userItem.ID, gi.Quantity); err != nil {
					return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
				}
			}
		}

		//ゲストカートは破棄（明細ごと）
		if err := r.Carts().DeleteByID(ctx, guestCart.ID); err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
		}

		out, err = buildCartResponse(ctx, r, userCart)
		return err
	})

	if err != nil {
		return CartResponse{}, err
	}
	return out, nil
}
