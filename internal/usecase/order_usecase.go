package usecase

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"
)

type OrderUsecase struct {
	tx           repo.TransactionManager
	shippingCost ShippingCostFunc
}

func NewOrderUsecase(tx repo.TransactionManager, shippingCost ShippingCostFunc) *OrderUsecase {
	if shippingCost == nil {
		shippingCost = DefaultShippingCost
	}
	return &OrderUsecase{tx: tx, shippingCost: shippingCost}
}

// 直接購入（Buy Now）の明細
type DirectItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

type PlaceOrderInput struct {
	AddressID int64

	//指定があれば直接購入。無ければカートから
	Items []DirectItem

	ShippingMethod string
	PaymentMethod  string
}

type OrderItemOutput struct {
	ProductID int64  `json:"product_id"`
	Title     string `json:"title"`
	Price     int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
}

type OrderOutput struct {
	ID                int64             `json:"id"`
	UserID            int64             `json:"user_id"`
	Status            string            `json:"status"`
	PaymentStatus     string            `json:"payment_status"`
	Total             int64             `json:"total"`
	ShippingAddressID int64             `json:"shipping_address_id"`
	ShippingMethod    string            `json:"shipping_method"`
	ShippingCost      int64             `json:"shipping_cost"`
	PaymentID         *int64            `json:"payment_id"`
	ShippingStatus    string            `json:"shipping_status,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	Items             []OrderItemOutput `json:"items"`
}

// PlaceOrder は注文確定。1トランザクションで
// 住所チェック→明細解決→在庫引き当て→注文＋明細作成→カートクリア→
// 配送レコード＋初期Paymentの作成まで行う。途中で失敗したら全部戻る。
func (u *OrderUsecase) PlaceOrder(ctx context.Context, userID int64, in PlaceOrderInput) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}
	if in.AddressID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, CodeInvalidInput, "invalid address_id")
	}

	if in.ShippingMethod == "" {
		in.ShippingMethod = "standard"
	}
	if !isValidShippingMethod(in.ShippingMethod) {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, CodeInvalidInput, "invalid shipping_method")
	}
	if in.PaymentMethod == "" {
		in.PaymentMethod = "mock_gateway"
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//住所の存在＋所有チェック。他人の住所も「存在しない」扱い
		addr, err := r.Addresses().FindByID(ctx, in.AddressID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, CodeAddressNotFound, "address not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
		}
		if addr.UserID != userID {
			return NewHTTPError(http.StatusNotFound, CodeAddressNotFound, "address not found")
		}

		//明細の解決：直接購入 or カート
		lines := in.Items
		fromCart := false
		var cartID int64

		if len(lines) == 0 {
			cart, err := r.Carts().FindByUserID(ctx, userID)
			if err == repo.ErrNotFound {
				return NewHTTPError(http.StatusBadRequest, CodeEmptyOrder, "no items in cart")
			}
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
			}

			cartItems, err := r.CartItems().ListByCartID(ctx, cart.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
			}

			for _, ci := range cartItems {
				lines = append(lines, DirectItem{ProductID: ci.ProductID, Quantity: ci.Quantity})
			}
			fromCart = true
			cartID = cart.ID
		}

		if len(lines) == 0 {
			return NewHTTPError(http.StatusBadRequest, CodeEmptyOrder, "no items in cart")
		}

		//各明細：重複チェック→在庫引き当て→現在のカタログ価格で再計算。
		//カートのスナップショット価格は表示用であり、請求額はここで決まる
		seen := make(map[int64]bool, len(lines))
		orderItems := make([]model.OrderItem, 0, len(lines))
		var itemsTotal int64 = 0

		for _, line := range lines {
			if line.ProductID <= 0 || line.Quantity < 1 {
				return NewHTTPError(http.StatusBadRequest, CodeInvalidQuantity, "invalid product data")
			}
			if seen[line.ProductID] {
				return NewHTTPError(http.StatusBadRequest, CodeDuplicateProduct, "duplicate product in order")
			}
			seen[line.ProductID] = true

			p, err := r.Products().FindByID(ctx, line.ProductID)
			if err == repo.ErrNotFound {
				return NewHTTPError(http.StatusNotFound, CodeProductNotFound,
					fmt.Sprintf("product not found: %d", line.ProductID))
			}
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
			}

			//引き当て。quantity >= qty を書き込み時に再検証するので
			//同時注文でも売り越さない
			ok, err := r.Inventory().RemoveStockIfEnough(ctx, line.ProductID, line.Quantity)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
			}
			if !ok {
				return NewHTTPError(http.StatusBadRequest, CodeInsufficientStock,
					fmt.Sprintf("insufficient stock for product: %s", p.Title))
			}

			orderItems = append(orderItems, model.OrderItem{
				ProductID:     line.ProductID,
				TitleSnapshot: p.Title,
				Price:         p.SellingPrice,
				Quantity:      line.Quantity,
			})

			itemsTotal += p.SellingPrice * line.Quantity
		}

		//重量はまだ商品側に持っていないので0
		shipCost := u.shippingCost(in.ShippingMethod, len(orderItems), 0)

		now := time.Now()
		order := model.Order{
			UserID:            userID,
			Status:            model.OrderStatusPending,
			PaymentStatus:     model.OrderPaymentPending,
			Total:             itemsTotal + shipCost,
			ShippingAddressID: in.AddressID,
			ShippingMethod:    in.ShippingMethod,
			ShippingCost:      shipCost,
			CreatedAt:         now,
			UpdatedAt:         now,
		}

		orderID, err := r.Orders().Create(ctx, order)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
		}

		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
		}

		//カート経由の注文ならカートをクリア
		if fromCart {
			if err := r.CartItems().DeleteByCartID(ctx, cartID); err != nil {
				return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
			}
		}

		//配送レコード（PENDING）
		shipping, err := r.Shippings().Create(ctx, model.Shipping{
			OrderID:        orderID,
			AddressID:      in.AddressID,
			ShippingMethod: in.ShippingMethod,
			Status:         model.ShippingStatusPending,
			ShippingCost:   shipCost,
		})
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
		}

		//初期Payment（PENDING）を作って注文に書き戻す
		payment, err := r.Payments().Create(ctx, model.Payment{
			OrderID:       orderID,
			PaymentMethod: in.PaymentMethod,
			Status:        model.PaymentStatusPending,
			Amount:        order.Total,
		})
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
		}
		if err := r.Orders().SetPaymentID(ctx, orderID, payment.ID); err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
		}

		order.ID = orderID
		order.PaymentID = &payment.ID
		out = toOrderOutput(order, orderItems)
		out.ShippingStatus = string(shipping.Status)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// CancelOrder はPENDINGの注文だけキャンセルできる。
// 在庫を台帳経由で戻し、配送もCANCELLEDにする。
func (u *OrderUsecase) CancelOrder(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, CodeInvalidInput, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, CodeOrderNotFound, "order not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
		}
		if o.UserID != userID {
			//他人の注文は「存在しない扱い」にする
			return NewHTTPError(http.StatusNotFound, CodeOrderNotFound, "order not found")
		}

		if o.Status != model.OrderStatusPending {
			return NewHTTPError(http.StatusConflict, CodeOrderNotCancellable, "order cannot be cancelled")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
		}

		//在庫戻し（台帳にcancel-restoreが残る）
		for _, it := range items {
			if _, err := r.Inventory().AddStock(ctx, it.ProductID, it.Quantity, model.ReasonCancelRestore); err != nil {
				return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
			}
		}

		if err := r.Orders().UpdateStatus(ctx, orderID, model.OrderStatusCancelled); err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
		}

		s, err := r.Shippings().FindByOrderID(ctx, orderID)
		if err == nil {
			if err := r.Shippings().UpdateStatus(ctx, s.ID, model.ShippingStatusCancelled); err != nil {
				return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
			}
			s.Status = model.ShippingStatusCancelled
		} else if err != repo.ErrNotFound {
			return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
		}

		o.Status = model.OrderStatusCancelled
		out = toOrderOutput(o, items)
		out.ShippingStatus = string(s.Status)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64) ([]OrderOutput, error) {
	if userID <= 0 {
		return []OrderOutput{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}

	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, _, err := r.Orders().ListByUserID(ctx, userID, 1, 50)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
		}

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
			}
			outs = append(outs, toOrderOutput(o, items))
		}
		return nil
	})

	if err != nil {
		return []OrderOutput{}, err
	}
	return outs, nil
}

func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, CodeInvalidInput, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, CodeOrderNotFound, "order not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
		}
		if o.UserID != userID {
			return NewHTTPError(http.StatusNotFound, CodeOrderNotFound, "order not found")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
		}

		out = toOrderOutput(o, items)

		if s, err := r.Shippings().FindByOrderID(ctx, orderID); err == nil {
			out.ShippingStatus = string(s.Status)
		}
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID: it.ProductID,
			Title:     it.TitleSnapshot,
			Price:     it.Price,
			Quantity:  it.Quantity,
		})
	}

	return OrderOutput{
		ID:                o.ID,
		UserID:            o.UserID,
		Status:            string(o.Status),
		PaymentStatus:     string(o.PaymentStatus),
		Total:             o.Total,
		ShippingAddressID: o.ShippingAddressID,
		ShippingMethod:    o.ShippingMethod,
		ShippingCost:      o.ShippingCost,
		PaymentID:         o.PaymentID,
		CreatedAt:         o.CreatedAt,
		Items:             outItems,
	}
}
