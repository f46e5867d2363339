package usecase_test

import (
	"context"
	"net/http"
	"testing"

	"bookstore/internal/domain/model"
	"bookstore/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrderUsecase(s *memStore) *usecase.OrderUsecase {
	return usecase.NewOrderUsecase(memTxManager{s}, usecase.DefaultShippingCost)
}

func TestPlaceOrder_FromCart(t *testing.T) {
	s := newMemStore()
	cartUC := newCartUsecase(s)
	orderUC := newOrderUsecase(s)

	p1 := seedProduct(s, "Go入門", 2500, 10)
	p2 := seedProduct(s, "Go実践", 3200, 5)
	addr := seedAddress(s, 42)

	_, err := cartUC.AddItem(context.Background(), "", 42, usecase.AddItemInput{ProductID: p1.ID, Quantity: 2})
	require.NoError(t, err)
	_, err = cartUC.AddItem(context.Background(), "", 42, usecase.AddItemInput{ProductID: p2.ID, Quantity: 1})
	require.NoError(t, err)

	out, err := orderUC.PlaceOrder(context.Background(), 42, usecase.PlaceOrderInput{AddressID: addr.ID})
	require.NoError(t, err)

	//standard 2明細: 599 + 150
	assert.Equal(t, int64(749), out.ShippingCost)
	assert.Equal(t, int64(2500*2+3200*1+749), out.Total)
	assert.Equal(t, string(model.OrderStatusPending), out.Status)
	assert.Equal(t, string(model.OrderPaymentPending), out.PaymentStatus)
	assert.Equal(t, "standard", out.ShippingMethod)
	require.NotNil(t, out.PaymentID)
	require.Len(t, out.Items, 2)

	//在庫が引き当てられている
	assert.Equal(t, int64(8), s.inventories[p1.ID].Quantity)
	assert.Equal(t, int64(4), s.inventories[p2.ID].Quantity)

	//カートはクリアされる
	cart, err := cartUC.GetCart(context.Background(), "", 42)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	//初期Paymentと配送レコード
	p := s.payments[*out.PaymentID]
	assert.Equal(t, model.PaymentStatusPending, p.Status)
	assert.Equal(t, out.Total, p.Amount)
	assert.Equal(t, string(model.ShippingStatusPending), out.ShippingStatus)
}

func TestPlaceOrder_ChargesCurrentCatalogPrice(t *testing.T) {
	s := newMemStore()
	cartUC := newCartUsecase(s)
	orderUC := newOrderUsecase(s)

	p := seedProduct(s, "Go入門", 2500, 10)
	addr := seedAddress(s, 42)

	_, err := cartUC.AddItem(context.Background(), "", 42, usecase.AddItemInput{ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)

	//カート追加後に値上げ
	p.SellingPrice = 3000
	s.products[p.ID] = p

	out, err := orderUC.PlaceOrder(context.Background(), 42, usecase.PlaceOrderInput{AddressID: addr.ID})
	require.NoError(t, err)

	//請求はカートのスナップショットではなく現在価格
	require.Len(t, out.Items, 1)
	assert.Equal(t, int64(3000), out.Items[0].Price)
	assert.Equal(t, int64(3000+599), out.Total)
}

func TestPlaceOrder_DirectItems_ExpressShipping(t *testing.T) {
	s := newMemStore()
	orderUC := newOrderUsecase(s)

	p := seedProduct(s, "Go入門", 2500, 10)
	addr := seedAddress(s, 42)

	out, err := orderUC.PlaceOrder(context.Background(), 42, usecase.PlaceOrderInput{
		AddressID:      addr.ID,
		Items:          []usecase.DirectItem{{ProductID: p.ID, Quantity: 3}},
		ShippingMethod: "express",
	})
	require.NoError(t, err)

	//express 1明細: 599 + 799
	assert.Equal(t, int64(1398), out.ShippingCost)
	assert.Equal(t, int64(2500*3+1398), out.Total)
	assert.Equal(t, int64(7), s.inventories[p.ID].Quantity)
}

func TestPlaceOrder_InsufficientStock_RollsBack(t *testing.T) {
	s := newMemStore()
	orderUC := newOrderUsecase(s)

	p1 := seedProduct(s, "Go入門", 2500, 10)
	p2 := seedProduct(s, "Go実践", 3200, 1)
	addr := seedAddress(s, 42)

	_, err := orderUC.PlaceOrder(context.Background(), 42, usecase.PlaceOrderInput{
		AddressID: addr.ID,
		Items: []usecase.DirectItem{
			{ProductID: p1.ID, Quantity: 2},
			{ProductID: p2.ID, Quantity: 5},
		},
	})

	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Status)
	assert.Equal(t, usecase.CodeInsufficientStock, he.Code)
	assert.Contains(t, he.Message, "Go実践")

	//p1の引き当ても巻き戻る
	assert.Equal(t, int64(10), s.inventories[p1.ID].Quantity)
	assert.Equal(t, int64(1), s.inventories[p2.ID].Quantity)
	assert.Empty(t, s.orders)
}

func TestPlaceOrder_DuplicateProduct(t *testing.T) {
	s := newMemStore()
	orderUC := newOrderUsecase(s)

	p := seedProduct(s, "Go入門", 2500, 10)
	addr := seedAddress(s, 42)

	_, err := orderUC.PlaceOrder(context.Background(), 42, usecase.PlaceOrderInput{
		AddressID: addr.ID,
		Items: []usecase.DirectItem{
			{ProductID: p.ID, Quantity: 1},
			{ProductID: p.ID, Quantity: 2},
		},
	})

	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, usecase.CodeDuplicateProduct, he.Code)
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	s := newMemStore()
	orderUC := newOrderUsecase(s)
	addr := seedAddress(s, 42)

	_, err := orderUC.PlaceOrder(context.Background(), 42, usecase.PlaceOrderInput{AddressID: addr.ID})

	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Status)
	assert.Equal(t, usecase.CodeEmptyOrder, he.Code)
}

func TestPlaceOrder_ForeignAddressIsNotFound(t *testing.T) {
	s := newMemStore()
	orderUC := newOrderUsecase(s)

	p := seedProduct(s, "Go入門", 2500, 10)
	addr := seedAddress(s, 99) //他人の住所

	_, err := orderUC.PlaceOrder(context.Background(), 42, usecase.PlaceOrderInput{
		AddressID: addr.ID,
		Items:     []usecase.DirectItem{{ProductID: p.ID, Quantity: 1}},
	})

	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, he.Status)
	assert.Equal(t, usecase.CodeAddressNotFound, he.Code)
}

func TestPlaceOrder_InvalidShippingMethod(t *testing.T) {
	s := newMemStore()
	orderUC := newOrderUsecase(s)

	p := seedProduct(s, "Go入門", 2500, 10)
	addr := seedAddress(s, 42)

	_, err := orderUC.PlaceOrder(context.Background(), 42, usecase.PlaceOrderInput{
		AddressID:      addr.ID,
		Items:          []usecase.DirectItem{{ProductID: p.ID, Quantity: 1}},
		ShippingMethod: "teleport",
	})

	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Status)
}

func TestCancelOrder_RestoresStock(t *testing.T) {
	s := newMemStore()
	orderUC := newOrderUsecase(s)

	p := seedProduct(s, "Go入門", 2500, 10)
	addr := seedAddress(s, 42)

	placed, err := orderUC.PlaceOrder(context.Background(), 42, usecase.PlaceOrderInput{
		AddressID: addr.ID,
		Items:     []usecase.DirectItem{{ProductID: p.ID, Quantity: 4}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(6), s.inventories[p.ID].Quantity)

	out, err := orderUC.CancelOrder(context.Background(), 42, placed.ID)
	require.NoError(t, err)

	assert.Equal(t, string(model.OrderStatusCancelled), out.Status)
	assert.Equal(t, string(model.ShippingStatusCancelled), out.ShippingStatus)
	assert.Equal(t, int64(10), s.inventories[p.ID].Quantity)

	//台帳にcancel-restoreが残る
	txns, err := memInventoryRepo{s}.ListTransactions(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReasonCancelRestore, txns[0].Reason)
	assert.Equal(t, int64(4), txns[0].Change)
}

func TestCancelOrder_NonPendingIsConflict(t *testing.T) {
	s := newMemStore()
	orderUC := newOrderUsecase(s)

	p := seedProduct(s, "Go入門", 2500, 10)
	addr := seedAddress(s, 42)

	placed, err := orderUC.PlaceOrder(context.Background(), 42, usecase.PlaceOrderInput{
		AddressID: addr.ID,
		Items:     []usecase.DirectItem{{ProductID: p.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	o := s.orders[placed.ID]
	o.Status = model.OrderStatusProcessing
	s.orders[placed.ID] = o

	_, err = orderUC.CancelOrder(context.Background(), 42, placed.ID)

	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusConflict, he.Status)
	assert.Equal(t, usecase.CodeOrderNotCancellable, he.Code)
}

func TestCancelOrder_ForeignOrderIsNotFound(t *testing.T) {
	s := newMemStore()
	orderUC := newOrderUsecase(s)

	p := seedProduct(s, "Go入門", 2500, 10)
	addr := seedAddress(s, 42)

	placed, err := orderUC.PlaceOrder(context.Background(), 42, usecase.PlaceOrderInput{
		AddressID: addr.ID,
		Items:     []usecase.DirectItem{{ProductID: p.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = orderUC.CancelOrder(context.Background(), 99, placed.ID)

	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, he.Status)
	assert.Equal(t, usecase.CodeOrderNotFound, he.Code)
}

func TestListMyOrders_And_Detail(t *testing.T) {
	s := newMemStore()
	orderUC := newOrderUsecase(s)

	p := seedProduct(s, "Go入門", 2500, 10)
	addr := seedAddress(s, 42)

	placed, err := orderUC.PlaceOrder(context.Background(), 42, usecase.PlaceOrderInput{
		AddressID: addr.ID,
		Items:     []usecase.DirectItem{{ProductID: p.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	list, err := orderUC.ListMyOrders(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, placed.ID, list[0].ID)

	detail, err := orderUC.GetMyOrderDetail(context.Background(), 42, placed.ID)
	require.NoError(t, err)
	assert.Equal(t, placed.Total, detail.Total)
	assert.Equal(t, string(model.ShippingStatusPending), detail.ShippingStatus)
	require.Len(t, detail.Items, 1)
	assert.Equal(t, "Go入門", detail.Items[0].Title)

	//他人からは見えない
	_, err = orderUC.GetMyOrderDetail(context.Background(), 7, placed.ID)
	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, he.Status)
}
