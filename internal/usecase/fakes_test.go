package usecase_test

import (
	"context"
	"sort"
	"strings"
	"time"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"
)

// =====================
// インメモリのrepo実装（テスト用）
// =====================

type memStore struct {
	nextID int64

	products    map[int64]model.Product
	inventories map[int64]model.Inventory // key: productID
	invTxns     []model.InventoryTransaction
	carts       map[int64]model.Cart
	cartItems   map[int64]model.CartItem
	orders      map[int64]model.Order
	orderItems  map[int64][]model.OrderItem // key: orderID
	payments    map[int64]model.Payment
	shippings   map[int64]model.Shipping
	addresses   map[int64]model.Address
}

func newMemStore() *memStore {
	return &memStore{
		products:    map[int64]model.Product{},
		inventories: map[int64]model.Inventory{},
		carts:       map[int64]model.Cart{},
		cartItems:   map[int64]model.CartItem{},
		orders:      map[int64]model.Order{},
		orderItems:  map[int64][]model.OrderItem{},
		payments:    map[int64]model.Payment{},
		shippings:   map[int64]model.Shipping{},
		addresses:   map[int64]model.Address{},
	}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

// ロールバック用のスナップショット
func (s *memStore) clone() *memStore {
	c := newMemStore()
	c.nextID = s.nextID
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.inventories {
		c.inventories[k] = v
	}
	c.invTxns = append(c.invTxns, s.invTxns...)
	for k, v := range s.carts {
		c.carts[k] = v
	}
	for k, v := range s.cartItems {
		c.cartItems[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.orderItems {
		items := make([]model.OrderItem, len(v))
		copy(items, v)
		c.orderItems[k] = items
	}
	for k, v := range s.payments {
		c.payments[k] = v
	}
	for k, v := range s.shippings {
		c.shippings[k] = v
	}
	for k, v := range s.addresses {
		c.addresses[k] = v
	}
	return c
}

func (s *memStore) restore(snap *memStore) {
	s.nextID = snap.nextID
	s.products = snap.products
	s.inventories = snap.inventories
	s.invTxns = snap.invTxns
	s.carts = snap.carts
	s.cartItems = snap.cartItems
	s.orders = snap.orders
	s.orderItems = snap.orderItems
	s.payments = snap.payments
	s.shippings = snap.shippings
	s.addresses = snap.addresses
}

// ---- Product ----

type memProductRepo struct{ s *memStore }

func (r memProductRepo) List(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	var ids []int64
	for id := range r.s.products {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var all []model.Product
	for _, id := range ids {
		p := r.s.products[id]
		if q.Q != "" {
			needle := strings.ToLower(q.Q)
			if !strings.Contains(strings.ToLower(p.Title), needle) &&
				!strings.Contains(strings.ToLower(p.Author), needle) {
				continue
			}
		}
		all = append(all, p)
	}

	total := int64(len(all))
	start := (q.Page - 1) * q.Limit
	if start >= len(all) {
		return []model.Product{}, total, nil
	}
	end := start + q.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r memProductRepo) FindByID(ctx context.Context, id int64) (model.Product, error) {
	p, ok := r.s.products[id]
	if !ok {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

func (r memProductRepo) Create(ctx context.Context, p model.Product) (model.Product, error) {
	p.ID = r.s.id()
	r.s.products[p.ID] = p
	return p, nil
}

func (r memProductRepo) Update(ctx context.Context, p model.Product) error {
	if _, ok := r.s.products[p.ID]; !ok {
		return repo.ErrNotFound
	}
	r.s.products[p.ID] = p
	return nil
}

// ---- Inventory ----

type memInventoryRepo struct{ s *memStore }

func (r memInventoryRepo) FindByProductID(ctx context.Context, productID int64) (model.Inventory, error) {
	inv, ok := r.s.inventories[productID]
	if !ok {
		return model.Inventory{}, repo.ErrNotFound
	}
	return inv, nil
}

func (r memInventoryRepo) AddStock(ctx context.Context, productID int64, qty int64, reason model.InventoryReason) (model.Inventory, error) {
	inv, ok := r.s.inventories[productID]
	if !ok {
		inv = model.Inventory{ID: r.s.id(), ProductID: productID, Quantity: 0}
	}
	inv.Quantity += qty
	r.s.inventories[productID] = inv

	r.s.invTxns = append(r.s.invTxns, model.InventoryTransaction{
		ID:        r.s.id(),
		ProductID: productID,
		Change:    qty,
		Reason:    reason,
		CreatedAt: time.Now(),
	})
	return inv, nil
}

func (r memInventoryRepo) RemoveStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error) {
	inv, ok := r.s.inventories[productID]
	if !ok || inv.Quantity < qty {
		return false, nil
	}
	inv.Quantity -= qty
	r.s.inventories[productID] = inv

	r.s.invTxns = append(r.s.invTxns, model.InventoryTransaction{
		ID:        r.s.id(),
		ProductID: productID,
		Change:    -qty,
		Reason:    model.ReasonOrder,
		CreatedAt: time.Now(),
	})
	return true, nil
}

func (r memInventoryRepo) ListTransactions(ctx context.Context, productID int64) ([]model.InventoryTransaction, error) {
	var out []model.InventoryTransaction
	for i := len(r.s.invTxns) - 1; i >= 0; i-- {
		if r.s.invTxns[i].ProductID == productID {
			out = append(out, r.s.invTxns[i])
		}
	}
	return out, nil
}

// ---- Cart ----

type memCartRepo struct{ s *memStore }

func (r memCartRepo) GetOrCreateByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	for _, c := range r.s.carts {
		if !c.IsGuest && c.UserID != nil && *c.UserID == userID {
			return c, nil
		}
	}
	uid := userID
	c := model.Cart{ID: r.s.id(), UserID: &uid, IsGuest: false}
	r.s.carts[c.ID] = c
	return c, nil
}

func (r memCartRepo) GetOrCreateGuestBySessionID(ctx context.Context, sessionID string) (model.Cart, error) {
	for _, c := range r.s.carts {
		if c.IsGuest && c.SessionID != nil && *c.SessionID == sessionID {
			return c, nil
		}
	}
	sid := sessionID
	c := model.Cart{ID: r.s.id(), SessionID: &sid, IsGuest: true}
	r.s.carts[c.ID] = c
	return c, nil
}

func (r memCartRepo) FindGuestBySessionID(ctx context.Context, sessionID string) (model.Cart, error) {
	for _, c := range r.s.carts {
		if c.IsGuest && c.SessionID != nil && *c.SessionID == sessionID {
			return c, nil
		}
	}
	return model.Cart{}, repo.ErrNotFound
}

func (r memCartRepo) FindByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	for _, c := range r.s.carts {
		if !c.IsGuest && c.UserID != nil && *c.UserID == userID {
			return c, nil
		}
	}
	return model.Cart{}, repo.ErrNotFound
}

func (r memCartRepo) DeleteByID(ctx context.Context, cartID int64) error {
	if _, ok := r.s.carts[cartID]; !ok {
		return repo.ErrNotFound
	}
	delete(r.s.carts, cartID)
	for id, it := range r.s.cartItems {
		if it.CartID == cartID {
			delete(r.s.cartItems, id)
		}
	}
	return nil
}

// ---- CartItem ----

type memCartItemRepo struct{ s *memStore }

func (r memCartItemRepo) ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error) {
	var ids []int64
	for id, it := range r.s.cartItems {
		if it.CartID == cartID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]model.CartItem, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.s.cartItems[id])
	}
	return out, nil
}

func (r memCartItemRepo) FindByCartAndProduct(ctx context.Context, cartID int64, productID int64) (model.CartItem, error) {
	for _, it := range r.s.cartItems {
		if it.CartID == cartID && it.ProductID == productID {
			return it, nil
		}
	}
	return model.CartItem{}, repo.ErrNotFound
}

func (r memCartItemRepo) Create(ctx context.Context, item model.CartItem) (model.CartItem, error) {
	item.ID = r.s.id()
	r.s.cartItems[item.ID] = item
	return item, nil
}

func (r memCartItemRepo) UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error {
	it, ok := r.s.cartItems[cartItemID]
	if !ok {
		return repo.ErrNotFound
	}
	it.Quantity = qty
	r.s.cartItems[cartItemID] = it
	return nil
}

func (r memCartItemRepo) DeleteByCartAndProduct(ctx context.Context, cartID int64, productID int64) error {
	for id, it := range r.s.cartItems {
		if it.CartID == cartID && it.ProductID == productID {
			delete(r.s.cartItems, id)
			return nil
		}
	}
	return repo.ErrNotFound
}

func (r memCartItemRepo) DeleteByCartID(ctx context.Context, cartID int64) error {
	for id, it := range r.s.cartItems {
		if it.CartID == cartID {
			delete(r.s.cartItems, id)
		}
	}
	return nil
}

// ---- Order ----

type memOrderRepo struct{ s *memStore }

func (r memOrderRepo) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	o, ok := r.s.orders[orderID]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	return o, nil
}

func (r memOrderRepo) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	var ids []int64
	for id, o := range r.s.orders {
		if o.UserID == userID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })

	total := int64(len(ids))
	start := (page - 1) * limit
	if start >= len(ids) {
		return []model.Order{}, total, nil
	}
	end := start + limit
	if end > len(ids) {
		end = len(ids)
	}

	out := make([]model.Order, 0, end-start)
	for _, id := range ids[start:end] {
		out = append(out, r.s.orders[id])
	}
	return out, total, nil
}

func (r memOrderRepo) Create(ctx context.Context, order model.Order) (int64, error) {
	order.ID = r.s.id()
	r.s.orders[order.ID] = order
	return order.ID, nil
}

func (r memOrderRepo) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	o, ok := r.s.orders[orderID]
	if !ok {
		return repo.ErrNotFound
	}
	o.Status = status
	r.s.orders[orderID] = o
	return nil
}

func (r memOrderRepo) UpdatePaymentStatus(ctx context.Context, orderID int64, status model.OrderPaymentStatus) error {
	o, ok := r.s.orders[orderID]
	if !ok {
		return repo.ErrNotFound
	}
	o.PaymentStatus = status
	r.s.orders[orderID] = o
	return nil
}

func (r memOrderRepo) SetPaymentID(ctx context.Context, orderID int64, paymentID int64) error {
	o, ok := r.s.orders[orderID]
	if !ok {
		return repo.ErrNotFound
	}
	pid := paymentID
	o.PaymentID = &pid
	r.s.orders[orderID] = o
	return nil
}

// ---- OrderItem ----

type memOrderItemRepo struct{ s *memStore }

func (r memOrderItemRepo) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	for _, it := range items {
		it.ID = r.s.id()
		it.OrderID = orderID
		r.s.orderItems[orderID] = append(r.s.orderItems[orderID], it)
	}
	return nil
}

func (r memOrderItemRepo) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	items := r.s.orderItems[orderID]
	out := make([]model.OrderItem, len(items))
	copy(out, items)
	return out, nil
}

// ---- Payment ----

type memPaymentRepo struct{ s *memStore }

func (r memPaymentRepo) Create(ctx context.Context, p model.Payment) (model.Payment, error) {
	p.ID = r.s.id()
	r.s.payments[p.ID] = p
	return p, nil
}

func (r memPaymentRepo) FindByID(ctx context.Context, paymentID int64) (model.Payment, error) {
	p, ok := r.s.payments[paymentID]
	if !ok {
		return model.Payment{}, repo.ErrNotFound
	}
	return p, nil
}

func (r memPaymentRepo) Update(ctx context.Context, p model.Payment) error {
	if _, ok := r.s.payments[p.ID]; !ok {
		return repo.ErrNotFound
	}
	r.s.payments[p.ID] = p
	return nil
}

// ---- Shipping ----

type memShippingRepo struct{ s *memStore }

func (r memShippingRepo) Create(ctx context.Context, s model.Shipping) (model.Shipping, error) {
	s.ID = r.s.id()
	r.s.shippings[s.ID] = s
	return s, nil
}

func (r memShippingRepo) FindByOrderID(ctx context.Context, orderID int64) (model.Shipping, error) {
	for _, s := range r.s.shippings {
		if s.OrderID == orderID {
			return s, nil
		}
	}
	return model.Shipping{}, repo.ErrNotFound
}

func (r memShippingRepo) UpdateStatus(ctx context.Context, shippingID int64, status model.ShippingStatus) error {
	s, ok := r.s.shippings[shippingID]
	if !ok {
		return repo.ErrNotFound
	}
	s.Status = status
	r.s.shippings[shippingID] = s
	return nil
}

// ---- Address ----

type memAddressRepo struct{ s *memStore }

func (r memAddressRepo) Create(ctx context.Context, address model.Address) (model.Address, error) {
	address.ID = r.s.id()
	r.s.addresses[address.ID] = address
	return address, nil
}

func (r memAddressRepo) ListByUserID(ctx context.Context, userID int64) ([]model.Address, error) {
	var out []model.Address
	for _, a := range r.s.addresses {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memAddressRepo) FindByID(ctx context.Context, addressID int64) (model.Address, error) {
	a, ok := r.s.addresses[addressID]
	if !ok {
		return model.Address{}, repo.ErrNotFound
	}
	return a, nil
}

// ---- TxRepos / TransactionManager ----

type memTxRepos struct{ s *memStore }

func (r memTxRepos) Products() repo.ProductRepository     { return memProductRepo{r.s} }
func (r memTxRepos) Inventory() repo.InventoryRepository  { return memInventoryRepo{r.s} }
func (r memTxRepos) Carts() repo.CartRepository           { return memCartRepo{r.s} }
func (r memTxRepos) CartItems() repo.CartItemRepository   { return memCartItemRepo{r.s} }
func (r memTxRepos) Orders() repo.OrderRepository         { return memOrderRepo{r.s} }
func (r memTxRepos) OrderItems() repo.OrderItemRepository { return memOrderItemRepo{r.s} }
func (r memTxRepos) Payments() repo.PaymentRepository     { return memPaymentRepo{r.s} }
func (r memTxRepos) Shippings() repo.ShippingRepository   { return memShippingRepo{r.s} }
func (r memTxRepos) Addresses() repo.AddressRepository    { return memAddressRepo{r.s} }

// fnがerrorを返したらスナップショットに戻す（DBのロールバック相当）
type memTxManager struct{ s *memStore }

func (tm memTxManager) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	snap := tm.s.clone()
	if err := fn(memTxRepos{tm.s}); err != nil {
		tm.s.restore(snap)
		return err
	}
	return nil
}

// =====================
// seedヘルパ
// =====================

func seedProduct(s *memStore, title string, price int64, stock int64) model.Product {
	p := model.Product{ID: s.id(), Title: title, Author: "author", SellingPrice: price, CostPrice: price / 2}
	s.products[p.ID] = p
	if stock > 0 {
		_, _ = memInventoryRepo{s}.AddStock(context.Background(), p.ID, stock, model.ReasonInitialStock)
	}
	return p
}

func seedAddress(s *memStore, userID int64) model.Address {
	a := model.Address{
		ID:         s.id(),
		UserID:     userID,
		Name:       "Taro Yamada",
		PostalCode: "100-0001",
		Country:    "JP",
		City:       "Tokyo",
		Line1:      "1-1-1 Chiyoda",
	}
	s.addresses[a.ID] = a
	return a
}
