package order

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xiebiao/storefront/internal/domain/cart"
	"github.com/xiebiao/storefront/internal/domain/inventory"
	"github.com/xiebiao/storefront/internal/domain/order"
	"github.com/xiebiao/storefront/internal/domain/product"
)

var testNow = time.Date(2025, 10, 14, 9, 30, 0, 0, time.UTC)

// memoryStore 内存版存储，Transaction失败时整体回滚
type memoryStore struct {
	mu        sync.Mutex
	nextID    uint
	products  map[uint]*product.Product
	orders    []*order.Order
	carts     map[uint][]cart.Item
	sequences map[string]int64
	movements map[string]bool
	cleared   int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		products:  map[uint]*product.Product{},
		carts:     map[uint][]cart.Item{},
		sequences: map[string]int64{},
		movements: map[string]bool{},
	}
}

type storeSnapshot struct {
	nextID    uint
	stock     map[uint]int
	orders    []*order.Order
	sequences map[string]int64
	movements map[string]bool
}

func (s *memoryStore) snapshot() storeSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := storeSnapshot{
		nextID:    s.nextID,
		stock:     map[uint]int{},
		orders:    append([]*order.Order(nil), s.orders...),
		sequences: map[string]int64{},
		movements: map[string]bool{},
	}
	for id, p := range s.products {
		snap.stock[id] = p.Stock
	}
	for k, v := range s.sequences {
		snap.sequences[k] = v
	}
	for k, v := range s.movements {
		snap.movements[k] = v
	}
	return snap
}

func (s *memoryStore) restore(snap storeSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID = snap.nextID
	s.orders = snap.orders
	s.sequences = snap.sequences
	s.movements = snap.movements
	for id, stock := range snap.stock {
		s.products[id].Stock = stock
	}
}

func (s *memoryStore) addProduct(id uint, name string, price int64, stock int, freeShipping bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[id] = &product.Product{ID: id, SKU: fmt.Sprintf("SKU-%d", id), Name: name, Price: price, Stock: stock, FreeShipping: freeShipping}
}

func (s *memoryStore) stock(id uint) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id].Stock
}

func (s *memoryStore) setStock(id uint, stock int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[id].Stock = stock
}

func (s *memoryStore) orderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

func (s *memoryStore) stored(id uint) *order.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.ID == id {
			return cloneOrder(o)
		}
	}
	return nil
}

// seedPaidOrder 写入一笔已支付订单并扣减库存
func (s *memoryStore) seedPaidOrder(t *testing.T, userID uint, productID uint, quantity int, impUID, merchantUID string) *order.Order {
	t.Helper()
	s.mu.Lock()
	p := s.products[productID]
	s.mu.Unlock()

	items := []order.OrderItem{{ProductID: p.ID, Name: p.Name, Price: p.Price, Quantity: quantity}}
	amounts := order.DefaultShippingPolicy().Price(items)
	paidAt := testNow
	o, err := order.NewOrder(order.NewOrderParams{
		UserID:   userID,
		Items:    items,
		Shipping: testShipping(),
		Amounts:  amounts,
		Payment: order.Payment{
			Method:      order.PaymentMethodCard,
			Status:      order.PaymentStatusCompleted,
			ImpUID:      impUID,
			MerchantUID: merchantUID,
			Amount:      amounts.TotalPrice,
			PaidAt:      &paidAt,
		},
		Status: order.StatusPaid,
		Now:    testNow,
	})
	require.NoError(t, err)

	ctx := context.Background()
	no, err := (&sequenceRepo{s}).Next(ctx, "20251014")
	require.NoError(t, err)
	require.NoError(t, o.AssignOrderNo(order.FormatOrderNo("20251014", no)))
	require.NoError(t, (&orderRepo{store: s}).Create(ctx, o))
	require.NoError(t, (&memoryLedger{s}).Decrement(ctx, o.ID, productID, quantity))
	return o
}

func testShipping() order.Shipping {
	return order.Shipping{Recipient: "김철수", Phone: "010-1234-5678", ZipCode: "06236", Address: "서울시 강남구 테헤란로 1"}
}

func cloneOrder(o *order.Order) *order.Order {
	data, err := json.Marshal(o)
	if err != nil {
		panic(err)
	}
	var c order.Order
	if err := json.Unmarshal(data, &c); err != nil {
		panic(err)
	}
	return &c
}

type memoryTx struct {
	store *memoryStore
}

func (m *memoryTx) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := m.store.snapshot()
	if err := fn(ctx); err != nil {
		m.store.restore(snap)
		return err
	}
	return nil
}

type orderRepo struct {
	store *memoryStore
}

func (r *orderRepo) Create(_ context.Context, o *order.Order) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.orders {
		switch {
		case o.Payment.MerchantUID != "" && existing.Payment.MerchantUID == o.Payment.MerchantUID:
			return order.ErrDuplicateMerchantUID
		case o.Payment.ImpUID != "" && existing.Payment.ImpUID == o.Payment.ImpUID:
			return order.ErrDuplicatePayment
		case existing.OrderNo == o.OrderNo:
			return order.ErrDuplicateOrderNo
		}
	}
	s.nextID++
	o.ID = s.nextID
	s.orders = append(s.orders, cloneOrder(o))
	return nil
}

func (r *orderRepo) find(match func(o *order.Order) bool) (*order.Order, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if match(o) {
			return cloneOrder(o), nil
		}
	}
	return nil, order.ErrOrderNotFound
}

func (r *orderRepo) FindByID(_ context.Context, id uint) (*order.Order, error) {
	return r.find(func(o *order.Order) bool { return o.ID == id })
}

func (r *orderRepo) FindByOrderNo(_ context.Context, no string) (*order.Order, error) {
	return r.find(func(o *order.Order) bool { return o.OrderNo == no })
}

func (r *orderRepo) FindByMerchantUID(_ context.Context, uid string) (*order.Order, error) {
	return r.find(func(o *order.Order) bool { return uid != "" && o.Payment.MerchantUID == uid })
}

func (r *orderRepo) FindByImpUID(_ context.Context, uid string) (*order.Order, error) {
	return r.find(func(o *order.Order) bool { return uid != "" && o.Payment.ImpUID == uid })
}

func (r *orderRepo) UpdateStatus(_ context.Context, o *order.Order, from order.Status) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.orders {
		if existing.ID != o.ID {
			continue
		}
		if existing.Status() != from {
			return order.ErrConcurrentModification
		}
		s.orders[i] = cloneOrder(o)
		return nil
	}
	return order.ErrOrderNotFound
}

func (r *orderRepo) UpdateAdminMemo(_ context.Context, id uint, memo string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.orders {
		if existing.ID == id {
			c := cloneOrder(existing)
			c.AdminMemo = memo
			s.orders[i] = c
			return nil
		}
	}
	return order.ErrOrderNotFound
}

func (r *orderRepo) filtered(f order.ListFilter) []*order.Order {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*order.Order
	for _, o := range s.orders {
		if f.UserID != 0 && o.UserID != f.UserID {
			continue
		}
		if len(f.Statuses) > 0 && !containsStatus(f.Statuses, o.Status()) {
			continue
		}
		if f.StartDate != nil && o.CreatedAt.Before(*f.StartDate) {
			continue
		}
		if f.EndDate != nil && !o.CreatedAt.Before(*f.EndDate) {
			continue
		}
		out = append(out, cloneOrder(o))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (r *orderRepo) List(_ context.Context, f order.ListFilter) ([]*order.Order, error) {
	all := r.filtered(f)
	start := f.Offset()
	if start >= len(all) {
		return []*order.Order{}, nil
	}
	end := start + f.PageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

func (r *orderRepo) Count(_ context.Context, f order.ListFilter) (int64, error) {
	return int64(len(r.filtered(f))), nil
}

func (r *orderRepo) CountByStatus(_ context.Context) (map[order.Status]int64, error) {
	counts := map[order.Status]int64{}
	for _, o := range r.filtered(order.ListFilter{}) {
		counts[o.Status()]++
	}
	return counts, nil
}

func (r *orderRepo) SumTotalPrice(_ context.Context, excluded []order.Status) (int64, error) {
	var sum int64
	for _, o := range r.filtered(order.ListFilter{}) {
		if !containsStatus(excluded, o.Status()) {
			sum += o.Amounts.TotalPrice
		}
	}
	return sum, nil
}

func containsStatus(list []order.Status, s order.Status) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

type productRepo struct {
	store *memoryStore
}

func (r *productRepo) Create(_ context.Context, p *product.Product) error {
	r.store.addProduct(p.ID, p.Name, p.Price, p.Stock, p.FreeShipping)
	return nil
}

func (r *productRepo) FindByID(_ context.Context, id uint) (*product.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.products[id]
	if !ok {
		return nil, product.ErrProductNotFound
	}
	c := *p
	return &c, nil
}

func (r *productRepo) FindBySKU(_ context.Context, sku string) (*product.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, p := range r.store.products {
		if p.SKU == sku {
			c := *p
			return &c, nil
		}
	}
	return nil, product.ErrProductNotFound
}

type memoryLedger struct {
	store *memoryStore
}

func movementKey(orderID, productID uint, kind inventory.MovementKind) string {
	return fmt.Sprintf("%d/%d/%s", orderID, productID, kind)
}

func (l *memoryLedger) EnsureAvailable(_ context.Context, productID uint, quantity int) error {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	p, ok := l.store.products[productID]
	if !ok {
		return product.ErrProductNotFound
	}
	if p.Stock < quantity {
		return inventory.ErrInsufficientStock
	}
	return nil
}

func (l *memoryLedger) Decrement(_ context.Context, orderID, productID uint, quantity int) error {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	key := movementKey(orderID, productID, inventory.MovementDecrement)
	if l.store.movements[key] {
		return inventory.ErrDuplicateMovement
	}
	p, ok := l.store.products[productID]
	if !ok {
		return product.ErrProductNotFound
	}
	if p.Stock < quantity {
		return inventory.ErrInsufficientStock
	}
	p.Stock -= quantity
	l.store.movements[key] = true
	return nil
}

func (l *memoryLedger) Restore(_ context.Context, orderID, productID uint, quantity int) error {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	key := movementKey(orderID, productID, inventory.MovementRestore)
	if l.store.movements[key] {
		return nil
	}
	p, ok := l.store.products[productID]
	if !ok {
		return product.ErrProductNotFound
	}
	p.Stock += quantity
	l.store.movements[key] = true
	return nil
}

type cartRepo struct {
	store *memoryStore
}

func (r *cartRepo) Items(_ context.Context, userID uint) ([]cart.Item, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return append([]cart.Item{}, r.store.carts[userID]...), nil
}

func (r *cartRepo) Add(_ context.Context, userID, productID uint, quantity int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.carts[userID] = append(r.store.carts[userID], cart.Item{ProductID: productID, Quantity: quantity})
	return nil
}

func (r *cartRepo) Clear(_ context.Context, userID uint) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.carts, userID)
	r.store.cleared++
	return nil
}

type sequenceRepo struct {
	store *memoryStore
}

func (r *sequenceRepo) Next(_ context.Context, day string) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.sequences[day]++
	return r.store.sequences[day], nil
}

type recordingEvents struct {
	mu     sync.Mutex
	events []order.Event
}

func (r *recordingEvents) Publish(_ context.Context, e order.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

type memoryCache struct {
	mu      sync.Mutex
	data    map[uint]*order.Order
	deletes int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[uint]*order.Order{}}
}

func (c *memoryCache) Get(_ context.Context, id uint) (*order.Order, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if o, ok := c.data[id]; ok {
		return cloneOrder(o), nil
	}
	return nil, nil
}

func (c *memoryCache) Set(_ context.Context, o *order.Order) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[o.ID] = cloneOrder(o)
	return nil
}

func (c *memoryCache) Delete(_ context.Context, id uint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, id)
	c.deletes++
	return nil
}
