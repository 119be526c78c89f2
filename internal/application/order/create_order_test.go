package order

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/xiebiao/storefront/internal/domain/order"
	"github.com/xiebiao/storefront/internal/domain/payment"
	paymentmocks "github.com/xiebiao/storefront/internal/domain/payment/mocks"
	apperrors "github.com/xiebiao/storefront/pkg/errors"
)

const (
	userID      uint = 7
	keyboardID  uint = 1
	monitorID   uint = 2
	freebieID   uint = 3
	impUID           = "imp_1"
	merchantUID      = "mid_1"
)

type createFixture struct {
	store   *memoryStore
	gateway *paymentmocks.MockGateway
	events  *recordingEvents
	uc      *CreateOrderUseCase
}

func newCreateFixture(t *testing.T) *createFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	store := newMemoryStore()
	store.addProduct(keyboardID, "무선 키보드", 20000, 10, false)
	store.addProduct(monitorID, "모니터", 250000, 5, false)
	store.addProduct(freebieID, "마우스패드", 5000, 10, true)

	gw := paymentmocks.NewMockGateway(ctrl)
	events := &recordingEvents{}
	uc := NewCreateOrderUseCase(CreateOrderDeps{
		Orders:   &orderRepo{store: store},
		Products: &productRepo{store: store},
		Ledger:   &memoryLedger{store: store},
		Carts:    &cartRepo{store: store},
		Payments: payment.NewService(gw),
		Numbers:  order.NewNumberGenerator(&sequenceRepo{store: store}, nil),
		Tx:       &memoryTx{store: store},
		Events:   events,
		Pricing:  order.DefaultShippingPolicy(),
	})
	uc.now = func() time.Time { return testNow }
	return &createFixture{store: store, gateway: gw, events: events, uc: uc}
}

func paidRecord(imp, merchant string, amount int64) *payment.Record {
	return &payment.Record{
		ImpUID:      imp,
		MerchantUID: merchant,
		PayMethod:   "card",
		PGProvider:  "kcp",
		Amount:      amount,
		Status:      payment.RecordStatusPaid,
		PaidAt:      testNow.Unix(),
		CardName:    "신한카드",
		ApplyNum:    "30012345",
	}
}

func claim(imp, merchant string) order.Claim {
	return order.Claim{Method: order.PaymentMethodCard, ImpUID: imp, MerchantUID: merchant}
}

func cartRequest(imp, merchant string) CreateOrderRequest {
	return CreateOrderRequest{UserID: userID, Shipping: testShipping(), Payment: claim(imp, merchant)}
}

func TestCreateOrder_FromCart(t *testing.T) {
	f := newCreateFixture(t)
	ctx := context.Background()
	require.NoError(t, (&cartRepo{store: f.store}).Add(ctx, userID, keyboardID, 2))

	f.gateway.EXPECT().FetchPayment(gomock.Any(), impUID).Return(paidRecord(impUID, merchantUID, 43000), nil)

	res, err := f.uc.Execute(ctx, cartRequest(impUID, merchantUID))
	require.NoError(t, err)
	assert.False(t, res.Replayed)

	o := res.Order
	assert.Equal(t, "ORD-20251014-001", o.OrderNo)
	assert.Equal(t, order.StatusPaid, o.Status())
	assert.Equal(t, int64(40000), o.Amounts.ItemsPrice)
	assert.Equal(t, int64(3000), o.Amounts.ShippingFee)
	assert.Equal(t, int64(43000), o.Amounts.TotalPrice)
	assert.Equal(t, order.PaymentStatusCompleted, o.Payment.Status)
	assert.Equal(t, impUID, o.Payment.ImpUID)
	require.NotNil(t, o.Payment.Card)
	assert.Equal(t, "신한카드", o.Payment.Card.CardName)
	require.Len(t, o.History(), 1)
	assert.Equal(t, "订单创建", o.History()[0].Memo)

	assert.Equal(t, 8, f.store.stock(keyboardID))
	assert.Equal(t, 1, f.store.orderCount())
	assert.Equal(t, 1, f.store.cleared)
	require.Len(t, f.events.events, 1)
	assert.Equal(t, order.EventCreated, f.events.events[0].Type)
}

func TestCreateOrder_ExplicitItemsKeepCart(t *testing.T) {
	f := newCreateFixture(t)
	ctx := context.Background()
	require.NoError(t, (&cartRepo{store: f.store}).Add(ctx, userID, monitorID, 1))

	f.gateway.EXPECT().FetchPayment(gomock.Any(), impUID).Return(paidRecord(impUID, merchantUID, 55000), nil)

	req := cartRequest(impUID, merchantUID)
	req.Items = []CreateOrderItem{{ProductID: keyboardID, Quantity: 1}, {ProductID: freebieID, Quantity: 7}}
	res, err := f.uc.Execute(ctx, req)
	require.NoError(t, err)

	// 含包邮商品，免运费
	assert.Equal(t, int64(0), res.Order.Amounts.ShippingFee)
	assert.Equal(t, int64(55000), res.Order.Amounts.TotalPrice)
	assert.Equal(t, 0, f.store.cleared)
	assert.Equal(t, 3, f.store.stock(freebieID))
}

func TestCreateOrder_MergesRepeatedProduct(t *testing.T) {
	f := newCreateFixture(t)
	f.gateway.EXPECT().FetchPayment(gomock.Any(), impUID).Return(paidRecord(impUID, merchantUID, 60000), nil)

	req := cartRequest(impUID, merchantUID)
	req.Items = []CreateOrderItem{{ProductID: keyboardID, Quantity: 1}, {ProductID: keyboardID, Quantity: 2}}
	res, err := f.uc.Execute(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, res.Order.Items, 1)
	assert.Equal(t, 3, res.Order.Items[0].Quantity)
	// 60000达到免运费门槛
	assert.Equal(t, int64(0), res.Order.Amounts.ShippingFee)
	assert.Equal(t, 7, f.store.stock(keyboardID))
}

func TestCreateOrder_AmountMismatchCancelsPayment(t *testing.T) {
	f := newCreateFixture(t)
	ctx := context.Background()
	require.NoError(t, (&cartRepo{store: f.store}).Add(ctx, userID, keyboardID, 2))

	f.gateway.EXPECT().FetchPayment(gomock.Any(), impUID).Return(paidRecord(impUID, merchantUID, 40000), nil)
	f.gateway.EXPECT().
		Cancel(gomock.Any(), payment.CancelRequest{ImpUID: impUID, Reason: ReasonAmountMismatch}).
		Return(&payment.CancelResult{ImpUID: impUID, Status: payment.RecordStatusCancelled, CancelAmount: 40000}, nil)

	_, err := f.uc.Execute(ctx, cartRequest(impUID, merchantUID))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrPaymentVerification)
	assert.Contains(t, err.Error(), "支付金额不一致(预期: 43000, 实际: 40000)")

	assert.Equal(t, 10, f.store.stock(keyboardID))
	assert.Equal(t, 0, f.store.orderCount())
	assert.Equal(t, 0, f.store.cleared)
	assert.Empty(t, f.events.events)
}

func TestCreateOrder_AutoCancelFailureKeepsVerificationError(t *testing.T) {
	f := newCreateFixture(t)
	f.gateway.EXPECT().FetchPayment(gomock.Any(), impUID).Return(paidRecord(impUID, merchantUID, 42999), nil)
	f.gateway.EXPECT().Cancel(gomock.Any(), gomock.Any()).Return(nil, apperrors.ErrGatewayCancel)

	req := cartRequest(impUID, merchantUID)
	req.Items = []CreateOrderItem{{ProductID: keyboardID, Quantity: 2}}
	_, err := f.uc.Execute(context.Background(), req)
	assert.ErrorIs(t, err, apperrors.ErrPaymentVerification)
	assert.NotErrorIs(t, err, apperrors.ErrGatewayCancel)
}

func TestCreateOrder_ForeignPaymentIsNotCancelled(t *testing.T) {
	f := newCreateFixture(t)
	// 网关记录属于另一笔结算，金额也对不上；未设置Cancel预期，调用即失败
	f.gateway.EXPECT().FetchPayment(gomock.Any(), impUID).Return(paidRecord(impUID, "mid_other", 43000), nil)

	req := cartRequest(impUID, merchantUID)
	req.Items = []CreateOrderItem{{ProductID: keyboardID, Quantity: 2}}
	_, err := f.uc.Execute(context.Background(), req)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrPaymentVerification)
	assert.Contains(t, err.Error(), "支付记录的商户订单号不一致")

	req.Payment = claim(impUID, "mid_2")
	f.gateway.EXPECT().FetchPayment(gomock.Any(), impUID).Return(paidRecord(impUID, "mid_other", 40000), nil)
	_, err = f.uc.Execute(context.Background(), req)
	assert.ErrorIs(t, err, apperrors.ErrPaymentVerification)

	assert.Equal(t, 10, f.store.stock(keyboardID))
	assert.Equal(t, 0, f.store.orderCount())
}

func TestCreateOrder_UnpaidRecordIsNotCancelled(t *testing.T) {
	f := newCreateFixture(t)
	rec := paidRecord(impUID, merchantUID, 43000)
	rec.Status = payment.RecordStatusReady
	f.gateway.EXPECT().FetchPayment(gomock.Any(), impUID).Return(rec, nil)

	req := cartRequest(impUID, merchantUID)
	req.Items = []CreateOrderItem{{ProductID: keyboardID, Quantity: 2}}
	_, err := f.uc.Execute(context.Background(), req)
	assert.ErrorIs(t, err, apperrors.ErrPaymentVerification)
	assert.Contains(t, err.Error(), "支付未完成，状态: ready")
}

func TestCreateOrder_LookupFailureFailsClosed(t *testing.T) {
	f := newCreateFixture(t)
	f.gateway.EXPECT().FetchPayment(gomock.Any(), impUID).Return(nil, apperrors.ErrGatewayLookup)

	req := cartRequest(impUID, merchantUID)
	req.Items = []CreateOrderItem{{ProductID: keyboardID, Quantity: 2}}
	_, err := f.uc.Execute(context.Background(), req)
	assert.ErrorIs(t, err, apperrors.ErrPaymentVerification)
	assert.ErrorIs(t, err, apperrors.ErrGatewayLookup)
	assert.Equal(t, 10, f.store.stock(keyboardID))
}

func TestCreateOrder_DuplicateMerchantUIDReturnsOriginal(t *testing.T) {
	f := newCreateFixture(t)
	f.gateway.EXPECT().FetchPayment(gomock.Any(), impUID).Return(paidRecord(impUID, merchantUID, 43000), nil).Times(1)

	req := cartRequest(impUID, merchantUID)
	req.Items = []CreateOrderItem{{ProductID: keyboardID, Quantity: 2}}
	first, err := f.uc.Execute(context.Background(), req)
	require.NoError(t, err)

	second, err := f.uc.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.Order.ID, second.Order.ID)
	assert.Equal(t, first.Order.OrderNo, second.Order.OrderNo)
	assert.Equal(t, 8, f.store.stock(keyboardID))
	assert.Equal(t, 1, f.store.orderCount())
}

func TestCreateOrder_MerchantUIDOfAnotherUser(t *testing.T) {
	f := newCreateFixture(t)
	f.store.seedPaidOrder(t, 99, keyboardID, 1, "imp_other", merchantUID)

	req := cartRequest(impUID, merchantUID)
	req.Items = []CreateOrderItem{{ProductID: keyboardID, Quantity: 2}}
	_, err := f.uc.Execute(context.Background(), req)
	assert.ErrorIs(t, err, apperrors.ErrDuplicatePayment)
}

func TestCreateOrder_ImpUIDAlreadyBound(t *testing.T) {
	f := newCreateFixture(t)
	f.store.seedPaidOrder(t, userID, keyboardID, 1, impUID, "mid_other")

	req := cartRequest(impUID, merchantUID)
	req.Items = []CreateOrderItem{{ProductID: keyboardID, Quantity: 2}}
	_, err := f.uc.Execute(context.Background(), req)
	assert.ErrorIs(t, err, apperrors.ErrDuplicatePayment)
	assert.Equal(t, 9, f.store.stock(keyboardID))
}

func TestCreateOrder_ValidationBeforeGateway(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*CreateOrderRequest)
		wantErr error
	}{
		{
			name:    "缺少支付凭证",
			mutate:  func(r *CreateOrderRequest) { r.Payment.ImpUID = "" },
			wantErr: apperrors.ErrInvalidParams,
		},
		{
			name:    "收货信息不完整",
			mutate:  func(r *CreateOrderRequest) { r.Shipping.Address = "" },
			wantErr: apperrors.ErrInvalidParams,
		},
		{
			name:    "购物车为空",
			mutate:  func(r *CreateOrderRequest) {},
			wantErr: apperrors.ErrEmptyOrder,
		},
		{
			name:    "数量为0",
			mutate:  func(r *CreateOrderRequest) { r.Items = []CreateOrderItem{{ProductID: keyboardID, Quantity: 0}} },
			wantErr: apperrors.ErrInvalidParams,
		},
		{
			name:    "商品不存在",
			mutate:  func(r *CreateOrderRequest) { r.Items = []CreateOrderItem{{ProductID: 404, Quantity: 1}} },
			wantErr: apperrors.ErrProductNotFound,
		},
		{
			name:    "库存不足",
			mutate:  func(r *CreateOrderRequest) { r.Items = []CreateOrderItem{{ProductID: monitorID, Quantity: 6}} },
			wantErr: apperrors.ErrInsufficientStock,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// 网关mock没有任何预期，被调用即失败
			f := newCreateFixture(t)
			req := cartRequest(impUID, merchantUID)
			tt.mutate(&req)

			_, err := f.uc.Execute(context.Background(), req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 0, f.store.orderCount())
		})
	}
}

func TestCreateOrder_PersistFailureCompensates(t *testing.T) {
	f := newCreateFixture(t)

	// 校验期间库存被其他订单买走
	f.gateway.EXPECT().FetchPayment(gomock.Any(), impUID).
		DoAndReturn(func(context.Context, string) (*payment.Record, error) {
			f.store.setStock(keyboardID, 1)
			return paidRecord(impUID, merchantUID, 43000), nil
		})
	f.gateway.EXPECT().
		Cancel(gomock.Any(), payment.CancelRequest{ImpUID: impUID, Reason: "订单创建失败，自动取消"}).
		Return(&payment.CancelResult{ImpUID: impUID, Status: payment.RecordStatusCancelled}, nil)

	req := cartRequest(impUID, merchantUID)
	req.Items = []CreateOrderItem{{ProductID: keyboardID, Quantity: 2}}
	_, err := f.uc.Execute(context.Background(), req)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientStock)

	assert.Equal(t, 1, f.store.stock(keyboardID))
	assert.Equal(t, 0, f.store.orderCount())
	assert.Empty(t, f.events.events)
}

func TestCreateOrder_ConcurrentWinnerIsReturned(t *testing.T) {
	f := newCreateFixture(t)

	var winner *order.Order
	f.gateway.EXPECT().FetchPayment(gomock.Any(), impUID).
		DoAndReturn(func(context.Context, string) (*payment.Record, error) {
			// 同一merchant_uid的并发请求先落单
			winner = f.store.seedPaidOrder(t, userID, keyboardID, 2, "imp_winner", merchantUID)
			return paidRecord(impUID, merchantUID, 43000), nil
		})
	// 支付属于胜出订单的流程，不能补偿取消(未设置Cancel预期)

	req := cartRequest(impUID, merchantUID)
	req.Items = []CreateOrderItem{{ProductID: keyboardID, Quantity: 2}}
	res, err := f.uc.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, res.Replayed)
	assert.Equal(t, winner.ID, res.Order.ID)
	assert.Equal(t, 8, f.store.stock(keyboardID))
	assert.Equal(t, 1, f.store.orderCount())
}

func TestCreateOrder_SequentialOrderNumbers(t *testing.T) {
	f := newCreateFixture(t)
	ctx := context.Background()

	for i, ids := range [][2]string{{"imp_a", "mid_a"}, {"imp_b", "mid_b"}, {"imp_c", "mid_c"}} {
		f.gateway.EXPECT().FetchPayment(gomock.Any(), ids[0]).Return(paidRecord(ids[0], ids[1], 23000), nil)
		req := cartRequest(ids[0], ids[1])
		req.Items = []CreateOrderItem{{ProductID: keyboardID, Quantity: 1}}

		res, err := f.uc.Execute(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, order.FormatOrderNo("20251014", int64(i+1)), res.Order.OrderNo)
	}
	assert.Equal(t, 7, f.store.stock(keyboardID))
}
