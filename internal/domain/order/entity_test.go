package order

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 10, 14, 9, 30, 0, 0, time.UTC)

func validShipping() Shipping {
	return Shipping{Recipient: "김철수", Phone: "010-1234-5678", ZipCode: "06236", Address: "서울시 강남구 테헤란로 1"}
}

func newPaidOrder(t *testing.T) *Order {
	t.Helper()
	items := []OrderItem{{ProductID: 1, Name: "무선 키보드", Price: 20000, Quantity: 2}}
	o, err := NewOrder(NewOrderParams{
		UserID:   7,
		Items:    items,
		Shipping: validShipping(),
		Amounts:  DefaultShippingPolicy().Price(items),
		Payment: Payment{
			Method:      PaymentMethodCard,
			Status:      PaymentStatusCompleted,
			ImpUID:      "imp_1",
			MerchantUID: "mid_1",
			Amount:      43000,
		},
		Status: StatusPaid,
		Now:    testNow,
	})
	require.NoError(t, err)
	return o
}

func TestNewOrder_SeedsHistory(t *testing.T) {
	o := newPaidOrder(t)

	assert.Equal(t, StatusPaid, o.Status())
	require.Len(t, o.History(), 1)
	assert.Equal(t, StatusChange{Status: StatusPaid, ChangedAt: testNow, Memo: memoCreated}, o.History()[0])
	assert.Equal(t, int64(43000), o.Amounts.TotalPrice)
}

func TestNewOrder_Validation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(p *NewOrderParams)
		want   error
	}{
		{"空明细", func(p *NewOrderParams) { p.Items = nil }, ErrInvalidOrderItems},
		{"数量为0", func(p *NewOrderParams) { p.Items[0].Quantity = 0 }, ErrInvalidQuantity},
		{"缺少收货人", func(p *NewOrderParams) { p.Shipping.Recipient = "" }, ErrInvalidShipping},
		{"缺少地址", func(p *NewOrderParams) { p.Shipping.Address = "" }, ErrInvalidShipping},
		{"金额不一致", func(p *NewOrderParams) { p.Amounts.TotalPrice++ }, ErrAmountInconsistent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := []OrderItem{{ProductID: 1, Name: "A", Price: 1000, Quantity: 1}}
			p := NewOrderParams{UserID: 1, Items: items, Shipping: validShipping(), Amounts: DefaultShippingPolicy().Price(items)}
			tt.modify(&p)

			_, err := NewOrder(p)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNewOrder_OptionalShippingFields(t *testing.T) {
	items := []OrderItem{{ProductID: 1, Name: "A", Price: 1000, Quantity: 1}}
	o, err := NewOrder(NewOrderParams{UserID: 1, Items: items, Shipping: validShipping(), Amounts: DefaultShippingPolicy().Price(items)})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, o.Status())
	assert.Empty(t, o.Shipping.AddressDetail)
}

func TestNewOrder_CopiesItems(t *testing.T) {
	items := []OrderItem{{ProductID: 1, Name: "A", Price: 1000, Quantity: 1}}
	o, err := NewOrder(NewOrderParams{UserID: 1, Items: items, Shipping: validShipping(), Amounts: DefaultShippingPolicy().Price(items)})
	require.NoError(t, err)

	items[0].Price = 1
	assert.Equal(t, int64(1000), o.Items[0].Price)
}

func TestStatus_Transitions(t *testing.T) {
	tests := []struct {
		from, to Status
		ok       bool
	}{
		{StatusPending, StatusPaid, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusRefunded, false},
		{StatusPaid, StatusPreparing, true},
		{StatusPaid, StatusCancelled, true},
		{StatusPaid, StatusRefunded, true},
		{StatusPreparing, StatusShipping, true},
		{StatusPreparing, StatusCancelled, false},
		{StatusPreparing, StatusRefunded, true},
		{StatusShipping, StatusDelivered, true},
		{StatusShipping, StatusRefunded, true},
		{StatusDelivered, StatusRefunded, true},
		{StatusDelivered, StatusShipping, false},
		{StatusCancelled, StatusPaid, false},
		{StatusRefunded, StatusPaid, false},
		{StatusPaid, StatusPaid, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.ok, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestTransitionTo_AppendOnlyHistory(t *testing.T) {
	o := newPaidOrder(t)
	first := o.History()[0]

	steps := []Status{StatusPreparing, StatusShipping, StatusDelivered, StatusRefunded}
	for i, st := range steps {
		require.NoError(t, o.TransitionTo(st, "", testNow.Add(time.Duration(i+1)*time.Hour)))
	}

	history := o.History()
	assert.Len(t, history, len(steps)+1)
	assert.Equal(t, first, history[0])
	for i, st := range steps {
		assert.Equal(t, st, history[i+1].Status)
	}
	assert.Equal(t, StatusRefunded, o.Status())
	assert.Equal(t, PaymentStatusRefunded, o.Payment.Status)
	require.NotNil(t, o.Payment.CancelledAt)
}

func TestTransitionTo_Invalid(t *testing.T) {
	o := newPaidOrder(t)
	require.NoError(t, o.TransitionTo(StatusPreparing, "", testNow))

	err := o.TransitionTo(StatusCancelled, "", testNow)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
	assert.Equal(t, StatusPreparing, o.Status())
	assert.Len(t, o.History(), 2)
}

func TestTransitionTo_PaidStampsPayment(t *testing.T) {
	items := []OrderItem{{ProductID: 1, Name: "A", Price: 1000, Quantity: 1}}
	o, err := NewOrder(NewOrderParams{UserID: 1, Items: items, Shipping: validShipping(), Amounts: DefaultShippingPolicy().Price(items),
		Payment: Payment{Status: PaymentStatusPending}, Now: testNow})
	require.NoError(t, err)

	paidAt := testNow.Add(time.Minute)
	require.NoError(t, o.TransitionTo(StatusPaid, "입금 확인", paidAt))
	assert.Equal(t, PaymentStatusCompleted, o.Payment.Status)
	require.NotNil(t, o.Payment.PaidAt)
	assert.Equal(t, paidAt, *o.Payment.PaidAt)
}

func TestCancel(t *testing.T) {
	o := newPaidOrder(t)

	require.NoError(t, o.Cancel("", testNow))
	assert.Equal(t, StatusCancelled, o.Status())
	assert.Equal(t, memoCustomerCancel, o.LastChange().Memo)
	assert.Equal(t, PaymentStatusCancelled, o.Payment.Status)

	err := o.Cancel("再取消一次", testNow)
	assert.True(t, errors.Is(err, ErrNotCancellable))
	assert.Len(t, o.History(), 2)
}

func TestCancel_NotCancellableAfterPreparing(t *testing.T) {
	o := newPaidOrder(t)
	require.NoError(t, o.TransitionTo(StatusPreparing, "", testNow))

	assert.ErrorIs(t, o.Cancel("不想要了", testNow), ErrNotCancellable)
}

func TestAssignOrderNo_Once(t *testing.T) {
	o := newPaidOrder(t)
	require.NoError(t, o.AssignOrderNo("ORD-20251014-001"))
	assert.ErrorIs(t, o.AssignOrderNo("ORD-20251014-002"), ErrOrderNoAssigned)
	assert.Equal(t, "ORD-20251014-001", o.OrderNo)
}

func TestHistory_ReturnsCopy(t *testing.T) {
	o := newPaidOrder(t)
	h := o.History()
	h[0].Memo = "篡改"
	assert.Equal(t, memoCreated, o.History()[0].Memo)
}

func TestOrder_JSONKeepsStatusAndHistory(t *testing.T) {
	o := newPaidOrder(t)
	require.NoError(t, o.TransitionTo(StatusPreparing, "출고 준비", testNow.Add(time.Hour)))

	data, err := json.Marshal(o)
	require.NoError(t, err)

	var decoded Order
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, StatusPreparing, decoded.Status())
	assert.Len(t, decoded.History(), 2)
	assert.Equal(t, o.Payment.ImpUID, decoded.Payment.ImpUID)
	assert.Equal(t, o.Items, decoded.Items)
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus("shipping")
	require.NoError(t, err)
	assert.Equal(t, StatusShipping, st)

	_, err = ParseStatus("lost")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
