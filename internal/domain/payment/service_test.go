package payment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/storefront/internal/domain/order"
	apperrors "github.com/xiebiao/storefront/pkg/errors"
)

type stubGateway struct {
	record    *Record
	fetchErr  error
	cancelErr error
	cancels   []CancelRequest
}

func (g *stubGateway) FetchPayment(_ context.Context, _ string) (*Record, error) {
	if g.fetchErr != nil {
		return nil, g.fetchErr
	}
	return g.record, nil
}

func (g *stubGateway) Cancel(_ context.Context, req CancelRequest) (*CancelResult, error) {
	g.cancels = append(g.cancels, req)
	if g.cancelErr != nil {
		return nil, g.cancelErr
	}
	return &CancelResult{ImpUID: req.ImpUID, Status: RecordStatusCancelled}, nil
}

func TestVerify_AmountBinding(t *testing.T) {
	const expected int64 = 43000

	tests := []struct {
		name   string
		amount int64
		status string
		ok     bool
	}{
		{"金额一致且已支付", expected, RecordStatusPaid, true},
		{"少一元", expected - 1, RecordStatusPaid, false},
		{"多一元", expected + 1, RecordStatusPaid, false},
		{"未支付", expected, RecordStatusReady, false},
		{"已取消", expected, RecordStatusCancelled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(&stubGateway{record: &Record{ImpUID: "imp_1", Amount: tt.amount, Status: tt.status}})

			res, err := svc.Verify(context.Background(), "imp_1", "", expected)
			require.NoError(t, err)
			assert.Equal(t, tt.ok, res.OK)
			if !tt.ok {
				assert.NotEmpty(t, res.Reason)
			}
		})
	}
}

func TestVerify_Reasons(t *testing.T) {
	svc := NewService(&stubGateway{record: &Record{Amount: 40000, Status: RecordStatusPaid}})
	res, err := svc.Verify(context.Background(), "imp_1", "", 43000)
	require.NoError(t, err)
	assert.Equal(t, "支付金额不一致(预期: 43000, 实际: 40000)", res.Reason)
	assert.True(t, res.Captured())

	svc = NewService(&stubGateway{record: &Record{Amount: 43000, Status: RecordStatusReady}})
	res, err = svc.Verify(context.Background(), "imp_1", "", 43000)
	require.NoError(t, err)
	assert.Equal(t, "支付未完成，状态: ready", res.Reason)
	assert.False(t, res.Captured())
}

func TestVerify_MerchantUIDMismatch(t *testing.T) {
	tests := []struct {
		name   string
		amount int64
	}{
		{"金额一致", 1000},
		{"金额也不一致", 900},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(&stubGateway{record: &Record{MerchantUID: "mid_other", Amount: tt.amount, Status: RecordStatusPaid}})

			res, err := svc.Verify(context.Background(), "imp_1", "mid_1", 1000)
			require.NoError(t, err)
			assert.False(t, res.OK)
			assert.True(t, res.Foreign)
			assert.Equal(t, "支付记录的商户订单号不一致", res.Reason)
			// 其他订单的支付不能被当作本次扣款取消
			assert.False(t, res.Captured())
		})
	}
}

func TestVerify_LookupError(t *testing.T) {
	svc := NewService(&stubGateway{fetchErr: apperrors.ErrGatewayLookup})

	_, err := svc.Verify(context.Background(), "imp_1", "", 1000)
	assert.ErrorIs(t, err, apperrors.ErrGatewayLookup)
}

func TestRefund_SkipsAlreadyCancelled(t *testing.T) {
	gw := &stubGateway{record: &Record{ImpUID: "imp_1", Status: RecordStatusCancelled}}
	require.NoError(t, NewService(gw).Refund(context.Background(), "imp_1", "退款"))
	assert.Empty(t, gw.cancels)

	gw = &stubGateway{record: &Record{ImpUID: "imp_1", Status: RecordStatusPaid}}
	require.NoError(t, NewService(gw).Refund(context.Background(), "imp_1", "退款"))
	require.Len(t, gw.cancels, 1)
	assert.Nil(t, gw.cancels[0].Amount)
	assert.Equal(t, "退款", gw.cancels[0].Reason)
}

func TestNormalize_Card(t *testing.T) {
	p := Normalize(&Record{
		ImpUID: "imp_1", MerchantUID: "mid_1", PayMethod: "card", PGProvider: "html5_inicis", PGTid: "tid",
		Amount: 43000, Status: RecordStatusPaid, ReceiptURL: "https://receipt", PaidAt: 1760400000,
		CardName: "신한카드", CardNumber: "1234-****-****-5678", CardQuota: 3, ApplyNum: "30012345",
	})

	assert.Equal(t, order.PaymentMethodCard, p.Method)
	assert.Equal(t, order.PaymentStatusCompleted, p.Status)
	require.NotNil(t, p.Card)
	assert.Nil(t, p.Bank)
	assert.Equal(t, 3, p.Card.Installment)
	assert.Equal(t, "30012345", p.Card.ApprovalNumber)
	require.NotNil(t, p.PaidAt)
	assert.True(t, p.PaidAt.Equal(time.Unix(1760400000, 0)))
}

func TestNormalize_VirtualAccount(t *testing.T) {
	p := Normalize(&Record{
		PayMethod: "vbank", Status: RecordStatusReady,
		VbankName: "국민은행", VbankCode: "004", VbankNum: "123-456", VbankHolder: "스토어", VbankDate: 1760486400,
	})

	assert.Equal(t, order.PaymentMethodBank, p.Method)
	assert.Equal(t, order.PaymentStatusPending, p.Status)
	assert.Nil(t, p.Card)
	require.NotNil(t, p.Bank)
	assert.Equal(t, "004", p.Bank.BankCode)
	require.NotNil(t, p.Bank.DueDate)
	assert.Nil(t, p.PaidAt)
}
