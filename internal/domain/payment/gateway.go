package payment

import (
	"context"
)

// 网关侧支付状态
const (
	RecordStatusReady     = "ready"
	RecordStatusPaid      = "paid"
	RecordStatusCancelled = "cancelled"
	RecordStatusFailed    = "failed"
)

// Record 网关返回的支付记录
// 字段含义与网关保持一致，通过Normalize转换为订单内嵌的支付信息
type Record struct {
	ImpUID       string
	MerchantUID  string
	PayMethod    string // card | vbank | trans ...
	PGProvider   string
	PGTid        string
	Amount       int64
	CancelAmount int64
	Status       string
	ReceiptURL   string
	PaidAt       int64 // epoch秒，0表示未支付

	CardName   string
	CardNumber string
	CardQuota  int
	ApplyNum   string

	VbankName   string
	VbankCode   string
	VbankNum    string
	VbankHolder string
	VbankDate   int64 // epoch秒
}

// CancelRequest 取消请求，Amount为nil时全额取消
type CancelRequest struct {
	ImpUID string
	Reason string
	Amount *int64
}

// CancelResult 取消结果
type CancelResult struct {
	ImpUID       string
	Status       string
	CancelAmount int64
}

//go:generate mockgen -source=gateway.go -destination=mocks/gateway.mock.go -package=paymentmocks

// Gateway 支付网关端口
// 实现方负责鉴权，返回的错误不得包含密钥或访问令牌
type Gateway interface {
	// FetchPayment 查询支付记录，失败返回apperrors.ErrGatewayLookup类错误
	FetchPayment(ctx context.Context, impUID string) (*Record, error)

	// Cancel 取消支付，失败返回apperrors.ErrGatewayCancel类错误
	Cancel(ctx context.Context, req CancelRequest) (*CancelResult, error)
}
