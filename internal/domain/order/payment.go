package order

import "time"

// PaymentMethod 支付方式
type PaymentMethod string

const (
	PaymentMethodCard PaymentMethod = "card" // 信用卡
	PaymentMethodBank PaymentMethod = "bank" // 虚拟账户/转账
)

// Valid 是否为支持的支付方式
func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCard || m == PaymentMethodBank
}

// PaymentStatus 支付状态
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// CardInfo 卡支付明细
type CardInfo struct {
	CardName       string
	CardNumber     string // 网关返回的掩码卡号
	Installment    int    // 分期数，0为一次付清
	ApprovalNumber string
}

// BankInfo 虚拟账户明细
type BankInfo struct {
	BankName      string
	BankCode      string
	AccountNumber string
	Holder        string
	DueDate       *time.Time
}

// Payment 订单内嵌的支付信息
// ImpUID为网关支付凭证，MerchantUID为商户侧幂等键，两者在存在时全局唯一
type Payment struct {
	Method       PaymentMethod
	Status       PaymentStatus
	ImpUID       string
	MerchantUID  string
	PGProvider   string
	PGTid        string
	Amount       int64
	Card         *CardInfo
	Bank         *BankInfo
	ReceiptURL   string
	PaidAt       *time.Time
	CancelledAt  *time.Time
	CancelReason string
}

// IsCaptured 网关侧是否存在已扣款的支付
func (p Payment) IsCaptured() bool {
	return p.Status == PaymentStatusCompleted && p.ImpUID != ""
}

// Claim 客户端提交的支付凭证
type Claim struct {
	Method      PaymentMethod
	ImpUID      string
	MerchantUID string
}

// Validate 校验支付凭证
func (c Claim) Validate() error {
	if c.ImpUID == "" || c.MerchantUID == "" {
		return ErrMissingPaymentRef
	}
	if c.Method != "" && !c.Method.Valid() {
		return ErrInvalidPaymentMethod
	}
	return nil
}
