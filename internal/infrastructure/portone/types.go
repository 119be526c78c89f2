package portone

import (
	"github.com/xiebiao/storefront/internal/domain/payment"
)

// envelope 网关统一响应 {code, message, response}，code为0表示成功
type envelope[T any] struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	Response *T     `json:"response"`
}

type tokenRequest struct {
	ImpKey    string `json:"imp_key"`
	ImpSecret string `json:"imp_secret"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiredAt   int64  `json:"expired_at"`
	Now         int64  `json:"now"`
}

type cancelRequest struct {
	ImpUID string `json:"imp_uid"`
	Reason string `json:"reason,omitempty"`
	Amount *int64 `json:"amount,omitempty"`
}

type paymentResponse struct {
	ImpUID       string `json:"imp_uid"`
	MerchantUID  string `json:"merchant_uid"`
	PayMethod    string `json:"pay_method"`
	PGProvider   string `json:"pg_provider"`
	PGTid        string `json:"pg_tid"`
	Amount       int64  `json:"amount"`
	CancelAmount int64  `json:"cancel_amount"`
	Status       string `json:"status"`
	ReceiptURL   string `json:"receipt_url"`
	PaidAt       int64  `json:"paid_at"`

	CardName   string `json:"card_name"`
	CardNumber string `json:"card_number"`
	CardQuota  int    `json:"card_quota"`
	ApplyNum   string `json:"apply_num"`

	VbankName   string `json:"vbank_name"`
	VbankCode   string `json:"vbank_code"`
	VbankNum    string `json:"vbank_num"`
	VbankHolder string `json:"vbank_holder"`
	VbankDate   int64  `json:"vbank_date"`
}

func (p *paymentResponse) toRecord() *payment.Record {
	return &payment.Record{
		ImpUID:       p.ImpUID,
		MerchantUID:  p.MerchantUID,
		PayMethod:    p.PayMethod,
		PGProvider:   p.PGProvider,
		PGTid:        p.PGTid,
		Amount:       p.Amount,
		CancelAmount: p.CancelAmount,
		Status:       p.Status,
		ReceiptURL:   p.ReceiptURL,
		PaidAt:       p.PaidAt,
		CardName:     p.CardName,
		CardNumber:   p.CardNumber,
		CardQuota:    p.CardQuota,
		ApplyNum:     p.ApplyNum,
		VbankName:    p.VbankName,
		VbankCode:    p.VbankCode,
		VbankNum:     p.VbankNum,
		VbankHolder:  p.VbankHolder,
		VbankDate:    p.VbankDate,
	}
}
