package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/xiebiao/storefront/internal/domain/order"
)

// VerifyResult 校验结果
// OK为false时Reason说明原因，Record可能为网关实际记录
// Foreign表示该支付属于其他商户订单号
type VerifyResult struct {
	OK      bool
	Foreign bool
	Reason  string
	Record  *Record
}

// Captured 本次结算在网关侧是否已实际扣款(校验失败但已扣款时需要补偿取消)
// 其他商户订单号的支付不算
func (r VerifyResult) Captured() bool {
	return !r.Foreign && r.Record != nil && r.Record.Status == RecordStatusPaid
}

// Service 支付校验与取消
type Service struct {
	gateway Gateway
}

// NewService 创建支付服务
func NewService(gateway Gateway) *Service {
	return &Service{gateway: gateway}
}

// Verify 校验网关记录与期望金额
// 仅当状态为paid且金额严格相等时通过；merchantUID非空时还要求与网关记录一致
// 查询失败返回error，由调用方按校验失败处理
func (s *Service) Verify(ctx context.Context, impUID, merchantUID string, expected int64) (VerifyResult, error) {
	record, err := s.gateway.FetchPayment(ctx, impUID)
	if err != nil {
		return VerifyResult{}, err
	}
	return check(record, merchantUID, expected), nil
}

func check(record *Record, merchantUID string, expected int64) VerifyResult {
	switch {
	case merchantUID != "" && record.MerchantUID != "" && record.MerchantUID != merchantUID:
		return VerifyResult{Reason: "支付记录的商户订单号不一致", Foreign: true, Record: record}
	case record.Status != RecordStatusPaid:
		return VerifyResult{Reason: fmt.Sprintf("支付未完成，状态: %s", record.Status), Record: record}
	case record.Amount != expected:
		return VerifyResult{Reason: fmt.Sprintf("支付金额不一致(预期: %d, 实际: %d)", expected, record.Amount), Record: record}
	}
	return VerifyResult{OK: true, Record: record}
}

// Cancel 取消支付，amount为nil时全额取消
func (s *Service) Cancel(ctx context.Context, impUID, reason string, amount *int64) (*CancelResult, error) {
	return s.gateway.Cancel(ctx, CancelRequest{ImpUID: impUID, Reason: reason, Amount: amount})
}

// Refund 全额退款，网关已是取消状态时直接返回，重试时不会重复取消
func (s *Service) Refund(ctx context.Context, impUID, reason string) error {
	record, err := s.gateway.FetchPayment(ctx, impUID)
	if err != nil {
		return err
	}
	if record.Status == RecordStatusCancelled {
		return nil
	}
	_, err = s.Cancel(ctx, impUID, reason, nil)
	return err
}

// Normalize 将网关记录转换为订单内嵌支付信息
func Normalize(r *Record) order.Payment {
	p := order.Payment{
		Method:      methodOf(r.PayMethod),
		Status:      statusOf(r.Status),
		ImpUID:      r.ImpUID,
		MerchantUID: r.MerchantUID,
		PGProvider:  r.PGProvider,
		PGTid:       r.PGTid,
		Amount:      r.Amount,
		ReceiptURL:  r.ReceiptURL,
		PaidAt:      fromEpoch(r.PaidAt),
	}

	switch r.PayMethod {
	case "card":
		p.Card = &order.CardInfo{
			CardName:       r.CardName,
			CardNumber:     r.CardNumber,
			Installment:    r.CardQuota,
			ApprovalNumber: r.ApplyNum,
		}
	case "vbank":
		p.Bank = &order.BankInfo{
			BankName:      r.VbankName,
			BankCode:      r.VbankCode,
			AccountNumber: r.VbankNum,
			Holder:        r.VbankHolder,
			DueDate:       fromEpoch(r.VbankDate),
		}
	}
	return p
}

func methodOf(payMethod string) order.PaymentMethod {
	switch payMethod {
	case "card":
		return order.PaymentMethodCard
	case "vbank", "trans":
		return order.PaymentMethodBank
	default:
		return ""
	}
}

func statusOf(status string) order.PaymentStatus {
	switch status {
	case RecordStatusPaid:
		return order.PaymentStatusCompleted
	case RecordStatusCancelled:
		return order.PaymentStatusCancelled
	case RecordStatusFailed:
		return order.PaymentStatusFailed
	default:
		return order.PaymentStatusPending
	}
}

func fromEpoch(sec int64) *time.Time {
	if sec <= 0 {
		return nil
	}
	t := time.Unix(sec, 0)
	return &t
}
