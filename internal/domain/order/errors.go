package order

import (
	apperrors "github.com/xiebiao/storefront/pkg/errors"
)

// 订单领域错误定义
var (
	// ErrOrderNotFound 订单不存在
	ErrOrderNotFound = apperrors.New(apperrors.ErrCodeOrderNotFound, "订单不存在")

	// ErrInvalidStatusTransition 非法的状态转换
	ErrInvalidStatusTransition = apperrors.New(apperrors.ErrCodeInvalidOrderStatus, "订单状态不允许此操作")

	// ErrInvalidStatus 未知的订单状态
	ErrInvalidStatus = apperrors.New(apperrors.ErrCodeInvalidParams, "无效的订单状态")

	// ErrOrderNoGenerate 订单号生成失败
	ErrOrderNoGenerate = apperrors.New(apperrors.ErrCodeInternal, "订单号生成失败")

	// ErrOrderNoAssigned 订单号已分配
	ErrOrderNoAssigned = apperrors.New(apperrors.ErrCodeInternal, "订单号已分配，不可重复分配")

	// ErrInvalidOrderItems 订单明细不合法
	ErrInvalidOrderItems = apperrors.New(apperrors.ErrCodeInvalidParams, "订单明细不能为空")

	// ErrInvalidQuantity 购买数量不合法
	ErrInvalidQuantity = apperrors.New(apperrors.ErrCodeInvalidParams, "购买数量必须大于0")

	// ErrInvalidShipping 收货信息不完整
	ErrInvalidShipping = apperrors.New(apperrors.ErrCodeInvalidParams, "收货信息不完整")

	// ErrAmountInconsistent 金额不满足 总额 = 商品 + 运费 - 优惠
	ErrAmountInconsistent = apperrors.New(apperrors.ErrCodeInternal, "订单金额计算不一致")

	// ErrMissingPaymentRef 缺少支付凭证
	ErrMissingPaymentRef = apperrors.New(apperrors.ErrCodeInvalidParams, "支付凭证(imp_uid, merchant_uid)不能为空")

	// ErrInvalidPaymentMethod 不支持的支付方式
	ErrInvalidPaymentMethod = apperrors.New(apperrors.ErrCodeInvalidParams, "不支持的支付方式")

	// ErrEmptyOrder 没有可下单的商品(请求和购物车均为空)
	ErrEmptyOrder = apperrors.ErrEmptyOrder

	// ErrNotCancellable 当前状态不可取消
	ErrNotCancellable = apperrors.ErrNotCancellable

	// ErrDuplicatePayment 支付凭证已关联其他订单
	ErrDuplicatePayment = apperrors.ErrDuplicatePayment

	// ErrPaymentVerification 支付校验失败
	ErrPaymentVerification = apperrors.ErrPaymentVerification

	// ErrDuplicateMerchantUID 商户订单号已存在(幂等冲突)
	ErrDuplicateMerchantUID = apperrors.New(apperrors.ErrCodeDuplicateMerchantUID, "商户订单号已存在")

	// ErrDuplicateOrderNo 订单号冲突
	ErrDuplicateOrderNo = apperrors.New(apperrors.ErrCodeOrderNoClash, "订单号冲突")

	// ErrConcurrentModification 状态已被其他请求修改
	ErrConcurrentModification = apperrors.ErrConcurrentModification
)
