package order

const (
	DefaultFreeShippingThreshold int64 = 50000
	DefaultStandardShippingFee   int64 = 3000
)

// ShippingPolicy 运费规则
// 任一商品包邮或商品总额达到门槛时免运费，否则收取固定运费
type ShippingPolicy struct {
	FreeThreshold int64
	StandardFee   int64
}

// DefaultShippingPolicy 默认运费规则
func DefaultShippingPolicy() ShippingPolicy {
	return ShippingPolicy{
		FreeThreshold: DefaultFreeShippingThreshold,
		StandardFee:   DefaultStandardShippingFee,
	}
}

// Fee 计算运费
func (p ShippingPolicy) Fee(items []OrderItem, itemsPrice int64) int64 {
	for _, item := range items {
		if item.FreeShipping {
			return 0
		}
	}
	if itemsPrice >= p.FreeThreshold {
		return 0
	}
	return p.StandardFee
}

// Price 计算订单金额，优惠金额目前固定为0
func (p ShippingPolicy) Price(items []OrderItem) Amounts {
	itemsPrice := SumItems(items)
	fee := p.Fee(items, itemsPrice)
	return Amounts{
		ItemsPrice:     itemsPrice,
		ShippingFee:    fee,
		DiscountAmount: 0,
		TotalPrice:     itemsPrice + fee,
	}
}
