package mysql

import (
	"context"

	"github.com/ecodeclub/ekit/slice"
	"gorm.io/gorm"

	"github.com/xiebiao/storefront/internal/domain/order"
	apperrors "github.com/xiebiao/storefront/pkg/errors"
)

// orderRepository 订单仓储实现(MySQL)
// 1. Order、OrderItem、StatusHistory是聚合关系，创建时一起保存
// 2. 查询时Preload明细和历史，避免N+1
// 3. 事务通过context传递
type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db *gorm.DB) order.Repository {
	return &orderRepository{db: db}
}

// Create 创建订单，GORM自动保存Items和History
func (r *orderRepository) Create(ctx context.Context, o *order.Order) error {
	model := toOrderModel(o)

	if err := dbFrom(ctx, r.db).Create(model).Error; err != nil {
		switch {
		case duplicateOn(err, ukOrdersMerchantUID):
			return order.ErrDuplicateMerchantUID
		case duplicateOn(err, ukOrdersImpUID):
			return order.ErrDuplicatePayment
		case duplicateOn(err, ukOrdersOrderNo):
			return order.ErrDuplicateOrderNo
		}
		return apperrors.Wrap(err, "创建订单失败")
	}

	o.ID = model.ID
	for i := range o.Items {
		o.Items[i].ID = model.Items[i].ID
		o.Items[i].OrderID = model.ID
	}
	return nil
}

// FindByID 根据ID查找订单
func (r *orderRepository) FindByID(ctx context.Context, id uint) (*order.Order, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByOrderNo 根据订单号查找订单
func (r *orderRepository) FindByOrderNo(ctx context.Context, orderNo string) (*order.Order, error) {
	return r.findOne(ctx, "order_no = ?", orderNo)
}

// FindByMerchantUID 根据商户订单号查找
func (r *orderRepository) FindByMerchantUID(ctx context.Context, merchantUID string) (*order.Order, error) {
	if merchantUID == "" {
		return nil, order.ErrOrderNotFound
	}
	return r.findOne(ctx, "merchant_uid = ?", merchantUID)
}

// FindByImpUID 根据网关支付凭证查找
func (r *orderRepository) FindByImpUID(ctx context.Context, impUID string) (*order.Order, error) {
	if impUID == "" {
		return nil, order.ErrOrderNotFound
	}
	return r.findOne(ctx, "imp_uid = ?", impUID)
}

func (r *orderRepository) findOne(ctx context.Context, query string, arg interface{}) (*order.Order, error) {
	var model OrderModel
	err := withDetails(dbFrom(ctx, r.db)).Where(query, arg).First(&model).Error
	if err != nil {
		if isNotFound(err) {
			return nil, order.ErrOrderNotFound
		}
		return nil, apperrors.Wrap(err, "查询订单失败")
	}
	return toOrderEntity(&model), nil
}

// UpdateStatus 以from为条件更新状态和支付信息，并追加最新的状态记录
func (r *orderRepository) UpdateStatus(ctx context.Context, o *order.Order, from order.Status) error {
	return dbFrom(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&OrderModel{}).
			Where("id = ? AND status = ?", o.ID, string(from)).
			Updates(map[string]interface{}{
				"status":         string(o.Status()),
				"payment_status": string(o.Payment.Status),
				"paid_at":        o.Payment.PaidAt,
				"cancelled_at":   o.Payment.CancelledAt,
				"cancel_reason":  o.Payment.CancelReason,
				"updated_at":     o.UpdatedAt,
			})
		if result.Error != nil {
			return apperrors.Wrap(result.Error, "更新订单状态失败")
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&OrderModel{}).Where("id = ?", o.ID).Count(&count).Error; err != nil {
				return apperrors.Wrap(err, "查询订单失败")
			}
			if count == 0 {
				return order.ErrOrderNotFound
			}
			return order.ErrConcurrentModification
		}

		last := o.LastChange()
		history := &OrderStatusHistoryModel{
			OrderID:   o.ID,
			Status:    string(last.Status),
			Memo:      last.Memo,
			ChangedAt: last.ChangedAt,
		}
		if err := tx.Create(history).Error; err != nil {
			return apperrors.Wrap(err, "记录状态变更失败")
		}
		return nil
	})
}

// UpdateAdminMemo 更新后台备注
func (r *orderRepository) UpdateAdminMemo(ctx context.Context, id uint, memo string) error {
	result := dbFrom(ctx, r.db).Model(&OrderModel{}).Where("id = ?", id).Update("admin_memo", memo)
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "更新订单备注失败")
	}
	if result.RowsAffected == 0 {
		// 备注未变化时RowsAffected同样为0
		var count int64
		if err := dbFrom(ctx, r.db).Model(&OrderModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return apperrors.Wrap(err, "查询订单失败")
		}
		if count == 0 {
			return order.ErrOrderNotFound
		}
	}
	return nil
}

// List 分页查询，按创建时间倒序
func (r *orderRepository) List(ctx context.Context, filter order.ListFilter) ([]*order.Order, error) {
	var models []OrderModel
	err := withDetails(applyFilter(dbFrom(ctx, r.db).Model(&OrderModel{}), filter)).
		Order("created_at DESC").
		Order("id DESC").
		Limit(filter.PageSize).
		Offset(filter.Offset()).
		Find(&models).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "查询订单列表失败")
	}
	return slice.Map(models, func(_ int, m OrderModel) *order.Order {
		return toOrderEntity(&m)
	}), nil
}

// Count 统计订单数
func (r *orderRepository) Count(ctx context.Context, filter order.ListFilter) (int64, error) {
	var total int64
	if err := applyFilter(dbFrom(ctx, r.db).Model(&OrderModel{}), filter).Count(&total).Error; err != nil {
		return 0, apperrors.Wrap(err, "查询订单总数失败")
	}
	return total, nil
}

// CountByStatus 按状态分组计数
func (r *orderRepository) CountByStatus(ctx context.Context) (map[order.Status]int64, error) {
	var rows []struct {
		Status string
		Total  int64
	}
	err := dbFrom(ctx, r.db).Model(&OrderModel{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "统计订单状态失败")
	}

	counts := make(map[order.Status]int64, len(rows))
	for _, row := range rows {
		counts[order.Status(row.Status)] = row.Total
	}
	return counts, nil
}

// SumTotalPrice 统计销售额
func (r *orderRepository) SumTotalPrice(ctx context.Context, excluded []order.Status) (int64, error) {
	var sum int64
	query := dbFrom(ctx, r.db).Model(&OrderModel{}).Select("COALESCE(SUM(total_price), 0)")
	if len(excluded) > 0 {
		query = query.Where("status NOT IN ?", statusStrings(excluded))
	}
	if err := query.Scan(&sum).Error; err != nil {
		return 0, apperrors.Wrap(err, "统计销售额失败")
	}
	return sum, nil
}

func withDetails(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	}).Preload("History", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	})
}

func applyFilter(db *gorm.DB, f order.ListFilter) *gorm.DB {
	if f.UserID != 0 {
		db = db.Where("user_id = ?", f.UserID)
	}
	if len(f.Statuses) > 0 {
		db = db.Where("status IN ?", statusStrings(f.Statuses))
	}
	if f.StartDate != nil {
		db = db.Where("created_at >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		db = db.Where("created_at < ?", *f.EndDate)
	}
	return db
}

func statusStrings(statuses []order.Status) []string {
	return slice.Map(statuses, func(_ int, s order.Status) string { return string(s) })
}

// toOrderModel 领域实体 → GORM模型
func toOrderModel(o *order.Order) *OrderModel {
	p := o.Payment
	return &OrderModel{
		ID:             o.ID,
		OrderNo:        o.OrderNo,
		UserID:         o.UserID,
		Status:         string(o.Status()),
		ItemsPrice:     o.Amounts.ItemsPrice,
		ShippingFee:    o.Amounts.ShippingFee,
		DiscountAmount: o.Amounts.DiscountAmount,
		TotalPrice:     o.Amounts.TotalPrice,
		Recipient:      o.Shipping.Recipient,
		Phone:          o.Shipping.Phone,
		ZipCode:        o.Shipping.ZipCode,
		Address:        o.Shipping.Address,
		AddressDetail:  o.Shipping.AddressDetail,
		ShippingMemo:   o.Shipping.Memo,
		PaymentMethod:  string(p.Method),
		PaymentStatus:  string(p.Status),
		ImpUID:         strPtr(p.ImpUID),
		MerchantUID:    strPtr(p.MerchantUID),
		PGProvider:     p.PGProvider,
		PGTid:          p.PGTid,
		PaidAmount:     p.Amount,
		Card:           p.Card,
		Bank:           p.Bank,
		ReceiptURL:     p.ReceiptURL,
		PaidAt:         p.PaidAt,
		CancelledAt:    p.CancelledAt,
		CancelReason:   p.CancelReason,
		AdminMemo:      o.AdminMemo,
		Items: slice.Map(o.Items, func(_ int, item order.OrderItem) OrderItemModel {
			return OrderItemModel{
				ID:           item.ID,
				OrderID:      item.OrderID,
				ProductID:    item.ProductID,
				Name:         item.Name,
				Price:        item.Price,
				Quantity:     item.Quantity,
				ImageURL:     item.ImageURL,
				FreeShipping: item.FreeShipping,
			}
		}),
		History: slice.Map(o.History(), func(_ int, h order.StatusChange) OrderStatusHistoryModel {
			return OrderStatusHistoryModel{Status: string(h.Status), Memo: h.Memo, ChangedAt: h.ChangedAt}
		}),
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

// toOrderEntity GORM模型 → 领域实体
func toOrderEntity(m *OrderModel) *order.Order {
	o := &order.Order{
		ID:      m.ID,
		OrderNo: m.OrderNo,
		UserID:  m.UserID,
		Items: slice.Map(m.Items, func(_ int, item OrderItemModel) order.OrderItem {
			return order.OrderItem{
				ID:           item.ID,
				OrderID:      item.OrderID,
				ProductID:    item.ProductID,
				Name:         item.Name,
				Price:        item.Price,
				Quantity:     item.Quantity,
				ImageURL:     item.ImageURL,
				FreeShipping: item.FreeShipping,
			}
		}),
		Shipping: order.Shipping{
			Recipient:     m.Recipient,
			Phone:         m.Phone,
			ZipCode:       m.ZipCode,
			Address:       m.Address,
			AddressDetail: m.AddressDetail,
			Memo:          m.ShippingMemo,
		},
		Amounts: order.Amounts{
			ItemsPrice:     m.ItemsPrice,
			ShippingFee:    m.ShippingFee,
			DiscountAmount: m.DiscountAmount,
			TotalPrice:     m.TotalPrice,
		},
		Payment: order.Payment{
			Method:       order.PaymentMethod(m.PaymentMethod),
			Status:       order.PaymentStatus(m.PaymentStatus),
			ImpUID:       strVal(m.ImpUID),
			MerchantUID:  strVal(m.MerchantUID),
			PGProvider:   m.PGProvider,
			PGTid:        m.PGTid,
			Amount:       m.PaidAmount,
			Card:         m.Card,
			Bank:         m.Bank,
			ReceiptURL:   m.ReceiptURL,
			PaidAt:       m.PaidAt,
			CancelledAt:  m.CancelledAt,
			CancelReason: m.CancelReason,
		},
		AdminMemo: m.AdminMemo,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}

	history := slice.Map(m.History, func(_ int, h OrderStatusHistoryModel) order.StatusChange {
		return order.StatusChange{Status: order.Status(h.Status), ChangedAt: h.ChangedAt, Memo: h.Memo}
	})
	return order.Reconstitute(o, order.Status(m.Status), history)
}
