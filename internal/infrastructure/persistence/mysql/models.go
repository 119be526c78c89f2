package mysql

import (
	"time"

	"gorm.io/gorm"

	"github.com/xiebiao/storefront/internal/domain/order"
)

// UserModel GORM用户模型
// domain/user/entity.go是领域实体，不依赖GORM，Repository负责两者转换
type UserModel struct {
	ID        uint           `gorm:"primaryKey"`
	Email     string         `gorm:"uniqueIndex;size:100;not null;comment:邮箱"`
	Password  string         `gorm:"size:255;not null;comment:密码(bcrypt)"`
	Nickname  string         `gorm:"size:50;not null;comment:昵称"`
	Role      string         `gorm:"size:20;not null;default:customer;comment:角色"`
	CreatedAt time.Time      `gorm:"comment:创建时间"`
	UpdatedAt time.Time      `gorm:"comment:更新时间"`
	DeletedAt gorm.DeletedAt `gorm:"index;comment:删除时间(软删除)"`
}

func (UserModel) TableName() string {
	return "users"
}

// ProductModel GORM商品模型
// stock只通过条件更新修改(见inventoryLedger)
type ProductModel struct {
	ID            uint           `gorm:"primaryKey"`
	SKU           string         `gorm:"column:sku;uniqueIndex;size:40;not null;comment:SKU"`
	Name          string         `gorm:"size:200;not null;comment:商品名"`
	Price         int64          `gorm:"not null;comment:单价(韩元)"`
	Category      string         `gorm:"index;size:50;comment:分类"`
	ImageURL      string         `gorm:"size:500;comment:图片URL"`
	Stock         int            `gorm:"not null;default:0;comment:库存"`
	FreeShipping  bool           `gorm:"not null;default:false;comment:包邮"`
	IsPublic      bool           `gorm:"not null;default:true;comment:是否上架"`
	IsRecommended bool           `gorm:"not null;default:false;comment:是否推荐"`
	Description   string         `gorm:"type:text;comment:商品描述"`
	CreatedAt     time.Time      `gorm:"comment:创建时间"`
	UpdatedAt     time.Time      `gorm:"comment:更新时间"`
	DeletedAt     gorm.DeletedAt `gorm:"index;comment:删除时间(软删除)"`
}

func (ProductModel) TableName() string {
	return "products"
}

// orders表唯一索引名，与OrderModel标签一致
const (
	ukOrdersOrderNo     = "uk_orders_order_no"
	ukOrdersImpUID      = "uk_orders_imp_uid"
	ukOrdersMerchantUID = "uk_orders_merchant_uid"
)

// OrderModel GORM订单模型
// 1. 与OrderItemModel、OrderStatusHistoryModel是一对多关系
// 2. imp_uid、merchant_uid可为空，非空时唯一(MySQL唯一索引允许多个NULL)
// 3. (user_id, created_at desc)联合索引服务"我的订单"分页
type OrderModel struct {
	ID      uint   `gorm:"primaryKey"`
	OrderNo string `gorm:"uniqueIndex:uk_orders_order_no;size:32;not null;comment:订单号"`
	UserID  uint   `gorm:"index:idx_orders_user_created,priority:1;not null;comment:买家用户ID"`
	Status  string `gorm:"index;size:20;not null;comment:订单状态"`

	ItemsPrice     int64 `gorm:"not null;comment:商品金额"`
	ShippingFee    int64 `gorm:"not null;comment:运费"`
	DiscountAmount int64 `gorm:"not null;default:0;comment:优惠金额"`
	TotalPrice     int64 `gorm:"not null;comment:订单总额"`

	Recipient     string `gorm:"size:50;not null;comment:收货人"`
	Phone         string `gorm:"size:20;not null;comment:联系电话"`
	ZipCode       string `gorm:"size:10;not null;comment:邮编"`
	Address       string `gorm:"size:255;not null;comment:地址"`
	AddressDetail string `gorm:"size:255;comment:详细地址"`
	ShippingMemo  string `gorm:"size:255;comment:配送备注"`

	PaymentMethod string          `gorm:"size:10;comment:支付方式"`
	PaymentStatus string          `gorm:"size:20;comment:支付状态"`
	ImpUID        *string         `gorm:"uniqueIndex:uk_orders_imp_uid;size:64;comment:网关支付凭证"`
	MerchantUID   *string         `gorm:"uniqueIndex:uk_orders_merchant_uid;size:64;comment:商户订单号"`
	PGProvider    string          `gorm:"column:pg_provider;size:30"`
	PGTid         string          `gorm:"column:pg_tid;size:100"`
	PaidAmount    int64           `gorm:"comment:网关支付金额"`
	Card          *order.CardInfo `gorm:"serializer:json;type:json;comment:卡支付明细"`
	Bank          *order.BankInfo `gorm:"serializer:json;type:json;comment:虚拟账户明细"`
	ReceiptURL    string          `gorm:"size:500"`
	PaidAt        *time.Time      `gorm:"comment:支付时间"`
	CancelledAt   *time.Time      `gorm:"comment:取消/退款时间"`
	CancelReason  string          `gorm:"size:255;comment:取消原因"`

	AdminMemo string `gorm:"type:text;comment:后台备注"`

	Items     []OrderItemModel          `gorm:"foreignKey:OrderID"`
	History   []OrderStatusHistoryModel `gorm:"foreignKey:OrderID"`
	CreatedAt time.Time                 `gorm:"index;index:idx_orders_user_created,priority:2,sort:desc;comment:创建时间"`
	UpdatedAt time.Time                 `gorm:"comment:更新时间"`
}

func (OrderModel) TableName() string {
	return "orders"
}

// OrderItemModel 订单明细(下单时的商品快照)
type OrderItemModel struct {
	ID           uint   `gorm:"primaryKey"`
	OrderID      uint   `gorm:"index;not null;comment:订单ID"`
	ProductID    uint   `gorm:"index;not null;comment:商品ID"`
	Name         string `gorm:"size:200;not null;comment:下单时商品名"`
	Price        int64  `gorm:"not null;comment:下单时单价"`
	Quantity     int    `gorm:"not null;comment:购买数量"`
	ImageURL     string `gorm:"size:500"`
	FreeShipping bool   `gorm:"not null;default:false"`
}

func (OrderItemModel) TableName() string {
	return "order_items"
}

// OrderStatusHistoryModel 状态变更记录，只插入不更新
type OrderStatusHistoryModel struct {
	ID        uint      `gorm:"primaryKey"`
	OrderID   uint      `gorm:"index;not null"`
	Status    string    `gorm:"size:20;not null"`
	Memo      string    `gorm:"size:255"`
	ChangedAt time.Time `gorm:"not null"`
}

func (OrderStatusHistoryModel) TableName() string {
	return "order_status_histories"
}

// OrderSequenceModel 按天的订单序号
type OrderSequenceModel struct {
	Day string `gorm:"primaryKey;size:8;comment:YYYYMMDD"`
	Seq int64  `gorm:"not null"`
}

func (OrderSequenceModel) TableName() string {
	return "order_sequences"
}

// StockMovementModel 库存流水
// (order_id, product_id, kind)唯一，保证同一订单的扣减和回补各只发生一次
type StockMovementModel struct {
	ID        uint      `gorm:"primaryKey"`
	OrderID   uint      `gorm:"uniqueIndex:uk_stock_movement;not null"`
	ProductID uint      `gorm:"uniqueIndex:uk_stock_movement;index;not null"`
	Kind      string    `gorm:"uniqueIndex:uk_stock_movement;size:16;not null"`
	Quantity  int       `gorm:"not null"`
	CreatedAt time.Time `gorm:"comment:创建时间"`
}

func (StockMovementModel) TableName() string {
	return "stock_movements"
}

// CartItemModel 购物车条目
type CartItemModel struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"uniqueIndex:uk_cart_user_product;not null"`
	ProductID uint      `gorm:"uniqueIndex:uk_cart_user_product;not null"`
	Quantity  int       `gorm:"not null"`
	CreatedAt time.Time `gorm:"comment:创建时间"`
	UpdatedAt time.Time `gorm:"comment:更新时间"`
}

func (CartItemModel) TableName() string {
	return "cart_items"
}
