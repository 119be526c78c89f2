package mysql

import (
	"context"

	"github.com/ecodeclub/ekit/slice"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/storefront/internal/domain/cart"
	apperrors "github.com/xiebiao/storefront/pkg/errors"
)

type cartRepository struct {
	db *gorm.DB
}

// NewCartRepository 创建购物车仓储
func NewCartRepository(db *gorm.DB) cart.Repository {
	return &cartRepository{db: db}
}

func (r *cartRepository) Items(ctx context.Context, userID uint) ([]cart.Item, error) {
	var models []CartItemModel
	if err := dbFrom(ctx, r.db).Where("user_id = ?", userID).Order("id ASC").Find(&models).Error; err != nil {
		return nil, apperrors.Wrap(err, "查询购物车失败")
	}
	return slice.Map(models, func(_ int, m CartItemModel) cart.Item {
		return cart.Item{ProductID: m.ProductID, Quantity: m.Quantity}
	}), nil
}

// Add 存在则累加数量(INSERT ... ON DUPLICATE KEY UPDATE)
func (r *cartRepository) Add(ctx context.Context, userID, productID uint, quantity int) error {
	if quantity < 1 {
		return cart.ErrInvalidQuantity
	}
	model := &CartItemModel{UserID: userID, ProductID: productID, Quantity: quantity}
	err := dbFrom(ctx, r.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":   gorm.Expr("quantity + ?", quantity),
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP(3)"),
		}),
	}).Create(model).Error
	if err != nil {
		return apperrors.Wrap(err, "加入购物车失败")
	}
	return nil
}

func (r *cartRepository) Clear(ctx context.Context, userID uint) error {
	if err := dbFrom(ctx, r.db).Where("user_id = ?", userID).Delete(&CartItemModel{}).Error; err != nil {
		return apperrors.Wrap(err, "清空购物车失败")
	}
	return nil
}
