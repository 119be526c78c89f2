package mysql

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/xiebiao/storefront/internal/domain/inventory"
	"github.com/xiebiao/storefront/internal/domain/product"
	apperrors "github.com/xiebiao/storefront/pkg/errors"
	"github.com/xiebiao/storefront/pkg/metrics"
)

// inventoryLedger 库存台账(MySQL)
// 扣减使用 UPDATE ... WHERE stock >= ? 条件更新，不需要行锁
type inventoryLedger struct {
	db *gorm.DB
}

// NewInventoryLedger 创建库存台账
func NewInventoryLedger(db *gorm.DB) inventory.Ledger {
	return &inventoryLedger{db: db}
}

// EnsureAvailable 校验当前库存
func (l *inventoryLedger) EnsureAvailable(ctx context.Context, productID uint, quantity int) error {
	if quantity < 1 {
		return inventory.ErrInvalidQuantity
	}

	var model ProductModel
	err := dbFrom(ctx, l.db).Select("id", "name", "stock").First(&model, productID).Error
	if err != nil {
		if isNotFound(err) {
			return product.ErrProductNotFound
		}
		return apperrors.Wrap(err, "查询库存失败")
	}
	if model.Stock < quantity {
		return insufficient(model.Name, model.Stock, quantity)
	}
	return nil
}

// Decrement 原子扣减并记录流水
func (l *inventoryLedger) Decrement(ctx context.Context, orderID, productID uint, quantity int) error {
	if quantity < 1 {
		return inventory.ErrInvalidQuantity
	}

	err := dbFrom(ctx, l.db).Transaction(func(tx *gorm.DB) error {
		movement := &StockMovementModel{
			OrderID:   orderID,
			ProductID: productID,
			Kind:      string(inventory.MovementDecrement),
			Quantity:  quantity,
		}
		if err := tx.Create(movement).Error; err != nil {
			if isDuplicateError(err) {
				return inventory.ErrDuplicateMovement
			}
			return apperrors.Wrap(err, "记录库存流水失败")
		}

		result := tx.Model(&ProductModel{}).
			Where("id = ? AND stock >= ?", productID, quantity).
			UpdateColumn("stock", gorm.Expr("stock - ?", quantity))
		if result.Error != nil {
			return apperrors.Wrap(result.Error, "扣减库存失败")
		}
		if result.RowsAffected == 0 {
			// 区分商品不存在和库存不足
			var model ProductModel
			if err := tx.Select("id", "name", "stock").First(&model, productID).Error; err != nil {
				if isNotFound(err) {
					return product.ErrProductNotFound
				}
				return apperrors.Wrap(err, "查询库存失败")
			}
			return insufficient(model.Name, model.Stock, quantity)
		}
		return nil
	})

	metrics.StockMovementsTotal.WithLabelValues(string(inventory.MovementDecrement), metrics.Result(err)).Inc()
	return err
}

// Restore 回补库存，流水已存在时视为已回补
func (l *inventoryLedger) Restore(ctx context.Context, orderID, productID uint, quantity int) error {
	if quantity < 1 {
		return inventory.ErrInvalidQuantity
	}

	err := dbFrom(ctx, l.db).Transaction(func(tx *gorm.DB) error {
		movement := &StockMovementModel{
			OrderID:   orderID,
			ProductID: productID,
			Kind:      string(inventory.MovementRestore),
			Quantity:  quantity,
		}
		if err := tx.Create(movement).Error; err != nil {
			if isDuplicateError(err) {
				return errAlreadyRestored
			}
			return apperrors.Wrap(err, "记录库存流水失败")
		}

		result := tx.Model(&ProductModel{}).
			Where("id = ?", productID).
			UpdateColumn("stock", gorm.Expr("stock + ?", quantity))
		if result.Error != nil {
			return apperrors.Wrap(result.Error, "回补库存失败")
		}
		if result.RowsAffected == 0 {
			return product.ErrProductNotFound
		}
		return nil
	})
	if errors.Is(err, errAlreadyRestored) {
		return nil
	}

	metrics.StockMovementsTotal.WithLabelValues(string(inventory.MovementRestore), metrics.Result(err)).Inc()
	return err
}

// errAlreadyRestored 用于回滚到savepoint，不对外返回
var errAlreadyRestored = errors.New("stock already restored")

func insufficient(name string, stock, want int) error {
	return inventory.ErrInsufficientStock.WithMessage(
		fmt.Sprintf("商品《%s》库存不足,当前库存:%d,需要:%d", name, stock, want))
}
