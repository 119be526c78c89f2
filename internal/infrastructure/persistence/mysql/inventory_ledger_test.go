package mysql

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"github.com/xiebiao/storefront/internal/domain/inventory"
	"github.com/xiebiao/storefront/internal/domain/product"
	apperrors "github.com/xiebiao/storefront/pkg/errors"
)

const (
	insertMovement = "INSERT INTO `stock_movements`"
	selectStock    = "SELECT `id`,`name`,`stock` FROM `products`"
)

func TestInventoryLedger_EnsureAvailable(t *testing.T) {
	testCases := []struct {
		name     string
		quantity int
		mock     func(mock sqlmock.Sqlmock)
		wantErr  error
	}{
		{
			name:     "库存充足",
			quantity: 3,
			mock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"id", "name", "stock"}).AddRow(1, "무선 키보드", 3)
				mock.ExpectQuery(selectStock).WillReturnRows(rows)
			},
		},
		{
			name:     "库存不足",
			quantity: 4,
			mock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"id", "name", "stock"}).AddRow(1, "무선 키보드", 3)
				mock.ExpectQuery(selectStock).WillReturnRows(rows)
			},
			wantErr: inventory.ErrInsufficientStock,
		},
		{
			name:     "商品不存在",
			quantity: 1,
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(selectStock).WillReturnRows(sqlmock.NewRows([]string{"id", "name", "stock"}))
			},
			wantErr: product.ErrProductNotFound,
		},
		{
			name:     "数量非法",
			quantity: 0,
			mock:     func(mock sqlmock.Sqlmock) {},
			wantErr:  inventory.ErrInvalidQuantity,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ledger := NewInventoryLedger(newMockDB(t, tc.mock))
			err := ledger.EnsureAvailable(context.Background(), 1, tc.quantity)
			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestInventoryLedger_Decrement(t *testing.T) {
	testCases := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name: "扣减成功",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(insertMovement).WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectExec("UPDATE `products` SET `stock`=stock - \\? WHERE .*id = \\? AND stock >= \\?").
					WithArgs(2, 1, 2).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
		},
		{
			name: "重复扣减",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(insertMovement).
					WillReturnError(dupEntry("9-1-decrement", "stock_movements.uk_stock_movement"))
				mock.ExpectRollback()
			},
			wantErr: inventory.ErrDuplicateMovement,
		},
		{
			name: "条件更新未命中且库存不足",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(insertMovement).WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectExec("UPDATE `products`").WillReturnResult(sqlmock.NewResult(0, 0))
				rows := sqlmock.NewRows([]string{"id", "name", "stock"}).AddRow(1, "무선 키보드", 1)
				mock.ExpectQuery(selectStock).WillReturnRows(rows)
				mock.ExpectRollback()
			},
			wantErr: inventory.ErrInsufficientStock,
		},
		{
			name: "条件更新未命中且商品不存在",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(insertMovement).WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectExec("UPDATE `products`").WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery(selectStock).WillReturnRows(sqlmock.NewRows([]string{"id", "name", "stock"}))
				mock.ExpectRollback()
			},
			wantErr: product.ErrProductNotFound,
		},
		{
			name: "数据库错误",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(insertMovement).WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectExec("UPDATE `products`").WillReturnError(errors.New("connection reset"))
				mock.ExpectRollback()
			},
			wantErr: apperrors.ErrInternal,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ledger := NewInventoryLedger(newMockDB(t, tc.mock))
			err := ledger.Decrement(context.Background(), 9, 1, 2)
			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestInventoryLedger_Restore(t *testing.T) {
	testCases := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name: "回补成功",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(insertMovement).WillReturnResult(sqlmock.NewResult(2, 1))
				mock.ExpectExec("UPDATE `products` SET `stock`=stock \\+ \\?").
					WithArgs(2, 1).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
		},
		{
			// 流水已存在，不再加库存
			name: "重复回补",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(insertMovement).
					WillReturnError(dupEntry("9-1-restore", "stock_movements.uk_stock_movement"))
				mock.ExpectRollback()
			},
		},
		{
			name: "商品不存在",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(insertMovement).WillReturnResult(sqlmock.NewResult(2, 1))
				mock.ExpectExec("UPDATE `products`").WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectRollback()
			},
			wantErr: product.ErrProductNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ledger := NewInventoryLedger(newMockDB(t, tc.mock))
			err := ledger.Restore(context.Background(), 9, 1, 2)
			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}
