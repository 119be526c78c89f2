package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/xiebiao/storefront/internal/domain/order"
	apperrors "github.com/xiebiao/storefront/pkg/errors"
)

type sequenceRepository struct {
	db *gorm.DB
}

// NewSequenceRepository 创建订单序号仓储
func NewSequenceRepository(db *gorm.DB) order.SequenceRepository {
	return &sequenceRepository{db: db}
}

// Next 原子自增当天序号
// LAST_INSERT_ID(expr)把新值记在当前连接上，两条语句必须在同一连接(事务)内执行
func (r *sequenceRepository) Next(ctx context.Context, day string) (int64, error) {
	var seq int64
	err := dbFrom(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		err := tx.Exec(
			"INSERT INTO order_sequences (day, seq) VALUES (?, LAST_INSERT_ID(1)) "+
				"ON DUPLICATE KEY UPDATE seq = LAST_INSERT_ID(seq + 1)", day).Error
		if err != nil {
			return err
		}
		return tx.Raw("SELECT LAST_INSERT_ID()").Scan(&seq).Error
	})
	if err != nil {
		return 0, apperrors.Wrap(err, "生成订单序号失败")
	}
	return seq, nil
}
