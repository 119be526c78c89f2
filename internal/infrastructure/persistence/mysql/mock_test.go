package mysql

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"
	gormMysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// newMockDB GORM over sqlmock，单条语句不开启默认事务
func newMockDB(t *testing.T, expect func(mock sqlmock.Sqlmock)) *gorm.DB {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = sqlDB.Close()
	})
	expect(mock)

	db, err := gorm.Open(gormMysql.New(gormMysql.Config{
		Conn: sqlDB,
		// 如果为 false ，则GORM在初始化时，会先调用 show version
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		DisableAutomaticPing:   true,
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return db
}

func dupEntry(value, key string) error {
	return &mysql.MySQLError{
		Number:  1062,
		Message: "Duplicate entry '" + value + "' for key '" + key + "'",
	}
}
