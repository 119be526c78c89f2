package mysql

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

const errDupEntry uint16 = 1062

// isDuplicateError 判断是否为MySQL唯一索引冲突(1062: Duplicate entry 'x' for key 'y')
func isDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == errDupEntry
	}
	return strings.Contains(err.Error(), "Duplicate entry")
}

// duplicateOn 唯一索引冲突且冲突的索引名为index
func duplicateOn(err error, index string) bool {
	return isDuplicateError(err) && duplicateKey(err) == index
}

// duplicateKey 取出冲突的索引名
// entry的值由调用方控制，只看消息末尾的 for key '...'，并去掉8.0起带上的表名前缀
func duplicateKey(err error) string {
	msg := err.Error()
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		msg = me.Message
	}
	const marker = " for key '"
	i := strings.LastIndex(msg, marker)
	if i < 0 {
		return ""
	}
	key := strings.TrimSuffix(msg[i+len(marker):], "'")
	if dot := strings.LastIndex(key, "."); dot >= 0 {
		key = key[dot+1:]
	}
	return key
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// strPtr 空串存为NULL，使唯一索引只约束非空值
func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func strVal(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
