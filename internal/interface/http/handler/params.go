package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xiebiao/storefront/internal/domain/order"
	"github.com/xiebiao/storefront/internal/interface/http/dto"
	apperrors "github.com/xiebiao/storefront/pkg/errors"
)

// pathID 解析路径参数:id
func pathID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.ErrInvalidParams.WithMessage("无效的ID")
	}
	return uint(id), nil
}

func bindError(err error) error {
	return apperrors.ErrInvalidParams.WithMessage("参数错误: " + err.Error())
}

// listFilter 查询参数转为仓储过滤条件
// status支持逗号分隔多个值，日期按商店时区解释，end_date当天包含在内
func listFilter(q dto.ListOrdersQuery, loc *time.Location) (order.ListFilter, error) {
	f := order.ListFilter{Page: q.Page, PageSize: q.Limit}

	if q.Status != "" {
		for _, raw := range strings.Split(q.Status, ",") {
			st, err := order.ParseStatus(strings.TrimSpace(raw))
			if err != nil {
				return f, err
			}
			f.Statuses = append(f.Statuses, st)
		}
	}

	if q.StartDate != "" {
		start, err := time.ParseInLocation(time.DateOnly, q.StartDate, loc)
		if err != nil {
			return f, apperrors.ErrInvalidParams.WithMessage("start_date格式应为YYYY-MM-DD")
		}
		f.StartDate = &start
	}
	if q.EndDate != "" {
		end, err := time.ParseInLocation(time.DateOnly, q.EndDate, loc)
		if err != nil {
			return f, apperrors.ErrInvalidParams.WithMessage("end_date格式应为YYYY-MM-DD")
		}
		end = end.AddDate(0, 0, 1)
		f.EndDate = &end
	}
	return f, nil
}
