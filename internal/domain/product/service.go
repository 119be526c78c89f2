package product

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

// Service 商品领域服务
type Service interface {
	// Register 上架商品
	Register(ctx context.Context, sku, name string, price int64, stock int, category, imageURL, description string, freeShipping bool) (*Product, error)

	// GetByID 查询商品
	GetByID(ctx context.Context, id uint) (*Product, error)
}

type service struct {
	repo Repository
}

// NewService 创建商品领域服务
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

var skuPattern = regexp.MustCompile(`^[A-Za-z0-9-]{2,40}$`)

func (s *service) Register(ctx context.Context, sku, name string, price int64, stock int, category, imageURL, description string, freeShipping bool) (*Product, error) {
	sku = strings.ToUpper(strings.TrimSpace(sku))
	if !skuPattern.MatchString(sku) {
		return nil, ErrInvalidSKU
	}
	if price < 1 {
		return nil, ErrInvalidPrice
	}
	if stock < 0 {
		return nil, ErrInvalidStock
	}

	// 先查一次给出友好提示，并发场景由唯一索引兜底
	existing, err := s.repo.FindBySKU(ctx, sku)
	if err == nil && existing != nil {
		return nil, ErrSKUDuplicate
	}
	if err != nil && !errors.Is(err, ErrProductNotFound) {
		return nil, err
	}

	p := NewProduct(sku, name, price, stock, category, imageURL, description, freeShipping)
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) GetByID(ctx context.Context, id uint) (*Product, error) {
	return s.repo.FindByID(ctx, id)
}
