package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/zachow1/pdv-medusax8-sub000/internal/apperr"
	"github.com/zachow1/pdv-medusax8-sub000/internal/dto"
	"github.com/zachow1/pdv-medusax8-sub000/internal/model"
	"github.com/zachow1/pdv-medusax8-sub000/internal/repository"
)

const (
	priceCachePrefix = "price:"
	priceCacheTTL    = 60 * time.Second
)

// CatalogService resolves item codes to description and price at line-entry
// time. Reads go through a short-lived Redis cache so burst scanning of the
// same code does not hammer the catalog table.
type CatalogService interface {
	FindProduct(ctx context.Context, code string) (*model.Product, error)
	PriceLookup(ctx context.Context, code string) (*dto.PriceLookupResponse, error)
}

type catalogService struct {
	repo repository.ProductRepository
	rdb  *redis.Client
}

func NewCatalogService(repo repository.ProductRepository, rdb *redis.Client) CatalogService {
	return &catalogService{repo: repo, rdb: rdb}
}

type cachedPrice struct {
	Code        string          `json:"code"`
	Description string          `json:"description"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

func (s *catalogService) FindProduct(ctx context.Context, code string) (*model.Product, error) {
	if s.rdb != nil {
		if raw, err := s.rdb.Get(ctx, priceCachePrefix+code).Result(); err == nil {
			var c cachedPrice
			if err := json.Unmarshal([]byte(raw), &c); err == nil {
				return &model.Product{
					Code:        c.Code,
					Description: c.Description,
					UnitPrice:   c.UnitPrice,
					Active:      true,
				}, nil
			}
		}
	}

	p, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, apperr.Newf(apperr.NotFound, "unknown item code %q", code)
	}

	if s.rdb != nil {
		data, _ := json.Marshal(cachedPrice{Code: p.Code, Description: p.Description, UnitPrice: p.UnitPrice})
		if err := s.rdb.Set(ctx, priceCachePrefix+code, data, priceCacheTTL).Err(); err != nil {
			log.Debug().Err(err).Str("code", code).Msg("price cache set failed")
		}
	}
	return p, nil
}

func (s *catalogService) PriceLookup(ctx context.Context, code string) (*dto.PriceLookupResponse, error) {
	p, err := s.FindProduct(ctx, code)
	if err != nil {
		return nil, err
	}
	return &dto.PriceLookupResponse{
		Code:        p.Code,
		Description: p.Description,
		UnitPrice:   p.UnitPrice,
	}, nil
}
