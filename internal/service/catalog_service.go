package service

import (
	"context"
	"strings"

	"github.com/Cheertaboi/storefront-service/internal/apperr"
	"github.com/Cheertaboi/storefront-service/internal/models"
)

const (
	defaultSearchLimit     = 20
	maxSearchLimit         = 100
	defaultSuggestLimit    = 5
	maxSuggestLimit        = 10
	minSuggestLength       = 2
	defaultBestSellerLimit = 3
)

type CatalogService struct {
	catalog CatalogRepo
}

func NewCatalogService(catalog CatalogRepo) *CatalogService {
	return &CatalogService{catalog: catalog}
}

func clamp(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

// Search is the single product search; prices are effective prices.
func (s *CatalogService) Search(ctx context.Context, q string, limit int) ([]models.ProductSummary, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []models.ProductSummary{}, nil
	}
	out, err := s.catalog.Search(ctx, q, clamp(limit, defaultSearchLimit, maxSearchLimit))
	if err != nil {
		return nil, apperr.Backend("search failed", err)
	}
	return out, nil
}

// Suggestions serves autocomplete; queries shorter than two characters
// return nothing.
func (s *CatalogService) Suggestions(ctx context.Context, q string, limit int) ([]models.ProductSummary, error) {
	q = strings.TrimSpace(q)
	if len([]rune(q)) < minSuggestLength {
		return []models.ProductSummary{}, nil
	}
	out, err := s.catalog.Suggestions(ctx, q, clamp(limit, defaultSuggestLimit, maxSuggestLimit))
	if err != nil {
		return nil, apperr.Backend("suggestions failed", err)
	}
	return out, nil
}

func (s *CatalogService) BestSellers(ctx context.Context, limit int) ([]models.ProductSummary, error) {
	out, err := s.catalog.BestSellers(ctx, clamp(limit, defaultBestSellerLimit, maxSuggestLimit))
	if err != nil {
		return nil, apperr.Backend("could not load best sellers", err)
	}
	return out, nil
}
