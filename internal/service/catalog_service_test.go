package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/Cheertaboi/storefront-service/internal/mocks"
	"github.com/Cheertaboi/storefront-service/internal/models"
)

func TestCatalogService_Search(t *testing.T) {
	tests := []struct {
		name      string
		q         string
		limit     int
		wantLimit int
	}{
		{name: "default limit", q: "shirt", limit: 0, wantLimit: 20},
		{name: "capped limit", q: "shirt", limit: 500, wantLimit: 100},
		{name: "explicit limit", q: " shirt ", limit: 7, wantLimit: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := mocks.NewMockCatalogRepo(ctrl)
			repo.EXPECT().Search(gomock.Any(), "shirt", tt.wantLimit).Return([]models.ProductSummary{{ID: 1}}, nil)

			got, err := NewCatalogService(repo).Search(context.Background(), tt.q, tt.limit)
			require.NoError(t, err)
			assert.Len(t, got, 1)
		})
	}
}

func TestCatalogService_ShortQueries(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := NewCatalogService(mocks.NewMockCatalogRepo(ctrl))

	got, err := svc.Search(context.Background(), "   ", 10)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = svc.Suggestions(context.Background(), "s", 5)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestCatalogService_Suggestions(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockCatalogRepo(ctrl)
	repo.EXPECT().Suggestions(gomock.Any(), "sh", 10).Return([]models.ProductSummary{{ID: 1}, {ID: 2}}, nil)

	got, err := NewCatalogService(repo).Suggestions(context.Background(), "sh", 50)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
