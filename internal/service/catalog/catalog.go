// internal/service/catalog/catalog.go
package catalog

import (
	"context"
	"fmt"
	"strings"

	"ebeauty-client/internal/domain/catalog"

	"go.uber.org/zap"
)

type CatalogService struct {
	artists catalog.ArtistRepository
	logger  *zap.Logger
}

func NewCatalogService(artists catalog.ArtistRepository, logger *zap.Logger) *CatalogService {
	return &CatalogService{artists: artists, logger: logger}
}

// ListArtists returns the artists offering category, or all of them
func (s *CatalogService) ListArtists(ctx context.Context, category string) ([]catalog.ArtistProfile, error) {
	artists, err := s.artists.ListArtists(ctx, strings.TrimSpace(category))
	if err != nil {
		return nil, fmt.Errorf("failed to list artists: %w", err)
	}
	if artists == nil {
		artists = []catalog.ArtistProfile{}
	}
	return artists, nil
}
