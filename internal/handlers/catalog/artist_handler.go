// internal/handlers/catalog/artist_handler.go
package catalog

import (
	"net/http"

	"ebeauty-client/internal/pkg/response"
	catalogUsecase "ebeauty-client/internal/service/catalog"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ArtistHandler struct {
	catalogService *catalogUsecase.CatalogService
	logger         *zap.Logger
}

func NewArtistHandler(catalogService *catalogUsecase.CatalogService, logger *zap.Logger) *ArtistHandler {
	return &ArtistHandler{catalogService: catalogService, logger: logger}
}

// ListArtists handles GET /artists?category=
func (h *ArtistHandler) ListArtists(c *gin.Context) {
	artists, err := h.catalogService.ListArtists(c.Request.Context(), c.Query("category"))
	if err != nil {
		h.logger.Error("failed to list artists", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "Could not fetch artists.", nil)
		return
	}

	response.Success(c, http.StatusOK, "artists retrieved", artists)
}
