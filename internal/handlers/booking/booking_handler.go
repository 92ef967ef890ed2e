// internal/handlers/booking/booking_handler.go
package booking

import (
	"net/http"

	"ebeauty-client/internal/domain/catalog"
	"ebeauty-client/internal/middleware"
	"ebeauty-client/internal/pkg/response"
	bookingUsecase "ebeauty-client/internal/service/booking"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type BookingHandler struct {
	bookingService *bookingUsecase.BookingService
	logger         *zap.Logger
}

func NewBookingHandler(bookingService *bookingUsecase.BookingService, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{bookingService: bookingService, logger: logger}
}

// CreateBooking handles POST /bookings (client role)
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	clientID := middleware.MustGetUserID(c)

	var req catalog.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid booking request", err)
		return
	}

	booking, err := h.bookingService.Create(c.Request.Context(), clientID, &req)
	if err != nil {
		h.logger.Warn("booking failed", zap.String("client_id", clientID), zap.Error(err))
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "Booking request sent", booking)
}
