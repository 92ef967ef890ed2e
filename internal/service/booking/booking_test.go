package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ebeauty-client/internal/domain/catalog"
	wstypes "ebeauty-client/internal/domain/websocket"
	xerrors "ebeauty-client/internal/pkg/errors"
	"ebeauty-client/internal/repository/memory"
)

type pushed struct {
	userID string
	event  wstypes.EventType
	data   interface{}
}

type recordingNotifier struct {
	mu     sync.Mutex
	pushes []pushed
}

func (n *recordingNotifier) SendToUser(userID string, eventType wstypes.EventType, data interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pushes = append(n.pushes, pushed{userID, eventType, data})
}

var fixedNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newService(t *testing.T) (*BookingService, *memory.Store, *recordingNotifier) {
	t.Helper()
	store := memory.NewStore()
	require.NoError(t, memory.Seed(store))

	notifier := &recordingNotifier{}
	svc := NewBookingService(store, store, store, notifier, zap.NewNop())
	svc.now = func() time.Time { return fixedNow }
	return svc, store, notifier
}

func validRequest() *catalog.CreateBookingRequest {
	return &catalog.CreateBookingRequest{
		ArtistID:    "2",
		ServiceID:   "s2",
		Address:     "  7 Chapel Rd ",
		BookingTime: fixedNow.Add(48 * time.Hour),
	}
}

func TestCreate_NotifiesArtist(t *testing.T) {
	svc, store, notifier := newService(t)

	b, err := svc.Create(context.Background(), "1", validRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, b.ID)
	assert.Equal(t, catalog.BookingPending, b.Status)
	assert.Equal(t, "7 Chapel Rd", b.Location.Address)
	assert.Equal(t, int64(12000), b.TotalAmount)
	assert.Equal(t, fixedNow, b.CreatedAt)

	require.Len(t, notifier.pushes, 1)
	p := notifier.pushes[0]
	assert.Equal(t, "2", p.userID)
	assert.Equal(t, wstypes.EventTypeNewBookingRequest, p.event)

	data, ok := p.data.(wstypes.BookingRequestData)
	require.True(t, ok)
	assert.Equal(t, b.ID, data.BookingID)
	assert.Equal(t, "Test Client", data.ClientName)
	assert.Equal(t, "Bridal Makeup", data.ServiceName)

	assert.Len(t, store.BookingsFor("1"), 1)
	assert.Len(t, store.BookingsFor("2"), 1)
}

func TestCreate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *catalog.CreateBookingRequest)
		want   error
	}{
		{"blank address", func(r *catalog.CreateBookingRequest) { r.Address = "   " }, xerrors.ErrInvalidInput},
		{"past time", func(r *catalog.CreateBookingRequest) { r.BookingTime = fixedNow.Add(-time.Minute) }, xerrors.ErrInvalidInput},
		{"unknown service", func(r *catalog.CreateBookingRequest) { r.ServiceID = "s404" }, xerrors.ErrNotFound},
		{"service of another artist", func(r *catalog.CreateBookingRequest) { r.ServiceID = "s3" }, xerrors.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, notifier := newService(t)
			req := validRequest()
			tt.mutate(req)

			_, err := svc.Create(context.Background(), "1", req)
			assert.ErrorIs(t, err, tt.want)
			assert.NotEmpty(t, xerrors.DisplayMessage(err))
			assert.Empty(t, notifier.pushes)
			assert.Empty(t, store.BookingsFor("1"))
		})
	}
}

func TestRespond(t *testing.T) {
	svc, _, notifier := newService(t)
	ctx := context.Background()

	b, err := svc.Create(ctx, "1", validRequest())
	require.NoError(t, err)

	_, err = svc.Respond(ctx, "4", catalog.RespondBookingRequest{BookingID: b.ID, Accept: true})
	assert.ErrorIs(t, err, xerrors.ErrForbidden)

	confirmed, err := svc.Respond(ctx, "2", catalog.RespondBookingRequest{BookingID: b.ID, Accept: true})
	require.NoError(t, err)
	assert.Equal(t, catalog.BookingConfirmed, confirmed.Status)

	require.Len(t, notifier.pushes, 2)
	last := notifier.pushes[1]
	assert.Equal(t, "1", last.userID)
	assert.Equal(t, wstypes.EventTypeBookingStatus, last.event)
	assert.Equal(t, wstypes.BookingStatusData{BookingID: b.ID, Status: "Confirmed"}, last.data)

	_, err = svc.Respond(ctx, "2", catalog.RespondBookingRequest{BookingID: b.ID, Accept: false})
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
	assert.Equal(t, "Booking is already confirmed", xerrors.DisplayMessage(err))

	_, err = svc.Respond(ctx, "2", catalog.RespondBookingRequest{BookingID: "missing"})
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
}
