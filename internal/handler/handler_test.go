package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kilat-Pet-Delivery/service-reservation/internal/application"
	bookingDomain "github.com/Kilat-Pet-Delivery/service-reservation/internal/domain/booking"
	"github.com/Kilat-Pet-Delivery/service-reservation/internal/platform/auth"
	"github.com/Kilat-Pet-Delivery/service-reservation/internal/platform/domain"
)

type stubService struct {
	lastRole  application.Role
	lastState string
	lastPage  domain.Page
	lastIDs   []uuid.UUID
	approved  *bool
	err       error
}

func (s *stubService) CreateBooking(_ context.Context, requesterID uuid.UUID, req application.CreateBookingRequest) (*application.BookingDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &application.BookingDTO{ID: uuid.New(), Start: req.Start, End: req.End, Status: "WAITING",
		Item: application.ItemSummaryDTO{ID: req.ItemID}, Booker: application.UserSummaryDTO{ID: requesterID}}, nil
}

func (s *stubService) DecideBooking(_ context.Context, _, bookingID uuid.UUID, approve bool) (*application.BookingDTO, error) {
	s.approved = &approve
	if s.err != nil {
		return nil, s.err
	}
	return &application.BookingDTO{ID: bookingID, Status: "APPROVED"}, nil
}

func (s *stubService) GetBooking(_ context.Context, _, bookingID uuid.UUID) (*application.BookingDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &application.BookingDTO{ID: bookingID}, nil
}

func (s *stubService) ListBookings(_ context.Context, role application.Role, _ uuid.UUID, state string, page domain.Page) ([]application.BookingDTO, error) {
	s.lastRole, s.lastState, s.lastPage = role, state, page
	if _, err := bookingDomain.ParseState(state); err != nil {
		return nil, err
	}
	return []application.BookingDTO{}, nil
}

func (s *stubService) OwnerItemBookings(context.Context, uuid.UUID) ([]application.ItemBookingsDTO, error) {
	return []application.ItemBookingsDTO{}, nil
}

func (s *stubService) ItemBookingsForViewer(_ context.Context, _, itemID uuid.UUID) (*application.ItemBookingsDTO, error) {
	return &application.ItemBookingsDTO{ID: itemID}, nil
}

func (s *stubService) SummaryForOwner(_ context.Context, _ uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]application.LastNextDTO, error) {
	s.lastIDs = ids
	if s.err != nil {
		return nil, s.err
	}
	return map[uuid.UUID]application.LastNextDTO{}, nil
}

func (s *stubService) CanReview(_ context.Context, _, itemID uuid.UUID) (*application.ReviewEligibilityDTO, error) {
	return &application.ReviewEligibilityDTO{ItemID: itemID, CanReview: true}, nil
}

func (s *stubService) GetBookingStats(context.Context) (*application.BookingStatsDTO, error) {
	return &application.BookingStatsDTO{TotalBookings: 3, ByStatus: map[string]int64{"WAITING": 3}}, nil
}

type testServer struct {
	router  *gin.Engine
	service *stubService
	jwt     *auth.JWTManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc := &stubService{}
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)

	router := gin.New()
	NewBookingHandler(svc).RegisterRoutes(&router.RouterGroup, jwtManager)
	NewItemHandler(svc).RegisterRoutes(&router.RouterGroup, jwtManager)
	NewAdminBookingHandler(svc).RegisterRoutes(&router.RouterGroup, jwtManager)
	return &testServer{router: router, service: svc, jwt: jwtManager}
}

func (s *testServer) do(t *testing.T, method, path, role, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		token, err := s.jwt.GenerateAccessToken(uuid.New(), role)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code
}

func TestBookingRoutes_RequireToken(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/api/v1/bookings", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateBooking(t *testing.T) {
	s := newTestServer(t)

	body := `{"item_id":"` + uuid.NewString() + `","start":"2030-01-01T10:00:00Z","end":"2030-01-01T11:00:00Z"}`
	rec := s.do(t, http.MethodPost, "/api/v1/bookings", auth.RoleUser, body)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/bookings", auth.RoleUser, `{"start":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateBooking_DomainErrorsMapToStatus(t *testing.T) {
	body := `{"item_id":"` + uuid.NewString() + `","start":"2030-01-01T10:00:00Z","end":"2030-01-01T11:00:00Z"}`
	tests := []struct {
		err  error
		want int
	}{
		{bookingDomain.ErrInvalidInterval, http.StatusBadRequest},
		{bookingDomain.ErrItemUnavailable, http.StatusBadRequest},
		{bookingDomain.ErrConflict, http.StatusConflict},
		{bookingDomain.ErrOwnerCannotBook, http.StatusForbidden},
		{bookingDomain.ErrBookingNotFound, http.StatusNotFound},
		{assert.AnError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			s := newTestServer(t)
			s.service.err = tt.err
			rec := s.do(t, http.MethodPost, "/api/v1/bookings", auth.RoleUser, body)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestDecideBooking(t *testing.T) {
	s := newTestServer(t)
	id := uuid.NewString()

	rec := s.do(t, http.MethodPatch, "/api/v1/bookings/"+id+"?approved=false", auth.RoleUser, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, s.service.approved)
	assert.False(t, *s.service.approved)

	rec = s.do(t, http.MethodPatch, "/api/v1/bookings/"+id, auth.RoleUser, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPatch, "/api/v1/bookings/not-a-uuid?approved=true", auth.RoleUser, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s.service.err = bookingDomain.ErrAlreadyDecided
	rec = s.do(t, http.MethodPatch, "/api/v1/bookings/"+id+"?approved=true", auth.RoleUser, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "ALREADY_DECIDED", errorCode(t, rec))
}

func TestGetBooking_Forbidden(t *testing.T) {
	s := newTestServer(t)
	s.service.err = bookingDomain.ErrForbidden
	rec := s.do(t, http.MethodGet, "/api/v1/bookings/"+uuid.NewString(), auth.RoleUser, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListBookings(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/bookings", auth.RoleUser, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, application.RoleBooker, s.service.lastRole)
	assert.Equal(t, "ALL", s.service.lastState)
	assert.Equal(t, domain.Page{Offset: 0, Limit: 20}, s.service.lastPage)

	rec = s.do(t, http.MethodGet, "/api/v1/bookings/owner?state=CURRENT&from=10&size=5", auth.RoleUser, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, application.RoleOwner, s.service.lastRole)
	assert.Equal(t, "CURRENT", s.service.lastState)
	assert.Equal(t, domain.Page{Offset: 10, Limit: 5}, s.service.lastPage)

	rec = s.do(t, http.MethodGet, "/api/v1/bookings?state=UNSUPPORTED_STATUS", auth.RoleUser, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "UNKNOWN_STATE", errorCode(t, rec))

	for _, q := range []string{"from=-1", "size=0", "size=101", "from=x"} {
		rec = s.do(t, http.MethodGet, "/api/v1/bookings?"+q, auth.RoleUser, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestItemRoutes(t *testing.T) {
	s := newTestServer(t)
	a, b := uuid.New(), uuid.New()

	rec := s.do(t, http.MethodGet, "/api/v1/items/bookings", auth.RoleUser, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/items/bookings/summary?ids="+a.String()+","+b.String(), auth.RoleUser, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []uuid.UUID{a, b}, s.service.lastIDs)

	rec = s.do(t, http.MethodGet, "/api/v1/items/bookings/summary?ids=bad", auth.RoleUser, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s.service.err = bookingDomain.ErrNotOwner
	rec = s.do(t, http.MethodGet, "/api/v1/items/bookings/summary?ids="+a.String(), auth.RoleUser, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/items/"+a.String()+"/bookings", auth.RoleUser, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "last_booking")

	rec = s.do(t, http.MethodGet, "/api/v1/items/"+a.String()+"/review-eligibility", auth.RoleUser, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"can_review":true`)
}

func TestAdminStats_RequiresAdmin(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/admin/stats/bookings", auth.RoleUser, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/admin/stats/bookings", auth.RoleAdmin, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_bookings":3`)
}
