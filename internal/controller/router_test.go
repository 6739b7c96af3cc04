package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/nexdrive/scheduler/internal/model"
	"github.com/nexdrive/scheduler/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testSecret = []byte("test-secret")

type testAPI struct {
	router       *gin.Engine
	availability *MockAvailabilityUseCase
	bookings     *MockBookingUseCase
	catalog      *MockCatalogUseCase
	db           *MockPinger
}

func newTestAPI() *testAPI {
	gin.SetMode(gin.TestMode)
	api := &testAPI{
		availability: &MockAvailabilityUseCase{},
		bookings:     &MockBookingUseCase{},
		catalog:      &MockCatalogUseCase{},
		db:           &MockPinger{},
	}
	api.router = NewRouter(zap.NewNop(), testSecret, api.db, api.availability, api.bookings, api.catalog)
	return api
}

func signToken(t *testing.T, secret []byte, method jwt.SigningMethod, subject string, role string, expiresAt time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(method, Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	signed, err := token.SignedString(secret)
	require.NoError(t, err)
	return signed
}

func signTokenWithoutExpiry(t *testing.T, subject, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role:             role,
		RegisteredClaims: jwt.RegisteredClaims{Subject: subject},
	})
	signed, err := token.SignedString(testSecret)
	require.NoError(t, err)
	return signed
}

func bearer(t *testing.T, actor service.Actor) string {
	return "Bearer " + signToken(t, testSecret, jwt.SigningMethodHS256, actor.ProfileID.String(), string(actor.Role), time.Now().Add(time.Hour))
}

func (a *testAPI) do(method, path, auth, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHealthz(t *testing.T) {
	api := newTestAPI()
	api.db.On("Ping", mock.Anything).Return(nil).Once()

	w := api.do(http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	api.db.On("Ping", mock.Anything).Return(errors.New("connection refused")).Once()
	w = api.do(http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestGetAvailability(t *testing.T) {
	api := newTestAPI()
	instructorID := uuid.New()
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.FixedZone("AEDT", 11*3600))
	api.availability.On("ResolveAvailability", mock.Anything, instructorID, "2026-03-02").Return(&service.DayAvailability{
		Date:         "2026-03-02",
		InstructorID: instructorID,
		Slots:        []model.TimeSlot{{Start: start, End: start.Add(time.Hour), Available: true}},
	}, nil)

	w := api.do(http.MethodGet, "/api/availability?instructorId="+instructorID.String()+"&date=2026-03-02", "", "")

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "2026-03-02", body["date"])
	assert.Equal(t, instructorID.String(), body["instructorId"])
	slots := body["slots"].([]any)
	require.Len(t, slots, 1)
	slot := slots[0].(map[string]any)
	assert.Equal(t, "2026-03-02T09:00:00+11:00", slot["start"])
	assert.Equal(t, true, slot["available"])
	api.availability.AssertExpectations(t)
}

func TestGetAvailability_BadQuery(t *testing.T) {
	api := newTestAPI()

	for _, path := range []string{
		"/api/availability",
		"/api/availability?date=2026-03-02",
		"/api/availability?instructorId=abc&date=2026-03-02",
	} {
		w := api.do(http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}
	api.availability.AssertNotCalled(t, "ResolveAvailability", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetAvailability_DomainErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("%w: too far ahead", service.ErrInvalidDate), http.StatusBadRequest, "invalid_date"},
		{service.ErrInstructorNotFound, http.StatusNotFound, "instructor_not_found"},
		{fmt.Errorf("get rules: %w: %w", service.ErrStoreUnavailable, errors.New("dial tcp")), http.StatusServiceUnavailable, "store_unavailable"},
		{errors.New("boom"), http.StatusInternalServerError, "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			api := newTestAPI()
			api.availability.On("ResolveAvailability", mock.Anything, mock.Anything, mock.Anything).Return(nil, tt.err)

			w := api.do(http.MethodGet, "/api/availability?instructorId="+uuid.NewString()+"&date=2026-03-02", "", "")

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decode(t, w)["code"])
		})
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	subject := uuid.NewString()
	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic abc"},
		{"garbage token", "Bearer not-a-jwt"},
		{"wrong secret", "Bearer " + signToken(t, []byte("other"), jwt.SigningMethodHS256, subject, "student", time.Now().Add(time.Hour))},
		{"wrong algorithm", "Bearer " + signToken(t, testSecret, jwt.SigningMethodHS384, subject, "student", time.Now().Add(time.Hour))},
		{"no expiry", "Bearer " + signTokenWithoutExpiry(t, subject, "student")},
		{"expired", "Bearer " + signToken(t, testSecret, jwt.SigningMethodHS256, subject, "student", time.Now().Add(-time.Minute))},
		{"subject not uuid", "Bearer " + signToken(t, testSecret, jwt.SigningMethodHS256, "user-1", "student", time.Now().Add(time.Hour))},
		{"unknown role", "Bearer " + signToken(t, testSecret, jwt.SigningMethodHS256, subject, "superuser", time.Now().Add(time.Hour))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI()
			w := api.do(http.MethodGet, "/api/bookings", tt.header, "")
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			api.bookings.AssertNotCalled(t, "ListBookings", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestCreateBooking(t *testing.T) {
	api := newTestAPI()
	actor := service.Actor{ProfileID: uuid.New(), Role: model.RoleStudent}
	instructorID, serviceID := uuid.New(), uuid.New()
	scheduledAt := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	var got service.CreateBookingInput
	api.bookings.On("CreateBooking", mock.Anything, actor, mock.Anything).
		Run(func(args mock.Arguments) { got = args.Get(2).(service.CreateBookingInput) }).
		Return(&model.BookingDetails{Booking: model.Booking{ID: uuid.New(), Status: model.BookingStatusPending}}, nil)

	body := fmt.Sprintf(`{"instructorId":%q,"serviceId":%q,"scheduledAt":"2026-03-02T21:00:00+11:00","notes":"first lesson"}`,
		instructorID, serviceID)
	w := api.do(http.MethodPost, "/api/bookings", bearer(t, actor), body)

	require.Equal(t, http.StatusCreated, w.Code)
	booking := decode(t, w)["booking"].(map[string]any)
	assert.Equal(t, "pending", booking["status"])

	assert.Equal(t, instructorID, got.InstructorID)
	assert.Equal(t, serviceID, got.ServiceID)
	assert.True(t, got.ScheduledAt.Equal(scheduledAt))
	require.NotNil(t, got.Notes)
	assert.Equal(t, "first lesson", *got.Notes)
}

func TestCreateBooking_Errors(t *testing.T) {
	actor := service.Actor{ProfileID: uuid.New(), Role: model.RoleStudent}
	validBody := fmt.Sprintf(`{"instructorId":%q,"serviceId":%q,"scheduledAt":"2026-03-02T10:00:00+11:00"}`, uuid.New(), uuid.New())

	tests := []struct {
		name   string
		body   string
		err    error
		status int
		code   string
	}{
		{"slot taken", validBody, service.ErrSlotUnavailable, http.StatusConflict, "slot_unavailable"},
		{"student missing", validBody, service.ErrStudentNotFound, http.StatusNotFound, "student_not_found"},
		{"bad json", `{"scheduledAt":`, nil, http.StatusBadRequest, "invalid_input"},
		{"bad time", `{"scheduledAt":"tomorrow"}`, nil, http.StatusBadRequest, "invalid_input"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI()
			if tt.err != nil {
				api.bookings.On("CreateBooking", mock.Anything, actor, mock.Anything).Return(nil, tt.err)
			}

			w := api.do(http.MethodPost, "/api/bookings", bearer(t, actor), tt.body)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decode(t, w)["code"])
		})
	}
}

func TestUpdateBookingStatus(t *testing.T) {
	api := newTestAPI()
	actor := service.Actor{ProfileID: uuid.New(), Role: model.RoleInstructor}
	bookingID := uuid.New()
	reason := "weather"
	api.bookings.On("UpdateBookingStatus", mock.Anything, actor, bookingID,
		service.StatusInput{Status: model.BookingStatusCancelled, Reason: &reason}).
		Return(&model.BookingDetails{Booking: model.Booking{ID: bookingID, Status: model.BookingStatusCancelled}}, nil)

	w := api.do(http.MethodPatch, "/api/bookings/"+bookingID.String(), bearer(t, actor), `{"status":"cancelled","reason":"weather"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cancelled", decode(t, w)["booking"].(map[string]any)["status"])
	api.bookings.AssertExpectations(t)
}

func TestUpdateBookingStatus_Errors(t *testing.T) {
	actor := service.Actor{ProfileID: uuid.New(), Role: model.RoleStudent}

	tests := []struct {
		err    error
		status int
		code   string
	}{
		{service.ErrLateCancellation, http.StatusBadRequest, "late_cancellation"},
		{service.ErrForbidden, http.StatusForbidden, "forbidden"},
		{service.ErrBookingNotFound, http.StatusNotFound, "booking_not_found"},
		{fmt.Errorf("%w: cancelled -> confirmed", service.ErrInvalidTransition), http.StatusBadRequest, "invalid_transition"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			api := newTestAPI()
			api.bookings.On("UpdateBookingStatus", mock.Anything, actor, mock.Anything, mock.Anything).Return(nil, tt.err)

			w := api.do(http.MethodPatch, "/api/bookings/"+uuid.NewString(), bearer(t, actor), `{"status":"cancelled"}`)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decode(t, w)["code"])
		})
	}
}

func TestUpdateBookingStatus_BadID(t *testing.T) {
	api := newTestAPI()
	actor := service.Actor{ProfileID: uuid.New(), Role: model.RoleInstructor}

	w := api.do(http.MethodPatch, "/api/bookings/42", bearer(t, actor), `{"status":"confirmed"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListBookings(t *testing.T) {
	api := newTestAPI()
	actor := service.Actor{ProfileID: uuid.New(), Role: model.RoleInstructor}
	api.bookings.On("ListBookings", mock.Anything, actor, 10, 20).Return([]*model.Booking{{ID: uuid.New()}}, nil)

	w := api.do(http.MethodGet, "/api/bookings?limit=10&offset=20", bearer(t, actor), "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["bookings"].([]any), 1)

	w = api.do(http.MethodGet, "/api/bookings?limit=ten", bearer(t, actor), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetBooking(t *testing.T) {
	api := newTestAPI()
	actor := service.Actor{ProfileID: uuid.New(), Role: model.RoleStudent}
	bookingID := uuid.New()
	api.bookings.On("GetBooking", mock.Anything, actor, bookingID).
		Return(&model.BookingDetails{Booking: model.Booking{ID: bookingID}}, nil)

	w := api.do(http.MethodGet, "/api/bookings/"+bookingID.String(), bearer(t, actor), "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, bookingID.String(), decode(t, w)["booking"].(map[string]any)["id"])
}

func TestCreateRule(t *testing.T) {
	api := newTestAPI()
	actor := service.Actor{ProfileID: uuid.New(), Role: model.RoleInstructor}
	monday := 1
	api.availability.On("CreateRule", mock.Anything, actor, service.RuleInput{DayOfWeek: &monday, StartTime: "09:00", EndTime: "17:00"}).
		Return(&model.AvailabilityRule{ID: uuid.New(), DayOfWeek: 1, StartTime: "09:00", EndTime: "17:00", IsActive: true}, nil)

	w := api.do(http.MethodPost, "/api/availability/rules", bearer(t, actor), `{"dayOfWeek":1,"startTime":"09:00","endTime":"17:00"}`)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "09:00", decode(t, w)["rule"].(map[string]any)["startTime"])
}

func TestCreateRule_Overlap(t *testing.T) {
	api := newTestAPI()
	actor := service.Actor{ProfileID: uuid.New(), Role: model.RoleInstructor}
	api.availability.On("CreateRule", mock.Anything, actor, mock.Anything).Return(nil, service.ErrRuleOverlap)

	w := api.do(http.MethodPost, "/api/availability/rules", bearer(t, actor), `{"dayOfWeek":1,"startTime":"09:00","endTime":"17:00"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestDeactivateRule(t *testing.T) {
	api := newTestAPI()
	actor := service.Actor{ProfileID: uuid.New(), Role: model.RoleInstructor}
	ruleID := uuid.New()
	api.availability.On("DeactivateRule", mock.Anything, actor, ruleID).Return(nil)

	w := api.do(http.MethodDelete, "/api/availability/rules/"+ruleID.String(), bearer(t, actor), "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	api.availability.On("DeactivateRule", mock.Anything, actor, mock.Anything).Return(service.ErrRuleNotFound)
	w = api.do(http.MethodDelete, "/api/availability/rules/"+uuid.NewString(), bearer(t, actor), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSetOverride(t *testing.T) {
	api := newTestAPI()
	actor := service.Actor{ProfileID: uuid.New(), Role: model.RoleInstructor}
	var got service.OverrideInput
	api.availability.On("SetOverride", mock.Anything, actor, mock.Anything).
		Run(func(args mock.Arguments) { got = args.Get(2).(service.OverrideInput) }).
		Return(&model.AvailabilityOverride{ID: uuid.New(), IsAvailable: false}, nil)

	w := api.do(http.MethodPost, "/api/availability/overrides", bearer(t, actor), `{"date":"2026-03-09","isAvailable":false,"reason":"Canberra Day"}`)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "2026-03-09", got.Date)
	require.NotNil(t, got.IsAvailable)
	assert.False(t, *got.IsAvailable)
	require.NotNil(t, got.Reason)
	assert.Equal(t, "Canberra Day", *got.Reason)
}

func TestListServices(t *testing.T) {
	api := newTestAPI()
	instructorID := uuid.New()
	api.catalog.On("ListServices", mock.Anything, instructorID).
		Return([]*model.Service{{ID: uuid.New(), InstructorID: instructorID, Name: "Standard lesson", DurationMinutes: 60, PriceCents: 8500, IsActive: true}}, nil)
	api.catalog.On("ListServices", mock.Anything, uuid.Nil).Return([]*model.Service{}, nil)

	w := api.do(http.MethodGet, "/api/services?instructorId="+instructorID.String(), "", "")
	require.Equal(t, http.StatusOK, w.Code)
	services := decode(t, w)["services"].([]any)
	require.Len(t, services, 1)
	assert.Equal(t, float64(8500), services[0].(map[string]any)["priceCents"])

	w = api.do(http.MethodGet, "/api/services", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)["services"])

	w = api.do(http.MethodGet, "/api/services?instructorId=nope", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateService(t *testing.T) {
	api := newTestAPI()
	actor := service.Actor{ProfileID: uuid.New(), Role: model.RoleInstructor}
	api.catalog.On("CreateService", mock.Anything, actor, service.ServiceInput{Name: "Extended lesson", DurationMinutes: 90, PriceCents: 12500}).
		Return(&model.Service{ID: uuid.New(), Name: "Extended lesson", DurationMinutes: 90, PriceCents: 12500, IsActive: true}, nil)

	w := api.do(http.MethodPost, "/api/services", "", `{"name":"Extended lesson","durationMinutes":90,"priceCents":12500}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(http.MethodPost, "/api/services", bearer(t, actor), `{"name":"Extended lesson","durationMinutes":90,"priceCents":12500}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Extended lesson", decode(t, w)["service"].(map[string]any)["name"])
}

func TestCreateService_Errors(t *testing.T) {
	api := newTestAPI()
	student := service.Actor{ProfileID: uuid.New(), Role: model.RoleStudent}
	instructor := service.Actor{ProfileID: uuid.New(), Role: model.RoleInstructor}
	api.catalog.On("CreateService", mock.Anything, student, mock.Anything).Return(nil, service.ErrForbidden)
	api.catalog.On("CreateService", mock.Anything, instructor, mock.Anything).Return(nil, service.ErrInvalidInput)

	w := api.do(http.MethodPost, "/api/services", bearer(t, student), `{"name":"Free lesson","durationMinutes":60,"priceCents":100}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(http.MethodPost, "/api/services", bearer(t, instructor), `{"name":"Quick","durationMinutes":5,"priceCents":100}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(http.MethodPost, "/api/services", bearer(t, instructor), `{"name":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
