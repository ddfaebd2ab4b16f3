package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"sevabook/pkg/date"
	apperrors "sevabook/pkg/errors"
	"sevabook/pkg/logger"
	"sevabook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

// ────────────────────────────────────────────────
// Mock service for testing
// ────────────────────────────────────────────────

type mockBookingService struct {
	createFunc func(ctx context.Context, booking *model.Booking) error
	listFunc   func(ctx context.Context) ([]*model.Booking, error)
	deleteFunc func(ctx context.Context, id string) error
}

func (m *mockBookingService) Create(ctx context.Context, booking *model.Booking) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, booking)
	}
	return nil
}

func (m *mockBookingService) List(ctx context.Context) ([]*model.Booking, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx)
	}
	return []*model.Booking{}, nil
}

func (m *mockBookingService) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{
		Level:     "info",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
}

func newTestRouter(svc *mockBookingService) *httprouter.Router {
	router := httprouter.New()
	NewBookingHandler(svc, testLogger()).RegisterRoutes(router)
	return router
}

func mustDate(t *testing.T, s string) date.Date {
	t.Helper()
	d, err := date.Parse(s)
	if err != nil {
		t.Fatalf("failed to parse date %q: %v", s, err)
	}
	return d
}

// ────────────────────────────────────────────────
// GET /
// ────────────────────────────────────────────────

func TestGetAll_ReturnsBareArray(t *testing.T) {
	svc := &mockBookingService{
		listFunc: func(ctx context.Context) ([]*model.Booking, error) {
			return []*model.Booking{
				{
					ID:             "507f1f77bcf86cd799439011",
					SevakarthaName: "Ramesh Sharma",
					Department:     "Temple Trust",
					SevaType:       "Abhishekam",
					PoojaDate:      mustDate(t, "2024-06-10"),
					Day:            10,
					Month:          6,
					Year:           2024,
					Status:         "booked",
				},
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var got []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("response is not a JSON array: %v\nbody: %s", err, rec.Body.String())
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 booking, got %d", len(got))
	}
	if got[0]["pooja_date"] != "2024-06-10" {
		t.Errorf("expected pooja_date rendered as 2024-06-10, got %v", got[0]["pooja_date"])
	}
	if got[0]["status"] != "booked" {
		t.Errorf("expected status booked, got %v", got[0]["status"])
	}
}

func TestGetAll_EmptyListRendersAsEmptyArray(t *testing.T) {
	svc := &mockBookingService{}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("expected body [], got %s", body)
	}
}

func TestGetAll_ServiceFailure(t *testing.T) {
	svc := &mockBookingService{
		listFunc: func(ctx context.Context) ([]*model.Booking, error) {
			return nil, apperrors.Internal("Failed to retrieve bookings", nil)
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

// ────────────────────────────────────────────────
// POST /add
// ────────────────────────────────────────────────

func TestCreate_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		serviceErr error
		wantStatus int
	}{
		{
			name:       "success",
			serviceErr: nil,
			wantStatus: http.StatusOK,
		},
		{
			name:       "lead time violation",
			serviceErr: apperrors.InvalidInput("Booking is only allowed exactly 3 days before the pooja date"),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "date already booked",
			serviceErr: apperrors.Conflict("The date 2024-06-10 is already booked and unavailable"),
			wantStatus: http.StatusConflict,
		},
		{
			name:       "field validation failure",
			serviceErr: apperrors.Validation("Booking validation failed", nil),
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "store failure",
			serviceErr: apperrors.Internal("Failed to create booking", nil),
			wantStatus: http.StatusInternalServerError,
		},
	}

	body := `{
		"sevakartha_name": "Ramesh Sharma",
		"department": "Temple Trust",
		"seva_type": "Abhishekam",
		"pooja_date": "2024-06-10"
	}`

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockBookingService{
				createFunc: func(ctx context.Context, booking *model.Booking) error {
					return tt.serviceErr
				},
			}

			req := httptest.NewRequest(http.MethodPost, "/add", strings.NewReader(body))
			rec := httptest.NewRecorder()
			newTestRouter(svc).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d (body: %s)", tt.wantStatus, rec.Code, rec.Body.String())
			}

			if tt.serviceErr == nil {
				var resp map[string]string
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
					t.Fatalf("invalid JSON response: %v", err)
				}
				if resp["message"] != "Booking saved successfully" {
					t.Errorf("unexpected confirmation message: %q", resp["message"])
				}
			}
		})
	}
}

func TestCreate_InvalidJSON(t *testing.T) {
	svc := &mockBookingService{
		createFunc: func(ctx context.Context, booking *model.Booking) error {
			t.Error("service must not be called for a malformed body")
			return nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/add", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestCreate_MalformedDate(t *testing.T) {
	svc := &mockBookingService{
		createFunc: func(ctx context.Context, booking *model.Booking) error {
			t.Error("service must not be called when the date fails to decode")
			return nil
		},
	}

	body := `{
		"sevakartha_name": "Ramesh Sharma",
		"department": "Temple Trust",
		"seva_type": "Abhishekam",
		"pooja_date": "10-06-2024"
	}`

	req := httptest.NewRequest(http.MethodPost, "/add", strings.NewReader(body))
	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed date, got %d", rec.Code)
	}
}

// ────────────────────────────────────────────────
// DELETE /:id
// ────────────────────────────────────────────────

func TestDelete_Success(t *testing.T) {
	var gotID string
	svc := &mockBookingService{
		deleteFunc: func(ctx context.Context, id string) error {
			gotID = id
			return nil
		},
	}

	req := httptest.NewRequest(http.MethodDelete, "/507f1f77bcf86cd799439011", nil)
	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotID != "507f1f77bcf86cd799439011" {
		t.Errorf("expected id from path, got %q", gotID)
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if resp["message"] != "Booking deleted successfully" {
		t.Errorf("unexpected confirmation message: %q", resp["message"])
	}
}

func TestDelete_UnknownIDStillReturns200(t *testing.T) {
	// The service reports success for missing ids; the handler passes that through.
	svc := &mockBookingService{
		deleteFunc: func(ctx context.Context, id string) error {
			return nil
		},
	}

	req := httptest.NewRequest(http.MethodDelete, "/000000000000000000000000", nil)
	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestDelete_InvalidIDFormat(t *testing.T) {
	svc := &mockBookingService{
		deleteFunc: func(ctx context.Context, id string) error {
			return apperrors.InvalidInput("Invalid booking ID format")
		},
	}

	req := httptest.NewRequest(http.MethodDelete, "/not-an-id", nil)
	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}
