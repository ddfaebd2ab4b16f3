package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	bookingserrors "sevabook/internal/bookings/errors"
	"sevabook/internal/bookings/validator"
	"sevabook/pkg/clock"
	"sevabook/pkg/config"
	"sevabook/pkg/date"
	mongotx "sevabook/pkg/db/mongo"
	apperrors "sevabook/pkg/errors"
	"sevabook/pkg/logger"
	"sevabook/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

// ────────────────────────────────────────────────
// In-memory fakes
// ────────────────────────────────────────────────

type fakeBookingRepository struct {
	bookings   map[string]*model.Booking // keyed by id
	byDate     map[string]string         // pooja date -> id
	nextID     int
	createErr  error
	findAllErr error
}

func newFakeBookingRepository() *fakeBookingRepository {
	return &fakeBookingRepository{
		bookings: map[string]*model.Booking{},
		byDate:   map[string]string{},
		nextID:   1,
	}
}

func (f *fakeBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	if f.createErr != nil {
		return f.createErr
	}
	if _, taken := f.byDate[booking.PoojaDate.String()]; taken {
		return fmt.Errorf("%w: %s", bookingserrors.ErrDateTaken, booking.PoojaDate)
	}
	booking.ID = fmt.Sprintf("%024d", f.nextID)
	booking.CreatedAt = time.Now().UTC()
	f.nextID++
	copied := *booking
	f.bookings[booking.ID] = &copied
	f.byDate[booking.PoojaDate.String()] = booking.ID
	return nil
}

func (f *fakeBookingRepository) FindAll(ctx context.Context) ([]*model.Booking, error) {
	if f.findAllErr != nil {
		return nil, f.findAllErr
	}
	var out []*model.Booking
	for _, b := range f.bookings {
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeBookingRepository) ExistsByDate(ctx context.Context, d date.Date) (bool, error) {
	_, taken := f.byDate[d.String()]
	return taken, nil
}

func (f *fakeBookingRepository) Delete(ctx context.Context, id string) error {
	if len(id) != 24 {
		return fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}
	b, ok := f.bookings[id]
	if !ok {
		return bookingserrors.ErrNotFound
	}
	delete(f.byDate, b.PoojaDate.String())
	delete(f.bookings, id)
	return nil
}

func (f *fakeBookingRepository) Count(ctx context.Context) (int64, error) {
	return int64(len(f.bookings)), nil
}

func (f *fakeBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(ctx)
}

type fakeLockRepository struct {
	locks     map[string]*model.BookingLock
	createErr error
}

func newFakeLockRepository() *fakeLockRepository {
	return &fakeLockRepository{locks: map[string]*model.BookingLock{}}
}

func (f *fakeLockRepository) Create(ctx context.Context, lock *model.BookingLock) (*model.BookingLock, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, held := f.locks[lock.ID]; held {
		return nil, mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
	}
	f.locks[lock.ID] = lock
	return lock, nil
}

func (f *fakeLockRepository) Delete(ctx context.Context, lockID string) error {
	delete(f.locks, lockID)
	return nil
}

type recordingPublisher struct {
	created []string
	deleted []string
}

func (r *recordingPublisher) BookingCreated(ctx context.Context, booking *model.Booking) error {
	r.created = append(r.created, booking.ID)
	return nil
}

func (r *recordingPublisher) BookingDeleted(ctx context.Context, bookingID string) error {
	r.deleted = append(r.deleted, bookingID)
	return nil
}

func (r *recordingPublisher) Close() error { return nil }

// ────────────────────────────────────────────────
// Test helpers
// ────────────────────────────────────────────────

func testConfig() *config.Config {
	log := logger.New(logger.Config{
		Level:     "info",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	return &config.Config{
		Log:             log,
		BookingLeadDays: 3,
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    5 * time.Second,
	}
}

func mustDate(t *testing.T, s string) date.Date {
	t.Helper()
	d, err := date.Parse(s)
	if err != nil {
		t.Fatalf("failed to parse date %q: %v", s, err)
	}
	return d
}

type serviceFixture struct {
	service   BookingService
	repo      *fakeBookingRepository
	lockRepo  *fakeLockRepository
	publisher *recordingPublisher
}

func newFixture(t *testing.T, today string) *serviceFixture {
	t.Helper()
	cfg := testConfig()
	repo := newFakeBookingRepository()
	lockRepo := newFakeLockRepository()
	publisher := &recordingPublisher{}
	v := validator.NewBookingValidator(cfg.BookingLeadDays, cfg.Log)
	svc := NewBookingService(repo, lockRepo, v, clock.Fixed(mustDate(t, today)), publisher, cfg)
	return &serviceFixture{service: svc, repo: repo, lockRepo: lockRepo, publisher: publisher}
}

func validBooking(t *testing.T, poojaDate string) *model.Booking {
	t.Helper()
	return &model.Booking{
		SevakarthaName: "Ramesh Sharma",
		Department:     "Temple Trust",
		SevaType:       "Abhishekam",
		PoojaDate:      mustDate(t, poojaDate),
	}
}

func assertCode(t *testing.T, err error, wantCode string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %s, got nil", wantCode)
	}
	appErr, ok := err.(*apperrors.AppError)
	if !ok {
		t.Fatalf("expected *AppError, got %T: %v", err, err)
	}
	if appErr.Code != wantCode {
		t.Errorf("expected code %s, got %s (%v)", wantCode, appErr.Code, appErr)
	}
}

// ────────────────────────────────────────────────
// Tests for Create()
// ────────────────────────────────────────────────

func TestCreate_Success(t *testing.T) {
	fx := newFixture(t, "2024-06-07")
	booking := validBooking(t, "2024-06-10")

	if err := fx.service.Create(context.Background(), booking); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if booking.ID == "" {
		t.Error("expected booking ID to be assigned")
	}
	if booking.Status != config.StatusBooked {
		t.Errorf("expected status %q, got %q", config.StatusBooked, booking.Status)
	}
	if booking.Day != 10 || booking.Month != 6 || booking.Year != 2024 {
		t.Errorf("expected derived parts 10/6/2024, got %d/%d/%d", booking.Day, booking.Month, booking.Year)
	}
	if len(fx.publisher.created) != 1 {
		t.Errorf("expected 1 created event, got %d", len(fx.publisher.created))
	}
	if len(fx.lockRepo.locks) != 0 {
		t.Errorf("expected advisory lock to be released, %d still held", len(fx.lockRepo.locks))
	}
}

func TestCreate_StatusAlwaysBooked(t *testing.T) {
	fx := newFixture(t, "2024-06-07")
	booking := validBooking(t, "2024-06-10")
	booking.Status = "cancelled"

	if err := fx.service.Create(context.Background(), booking); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if booking.Status != config.StatusBooked {
		t.Errorf("client-supplied status must be overwritten, got %q", booking.Status)
	}
}

func TestCreate_SanitizesTextFields(t *testing.T) {
	fx := newFixture(t, "2024-06-07")
	booking := validBooking(t, "2024-06-10")
	booking.SevakarthaName = "  Ramesh   Sharma  "
	booking.Department = "Temple\tTrust"

	if err := fx.service.Create(context.Background(), booking); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if booking.SevakarthaName != "Ramesh Sharma" {
		t.Errorf("expected normalized name, got %q", booking.SevakarthaName)
	}
	if booking.Department != "Temple Trust" {
		t.Errorf("expected normalized department, got %q", booking.Department)
	}
}

func TestCreate_LeadTimeViolations(t *testing.T) {
	tests := []struct {
		name  string
		today string
	}{
		{name: "too close", today: "2024-06-08"},
		{name: "too early", today: "2024-06-06"},
		{name: "same day", today: "2024-06-10"},
		{name: "after the date", today: "2024-06-11"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t, tt.today)
			err := fx.service.Create(context.Background(), validBooking(t, "2024-06-10"))
			assertCode(t, err, apperrors.CodeInvalidInput)
			if len(fx.publisher.created) != 0 {
				t.Error("no event must be published for a rejected booking")
			}
		})
	}
}

func TestCreate_MonthBoundaryLeadTime(t *testing.T) {
	// 2024-03-01 minus 3 days lands in February of a leap year.
	fx := newFixture(t, "2024-02-27")
	if err := fx.service.Create(context.Background(), validBooking(t, "2024-03-01")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreate_DateAlreadyBooked(t *testing.T) {
	fx := newFixture(t, "2024-06-07")

	if err := fx.service.Create(context.Background(), validBooking(t, "2024-06-10")); err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	second := validBooking(t, "2024-06-10")
	second.SevakarthaName = "Another Devotee"
	err := fx.service.Create(context.Background(), second)
	assertCode(t, err, apperrors.CodeConflict)

	if len(fx.publisher.created) != 1 {
		t.Errorf("expected exactly 1 created event, got %d", len(fx.publisher.created))
	}
}

func TestCreate_LockHeldByConcurrentRequest(t *testing.T) {
	fx := newFixture(t, "2024-06-07")
	fx.lockRepo.locks["booking_lock_2024-06-10"] = &model.BookingLock{ID: "booking_lock_2024-06-10"}

	err := fx.service.Create(context.Background(), validBooking(t, "2024-06-10"))
	assertCode(t, err, apperrors.CodeConflict)
}

func TestCreate_StoreFailure(t *testing.T) {
	fx := newFixture(t, "2024-06-07")
	fx.repo.createErr = errors.New("write concern error")

	err := fx.service.Create(context.Background(), validBooking(t, "2024-06-10"))
	assertCode(t, err, apperrors.CodeInternal)

	if len(fx.lockRepo.locks) != 0 {
		t.Error("advisory lock must be released after a failed create")
	}
}

func TestCreate_ValidationFailure(t *testing.T) {
	fx := newFixture(t, "2024-06-07")
	booking := validBooking(t, "2024-06-10")
	booking.SevakarthaName = ""

	err := fx.service.Create(context.Background(), booking)
	assertCode(t, err, apperrors.CodeValidation)
}

func TestCreate_MissingDate(t *testing.T) {
	fx := newFixture(t, "2024-06-07")
	booking := validBooking(t, "2024-06-10")
	booking.PoojaDate = date.Date{}

	err := fx.service.Create(context.Background(), booking)
	assertCode(t, err, apperrors.CodeInvalidInput)
}

// ────────────────────────────────────────────────
// Tests for List()
// ────────────────────────────────────────────────

func TestList_EmptyReturnsNonNilSlice(t *testing.T) {
	fx := newFixture(t, "2024-06-07")

	bookings, err := fx.service.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bookings == nil {
		t.Fatal("expected non-nil slice for empty store")
	}
	if len(bookings) != 0 {
		t.Errorf("expected empty slice, got %d entries", len(bookings))
	}
}

func TestList_StoreFailure(t *testing.T) {
	fx := newFixture(t, "2024-06-07")
	fx.repo.findAllErr = errors.New("cursor error")

	_, err := fx.service.List(context.Background())
	assertCode(t, err, apperrors.CodeInternal)
}

// ────────────────────────────────────────────────
// Tests for Delete()
// ────────────────────────────────────────────────

func TestDelete_Success(t *testing.T) {
	fx := newFixture(t, "2024-06-07")
	booking := validBooking(t, "2024-06-10")
	if err := fx.service.Create(context.Background(), booking); err != nil {
		t.Fatalf("setup create failed: %v", err)
	}

	if err := fx.service.Delete(context.Background(), booking.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fx.repo.bookings) != 0 {
		t.Error("expected booking to be removed")
	}
	if len(fx.publisher.deleted) != 1 {
		t.Errorf("expected 1 deleted event, got %d", len(fx.publisher.deleted))
	}
}

func TestDelete_MissingIDIsSilentSuccess(t *testing.T) {
	fx := newFixture(t, "2024-06-07")

	if err := fx.service.Delete(context.Background(), "507f1f77bcf86cd799439011"); err != nil {
		t.Errorf("deleting an unknown id must succeed, got %v", err)
	}
	if len(fx.publisher.deleted) != 0 {
		t.Error("no event must be published when nothing was deleted")
	}
}

func TestDelete_FreesDateForRebooking(t *testing.T) {
	fx := newFixture(t, "2024-06-07")
	booking := validBooking(t, "2024-06-10")
	if err := fx.service.Create(context.Background(), booking); err != nil {
		t.Fatalf("setup create failed: %v", err)
	}
	if err := fx.service.Delete(context.Background(), booking.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	rebooked := validBooking(t, "2024-06-10")
	rebooked.SevakarthaName = "Another Devotee"
	if err := fx.service.Create(context.Background(), rebooked); err != nil {
		t.Errorf("date must be available again after delete, got %v", err)
	}
}

func TestDelete_InvalidID(t *testing.T) {
	fx := newFixture(t, "2024-06-07")

	err := fx.service.Delete(context.Background(), "short")
	assertCode(t, err, apperrors.CodeInvalidInput)
}

func TestDelete_EmptyID(t *testing.T) {
	fx := newFixture(t, "2024-06-07")

	err := fx.service.Delete(context.Background(), "")
	assertCode(t, err, apperrors.CodeInvalidInput)
}
