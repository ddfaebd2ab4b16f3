package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingserrors "sevabook/internal/bookings/errors"
	"sevabook/internal/bookings/repository"
	"sevabook/internal/bookings/validator"
	"sevabook/pkg/clock"
	"sevabook/pkg/config"
	apperrors "sevabook/pkg/errors"
	"sevabook/pkg/events"
	"sevabook/pkg/model"
	"sevabook/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/mongo"
)

type BookingService interface {
	Create(ctx context.Context, booking *model.Booking) error
	List(ctx context.Context) ([]*model.Booking, error)
	Delete(ctx context.Context, id string) error
}

type bookingService struct {
	repo      repository.BookingRepository
	lockRepo  repository.BookingLockRepository
	validator *validator.BookingValidator
	clock     clock.Clock
	publisher events.Publisher
	cfg       *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	lockRepo repository.BookingLockRepository,
	validator *validator.BookingValidator,
	clk clock.Clock,
	publisher events.Publisher,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		lockRepo:  lockRepo,
		validator: validator,
		clock:     clk,
		publisher: publisher,
		cfg:       cfg,
	}
}

func (s *bookingService) Create(ctx context.Context, booking *model.Booking) error {
	s.sanitize(booking)
	s.applyDefaults(booking)

	if err := s.validate(booking); err != nil {
		return err
	}

	if err := s.validator.ValidateLeadTime(booking.PoojaDate, s.clock.Today()); err != nil {
		s.cfg.Log.Warn("Booking rejected by lead-time rule",
			"pooja_date", booking.PoojaDate,
			"today", s.clock.Today(),
			"error", err,
		)
		return apperrors.InvalidInput(fmt.Sprintf(
			"Booking is only allowed exactly %d days before the pooja date",
			s.validator.LeadDays(),
		))
	}

	booking.DeriveDateParts()

	// Acquire advisory lock to prevent two concurrent creates for the same date
	lockID, err := s.acquireSlotLock(ctx, booking)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := s.releaseSlotLock(ctx, lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release booking lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx context.Context) error {
		if err := s.verifyAvailability(sessCtx, booking); err != nil {
			return err
		}
		if err := s.repo.Create(sessCtx, booking); err != nil {
			if errors.Is(err, bookingserrors.ErrDateTaken) {
				return s.dateTakenError(booking)
			}
			return apperrors.Internal("Failed to create booking", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create booking", "pooja_date", booking.PoojaDate, "error", err)
		return err
	}

	s.publishCreated(ctx, booking)

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"pooja_date", booking.PoojaDate,
		"sevakartha_name", booking.SevakarthaName,
		"seva_type", booking.SevaType,
	)
	return nil
}

func (s *bookingService) List(ctx context.Context) ([]*model.Booking, error) {
	bookings, err := s.repo.FindAll(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to list bookings", "error", err)
		return nil, apperrors.Internal("Failed to retrieve bookings", err)
	}

	// Callers serialize this directly; an empty list must render as [].
	if bookings == nil {
		bookings = []*model.Booking{}
	}

	return bookings, nil
}

func (s *bookingService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Booking ID cannot be empty")
	}

	err := s.repo.Delete(ctx, id)
	if err != nil {
		// Deleting an id that no longer exists reports success. The caller's
		// goal state (no such booking) already holds.
		if errors.Is(err, bookingserrors.ErrNotFound) {
			s.cfg.Log.Debug("Delete of missing booking treated as success", "id", id)
			return nil
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid booking ID format")
		}
		s.cfg.Log.Error("Failed to delete booking", "id", id, "error", err)
		return apperrors.Internal("Failed to delete booking", err)
	}

	s.publishDeleted(ctx, id)

	s.cfg.Log.Info("Booking deleted successfully", "id", id)
	return nil
}

// --- Helpers ---

func (s *bookingService) sanitize(b *model.Booking) {
	b.SevakarthaName = sanitizer.NormalizeName(b.SevakarthaName)
	b.Department = sanitizer.NormalizeName(b.Department)
	b.SevaType = sanitizer.NormalizeName(b.SevaType)
}

func (s *bookingService) applyDefaults(b *model.Booking) {
	b.Status = config.StatusBooked
}

func (s *bookingService) validate(booking *model.Booking) error {
	if err := s.validator.Validate(booking); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		if errors.Is(err, bookingserrors.ErrInvalidDate) {
			return apperrors.InvalidInput("pooja_date is required and must be YYYY-MM-DD")
		}
		return apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}

func (s *bookingService) verifyAvailability(ctx context.Context, booking *model.Booking) error {
	taken, err := s.repo.ExistsByDate(ctx, booking.PoojaDate)
	if err != nil {
		return apperrors.Internal("Failed to check date availability", err)
	}
	if taken {
		return s.dateTakenError(booking)
	}
	return nil
}

func (s *bookingService) dateTakenError(booking *model.Booking) *apperrors.AppError {
	return apperrors.Conflict(fmt.Sprintf(
		"The date %s is already booked and unavailable", booking.PoojaDate,
	))
}

// acquireSlotLock creates an advisory lock keyed by the pooja date so two
// requests for the same date serialize before the availability check.
func (s *bookingService) acquireSlotLock(ctx context.Context, booking *model.Booking) (string, error) {
	lockID := fmt.Sprintf("booking_lock_%s", booking.PoojaDate)

	lock := &model.BookingLock{
		ID:        lockID,
		ExpiresAt: time.Now().Add(10 * time.Second), // Auto-expire after 10 seconds
	}

	_, err := s.lockRepo.Create(ctx, lock)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", apperrors.Conflict("This date is currently being booked by another request. Please try again.")
		}
		return "", apperrors.Internal("Failed to acquire booking lock", err)
	}

	return lockID, nil
}

// releaseSlotLock removes the advisory lock
func (s *bookingService) releaseSlotLock(ctx context.Context, lockID string) error {
	return s.lockRepo.Delete(ctx, lockID)
}

// Event publishing is best effort. A booking that committed must not fail the
// request because the broker is down.
func (s *bookingService) publishCreated(ctx context.Context, booking *model.Booking) {
	if err := s.publisher.BookingCreated(ctx, booking); err != nil {
		s.cfg.Log.Warn("Failed to publish booking created event",
			"id", booking.ID,
			"pooja_date", booking.PoojaDate,
			"error", err,
		)
	}
}

func (s *bookingService) publishDeleted(ctx context.Context, id string) {
	if err := s.publisher.BookingDeleted(ctx, id); err != nil {
		s.cfg.Log.Warn("Failed to publish booking deleted event", "id", id, "error", err)
	}
}
