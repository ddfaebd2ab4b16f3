package validator

import (
	"testing"

	"sevabook/pkg/date"
	"sevabook/pkg/logger"
	"sevabook/pkg/model"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{
		Level:     "info",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
}

func mustDate(t *testing.T, s string) date.Date {
	t.Helper()
	d, err := date.Parse(s)
	if err != nil {
		t.Fatalf("failed to parse date %q: %v", s, err)
	}
	return d
}

func TestValidateLeadTime(t *testing.T) {
	v := NewBookingValidator(3, testLogger())

	tests := []struct {
		name        string
		poojaDate   string
		today       string
		wantError   bool
		description string
	}{
		{
			name:        "exactly three days before",
			poojaDate:   "2024-06-10",
			today:       "2024-06-07",
			wantError:   false,
			description: "the single allowed booking day",
		},
		{
			name:        "two days before",
			poojaDate:   "2024-06-10",
			today:       "2024-06-08",
			wantError:   true,
			description: "too close to the pooja date",
		},
		{
			name:        "four days before",
			poojaDate:   "2024-06-10",
			today:       "2024-06-06",
			wantError:   true,
			description: "too early, window is exact not a minimum",
		},
		{
			name:        "same day",
			poojaDate:   "2024-06-10",
			today:       "2024-06-10",
			wantError:   true,
			description: "booking on the pooja date itself",
		},
		{
			name:        "rolls over month boundary",
			poojaDate:   "2024-03-01",
			today:       "2024-02-27",
			wantError:   false,
			description: "2024-03-01 minus 3 days is 2024-02-27 in a leap year",
		},
		{
			name:        "non leap year month boundary",
			poojaDate:   "2023-03-01",
			today:       "2023-02-26",
			wantError:   false,
			description: "2023-03-01 minus 3 days is 2023-02-26",
		},
		{
			name:        "rolls over year boundary",
			poojaDate:   "2025-01-02",
			today:       "2024-12-30",
			wantError:   false,
			description: "subtraction crosses into the previous year",
		},
		{
			name:        "day after pooja date",
			poojaDate:   "2024-06-10",
			today:       "2024-06-11",
			wantError:   true,
			description: "pooja date already passed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateLeadTime(mustDate(t, tt.poojaDate), mustDate(t, tt.today))
			if (err != nil) != tt.wantError {
				t.Errorf("%s: ValidateLeadTime() error = %v, wantError %v", tt.description, err, tt.wantError)
			}
		})
	}
}

func TestValidateLeadTimeConfigurableWindow(t *testing.T) {
	v := NewBookingValidator(7, testLogger())

	if err := v.ValidateLeadTime(mustDate(t, "2024-06-10"), mustDate(t, "2024-06-03")); err != nil {
		t.Errorf("expected 7-day window to accept 2024-06-03, got error: %v", err)
	}
	if err := v.ValidateLeadTime(mustDate(t, "2024-06-10"), mustDate(t, "2024-06-07")); err == nil {
		t.Error("expected 7-day window to reject 2024-06-07")
	}
}

func TestValidateBookingFields(t *testing.T) {
	v := NewBookingValidator(3, testLogger())

	valid := func() *model.Booking {
		return &model.Booking{
			SevakarthaName: "Ramesh Sharma",
			Department:     "Temple Trust",
			SevaType:       "Abhishekam",
			PoojaDate:      mustDate(t, "2024-06-10"),
		}
	}

	tests := []struct {
		name      string
		mutate    func(b *model.Booking)
		wantError bool
	}{
		{
			name:      "valid booking",
			mutate:    func(b *model.Booking) {},
			wantError: false,
		},
		{
			name:      "missing sevakartha name",
			mutate:    func(b *model.Booking) { b.SevakarthaName = "" },
			wantError: true,
		},
		{
			name:      "missing department",
			mutate:    func(b *model.Booking) { b.Department = "" },
			wantError: true,
		},
		{
			name:      "missing seva type",
			mutate:    func(b *model.Booking) { b.SevaType = "" },
			wantError: true,
		},
		{
			name:      "missing pooja date",
			mutate:    func(b *model.Booking) { b.PoojaDate = date.Date{} },
			wantError: true,
		},
		{
			name: "name over max length",
			mutate: func(b *model.Booking) {
				long := make([]byte, 101)
				for i := range long {
					long[i] = 'a'
				}
				b.SevakarthaName = string(long)
			},
			wantError: true,
		},
		{
			name:      "invalid object id",
			mutate:    func(b *model.Booking) { b.ID = "not-an-object-id" },
			wantError: true,
		},
		{
			name:      "valid object id accepted",
			mutate:    func(b *model.Booking) { b.ID = "507f1f77bcf86cd799439011" },
			wantError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			booking := valid()
			tt.mutate(booking)
			err := v.Validate(booking)
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}
