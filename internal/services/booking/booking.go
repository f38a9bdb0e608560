// Package booking owns the booking lifecycle and the slot availability flag
// that goes with it.
package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"parkeasy/internal/models"
	"parkeasy/internal/services/audit"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	MinPlateLength = 5
	MaxPlateLength = 20
)

type Service struct {
	db  *gorm.DB
	lg  *zap.SugaredLogger
	now func() time.Time
}

func NewService(db *gorm.DB, lg *zap.SugaredLogger) *Service {
	return &Service{db: db, lg: lg, now: time.Now}
}

type CreateInput struct {
	SlotID             uint
	StartTime          time.Time
	EndTime            time.Time
	VehicleType        string
	VehicleNumberPlate string
}

// Validate checks the form fields and normalises the plate in place. It
// touches no storage.
func Validate(in *CreateInput, now time.Time) error {
	if !in.EndTime.After(in.StartTime) {
		return models.Invalid("end_time", "End time must be after start time.")
	}
	if !in.StartTime.After(now) {
		return models.Invalid("start_time", "Booking start time must be in the future.")
	}
	in.VehicleNumberPlate = strings.ToUpper(strings.TrimSpace(in.VehicleNumberPlate))
	if len(in.VehicleNumberPlate) < MinPlateLength {
		return models.Invalid("vehicle_number_plate", "Vehicle number plate must be at least 5 characters long.")
	}
	if len(in.VehicleNumberPlate) > MaxPlateLength {
		return models.Invalid("vehicle_number_plate", "Vehicle number plate must be at most 20 characters long.")
	}
	if !models.IsVehicleType(in.VehicleType) {
		return models.Invalid("vehicle_type", "Select a valid vehicle type.")
	}
	return nil
}

// Create reserves the slot and records a pending booking in one transaction.
// Losing the race for the slot yields ErrSlotUnavailable.
func (s *Service) Create(ctx context.Context, customerID string, in CreateInput, o audit.Origin) (*models.Booking, error) {
	if err := Validate(&in, s.now()); err != nil {
		return nil, err
	}
	var b models.Booking
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var slot models.ParkingSlot
		if err := tx.Preload("Place").First(&slot, in.SlotID).Error; err != nil {
			return models.NotFound(err)
		}
		if err := reserveSlot(tx, slot.ID); err != nil {
			return err
		}
		b = models.Booking{
			CustomerID:         customerID,
			SlotID:             slot.ID,
			StartTime:          in.StartTime.UTC(),
			EndTime:            in.EndTime.UTC(),
			Status:             models.BookingPending,
			VehicleType:        in.VehicleType,
			VehicleNumberPlate: in.VehicleNumberPlate,
		}
		if err := tx.Create(&b).Error; err != nil {
			return err
		}
		b.Slot = &slot
		return audit.Activity(tx, customerID, models.ActivityBookingCreated,
			fmt.Sprintf("Booked slot %s at %s", slot.Code, slot.Place.Name), o)
	})
	if err != nil {
		return nil, err
	}
	s.lg.Infow("booking created", "booking_id", b.ID, "slot_id", b.SlotID, "customer_id", customerID)
	return &b, nil
}

// Cancel lets a customer drop an unpaid booking and frees its slot.
func (s *Service) Cancel(ctx context.Context, customerID string, bookingID uint, o audit.Origin) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var b models.Booking
		if err := tx.Preload("Slot").Where("id = ? AND customer_id = ?", bookingID, customerID).First(&b).Error; err != nil {
			return models.NotFound(err)
		}
		res := tx.Model(&models.Booking{}).
			Where("id = ? AND status = ?", b.ID, models.BookingPending).
			Update("status", models.BookingCancelled)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.ErrInvalidState
		}
		if err := releaseSlots(tx, b.SlotID); err != nil {
			return err
		}
		return audit.Activity(tx, customerID, models.ActivityBookingCancelled,
			fmt.Sprintf("Cancelled booking #%d for slot %s", b.ID, b.Slot.Code), o)
	})
	if err == nil {
		s.lg.Infow("booking cancelled", "booking_id", bookingID)
	}
	return err
}

// Get returns one of the customer's bookings with slot, place and payment.
func (s *Service) Get(ctx context.Context, customerID string, bookingID uint) (*models.Booking, error) {
	var b models.Booking
	err := s.db.WithContext(ctx).
		Preload("Slot.Place").Preload("Payment").Preload("Receipt").
		Where("id = ? AND customer_id = ?", bookingID, customerID).
		First(&b).Error
	if err != nil {
		return nil, models.NotFound(err)
	}
	return &b, nil
}

func (s *Service) ListForCustomer(ctx context.Context, customerID string) ([]models.Booking, error) {
	var out []models.Booking
	err := s.db.WithContext(ctx).
		Preload("Slot.Place").Preload("Payment").
		Where("customer_id = ?", customerID).
		Order("created_at desc, id desc").
		Find(&out).Error
	return out, err
}

type CustomerDashboard struct {
	TotalBookings    int64            `json:"total_bookings"`
	UpcomingBookings int64            `json:"upcoming_bookings"`
	RecentBookings   []models.Booking `json:"recent_bookings"`
}

func (s *Service) Dashboard(ctx context.Context, customerID string) (*CustomerDashboard, error) {
	db := s.db.WithContext(ctx)
	var d CustomerDashboard
	if err := db.Model(&models.Booking{}).Where("customer_id = ?", customerID).Count(&d.TotalBookings).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Booking{}).
		Where("customer_id = ? AND start_time >= ?", customerID, s.now().UTC()).
		Count(&d.UpcomingBookings).Error; err != nil {
		return nil, err
	}
	err := db.Preload("Slot.Place").
		Where("customer_id = ?", customerID).
		Order("created_at desc, id desc").Limit(5).
		Find(&d.RecentBookings).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// reserveSlot flips the slot to unavailable only if it is currently available.
func reserveSlot(tx *gorm.DB, slotID uint) error {
	res := tx.Model(&models.ParkingSlot{}).
		Where("id = ? AND is_available = ?", slotID, true).
		Update("is_available", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrSlotUnavailable
	}
	return nil
}

// releaseSlots marks slots available unless some booking still holds them.
// Call it after the releasing booking has left its slot-holding status.
func releaseSlots(tx *gorm.DB, slotIDs ...uint) error {
	return tx.Model(&models.ParkingSlot{}).
		Where(`id IN ? AND NOT EXISTS (
			SELECT 1 FROM bookings WHERE bookings.slot_id = parking_slots.id AND bookings.status IN ?)`,
			slotIDs, models.SlotHoldingStatuses).
		Update("is_available", true).Error
}
