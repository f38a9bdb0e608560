package inventory

import (
	"context"

	"parkeasy/internal/models"

	"gorm.io/gorm"
)

// ownerBookings scopes a booking query to slots of places owned by ownerID.
func ownerBookings(db *gorm.DB, ownerID string) *gorm.DB {
	return db.Where("bookings.slot_id IN (?)",
		db.Session(&gorm.Session{NewDB: true}).Model(&models.ParkingSlot{}).
			Select("parking_slots.id").
			Joins("JOIN parking_places ON parking_places.id = parking_slots.place_id").
			Where("parking_places.owner_id = ?", ownerID))
}

type OwnerDashboard struct {
	TotalPlaces       int64                 `json:"total_places"`
	TotalSlots        int64                 `json:"total_slots"`
	BookedSlots       int64                 `json:"booked_slots"`
	TotalBookings     int64                 `json:"total_bookings"`
	CompletedBookings int64                 `json:"completed_bookings"`
	Places            []models.ParkingPlace `json:"places"`
	ActiveBookings    []models.Booking      `json:"active_bookings"`
	RecentBookings    []models.Booking      `json:"recent_bookings"`
}

func (s *Service) OwnerDashboard(ctx context.Context, ownerID string) (*OwnerDashboard, error) {
	db := s.db.WithContext(ctx)
	var d OwnerDashboard
	if err := db.Where("owner_id = ?", ownerID).Order("created_at desc, id desc").Find(&d.Places).Error; err != nil {
		return nil, err
	}
	d.TotalPlaces = int64(len(d.Places))

	slots := db.Model(&models.ParkingSlot{}).
		Joins("JOIN parking_places ON parking_places.id = parking_slots.place_id").
		Where("parking_places.owner_id = ?", ownerID)
	if err := slots.Session(&gorm.Session{}).Count(&d.TotalSlots).Error; err != nil {
		return nil, err
	}
	if err := slots.Session(&gorm.Session{}).Where("parking_slots.is_available = ?", false).Count(&d.BookedSlots).Error; err != nil {
		return nil, err
	}
	if err := ownerBookings(db.Model(&models.Booking{}), ownerID).Count(&d.TotalBookings).Error; err != nil {
		return nil, err
	}
	if err := ownerBookings(db.Model(&models.Booking{}), ownerID).
		Where("bookings.status = ?", models.BookingCompleted).
		Count(&d.CompletedBookings).Error; err != nil {
		return nil, err
	}
	if err := ownerBookings(db, ownerID).
		Preload("Customer").Preload("Slot.Place").
		Where("bookings.status IN ?", []models.BookingStatus{models.BookingPending, models.BookingActive}).
		Order("bookings.start_time desc").Limit(5).
		Find(&d.ActiveBookings).Error; err != nil {
		return nil, err
	}
	if err := ownerBookings(db, ownerID).
		Preload("Customer").Preload("Slot.Place").
		Order("bookings.created_at desc, bookings.id desc").Limit(10).
		Find(&d.RecentBookings).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

type OwnerBookingFilter struct {
	Status      models.BookingStatus
	VehicleType string
}

func (s *Service) OwnerBookings(ctx context.Context, ownerID string, f OwnerBookingFilter) ([]models.Booking, error) {
	q := ownerBookings(s.db.WithContext(ctx), ownerID)
	if f.Status != "" {
		q = q.Where("bookings.status = ?", f.Status)
	}
	if f.VehicleType != "" {
		q = q.Where("bookings.vehicle_type = ?", f.VehicleType)
	}
	var out []models.Booking
	err := q.Preload("Customer").Preload("Slot.Place").Preload("Payment").
		Order("bookings.created_at desc, bookings.id desc").
		Find(&out).Error
	return out, err
}

func (s *Service) OwnerPayments(ctx context.Context, ownerID string) ([]models.Payment, error) {
	db := s.db.WithContext(ctx)
	var out []models.Payment
	err := db.Where("payments.booking_id IN (?)",
		ownerBookings(db.Session(&gorm.Session{NewDB: true}).Model(&models.Booking{}).Select("bookings.id"), ownerID)).
		Preload("Booking.Slot.Place").Preload("Booking.Customer").
		Order("payments.created_at desc, payments.id desc").
		Find(&out).Error
	return out, err
}
