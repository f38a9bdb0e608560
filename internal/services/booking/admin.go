package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"parkeasy/internal/models"
	"parkeasy/internal/services/audit"

	"gorm.io/gorm"
)

const AdminPageSize = 20

type Filter struct {
	Search      string
	Status      models.BookingStatus
	VehicleType string
	From        *time.Time
	To          *time.Time
	Page        int
}

func (f Filter) apply(q *gorm.DB) *gorm.DB {
	if s := strings.ToLower(strings.TrimSpace(f.Search)); s != "" {
		like := "%" + s + "%"
		q = q.Where(`LOWER(bookings.vehicle_number_plate) LIKE ?
			OR bookings.customer_id IN (SELECT id FROM users WHERE LOWER(username) LIKE ? OR LOWER(email) LIKE ?)
			OR bookings.slot_id IN (SELECT parking_slots.id FROM parking_slots JOIN parking_places ON parking_places.id = parking_slots.place_id WHERE LOWER(parking_places.name) LIKE ?)`,
			like, like, like, like)
	}
	if f.Status != "" {
		q = q.Where("bookings.status = ?", f.Status)
	}
	if f.VehicleType != "" {
		q = q.Where("bookings.vehicle_type = ?", f.VehicleType)
	}
	if f.From != nil {
		q = q.Where("bookings.start_time >= ?", f.From.UTC())
	}
	if f.To != nil {
		q = q.Where("bookings.start_time < ?", f.To.UTC())
	}
	return q
}

// List is the back-office view across all customers.
func (s *Service) List(ctx context.Context, f Filter) (models.Page[models.Booking], error) {
	out := models.Page[models.Booking]{PageSize: AdminPageSize}
	if err := f.apply(s.db.WithContext(ctx).Model(&models.Booking{})).Count(&out.Total).Error; err != nil {
		return out, err
	}
	var offset int
	out.Page, offset = models.Offset(f.Page, AdminPageSize)
	err := f.apply(s.db.WithContext(ctx)).
		Preload("Customer").Preload("Slot.Place").Preload("Payment").
		Order("bookings.created_at desc, bookings.id desc").
		Offset(offset).Limit(AdminPageSize).
		Find(&out.Items).Error
	return out, err
}

type AdminUpdate struct {
	Status    *models.BookingStatus
	StartTime *time.Time
	EndTime   *time.Time
}

// AdminEdit changes status and/or times. Moving out of a slot-holding status
// frees the slot; moving back into one must win the slot again.
func (s *Service) AdminEdit(ctx context.Context, adminID string, bookingID uint, in AdminUpdate, o audit.Origin) (*models.Booking, error) {
	var b models.Booking
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Customer").Preload("Slot.Place").First(&b, bookingID).Error; err != nil {
			return models.NotFound(err)
		}
		before := map[string]any{"status": b.Status, "start_time": b.StartTime, "end_time": b.EndTime}
		prev, next := b.Status, b.Status
		if in.Status != nil {
			if !in.Status.Valid() {
				return models.Invalid("status", "Select a valid status.")
			}
			next = *in.Status
		}
		start, end := b.StartTime, b.EndTime
		if in.StartTime != nil {
			start = in.StartTime.UTC()
		}
		if in.EndTime != nil {
			end = in.EndTime.UTC()
		}
		if !end.After(start) {
			return models.Invalid("end_time", "End time must be after start time.")
		}

		err := tx.Model(&b).Updates(map[string]any{
			"status":     next,
			"start_time": start,
			"end_time":   end,
		}).Error
		if err != nil {
			return err
		}
		switch {
		case prev.HoldsSlot() && !next.HoldsSlot():
			if err := releaseSlots(tx, b.SlotID); err != nil {
				return err
			}
		case !prev.HoldsSlot() && next.HoldsSlot():
			if err := reserveSlot(tx, b.SlotID); err != nil {
				return err
			}
		}
		b.Status, b.StartTime, b.EndTime = next, start, end
		after := map[string]any{"status": next, "start_time": start, "end_time": end}
		return audit.AdminAction(tx, adminID, models.AdminBookingModified, b.CustomerID,
			fmt.Sprintf("Modified booking #%d", b.ID), o,
			map[string]any{"booking_id": b.ID, "before": before, "after": after})
	})
	if err != nil {
		return nil, err
	}
	s.lg.Infow("booking modified by admin", "booking_id", b.ID, "admin_id", adminID, "status", b.Status)
	return &b, nil
}
