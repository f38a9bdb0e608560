package booking

import (
	"context"
	"time"

	"parkeasy/internal/models"

	"gorm.io/gorm"
)

// AdvanceLifecycle moves confirmed bookings whose start has passed to active,
// and active bookings whose end has passed to completed, releasing their
// slots unless another booking holds them. Pending bookings are left alone.
func (s *Service) AdvanceLifecycle(ctx context.Context, now time.Time) (activated, completed int64, err error) {
	now = now.UTC()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Booking{}).
			Where("status = ? AND start_time <= ?", models.BookingConfirmed, now).
			Update("status", models.BookingActive)
		if res.Error != nil {
			return res.Error
		}
		activated = res.RowsAffected

		var finished []models.Booking
		if err := tx.Select("id", "slot_id").
			Where("status = ? AND end_time <= ?", models.BookingActive, now).
			Find(&finished).Error; err != nil {
			return err
		}
		if len(finished) == 0 {
			return nil
		}
		ids := make([]uint, 0, len(finished))
		slots := make([]uint, 0, len(finished))
		for _, b := range finished {
			ids = append(ids, b.ID)
			slots = append(slots, b.SlotID)
		}
		res = tx.Model(&models.Booking{}).
			Where("id IN ? AND status = ?", ids, models.BookingActive).
			Update("status", models.BookingCompleted)
		if res.Error != nil {
			return res.Error
		}
		completed = res.RowsAffected
		return releaseSlots(tx, slots...)
	})
	return activated, completed, err
}
