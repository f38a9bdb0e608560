package inventory

import (
	"context"
	"fmt"
	"strings"

	"parkeasy/internal/models"

	"gorm.io/gorm"
)

type SlotInput struct {
	Code         string
	IsAvailable  bool
	PricePerHour *float64
}

func (in *SlotInput) normalize() error {
	in.Code = strings.ToUpper(strings.TrimSpace(in.Code))
	if in.Code == "" || len(in.Code) > 20 {
		return models.Invalid("code", "Slot code must be 1 to 20 characters.")
	}
	if in.PricePerHour != nil && *in.PricePerHour <= 0 {
		return models.Invalid("price_per_hour", "Price per hour must be positive.")
	}
	return nil
}

func duplicateCode(err error, code string) error {
	if models.IsUniqueViolation(err) {
		return fmt.Errorf("%w: slot %s already exists at this place", models.ErrConflict, code)
	}
	return err
}

func (s *Service) Slots(ctx context.Context, ownerID string, placeID uint) ([]models.ParkingSlot, error) {
	db := s.db.WithContext(ctx)
	if _, err := ownedPlace(db, ownerID, placeID); err != nil {
		return nil, err
	}
	var out []models.ParkingSlot
	err := db.Where("place_id = ?", placeID).Order("code").Find(&out).Error
	return out, err
}

func (s *Service) AddSlot(ctx context.Context, ownerID string, placeID uint, in SlotInput) (*models.ParkingSlot, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	if _, err := ownedPlace(db, ownerID, placeID); err != nil {
		return nil, err
	}
	slot := models.ParkingSlot{PlaceID: placeID, Code: in.Code, IsAvailable: in.IsAvailable, PricePerHour: in.PricePerHour}
	if err := db.Create(&slot).Error; err != nil {
		return nil, duplicateCode(err, in.Code)
	}
	return &slot, nil
}

// ownedSlot loads a slot whose place belongs to ownerID.
func ownedSlot(db *gorm.DB, ownerID string, slotID uint) (*models.ParkingSlot, error) {
	var slot models.ParkingSlot
	err := db.Joins("JOIN parking_places ON parking_places.id = parking_slots.place_id").
		Where("parking_slots.id = ? AND parking_places.owner_id = ?", slotID, ownerID).
		First(&slot).Error
	if err != nil {
		return nil, models.NotFound(err)
	}
	return &slot, nil
}

// EditSlot updates a slot. Marking it available is refused while a pending,
// confirmed or active booking still holds it.
func (s *Service) EditSlot(ctx context.Context, ownerID string, slotID uint, in SlotInput) (*models.ParkingSlot, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	var slot *models.ParkingSlot
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if slot, err = ownedSlot(tx, ownerID, slotID); err != nil {
			return err
		}
		if in.IsAvailable {
			var held int64
			if err := tx.Model(&models.Booking{}).
				Where("slot_id = ? AND status IN ?", slot.ID, models.SlotHoldingStatuses).
				Count(&held).Error; err != nil {
				return err
			}
			if held > 0 {
				return fmt.Errorf("%w: slot %s is held by an open booking", models.ErrConflict, slot.Code)
			}
		}
		err = tx.Model(slot).Select("code", "is_available", "price_per_hour").Updates(&models.ParkingSlot{
			Code:         in.Code,
			IsAvailable:  in.IsAvailable,
			PricePerHour: in.PricePerHour,
		}).Error
		if err != nil {
			return duplicateCode(err, in.Code)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slot.Code, slot.IsAvailable, slot.PricePerHour = in.Code, in.IsAvailable, in.PricePerHour
	return slot, nil
}

func (s *Service) DeleteSlot(ctx context.Context, ownerID string, slotID uint) error {
	db := s.db.WithContext(ctx)
	slot, err := ownedSlot(db, ownerID, slotID)
	if err != nil {
		return err
	}
	return db.Delete(slot).Error
}
