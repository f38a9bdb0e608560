// Package inventory manages parking places and their slots.
package inventory

import (
	"context"
	"fmt"
	"strings"

	"parkeasy/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Cities a place can be listed in.
var Cities = []string{"Pune", "Mumbai", "Jalna"}

const MaxInitialSlots = 500

type Service struct {
	db        *gorm.DB
	lg        *zap.SugaredLogger
	uploadDir string
}

func NewService(db *gorm.DB, lg *zap.SugaredLogger, uploadDir string) *Service {
	return &Service{db: db, lg: lg, uploadDir: uploadDir}
}

type PlaceInput struct {
	Name                string
	Address             string
	Area                string
	City                string
	PricePerHour        float64
	Description         string
	AllowedVehicleTypes []string
	NumberOfSlots       int
}

func (in *PlaceInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Address = strings.TrimSpace(in.Address)
	in.Area = strings.TrimSpace(in.Area)
	in.City = strings.TrimSpace(in.City)
	if in.Name == "" {
		return models.Invalid("name", "Name is required.")
	}
	if in.Address == "" {
		return models.Invalid("address", "Address is required.")
	}
	if !contains(Cities, in.City) {
		return models.Invalid("city", "Select a valid city.")
	}
	if in.City == "Pune" && in.Area == "" {
		return models.Invalid("area", "Area is required for Pune")
	}
	if in.PricePerHour <= 0 {
		return models.Invalid("price_per_hour", "Price per hour must be positive.")
	}
	if in.NumberOfSlots < 0 || in.NumberOfSlots > MaxInitialSlots {
		return models.Invalid("number_of_slots", fmt.Sprintf("Must be between 0 and %d.", MaxInitialSlots))
	}
	seen := map[string]bool{}
	var types []string
	for _, v := range in.AllowedVehicleTypes {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		if !contains(models.PlaceVehicleTypes, v) {
			return models.Invalid("allowed_vehicle_types", "Unknown vehicle type "+v+".")
		}
		seen[v] = true
		types = append(types, v)
	}
	in.AllowedVehicleTypes = types
	return nil
}

// SlotCode is the auto-generated code for the n-th initial slot.
func SlotCode(n int) string {
	return fmt.Sprintf("S%03d", n)
}

// CreatePlace stores the place and its NumberOfSlots initial slots together.
func (s *Service) CreatePlace(ctx context.Context, ownerID string, in PlaceInput) (*models.ParkingPlace, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	p := models.ParkingPlace{
		OwnerID:             ownerID,
		Name:                in.Name,
		Address:             in.Address,
		Area:                in.Area,
		City:                in.City,
		PricePerHour:        in.PricePerHour,
		Description:         strings.TrimSpace(in.Description),
		AllowedVehicleTypes: strings.Join(in.AllowedVehicleTypes, ","),
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Slots").Create(&p).Error; err != nil {
			return err
		}
		if in.NumberOfSlots == 0 {
			return nil
		}
		slots := make([]models.ParkingSlot, 0, in.NumberOfSlots)
		for i := 1; i <= in.NumberOfSlots; i++ {
			slots = append(slots, models.ParkingSlot{PlaceID: p.ID, Code: SlotCode(i), IsAvailable: true})
		}
		if err := tx.Create(&slots).Error; err != nil {
			return err
		}
		p.Slots = slots
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.lg.Infow("place created", "place_id", p.ID, "owner_id", ownerID, "slots", in.NumberOfSlots)
	return &p, nil
}

// ownedPlace loads a place only if ownerID owns it.
func ownedPlace(db *gorm.DB, ownerID string, placeID uint) (*models.ParkingPlace, error) {
	var p models.ParkingPlace
	if err := db.Where("id = ? AND owner_id = ?", placeID, ownerID).First(&p).Error; err != nil {
		return nil, models.NotFound(err)
	}
	return &p, nil
}

func (s *Service) UpdatePlace(ctx context.Context, ownerID string, placeID uint, in PlaceInput) (*models.ParkingPlace, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	p, err := ownedPlace(db, ownerID, placeID)
	if err != nil {
		return nil, err
	}
	err = db.Model(p).Updates(map[string]any{
		"name":                  in.Name,
		"address":               in.Address,
		"area":                  in.Area,
		"city":                  in.City,
		"price_per_hour":        in.PricePerHour,
		"description":           strings.TrimSpace(in.Description),
		"allowed_vehicle_types": strings.Join(in.AllowedVehicleTypes, ","),
	}).Error
	if err != nil {
		return nil, err
	}
	return ownedPlace(db, ownerID, placeID)
}

// DeletePlace removes the place; slots and their bookings cascade.
func (s *Service) DeletePlace(ctx context.Context, ownerID string, placeID uint) error {
	res := s.db.WithContext(ctx).Where("id = ? AND owner_id = ?", placeID, ownerID).Delete(&models.ParkingPlace{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	s.lg.Infow("place deleted", "place_id", placeID, "owner_id", ownerID)
	return nil
}

func (s *Service) OwnerPlaces(ctx context.Context, ownerID string) ([]models.ParkingPlace, error) {
	var out []models.ParkingPlace
	err := s.db.WithContext(ctx).
		Preload("Slots", func(db *gorm.DB) *gorm.DB { return db.Order("code") }).
		Where("owner_id = ?", ownerID).
		Order("created_at desc, id desc").
		Find(&out).Error
	return out, err
}

type SearchQuery struct {
	City        string
	Area        string
	VehicleType string
}

// Search matches case-insensitive substrings, like the listing filters.
func (s *Service) Search(ctx context.Context, q SearchQuery) ([]models.ParkingPlace, error) {
	db := s.db.WithContext(ctx)
	if v := strings.ToLower(strings.TrimSpace(q.City)); v != "" {
		db = db.Where("LOWER(city) LIKE ?", "%"+v+"%")
	}
	if v := strings.ToLower(strings.TrimSpace(q.Area)); v != "" {
		db = db.Where("LOWER(area) LIKE ?", "%"+v+"%")
	}
	if v := strings.ToLower(strings.TrimSpace(q.VehicleType)); v != "" {
		db = db.Where("LOWER(allowed_vehicle_types) LIKE ?", "%"+v+"%")
	}
	var out []models.ParkingPlace
	err := db.Order("name, id").Find(&out).Error
	return out, err
}

// Place returns any place with its slots ordered by code.
func (s *Service) Place(ctx context.Context, placeID uint) (*models.ParkingPlace, error) {
	var p models.ParkingPlace
	err := s.db.WithContext(ctx).
		Preload("Slots", func(db *gorm.DB) *gorm.DB { return db.Order("code") }).
		First(&p, placeID).Error
	if err != nil {
		return nil, models.NotFound(err)
	}
	return &p, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
