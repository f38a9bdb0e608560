// Package receipt issues and serves booking receipts.
package receipt

import (
	"context"
	"fmt"
	"time"

	"parkeasy/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxNumberAttempts = 5

type Generator struct {
	seq Sequencer
	now func() time.Time
}

func NewGenerator(seq Sequencer) *Generator {
	return &Generator{seq: seq, now: time.Now}
}

// WithClock replaces the generator's time source.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate returns the receipt for b, creating it on first call. b must have
// Customer, Slot.Place and (when paid) Payment loaded. tx should be the
// transaction that created the payment.
func (g *Generator) Generate(ctx context.Context, tx *gorm.DB, b *models.Booking) (*models.Receipt, error) {
	tx = tx.WithContext(ctx)
	day := g.now().Format("20060102")

	for attempt := 1; attempt <= maxNumberAttempts; attempt++ {
		var existing models.Receipt
		err := tx.Where("booking_id = ?", b.ID).Limit(1).Find(&existing).Error
		if err != nil {
			return nil, err
		}
		if existing.ID != 0 {
			return &existing, nil
		}

		n, err := g.seq.Next(ctx, tx, day)
		if err != nil {
			return nil, err
		}
		r := snapshot(b)
		r.ReceiptNumber = FormatNumber(day, n)
		err = tx.Transaction(func(sp *gorm.DB) error {
			return sp.Create(r).Error
		})
		if err == nil {
			return r, nil
		}
		if !models.IsUniqueViolation(err) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: could not allocate receipt number for booking %d", models.ErrConflict, b.ID)
}

func snapshot(b *models.Booking) *models.Receipt {
	status := models.PaymentPending
	if b.Payment != nil {
		status = b.Payment.Status
	}
	var customer, place, code string
	if b.Customer != nil {
		customer = b.Customer.DisplayName()
	}
	if b.Slot != nil {
		code = b.Slot.Code
		if b.Slot.Place != nil {
			place = b.Slot.Place.Name
		}
	}
	return &models.Receipt{
		BookingID:          b.ID,
		CustomerName:       customer,
		ParkingPlaceName:   place,
		SlotCode:           code,
		VehicleType:        models.VehicleLabel(b.VehicleType),
		VehicleNumberPlate: b.VehicleNumberPlate,
		StartTime:          b.StartTime,
		EndTime:            b.EndTime,
		DurationHours:      b.DurationHours(),
		AmountPerHour:      b.Slot.EffectiveRate(),
		TotalAmount:        b.TotalAmount(),
		PaymentStatus:      status,
	}
}

type Service struct {
	db  *gorm.DB
	gen *Generator
	lg  *zap.SugaredLogger
}

func NewService(db *gorm.DB, gen *Generator, lg *zap.SugaredLogger) *Service {
	return &Service{db: db, gen: gen, lg: lg}
}

func (s *Service) Generator() *Generator {
	return s.gen
}

// List returns the customer's receipts, newest first.
func (s *Service) List(ctx context.Context, customerID string) ([]models.Receipt, error) {
	var out []models.Receipt
	err := s.db.WithContext(ctx).
		Joins("JOIN bookings ON bookings.id = receipts.booking_id").
		Where("bookings.customer_id = ?", customerID).
		Order("receipts.created_at desc, receipts.id desc").
		Find(&out).Error
	return out, err
}

func (s *Service) Get(ctx context.Context, customerID string, id uint) (*models.Receipt, error) {
	var r models.Receipt
	err := s.db.WithContext(ctx).
		Joins("JOIN bookings ON bookings.id = receipts.booking_id").
		Where("receipts.id = ? AND bookings.customer_id = ?", id, customerID).
		First(&r).Error
	if err != nil {
		return nil, models.NotFound(err)
	}
	return &r, nil
}

// GenerateFor issues (or returns) the receipt of a paid booking on demand.
func (s *Service) GenerateFor(ctx context.Context, customerID string, bookingID uint) (*models.Receipt, error) {
	var out *models.Receipt
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var b models.Booking
		err := tx.Preload("Customer").Preload("Slot.Place").Preload("Payment").
			Where("id = ? AND customer_id = ?", bookingID, customerID).
			First(&b).Error
		if err != nil {
			return models.NotFound(err)
		}
		switch b.Status {
		case models.BookingConfirmed, models.BookingActive, models.BookingCompleted:
		default:
			return models.ErrInvalidState
		}
		out, err = s.gen.Generate(ctx, tx, &b)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.lg.Infow("receipt issued", "booking_id", bookingID, "receipt", out.ReceiptNumber)
	return out, nil
}
