// Package checkout simulates payment for a pending booking.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"parkeasy/internal/models"
	"parkeasy/internal/notify"
	"parkeasy/internal/services/audit"
	"parkeasy/internal/services/receipt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Quote struct {
	Booking       *models.Booking `json:"booking"`
	DurationHours float64         `json:"duration_hours"`
	AmountPerHour float64         `json:"amount_per_hour"`
	TotalAmount   float64         `json:"total_amount"`
}

type Result struct {
	Booking *models.Booking `json:"booking"`
	Payment *models.Payment `json:"payment"`
	Receipt *models.Receipt `json:"receipt"`
}

type Service struct {
	db     *gorm.DB
	gen    *receipt.Generator
	mailer *notify.Mailer
	lg     *zap.SugaredLogger
}

func NewService(db *gorm.DB, gen *receipt.Generator, mailer *notify.Mailer, lg *zap.SugaredLogger) *Service {
	return &Service{db: db, gen: gen, mailer: mailer, lg: lg}
}

func load(tx *gorm.DB, customerID string, bookingID uint) (*models.Booking, error) {
	var b models.Booking
	err := tx.Preload("Customer").Preload("Slot.Place").Preload("Payment").
		Where("id = ? AND customer_id = ?", bookingID, customerID).
		First(&b).Error
	if err != nil {
		return nil, models.NotFound(err)
	}
	return &b, nil
}

// Quote prices a booking without charging it.
func (s *Service) Quote(ctx context.Context, customerID string, bookingID uint) (*Quote, error) {
	b, err := load(s.db.WithContext(ctx), customerID, bookingID)
	if err != nil {
		return nil, err
	}
	return &Quote{
		Booking:       b,
		DurationHours: b.DurationHours(),
		AmountPerHour: b.Slot.EffectiveRate(),
		TotalAmount:   b.TotalAmount(),
	}, nil
}

// Pay records a successful payment, confirms the booking and issues its
// receipt atomically. The receipt mail goes out after commit.
func (s *Service) Pay(ctx context.Context, customerID string, bookingID uint, o audit.Origin) (*Result, error) {
	var res Result
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := load(tx, customerID, bookingID)
		if err != nil {
			return err
		}
		if b.Payment != nil {
			return models.ErrAlreadyPaid
		}
		if b.Status != models.BookingPending {
			return models.ErrInvalidState
		}

		p := models.Payment{BookingID: b.ID, Amount: b.TotalAmount(), Status: models.PaymentSuccess}
		if err := tx.Create(&p).Error; err != nil {
			if models.IsUniqueViolation(err) {
				return models.ErrAlreadyPaid
			}
			return err
		}
		upd := tx.Model(&models.Booking{}).
			Where("id = ? AND status = ?", b.ID, models.BookingPending).
			Update("status", models.BookingConfirmed)
		if upd.Error != nil {
			return upd.Error
		}
		if upd.RowsAffected == 0 {
			return models.ErrAlreadyPaid
		}
		b.Status = models.BookingConfirmed
		b.Payment = &p

		r, err := s.gen.Generate(ctx, tx, b)
		if err != nil {
			return fmt.Errorf("generate receipt: %w", err)
		}
		if err := audit.Activity(tx, customerID, models.ActivityPaymentMade,
			fmt.Sprintf("Paid %.2f for booking #%d (%s)", p.Amount, b.ID, r.ReceiptNumber), o); err != nil {
			return err
		}
		res = Result{Booking: b, Payment: &p, Receipt: r}
		return nil
	})
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) && !errors.Is(err, models.ErrConflict) {
			s.lg.Errorw("checkout failed", "booking_id", bookingID, "error", err)
		}
		return nil, err
	}
	s.lg.Infow("payment recorded", "booking_id", bookingID, "amount", res.Payment.Amount, "receipt", res.Receipt.ReceiptNumber)

	s.mailer.Send(ctx, res.Booking.Customer.Email, notify.TemplateReceipt, map[string]string{
		"Username":      res.Booking.Customer.DisplayName(),
		"ReceiptNumber": res.Receipt.ReceiptNumber,
		"PlaceName":     res.Receipt.ParkingPlaceName,
		"SlotCode":      res.Receipt.SlotCode,
		"StartTime":     res.Receipt.StartTime.Local().Format(time.RFC1123),
		"EndTime":       res.Receipt.EndTime.Local().Format(time.RFC1123),
		"Total":         fmt.Sprintf("%.2f", res.Receipt.TotalAmount),
	})
	return &res, nil
}
