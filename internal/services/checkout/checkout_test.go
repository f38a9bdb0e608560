package checkout

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"parkeasy/internal/models"
	"parkeasy/internal/notify"
	"parkeasy/internal/services/audit"
	"parkeasy/internal/services/receipt"
	"parkeasy/internal/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type recorder struct {
	mu   sync.Mutex
	sent []notify.Message
	err  error
}

func (r *recorder) Dispatch(_ context.Context, m notify.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, m)
	return r.err
}

type fixture struct {
	db       *gorm.DB
	svc      *Service
	mail     *recorder
	customer *models.User
	booking  *models.Booking
}

func newFixture(t *testing.T) fixture {
	db := storetest.Open(t)
	owner := storetest.User(t, db, "owner", models.RoleOwner)
	cust := storetest.User(t, db, "asha", models.RoleCustomer)
	place := storetest.Place(t, db, owner, 50, "S001")
	require.NoError(t, db.Model(&place.Slots[0]).Update("is_available", false).Error)

	start := time.Now().Add(48 * time.Hour).Truncate(time.Hour)
	b := &models.Booking{
		CustomerID:         cust.ID,
		SlotID:             place.Slots[0].ID,
		StartTime:          start.UTC(),
		EndTime:            start.Add(150 * time.Minute).UTC(),
		Status:             models.BookingPending,
		VehicleType:        "4_wheeler",
		VehicleNumberPlate: "MH12AB1234",
	}
	require.NoError(t, db.Create(b).Error)

	lg := zap.NewNop().Sugar()
	mail := &recorder{}
	svc := NewService(db, receipt.NewGenerator(receipt.DBSequencer{}), notify.NewMailer(mail, lg), lg)
	return fixture{db: db, svc: svc, mail: mail, customer: cust, booking: b}
}

func TestQuote(t *testing.T) {
	f := newFixture(t)
	q, err := f.svc.Quote(context.Background(), f.customer.ID, f.booking.ID)
	require.NoError(t, err)
	assert.Equal(t, 2.5, q.DurationHours)
	assert.Equal(t, 50.0, q.AmountPerHour)
	assert.Equal(t, 125.0, q.TotalAmount)
}

func TestPayConfirmsAndIssuesReceipt(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.Pay(context.Background(), f.customer.ID, f.booking.ID, audit.Origin{IP: "127.0.0.1"})
	require.NoError(t, err)

	assert.Equal(t, 125.0, res.Payment.Amount)
	assert.Equal(t, models.PaymentSuccess, res.Payment.Status)
	assert.Equal(t, models.BookingConfirmed, res.Booking.Status)
	assert.Equal(t, 125.0, res.Receipt.TotalAmount)
	assert.Equal(t, models.PaymentSuccess, res.Receipt.PaymentStatus)
	wantPrefix := "RCPT-" + time.Now().Format("20060102") + "-"
	assert.True(t, strings.HasPrefix(res.Receipt.ReceiptNumber, wantPrefix), res.Receipt.ReceiptNumber)
	assert.Equal(t, wantPrefix+"0001", res.Receipt.ReceiptNumber)

	var stored models.Booking
	require.NoError(t, f.db.First(&stored, f.booking.ID).Error)
	assert.Equal(t, models.BookingConfirmed, stored.Status)

	var act models.UserActivity
	require.NoError(t, f.db.Where("action = ?", models.ActivityPaymentMade).First(&act).Error)
	assert.Equal(t, f.customer.ID, act.UserID)

	require.Len(t, f.mail.sent, 1)
	assert.Equal(t, notify.TemplateReceipt, f.mail.sent[0].Template)
	assert.Equal(t, "125.00", f.mail.sent[0].Data["Total"])
}

func TestPayTwiceRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Pay(ctx, f.customer.ID, f.booking.ID, audit.Origin{})
	require.NoError(t, err)

	_, err = f.svc.Pay(ctx, f.customer.ID, f.booking.ID, audit.Origin{})
	assert.ErrorIs(t, err, models.ErrAlreadyPaid)
	assert.ErrorIs(t, err, models.ErrConflict)

	var payments, receipts int64
	f.db.Model(&models.Payment{}).Count(&payments)
	f.db.Model(&models.Receipt{}).Count(&receipts)
	assert.EqualValues(t, 1, payments)
	assert.EqualValues(t, 1, receipts)
}

func TestPayMailFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.mail.err = assert.AnError
	res, err := f.svc.Pay(context.Background(), f.customer.ID, f.booking.ID, audit.Origin{})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Receipt.ReceiptNumber)
}

func TestPayRejectsOthersAndCancelled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stranger := storetest.User(t, f.db, "ravi", models.RoleCustomer)
	_, err := f.svc.Pay(ctx, stranger.ID, f.booking.ID, audit.Origin{})
	assert.ErrorIs(t, err, models.ErrNotFound)

	require.NoError(t, f.db.Model(f.booking).Update("status", models.BookingCancelled).Error)
	_, err = f.svc.Pay(ctx, f.customer.ID, f.booking.ID, audit.Origin{})
	assert.ErrorIs(t, err, models.ErrInvalidState)

	var payments int64
	f.db.Model(&models.Payment{}).Count(&payments)
	assert.Zero(t, payments)
}
