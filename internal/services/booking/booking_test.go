package booking

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"parkeasy/internal/models"
	"parkeasy/internal/services/audit"
	"parkeasy/internal/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	svc      *Service
	customer *models.User
	admin    *models.User
	place    *models.ParkingPlace
}

func newFixture(t *testing.T) fixture {
	db := storetest.Open(t)
	owner := storetest.User(t, db, "owner", models.RoleOwner)
	return fixture{
		db:       db,
		svc:      NewService(db, zap.NewNop().Sugar()),
		customer: storetest.User(t, db, "asha", models.RoleCustomer),
		admin:    storetest.User(t, db, "root", models.RoleAdmin),
		place:    storetest.Place(t, db, owner, 50, "S001", "S002"),
	}
}

func (f fixture) input(slot int) CreateInput {
	start := time.Now().Add(24 * time.Hour).Truncate(time.Minute)
	return CreateInput{
		SlotID:             f.place.Slots[slot].ID,
		StartTime:          start,
		EndTime:            start.Add(150 * time.Minute),
		VehicleType:        "4_wheeler",
		VehicleNumberPlate: " mh12ab1234 ",
	}
}

func (f fixture) slotAvailable(t *testing.T, id uint) bool {
	var s models.ParkingSlot
	require.NoError(t, f.db.First(&s, id).Error)
	return s.IsAvailable
}

func TestValidate(t *testing.T) {
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	start := now.Add(time.Hour)
	tests := []struct {
		name      string
		in        CreateInput
		wantField string
	}{
		{"end equals start", CreateInput{StartTime: start, EndTime: start, VehicleType: "car", VehicleNumberPlate: "MH12AB"}, "end_time"},
		{"end before start", CreateInput{StartTime: start, EndTime: start.Add(-time.Minute), VehicleType: "car", VehicleNumberPlate: "MH12AB"}, "end_time"},
		{"one second long", CreateInput{StartTime: start, EndTime: start.Add(time.Second), VehicleType: "car", VehicleNumberPlate: "MH12AB"}, ""},
		{"start in the past", CreateInput{StartTime: now.Add(-time.Minute), EndTime: start, VehicleType: "car", VehicleNumberPlate: "MH12AB"}, "start_time"},
		{"start equals now", CreateInput{StartTime: now, EndTime: start, VehicleType: "car", VehicleNumberPlate: "MH12AB"}, "start_time"},
		{"short plate after trim", CreateInput{StartTime: start, EndTime: start.Add(time.Hour), VehicleType: "car", VehicleNumberPlate: "  ab1  "}, "vehicle_number_plate"},
		{"five character plate", CreateInput{StartTime: start, EndTime: start.Add(time.Hour), VehicleType: "car", VehicleNumberPlate: "ab123"}, ""},
		{"unknown vehicle", CreateInput{StartTime: start, EndTime: start.Add(time.Hour), VehicleType: "rocket", VehicleNumberPlate: "MH12AB"}, "vehicle_type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&tt.in, now)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var ve *models.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.wantField, ve.Field)
		})
	}

	in := CreateInput{StartTime: start, EndTime: start.Add(time.Hour), VehicleType: "car", VehicleNumberPlate: " mh12ab1234 "}
	require.NoError(t, Validate(&in, now))
	assert.Equal(t, "MH12AB1234", in.VehicleNumberPlate)
}

func TestCreateReservesSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.svc.Create(ctx, f.customer.ID, f.input(0), audit.Origin{IP: "127.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, models.BookingPending, b.Status)
	assert.Equal(t, "MH12AB1234", b.VehicleNumberPlate)
	assert.Equal(t, 2.5, b.DurationHours())
	assert.Equal(t, 125.0, b.TotalAmount())
	assert.False(t, f.slotAvailable(t, f.place.Slots[0].ID))
	assert.True(t, f.slotAvailable(t, f.place.Slots[1].ID))

	var acts []models.UserActivity
	require.NoError(t, f.db.Where("user_id = ?", f.customer.ID).Find(&acts).Error)
	require.Len(t, acts, 1)
	assert.Equal(t, models.ActivityBookingCreated, acts[0].Action)

	_, err = f.svc.Create(ctx, f.customer.ID, f.input(0), audit.Origin{})
	assert.ErrorIs(t, err, models.ErrSlotUnavailable)
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestCreateRejectsWithoutSideEffects(t *testing.T) {
	f := newFixture(t)
	in := f.input(0)
	in.StartTime = time.Now().Add(-time.Hour)

	_, err := f.svc.Create(context.Background(), f.customer.ID, in, audit.Origin{})
	var ve *models.ValidationError
	require.ErrorAs(t, err, &ve)

	var count int64
	f.db.Model(&models.Booking{}).Count(&count)
	assert.Zero(t, count)
	assert.True(t, f.slotAvailable(t, f.place.Slots[0].ID))
}

// The place's allowed types drive search only; any known vehicle type can book.
func TestCreateAcceptsEveryVehicleType(t *testing.T) {
	db := storetest.Open(t)
	owner := storetest.User(t, db, "owner", models.RoleOwner)
	cust := storetest.User(t, db, "asha", models.RoleCustomer)
	codes := make([]string, len(models.VehicleTypes))
	for i := range codes {
		codes[i] = fmt.Sprintf("S%03d", i+1)
	}
	place := storetest.Place(t, db, owner, 50, codes...)
	require.Equal(t, "2_wheeler,4_wheeler", place.AllowedVehicleTypes)
	svc := NewService(db, zap.NewNop().Sugar())
	start := time.Now().Add(24 * time.Hour).Truncate(time.Minute)

	for i, vt := range models.VehicleTypes {
		t.Run(vt.Code, func(t *testing.T) {
			b, err := svc.Create(context.Background(), cust.ID, CreateInput{
				SlotID:             place.Slots[i].ID,
				StartTime:          start,
				EndTime:            start.Add(time.Hour),
				VehicleType:        vt.Code,
				VehicleNumberPlate: "MH12AB1234",
			}, audit.Origin{})
			require.NoError(t, err)
			assert.Equal(t, vt.Code, b.VehicleType)
		})
	}
}

func TestCreateUnknownSlot(t *testing.T) {
	f := newFixture(t)
	in := f.input(0)
	in.SlotID = 9999
	_, err := f.svc.Create(context.Background(), f.customer.ID, in, audit.Origin{})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestConcurrentCreateOneWins(t *testing.T) {
	f := newFixture(t)
	other := storetest.User(t, f.db, "ravi", models.RoleCustomer)
	customers := []string{f.customer.ID, other.ID}

	errs := make([]error, len(customers))
	var wg sync.WaitGroup
	for i, id := range customers {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, errs[i] = f.svc.Create(context.Background(), id, f.input(0), audit.Origin{})
		}(i, id)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, models.ErrSlotUnavailable)
	}
	assert.Equal(t, 1, succeeded)

	var count int64
	f.db.Model(&models.Booking{}).Where("slot_id = ?", f.place.Slots[0].ID).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b, err := f.svc.Create(ctx, f.customer.ID, f.input(0), audit.Origin{})
	require.NoError(t, err)

	stranger := storetest.User(t, f.db, "ravi", models.RoleCustomer)
	assert.ErrorIs(t, f.svc.Cancel(ctx, stranger.ID, b.ID, audit.Origin{}), models.ErrNotFound)

	require.NoError(t, f.svc.Cancel(ctx, f.customer.ID, b.ID, audit.Origin{}))
	assert.True(t, f.slotAvailable(t, b.SlotID))
	got, err := f.svc.Get(ctx, f.customer.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, got.Status)

	assert.ErrorIs(t, f.svc.Cancel(ctx, f.customer.ID, b.ID, audit.Origin{}), models.ErrInvalidState)
}

func TestDashboardAndList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Create(ctx, f.customer.ID, f.input(0), audit.Origin{})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, f.customer.ID, f.input(1), audit.Origin{})
	require.NoError(t, err)

	d, err := f.svc.Dashboard(ctx, f.customer.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, d.TotalBookings)
	assert.EqualValues(t, 2, d.UpcomingBookings)
	assert.Len(t, d.RecentBookings, 2)

	list, err := f.svc.ListForCustomer(ctx, f.customer.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.NotNil(t, list[0].Slot.Place)
}

func TestAdminListFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b, err := f.svc.Create(ctx, f.customer.ID, f.input(0), audit.Origin{})
	require.NoError(t, err)
	in := f.input(1)
	in.VehicleType = "2_wheeler"
	in.VehicleNumberPlate = "KA01XY9999"
	_, err = f.svc.Create(ctx, f.customer.ID, in, audit.Origin{})
	require.NoError(t, err)

	tests := []struct {
		name string
		f    Filter
		want int64
	}{
		{"all", Filter{}, 2},
		{"plate search", Filter{Search: "ka01"}, 1},
		{"customer search", Filter{Search: "ASHA"}, 2},
		{"place search", Filter{Search: "central"}, 2},
		{"vehicle type", Filter{VehicleType: "4_wheeler"}, 1},
		{"status", Filter{Status: models.BookingConfirmed}, 0},
		{"from after", Filter{From: ptr(b.StartTime.Add(time.Hour))}, 0},
		{"to after", Filter{To: ptr(b.StartTime.Add(time.Hour))}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := f.svc.List(ctx, tt.f)
			require.NoError(t, err)
			assert.Equal(t, tt.want, page.Total)
			assert.Len(t, page.Items, int(tt.want))
		})
	}
}

func TestAdminEditReleasesAndReserves(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b, err := f.svc.Create(ctx, f.customer.ID, f.input(0), audit.Origin{})
	require.NoError(t, err)

	cancelled := models.BookingCancelled
	got, err := f.svc.AdminEdit(ctx, f.admin.ID, b.ID, AdminUpdate{Status: &cancelled}, audit.Origin{IP: "10.0.0.9"})
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, got.Status)
	assert.True(t, f.slotAvailable(t, b.SlotID))

	var action models.AdminAction
	require.NoError(t, f.db.Where("action = ?", models.AdminBookingModified).First(&action).Error)
	assert.Equal(t, f.customer.ID, *action.TargetUserID)
	assert.Equal(t, "10.0.0.9", action.IPAddress)

	confirmed := models.BookingConfirmed
	_, err = f.svc.AdminEdit(ctx, f.admin.ID, b.ID, AdminUpdate{Status: &confirmed}, audit.Origin{})
	require.NoError(t, err)
	assert.False(t, f.slotAvailable(t, b.SlotID))

	// reviving a cancelled booking fails once someone else holds the slot
	_, err = f.svc.AdminEdit(ctx, f.admin.ID, b.ID, AdminUpdate{Status: &cancelled}, audit.Origin{})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, f.customer.ID, f.input(0), audit.Origin{})
	require.NoError(t, err)
	_, err = f.svc.AdminEdit(ctx, f.admin.ID, b.ID, AdminUpdate{Status: &confirmed}, audit.Origin{})
	assert.ErrorIs(t, err, models.ErrSlotUnavailable)
}

func TestAdminEditValidatesTimes(t *testing.T) {
	f := newFixture(t)
	b, err := f.svc.Create(context.Background(), f.customer.ID, f.input(0), audit.Origin{})
	require.NoError(t, err)

	end := b.StartTime
	_, err = f.svc.AdminEdit(context.Background(), f.admin.ID, b.ID, AdminUpdate{EndTime: &end}, audit.Origin{})
	var ve *models.ValidationError
	assert.ErrorAs(t, err, &ve)

	bogus := models.BookingStatus("expired")
	_, err = f.svc.AdminEdit(context.Background(), f.admin.ID, b.ID, AdminUpdate{Status: &bogus}, audit.Origin{})
	assert.ErrorAs(t, err, &ve)

	_, err = f.svc.AdminEdit(context.Background(), f.admin.ID, 4242, AdminUpdate{}, audit.Origin{})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestAdvanceLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b1, err := f.svc.Create(ctx, f.customer.ID, f.input(0), audit.Origin{})
	require.NoError(t, err)
	b2, err := f.svc.Create(ctx, f.customer.ID, f.input(1), audit.Origin{})
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&models.Booking{}).Where("id = ?", b1.ID).Update("status", models.BookingConfirmed).Error)

	// during the booking window: confirmed becomes active, pending is untouched
	activated, completed, err := f.svc.AdvanceLifecycle(ctx, b1.StartTime.Add(time.Minute))
	require.NoError(t, err)
	assert.EqualValues(t, 1, activated)
	assert.Zero(t, completed)

	activated, completed, err = f.svc.AdvanceLifecycle(ctx, b1.EndTime)
	require.NoError(t, err)
	assert.Zero(t, activated)
	assert.EqualValues(t, 1, completed)

	got, err := f.svc.Get(ctx, f.customer.ID, b1.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingCompleted, got.Status)
	assert.True(t, f.slotAvailable(t, b1.SlotID))

	pending, err := f.svc.Get(ctx, f.customer.ID, b2.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingPending, pending.Status)
	assert.False(t, f.slotAvailable(t, b2.SlotID))
}

func TestAdvanceLifecycleKeepsSlotHeldByAnotherBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b1, err := f.svc.Create(ctx, f.customer.ID, f.input(0), audit.Origin{})
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&models.Booking{}).Where("id = ?", b1.ID).Update("status", models.BookingActive).Error)

	// a second booking already claims the same slot for a later window
	later := models.Booking{
		CustomerID:         f.customer.ID,
		SlotID:             b1.SlotID,
		StartTime:          b1.EndTime.Add(time.Hour),
		EndTime:            b1.EndTime.Add(2 * time.Hour),
		Status:             models.BookingConfirmed,
		VehicleType:        "4_wheeler",
		VehicleNumberPlate: "MH12CD5678",
	}
	require.NoError(t, f.db.Create(&later).Error)

	_, completed, err := f.svc.AdvanceLifecycle(ctx, b1.EndTime)
	require.NoError(t, err)
	assert.EqualValues(t, 1, completed)
	assert.False(t, f.slotAvailable(t, b1.SlotID))

	_, completed, err = f.svc.AdvanceLifecycle(ctx, later.EndTime)
	require.NoError(t, err)
	assert.EqualValues(t, 1, completed)
	assert.True(t, f.slotAvailable(t, b1.SlotID))
}

func ptr[T any](v T) *T { return &v }
