package admin

import (
	"context"

	"parkeasy/internal/models"
)

type Dashboard struct {
	TotalUsers        int64 `json:"total_users"`
	TotalCustomers    int64 `json:"total_customers"`
	TotalOwners       int64 `json:"total_owners"`
	SuspendedUsers    int64 `json:"suspended_users"`
	UnverifiedUsers   int64 `json:"unverified_users"`
	TotalBookings     int64 `json:"total_bookings"`
	PendingBookings   int64 `json:"pending_bookings"`
	ActiveBookings    int64 `json:"active_bookings"`
	CompletedBookings int64 `json:"completed_bookings"`
	TotalPlaces       int64 `json:"total_places"`
	TotalSlots        int64 `json:"total_slots"`
	AvailableSlots    int64 `json:"available_slots"`
	TotalPayments     int64 `json:"total_payments"`
	// TotalRevenue sums successful payments only.
	TotalRevenue float64 `json:"total_revenue"`

	RecentActivities   []models.UserActivity `json:"recent_activities"`
	RecentAdminActions []models.AdminAction  `json:"recent_admin_actions"`
	RecentBookings     []models.Booking      `json:"recent_bookings"`
}

func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	db := s.db.WithContext(ctx)
	var d Dashboard
	counts := []struct {
		dst   *int64
		model any
		where string
		args  []any
	}{
		{&d.TotalUsers, &models.User{}, "", nil},
		{&d.TotalCustomers, &models.User{}, "role = ?", []any{models.RoleCustomer}},
		{&d.TotalOwners, &models.User{}, "role = ?", []any{models.RoleOwner}},
		{&d.SuspendedUsers, &models.User{}, "is_suspended = ?", []any{true}},
		{&d.UnverifiedUsers, &models.User{}, "email_verified = ?", []any{false}},
		{&d.TotalBookings, &models.Booking{}, "", nil},
		{&d.PendingBookings, &models.Booking{}, "status = ?", []any{models.BookingPending}},
		{&d.ActiveBookings, &models.Booking{}, "status = ?", []any{models.BookingActive}},
		{&d.CompletedBookings, &models.Booking{}, "status = ?", []any{models.BookingCompleted}},
		{&d.TotalPlaces, &models.ParkingPlace{}, "", nil},
		{&d.TotalSlots, &models.ParkingSlot{}, "", nil},
		{&d.AvailableSlots, &models.ParkingSlot{}, "is_available = ?", []any{true}},
		{&d.TotalPayments, &models.Payment{}, "", nil},
	}
	for _, c := range counts {
		q := db.Model(c.model)
		if c.where != "" {
			q = q.Where(c.where, c.args...)
		}
		if err := q.Count(c.dst).Error; err != nil {
			return nil, err
		}
	}
	if err := db.Model(&models.Payment{}).
		Where("status = ?", models.PaymentSuccess).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&d.TotalRevenue).Error; err != nil {
		return nil, err
	}
	if err := db.Preload("User").Order("created_at desc, id desc").Limit(10).Find(&d.RecentActivities).Error; err != nil {
		return nil, err
	}
	if err := db.Preload("AdminUser").Preload("TargetUser").Order("created_at desc, id desc").Limit(10).Find(&d.RecentAdminActions).Error; err != nil {
		return nil, err
	}
	if err := db.Preload("Customer").Preload("Slot.Place").Order("created_at desc, id desc").Limit(10).Find(&d.RecentBookings).Error; err != nil {
		return nil, err
	}
	return &d, nil
}
