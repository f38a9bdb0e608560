package models

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingActive    BookingStatus = "active"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingActive, BookingCompleted, BookingCancelled:
		return true
	}
	return false
}

// SlotHoldingStatuses are the statuses for which HoldsSlot is true.
var SlotHoldingStatuses = []BookingStatus{BookingPending, BookingConfirmed, BookingActive}

// HoldsSlot reports whether a booking in this status keeps its slot unavailable.
func (s BookingStatus) HoldsSlot() bool {
	return s == BookingPending || s == BookingConfirmed || s == BookingActive
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentSuccess PaymentStatus = "success"
	PaymentFailed  PaymentStatus = "failed"
)

// Closed set of user activity kinds.
const (
	ActivityLogin            = "login"
	ActivityLogout           = "logout"
	ActivityBookingCreated   = "booking_created"
	ActivityBookingCancelled = "booking_cancelled"
	ActivityPaymentMade      = "payment_made"
	ActivityProfileUpdated   = "profile_updated"
	ActivityAccountSuspended = "account_suspended"
	ActivityAccountActivated = "account_activated"
)

// Closed set of admin action kinds.
const (
	AdminUserSuspended         = "user_suspended"
	AdminUserActivated         = "user_activated"
	AdminUserDeleted           = "user_deleted"
	AdminRoleChanged           = "role_changed"
	AdminProfileUpdated        = "profile_updated"
	AdminBookingModified       = "booking_modified"
	AdminPaymentRefunded       = "payment_refunded"
	AdminSystemSettingsChanged = "system_settings_changed"
)
