package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleCustomer = "customer"
	RoleOwner    = "owner"
	RoleAdmin    = "admin"
)

// SelectableRoles are the roles a user may pick for themselves.
var SelectableRoles = []string{RoleCustomer, RoleOwner}

func IsRole(r string) bool {
	return r == RoleCustomer || r == RoleOwner || r == RoleAdmin
}

type User struct {
	ID                   string     `gorm:"type:uuid;primaryKey" json:"id"`
	Username             string     `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Email                string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash         string     `gorm:"not null" json:"-"`
	FirstName            string     `gorm:"size:150" json:"first_name"`
	LastName             string     `gorm:"size:150" json:"last_name"`
	Phone                string     `gorm:"size:20" json:"phone"`
	Address              string     `json:"address"`
	Role                 string     `gorm:"size:15;not null;index" json:"role"`
	RoleSelectedAt       *time.Time `json:"role_selected_at,omitempty"`
	IsActive             bool       `gorm:"not null" json:"is_active"`
	EmailVerified        bool       `gorm:"not null;index" json:"email_verified"`
	OTP                  *string    `gorm:"size:6" json:"-"`
	OTPCreatedAt         *time.Time `json:"-"`
	IsSuspended          bool       `gorm:"not null;index" json:"is_suspended"`
	SuspensionReason     string     `json:"suspension_reason,omitempty"`
	SuspendedByID        *string    `gorm:"type:uuid" json:"suspended_by,omitempty"`
	SuspendedAt          *time.Time `json:"suspended_at,omitempty"`
	PasswordResetToken   *string    `gorm:"size:100;index" json:"-"`
	PasswordResetExpires *time.Time `json:"-"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// DisplayName is "First Last" when set, the username otherwise.
func (u *User) DisplayName() string {
	if n := strings.TrimSpace(u.FirstName + " " + u.LastName); n != "" {
		return n
	}
	return u.Username
}

type ParkingPlace struct {
	ID                  uint          `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID             string        `gorm:"type:uuid;not null;index" json:"owner_id"`
	Owner               *User         `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Name                string        `gorm:"size:120;not null" json:"name"`
	Address             string        `gorm:"not null" json:"address"`
	Area                string        `gorm:"size:80" json:"area"`
	City                string        `gorm:"size:80;index" json:"city"`
	PricePerHour        float64       `gorm:"not null" json:"price_per_hour"`
	Description         string        `json:"description"`
	AllowedVehicleTypes string        `json:"allowed_vehicle_types"`
	Image1              string        `json:"image1,omitempty"`
	Image2              string        `json:"image2,omitempty"`
	Slots               []ParkingSlot `gorm:"foreignKey:PlaceID;constraint:OnDelete:CASCADE" json:"slots,omitempty"`
	CreatedAt           time.Time     `json:"created_at"`
}

// VehicleTypes splits the comma-separated AllowedVehicleTypes column.
func (p *ParkingPlace) VehicleTypes() []string {
	var out []string
	for _, v := range strings.Split(p.AllowedVehicleTypes, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

type ParkingSlot struct {
	ID           uint          `gorm:"primaryKey;autoIncrement" json:"id"`
	PlaceID      uint          `gorm:"not null;uniqueIndex:idx_slot_place_code" json:"place_id"`
	Place        *ParkingPlace `json:"place,omitempty"`
	Code         string        `gorm:"size:20;not null;uniqueIndex:idx_slot_place_code" json:"code"`
	IsAvailable  bool          `gorm:"not null;index" json:"is_available"`
	PricePerHour *float64      `json:"price_per_hour,omitempty"`
}

type Booking struct {
	ID                 uint          `gorm:"primaryKey;autoIncrement" json:"id"`
	CustomerID         string        `gorm:"type:uuid;not null;index" json:"customer_id"`
	Customer           *User         `gorm:"constraint:OnDelete:CASCADE" json:"customer,omitempty"`
	SlotID             uint          `gorm:"not null;index" json:"slot_id"`
	Slot               *ParkingSlot  `gorm:"constraint:OnDelete:CASCADE" json:"slot,omitempty"`
	StartTime          time.Time     `gorm:"not null;index" json:"start_time"`
	EndTime            time.Time     `gorm:"not null;index" json:"end_time"`
	Status             BookingStatus `gorm:"size:20;not null;index" json:"status"`
	VehicleType        string        `gorm:"size:20;not null" json:"vehicle_type"`
	VehicleNumberPlate string        `gorm:"size:20;not null" json:"vehicle_number_plate"`
	Payment            *Payment      `gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE" json:"payment,omitempty"`
	Receipt            *Receipt      `gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE" json:"receipt,omitempty"`
	CreatedAt          time.Time     `gorm:"index" json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// DurationHours requires nothing preloaded.
func (b *Booking) DurationHours() float64 {
	return DurationHours(b.StartTime, b.EndTime)
}

// TotalAmount requires Slot and Slot.Place to be preloaded.
func (b *Booking) TotalAmount() float64 {
	return TotalAmount(b.StartTime, b.EndTime, b.Slot.EffectiveRate())
}

type Payment struct {
	ID        uint          `gorm:"primaryKey;autoIncrement" json:"id"`
	BookingID uint          `gorm:"not null;uniqueIndex" json:"booking_id"`
	Booking   *Booking      `json:"booking,omitempty"`
	Amount    float64       `gorm:"not null" json:"amount"`
	Status    PaymentStatus `gorm:"size:20;not null" json:"status"`
	CreatedAt time.Time     `json:"created_at"`
}

// Receipt is a frozen snapshot; it never references live inventory rows
// beyond its booking id.
type Receipt struct {
	ID                 uint          `gorm:"primaryKey;autoIncrement" json:"id"`
	BookingID          uint          `gorm:"not null;uniqueIndex" json:"booking_id"`
	ReceiptNumber      string        `gorm:"size:20;not null;uniqueIndex" json:"receipt_number"`
	CustomerName       string        `gorm:"size:100;not null;index" json:"customer_name"`
	ParkingPlaceName   string        `gorm:"size:120;not null" json:"parking_place_name"`
	SlotCode           string        `gorm:"size:20;not null" json:"slot_code"`
	VehicleType        string        `gorm:"size:20;not null" json:"vehicle_type"`
	VehicleNumberPlate string        `gorm:"size:20;not null" json:"vehicle_number_plate"`
	StartTime          time.Time     `gorm:"not null" json:"start_time"`
	EndTime            time.Time     `gorm:"not null" json:"end_time"`
	DurationHours      float64       `gorm:"not null" json:"duration_hours"`
	AmountPerHour      float64       `gorm:"not null" json:"amount_per_hour"`
	TotalAmount        float64       `gorm:"not null" json:"total_amount"`
	PaymentStatus      PaymentStatus `gorm:"size:20;not null" json:"payment_status"`
	CreatedAt          time.Time     `gorm:"index" json:"created_at"`
}

// ReceiptSequence holds the last receipt counter issued for a calendar day.
type ReceiptSequence struct {
	Day     string `gorm:"primaryKey;size:8"`
	Counter int    `gorm:"not null"`
}

type UserActivity struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      string    `gorm:"type:uuid;not null;index" json:"user_id"`
	User        *User     `gorm:"constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Action      string    `gorm:"size:50;not null" json:"action"`
	Description string    `json:"description"`
	IPAddress   string    `gorm:"size:45" json:"ip_address,omitempty"`
	UserAgent   string    `json:"user_agent,omitempty"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

type AdminAction struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	AdminUserID  string    `gorm:"type:uuid;not null;index" json:"admin_user_id"`
	AdminUser    *User     `gorm:"constraint:OnDelete:CASCADE" json:"admin_user,omitempty"`
	Action       string    `gorm:"size:50;not null" json:"action"`
	TargetUserID *string   `gorm:"type:uuid;index" json:"target_user_id,omitempty"`
	TargetUser   *User     `gorm:"constraint:OnDelete:SET NULL" json:"target_user,omitempty"`
	Description  string    `gorm:"not null" json:"description"`
	IPAddress    string    `gorm:"size:45" json:"ip_address,omitempty"`
	Metadata     JSONB     `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}

type SystemSetting struct {
	Key         string    `gorm:"primaryKey;size:100" json:"key"`
	Value       string    `gorm:"not null" json:"value"`
	Description string    `json:"description"`
	IsActive    bool      `gorm:"not null" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Session struct {
	JTI       string     `gorm:"primaryKey;size:64" json:"jti"`
	UserID    string     `gorm:"type:uuid;index;not null" json:"user_id"`
	User      *User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// All lists every persisted model in dependency order for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&User{}, &ParkingPlace{}, &ParkingSlot{}, &Booking{}, &Payment{}, &Receipt{},
		&ReceiptSequence{}, &UserActivity{}, &AdminAction{}, &SystemSetting{}, &Session{},
	}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(All()...)
}
