// Package admin is the back-office: user management, settings and statistics.
package admin

import (
	"context"
	"fmt"
	"strings"
	"time"

	"parkeasy/internal/models"
	"parkeasy/internal/services/audit"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const UsersPageSize = 20

const (
	StatusActive     = "active"
	StatusSuspended  = "suspended"
	StatusUnverified = "unverified"
)

type Service struct {
	db  *gorm.DB
	lg  *zap.SugaredLogger
	now func() time.Time
}

func NewService(db *gorm.DB, lg *zap.SugaredLogger) *Service {
	return &Service{db: db, lg: lg, now: time.Now}
}

type UserFilter struct {
	Search string
	Role   string
	Status string
	Page   int
}

func (f UserFilter) apply(q *gorm.DB) *gorm.DB {
	if s := strings.ToLower(strings.TrimSpace(f.Search)); s != "" {
		like := "%" + s + "%"
		q = q.Where("LOWER(username) LIKE ? OR LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?",
			like, like, like, like)
	}
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}
	switch f.Status {
	case StatusActive:
		q = q.Where("is_suspended = ? AND email_verified = ?", false, true)
	case StatusSuspended:
		q = q.Where("is_suspended = ?", true)
	case StatusUnverified:
		q = q.Where("email_verified = ?", false)
	}
	return q
}

func (s *Service) Users(ctx context.Context, f UserFilter) (models.Page[models.User], error) {
	out := models.Page[models.User]{PageSize: UsersPageSize}
	if err := f.apply(s.db.WithContext(ctx).Model(&models.User{})).Count(&out.Total).Error; err != nil {
		return out, err
	}
	var offset int
	out.Page, offset = models.Offset(f.Page, UsersPageSize)
	err := f.apply(s.db.WithContext(ctx)).
		Order("created_at desc").
		Offset(offset).Limit(UsersPageSize).
		Find(&out.Items).Error
	return out, err
}

type UserDetail struct {
	User       *models.User          `json:"user"`
	Bookings   []models.Booking      `json:"bookings"`
	Activities []models.UserActivity `json:"activities"`
	Payments   []models.Payment      `json:"payments"`
	Places     []models.ParkingPlace `json:"places,omitempty"`
}

func (s *Service) User(ctx context.Context, id string) (*UserDetail, error) {
	db := s.db.WithContext(ctx)
	var u models.User
	if err := db.First(&u, "id = ?", id).Error; err != nil {
		return nil, models.NotFound(err)
	}
	d := UserDetail{User: &u}
	if err := db.Preload("Slot.Place").Where("customer_id = ?", id).Order("created_at desc").Find(&d.Bookings).Error; err != nil {
		return nil, err
	}
	if err := db.Where("user_id = ?", id).Order("created_at desc, id desc").Limit(20).Find(&d.Activities).Error; err != nil {
		return nil, err
	}
	if err := db.Joins("JOIN bookings ON bookings.id = payments.booking_id").
		Where("bookings.customer_id = ?", id).
		Order("payments.created_at desc").
		Find(&d.Payments).Error; err != nil {
		return nil, err
	}
	if u.Role == models.RoleOwner {
		if err := db.Where("owner_id = ?", id).Order("created_at desc").Find(&d.Places).Error; err != nil {
			return nil, err
		}
	}
	return &d, nil
}

type UserEdit struct {
	Username  *string
	Email     *string
	FirstName *string
	LastName  *string
	Role      *string
	Phone     *string
	Address   *string
}

// EditUser applies an admin edit. A role change is logged as role_changed,
// anything else as profile_updated.
func (s *Service) EditUser(ctx context.Context, adminID, id string, in UserEdit, o audit.Origin) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&u, "id = ?", id).Error; err != nil {
			return models.NotFound(err)
		}
		oldRole := u.Role
		changes := map[string]any{}
		if in.Username != nil {
			v := strings.TrimSpace(*in.Username)
			if v == "" {
				return models.Invalid("username", "Username is required.")
			}
			changes["username"] = v
		}
		if in.Email != nil {
			v := strings.ToLower(strings.TrimSpace(*in.Email))
			if v == "" {
				return models.Invalid("email", "Email is required.")
			}
			changes["email"] = v
		}
		if in.Role != nil {
			if !models.IsRole(*in.Role) {
				return models.Invalid("role", "Select a valid role.")
			}
			if *in.Role != oldRole {
				changes["role"] = *in.Role
				changes["role_selected_at"] = s.now()
			}
		}
		if in.FirstName != nil {
			changes["first_name"] = strings.TrimSpace(*in.FirstName)
		}
		if in.LastName != nil {
			changes["last_name"] = strings.TrimSpace(*in.LastName)
		}
		if in.Phone != nil {
			changes["phone"] = strings.TrimSpace(*in.Phone)
		}
		if in.Address != nil {
			changes["address"] = strings.TrimSpace(*in.Address)
		}
		if len(changes) > 0 {
			if err := tx.Model(&u).Updates(changes).Error; err != nil {
				if models.IsUniqueViolation(err) {
					return fmt.Errorf("%w: username or email already in use", models.ErrConflict)
				}
				return err
			}
		}
		if err := tx.First(&u, "id = ?", id).Error; err != nil {
			return err
		}
		action, desc := models.AdminProfileUpdated, "User profile updated by admin."
		if u.Role != oldRole {
			action = models.AdminRoleChanged
			desc = fmt.Sprintf("User profile updated by admin. Role changed from %s to %s", oldRole, u.Role)
		}
		return audit.AdminAction(tx, adminID, action, u.ID, desc, o, nil)
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Suspend marks the account suspended with reason. Repeating it refreshes the
// reason and appends another audit row.
func (s *Service) Suspend(ctx context.Context, adminID, id, reason string, o audit.Origin) (*models.User, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, models.Invalid("reason", "A suspension reason is required.")
	}
	if id == adminID {
		return nil, fmt.Errorf("%w: you cannot suspend your own account", models.ErrForbidden)
	}
	var u models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&u, "id = ?", id).Error; err != nil {
			return models.NotFound(err)
		}
		now := s.now()
		if err := tx.Model(&u).Updates(map[string]any{
			"is_suspended":      true,
			"suspension_reason": reason,
			"suspended_by_id":   adminID,
			"suspended_at":      now,
		}).Error; err != nil {
			return err
		}
		u.IsSuspended, u.SuspensionReason, u.SuspendedByID, u.SuspendedAt = true, reason, &adminID, &now
		if err := audit.AdminAction(tx, adminID, models.AdminUserSuspended, u.ID,
			"User suspended. Reason: "+reason, o, map[string]string{"reason": reason}); err != nil {
			return err
		}
		return audit.Activity(tx, u.ID, models.ActivityAccountSuspended, "Account suspended: "+reason, o)
	})
	if err != nil {
		return nil, err
	}
	s.lg.Infow("user suspended", "user_id", id, "admin_id", adminID)
	return &u, nil
}

// Activate clears every suspension field.
func (s *Service) Activate(ctx context.Context, adminID, id string, o audit.Origin) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&u, "id = ?", id).Error; err != nil {
			return models.NotFound(err)
		}
		if err := tx.Model(&u).Updates(map[string]any{
			"is_suspended":      false,
			"suspension_reason": "",
			"suspended_by_id":   nil,
			"suspended_at":      nil,
		}).Error; err != nil {
			return err
		}
		u.IsSuspended, u.SuspensionReason, u.SuspendedByID, u.SuspendedAt = false, "", nil, nil
		if err := audit.AdminAction(tx, adminID, models.AdminUserActivated, u.ID,
			"User account activated by admin", o, nil); err != nil {
			return err
		}
		return audit.Activity(tx, u.ID, models.ActivityAccountActivated, "Account activated", o)
	})
	if err != nil {
		return nil, err
	}
	s.lg.Infow("user activated", "user_id", id, "admin_id", adminID)
	return &u, nil
}

// DeleteUser hard-deletes the account; owned places, slots and bookings go
// with it through foreign key cascades.
func (s *Service) DeleteUser(ctx context.Context, adminID, id string, o audit.Origin) error {
	if id == adminID {
		return fmt.Errorf("%w: you cannot delete your own account", models.ErrForbidden)
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u models.User
		if err := tx.First(&u, "id = ?", id).Error; err != nil {
			return models.NotFound(err)
		}
		if err := audit.AdminAction(tx, adminID, models.AdminUserDeleted, "",
			fmt.Sprintf("User %s deleted by admin", u.Username), o,
			map[string]string{"user_id": u.ID, "email": u.Email}); err != nil {
			return err
		}
		return tx.Delete(&u).Error
	})
	if err == nil {
		s.lg.Infow("user deleted", "user_id", id, "admin_id", adminID)
	}
	return err
}
