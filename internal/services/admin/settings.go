package admin

import (
	"context"
	"strconv"

	"parkeasy/internal/models"
	"parkeasy/internal/services/audit"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	KeyMaxBookingDurationHours = "max_booking_duration_hours"
	KeyMinAdvanceBookingHours  = "min_advance_booking_hours"
	KeyMaxCancellationHours    = "max_cancellation_hours"
	KeyMaintenanceMode         = "system_maintenance_mode"
	KeyMaintenanceMessage      = "maintenance_message"
)

type Settings struct {
	MaxBookingDurationHours int    `json:"max_booking_duration_hours"`
	MinAdvanceBookingHours  int    `json:"min_advance_booking_hours"`
	MaxCancellationHours    int    `json:"max_cancellation_hours"`
	MaintenanceMode         bool   `json:"system_maintenance_mode"`
	MaintenanceMessage      string `json:"maintenance_message"`
}

func DefaultSettings() Settings {
	return Settings{MaxBookingDurationHours: 24, MinAdvanceBookingHours: 0, MaxCancellationHours: 2}
}

func (st Settings) validate() error {
	switch {
	case st.MaxBookingDurationHours < 1 || st.MaxBookingDurationHours > 168:
		return models.Invalid(KeyMaxBookingDurationHours, "Must be between 1 and 168.")
	case st.MinAdvanceBookingHours < 0 || st.MinAdvanceBookingHours > 72:
		return models.Invalid(KeyMinAdvanceBookingHours, "Must be between 0 and 72.")
	case st.MaxCancellationHours < 0 || st.MaxCancellationHours > 24:
		return models.Invalid(KeyMaxCancellationHours, "Must be between 0 and 24.")
	}
	return nil
}

func (st Settings) values() map[string]string {
	return map[string]string{
		KeyMaxBookingDurationHours: strconv.Itoa(st.MaxBookingDurationHours),
		KeyMinAdvanceBookingHours:  strconv.Itoa(st.MinAdvanceBookingHours),
		KeyMaxCancellationHours:    strconv.Itoa(st.MaxCancellationHours),
		KeyMaintenanceMode:         strconv.FormatBool(st.MaintenanceMode),
		KeyMaintenanceMessage:      st.MaintenanceMessage,
	}
}

// Settings reads stored values over the defaults. Unparseable rows keep the default.
func (s *Service) Settings(ctx context.Context) (Settings, error) {
	st := DefaultSettings()
	var rows []models.SystemSetting
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).Find(&rows).Error; err != nil {
		return st, err
	}
	for _, r := range rows {
		switch r.Key {
		case KeyMaxBookingDurationHours:
			if n, err := strconv.Atoi(r.Value); err == nil {
				st.MaxBookingDurationHours = n
			}
		case KeyMinAdvanceBookingHours:
			if n, err := strconv.Atoi(r.Value); err == nil {
				st.MinAdvanceBookingHours = n
			}
		case KeyMaxCancellationHours:
			if n, err := strconv.Atoi(r.Value); err == nil {
				st.MaxCancellationHours = n
			}
		case KeyMaintenanceMode:
			if b, err := strconv.ParseBool(r.Value); err == nil {
				st.MaintenanceMode = b
			}
		case KeyMaintenanceMessage:
			st.MaintenanceMessage = r.Value
		}
	}
	return st, nil
}

func (s *Service) UpdateSettings(ctx context.Context, adminID string, st Settings, o audit.Origin) (Settings, error) {
	if err := st.validate(); err != nil {
		return st, err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for k, v := range st.values() {
			row := models.SystemSetting{Key: k, Value: v, IsActive: true}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "key"}},
				DoUpdates: clause.AssignmentColumns([]string{"value", "is_active", "updated_at"}),
			}).Create(&row).Error
			if err != nil {
				return err
			}
		}
		return audit.AdminAction(tx, adminID, models.AdminSystemSettingsChanged, "",
			"System settings updated by admin", o, st)
	})
	if err != nil {
		return st, err
	}
	s.lg.Infow("system settings updated", "admin_id", adminID)
	return st, nil
}
