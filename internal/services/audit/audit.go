// Package audit appends and lists UserActivity and AdminAction rows.
package audit

import (
	"context"

	"parkeasy/internal/models"

	"gorm.io/gorm"
)

const PageSize = 50

// Origin identifies where a request came from.
type Origin struct {
	IP        string
	UserAgent string
}

// Activity appends a user activity row using tx, so it commits or rolls back
// with the surrounding change.
func Activity(tx *gorm.DB, userID, action, description string, o Origin) error {
	return tx.Create(&models.UserActivity{
		UserID:      userID,
		Action:      action,
		Description: description,
		IPAddress:   o.IP,
		UserAgent:   o.UserAgent,
	}).Error
}

// AdminAction appends an admin audit row. targetID may be empty.
func AdminAction(tx *gorm.DB, adminID, action, targetID, description string, o Origin, metadata any) error {
	row := models.AdminAction{
		AdminUserID: adminID,
		Action:      action,
		Description: description,
		IPAddress:   o.IP,
	}
	if targetID != "" {
		row.TargetUserID = &targetID
	}
	if metadata != nil {
		row.Metadata = models.MustJSONB(metadata)
	}
	return tx.Create(&row).Error
}

type Log struct {
	db *gorm.DB
}

func NewLog(db *gorm.DB) *Log {
	return &Log{db: db}
}

func (l *Log) AdminActions(ctx context.Context, page int) (models.Page[models.AdminAction], error) {
	out := models.Page[models.AdminAction]{PageSize: PageSize}
	q := l.db.WithContext(ctx).Model(&models.AdminAction{})
	if err := q.Count(&out.Total).Error; err != nil {
		return out, err
	}
	var offset int
	out.Page, offset = models.Offset(page, PageSize)
	err := l.db.WithContext(ctx).
		Preload("AdminUser").Preload("TargetUser").
		Order("created_at desc, id desc").
		Offset(offset).Limit(PageSize).
		Find(&out.Items).Error
	return out, err
}

// Activities lists user activity, optionally narrowed to one user.
func (l *Log) Activities(ctx context.Context, userID string, page int) (models.Page[models.UserActivity], error) {
	out := models.Page[models.UserActivity]{PageSize: PageSize}
	scope := func(q *gorm.DB) *gorm.DB {
		if userID != "" {
			q = q.Where("user_id = ?", userID)
		}
		return q
	}
	if err := scope(l.db.WithContext(ctx).Model(&models.UserActivity{})).Count(&out.Total).Error; err != nil {
		return out, err
	}
	var offset int
	out.Page, offset = models.Offset(page, PageSize)
	err := scope(l.db.WithContext(ctx)).
		Preload("User").
		Order("created_at desc, id desc").
		Offset(offset).Limit(PageSize).
		Find(&out.Items).Error
	return out, err
}
