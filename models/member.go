package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// A Member is a Telegram user allowed to use the bot.
// Membership expires at ExpiryDate and can be revoked early by setting
// Status to banned.
type Member struct {
	ID         uint32 `gorm:"primarykey"`
	TelegramID int64  `gorm:"uniqueIndex;not null"`
	FirstName  string `gorm:"size:64"`
	Status     MemberStatus
	ExpiryDate time.Time
	CreatedAt  time.Time
}

type MemberStatus string

const (
	MemberActive MemberStatus = "active"
	MemberBanned MemberStatus = "banned"
)

func (MemberStatus) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	switch db.Dialector.Name() {
	case "mysql", "postgres":
		return "enum('active','banned')"
	case "sqlite":
		return "TEXT"
	default:
		return ""
	}
}

type Members struct {
	db *gorm.DB
}

func NewMembers(db *gorm.DB) *Members {
	return &Members{db: db}
}

// Add grants or extends membership for the given Telegram user.
// The expiry is measured from now, not from the previous expiry.
func (m *Members) Add(telegramID int64, firstName string, d time.Duration) (*Member, error) {
	member := Member{
		TelegramID: telegramID,
		FirstName:  firstName,
		Status:     MemberActive,
		ExpiryDate: time.Now().Add(d),
	}
	err := m.db.Where("telegram_id = ?", telegramID).
		Assign(map[string]interface{}{
			"status":      MemberActive,
			"expiry_date": member.ExpiryDate,
			"first_name":  firstName,
		}).
		FirstOrCreate(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// Ban revokes membership without touching the expiry date.
func (m *Members) Ban(telegramID int64) error {
	return m.setStatus(telegramID, MemberBanned)
}

// Unban restores a banned member. The original expiry still applies.
func (m *Members) Unban(telegramID int64) error {
	return m.setStatus(telegramID, MemberActive)
}

func (m *Members) setStatus(telegramID int64, status MemberStatus) error {
	res := m.db.Model(&Member{}).
		Where("telegram_id = ?", telegramID).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// IsActive reports whether the given Telegram user is an unexpired,
// unbanned member. Unknown users are simply not active.
func (m *Members) IsActive(telegramID int64) (bool, error) {
	var member Member
	err := m.db.Take(&member, "telegram_id = ?", telegramID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return false, nil
	case err != nil:
		return false, err
	}
	return member.Status == MemberActive && member.ExpiryDate.After(time.Now()), nil
}
