package models

import "time"

// Account represents a registered portal user.
type Account struct {
	ID            uint       `json:"id" gorm:"primaryKey"`
	Username      string     `json:"username" gorm:"uniqueIndex;type:varchar(255);not null"`
	PasswordHash  string     `json:"-" gorm:"type:varchar(255);not null"`
	PasswordHint  string     `json:"-" gorm:"type:varchar(255)"`
	City          string     `json:"city" gorm:"type:varchar(100)"`
	State         string     `json:"state" gorm:"type:varchar(100)"`
	Country       string     `json:"country" gorm:"type:varchar(100)"`
	LastLoginTime *time.Time `json:"last_login_time"`
	LastLoginIP   string     `json:"last_login_ip" gorm:"type:varchar(64)"`
	CreatedAt     time.Time  `json:"created_at"`
}

// TableName pins the account table regardless of GORM naming strategy.
func (Account) TableName() string {
	return "album_users"
}

// SecurityQuestion is one entry of the shared registration challenge set.
type SecurityQuestion struct {
	ID       uint   `gorm:"primaryKey"`
	Question string `gorm:"type:varchar(255);not null"`
	Answer   string `gorm:"type:varchar(255);not null"`
}

func (SecurityQuestion) TableName() string {
	return "family_qa"
}
