package models

import "time"

const (
	RoleUser            = "user"
	RoleRestaurantOwner = "restaurant_owner"
	RoleAdmin           = "admin"
)

// User is an account. OTP users have a phone number and no email/password;
// admin tooling accounts have an email and a bcrypt password.
type User struct {
	Base
	Name            string     `gorm:"size:255" json:"name"`
	Email           *string    `gorm:"uniqueIndex;size:255" json:"email,omitempty"`
	Password        string     `gorm:"size:255" json:"-"`
	PhoneNumber     *string    `gorm:"uniqueIndex;size:32" json:"phoneNumber,omitempty"`
	Role            string     `gorm:"size:32;not null;default:user;index" json:"role"`
	IsPhoneVerified bool       `gorm:"not null;default:false" json:"isPhoneVerified"`
	DeactivatedAt   *time.Time `gorm:"index" json:"deactivatedAt,omitempty"`
}

// Active reports whether the account may sign in.
func (u *User) Active() bool { return u.DeactivatedAt == nil }

// Phone returns the phone number or "".
func (u *User) Phone() string {
	if u.PhoneNumber == nil {
		return ""
	}
	return *u.PhoneNumber
}
