package user

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/attendix/attendix/core"
)

// Login types
const (
	LoginEmail  = "email"  // admins: email + password
	LoginMobile = "mobile" // employees: phone number, OTP verified upstream
)

type User struct {
	ID               int       `json:"id"`
	EmployeeID       int       `json:"employee_id,omitempty"`
	OrganizationID   int       `json:"organization_id"`
	OrganizationName string    `json:"organization_name"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone_number"`
	LoginType        string    `json:"login_type"`
	Role             string    `json:"role"`
	IsActive         bool      `json:"is_active"`
	PasswordHash     []byte    `json:"-"`
	CreatedAt        time.Time `json:"created_at"` // UTC
	LastLogin        time.Time `json:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsAdmin() bool {
	return u.Role == core.RoleAdmin
}

// Actor returns the principal u acts as.
func (u User) Actor() core.Actor {
	return core.Actor{
		UserID:         u.ID,
		EmployeeID:     u.EmployeeID,
		OrganizationID: u.OrganizationID,
		Name:           u.Name,
		Email:          u.Email,
		Role:           u.Role,
	}
}

type Organization struct {
	ID   int    `json:"organization_id"`
	Name string `json:"organization_name"`
}

// GetFilter selects a single user; zero fields are ignored.
type GetFilter struct {
	ID             int
	Email          string // email logins only
	Phone          string // mobile logins only
	OrganizationID int
}

type AdminLogin struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (al *AdminLogin) Validate(validate *validator.Validate) error {
	al.Email = core.CleanString(al.Email, true /* lower */)
	return validate.Struct(al)
}

type EmployeeLogin struct {
	Phone          string `json:"phone_number" validate:"required,phone"`
	OrganizationID int    `json:"organization_id" validate:"omitempty,gt=0"`
}

func (el *EmployeeLogin) Validate(validate *validator.Validate) error {
	el.Phone = core.CleanString(el.Phone)
	return validate.Struct(el)
}

type PhoneLookup struct {
	Phone string `json:"phone_number" query:"phone_number" validate:"required,phone"`
}

func (pl *PhoneLookup) Validate(validate *validator.Validate) error {
	pl.Phone = core.CleanString(pl.Phone)
	return validate.Struct(pl)
}

// NewAdmin contains information needed to create an organization administrator.
type NewAdmin struct {
	OrganizationName string `json:"organization_name" validate:"required,notblank"`
	Name             string `json:"name" validate:"required,notblank"`
	Email            string `json:"email" validate:"required,email"`
	Password         string `json:"password" validate:"required"`
}

func (na *NewAdmin) Validate(validate *validator.Validate) error {
	na.OrganizationName = core.CleanString(na.OrganizationName)
	na.Name = core.CleanString(na.Name)
	na.Email = core.CleanString(na.Email, true /* lower */)
	return validate.Struct(na)
}

type ResetPassword struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (rp *ResetPassword) Validate(validate *validator.Validate) error {
	rp.Email = core.CleanString(rp.Email, true /* lower */)
	return validate.Struct(rp)
}
