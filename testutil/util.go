package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/attendix/attendix/core"
	"github.com/attendix/attendix/core/employee"
	"github.com/attendix/attendix/core/user"
)

// NopLogger discards everything.
type NopLogger struct{}

var _ core.Logger = NopLogger{}

func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) Info(string, ...interface{})  {}
func (NopLogger) Warn(string, ...interface{})  {}
func (NopLogger) Error(string, ...interface{}) {}
func (NopLogger) Fatal(string, ...interface{}) {}

// Broadcaster records the events it is asked to broadcast.
type Broadcaster struct {
	mu     sync.Mutex
	events []core.Event
}

var _ core.Broadcaster = (*Broadcaster)(nil)

func (b *Broadcaster) Broadcast(ev core.Event) {
	b.mu.Lock()
	b.events = append(b.events, ev)
	b.mu.Unlock()
}

func (b *Broadcaster) Events() []core.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]core.Event(nil), b.events...)
}

func (b *Broadcaster) Reset() {
	b.mu.Lock()
	b.events = nil
	b.mu.Unlock()
}

// Geocoder answers every lookup with Address and Err.
type Geocoder struct {
	Address string
	Err     error
}

func (g Geocoder) ReverseGeocode(context.Context, float64, float64) (string, error) {
	return g.Address, g.Err
}

// FreezeTime makes core.NowFunc return now until the test ends.
func FreezeTime(t *testing.T, now time.Time) {
	orig := core.NowFunc
	core.NowFunc = func() time.Time { return now }
	t.Cleanup(func() { core.NowFunc = orig })
}

func CreateAdmin(t *testing.T, repo user.Repository, orgName, name, email, pwd string) user.User {
	ctx := context.Background()
	org, err := repo.GetOrCreateOrganization(ctx, orgName)
	if err != nil {
		t.Fatalf("CreateAdmin() failed: %v", err)
	}
	usr := user.User{
		OrganizationID:   org.ID,
		OrganizationName: org.Name,
		Name:             name,
		Email:            email,
		LoginType:        user.LoginEmail,
		Role:             core.RoleAdmin,
		IsActive:         true,
		CreatedAt:        time.Now().UTC(),
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateAdmin() failed: %v", err)
		}
	}
	usr, err = repo.CreateUser(ctx, usr)
	if err != nil {
		t.Fatalf("CreateAdmin() failed: %v", err)
	}
	return usr
}

// CreateEmployee stores an active employee and returns it with its mobile login.
func CreateEmployee(
	t *testing.T,
	empRepo employee.Repository,
	usrRepo user.Repository,
	organizationID int,
	name, email, phone string,
) (employee.Employee, user.User) {
	ctx := context.Background()
	now := time.Now().UTC()
	emp, err := empRepo.CreateEmployee(ctx, employee.Employee{
		OrganizationID: organizationID,
		Name:           name,
		Email:          email,
		Phone:          phone,
		Role:           core.RoleEmployee,
		Status:         employee.StatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		t.Fatalf("CreateEmployee() failed: %v", err)
	}
	usr, err := usrRepo.GetUser(ctx, user.GetFilter{Phone: phone, OrganizationID: organizationID})
	if err != nil {
		t.Fatalf("CreateEmployee() failed: %v", err)
	}
	return emp, usr
}
