package inmemdb

import (
	"context"
	"sort"

	"github.com/attendix/attendix/core"
	"github.com/attendix/attendix/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) GetOrCreateOrganization(_ context.Context, name string) (user.Organization, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, org := range repo.db.organizations {
		if org.Name == name {
			return user.Organization{ID: org.ID, Name: org.Name}, nil
		}
	}
	org := &organization{ID: repo.db.nextPK(), Name: name}
	repo.db.organizations[org.ID] = org
	return user.Organization{ID: org.ID, Name: org.Name}, nil
}

// withOrg must be called with the lock held.
func (repo *userRepository) withOrg(usr user.User) user.User {
	if org, ok := repo.db.organizations[usr.OrganizationID]; ok {
		usr.OrganizationName = org.Name
	}
	return usr
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if usr.LoginType == user.LoginEmail {
		for _, u := range repo.db.users {
			if u.LoginType == user.LoginEmail && u.Email == usr.Email {
				return user.User{}, core.NewFieldError("email", user.ErrEmailExists)
			}
		}
	}
	usr.ID = repo.db.nextPK()
	usr = repo.withOrg(usr)
	repo.db.users[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) GetUser(_ context.Context, filter user.GetFilter) (user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if filter.ID == 0 && filter.Email == "" && filter.Phone == "" {
		return user.User{}, user.ErrNotFound
	}
	for _, id := range repo.ids() {
		u := repo.db.users[id]
		switch {
		case filter.ID != 0 && u.ID != filter.ID:
			continue
		case filter.ID == 0 && filter.Email != "" && (u.LoginType != user.LoginEmail || u.Email != filter.Email):
			continue
		case filter.ID == 0 && filter.Email == "" && (u.LoginType != user.LoginMobile || u.Phone != filter.Phone):
			continue
		case filter.OrganizationID != 0 && u.OrganizationID != filter.OrganizationID:
			continue
		}
		return repo.withOrg(*u), nil
	}
	return user.User{}, user.ErrNotFound
}

// ids returns the user ids in insertion order; must be called with the lock held.
func (repo *userRepository) ids() []int {
	ids := make([]int, 0, len(repo.db.users))
	for id := range repo.db.users {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (repo *userRepository) QueryMobileUsers(_ context.Context, phone string) ([]user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	users := make([]user.User, 0)
	for _, id := range repo.ids() {
		u := repo.db.users[id]
		if u.LoginType == user.LoginMobile && u.Phone == phone {
			users = append(users, repo.withOrg(*u))
		}
	}
	sort.SliceStable(users, func(i, j int) bool { return users[i].OrganizationName < users[j].OrganizationName })
	return users, nil
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.users[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	orig.Name = usr.Name
	orig.Email = usr.Email
	orig.Phone = usr.Phone
	orig.Role = usr.Role
	orig.IsActive = usr.IsActive
	orig.PasswordHash = usr.PasswordHash
	orig.LastLogin = usr.LastLogin
	return repo.withOrg(*orig), nil
}
