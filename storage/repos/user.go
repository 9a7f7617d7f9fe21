package docrepos

import (
	"context"

	"github.com/enactus/membership/core"
	"github.com/enactus/membership/core/member"
)

type userRepository struct {
	store core.DocStore
}

var _ member.Repository = (*userRepository)(nil)

func NewUserRepository(store core.DocStore) member.Repository {
	return &userRepository{store: store}
}

func (repo *userRepository) CreateUser(ctx context.Context, usr member.User) (member.User, error) {
	id, err := repo.store.Insert(ctx, core.CollUsers, usr)
	if err != nil {
		return member.User{}, err
	}
	usr.ID = id
	return usr, nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (member.User, error) {
	var usr member.User
	if err := repo.store.Get(ctx, core.CollUsers, id, &usr); err != nil {
		return member.User{}, err
	}
	return usr, nil
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (member.User, error) {
	var users []member.User
	if err := repo.store.GetFiltered(ctx, core.CollUsers, core.Filter{"email": email}, &users); err != nil {
		return member.User{}, err
	}
	if len(users) == 0 {
		return member.User{}, core.ErrNotFound
	}
	return users[0], nil
}

// FilterUsers filters after decoding, so legacy documents match on their migrated status and role.
func (repo *userRepository) FilterUsers(ctx context.Context, filter member.QueryFilter) ([]member.User, error) {
	var users []member.User
	if err := repo.store.GetOrdered(ctx, core.CollUsers, core.DBOrdering{Field: "createdAt", Ascending: true}, &users); err != nil {
		return nil, err
	}
	if filter.IsEmpty() {
		return users, nil
	}
	matched := make([]member.User, 0, len(users))
	for _, usr := range users {
		if filter.Status != "" && usr.AccountStatus != filter.Status {
			continue
		}
		if filter.Role != "" && usr.Role != filter.Role {
			continue
		}
		matched = append(matched, usr)
	}
	return matched, nil
}

func (repo *userRepository) CountUsers(ctx context.Context, filter member.QueryFilter) (int64, error) {
	if filter.IsEmpty() {
		return repo.store.Count(ctx, core.CollUsers, nil)
	}
	users, err := repo.FilterUsers(ctx, filter)
	return int64(len(users)), err
}

func (repo *userRepository) UpdateUser(ctx context.Context, id string, fields core.Fields) (member.User, error) {
	if err := repo.store.Update(ctx, core.CollUsers, id, fields); err != nil {
		return member.User{}, err
	}
	return repo.GetUserByID(ctx, id)
}

func (repo *userRepository) SaveProfile(ctx context.Context, prof member.Profile) error {
	return repo.store.Upsert(ctx, core.CollMembers, prof.UserID, prof)
}

func (repo *userRepository) QueryProfiles(ctx context.Context) ([]member.Profile, error) {
	var profiles []member.Profile
	if err := repo.store.GetOrdered(ctx, core.CollMembers, core.DBOrdering{Field: "name", Ascending: true}, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}
