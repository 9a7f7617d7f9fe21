package member

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/enactus/membership/core"
)

var (
	// errors
	ErrNotFound           = core.ErrNotFound
	ErrEmailExists        = errors.New("a user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountPending     = errors.New("Your account is pending approval. Please wait for an admin to approve your account.")
	ErrAccountRejected    = errors.New("Your account has been rejected. Please contact an administrator.")
)

type (
	Repository interface {
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		// FilterUsers applies AND operation on the set QueryFilter fields; an empty filter returns all users.
		FilterUsers(ctx context.Context, filter QueryFilter) ([]User, error)
		CountUsers(ctx context.Context, filter QueryFilter) (int64, error)
		UpdateUser(ctx context.Context, id string, fields core.Fields) (User, error)
		SaveProfile(ctx context.Context, prof Profile) error
		QueryProfiles(ctx context.Context) ([]Profile, error)
	}

	Service struct {
		repo Repository
		now  func() time.Time
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: now}
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func (svc *Service) CheckUniqueness(email string, exclUsers ...User) error {
	usr, err := svc.repo.GetUserByEmail(context.Background(), email)
	switch {
	case errors.Cause(err) == ErrNotFound:
		return nil
	case err != nil:
		return errors.Wrap(err, "finding user by email")
	}
	for _, excl := range exclUsers {
		if excl.ID == usr.ID {
			return nil
		}
	}
	return core.NewValidationError(ErrEmailExists, core.FieldError{Field: "email", Error: ErrEmailExists.Error()})
}

// Register creates a pending member account; it cannot log in until an admin approves it.
func (svc *Service) Register(ctx context.Context, nu NewUser) (User, error) {
	return svc.Create(ctx, nu, RoleMember, StatusPending)
}

func (svc *Service) Create(ctx context.Context, nu NewUser, role, status string) (User, error) {
	tstamp := svc.now()
	usr := User{
		Email:         core.CleanString(nu.Email, true /* lower */),
		DisplayName:   core.CleanString(nu.DisplayName),
		Role:          role,
		AccountStatus: status,
		BureauRole:    DefaultBureauRole,
		CreatedAt:     tstamp,
		UpdatedAt:     tstamp,
	}
	if status == StatusApproved {
		usr.ApprovedAt = &tstamp
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	return svc.repo.CreateUser(ctx, usr)
}

// Authenticate checks the credentials and gates the login by account status.
func (svc *Service) Authenticate(ctx context.Context, email, pwd string) (User, error) {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return User{}, ErrInvalidCredentials
		}
		return User{}, errors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return User{}, ErrInvalidCredentials
	}
	switch usr.AccountStatus {
	case StatusPending:
		return User{}, ErrAccountPending
	case StatusRejected:
		return User{}, ErrAccountRejected
	}

	tstamp := svc.now()
	usr, err = svc.repo.UpdateUser(ctx, usr.ID, core.Fields{"lastLogin": tstamp})
	return usr, errors.Wrap(err, "setting lastLogin")
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter) ([]User, error) {
	filter.Clean()
	return svc.repo.FilterUsers(ctx, filter)
}

func (svc *Service) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	filter.Clean()
	return svc.repo.CountUsers(ctx, filter)
}

// ListByStatus backs the approval panel; an empty status lists every user.
func (svc *Service) ListByStatus(ctx context.Context, status string) ([]User, error) {
	return svc.Filter(ctx, QueryFilter{Status: status})
}

// ListApproved returns the approved members ordered by bureau hierarchy.
func (svc *Service) ListApproved(ctx context.Context) ([]User, error) {
	users, err := svc.repo.FilterUsers(ctx, QueryFilter{Status: StatusApproved})
	if err != nil {
		return nil, err
	}
	SortByBureauRole(users)
	return users, nil
}

func (svc *Service) Approve(ctx context.Context, id string) (User, error) {
	return svc.repo.UpdateUser(ctx, id, core.Fields{
		"accountStatus": StatusApproved,
		"approvedAt":    svc.now(),
		"updatedAt":     svc.now(),
	})
}

func (svc *Service) Reject(ctx context.Context, id string) (User, error) {
	return svc.repo.UpdateUser(ctx, id, core.Fields{
		"accountStatus": StatusRejected,
		"rejectedAt":    svc.now(),
		"updatedAt":     svc.now(),
	})
}

func (svc *Service) SetRole(ctx context.Context, id, role string) (User, error) {
	return svc.repo.UpdateUser(ctx, id, core.Fields{"role": role, "updatedAt": svc.now()})
}

func (svc *Service) SetBureauRole(ctx context.Context, id, bureauRole string) (User, error) {
	if !IsBureauRole(bureauRole) {
		return User{}, core.NewValidationError(nil, core.FieldError{Field: "bureauRole", Error: bureauRoleText})
	}
	tstamp := svc.now()
	return svc.repo.UpdateUser(ctx, id, core.Fields{
		"bureauRole":          bureauRole,
		"bureauRoleUpdatedAt": tstamp,
		"updatedAt":           tstamp,
	})
}

func (svc *Service) SetPassword(ctx context.Context, id, pwd string) error {
	var usr User
	if err := usr.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	_, err := svc.repo.UpdateUser(ctx, id, core.Fields{"passwordHash": usr.PasswordHash, "updatedAt": svc.now()})
	return err
}

// UpdateProfile saves the user's profile fields and mirrors them to the members directory.
func (svc *Service) UpdateProfile(ctx context.Context, id string, up UpdateProfile) (User, error) {
	tstamp := svc.now()
	usr, err := svc.repo.UpdateUser(ctx, id, core.Fields{
		"displayName": up.DisplayName,
		"bio":         up.Bio,
		"photoURL":    up.PhotoURL,
		"position":    up.Position,
		"phone":       up.Phone,
		"updatedAt":   tstamp,
	})
	if err != nil {
		return User{}, errors.Wrap(err, "updating user")
	}

	prof := Profile{
		UserID:    usr.ID,
		Name:      usr.Name(),
		Email:     usr.Email,
		PhotoURL:  usr.PhotoURL,
		Position:  usr.Position,
		Role:      usr.Role,
		UpdatedAt: tstamp,
	}
	if err = svc.repo.SaveProfile(ctx, prof); err != nil {
		return User{}, errors.Wrap(err, "saving member profile")
	}
	return usr, nil
}

func (svc *Service) Directory(ctx context.Context) ([]Profile, error) {
	return svc.repo.QueryProfiles(ctx)
}
