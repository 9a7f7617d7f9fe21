package member

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/crypto/bcrypt"

	"github.com/enactus/membership/core"
)

// Access roles
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Account statuses
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

const noName = "No Name"

var (
	AllRoles    = []string{RoleAdmin, RoleMember}
	AllStatuses = []string{StatusPending, StatusApproved, StatusRejected}
)

type User struct {
	ID                  string     `bson:"_id,omitempty" json:"id"`
	Email               string     `bson:"email" json:"email"`
	DisplayName         string     `bson:"displayName" json:"displayName"`
	PasswordHash        []byte     `bson:"passwordHash,omitempty" json:"-"`
	Role                string     `bson:"role" json:"role"`
	AccountStatus       string     `bson:"accountStatus" json:"accountStatus"`
	BureauRole          string     `bson:"bureauRole" json:"bureauRole"`
	BureauRoleUpdatedAt *time.Time `bson:"bureauRoleUpdatedAt,omitempty" json:"bureauRoleUpdatedAt,omitempty"`
	Bio                 string     `bson:"bio,omitempty" json:"bio,omitempty"`
	PhotoURL            string     `bson:"photoURL,omitempty" json:"photoURL,omitempty"`
	Position            string     `bson:"position,omitempty" json:"position,omitempty"`
	Phone               string     `bson:"phone,omitempty" json:"phone,omitempty"`
	CreatedAt           time.Time  `bson:"createdAt" json:"createdAt"` // UTC
	UpdatedAt           time.Time  `bson:"updatedAt" json:"updatedAt"` // UTC
	ApprovedAt          *time.Time `bson:"approvedAt,omitempty" json:"approvedAt,omitempty"`
	RejectedAt          *time.Time `bson:"rejectedAt,omitempty" json:"rejectedAt,omitempty"`
	LastLogin           *time.Time `bson:"lastLogin,omitempty" json:"lastLogin,omitempty"`
}

// UnmarshalBSON migrates documents written by older versions of the app:
// no accountStatus means the account predates the approval flow, no bureauRole means Basic Member.
func (u *User) UnmarshalBSON(data []byte) error {
	type rawUser User
	var raw rawUser
	if err := bson.Unmarshal(data, &raw); err != nil {
		return err
	}
	*u = User(raw)
	if u.AccountStatus == "" {
		u.AccountStatus = StatusApproved
	}
	if u.Role == "" {
		u.Role = RoleMember
	}
	if u.BureauRole == "" {
		u.BureauRole = DefaultBureauRole
	}
	return nil
}

// Name is the display name shown on rosters and emails.
func (u User) Name() string {
	if name := core.CleanString(u.DisplayName); name != "" {
		return name
	}
	return noName
}

// NameOrEmail is used to sign records marked by an admin.
func (u User) NameOrEmail() string {
	if name := core.CleanString(u.DisplayName); name != "" {
		return name
	}
	return u.Email
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

func (u *User) IsAdmin() bool    { return u.Role == RoleAdmin }
func (u *User) IsApproved() bool { return u.AccountStatus == StatusApproved }

// ProfileCompletion is the percentage of filled profile fields.
func (u *User) ProfileCompletion() int {
	fields := []string{u.DisplayName, u.Email, u.Bio, u.PhotoURL, u.Position, u.Phone}
	var filled int
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			filled++
		}
	}
	return filled * 100 / len(fields)
}

// Profile is the public directory entry of a member, kept in the members collection.
type Profile struct {
	UserID    string    `bson:"_id" json:"userId"`
	Name      string    `bson:"name" json:"name"`
	Email     string    `bson:"email" json:"email"`
	PhotoURL  string    `bson:"photoURL,omitempty" json:"photoURL,omitempty"`
	Position  string    `bson:"position,omitempty" json:"position,omitempty"`
	Role      string    `bson:"role" json:"role"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// NewUser contains information needed to register a new User.
type NewUser struct {
	DisplayName     string `json:"displayName" validate:"required,max=100"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

func (nu *NewUser) Validate(validate *validator.Validate, svc *Service) error {
	nu.DisplayName = core.CleanString(nu.DisplayName)
	nu.Email = core.CleanString(nu.Email, true /* lower */)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(nu.Email)
}

// UpdateProfile defines the profile fields a member may change on their own account.
type UpdateProfile struct {
	DisplayName string `json:"displayName" validate:"required,max=100"`
	Bio         string `json:"bio" validate:"max=500"`
	PhotoURL    string `json:"photoURL" validate:"omitempty,url"`
	Position    string `json:"position" validate:"max=100"`
	Phone       string `json:"phone" validate:"max=30"`
}

func (up *UpdateProfile) Validate(validate *validator.Validate) error {
	up.DisplayName = core.CleanString(up.DisplayName)
	up.Bio = core.CleanString(up.Bio)
	up.PhotoURL = core.CleanString(up.PhotoURL)
	up.Position = core.CleanString(up.Position)
	up.Phone = core.CleanString(up.Phone)
	return validate.Struct(up)
}

type SetRole struct {
	Role string `json:"role" validate:"required,oneof=admin member"`
}

func (sr SetRole) Validate(validate *validator.Validate) error { return validate.Struct(sr) }

type SetBureauRole struct {
	BureauRole string `json:"bureauRole" validate:"required,bureaurole"`
}

func (sb SetBureauRole) Validate(validate *validator.Validate) error { return validate.Struct(sb) }

type QueryFilter struct {
	Status string `query:"status"`
	Role   string `query:"role"`
}

func (qf *QueryFilter) IsEmpty() bool { return qf.Status == "" && qf.Role == "" }

func (qf *QueryFilter) Clean() {
	qf.Status = core.CleanString(qf.Status, true /* lower */)
	qf.Role = core.CleanString(qf.Role, true /* lower */)
}
