package domain

import "errors"

// Role is a staff role in the lounge.
type Role string

const (
	RoleStaff      Role = "STAFF"
	RoleRunner     Role = "RUNNER"
	RoleSupervisor Role = "SUPERVISOR"
	RoleManager    Role = "MANAGER"
	RoleOwner      Role = "OWNER"
)

// TrustLevel ranks what a role may do. Levels are ordered, so a higher level
// holds every capability of the lower ones.
type TrustLevel int

const (
	TrustNone TrustLevel = iota
	TrustBasic
	TrustVerified
	TrustAdmin
)

func (t TrustLevel) String() string {
	switch t {
	case TrustBasic:
		return "BASIC"
	case TrustVerified:
		return "VERIFIED"
	case TrustAdmin:
		return "ADMIN"
	default:
		return "NONE"
	}
}

func (t TrustLevel) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TrustLevel) UnmarshalText(b []byte) error {
	lvl, err := ParseTrustLevel(string(b))
	if err != nil {
		return err
	}
	*t = lvl
	return nil
}

// ParseTrustLevel converts the textual form back to a level.
func ParseTrustLevel(s string) (TrustLevel, error) {
	switch s {
	case "NONE":
		return TrustNone, nil
	case "BASIC":
		return TrustBasic, nil
	case "VERIFIED":
		return TrustVerified, nil
	case "ADMIN":
		return TrustAdmin, nil
	}
	return TrustNone, errors.New("unknown trust level: " + s)
}

// TrustLevel returns the level assigned to the role. Unknown roles get
// TrustNone, which satisfies no requirement.
func (r Role) TrustLevel() TrustLevel {
	switch r {
	case RoleStaff, RoleRunner:
		return TrustBasic
	case RoleSupervisor, RoleManager:
		return TrustVerified
	case RoleOwner:
		return TrustAdmin
	default:
		return TrustNone
	}
}

func (r Role) Valid() bool {
	return r.TrustLevel() != TrustNone
}

// User is a staff member acting on sessions.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// NewUser creates a user with a known role.
func NewUser(id, name string, role Role) (User, error) {
	if id == "" {
		return User{}, errors.New("user id is required")
	}
	if name == "" {
		return User{}, errors.New("user name is required")
	}
	if !role.Valid() {
		return User{}, errors.New("unknown role: " + string(role))
	}
	return User{ID: id, Name: name, Role: role}, nil
}

// TrustLevel is derived from the role.
func (u User) TrustLevel() TrustLevel {
	return u.Role.TrustLevel()
}

// DisplayInfo is the read-only projection used to label a user.
type DisplayInfo struct {
	Name       string     `json:"name"`
	Role       Role       `json:"role"`
	TrustLevel TrustLevel `json:"trust_level"`
}

func (u User) DisplayInfo() DisplayInfo {
	return DisplayInfo{Name: u.Name, Role: u.Role, TrustLevel: u.TrustLevel()}
}
