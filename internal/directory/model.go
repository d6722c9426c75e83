package directory

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hackgods/telemed-routing/internal/apperr"
)

// Role is the closed set of account roles known to the network.
type Role int

const (
	RolePatient Role = iota + 1
	RoleDoctor
	RoleCHW
	RoleAdmin
	RolePharmacist
)

func (r Role) String() string {
	switch r {
	case RolePatient:
		return "PATIENT"
	case RoleDoctor:
		return "DOCTOR"
	case RoleCHW:
		return "CHW"
	case RoleAdmin:
		return "ADMIN"
	case RolePharmacist:
		return "PHARMACIST"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// ParseRole maps a stored role name onto the enum. ASHA is accepted as an
// alias for CHW since older account rows use it.
func ParseRole(s string) (Role, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PATIENT":
		return RolePatient, nil
	case "DOCTOR":
		return RoleDoctor, nil
	case "CHW", "ASHA":
		return RoleCHW, nil
	case "ADMIN":
		return RoleAdmin, nil
	case "PHARMACIST":
		return RolePharmacist, nil
	default:
		return 0, fmt.Errorf("unknown role %q", s)
	}
}

type User struct {
	ID       uuid.UUID
	Role     Role
	FullName string
	Active   bool
}

// Patient is the slice of the registration record routing needs.
type Patient struct {
	ID       uuid.UUID
	Name     string
	Village  string
	Block    string
	District string
}

type DoctorStatus string

const (
	DoctorAvailable DoctorStatus = "AVAILABLE"
	DoctorBusy      DoctorStatus = "BUSY"
	DoctorOffline   DoctorStatus = "OFFLINE"
	DoctorOnLeave   DoctorStatus = "ON_LEAVE"
)

// ParseDoctorStatus accepts the stored status names case-insensitively.
func ParseDoctorStatus(s string) (DoctorStatus, error) {
	switch st := DoctorStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case DoctorAvailable, DoctorBusy, DoctorOffline, DoctorOnLeave:
		return st, nil
	default:
		return "", apperr.Validation("unknown doctor status %q", s)
	}
}

const (
	DefaultPriority              = 100
	DefaultMaxConcurrentPatients = 1
)

// Doctor is a read projection of a doctor profile. ID is the doctor's user id.
type Doctor struct {
	ID                    uuid.UUID
	Name                  string
	Hospital              string
	Block                 string
	District              string
	Active                bool
	Status                DoctorStatus
	Priority              *int
	MaxConcurrentPatients *int
	CoverageVillages      []string
}

// EffectivePriority returns the priority with the unset default applied.
// Lower values are preferred.
func (d Doctor) EffectivePriority() int {
	if d.Priority == nil {
		return DefaultPriority
	}
	return *d.Priority
}

// Capacity is the number of overlapping scheduled appointments the doctor may hold.
func (d Doctor) Capacity() int {
	if d.MaxConcurrentPatients == nil {
		return DefaultMaxConcurrentPatients
	}
	return *d.MaxConcurrentPatients
}

func (d Doctor) Assignable() bool {
	return d.Active && d.Status == DoctorAvailable
}

// Covers reports whether village is in the doctor's coverage list, ignoring case.
func (d Doctor) Covers(village string) bool {
	for _, v := range d.CoverageVillages {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(village)) {
			return true
		}
	}
	return false
}
