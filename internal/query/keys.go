package query

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Key is an ordered, hierarchical sequence of tokens addressing one cached
// result set, e.g. {"users", "list", filters}. Equality is value-based:
// two keys built from structurally equal tokens address the same cache slot
// no matter how the filter maps were assembled. A key is also addressable by
// any of its prefixes, which is what bulk invalidation relies on.
type Key []any

// Canonical renders the key as a stable string. Each token is serialized to
// JSON (which sorts map keys), so structurally equal tokens always produce
// the same form regardless of insertion order.
func (k Key) Canonical() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, token := range k {
		if i > 0 {
			b.WriteByte(',')
		}
		encoded, err := json.Marshal(token)
		if err != nil {
			// A non-serializable token cannot address a cache slot reliably;
			// fall back to its string form rather than failing the read path.
			encoded = []byte(fmt.Sprintf("%q", fmt.Sprint(token)))
		}
		b.Write(encoded)
	}
	b.WriteByte(']')
	return b.String()
}

// HasPrefix reports whether prefix is a leading subsequence of k, compared
// token by token on canonical forms.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	return k[:len(prefix)].Canonical() == prefix.Canonical()
}

// Family produces the query keys for one entity family. All families expose
// the same All/List/Detail hierarchy so invalidating Family.All() covers
// every list and detail entry beneath it.
type Family struct {
	name string
}

func NewFamily(name string) Family {
	return Family{name: name}
}

// All addresses the whole family, for prefix invalidation.
func (f Family) All() Key {
	return Key{f.name}
}

// List addresses one filtered listing. A nil filter is the unfiltered list.
func (f Family) List(filters any) Key {
	if filters == nil {
		return Key{f.name, "list"}
	}
	return Key{f.name, "list", filters}
}

// Detail addresses one entity by id.
func (f Family) Detail(id string) Key {
	return Key{f.name, "detail", id}
}

// Sub addresses a domain-specific sub-key beneath the family.
func (f Family) Sub(parts ...any) Key {
	key := Key{f.name}
	return append(key, parts...)
}

// The key registry. Every cached entity family in the application is
// declared here so components and the prefetch scheduler agree on slots.
var (
	Users                = NewFamily("users")
	Colleges             = NewFamily("colleges")
	Departments          = NewFamily("departments")
	Courses              = NewFamily("courses")
	Sections             = NewFamily("sections")
	AcademicYears        = NewFamily("academicYears")
	Invitations          = NewFamily("invitations")
	RegistrationRequests = NewFamily("registrationRequests")
	Resources            = NewFamily("learningResources")
	Catalog              = NewFamily("resourceCatalog")
	Assignments          = NewFamily("assignments")
	Examinations         = NewFamily("examinations")
	Dashboard            = NewFamily("dashboard")
	Locations            = NewFamily("locations")
)

// Domain-specific sub-keys.

func ResourcesByDepartment(departmentID string) Key {
	return Resources.Sub("byDepartment", departmentID)
}

func ResourcesByStudent(studentID string) Key {
	return Resources.Sub("byStudent", studentID)
}

func DepartmentsByCollege(collegeID string) Key {
	return Departments.Sub("byCollege", collegeID)
}

func DashboardForRole(role string) Key {
	return Dashboard.Sub(role)
}

func AdminStatsKey() Key {
	return Dashboard.Sub("admin", "stats")
}

func CollegeRankingKey() Key {
	return Dashboard.Sub("collegeRanking")
}

func StatesKey() Key {
	return Locations.Sub("states")
}

func DistrictsKey(stateID string) Key {
	return Locations.Sub("districts", stateID)
}
