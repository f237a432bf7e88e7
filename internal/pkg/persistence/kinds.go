package persistence

// Role of the user
type Role int

const (
	// RoleCustomer books translators
	RoleCustomer Role = iota + 1
	// RoleTranslator accepts bookings
	RoleTranslator
	// RoleAdmin manages bookings
	RoleAdmin
	// RoleSuperAdmin manages everything
	RoleSuperAdmin
)

// Gender of a user or a gender requested by booking
type Gender int

const (
	// GenderNone - not specified
	GenderNone Gender = iota
	// GenderMale value
	GenderMale
	// GenderFemale value
	GenderFemale
)

// Certified requested translator certification
type Certified int

const (
	// CertifiedNone - not specified
	CertifiedNone Certified = iota
	// CertifiedYes - certified
	CertifiedYes
	// CertifiedBoth - normal or certified
	CertifiedBoth
	// CertifiedLaw - certified in law
	CertifiedLaw
	// CertifiedNLaw - normal or certified in law
	CertifiedNLaw
	// CertifiedHealth - certified in health care
	CertifiedHealth
	// CertifiedNHealth - normal or certified in health care
	CertifiedNHealth
	// CertifiedNormal - layman
	CertifiedNormal
)

// JobType of booking
type JobType int

const (
	// JobTypeUnpaid - for volunteers
	JobTypeUnpaid JobType = iota + 1
	// JobTypePaid - for professionals
	JobTypePaid
	// JobTypeRWS - for rws translators
	JobTypeRWS
)

var (
	roleName = map[Role]string{RoleCustomer: "customer", RoleTranslator: "translator", RoleAdmin: "admin",
		RoleSuperAdmin: "superadmin"}
	genderName    = map[Gender]string{GenderNone: "", GenderMale: "male", GenderFemale: "female"}
	certifiedName = map[Certified]string{CertifiedNone: "", CertifiedYes: "yes", CertifiedBoth: "both",
		CertifiedLaw: "law", CertifiedNLaw: "n_law", CertifiedHealth: "health", CertifiedNHealth: "n_health",
		CertifiedNormal: "normal"}
	jobTypeName = map[JobType]string{JobTypeUnpaid: "unpaid", JobTypePaid: "paid", JobTypeRWS: "rws"}
)

func (r Role) String() string {
	return roleName[r]
}

func (g Gender) String() string {
	return genderName[g]
}

func (c Certified) String() string {
	return certifiedName[c]
}

func (j JobType) String() string {
	return jobTypeName[j]
}

// RoleFrom returns role from string
func RoleFrom(s string) Role {
	return from(roleName, s)
}

// GenderFrom returns gender from string
func GenderFrom(s string) Gender {
	return from(genderName, s)
}

// CertifiedFrom returns certified from string
func CertifiedFrom(s string) Certified {
	return from(certifiedName, s)
}

// JobTypeFrom returns job type from string
func JobTypeFrom(s string) JobType {
	return from(jobTypeName, s)
}

// Admin returns true for admin and superadmin
func (r Role) Admin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

func from[T comparable](m map[T]string, s string) T {
	for k, v := range m {
		if v == s {
			return k
		}
	}
	var res T
	return res
}

// MarshalText writes gender name to json
func (g Gender) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

// MarshalText writes certification name to json
func (c Certified) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// MarshalText writes job type name to json
func (j JobType) MarshalText() ([]byte, error) {
	return []byte(j.String()), nil
}

// UnmarshalText reads gender name
func (g *Gender) UnmarshalText(b []byte) error {
	*g = GenderFrom(string(b))
	return nil
}

// UnmarshalText reads certification name
func (c *Certified) UnmarshalText(b []byte) error {
	*c = CertifiedFrom(string(b))
	return nil
}

// UnmarshalText reads job type name
func (j *JobType) UnmarshalText(b []byte) error {
	*j = JobTypeFrom(string(b))
	return nil
}
