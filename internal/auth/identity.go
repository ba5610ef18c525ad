// Package auth carries the caller identity resolved by the gateway into
// the services. The services never read an ambient security context; every
// operation takes an explicit Identity.
package auth

const (
	RoleClient = "CLIENT"
	RoleAdmin  = "ADMIN"
)

// Identity describes one authenticated caller for the duration of one
// request. Token is the raw bearer token, kept so inter-service calls can
// propagate the caller's credentials unchanged.
type Identity struct {
	UserID   string
	Username string
	Roles    map[string]bool
	Token    string
}

func (id Identity) HasRole(role string) bool {
	return id.Roles[role]
}

func (id Identity) IsAdmin() bool {
	return id.HasRole(RoleAdmin)
}
