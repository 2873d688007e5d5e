package middleware

import (
	"fmt"
	"net/http"

	"go-storefront/utils"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/rs/zerolog"
)

// Capability is what a route requires of its caller
type Capability string

// Route capabilities
const (
	Public        Capability = "public"
	Authenticated Capability = "authenticated"
	Admin         Capability = "admin"
)

// Caller roles
const (
	RoleAnonymous = "anonymous"
	RoleCustomer  = "customer"
	RoleAdmin     = "admin"
)

const capabilityModel = `
[request_definition]
r = sub, obj

[policy_definition]
p = sub, obj

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj
`

// Guard decides whether a caller's role holds a route's capability. Admins
// inherit everything customers hold and customers inherit anonymous access.
type Guard struct {
	enforcer *casbin.Enforcer
}

// NewGuard builds a Guard with the storefront's role hierarchy
func NewGuard() (*Guard, error) {
	m, err := model.NewModelFromString(capabilityModel)
	if err != nil {
		return nil, fmt.Errorf("capability model: %w", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("capability enforcer: %w", err)
	}

	policies := [][]string{
		{RoleAnonymous, string(Public)},
		{RoleCustomer, string(Authenticated)},
		{RoleAdmin, string(Admin)},
	}
	for _, p := range policies {
		if _, err := e.AddPolicy(p[0], p[1]); err != nil {
			return nil, fmt.Errorf("capability policy %v: %w", p, err)
		}
	}
	for _, g := range [][]string{{RoleCustomer, RoleAnonymous}, {RoleAdmin, RoleCustomer}} {
		if _, err := e.AddGroupingPolicy(g[0], g[1]); err != nil {
			return nil, fmt.Errorf("capability role %v: %w", g, err)
		}
	}
	return &Guard{enforcer: e}, nil
}

// RoleOf returns the role of the caller identified by id; nil is anonymous.
func RoleOf(id *Identity) string {
	switch {
	case id == nil:
		return RoleAnonymous
	case id.IsAdmin:
		return RoleAdmin
	default:
		return RoleCustomer
	}
}

// Allowed reports whether role holds capability c
func (g *Guard) Allowed(role string, c Capability) (bool, error) {
	return g.enforcer.Enforce(role, string(c))
}

// Require wraps next so that it only runs for callers holding c. A refused
// anonymous caller gets 401, a refused signed-in caller gets 403.
func (g *Guard) Require(c Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, _ := IdentityFrom(r.Context())
			role := RoleOf(id)

			ok, err := g.Allowed(role, c)
			if err != nil {
				utils.WriteError(w, r, err)
				return
			}
			if ok {
				next.ServeHTTP(w, r)
				return
			}

			zerolog.Ctx(r.Context()).Debug().Str("role", role).Str("requires", string(c)).Msg("access denied")
			if role != RoleAnonymous {
				utils.WriteMessage(w, http.StatusForbidden, "Invalid Admin Token")
				return
			}
			if tokenErr := tokenErrorFrom(r.Context()); tokenErr != nil {
				utils.WriteError(w, r, tokenErr)
				return
			}
			utils.WriteMessage(w, http.StatusUnauthorized, "No Token")
		})
	}
}
