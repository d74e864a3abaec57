package identity

import "strings"

// Action is the kind of operation an RBAC check is gating.
type Action string

const (
	ActionRead          Action = "read"
	ActionWrite         Action = "write"
	ActionNamespaceAdmin Action = "namespace_admin"
	ActionAuditRead     Action = "audit_read"
)

// AuthContext bundles a caller's identity with its namespace role grants and
// the registries needed to resolve identity/member/credential/delegation
// lookups.
type AuthContext struct {
	CallerID string
	// RoleMap maps a namespace path to the set of roles granted there. A
	// role granted on namespace N applies to N and every descendant N/sub...
	RoleMap map[string]map[Role]bool

	Identities  *IdentityRegistry
	Members     *MemberRegistry
	Credentials *CredentialRegistry
	Delegations *DelegationRegistry
}

// NewAuthContext builds an AuthContext with fresh empty registries.
func NewAuthContext(callerID string) *AuthContext {
	return &AuthContext{
		CallerID:    callerID,
		RoleMap:     make(map[string]map[Role]bool),
		Identities:  NewIdentityRegistry(),
		Members:     NewMemberRegistry(),
		Credentials: NewCredentialRegistry(),
		Delegations: NewDelegationRegistry(),
	}
}

// Grant records that the caller this context represents holds role on ns.
func (a *AuthContext) Grant(ns string, role Role) {
	if a.RoleMap[ns] == nil {
		a.RoleMap[ns] = make(map[Role]bool)
	}
	a.RoleMap[ns][role] = true
}

// HasRole reports whether ns (or any ancestor of ns) carries role for this
// caller: a role granted on namespace N applies to N and every descendant.
func (a *AuthContext) HasRole(ns string, role Role) bool {
	for _, n := range ancestorsAndSelf(ns) {
		if a.RoleMap[n][role] {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the caller holds "admin" on ns or any ancestor,
// or "admin" on the global namespace.
func (a *AuthContext) IsAdmin(ns string) bool {
	if a.RoleMap[GlobalNamespace][RoleAdmin] {
		return true
	}
	return a.HasRole(ns, RoleAdmin)
}

// Can implements the RBAC algorithm:
//  1. global:admin always allows.
//  2. walking N's ancestors, any admin grant allows; any role whose
//     permission set covers the action allows.
//  3. otherwise deny.
func (a *AuthContext) Can(ns string, action Action) bool {
	if a.RoleMap[GlobalNamespace][RoleAdmin] {
		return true
	}
	for _, n := range ancestorsAndSelf(ns) {
		roles := a.RoleMap[n]
		if roles[RoleAdmin] {
			return true
		}
		switch action {
		case ActionRead:
			if roles[RoleReader] || roles[RoleWriter] {
				return true
			}
		case ActionWrite:
			if roles[RoleWriter] {
				return true
			}
		case ActionNamespaceAdmin:
			// only admin satisfies this, already checked above.
		case ActionAuditRead:
			if roles[RoleReader] {
				return true
			}
		}
	}
	return false
}

// ancestorsAndSelf returns [ns, parent(ns), ..., root] for a '/'-delimited
// namespace path.
func ancestorsAndSelf(ns string) []string {
	if ns == "" {
		return []string{""}
	}
	parts := strings.Split(ns, "/")
	out := make([]string, 0, len(parts))
	for i := len(parts); i > 0; i-- {
		out = append(out, strings.Join(parts[:i], "/"))
	}
	return out
}

// VerifyIdentity is the opaque signature-verification primitive: it looks
// up the identity and, outside mock mode, passes its public key to
// verifySignature. The key's Scheme is not consulted. MockMode trusts
// registry presence instead (returns true iff the identity exists), for
// tests that don't want to produce real signatures.
func (a *AuthContext) VerifyIdentity(id, message, signature string, mockMode bool) bool {
	ident, ok := a.Identities.Get(id)
	if !ok {
		return false
	}
	if mockMode {
		return true
	}
	if ident.PublicKey == nil {
		return false
	}
	return verifySignature(*ident.PublicKey, message, signature)
}

// verifySignature is the opaque crypto boundary. It returns true whenever
// the signature and the public key bytes are both non-empty; it performs
// no cryptographic check, does not dispatch on Scheme, and does not look at
// message.
func verifySignature(pub PublicKey, message, signature string) bool {
	return len(signature) > 0 && len(pub.Bytes) > 0
}

// CheckMembership reports whether id has a registered member profile scoped
// to ns. Namespaces "cooperative" and "member" are treated specially: any
// registered member satisfies those two namespaces.
func (a *AuthContext) CheckMembership(id, ns string) bool {
	_, ok := a.Members.Get(id)
	if !ok {
		return false
	}
	if ns == "cooperative" || ns == "member" {
		return true
	}
	return a.HasRole(ns, RoleReader) || a.HasRole(ns, RoleWriter) || a.HasRole(ns, RoleAdmin)
}

// CheckDelegation reports whether a durable delegation link from delegator
// to delegate is currently registered (used by the check_delegation opcode,
// distinct from the liquid_delegate opcode's in-memory chain in governance).
func (a *AuthContext) CheckDelegation(delegator, delegate string) bool {
	for _, l := range a.Delegations.links {
		if l.DelegatorID == delegator && l.DelegateID == delegate {
			return true
		}
	}
	return false
}
