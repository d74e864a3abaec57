// Package identity implements the auth context: caller identity, namespace
// role grants, and the identity/member/credential/delegation registries
// that gate every storage and governance action. Roles are namespace-scoped
// rather than global, so a grant on "governance/treasury" does not imply
// anything about "governance" itself.
package identity

import (
	"encoding/hex"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/mr-tron/base58"

	"github.com/icn-covm/governance-vm/covmerr"
)

// Role is a named permission tier. "admin" implies every action on its
// namespace and descendants; "writer" implies read+write; "reader" implies
// read only. Arbitrary custom role names may also be granted and tested with
// HasRole; AuthContext.Can recognises only the three roles below.
type Role string

const (
	RoleReader Role = "reader"
	RoleWriter Role = "writer"
	RoleAdmin  Role = "admin"
)

// GlobalNamespace is the sentinel namespace whose admin role grants every
// action everywhere.
const GlobalNamespace = "global"

// PublicKey is a declared crypto-scheme-tagged public key with a base58
// display form.
type PublicKey struct {
	Scheme string
	Bytes  []byte
}

func (k PublicKey) String() string {
	if len(k.Bytes) == 0 {
		return ""
	}
	return base58.Encode(k.Bytes)
}

// PrivateKey wraps a secp256k1 scalar. Signing is a thin convenience for
// tests; the VM only ever calls through the opaque VerifyIdentity primitive.
type PrivateKey struct {
	key *secp256k1.PrivateKey
}

// GeneratePrivateKey draws a fresh secp256k1 keypair.
func GeneratePrivateKey() (PrivateKey, error) {
	k, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return PrivateKey{}, covmerr.Wrap(covmerr.KindInvalidSignature, "key generation failed", err)
	}
	return PrivateKey{key: k}, nil
}

func (p PrivateKey) PublicKey() PublicKey {
	pub := p.key.PubKey()
	return PublicKey{Scheme: "secp256k1", Bytes: pub.SerializeCompressed()}
}

// Sign produces a deterministic-looking opaque signature over message.
// Signature verification elsewhere in this module treats signatures
// opaquely; this exists only so tests can produce plausible (id, message,
// signature) triples without a full ECDSA round trip.
func (p PrivateKey) Sign(message []byte) string {
	sum := append([]byte(nil), message...)
	sum = append(sum, p.key.Serialize()...)
	return hex.EncodeToString(sum)
}

// Identity is a registered principal: an id, an optional public key, and a
// declared crypto scheme.
type Identity struct {
	ID           string
	PublicKey    *PublicKey
	IdentityType string
	Metadata     map[string]string
}

// Member supplements Identity with profile metadata: display name and
// join time.
type Member struct {
	IdentityID  string
	DisplayName string
	JoinedAt    int64
}

// Credential is a claim issued by one identity about another.
type Credential struct {
	ID           string
	Type         string
	IssuerID     string
	HolderID     string
	IssuedAt     int64
	ExpiresAt    *int64
	Signature    string
	Claims       map[string]string
}

func (c Credential) IsExpired(now int64) bool {
	return c.ExpiresAt != nil && now >= *c.ExpiresAt
}

// DelegationLink records that Delegator has delegated to Delegate. This is
// the identity registry's durable delegation record, distinct from the
// liquid_delegate opcode bookkeeping in package governance, which is purely
// lazy/in-memory for a single tally run.
type DelegationLink struct {
	ID         string
	DelegatorID string
	DelegateID  string
	Type        string
	CreatedAt   int64
	ExpiresAt   *int64
}

// IdentityRegistry stores registered identities by id.
type IdentityRegistry struct {
	identities map[string]Identity
}

func NewIdentityRegistry() *IdentityRegistry {
	return &IdentityRegistry{identities: make(map[string]Identity)}
}

func (r *IdentityRegistry) Register(id Identity) { r.identities[id.ID] = id }

func (r *IdentityRegistry) Get(id string) (Identity, bool) {
	v, ok := r.identities[id]
	return v, ok
}

// MemberRegistry stores member profiles by identity id.
type MemberRegistry struct {
	members map[string]Member
}

func NewMemberRegistry() *MemberRegistry { return &MemberRegistry{members: make(map[string]Member)} }

func (r *MemberRegistry) Register(m Member) { r.members[m.IdentityID] = m }

func (r *MemberRegistry) Get(id string) (Member, bool) {
	v, ok := r.members[id]
	return v, ok
}

// CredentialRegistry stores issued credentials by id.
type CredentialRegistry struct {
	credentials map[string]Credential
}

func NewCredentialRegistry() *CredentialRegistry {
	return &CredentialRegistry{credentials: make(map[string]Credential)}
}

func (r *CredentialRegistry) Register(c Credential) { r.credentials[c.ID] = c }

func (r *CredentialRegistry) Get(id string) (Credential, bool) {
	v, ok := r.credentials[id]
	return v, ok
}

// DelegationRegistry stores durable delegation links by id.
type DelegationRegistry struct {
	links map[string]DelegationLink
}

func NewDelegationRegistry() *DelegationRegistry {
	return &DelegationRegistry{links: make(map[string]DelegationLink)}
}

func (r *DelegationRegistry) Register(l DelegationLink) { r.links[l.ID] = l }

func (r *DelegationRegistry) Get(id string) (DelegationLink, bool) {
	v, ok := r.links[id]
	return v, ok
}
