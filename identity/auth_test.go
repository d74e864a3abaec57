package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasRoleAppliesToDescendants(t *testing.T) {
	a := NewAuthContext("alice")
	a.Grant("governance", RoleWriter)

	assert.True(t, a.HasRole("governance", RoleWriter))
	assert.True(t, a.HasRole("governance/proposals", RoleWriter))
	assert.False(t, a.HasRole("other", RoleWriter))
}

func TestGlobalAdminAllowsEverything(t *testing.T) {
	a := NewAuthContext("root")
	a.Grant(GlobalNamespace, RoleAdmin)

	assert.True(t, a.Can("anything/deep/nested", ActionWrite))
	assert.True(t, a.Can("anything", ActionNamespaceAdmin))
}

func TestReaderCannotWrite(t *testing.T) {
	a := NewAuthContext("bob")
	a.Grant("governance/proposals", RoleReader)

	assert.True(t, a.Can("governance/proposals", ActionRead))
	assert.False(t, a.Can("governance/proposals", ActionWrite))
}

func TestAdminOnNamespaceAllowsWrite(t *testing.T) {
	a := NewAuthContext("carol")
	a.Grant("governance", RoleAdmin)

	assert.True(t, a.Can("governance/proposals/42", ActionWrite))
}

func TestVerifyIdentityMockMode(t *testing.T) {
	a := NewAuthContext("dave")
	a.Identities.Register(Identity{ID: "dave", IdentityType: "member"})

	assert.True(t, a.VerifyIdentity("dave", "msg", "sig", true))
	assert.False(t, a.VerifyIdentity("unknown", "msg", "sig", true))
}

func TestCheckMembershipCooperativeNamespace(t *testing.T) {
	a := NewAuthContext("erin")
	a.Members.Register(Member{IdentityID: "erin", DisplayName: "Erin"})

	assert.True(t, a.CheckMembership("erin", "cooperative"))
	assert.False(t, a.CheckMembership("unknown", "cooperative"))
}
