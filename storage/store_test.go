package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icn-covm/governance-vm/identity"
)

func adminAuth(id string) *identity.AuthContext {
	a := identity.NewAuthContext(id)
	a.Grant(identity.GlobalNamespace, identity.RoleAdmin)
	return a
}

func TestSetGetRoundTrip(t *testing.T) {
	s := New(nil, nil, nil)
	auth := adminAuth("alice")

	v, err := s.Set(auth, "governance", "counter", []byte("1"))
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	got, err := s.Get(auth, "governance", "counter")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), got)
}

func TestSetCreatesNewVersionEachWrite(t *testing.T) {
	s := New(nil, nil, nil)
	auth := adminAuth("alice")

	_, err := s.Set(auth, "governance", "counter", []byte("1"))
	require.NoError(t, err)
	v2, err := s.Set(auth, "governance", "counter", []byte("2"))
	require.NoError(t, err)
	assert.Equal(t, 2, v2)

	versions, err := s.ListVersions(auth, "governance", "counter")
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, 1, versions[1].PrevVersion)
}

func TestSetVersionedConflict(t *testing.T) {
	s := New(nil, nil, nil)
	auth := adminAuth("alice")

	_, err := s.Set(auth, "governance", "counter", []byte("1"))
	require.NoError(t, err)

	wrong := 0
	_, err = s.SetVersioned(auth, "governance", "counter", []byte("2"), &wrong)
	require.Error(t, err)
}

func TestDeleteIsGravestone(t *testing.T) {
	s := New(nil, nil, nil)
	auth := adminAuth("alice")

	_, err := s.Set(auth, "governance", "counter", []byte("1"))
	require.NoError(t, err)
	require.NoError(t, s.Delete(auth, "governance", "counter"))

	ok, err := s.Contains(auth, "governance", "counter")
	require.NoError(t, err)
	assert.False(t, ok)

	versions, err := s.ListVersions(auth, "governance", "counter")
	require.NoError(t, err)
	assert.Len(t, versions, 1)
}

func TestReaderCannotWrite(t *testing.T) {
	s := New(nil, nil, nil)
	auth := identity.NewAuthContext("bob")
	auth.Grant("governance", identity.RoleReader)

	_, err := s.Set(auth, "governance", "counter", []byte("1"))
	require.Error(t, err)
}

func TestWriterCanWriteButNotAdminNamespace(t *testing.T) {
	s := New(nil, nil, nil)
	auth := identity.NewAuthContext("carol")
	auth.Grant("governance", identity.RoleWriter)

	_, err := s.Set(auth, "governance", "counter", []byte("1"))
	require.NoError(t, err)

	err = s.CreateNamespace(auth, "governance/sub", 0, "governance")
	require.Error(t, err)
}

func TestGetTypedRoundTrip(t *testing.T) {
	s := New(nil, nil, nil)
	auth := adminAuth("alice")

	_, err := s.SetTyped(auth, "governance", "flag", []byte("true"), "boolean")
	require.NoError(t, err)

	data, typ, err := s.GetTyped(auth, "governance", "flag")
	require.NoError(t, err)
	assert.Equal(t, "boolean", typ)
	assert.Equal(t, []byte("true"), data)
}
