package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icn-covm/governance-vm/identity"
)

func TestAuditLogFiltersByNamespaceAndType(t *testing.T) {
	s := New(nil, nil, nil)
	auth := adminAuth("alice")

	_, err := s.Set(auth, "governance", "a", []byte("1"))
	require.NoError(t, err)
	_, err = s.Set(auth, "other", "b", []byte("2"))
	require.NoError(t, err)
	require.NoError(t, s.Delete(auth, "governance", "a"))

	events, err := s.GetAuditLog(auth, "governance", "set", 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "a", events[0].Key)
}

func TestAuditLogTruncatesToLimit(t *testing.T) {
	s := New(nil, nil, nil)
	auth := adminAuth("alice")

	for i := 0; i < 5; i++ {
		_, err := s.Set(auth, "governance", "k", []byte("x"))
		require.NoError(t, err)
	}

	events, err := s.GetAuditLog(auth, "", "", 2)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestAuditLogRequiresAdminOrReader(t *testing.T) {
	s := New(nil, nil, nil)
	unrelated := identity.NewAuthContext("mallory")

	_, err := s.GetAuditLog(unrelated, "governance", "", 0)
	require.Error(t, err)
}
