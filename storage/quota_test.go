package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQuotaExceededBlocksWrite(t *testing.T) {
	s := New(nil, nil, nil)
	auth := adminAuth("alice")

	require.NoError(t, s.CreateNamespace(auth, "limited", 4, ""))

	_, err := s.Set(auth, "limited", "k", []byte("1234"))
	require.NoError(t, err)

	_, err = s.Set(auth, "limited", "k2", []byte("5"))
	require.Error(t, err)
}

func TestQuotaReplaceWithinBudget(t *testing.T) {
	s := New(nil, nil, nil)
	auth := adminAuth("alice")

	require.NoError(t, s.CreateNamespace(auth, "limited", 4, ""))

	_, err := s.Set(auth, "limited", "k", []byte("1234"))
	require.NoError(t, err)

	_, err = s.Set(auth, "limited", "k", []byte("ab"))
	require.NoError(t, err)
}

func TestAccountQuotaEnforced(t *testing.T) {
	s := New(nil, nil, nil)
	auth := adminAuth("alice")

	require.NoError(t, s.CreateAccount(auth, "alice", 2))

	_, err := s.Set(auth, "governance", "k", []byte("abc"))
	require.Error(t, err)
}
