package storage

import (
	"strings"

	"github.com/icn-covm/governance-vm/covmerr"
	"github.com/icn-covm/governance-vm/identity"
)

// CreateNamespace registers a new namespace node. Path must be
// '/'-delimited, parent (if given) must already exist, and creation
// requires admin.
func (s *Store) CreateNamespace(auth *identity.AuthContext, path string, quotaBytes int64, parent string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkPerm(auth, path, identity.ActionNamespaceAdmin); err != nil {
		s.recordEvent("permission_denied", callerOf(auth), path, "", "create_namespace")
		return err
	}
	if _, exists := s.cur.namespaces[path]; exists {
		return covmerr.Newf(covmerr.KindValidationError, "namespace %q already exists", path)
	}
	if parent != "" {
		if _, ok := s.cur.namespaces[parent]; !ok {
			return covmerr.Newf(covmerr.KindNotFound, "parent namespace %q does not exist", parent)
		}
	}
	s.cur.namespaces[path] = &Namespace{
		Path:       path,
		Owner:      callerOf(auth),
		QuotaBytes: quotaBytes,
		Parent:     parent,
		Attributes: make(map[string]string),
	}
	s.recordEvent("create_namespace", callerOf(auth), path, "", "")
	s.log("namespace created", "path", path, "quota_bytes", quotaBytes)
	return nil
}

// CreateAccount registers a resource account for userID.
func (s *Store) CreateAccount(auth *identity.AuthContext, userID string, quotaBytes int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkPerm(auth, identity.GlobalNamespace, identity.ActionNamespaceAdmin); err != nil {
		s.recordEvent("permission_denied", callerOf(auth), "", "", "create_account")
		return err
	}
	s.cur.accounts[userID] = &ResourceAccount{OwnerID: userID, QuotaBytes: quotaBytes, LastUpdated: s.now()}
	s.recordEvent("create_account", callerOf(auth), "", "", userID)
	return nil
}

// ListNamespaces returns direct children of parent (or roots when parent is
// empty).
func (s *Store) ListNamespaces(auth *identity.AuthContext, parent string) ([]Namespace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.checkPerm(auth, parent, identity.ActionRead); err != nil {
		return nil, err
	}
	var out []Namespace
	for path, n := range s.cur.namespaces {
		if n.Parent == parent && path != parent {
			out = append(out, *n)
		}
	}
	return out, nil
}

// GetUsage returns a namespace's currently recorded used_bytes.
func (s *Store) GetUsage(auth *identity.AuthContext, ns string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.checkPerm(auth, ns, identity.ActionRead); err != nil {
		return 0, err
	}
	n, ok := s.cur.namespaces[ns]
	if !ok {
		return 0, covmerr.Newf(covmerr.KindNotFound, "namespace %q not found", ns)
	}
	return n.UsedBytes, nil
}

func callerOf(auth *identity.AuthContext) string {
	if auth == nil {
		return ""
	}
	return auth.CallerID
}

func splitNamespace(ns string) []string {
	if ns == "" {
		return nil
	}
	return strings.Split(ns, "/")
}
