package storage

import (
	"fmt"
	"strings"

	"github.com/icn-covm/governance-vm/covmerr"
	"github.com/icn-covm/governance-vm/identity"
)

func (s *Store) keyMap(ns string) map[string]*keyEntry {
	m, ok := s.cur.entries[ns]
	if !ok {
		m = make(map[string]*keyEntry)
		s.cur.entries[ns] = m
	}
	return m
}

// Get returns the current bytes for (ns, key).
func (s *Store) Get(auth *identity.AuthContext, ns, key string) ([]byte, error) {
	b, _, err := s.GetVersioned(auth, ns, key)
	return b, err
}

// GetVersioned returns the current bytes and version info for (ns, key).
func (s *Store) GetVersioned(auth *identity.AuthContext, ns, key string) ([]byte, VersionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.checkPerm(auth, ns, identity.ActionRead); err != nil {
		return nil, VersionInfo{}, err
	}
	e := s.cur.entries[ns][key]
	rec, ok := e.current()
	if !ok {
		return nil, VersionInfo{}, covmerr.Newf(covmerr.KindNotFound, "key %q not found in namespace %q", key, ns)
	}
	return append([]byte(nil), rec.bytes...), rec.info, nil
}

// GetVersion returns the bytes and version info recorded at a specific
// version, walking the chain on demand: previous versions are loaded, not
// embedded by value.
func (s *Store) GetVersion(auth *identity.AuthContext, ns, key string, version int) ([]byte, VersionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.checkPerm(auth, ns, identity.ActionRead); err != nil {
		return nil, VersionInfo{}, err
	}
	e, ok := s.cur.entries[ns][key]
	if !ok {
		return nil, VersionInfo{}, covmerr.Newf(covmerr.KindNotFound, "key %q not found in namespace %q", key, ns)
	}
	for _, rec := range e.versions {
		if rec.info.Version == version {
			return append([]byte(nil), rec.bytes...), rec.info, nil
		}
	}
	return nil, VersionInfo{}, covmerr.Newf(covmerr.KindNotFound, "version %d of %q not found", version, key)
}

// GetTyped returns the current bytes for (ns, key) along with the type tag
// recorded by the matching store_p_typed write, if any.
func (s *Store) GetTyped(auth *identity.AuthContext, ns, key string) ([]byte, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.checkPerm(auth, ns, identity.ActionRead); err != nil {
		return nil, "", err
	}
	e := s.cur.entries[ns][key]
	rec, ok := e.current()
	if !ok {
		return nil, "", covmerr.Newf(covmerr.KindNotFound, "key %q not found in namespace %q", key, ns)
	}
	return append([]byte(nil), rec.bytes...), rec.typ, nil
}

// ListVersions returns every recorded VersionInfo for (ns, key), oldest
// first.
func (s *Store) ListVersions(auth *identity.AuthContext, ns, key string) ([]VersionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.checkPerm(auth, ns, identity.ActionRead); err != nil {
		return nil, err
	}
	e, ok := s.cur.entries[ns][key]
	if !ok {
		return nil, covmerr.Newf(covmerr.KindNotFound, "key %q not found in namespace %q", key, ns)
	}
	out := make([]VersionInfo, 0, len(e.versions))
	for _, rec := range e.versions {
		out = append(out, rec.info)
	}
	return out, nil
}

// DiffVersions returns a human-readable structural diff between two
// recorded versions of (ns, key).
func (s *Store) DiffVersions(auth *identity.AuthContext, ns, key string, v1, v2 int) (string, error) {
	b1, _, err := s.GetVersion(auth, ns, key, v1)
	if err != nil {
		return "", err
	}
	b2, _, err := s.GetVersion(auth, ns, key, v2)
	if err != nil {
		return "", err
	}
	if string(b1) == string(b2) {
		return "", nil
	}
	return fmt.Sprintf("-%q\n+%q", string(b1), string(b2)), nil
}

// Set performs an unconditional overwrite (still recorded as a new
// version).
func (s *Store) Set(auth *identity.AuthContext, ns, key string, data []byte) (int, error) {
	return s.setVersioned(auth, ns, key, data, "", nil)
}

// SetTyped is Set with a declared semantic type tag stored alongside the
// bytes, checked on typed reads.
func (s *Store) SetTyped(auth *identity.AuthContext, ns, key string, data []byte, typeTag string) (int, error) {
	return s.setVersioned(auth, ns, key, data, typeTag, nil)
}

// SetVersioned performs an optimistic-concurrency write: if expectedVersion
// is non-nil and does not match the entry's current version, the write
// fails with VersionConflict.
func (s *Store) SetVersioned(auth *identity.AuthContext, ns, key string, data []byte, expectedVersion *int) (int, error) {
	return s.setVersioned(auth, ns, key, data, "", expectedVersion)
}

func (s *Store) setVersioned(auth *identity.AuthContext, ns, key string, data []byte, typeTag string, expectedVersion *int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkPerm(auth, ns, identity.ActionWrite); err != nil {
		s.recordEvent("permission_denied", callerOf(auth), ns, key, "set")
		return 0, err
	}

	keys := s.keyMap(ns)
	e, existed := keys[key]
	var prevVersion int
	var prevSize int
	if rec, ok := e.current(); ok {
		prevVersion = rec.info.Version
		prevSize = len(rec.bytes)
		if expectedVersion != nil && *expectedVersion != prevVersion {
			return 0, covmerr.Newf(covmerr.KindVersionConflict, "expected version %d, current is %d", *expectedVersion, prevVersion)
		}
	} else if expectedVersion != nil && *expectedVersion != 0 {
		return 0, covmerr.Newf(covmerr.KindVersionConflict, "expected version %d, key does not exist", *expectedVersion)
	}

	delta := int64(len(data) - prevSize)
	if err := s.chargeQuota(ns, callerOf(auth), delta); err != nil {
		s.recordEvent("quota_exceeded", callerOf(auth), ns, key, "set")
		return 0, err
	}

	if !existed {
		e = &keyEntry{}
		keys[key] = e
	}
	e.deleted = false
	newVersion := prevVersion + 1
	e.versions = append(e.versions, versionRecord{
		info:  VersionInfo{Version: newVersion, CreatedBy: callerOf(auth), Timestamp: s.now(), PrevVersion: prevVersion},
		bytes: append([]byte(nil), data...),
		typ:   typeTag,
	})

	s.recordEvent("set", callerOf(auth), ns, key, fmt.Sprintf("version=%d bytes=%d", newVersion, len(data)))
	return newVersion, nil
}

// Contains reports whether (ns, key) has a current, non-deleted entry.
func (s *Store) Contains(auth *identity.AuthContext, ns, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.checkPerm(auth, ns, identity.ActionRead); err != nil {
		return false, err
	}
	_, ok := s.cur.entries[ns][key].current()
	return ok, nil
}

// ListKeys returns keys in ns whose name starts with prefix (all keys if
// prefix is empty).
func (s *Store) ListKeys(auth *identity.AuthContext, ns, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.checkPerm(auth, ns, identity.ActionRead); err != nil {
		return nil, err
	}
	var out []string
	for k, e := range s.cur.entries[ns] {
		if _, ok := e.current(); !ok {
			continue
		}
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out, nil
}

// Delete removes the current entry, preserving version history on a
// gravestone so ListVersions/GetVersion still see what existed before.
func (s *Store) Delete(auth *identity.AuthContext, ns, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkPerm(auth, ns, identity.ActionWrite); err != nil {
		s.recordEvent("permission_denied", callerOf(auth), ns, key, "delete")
		return err
	}
	e, ok := s.cur.entries[ns][key]
	rec, hasCur := e.current()
	if !ok || !hasCur {
		return covmerr.Newf(covmerr.KindNotFound, "key %q not found in namespace %q", key, ns)
	}
	e.deleted = true
	s.chargeQuota(ns, rec.info.CreatedBy, -int64(len(rec.bytes)))
	s.recordEvent("delete", callerOf(auth), ns, key, "")
	return nil
}
