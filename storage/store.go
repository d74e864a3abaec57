// Package storage implements the versioned, namespaced, RBAC-gated
// key-value backend: namespace tree, version chains, transactions,
// resource quotas, and the append-only audit log.
//
// Entries form a version chain per key rather than storing full history by
// value: each versionRecord keeps only its predecessor's version number, so
// looking up an older version walks the chain on demand instead of paying
// for every past revision up front. State is guarded by a single
// sync.RWMutex rather than per-map locks, matching the coarse-grained
// locking that the rest of this codebase uses for shared mutable state.
package storage

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/icn-covm/governance-vm/covmerr"
	"github.com/icn-covm/governance-vm/identity"
)

// VersionInfo describes one recorded write of a (namespace, key). PrevVersion
// is zero for the first version; callers load prior bytes on demand via
// GetVersion rather than this struct embedding them.
type VersionInfo struct {
	Version     int
	CreatedBy   string
	Timestamp   int64
	PrevVersion int
}

type versionRecord struct {
	info  VersionInfo
	bytes []byte
	typ   string
}

type keyEntry struct {
	versions []versionRecord
	deleted  bool
}

func (e *keyEntry) current() (*versionRecord, bool) {
	if e == nil || e.deleted || len(e.versions) == 0 {
		return nil, false
	}
	return &e.versions[len(e.versions)-1], true
}

// Namespace is the persisted metadata for one node of the namespace tree.
type Namespace struct {
	Path       string
	Owner      string
	QuotaBytes int64
	UsedBytes  int64
	Parent     string
	Attributes map[string]string
}

// ResourceAccount is a per-caller byte budget independent of namespace
// quotas.
type ResourceAccount struct {
	OwnerID     string
	QuotaBytes  int64
	UsedBytes   int64
	LastUpdated int64
}

// StorageEvent is one append-only audit record.
type StorageEvent struct {
	EventType string
	UserID    string
	Namespace string
	Key       string
	Timestamp int64
	Details   string
}

type state struct {
	entries    map[string]map[string]*keyEntry
	namespaces map[string]*Namespace
	accounts   map[string]*ResourceAccount
}

func newState() *state {
	return &state{
		entries:    make(map[string]map[string]*keyEntry),
		namespaces: make(map[string]*Namespace),
		accounts:   make(map[string]*ResourceAccount),
	}
}

func cloneState(s *state) *state {
	out := newState()
	for ns, keys := range s.entries {
		cp := make(map[string]*keyEntry, len(keys))
		for k, e := range keys {
			ce := &keyEntry{deleted: e.deleted, versions: append([]versionRecord(nil), e.versions...)}
			cp[k] = ce
		}
		out.entries[ns] = cp
	}
	for path, n := range s.namespaces {
		cp := *n
		cp.Attributes = make(map[string]string, len(n.Attributes))
		for k, v := range n.Attributes {
			cp.Attributes[k] = v
		}
		out.namespaces[path] = &cp
	}
	for id, a := range s.accounts {
		cp := *a
		out.accounts[id] = &cp
	}
	return out
}

// Store is the single in-process storage backend implementation.
type Store struct {
	mu sync.RWMutex

	cur        *state
	txSnapshot *state
	txActive   bool

	auditLog []StorageEvent

	attachments AttachmentBackend
	clock       clock.Clock
	logger      log.Logger
}

// New constructs a Store with the given logger, clock and attachment
// backend. No package-level logger or clock: every dependency is passed
// through the constructor.
func New(logger log.Logger, clk clock.Clock, attachments AttachmentBackend) *Store {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if clk == nil {
		clk = clock.New()
	}
	if attachments == nil {
		attachments = NewMemoryAttachments()
	}
	return &Store{cur: newState(), attachments: attachments, clock: clk, logger: logger}
}

func (s *Store) now() int64 { return s.clock.Now().UnixNano() / int64(time.Millisecond) }

func (s *Store) recordEvent(eventType, userID, ns, key, details string) {
	s.auditLog = append(s.auditLog, StorageEvent{
		EventType: eventType,
		UserID:    userID,
		Namespace: ns,
		Key:       key,
		Timestamp: s.now(),
		Details:   details,
	})
}

func (s *Store) log(msg string, kv ...interface{}) {
	args := append([]interface{}{"msg", msg}, kv...)
	level.Debug(s.logger).Log(args...)
}

func (s *Store) checkPerm(auth *identity.AuthContext, ns string, action identity.Action) error {
	if auth == nil {
		return nil
	}
	if !auth.Can(ns, action) {
		return covmerr.New(covmerr.KindPermissionDenied, "caller lacks permission for "+string(action)+" on "+ns)
	}
	return nil
}
