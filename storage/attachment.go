package storage

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"sync"

	shell "github.com/ipfs/go-ipfs-api"

	"github.com/icn-covm/governance-vm/covmerr"
)

// AttachmentBackend stores opaque proposal attachment payloads, addressed
// by the name under `.../attachments/<name>`. It is an interface rather
// than a concrete IPFS client so the store can swap in a pure in-memory
// backend for tests without a live node.
type AttachmentBackend interface {
	Put(name string, data []byte) (checksum string, err error)
	Get(name string) (data []byte, err error)
	Exists(name string) bool
}

// MemoryAttachments is the default, test-friendly AttachmentBackend.
type MemoryAttachments struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryAttachments() *MemoryAttachments {
	return &MemoryAttachments{data: make(map[string][]byte)}
}

func (m *MemoryAttachments) Put(name string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[name] = append([]byte(nil), data...)
	return checksum(data), nil
}

func (m *MemoryAttachments) Get(name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.data[name]
	if !ok {
		return nil, covmerr.Newf(covmerr.KindNotFound, "attachment %q not found", name)
	}
	return append([]byte(nil), b...), nil
}

func (m *MemoryAttachments) Exists(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[name]
	return ok
}

// IPFSAttachments stores attachment payloads on an IPFS node over a
// shell.Shell client, tracking name -> CID so Get can retrieve what Put
// pinned.
type IPFSAttachments struct {
	mu    sync.RWMutex
	shell *shell.Shell
	cids  map[string]string // name -> CID
}

func NewIPFSAttachments(apiURL string) *IPFSAttachments {
	return &IPFSAttachments{shell: shell.NewShell(apiURL), cids: make(map[string]string)}
}

func (ia *IPFSAttachments) Put(name string, data []byte) (string, error) {
	cid, err := ia.shell.Add(bytes.NewReader(data))
	if err != nil {
		return "", covmerr.Wrap(covmerr.KindTransactionError, "ipfs add failed", err)
	}
	ia.mu.Lock()
	ia.cids[name] = cid
	ia.mu.Unlock()
	return checksum(data), nil
}

func (ia *IPFSAttachments) Get(name string) ([]byte, error) {
	ia.mu.RLock()
	cid, ok := ia.cids[name]
	ia.mu.RUnlock()
	if !ok {
		return nil, covmerr.Newf(covmerr.KindNotFound, "attachment %q not found", name)
	}
	reader, err := ia.shell.Cat(cid)
	if err != nil {
		return nil, covmerr.Wrap(covmerr.KindTransactionError, "ipfs cat failed", err)
	}
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, covmerr.Wrap(covmerr.KindTransactionError, "ipfs read failed", err)
	}
	return data, nil
}

func (ia *IPFSAttachments) Exists(name string) bool {
	ia.mu.RLock()
	defer ia.mu.RUnlock()
	_, ok := ia.cids[name]
	return ok
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// PutAttachment hands an attachment's bytes to the configured
// AttachmentBackend under name. No namespace key, version or audit event is
// recorded in the store itself.
func (s *Store) PutAttachment(name string, data []byte) (string, error) {
	return s.attachments.Put(name, data)
}

// GetAttachment retrieves a previously stored attachment's bytes.
func (s *Store) GetAttachment(name string) ([]byte, error) {
	return s.attachments.Get(name)
}
