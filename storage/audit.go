package storage

import (
	"github.com/icn-covm/governance-vm/covmerr"
	"github.com/icn-covm/governance-vm/identity"
)

// GetAuditLog returns recorded StorageEvents, filtered by namespace and/or
// event type, most recent last, truncated to the last `limit` entries
// (limit <= 0 means no truncation). Audit log reads require admin unless
// scoped to a namespace the caller already has reader on.
func (s *Store) GetAuditLog(auth *identity.AuthContext, ns, eventType string, limit int) ([]StorageEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if auth != nil {
		allowed := auth.IsAdmin(identity.GlobalNamespace)
		if !allowed && ns != "" {
			allowed = auth.Can(ns, identity.ActionRead)
		}
		if !allowed {
			return nil, covmerr.New(covmerr.KindPermissionDenied, "audit log read requires admin or reader on "+ns)
		}
	}

	var out []StorageEvent
	for _, ev := range s.auditLog {
		if ns != "" && ev.Namespace != ns {
			continue
		}
		if eventType != "" && ev.EventType != eventType {
			continue
		}
		out = append(out, ev)
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}
