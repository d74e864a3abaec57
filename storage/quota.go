package storage

import "github.com/icn-covm/governance-vm/covmerr"

// chargeQuota applies a delta-byte write to both the namespace's usage and
// the writer's resource account usage, failing atomically (no mutation) if
// either would exceed its quota. Unregistered namespaces/accounts are
// treated as unlimited: enforcement only applies where a quota was
// explicitly declared.
func (s *Store) chargeQuota(ns, ownerID string, delta int64) error {
	n := s.cur.namespaces[ns]
	a := s.cur.accounts[ownerID]

	if n != nil && n.QuotaBytes > 0 {
		if n.UsedBytes+delta > n.QuotaBytes {
			return covmerr.Newf(covmerr.KindQuotaExceeded, "namespace %q quota exceeded", ns)
		}
	}
	if a != nil && a.QuotaBytes > 0 {
		if a.UsedBytes+delta > a.QuotaBytes {
			return covmerr.Newf(covmerr.KindQuotaExceeded, "account %q quota exceeded", ownerID)
		}
	}

	if n != nil {
		n.UsedBytes += delta
		if n.UsedBytes < 0 {
			n.UsedBytes = 0
		}
	}
	if a != nil {
		a.UsedBytes += delta
		if a.UsedBytes < 0 {
			a.UsedBytes = 0
		}
		a.LastUpdated = s.now()
	}
	return nil
}
