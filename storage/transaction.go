package storage

import "github.com/icn-covm/governance-vm/covmerr"

// BeginTx snapshots the store into a staged overlay. Mutations during the
// transaction apply directly to the live state (acting as the overlay in
// place); reads during the transaction therefore observe read-your-writes
// naturally. Nested transactions are rejected.
func (s *Store) BeginTx() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.txActive {
		return covmerr.New(covmerr.KindTransactionError, "transaction already active")
	}
	s.txSnapshot = cloneState(s.cur)
	s.txActive = true
	s.log("transaction begun")
	return nil
}

// CommitTx atomically applies the overlay: since writes already landed on
// the live state, committing simply discards the rollback snapshot.
func (s *Store) CommitTx() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.txActive {
		return covmerr.New(covmerr.KindTransactionError, "no transaction active")
	}
	s.txSnapshot = nil
	s.txActive = false
	s.recordEvent("commit_tx", "", "", "", "")
	s.log("transaction committed")
	return nil
}

// RollbackTx discards all mutations made since BeginTx by restoring the
// pre-transaction snapshot.
func (s *Store) RollbackTx() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.txActive {
		return covmerr.New(covmerr.KindTransactionError, "no transaction active")
	}
	s.cur = s.txSnapshot
	s.txSnapshot = nil
	s.txActive = false
	s.recordEvent("rollback_tx", "", "", "", "")
	s.log("transaction rolled back")
	return nil
}

// InTransaction reports whether a transaction is currently active.
func (s *Store) InTransaction() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.txActive
}
