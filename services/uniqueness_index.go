package services

import (
	"fmt"
	"log"
	"sync"

	"github.com/Ditronics-Tz/Smart-Acess-Web-sub000/model"
	"gorm.io/gorm"
)

// Namespaces tracked by the uniqueness index. Keys are scoped to live
// (non-deleted) rows only: soft-deleting a record releases its keys so new
// registrations are never blocked by historical rows.
const (
	NamespaceGateCode          = "gate_code"
	NamespaceHardwareID        = "hardware_id"
	NamespaceRFIDNumber        = "rfid_number"
	NamespaceSubjectCredential = "subject_credential"
	NamespaceLocationName      = "location_name"
)

// ConflictError reports a reservation attempt on a key already owned by a
// live record.
type ConflictError struct {
	Namespace string
	Key       string
	OwnerID   uint
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %q is already in use by record %d", e.Namespace, e.Key, e.OwnerID)
}

// UniquenessIndex maintains exclusive claims on keys (RFID numbers, gate
// codes, hardware ids, subject credentials, location names) for live records.
// Reserve is the single arbiter for concurrent claims on the same key: under
// one mutex the check and the claim are a single step, so two racing callers
// deterministically produce exactly one winner.
type UniquenessIndex struct {
	mu         sync.Mutex
	namespaces map[string]map[string]uint
}

// NewUniquenessIndex creates an empty index
func NewUniquenessIndex() *UniquenessIndex {
	return &UniquenessIndex{
		namespaces: make(map[string]map[string]uint),
	}
}

// Reserve atomically claims key in namespace for ownerID. Returns a
// *ConflictError naming the current owner when the key is already held.
// Re-reserving a key for the same owner is a no-op.
func (ix *UniquenessIndex) Reserve(namespace, key string, ownerID uint) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ns := ix.namespaces[namespace]
	if ns == nil {
		ns = make(map[string]uint)
		ix.namespaces[namespace] = ns
	}

	if existing, held := ns[key]; held {
		// Owner 0 is a pre-insert placeholder and never dedupes: two
		// racing placeholder claims must produce one winner.
		if existing == ownerID && ownerID != 0 {
			return nil
		}
		return &ConflictError{Namespace: namespace, Key: key, OwnerID: existing}
	}

	ns[key] = ownerID
	return nil
}

// SetOwner rebinds a held key to its final owner id once the record has
// been inserted and its id is known.
func (ix *UniquenessIndex) SetOwner(namespace, key string, ownerID uint) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ns := ix.namespaces[namespace]; ns != nil {
		if _, held := ns[key]; held {
			ns[key] = ownerID
		}
	}
}

// Release frees key in namespace so it becomes reusable. Called on soft
// delete. Releasing an unheld key is a no-op.
func (ix *UniquenessIndex) Release(namespace, key string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ns := ix.namespaces[namespace]; ns != nil {
		delete(ns, key)
	}
}

// Reacquire re-claims key for ownerID on restore. It must re-check for a
// conflict created while the original record was deleted: restoring a record
// whose key was reused fails with a descriptive conflict instead of silently
// colliding.
func (ix *UniquenessIndex) Reacquire(namespace, key string, ownerID uint) error {
	return ix.Reserve(namespace, key, ownerID)
}

// Owner returns the current owner of key, if any
func (ix *UniquenessIndex) Owner(namespace, key string) (uint, bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ns := ix.namespaces[namespace]
	if ns == nil {
		return 0, false
	}
	id, held := ns[key]
	return id, held
}

// Rebuild repopulates the index from live database rows. Called once at
// startup before the server accepts traffic.
func (ix *UniquenessIndex) Rebuild(db *gorm.DB) error {
	ix.mu.Lock()
	ix.namespaces = make(map[string]map[string]uint)
	ix.mu.Unlock()

	var locations []model.PhysicalLocation
	if err := db.Find(&locations).Error; err != nil {
		return fmt.Errorf("rebuild uniqueness index: locations: %w", err)
	}
	for _, loc := range locations {
		if err := ix.Reserve(NamespaceLocationName, loc.Name, loc.ID); err != nil {
			log.Printf("uniqueness rebuild: duplicate live location name %q (ids %d)", loc.Name, loc.ID)
		}
	}

	var gates []model.AccessGate
	if err := db.Find(&gates).Error; err != nil {
		return fmt.Errorf("rebuild uniqueness index: gates: %w", err)
	}
	for _, gate := range gates {
		if err := ix.Reserve(NamespaceGateCode, gate.GateCode, gate.ID); err != nil {
			log.Printf("uniqueness rebuild: duplicate live gate code %q (id %d)", gate.GateCode, gate.ID)
		}
		if err := ix.Reserve(NamespaceHardwareID, gate.HardwareID, gate.ID); err != nil {
			log.Printf("uniqueness rebuild: duplicate live hardware id %q (id %d)", gate.HardwareID, gate.ID)
		}
	}

	var cards []model.Card
	if err := db.Find(&cards).Error; err != nil {
		return fmt.Errorf("rebuild uniqueness index: cards: %w", err)
	}
	for _, card := range cards {
		if err := ix.Reserve(NamespaceRFIDNumber, card.RFIDNumber, card.ID); err != nil {
			log.Printf("uniqueness rebuild: duplicate live rfid %q (id %d)", card.RFIDNumber, card.ID)
		}
		if ref := card.SubjectRef(); ref.Type != "" {
			if err := ix.Reserve(NamespaceSubjectCredential, ref.Key(), card.ID); err != nil {
				log.Printf("uniqueness rebuild: subject %s holds multiple live cards (card %d)", ref, card.ID)
			}
		}
	}

	return nil
}
