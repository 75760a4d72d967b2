package services

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestReserveAndConflict(t *testing.T) {
	ix := NewUniquenessIndex()

	if err := ix.Reserve(NamespaceRFIDNumber, "ABCD1234", 1); err != nil {
		t.Fatalf("first reserve failed: %v", err)
	}

	err := ix.Reserve(NamespaceRFIDNumber, "ABCD1234", 2)
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if conflict.OwnerID != 1 {
		t.Errorf("conflict should name owner 1, got %d", conflict.OwnerID)
	}

	// Same owner re-reserving is a no-op.
	if err := ix.Reserve(NamespaceRFIDNumber, "ABCD1234", 1); err != nil {
		t.Errorf("same-owner reserve should succeed: %v", err)
	}
}

func TestNamespacesAreIndependent(t *testing.T) {
	ix := NewUniquenessIndex()

	if err := ix.Reserve(NamespaceGateCode, "KEY", 1); err != nil {
		t.Fatalf("reserve gate code: %v", err)
	}
	if err := ix.Reserve(NamespaceHardwareID, "KEY", 2); err != nil {
		t.Errorf("same key in another namespace should be free: %v", err)
	}
}

func TestPlaceholderOwnerNeverDedupes(t *testing.T) {
	ix := NewUniquenessIndex()

	if err := ix.Reserve(NamespaceRFIDNumber, "ABCD1234", 0); err != nil {
		t.Fatalf("placeholder reserve failed: %v", err)
	}

	// A second pre-insert claim on the same key must lose, not no-op.
	if err := ix.Reserve(NamespaceRFIDNumber, "ABCD1234", 0); err == nil {
		t.Fatal("second placeholder reserve should conflict")
	}

	ix.SetOwner(NamespaceRFIDNumber, "ABCD1234", 7)
	owner, held := ix.Owner(NamespaceRFIDNumber, "ABCD1234")
	if !held || owner != 7 {
		t.Errorf("expected owner 7, got %d (held=%v)", owner, held)
	}
}

func TestReleaseFreesKey(t *testing.T) {
	ix := NewUniquenessIndex()

	if err := ix.Reserve(NamespaceLocationName, "Library", 3); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	ix.Release(NamespaceLocationName, "Library")

	if err := ix.Reserve(NamespaceLocationName, "Library", 4); err != nil {
		t.Errorf("released key should be reusable: %v", err)
	}

	// Releasing an unheld key is a no-op.
	ix.Release(NamespaceLocationName, "never-held")
}

func TestReacquireAfterReuseConflicts(t *testing.T) {
	ix := NewUniquenessIndex()

	if err := ix.Reserve(NamespaceSubjectCredential, "student:41", 10); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	ix.Release(NamespaceSubjectCredential, "student:41")

	if err := ix.Reserve(NamespaceSubjectCredential, "student:41", 11); err != nil {
		t.Fatalf("reuse after release: %v", err)
	}

	if err := ix.Reacquire(NamespaceSubjectCredential, "student:41", 10); err == nil {
		t.Fatal("reacquire of a reused key should conflict")
	}
}

func TestConcurrentReserveSingleWinner(t *testing.T) {
	ix := NewUniquenessIndex()

	const goroutines = 64
	var wg sync.WaitGroup
	wins := make(chan uint, goroutines)

	for i := 1; i <= goroutines; i++ {
		wg.Add(1)
		go func(id uint) {
			defer wg.Done()
			if err := ix.Reserve(NamespaceRFIDNumber, "CONTESTED", id); err == nil {
				wins <- id
			}
		}(uint(i))
	}
	wg.Wait()
	close(wins)

	var winners []uint
	for id := range wins {
		winners = append(winners, id)
	}
	if len(winners) != 1 {
		t.Fatalf("expected exactly one winner, got %d", len(winners))
	}

	owner, held := ix.Owner(NamespaceRFIDNumber, "CONTESTED")
	if !held || owner != winners[0] {
		t.Errorf("index owner %d does not match winner %d", owner, winners[0])
	}
}

func TestConcurrentDisjointKeys(t *testing.T) {
	ix := NewUniquenessIndex()

	const goroutines = 32
	var wg sync.WaitGroup
	errs := make(chan error, goroutines)

	for i := 1; i <= goroutines; i++ {
		wg.Add(1)
		go func(id uint) {
			defer wg.Done()
			key := fmt.Sprintf("KEY-%d", id)
			if err := ix.Reserve(NamespaceGateCode, key, id); err != nil {
				errs <- err
			}
		}(uint(i))
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("disjoint reserve failed: %v", err)
	}
}

func TestRebuildFromLiveRows(t *testing.T) {
	db := newTestDB(t)
	index := NewUniquenessIndex()

	student := seedStudent(t, db, "T/UDOM/2023/00001")

	locations := NewLocationService(db, index)
	gates := NewGateService(db, index)
	cards := NewCardService(db, index)

	loc, err := locations.Create(testCtx(), CreateLocationInput{
		Name:         "Main Campus",
		LocationType: "campus",
	})
	if err != nil {
		t.Fatalf("create location: %v", err)
	}
	if _, err := gates.Create(testCtx(), CreateGateInput{
		GateCode:   "GATE-01",
		HardwareID: "HW-01",
		Name:       "North Gate",
		LocationID: loc.ID,
	}); err != nil {
		t.Fatalf("create gate: %v", err)
	}
	card, err := cards.Issue(testCtx(), IssueRequest{
		Subject:      SubjectRefFor(student.ID),
		GenerateRFID: true,
	})
	if err != nil {
		t.Fatalf("issue card: %v", err)
	}

	// A deleted card's keys must not survive a rebuild.
	deleted, err := cards.Issue(testCtx(), IssueRequest{
		Subject:      SubjectRefFor(seedStudent(t, db, "T/UDOM/2023/00002").ID),
		GenerateRFID: true,
	})
	if err != nil {
		t.Fatalf("issue second card: %v", err)
	}
	if _, err := cards.Delete(testCtx(), deleted.ID); err != nil {
		t.Fatalf("delete card: %v", err)
	}

	fresh := NewUniquenessIndex()
	if err := fresh.Rebuild(db); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	if owner, held := fresh.Owner(NamespaceLocationName, "Main Campus"); !held || owner != loc.ID {
		t.Errorf("location name not rebuilt (owner=%d held=%v)", owner, held)
	}
	if _, held := fresh.Owner(NamespaceGateCode, "GATE-01"); !held {
		t.Error("gate code not rebuilt")
	}
	if owner, held := fresh.Owner(NamespaceRFIDNumber, card.RFIDNumber); !held || owner != card.ID {
		t.Errorf("rfid not rebuilt (owner=%d held=%v)", owner, held)
	}
	if _, held := fresh.Owner(NamespaceRFIDNumber, deleted.RFIDNumber); held {
		t.Error("deleted card's rfid should not be rebuilt")
	}
}
