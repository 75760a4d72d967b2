package services

import (
	"testing"
	"time"

	"github.com/Ditronics-Tz/Smart-Acess-Web-sub000/model"
)

func TestIssueGeneratesRFID(t *testing.T) {
	db, index, cards := newCardFixture(t)
	student := seedStudent(t, db, "T/UDOM/2023/10001")

	card, err := cards.Issue(testCtx(), IssueRequest{
		Subject:      SubjectRefFor(student.ID),
		GenerateRFID: true,
	})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if len(card.RFIDNumber) != 12 {
		t.Errorf("generated rfid should be 12 chars, got %q", card.RFIDNumber)
	}
	if !card.IsActive {
		t.Error("new card should be active")
	}
	if card.StudentID == nil || *card.StudentID != student.ID {
		t.Error("card should reference the student")
	}

	owner, held := index.Owner(NamespaceRFIDNumber, card.RFIDNumber)
	if !held || owner != card.ID {
		t.Errorf("rfid reservation should be bound to card %d, got %d", card.ID, owner)
	}
	owner, held = index.Owner(NamespaceSubjectCredential, card.SubjectRef().Key())
	if !held || owner != card.ID {
		t.Errorf("subject reservation should be bound to card %d, got %d", card.ID, owner)
	}
}

func TestIssueExplicitRFID(t *testing.T) {
	db, _, cards := newCardFixture(t)
	student := seedStudent(t, db, "T/UDOM/2023/10002")

	card, err := cards.Issue(testCtx(), IssueRequest{
		Subject:      SubjectRefFor(student.ID),
		ExplicitRFID: "  abcd1234ef56  ",
	})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if card.RFIDNumber != "ABCD1234EF56" {
		t.Errorf("explicit rfid should be trimmed and uppercased, got %q", card.RFIDNumber)
	}
}

func TestIssueRejectsMalformedRFID(t *testing.T) {
	db, _, cards := newCardFixture(t)
	student := seedStudent(t, db, "T/UDOM/2023/10003")

	_, err := cards.Issue(testCtx(), IssueRequest{
		Subject:      SubjectRefFor(student.ID),
		ExplicitRFID: "not-hex!",
	})
	if !IsKind(err, KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestIssueUnknownSubject(t *testing.T) {
	_, index, cards := newCardFixture(t)

	_, err := cards.Issue(testCtx(), IssueRequest{
		Subject:      SubjectRefFor(999),
		GenerateRFID: true,
	})
	if !IsKind(err, KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	// Nothing may be reserved for a subject that does not exist.
	if _, held := index.Owner(NamespaceSubjectCredential, "student:999"); held {
		t.Error("failed issue left a subject reservation behind")
	}
}

func TestOneLiveCardPerSubject(t *testing.T) {
	db, _, cards := newCardFixture(t)
	student := seedStudent(t, db, "T/UDOM/2023/10004")

	first, err := cards.Issue(testCtx(), IssueRequest{
		Subject:      SubjectRefFor(student.ID),
		GenerateRFID: true,
	})
	if err != nil {
		t.Fatalf("first issue: %v", err)
	}

	_, err = cards.Issue(testCtx(), IssueRequest{
		Subject:      SubjectRefFor(student.ID),
		GenerateRFID: true,
	})
	if !IsKind(err, KindSubjectHasCredential) {
		t.Fatalf("expected subject-has-credential, got %v", err)
	}

	// Deleting the live card frees the subject for reissue with a new rfid.
	if _, err := cards.Delete(testCtx(), first.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	second, err := cards.Issue(testCtx(), IssueRequest{
		Subject:      SubjectRefFor(student.ID),
		GenerateRFID: true,
	})
	if err != nil {
		t.Fatalf("reissue after delete: %v", err)
	}
	if second.RFIDNumber == first.RFIDNumber {
		t.Error("replacement card should carry a fresh rfid")
	}
}

func TestDuplicateExplicitRFID(t *testing.T) {
	db, _, cards := newCardFixture(t)
	first := seedStudent(t, db, "T/UDOM/2023/10005")
	second := seedStudent(t, db, "T/UDOM/2023/10006")

	if _, err := cards.Issue(testCtx(), IssueRequest{
		Subject:      SubjectRefFor(first.ID),
		ExplicitRFID: "AABBCCDD0011",
	}); err != nil {
		t.Fatalf("first issue: %v", err)
	}

	_, err := cards.Issue(testCtx(), IssueRequest{
		Subject:      SubjectRefFor(second.ID),
		ExplicitRFID: "AABBCCDD0011",
	})
	if !IsKind(err, KindDuplicateRfid) {
		t.Fatalf("expected duplicate rfid, got %v", err)
	}
}

func TestDeactivateAndActivate(t *testing.T) {
	db, _, cards := newCardFixture(t)
	student := seedStudent(t, db, "T/UDOM/2023/10007")

	card, err := cards.Issue(testCtx(), IssueRequest{
		Subject:      SubjectRefFor(student.ID),
		GenerateRFID: true,
	})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	deactivated, err := cards.Deactivate(testCtx(), card.ID)
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if deactivated.IsActive {
		t.Error("card should be inactive after deactivate")
	}

	// Deactivating again is a typed no-op error, and state is untouched.
	_, err = cards.Deactivate(testCtx(), card.ID)
	if !IsKind(err, KindInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	current, err := cards.Get(testCtx(), card.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if current.IsActive {
		t.Error("failed deactivate must not flip state")
	}

	reactivated, err := cards.Activate(testCtx(), card.ID)
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if !reactivated.IsActive {
		t.Error("card should be active after activate")
	}

	_, err = cards.Activate(testCtx(), card.ID)
	if !IsKind(err, KindInvalidTransition) {
		t.Fatalf("expected invalid transition on double activate, got %v", err)
	}
}

func TestActivateExpiredCardRejected(t *testing.T) {
	db, _, cards := newCardFixture(t)
	student := seedStudent(t, db, "T/UDOM/2023/10008")

	future := time.Now().Add(time.Hour)
	card, err := cards.Issue(testCtx(), IssueRequest{
		Subject:      SubjectRefFor(student.ID),
		GenerateRFID: true,
		ExpiryDate:   &future,
	})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := cards.Deactivate(testCtx(), card.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	// Push the expiry into the past behind the service's back to simulate
	// time passing.
	past := time.Now().Add(-time.Hour)
	if err := db.Model(&model.Card{}).Where("id = ?", card.ID).
		Update("expiry_date", past).Error; err != nil {
		t.Fatalf("age card: %v", err)
	}

	_, err = cards.Activate(testCtx(), card.ID)
	if !IsKind(err, KindCredentialExpired) {
		t.Fatalf("expected credential expired, got %v", err)
	}

	// Extending the expiry unblocks activation.
	newExpiry := time.Now().Add(24 * time.Hour)
	if _, err := cards.ExtendExpiry(testCtx(), card.ID, newExpiry); err != nil {
		t.Fatalf("extend expiry: %v", err)
	}
	if _, err := cards.Activate(testCtx(), card.ID); err != nil {
		t.Fatalf("activate after extension: %v", err)
	}
}

func TestDeleteAndRestore(t *testing.T) {
	db, index, cards := newCardFixture(t)
	student := seedStudent(t, db, "T/UDOM/2023/10009")

	card, err := cards.Issue(testCtx(), IssueRequest{
		Subject:      SubjectRefFor(student.ID),
		GenerateRFID: true,
	})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := cards.Delete(testCtx(), card.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	// Double delete is a typed error.
	_, err = cards.Delete(testCtx(), card.ID)
	if !IsKind(err, KindAlreadyDeleted) {
		t.Fatalf("expected already deleted, got %v", err)
	}

	// Keys are free while the card is deleted.
	if _, held := index.Owner(NamespaceRFIDNumber, card.RFIDNumber); held {
		t.Error("deleted card's rfid should be released")
	}

	restored, err := cards.Restore(testCtx(), card.ID)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.DeletedAt.Valid {
		t.Error("restored card should not be deleted")
	}

	_, err = cards.Restore(testCtx(), card.ID)
	if !IsKind(err, KindNotDeleted) {
		t.Fatalf("expected not deleted, got %v", err)
	}
}

func TestRestoreBlockedByReplacement(t *testing.T) {
	db, _, cards := newCardFixture(t)
	student := seedStudent(t, db, "T/UDOM/2023/10010")

	first, err := cards.Issue(testCtx(), IssueRequest{
		Subject:      SubjectRefFor(student.ID),
		GenerateRFID: true,
	})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := cards.Delete(testCtx(), first.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := cards.Issue(testCtx(), IssueRequest{
		Subject:      SubjectRefFor(student.ID),
		GenerateRFID: true,
	}); err != nil {
		t.Fatalf("replacement issue: %v", err)
	}

	_, err = cards.Restore(testCtx(), first.ID)
	if !IsKind(err, KindSubjectHasCredential) {
		t.Fatalf("expected subject-has-credential on restore, got %v", err)
	}
}

func TestVerify(t *testing.T) {
	db, _, cards := newCardFixture(t)
	student := seedStudent(t, db, "T/UDOM/2023/10011")

	// Unknown subject answers verified=false, not an error.
	result, err := cards.Verify(testCtx(), SubjectRefFor(424242))
	if err != nil {
		t.Fatalf("verify unknown subject: %v", err)
	}
	if result.Verified || result.Subject != nil {
		t.Error("unknown subject should not verify")
	}

	// Subject without a card: snapshot present, verified=false.
	result, err = cards.Verify(testCtx(), SubjectRefFor(student.ID))
	if err != nil {
		t.Fatalf("verify cardless subject: %v", err)
	}
	if result.Verified {
		t.Error("cardless subject should not verify")
	}
	if result.Subject == nil || result.Subject.Number != student.RegNumber {
		t.Error("subject snapshot missing or wrong")
	}

	card, err := cards.Issue(testCtx(), IssueRequest{
		Subject:      SubjectRefFor(student.ID),
		GenerateRFID: true,
	})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	result, err = cards.Verify(testCtx(), SubjectRefFor(student.ID))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !result.Verified || !result.CardActive {
		t.Error("live card should verify as active")
	}

	// Deactivation shows up as card_active=false but still verified.
	if _, err := cards.Deactivate(testCtx(), card.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	result, err = cards.Verify(testCtx(), SubjectRefFor(student.ID))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !result.Verified || result.CardActive {
		t.Error("deactivated card should verify with card_active=false")
	}

	// A deleted card disappears from verification entirely.
	if _, err := cards.Delete(testCtx(), card.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	result, err = cards.Verify(testCtx(), SubjectRefFor(student.ID))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if result.Verified {
		t.Error("deleted card should not verify")
	}
}

func TestVerifyExpiredCardInactive(t *testing.T) {
	db, _, cards := newCardFixture(t)
	staff := seedStaff(t, db, "STF-2023-001")

	future := time.Now().Add(time.Hour)
	ref := model.SubjectRef{Type: model.SubjectTypeStaff, ID: staff.ID}
	card, err := cards.Issue(testCtx(), IssueRequest{
		Subject:      ref,
		GenerateRFID: true,
		ExpiryDate:   &future,
	})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	past := time.Now().Add(-time.Hour)
	if err := db.Model(&model.Card{}).Where("id = ?", card.ID).
		Update("expiry_date", past).Error; err != nil {
		t.Fatalf("age card: %v", err)
	}

	result, err := cards.Verify(testCtx(), ref)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !result.Verified {
		t.Error("expired card still verifies the subject holds a card")
	}
	if result.CardActive {
		t.Error("expired card must not report active")
	}

	// Lazy evaluation: the stored flag is untouched.
	stored, err := cards.Get(testCtx(), card.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !stored.IsActive {
		t.Error("verification must not mutate is_active")
	}
}
