package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Ditronics-Tz/Smart-Acess-Web-sub000/database"
	"github.com/Ditronics-Tz/Smart-Acess-Web-sub000/model"
	"github.com/Ditronics-Tz/Smart-Acess-Web-sub000/utils/query"
	"github.com/Ditronics-Tz/Smart-Acess-Web-sub000/utils/validation"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const rfidGenerateAttempts = 5

// CardService is the credential lifecycle manager. Every card mutation
// goes through here: issuance, activation, deactivation, deletion, restore
// and expiry extension. is_active and deleted_at are never written by
// anything else.
type CardService struct {
	db    *gorm.DB
	cards *database.Repository[model.Card]
	index *UniquenessIndex
}

// NewCardService creates a new card service
func NewCardService(db *gorm.DB, index *UniquenessIndex) *CardService {
	return &CardService{
		db:    db,
		cards: database.NewRepository[model.Card](db),
		index: index,
	}
}

// IssueRequest describes a single card issuance
type IssueRequest struct {
	Subject      model.SubjectRef
	GenerateRFID bool
	ExplicitRFID string
	ExpiryDate   *time.Time
}

// Issue provisions a new card for a subject. The subject reservation in
// the uniqueness index is the arbiter for "one live card per subject";
// on any downstream failure every reservation taken here is released, so
// the operation either fully succeeds or leaves no trace.
func (s *CardService) Issue(ctx context.Context, req IssueRequest) (*model.Card, error) {
	if !req.Subject.Type.IsValid() {
		return nil, ErrValidation("subject_type", "subject type must be student or staff")
	}
	if req.Subject.ID == 0 {
		return nil, ErrValidation("subject_id", "subject id is required")
	}
	if !req.GenerateRFID && strings.TrimSpace(req.ExplicitRFID) == "" {
		return nil, ErrValidation("rfid_number", "rfid number is required when generation is disabled")
	}
	if req.ExpiryDate != nil && !req.ExpiryDate.After(time.Now()) {
		return nil, ErrValidation("expiry_date", "expiry date must be in the future")
	}

	// Subject must exist before anything is reserved.
	if _, err := s.subjectSnapshot(ctx, req.Subject); err != nil {
		return nil, err
	}

	subjectKey := req.Subject.Key()
	if err := s.index.Reserve(NamespaceSubjectCredential, subjectKey, 0); err != nil {
		var conflict *ConflictError
		if errors.As(err, &conflict) {
			return nil, NewFieldError(KindSubjectHasCredential, "subject_id",
				"subject already holds a card; delete it before issuing a replacement")
		}
		return nil, err
	}

	rfid, err := s.claimRFID(req)
	if err != nil {
		s.index.Release(NamespaceSubjectCredential, subjectKey)
		return nil, err
	}

	card := model.Card{
		RFIDNumber: rfid,
		IsActive:   true,
		IssuedDate: time.Now().UTC(),
		ExpiryDate: req.ExpiryDate,
	}
	switch req.Subject.Type {
	case model.SubjectTypeStudent:
		card.StudentID = &req.Subject.ID
	case model.SubjectTypeStaff:
		card.StaffID = &req.Subject.ID
	}

	if err := s.cards.Create(ctx, &card); err != nil {
		s.index.Release(NamespaceSubjectCredential, subjectKey)
		s.index.Release(NamespaceRFIDNumber, rfid)
		return nil, err
	}

	s.index.SetOwner(NamespaceSubjectCredential, subjectKey, card.ID)
	s.index.SetOwner(NamespaceRFIDNumber, rfid, card.ID)

	return &card, nil
}

// claimRFID reserves either the explicit RFID or a freshly generated one
func (s *CardService) claimRFID(req IssueRequest) (string, error) {
	if !req.GenerateRFID {
		rfid := strings.ToUpper(strings.TrimSpace(req.ExplicitRFID))
		if !validation.ValidateRFID(rfid) {
			return "", ErrValidation("rfid_number", "rfid number must be 8 to 24 hex digits")
		}
		if err := s.index.Reserve(NamespaceRFIDNumber, rfid, 0); err != nil {
			var conflict *ConflictError
			if errors.As(err, &conflict) {
				return "", NewFieldError(KindDuplicateRfid, "rfid_number",
					"rfid number is already assigned to a live card")
			}
			return "", err
		}
		return rfid, nil
	}

	for attempt := 0; attempt < rfidGenerateAttempts; attempt++ {
		rfid := generateRFID()
		if err := s.index.Reserve(NamespaceRFIDNumber, rfid, 0); err == nil {
			return rfid, nil
		}
	}
	return "", NewError(KindInternal, "could not generate a unique rfid number")
}

// generateRFID derives a 12-character reader-compatible identifier
func generateRFID() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return strings.ToUpper(raw[:12])
}

// ListConfig is the filter-gateway whitelist for card listings
func (s *CardService) ListConfig() query.Config {
	return query.Config{
		SearchFields: []string{"rfid_number"},
		FilterFields: map[string]string{
			"is_active":  "is_active",
			"student_id": "student_id",
			"staff_id":   "staff_id",
		},
		OrderFields: map[string]string{
			"issued_date": "issued_date",
			"expiry_date": "expiry_date",
			"created_at":  "created_at",
			"updated_at":  "updated_at",
		},
		DefaultOrder: "created_at DESC",
	}
}

// List returns a page of cards through the filter gateway
func (s *CardService) List(ctx context.Context, params query.Params) ([]model.Card, int64, error) {
	return s.cards.List(ctx, params, s.ListConfig())
}

// Get fetches a card by id, including soft-deleted cards
func (s *CardService) Get(ctx context.Context, id uint) (*model.Card, error) {
	card, err := s.cards.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound("card")
		}
		return nil, err
	}
	return card, nil
}

// Activate transitions a deactivated card back to provisioned. Activating
// an expired card is rejected: the expiry must be extended explicitly
// first, so the decision shows up in the audit trail.
func (s *CardService) Activate(ctx context.Context, id uint) (*model.Card, error) {
	card, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if card.DeletedAt.Valid {
		return nil, NewError(KindInvalidTransition, "card is deleted and cannot be activated")
	}
	if card.IsActive {
		return nil, NewError(KindInvalidTransition, "card is already active")
	}
	if card.IsExpired(time.Now()) {
		return nil, NewError(KindCredentialExpired,
			"card has expired; extend the expiry date before activating")
	}

	return s.cards.Update(ctx, id, map[string]interface{}{"is_active": true})
}

// Deactivate transitions a provisioned card to deactivated. Calling it on
// an already inactive or deleted card returns a typed no-op error and
// leaves the stored state untouched.
func (s *CardService) Deactivate(ctx context.Context, id uint) (*model.Card, error) {
	card, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if card.DeletedAt.Valid {
		return nil, NewError(KindInvalidTransition, "card is deleted and cannot be deactivated")
	}
	if !card.IsActive {
		return nil, NewError(KindInvalidTransition, "card is already deactivated")
	}

	return s.cards.Update(ctx, id, map[string]interface{}{"is_active": false})
}

// Delete soft-deletes a card from any non-deleted state and releases the
// subject and RFID reservations so a replacement card can be issued.
func (s *CardService) Delete(ctx context.Context, id uint) (time.Time, error) {
	card, err := s.Get(ctx, id)
	if err != nil {
		return time.Time{}, err
	}

	deletedAt, err := s.cards.SoftDelete(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrAlreadyDeleted) {
			return time.Time{}, ErrAlreadyDeleted("card")
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return time.Time{}, ErrNotFound("card")
		}
		return time.Time{}, err
	}

	s.index.Release(NamespaceSubjectCredential, card.SubjectRef().Key())
	s.index.Release(NamespaceRFIDNumber, card.RFIDNumber)

	return deletedAt, nil
}

// Restore revives a soft-deleted card. Both the subject and the RFID keys
// must be reacquired: either may have been claimed by a newer card while
// this one was deleted, in which case the restore fails with a conflict
// instead of silently colliding.
func (s *CardService) Restore(ctx context.Context, id uint) (*model.Card, error) {
	card, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !card.DeletedAt.Valid {
		return nil, ErrNotDeleted("card")
	}

	subjectKey := card.SubjectRef().Key()
	if err := s.index.Reacquire(NamespaceSubjectCredential, subjectKey, card.ID); err != nil {
		return nil, NewFieldError(KindSubjectHasCredential, "subject_id",
			"subject received a replacement card while this one was deleted")
	}
	if err := s.index.Reacquire(NamespaceRFIDNumber, card.RFIDNumber, card.ID); err != nil {
		s.index.Release(NamespaceSubjectCredential, subjectKey)
		return nil, NewFieldError(KindDuplicateRfid, "rfid_number",
			"rfid number was reassigned while this card was deleted")
	}

	restored, err := s.cards.Restore(ctx, id)
	if err != nil {
		s.index.Release(NamespaceSubjectCredential, subjectKey)
		s.index.Release(NamespaceRFIDNumber, card.RFIDNumber)
		if errors.Is(err, database.ErrNotDeleted) {
			return nil, ErrNotDeleted("card")
		}
		return nil, err
	}
	return restored, nil
}

// ExtendExpiry moves the card's expiry date forward. This is the explicit
// path the activation policy forces for expired cards.
func (s *CardService) ExtendExpiry(ctx context.Context, id uint, newExpiry time.Time) (*model.Card, error) {
	if !newExpiry.After(time.Now()) {
		return nil, ErrValidation("expiry_date", "new expiry date must be in the future")
	}

	card, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if card.DeletedAt.Valid {
		return nil, NewError(KindInvalidTransition, "card is deleted")
	}

	return s.cards.Update(ctx, id, map[string]interface{}{"expiry_date": newExpiry})
}

// SetPhotoURL records the stored card-photo location
func (s *CardService) SetPhotoURL(ctx context.Context, id uint, url string) (*model.Card, error) {
	card, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if card.DeletedAt.Valid {
		return nil, NewError(KindInvalidTransition, "card is deleted")
	}
	return s.cards.Update(ctx, id, map[string]interface{}{"photo_url": url})
}

// VerificationResult is the kiosk-facing verification payload. A missing
// or dead card reports verified=false rather than an error, so the
// endpoint leaks nothing through error codes.
type VerificationResult struct {
	Verified   bool                   `json:"verified"`
	CardActive bool                   `json:"card_active"`
	Subject    *model.SubjectSnapshot `json:"subject,omitempty"`
}

// Verify performs the read-only kiosk check for a subject. It never
// mutates state: expiry is computed from the stored date at call time.
func (s *CardService) Verify(ctx context.Context, ref model.SubjectRef) (*VerificationResult, error) {
	result := &VerificationResult{}

	snapshot, err := s.subjectSnapshot(ctx, ref)
	if err != nil {
		if IsKind(err, KindNotFound) || IsKind(err, KindValidation) {
			return result, nil
		}
		return nil, err
	}
	result.Subject = snapshot

	var card model.Card
	tx := s.db.WithContext(ctx)
	switch ref.Type {
	case model.SubjectTypeStudent:
		tx = tx.Where("student_id = ?", ref.ID)
	case model.SubjectTypeStaff:
		tx = tx.Where("staff_id = ?", ref.ID)
	}
	if err := tx.First(&card).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return result, nil
		}
		return nil, err
	}

	now := time.Now()
	result.Verified = true
	result.CardActive = card.IsActive && !card.IsExpired(now)
	return result, nil
}

// subjectSnapshot loads the subject behind a ref and flattens it into the
// verify payload shape
func (s *CardService) subjectSnapshot(ctx context.Context, ref model.SubjectRef) (*model.SubjectSnapshot, error) {
	switch ref.Type {
	case model.SubjectTypeStudent:
		var student model.Student
		if err := s.db.WithContext(ctx).First(&student, ref.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotFound("student")
			}
			return nil, err
		}
		return &model.SubjectSnapshot{
			SubjectType: model.SubjectTypeStudent,
			SubjectID:   student.ID,
			Number:      student.RegNumber,
			FullName:    student.FullName(),
			Department:  student.Department,
			PhotoURL:    student.PhotoURL,
		}, nil
	case model.SubjectTypeStaff:
		var staff model.Staff
		if err := s.db.WithContext(ctx).First(&staff, ref.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotFound("staff")
			}
			return nil, err
		}
		return &model.SubjectSnapshot{
			SubjectType: model.SubjectTypeStaff,
			SubjectID:   staff.ID,
			Number:      staff.StaffNumber,
			FullName:    staff.FullName(),
			Department:  staff.Department,
			PhotoURL:    staff.PhotoURL,
		}, nil
	default:
		return nil, ErrValidation("subject_type", "subject type must be student or staff")
	}
}
