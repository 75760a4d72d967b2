package services

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/Ditronics-Tz/Smart-Acess-Web-sub000/model"
	"gorm.io/gorm"
)

const bulkMaxConcurrent = 8

// BulkItemError records why one subject in a batch did not receive a card
type BulkItemError struct {
	Subject model.SubjectRef `json:"subject"`
	Kind    ErrorKind        `json:"kind"`
	Reason  string           `json:"reason"`
}

// BulkSummary carries the batch counts. successful + failed always equals
// total_requested.
type BulkSummary struct {
	TotalRequested int `json:"total_requested"`
	Successful     int `json:"successful"`
	Failed         int `json:"failed"`
}

// BulkResult aggregates the independent per-subject outcomes of one batch
type BulkResult struct {
	JobID   uint            `json:"job_id,omitempty"`
	Created []*model.Card   `json:"created"`
	Errors  []BulkItemError `json:"errors"`
	Summary BulkSummary     `json:"summary"`
}

// BulkProvisionService drives the card service once per batch item. One
// item's failure never halts or rolls back the rest; once a batch is
// submitted every item runs to completion and committed successes stay
// committed.
type BulkProvisionService struct {
	db    *gorm.DB
	cards *CardService
}

// NewBulkProvisionService creates a new bulk provisioning service
func NewBulkProvisionService(db *gorm.DB, cards *CardService) *BulkProvisionService {
	return &BulkProvisionService{
		db:    db,
		cards: cards,
	}
}

// BulkIssue issues one card per subject ref. Items run in parallel: each
// touches a disjoint subject key in the uniqueness index, and when the same
// subject appears twice in one batch the index's atomic reserve makes the
// second occurrence lose deterministically and show up as a per-item error.
func (s *BulkProvisionService) BulkIssue(ctx context.Context, subjects []model.SubjectRef, generateRFID bool, requestedBy *uint) (*BulkResult, error) {
	type itemOutcome struct {
		card *model.Card
		err  *BulkItemError
	}

	outcomes := make([]itemOutcome, len(subjects))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, bulkMaxConcurrent)

	for i, ref := range subjects {
		wg.Add(1)
		go func(idx int, subject model.SubjectRef) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			card, err := s.cards.Issue(ctx, IssueRequest{
				Subject:      subject,
				GenerateRFID: generateRFID,
			})
			if err != nil {
				outcomes[idx] = itemOutcome{err: &BulkItemError{
					Subject: subject,
					Kind:    KindOf(err),
					Reason:  err.Error(),
				}}
				return
			}
			outcomes[idx] = itemOutcome{card: card}
		}(i, ref)
	}

	wg.Wait()

	result := &BulkResult{
		Created: []*model.Card{},
		Errors:  []BulkItemError{},
		Summary: BulkSummary{TotalRequested: len(subjects)},
	}
	for _, outcome := range outcomes {
		if outcome.card != nil {
			result.Created = append(result.Created, outcome.card)
			result.Summary.Successful++
		} else if outcome.err != nil {
			result.Errors = append(result.Errors, *outcome.err)
			result.Summary.Failed++
		}
	}

	s.recordJob(ctx, result, requestedBy)

	return result, nil
}

// recordJob persists the batch outcome for audit. A bookkeeping failure is
// logged, never surfaced: the cards are already committed.
func (s *BulkProvisionService) recordJob(ctx context.Context, result *BulkResult, requestedBy *uint) {
	status := model.ProvisionJobStatusCompleted
	switch {
	case result.Summary.Successful == 0 && result.Summary.Failed > 0:
		status = model.ProvisionJobStatusFailed
	case result.Summary.Failed > 0:
		status = model.ProvisionJobStatusPartial
	}

	errorsJSON, err := json.Marshal(result.Errors)
	if err != nil {
		log.Printf("bulk provision: failed to encode item errors: %v", err)
		errorsJSON = []byte("[]")
	}

	job := model.ProvisionJob{
		RequestedBy:    requestedBy,
		TotalRequested: result.Summary.TotalRequested,
		Successful:     result.Summary.Successful,
		Failed:         result.Summary.Failed,
		Status:         status,
		Errors:         errorsJSON,
	}
	if err := s.db.WithContext(ctx).Create(&job).Error; err != nil {
		log.Printf("bulk provision: failed to record job: %v", err)
		return
	}
	result.JobID = job.ID
}

// ListJobs returns recent provisioning runs, newest first
func (s *BulkProvisionService) ListJobs(ctx context.Context, limit int) ([]model.ProvisionJob, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var jobs []model.ProvisionJob
	err := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&jobs).Error
	return jobs, err
}
