package cron

import (
	"fmt"
	"time"

	"github.com/Ditronics-Tz/Smart-Acess-Web-sub000/model"
)

const logRetention = 90 * 24 * time.Hour

// AuditExpiredCards counts cards whose expiry date has passed but whose
// is_active flag is still set. It reports the drift without touching the
// cards; verification already treats expired cards as dead.
func (m *CronManager) AuditExpiredCards() {
	jobName := "audit_expired_cards"

	var count int64
	err := m.db.Model(&model.Card{}).
		Where("is_active = ? AND expiry_date IS NOT NULL AND expiry_date <= ?", true, time.Now()).
		Count(&count).Error
	if err != nil {
		m.logJobError(jobName, err)
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("%d active cards past expiry", count))
}

// TrimOldLogs hard-deletes admin audit logs and cron job logs older than
// the retention window.
func (m *CronManager) TrimOldLogs() {
	jobName := "trim_old_logs"
	cutoff := time.Now().Add(-logRetention)

	auditRes := m.db.Unscoped().
		Where("created_at < ?", cutoff).
		Delete(&model.AdminAuditLog{})
	if auditRes.Error != nil {
		m.logJobError(jobName, auditRes.Error)
		return
	}

	cronRes := m.db.Unscoped().
		Where("created_at < ? AND status <> ?", cutoff, "running").
		Delete(&model.CronJobLog{})
	if cronRes.Error != nil {
		m.logJobError(jobName, cronRes.Error)
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("removed %d audit logs, %d cron logs",
		auditRes.RowsAffected, cronRes.RowsAffected))
}

// ReportProvisionJobs summarizes bulk provisioning outcomes over the last
// 24 hours.
func (m *CronManager) ReportProvisionJobs() {
	jobName := "report_provision_jobs"
	since := time.Now().Add(-24 * time.Hour)

	type totals struct {
		Jobs       int64
		Successful int64
		Failed     int64
	}
	var t totals

	err := m.db.Model(&model.ProvisionJob{}).
		Select("COUNT(*) as jobs, COALESCE(SUM(successful), 0) as successful, COALESCE(SUM(failed), 0) as failed").
		Where("created_at >= ?", since).
		Scan(&t).Error
	if err != nil {
		m.logJobError(jobName, err)
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("%d jobs, %d cards issued, %d failures",
		t.Jobs, t.Successful, t.Failed))
}
