package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/sahilchouksey/coursehive/model"
)

const (
	// abandonedAfter is how long a pending purchase without an enrollment
	// may sit before it is marked failed
	abandonedAfter = 24 * time.Hour

	// jobLogRetention is how long completed cron job logs are kept
	jobLogRetention = 30 * 24 * time.Hour
)

// SettleStrandedPurchases completes pending purchases whose enrollment
// already exists. This covers a crash between enrollment and settlement
// during webhook processing: the student keeps access either way, and the
// purchase record catches up here.
func (m *CronManager) SettleStrandedPurchases() {
	jobName := "settle_stranded_purchases"

	result := m.db.Model(&model.Purchase{}).
		Where("status = ?", model.PurchaseStatusPending).
		Where("EXISTS (SELECT 1 FROM enrollments e WHERE e.user_id = purchases.user_id AND e.course_id = purchases.course_id)").
		Update("status", model.PurchaseStatusCompleted)

	if result.Error != nil {
		m.logJobError(jobName, result.Error)
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Settled %d stranded purchases", result.RowsAffected))
}

// ExpireAbandonedPurchases fails pending purchases that were never paid.
// Purchases with an enrollment are left for the settlement sweep.
func (m *CronManager) ExpireAbandonedPurchases() {
	jobName := "expire_abandoned_purchases"

	cutoff := time.Now().Add(-abandonedAfter)

	result := m.db.Model(&model.Purchase{}).
		Where("status = ?", model.PurchaseStatusPending).
		Where("created_at < ?", cutoff).
		Where("NOT EXISTS (SELECT 1 FROM enrollments e WHERE e.user_id = purchases.user_id AND e.course_id = purchases.course_id)").
		Update("status", model.PurchaseStatusFailed)

	if result.Error != nil {
		m.logJobError(jobName, result.Error)
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Expired %d abandoned purchases", result.RowsAffected))
}

// CleanupOldData removes expired blacklisted tokens and old cron job logs
func (m *CronManager) CleanupOldData() {
	jobName := "cleanup_old_data"

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := m.blacklist.CleanupExpiredTokens(ctx); err != nil {
		m.logJobError(jobName, err)
		return
	}

	logCutoff := time.Now().Add(-jobLogRetention)
	result := m.db.Unscoped().
		Where("created_at < ?", logCutoff).
		Delete(&model.CronJobLog{})
	if result.Error != nil {
		m.logJobError(jobName, result.Error)
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Removed %d old job logs", result.RowsAffected))
}
