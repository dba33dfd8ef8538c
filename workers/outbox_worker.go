// workers/outbox_worker.go
package workers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"mythic-quest-system/models"
	"mythic-quest-system/utils"

	"github.com/cenkalti/backoff/v4"
	"gorm.io/gorm"
)

// outboxPaths maps an entry kind to the sync-service endpoint it is pushed to.
var outboxPaths = map[models.OutboxKind]string{
	models.OutboxProgressSync: "/api/v1/sync/progress",
	models.OutboxWalkingSync:  "/api/v1/sync/walking",
	models.OutboxQuestRecord:  "/api/v1/sync/quest-records",
	models.OutboxSocialPost:   "/api/v1/sync/social-posts",
	models.OutboxVoiceLine:    "/api/v1/sync/voice-lines",
}

const (
	outboxBatchSize   = 50
	outboxMaxAttempts = 8
)

// OutboxWorker drains durable outbox entries to the external sync service.
// Entries are written in the same transaction as the reward mutation they
// mirror; this worker owns delivery, with per-entry exponential backoff.
type OutboxWorker struct {
	db           *gorm.DB
	interval     time.Duration
	baseURL      string
	serviceToken string
	httpClient   *http.Client
}

func NewOutboxWorker(db *gorm.DB, syncServiceBaseURL, serviceToken string) *OutboxWorker {
	return &OutboxWorker{
		db:           db,
		interval:     5 * time.Second,
		baseURL:      syncServiceBaseURL,
		serviceToken: serviceToken,
		httpClient:   utils.HTTPClient,
	}
}

func (w *OutboxWorker) Start(ctx context.Context) {
	log.Println("🔁 Starting Outbox Worker (outbox_entries → sync service)…")
	go w.run(ctx)
}

func (w *OutboxWorker) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.drainBatch(ctx); err != nil {
				log.Printf("❌ Outbox drain failed: %v", err)
			}
		case <-ctx.Done():
			log.Println("⏹️ Outbox Worker stopped")
			return
		}
	}
}

// drainBatch pushes the oldest undispatched entries. A failed entry keeps
// its row with the error recorded and is retried on later ticks until the
// attempt cap; it never blocks newer entries of other users.
func (w *OutboxWorker) drainBatch(ctx context.Context) error {
	var entries []models.OutboxEntry
	if err := w.db.
		Where("dispatched_at IS NULL AND attempts < ?", outboxMaxAttempts).
		Order("created_at ASC").
		Limit(outboxBatchSize).
		Find(&entries).Error; err != nil {
		return err
	}

	if len(entries) == 0 {
		return nil
	}

	var delivered int
	for i := range entries {
		entry := &entries[i]
		if err := w.dispatch(ctx, entry); err != nil {
			entry.Attempts++
			entry.LastError = err.Error()
			if saveErr := w.db.Save(entry).Error; saveErr != nil {
				log.Printf("⚠️ Failed to record outbox failure for %s: %v", entry.ID, saveErr)
			}
			log.Printf("⚠️ Outbox entry %s (%s) failed attempt %d: %v",
				entry.ID, entry.Kind, entry.Attempts, err)
			continue
		}

		now := time.Now()
		entry.DispatchedAt = &now
		entry.LastError = ""
		if err := w.db.Save(entry).Error; err != nil {
			log.Printf("⚠️ Failed to mark outbox entry %s dispatched: %v", entry.ID, err)
			continue
		}
		delivered++
	}

	if delivered > 0 {
		log.Printf("📤 Dispatched %d outbox entr(ies) to sync service", delivered)
	}
	return nil
}

// dispatch POSTs one entry with short exponential backoff around transient
// network errors. Non-2xx responses from the sync service count as one
// failed attempt rather than being retried inline.
func (w *OutboxWorker) dispatch(ctx context.Context, entry *models.OutboxEntry) error {
	path, ok := outboxPaths[entry.Kind]
	if !ok {
		return fmt.Errorf("no sync endpoint for outbox kind %q", entry.Kind)
	}

	base, err := url.Parse(w.baseURL)
	if err != nil {
		return fmt.Errorf("invalid sync service URL %q: %w", w.baseURL, err)
	}
	endpoint := base.JoinPath(path).String()

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader([]byte(entry.Payload)))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Service-Token", w.serviceToken)
		req.Header.Set("X-User-ID", entry.ExternalUserID)

		resp, err := w.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer func() {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		err = fmt.Errorf("sync service returned %d: %s", resp.StatusCode, string(body))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	return backoff.Retry(operation, policy)
}
