// services/sse_coin_stream.go
package services

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"mythic-quest-system/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// StreamCoinEventsSSE streams new ledger entries for the authenticated hero.
// The client uses the animation hint on each entry to play the matching
// coin animation in real time.
func (s *WalletService) StreamCoinEventsSSE(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	// SSE headers
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no") // nginx

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()

		var lastSeen time.Time

		// Initialize the cursor so reconnecting clients only get new entries.
		var latest models.CoinTransaction
		if err := s.DB.
			Where("external_user_id = ?", userID).
			Order("timestamp DESC").
			First(&latest).Error; err == nil {
			lastSeen = latest.Timestamp
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("SSE init error for user %s: %v", userID, err)
		}

		// Initial keepalive (comment event)
		w.WriteString(":\n\n")
		w.Flush()

		for {
			select {
			case <-ticker.C:
				var entries []models.CoinTransaction

				err := s.DB.
					Where("external_user_id = ? AND timestamp > ?", userID, lastSeen).
					Order("timestamp ASC").
					Find(&entries).Error

				if err != nil {
					log.Printf("SSE query error for user %s: %v", userID, err)
					continue
				}

				if len(entries) == 0 {
					continue
				}

				lastSeen = entries[len(entries)-1].Timestamp

				for _, entry := range entries {
					payload, _ := json.Marshal(entry)

					fmt.Fprintf(w,
						"event: coin\ndata: %s\n\n",
						payload,
					)
				}

				if err := w.Flush(); err != nil {
					// Client disconnected
					return
				}

			case <-c.Context().Done():
				// Client closed connection
				return
			}
		}
	})

	return nil
}
