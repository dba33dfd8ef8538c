package services

import (
	"sync"
	"testing"
	"time"

	"mythic-quest-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeCompleter struct {
	mu        sync.Mutex
	questIDs  []string
	distances []float64
}

func (f *fakeCompleter) CompleteQuest(externalUserID, questID string, distanceWalked float64) (*CompleteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.questIDs = append(f.questIDs, questID)
	f.distances = append(f.distances, distanceWalked)
	return &CompleteResult{QuestID: questID}, nil
}

func newTracker(t *testing.T) (*WalkTracker, *fakeCompleter, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	fake := &fakeCompleter{}
	return NewWalkTracker(db, fake), fake, db
}

func seedWalkingQuest(t *testing.T, db *gorm.DB, targetDistance float64, targetSteps int64) *models.Quest {
	t.Helper()
	return seedQuest(t, db, models.Quest{
		ExternalUserID: "hero-1",
		Title:          "Morning Walk",
		Type:           models.QuestTypeWalking,
		Difficulty:     models.DifficultyEasy,
		TargetDistance: targetDistance,
		TargetSteps:    targetSteps,
	})
}

func TestHaversineMeters(t *testing.T) {
	// one degree of longitude at the equator
	d := haversineMeters(0, 0, 0, 1)
	assert.InDelta(t, 111194.9, d, 1.0)

	assert.Zero(t, haversineMeters(51.5, -0.12, 51.5, -0.12))
}

func TestStartSessionValidation(t *testing.T) {
	tracker, _, db := newTracker(t)

	reading := seedQuest(t, db, models.Quest{
		ExternalUserID: "hero-1",
		Title:          "Read a Book",
		Type:           models.QuestTypeReading,
		Difficulty:     models.DifficultyEasy,
	})
	_, err := tracker.StartSession("hero-1", reading.ID)
	assert.ErrorIs(t, err, ErrNotWalkingQuest)

	done := seedQuest(t, db, models.Quest{
		ExternalUserID: "hero-1",
		Title:          "Done Walk",
		Type:           models.QuestTypeWalking,
		Difficulty:     models.DifficultyEasy,
		Completed:      true,
	})
	_, err = tracker.StartSession("hero-1", done.ID)
	assert.ErrorIs(t, err, ErrQuestAlreadyDone)

	_, err = tracker.StartSession("hero-1", "no-such-quest")
	assert.Error(t, err)

	quest := seedWalkingQuest(t, db, 1000, 0)
	progress, err := tracker.StartSession("hero-1", quest.ID)
	require.NoError(t, err)
	assert.True(t, progress.IsTracking)
	assert.Zero(t, progress.CurrentDistance)

	_, err = tracker.StartSession("hero-1", quest.ID)
	assert.ErrorIs(t, err, ErrSessionExists)

	var reloaded models.Quest
	require.NoError(t, db.First(&reloaded, "id = ?", quest.ID).Error)
	assert.True(t, reloaded.IsTracking)
}

func TestIngestPositionNoiseFilters(t *testing.T) {
	tracker, _, db := newTracker(t)
	quest := seedWalkingQuest(t, db, 10_000, 0)
	_, err := tracker.StartSession("hero-1", quest.ID)
	require.NoError(t, err)

	now := time.Now()

	// poor accuracy: ignored entirely, does not even anchor the track
	progress, err := tracker.IngestPosition("hero-1", quest.ID, 0, 0, 80, now)
	require.NoError(t, err)
	assert.Zero(t, progress.CurrentDistance)

	// first good fix anchors
	progress, err = tracker.IngestPosition("hero-1", quest.ID, 0, 0, 10, now)
	require.NoError(t, err)
	assert.Zero(t, progress.CurrentDistance)

	// sub-half-meter jitter rejected
	progress, err = tracker.IngestPosition("hero-1", quest.ID, 0.0000009, 0, 10, now)
	require.NoError(t, err)
	assert.Zero(t, progress.CurrentDistance)

	// 150m+ jump rejected, but it still becomes the new reference point
	progress, err = tracker.IngestPosition("hero-1", quest.ID, 0.0015, 0, 10, now)
	require.NoError(t, err)
	assert.Zero(t, progress.CurrentDistance)

	// a plausible 50m hop measured from the jump point counts
	progress, err = tracker.IngestPosition("hero-1", quest.ID, 0.00195, 0, 10, now)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, progress.CurrentDistance, 1.0)
}

func TestStepDetection(t *testing.T) {
	tracker, _, db := newTracker(t)
	quest := seedWalkingQuest(t, db, 0, 100)
	_, err := tracker.StartSession("hero-1", quest.ID)
	require.NoError(t, err)

	at := time.Now()

	// fill the window with resting gravity readings
	for i := 0; i < 9; i++ {
		_, err := tracker.IngestMotion("hero-1", quest.ID, 0, 0, 9.8, at)
		require.NoError(t, err)
	}

	// a clear peak registers one step
	progress, err := tracker.IngestMotion("hero-1", quest.ID, 0, 0, 15, at)
	require.NoError(t, err)
	assert.Equal(t, int64(1), progress.CurrentSteps)

	// another peak inside the refractory interval does not
	progress, err = tracker.IngestMotion("hero-1", quest.ID, 0, 0, 15, at.Add(100*time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, int64(1), progress.CurrentSteps)

	// past the interval it counts again
	_, err = tracker.IngestMotion("hero-1", quest.ID, 0, 0, 9.8, at.Add(300*time.Millisecond))
	require.NoError(t, err)
	progress, err = tracker.IngestMotion("hero-1", quest.ID, 0, 0, 15, at.Add(500*time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, int64(2), progress.CurrentSteps)
}

func TestStepDetectionBelowThresholdIgnored(t *testing.T) {
	tracker, _, db := newTracker(t)
	quest := seedWalkingQuest(t, db, 0, 100)
	_, err := tracker.StartSession("hero-1", quest.ID)
	require.NoError(t, err)

	at := time.Now()
	for i := 0; i < 20; i++ {
		progress, err := tracker.IngestMotion("hero-1", quest.ID, 0, 0, 11, at.Add(time.Duration(i)*400*time.Millisecond))
		require.NoError(t, err)
		assert.Zero(t, progress.CurrentSteps)
	}
}

func TestStepTargetCompletesQuest(t *testing.T) {
	tracker, fake, db := newTracker(t)
	quest := seedWalkingQuest(t, db, 0, 2)
	_, err := tracker.StartSession("hero-1", quest.ID)
	require.NoError(t, err)

	at := time.Now()
	for i := 0; i < 9; i++ {
		_, err := tracker.IngestMotion("hero-1", quest.ID, 0, 0, 9.8, at)
		require.NoError(t, err)
	}
	_, err = tracker.IngestMotion("hero-1", quest.ID, 0, 0, 15, at)
	require.NoError(t, err)
	_, err = tracker.IngestMotion("hero-1", quest.ID, 0, 0, 9.8, at.Add(300*time.Millisecond))
	require.NoError(t, err)

	progress, err := tracker.IngestMotion("hero-1", quest.ID, 0, 0, 15, at.Add(500*time.Millisecond))
	require.NoError(t, err)
	assert.True(t, progress.Completed)
	assert.False(t, progress.IsTracking)

	require.Len(t, fake.questIDs, 1)
	assert.Equal(t, quest.ID, fake.questIDs[0])

	// session is gone; further samples are rejected
	_, err = tracker.IngestMotion("hero-1", quest.ID, 0, 0, 15, at.Add(time.Second))
	assert.ErrorIs(t, err, ErrSessionNotFound)

	var reloaded models.Quest
	require.NoError(t, db.First(&reloaded, "id = ?", quest.ID).Error)
	assert.Equal(t, int64(2), reloaded.CurrentSteps)
}

func TestDistanceTargetCompletesQuest(t *testing.T) {
	tracker, fake, db := newTracker(t)
	quest := seedWalkingQuest(t, db, 100, 0)
	_, err := tracker.StartSession("hero-1", quest.ID)
	require.NoError(t, err)

	now := time.Now()
	_, err = tracker.IngestPosition("hero-1", quest.ID, 0, 0, 10, now)
	require.NoError(t, err)

	// two ~60m hops cross the 100m target
	progress, err := tracker.IngestPosition("hero-1", quest.ID, 0.00054, 0, 10, now)
	require.NoError(t, err)
	assert.False(t, progress.Completed)

	progress, err = tracker.IngestPosition("hero-1", quest.ID, 0.00108, 0, 10, now)
	require.NoError(t, err)
	assert.True(t, progress.Completed)

	require.Len(t, fake.questIDs, 1)
	assert.InDelta(t, 120.0, fake.distances[0], 2.0)
}

func TestStopSessionDropsLateSamples(t *testing.T) {
	tracker, fake, db := newTracker(t)
	quest := seedWalkingQuest(t, db, 10_000, 0)
	_, err := tracker.StartSession("hero-1", quest.ID)
	require.NoError(t, err)

	now := time.Now()
	_, err = tracker.IngestPosition("hero-1", quest.ID, 0, 0, 10, now)
	require.NoError(t, err)
	_, err = tracker.IngestPosition("hero-1", quest.ID, 0.00054, 0, 10, now)
	require.NoError(t, err)

	progress, err := tracker.StopSession("hero-1", quest.ID)
	require.NoError(t, err)
	assert.False(t, progress.IsTracking)
	assert.InDelta(t, 60.0, progress.CurrentDistance, 1.0)

	_, err = tracker.IngestPosition("hero-1", quest.ID, 0.001, 0, 10, now)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// stopping short of the target never completes the quest
	assert.Empty(t, fake.questIDs)

	var reloaded models.Quest
	require.NoError(t, db.First(&reloaded, "id = ?", quest.ID).Error)
	assert.False(t, reloaded.IsTracking)
	assert.InDelta(t, 60.0, reloaded.Progress, 1.0)
}

func TestSessionRejectsOtherHeroes(t *testing.T) {
	tracker, fake, db := newTracker(t)
	quest := seedWalkingQuest(t, db, 100, 0)
	_, err := tracker.StartSession("hero-1", quest.ID)
	require.NoError(t, err)

	now := time.Now()
	_, err = tracker.IngestPosition("hero-1", quest.ID, 0, 0, 10, now)
	require.NoError(t, err)

	// another hero cannot feed, read or tear down the session
	_, err = tracker.IngestPosition("hero-2", quest.ID, 0.00054, 0, 10, now)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = tracker.IngestMotion("hero-2", quest.ID, 0, 0, 15, now)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = tracker.Progress("hero-2", quest.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = tracker.StopSession("hero-2", quest.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Empty(t, fake.questIDs)

	// the owner's session is untouched
	progress, err := tracker.Progress("hero-1", quest.ID)
	require.NoError(t, err)
	assert.True(t, progress.IsTracking)
	assert.Zero(t, progress.CurrentDistance)
}

func TestAutoCompletionAwardsMilestones(t *testing.T) {
	db := newTestDB(t)
	svc := newQuestService(db)
	tracker := NewWalkTracker(db, svc)
	seedHero(t, NewProgressionService(db), "hero-1")
	quest := seedWalkingQuest(t, db, 100, 0)

	_, err := tracker.StartSession("hero-1", quest.ID)
	require.NoError(t, err)

	now := time.Now()
	_, err = tracker.IngestPosition("hero-1", quest.ID, 0, 0, 10, now)
	require.NoError(t, err)
	_, err = tracker.IngestPosition("hero-1", quest.ID, 0.00054, 0, 10, now)
	require.NoError(t, err)
	progress, err := tracker.IngestPosition("hero-1", quest.ID, 0.00108, 0, 10, now)
	require.NoError(t, err)
	require.True(t, progress.Completed)

	var reloaded models.Quest
	require.NoError(t, db.First(&reloaded, "id = ?", quest.ID).Error)
	assert.True(t, reloaded.Completed)

	// tracker-driven completions go through the full reward sequence,
	// milestone evaluation included
	var award models.UserMilestone
	require.NoError(t, db.Where("external_user_id = ? AND code = ?", "hero-1", "FIRST_QUEST").First(&award).Error)

	var hero models.User
	require.NoError(t, db.Where("external_user_id = ?", "hero-1").First(&hero).Error)
	assert.Equal(t, int64(1), hero.QuestsCompleted)
	assert.Equal(t, int64(125), hero.MythicCoins) // 50 starting + 25 quest + 50 milestone
}
