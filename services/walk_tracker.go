// services/walk_tracker.go
package services

import (
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"mythic-quest-system/models"

	"gorm.io/gorm"
)

// Sensor fusion tuning. A single GPS hop outside (0.5 m, 100 m) is treated
// as noise or a jump; fixes with accuracy worse than 50 m are ignored
// entirely. Step detection runs peak detection over a 10-sample window with
// a 300 ms refractory interval.
const (
	MaxFixAccuracyMeters = 50.0
	MinHopMeters         = 0.5
	MaxHopMeters         = 100.0

	StepAccelThreshold = 12.0
	StepPeakLookback   = 5
	StepAvgMargin      = 3.0
	StepWindowSize     = 10
	MinStepInterval    = 300 * time.Millisecond

	earthRadiusMeters = 6371e3
)

var (
	ErrSessionExists    = errors.New("walking session already active for quest")
	ErrSessionNotFound  = errors.New("no active walking session for quest")
	ErrNotWalkingQuest  = errors.New("quest is not a walking quest")
	ErrQuestAlreadyDone = errors.New("quest already completed")
)

// questCompleter lets tests substitute the orchestrator.
type questCompleter interface {
	CompleteQuest(externalUserID, questID string, distanceWalked float64) (*CompleteResult, error)
}

type position struct {
	lat, lon float64
	at       time.Time
}

// walkSession is the ephemeral per-quest tracking state. Sessions live in
// memory only; a reload starts from zero.
type walkSession struct {
	externalUserID string
	questID        string

	targetDistance float64
	targetSteps    int64

	active        bool
	lastFix       *position
	totalDistance float64

	steps       int64
	lastStepAt  time.Time
	accelWindow []float64

	completed bool
}

// WalkTracker fuses two independent progress signals, GPS distance deltas
// and accelerometer step detection, into one completion decision. Either
// signal reaching its target completes the quest (OR-gate): a deliberate
// fallback for devices lacking one of the two sensors.
type WalkTracker struct {
	mu       sync.Mutex
	sessions map[string]*walkSession // keyed by quest id

	DB     *gorm.DB
	quests questCompleter
}

func NewWalkTracker(db *gorm.DB, quests questCompleter) *WalkTracker {
	return &WalkTracker{
		sessions: make(map[string]*walkSession),
		DB:       db,
		quests:   quests,
	}
}

// WalkProgress is the live view returned to the client after each sample.
type WalkProgress struct {
	QuestID         string  `json:"quest_id"`
	CurrentDistance float64 `json:"current_distance"`
	CurrentSteps    int64   `json:"current_steps"`
	TargetDistance  float64 `json:"target_distance"`
	TargetSteps     int64   `json:"target_steps"`
	IsTracking      bool    `json:"is_tracking"`
	Completed       bool    `json:"completed"`
}

// StartSession opens a tracking session for a walking quest. The client is
// responsible for the sensor permission dance (geolocation grant, and the
// explicit user-gesture device-motion grant iOS requires) before it starts
// posting samples.
func (t *WalkTracker) StartSession(externalUserID, questID string) (*WalkProgress, error) {
	var quest models.Quest
	if err := t.DB.Where("id = ? AND external_user_id = ?", questID, externalUserID).First(&quest).Error; err != nil {
		return nil, fmt.Errorf("quest %s not found: %w", questID, err)
	}
	if quest.Type != models.QuestTypeWalking {
		return nil, ErrNotWalkingQuest
	}
	if quest.Completed {
		return nil, ErrQuestAlreadyDone
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if existing, ok := t.sessions[questID]; ok && existing.active {
		return nil, ErrSessionExists
	}

	t.sessions[questID] = &walkSession{
		externalUserID: externalUserID,
		questID:        questID,
		targetDistance: quest.TargetDistance,
		targetSteps:    quest.TargetSteps,
		active:         true,
	}

	if err := t.DB.Model(&models.Quest{}).Where("id = ?", questID).
		Update("is_tracking", true).Error; err != nil {
		log.Printf("⚠️  Failed to flag quest %s as tracking: %v", questID, err)
	}

	log.Printf("🚶 Walking session started: quest %s (target %.0fm / %d steps)",
		questID, quest.TargetDistance, quest.TargetSteps)
	return t.progressLocked(t.sessions[questID]), nil
}

// IngestPosition folds one GPS fix into the session. The first fix anchors
// the track; later fixes add the great-circle hop from the previous one
// unless the fix or the hop fails the noise filters. The previous fix is
// always replaced so a rejected jump does not poison the next delta.
func (t *WalkTracker) IngestPosition(externalUserID, questID string, lat, lon, accuracy float64, at time.Time) (*WalkProgress, error) {
	t.mu.Lock()
	session, ok := t.sessions[questID]
	if !ok || !session.active || session.externalUserID != externalUserID {
		t.mu.Unlock()
		// Late callbacks after stop are dropped, not errors for the sensor loop.
		// A mismatched hero gets the same answer: sessions are not guessable.
		return nil, ErrSessionNotFound
	}

	if accuracy <= MaxFixAccuracyMeters {
		fix := &position{lat: lat, lon: lon, at: at}
		if session.lastFix != nil {
			hop := haversineMeters(session.lastFix.lat, session.lastFix.lon, lat, lon)
			if hop > MinHopMeters && hop < MaxHopMeters {
				session.totalDistance += hop
			}
		}
		session.lastFix = fix
	}

	progress := t.progressLocked(session)
	complete := t.reachedTargetLocked(session)
	t.mu.Unlock()

	if complete {
		t.completeSession(session)
		progress.Completed = true
		progress.IsTracking = false
	}
	return progress, nil
}

// IngestMotion folds one accelerometer sample into the step detector: the
// magnitude must clear the threshold, be a local maximum over the last 5
// samples, sit 3 above the window average, and land at least 300 ms after
// the previous step.
func (t *WalkTracker) IngestMotion(externalUserID, questID string, x, y, z float64, at time.Time) (*WalkProgress, error) {
	t.mu.Lock()
	session, ok := t.sessions[questID]
	if !ok || !session.active || session.externalUserID != externalUserID {
		t.mu.Unlock()
		return nil, ErrSessionNotFound
	}

	magnitude := math.Sqrt(x*x + y*y + z*z)
	session.accelWindow = append(session.accelWindow, magnitude)
	if len(session.accelWindow) > StepWindowSize {
		session.accelWindow = session.accelWindow[1:]
	}

	if len(session.accelWindow) == StepWindowSize && isStep(session.accelWindow, magnitude) {
		if at.Sub(session.lastStepAt) >= MinStepInterval {
			session.steps++
			session.lastStepAt = at
		}
	}

	progress := t.progressLocked(session)
	complete := t.reachedTargetLocked(session)
	t.mu.Unlock()

	if complete {
		t.completeSession(session)
		progress.Completed = true
		progress.IsTracking = false
	}
	return progress, nil
}

// StopSession tears the session down and returns the final accumulated
// progress. Samples arriving afterwards are ignored via the active flag.
func (t *WalkTracker) StopSession(externalUserID, questID string) (*WalkProgress, error) {
	t.mu.Lock()
	session, ok := t.sessions[questID]
	if !ok || session.externalUserID != externalUserID {
		t.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	session.active = false
	progress := t.progressLocked(session)
	delete(t.sessions, questID)
	t.mu.Unlock()

	if err := t.DB.Model(&models.Quest{}).Where("id = ?", questID).
		Updates(map[string]interface{}{
			"is_tracking":   false,
			"progress":      progress.CurrentDistance,
			"current_steps": progress.CurrentSteps,
		}).Error; err != nil {
		log.Printf("⚠️  Failed to persist final walk progress for quest %s: %v", questID, err)
	}

	log.Printf("🚶 Walking session stopped: quest %s (%.0fm, %d steps)",
		questID, progress.CurrentDistance, progress.CurrentSteps)
	return progress, nil
}

// Progress reports the live state without mutating it.
func (t *WalkTracker) Progress(externalUserID, questID string) (*WalkProgress, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	session, ok := t.sessions[questID]
	if !ok || session.externalUserID != externalUserID {
		return nil, ErrSessionNotFound
	}
	return t.progressLocked(session), nil
}

// reachedTargetLocked is the OR-gate: either sensor alone satisfies the
// quest. GPS and steps are not reconciled against each other: treadmill
// walking with a stationary GPS still completes via steps.
func (t *WalkTracker) reachedTargetLocked(s *walkSession) bool {
	if s.completed {
		return false
	}
	distanceHit := s.targetDistance > 0 && s.totalDistance >= s.targetDistance
	stepsHit := s.targetSteps > 0 && s.steps >= s.targetSteps
	if distanceHit || stepsHit {
		s.completed = true
		s.active = false
		return true
	}
	return false
}

func (t *WalkTracker) completeSession(s *walkSession) {
	if err := t.DB.Model(&models.Quest{}).Where("id = ?", s.questID).
		Update("current_steps", s.steps).Error; err != nil {
		log.Printf("⚠️  Failed to persist step count for quest %s: %v", s.questID, err)
	}
	if _, err := t.quests.CompleteQuest(s.externalUserID, s.questID, s.totalDistance); err != nil {
		log.Printf("❌ Auto-completion failed for walking quest %s: %v", s.questID, err)
	}
	t.mu.Lock()
	delete(t.sessions, s.questID)
	t.mu.Unlock()
}

func (t *WalkTracker) progressLocked(s *walkSession) *WalkProgress {
	return &WalkProgress{
		QuestID:         s.questID,
		CurrentDistance: s.totalDistance,
		CurrentSteps:    s.steps,
		TargetDistance:  s.targetDistance,
		TargetSteps:     s.targetSteps,
		IsTracking:      s.active,
		Completed:       s.completed,
	}
}

// isStep runs peak detection over the acceleration window.
func isStep(window []float64, current float64) bool {
	if current < StepAccelThreshold {
		return false
	}

	recent := window[len(window)-StepPeakLookback:]
	for _, v := range recent {
		if current < v {
			return false
		}
	}

	sum := 0.0
	for _, v := range window {
		sum += v
	}
	average := sum / float64(len(window))
	return current > average+StepAvgMargin
}

// haversineMeters computes the great-circle distance between two fixes.
func haversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}
