package healthcheck

import (
	"sync"
	"time"
)

// Snapshot describes the latest autosave check and save result.
type Snapshot struct {
	LastCheckTime       *time.Time `json:"last_check_time"`
	LastSaveTime        *time.Time `json:"last_save_time"`
	LastSaveDurationMS  int64      `json:"last_save_duration_ms"`
	LastSaveSucceeded   bool       `json:"last_save_succeeded"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	SavesCompleted      int        `json:"saves_completed"`
}

// Tracker records autosave activity for health endpoints.
type Tracker struct {
	mu                  sync.RWMutex
	now                 func() time.Time
	lastCheck           time.Time
	lastSave            time.Time
	saveDuration        time.Duration
	lastSaveOK          bool
	consecutiveFailures int
	savesCompleted      int
}

// NewTracker constructs a new Tracker.
func NewTracker() *Tracker {
	return &Tracker{now: func() time.Time { return time.Now().UTC() }}
}

// RecordCheck marks one completed autosave check, whether or not it saved.
func (t *Tracker) RecordCheck() {
	if t == nil {
		return
	}
	now := t.now()
	t.mu.Lock()
	t.lastCheck = now
	t.mu.Unlock()
}

// RecordSave records the result of a finished save.
func (t *Tracker) RecordSave(duration time.Duration, success bool) {
	if t == nil {
		return
	}
	now := t.now()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastSave = now
	t.saveDuration = duration
	t.lastSaveOK = success
	t.savesCompleted++
	if success {
		t.consecutiveFailures = 0
	} else {
		t.consecutiveFailures++
	}
}

// Snapshot returns the current tracker snapshot.
func (t *Tracker) Snapshot() Snapshot {
	if t == nil {
		return Snapshot{}
	}
	t.mu.RLock()
	defer t.mu.RUnlock()

	return Snapshot{
		LastCheckTime:       timePtr(t.lastCheck),
		LastSaveTime:        timePtr(t.lastSave),
		LastSaveDurationMS:  int64(t.saveDuration / time.Millisecond),
		LastSaveSucceeded:   t.lastSaveOK,
		ConsecutiveFailures: t.consecutiveFailures,
		SavesCompleted:      t.savesCompleted,
	}
}

func timePtr(value time.Time) *time.Time {
	if value.IsZero() {
		return nil
	}
	return &value
}

// Ready reports whether the first autosave check has completed.
func (t *Tracker) Ready() bool {
	if t == nil {
		return false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return !t.lastCheck.IsZero()
}

// Healthy reports whether the last check ran within 2x the autosave
// interval and the most recent save, if any, succeeded.
func (t *Tracker) Healthy(now time.Time, interval time.Duration) bool {
	if t == nil {
		return false
	}
	if interval <= 0 {
		return false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.lastCheck.IsZero() {
		return false
	}
	if t.savesCompleted > 0 && !t.lastSaveOK {
		return false
	}
	return now.Sub(t.lastCheck) <= 2*interval
}
