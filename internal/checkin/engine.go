// Package checkin implements the safety check-in state machine: arm a
// countdown toward a destination, cancel it in time, or let it expire
// and alert the selected emergency contacts.
package checkin

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ailahq/safecheck/internal/clock"
	"github.com/ailahq/safecheck/internal/domain/contact"
	"github.com/ailahq/safecheck/internal/notifications"
	"github.com/ailahq/safecheck/internal/observability"
)

type State string

const (
	StateIdle      State = "idle"
	StateArmed     State = "armed"
	StateTriggered State = "triggered"
)

// DefaultDurationMinutes is what a fresh or dismissed session falls
// back to.
const DefaultDurationMinutes = 5

// DurationPresets are the only accepted countdown lengths, in minutes.
var DurationPresets = []int{5, 10, 15, 30, 45, 60, 120}

var (
	ErrNoContactsSelected = errors.New("no contacts selected")
	ErrNoDestination      = errors.New("destination is required")
	ErrBadDuration        = errors.New("duration is not one of the presets")
	ErrInvalidState       = errors.New("operation not valid in current state")
)

// ContactLister is the slice of the contact book the engine needs at
// trigger time.
type ContactLister interface {
	ListFor(ctx context.Context, ownerID string) ([]contact.Contact, error)
}

// Manager holds one check-in session per user and serializes
// start/cancel/tick/dismiss for each of them, so the state-machine
// invariants hold even with the API and the ticker racing.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*session

	contacts ContactLister
	notifier notifications.Notifier
	clock    clock.Clock
	prom     *observability.Prom
	log      *slog.Logger
}

type session struct {
	userID          string
	state           State
	selected        []string
	destination     string
	durationMinutes int
	remaining       int // seconds

	// epoch distinguishes Armed episodes so a late tick from a torn
	// down ticker can never touch a newer episode.
	epoch int
	done  chan struct{}
}

// Snapshot is the read-only view the API serves.
type Snapshot struct {
	State              State    `json:"state"`
	Destination        string   `json:"destination"`
	DurationMinutes    int      `json:"durationMinutes"`
	RemainingSeconds   int      `json:"remainingSeconds"`
	SelectedContactIDs []string `json:"selectedContactIds"`
}

func NewManager(contacts ContactLister, notifier notifications.Notifier, clk clock.Clock, prom *observability.Prom, log *slog.Logger) *Manager {
	return &Manager{
		sessions: make(map[string]*session),
		contacts: contacts,
		notifier: notifier,
		clock:    clk,
		prom:     prom,
		log:      log,
	}
}

// Start arms the countdown: remaining = minutes*60 seconds, ticking
// once per second until cancelled or expired. Only valid from Idle.
func (m *Manager) Start(ctx context.Context, userID string, contactIDs []string, destination string, minutes int) error {
	selected := dedup(contactIDs)
	if len(selected) == 0 {
		return ErrNoContactsSelected
	}
	if strings.TrimSpace(destination) == "" {
		return ErrNoDestination
	}
	if !validDuration(minutes) {
		return ErrBadDuration
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.sessions[userID]
	if s == nil {
		s = newSession(userID)
		m.sessions[userID] = s
	}
	if s.state != StateIdle {
		return ErrInvalidState
	}

	s.state = StateArmed
	s.selected = selected
	s.destination = destination
	s.durationMinutes = minutes
	s.remaining = minutes * 60
	s.epoch++
	s.done = make(chan struct{})

	ticker := m.clock.NewTicker(time.Second)
	go m.run(userID, s.epoch, ticker, s.done)

	if m.prom != nil {
		m.prom.ActiveCheckins.Inc()
	}
	m.log.Info("check-in armed",
		"user_id", userID,
		"contacts", len(selected),
		"duration_min", minutes,
	)
	return nil
}

// Cancel disarms an Armed session. Remaining snaps back to the
// configured duration, not to zero, and no alert is ever sent for the
// cancelled episode.
func (m *Manager) Cancel(userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.sessions[userID]
	if s == nil || s.state != StateArmed {
		return ErrInvalidState
	}

	close(s.done)
	s.done = nil
	s.state = StateIdle
	s.remaining = s.durationMinutes * 60

	if m.prom != nil {
		m.prom.ActiveCheckins.Dec()
		m.prom.CheckinsTotal.WithLabelValues("cancelled").Inc()
	}
	m.log.Info("check-in cancelled", "user_id", userID)
	return nil
}

// Dismiss acknowledges a Triggered session and resets everything to
// the defaults.
func (m *Manager) Dismiss(userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.sessions[userID]
	if s == nil || s.state != StateTriggered {
		return ErrInvalidState
	}

	s.state = StateIdle
	s.selected = nil
	s.destination = ""
	s.durationMinutes = DefaultDurationMinutes
	s.remaining = DefaultDurationMinutes * 60

	m.log.Info("check-in dismissed", "user_id", userID)
	return nil
}

// Snapshot returns the user's current session view. Users who never
// started a check-in see the Idle defaults.
func (m *Manager) Snapshot(userID string) Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.sessions[userID]
	if s == nil {
		s = newSession(userID)
	}

	selected := make([]string, len(s.selected))
	copy(selected, s.selected)

	return Snapshot{
		State:              s.state,
		Destination:        s.destination,
		DurationMinutes:    s.durationMinutes,
		RemainingSeconds:   s.remaining,
		SelectedContactIDs: selected,
	}
}

func (m *Manager) run(userID string, epoch int, ticker clock.Ticker, done chan struct{}) {
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C():
			if !m.tick(userID, epoch) {
				return
			}
		}
	}
}

// tick advances the countdown by one second. It reports whether the
// ticker should keep running. Ticks that arrive after a cancel or for
// a stale epoch observe a non-Armed state and do nothing.
//
// Expiry flips the state to Triggered while the lock is held, so the
// trigger happens exactly once per Armed episode, but the alert
// fan-out itself runs after the lock is released: a slow provider must
// never stall other users' ticks or cancels.
func (m *Manager) tick(userID string, epoch int) bool {
	m.mu.Lock()

	s := m.sessions[userID]
	if s == nil || s.epoch != epoch || s.state != StateArmed {
		m.mu.Unlock()
		return false
	}

	if s.remaining > 0 {
		s.remaining--
	}
	if s.remaining > 0 {
		m.mu.Unlock()
		return true
	}

	s.state = StateTriggered
	s.remaining = 0

	selected := make([]string, len(s.selected))
	copy(selected, s.selected)
	destination := s.destination

	if m.prom != nil {
		m.prom.ActiveCheckins.Dec()
		m.prom.CheckinsTotal.WithLabelValues("triggered").Inc()
	}
	m.mu.Unlock()

	m.deliver(userID, selected, destination)
	return false
}

// deliver fans the alert out to the selected contacts. Runs without
// m.mu; the session is already Triggered by the time this is called.
func (m *Manager) deliver(userID string, selected []string, destination string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	triggeredAt := m.clock.Now()

	byID := make(map[string]contact.Contact)
	list, err := m.contacts.ListFor(ctx, userID)
	if err != nil {
		m.log.Error("contact lookup failed at trigger", "user_id", userID, "err", err)
	}
	for _, c := range list {
		byID[c.ID] = c
	}

	sent, failed := 0, 0
	for _, id := range selected {
		c, ok := byID[id]
		if !ok {
			// contact deleted after arming; skip silently
			continue
		}

		alert := notifications.Alert{
			UserID:       userID,
			ContactID:    c.ID,
			ContactName:  c.Name,
			ContactEmail: c.Email,
			ContactPhone: c.Phone,
			Destination:  destination,
			TriggeredAt:  triggeredAt,
		}

		// best-effort fan-out: one failed delivery never blocks the rest
		if err := m.notifier.SendAlert(ctx, alert); err != nil {
			failed++
			m.log.Error("alert delivery failed",
				"user_id", userID,
				"contact_id", c.ID,
				"err", err,
			)
			if m.prom != nil {
				m.prom.AlertsTotal.WithLabelValues("failed").Inc()
			}
			continue
		}

		sent++
		if m.prom != nil {
			m.prom.AlertsTotal.WithLabelValues("sent").Inc()
		}
	}

	m.log.Warn("check-in expired, alerts fired",
		"user_id", userID,
		"sent", sent,
		"failed", failed,
		"destination", destination,
	)
}

func newSession(userID string) *session {
	return &session{
		userID:          userID,
		state:           StateIdle,
		durationMinutes: DefaultDurationMinutes,
		remaining:       DefaultDurationMinutes * 60,
	}
}

func validDuration(minutes int) bool {
	for _, p := range DurationPresets {
		if p == minutes {
			return true
		}
	}
	return false
}

func dedup(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
