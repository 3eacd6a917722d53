package guard

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/beatplayr/backend/internal/logger"
)

// Block reasons reported by the IP gate.
const (
	ReasonPermanentBlock = "permanently_blocked"
	ReasonManualBlock    = "manually_blocked"
	ReasonTemporaryBlock = "temporarily_blocked"
)

// Notifier receives operator alerts when the tracker escalates an identity
// to a temporary block.
type Notifier interface {
	Notify(title, message string)
}

// IPConfig holds the suspicious-activity thresholds.
type IPConfig struct {
	// MaxAttempts is the tracked-request count that arms a temporary block.
	MaxAttempts int
	// BlockDuration is how long a temporary block lasts.
	BlockDuration time.Duration
	// MonitorWindow is the max gap between requests counted as one burst.
	MonitorWindow time.Duration
	// SuspiciousThreshold is the count that triggers audit logging only.
	SuspiciousThreshold int
	// PermanentBlocks is the startup-only immutable deny list. There is
	// deliberately no runtime removal path for these entries.
	PermanentBlocks []string
}

// DefaultIPConfig returns the production thresholds.
func DefaultIPConfig() IPConfig {
	return IPConfig{
		MaxAttempts:         10,
		BlockDuration:       15 * time.Minute,
		MonitorWindow:       5 * time.Minute,
		SuspiciousThreshold: 5,
	}
}

type suspiciousRecord struct {
	count        int
	lastAttempt  time.Time
	blockedUntil time.Time
}

// IPStatus is the verdict for a single identity check.
type IPStatus struct {
	Blocked      bool
	Reason       string
	BlockedUntil time.Time
	// RetryAfter is the remaining block time in whole seconds, rounded up.
	// Zero for permanent and manual blocks (indefinite).
	RetryAfter int
}

// TemporaryBlock describes one actively blocked identity for admin listings.
type TemporaryBlock struct {
	IP           string    `json:"ip"`
	BlockedUntil time.Time `json:"blockedUntil"`
	RetryAfter   int       `json:"remainingTime"`
}

// SuspiciousIP describes an identity over the monitoring threshold that has
// not (yet) been blocked.
type SuspiciousIP struct {
	IP           string    `json:"ip"`
	AttemptCount int       `json:"attemptCount"`
	LastAttempt  time.Time `json:"lastAttempt"`
}

// BlockedIPList groups the three block populations for admin listings.
type BlockedIPList struct {
	Permanent []string         `json:"permanent"`
	Manual    []string         `json:"manual"`
	Temporary []TemporaryBlock `json:"temporary"`
}

// IPStats is the per-identity activity summary for the admin surface.
type IPStats struct {
	IP           string     `json:"ip"`
	Blocked      bool       `json:"blocked"`
	BlockReason  string     `json:"blockReason,omitempty"`
	BlockedUntil *time.Time `json:"blockedUntil,omitempty"`
	AttemptCount int        `json:"attemptCount"`
	LastAttempt  *time.Time `json:"lastAttempt,omitempty"`
}

// IPTracker keeps per-identity sliding-window counters and escalates
// recidivists to temporary blocks. All state is in-memory and
// process-lifetime; a single mutex guards every map since the gating pass
// runs on arbitrary goroutines.
type IPTracker struct {
	mu         sync.Mutex
	cfg        IPConfig
	permanent  map[string]struct{}
	manual     map[string]struct{}
	suspicious map[string]*suspiciousRecord
	notifier   Notifier
	now        func() time.Time
}

// NewIPTracker builds a tracker from config. nil notifier disables alerts.
func NewIPTracker(cfg IPConfig, notifier Notifier) *IPTracker {
	t := &IPTracker{
		cfg:        cfg,
		permanent:  make(map[string]struct{}, len(cfg.PermanentBlocks)),
		manual:     make(map[string]struct{}),
		suspicious: make(map[string]*suspiciousRecord),
		notifier:   notifier,
		now:        time.Now,
	}
	for _, ip := range cfg.PermanentBlocks {
		t.permanent[ip] = struct{}{}
	}
	return t
}

func normalizeIdentity(ip string) string {
	if ip == "" {
		return "unknown"
	}
	return ip
}

// Check reports whether the identity is currently denied. An expired
// temporary block is cleaned up lazily here so the identity restarts
// counting from scratch on its next tracked request.
func (t *IPTracker) Check(ip string) IPStatus {
	ip = normalizeIdentity(ip)

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.permanent[ip]; ok {
		return IPStatus{Blocked: true, Reason: ReasonPermanentBlock}
	}
	if _, ok := t.manual[ip]; ok {
		return IPStatus{Blocked: true, Reason: ReasonManualBlock}
	}

	rec, ok := t.suspicious[ip]
	if !ok {
		return IPStatus{}
	}

	now := t.now()
	if rec.blockedUntil.After(now) {
		return IPStatus{
			Blocked:      true,
			Reason:       ReasonTemporaryBlock,
			BlockedUntil: rec.blockedUntil,
			RetryAfter:   ceilSeconds(rec.blockedUntil.Sub(now)),
		}
	}
	if !rec.blockedUntil.IsZero() {
		delete(t.suspicious, ip)
	}
	return IPStatus{}
}

// Track records one allowed request from the identity and arms a temporary
// block once the count reaches MaxAttempts within the monitoring window.
// The arming request itself is still served; denial starts with the next
// request, when Check sees the armed block.
func (t *IPTracker) Track(ip string) {
	ip = normalizeIdentity(ip)
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.suspicious[ip]
	if !ok {
		t.suspicious[ip] = &suspiciousRecord{count: 1, lastAttempt: now}
		return
	}

	if now.Sub(rec.lastAttempt) > t.cfg.MonitorWindow {
		rec.count = 1
		rec.lastAttempt = now
		return
	}

	rec.count++
	rec.lastAttempt = now

	if rec.count >= t.cfg.MaxAttempts {
		rec.blockedUntil = now.Add(t.cfg.BlockDuration)
		logger.WithFields(map[string]interface{}{
			"ip":       ip,
			"attempts": rec.count,
			"duration": t.cfg.BlockDuration.String(),
		}).Warn("IP temporarily blocked after repeated requests")
		if t.notifier != nil {
			t.notifier.Notify("IP temporarily blocked",
				fmt.Sprintf("IP %s blocked for %s after %d requests in the monitoring window", ip, t.cfg.BlockDuration, rec.count))
		}
		return
	}

	if rec.count >= t.cfg.SuspiciousThreshold {
		logger.WithFields(map[string]interface{}{
			"ip":       ip,
			"attempts": rec.count,
		}).Warn("Suspicious activity from IP")
	}
}

// BlockIP adds an identity to the manual block set. Re-blocking an already
// blocked identity is a no-op that still succeeds.
func (t *IPTracker) BlockIP(ip, reason string) {
	ip = normalizeIdentity(ip)

	t.mu.Lock()
	t.manual[ip] = struct{}{}
	t.mu.Unlock()

	if reason == "" {
		reason = "manual"
	}
	logger.WithFields(map[string]interface{}{"ip": ip, "reason": reason}).Info("IP manually blocked")
}

// UnblockIP removes an identity from the manual set and drops any
// suspicious record. It never touches the permanent set. Returns false when
// there was nothing to remove.
func (t *IPTracker) UnblockIP(ip string) bool {
	ip = normalizeIdentity(ip)

	t.mu.Lock()
	_, hadManual := t.manual[ip]
	_, hadRecord := t.suspicious[ip]
	delete(t.manual, ip)
	delete(t.suspicious, ip)
	t.mu.Unlock()

	removed := hadManual || hadRecord
	if removed {
		logger.WithFields(map[string]interface{}{"ip": ip}).Info("IP unblocked")
	}
	return removed
}

// IsPermanentlyBlocked reports whether the identity is in the immutable
// startup deny list.
func (t *IPTracker) IsPermanentlyBlocked(ip string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.permanent[normalizeIdentity(ip)]
	return ok
}

// BlockedIPs lists all currently denied identities by population.
func (t *IPTracker) BlockedIPs() BlockedIPList {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	list := BlockedIPList{
		Permanent: make([]string, 0, len(t.permanent)),
		Manual:    make([]string, 0, len(t.manual)),
		Temporary: make([]TemporaryBlock, 0),
	}
	for ip := range t.permanent {
		list.Permanent = append(list.Permanent, ip)
	}
	for ip := range t.manual {
		list.Manual = append(list.Manual, ip)
	}
	for ip, rec := range t.suspicious {
		if rec.blockedUntil.After(now) {
			list.Temporary = append(list.Temporary, TemporaryBlock{
				IP:           ip,
				BlockedUntil: rec.blockedUntil,
				RetryAfter:   ceilSeconds(rec.blockedUntil.Sub(now)),
			})
		}
	}
	return list
}

// SuspiciousIPs lists identities over the monitoring threshold that are not
// currently blocked.
func (t *IPTracker) SuspiciousIPs() []SuspiciousIP {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	out := make([]SuspiciousIP, 0)
	for ip, rec := range t.suspicious {
		if !rec.blockedUntil.After(now) && rec.count >= t.cfg.SuspiciousThreshold {
			out = append(out, SuspiciousIP{IP: ip, AttemptCount: rec.count, LastAttempt: rec.lastAttempt})
		}
	}
	return out
}

// ClearTemporary drops every suspicious record, lifting all temporary
// blocks. Manual and permanent blocks are unaffected. Returns the number of
// records removed.
func (t *IPTracker) ClearTemporary() int {
	t.mu.Lock()
	n := len(t.suspicious)
	t.suspicious = make(map[string]*suspiciousRecord)
	t.mu.Unlock()

	logger.Log().Info("All temporary IP blocks cleared")
	return n
}

// Stats returns the activity summary for one identity.
func (t *IPTracker) Stats(ip string) IPStats {
	ip = normalizeIdentity(ip)
	status := t.Check(ip)

	t.mu.Lock()
	defer t.mu.Unlock()

	stats := IPStats{IP: ip, Blocked: status.Blocked, BlockReason: status.Reason}
	if status.Blocked && !status.BlockedUntil.IsZero() {
		until := status.BlockedUntil
		stats.BlockedUntil = &until
	}
	if rec, ok := t.suspicious[ip]; ok {
		stats.AttemptCount = rec.count
		last := rec.lastAttempt
		stats.LastAttempt = &last
	}
	return stats
}

// Sweep removes records idle for longer than the monitoring window with no
// active block. The original design never evicted; unbounded growth under
// distinct-IP traffic is the reason for this addition.
func (t *IPTracker) Sweep() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	removed := 0
	for ip, rec := range t.suspicious {
		if rec.blockedUntil.After(now) {
			continue
		}
		if now.Sub(rec.lastAttempt) > t.cfg.MonitorWindow {
			delete(t.suspicious, ip)
			removed++
		}
	}
	return removed
}

func ceilSeconds(d time.Duration) int {
	return int(math.Ceil(d.Seconds()))
}
