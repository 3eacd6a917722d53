package guard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }
func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

func newTestTracker(cfg IPConfig) (*IPTracker, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	t := NewIPTracker(cfg, nil)
	t.now = clock.Now
	return t, clock
}

func TestTrackerBlocksAfterMaxAttempts(t *testing.T) {
	tracker, clock := newTestTracker(DefaultIPConfig())
	ip := "1.2.3.4"

	// 9 requests inside one minute: all allowed.
	for i := 0; i < 9; i++ {
		status := tracker.Check(ip)
		require.False(t, status.Blocked, "request %d should be allowed", i+1)
		tracker.Track(ip)
		clock.Advance(5 * time.Second)
	}

	// Suspicious threshold crossed but not blocked yet.
	suspicious := tracker.SuspiciousIPs()
	require.Len(t, suspicious, 1)
	assert.Equal(t, ip, suspicious[0].IP)
	assert.Equal(t, 9, suspicious[0].AttemptCount)

	// 10th request is still served; it arms the block.
	status := tracker.Check(ip)
	require.False(t, status.Blocked)
	tracker.Track(ip)

	// 11th request is denied with ~15 minutes of retry-after.
	status = tracker.Check(ip)
	require.True(t, status.Blocked)
	assert.Equal(t, ReasonTemporaryBlock, status.Reason)
	assert.Equal(t, 900, status.RetryAfter)
	assert.False(t, status.BlockedUntil.IsZero())
}

func TestTrackerBlockExpires(t *testing.T) {
	cfg := DefaultIPConfig()
	cfg.MaxAttempts = 3
	tracker, clock := newTestTracker(cfg)
	ip := "5.6.7.8"

	for i := 0; i < 3; i++ {
		tracker.Track(ip)
	}
	require.True(t, tracker.Check(ip).Blocked)

	clock.Advance(cfg.BlockDuration + time.Second)

	// Expired block is lazily cleaned and counting restarts from scratch.
	require.False(t, tracker.Check(ip).Blocked)
	tracker.Track(ip)
	assert.Equal(t, 1, tracker.Stats(ip).AttemptCount)
}

func TestTrackerWindowGapResetsCount(t *testing.T) {
	tracker, clock := newTestTracker(DefaultIPConfig())
	ip := "2.2.2.2"

	for i := 0; i < 4; i++ {
		tracker.Track(ip)
	}
	assert.Equal(t, 4, tracker.Stats(ip).AttemptCount)

	clock.Advance(5*time.Minute + time.Second)
	tracker.Track(ip)
	assert.Equal(t, 1, tracker.Stats(ip).AttemptCount)
}

func TestTrackerPermanentBlocks(t *testing.T) {
	cfg := DefaultIPConfig()
	cfg.PermanentBlocks = []string{"10.0.0.50"}
	tracker, _ := newTestTracker(cfg)

	status := tracker.Check("10.0.0.50")
	require.True(t, status.Blocked)
	assert.Equal(t, ReasonPermanentBlock, status.Reason)
	assert.Zero(t, status.RetryAfter)

	// Unblock never touches the permanent set.
	assert.False(t, tracker.UnblockIP("10.0.0.50"))
	assert.True(t, tracker.Check("10.0.0.50").Blocked)
	assert.True(t, tracker.IsPermanentlyBlocked("10.0.0.50"))
}

func TestTrackerManualBlockAndUnblock(t *testing.T) {
	tracker, _ := newTestTracker(DefaultIPConfig())

	tracker.BlockIP("3.3.3.3", "abuse report")
	status := tracker.Check("3.3.3.3")
	require.True(t, status.Blocked)
	assert.Equal(t, ReasonManualBlock, status.Reason)

	// Blocking twice is a no-op that still succeeds.
	tracker.BlockIP("3.3.3.3", "")
	assert.True(t, tracker.Check("3.3.3.3").Blocked)

	assert.True(t, tracker.UnblockIP("3.3.3.3"))
	assert.False(t, tracker.Check("3.3.3.3").Blocked)

	// Unblocking an identity that was never blocked reports false.
	assert.False(t, tracker.UnblockIP("4.4.4.4"))
}

func TestTrackerEmptyIdentityPoolsAsUnknown(t *testing.T) {
	tracker, _ := newTestTracker(DefaultIPConfig())

	tracker.Track("")
	tracker.Track("unknown")
	assert.Equal(t, 2, tracker.Stats("unknown").AttemptCount)
}

func TestTrackerClearTemporary(t *testing.T) {
	cfg := DefaultIPConfig()
	cfg.MaxAttempts = 2
	tracker, _ := newTestTracker(cfg)

	tracker.Track("6.6.6.6")
	tracker.Track("6.6.6.6")
	require.True(t, tracker.Check("6.6.6.6").Blocked)
	tracker.BlockIP("7.7.7.7", "manual")

	assert.Equal(t, 1, tracker.ClearTemporary())
	assert.False(t, tracker.Check("6.6.6.6").Blocked)
	assert.True(t, tracker.Check("7.7.7.7").Blocked, "manual blocks survive a temporary clear")
}

func TestTrackerBlockedIPsListing(t *testing.T) {
	cfg := DefaultIPConfig()
	cfg.MaxAttempts = 2
	cfg.PermanentBlocks = []string{"9.9.9.9"}
	tracker, _ := newTestTracker(cfg)

	tracker.BlockIP("8.8.8.8", "manual")
	tracker.Track("6.6.6.6")
	tracker.Track("6.6.6.6")

	list := tracker.BlockedIPs()
	assert.Equal(t, []string{"9.9.9.9"}, list.Permanent)
	assert.Equal(t, []string{"8.8.8.8"}, list.Manual)
	require.Len(t, list.Temporary, 1)
	assert.Equal(t, "6.6.6.6", list.Temporary[0].IP)
	assert.Equal(t, 900, list.Temporary[0].RetryAfter)
}

func TestTrackerSweep(t *testing.T) {
	cfg := DefaultIPConfig()
	cfg.MaxAttempts = 2
	tracker, clock := newTestTracker(cfg)

	tracker.Track("idle.ip")
	tracker.Track("blocked.ip")
	tracker.Track("blocked.ip")
	require.True(t, tracker.Check("blocked.ip").Blocked)

	clock.Advance(cfg.MonitorWindow + time.Second)

	assert.Equal(t, 1, tracker.Sweep())
	assert.Equal(t, 0, tracker.Stats("idle.ip").AttemptCount)
	assert.True(t, tracker.Check("blocked.ip").Blocked, "active blocks survive the sweep")
}

type captureNotifier struct {
	titles []string
}

func (n *captureNotifier) Notify(title, _ string) { n.titles = append(n.titles, title) }

func TestTrackerNotifiesOnEscalation(t *testing.T) {
	cfg := DefaultIPConfig()
	cfg.MaxAttempts = 2
	notifier := &captureNotifier{}
	tracker := NewIPTracker(cfg, notifier)

	tracker.Track("1.1.1.1")
	assert.Empty(t, notifier.titles)
	tracker.Track("1.1.1.1")
	require.Len(t, notifier.titles, 1)
	assert.Equal(t, "IP temporarily blocked", notifier.titles[0])
}
