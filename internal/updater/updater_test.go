package updater

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestChecker returns a checker that never touches the network
func newTestChecker(t *testing.T, latest string) (*Checker, *int) {
	t.Helper()
	calls := 0
	c := NewChecker(t.TempDir(), 1)
	c.detect = func(slug string) (Release, bool, error) {
		calls++
		if slug != repoSlug {
			t.Errorf("detect called with %q", slug)
		}
		if latest == "" {
			return Release{}, false, nil
		}
		return Release{Version: latest}, true, nil
	}
	return c, &calls
}

func TestFallbackMessage(t *testing.T) {
	msg := FallbackMessage(os.ErrPermission)
	if !strings.Contains(msg, "Self-update failed") {
		t.Errorf("expected message to contain 'Self-update failed', got: %s", msg)
	}
	if !strings.Contains(msg, "curl") {
		t.Errorf("expected message to contain 'curl', got: %s", msg)
	}
	if !strings.Contains(msg, "cuprism") {
		t.Errorf("expected message to mention the repository, got: %s", msg)
	}
}

func TestIsNewer(t *testing.T) {
	tests := []struct {
		latest, current string
		want            bool
	}{
		{"1.2.0", "1.1.9", true},
		{"v1.2.0", "1.2.0", false},
		{"1.2.0", "v1.3.0", false},
		{"2.0.0", "2.0.0-rc.1", true},
	}
	for _, tt := range tests {
		got, err := IsNewer(tt.latest, tt.current)
		require.NoError(t, err)
		if got != tt.want {
			t.Errorf("IsNewer(%q, %q) = %v, expected %v", tt.latest, tt.current, got, tt.want)
		}
	}

	_, err := IsNewer("garbage", "1.0.0")
	assert.Error(t, err)
}

func TestIsDevBuild(t *testing.T) {
	assert.True(t, IsDevBuild("dev"))
	assert.True(t, IsDevBuild(""))
	assert.True(t, IsDevBuild("abc123"))
	assert.False(t, IsDevBuild("v0.4.1"))
}

func TestCheckUsesCache(t *testing.T) {
	c, calls := newTestChecker(t, "v1.5.0")
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	st, err := c.Check("1.4.0")
	require.NoError(t, err)
	assert.True(t, st.HasUpdate)
	assert.Equal(t, "1.5.0", st.Latest)
	assert.False(t, st.Cached)
	assert.Equal(t, 1, *calls)

	now = now.Add(time.Hour)
	st, err = c.Check("1.4.0")
	require.NoError(t, err)
	assert.True(t, st.Cached)
	assert.True(t, st.HasUpdate)
	assert.Equal(t, 1, *calls)

	now = now.Add(48 * time.Hour)
	_, err = c.Check("1.4.0")
	require.NoError(t, err)
	assert.Equal(t, 2, *calls)
}

func TestCheckUpToDate(t *testing.T) {
	c, _ := newTestChecker(t, "1.4.0")
	st, err := c.Check("v1.4.0")
	require.NoError(t, err)
	assert.False(t, st.HasUpdate)
}

func TestCheckNoRelease(t *testing.T) {
	c, _ := newTestChecker(t, "")
	st, err := c.Check("1.0.0")
	require.NoError(t, err)
	assert.False(t, st.HasUpdate)
	assert.Empty(t, st.Latest)
}

func TestCheckDevBuild(t *testing.T) {
	c, calls := newTestChecker(t, "9.9.9")
	st, err := c.Check("dev")
	require.NoError(t, err)
	assert.False(t, st.HasUpdate)
	assert.Equal(t, 0, *calls)
}

func TestCheckDetectError(t *testing.T) {
	c := NewChecker(t.TempDir(), 1)
	boom := errors.New("rate limited")
	c.detect = func(string) (Release, bool, error) { return Release{}, false, boom }

	_, err := c.Check("1.0.0")
	assert.ErrorIs(t, err, boom)
}

func TestCheckIgnoresCorruptCache(t *testing.T) {
	c, calls := newTestChecker(t, "1.1.0")
	require.NoError(t, os.WriteFile(c.cachePath, []byte("{not json"), 0644))

	st, err := c.Check("1.0.0")
	require.NoError(t, err)
	assert.True(t, st.HasUpdate)
	assert.Equal(t, 1, *calls)
}

func TestCheckFreshBypassesCache(t *testing.T) {
	c, calls := newTestChecker(t, "1.1.0")
	_, err := c.Check("1.0.0")
	require.NoError(t, err)

	st, err := c.Fresh().Check("1.0.0")
	require.NoError(t, err)
	assert.False(t, st.Cached)
	assert.Equal(t, 2, *calls)
}
