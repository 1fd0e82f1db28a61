package loadprobe

import (
	"os"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercent_ReturnsValueInRange(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("/proc/stat is Linux-specific")
	}
	if _, err := os.Stat("/proc/stat"); err != nil {
		t.Skip("/proc/stat not available in this sandbox")
	}

	pct, err := Percent(20 * time.Millisecond)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, pct, 0.0)
	assert.LessOrEqual(t, pct, 100.0)
}
