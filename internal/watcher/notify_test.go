package watcher

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotify_DoesNotPanic(t *testing.T) {
	var buf bytes.Buffer
	prev := fallbackOut
	fallbackOut = &buf
	t.Cleanup(func() { fallbackOut = prev })

	tests := []struct {
		name  string
		alert Alert
	}{
		{"warning", Alert{Level: LevelWarning, Title: "Scan failed", Message: "timed out after 1m0s", Time: time.Now()}},
		{"critical", Alert{Level: LevelCritical, Title: "Workspace unavailable", Message: "no root"}},
		{"empty fields", Alert{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// The result depends on the desktop environment; only the
			// absence of a panic is asserted.
			_ = Notify(tc.alert)
		})
	}
}

func TestNotifyFallback(t *testing.T) {
	var buf bytes.Buffer
	prev := fallbackOut
	fallbackOut = &buf
	t.Cleanup(func() { fallbackOut = prev })

	require.NoError(t, notifyFallback(Alert{Level: LevelWarning, Title: "Scan failed", Message: "exit status 2"}))
	assert.Equal(t, "[warning] Scan failed: exit status 2\n", buf.String())
}

func TestDeduper(t *testing.T) {
	var got []Alert
	d := NewDeduper(func(a Alert) { got = append(got, a) })

	fail := Alert{Level: LevelWarning, Title: "Scan failed", Message: "timeout"}
	d.Send(fail)
	d.Send(fail)
	assert.Len(t, got, 1)

	d.Send(Alert{Level: LevelWarning, Title: "Scan failed", Message: "exit status 1"})
	assert.Len(t, got, 2)

	d.Send(fail)
	assert.Len(t, got, 3)

	d.Reset()
	d.Send(fail)
	assert.Len(t, got, 4)
}
