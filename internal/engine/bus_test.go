package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBus_DeliversInSubscriptionOrder(t *testing.T) {
	b := NewBus()
	var got []string
	for _, name := range []string{"tree", "annotations", "status"} {
		b.Subscribe(func(ev Event) { got = append(got, name+":"+ev.Type.String()) })
	}

	b.Publish(Event{Type: EventSnapshotUpdated})

	assert.Equal(t, []string{
		"tree:" + EventSnapshotUpdated.String(),
		"annotations:" + EventSnapshotUpdated.String(),
		"status:" + EventSnapshotUpdated.String(),
	}, got)
}

func TestBus_UnsubscribeAndTimestamp(t *testing.T) {
	b := NewBus()
	var first, second []Event
	unsub := b.Subscribe(func(ev Event) { first = append(first, ev) })
	b.Subscribe(func(ev Event) { second = append(second, ev) })

	b.Publish(Event{Type: EventScanStarted})
	unsub()
	b.Publish(Event{Type: EventScanFinished})

	assert.Len(t, first, 1)
	assert.Len(t, second, 2)
	assert.False(t, second[0].Time.IsZero(), "Publish stamps events without a time")
}
