package core

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"rentapp/pkg/domain"
)

func TestNotifierDeliversInSubscriptionOrder(t *testing.T) {
	n := NewNotifier()
	var got []string
	unsubA := n.Subscribe(func(ev domain.Event) { got = append(got, "a:"+ev.PropertyID) })
	n.Subscribe(func(ev domain.Event) { got = append(got, "b:"+ev.PropertyID) })
	assert.Equal(t, 2, n.Len())

	n.Publish(domain.Event{Name: domain.EventBookmarksChanged, PropertyID: "1"})
	unsubA()
	unsubA()
	n.Publish(domain.Event{Name: domain.EventBookmarksChanged, PropertyID: "2"})

	assert.Equal(t, []string{"a:1", "b:1", "b:2"}, got)
	assert.Equal(t, 1, n.Len())
}

func TestNotifierAllowsUnsubscribeDuringPublish(t *testing.T) {
	n := NewNotifier()
	calls := 0
	var unsub func()
	unsub = n.Subscribe(func(domain.Event) {
		calls++
		unsub()
	})
	n.Publish(domain.Event{Name: domain.EventClosedChanged})
	n.Publish(domain.Event{Name: domain.EventClosedChanged})
	assert.Equal(t, 1, calls)
}
