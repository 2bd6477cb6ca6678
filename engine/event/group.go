package event

// Group collects the subscriptions installed by one owner so they can be removed together.
// The zero value is ready to use. A Group is not safe for concurrent use.
type Group struct {
	subs []Subscription
}

// Listen subscribes h on src and records the subscription in the group.
//
// Parameters:
//   - src: the event source
//   - t: the event type
//   - h: the handler
func (g *Group) Listen(src Source, t Type, h Handler) {
	g.subs = append(g.subs, src.Subscribe(t, h))
}

// Len returns the number of subscriptions currently held.
func (g *Group) Len() int {
	return len(g.subs)
}

// CancelAll cancels every held subscription and empties the group.
func (g *Group) CancelAll() {
	for _, s := range g.subs {
		s.Cancel()
	}
	g.subs = nil
}
