package figures

// Handler receives the set of selected row indices after a selection change.
type Handler func(indices []int)

// subscription pairs a panel with its selection handler.
type subscription struct {
	panelID string
	handler Handler
}

// SelectionBus propagates selection changes between panels. It is a
// publish/subscribe relationship, not an ownership hierarchy: no panel owns
// another, all observe the same selection source. Dispatch is synchronous
// and in subscription order; overlapping publishes are last-write-wins, with
// no debouncing. The emitted client-side script preserves the same contract.
type SelectionBus struct {
	subs []subscription
}

// NewSelectionBus creates an empty bus.
func NewSelectionBus() *SelectionBus {
	return &SelectionBus{}
}

// Subscribe registers a panel's selection handler.
func (b *SelectionBus) Subscribe(panelID string, handler Handler) {
	b.subs = append(b.subs, subscription{panelID: panelID, handler: handler})
}

// Publish delivers the selected index set to every subscriber. Each handler
// gets its own copy so no panel can mutate another's view of the selection.
func (b *SelectionBus) Publish(indices []int) {
	for _, sub := range b.subs {
		dup := make([]int, len(indices))
		copy(dup, indices)
		sub.handler(dup)
	}
}

// Subscribers returns the panel IDs in subscription order.
func (b *SelectionBus) Subscribers() []string {
	ids := make([]string, len(b.subs))
	for i, sub := range b.subs {
		ids[i] = sub.panelID
	}
	return ids
}
