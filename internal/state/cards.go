package state

import (
	"github.com/EvLab-MIT/cb2/internal/events"
	"github.com/EvLab-MIT/cb2/internal/messages"
)

// handleCardCell toggles selection when an actor lands on a card and
// resolves a completed set. parent is the causal instruction event, if any.
func (s *State) handleCardCell(actor *Actor, parent string) {
	for i := range s.props {
		p := &s.props[i]
		if p.PropType != messages.PropTypeCard || p.Card == nil {
			continue
		}
		if !p.Location.Equal(actor.Location) {
			continue
		}
		p.Card.Selected = !p.Card.Selected
		s.recordWithParent(events.TypeCardSelect, actor.ID, actor.Role.String(), parent, *p)
		s.markPropsStale()
	}
	s.resolveCardSet(actor, parent)
}

// resolveCardSet scores and clears a valid set of selected cards. A valid
// set is CardSetSize cards with pairwise distinct shape, color and count.
func (s *State) resolveCardSet(actor *Actor, parent string) {
	selected := []int{}
	for i := range s.props {
		p := &s.props[i]
		if p.PropType == messages.PropTypeCard && p.Card != nil && p.Card.Selected {
			selected = append(selected, i)
		}
	}
	if len(selected) != CardSetSize {
		return
	}
	if !validSet(s.props, selected) {
		return
	}

	s.turn.Score++
	s.turn.SetsCollected++
	collected := make([]messages.Prop, 0, CardSetSize)
	for _, i := range selected {
		collected = append(collected, s.props[i])
	}
	s.recordWithParent(events.TypeCardSet, actor.ID, actor.Role.String(), parent, messages.PropUpdate{Props: collected})

	// Collected cards leave the board.
	kept := s.props[:0]
	for i := range s.props {
		if !containsIndex(selected, i) {
			kept = append(kept, s.props[i])
		}
	}
	s.props = kept
	s.markPropsStale()
	s.markTurnStale()
}

func validSet(props []messages.Prop, indices []int) bool {
	shapes := map[int]bool{}
	colors := map[int]bool{}
	counts := map[int]bool{}
	for _, i := range indices {
		c := props[i].Card
		if shapes[c.Shape] || colors[c.Color] || counts[c.Count] {
			return false
		}
		shapes[c.Shape] = true
		colors[c.Color] = true
		counts[c.Count] = true
	}
	return true
}

func containsIndex(indices []int, i int) bool {
	for _, idx := range indices {
		if idx == i {
			return true
		}
	}
	return false
}
