package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/cineai/internal/tasks"
)

var _ list.Item = blendItem{}

// blendItem wraps [tasks.BlendCard] to implement [list.Item].
type blendItem struct {
	card tasks.BlendCard
}

func (i blendItem) FilterValue() string { return i.card.Summary.Name + " " + i.card.Summary.Code }

func (i blendItem) Title() string {
	if i.card.Summary.Name == "" {
		return i.card.Summary.Code
	}
	return i.card.Summary.Name
}

func (i blendItem) Description() string {
	desc := i.card.Summary.Code
	if s := i.card.Session; s != nil {
		desc = fmt.Sprintf("%s • %d members • %s match", desc, len(s.Users), s.EffectiveMatchScore())
		if s.Waiting() {
			desc += " • waiting for members"
		}
	}

	switch i.card.State {
	case tasks.CardLoading:
		desc += " • loading…"
	case tasks.CardLoadFailed:
		if i.card.Session == nil {
			desc += " • unavailable"
		} else {
			desc += " • stale"
		}
	}
	return desc
}

func boardItems(view tasks.BoardView) []list.Item {
	items := make([]list.Item, len(view.Cards))
	for i, c := range view.Cards {
		items[i] = blendItem{card: c}
	}
	return items
}
