package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"github.com/desertthunder/cineai/internal/models"
	"github.com/desertthunder/cineai/internal/tasks"
)

// View renders the current view.
func (m *Model) View() string {
	if m.authErr != "" {
		return m.viewAuth()
	}

	var b strings.Builder
	switch m.view {
	case BoardView:
		b.WriteString(m.viewBoard())
	case RoomView:
		b.WriteString(m.viewRoom())
	case InputView:
		b.WriteString(m.viewInput())
	case ConfirmView:
		b.WriteString(m.viewConfirm())
	}

	if line := m.statusLine(); line != "" {
		b.WriteString("\n" + line)
	}
	return b.String()
}

func (m *Model) viewAuth() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Authentication required"))
	b.WriteString("\n")
	b.WriteString(styles.err.Render(m.authErr))
	b.WriteString("\n\n")
	b.WriteString("Run `cineai auth login`, then start the TUI again.\n\n")
	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.quit}))
	return b.String()
}

func (m *Model) viewBoard() string {
	view := m.board.Snapshot()

	var b strings.Builder
	if view.User != nil {
		b.WriteString(styles.help.Render("Signed in as " + view.User.Username))
		b.WriteString("\n")
	}
	if len(view.Cards) == 0 && view.State == tasks.Ready {
		b.WriteString(styles.title.Render("Your Blends"))
		b.WriteString("\nNo blends yet. Create one or join with a code.\n\n")
	} else {
		b.WriteString(m.list.View())
		b.WriteString("\n")
	}
	b.WriteString(m.help.ShortHelpView(m.keys.board()))
	return b.String()
}

func (m *Model) viewRoom() string {
	if m.room == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(renderRoom(m.room.Snapshot()))
	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(m.keys.room()))
	return b.String()
}

// renderRoom draws a blend's detail: members with their tags, then recommendations or the waiting state.
func renderRoom(v tasks.RoomView) string {
	var b strings.Builder
	s := v.Session
	if s == nil {
		switch v.Card {
		case tasks.CardLoadFailed:
			b.WriteString(styles.err.Render("Blend " + v.Code + " could not be loaded."))
		default:
			b.WriteString(styles.help.Render("Loading blend " + v.Code + "…"))
		}
		b.WriteString("\n")
		return b.String()
	}

	name := s.Name
	if name == "" {
		name = s.Code
	}
	b.WriteString(styles.title.Render(name))
	b.WriteString("\n")
	b.WriteString(styles.code.Render(s.Code))
	b.WriteString("  ")
	b.WriteString(styles.ok.Render(s.EffectiveMatchScore() + " match"))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("Members (%d)\n", len(s.Users)))
	for _, member := range s.Members() {
		tag := member.Tag
		if !member.HasTag {
			tag = styles.help.Render(tag)
		}
		b.WriteString(fmt.Sprintf("  • %s  %s\n", member.Username, tag))
	}
	b.WriteString("\n")

	if s.Waiting() {
		b.WriteString(styles.warn.Render("Waiting for members"))
		b.WriteString(fmt.Sprintf("\nShare the code %s so friends can join. Recommendations appear once %d people are in.\n",
			s.Code, models.MinBlendMembers))
	} else {
		b.WriteString(renderRecommendations(s.EffectiveRecommendations()))
	}

	if v.Card == tasks.CardLoadFailed {
		b.WriteString("\n")
		b.WriteString(styles.warn.Render("Showing the last loaded data."))
		b.WriteString("\n")
	}
	return b.String()
}

func renderRecommendations(recs []models.BlendRecommendation) string {
	if len(recs) == 0 {
		return styles.help.Render("No recommendations yet. Add movies you've watched.") + "\n"
	}

	lines := make([]string, 0, len(recs)+1)
	lines = append(lines, "Recommendations")
	for i, r := range recs {
		line := fmt.Sprintf("%2d. %s", i+1, r.Title)
		if len(r.Genres) > 0 {
			line += styles.help.Render(" (" + strings.Join(r.Genres, ", ") + ")")
		}
		line += fmt.Sprintf("  %.0f%%", r.MatchScore)
		lines = append(lines, line)
	}
	return styles.box.Render(strings.Join(lines, "\n")) + "\n"
}

func (m *Model) viewInput() string {
	p := prompts[m.inputKind]

	var b strings.Builder
	b.WriteString(styles.title.Render(p.title))
	b.WriteString("\n")
	if m.inputKind == inputHistory {
		b.WriteString(styles.help.Render("Separate titles with commas."))
		b.WriteString("\n")
	}
	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	b.WriteString(m.help.ShortHelpView([]key.Binding{
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
		m.keys.back,
	}))
	return b.String()
}

func (m *Model) viewConfirm() string {
	var b strings.Builder
	b.WriteString(styles.warn.Render(tasks.DeletePrompt))
	b.WriteString("\n")
	b.WriteString(styles.code.Render(m.target))
	b.WriteString("\n\n")
	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no}))
	return b.String()
}

func (m *Model) statusLine() string {
	if m.busy && m.status == nil {
		return styles.help.Render("Working…")
	}
	if m.status == nil {
		return ""
	}
	return styles.level(m.status.Level).Render(m.status.String())
}
