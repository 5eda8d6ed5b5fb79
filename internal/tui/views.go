package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m *Model) View() string {
	var body string
	switch m.view {
	case viewAuth:
		body = m.viewAuth()
	case viewUsers:
		body = m.viewUsers()
	case viewProfile:
		body = m.viewProfile()
	case viewChat:
		body = m.viewChat()
	}
	if m.status != "" {
		body += "\n" + errorStyle.Render(m.status)
	}
	return body + "\n"
}

func (m *Model) viewAuth() string {
	var b strings.Builder
	if m.registering {
		b.WriteString(titleStyle.Render("vestnik — register"))
	} else {
		b.WriteString(titleStyle.Render("vestnik — login"))
	}
	b.WriteString("\n")

	b.WriteString(m.authInputs[authFieldUsername].View())
	b.WriteString("\n")
	if m.registering {
		b.WriteString(m.authInputs[authFieldEmail].View())
		b.WriteString("\n")
	}
	b.WriteString(m.authInputs[authFieldPassword].View())
	b.WriteString("\n")

	if m.busy {
		b.WriteString(m.spin.View() + " signing in...")
	}
	b.WriteString(helpStyle.Render("enter submit · tab next field · ctrl+r toggle register · ctrl+c quit"))
	return b.String()
}

func (m *Model) viewUsers() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("vestnik — people"))
	b.WriteString("\n")

	if m.busy {
		b.WriteString(m.spin.View() + " loading...\n")
	} else if len(m.users) == 0 {
		b.WriteString(dimStyle.Render("nobody here yet") + "\n")
	}

	for i, p := range m.users {
		line := p.DisplayName()
		if p.Email != "" {
			line += dimStyle.Render("  " + p.Email)
		}
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("enter chat · p profile · r refresh · ctrl+l logout · q quit"))
	return b.String()
}

func (m *Model) viewProfile() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("vestnik — my profile"))
	b.WriteString("\n")

	if m.busy && m.self == nil {
		b.WriteString(m.spin.View() + " loading...\n")
		return b.String()
	}

	if m.editing {
		b.WriteString("name:     " + m.profileInputs[profileFieldName].View() + "\n")
		b.WriteString("lastname: " + m.profileInputs[profileFieldLastname].View() + "\n")
		b.WriteString("picture:  " + m.profileInputs[profileFieldPicture].View() + "\n")
		if m.busy {
			b.WriteString(m.spin.View() + " saving...\n")
		}
		b.WriteString(helpStyle.Render("enter save · tab next field · esc cancel"))
		return b.String()
	}

	if m.self != nil {
		b.WriteString("name:     " + m.self.Name + "\n")
		b.WriteString("lastname: " + m.self.Lastname + "\n")
		b.WriteString("email:    " + m.self.Email + "\n")
		if m.self.ProfilePictureURL != "" {
			b.WriteString("picture:  " + dimStyle.Render(fmt.Sprintf("(%d bytes)", len(m.self.ProfilePictureURL))) + "\n")
		}
	}
	b.WriteString(helpStyle.Render("e edit · esc back"))
	return b.String()
}

func (m *Model) viewChat() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("vestnik — " + m.peer.DisplayName()))
	b.WriteString("\n")

	if m.engine != nil && !m.engine.HistoryLoaded() {
		b.WriteString(m.spin.View() + " loading history...\n")
	}

	b.WriteString(chatFrameStyle.Render(m.chatView.View()))
	b.WriteString("\n")
	b.WriteString(m.chatInput.View())
	b.WriteString(helpStyle.Render("enter send · pgup/pgdn scroll · esc back"))
	return b.String()
}

// renderChat rebuilds the viewport from the engine's current snapshot
// and pins the view to the newest message.
func (m *Model) renderChat() {
	if m.engine == nil {
		return
	}
	selfID, _ := m.deps.Session.UserID()

	var b strings.Builder
	for _, em := range m.engine.Messages() {
		style := senderStyle
		if em.SenderID == selfID {
			style = selfSenderStyle
		}
		header := style.Render(em.SenderName)
		if !em.Timestamp.IsZero() {
			header += " " + timestampStyle.Render(em.Timestamp.Local().Format("15:04"))
		}
		b.WriteString(header + "\n")
		b.WriteString(lipgloss.NewStyle().Width(m.chatView.Width).Render(em.Content) + "\n")
	}
	m.chatView.SetContent(b.String())
	m.chatView.GotoBottom()
}
