// Package tui is the terminal front end: authentication, the user
// directory, profile editing and the chat view, all driven by the same
// API clients and the reconciliation engine underneath.
package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ZorinDanil/vestnik/internal/api"
	"github.com/ZorinDanil/vestnik/internal/apperr"
	"github.com/ZorinDanil/vestnik/internal/chat"
	"github.com/ZorinDanil/vestnik/internal/models"
	"github.com/ZorinDanil/vestnik/internal/profiles"
	"github.com/ZorinDanil/vestnik/internal/session"

	"github.com/rs/zerolog"
)

var errNoSession = apperr.Unauthorized("not logged in")

type view int

const (
	viewAuth view = iota
	viewUsers
	viewProfile
	viewChat
)

const (
	authFieldUsername = iota
	authFieldEmail
	authFieldPassword
	authFieldCount
)

const (
	profileFieldName = iota
	profileFieldLastname
	profileFieldPicture
	profileFieldCount
)

// Deps carries everything the front end talks to.
type Deps struct {
	Auth     *api.AuthClient
	Profiles *api.ProfileClient
	Chat     *api.ChatClient
	Session  session.Store
	Logger   zerolog.Logger
}

// Model is the top-level Bubble Tea model.
type Model struct {
	deps  Deps
	cache *profiles.Cache

	view   view
	width  int
	height int
	status string
	busy   bool
	spin   spinner.Model

	// auth form
	registering bool
	authInputs  []textinput.Model
	authFocus   int

	// user directory
	users  []models.Profile
	cursor int

	// own profile
	self          *models.Profile
	editing       bool
	profileInputs []textinput.Model
	profileFocus  int

	// active chat
	peer      models.Profile
	engine    *chat.Engine
	chatView  viewport.Model
	chatInput textinput.Model
}

// New builds the initial model. The directory opens straight away when
// a stored session exists; otherwise the auth form does.
func New(deps Deps) *Model {
	m := &Model{
		deps:  deps,
		cache: profiles.NewCache(deps.Profiles, deps.Logger),
		view:  viewAuth,
	}

	m.spin = spinner.New()
	m.spin.Spinner = spinner.Dot

	m.authInputs = make([]textinput.Model, authFieldCount)
	for i := range m.authInputs {
		m.authInputs[i] = textinput.New()
	}
	m.authInputs[authFieldUsername].Placeholder = "username"
	m.authInputs[authFieldEmail].Placeholder = "email"
	m.authInputs[authFieldPassword].Placeholder = "password"
	m.authInputs[authFieldPassword].EchoMode = textinput.EchoPassword
	m.authInputs[authFieldUsername].Focus()

	m.profileInputs = make([]textinput.Model, profileFieldCount)
	for i := range m.profileInputs {
		m.profileInputs[i] = textinput.New()
	}
	m.profileInputs[profileFieldName].Placeholder = "name"
	m.profileInputs[profileFieldLastname].Placeholder = "lastname"
	m.profileInputs[profileFieldPicture].Placeholder = "picture (base64)"

	m.chatInput = textinput.New()
	m.chatInput.Placeholder = "message"
	m.chatView = viewport.New(80, 20)

	if _, ok := deps.Session.Token(); ok {
		m.view = viewUsers
		m.busy = true
	}
	return m
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spin.Tick, textinput.Blink}
	if m.view == viewUsers {
		cmds = append(cmds, m.loadProfilesCmd())
	}
	return tea.Batch(cmds...)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.chatView.Width = msg.Width - 4
		m.chatView.Height = msg.Height - 7
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, m.quit()
		}
		switch m.view {
		case viewAuth:
			return m.updateAuth(msg)
		case viewUsers:
			return m.updateUsers(msg)
		case viewProfile:
			return m.updateProfile(msg)
		case viewChat:
			return m.updateChat(msg)
		}

	case authDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.status = msg.err.Error()
			return m, nil
		}
		if err := m.deps.Session.Set(msg.sess.AccessToken, msg.sess.ID); err != nil {
			m.deps.Logger.Warn().Err(err).Msg("session not persisted")
		}
		m.status = ""
		m.view = viewUsers
		m.busy = true
		return m, m.loadProfilesCmd()

	case profilesLoadedMsg:
		m.busy = false
		if msg.err != nil {
			m.status = msg.err.Error()
			return m, nil
		}
		m.status = ""
		m.users = m.withoutSelf(msg.list)
		if m.cursor >= len(m.users) {
			m.cursor = 0
		}
		return m, nil

	case selfProfileMsg:
		m.busy = false
		if msg.err != nil {
			m.status = msg.err.Error()
			return m, nil
		}
		m.setSelf(msg.profile)
		return m, nil

	case profileSavedMsg:
		m.busy = false
		if msg.err != nil {
			m.status = msg.err.Error()
			return m, nil
		}
		m.status = "profile saved"
		m.editing = false
		m.setSelf(msg.profile)
		return m, nil

	case chatReadyMsg:
		m.busy = false
		if msg.err != nil {
			m.status = msg.err.Error()
			return m, nil
		}
		m.status = ""
		m.peer = msg.peer
		m.engine = msg.engine
		m.view = viewChat
		m.chatInput.Reset()
		m.chatInput.Focus()
		m.renderChat()
		return m, awaitEngineCmd(msg.engine)

	case engineUpdateMsg:
		// Signals from an engine we already left are stale.
		if m.engine != msg.engine {
			return m, nil
		}
		m.renderChat()
		return m, awaitEngineCmd(msg.engine)

	case engineClosedMsg:
		if m.view == viewChat && m.engine == msg.engine {
			m.status = "connection closed"
		}
		return m, nil
	}

	return m, nil
}

func (m *Model) updateAuth(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "down":
		m.authFocus = m.nextAuthField(1)
		return m, m.focusAuth()
	case "shift+tab", "up":
		m.authFocus = m.nextAuthField(-1)
		return m, m.focusAuth()
	case "ctrl+r":
		m.registering = !m.registering
		m.status = ""
		if !m.registering && m.authFocus == authFieldEmail {
			m.authFocus = authFieldPassword
		}
		return m, m.focusAuth()
	case "enter":
		if m.busy {
			return m, nil
		}
		username := strings.TrimSpace(m.authInputs[authFieldUsername].Value())
		password := m.authInputs[authFieldPassword].Value()
		if username == "" || password == "" {
			m.status = "username and password are required"
			return m, nil
		}
		m.busy = true
		m.status = ""
		if m.registering {
			email := strings.TrimSpace(m.authInputs[authFieldEmail].Value())
			return m, m.registerCmd(username, email, password)
		}
		return m, m.loginCmd(username, password)
	}

	var cmd tea.Cmd
	m.authInputs[m.authFocus], cmd = m.authInputs[m.authFocus].Update(msg)
	return m, cmd
}

func (m *Model) updateUsers(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, m.quit()
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.users)-1 {
			m.cursor++
		}
	case "r":
		m.busy = true
		return m, m.loadProfilesCmd()
	case "p":
		m.view = viewProfile
		m.editing = false
		m.busy = true
		return m, m.loadSelfProfileCmd()
	case "ctrl+l":
		if err := m.deps.Session.Clear(); err != nil {
			m.deps.Logger.Warn().Err(err).Msg("session clear failed")
		}
		m.resetAuth()
		return m, nil
	case "enter":
		if m.busy || len(m.users) == 0 {
			return m, nil
		}
		m.busy = true
		m.status = ""
		return m, m.openChatCmd(m.users[m.cursor])
	}
	return m, nil
}

func (m *Model) updateProfile(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !m.editing {
		switch msg.String() {
		case "esc", "q":
			m.view = viewUsers
			m.status = ""
		case "e":
			m.editing = true
			m.profileFocus = profileFieldName
			return m, m.focusProfile()
		}
		return m, nil
	}

	switch msg.String() {
	case "esc":
		m.editing = false
		m.status = ""
		return m, nil
	case "tab", "down":
		m.profileFocus = (m.profileFocus + 1) % profileFieldCount
		return m, m.focusProfile()
	case "shift+tab", "up":
		m.profileFocus = (m.profileFocus + profileFieldCount - 1) % profileFieldCount
		return m, m.focusProfile()
	case "enter":
		if m.busy {
			return m, nil
		}
		m.busy = true
		m.status = ""
		return m, m.saveProfileCmd(m.profileEdits())
	}

	var cmd tea.Cmd
	m.profileInputs[m.profileFocus], cmd = m.profileInputs[m.profileFocus].Update(msg)
	return m, cmd
}

func (m *Model) updateChat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if m.engine != nil {
			_ = m.engine.Close()
			m.engine = nil
		}
		m.view = viewUsers
		m.status = ""
		return m, nil
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.chatView, cmd = m.chatView.Update(msg)
		return m, cmd
	case "enter":
		content := strings.TrimSpace(m.chatInput.Value())
		if content == "" || m.engine == nil {
			return m, nil
		}
		if err := m.engine.Send(content); err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.status = ""
		m.chatInput.Reset()
		return m, nil
	}

	var cmd tea.Cmd
	m.chatInput, cmd = m.chatInput.Update(msg)
	return m, cmd
}

func (m *Model) quit() tea.Cmd {
	if m.engine != nil {
		_ = m.engine.Close()
		m.engine = nil
	}
	return tea.Quit
}

// withoutSelf drops the caller's own profile from the directory.
func (m *Model) withoutSelf(list []models.Profile) []models.Profile {
	selfID, _ := m.deps.Session.UserID()
	out := make([]models.Profile, 0, len(list))
	for _, p := range list {
		if p.UserID == selfID {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (m *Model) setSelf(p *models.Profile) {
	m.self = p
	m.profileInputs[profileFieldName].SetValue(p.Name)
	m.profileInputs[profileFieldLastname].SetValue(p.Lastname)
	m.profileInputs[profileFieldPicture].SetValue(p.ProfilePictureURL)
}

// profileEdits builds a partial update from the fields that changed.
func (m *Model) profileEdits() models.ProfileUpdate {
	var upd models.ProfileUpdate
	if m.self == nil {
		return upd
	}
	if v := m.profileInputs[profileFieldName].Value(); v != m.self.Name {
		upd.Name = &v
	}
	if v := m.profileInputs[profileFieldLastname].Value(); v != m.self.Lastname {
		upd.Lastname = &v
	}
	if v := m.profileInputs[profileFieldPicture].Value(); v != m.self.ProfilePictureURL {
		upd.ProfilePictureURL = &v
	}
	return upd
}

func (m *Model) resetAuth() {
	m.view = viewAuth
	m.registering = false
	m.status = ""
	m.users = nil
	m.self = nil
	m.cursor = 0
	for i := range m.authInputs {
		m.authInputs[i].Reset()
	}
	m.authFocus = authFieldUsername
	m.authInputs[authFieldUsername].Focus()
}

// nextAuthField steps the focus, skipping email in login mode.
func (m *Model) nextAuthField(dir int) int {
	f := m.authFocus
	for {
		f = (f + dir + authFieldCount) % authFieldCount
		if f == authFieldEmail && !m.registering {
			continue
		}
		return f
	}
}

func (m *Model) focusAuth() tea.Cmd {
	var cmd tea.Cmd
	for i := range m.authInputs {
		if i == m.authFocus {
			cmd = m.authInputs[i].Focus()
		} else {
			m.authInputs[i].Blur()
		}
	}
	return cmd
}

func (m *Model) focusProfile() tea.Cmd {
	var cmd tea.Cmd
	for i := range m.profileInputs {
		if i == m.profileFocus {
			cmd = m.profileInputs[i].Focus()
		} else {
			m.profileInputs[i].Blur()
		}
	}
	return cmd
}
