package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ZorinDanil/vestnik/internal/chat"
	"github.com/ZorinDanil/vestnik/internal/models"
)

type authDoneMsg struct {
	sess *models.AuthSession
	err  error
}

type profilesLoadedMsg struct {
	list []models.Profile
	err  error
}

type chatReadyMsg struct {
	peer   models.Profile
	engine *chat.Engine
	err    error
}

type engineUpdateMsg struct {
	engine *chat.Engine
}

type engineClosedMsg struct {
	engine *chat.Engine
}

type selfProfileMsg struct {
	profile *models.Profile
	err     error
}

type profileSavedMsg struct {
	profile *models.Profile
	err     error
}

func (m *Model) loginCmd(username, password string) tea.Cmd {
	return func() tea.Msg {
		sess, err := m.deps.Auth.Login(context.Background(), username, password)
		return authDoneMsg{sess: sess, err: err}
	}
}

// registerCmd registers and then logs in: the auth service does not
// return a token on registration.
func (m *Model) registerCmd(username, email, password string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		if _, err := m.deps.Auth.Register(ctx, username, email, password); err != nil {
			return authDoneMsg{err: err}
		}
		sess, err := m.deps.Auth.Login(ctx, username, password)
		return authDoneMsg{sess: sess, err: err}
	}
}

func (m *Model) loadProfilesCmd() tea.Cmd {
	return func() tea.Msg {
		list, err := m.deps.Profiles.ListProfiles(context.Background())
		return profilesLoadedMsg{list: list, err: err}
	}
}

func (m *Model) loadSelfProfileCmd() tea.Cmd {
	userID, _ := m.deps.Session.UserID()
	return func() tea.Msg {
		p, err := m.cache.Resolve(context.Background(), userID)
		return selfProfileMsg{profile: p, err: err}
	}
}

func (m *Model) saveProfileCmd(update models.ProfileUpdate) tea.Cmd {
	userID, _ := m.deps.Session.UserID()
	cache := m.cache
	return func() tea.Msg {
		p, err := m.deps.Profiles.UpdateProfile(context.Background(), userID, update)
		if err == nil {
			// The snapshot is stale now; make the next lookup fetch fresh.
			cache.Invalidate(userID)
		}
		return profileSavedMsg{profile: p, err: err}
	}
}

// openChatCmd finds or creates the chat with the peer, then builds and
// starts a reconciliation engine for it.
func (m *Model) openChatCmd(peer models.Profile) tea.Cmd {
	deps := m.deps
	cache := m.cache
	return func() tea.Msg {
		token, ok := deps.Session.Token()
		if !ok {
			return chatReadyMsg{err: errNoSession}
		}
		selfID, _ := deps.Session.UserID()

		ctx := context.Background()
		ch, err := chat.FindOrCreate(ctx, deps.Chat, []string{peer.UserID}, token)
		if err != nil {
			return chatReadyMsg{err: err}
		}

		// Warm the cache with the viewer's own profile so own messages
		// render with a name straight away. Non-fatal.
		_, _ = cache.Resolve(ctx, selfID)

		open := func(ctx context.Context, chatID, token string) (chat.Channel, error) {
			lc, err := deps.Chat.OpenLiveChannel(ctx, chatID, token)
			if err != nil {
				// Return an untyped nil so the engine's nil check sees
				// the channel as absent rather than a typed-nil value.
				return nil, err
			}
			return lc, nil
		}
		engine := chat.NewEngine(ch.ID, selfID, token, deps.Chat, cache, open, deps.Logger)
		if err := engine.Start(ctx); err != nil {
			return chatReadyMsg{err: err}
		}
		return chatReadyMsg{peer: peer, engine: engine}
	}
}

// awaitEngineCmd delivers the next sequence-changed signal, or the
// closed signal once the engine drains.
func awaitEngineCmd(engine *chat.Engine) tea.Cmd {
	return func() tea.Msg {
		if _, open := <-engine.Updates(); !open {
			return engineClosedMsg{engine: engine}
		}
		return engineUpdateMsg{engine: engine}
	}
}
