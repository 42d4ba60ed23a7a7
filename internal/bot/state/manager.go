package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vladimiradmaev/eyecare-tracker/internal/kv"
	"github.com/vladimiradmaev/eyecare-tracker/internal/session"
)

// Conversation steps
const (
	None               = ""
	WaitingForToken    = "waiting_for_token"
	WaitingForReminder = "waiting_for_reminder"
)

const keyPrefix = "chat:"

// ChatSession is what the bot remembers about one chat
type ChatSession struct {
	Onboarded bool   `json:"onboarded"`
	UserID    string `json:"userId,omitempty"`
	Token     string `json:"token,omitempty"`
	Step      string `json:"step,omitempty"`
}

// SessionState is the part of the chat session that picks the root screen
func (s ChatSession) SessionState() session.State {
	return session.State{Onboarded: s.Onboarded, UserID: s.UserID}
}

// SignOut forgets the linked account and keeps the onboarding flag
func (s *ChatSession) SignOut() {
	s.UserID = ""
	s.Token = ""
	s.Step = None
}

// Manager persists chat sessions in the key-value store so they survive a
// restart.
type Manager struct {
	store kv.Store
}

func NewManager(store kv.Store) *Manager {
	return &Manager{store: store}
}

func sessionKey(chatID int64) string {
	return fmt.Sprintf("%s%d:session", keyPrefix, chatID)
}

// Get returns the session of a chat, or a fresh one if none was saved
func (m *Manager) Get(ctx context.Context, chatID int64) (ChatSession, error) {
	raw, err := m.store.Get(ctx, sessionKey(chatID))
	if errors.Is(err, kv.ErrNotFound) {
		return ChatSession{}, nil
	}
	if err != nil {
		return ChatSession{}, fmt.Errorf("failed to load chat session: %w", err)
	}

	var s ChatSession
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return ChatSession{}, fmt.Errorf("failed to decode chat session: %w", err)
	}
	return s, nil
}

func (m *Manager) Save(ctx context.Context, chatID int64, s ChatSession) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode chat session: %w", err)
	}
	if err := m.store.Set(ctx, sessionKey(chatID), string(raw), 0); err != nil {
		return fmt.Errorf("failed to save chat session: %w", err)
	}
	return nil
}

// SetStep updates only the conversation step
func (m *Manager) SetStep(ctx context.Context, chatID int64, step string) error {
	s, err := m.Get(ctx, chatID)
	if err != nil {
		return err
	}
	s.Step = step
	return m.Save(ctx, chatID, s)
}

// Clear removes everything stored for a chat
func (m *Manager) Clear(ctx context.Context, chatID int64) error {
	if err := m.store.Delete(ctx, sessionKey(chatID)); err != nil {
		return fmt.Errorf("failed to clear chat session: %w", err)
	}
	return nil
}
