package dotdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const chatStateFile = "chat.json"

// ChatState remembers which conversation "costwise chat" resumes.
type ChatState struct {
	ConversationID string    `json:"conversation_id"`
	UserID         string    `json:"user_id"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// LoadChatState reads chat.json from the target directory.
// Returns nil, nil when no state has been saved.
func (m *Manager) LoadChatState(overrideDir string) (*ChatState, error) {
	path, err := m.chatStatePath(overrideDir)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading chat state: %w", err)
	}

	state := &ChatState{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("parsing chat state: %w", err)
	}
	return state, nil
}

// SaveChatState writes state to chat.json, stamping UpdatedAt.
func (m *Manager) SaveChatState(state *ChatState, overrideDir string) error {
	if state == nil {
		return errors.New("cannot save nil chat state")
	}
	if state.ConversationID == "" {
		return errors.New("chat state has no conversation id")
	}

	path, err := m.chatStatePath(overrideDir)
	if err != nil {
		return err
	}

	state.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling chat state: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing chat state: %w", err)
	}
	return nil
}

// ClearChatState removes chat.json so the next chat starts a new
// conversation. Clearing an absent state is not an error.
func (m *Manager) ClearChatState(overrideDir string) error {
	path, err := m.chatStatePath(overrideDir)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing chat state: %w", err)
	}
	return nil
}

func (m *Manager) chatStatePath(overrideDir string) (string, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, chatStateFile), nil
}
