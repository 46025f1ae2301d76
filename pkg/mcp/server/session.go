// SPDX-License-Identifier: Apache-2.0

package server

import (
	"sync"

	"github.com/osbuild/image-builder-mcp/pkg/auth"
)

// blueprintRow is one entry of a blueprint listing snapshot. The JSON keys
// are part of the tool reply contract that agents navigate, including the
// upper-case UI_URL key.
type blueprintRow struct {
	ReplyID       int    `json:"reply_id"`
	BlueprintUUID string `json:"blueprint_uuid"`
	UIURL         string `json:"UI_URL"`
	Name          string `json:"name"`
}

// composeRow is one entry of a compose listing snapshot. BlueprintID and
// BlueprintURL fall back to "N/A" when the compose was not built from a
// blueprint.
type composeRow struct {
	ReplyID      int    `json:"reply_id"`
	ComposeUUID  string `json:"compose_uuid"`
	BlueprintID  string `json:"blueprint_id"`
	ImageName    string `json:"image_name"`
	BlueprintURL string `json:"blueprint_url"`
}

// sessionKey derives the snapshot index key from resolved credentials. A
// client ID/secret pair keys by client ID, so every transport connection of
// the same service account shares one snapshot. A bearer token keys by its
// session claim when it has one, and by a hash of the token bytes otherwise.
func sessionKey(creds *auth.Credentials) string {
	if creds.IsBearer() {
		if hint := auth.SessionHint(creds.BearerToken); hint != "" {
			return hint
		}
		return creds.Fingerprint()
	}
	return creds.ClientID
}

// sessionState holds the listing snapshots of one caller. The next fields
// are 1-based positions of the next row to serve; a value past the end of
// the snapshot means the listing is exhausted.
type sessionState struct {
	blueprintRows []blueprintRow
	blueprintNext int
	composeRows   []composeRow
	composeNext   int
}

// sessionIndex tracks listing snapshots per caller so get_more_* and the
// details tools can resolve reply IDs without refetching. Snapshots are
// replaced wholesale by fresh listings and never expire on their own.
type sessionIndex struct {
	mu       sync.RWMutex
	sessions map[string]*sessionState
}

func newSessionIndex() *sessionIndex {
	return &sessionIndex{sessions: make(map[string]*sessionState)}
}

// Blueprints returns the blueprint snapshot and cursor for the key. A caller
// without a snapshot gets an empty slice and a zero cursor.
func (s *sessionIndex) Blueprints(key string) ([]blueprintRow, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.sessions[key]
	if !ok {
		return nil, 0
	}
	return state.blueprintRows, state.blueprintNext
}

// SetBlueprints replaces the blueprint snapshot and cursor for the key.
func (s *sessionIndex) SetBlueprints(key string, rows []blueprintRow, next int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.state(key)
	state.blueprintRows = rows
	state.blueprintNext = next
}

// AdvanceBlueprints moves the blueprint cursor without touching the snapshot.
func (s *sessionIndex) AdvanceBlueprints(key string, next int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state(key).blueprintNext = next
}

// Composes returns the compose snapshot and cursor for the key.
func (s *sessionIndex) Composes(key string) ([]composeRow, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.sessions[key]
	if !ok {
		return nil, 0
	}
	return state.composeRows, state.composeNext
}

// SetComposes replaces the compose snapshot and cursor for the key.
func (s *sessionIndex) SetComposes(key string, rows []composeRow, next int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.state(key)
	state.composeRows = rows
	state.composeNext = next
}

// AdvanceComposes moves the compose cursor without touching the snapshot.
func (s *sessionIndex) AdvanceComposes(key string, next int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state(key).composeNext = next
}

// state returns the state for the key, creating it when absent. Callers must
// hold the write lock.
func (s *sessionIndex) state(key string) *sessionState {
	state, ok := s.sessions[key]
	if !ok {
		state = &sessionState{}
		s.sessions[key] = state
	}
	return state
}
