// Copyright 2026 The Kaalition Authors
// SPDX-License-Identifier: Apache-2.0

// Package credstore persists account credentials as an ordered JSON list on
// disk. The file is meant for human inspection and occasional hand-editing:
// it is pretty-printed, keeps Cyrillic text unescaped, and tolerates
// JSON-with-comments on load. Passwords are stored in plaintext; the file
// mode (0600) is the only protection.
package credstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
)

// Record is one persisted account. Field names match the wire names the
// platform uses for the same attributes, so a record can be eyeballed
// against API responses.
type Record struct {
	Token       string `json:"token"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Active      bool   `json:"active"`
	Nickname    string `json:"nickname"`
	UserID      int64  `json:"user_id"`
	Avatar      string `json:"avatar"`
	Bio         string `json:"bio"`
	AvatarEmoji string `json:"avatar_emoji"`

	ProfilePublic bool `json:"profile_public"`
	ShowOnline    bool `json:"show_online"`
	AllowMessages bool `json:"allow_messages"`
	ShowInSearch  bool `json:"show_in_search"`
	IsAdmin       bool `json:"is_admin"`
	IsVerified    bool `json:"is_verified"`

	Theme     string `json:"theme"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// Store reads and writes the account list at a fixed path.
type Store struct {
	path string
}

// New creates a Store for the given file path. The file need not exist yet.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the file path the store reads and writes.
func (s *Store) Path() string {
	return s.path
}

// Load reads all records from the file. A missing file and malformed content
// both yield an empty list — there is no partial parse. Comments in the file
// (// and /* */) are stripped before decoding.
func (s *Store) Load() []Record {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil
	}

	var records []Record
	if err := json.Unmarshal(jsonc.ToJSON(data), &records); err != nil {
		return nil
	}
	return records
}

// Active returns only the records whose active flag is set.
func (s *Store) Active() []Record {
	var active []Record
	for _, record := range s.Load() {
		if record.Active {
			active = append(active, record)
		}
	}
	return active
}

// Save replaces the file with the given records. The write is atomic: the
// list is written to a temporary file in the same directory and renamed over
// the target. Output is pretty-printed with HTML escaping disabled so
// Cyrillic nicknames and emoji stay readable.
func (s *Store) Save(records []Record) error {
	if records == nil {
		records = []Record{}
	}

	var buffer bytes.Buffer
	encoder := json.NewEncoder(&buffer)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "    ")
	if err := encoder.Encode(records); err != nil {
		return fmt.Errorf("credstore: encoding %d records: %w", len(records), err)
	}

	directory := filepath.Dir(s.path)
	if err := os.MkdirAll(directory, 0o700); err != nil {
		return fmt.Errorf("credstore: creating directory %s: %w", directory, err)
	}

	temporary, err := os.CreateTemp(directory, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("credstore: creating temporary file: %w", err)
	}
	temporaryPath := temporary.Name()

	_, writeErr := temporary.Write(buffer.Bytes())
	if writeErr == nil {
		writeErr = temporary.Chmod(0o600)
	}
	if closeErr := temporary.Close(); writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("credstore: writing %s: %w", temporaryPath, writeErr)
	}

	if err := os.Rename(temporaryPath, s.path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("credstore: replacing %s: %w", s.path, err)
	}
	return nil
}

// Upsert inserts the record, replacing any existing record with the same
// username. Username is the identity key: re-saving an account after a
// field change updates its row instead of appending a duplicate.
func (s *Store) Upsert(record Record) error {
	records := s.Load()
	replaced := false
	for i := range records {
		if records[i].Username == record.Username {
			records[i] = record
			replaced = true
			break
		}
	}
	if !replaced {
		records = append(records, record)
	}
	return s.Save(records)
}

// CleanInactive removes records whose active flag is cleared. When backup is
// true and anything is removed, the full pre-clean list is first written to
// a sibling file with a "_backup" suffix. Returns the number of removed
// records and the backup path (empty when no backup was written).
func (s *Store) CleanInactive(backup bool) (int, string, error) {
	records := s.Load()
	if len(records) == 0 {
		return 0, "", nil
	}

	var active []Record
	for _, record := range records {
		if record.Active {
			active = append(active, record)
		}
	}
	removed := len(records) - len(active)
	if removed == 0 {
		return 0, "", nil
	}

	backupPath := ""
	if backup {
		backupPath = backupPathFor(s.path)
		if err := New(backupPath).Save(records); err != nil {
			return 0, "", fmt.Errorf("credstore: writing backup: %w", err)
		}
	}

	if err := s.Save(active); err != nil {
		return 0, backupPath, err
	}
	return removed, backupPath, nil
}

func backupPathFor(path string) string {
	extension := filepath.Ext(path)
	if extension == "" {
		return path + "_backup"
	}
	return strings.TrimSuffix(path, extension) + "_backup" + extension
}
