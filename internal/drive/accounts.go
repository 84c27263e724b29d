package drive

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"driftbox/drive-api/internal/kv"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
)

const namespaceAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const namespaceLength = 10

// Register creates a new account with a fresh namespace token and an empty
// storage record. Usernames are matched case-sensitively, so "Alice" and
// "alice" are distinct accounts.
func (d *Drive) Register(username, password string) (*Account, error) {
	hash, err := d.argon.GenerateFromPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password, %w", err)
	}

	namespace, err := gonanoid.Generate(namespaceAlphabet, namespaceLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate namespace token, %w", err)
	}

	acc := storedAccount{
		Username:     username,
		PasswordHash: hash,
		Namespace:    namespace,
		CreatedAt:    time.Now().Unix(),
	}

	for attempt := 0; attempt < casAttempts; attempt++ {
		accounts, version, err := d.loadAccounts()
		if err != nil {
			return nil, err
		}

		for _, a := range accounts {
			if a.Username == username {
				return nil, ErrDuplicateAccount
			}
		}

		raw, err := json.Marshal(append(accounts, acc))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal account list, %w", err)
		}

		err = d.store.CompareAndSwap(usersKey, raw, version)
		if err != nil {
			if errors.Is(err, kv.ErrVersionMismatch) {
				continue
			}
			return nil, err
		}

		empty := StorageRecord{CapacityBytes: d.capacity}
		rawStorage, _ := json.Marshal(empty)

		if err := d.store.Put(storageKey(username, namespace), rawStorage); err != nil {
			return nil, fmt.Errorf("failed to create storage record, %w", err)
		}

		zap.L().Info("Account registered", zap.String("username", username))

		return acc.account(), nil
	}

	return nil, fmt.Errorf("failed to register account, too many concurrent writers")
}

// Login verifies the credentials and writes a session into the volatile
// store, returning the session token the caller presents on file operations.
func (d *Drive) Login(username, password string) (*Account, string, error) {
	accounts, _, err := d.loadAccounts()
	if err != nil {
		return nil, "", err
	}

	var match *storedAccount
	for i := range accounts {
		if accounts[i].Username == username {
			match = &accounts[i]
			break
		}
	}

	if match == nil {
		return nil, "", ErrInvalidCredentials
	}

	ok, err := d.argon.VerifyPasswd(password, match.PasswordHash)
	if err != nil {
		return nil, "", fmt.Errorf("failed to verify password, %w", err)
	}

	if !ok {
		return nil, "", ErrInvalidCredentials
	}

	tokenID, err := gonanoid.New(21)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate session token, %w", err)
	}

	session := sessionRecord{
		Username: username,
		IssuedAt: time.Now().Unix(),
	}

	raw, _ := json.Marshal(session)
	if err := d.sessions.Put(sessionKey(tokenID), raw); err != nil {
		return nil, "", fmt.Errorf("failed to store session, %w", err)
	}

	return match.account(), tokenID, nil
}

// Logout clears the session. Logging out a token that was never issued or is
// already cleared is not an error.
func (d *Drive) Logout(tokenID string) error {
	return d.sessions.Delete(sessionKey(tokenID))
}

// Current resolves a session token to its account. Returns
// ErrNotAuthenticated for missing, malformed or orphaned sessions.
func (d *Drive) Current(tokenID string) (*Account, error) {
	raw, _, err := d.sessions.Get(sessionKey(tokenID))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, err
	}

	var session sessionRecord
	if err := json.Unmarshal(raw, &session); err != nil || session.Username == "" {
		return nil, ErrNotAuthenticated
	}

	accounts, _, err := d.loadAccounts()
	if err != nil {
		return nil, err
	}

	for i := range accounts {
		if accounts[i].Username == session.Username {
			return accounts[i].account(), nil
		}
	}

	return nil, ErrNotAuthenticated
}

type sessionRecord struct {
	Username string `json:"username"`
	IssuedAt int64  `json:"issued_at"`
}

func (d *Drive) loadAccounts() ([]storedAccount, uint64, error) {
	raw, version, err := d.store.Get(usersKey)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("failed to load account list, %w", err)
	}

	var accounts []storedAccount
	if err := json.Unmarshal(raw, &accounts); err != nil {
		return nil, 0, fmt.Errorf("failed to unmarshal account list, %w", err)
	}

	return accounts, version, nil
}
