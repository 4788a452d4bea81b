package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nerrad567/event-companion-core/internal/infrastructure/config"
	"github.com/nerrad567/event-companion-core/internal/infrastructure/database"
	"github.com/nerrad567/event-companion-core/internal/infrastructure/logging"
)

// Persisted keys in the session_state table.
const (
	KeyToken        = "token"
	KeyRole         = "role"
	KeyUserID       = "userId"
	KeyEmail        = "email"
	KeyTicket       = "ticket"
	KeySyncedEmails = "syncedEmails"
	KeyCacheEpoch   = "cacheEpoch"
)

// sessionKeys are removed by Clear. syncedEmails and cacheEpoch are
// per-install and outlive a session.
var sessionKeys = []string{KeyToken, KeyRole, KeyUserID, KeyEmail, KeyTicket}

// SessionStore persists the active session and the synced-email set in the
// session_state table.
//
// Thread Safety: all methods are safe for concurrent use; SQLite serialises
// writers and multi-key writes run in one transaction.
type SessionStore struct {
	db            *sql.DB
	logger        *logging.Logger
	rejectExpired bool
	now           func() time.Time
}

// NewSessionStore creates a store over db.
func NewSessionStore(db *sql.DB, cfg config.SessionConfig, logger *logging.Logger) *SessionStore {
	if logger == nil {
		logger = logging.Discard()
	}
	return &SessionStore{
		db:            db,
		logger:        logger.With("component", "session_store"),
		rejectExpired: cfg.RejectExpiredTokens,
		now:           time.Now,
	}
}

// Load returns the persisted session. Any missing or malformed required
// field clears the persisted session and yields (nil, false); read
// failures are logged and also yield (nil, false).
func (s *SessionStore) Load(ctx context.Context) (*Session, bool) {
	values, err := s.readKeys(ctx, sessionKeys...)
	if err != nil {
		s.logger.Error("reading session state", "error", err)
		return nil, false
	}
	if len(values) == 0 {
		return nil, false
	}

	sess, reason := s.decode(values)
	if sess == nil {
		s.logger.Warn("discarding persisted session", "reason", reason)
		if err := s.deleteKeys(ctx); err != nil {
			s.logger.Error("clearing malformed session", "error", err)
		}
		return nil, false
	}
	return sess, true
}

func (s *SessionStore) decode(values map[string]string) (*Session, string) {
	token := values[KeyToken]
	userID := values[KeyUserID]
	rawRole, hasRole := values[KeyRole]

	switch {
	case token == "":
		return nil, "missing token"
	case userID == "":
		return nil, "missing user id"
	case !hasRole || rawRole == "":
		return nil, "missing role"
	}

	role, ok := ParseRole(rawRole)
	if !ok {
		return nil, "unknown role"
	}
	if s.rejectExpired && TokenExpired(token, s.now()) {
		return nil, "token expired"
	}

	return &Session{
		UserID: userID,
		Role:   role,
		Token:  token,
		Ticket: values[KeyTicket],
		Email:  values[KeyEmail],
	}, ""
}

// Save writes every session field in one transaction. Empty optional
// fields remove their key so a stale ticket never survives a re-login.
func (s *SessionStore) Save(ctx context.Context, sess Session) error {
	if !sess.Complete() {
		return ErrIncompleteSession
	}

	fields := map[string]string{
		KeyToken:  sess.Token,
		KeyRole:   string(sess.Role),
		KeyUserID: sess.UserID,
		KeyEmail:  sess.Email,
		KeyTicket: sess.Ticket,
	}
	now := s.timestamp()

	err := database.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, key := range sessionKeys {
			if fields[key] == "" {
				if _, err := tx.ExecContext(ctx, `DELETE FROM session_state WHERE key = ?`, key); err != nil {
					return fmt.Errorf("deleting %s: %w", key, err)
				}
				continue
			}
			if err := upsert(ctx, tx, key, fields[key], now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// Clear removes the session keys and bumps the cache epoch.
func (s *SessionStore) Clear(ctx context.Context) error {
	now := s.timestamp()
	err := database.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := deleteSessionKeys(ctx, tx); err != nil {
			return err
		}

		var raw string
		err := tx.QueryRowContext(ctx,
			`SELECT value FROM session_state WHERE key = ?`, KeyCacheEpoch).Scan(&raw)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("reading cache epoch: %w", err)
		}
		epoch, _ := strconv.ParseInt(raw, 10, 64) //nolint:errcheck // corrupt epoch restarts at 1
		return upsert(ctx, tx, KeyCacheEpoch, strconv.FormatInt(epoch+1, 10), now)
	})
	if err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

// CacheEpoch returns the number of times Clear has run on this install.
func (s *SessionStore) CacheEpoch(ctx context.Context) int64 {
	values, err := s.readKeys(ctx, KeyCacheEpoch)
	if err != nil {
		s.logger.Error("reading cache epoch", "error", err)
		return 0
	}
	epoch, _ := strconv.ParseInt(values[KeyCacheEpoch], 10, 64) //nolint:errcheck // missing reads as 0
	return epoch
}

// SyncedEmails returns the lower-cased set of emails that completed legacy
// reconciliation. A corrupt list is wiped and reads as empty.
func (s *SessionStore) SyncedEmails(ctx context.Context) map[string]struct{} {
	set := make(map[string]struct{})

	values, err := s.readKeys(ctx, KeySyncedEmails)
	if err != nil {
		s.logger.Error("reading synced emails", "error", err)
		return set
	}
	raw, ok := values[KeySyncedEmails]
	if !ok {
		return set
	}

	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		s.logger.Warn("wiping corrupt synced email list", "error", err)
		if _, err := s.db.ExecContext(ctx,
			`DELETE FROM session_state WHERE key = ?`, KeySyncedEmails); err != nil {
			s.logger.Error("wiping synced emails", "error", err)
		}
		return set
	}
	for _, email := range list {
		if e := normaliseEmail(email); e != "" {
			set[e] = struct{}{}
		}
	}
	return set
}

// AddSyncedEmail adds email to the synced set.
func (s *SessionStore) AddSyncedEmail(ctx context.Context, email string) error {
	email = normaliseEmail(email)
	if email == "" {
		return nil
	}

	set := s.SyncedEmails(ctx)
	if _, ok := set[email]; ok {
		return nil
	}
	set[email] = struct{}{}

	list := make([]string, 0, len(set))
	for e := range set {
		list = append(list, e)
	}
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encoding synced emails: %w", err)
	}

	err = database.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		return upsert(ctx, tx, KeySyncedEmails, string(data), s.timestamp())
	})
	if err != nil {
		return fmt.Errorf("saving synced emails: %w", err)
	}
	return nil
}

// Reset wipes all persisted state, including the synced-email set.
func (s *SessionStore) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session_state`); err != nil {
		return fmt.Errorf("resetting session state: %w", err)
	}
	return nil
}

func (s *SessionStore) readKeys(ctx context.Context, keys ...string) (map[string]string, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value FROM session_state WHERE key IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying session state: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string, len(keys))
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scanning session state: %w", err)
		}
		values[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating session state: %w", err)
	}
	return values, nil
}

func (s *SessionStore) deleteKeys(ctx context.Context) error {
	return database.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		return deleteSessionKeys(ctx, tx)
	})
}

func (s *SessionStore) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

func deleteSessionKeys(ctx context.Context, tx *sql.Tx) error {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(sessionKeys)), ",")
	args := make([]any, len(sessionKeys))
	for i, k := range sessionKeys {
		args[i] = k
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM session_state WHERE key IN (`+placeholders+`)`, args...); err != nil {
		return fmt.Errorf("deleting session keys: %w", err)
	}
	return nil
}

func upsert(ctx context.Context, tx *sql.Tx, key, value, now string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO session_state (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, now)
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}
