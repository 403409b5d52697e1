package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/laibajaved880/team-chat/internal/store"
)

// Default rooms seeded on first start.
var defaultRooms = []string{"General", "Developers", "HR"}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	username  TEXT NOT NULL UNIQUE,
	last_seen DATETIME
);

CREATE TABLE IF NOT EXISTS rooms (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS messages (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	room_id    INTEGER NOT NULL,
	user_id    INTEGER NOT NULL,
	content    TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	FOREIGN KEY (room_id) REFERENCES rooms(id),
	FOREIGN KEY (user_id) REFERENCES users(id)
);

CREATE INDEX IF NOT EXISTS idx_messages_room ON messages(room_id, created_at DESC);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a SQLite store, applies the schema and seeds the default
// rooms. dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, func(db *sql.DB) error {
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
		for _, name := range defaultRooms {
			if _, err := db.Exec(`INSERT OR IGNORE INTO rooms (name) VALUES (?)`, name); err != nil {
				return fmt.Errorf("seed room %q: %w", name, err)
			}
		}
		return nil
	})
}

// NewWithSetup creates a SQLite store and runs a setup function before use.
// Useful for tests to apply a custom schema.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== UserStore implementation ====

// EnsureUser returns the user with the given username, creating the row on
// first sight.
func (s *SQLiteStore) EnsureUser(ctx context.Context, username string) (*store.User, error) {
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO users (username, last_seen) VALUES (?, ?)`,
		username, time.Now().UTC(),
	); err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	var user store.User
	var lastSeen sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, last_seen FROM users WHERE username = ?`, username,
	).Scan(&user.ID, &user.Username, &lastSeen)
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	if lastSeen.Valid {
		user.LastSeen = &lastSeen.Time
	}
	return &user, nil
}

// TouchLastSeen updates the user's last_seen timestamp.
func (s *SQLiteStore) TouchLastSeen(ctx context.Context, username string, at time.Time) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE users SET last_seen = ? WHERE username = ?`, at.UTC(), username,
	); err != nil {
		return fmt.Errorf("update last_seen: %w", err)
	}
	return nil
}

// ==== RoomStore implementation ====

// EnsureRoom returns the room with the given name, creating it on the fly
// when missing.
func (s *SQLiteStore) EnsureRoom(ctx context.Context, name string) (*store.Room, error) {
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO rooms (name) VALUES (?)`, name,
	); err != nil {
		return nil, fmt.Errorf("insert room: %w", err)
	}

	room, err := s.GetRoomByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, fmt.Errorf("room %q not found after insert", name)
	}
	return room, nil
}

// GetRoomByName retrieves a room by name, or nil when absent.
func (s *SQLiteStore) GetRoomByName(ctx context.Context, name string) (*store.Room, error) {
	var room store.Room
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name FROM rooms WHERE name = ?`, name,
	).Scan(&room.ID, &room.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query room: %w", err)
	}
	return &room, nil
}

// ListRooms lists all room names sorted alphabetically.
func (s *SQLiteStore) ListRooms(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM rooms ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query rooms: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rooms: %w", err)
	}
	return names, nil
}

// ==== MessageStore implementation ====

// SaveMessage appends a message to the room's log and returns its id. The
// room and user rows are ensured so the append cannot dangle.
func (s *SQLiteStore) SaveMessage(ctx context.Context, msg *store.Message) (int64, error) {
	room, err := s.EnsureRoom(ctx, msg.Room)
	if err != nil {
		return 0, fmt.Errorf("ensure room: %w", err)
	}
	user, err := s.EnsureUser(ctx, msg.Username)
	if err != nil {
		return 0, fmt.Errorf("ensure user: %w", err)
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (room_id, user_id, content, created_at) VALUES (?, ?, ?, ?)`,
		room.ID, user.ID, msg.Content, msg.CreatedAt.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id: %w", err)
	}
	return id, nil
}

// ListRecentMessages returns the most recent limit messages of a room in
// chronological order.
func (s *SQLiteStore) ListRecentMessages(ctx context.Context, room string, limit int) ([]*store.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.id, r.name, u.username, m.content, m.created_at
		FROM messages m
		JOIN rooms r ON r.id = m.room_id
		JOIN users u ON u.id = m.user_id
		WHERE r.name = ?
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT ?
	`, room, limit)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var msgs []*store.Message
	for rows.Next() {
		var msg store.Message
		if err := rows.Scan(&msg.ID, &msg.Room, &msg.Username, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	// Newest-first from the query; reverse to oldest-first for replay.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}
