package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"
)

const defaultSessionTTL = 30 * 24 * time.Hour

var (
	ErrUserExists         = errors.New("帳號已存在")
	ErrInvalidCredentials = errors.New("帳號或密碼錯誤")
	ErrInvalidSession     = errors.New("會話無效或已過期")
)

// Store 保存帳號、登入會話與已結束的對局
type Store struct {
	db *sql.DB
}

type User struct {
	ID       int64
	Username string
	Created  time.Time
}

// MatchRecord 是一場結束的對局
type MatchRecord struct {
	RoomID    string
	Winner    string
	StartedAt time.Time
	EndedAt   time.Time
	Players   []MatchPlayer
}

// MatchPlayer 是對局中的一名參與者；AccountID 為 0 表示匿名玩家
type MatchPlayer struct {
	AccountID int64
	Name      string
	Team      string
	Role      string
	Alive     bool
}

// Stats 是帳號的戰績統計
type Stats struct {
	Played int `json:"played"`
	Wins   int `json:"wins"`
}

func New(dbPath string) (*Store, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("db 路徑不可為空")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("建立資料目錄失敗: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("開啟資料庫失敗: %w", err)
	}
	// sqlite 同時只允許一個寫入者
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	schema := `
CREATE TABLE IF NOT EXISTS users (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  username TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS sessions (
  token TEXT PRIMARY KEY,
  user_id INTEGER NOT NULL,
  created_at DATETIME NOT NULL,
  expires_at DATETIME NOT NULL,
  FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);
CREATE INDEX IF NOT EXISTS idx_sessions_expiry ON sessions(expires_at);
CREATE TABLE IF NOT EXISTS matches (
  id TEXT PRIMARY KEY,
  room_id TEXT NOT NULL,
  winner TEXT NOT NULL,
  started_at DATETIME NOT NULL,
  ended_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS match_players (
  match_id TEXT NOT NULL,
  user_id INTEGER,
  name TEXT NOT NULL,
  team TEXT NOT NULL,
  role TEXT NOT NULL,
  alive INTEGER NOT NULL,
  FOREIGN KEY(match_id) REFERENCES matches(id) ON DELETE CASCADE,
  FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE SET NULL
);
CREATE INDEX IF NOT EXISTS idx_match_players_user ON match_players(user_id);
`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("初始化資料表失敗: %w", err)
	}
	return nil
}

func (s *Store) CreateUser(ctx context.Context, username, password string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("帳號不可為空")
	}
	if len(password) < 6 {
		return nil, fmt.Errorf("密碼長度至少 6 碼")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("加密密碼失敗: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO users(username, password_hash) VALUES(?, ?)`, username, string(hash))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("建立使用者失敗: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("取得使用者 ID 失敗: %w", err)
	}
	return &User{ID: id, Username: username, Created: time.Now()}, nil
}

func (s *Store) Authenticate(ctx context.Context, username, password string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("帳號不可為空")
	}

	row := s.db.QueryRowContext(ctx, `SELECT id, password_hash, created_at FROM users WHERE username = ?`, username)
	var (
		id      int64
		hash    string
		created time.Time
	)
	if err := row.Scan(&id, &hash, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("查詢使用者失敗: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &User{ID: id, Username: username, Created: created}, nil
}

func (s *Store) CreateSession(ctx context.Context, userID int64, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	token, err := randomToken(32)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `INSERT INTO sessions(token, user_id, created_at, expires_at) VALUES(?, ?, ?, ?)`,
		token, userID, now, now.Add(ttl))
	if err != nil {
		return "", fmt.Errorf("建立會話失敗: %w", err)
	}
	return token, nil
}

func (s *Store) GetUserBySession(ctx context.Context, token string) (*User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidSession
	}

	row := s.db.QueryRowContext(ctx, `SELECT u.id, u.username, u.created_at FROM sessions s JOIN users u ON u.id = s.user_id WHERE s.token = ? AND s.expires_at > ?`,
		token, time.Now().UTC())
	var u User
	if err := row.Scan(&u.ID, &u.Username, &u.Created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidSession
		}
		return nil, fmt.Errorf("查詢會話失敗: %w", err)
	}
	return &u, nil
}

// CleanupExpiredSessions 刪除過期會話，回傳刪除筆數
func (s *Store) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("清理過期會話失敗: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// RecordMatch 在同一個交易中寫入對局與所有參與者
func (s *Store) RecordMatch(ctx context.Context, m MatchRecord) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("開始交易失敗: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	id := uuid.NewString()
	_, err = tx.ExecContext(ctx, `INSERT INTO matches(id, room_id, winner, started_at, ended_at) VALUES(?, ?, ?, ?, ?)`,
		id, m.RoomID, m.Winner, m.StartedAt.UTC(), m.EndedAt.UTC())
	if err != nil {
		return "", fmt.Errorf("寫入對局失敗: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO match_players(match_id, user_id, name, team, role, alive) VALUES(?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("準備寫入玩家失敗: %w", err)
	}
	defer stmt.Close()
	for _, p := range m.Players {
		var userID sql.NullInt64
		if p.AccountID > 0 {
			userID = sql.NullInt64{Int64: p.AccountID, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, id, userID, p.Name, p.Team, p.Role, p.Alive); err != nil {
			return "", fmt.Errorf("寫入對局玩家失敗: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("提交對局失敗: %w", err)
	}
	return id, nil
}

// Stats 統計帳號參與過的對局數與勝場
func (s *Store) Stats(ctx context.Context, userID int64) (Stats, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT COUNT(*), COALESCE(SUM(CASE WHEN mp.team = m.winner THEN 1 ELSE 0 END), 0)
FROM match_players mp JOIN matches m ON m.id = mp.match_id
WHERE mp.user_id = ?`, userID)
	var st Stats
	if err := row.Scan(&st.Played, &st.Wins); err != nil {
		return Stats{}, fmt.Errorf("查詢戰績失敗: %w", err)
	}
	return st, nil
}

func randomToken(bytesLen int) (string, error) {
	buf := make([]byte, bytesLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("生成亂數 token 失敗: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
