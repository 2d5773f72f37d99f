package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"bennystab/internal/config"
	"bennystab/internal/server"
	serverstore "bennystab/internal/server/store"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type authRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

type profileResponse struct {
	Username string            `json:"username"`
	Stats    serverstore.Stats `json:"stats"`
}

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		logger.Fatal().Err(err).Msg("載入設定失敗")
	}
	lvl, _ := cfg.Level()
	logger = logger.Level(lvl)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logger.Fatal().Err(err).Msg("建立資料目錄失敗")
	}
	store, err := serverstore.New(filepath.Join(cfg.DataDir, "bennystab.db"))
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化資料庫失敗")
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Error().Err(cerr).Msg("關閉資料庫時發生錯誤")
		}
	}()

	hub := server.NewHub(server.HubOptions{
		Rules:    cfg.Rules,
		Logger:   logger,
		Recorder: store,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go cleanupSessions(ctx, store, cfg.CleanupInterval, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/register", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "僅支援 POST")
			return
		}
		var req authRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "請提供帳號與密碼")
			return
		}
		user, err := store.CreateUser(r.Context(), req.Username, req.Password)
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, serverstore.ErrUserExists) {
				status = http.StatusConflict
			}
			writeError(w, status, err.Error())
			return
		}
		token, err := store.CreateSession(r.Context(), user.ID, cfg.SessionTTL)
		if err != nil {
			logger.Error().Err(err).Msg("建立會話失敗")
			writeError(w, http.StatusInternalServerError, "建立會話失敗")
			return
		}
		writeJSON(w, http.StatusOK, authResponse{Token: token, Username: user.Username})
	})

	mux.HandleFunc("/api/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "僅支援 POST")
			return
		}
		var req authRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "請提供帳號與密碼")
			return
		}
		user, err := store.Authenticate(r.Context(), req.Username, req.Password)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		token, err := store.CreateSession(r.Context(), user.ID, cfg.SessionTTL)
		if err != nil {
			logger.Error().Err(err).Msg("建立會話失敗")
			writeError(w, http.StatusInternalServerError, "建立會話失敗")
			return
		}
		writeJSON(w, http.StatusOK, authResponse{Token: token, Username: user.Username})
	})

	mux.HandleFunc("/api/profile", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "僅支援 GET")
			return
		}
		token := parseAuthHeader(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "缺少會話資訊")
			return
		}
		user, err := store.GetUserBySession(r.Context(), token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		stats, err := store.Stats(r.Context(), user.ID)
		if err != nil {
			logger.Error().Err(err).Int64("user", user.ID).Msg("查詢戰績失敗")
			writeError(w, http.StatusInternalServerError, "查詢戰績失敗")
			return
		}
		writeJSON(w, http.StatusOK, profileResponse{Username: user.Username, Stats: stats})
	})

	// 未登入也能遊玩，只是不會累計戰績
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		authToken := strings.TrimSpace(r.URL.Query().Get("auth"))
		if authToken == "" {
			authToken = parseAuthHeader(r)
		}
		var (
			userID int64
			name   = strings.TrimSpace(r.URL.Query().Get("name"))
		)
		if authToken != "" {
			user, err := store.GetUserBySession(r.Context(), authToken)
			if err != nil {
				http.Error(w, "會話無效", http.StatusUnauthorized)
				return
			}
			userID = user.ID
			if name == "" {
				name = user.Username
			}
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn().Err(err).Msg("WebSocket 升級失敗")
			return
		}

		client := server.NewWebClient(conn, hub, userID, name, logger.With().Str("remote", r.RemoteAddr).Logger())
		hub.RegisterLobbyClient(client)
		go client.WritePump()
		client.ReadPump()
	})

	staticFS := http.FileServer(http.Dir(filepath.Join(cfg.WebDir, "static")))
	mux.Handle("/static/", http.StripPrefix("/static/", staticFS))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, filepath.Join(cfg.WebDir, "index.html"))
	})

	srv := &http.Server{Addr: cfg.Addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	logger.Info().Str("addr", cfg.Addr).Msg("伺服器啟動")
	if err := serve(ctx, srv, hub.Shutdown, logger); err != nil {
		// 需要執行 defer，不可用 Fatal
		logger.Error().Err(err).Msg("HTTP 服務啟動失敗")
		return
	}
	logger.Info().Msg("伺服器已關閉")
}

// serve 執行 HTTP 服務直到 ctx 結束；啟動失敗時回傳錯誤
func serve(ctx context.Context, srv *http.Server, onShutdown func(), logger zerolog.Logger) error {
	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("伺服器關閉中")
	onShutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func cleanupSessions(ctx context.Context, store *serverstore.Store, every time.Duration, logger zerolog.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.CleanupExpiredSessions(ctx)
			if err != nil {
				logger.Error().Err(err).Msg("清理過期會話失敗")
				continue
			}
			if n > 0 {
				logger.Info().Int64("removed", n).Msg("已清理過期會話")
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func parseAuthHeader(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		if cookie, err := r.Cookie("session_token"); err == nil {
			return strings.TrimSpace(cookie.Value)
		}
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
