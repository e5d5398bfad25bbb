package web

import (
	"crypto/subtle"
	"encoding/json"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/severand/InteriorBot/internal/config"
	"github.com/severand/InteriorBot/internal/usecase"
)

// Server is the admin and operational HTTP surface: JWT-guarded stats and
// balance endpoints, Prometheus metrics, health, and the payment return page
// users land on after the gateway redirect.
type Server struct {
	statsUC  usecase.StatsUseCase
	creditUC usecase.CreditUseCase
	auth     *AuthManager
	password string
	botName  string
	log      *zerolog.Logger
}

func NewServer(
	statsUC usecase.StatsUseCase,
	creditUC usecase.CreditUseCase,
	cfg config.AdminConfig,
	botUsername string,
	dev bool,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		statsUC:  statsUC,
		creditUC: creditUC,
		auth:     NewAuthManager(cfg.JWTSecret, !dev, 30*time.Minute),
		password: cfg.Password,
		botName:  botUsername,
		log:      logger,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/payment/return", s.handlePaymentReturn)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/login", s.handleLogin)
		r.Group(func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Get("/stats", s.handleStats)
			r.Post("/users/{tg_id}/balance", s.handleSetBalance)
		})
	})
	return r
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.password == "" {
			s.log.Error().Msg("admin password not configured")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		if _, err := s.auth.ParseFromRequest(r); err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if s.password == "" || subtle.ConstantTimeCompare([]byte(body.Password), []byte(s.password)) != 1 {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	token, err := s.auth.Mint(w)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.statsUC.Collect(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("stats collection failed")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleSetBalance(w http.ResponseWriter, r *http.Request) {
	tgID, err := strconv.ParseInt(chi.URLParam(r, "tg_id"), 10, 64)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	var body struct {
		// Exactly one of the two: Set overwrites, Grant adds.
		Set   *int `json:"set"`
		Grant *int `json:"grant"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || (body.Set == nil) == (body.Grant == nil) {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if body.Set != nil {
		err = s.creditUC.Set(r.Context(), tgID, *body.Set)
	} else {
		err = s.creditUC.Grant(r.Context(), tgID, *body.Grant)
	}
	if err != nil {
		s.log.Warn().Err(err).Int64("tg_id", tgID).Msg("balance update rejected")
		http.Error(w, "Unprocessable Entity", http.StatusUnprocessableEntity)
		return
	}
	balance, err := s.creditUC.Balance(r.Context(), tgID)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tg_id": tgID, "balance": balance})
}

var returnPage = template.Must(template.New("return").Parse(`<!doctype html>
<html lang="ru">
<head>
<meta charset="utf-8" />
<meta name="viewport" content="width=device-width,initial-scale=1" />
<title>Оплата</title>
<style>
body{font-family:system-ui,Arial,sans-serif;margin:2rem;}
.card{max-width:560px;border:1px solid #ddd;border-radius:12px;padding:24px;}
.btn{display:inline-block;margin-top:16px;padding:10px 16px;border-radius:8px;border:1px solid #888;text-decoration:none}
.small{font-size:12px;color:#666}
</style>
</head>
<body>
<div class="card">
  <h2>✅ Спасибо!</h2>
  <p>Вернитесь в Telegram и нажмите «Проверить оплату» — генерации будут начислены автоматически.</p>
  {{if .BotUsername}}
    <a class="btn" href="https://t.me/{{.BotUsername}}">Открыть Telegram</a>
    <div class="small">Если кнопка не открывает чат, найдите @{{.BotUsername}} в Telegram вручную.</div>
  {{end}}
</div>
</body>
</html>`))

func (s *Server) handlePaymentReturn(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := returnPage.Execute(w, struct{ BotUsername string }{s.botName}); err != nil {
		s.log.Error().Err(err).Msg("return page render failed")
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
