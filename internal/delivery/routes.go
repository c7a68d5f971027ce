package delivery

import (
	"net/http"
	"time"

	"github.com/Vovarama1992/go-utils/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/Vovarama1992/voice_cascade/internal/ports"
)

type Handlers struct {
	Auth        *AuthHandler
	TTS         *TTSHandler
	Voices      *VoiceHandler
	Recognition *RecognitionHandler
	// History is nil when no database is configured.
	History *HistoryHandler
}

func NewRouter(h Handlers, authSvc ports.AuthService, ratePerMinute int) chi.Router {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	r.With(httputil.RecoverMiddleware).Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})

	RegisterRoutes(r, h, authSvc, ratePerMinute)
	return r
}

func RegisterRoutes(r chi.Router, h Handlers, authSvc ports.AuthService, ratePerMinute int) {
	if ratePerMinute <= 0 {
		ratePerMinute = 60
	}

	// --- auth ---
	r.With(
		httputil.RecoverMiddleware,
		httprate.LimitByIP(10, time.Minute),
	).Post("/auth/login", h.Auth.Login)

	// --- protected ---
	r.Group(func(pr chi.Router) {
		pr.Use(
			httputil.RecoverMiddleware,
			httprate.LimitByIP(ratePerMinute, time.Minute),
			AuthMiddleware(authSvc),
		)

		// --- синтез ---
		pr.Post("/tts", h.TTS.Synthesize)
		pr.Get("/voices", h.Voices.ListVoices)
		pr.Get("/capabilities", h.Voices.Capabilities)

		// --- распознавание ---
		pr.Post("/recognize", h.Recognition.Recognize)

		// --- журнал ---
		if h.History != nil {
			pr.Get("/synthesis/history", h.History.List)
			pr.Get("/synthesis/stats", h.History.Stats)
		}
	})
}
