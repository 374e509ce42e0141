package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/radieske/lottery-bet-platform/internal/bet-service/auth"
	"github.com/radieske/lottery-bet-platform/internal/bet-service/dto"
	"github.com/radieske/lottery-bet-platform/internal/bet-service/loteria"
	"github.com/radieske/lottery-bet-platform/internal/bet-service/service"
	"github.com/radieske/lottery-bet-platform/internal/shared/store"
)

// Server expõe a API REST de apostas
type Server struct {
	log        *zap.Logger
	svc        *service.Service
	verifier   auth.Verifier
	production bool          // omite detalhes de erro nas respostas
	timeout    time.Duration // limite por requisição
}

func NewServer(log *zap.Logger, svc *service.Service, v auth.Verifier, production bool, timeout time.Duration) *Server {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Server{log: log, svc: svc, verifier: v, production: production, timeout: timeout}
}

// Router monta as rotas; tudo sob /bets e /users exige token
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(middleware.Timeout(s.timeout))

	r.Get("/loteria/{jogo}/{concurso}", s.getResult) // Consulta pública de sorteio

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Post("/bets", s.createBet)                                 // Aposta individual
		r.Post("/bets/group", s.createGroupBet)                      // Bolão
		r.Post("/bets/group/{id}/join", s.joinGroup)                 // Entrar em bolão
		r.Get("/bets", s.listBets)                                   // Apostas do usuário
		r.Get("/bets/check-and-save-result/{id}", s.checkAndSaveBet) // Conferência
		r.Get("/bets/{id}", s.getBet)                                // Uma aposta

		r.Get("/users/profile", s.getProfile)
		r.Put("/users/profile", s.saveProfile)
		r.Post("/users/set-role", s.setRole)
	})
	return r
}

// requireAuth valida o bearer token e guarda a identidade no contexto
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok, ok := auth.BearerToken(r.Header.Get("Authorization"))
		if !ok {
			s.writeError(w, r, auth.ErrInvalidToken)
			return
		}
		id, err := s.verifier.Verify(r.Context(), tok)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug("http",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func caller(r *http.Request) service.Caller {
	id, _ := auth.FromContext(r.Context())
	return service.Caller{UID: id.UID, Email: id.Email, Role: id.Role}
}

// statusFor traduz erros de domínio em status HTTP e mensagem para o cliente
func statusFor(err error) (int, string) {
	var fe *loteria.ResultFetchError
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, "Token inválido ou ausente"
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, err.Error()
	case errors.Is(err, loteria.ErrUpstreamUnavailable):
		return http.StatusServiceUnavailable, "API de loterias indisponível, tente novamente"
	case errors.As(err, &fe):
		if fe.StatusCode >= 400 && fe.StatusCode < 600 {
			return fe.StatusCode, "Erro ao consultar resultado do concurso"
		}
		return http.StatusBadGateway, "Erro ao consultar resultado do concurso"
	case errors.Is(err, store.ErrUnavailable):
		return http.StatusInternalServerError, "Banco de dados indisponível"
	default:
		return http.StatusInternalServerError, "Erro interno"
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status >= 500 {
		s.log.Error("falha na requisição", zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
	}
	resp := dto.ErrorResponse{Success: false, Message: msg}
	if !s.production {
		resp.Error = err.Error()
	}
	writeJSON(w, status, resp)
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(v); err != nil {
		return fmt.Errorf("%w: JSON inválido", service.ErrValidation)
	}
	return nil
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
