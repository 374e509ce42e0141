package gateway

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	"go.uber.org/zap"
)

// rp cria o proxy reverso para um serviço interno
func rp(to string) (*httputil.ReverseProxy, error) {
	u, err := url.Parse(to)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("url de destino inválida: %q", to)
	}
	return httputil.NewSingleHostReverseProxy(u), nil
}

// Router expõe a API pública sob /api e repassa ao bet-service.
// /api/bets/*, /api/users/* e /api/loteria/* mantêm o caminho original após o prefixo.
func Router(betURL string, log *zap.Logger) (http.Handler, error) {
	bet, err := rp(betURL)
	if err != nil {
		return nil, err
	}
	bet.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Warn("upstream indisponível", zap.String("path", r.URL.Path), zap.Error(err))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"success":false,"message":"serviço indisponível"}`))
	}

	mux := http.NewServeMux()

	// bets (ex.: /api/bets/123 -> bet-service /bets/123)
	mux.Handle("/api/bets", http.StripPrefix("/api", bet))
	mux.Handle("/api/bets/", http.StripPrefix("/api", bet))

	// perfis
	mux.Handle("/api/users/", http.StripPrefix("/api", bet))

	// proxy público de resultados
	mux.Handle("/api/loteria/", http.StripPrefix("/api", bet))

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return withCORS(mux), nil
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.ServeHTTP(w, r)
	})
}
