package http

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/radieske/lottery-bet-platform/internal/bet-service/dto"
	"github.com/radieske/lottery-bet-platform/internal/bet-service/service"
)

func betInput(req dto.PlaceBetRequest) service.BetInput {
	return service.BetInput{
		Jogo:          req.Jogo,
		Concurso:      string(req.Concurso),
		Numeros:       req.Numeros,
		Trevos:        req.Trevos,
		Teimosinha:    bool(req.Teimosinha),
		QtdTeimosinha: string(req.QtdTeimosinha),
	}
}

// POST /bets
func (s *Server) createBet(w http.ResponseWriter, r *http.Request) {
	var req dto.PlaceBetRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	bets, err := s.svc.CreateBet(r.Context(), caller(r), betInput(req))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.BetsResponse{
		Success: true,
		Message: "Aposta criada com sucesso",
		Bets:    dto.NewBetViews(bets),
	})
}

// POST /bets/group
func (s *Server) createGroupBet(w http.ResponseWriter, r *http.Request) {
	var req dto.PlaceBetRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Grupo == nil {
		s.writeError(w, r, fmt.Errorf("%w: dados do grupo são obrigatórios", service.ErrValidation))
		return
	}
	bets, err := s.svc.CreateGroupBet(r.Context(), caller(r), service.GroupInput{
		BetInput:         betInput(req),
		Nome:             req.Grupo.Nome,
		Participantes:    req.Grupo.Participantes,
		MaxParticipantes: req.Grupo.MaxParticipantes,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.BetsResponse{
		Success: true,
		Message: "Bolão criado com sucesso",
		Bets:    dto.NewBetViews(bets),
	})
}

// POST /bets/group/{id}/join
func (s *Server) joinGroup(w http.ResponseWriter, r *http.Request) {
	b, err := s.svc.JoinGroup(r.Context(), caller(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.BetResponse{Success: true, Message: "Você entrou no bolão", Bet: dto.NewBetView(b)})
}

// GET /bets
func (s *Server) listBets(w http.ResponseWriter, r *http.Request) {
	bets, err := s.svc.ListBets(r.Context(), caller(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.BetsResponse{Success: true, Bets: dto.NewBetViews(bets)})
}

// GET /bets/{id}
func (s *Server) getBet(w http.ResponseWriter, r *http.Request) {
	b, err := s.svc.GetBet(r.Context(), caller(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.BetResponse{Success: true, Bet: dto.NewBetView(b)})
}

// GET /bets/check-and-save-result/{id}
func (s *Server) checkAndSaveBet(w http.ResponseWriter, r *http.Request) {
	res, status, err := s.svc.CheckAndSaveResult(r.Context(), caller(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ResultResponse{Success: true, Result: res, Status: status})
}

// GET /loteria/{jogo}/{concurso}
func (s *Server) getResult(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Result(r.Context(), chi.URLParam(r, "jogo"), chi.URLParam(r, "concurso"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ResultResponse{Success: true, Result: res})
}

// GET /users/profile
func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	c := caller(r)
	p, err := s.svc.Profile(r.Context(), c)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ProfileResponse{Success: true, UID: c.UID, Profile: p})
}

// PUT /users/profile
func (s *Server) saveProfile(w http.ResponseWriter, r *http.Request) {
	var req dto.ProfileRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	c := caller(r)
	p, err := s.svc.SaveProfile(r.Context(), c, req.Nome)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ProfileResponse{Success: true, UID: c.UID, Profile: p})
}

// POST /users/set-role
func (s *Server) setRole(w http.ResponseWriter, r *http.Request) {
	var req dto.SetRoleRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.svc.SetRole(r.Context(), caller(r), req.UID, req.Role, req.Premium); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.MessageResponse{Success: true, Message: "Papel atualizado"})
}
