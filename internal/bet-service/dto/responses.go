package dto

import (
	"github.com/radieske/lottery-bet-platform/internal/bet-service/loteria"
	"github.com/radieske/lottery-bet-platform/internal/bet-service/repo"
)

// BetView é a aposta como devolvida pela API
type BetView struct {
	repo.Bet
	ParticipanteCount int `json:"participanteCount,omitempty"`
}

func NewBetView(b repo.Bet) BetView {
	v := BetView{Bet: b}
	if b.Grupo != nil {
		v.ParticipanteCount = len(b.Grupo.Participantes)
	}
	return v
}

func NewBetViews(bets []repo.Bet) []BetView {
	out := make([]BetView, 0, len(bets))
	for _, b := range bets {
		out = append(out, NewBetView(b))
	}
	return out
}

type BetsResponse struct {
	Success bool      `json:"success"`
	Message string    `json:"message,omitempty"`
	Bets    []BetView `json:"bets"`
}

type BetResponse struct {
	Success bool    `json:"success"`
	Message string  `json:"message,omitempty"`
	Bet     BetView `json:"bet"`
}

type ResultResponse struct {
	Success bool           `json:"success"`
	Result  loteria.Result `json:"result"`
	Status  string         `json:"status,omitempty"`
}

type ProfileResponse struct {
	Success bool         `json:"success"`
	UID     string       `json:"uid"`
	Profile repo.Profile `json:"profile"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ErrorResponse: Error só é preenchido fora de produção
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}
