// Package service implementa as regras de negócio do bet-service: criação de
// apostas e bolões, entrada em bolão, conferência de resultados e perfis.
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/lottery-bet-platform/internal/bet-service/loteria"
	"github.com/radieske/lottery-bet-platform/internal/bet-service/repo"
	"github.com/radieske/lottery-bet-platform/pkg/contracts/events"
)

// Caller é o usuário autenticado que faz a chamada
type Caller struct {
	UID   string
	Email string
	Role  string // papel vindo do token; pode estar vazio
}

// Publisher publica os eventos de auditoria
type Publisher interface {
	PublishBetPlaced(ctx context.Context, e events.BetPlaced) error
	PublishBetResultChecked(ctx context.Context, e events.BetResultChecked) error
}

type Options struct {
	GroupMaxMembers int
	TeimosinhaMax   int
}

type Service struct {
	repo  *repo.Repository
	fetch loteria.Fetcher
	pub   Publisher
	log   *zap.Logger
	opts  Options
	now   func() time.Time

	// callbacks de métricas (opcionais)
	OnCreated  func(tipo string, n int)
	OnFastPath func()
	OnFetched  func()
	OnError    func(stage string)
}

func New(r *repo.Repository, f loteria.Fetcher, p Publisher, log *zap.Logger, opts Options) *Service {
	if opts.GroupMaxMembers <= 0 {
		opts.GroupMaxMembers = 10
	}
	if opts.TeimosinhaMax <= 0 {
		opts.TeimosinhaMax = 24
	}
	if p == nil {
		p = nopPublisher{}
	}
	return &Service{repo: r, fetch: f, pub: p, log: log, opts: opts, now: time.Now}
}

func (s *Service) fail(stage string) {
	if s.OnError != nil {
		s.OnError(stage)
	}
}

// isAdmin aceita o papel do token ou o do perfil salvo
func (s *Service) isAdmin(ctx context.Context, c Caller) (bool, error) {
	if c.Role == repo.RoleAdmin {
		return true, nil
	}
	p, ok, err := s.repo.Profile(ctx, c.UID)
	if err != nil {
		return false, err
	}
	return ok && p.IsAdmin(), nil
}

// authorize libera membros da aposta (dono ou participante do bolão) e administradores
func (s *Service) authorize(ctx context.Context, c Caller, b repo.Bet) error {
	if b.HasMember(c.UID) {
		return nil
	}
	admin, err := s.isAdmin(ctx, c)
	if err != nil {
		return err
	}
	if !admin {
		return ErrForbidden
	}
	return nil
}

type nopPublisher struct{}

func (nopPublisher) PublishBetPlaced(context.Context, events.BetPlaced) error { return nil }
func (nopPublisher) PublishBetResultChecked(context.Context, events.BetResultChecked) error {
	return nil
}
