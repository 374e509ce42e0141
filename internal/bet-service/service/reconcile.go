package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/radieske/lottery-bet-platform/internal/bet-service/game"
	"github.com/radieske/lottery-bet-platform/internal/bet-service/loteria"
	"github.com/radieske/lottery-bet-platform/internal/bet-service/repo"
	"github.com/radieske/lottery-bet-platform/pkg/contracts/events"
)

// CheckAndSaveResult confere a aposta contra o sorteio e grava o resultado.
// A consulta acontece uma única vez: se a aposta já foi consultada, devolve o
// que está salvo sem chamar a API nem gravar nada.
func (s *Service) CheckAndSaveResult(ctx context.Context, c Caller, id string) (loteria.Result, string, error) {
	b, err := s.GetBet(ctx, c, id)
	if err != nil {
		return loteria.Result{}, "", err
	}

	if b.Consultado && b.Resultado != nil {
		if s.OnFastPath != nil {
			s.OnFastPath()
		}
		return *b.Resultado, b.Status, nil
	}

	jogo := game.Normalize(b.Jogo)
	concurso, err := strconv.Atoi(strings.TrimSpace(b.Concurso))
	if err != nil {
		return loteria.Result{}, "", fmt.Errorf("%w: concurso %q inválido na aposta", ErrValidation, b.Concurso)
	}

	res, err := s.fetch.Fetch(ctx, jogo, concurso)
	if err != nil {
		s.fail("fetch")
		s.log.Warn("falha ao buscar resultado", zap.String("bet_id", id), zap.String("jogo", jogo),
			zap.Int("concurso", concurso), zap.Error(err))
		return loteria.Result{}, "", err
	}
	if res.Premiacoes == nil {
		res.Premiacoes = []loteria.Premiacao{}
	}

	out := game.Evaluate(jogo, b.Numeros, b.Trevos, res.Dezenas, res.Trevos)
	status := repo.StatusFinalized
	if out.Premiada {
		status = repo.StatusPrize
	}

	if err := s.repo.SaveResult(ctx, id, res, status, s.now().UTC()); err != nil {
		s.fail("store")
		s.log.Error("falha ao salvar resultado", zap.String("bet_id", id), zap.Error(err))
		return loteria.Result{}, "", fmt.Errorf("salvar resultado: %w", err)
	}
	if s.OnFetched != nil {
		s.OnFetched()
	}

	if err := s.pub.PublishBetResultChecked(ctx, events.BetResultChecked{
		BetID:     id,
		UserID:    b.UserID,
		Jogo:      jogo,
		Concurso:  b.Concurso,
		OldStatus: b.Status,
		NewStatus: status,
		Acertos:   out.Acertos,
		Ts:        s.now().UTC(),
	}); err != nil {
		s.fail("publish")
		s.log.Warn("falha ao publicar bet_result_checked", zap.String("bet_id", id), zap.Error(err))
	}

	s.log.Info("resultado conferido", zap.String("bet_id", id), zap.String("jogo", jogo),
		zap.Int("concurso", concurso), zap.Int("acertos", out.Acertos), zap.String("status", status))
	return res, status, nil
}

// Result consulta um sorteio sem vínculo com aposta
func (s *Service) Result(ctx context.Context, jogo, concurso string) (loteria.Result, error) {
	n, err := strconv.Atoi(strings.TrimSpace(concurso))
	if err != nil || n <= 0 {
		return loteria.Result{}, fmt.Errorf("%w: concurso %q deve ser um número inteiro positivo", ErrValidation, concurso)
	}
	res, err := s.fetch.Fetch(ctx, game.Normalize(jogo), n)
	if err != nil {
		s.fail("fetch")
		return loteria.Result{}, err
	}
	if res.Premiacoes == nil {
		res.Premiacoes = []loteria.Premiacao{}
	}
	return res, nil
}
