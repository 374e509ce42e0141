package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/radieske/lottery-bet-platform/internal/bet-service/repo"
	"github.com/radieske/lottery-bet-platform/internal/shared/store"
)

func (s *Service) Profile(ctx context.Context, c Caller) (repo.Profile, error) {
	p, ok, err := s.repo.Profile(ctx, c.UID)
	if err != nil {
		return repo.Profile{}, err
	}
	if !ok {
		return repo.Profile{}, fmt.Errorf("%w: perfil", ErrNotFound)
	}
	return p, nil
}

// SaveProfile cria ou atualiza o perfil do usuário. O e-mail vem do token;
// perfis novos começam como "common" e sem premium.
func (s *Service) SaveProfile(ctx context.Context, c Caller, nome string) (repo.Profile, error) {
	nome = strings.TrimSpace(nome)
	if utf8.RuneCountInString(nome) < 2 {
		return repo.Profile{}, fmt.Errorf("%w: nome deve ter pelo menos 2 caracteres", ErrValidation)
	}
	email := strings.ToLower(strings.TrimSpace(c.Email))
	if email == "" {
		return repo.Profile{}, fmt.Errorf("%w: token sem e-mail", ErrValidation)
	}

	now := s.now().UTC()
	p, ok, err := s.repo.Profile(ctx, c.UID)
	if err != nil {
		return repo.Profile{}, err
	}
	if ok {
		if err := s.repo.UpdateProfile(ctx, c.UID, map[string]any{
			"nome":         nome,
			"email":        email,
			"atualizadoEm": now,
		}); err != nil {
			return repo.Profile{}, err
		}
		p.Nome, p.Email, p.AtualizadoEm = nome, email, now
		return p, nil
	}

	p = repo.Profile{
		UID:          c.UID,
		Email:        email,
		Nome:         nome,
		Role:         repo.RoleCommon,
		CriadoEm:     now,
		AtualizadoEm: now,
	}
	if err := s.repo.SaveProfile(ctx, p); err != nil {
		return repo.Profile{}, err
	}
	s.log.Info("perfil criado", zap.String("user_id", c.UID))
	return p, nil
}

// SetRole altera papel e premium de outro usuário; exclusivo de administradores
func (s *Service) SetRole(ctx context.Context, c Caller, uid, role string, premium *bool) error {
	admin, err := s.isAdmin(ctx, c)
	if err != nil {
		return err
	}
	if !admin {
		return fmt.Errorf("%w: apenas administradores podem alterar papéis", ErrForbidden)
	}
	if strings.TrimSpace(uid) == "" {
		return fmt.Errorf("%w: uid é obrigatório", ErrValidation)
	}
	if role != repo.RoleCommon && role != repo.RoleAdmin {
		return fmt.Errorf("%w: papel %q inválido", ErrValidation, role)
	}

	fields := map[string]any{"role": role, "atualizadoEm": s.now().UTC()}
	if premium != nil {
		fields["premium"] = *premium
	}
	if err := s.repo.UpdateProfile(ctx, uid, fields); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: perfil %s", ErrNotFound, uid)
		}
		return err
	}
	s.log.Info("papel alterado", zap.String("by", c.UID), zap.String("user_id", uid), zap.String("role", role))
	return nil
}
