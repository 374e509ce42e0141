package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/radieske/lottery-bet-platform/internal/bet-service/game"
	"github.com/radieske/lottery-bet-platform/internal/bet-service/repo"
	"github.com/radieske/lottery-bet-platform/internal/shared/store"
	"github.com/radieske/lottery-bet-platform/pkg/contracts/events"
)

// BetInput são os campos de criação. Numeros e Trevos aceitam lista ou texto
// delimitado; Concurso e QtdTeimosinha aceitam número ou texto.
type BetInput struct {
	Jogo          string
	Concurso      string
	Numeros       any
	Trevos        any
	Teimosinha    bool
	QtdTeimosinha string
}

// GroupInput acrescenta os dados do bolão; Participantes são e-mails
type GroupInput struct {
	BetInput
	Nome             string
	Participantes    []string
	MaxParticipantes int
}

type draft struct {
	jogo     string
	concurso int
	numeros  []string
	trevos   []string
	count    int
	repeat   bool
}

func (s *Service) validate(in BetInput) (draft, error) {
	var d draft

	if strings.TrimSpace(in.Jogo) == "" {
		return d, fmt.Errorf("%w: jogo é obrigatório", ErrValidation)
	}
	id, ok := game.Canonical(in.Jogo)
	if !ok {
		return d, fmt.Errorf("%w: modalidade %q não suportada", ErrValidation, in.Jogo)
	}
	rule, _ := game.Lookup(id)
	d.jogo = id

	c := strings.TrimSpace(in.Concurso)
	if c == "" {
		return d, fmt.Errorf("%w: concurso é obrigatório", ErrValidation)
	}
	n, err := strconv.Atoi(c)
	if err != nil || n <= 0 {
		return d, fmt.Errorf("%w: concurso %q deve ser um número inteiro positivo", ErrValidation, in.Concurso)
	}
	d.concurso = n

	if d.numeros, err = game.ParseNumbers(in.Numeros); err != nil {
		return d, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if len(d.numeros) == 0 {
		return d, fmt.Errorf("%w: numeros é obrigatório", ErrValidation)
	}
	if d.trevos, err = game.ParseNumbers(in.Trevos); err != nil {
		return d, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := rule.Validate(d.numeros, d.trevos); err != nil {
		return d, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	d.count = 1
	d.repeat = in.Teimosinha
	if in.Teimosinha {
		// quantidade inválida ou menor que 1 vira 1
		if q, err := strconv.Atoi(strings.TrimSpace(in.QtdTeimosinha)); err == nil && q > 1 {
			d.count = q
		}
		if d.count > s.opts.TeimosinhaMax {
			return d, fmt.Errorf("%w: teimosinha aceita no máximo %d concursos", ErrValidation, s.opts.TeimosinhaMax)
		}
	}
	return d, nil
}

// expand gera um registro por concurso: base, base+1, ..., base+count-1.
// Num bolão, cada registro guarda os ids de todos os registros do mesmo bolão.
func (s *Service) expand(ctx context.Context, uid, tipo string, d draft, grupo *repo.Grupo) ([]repo.Bet, error) {
	ids := make([]string, d.count)
	for i := range ids {
		id, err := s.repo.NewBetID(ctx)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}

	now := s.now().UTC()
	out := make([]repo.Bet, 0, d.count)
	for i, id := range ids {
		b := repo.Bet{
			ID:                       id,
			UserID:                   uid,
			Tipo:                     tipo,
			Jogo:                     d.jogo,
			Concurso:                 strconv.Itoa(d.concurso + i),
			Numeros:                  d.numeros,
			Trevos:                   d.trevos,
			Teimosinha:               d.repeat,
			QtdTeimosinha:            d.count,
			SequenciaTeimosinhaIndex: i + 1,
			SequenciaTeimosinhaTotal: d.count,
			Status:                   repo.StatusPending,
			DataCriacao:              now,
		}
		if grupo != nil {
			g := *grupo
			g.Participantes = append([]string(nil), grupo.Participantes...)
			g.Apostas = append([]string(nil), ids...)
			b.Grupo = &g
		}
		out = append(out, b)
	}
	return out, nil
}

func (s *Service) persist(ctx context.Context, bets []repo.Bet) error {
	if err := s.repo.CreateBets(ctx, bets); err != nil {
		s.fail("store")
		return fmt.Errorf("gravar apostas: %w", err)
	}
	for _, b := range bets {
		if err := s.pub.PublishBetPlaced(ctx, events.BetPlaced{
			BetID:    b.ID,
			UserID:   b.UserID,
			Tipo:     b.Tipo,
			Jogo:     b.Jogo,
			Concurso: b.Concurso,
			Numeros:  b.Numeros,
			Status:   b.Status,
		}); err != nil {
			s.fail("publish")
			s.log.Warn("falha ao publicar bet_placed", zap.String("bet_id", b.ID), zap.Error(err))
		}
	}
	if s.OnCreated != nil && len(bets) > 0 {
		s.OnCreated(bets[0].Tipo, len(bets))
	}
	return nil
}

// CreateBet cria a aposta individual (uma por concurso quando teimosinha)
func (s *Service) CreateBet(ctx context.Context, c Caller, in BetInput) ([]repo.Bet, error) {
	d, err := s.validate(in)
	if err != nil {
		return nil, err
	}
	bets, err := s.expand(ctx, c.UID, repo.TipoIndividual, d, nil)
	if err != nil {
		return nil, err
	}
	if err := s.persist(ctx, bets); err != nil {
		return nil, err
	}
	s.log.Info("aposta criada", zap.String("user_id", c.UID), zap.String("jogo", d.jogo),
		zap.Int("concurso", d.concurso), zap.Int("registros", len(bets)))
	return bets, nil
}

// CreateGroupBet cria um bolão. O criador precisa ser premium e todo e-mail
// de participante precisa pertencer a uma conta; qualquer falha rejeita o pedido inteiro.
func (s *Service) CreateGroupBet(ctx context.Context, c Caller, in GroupInput) ([]repo.Bet, error) {
	prof, ok, err := s.repo.Profile(ctx, c.UID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: complete seu perfil antes de criar um bolão", ErrForbidden)
	}
	if !prof.Premium {
		return nil, fmt.Errorf("%w: bolões são exclusivos para usuários premium", ErrForbidden)
	}

	nome := strings.TrimSpace(in.Nome)
	if nome == "" {
		return nil, fmt.Errorf("%w: nome do grupo é obrigatório", ErrValidation)
	}
	d, err := s.validate(in.BetInput)
	if err != nil {
		return nil, err
	}

	limit := in.MaxParticipantes
	if limit <= 0 {
		limit = s.opts.GroupMaxMembers
	}
	if limit > s.opts.GroupMaxMembers || limit < 2 {
		return nil, fmt.Errorf("%w: maxParticipantes deve estar entre 2 e %d", ErrValidation, s.opts.GroupMaxMembers)
	}

	members, err := s.resolveMembers(ctx, c, prof.Email, in.Participantes)
	if err != nil {
		return nil, err
	}
	if len(members) > limit {
		return nil, fmt.Errorf("%w: o grupo comporta no máximo %d participantes", ErrValidation, limit)
	}

	grupo := &repo.Grupo{Nome: nome, Criador: c.UID, Participantes: members, MaxParticipantes: limit}
	bets, err := s.expand(ctx, c.UID, repo.TipoGrupo, d, grupo)
	if err != nil {
		return nil, err
	}
	if err := s.persist(ctx, bets); err != nil {
		return nil, err
	}
	s.log.Info("bolão criado", zap.String("user_id", c.UID), zap.String("grupo", nome),
		zap.Int("participantes", len(members)), zap.Int("registros", len(bets)))
	return bets, nil
}

// resolveMembers converte e-mails em uids; o criador vem sempre primeiro
func (s *Service) resolveMembers(ctx context.Context, c Caller, ownEmail string, emails []string) ([]string, error) {
	own := map[string]bool{}
	for _, e := range []string{ownEmail, c.Email} {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			own[e] = true
		}
	}

	members := []string{c.UID}
	seen := map[string]bool{c.UID: true}
	for _, raw := range emails {
		email := strings.ToLower(strings.TrimSpace(raw))
		if email == "" || own[email] {
			continue
		}
		if !strings.Contains(email, "@") || utf8.RuneCountInString(email) < 3 {
			return nil, fmt.Errorf("%w: e-mail inválido: %s", ErrValidation, raw)
		}
		uid, ok, err := s.repo.FindUserByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: usuário não encontrado para o e-mail %s", ErrValidation, raw)
		}
		if !seen[uid] {
			seen[uid] = true
			members = append(members, uid)
		}
	}
	if len(members) < 2 {
		return nil, fmt.Errorf("%w: informe ao menos um participante além do criador", ErrValidation)
	}
	return members, nil
}

// GetBet retorna a aposta se o usuário for membro ou administrador
func (s *Service) GetBet(ctx context.Context, c Caller, id string) (repo.Bet, error) {
	b, ok, err := s.repo.Get(ctx, id)
	if err != nil {
		return repo.Bet{}, err
	}
	if !ok {
		return repo.Bet{}, fmt.Errorf("%w: aposta %s", ErrNotFound, id)
	}
	if err := s.authorize(ctx, c, b); err != nil {
		return repo.Bet{}, err
	}
	return b, nil
}

// ListBets retorna apostas individuais e bolões do usuário
func (s *Service) ListBets(ctx context.Context, c Caller) ([]repo.Bet, error) {
	return s.repo.ListForUser(ctx, c.UID)
}

// JoinGroup inclui o usuário no bolão, respeitando a capacidade do grupo.
// A inclusão é atômica no store, então entradas simultâneas nunca se sobrescrevem.
// Num bolão com teimosinha o usuário entra em todos os concursos do bolão.
func (s *Service) JoinGroup(ctx context.Context, c Caller, id string) (repo.Bet, error) {
	b, ok, err := s.repo.Get(ctx, id)
	if err != nil {
		return repo.Bet{}, err
	}
	if !ok || b.Grupo == nil {
		return repo.Bet{}, fmt.Errorf("%w: bolão %s", ErrNotFound, id)
	}
	if b.HasMember(c.UID) {
		return repo.Bet{}, fmt.Errorf("%w: você já participa deste bolão", ErrConflict)
	}
	limit := b.Grupo.MaxParticipantes
	if limit <= 0 {
		limit = s.opts.GroupMaxMembers
	}

	if err := s.repo.AddParticipant(ctx, id, c.UID, limit); err != nil {
		switch {
		case errors.Is(err, store.ErrAlreadyPresent):
			return repo.Bet{}, fmt.Errorf("%w: você já participa deste bolão", ErrConflict)
		case errors.Is(err, store.ErrLimitReached):
			return repo.Bet{}, fmt.Errorf("%w: bolão lotado (%d participantes)", ErrConflict, limit)
		case errors.Is(err, store.ErrNotFound):
			return repo.Bet{}, fmt.Errorf("%w: bolão %s", ErrNotFound, id)
		}
		s.fail("store")
		return repo.Bet{}, fmt.Errorf("entrar no bolão: %w", err)
	}

	for _, sib := range b.Grupo.Apostas {
		if sib == id {
			continue
		}
		if err := s.repo.AddParticipant(ctx, sib, c.UID, limit); err != nil && !errors.Is(err, store.ErrAlreadyPresent) {
			s.fail("store")
			s.log.Warn("falha ao entrar em concurso do bolão", zap.String("bet_id", sib), zap.String("user_id", c.UID), zap.Error(err))
		}
	}

	if cur, ok, err := s.repo.Get(ctx, id); err == nil && ok {
		b = cur
	} else {
		b.Grupo.Participantes = append(b.Grupo.Participantes, c.UID)
	}
	s.log.Info("participante entrou no bolão", zap.String("bet_id", id), zap.String("user_id", c.UID))
	return b, nil
}
