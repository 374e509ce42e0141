package repo

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/radieske/lottery-bet-platform/internal/bet-service/loteria"
	"github.com/radieske/lottery-bet-platform/internal/shared/store"
)

const (
	betsRoot  = "bets"
	usersRoot = "users"

	// leituras simultâneas ao montar a lista de apostas de um usuário
	listConcurrency = 8
)

func betPath(id string) string          { return store.Join(betsRoot, id) }
func userPath(uid string) string        { return store.Join(usersRoot, uid) }
func userBetsPath(uid string) string    { return store.Join(usersRoot, uid, betsRoot) }
func userBetPath(uid, id string) string { return store.Join(usersRoot, uid, betsRoot, id) }

// Repository concentra o acesso a apostas e perfis no store, inclusive a
// manutenção do índice reverso users/{uid}/bets/{id}
type Repository struct{ st store.Store }

func New(st store.Store) *Repository { return &Repository{st: st} }

// NewBetID reserva uma chave nova sob bets/
func (r *Repository) NewBetID(ctx context.Context) (string, error) {
	return r.st.Push(ctx, betsRoot)
}

// CreateBets grava as apostas e as entradas do índice reverso de todos os membros
// num único lote: ou tudo é gravado, ou nada
func (r *Repository) CreateBets(ctx context.Context, bets []Bet) error {
	batch := make(map[string]any, len(bets)*2)
	for _, b := range bets {
		if b.ID == "" {
			return errors.New("aposta sem id")
		}
		batch[betPath(b.ID)] = b
		for _, uid := range b.Members() {
			batch[userBetPath(uid, b.ID)] = true
		}
	}
	return r.st.SetMany(ctx, batch)
}

// Get retorna false quando a aposta não existe
func (r *Repository) Get(ctx context.Context, id string) (Bet, bool, error) {
	var b Bet
	ok, err := r.st.Get(ctx, betPath(id), &b)
	if err != nil || !ok {
		return Bet{}, ok, err
	}
	if b.ID == "" {
		b.ID = id
	}
	if b.Tipo == "" {
		b.Tipo = TipoIndividual
	}
	return b, true, nil
}

// ListForUser carrega as apostas indexadas para uid, ignorando entradas órfãs,
// em ordem de criação
func (r *Repository) ListForUser(ctx context.Context, uid string) ([]Bet, error) {
	idx, err := r.st.Children(ctx, userBetsPath(uid))
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(idx))
	for id := range idx {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	found := make([]*Bet, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(listConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			b, ok, err := r.Get(gctx, id)
			if err != nil {
				return err
			}
			if ok {
				found[i] = &b
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Bet, 0, len(found))
	for _, b := range found {
		if b != nil {
			out = append(out, *b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DataCriacao.Before(out[j].DataCriacao) })
	return out, nil
}

// SaveResult marca a aposta como consultada numa única atualização do registro
func (r *Repository) SaveResult(ctx context.Context, id string, res loteria.Result, status string, at time.Time) error {
	return r.st.Update(ctx, betPath(id), map[string]any{
		"consultado":      true,
		"resultado":       res,
		"status":          status,
		"dataVerificacao": at,
	})
}

// AddParticipant inclui uid em grupo/participantes numa operação atômica do store e
// indexa a aposta para ele. Se uid já participa, o índice é regravado e o
// store.ErrAlreadyPresent é devolvido; lotado devolve store.ErrLimitReached.
func (r *Repository) AddParticipant(ctx context.Context, id, uid string, limit int) error {
	err := r.st.AppendUnique(ctx, betPath(id), "grupo/participantes", uid, limit)
	if err != nil && !errors.Is(err, store.ErrAlreadyPresent) {
		return err
	}
	if ierr := r.st.Set(ctx, userBetPath(uid, id), true); ierr != nil {
		return ierr
	}
	return err
}

// Profile retorna false quando o perfil não existe
func (r *Repository) Profile(ctx context.Context, uid string) (Profile, bool, error) {
	var p Profile
	ok, err := r.st.Get(ctx, userPath(uid), &p)
	if err != nil || !ok {
		return Profile{}, ok, err
	}
	p.UID = uid
	if p.Role == "" {
		p.Role = RoleCommon
	}
	return p, true, nil
}

func (r *Repository) SaveProfile(ctx context.Context, p Profile) error {
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	return r.st.Set(ctx, userPath(p.UID), p)
}

// UpdateProfile altera só os campos informados; store.ErrNotFound se o perfil não existe
func (r *Repository) UpdateProfile(ctx context.Context, uid string, fields map[string]any) error {
	return r.st.Update(ctx, userPath(uid), fields)
}

// FindUserByEmail resolve um e-mail (sem diferenciar maiúsculas) para o uid da conta
func (r *Repository) FindUserByEmail(ctx context.Context, email string) (string, bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", false, nil
	}
	found, err := r.st.QueryByField(ctx, usersRoot, "email", email)
	if err != nil {
		return "", false, err
	}
	uids := make([]string, 0, len(found))
	for uid := range found {
		uids = append(uids, uid)
	}
	if len(uids) == 0 {
		return "", false, nil
	}
	sort.Strings(uids)
	return uids[0], true, nil
}
