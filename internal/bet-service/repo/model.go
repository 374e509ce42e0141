package repo

import (
	"slices"
	"time"

	"github.com/radieske/lottery-bet-platform/internal/bet-service/loteria"
)

// Status do ciclo de vida da aposta
const (
	StatusPending   = "pending"
	StatusFinalized = "finalized"
	StatusPrize     = "prize"
)

// Tipo da aposta
const (
	TipoIndividual = "individual"
	TipoGrupo      = "grupo"
)

// Papéis de usuário
const (
	RoleCommon = "common"
	RoleAdmin  = "admin"
)

// Grupo são os metadados de um bolão
type Grupo struct {
	Nome             string   `json:"nome"`
	Criador          string   `json:"criador"`
	Participantes    []string `json:"participantes"`
	MaxParticipantes int      `json:"maxParticipantes"`
	Apostas          []string `json:"apostas,omitempty"` // registros do mesmo bolão (um por concurso da teimosinha)
}

// Bet é o registro gravado em bets/{id}.
// Enquanto Consultado=false, Resultado é nil e Status é pending;
// após a consulta, os três são gravados juntos numa única atualização.
type Bet struct {
	ID       string   `json:"id"`
	UserID   string   `json:"userId"`
	Tipo     string   `json:"tipo,omitempty"`
	Jogo     string   `json:"jogo"`
	Concurso string   `json:"concurso"`
	Numeros  []string `json:"numeros"`
	Trevos   []string `json:"trevos,omitempty"`

	Teimosinha               bool `json:"teimosinha"`
	QtdTeimosinha            int  `json:"qtdTeimosinha"`
	SequenciaTeimosinhaIndex int  `json:"sequenciaTeimosinhaIndex"`
	SequenciaTeimosinhaTotal int  `json:"sequenciaTeimosinhaTotal"`

	Status          string          `json:"status"`
	Consultado      bool            `json:"consultado"`
	Resultado       *loteria.Result `json:"resultado"`
	DataCriacao     time.Time       `json:"dataCriacao"`
	DataVerificacao *time.Time      `json:"dataVerificacao"`

	Grupo *Grupo `json:"grupo,omitempty"`
}

// Members retorna o dono e, em bolões, todos os participantes (sem repetição)
func (b Bet) Members() []string {
	out := []string{b.UserID}
	if b.Grupo != nil {
		for _, p := range b.Grupo.Participantes {
			if !slices.Contains(out, p) {
				out = append(out, p)
			}
		}
	}
	return out
}

// HasMember indica se uid é dono ou participante
func (b Bet) HasMember(uid string) bool { return slices.Contains(b.Members(), uid) }

// Profile é o registro em users/{uid}
type Profile struct {
	UID          string    `json:"-"`
	Email        string    `json:"email"`
	Nome         string    `json:"nome"`
	Role         string    `json:"role"`
	Premium      bool      `json:"premium"`
	CriadoEm     time.Time `json:"criadoEm"`
	AtualizadoEm time.Time `json:"atualizadoEm"`
}

func (p Profile) IsAdmin() bool { return p.Role == RoleAdmin }
