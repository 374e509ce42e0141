// Package loteria consulta resultados de sorteios na API externa e os
// normaliza para um formato único, independente da modalidade.
package loteria

import (
	"context"
	"errors"
	"fmt"
)

// ErrUpstreamUnavailable indica timeout ou falha de rede; o cliente pode tentar de novo
var ErrUpstreamUnavailable = errors.New("API de loterias indisponível")

// ResultFetchError é qualquer falha ao obter um resultado (rede, status não-2xx, corpo inválido).
// StatusCode é zero quando a API não respondeu com status.
type ResultFetchError struct {
	Jogo       string
	Concurso   int
	StatusCode int
	Err        error
}

func (e *ResultFetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("resultado %s/%d: http %d: %v", e.Jogo, e.Concurso, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("resultado %s/%d: %v", e.Jogo, e.Concurso, e.Err)
}

func (e *ResultFetchError) Unwrap() error { return e.Err }

// Premiacao é uma faixa de premiação do concurso
type Premiacao struct {
	Descricao   string  `json:"descricao"`
	Faixa       int     `json:"faixa"`
	Ganhadores  int     `json:"ganhadores"`
	ValorPremio float64 `json:"valorPremio"`
}

// Result é o sorteio normalizado. Campos do próximo concurso são nil quando a API omite.
type Result struct {
	Jogo           string      `json:"jogo"`
	Concurso       int         `json:"concurso"`
	Data           string      `json:"data"`
	Dezenas        []string    `json:"dezenas"`
	Trevos         []string    `json:"trevos,omitempty"`
	Premiacoes     []Premiacao `json:"premiacoes"`
	Acumulou       bool        `json:"acumulou"`
	ValorAcumulado float64     `json:"valorAcumulado"`

	ProximoConcurso      *int     `json:"proximoConcurso"`
	DataProximoConcurso  *string  `json:"dataProximoConcurso"`
	ValorEstimadoProximo *float64 `json:"valorEstimadoProximoConcurso"`

	TipoJogo string `json:"tipoJogo,omitempty"`
	Local    string `json:"local,omitempty"`
}

// Fetcher busca o resultado de um concurso pelo id canônico da modalidade
type Fetcher interface {
	Fetch(ctx context.Context, jogo string, concurso int) (Result, error)
}
