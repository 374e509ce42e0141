// Package game concentra as regras das modalidades: tabela de regras,
// normalização de nomes e conferência de dezenas.
package game

// Rule descreve os limites de uma modalidade e a faixa mínima de premiação
type Rule struct {
	ID   string
	Nome string

	MinPicks, MaxPicks   int
	MinNumber, MaxNumber int
	AllowRepeats         bool // super sete: uma dezena por coluna, pode repetir

	// Trevos (+Milionária); zero quando a modalidade não usa
	MinClovers, MaxClovers int
	MaxClover              int

	Threshold       int // acertos mínimos para premiar
	CloverThreshold int // trevos mínimos, quando aplicável
}

// DefaultThreshold vale para modalidades fora da tabela
const DefaultThreshold = 4

// Fallback é o id usado quando o nome informado não é reconhecido
const Fallback = "megasena"

var rules = map[string]Rule{
	"megasena":       {ID: "megasena", Nome: "Mega-Sena", MinPicks: 6, MaxPicks: 20, MinNumber: 1, MaxNumber: 60, Threshold: 4},
	"lotofacil":      {ID: "lotofacil", Nome: "Lotofácil", MinPicks: 15, MaxPicks: 20, MinNumber: 1, MaxNumber: 25, Threshold: 11},
	"quina":          {ID: "quina", Nome: "Quina", MinPicks: 5, MaxPicks: 15, MinNumber: 1, MaxNumber: 80, Threshold: 2},
	"lotomania":      {ID: "lotomania", Nome: "Lotomania", MinPicks: 50, MaxPicks: 50, MinNumber: 0, MaxNumber: 99, Threshold: 15},
	"timemania":      {ID: "timemania", Nome: "Timemania", MinPicks: 10, MaxPicks: 10, MinNumber: 1, MaxNumber: 80, Threshold: 3},
	"duplasena":      {ID: "duplasena", Nome: "Dupla Sena", MinPicks: 6, MaxPicks: 15, MinNumber: 1, MaxNumber: 50, Threshold: 4},
	"diadesorte":     {ID: "diadesorte", Nome: "Dia de Sorte", MinPicks: 7, MaxPicks: 15, MinNumber: 1, MaxNumber: 31, Threshold: 4},
	"supersete":      {ID: "supersete", Nome: "Super Sete", MinPicks: 7, MaxPicks: 7, MinNumber: 0, MaxNumber: 9, AllowRepeats: true, Threshold: 3},
	"maismilionaria": {ID: "maismilionaria", Nome: "+Milionária", MinPicks: 6, MaxPicks: 12, MinNumber: 1, MaxNumber: 50, MinClovers: 2, MaxClovers: 6, MaxClover: 6, Threshold: 2, CloverThreshold: 1},
}

// Lookup retorna a regra de um id canônico
func Lookup(id string) (Rule, bool) {
	r, ok := rules[id]
	return r, ok
}

// IDs lista os ids canônicos conhecidos
func IDs() []string {
	out := make([]string, 0, len(rules))
	for id := range rules {
		out = append(out, id)
	}
	return out
}

// Threshold retorna os acertos mínimos para premiar; ids desconhecidos usam DefaultThreshold
func Threshold(id string) int {
	if r, ok := rules[id]; ok {
		return r.Threshold
	}
	return DefaultThreshold
}
