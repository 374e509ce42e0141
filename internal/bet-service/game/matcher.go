package game

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidNumbers = errors.New("dezenas inválidas")

// CanonicalNumber padroniza uma dezena: "05", " 5" e 5 viram "5".
// Valores não numéricos são mantidos (sem espaços nas pontas).
func CanonicalNumber(s string) string {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return strconv.Itoa(n)
	}
	return s
}

// CountMatches conta quantas dezenas distintas da aposta aparecem no sorteio.
// Dezenas repetidas na aposta contam uma vez só.
func CountMatches(bet, drawn []string) int {
	set := make(map[string]struct{}, len(drawn))
	for _, d := range drawn {
		set[CanonicalNumber(d)] = struct{}{}
	}
	seen := make(map[string]struct{}, len(bet))
	n := 0
	for _, b := range bet {
		c := CanonicalNumber(b)
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		if _, ok := set[c]; ok {
			n++
		}
	}
	return n
}

// IsWinner aplica a faixa mínima de acertos da modalidade
func IsWinner(matchCount int, id string) bool {
	return matchCount >= Threshold(id)
}

// Outcome é o resultado da conferência de uma aposta contra um sorteio
type Outcome struct {
	Acertos       int
	AcertosTrevos int
	Premiada      bool
}

// Evaluate confere dezenas e, quando a modalidade usa, trevos
func Evaluate(id string, bet, betClovers, drawn, drawnClovers []string) Outcome {
	o := Outcome{Acertos: CountMatches(bet, drawn)}
	o.Premiada = IsWinner(o.Acertos, id)

	if r, ok := Lookup(id); ok && r.CloverThreshold > 0 {
		o.AcertosTrevos = CountMatches(betClovers, drawnClovers)
		o.Premiada = o.Premiada && o.AcertosTrevos >= r.CloverThreshold
	}
	return o
}

// ParseNumbers aceita lista (strings ou números) ou texto separado por vírgula,
// ponto e vírgula, hífen ou espaço
func ParseNumbers(v any) ([]string, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case []string:
		return cleanNumbers(t), nil
	case []any:
		out := make([]string, 0, len(t))
		for _, x := range t {
			switch n := x.(type) {
			case string:
				out = append(out, n)
			case float64:
				if n != float64(int(n)) {
					return nil, fmt.Errorf("%w: %v não é inteiro", ErrInvalidNumbers, n)
				}
				out = append(out, strconv.Itoa(int(n)))
			default:
				return nil, fmt.Errorf("%w: tipo %T", ErrInvalidNumbers, x)
			}
		}
		return cleanNumbers(out), nil
	case string:
		parts := strings.FieldsFunc(t, func(r rune) bool {
			return r == ',' || r == ';' || r == '-' || r == ' ' || r == '\t' || r == '\n'
		})
		return cleanNumbers(parts), nil
	default:
		return nil, fmt.Errorf("%w: formato %T não suportado", ErrInvalidNumbers, v)
	}
}

func cleanNumbers(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate confere quantidade, faixa e repetição das dezenas e dos trevos
func (r Rule) Validate(numbers, clovers []string) error {
	if len(numbers) < r.MinPicks || len(numbers) > r.MaxPicks {
		if r.MinPicks == r.MaxPicks {
			return fmt.Errorf("%w: %s exige %d dezenas, recebeu %d", ErrInvalidNumbers, r.Nome, r.MinPicks, len(numbers))
		}
		return fmt.Errorf("%w: %s exige de %d a %d dezenas, recebeu %d", ErrInvalidNumbers, r.Nome, r.MinPicks, r.MaxPicks, len(numbers))
	}
	if err := checkRange(numbers, r.MinNumber, r.MaxNumber, r.AllowRepeats, "dezena"); err != nil {
		return err
	}

	if r.MaxClovers == 0 {
		if len(clovers) > 0 {
			return fmt.Errorf("%w: %s não usa trevos", ErrInvalidNumbers, r.Nome)
		}
		return nil
	}
	if len(clovers) < r.MinClovers || len(clovers) > r.MaxClovers {
		return fmt.Errorf("%w: %s exige de %d a %d trevos, recebeu %d", ErrInvalidNumbers, r.Nome, r.MinClovers, r.MaxClovers, len(clovers))
	}
	return checkRange(clovers, 1, r.MaxClover, false, "trevo")
}

func checkRange(values []string, lo, hi int, repeats bool, label string) error {
	seen := make(map[int]struct{}, len(values))
	for _, s := range values {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("%w: %s %q não é numérico", ErrInvalidNumbers, label, s)
		}
		if n < lo || n > hi {
			return fmt.Errorf("%w: %s %d fora da faixa %d-%d", ErrInvalidNumbers, label, n, lo, hi)
		}
		if _, dup := seen[n]; dup && !repeats {
			return fmt.Errorf("%w: %s %d repetido", ErrInvalidNumbers, label, n)
		}
		seen[n] = struct{}{}
	}
	return nil
}
