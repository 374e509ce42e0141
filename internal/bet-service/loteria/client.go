package loteria

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

// campos onde a API publica as dezenas, em ordem de prioridade
var drawnFields = []string{"listaDezenas", "dezenasSorteadasOrdemSorteio", "dezenas"}

// corpo máximo aceito da API (um sorteio cabe com folga)
const maxBody = 1 << 20

type Client struct {
	BaseURL string
	HTTP    *http.Client
	Limiter *rate.Limiter
}

// NewClient cria o cliente com timeout por requisição e limite de requisições por segundo
func NewClient(base string, timeout time.Duration, rps float64) *Client {
	lim := rate.NewLimiter(rate.Inf, 1)
	if rps > 0 {
		lim = rate.NewLimiter(rate.Limit(rps), int(rps)+1)
	}
	return &Client{
		BaseURL: strings.TrimRight(base, "/"),
		HTTP:    &http.Client{Timeout: timeout},
		Limiter: lim,
	}
}

// Fetch faz GET {base}/{jogo}/{concurso} e normaliza o corpo
func (c *Client) Fetch(ctx context.Context, jogo string, concurso int) (Result, error) {
	fail := func(status int, err error) (Result, error) {
		return Result{}, &ResultFetchError{Jogo: jogo, Concurso: concurso, StatusCode: status, Err: err}
	}

	if err := c.Limiter.Wait(ctx); err != nil {
		return fail(0, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err))
	}

	url := fmt.Sprintf("%s/%s/%d", c.BaseURL, jogo, concurso)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fail(0, err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		if isTimeout(err) {
			return fail(0, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err))
		}
		return fail(0, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBody))
	if err != nil {
		if isTimeout(err) {
			return fail(res.StatusCode, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err))
		}
		return fail(res.StatusCode, err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fail(res.StatusCode, fmt.Errorf("resposta inesperada: %s", snippet(body)))
	}

	r, err := Parse(body)
	if err != nil {
		return fail(0, err)
	}
	r.Jogo = jogo
	if r.Concurso == 0 {
		r.Concurso = concurso
	}
	return r, nil
}

// Parse normaliza o JSON bruto da API. Exige ao menos um dos campos de dezenas preenchido.
func Parse(body []byte) (Result, error) {
	if !gjson.ValidBytes(body) {
		return Result{}, errors.New("corpo não é JSON válido")
	}
	doc := gjson.ParseBytes(body)

	dezenas := firstList(doc, drawnFields...)
	if len(dezenas) == 0 {
		return Result{}, errors.New("resultado sem dezenas sorteadas")
	}

	r := Result{
		Concurso:       int(first(doc, "numero", "concurso").Int()),
		Data:           first(doc, "dataApuracao", "data").String(),
		Dezenas:        dezenas,
		Trevos:         firstList(doc, "trevosSorteados", "trevos"),
		Premiacoes:     []Premiacao{},
		Acumulou:       first(doc, "acumulado", "acumulou").Bool(),
		ValorAcumulado: first(doc, "valorAcumuladoProximoConcurso", "valorAcumulado").Float(),
		TipoJogo:       doc.Get("tipoJogo").String(),
		Local:          first(doc, "localSorteio", "local").String(),
	}

	first(doc, "listaRateioPremio", "premiacoes").ForEach(func(_, p gjson.Result) bool {
		r.Premiacoes = append(r.Premiacoes, Premiacao{
			Descricao:   first(p, "descricaoFaixa", "descricao").String(),
			Faixa:       int(p.Get("faixa").Int()),
			Ganhadores:  int(first(p, "numeroDeGanhadores", "ganhadores").Int()),
			ValorPremio: first(p, "valorPremio", "premio").Float(),
		})
		return true
	})

	if v := first(doc, "numeroConcursoProximo", "proximoConcurso"); v.Exists() {
		n := int(v.Int())
		r.ProximoConcurso = &n
	}
	if v := first(doc, "dataProximoConcurso"); v.Exists() {
		s := v.String()
		r.DataProximoConcurso = &s
	}
	if v := first(doc, "valorEstimadoProximoConcurso"); v.Exists() {
		f := v.Float()
		r.ValorEstimadoProximo = &f
	}
	return r, nil
}

// first retorna o primeiro campo presente e não nulo
func first(doc gjson.Result, paths ...string) gjson.Result {
	for _, p := range paths {
		if v := doc.Get(p); v.Exists() && v.Type != gjson.Null {
			return v
		}
	}
	return gjson.Result{}
}

// firstList retorna o primeiro campo que é uma lista não vazia, como strings
func firstList(doc gjson.Result, paths ...string) []string {
	for _, p := range paths {
		v := doc.Get(p)
		if !v.IsArray() {
			continue
		}
		items := v.Array()
		if len(items) == 0 {
			continue
		}
		out := make([]string, 0, len(items))
		for _, it := range items {
			out = append(out, strings.TrimSpace(it.String()))
		}
		return out
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}

var _ Fetcher = (*Client)(nil)
