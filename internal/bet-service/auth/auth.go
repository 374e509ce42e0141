// Package auth verifica o token bearer emitido pelo provedor de identidade
// e coloca a identidade do usuário no contexto da requisição.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("token inválido")

// Identity é o que o token garante sobre o usuário
type Identity struct {
	UID           string
	Email         string
	EmailVerified bool
	Role          string
}

// Verifier valida um token e devolve a identidade
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

type claims struct {
	UID           string `json:"uid"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Role          string `json:"role"`
	jwt.RegisteredClaims
}

// JWTVerifier valida tokens HS256 com segredo compartilhado
type JWTVerifier struct {
	secret []byte
	issuer string
}

func NewJWTVerifier(secret, issuer string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret), issuer: issuer}
}

func (v *JWTVerifier) Verify(_ context.Context, token string) (Identity, error) {
	if len(v.secret) == 0 {
		return Identity{}, fmt.Errorf("%w: verificação não configurada", ErrInvalidToken)
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	tok, err := jwt.ParseWithClaims(token, &claims{}, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil || !tok.Valid {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	cl, ok := tok.Claims.(*claims)
	if !ok {
		return Identity{}, fmt.Errorf("%w: claims inesperadas", ErrInvalidToken)
	}

	uid := cl.UID
	if uid == "" {
		uid = cl.Subject
	}
	if uid == "" {
		return Identity{}, fmt.Errorf("%w: token sem uid", ErrInvalidToken)
	}
	return Identity{
		UID:           uid,
		Email:         strings.ToLower(cl.Email),
		EmailVerified: cl.EmailVerified,
		Role:          cl.Role,
	}, nil
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext retorna a identidade colocada pelo middleware
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}

// BearerToken extrai o token do cabeçalho Authorization
func BearerToken(header string) (string, bool) {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	tok := strings.TrimSpace(header[len(prefix):])
	return tok, tok != ""
}
