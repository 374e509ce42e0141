package service

import "errors"

// Erros de domínio; a camada HTTP traduz cada um para um status
var (
	ErrValidation = errors.New("dados inválidos")
	ErrForbidden  = errors.New("acesso negado")
	ErrNotFound   = errors.New("não encontrado")
	ErrConflict   = errors.New("conflito")
)
