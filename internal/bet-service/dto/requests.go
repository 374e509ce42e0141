package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// PlaceBetRequest é o corpo de POST /bets e POST /bets/group
type PlaceBetRequest struct {
	Jogo          string       `json:"jogo"`
	Concurso      FlexString   `json:"concurso"` // "2500" ou 2500
	Numeros       any          `json:"numeros"`  // lista ou "01,02,03"
	Trevos        any          `json:"trevos,omitempty"`
	Teimosinha    FlexBool     `json:"teimosinha"`
	QtdTeimosinha FlexString   `json:"qtdTeimosinha"`
	Grupo         *GroupFields `json:"grupo,omitempty"`
}

type GroupFields struct {
	Nome             string          `json:"nome"`
	Participantes    ParticipantList `json:"participantes"`
	MaxParticipantes int             `json:"maxParticipantes,omitempty"`
}

type ProfileRequest struct {
	Nome string `json:"nome"`
}

type SetRoleRequest struct {
	UID     string `json:"uid"`
	Role    string `json:"role"`
	Premium *bool  `json:"premium,omitempty"`
}

// FlexString aceita string ou número no JSON
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return errors.New("esperado texto ou número")
	}
	*f = FlexString(n.String())
	return nil
}

// FlexBool aceita true/false, "true"/"false", "1"/"0" e números
type FlexBool bool

func (f *FlexBool) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case nil:
		*f = false
	case bool:
		*f = FlexBool(t)
	case float64:
		*f = t != 0
	case string:
		p, err := strconv.ParseBool(strings.TrimSpace(t))
		*f = FlexBool(err == nil && p)
	default:
		return errors.New("esperado booleano")
	}
	return nil
}

// ParticipantList aceita e-mails ou objetos {"email": "..."}
type ParticipantList []string

func (p *ParticipantList) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return errors.New("participantes deve ser uma lista")
	}
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		var s string
		if err := json.Unmarshal(r, &s); err == nil {
			out = append(out, s)
			continue
		}
		var obj struct {
			Email string `json:"email"`
		}
		if err := json.Unmarshal(r, &obj); err != nil {
			return errors.New("participante deve ser e-mail ou objeto com email")
		}
		out = append(out, obj.Email)
	}
	*p = out
	return nil
}
