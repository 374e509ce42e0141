package events

import "time"

// Evento emitido na primeira conferência do resultado de uma aposta.
// Consultas repetidas (resultado já salvo) não geram evento.
type BetResultChecked struct {
	BetID     string    `json:"bet_id"`
	UserID    string    `json:"user_id"`
	Jogo      string    `json:"jogo"`
	Concurso  string    `json:"concurso"`
	OldStatus string    `json:"old_status"`
	NewStatus string    `json:"new_status"` // "finalized" | "prize"
	Acertos   int       `json:"acertos"`
	Ts        time.Time `json:"ts"`
}
