package events

// Evento emitido pelo bet-service para cada registro de aposta criado
// (uma mensagem por concurso da teimosinha).
type BetPlaced struct {
	BetID    string   `json:"bet_id"`
	UserID   string   `json:"user_id"`
	Tipo     string   `json:"tipo"` // "individual" | "grupo"
	Jogo     string   `json:"jogo"`
	Concurso string   `json:"concurso"`
	Numeros  []string `json:"numeros"`
	Status   string   `json:"status"`
	TsUnixMs int64    `json:"ts_unix_ms"`
}
