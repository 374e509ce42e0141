package topics

const (
	// Bets
	BetPlaced        = "bet_placed"
	BetResultChecked = "bet_result_checked"

	// DLQs
	BetAuditDLQ = "bet_audit_dlq"
)
