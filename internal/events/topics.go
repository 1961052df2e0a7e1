package events

// Topic constants for domain events emitted by the shop.
const (
	TopicSaleCreated       = "sale.created"
	TopicSaleReplaced      = "sale.replaced"
	TopicSaleCancelled     = "sale.cancelled"
	TopicLedgerSettled     = "ledger.entry_settled"
	TopicLedgerOverdue     = "ledger.entry_overdue"
	TopicCashSessionClosed = "cash.session_closed"
	TopicBackupImported    = "backup.imported"
)

// DefaultTopics returns the canonical list of topics the shop emits.
func DefaultTopics() []string {
	return []string{
		TopicSaleCreated,
		TopicSaleReplaced,
		TopicSaleCancelled,
		TopicLedgerSettled,
		TopicLedgerOverdue,
		TopicCashSessionClosed,
		TopicBackupImported,
	}
}
