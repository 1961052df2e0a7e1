package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// SalesFinalizedTotal counts finalised sales by payment status.
	SalesFinalizedTotal *prometheus.CounterVec
	// SalesReplacedTotal counts edit-and-resubmit order replacements.
	SalesReplacedTotal prometheus.Counter
	// LedgerSettledTotal counts settled receivable/payable entries by kind.
	LedgerSettledTotal *prometheus.CounterVec
	// BackupImportRecords counts backup import record outcomes.
	BackupImportRecords *prometheus.CounterVec
	// DocumentsRendered counts printable documents rendered by kind.
	DocumentsRendered *prometheus.CounterVec
	// CashSessionsClosed counts closed cash register sessions.
	CashSessionsClosed prometheus.Counter
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		SalesFinalizedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sales_finalized_total",
			Help:      "Count of finalised sales by payment status.",
		}, []string{"status"})
		SalesReplacedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sales_replaced_total",
			Help:      "Count of orders replaced through the edit flow.",
		})
		LedgerSettledTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_settled_total",
			Help:      "Count of settled ledger entries by kind.",
		}, []string{"kind"})
		BackupImportRecords = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backup_import_records_total",
			Help:      "Backup import outcomes per record collection.",
		}, []string{"collection", "result"})
		DocumentsRendered = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_rendered_total",
			Help:      "Printable documents rendered by kind.",
		}, []string{"kind"})
		CashSessionsClosed = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cash_sessions_closed_total",
			Help:      "Count of closed cash register sessions.",
		})

		mustRegisterCollector(reg, SalesFinalizedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				SalesFinalizedTotal = v
			}
		})
		mustRegisterCollector(reg, SalesReplacedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				SalesReplacedTotal = v
			}
		})
		mustRegisterCollector(reg, LedgerSettledTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				LedgerSettledTotal = v
			}
		})
		mustRegisterCollector(reg, BackupImportRecords, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				BackupImportRecords = v
			}
		})
		mustRegisterCollector(reg, DocumentsRendered, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				DocumentsRendered = v
			}
		})
		mustRegisterCollector(reg, CashSessionsClosed, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				CashSessionsClosed = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
