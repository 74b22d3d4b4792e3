// Package metrics accumulates the harness's four-level connector outcome
// tree and appends one CSV row per recorded event.
package metrics

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/nimbuslab/routing-lab/internal/model"
)

const notApplicable = "N/A"

// Event is one routed attempt's outcome, ready to be folded into the count
// tree and appended to the CSV log.
type Event struct {
	Connector         model.Key
	PaymentMethod     string
	PaymentMethodType string
	Outcome           model.Outcome
}

// Recorder accumulates outcome counts keyed connector -> payment_method ->
// payment_method_type -> outcome, and appends each event as a CSV row.
type Recorder struct {
	mu     sync.Mutex
	counts map[string]map[string]map[string]map[model.Outcome]int
	file   *os.File
	csv    *csv.Writer
}

// NewRecorder opens path in append mode (created if absent) and returns a
// Recorder backed by it. No header row is written; consumers must know the
// column schema.
func NewRecorder(path string) (*Recorder, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("metrics: open %s: %w", path, err)
	}
	return &Recorder{
		counts: make(map[string]map[string]map[string]map[model.Outcome]int),
		file:   f,
		csv:    csv.NewWriter(f),
	}, nil
}

// Close flushes and releases the underlying CSV file handle.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.csv.Flush()
	if err := r.csv.Error(); err != nil {
		_ = r.file.Close()
		return err
	}
	return r.file.Close()
}

// Record appends ev to the CSV log and folds it into the count tree.
// Payment method/type fields the context never set become empty columns.
func (r *Recorder) Record(ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	row := []string{string(ev.Connector), ev.Outcome.String(), ev.PaymentMethod, ev.PaymentMethodType}
	if err := r.csv.Write(row); err != nil {
		return fmt.Errorf("metrics: write csv row: %w", err)
	}
	r.csv.Flush()
	if err := r.csv.Error(); err != nil {
		return fmt.Errorf("metrics: flush csv: %w", err)
	}

	pm := ev.PaymentMethod
	if pm == "" {
		pm = notApplicable
	}
	pmt := ev.PaymentMethodType
	if pmt == "" {
		pmt = notApplicable
	}

	connector := string(ev.Connector)
	if r.counts[connector] == nil {
		r.counts[connector] = make(map[string]map[string]map[model.Outcome]int)
	}
	if r.counts[connector][pm] == nil {
		r.counts[connector][pm] = make(map[string]map[model.Outcome]int)
	}
	if r.counts[connector][pm][pmt] == nil {
		r.counts[connector][pm][pmt] = make(map[model.Outcome]int)
	}
	r.counts[connector][pm][pmt][ev.Outcome]++

	return nil
}

// PaymentMethodTypeReport is the finest-grained aggregate: one connector,
// one payment method, one payment method type.
type PaymentMethodTypeReport struct {
	PaymentMethodType string
	Total             int
	SuccessRatePct    string
}

// PaymentMethodReport aggregates all payment method types under one
// connector/payment-method pair.
type PaymentMethodReport struct {
	PaymentMethod  string
	Total          int
	SuccessRatePct string
	Types          []PaymentMethodTypeReport
}

// ConnectorReport aggregates every payment method routed to one connector.
type ConnectorReport struct {
	Connector       string
	Total           int
	SuccessRatePct  string
	TrafficSharePct string
	PaymentMethods  []PaymentMethodReport
}

// Report is the full rollup across every connector the harness touched.
type Report struct {
	Connectors          []ConnectorReport
	TotalTransactions   int
	TotalSuccessRatePct string
}

func formatPct(numerator, denominator int) string {
	if denominator == 0 {
		return notApplicable
	}
	return fmt.Sprintf("%.2f%%", float64(numerator)/float64(denominator)*100.0)
}

func countAll(statusMap map[model.Outcome]int) (total, success int) {
	for outcome, n := range statusMap {
		total += n
		if outcome.IsSuccess() {
			success += n
		}
	}
	return
}

// Report walks the count tree and produces the rollup described in the
// final simulation report: per-connector, per-payment-method, and
// per-payment-method-type success rates, plus each connector's traffic
// share of the whole run.
func (r *Recorder) Report() Report {
	r.mu.Lock()
	defer r.mu.Unlock()

	connectorNames := sortedKeys(r.counts)
	connectors := make([]ConnectorReport, 0, len(connectorNames))
	grandTotal := 0
	grandSuccess := 0

	for _, connector := range connectorNames {
		pmMap := r.counts[connector]
		pmNames := sortedKeys(pmMap)
		pmReports := make([]PaymentMethodReport, 0, len(pmNames))
		connTotal, connSuccess := 0, 0

		for _, pm := range pmNames {
			pmtMap := pmMap[pm]
			pmtNames := sortedKeys(pmtMap)
			pmtReports := make([]PaymentMethodTypeReport, 0, len(pmtNames))
			pmTotal, pmSuccess := 0, 0

			for _, pmt := range pmtNames {
				total, success := countAll(pmtMap[pmt])
				pmtReports = append(pmtReports, PaymentMethodTypeReport{
					PaymentMethodType: pmt,
					Total:             total,
					SuccessRatePct:    formatPct(success, total),
				})
				pmTotal += total
				pmSuccess += success
			}

			pmReports = append(pmReports, PaymentMethodReport{
				PaymentMethod:  pm,
				Total:          pmTotal,
				SuccessRatePct: formatPct(pmSuccess, pmTotal),
				Types:          pmtReports,
			})
			connTotal += pmTotal
			connSuccess += pmSuccess
		}

		connectors = append(connectors, ConnectorReport{
			Connector:      connector,
			Total:          connTotal,
			SuccessRatePct: formatPct(connSuccess, connTotal),
			PaymentMethods: pmReports,
		})
		grandTotal += connTotal
		grandSuccess += connSuccess
	}

	for i := range connectors {
		connectors[i].TrafficSharePct = formatPct(connectors[i].Total, grandTotal)
	}

	return Report{
		Connectors:          connectors,
		TotalTransactions:   grandTotal,
		TotalSuccessRatePct: formatPct(grandSuccess, grandTotal),
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String renders Report as one line per connector, payment method, and
// payment method type, followed by traffic share and the grand total
// success rate.
func (rep Report) String() string {
	var b strings.Builder
	for _, c := range rep.Connectors {
		fmt.Fprintf(&b, "Connector: %s, Success Rate: %s\n", c.Connector, c.SuccessRatePct)
		for _, pm := range c.PaymentMethods {
			fmt.Fprintf(&b, "Connector: %s, Payment Method: %s, Success Rate: %s\n", c.Connector, pm.PaymentMethod, pm.SuccessRatePct)
			for _, pmt := range pm.Types {
				fmt.Fprintf(&b, "Connector: %s, Payment Method: %s, Payment Method Type: %s, Success Rate: %s\n",
					c.Connector, pm.PaymentMethod, pmt.PaymentMethodType, pmt.SuccessRatePct)
			}
		}
	}
	fmt.Fprintf(&b, "Total transactions: %d\n", rep.TotalTransactions)
	for _, c := range rep.Connectors {
		fmt.Fprintf(&b, "Total transactions from %s connector: %s\n", c.Connector, c.TrafficSharePct)
	}
	fmt.Fprintf(&b, "Total Success Rate: %s\n", rep.TotalSuccessRatePct)
	return b.String()
}
