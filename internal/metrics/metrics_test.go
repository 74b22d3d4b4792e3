package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nimbuslab/routing-lab/internal/model"
)

func newTestRecorder(t *testing.T) *Recorder {
	t.Helper()
	path := filepath.Join(t.TempDir(), "records.csv")
	rec, err := NewRecorder(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rec.Close() })
	return rec
}

func TestRecorder_Record_AppendsCSVRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.csv")
	rec, err := NewRecorder(path)
	require.NoError(t, err)

	require.NoError(t, rec.Record(Event{
		Connector:         "stripe",
		PaymentMethod:     "card",
		PaymentMethodType: "credit",
		Outcome:           model.Success,
	}))
	require.NoError(t, rec.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "stripe,Success,card,credit\n", string(data))
}

func TestRecorder_Record_AbsentFieldsBecomeEmptyColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.csv")
	rec, err := NewRecorder(path)
	require.NoError(t, err)

	require.NoError(t, rec.Record(Event{Connector: "stripe", Outcome: model.Failure}))
	require.NoError(t, rec.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "stripe,Failure,,\n", string(data))
}

func TestRecorder_Report_PerConnectorSuccessRate(t *testing.T) {
	rec := newTestRecorder(t)
	for i := 0; i < 3; i++ {
		require.NoError(t, rec.Record(Event{Connector: "stripe", PaymentMethod: "card", PaymentMethodType: "credit", Outcome: model.Success}))
	}
	require.NoError(t, rec.Record(Event{Connector: "stripe", PaymentMethod: "card", PaymentMethodType: "credit", Outcome: model.Failure}))

	report := rec.Report()
	require.Len(t, report.Connectors, 1)
	assert.Equal(t, "stripe", report.Connectors[0].Connector)
	assert.Equal(t, 4, report.Connectors[0].Total)
	assert.Equal(t, "75.00%", report.Connectors[0].SuccessRatePct)
	assert.Equal(t, "100.00%", report.Connectors[0].TrafficSharePct)
}

func TestRecorder_Report_MissingFieldsUseNABucket(t *testing.T) {
	rec := newTestRecorder(t)
	require.NoError(t, rec.Record(Event{Connector: "stripe", Outcome: model.Success}))

	report := rec.Report()
	require.Len(t, report.Connectors, 1)
	require.Len(t, report.Connectors[0].PaymentMethods, 1)
	assert.Equal(t, notApplicable, report.Connectors[0].PaymentMethods[0].PaymentMethod)
	assert.Equal(t, notApplicable, report.Connectors[0].PaymentMethods[0].Types[0].PaymentMethodType)
}

func TestRecorder_Report_EmptyIsNA(t *testing.T) {
	rec := newTestRecorder(t)
	report := rec.Report()
	assert.Equal(t, 0, report.TotalTransactions)
	assert.Equal(t, notApplicable, report.TotalSuccessRatePct)
}

func TestRecorder_Report_TrafficShareAcrossConnectors(t *testing.T) {
	rec := newTestRecorder(t)
	require.NoError(t, rec.Record(Event{Connector: "stripe", Outcome: model.Success}))
	require.NoError(t, rec.Record(Event{Connector: "stripe", Outcome: model.Success}))
	require.NoError(t, rec.Record(Event{Connector: "adyen", Outcome: model.Failure}))

	report := rec.Report()
	require.Len(t, report.Connectors, 2)
	byName := map[string]ConnectorReport{}
	for _, c := range report.Connectors {
		byName[c.Connector] = c
	}
	assert.Equal(t, "66.67%", byName["stripe"].TrafficSharePct)
	assert.Equal(t, "33.33%", byName["adyen"].TrafficSharePct)
}

func TestReport_String_IncludesGrandTotal(t *testing.T) {
	rec := newTestRecorder(t)
	require.NoError(t, rec.Record(Event{Connector: "stripe", Outcome: model.Success}))

	out := rec.Report().String()
	assert.Contains(t, out, "Total transactions: 1")
	assert.Contains(t, out, "Connector: stripe")
}
