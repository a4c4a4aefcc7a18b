package demo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_PlaceOrderSuccess(t *testing.T) {
	graph, err := Build(0, map[string]int{"WIDGET-1": 10})
	require.NoError(t, err)
	defer graph.Weaver.Dispose()

	confirmation, err := graph.PlaceOrder("WIDGET-1", 2, 500)
	require.NoError(t, err)
	assert.Equal(t, "ORD-WIDGET-1-2", confirmation)

	assert.Equal(t, []string{"ORD-WIDGET-1-2"}, graph.Audit.Ledger)
	assert.Empty(t, graph.Alert.Alerts)
	assert.Equal(t, 1, graph.Timing.Calls)
}

func TestBuild_InsufficientStockNeverReachesPayment(t *testing.T) {
	graph, err := Build(0, map[string]int{"WIDGET-1": 1})
	require.NoError(t, err)
	defer graph.Weaver.Dispose()

	_, err = graph.PlaceOrder("WIDGET-1", 5, 500)
	require.Error(t, err)

	assert.Empty(t, graph.Audit.Ledger)
	assert.Len(t, graph.Alert.Alerts, 1)
	assert.Contains(t, graph.Alert.Alerts[0], "insufficient stock")
}

func TestBuild_DeclinedPaymentReleasesReservation(t *testing.T) {
	graph, err := Build(100, map[string]int{"WIDGET-1": 10})
	require.NoError(t, err)
	defer graph.Weaver.Dispose()

	_, err = graph.PlaceOrder("WIDGET-1", 2, 500)
	require.Error(t, err)

	assert.Empty(t, graph.Audit.Ledger)
	assert.Len(t, graph.Alert.Alerts, 1)
	assert.Contains(t, graph.Alert.Alerts[0], "declined")

	// the reservation rolled back on the declined charge, so the stock is
	// available again for a second, smaller order within the card limit.
	confirmation, err := graph.PlaceOrder("WIDGET-1", 1, 50)
	require.NoError(t, err)
	assert.Equal(t, "ORD-WIDGET-1-1", confirmation)
}

func TestBuildSelected_OmittedAspectDoesNotRun(t *testing.T) {
	graph, err := BuildSelected(0, map[string]int{"WIDGET-1": 10}, []string{"logging", "timing"})
	require.NoError(t, err)
	defer graph.Weaver.Dispose()

	_, err = graph.PlaceOrder("WIDGET-1", 1, 100)
	require.NoError(t, err)

	assert.Empty(t, graph.Audit.Ledger, "audit aspect was not in the enabled list")
	assert.Equal(t, 1, graph.Timing.Calls)
}
