package application

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/franksiereveld/rationalmarkets/internal/execution/domain"
	refdomain "github.com/franksiereveld/rationalmarkets/internal/referencedata/domain"
	strategydomain "github.com/franksiereveld/rationalmarkets/internal/strategy/domain"
)

type stubBroker struct {
	broker  refdomain.Broker
	failFor map[string]error
	calls   []string
}

func (b *stubBroker) Broker() refdomain.Broker { return b.broker }

func (b *stubBroker) SubmitOrder(_ context.Context, req domain.OrderRequest) (domain.OrderAck, error) {
	b.calls = append(b.calls, req.Symbol)
	if err := b.failFor[req.Symbol]; err != nil {
		return domain.OrderAck{}, err
	}
	return domain.OrderAck{
		OrderID:  "live-" + req.Symbol,
		Symbol:   req.Symbol,
		Side:     req.Side,
		Quantity: req.Quantity,
		Status:   domain.StatusSubmitted,
	}, nil
}

type stubChecker struct{ connected bool }

func (c stubChecker) Connected(refdomain.Broker) bool { return c.connected }

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func orders(symbols ...string) []strategydomain.Order {
	out := make([]strategydomain.Order, 0, len(symbols))
	for _, sym := range symbols {
		out = append(out, strategydomain.Order{
			Ticker:       sym,
			BrokerSymbol: sym,
			Side:         strategydomain.OrderBuy,
			Quantity:     d("10"),
			Price:        d("100"),
			DollarAmount: d("1000"),
			Currency:     "USD",
		})
	}
	return out
}

func TestExecuteSimulatesWithoutConnection(t *testing.T) {
	broker := &stubBroker{broker: refdomain.BrokerAlpaca}
	svc := NewExecutionService(
		map[refdomain.Broker]domain.BrokerClient{refdomain.BrokerAlpaca: broker},
		stubChecker{connected: false},
		nil,
		slog.Default(),
	)

	result, err := svc.Execute(context.Background(), refdomain.BrokerAlpaca, "test", orders("NVDA", "MSFT"))
	require.NoError(t, err)
	assert.True(t, result.Simulated)
	assert.Equal(t, 2, result.Submitted)
	assert.Empty(t, broker.calls, "no broker calls in demo mode")
	for _, ack := range result.Acks {
		assert.Equal(t, domain.StatusSimulated, ack.Status)
		assert.Regexp(t, `^demo-[A-Z]+-\d{4}$`, ack.OrderID)
	}
}

func TestSimulatedOrderIDsAreDeterministic(t *testing.T) {
	svc := NewExecutionService(nil, stubChecker{}, nil, slog.Default())

	first, err := svc.Execute(context.Background(), refdomain.BrokerAlpaca, "test", orders("NVDA"))
	require.NoError(t, err)
	second, err := svc.Execute(context.Background(), refdomain.BrokerAlpaca, "test", orders("NVDA"))
	require.NoError(t, err)

	assert.Equal(t, first.Acks[0].OrderID, second.Acks[0].OrderID)
}

func TestExecuteSubmitsWhenConnected(t *testing.T) {
	broker := &stubBroker{broker: refdomain.BrokerAlpaca}
	svc := NewExecutionService(
		map[refdomain.Broker]domain.BrokerClient{refdomain.BrokerAlpaca: broker},
		stubChecker{connected: true},
		nil,
		slog.Default(),
	)

	result, err := svc.Execute(context.Background(), refdomain.BrokerAlpaca, "test", orders("NVDA", "MSFT"))
	require.NoError(t, err)
	assert.False(t, result.Simulated)
	assert.Equal(t, 2, result.Submitted)
	assert.Equal(t, []string{"NVDA", "MSFT"}, broker.calls)
}

func TestExecuteIsolatesPerOrderFailures(t *testing.T) {
	broker := &stubBroker{
		broker:  refdomain.BrokerAlpaca,
		failFor: map[string]error{"MSFT": errors.New("insufficient buying power")},
	}
	svc := NewExecutionService(
		map[refdomain.Broker]domain.BrokerClient{refdomain.BrokerAlpaca: broker},
		stubChecker{connected: true},
		nil,
		slog.Default(),
	)

	result, err := svc.Execute(context.Background(), refdomain.BrokerAlpaca, "test", orders("NVDA", "MSFT", "TSM"))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Submitted)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Acks, 3)
	assert.Equal(t, domain.StatusSubmitted, result.Acks[0].Status)
	assert.Equal(t, domain.StatusFailed, result.Acks[1].Status)
	assert.Equal(t, domain.StatusSubmitted, result.Acks[2].Status)
}

func TestExecuteRejectsUnknownBroker(t *testing.T) {
	svc := NewExecutionService(nil, stubChecker{}, nil, slog.Default())
	_, err := svc.Execute(context.Background(), "robinhood", "test", orders("NVDA"))
	require.Error(t, err)
}
