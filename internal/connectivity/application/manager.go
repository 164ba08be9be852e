// Package application 券商连接管理的应用服务。
package application

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/franksiereveld/rationalmarkets/internal/connectivity/domain"
	refdomain "github.com/franksiereveld/rationalmarkets/internal/referencedata/domain"
)

// Manager 维护各券商的连接状态。
// Connect 从不返回错误：探测失败记入状态，调用方通过 Status 查看。
type Manager struct {
	logger  *slog.Logger
	probers map[refdomain.Broker]domain.Prober
	creds   map[refdomain.Broker]domain.Credentials

	mu     sync.RWMutex
	states map[refdomain.Broker]domain.ConnectionState
	now    func() time.Time
}

// NewManager 构建连接管理器。
func NewManager(probers map[refdomain.Broker]domain.Prober, creds map[refdomain.Broker]domain.Credentials, logger *slog.Logger) *Manager {
	states := make(map[refdomain.Broker]domain.ConnectionState, len(probers))
	for broker := range probers {
		mode := creds[broker].Mode
		if mode == "" {
			mode = domain.ModePaper
		}
		states[broker] = domain.ConnectionState{
			Broker:             broker,
			Mode:               mode,
			CredentialsPresent: creds[broker].Configured(),
			Detail:             "not connected",
		}
	}
	return &Manager{
		logger:  logger,
		probers: probers,
		creds:   creds,
		states:  states,
		now:     time.Now,
	}
}

// Connect 用启动时配置的凭据探测单个券商并更新连接状态。
func (m *Manager) Connect(ctx context.Context, broker refdomain.Broker) domain.ConnectionState {
	return m.ConnectWith(ctx, broker, m.creds[broker])
}

// ConnectWith 用调用方提供的凭据探测券商，覆盖启动配置。
func (m *Manager) ConnectWith(ctx context.Context, broker refdomain.Broker, creds domain.Credentials) domain.ConnectionState {
	prober, ok := m.probers[broker]
	if !ok {
		state := domain.ConnectionState{
			Broker:        broker,
			Detail:        "broker not supported",
			LastCheckedAt: m.now(),
		}
		m.store(state)
		return state
	}

	state := domain.ConnectionState{
		Broker:             broker,
		Mode:               creds.Mode,
		CredentialsPresent: creds.Configured(),
		LastCheckedAt:      m.now(),
	}
	if state.Mode == "" {
		state.Mode = domain.ModePaper
	}

	if !creds.Configured() {
		state.Detail = "credentials not configured, running in demo mode"
	} else if err := prober.Probe(ctx, creds); err != nil {
		state.Detail = err.Error()
		m.logger.WarnContext(ctx, "broker probe failed", "broker", broker, "error", err)
	} else {
		state.Connected = true
		state.Detail = "connected"
		m.logger.InfoContext(ctx, "broker connected", "broker", broker, "mode", state.Mode)
	}

	m.store(state)
	return state
}

// ConnectAll 探测全部已注册的券商。
func (m *Manager) ConnectAll(ctx context.Context) []domain.ConnectionState {
	brokers := make([]refdomain.Broker, 0, len(m.probers))
	for broker := range m.probers {
		brokers = append(brokers, broker)
	}
	sort.Slice(brokers, func(i, j int) bool { return brokers[i] < brokers[j] })

	out := make([]domain.ConnectionState, 0, len(brokers))
	for _, broker := range brokers {
		out = append(out, m.Connect(ctx, broker))
	}
	return out
}

// Connected 返回券商当前是否已连通。
func (m *Manager) Connected(broker refdomain.Broker) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.states[broker].Connected
}

// HealthCheck 重新探测券商并返回连通结果。
func (m *Manager) HealthCheck(ctx context.Context, broker refdomain.Broker) bool {
	return m.Connect(ctx, broker).Connected
}

// Status 返回全部券商的连接状态，按券商名排序。
func (m *Manager) Status() []domain.ConnectionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.ConnectionState, 0, len(m.states))
	for _, state := range m.states {
		out = append(out, state)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Broker < out[j].Broker })
	return out
}

func (m *Manager) store(state domain.ConnectionState) {
	m.mu.Lock()
	m.states[state.Broker] = state
	m.mu.Unlock()
}
