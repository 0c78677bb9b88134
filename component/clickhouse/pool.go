package clickhouse

import (
	"context"
	"sync"
	"time"

	"github.com/chdash/chdash/config"
	"github.com/chdash/chdash/utils"

	"github.com/pingcap/log"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

var ErrHostNotFound = errors.New("clickhouse host not found")

var (
	probeAttempts      uint = 5
	probeFirstInterval      = time.Second
)

// ClientFactory builds the client of one configured host.
type ClientFactory func(host config.Host, cfg config.ClickHouse, security *config.Security) (Client, error)

func DefaultClientFactory(host config.Host, cfg config.ClickHouse, security *config.Security) (Client, error) {
	if cfg.Protocol == config.ProtocolNative {
		return NewNativeClient(host, cfg, security)
	}
	return NewHTTPClient(host, cfg, security)
}

// Host is a configured ClickHouse endpoint addressed by its index.
type Host struct {
	Index  int
	Config config.Host

	client  Client
	probed  atomic.Bool
	healthy atomic.Bool
	lastErr atomic.String
}

func (h *Host) Name() string {
	return h.Config.DisplayName()
}

// Healthy reports the result of the last probe, false until a probe ran.
func (h *Host) Healthy() bool {
	return h.healthy.Load()
}

func (h *Host) Probed() bool {
	return h.probed.Load()
}

func (h *Host) LastError() string {
	return h.lastErr.Load()
}

func (h *Host) Query(ctx context.Context, req Request) (*Result, error) {
	label := req.Label
	if label == "" {
		label = "adhoc"
	}
	start := time.Now()
	res, err := h.client.Query(ctx, req)
	queryDuration.WithLabelValues(h.Name(), label).Observe(time.Since(start).Seconds())
	switch {
	case err == nil:
		queryCounter.WithLabelValues(h.Name(), label, resultOK).Inc()
	case IsException(err):
		queryCounter.WithLabelValues(h.Name(), label, resultException).Inc()
		log.Warn("clickhouse query failed", zap.String("host", h.Name()), zap.String("query", label), zap.Error(err))
	default:
		queryCounter.WithLabelValues(h.Name(), label, resultError).Inc()
		log.Warn("failed to query clickhouse", zap.String("host", h.Name()), zap.String("query", label), zap.Error(err))
	}
	return res, err
}

func (h *Host) probe(ctx context.Context) {
	utils.WithRetryBackoff(ctx, probeAttempts, probeFirstInterval, func(attempt uint) bool {
		err := h.client.Ping(ctx)
		h.probed.Store(true)
		if err != nil {
			h.healthy.Store(false)
			h.lastErr.Store(err.Error())
			hostUp.WithLabelValues(h.Name()).Set(0)
			log.Warn("clickhouse host is unreachable",
				zap.String("host", h.Name()),
				zap.Uint("attempt", attempt),
				zap.Error(err))
			return false
		}
		h.healthy.Store(true)
		h.lastErr.Store("")
		hostUp.WithLabelValues(h.Name()).Set(1)
		log.Info("clickhouse host is reachable", zap.String("host", h.Name()))
		return true
	})
}

// Pool holds the clients of all configured hosts and rebuilds them when
// the [clickhouse] config changes.
type Pool struct {
	factory  ClientFactory
	security config.Security

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu    sync.RWMutex
	cfg   config.ClickHouse
	hosts []*Host
}

func NewPool(ctx context.Context, cfg config.ClickHouse, security config.Security, factory ClientFactory) (*Pool, error) {
	if factory == nil {
		factory = DefaultClientFactory
	}
	p := &Pool{factory: factory, security: security}
	p.ctx, p.cancel = context.WithCancel(ctx)
	if err := p.Update(cfg); err != nil {
		p.cancel()
		return nil, err
	}
	return p, nil
}

func (p *Pool) buildHosts(cfg config.ClickHouse) ([]*Host, error) {
	hosts := make([]*Host, 0, len(cfg.Hosts))
	for i, hc := range cfg.Hosts {
		client, err := p.factory(hc, cfg, &p.security)
		if err != nil {
			closeHosts(hosts)
			return nil, errors.Wrapf(err, "failed to create client for clickhouse host %d", i)
		}
		hosts = append(hosts, &Host{Index: i, Config: hc, client: client})
	}
	return hosts, nil
}

// Update replaces all hosts when cfg differs from the current config.
func (p *Pool) Update(cfg config.ClickHouse) error {
	p.mu.Lock()
	if p.hosts != nil && p.cfg.Equal(cfg) {
		p.mu.Unlock()
		return nil
	}
	hosts, err := p.buildHosts(cfg)
	if err != nil {
		p.mu.Unlock()
		return err
	}
	old := p.hosts
	p.cfg = cfg
	p.hosts = hosts
	p.mu.Unlock()

	closeHosts(old)
	for _, h := range hosts {
		h := h
		p.wg.Add(1)
		go utils.GoWithRecovery(func() {
			defer p.wg.Done()
			h.probe(p.ctx)
		}, nil)
	}
	log.Info("clickhouse hosts loaded", zap.Int("count", len(hosts)), zap.String("protocol", cfg.Protocol))
	return nil
}

// Run follows config changes until ctx is done.
func (p *Pool) Run(ctx context.Context, sub config.Subscriber) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.ctx.Done():
			return
		case getCfg := <-sub:
			if err := p.Update(getCfg().ClickHouse); err != nil {
				log.Warn("failed to reload clickhouse hosts", zap.Error(err))
			}
		}
	}
}

func (p *Pool) Get(index int) (*Host, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if index < 0 || index >= len(p.hosts) {
		return nil, errors.Wrapf(ErrHostNotFound, "host index %d", index)
	}
	return p.hosts[index], nil
}

func (p *Pool) Hosts() []*Host {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]*Host(nil), p.hosts...)
}

func (p *Pool) Close() {
	p.cancel()
	p.wg.Wait()
	p.mu.Lock()
	closeHosts(p.hosts)
	p.hosts = nil
	p.mu.Unlock()
}

func closeHosts(hosts []*Host) {
	for _, h := range hosts {
		if err := h.client.Close(); err != nil {
			log.Warn("failed to close clickhouse client", zap.String("host", h.Name()), zap.Error(err))
		}
	}
}
