package config

import (
	"context"
	"crypto/tls"
	"fmt"
	stdlog "log"
	"net"
	"net/url"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/VictoriaMetrics/VictoriaMetrics/lib/procutil"
	"github.com/pingcap/log"
	commonconfig "github.com/prometheus/common/config"
	"go.etcd.io/etcd/client/pkg/v3/transport"
	"go.uber.org/zap"
)

type Config struct {
	Address          string     `toml:"address" json:"address"`
	AdvertiseAddress string     `toml:"advertise-address" json:"advertise_address"`
	Log              Log        `toml:"log" json:"log"`
	Storage          Storage    `toml:"storage" json:"storage"`
	ClickHouse       ClickHouse `toml:"clickhouse" json:"clickhouse"`
	Security         Security   `toml:"security" json:"security"`
	Dashboard        Dashboard  `toml:"dashboard" json:"dashboard"`
}

var defaultConfig = Config{
	Address: "0.0.0.0:12030",
	Log: Log{
		Path:  "", // default output is stdout
		Level: "INFO",
	},
	Storage: Storage{
		Path:         "data",
		DocDBBackend: "sqlite",
	},
	ClickHouse: ClickHouse{
		Hosts: []Host{{
			Name: "default",
			URL:  "http://127.0.0.1:8123",
			User: "default",
		}},
		Protocol:      ProtocolHTTP,
		TimeoutSecs:   30,
		MaxResultRows: 10000,
	},
	Dashboard: Dashboard{
		RefreshIntervalSecs: 5,
		DefaultLastHours:    24,
		MaxRows:             1000,
		QueryTruncate:       100,
	},
}

func GetDefaultConfig() Config {
	return defaultConfig
}

type Subscriber = chan GetLatestConfig
type GetLatestConfig = func() Config

var (
	globalConfigMutex sync.Mutex
	globalConfig      = defaultConfig

	subscribersMutex        sync.Mutex
	configChangeSubscribers []Subscriber
)

// Subscribe returns a channel that receives a config getter every
// time the config is changed. By calling the getter, you can get
// the latest config.
//
// There will be one getter in the channel after subscribing. It
// can be used to get the current config immediately as follows.
// ```go
// cfgSubscriber := config.Subscribe()
// getCurrentCfg := <-cfgSubscriber
// currentCfg := getCurrentCfg()
// ```
func Subscribe() Subscriber {
	subscribersMutex.Lock()
	defer subscribersMutex.Unlock()

	ch := make(chan GetLatestConfig, 1)
	configChangeSubscribers = append(configChangeSubscribers, ch)
	ch <- GetGlobalConfig
	return ch
}

func notifyConfigChange() {
	subscribersMutex.Lock()
	defer subscribersMutex.Unlock()

	for _, ch := range configChangeSubscribers {
		select {
		case ch <- GetGlobalConfig:
		default:
		}
	}
}

func GetGlobalConfig() (res Config) {
	globalConfigMutex.Lock()
	res = globalConfig
	res.ClickHouse.Hosts = append([]Host(nil), globalConfig.ClickHouse.Hosts...)
	globalConfigMutex.Unlock()
	return
}

// StoreGlobalConfig stores a new config to the globalConf. It mostly uses in the test to avoid some data races.
func StoreGlobalConfig(config Config) {
	globalConfigMutex.Lock()
	globalConfig = config
	globalConfigMutex.Unlock()
	notifyConfigChange()
}

// UpdateGlobalConfig accesses an update function to update the global config
func UpdateGlobalConfig(update func(Config) Config) {
	globalConfigMutex.Lock()
	globalConfig = update(globalConfig)
	globalConfigMutex.Unlock()
	notifyConfigChange()
}

func InitConfig(configPath string, override func(config *Config)) (*Config, error) {
	config := defaultConfig
	config.ClickHouse.Hosts = append([]Host(nil), defaultConfig.ClickHouse.Hosts...)

	if len(configPath) > 0 {
		if err := config.Load(configPath); err != nil {
			return nil, err
		}
	}

	override(&config)

	config.trimFiledSpace()
	config.setDefaultAdvertiseAddress()

	if err := config.valid(); err != nil {
		return nil, err
	}
	StoreGlobalConfig(config)
	return &config, nil
}

func (c *Config) trimFiledSpace() {
	c.Address = strings.TrimSpace(c.Address)
	c.AdvertiseAddress = strings.TrimSpace(c.AdvertiseAddress)
	for i := range c.ClickHouse.Hosts {
		c.ClickHouse.Hosts[i].Name = strings.TrimSpace(c.ClickHouse.Hosts[i].Name)
		c.ClickHouse.Hosts[i].URL = strings.TrimSpace(c.ClickHouse.Hosts[i].URL)
	}
}

func (c *Config) Load(fileName string) error {
	_, err := toml.DecodeFile(fileName, c)
	return err
}

func (c *Config) setDefaultAdvertiseAddress() {
	if len(c.AdvertiseAddress) == 0 {
		c.AdvertiseAddress = c.Address
	}
}

func (c *Config) valid() error {
	var err error

	if len(c.Address) == 0 {
		return fmt.Errorf("unexpected empty address")
	}

	if err = validateAddress(c.Address, "address"); err != nil {
		return err
	}

	if err = validateAddress(c.AdvertiseAddress, "advertise-address"); err != nil {
		return err
	}

	if err = c.Log.valid(); err != nil {
		return err
	}

	if err = c.Storage.valid(); err != nil {
		return err
	}

	if err = c.ClickHouse.valid(); err != nil {
		return err
	}

	if !c.Dashboard.Valid() {
		return fmt.Errorf("invalid dashboard config: %+v", c.Dashboard)
	}

	return nil
}

func validateAddress(address, name string) error {
	if len(address) == 0 {
		return fmt.Errorf("unexpected empty %v", name)
	}
	_, port, err := net.SplitHostPort(address)
	if err == nil {
		var p int
		p, err = strconv.Atoi(port)
		if err == nil && p == 0 {
			err = fmt.Errorf("port cannot be set to 0")
		}
	}
	if err != nil {
		return fmt.Errorf("%v %v is invalid, err: %v", name, address, err)
	}
	return nil
}

const (
	ProtocolHTTP   = "http"
	ProtocolNative = "native"
)

type ClickHouse struct {
	Hosts         []Host `toml:"hosts" json:"hosts"`
	Protocol      string `toml:"protocol" json:"protocol"`
	TimeoutSecs   int    `toml:"timeout-secs" json:"timeout_secs"`
	MaxResultRows int    `toml:"max-result-rows" json:"max_result_rows"`
}

// Host is one ClickHouse endpoint. Its position in ClickHouse.Hosts is
// the host index used in dashboard routes.
type Host struct {
	Name     string `toml:"name" json:"name"`
	URL      string `toml:"url" json:"url"`
	User     string `toml:"user" json:"user"`
	Password string `toml:"password" json:"-"`
}

func (h Host) DisplayName() string {
	if len(h.Name) > 0 {
		return h.Name
	}
	if u, err := url.Parse(h.URL); err == nil && len(u.Host) > 0 {
		return u.Host
	}
	return h.URL
}

func (c *ClickHouse) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

func (c *ClickHouse) valid() error {
	if len(c.Hosts) == 0 {
		return fmt.Errorf("unexpected empty clickhouse hosts, please specify at least one, e.g. --clickhouse.url \"http://127.0.0.1:8123\"")
	}
	for i, h := range c.Hosts {
		u, err := url.Parse(h.URL)
		if err != nil {
			return fmt.Errorf("clickhouse host %d url %v is invalid, err: %v", i, h.URL, err)
		}
		if len(u.Scheme) == 0 || len(u.Host) == 0 {
			return fmt.Errorf("clickhouse host %d url %v is invalid, expect scheme://host:port", i, h.URL)
		}
	}
	switch c.Protocol {
	case ProtocolHTTP, ProtocolNative:
	default:
		return fmt.Errorf("clickhouse protocol should be %s or %s", ProtocolHTTP, ProtocolNative)
	}
	if c.TimeoutSecs <= 0 {
		return fmt.Errorf("clickhouse timeout-secs should be positive")
	}
	if c.MaxResultRows < 0 {
		return fmt.Errorf("clickhouse max-result-rows should not be negative")
	}
	return nil
}

func (c *ClickHouse) Equal(other ClickHouse) bool {
	if c.Protocol != other.Protocol || c.TimeoutSecs != other.TimeoutSecs || c.MaxResultRows != other.MaxResultRows {
		return false
	}
	if len(c.Hosts) != len(other.Hosts) {
		return false
	}
	for i := range c.Hosts {
		if c.Hosts[i] != other.Hosts[i] {
			return false
		}
	}
	return true
}

const (
	DocDBBackendSQLite = "sqlite"
	DocDBBackendGenji  = "genji"
)

type Storage struct {
	Path         string `toml:"path" json:"path"`
	DocDBBackend string `toml:"docdb-backend" json:"docdb_backend"`
}

func (s *Storage) valid() error {
	if len(s.Path) == 0 {
		return fmt.Errorf("unexpected empty storage path")
	}

	switch s.DocDBBackend {
	case DocDBBackendSQLite, DocDBBackendGenji:
	default:
		return fmt.Errorf("storage docdb-backend should be %s or %s", DocDBBackendSQLite, DocDBBackendGenji)
	}

	return nil
}

type Log struct {
	Path  string `toml:"path" json:"path"`
	Level string `toml:"level" json:"level"`
}

const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

func (l *Log) valid() error {
	if len(l.Level) == 0 {
		return fmt.Errorf("unexpected empty log level")
	}

	switch l.Level {
	case LevelDebug, LevelInfo, LevelWarn, LevelError:
	default:
		return fmt.Errorf("log level should be %s, %s, %s or %s", LevelDebug, LevelInfo, LevelWarn, LevelError)
	}

	return nil
}

func (l *Log) InitDefaultLogger() {
	cfg := &log.Config{Level: strings.ToLower(l.Level)}
	if l.Path != "" {
		cfg.File = log.FileLogConfig{Filename: path.Join(l.Path, "chdash.log")}
	}

	logger, p, err := log.InitLogger(cfg)
	if err != nil {
		stdlog.Fatalf("Failed to init logger, err: %v", err)
	}
	log.ReplaceGlobals(logger, p)
}

// Dashboard holds the settings that can be changed at runtime through
// the config API. They are persisted in the doc DB.
type Dashboard struct {
	RefreshIntervalSecs int `toml:"refresh-interval-secs" json:"refresh_interval_secs"`
	DefaultLastHours    int `toml:"default-last-hours" json:"default_last_hours"`
	MaxRows             int `toml:"max-rows" json:"max_rows"`
	QueryTruncate       int `toml:"query-truncate" json:"query_truncate"`
}

func (d Dashboard) Valid() bool {
	if d.RefreshIntervalSecs < 0 ||
		d.DefaultLastHours <= 0 ||
		d.MaxRows <= 0 ||
		d.QueryTruncate <= 0 {
		return false
	}
	return true
}

// ReloadRoutine reloads the clickhouse section of the config file on SIGHUP.
func ReloadRoutine(ctx context.Context, configPath string) {
	if len(configPath) == 0 {
		log.Warn("failed to reload config due to empty config path. Please specify the command line argument \"--config <path>\"")
		return
	}
	sighupCh := procutil.NewSighupChan()
	for {
		select {
		case <-ctx.Done():
			return
		case <-sighupCh:
			log.Info("received SIGHUP and ready to reload config")
		}
		newCfg := new(Config)

		if err := newCfg.Load(configPath); err != nil {
			log.Warn("failed to reload config", zap.Error(err))
			continue
		}

		cur := GetGlobalConfig()
		newCH := cur.ClickHouse
		if len(newCfg.ClickHouse.Hosts) > 0 {
			newCH.Hosts = newCfg.ClickHouse.Hosts
		}
		if err := newCH.valid(); err != nil {
			log.Warn("invalid clickhouse config in reloaded file", zap.Error(err))
			continue
		}

		UpdateGlobalConfig(func(curCfg Config) Config {
			if curCfg.ClickHouse.Equal(newCH) {
				return curCfg
			}

			curCfg.ClickHouse = newCH
			log.Info("clickhouse hosts changed", zap.Int("hosts", len(newCH.Hosts)))
			return curCfg
		})
	}
}

// Security configures TLS for connections to ClickHouse.
type Security struct {
	SSLCA     string      `toml:"ca-path" json:"ca_path"`
	SSLCert   string      `toml:"cert-path" json:"cert_path"`
	SSLKey    string      `toml:"key-path" json:"key_path"`
	tlsConfig *tls.Config `toml:"-" json:"-"`
}

func (s *Security) GetTLSConfig() *tls.Config {
	if s.tlsConfig != nil {
		return s.tlsConfig
	}
	if s.SSLCA == "" || s.SSLCert == "" || s.SSLKey == "" {
		return nil
	}
	s.tlsConfig = buildTLSConfig(s.SSLCA, s.SSLKey, s.SSLCert)
	return s.tlsConfig
}

// GetHTTPClientConfig returns the TLS part of the ClickHouse HTTP client
// config, credentials are added per host.
func (s *Security) GetHTTPClientConfig() commonconfig.HTTPClientConfig {
	return commonconfig.HTTPClientConfig{
		TLSConfig: commonconfig.TLSConfig{
			CAFile:   s.SSLCA,
			CertFile: s.SSLCert,
			KeyFile:  s.SSLKey,
		},
	}
}

func buildTLSConfig(caPath, keyPath, certPath string) *tls.Config {
	tlsInfo := transport.TLSInfo{
		TrustedCAFile: caPath,
		KeyFile:       keyPath,
		CertFile:      certPath,
	}
	tlsConfig, err := tlsInfo.ClientConfig()
	if err != nil {
		log.Fatal("Failed to load certificates", zap.Error(err))
	}
	return tlsConfig
}
