package config

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/racegate/racegate/src/common"
	"github.com/racegate/racegate/src/node"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// Transports.
const (
	MulticastTransport = "multicast"
	NATSTransport      = "nats"
)

// DefaultConfigFile is the name of the config file in DataDir, without
// extension.
const DefaultConfigFile = "racegate"

// Default configuration values.
const (
	DefaultLogLevel       = "info"
	DefaultTransport      = MulticastTransport
	DefaultMulticastGroup = "239.0.0.71:7171"
	DefaultMulticastTTL   = 1
	DefaultNATSURL        = "nats://127.0.0.1:4222"
	DefaultNATSSubject    = "racegate.beacons"
	DefaultServiceAddr    = "127.0.0.1:8000"
	DefaultNoService      = false
	DefaultTickPeriod     = 20 * time.Millisecond
	DefaultSyncTimeout    = 10 * time.Second
	DefaultBeaconTimeout  = time.Second
	DefaultReconnectWait  = time.Second
)

// Config contains all the configuration properties of a racegate node.
type Config struct {
	// DataDir is the directory searched for the config file.
	DataDir string `mapstructure:"datadir" yaml:"datadir"`

	// LogLevel determines the chattiness of the log output.
	LogLevel string `mapstructure:"log" yaml:"log"`

	// LogFile, when set, receives a copy of the log.
	LogFile string `mapstructure:"log-file" yaml:"log-file"`

	// Address overrides the address selector. coordinator, start, finish or
	// a number.
	Address string `mapstructure:"address" yaml:"address"`

	// Selector is the position of the host's virtual address selector. It is
	// only read when Address is empty.
	Selector string `mapstructure:"selector" yaml:"selector"`

	// Transport is either multicast or nats.
	Transport string `mapstructure:"transport" yaml:"transport"`

	// MulticastGroup is the IP:PORT of the multicast group.
	MulticastGroup string `mapstructure:"multicast-group" yaml:"multicast-group"`

	// Interface is the network interface used for multicast. Empty means
	// the system default.
	Interface string `mapstructure:"interface" yaml:"interface"`

	// MulticastTTL ...
	MulticastTTL int `mapstructure:"multicast-ttl" yaml:"multicast-ttl"`

	// NATSURL is the URL of the NATS server.
	NATSURL string `mapstructure:"nats-url" yaml:"nats-url"`

	// NATSSubject is the subject all nodes publish beacons on.
	NATSSubject string `mapstructure:"nats-subject" yaml:"nats-subject"`

	// ReconnectWait is the delay between NATS reconnection attempts.
	ReconnectWait time.Duration `mapstructure:"reconnect-wait" yaml:"reconnect-wait"`

	// NoService disables the HTTP dashboard.
	NoService bool `mapstructure:"no-service" yaml:"no-service"`

	// ServiceAddr is the address:port of the HTTP dashboard.
	ServiceAddr string `mapstructure:"service-listen" yaml:"service-listen"`

	// TickPeriod is the period of the state machine.
	TickPeriod time.Duration `mapstructure:"tick" yaml:"tick"`

	// SyncTimeout is how long a gate waits for the coordinator before giving
	// up.
	SyncTimeout time.Duration `mapstructure:"sync-timeout" yaml:"sync-timeout"`

	// BeaconTimeout is the age after which a coordinator beacon is stale.
	BeaconTimeout time.Duration `mapstructure:"beacon-timeout" yaml:"beacon-timeout"`

	logger *logrus.Logger
}

// NewDefaultConfig returns a config object with default values.
func NewDefaultConfig() *Config {
	config := &Config{
		DataDir:        DefaultDataDir(),
		LogLevel:       DefaultLogLevel,
		Transport:      DefaultTransport,
		MulticastGroup: DefaultMulticastGroup,
		MulticastTTL:   DefaultMulticastTTL,
		NATSURL:        DefaultNATSURL,
		NATSSubject:    DefaultNATSSubject,
		ReconnectWait:  DefaultReconnectWait,
		NoService:      DefaultNoService,
		ServiceAddr:    DefaultServiceAddr,
		TickPeriod:     DefaultTickPeriod,
		SyncTimeout:    DefaultSyncTimeout,
		BeaconTimeout:  DefaultBeaconTimeout,
	}

	return config
}

// NewTestConfig returns a config object with default values and a special
// logger for debugging tests.
func NewTestConfig(t testing.TB, level logrus.Level) *Config {
	config := NewDefaultConfig()
	config.logger = common.NewTestLogger(t, level)
	return config
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Transport {
	case MulticastTransport, NATSTransport:
	default:
		return fmt.Errorf("unknown transport %q, expected %s or %s",
			c.Transport, MulticastTransport, NATSTransport)
	}
	if c.TickPeriod <= 0 {
		return fmt.Errorf("tick must be positive, got %v", c.TickPeriod)
	}
	if c.BeaconTimeout < c.TickPeriod {
		return fmt.Errorf("beacon-timeout (%v) is shorter than tick (%v)", c.BeaconTimeout, c.TickPeriod)
	}
	if c.SyncTimeout < c.BeaconTimeout {
		return fmt.Errorf("sync-timeout (%v) is shorter than beacon-timeout (%v)", c.SyncTimeout, c.BeaconTimeout)
	}
	return nil
}

// NodeConfig returns the configuration of the state machine.
func (c *Config) NodeConfig() *node.Config {
	return node.NewConfig(c.TickPeriod, c.SyncTimeout, c.BeaconTimeout, c.baseLogger())
}

// Logger returns a formatted logrus Entry, with prefix set to "racegate".
func (c *Config) Logger() *logrus.Entry {
	return c.baseLogger().WithField("prefix", "racegate")
}

func (c *Config) baseLogger() *logrus.Logger {
	if c.logger == nil {
		c.logger = logrus.New()
		c.logger.Level = LogLevel(c.LogLevel)
		c.logger.Formatter = new(prefixed.TextFormatter)
		if c.LogFile != "" {
			c.logger.Hooks.Add(newFileHook(c.LogFile))
		}
	}
	return c.logger
}

// newFileHook copies every entry, down to trace level, to path.
func newFileHook(path string) logrus.Hook {
	pathMap := lfshook.PathMap{}
	for _, level := range logrus.AllLevels {
		pathMap[level] = path
	}
	return lfshook.NewHook(pathMap, &logrus.JSONFormatter{})
}

// DefaultDataDir return the default directory name for top-level racegate
// config based on the underlying OS, attempting to respect conventions.
func DefaultDataDir() string {
	// Try to place the data folder in the user's home dir
	home := HomeDir()
	if home != "" {
		if runtime.GOOS == "darwin" {
			return filepath.Join(home, ".Racegate")
		} else if runtime.GOOS == "windows" {
			return filepath.Join(home, "AppData", "Roaming", "Racegate")
		} else {
			return filepath.Join(home, ".racegate")
		}
	}
	// As we cannot guess a stable location, return empty and handle later
	return ""
}

// HomeDir returns the user's home directory.
func HomeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

// LogLevel parses a string into a Logrus log level.
func LogLevel(l string) logrus.Level {
	switch l {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.DebugLevel
	}
}
