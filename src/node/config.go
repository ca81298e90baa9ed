package node

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/racegate/racegate/src/common"
	"github.com/sirupsen/logrus"
)

// Config ...
type Config struct {
	// TickPeriod is the period of the state machine scheduler.
	TickPeriod time.Duration `mapstructure:"tick"`

	// SyncTimeout is how long a gate may stay in GateStartup.
	SyncTimeout time.Duration `mapstructure:"sync-timeout"`

	// BeaconTimeout is the age after which a coordinator observation is no
	// longer used.
	BeaconTimeout time.Duration `mapstructure:"beacon-timeout"`

	// Instance identifies this run of the node. A random ID is generated
	// when it is the zero UUID.
	Instance uuid.UUID `mapstructure:"-"`

	Logger *logrus.Logger
}

// NewConfig ...
func NewConfig(tick time.Duration,
	syncTimeout time.Duration,
	beaconTimeout time.Duration,
	logger *logrus.Logger) *Config {

	return &Config{
		TickPeriod:    tick,
		SyncTimeout:   syncTimeout,
		BeaconTimeout: beaconTimeout,
		Logger:        logger,
	}
}

// DefaultConfig ...
func DefaultConfig() *Config {
	logger := logrus.New()
	logger.Level = logrus.DebugLevel

	return &Config{
		TickPeriod:    20 * time.Millisecond,
		SyncTimeout:   10 * time.Second,
		BeaconTimeout: time.Second,
		Logger:        logger,
	}
}

// TestConfig returns the default configuration with a logger writing to the
// test log.
func TestConfig(t testing.TB) *Config {
	config := DefaultConfig()
	config.Logger = common.NewTestLogger(t, common.TestLogLevel)
	return config
}
