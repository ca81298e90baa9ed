package commands

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/racegate/racegate/src/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of the environment variables read by racegate, eg.
// RACEGATE_ADDRESS=finish.
const EnvPrefix = "RACEGATE"

// NewConfigCmd returns the command that prints the effective configuration.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Short:   "Print the effective configuration as YAML",
		PreRunE: loadConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(_config)
		},
	}
	AddConfigFlags(cmd)
	return cmd
}

// AddConfigFlags adds the flags shared by the run and config commands.
func AddConfigFlags(cmd *cobra.Command) {
	cmd.Flags().String("datadir", _config.DataDir, "Top-level directory for configuration")
	cmd.Flags().String("log", _config.LogLevel, "trace, debug, info, warn, error, fatal, panic")
	cmd.Flags().String("log-file", _config.LogFile, "Also write the log to this file")

	// Role
	cmd.Flags().StringP("address", "a", _config.Address, "Node address: coordinator, start, finish or 0-255 (overrides the selector)")
	cmd.Flags().String("selector", _config.Selector, "Position of the virtual address selector")

	// Network
	cmd.Flags().StringP("transport", "t", _config.Transport, "multicast or nats")
	cmd.Flags().String("multicast-group", _config.MulticastGroup, "IP:Port of the multicast group")
	cmd.Flags().String("interface", _config.Interface, "Network interface for multicast")
	cmd.Flags().Int("multicast-ttl", _config.MulticastTTL, "Multicast TTL")
	cmd.Flags().String("nats-url", _config.NATSURL, "URL of the NATS server")
	cmd.Flags().String("nats-subject", _config.NATSSubject, "NATS subject for beacons")
	cmd.Flags().Duration("reconnect-wait", _config.ReconnectWait, "Delay between NATS reconnection attempts")

	// Service
	cmd.Flags().Bool("no-service", _config.NoService, "Disable the HTTP dashboard")
	cmd.Flags().StringP("service-listen", "s", _config.ServiceAddr, "Listen IP:Port for HTTP dashboard")

	// Node
	cmd.Flags().Duration("tick", _config.TickPeriod, "Period of the state machine")
	cmd.Flags().Duration("sync-timeout", _config.SyncTimeout, "Time a gate waits for the coordinator")
	cmd.Flags().Duration("beacon-timeout", _config.BeaconTimeout, "Age after which a coordinator beacon is stale")
}

func loadConfig(cmd *cobra.Command, args []string) error {
	// A .env file in the working directory is optional.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := bindFlagsLoadViper(cmd); err != nil {
		return err
	}

	return _config.Validate()
}

// Bind all flags and read the config into viper
func bindFlagsLoadViper(cmd *cobra.Command) error {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// Register flags with viper. Include flags from this command and all other
	// persistent flags from the parent
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// first unmarshal to read from CLI flags
	if err := viper.Unmarshal(_config); err != nil {
		return err
	}

	// look for config file in [datadir]/racegate.toml (.json, .yaml also work)
	viper.SetConfigName(config.DefaultConfigFile)
	viper.AddConfigPath(_config.DataDir)

	// If a config file is found, read it in.
	var found string
	if err := viper.ReadInConfig(); err == nil {
		found = viper.ConfigFileUsed()
	} else if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
		return err
	}

	// second unmarshal to read from config file
	if err := viper.Unmarshal(_config); err != nil {
		return err
	}

	if found != "" {
		_config.Logger().Debugf("Using config file: %s", found)
	} else {
		_config.Logger().Debugf("No config file found in: %s", _config.DataDir)
	}

	return nil
}
