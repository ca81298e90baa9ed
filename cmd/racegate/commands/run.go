package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/racegate/racegate/src/racegate"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

//NewRunCmd returns the command that starts a racegate node
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Run node",
		PreRunE: loadRunConfig,
		RunE:    runRacegate,
	}
	AddConfigFlags(cmd)
	return cmd
}

/*******************************************************************************
* RUN
*******************************************************************************/

func runRacegate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := racegate.NewRacegate(_config)

	if err := engine.Init(); err != nil {
		_config.Logger().Error("Cannot initialize engine: ", err)
		return err
	}

	return engine.Run(ctx)
}

/*******************************************************************************
* CONFIG
*******************************************************************************/

func loadRunConfig(cmd *cobra.Command, args []string) error {
	if err := loadConfig(cmd, args); err != nil {
		return err
	}

	_config.Logger().WithFields(logrus.Fields{
		"DataDir":        _config.DataDir,
		"LogLevel":       _config.LogLevel,
		"LogFile":        _config.LogFile,
		"Address":        _config.Address,
		"Selector":       _config.Selector,
		"Transport":      _config.Transport,
		"MulticastGroup": _config.MulticastGroup,
		"Interface":      _config.Interface,
		"NATSURL":        _config.NATSURL,
		"NATSSubject":    _config.NATSSubject,
		"NoService":      _config.NoService,
		"ServiceAddr":    _config.ServiceAddr,
		"TickPeriod":     _config.TickPeriod,
		"SyncTimeout":    _config.SyncTimeout,
		"BeaconTimeout":  _config.BeaconTimeout,
	}).Debug("RUN")

	return nil
}
