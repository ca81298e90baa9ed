// Package racegate assembles a complete racegate node from a config.Config:
// transport, race node, host platform, state machine and dashboard.
//
//	engine := racegate.NewRacegate(conf)
//	if err := engine.Init(); err != nil {
//		return err
//	}
//	return engine.Run(ctx)
//
// Components already set on the Racegate before Init (a Transport or a Clock,
// typically in tests) are used instead of being created from the config.
package racegate
