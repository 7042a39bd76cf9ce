// Package sim runs closed-loop episodes on the cellular-automaton vehicle
// model.
//
// An [Episode] is built from a validated [Config] and owns all of its state:
// the lattice, the controller, the actuator and the turbulence process. Each
// tick runs
//
//	error -> Controller.Update -> Actuator.Apply -> Turbulence.Next -> Rule.Step -> record -> crash check
//
// and a crash ends the episode on the tick that produced it.
//
// # Usage
//
//	cfg := sim.DefaultConfig()
//	cfg.Seed = 7
//	res, err := sim.Run(cfg)
//	if err != nil {
//		// *ConfigError, errors.Is(err, sim.ErrInvalidConfig)
//	}
//	fmt.Println(res.Status, len(res.Trace))
//
// Identical configurations, seed included, produce identical traces.
package sim
