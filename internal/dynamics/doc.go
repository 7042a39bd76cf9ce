// Package dynamics provides the exogenous blocks of the closed loop: the
// actuator that turns controller commands into applied inputs, and the
// Ornstein-Uhlenbeck turbulence that disturbs the vehicle cell.
//
// # Usage
//
//	act, _ := dynamics.NewActuator(dynamics.DefaultActuator(), dt)
//	turb, _ := dynamics.NewTurbulence(cfg, rng)
//	u := act.Apply(cmd, dt)
//	d := turb.Next(dt)
package dynamics
