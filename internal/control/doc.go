// Package control provides the feedback controllers that drive the vehicle
// cell toward its attitude reference.
//
// Every controller implements [Controller] and is built from a [Config]
// by [New]:
//
//   - [PID]: proportional-integral-derivative with a clamped integral
//   - [LQR]: integral-augmented linear quadratic regulator
//   - [MPC]: offset-free receding-horizon controller
//   - [None]: open loop (zero command)
//
// # Usage
//
//	ctrl, err := control.New(control.Config{Kind: control.KindPID, Gains: control.Gains{Kp: 1, Ki: 0.1, Kd: 0.05}}, plant)
//	cmd := ctrl.Update(ref-attitude, dt)
//
// The model-based variants use [Plant], the nominal first-order response of
// the vehicle cell to the applied input.
package control
