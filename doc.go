// Package cyclebot controls a two-sided drive base from a fixed-rate
// command loop: motor groups, encoders and a gyro behind one hardware
// interface, timed and cancellable drive commands, and autonomous routines.
//
// # Installation
//
//	go install github.com/gwillem/cyclebot/cmd/cyclebot@latest
//
// # Usage
//
// Write a configuration and run the robot on the simulated hardware:
//
//	cyclebot init
//	cyclebot run --pattern box
//
// Feetech bus servos in wheel mode can drive the base for real. Find the
// bus and store it in the configuration with:
//
//	cyclebot scan --save
//
// # Packages
//
// The module is organized into the following packages:
//
//   - cmd/cyclebot: CLI with run, scan, devices and init commands
//   - pkg/hw: native device interfaces, the simulation and the feetech bus
//   - pkg/motor: motor controller groups
//   - pkg/sensor: encoder and gyro adapters
//   - pkg/command: commands, timeouts and the scheduler
//   - pkg/drive: the drive subsystem and its commands
//   - pkg/oi: operator input
//   - pkg/robot: configuration, wiring and autonomous routines
//   - pkg/control: the control loop
//   - pkg/logging: log outputs
package cyclebot
