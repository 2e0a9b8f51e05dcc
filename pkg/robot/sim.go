package robot

import (
	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/gwillem/cyclebot/pkg/hw"
	"github.com/gwillem/cyclebot/pkg/motor"
)

// NewSim builds a simulated provider whose chassis turns with the primary
// controllers of the configured drive sides.
func NewSim(cfg *Config) *hw.Sim {
	sc := hw.SimConfig{
		FreeSpeed:         cfg.Sim.FreeSpeed,
		TalonCountsPerRev: cfg.Sim.TalonCountsPerRev,
	}
	left, lok := primaryRef(cfg.Drive.Left)
	right, rok := primaryRef(cfg.Drive.Right)
	if lok && rok {
		sc.Chassis = &hw.SimChassis{
			Left:          left,
			Right:         right,
			LeftInverted:  cfg.Drive.Left.Inverted,
			RightInverted: cfg.Drive.Right.Inverted,
			TurnRate:      cfg.Sim.TurnRate,
		}
	}
	return hw.NewSim(sc)
}

func primaryRef(mc MotorConfig) (hw.MotorRef, bool) {
	kind, err := motor.ParseKind(mc.Kind)
	if err != nil {
		return hw.MotorRef{}, false
	}
	return hw.MotorRef{Family: simFamily(kind), ID: mc.Address}, true
}

// simFamily is the address space a kind occupies on the simulated provider.
func simFamily(k motor.Kind) hw.Family {
	switch k {
	case motor.TalonSRX:
		return hw.FamilyTalon
	case motor.VictorSPX:
		return hw.FamilyVictor
	case motor.SparkMaxBrushless, motor.SparkMaxBrushed:
		return hw.FamilySpark
	case motor.Venom:
		return hw.FamilyVenom
	case motor.FeetechServo:
		return hw.FamilyServo
	}
	return hw.FamilyPWM
}

// Hardware is the device provider of a running robot.
type Hardware struct {
	hw.Provider
	// Sim is the simulation behind Provider. Its Step advances the
	// simulated devices.
	Sim *hw.Sim

	feetech *hw.FeetechProvider
}

// OpenHardware builds the simulated provider and, when a feetech port is
// configured, serves feetech motors from the real bus on top of it.
func OpenHardware(cfg *Config, logger golog.Logger) (*Hardware, error) {
	sim := NewSim(cfg)
	h := &Hardware{Provider: sim, Sim: sim}
	if cfg.Feetech.Port == "" {
		return h, nil
	}

	fp, err := hw.NewFeetechProvider(sim, hw.FeetechConfig{
		Port:        cfg.Feetech.Port,
		BaudRate:    cfg.Feetech.BaudRate,
		MaxVelocity: cfg.Feetech.MaxVelocity,
	}, logger)
	if err != nil {
		return nil, errors.Wrap(err, "feetech")
	}
	h.Provider = fp
	h.feetech = fp
	return h, nil
}

// Close releases the feetech bus, if any, and the simulation.
func (h *Hardware) Close() error {
	var err error
	if h.feetech != nil {
		err = h.feetech.Close()
	}
	return multierr.Append(err, h.Sim.Close())
}
