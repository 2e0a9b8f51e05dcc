package robot

import (
	"github.com/edaniels/golog"

	"github.com/gwillem/cyclebot/pkg/command"
	"github.com/gwillem/cyclebot/pkg/hw"
)

// Pneumatics runs the compressor in closed loop on the pressure switch.
type Pneumatics struct {
	compressor hw.Compressor
	logger     golog.Logger
	running    bool
}

// NewPneumatics starts the compressor in closed loop.
func NewPneumatics(c hw.Compressor, logger golog.Logger) *Pneumatics {
	p := &Pneumatics{compressor: c, logger: logger}
	p.Enable()
	return p
}

// Enable turns closed loop control on.
func (p *Pneumatics) Enable() {
	if !p.compressor.ClosedLoop() {
		p.logger.Info("compressor enabled")
	}
	p.compressor.SetClosedLoop(true)
}

// Disable stops the compressor whatever the pressure.
func (p *Pneumatics) Disable() {
	if p.compressor.ClosedLoop() {
		p.logger.Info("compressor disabled")
	}
	p.compressor.SetClosedLoop(false)
}

// Enabled reports whether closed loop control is on.
func (p *Pneumatics) Enabled() bool { return p.compressor.ClosedLoop() }

// Running reports whether the compressor motor ran at the last Periodic.
func (p *Pneumatics) Running() bool { return p.running }

func (p *Pneumatics) Periodic() {
	p.running = p.compressor.Enabled()
}

// CompressorSwitch is the operator toggle the pneumatics default command
// follows.
type CompressorSwitch interface {
	CompressorEnabled() bool
}

// compressorCommand keeps the compressor in step with the operator toggle.
type compressorCommand struct {
	*command.Safe
	sw CompressorSwitch
	p  *Pneumatics
}

// NewCompressorCommand creates the pneumatics default command.
func NewCompressorCommand(sw CompressorSwitch, p *Pneumatics, opts ...command.Option) command.Command {
	c := &compressorCommand{sw: sw, p: p}
	opts = append([]command.Option{
		command.WithLogger(p.logger),
		command.WithRequirements(p),
	}, opts...)
	c.Safe = command.NewSafe("compressor", command.NoTimeout, nil, opts...)
	return c
}

func (c *compressorCommand) Execute() {
	if c.sw.CompressorEnabled() {
		c.p.Enable()
	} else {
		c.p.Disable()
	}
}
