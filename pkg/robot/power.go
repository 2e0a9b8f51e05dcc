package robot

import (
	"github.com/gwillem/cyclebot/pkg/hw"
)

// Power samples the power distribution panel once per cycle.
type Power struct {
	pdp      hw.PowerDistribution
	channels []int
	currents map[int]float64
	voltage  float64
}

// NewPower watches the given channels of the panel.
func NewPower(pdp hw.PowerDistribution, channels []int) *Power {
	return &Power{
		pdp:      pdp,
		channels: append([]int(nil), channels...),
		currents: make(map[int]float64, len(channels)),
	}
}

// Current reads a channel from the panel directly, in amps.
func (p *Power) Current(channel int) float64 {
	return p.pdp.Current(channel)
}

// Voltage is the battery voltage at the last Periodic.
func (p *Power) Voltage() float64 { return p.voltage }

// Channels returns the watched channels.
func (p *Power) Channels() []int { return p.channels }

// Currents returns the currents of the watched channels at the last
// Periodic.
func (p *Power) Currents() map[int]float64 {
	out := make(map[int]float64, len(p.currents))
	for ch, a := range p.currents {
		out[ch] = a
	}
	return out
}

func (p *Power) Periodic() {
	p.voltage = p.pdp.Voltage()
	for _, ch := range p.channels {
		p.currents[ch] = p.pdp.Current(ch)
	}
}
