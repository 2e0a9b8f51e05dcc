package sensor

import (
	"testing"

	"github.com/edaniels/golog"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/gwillem/cyclebot/pkg/hw"
)

func observedLogger() (golog.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core).Sugar(), logs
}

func TestEncoder_ResetAndSet(t *testing.T) {
	logger := golog.NewTestLogger(t)

	tests := []struct {
		name     string
		inverted bool
	}{
		{"normal", false},
		{"inverted", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := hw.NewSim(hw.SimConfig{})
			q, err := sim.Quadrature(0, 1)
			if err != nil {
				t.Fatalf("Quadrature: %v", err)
			}
			raw := sim.Encoder(0)
			enc := NewQuadratureEncoder(q, tt.inverted, logger)

			for _, count := range []int{0, 137, -2048, 99999} {
				raw.Count = count
				enc.Reset()
				if got := enc.Get(); got != 0 {
					t.Errorf("raw %d: Get() after Reset = %d, want 0", count, got)
				}
				enc.Set(500)
				if got := enc.Get(); got != 500 {
					t.Errorf("raw %d: Get() after Set(500) = %d, want 500", count, got)
				}
			}

			raw.Count += 100
			want := 600
			if tt.inverted {
				want = 400
			}
			if got := enc.Get(); got != want {
				t.Errorf("Get() after moving 100 counts = %d, want %d", got, want)
			}
		})
	}
}

func TestEncoder_RateIgnoresOffset(t *testing.T) {
	sim := hw.NewSim(hw.SimConfig{})
	q, _ := sim.Quadrature(0, 1)
	raw := sim.Encoder(0)
	enc := NewQuadratureEncoder(q, true, golog.NewTestLogger(t))

	raw.Count = 1000
	raw.CountRate = 250
	enc.Set(42)

	if got := enc.Rate(); got != -250 {
		t.Errorf("Rate() = %f, want -250", got)
	}
}

func TestEncoder_SparkZeroGlitch(t *testing.T) {
	sim := hw.NewSim(hw.SimConfig{})
	spark, _ := sim.SparkMax(3, true)
	m := sim.Motor(hw.MotorRef{Family: hw.FamilySpark, ID: 3})
	enc := NewSparkMaxEncoder(spark, false, golog.NewTestLogger(t))

	m.Revolutions = 2
	if got := enc.Get(); got != 128 {
		t.Fatalf("Get() = %d, want 128", got)
	}

	m.Revolutions = 2.5
	m.ZeroGlitches = 1
	if got := enc.Get(); got != 128 {
		t.Errorf("Get() on a zero glitch = %d, want previous 128", got)
	}
	if got := enc.Get(); got != 160 {
		t.Errorf("Get() after the glitch = %d, want 160", got)
	}
}

func TestEncoder_CounterRefusesInversion(t *testing.T) {
	logger, logs := observedLogger()
	sim := hw.NewSim(hw.SimConfig{})
	c, _ := sim.Counter(4)

	enc := NewCounterEncoder(c, true, logger)
	if enc.Inverted() {
		t.Error("counter encoder built inverted")
	}

	enc.SetInverted(true)
	if enc.Inverted() {
		t.Error("counter encoder inverted by SetInverted")
	}

	if n := logs.FilterMessageSnippet("not supported").Len(); n != 2 {
		t.Errorf("logged %d inversion warnings, want 2", n)
	}
}

func TestEncoder_SetInvertedResets(t *testing.T) {
	sim := hw.NewSim(hw.SimConfig{})
	q, _ := sim.Quadrature(0, 1)
	raw := sim.Encoder(0)
	enc := NewQuadratureEncoder(q, false, golog.NewTestLogger(t))

	raw.Count = 300
	if got := enc.Get(); got != 300 {
		t.Fatalf("Get() = %d, want 300", got)
	}

	enc.SetInverted(true)
	if got := enc.Get(); got != 0 {
		t.Errorf("Get() after inverting = %d, want 0", got)
	}
	raw.Count = 250
	if got := enc.Get(); got != 50 {
		t.Errorf("Get() after moving back 50 counts = %d, want 50", got)
	}

	// Same value is not a change, no reset
	enc.SetInverted(true)
	if got := enc.Get(); got != 50 {
		t.Errorf("Get() after repeated SetInverted = %d, want 50", got)
	}
}

func TestEncoder_TalonZeroedOnBuild(t *testing.T) {
	sim := hw.NewSim(hw.SimConfig{TalonCountsPerRev: 100})
	talon, _ := sim.TalonSRX(10)
	sim.Motor(hw.MotorRef{Family: hw.FamilyTalon, ID: 10}).Revolutions = 3

	enc := NewTalonEncoder(talon, false, golog.NewTestLogger(t))
	if got := enc.Get(); got != 0 {
		t.Errorf("Get() on a new talon encoder = %d, want 0", got)
	}

	talon.SetPercentOutput(1)
	sim.Step(0.5)
	// 1 * 5 rev/s * 0.5 s * 100 counts/rev
	if got := enc.Get(); got != 250 {
		t.Errorf("Get() = %d, want 250", got)
	}
}

func TestEncoder_Venom(t *testing.T) {
	sim := hw.NewSim(hw.SimConfig{})
	v, _ := sim.Venom(7)
	m := sim.Motor(hw.MotorRef{Family: hw.FamilyVenom, ID: 7})
	enc := NewVenomEncoder(v, true, golog.NewTestLogger(t))

	m.Revolutions = 1.5
	m.RevsPerSecond = 2
	if got := enc.Get(); got != -384 {
		t.Errorf("Get() = %d, want -384", got)
	}
	if got := enc.Rate(); got != -512 {
		t.Errorf("Rate() = %f, want -512", got)
	}
	if got := enc.CountsPerRevolution(); got != VenomCountsPerRev {
		t.Errorf("CountsPerRevolution() = %d, want %d", got, VenomCountsPerRev)
	}
}
