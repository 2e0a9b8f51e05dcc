package hw

import (
	"errors"
	"math"
	"testing"
)

func TestSim_StepIntegratesOutput(t *testing.T) {
	sim := NewSim(SimConfig{FreeSpeed: 4, TalonCountsPerRev: 100})

	talon, err := sim.TalonSRX(10)
	if err != nil {
		t.Fatalf("TalonSRX: %v", err)
	}

	talon.SetPercentOutput(0.5)
	sim.Step(0.5)
	sim.Step(0.5)

	// 0.5 * 4 rev/s * 1 s = 2 revolutions = 200 counts
	if got := talon.SensorPosition(); got != 200 {
		t.Errorf("SensorPosition() = %f, want 200", got)
	}
	if got := talon.SensorVelocity(); math.Abs(got-200) > 1e-9 {
		t.Errorf("SensorVelocity() = %f, want 200", got)
	}

	talon.SetSensorPosition(0)
	if got := talon.SensorPosition(); got != 0 {
		t.Errorf("SensorPosition() after zeroing = %f, want 0", got)
	}
}

func TestSim_ChassisTurnsHeading(t *testing.T) {
	sim := NewSim(SimConfig{
		Chassis: &SimChassis{
			Left:         MotorRef{FamilyTalon, 10},
			Right:        MotorRef{FamilyTalon, 20},
			LeftInverted: true,
			TurnRate:     90,
		},
	})

	left, _ := sim.TalonSRX(10)
	right, _ := sim.TalonSRX(20)

	// Left is mounted inverted, so -1 on the device drives it forward
	left.SetPercentOutput(-1)
	right.SetPercentOutput(-1)
	sim.Step(1)

	if got := sim.Gyro().Heading; math.Abs(got-90) > 1e-9 {
		t.Errorf("Heading = %f, want 90", got)
	}

	left.SetPercentOutput(-0.5)
	right.SetPercentOutput(0.5)
	sim.Step(1)

	if got := sim.Gyro().Heading; math.Abs(got-90) > 1e-9 {
		t.Errorf("Heading driving straight = %f, want 90", got)
	}
}

func TestSim_DuplicateAddress(t *testing.T) {
	sim := NewSim(SimConfig{})

	if _, err := sim.PWM("victor_sp", 3); err != nil {
		t.Fatalf("first PWM: %v", err)
	}
	if _, err := sim.PWM("spark", 3); err == nil {
		t.Error("second PWM on channel 3 should fail")
	}
	if _, err := sim.AnalogGyro(0); err != nil {
		t.Fatalf("AnalogGyro: %v", err)
	}
	if _, err := sim.NavX(); err == nil {
		t.Error("second gyro should fail")
	}
}

func TestSim_ClosedProvider(t *testing.T) {
	sim := NewSim(SimConfig{})
	sim.Close()

	if _, err := sim.Venom(1); !errors.Is(err, ErrClosed) {
		t.Errorf("Venom on closed provider: err = %v, want ErrClosed", err)
	}
}

func TestSim_PigeonFault(t *testing.T) {
	sim := NewSim(SimConfig{})
	if _, err := sim.PigeonOnTalon(5); err == nil {
		t.Error("PigeonOnTalon without a talon should fail")
	}

	sim.TalonSRX(5)
	pigeon, err := sim.PigeonOnTalon(5)
	if err != nil {
		t.Fatalf("PigeonOnTalon: %v", err)
	}

	sim.Gyro().Heading = -30
	if got := pigeon.CompassHeading(); got != 330 {
		t.Errorf("CompassHeading() = %f, want 330", got)
	}

	sim.Gyro().FaultCode = -3
	_, err = pigeon.Orientation()
	var fault *Fault
	if !errors.As(err, &fault) || fault.Code != -3 {
		t.Errorf("Orientation() error = %v, want fault code -3", err)
	}
}

func TestSim_SparkZeroGlitch(t *testing.T) {
	sim := NewSim(SimConfig{})
	spark, _ := sim.SparkMax(3, true)
	m := sim.Motor(MotorRef{FamilySpark, 3})
	m.Revolutions = 2.5
	m.ZeroGlitches = 1

	enc := spark.Encoder()
	if got := enc.Position(); got != 0 {
		t.Errorf("glitched Position() = %f, want 0", got)
	}
	if got := enc.Position(); got != 2.5 {
		t.Errorf("Position() = %f, want 2.5", got)
	}
}
