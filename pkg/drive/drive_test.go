package drive

import (
	"math"
	"testing"
	"time"

	"github.com/edaniels/golog"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/gwillem/cyclebot/pkg/command"
	"github.com/gwillem/cyclebot/pkg/hw"
	"github.com/gwillem/cyclebot/pkg/motor"
	"github.com/gwillem/cyclebot/pkg/oi"
	"github.com/gwillem/cyclebot/pkg/sensor"
)

const cycle = 20 * time.Millisecond

type testRobot struct {
	sim     *hw.Sim
	clock   *command.ManualClock
	drive   *Drive
	shifter hw.Solenoid
	sched   *command.Scheduler
}

// newTestRobot wires the drive base of the test robot: an inverted
// Talon SRX + Victor SPX on the left, two Talon SRX on the right and an
// analog gyro.
func newTestRobot(t *testing.T, logger golog.Logger) *testRobot {
	t.Helper()
	sim := hw.NewSim(hw.SimConfig{
		Chassis: &hw.SimChassis{
			Left:         hw.MotorRef{Family: hw.FamilyTalon, ID: 10},
			Right:        hw.MotorRef{Family: hw.FamilyTalon, ID: 20},
			LeftInverted: true,
			TurnRate:     180,
		},
	})

	left, err := motor.NewMixed(sim, logger, motor.TalonSRX, 10, motor.VictorSPX, 11, true)
	if err != nil {
		t.Fatalf("left motors: %v", err)
	}
	right, err := motor.New(sim, logger, motor.TalonSRX, 20, false, 21)
	if err != nil {
		t.Fatalf("right motors: %v", err)
	}
	ag, err := sim.AnalogGyro(0)
	if err != nil {
		t.Fatalf("gyro: %v", err)
	}
	shifter, _ := sim.Solenoid(0)

	return &testRobot{
		sim:     sim,
		clock:   command.NewManualClock(time.Unix(0, 0)),
		drive:   New(left, right, sensor.NewAnalogGyro(ag, false, logger), shifter, DefaultConfig(), logger),
		shifter: shifter,
		sched:   command.NewScheduler(logger),
	}
}

// runUntilDone steps the robot until c leaves the scheduler or limit passes.
func (r *testRobot) runUntilDone(c command.Command, limit time.Duration) time.Duration {
	var elapsed time.Duration
	for r.sched.IsScheduled(c) && elapsed < limit {
		r.sim.Step(cycle.Seconds())
		r.clock.Advance(cycle)
		elapsed += cycle
		r.sched.Run()
	}
	return elapsed
}

func (r *testRobot) output(ref hw.MotorRef) float64 {
	return r.sim.Motor(ref).Output
}

func observedLogger() (golog.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core).Sugar(), logs
}

func TestDriveTime_TimesOutAndBrakes(t *testing.T) {
	r := newTestRobot(t, golog.NewTestLogger(t))
	c := NewDriveTime(.95, 6*time.Second, true, r.drive, nil, command.WithClock(r.clock))

	r.sched.Schedule(c)
	for i := 0; i < 10; i++ {
		r.sched.Run()
	}
	if got := r.output(hw.MotorRef{Family: hw.FamilyVictor, ID: 11}); got != -.95 {
		t.Errorf("left follower output while driving = %f, want -0.95", got)
	}

	elapsed := r.runUntilDone(c, 10*time.Second)

	if c.State() != command.TimedOut {
		t.Errorf("State() = %v, want timed out", c.State())
	}
	if elapsed != 6*time.Second {
		t.Errorf("ran for %v, want 6s", elapsed)
	}
	if l, rr := r.drive.Speeds(); l != 0 || rr != 0 {
		t.Errorf("final speeds = %f, %f, want 0, 0", l, rr)
	}
	for _, id := range []int{20, 21} {
		if got := r.output(hw.MotorRef{Family: hw.FamilyTalon, ID: id}); got != 0 {
			t.Errorf("talon %d output after brake = %f", id, got)
		}
	}
}

func TestDriveTime_ClampsSpeed(t *testing.T) {
	r := newTestRobot(t, golog.NewTestLogger(t))

	c := NewDriveTime(1.7, time.Second, false, r.drive, nil, command.WithClock(r.clock))
	c.Initialize()
	if l, _ := r.drive.Speeds(); l != 1 {
		t.Errorf("speed = %f, want 1", l)
	}

	c = NewDriveTime(-.5, time.Second, false, r.drive, nil, command.WithClock(r.clock))
	c.Initialize()
	if l, _ := r.drive.Speeds(); l != 0 {
		t.Errorf("speed = %f, want 0", l)
	}
}

func TestDriveTime_CancelInSequenceKeepsLastOutput(t *testing.T) {
	r := newTestRobot(t, golog.NewTestLogger(t))
	cancelled := false
	cancel := func() bool { return cancelled }

	first := NewDriveTime(.3, 5*time.Second, false, r.drive, cancel, command.WithClock(r.clock))
	second := NewDriveTime(.9, 5*time.Second, false, r.drive, cancel, command.WithClock(r.clock))
	q := command.NewSequence("auto", cancel, []command.Command{first, second}, command.WithClock(r.clock))

	r.sched.Schedule(q)
	r.sched.Run()
	cancelled = true
	r.sched.Run()

	if second.State() != command.Idle {
		t.Errorf("second State() = %v, want idle", second.State())
	}
	if l, rr := r.drive.Speeds(); l != .3 || rr != .3 {
		t.Errorf("speeds after cancel = %f, %f, want the first step's 0.3", l, rr)
	}
	if got := r.output(hw.MotorRef{Family: hw.FamilyTalon, ID: 20}); got != .3 {
		t.Errorf("talon 20 output = %f, want 0.3", got)
	}
}

func TestHeadingDistance_CompletesBeforeTimeout(t *testing.T) {
	logger, logs := observedLogger()
	r := newTestRobot(t, logger)

	// Some distance on the encoders from an earlier command
	r.drive.SetSpeed(.5, .5)
	r.sim.Step(1)

	c := NewHeadingDistance(24, 0, .5, 5*time.Second, true, r.drive, nil, command.WithClock(r.clock))
	r.sched.Schedule(c)
	elapsed := r.runUntilDone(c, 10*time.Second)

	if c.State() != command.Completed {
		t.Fatalf("State() = %v, want completed", c.State())
	}
	if elapsed >= 5*time.Second {
		t.Errorf("took %v, want less than the 5s timeout", elapsed)
	}
	dist := r.drive.DistanceInches()
	if dist < 24 || dist > 26 {
		t.Errorf("DistanceInches() = %f, want just over 24", dist)
	}
	if h := r.drive.Heading(); h != 0 {
		t.Errorf("Heading() = %f, want 0", h)
	}
	if l, rr := r.drive.Speeds(); l != 0 || rr != 0 {
		t.Errorf("final speeds = %f, %f, want 0, 0", l, rr)
	}
	if logs.FilterMessage("drive-on-heading ending").Len() != 1 {
		t.Error("end distance not logged")
	}
}

func TestHeadingDistance_SteersBackOnHeading(t *testing.T) {
	r := newTestRobot(t, golog.NewTestLogger(t))
	r.sim.Gyro().Heading = -10

	c := NewHeadingDistance(200, 0, .5, 5*time.Second, false, r.drive, nil, command.WithClock(r.clock))
	r.sched.Schedule(c)
	r.sim.Step(cycle.Seconds())
	r.clock.Advance(cycle)
	r.sched.Run()

	// Heading 350, target 0: turn clockwise, left side faster
	l, rr := r.drive.Speeds()
	if l <= rr {
		t.Fatalf("speeds = %f, %f, want left faster", l, rr)
	}

	r.runUntilDone(c, 2*time.Second)
	if h := r.drive.Heading(); math.Abs(sensor.HeadingError(0, h)) > 1 {
		t.Errorf("Heading() = %f after 2s, want within 1 degree of 0", h)
	}
}

func TestHeadingDistance_InvalidHeading(t *testing.T) {
	logger, logs := observedLogger()
	r := newTestRobot(t, logger)

	c := NewHeadingDistance(24, 360, .5, 5*time.Second, true, r.drive, nil, command.WithClock(r.clock))
	r.sched.Schedule(c)
	r.sched.Run()

	if c.State() != command.Completed || r.sched.IsScheduled(c) {
		t.Errorf("State() = %v, want completed on the first poll", c.State())
	}
	if l, rr := r.drive.Speeds(); l != 0 || rr != 0 {
		t.Errorf("drove with an invalid heading: %f, %f", l, rr)
	}
	if logs.FilterLevelExact(zapcore.ErrorLevel).Len() != 1 {
		t.Error("invalid heading not logged as an error")
	}
}

func TestHeadingDistance_Cancel(t *testing.T) {
	r := newTestRobot(t, golog.NewTestLogger(t))
	in := oi.New(oi.Arcade)

	c := NewHeadingDistance(500, 0, .5, 5*time.Second, true, r.drive, in.Cancel, command.WithClock(r.clock))
	r.sched.Schedule(c)
	for i := 0; i < 5; i++ {
		r.sched.Run()
	}
	in.SetCancel(true)
	r.sched.Run()

	if c.State() != command.Cancelled {
		t.Errorf("State() = %v, want cancelled", c.State())
	}
}

func TestRotateToHeading(t *testing.T) {
	r := newTestRobot(t, golog.NewTestLogger(t))

	for _, target := range []float64{90, 180, 270, 0} {
		c := NewRotateToHeading(target, 0, r.drive, nil, command.WithClock(r.clock))
		r.sched.Schedule(c)
		r.runUntilDone(c, 10*time.Second)

		if c.State() != command.Completed {
			t.Fatalf("target %f: State() = %v, want completed", target, c.State())
		}
		if e := sensor.HeadingError(target, r.drive.Heading()); math.Abs(e) > HeadingTolerance {
			t.Errorf("target %f: heading error %f", target, e)
		}
		if l, rr := r.drive.Speeds(); l != 0 || rr != 0 {
			t.Errorf("target %f: still turning %f, %f", target, l, rr)
		}
	}
}

func TestDefault_DrivesFromSticks(t *testing.T) {
	r := newTestRobot(t, golog.NewTestLogger(t))
	in := oi.New(oi.Arcade)
	r.sched.SetDefault(r.drive, NewDefault(in, r.drive, command.WithClock(r.clock)))

	in.SetStick(oi.Left, oi.Stick{Y: .5})
	in.SetStick(oi.Right, oi.Stick{X: .25})
	in.ToggleTurbo()

	r.sched.Run() // schedules the default command
	r.sched.Run()

	l, rr := r.drive.Speeds()
	if l != .75 || rr != .25 {
		t.Errorf("speeds = %f, %f, want 0.75, 0.25", l, rr)
	}
	if !r.drive.Turbo() || r.shifter.Get() != HighGear {
		t.Error("turbo not engaged")
	}
	if r.drive.MaxEncoderSpeed() != DefaultConfig().HighGearSpeed {
		t.Errorf("MaxEncoderSpeed() = %f", r.drive.MaxEncoderSpeed())
	}

	in.ToggleTurbo()
	r.sched.Run()
	if r.drive.Turbo() || r.shifter.Get() != LowGear {
		t.Error("turbo not released")
	}
}

func TestDrive_DistanceWithOneEncoder(t *testing.T) {
	logger := golog.NewTestLogger(t)
	sim := hw.NewSim(hw.SimConfig{TalonCountsPerRev: 100})
	left, _ := motor.New(sim, logger, motor.TalonSRX, 1, false)
	right, _ := motor.New(sim, logger, motor.VictorSP, 0, false)

	cfg := DefaultConfig()
	cfg.CountsPerInch = 10
	d := New(left, right, nil, nil, cfg, logger)

	d.SetSpeed(1, 1)
	sim.Step(1)
	// 5 rev/s * 100 counts/rev / 10 counts/inch
	if got := d.DistanceInches(); got != 50 {
		t.Errorf("DistanceInches() = %f, want 50", got)
	}
	if got := d.Heading(); got != 0 {
		t.Errorf("Heading() without a gyro = %f, want 0", got)
	}

	d.ResetEncoders()
	if got := d.DistanceInches(); got != 0 {
		t.Errorf("DistanceInches() after reset = %f, want 0", got)
	}
}
