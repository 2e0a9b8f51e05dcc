package hw

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// Family groups simulated motors by the address space they live in.
type Family string

const (
	FamilyTalon  Family = "talon_srx"
	FamilyVictor Family = "victor_spx"
	FamilySpark  Family = "spark_max"
	FamilyVenom  Family = "venom"
	FamilyServo  Family = "servo"
	FamilyPWM    Family = "pwm"
)

// MotorRef addresses one simulated motor.
type MotorRef struct {
	Family Family
	ID     int
}

// SimChassis couples the left and right drive motors to the simulated
// heading. Positive heading rate is clockwise.
type SimChassis struct {
	Left          MotorRef
	Right         MotorRef
	LeftInverted  bool
	RightInverted bool
	// TurnRate is the heading rate in degrees/second with the wheels at
	// full opposite output.
	TurnRate float64
}

// SimConfig tunes the simulated devices.
type SimConfig struct {
	// FreeSpeed is the motor speed at full output in revolutions/second.
	FreeSpeed float64
	// TalonCountsPerRev is the quadrature resolution seen by a Talon SRX.
	TalonCountsPerRev int
	// ServoStepsPerRev is the resolution of simulated bus servos.
	ServoStepsPerRev int
	Chassis          *SimChassis
}

// DefaultSimConfig returns a drivetrain geared like the test robot.
func DefaultSimConfig() SimConfig {
	return SimConfig{
		FreeSpeed:         5,
		TalonCountsPerRev: 1024,
		ServoStepsPerRev:  4096,
	}
}

// SimMotor is the shared state behind every simulated motor controller.
type SimMotor struct {
	Output        float64
	Revolutions   float64
	RevsPerSecond float64
	Closed        bool
	// ZeroGlitches makes the next reads of an integrated Spark MAX
	// encoder return exactly zero.
	ZeroGlitches int

	sensorZero float64
}

func (m *SimMotor) step(dt, freeSpeed float64) {
	m.RevsPerSecond = m.Output * freeSpeed
	m.Revolutions += m.RevsPerSecond * dt
}

// SimGyro is the single simulated heading source shared by every gyro kind.
type SimGyro struct {
	Heading     float64
	RateDPS     float64
	Roll        float64
	Pitch       float64
	Sensitivity float64
	// FaultCode, when non-zero, is reported by orientation reads.
	FaultCode    int
	Calibrations int
	Closed       bool
}

// SimEncoder is a simulated digital input encoder.
type SimEncoder struct {
	Count     int
	CountRate float64
	Closed    bool
}

// Sim is an in-memory Provider for tests and the simulated robot.
type Sim struct {
	cfg SimConfig

	motors     map[MotorRef]*SimMotor
	encoders   map[int]*SimEncoder
	gyro       *SimGyro
	gyroOpen   bool
	solenoids  map[int]*simSolenoid
	compressor *simCompressor
	pdp        *simPDP
	closed     bool
}

var _ Provider = (*Sim)(nil)
var _ Stepper = (*Sim)(nil)

// NewSim creates a simulated provider.
func NewSim(cfg SimConfig) *Sim {
	def := DefaultSimConfig()
	if cfg.FreeSpeed <= 0 {
		cfg.FreeSpeed = def.FreeSpeed
	}
	if cfg.TalonCountsPerRev <= 0 {
		cfg.TalonCountsPerRev = def.TalonCountsPerRev
	}
	if cfg.ServoStepsPerRev <= 0 {
		cfg.ServoStepsPerRev = def.ServoStepsPerRev
	}
	return &Sim{
		cfg:       cfg,
		motors:    make(map[MotorRef]*SimMotor),
		encoders:  make(map[int]*SimEncoder),
		gyro:      &SimGyro{},
		solenoids: make(map[int]*simSolenoid),
		pdp:       &simPDP{currents: make(map[int]float64), voltage: 12.5},
	}
}

// Motor returns the simulated motor at ref, or nil if none was opened.
func (s *Sim) Motor(ref MotorRef) *SimMotor {
	return s.motors[ref]
}

// Encoder returns the simulated digital encoder whose first channel is ch.
func (s *Sim) Encoder(ch int) *SimEncoder {
	return s.encoders[ch]
}

// Gyro returns the simulated heading source.
func (s *Sim) Gyro() *SimGyro {
	return s.gyro
}

// SetCurrent sets the current reported on a power distribution channel.
func (s *Sim) SetCurrent(channel int, amps float64) {
	s.pdp.currents[channel] = amps
}

// Close makes further Open calls fail.
func (s *Sim) Close() error {
	s.closed = true
	return nil
}

// Step advances every simulated device by dt seconds.
func (s *Sim) Step(dt float64) {
	for _, m := range s.motors {
		if m.Closed {
			continue
		}
		m.step(dt, s.cfg.FreeSpeed)
	}

	c := s.cfg.Chassis
	if c == nil {
		return
	}
	left := s.wheel(c.Left, c.LeftInverted)
	right := s.wheel(c.Right, c.RightInverted)
	s.gyro.RateDPS = (left - right) / 2 * c.TurnRate
	s.gyro.Heading += s.gyro.RateDPS * dt
}

func (s *Sim) wheel(ref MotorRef, inverted bool) float64 {
	m := s.motors[ref]
	if m == nil {
		return 0
	}
	if inverted {
		return -m.Output
	}
	return m.Output
}

func (s *Sim) openMotor(ref MotorRef) (*SimMotor, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if _, ok := s.motors[ref]; ok {
		return nil, errors.Errorf("%s %d already allocated", ref.Family, ref.ID)
	}
	m := &SimMotor{}
	s.motors[ref] = m
	return m, nil
}

func (s *Sim) TalonSRX(id int) (TalonSRX, error) {
	m, err := s.openMotor(MotorRef{FamilyTalon, id})
	if err != nil {
		return nil, err
	}
	return &simTalon{SimMotor: m, cpr: float64(s.cfg.TalonCountsPerRev)}, nil
}

func (s *Sim) VictorSPX(id int) (CTRE, error) {
	m, err := s.openMotor(MotorRef{FamilyVictor, id})
	if err != nil {
		return nil, err
	}
	return &simVictor{m}, nil
}

func (s *Sim) SparkMax(id int, brushless bool) (SparkMax, error) {
	m, err := s.openMotor(MotorRef{FamilySpark, id})
	if err != nil {
		return nil, err
	}
	return &simSpark{m}, nil
}

func (s *Sim) Venom(id int) (Venom, error) {
	m, err := s.openMotor(MotorRef{FamilyVenom, id})
	if err != nil {
		return nil, err
	}
	return &simVenom{m}, nil
}

func (s *Sim) ServoWheel(id int) (ServoWheel, error) {
	m, err := s.openMotor(MotorRef{FamilyServo, id})
	if err != nil {
		return nil, err
	}
	return &simServo{SimMotor: m, spr: s.cfg.ServoStepsPerRev}, nil
}

func (s *Sim) PWM(model PWMModel, channel int) (PWM, error) {
	m, err := s.openMotor(MotorRef{FamilyPWM, channel})
	if err != nil {
		return nil, err
	}
	return &simPWM{m}, nil
}

func (s *Sim) openEncoder(ch int) (*SimEncoder, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if _, ok := s.encoders[ch]; ok {
		return nil, errors.Errorf("digital channel %d already allocated", ch)
	}
	e := &SimEncoder{}
	s.encoders[ch] = e
	return e, nil
}

func (s *Sim) Counter(channel int) (Counter, error) {
	e, err := s.openEncoder(channel)
	if err != nil {
		return nil, err
	}
	return &simCounter{e}, nil
}

func (s *Sim) Quadrature(channelA, channelB int) (Quadrature, error) {
	e, err := s.openEncoder(channelA)
	if err != nil {
		return nil, err
	}
	return &simQuad{e}, nil
}

func (s *Sim) openGyro() (*SimGyro, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if s.gyroOpen {
		return nil, errors.New("gyro already allocated")
	}
	s.gyroOpen = true
	return s.gyro, nil
}

func (s *Sim) AnalogGyro(channel int) (AnalogGyro, error) {
	g, err := s.openGyro()
	if err != nil {
		return nil, err
	}
	return &simAnalogGyro{g}, nil
}

func (s *Sim) ADXRS450() (SPIGyro, error) {
	g, err := s.openGyro()
	if err != nil {
		return nil, err
	}
	return &simSPIGyro{g}, nil
}

func (s *Sim) NavX() (NavX, error) {
	g, err := s.openGyro()
	if err != nil {
		return nil, err
	}
	return &simNavX{g}, nil
}

func (s *Sim) Pigeon(id int) (Pigeon, error) {
	g, err := s.openGyro()
	if err != nil {
		return nil, err
	}
	return &simPigeon{g}, nil
}

func (s *Sim) PigeonOnTalon(talonID int) (Pigeon, error) {
	if _, ok := s.motors[MotorRef{FamilyTalon, talonID}]; !ok {
		return nil, errors.Errorf("no talon_srx %d to host the pigeon", talonID)
	}
	return s.Pigeon(talonID)
}

func (s *Sim) Solenoid(channel int) (Solenoid, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if _, ok := s.solenoids[channel]; ok {
		return nil, errors.Errorf("solenoid %d already allocated", channel)
	}
	sol := &simSolenoid{}
	s.solenoids[channel] = sol
	return sol, nil
}

func (s *Sim) Compressor() (Compressor, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if s.compressor == nil {
		s.compressor = &simCompressor{}
	}
	return s.compressor, nil
}

func (s *Sim) PowerDistribution() (PowerDistribution, error) {
	if s.closed {
		return nil, ErrClosed
	}
	return s.pdp, nil
}

type simTalon struct {
	*SimMotor
	cpr float64
}

func (t *simTalon) SetPercentOutput(v float64)  { t.Output = v }
func (t *simTalon) MotorOutputPercent() float64 { return t.Output }
func (t *simTalon) ConfigQuadEncoder() error    { return nil }

func (t *simTalon) SetSensorPosition(counts int) {
	t.sensorZero = t.Revolutions - float64(counts)/t.cpr
}

func (t *simTalon) SensorPosition() float64 {
	return math.Trunc((t.Revolutions - t.sensorZero) * t.cpr)
}

func (t *simTalon) SensorVelocity() float64 { return t.RevsPerSecond * t.cpr }

type simVictor struct{ *SimMotor }

func (v *simVictor) SetPercentOutput(o float64)  { v.Output = o }
func (v *simVictor) MotorOutputPercent() float64 { return v.Output }

type simSpark struct{ *SimMotor }

func (s *simSpark) Set(v float64)            { s.Output = v }
func (s *simSpark) Get() float64             { return s.Output }
func (s *simSpark) Encoder() RelativeEncoder { return simSparkEncoder{s.SimMotor} }
func (s *simSpark) Close() error             { s.Closed = true; return nil }

type simSparkEncoder struct{ m *SimMotor }

func (e simSparkEncoder) Position() float64 {
	if e.m.ZeroGlitches > 0 {
		e.m.ZeroGlitches--
		return 0
	}
	return e.m.Revolutions
}

func (e simSparkEncoder) Velocity() float64 { return e.m.RevsPerSecond }

type simVenom struct{ *SimMotor }

func (v *simVenom) Set(o float64)     { v.Output = o }
func (v *simVenom) Get() float64      { return v.Output }
func (v *simVenom) Position() float64 { return v.Revolutions }
func (v *simVenom) Speed() float64    { return v.RevsPerSecond }
func (v *simVenom) Close() error      { v.Closed = true; return nil }

type simServo struct {
	*SimMotor
	spr int
}

func (s *simServo) Set(v float64)           { s.Output = v }
func (s *simServo) Get() float64            { return s.Output }
func (s *simServo) Steps() int              { return int(s.Revolutions * float64(s.spr)) }
func (s *simServo) StepRate() float64       { return s.RevsPerSecond * float64(s.spr) }
func (s *simServo) StepsPerRevolution() int { return s.spr }
func (s *simServo) Close() error            { s.Closed = true; return nil }

type simPWM struct{ *SimMotor }

func (p *simPWM) Set(v float64) { p.Output = v }
func (p *simPWM) Get() float64  { return p.Output }
func (p *simPWM) Close() error  { p.Closed = true; return nil }

type simCounter struct{ *SimEncoder }

// A counter cannot sense direction.
func (c *simCounter) Get() int {
	if c.Count < 0 {
		return -c.Count
	}
	return c.Count
}

func (c *simCounter) Rate() float64 { return math.Abs(c.CountRate) }
func (c *simCounter) Close() error  { c.Closed = true; return nil }

type simQuad struct{ *SimEncoder }

func (q *simQuad) Get() int      { return q.Count }
func (q *simQuad) Rate() float64 { return q.CountRate }
func (q *simQuad) Close() error  { q.Closed = true; return nil }

type simAnalogGyro struct{ *SimGyro }

func (g *simAnalogGyro) Angle() float64           { return g.Heading }
func (g *simAnalogGyro) Rate() float64            { return g.RateDPS }
func (g *simAnalogGyro) Calibrate()               { g.Calibrations++ }
func (g *simAnalogGyro) SetSensitivity(v float64) { g.Sensitivity = v }
func (g *simAnalogGyro) Close() error             { g.Closed = true; return nil }

type simSPIGyro struct{ *SimGyro }

func (g *simSPIGyro) Angle() float64 { return g.Heading }
func (g *simSPIGyro) Rate() float64  { return g.RateDPS }
func (g *simSPIGyro) Calibrate()     { g.Calibrations++ }
func (g *simSPIGyro) Close() error   { g.Closed = true; return nil }

type simNavX struct{ *SimGyro }

func (g *simNavX) Angle() float64 { return g.Heading }
func (g *simNavX) Rate() float64  { return g.RateDPS }
func (g *simNavX) Calibrate()     { g.Calibrations++ }

func (g *simNavX) Orientation() (r3.Vector, error) {
	if g.FaultCode != 0 {
		return r3.Vector{}, &Fault{Device: "navx", Code: g.FaultCode}
	}
	return r3.Vector{X: g.Roll, Y: g.Pitch, Z: g.Heading}, nil
}

type simPigeon struct{ *SimGyro }

func (g *simPigeon) CompassHeading() float64 {
	h := math.Mod(g.Heading, 360)
	if h < 0 {
		h += 360
	}
	return h
}

func (g *simPigeon) Orientation() (r3.Vector, error) {
	if g.FaultCode != 0 {
		return r3.Vector{}, &Fault{Device: "pigeon_imu", Code: g.FaultCode}
	}
	return r3.Vector{X: g.Roll, Y: g.Pitch, Z: g.Heading}, nil
}

func (g *simPigeon) Destroy() { g.Closed = true }

type simSolenoid struct{ on bool }

func (s *simSolenoid) Set(on bool) { s.on = on }
func (s *simSolenoid) Get() bool   { return s.on }

type simCompressor struct{ closedLoop bool }

func (c *simCompressor) SetClosedLoop(on bool) { c.closedLoop = on }
func (c *simCompressor) ClosedLoop() bool      { return c.closedLoop }
func (c *simCompressor) Enabled() bool         { return c.closedLoop }

type simPDP struct {
	currents map[int]float64
	voltage  float64
}

func (p *simPDP) Current(channel int) float64 { return p.currents[channel] }
func (p *simPDP) Voltage() float64            { return p.voltage }
