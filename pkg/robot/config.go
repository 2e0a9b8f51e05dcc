package robot

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v2"

	"github.com/gwillem/cyclebot/pkg/drive"
	"github.com/gwillem/cyclebot/pkg/motor"
	"github.com/gwillem/cyclebot/pkg/oi"
	"github.com/gwillem/cyclebot/pkg/sensor"
)

// DefaultConfigFile is the configuration read when no file is named.
const DefaultConfigFile = "cyclebot.json"

// Gyro kinds accepted in GyroConfig.Kind.
const (
	GyroNone     = "none"
	GyroAnalog   = "analog"
	GyroADXRS450 = "adxrs450"
	GyroNavX     = "navx"
	GyroPigeon   = "pigeon"
)

// NoChannel marks an optional device as absent.
const NoChannel = -1

// Config holds the robot configuration. It is loaded once at start up and
// not changed afterwards.
type Config struct {
	// Hz is the control loop rate.
	Hz         int              `json:"hz" yaml:"hz"`
	Drive      DriveConfig      `json:"drive" yaml:"drive"`
	Gyro       GyroConfig       `json:"gyro" yaml:"gyro"`
	Pneumatics PneumaticsConfig `json:"pneumatics" yaml:"pneumatics"`
	// PowerChannels are the power distribution channels shown as
	// telemetry.
	PowerChannels []int          `json:"power_channels,omitempty" yaml:"power_channels,omitempty"`
	Operator      OperatorConfig `json:"operator" yaml:"operator"`
	Feetech       FeetechConfig  `json:"feetech" yaml:"feetech"`
	Sim           SimConfig      `json:"sim" yaml:"sim"`
	Log           LogConfig      `json:"log" yaml:"log"`
}

// MotorConfig describes one motor group.
type MotorConfig struct {
	Kind    string `json:"kind" yaml:"kind"`
	Address int    `json:"address" yaml:"address"`
	// FollowerKind is empty when the followers are the same kind as the
	// primary. A different kind allows a single follower.
	FollowerKind string `json:"follower_kind" yaml:"follower_kind"`
	Followers    []int  `json:"followers" yaml:"followers"`
	Inverted     bool   `json:"inverted" yaml:"inverted"`
}

// DriveConfig holds the drive base wiring and constants.
type DriveConfig struct {
	Left          MotorConfig `json:"left" yaml:"left"`
	Right         MotorConfig `json:"right" yaml:"right"`
	CountsPerInch float64     `json:"counts_per_inch" yaml:"counts_per_inch"`
	GyroKP        float64     `json:"gyro_kp" yaml:"gyro_kp"`
	GyroKI        float64     `json:"gyro_ki" yaml:"gyro_ki"`
	MaxRotation   float64     `json:"max_rotation" yaml:"max_rotation"`
	LowGearSpeed  float64     `json:"low_gear_speed" yaml:"low_gear_speed"`
	HighGearSpeed float64     `json:"high_gear_speed" yaml:"high_gear_speed"`
	// ShifterChannel is the solenoid channel, or NoChannel.
	ShifterChannel int `json:"shifter_channel" yaml:"shifter_channel"`
	// CommandTimeout is the timeout of each box step and rotation, in
	// seconds.
	CommandTimeout float64 `json:"command_timeout" yaml:"command_timeout"`
}

// GyroConfig selects the heading sensor.
type GyroConfig struct {
	Kind string `json:"kind" yaml:"kind"`
	// Port is the analog channel, or the Pigeon CAN id.
	Port     int  `json:"port" yaml:"port"`
	Inverted bool `json:"inverted" yaml:"inverted"`
	// OnTalon is set when the Pigeon is cabled to the Talon SRX at Port.
	OnTalon bool `json:"on_talon,omitempty" yaml:"on_talon,omitempty"`
	// Attributes holds variant specific settings, see GyroAttributes.
	Attributes map[string]interface{} `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// GyroAttributes are the variant specific gyro settings.
type GyroAttributes struct {
	// Sensitivity in volts/degree/second, analog gyros only.
	Sensitivity float64 `mapstructure:"sensitivity"`
	// PitchAxis is "pitch" or "roll", for gyros with a second axis.
	PitchAxis string `mapstructure:"pitch_axis"`
}

// PneumaticsConfig enables the compressor.
type PneumaticsConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
}

// OperatorConfig holds operator input defaults.
type OperatorConfig struct {
	DriveType string `json:"drive_type" yaml:"drive_type"`
	// Pattern is the autonomous pattern; empty asks at start up.
	Pattern string `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	// StartPosition is where the robot starts on the field.
	StartPosition string `json:"start_position" yaml:"start_position"`
}

// FeetechConfig points the feetech motor kind at a serial bus. An empty
// port keeps feetech motors simulated.
type FeetechConfig struct {
	Port        string `json:"port,omitempty" yaml:"port,omitempty"`
	BaudRate    int    `json:"baud_rate,omitempty" yaml:"baud_rate,omitempty"`
	MaxVelocity int    `json:"max_velocity,omitempty" yaml:"max_velocity,omitempty"`
}

// SimConfig tunes the simulated drive base.
type SimConfig struct {
	FreeSpeed         float64 `json:"free_speed" yaml:"free_speed"`
	TalonCountsPerRev int     `json:"talon_counts_per_rev" yaml:"talon_counts_per_rev"`
	TurnRate          float64 `json:"turn_rate" yaml:"turn_rate"`
}

// LogConfig configures the log file.
type LogConfig struct {
	Level      string `json:"level" yaml:"level"`
	File       string `json:"file,omitempty" yaml:"file,omitempty"`
	MaxSizeMB  int    `json:"max_size_mb,omitempty" yaml:"max_size_mb,omitempty"`
	MaxBackups int    `json:"max_backups,omitempty" yaml:"max_backups,omitempty"`
}

// DefaultConfig returns the wiring of the test robot.
func DefaultConfig() *Config {
	dc := drive.DefaultConfig()
	return &Config{
		Hz: 50,
		Drive: DriveConfig{
			Left: MotorConfig{
				Kind:         motor.TalonSRX.String(),
				Address:      10,
				FollowerKind: motor.VictorSPX.String(),
				Followers:    []int{11},
				Inverted:     true,
			},
			Right: MotorConfig{
				Kind:      motor.TalonSRX.String(),
				Address:   20,
				Followers: []int{21},
			},
			CountsPerInch:  dc.CountsPerInch,
			GyroKP:         dc.GyroKP,
			GyroKI:         dc.GyroKI,
			MaxRotation:    dc.MaxRotation,
			LowGearSpeed:   dc.LowGearSpeed,
			HighGearSpeed:  dc.HighGearSpeed,
			ShifterChannel: 0,
			CommandTimeout: drive.DefaultRotateTimeout.Seconds(),
		},
		Gyro: GyroConfig{
			Kind: GyroAnalog,
			Port: 0,
		},
		Pneumatics: PneumaticsConfig{Enabled: true},
		Operator: OperatorConfig{
			DriveType:     oi.Arcade.String(),
			StartPosition: string(StartCenter),
		},
		Sim: SimConfig{
			FreeSpeed:         5,
			TalonCountsPerRev: 1024,
			TurnRate:          180,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Period is the control loop period.
func (c *Config) Period() time.Duration {
	return time.Second / time.Duration(c.Hz)
}

// CommandTimeout is the default timeout of autonomous steps.
func (c *Config) CommandTimeout() time.Duration {
	return time.Duration(c.Drive.CommandTimeout * float64(time.Second))
}

// DriveConstants returns the drive constants for the drive package.
func (c *Config) DriveConstants() drive.Config {
	return drive.Config{
		CountsPerInch: c.Drive.CountsPerInch,
		GyroKP:        c.Drive.GyroKP,
		GyroKI:        c.Drive.GyroKI,
		MaxRotation:   c.Drive.MaxRotation,
		LowGearSpeed:  c.Drive.LowGearSpeed,
		HighGearSpeed: c.Drive.HighGearSpeed,
	}
}

// DecodeAttributes decodes the variant specific gyro settings. The pitch
// axis defaults to roll on a navX, whose board is mounted on its side, and
// to pitch otherwise.
func (g *GyroConfig) DecodeAttributes() (GyroAttributes, error) {
	var attrs GyroAttributes
	if err := mapstructure.Decode(g.Attributes, &attrs); err != nil {
		return attrs, errors.Wrap(err, "decode gyro attributes")
	}
	if attrs.PitchAxis == "" {
		attrs.PitchAxis = sensor.AxisPitch.String()
		if g.Kind == GyroNavX {
			attrs.PitchAxis = sensor.AxisRoll.String()
		}
	}
	return attrs, nil
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var err error
	if c.Hz <= 0 || c.Hz > 1000 {
		err = multierr.Append(err, errors.Errorf("hz %d out of range (1-1000)", c.Hz))
	}

	err = multierr.Append(err, c.Drive.Left.validate("drive.left"))
	err = multierr.Append(err, c.Drive.Right.validate("drive.right"))
	if c.Drive.CountsPerInch <= 0 {
		err = multierr.Append(err, errors.New("drive.counts_per_inch must be positive"))
	}
	if c.Drive.MaxRotation <= 0 || c.Drive.MaxRotation > 1 {
		err = multierr.Append(err, errors.Errorf("drive.max_rotation %g out of range (0-1]", c.Drive.MaxRotation))
	}
	if c.Drive.CommandTimeout <= 0 {
		err = multierr.Append(err, errors.Errorf("drive.command_timeout %g must be positive", c.Drive.CommandTimeout))
	}
	if c.Drive.GyroKP < 0 || c.Drive.GyroKI < 0 {
		err = multierr.Append(err, errors.New("drive gyro gains must not be negative"))
	}

	switch c.Gyro.Kind {
	case GyroNone, GyroAnalog, GyroADXRS450, GyroNavX, GyroPigeon:
	default:
		err = multierr.Append(err, errors.Errorf("gyro.kind %q unknown", c.Gyro.Kind))
	}
	if attrs, aerr := c.Gyro.DecodeAttributes(); aerr != nil {
		err = multierr.Append(err, aerr)
	} else if _, perr := parseAxis(attrs.PitchAxis); perr != nil {
		err = multierr.Append(err, perr)
	}

	if _, derr := oi.ParseDriveType(c.Operator.DriveType); derr != nil {
		err = multierr.Append(err, derr)
	}
	if c.Operator.Pattern != "" {
		if _, perr := ParsePattern(c.Operator.Pattern); perr != nil {
			err = multierr.Append(err, perr)
		}
	}
	if c.Operator.StartPosition != "" {
		if _, serr := ParseStartPosition(c.Operator.StartPosition); serr != nil {
			err = multierr.Append(err, serr)
		}
	}
	return err
}

func (m *MotorConfig) validate(name string) error {
	var err error
	if _, kerr := motor.ParseKind(m.Kind); kerr != nil {
		err = multierr.Append(err, errors.Wrapf(kerr, "%s.kind", name))
	}
	if m.FollowerKind != "" {
		if _, kerr := motor.ParseKind(m.FollowerKind); kerr != nil {
			err = multierr.Append(err, errors.Wrapf(kerr, "%s.follower_kind", name))
		}
		if len(m.Followers) != 1 {
			err = multierr.Append(err, errors.Errorf("%s: a follower of another kind needs exactly one address, got %d", name, len(m.Followers)))
		}
	}
	for _, addr := range append([]int{m.Address}, m.Followers...) {
		if addr < 0 {
			err = multierr.Append(err, errors.Errorf("%s: negative address %d", name, addr))
		}
	}
	return err
}

func parseAxis(s string) (sensor.Axis, error) {
	switch strings.ToLower(s) {
	case sensor.AxisPitch.String():
		return sensor.AxisPitch, nil
	case sensor.AxisRoll.String():
		return sensor.AxisRoll, nil
	}
	return sensor.AxisPitch, errors.Errorf("gyro pitch_axis %q must be pitch or roll", s)
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// LoadConfigFrom loads configuration from a JSON or YAML file. Settings the
// file leaves out keep their DefaultConfig values.
func LoadConfigFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	cfg := DefaultConfig()
	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return cfg, nil
}

// SaveTo saves configuration to a specific file, as YAML when the name ends
// in .yaml or .yml and as JSON otherwise.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return errors.Wrap(err, "encode config")
	}
	return os.WriteFile(path, data, 0644)
}

// ConfigExists returns true if the config file exists
func ConfigExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
