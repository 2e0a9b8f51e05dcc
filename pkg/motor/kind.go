package motor

import (
	"strings"

	"github.com/pkg/errors"
)

// Kind is a motor controller model together with how it is addressed.
type Kind int

const (
	// CAN bus controllers, addressed by device id.
	TalonSRX Kind = iota + 1
	VictorSPX
	SparkMaxBrushless
	SparkMaxBrushed
	Venom

	// Serial bus servo in wheel mode, addressed by servo id.
	FeetechServo

	// PWM controllers, addressed by PWM channel.
	DMC60
	Jaguar
	SD540
	Spark
	SparkMaxPWM
	TalonPWM
	TalonFXPWM
	TalonSRXPWM
	VenomPWM
	Victor
	VictorSP
	VictorSPXPWM
)

var kindNames = map[Kind]string{
	TalonSRX:          "talon_srx",
	VictorSPX:         "victor_spx",
	SparkMaxBrushless: "spark_max_brushless",
	SparkMaxBrushed:   "spark_max_brushed",
	Venom:             "venom",
	FeetechServo:      "feetech",
	DMC60:             "dmc60",
	Jaguar:            "jaguar",
	SD540:             "sd540",
	Spark:             "spark",
	SparkMaxPWM:       "spark_max_pwm",
	TalonPWM:          "talon",
	TalonFXPWM:        "talon_fx_pwm",
	TalonSRXPWM:       "talon_srx_pwm",
	VenomPWM:          "venom_pwm",
	Victor:            "victor",
	VictorSP:          "victor_sp",
	VictorSPXPWM:      "victor_spx_pwm",
}

// AllKinds lists every supported kind in declaration order.
var AllKinds = []Kind{
	TalonSRX, VictorSPX, SparkMaxBrushless, SparkMaxBrushed, Venom,
	FeetechServo,
	DMC60, Jaguar, SD540, Spark, SparkMaxPWM, TalonPWM, TalonFXPWM,
	TalonSRXPWM, VenomPWM, Victor, VictorSP, VictorSPXPWM,
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// IsCAN reports whether the kind lives on the CAN bus.
func (k Kind) IsCAN() bool {
	return k >= TalonSRX && k <= Venom
}

// IsPWM reports whether the kind is driven from a PWM channel.
func (k Kind) IsPWM() bool {
	return k >= DMC60 && k <= VictorSPXPWM
}

// IsCTRE reports whether the kind is a CTRE CAN controller. Those cannot be
// closed.
func (k Kind) IsCTRE() bool {
	return k == TalonSRX || k == VictorSPX
}

// HasEncoder reports whether a group whose primary is this kind can provide
// an encoder.
func (k Kind) HasEncoder() bool {
	switch k {
	case TalonSRX, SparkMaxBrushless, SparkMaxBrushed, Venom, FeetechServo:
		return true
	}
	return false
}

// ParseKind returns the kind named s, as written in configuration files.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, k := range AllKinds {
		if kindNames[k] == s {
			return k, nil
		}
	}
	return 0, errors.Wrapf(ErrUnknownKind, "%q", s)
}
