package robot

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/multierr"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Hz = 0
	cfg.Drive.Left.Kind = "cim"
	cfg.Gyro.Kind = "compass"
	cfg.Operator.Pattern = "zigzag"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want errors")
	}
	if n := len(multierr.Errors(err)); n != 4 {
		t.Errorf("got %d errors, want 4: %v", n, err)
	}
	for _, want := range []string{"hz", "drive.left.kind", "compass", "zigzag"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestValidateMixedFollowers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Drive.Left.Followers = []int{11, 12}
	if err := cfg.Validate(); err == nil {
		t.Error("two followers of another kind accepted")
	}
}

func TestValidateCommandTimeout(t *testing.T) {
	for _, timeout := range []float64{0, -1} {
		cfg := DefaultConfig()
		cfg.Drive.CommandTimeout = timeout
		if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "command_timeout") {
			t.Errorf("command_timeout %g: Validate() = %v", timeout, err)
		}
	}
}

func TestLoadConfigFrom_KeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cyclebot.json")
	if err := os.WriteFile(path, []byte(`{"hz": 100, "gyro": {"kind": "navx"}}`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfigFrom(path)
	if err != nil {
		t.Fatalf("LoadConfigFrom() error: %v", err)
	}
	if cfg.Hz != 100 {
		t.Errorf("Hz = %d, want 100", cfg.Hz)
	}
	if cfg.Gyro.Kind != GyroNavX {
		t.Errorf("Gyro.Kind = %q, want navx", cfg.Gyro.Kind)
	}
	if cfg.Drive.Left.Address != 10 || cfg.Drive.CountsPerInch != 55.6 {
		t.Errorf("defaults lost: %+v", cfg.Drive)
	}
	if got := cfg.Period().Milliseconds(); got != 10 {
		t.Errorf("Period() = %dms, want 10ms", got)
	}
	if got := cfg.CommandTimeout(); got != 5*time.Second {
		t.Errorf("CommandTimeout() = %v, want 5s", got)
	}
}

func TestSaveTo_RoundTrip(t *testing.T) {
	for _, name := range []string{"robot.json", "robot.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)

			cfg := DefaultConfig()
			cfg.Drive.Left.FollowerKind = ""
			cfg.Drive.Left.Followers = nil
			cfg.Gyro.Kind = GyroPigeon
			cfg.Gyro.Attributes = map[string]interface{}{"pitch_axis": "roll"}
			cfg.Operator.Pattern = string(Box)

			if err := cfg.SaveTo(path); err != nil {
				t.Fatalf("SaveTo() error: %v", err)
			}
			got, err := LoadConfigFrom(path)
			if err != nil {
				t.Fatalf("LoadConfigFrom() error: %v", err)
			}

			if got.Drive.Left.FollowerKind != "" || len(got.Drive.Left.Followers) != 0 {
				t.Errorf("left followers = %q %v, want none", got.Drive.Left.FollowerKind, got.Drive.Left.Followers)
			}
			if got.Gyro.Kind != GyroPigeon || got.Operator.Pattern != "box" {
				t.Errorf("loaded %+v %+v", got.Gyro, got.Operator)
			}
			attrs, err := got.Gyro.DecodeAttributes()
			if err != nil {
				t.Fatalf("DecodeAttributes() error: %v", err)
			}
			if attrs.PitchAxis != "roll" {
				t.Errorf("PitchAxis = %q, want roll", attrs.PitchAxis)
			}
		})
	}
}

func TestLoadConfigFrom_Errors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadConfigFrom(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("missing file accepted")
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("hz: [1, 2"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfigFrom(bad); err == nil || !strings.Contains(err.Error(), "bad.yaml") {
		t.Errorf("LoadConfigFrom(bad.yaml) error = %v", err)
	}
}

func TestDecodeAttributes(t *testing.T) {
	tests := []struct {
		name        string
		gyro        GyroConfig
		sensitivity float64
		axis        string
		wantErr     bool
	}{
		{"analog default", GyroConfig{Kind: GyroAnalog}, 0, "pitch", false},
		{"navx default", GyroConfig{Kind: GyroNavX}, 0, "roll", false},
		{"navx override", GyroConfig{Kind: GyroNavX, Attributes: map[string]interface{}{"pitch_axis": "pitch"}}, 0, "pitch", false},
		{"sensitivity", GyroConfig{Kind: GyroAnalog, Attributes: map[string]interface{}{"sensitivity": 0.007}}, 0.007, "pitch", false},
		{"bad type", GyroConfig{Kind: GyroAnalog, Attributes: map[string]interface{}{"sensitivity": "high"}}, 0, "", true},
	}

	for _, tt := range tests {
		attrs, err := tt.gyro.DecodeAttributes()
		if tt.wantErr {
			if err == nil {
				t.Errorf("%s: no error", tt.name)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: %v", tt.name, err)
			continue
		}
		if attrs.Sensitivity != tt.sensitivity || attrs.PitchAxis != tt.axis {
			t.Errorf("%s: got %+v", tt.name, attrs)
		}
	}
}

func TestParsePattern(t *testing.T) {
	for _, p := range AllPatterns() {
		got, err := ParsePattern(" " + strings.ToUpper(string(p)))
		if err != nil || got != p {
			t.Errorf("ParsePattern(%q) = %q, %v", p, got, err)
		}
	}
	if got, err := ParsePattern("spiral"); err == nil || got != DefaultPattern {
		t.Errorf("ParsePattern(spiral) = %q, %v", got, err)
	}
	if got, err := ParseStartPosition("Left"); err != nil || got != StartLeft {
		t.Errorf("ParseStartPosition(Left) = %q, %v", got, err)
	}
	if _, err := ParseStartPosition("middle"); err == nil {
		t.Error("ParseStartPosition(middle) accepted")
	}
}
