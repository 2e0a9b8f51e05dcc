package main

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/gwillem/cyclebot/pkg/robot"
)

type Options struct {
	Config string `short:"c" long:"config" default:"cyclebot.json" description:"Configuration file (.json, .yaml or .yml)"`

	Run     RunCommand     `command:"run" description:"Run the robot with the operator console"`
	Scan    ScanCommand    `command:"scan" description:"Scan serial ports for feetech servos"`
	Devices DevicesCommand `command:"devices" description:"List the devices the configuration opens"`
	Init    InitCommand    `command:"init" description:"Write the default configuration"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

func main() {
	parser.LongDescription = "cyclebot - drive base control with simulated or feetech hardware"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}
}

// loadConfig reads the configuration file, falling back to the defaults
// when there is none.
func loadConfig() (*robot.Config, error) {
	if opts.Config == "" {
		opts.Config = robot.DefaultConfigFile
	}
	if !robot.ConfigExists(opts.Config) {
		fmt.Fprintf(os.Stderr, "%s not found, using the default configuration\n", opts.Config)
		return robot.DefaultConfig(), nil
	}
	return robot.LoadConfigFrom(opts.Config)
}

type InitCommand struct {
	Force bool `short:"f" long:"force" description:"Overwrite an existing file"`
}

func (c *InitCommand) Execute(args []string) error {
	if robot.ConfigExists(opts.Config) && !c.Force {
		return fmt.Errorf("%s exists, use --force to overwrite", opts.Config)
	}
	if err := robot.DefaultConfig().SaveTo(opts.Config); err != nil {
		return err
	}
	fmt.Println(successStyle.Render("Configuration written to " + opts.Config))
	return nil
}
