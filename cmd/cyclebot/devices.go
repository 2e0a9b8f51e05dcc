package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/gwillem/cyclebot/pkg/command"
	"github.com/gwillem/cyclebot/pkg/logging"
	"github.com/gwillem/cyclebot/pkg/robot"
)

type DevicesCommand struct{}

func (c *DevicesCommand) Execute(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, closer, err := logging.New(logging.Options{Level: "warn", Console: os.Stderr})
	if err != nil {
		return err
	}
	defer closer.Close()

	hw, err := robot.OpenHardware(cfg, logger)
	if err != nil {
		return err
	}
	defer hw.Close()

	r, err := robot.New(hw, cfg, command.SystemClock{}, logger)
	if err != nil {
		return err
	}
	defer r.Close()

	rows := make([][]string, 0)
	for _, d := range r.Devices() {
		rows = append(rows, []string{d.Subsystem, d.Name, d.Description})
	}

	source := "simulated"
	if cfg.Feetech.Port != "" {
		source = "simulated, feetech on " + cfg.Feetech.Port
	}
	fmt.Println(headerStyle.Render("Devices") + " " + dimStyle.Render("("+source+")"))
	fmt.Println(table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Subsystem", "Device", "Description").
		Rows(rows...).
		Render())
	return nil
}
