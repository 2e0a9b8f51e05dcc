package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/hipsterbrown/feetech-servo/feetech"
	"github.com/pkg/errors"
	"go.bug.st/serial"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type ScanCommand struct {
	MaxID    int  `long:"max-id" default:"20" description:"Highest servo id to probe"`
	BaudRate int  `long:"baud" default:"1000000" description:"Bus baud rate"`
	Save     bool `long:"save" description:"Store the chosen port in the configuration"`
}

type busInfo struct {
	port   string
	servos []feetech.FoundServo
}

func (c *ScanCommand) Execute(args []string) error {
	fmt.Println(headerStyle.Render("cyclebot scan"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━"))
	fmt.Println()

	buses, err := c.findBuses()
	if err != nil {
		return err
	}
	if len(buses) == 0 {
		fmt.Println("No feetech servos found.")
		fmt.Println("Make sure the bus adapter is connected and the servos are powered.")
		return nil
	}

	rows := make([][]string, 0, len(buses))
	for _, b := range buses {
		ids := make([]string, len(b.servos))
		for i, s := range b.servos {
			ids[i] = strconv.Itoa(s.ID)
		}
		rows = append(rows, []string{b.port, strconv.Itoa(len(b.servos)), strings.Join(ids, ", ")})
	}
	fmt.Println(table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Port", "Servos", "IDs").
		Rows(rows...).
		Render())

	if !c.Save {
		return nil
	}

	port := buses[0].port
	if len(buses) > 1 {
		var options []huh.Option[string]
		for _, b := range buses {
			options = append(options, huh.NewOption(fmt.Sprintf("%s (%d servos)", b.port, len(b.servos)), b.port))
		}
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title("Which bus drives the robot?").
					Options(options...).
					Value(&port),
			),
		)
		if err := form.Run(); err != nil {
			return err
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Feetech.Port = port
	cfg.Feetech.BaudRate = c.BaudRate
	if err := cfg.SaveTo(opts.Config); err != nil {
		return err
	}
	fmt.Println(successStyle.Render(fmt.Sprintf("Feetech bus %s saved to %s", port, opts.Config)))
	return nil
}

// findBuses probes every serial port for servos with ids 1 to MaxID.
func (c *ScanCommand) findBuses() ([]busInfo, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, errors.Wrap(err, "list serial ports")
	}

	var buses []busInfo
	for _, port := range ports {
		// Skip Bluetooth ports on macOS
		if strings.Contains(port, "Bluetooth") {
			continue
		}

		bus, err := feetech.NewBus(feetech.BusConfig{
			Port:     port,
			BaudRate: c.BaudRate,
			Protocol: feetech.ProtocolSTS,
			Timeout:  100 * time.Millisecond,
		})
		if err != nil {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		servos, err := bus.Scan(ctx, 1, c.MaxID)
		cancel()
		bus.Close()

		if err != nil || len(servos) == 0 {
			continue
		}
		fmt.Printf("  Found %d servo(s) on %s\n", len(servos), port)
		buses = append(buses, busInfo{port: port, servos: servos})
	}
	return buses, nil
}
