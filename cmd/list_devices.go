package cmd

import (
	"bytes"
	"fmt"

	"github.com/achilleasa/wavefront/device"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// List available compute devices.
func ListDevices(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	platforms, err := device.GetPlatformInfo()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Platform", "Version", "Device", "Type", "Compute units", "Workgroup size"})
	for _, pl := range platforms {
		for _, dev := range pl.Devices {
			table.Append([]string{
				pl.Name,
				pl.Version,
				dev.Name,
				dev.Type.String(),
				fmt.Sprintf("%d", dev.ComputeUnits),
				fmt.Sprintf("%d", dev.WorkGroupSize),
			})
		}
	}
	table.Render()

	logger.Noticef("system provides %d platform(s)\n%s", len(platforms), buf.String())
	return nil
}
