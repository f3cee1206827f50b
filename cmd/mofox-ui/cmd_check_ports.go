package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mofox-ui/pkg/portprobe"
)

func newCheckPortsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-ports PORT...",
		Short: "Report whether local TCP ports are free",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ports, err := parsePorts(args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, port := range ports {
				status, err := portprobe.Probe(port)
				if err != nil {
					fmt.Fprintf(out, "%d\t%s\t(%v)\n", port, status, err)
					continue
				}
				fmt.Fprintf(out, "%d\t%s\n", port, status)
			}
			return nil
		},
	}
}

func parsePorts(args []string) ([]int, error) {
	ports := make([]int, 0, len(args))
	for _, a := range args {
		p, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("invalid port %q", a)
		}
		ports = append(ports, p)
	}
	return ports, nil
}
