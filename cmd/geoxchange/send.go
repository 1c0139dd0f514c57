package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/godeepar/geoxchange/host"
)

func newSendCmd() *cobra.Command {
	var output, name string
	cmd := &cobra.Command{
		Use:   "send <file>...",
		Short: "Convert GeoJSON, shapefile or XYZ layers into an interchange graph",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			layers := make([]*host.Layer, 0, len(args))
			for _, path := range args {
				l, err := readLayer(path, cfg.Source)
				if err != nil {
					return err
				}
				layers = append(layers, l)
			}
			mem := host.NewMemory(layers...)

			cancel, stop := watch(cmd.Context())
			defer stop()
			a := cfg.Assembler(host.Reprojector(mem))
			a.Ctx = a.Ctx.WithCancel(cancel)
			if a.Elevation == nil {
				// elevation sources may be other inputs of the same run
				a.Elevation = mem
			}

			nodes, report, err := sendLayers(a, layers)
			if err != nil {
				return err
			}
			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			if err := writeNode(w, collection(name, nodes)); err != nil {
				return err
			}
			printReport(cmd.ErrOrStderr(), report)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file, stdout when empty")
	cmd.Flags().StringVar(&name, "name", "geoxchange", "Name of the root collection")
	return cmd
}
