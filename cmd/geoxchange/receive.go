package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/untillpro/goutils/logger"

	"github.com/godeepar/geoxchange/interchange"
)

func newReceiveCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "receive <graph.json>",
		Short: "Convert an interchange graph into files, one per located layer",
		Long:  "Reads the graph from the file, or from stdin when the file is -, and writes GeoJSON, XYZ or multipatch shapefiles into the output directory.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			root, err := interchange.Decode(r)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}

			cancel, stop := watch(cmd.Context())
			defer stop()
			a := cfg.Assembler(nil)
			a.Ctx = a.Ctx.WithCancel(cancel)
			// GeoJSON has no arcs
			a.Curves = false

			layers, report := a.ReceiveGraph(root)
			for _, l := range layers {
				path, err := writeLayer(dir, l)
				if err != nil {
					report.Addf(l.Name, nil, "not written: %v", err)
					continue
				}
				logger.Info(fmt.Sprintf("layer %s written to %s", l.Name, path))
			}
			printReport(cmd.ErrOrStderr(), report)
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "Output directory")
	return cmd
}
