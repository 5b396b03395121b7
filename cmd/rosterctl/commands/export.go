package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"rollcall/internal/domain"
	"rollcall/internal/services/export"
	"rollcall/internal/services/students"
)

func newExportCmd(opts *options) *cobra.Command {
	var (
		format      string
		out         string
		concurrency int
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Writes the roster enriched with platform stats to a spreadsheet.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			f, err := domain.ParseExportFormat(format)
			if err != nil {
				return fmt.Errorf("%w: %q", err, format)
			}
			if out == "" {
				out = "students_enriched." + string(f)
			}
			if concurrency < 1 {
				concurrency = opts.cfg.ExportConcurrency
			}

			store, err := opts.loadRoster()
			if err != nil {
				return err
			}
			svc := students.New(store, opts.badgeClient(), opts.statsClient())
			exporter := export.New(svc, concurrency, opts.logger)

			file, err := os.Create(out)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := file.Close(); err == nil {
					err = cerr
				}
				if err != nil {
					_ = os.Remove(out)
				}
			}()

			stderr := cmd.ErrOrStderr()
			progress := func(done, total int) {
				dim.Fprintf(stderr, "\r%d/%d", done, total)
				if done == total {
					fmt.Fprintln(stderr)
				}
			}
			if err := exporter.Export(cmd.Context(), store.Current(), f, file, progress); err != nil {
				return err
			}
			good.Fprintf(cmd.OutOrStdout(), "wrote %d students to %s\n", store.Current().Roster.Len(), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "xlsx", "output format: xlsx or csv")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default students_enriched.<format>)")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 0, "rows fetched in parallel (defaults to EXPORT_CONCURRENCY)")
	return cmd
}
