package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bamsammich/tcat/internal/catalog"
	"github.com/bamsammich/tcat/internal/ui"
)

func newDumpCmd() *cobra.Command {
	var summary bool

	cmd := &cobra.Command{
		Use:   "dump [FILE|-]",
		Short: "Verify a catalog and print its records as a listing",
		Long: `dump reads a catalog from FILE (or stdin when FILE is "-" or omitted),
checks its length and checksum, and prints one "path;DIGEST;size" line per
record in catalog order.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			name := "stdin"
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r, name = f, args[0]
			}

			c, err := catalog.Decode(bufio.NewReader(r))
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}

			w := bufio.NewWriter(cmd.OutOrStdout())
			if summary {
				fmt.Fprintf(w, "algorithm %s\nrecords   %s\nsize      %s (%d bytes)\npayload   %d bytes\nchecksum  %s\n",
					c.Algorithm,
					ui.FormatCount(int64(len(c.Records))),
					ui.FormatBytes(int64(c.TotalSize())), //nolint:gosec // G115: display only
					c.TotalSize(),
					c.Length,
					c.Checksum.Hex(),
				)
			} else {
				for _, rec := range c.Records {
					fmt.Fprintf(w, "%s;%s;%d\n", rec.Path, rec.Digest.Hex(), rec.Size)
				}
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&summary, "summary", false, "print totals instead of records")
	return cmd
}
