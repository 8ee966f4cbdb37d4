package cli

import (
	"fmt"
	"io/fs"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ciphernotes/shell/internal/assets"
	"github.com/ciphernotes/shell/web"
)

func newResolveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve PATH...",
		Short: "Show how request paths resolve against the bundle",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			var bundle fs.FS = web.Bundle()
			if cfg.Shell.AssetDir != "" {
				bundle = os.DirFS(cfg.Shell.AssetDir)
			}
			router := assets.NewRouter(bundle,
				assets.WithRoot(cfg.Shell.AssetRoot),
				assets.WithIndex(cfg.Shell.IndexDocument),
			)

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PATH\tMIME\tENCODING\tSIZE")
			for _, p := range args {
				res, ok := router.Resolve(p)
				if !ok {
					fmt.Fprintf(tw, "%s\t-\t-\tnot found\n", p)
					continue
				}
				enc := res.Encoding
				if enc == "" {
					enc = "-"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", p, res.MimeType, enc, res.Size)
				res.Close()
			}
			return tw.Flush()
		},
	}
	addShellFlags(cmd)
	return cmd
}
