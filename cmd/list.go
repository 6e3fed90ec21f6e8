package cmd

import (
	"context"
	"fmt"

	"github.com/alec-rabold/shieldspy/pkg/shieldfile"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var listLong, listDigest bool

var listCmd = &cobra.Command{
	Use:   "list [ARCHIVE]",
	Short: "List the files of an InstallShield v3 archive",
	Long: `Prints the full path of every file in the archive, in table of contents order.

	ex:
	shieldspy list DATA.Z
	shieldspy list --long DATA.Z
	shieldspy list --digest -b myBucket -k disk1/DATA.Z`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, rest, err := sourceArgs(args)
		if err != nil {
			cmd.Usage()
			return err
		}
		if len(rest) > 0 {
			cmd.Usage()
			return fmt.Errorf("unexpected arguments: %v", rest)
		}
		out := cmd.OutOrStdout()
		ctx := context.Background()

		if listDigest {
			x := newExtractor(src, shieldfile.WithDigest(true))
			files, err := x.ExtractFiles(ctx, nil)
			if err != nil {
				log.Debugf("error extracting files from archive (name: %s), err: %v", src, err)
				return err
			}
			for _, f := range files {
				fmt.Fprintf(out, "%s  %s\n", f.Digest, f.FullPath)
			}
			return nil
		}

		listing, err := newExtractor(src).List(ctx)
		if err != nil {
			log.Debugf("error reading archive (name: %s), err: %v", src, err)
			return err
		}
		for _, l := range listing {
			if listLong {
				fmt.Fprintf(out, "%10d %10d  %s\n", l.CompressedSize, l.DataOffset, l.FullPath)
			} else {
				fmt.Fprintln(out, l.FullPath)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	addSourceFlags(listCmd)
	listCmd.Flags().BoolVarP(&listLong, "long", "l", false, "also print compressed size and data offset")
	listCmd.Flags().BoolVar(&listDigest, "digest", false, "extract every file and print its sha256 digest")
}
