package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/alec-rabold/shieldspy/pkg/shieldfile"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var files []string

var extractCmd = &cobra.Command{
	Use:   "extract [ARCHIVE] DESTINATION",
	Short: "Extract files from an InstallShield v3 archive",
	Long: `Decompresses the files of the archive below an existing destination directory.
	Backslashes in archive paths become directory separators.

	ex:
	shieldspy extract DATA.Z out/
	shieldspy extract -f readme -f .ini DATA.Z out/
	shieldspy extract -b myBucket -k disk1/DATA.Z --jobs 4 out/`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, rest, err := sourceArgs(args)
		if err != nil {
			cmd.Usage()
			return err
		}
		if len(rest) != 1 {
			cmd.Usage()
			return errors.New("please specify a destination directory")
		}
		dest := rest[0]

		x := newExtractor(src, shieldfile.WithJobs(viper.GetInt("jobs")))
		extracted, err := x.ExtractTo(context.Background(), dest, files)
		if err != nil {
			log.Debugf("error extracting files from archive (name: %s), err: %v", src, err)
			return err
		}
		out := cmd.OutOrStdout()
		for _, f := range extracted {
			fmt.Fprintln(out, f.FullPath)
			fmt.Fprintf(out, "      Compressed size: %10d\n", f.CompressedSize)
			fmt.Fprintf(out, "    Uncompressed size: %10d\n", f.Size)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
	addSourceFlags(extractCmd)
	extractCmd.Flags().StringSliceVarP(&files, "file", "f", []string{}, "extract only files whose path contains one of these terms")
	extractCmd.Flags().Int("jobs", 1, "number of files extracted concurrently")
	if err := viper.BindPFlag("jobs", extractCmd.Flags().Lookup("jobs")); err != nil {
		panic(err)
	}
}
