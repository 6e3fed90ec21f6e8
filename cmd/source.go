package cmd

import (
	"errors"

	"github.com/alec-rabold/shieldspy/pkg/shieldfile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var bucket, key string

func addSourceFlags(c *cobra.Command) {
	c.Flags().StringVarP(&bucket, "bucket", "b", "", "name of the S3 bucket holding the archive")
	c.Flags().StringVarP(&key, "key", "k", "", "name of the S3 key (object) of the archive")
}

// sourceArgs splits args into the archive source and the remaining
// positional arguments. Without -b/-k the first argument is the archive path.
func sourceArgs(args []string) (shieldfile.Source, []string, error) {
	src := shieldfile.Source{BlockSize: viper.GetInt64("s3-block-size")}
	if bucket != "" || key != "" {
		src.Bucket, src.Key = bucket, key
	} else {
		if len(args) == 0 {
			return src, nil, errors.New("no archive given")
		}
		src.Path, args = args[0], args[1:]
	}
	return src, args, src.Validate()
}

func newExtractor(src shieldfile.Source, opts ...shieldfile.Option) *shieldfile.FileExtractor {
	opts = append([]shieldfile.Option{shieldfile.WithRegion(viper.GetString("region"))}, opts...)
	return shieldfile.NewFileExtractor(src, opts...)
}
