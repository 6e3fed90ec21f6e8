package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/alec-rabold/shieldspy/pkg/aws"
	homedir "github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// VERSION is set during build
	VERSION string
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "shieldspy",
	Short: "CLI tool to list and extract files from InstallShield v3 archives, locally or in S3",
	Long: `The shieldspy CLI reads InstallShield v3 installer archives (*.Z) and
	extracts their PKWare-imploded files. Archives in S3 are read with ranged
	requests, without downloading the entire object.

	example:

		shieldspy list DATA.Z
		shieldspy extract DATA.Z out/
		shieldspy extract -b myBucket -k disk1/DATA.Z -f readme out/`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute(version string) {
	VERSION = version
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.shieldspy.yaml)")
	rootCmd.PersistentFlags().String("region", "", "AWS region of the S3 bucket (default from the AWS shared config)")
	rootCmd.PersistentFlags().String("log-level", "warning", "log level (debug, info, warning, error)")
	rootCmd.PersistentFlags().Int64("s3-block-size", aws.DefaultBlockSize, "bytes fetched per ranged S3 request")

	for _, name := range []string{"region", "log-level", "s3-block-size"} {
		if err := viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			panic(err)
		}
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".shieldspy" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".shieldspy")
	}

	viper.SetEnvPrefix("shieldspy")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	configErr := viper.ReadInConfig()

	level, err := log.ParseLevel(viper.GetString("log-level"))
	if err != nil {
		log.Warnf("unknown log level %q, using warning", viper.GetString("log-level"))
		level = log.WarnLevel
	}
	log.SetLevel(level)

	if configErr == nil {
		log.Infof("Using config file: %s", viper.ConfigFileUsed())
	}
}
