package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/materials-commons/mcbun/pkg/bunutil"
	"github.com/materials-commons/mcbun/pkg/clog"
	"github.com/spf13/cobra"
)

var (
	envPath string
	verbose bool
	opts    bunutil.PhyBunOptions
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "iphybun -R resource [flags] collection ...",
	Short: "Pack the data objects of collections into bundle files",
	Long: `iphybun walks each collection and packs its data objects into tar
bundles of at most 512 members (-N) and 4 GiB. Bundles are written to the
cache resource given by -R, or to the first cache member of a resource group,
and registered under /<zone>/bundle. Every member gets a bundleResc replica
pointing at its bundle.`,
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(run(cmd, args))
	},
}

func run(cmd *cobra.Command, args []string) int {
	level := "error"
	if verbose {
		level = "info"
	}
	_, _ = clog.Setup(os.Stderr, level)

	env, err := bunutil.LoadEnv(envPath)
	if err == nil {
		s := bunutil.NewSession(env, 0)
		_, err = bunutil.PhyBunUtil(context.Background(), s, opts, args)
	}

	var usageErr *bunutil.UsageError
	switch {
	case err == nil:
	case errors.As(err, &usageErr):
		fmt.Fprintf(os.Stderr, "iphybun: %s\n", usageErr)
		_ = cmd.Usage()
	case errors.Is(err, bunutil.ErrNoInput):
		fmt.Fprintf(os.Stderr, "iphybun: %s\n", err)
	default:
		fmt.Fprintln(os.Stderr, bunutil.FailureMessage("iphybun", err))
	}

	return bunutil.ExitCode(err)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(bunutil.ExitUsage)
	}
}

func init() {
	rootCmd.Flags().StringVarP(&opts.Resource, "resource", "R", "", "cache resource, or resource group with a cache member, to hold the bundles (required)")
	rootCmd.Flags().StringVarP(&opts.SrcResource, "src-resource", "S", "", "only bundle replicas on this resource")
	rootCmd.Flags().IntVarP(&opts.MaxSubFiles, "max-sub-files", "N", 0, "maximum members per bundle (default 512)")
	rootCmd.Flags().BoolVarP(&opts.VerifyChecksum, "checksum", "k", false, "compute and store a checksum of each bundle")
	rootCmd.Flags().StringVarP(&opts.DataType, "data-type", "D", "", "bundle data type: tar, gzipTar, zstdTar or lz4Tar")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log progress")
	rootCmd.Flags().StringVar(&envPath, "env", bunutil.DefaultEnvPath, "client environment file")
}
