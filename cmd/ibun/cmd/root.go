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
	opts    bunutil.BunOptions
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ibun (-x | -c) [flags] structFilePath collection",
	Short: "Extract a struct file into a collection, or bundle a collection into a struct file",
	Long: `ibun -x extracts the struct file at structFilePath and registers every
entry under collection. Entries that already exist are skipped unless -f is
given. -b registers entries in batches.

ibun -c packs the data objects under collection into a new struct file
registered at structFilePath. An existing object is only replaced with -f.

Relative paths are taken against MCBUN_CWD from ~/.mcbun/env.`,
	Args: cobra.ExactArgs(2),
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
		_, err = bunutil.BunUtil(context.Background(), s, opts, args[0], args[1])
	}

	var usageErr *bunutil.UsageError
	switch {
	case err == nil:
	case errors.As(err, &usageErr):
		fmt.Fprintf(os.Stderr, "ibun: %s\n", usageErr)
		_ = cmd.Usage()
	default:
		fmt.Fprintln(os.Stderr, bunutil.FailureMessage("ibun", err))
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
	rootCmd.Flags().BoolVarP(&opts.Extract, "extract", "x", false, "extract the struct file and register its entries")
	rootCmd.Flags().BoolVarP(&opts.Create, "create", "c", false, "bundle the collection into a struct file")
	rootCmd.Flags().BoolVarP(&opts.Bulk, "bulk", "b", false, "register extracted entries in batches of 50")
	rootCmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "overwrite existing data objects")
	rootCmd.Flags().StringVarP(&opts.Resource, "resource", "R", "", "target resource")
	rootCmd.Flags().StringVarP(&opts.DataType, "data-type", "D", "", "struct file data type: tar, gzipTar, zstdTar or lz4Tar")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log progress")
	rootCmd.Flags().StringVar(&envPath, "env", bunutil.DefaultEnvPath, "client environment file")
}
