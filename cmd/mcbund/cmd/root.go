package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apex/log"
	"github.com/materials-commons/mcbun/pkg/clog"
	"github.com/materials-commons/mcbun/pkg/config"
	"github.com/materials-commons/mcbun/pkg/dispatch"
	"github.com/materials-commons/mcbun/pkg/mcdb"
	"github.com/materials-commons/mcbun/pkg/mcdb/stor"
	"github.com/materials-commons/mcbun/pkg/rpc"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mcbund",
	Short: "Serve struct file and bundling operations for one host",
	Long: `mcbund serves sub-file access to mounted struct files, struct file
sync and extract, extract and register, collection bundling and physical
bundling. Requests for struct files on another host are forwarded to the
peer that owns them.`,
	Run: func(cmd *cobra.Command, args []string) {
		c := config.MustLoadFromFile(cfgFile)
		if err := Run(context.Background(), c); err != nil {
			log.Fatalf("mcbund: %s", err)
		}
	},
}

func Run(ctx context.Context, c config.Configer) error {
	cfg, err := config.LoadServerConfig(c)
	if err != nil {
		return err
	}

	if _, err := clog.Setup(os.Stdout, cfg.LogLevel); err != nil {
		return err
	}

	db, err := connect(cfg)
	if err != nil {
		return err
	}

	hosts := dispatch.NewHostTable(cfg.Zone, cfg.Host, cfg.HostAliases, cfg.Peers)
	d := dispatch.New(hosts, rpc.WithAuthToken(cfg.AuthToken), rpc.WithTimeout(10*time.Minute))

	e := setupRoutes(RouteDependencies{
		cfg:   cfg,
		stors: stor.NewGormStors(db),
		d:     d,
	})

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			log.Errorf("Shutdown failed: %s", err)
		}
	}()

	log.Infof("mcbund %s (zone %s) listening on %s", cfg.Host, cfg.Zone, cfg.Listen)
	if err := e.Start(cfg.Listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func connect(cfg *config.ServerConfig) (*gorm.DB, error) {
	if cfg.SqlitePath != "" {
		log.Infof("Using sqlite catalog %s", cfg.SqlitePath)
		return mcdb.ConnectSqlite(cfg.SqlitePath)
	}

	db := mcdb.MustConnectToDB()
	if err := mcdb.RunMigrations(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVar(&cfgFile, "config", "", "config file, a .env file or anything viper reads (default is $MC_DOTENV_PATH)")
}
