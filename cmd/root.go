package cmd

import (
	"log/slog"

	"github.com/Snider/Larder/pkg/logger"
	"github.com/Snider/Larder/pkg/serve"
	"github.com/Snider/Larder/pkg/ui"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// RootCmd represents the base command: serve a directory over HTTP.
var RootCmd = &cobra.Command{
	Use:   "larder [directory]",
	Short: "Serve a directory over HTTP with on-demand archive downloads",
	Long: `Larder is an HTTP file server. It serves static files, renders browsable
directory listings, and can stream any listed directory as a .tar.gz, .tar,
or .zip archive generated on the fly, without staging the archive on disk.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		root := "."
		if len(args) == 1 {
			root = args[0]
		}

		flags := cmd.Flags()
		port, _ := flags.GetString("port")
		iface, _ := flags.GetString("interface")
		enableTarGz, _ := flags.GetBool("enable-tar-gz")
		enableTar, _ := flags.GetBool("enable-tar")
		enableZip, _ := flags.GetBool("enable-zip")
		disableIndexing, _ := flags.GetBool("disable-indexing")

		cfg := serve.Config{
			Root:            root,
			Interface:       iface,
			Port:            port,
			EnableTarGz:     enableTarGz,
			EnableTar:       enableTar,
			EnableZip:       enableZip,
			DisableIndexing: disableIndexing,
		}

		log := newLogger(cmd.Flags())
		srv, err := serve.NewServer(cfg, log)
		if err != nil {
			return err
		}

		ui.Banner(cmd.OutOrStdout(), root, srv.URL())
		log.Info("server starting",
			"root", root,
			"url", srv.URL(),
			"tar_gz", enableTarGz,
			"tar", enableTar,
			"zip", enableZip,
			"indexing", !disableIndexing)
		return srv.Start()
	},
}

// Execute runs the root command. This is called by main.main().
func Execute() error {
	return RootCmd.Execute()
}

// newLogger builds the process logger from the parsed logging flags. It runs
// inside the command, after cobra has parsed argv; reading the flags any
// earlier would only ever see their defaults.
func newLogger(flags *pflag.FlagSet) *slog.Logger {
	verbose, _ := flags.GetBool("verbose")
	logJSON, _ := flags.GetBool("log-json")
	if logJSON {
		return logger.NewJSON(verbose)
	}
	return logger.New(verbose)
}

// init configures flags for the root command.
func init() {
	RootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	RootCmd.PersistentFlags().Bool("log-json", false, "Emit logs as JSON")
	RootCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	RootCmd.Flags().StringP("interface", "i", "0.0.0.0", "Interface to bind to")
	RootCmd.Flags().Bool("enable-tar-gz", false, "Enable .tar.gz archive downloads")
	RootCmd.Flags().Bool("enable-tar", false, "Enable .tar archive downloads")
	RootCmd.Flags().Bool("enable-zip", false, "Enable .zip archive downloads")
	RootCmd.Flags().Bool("disable-indexing", false, "Disable directory listings (hides archive downloads too)")
}
