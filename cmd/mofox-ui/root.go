package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"mofox-ui/internal/appversion"
)

const envPrefix = "MOFOX_UI"

// newRootCmd creates the root command. Settings are read through v, so
// tests can run commands with an isolated configuration.
func newRootCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:           "mofox-ui",
		Short:         "MoFox bot management companion service",
		Long:          "mofox-ui finds the MoFox bot's configuration and log files next to its\ninstall directory and serves them to the management UI.",
		Version:       fmt.Sprintf("mofox-ui %s", appversion.String()),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return initConfig(v)
		},
	}
	cmd.SetVersionTemplate("{{.Version}}\n")

	pf := cmd.PersistentFlags()
	pf.String("config", "", "Config file path (optional, yaml/toml/json).")
	pf.String("log-level", "", "Logging level: debug|info|warn|error.")
	pf.String("log-format", "text", "Logging format: text|json.")
	pf.Bool("log-add-source", false, "Include source file:line in logs.")
	pf.BoolP("verbose", "v", false, "Debug logging unless --log-level is set.")
	pf.String("start-dir", "", "Path the search starts from (default: the executable). The walk begins two levels above it.")
	pf.Int("max-hops", 5, "Number of directory levels searched upward.")

	_ = v.BindPFlag("config", pf.Lookup("config"))
	_ = v.BindPFlag("logging.level", pf.Lookup("log-level"))
	_ = v.BindPFlag("logging.format", pf.Lookup("log-format"))
	_ = v.BindPFlag("logging.add_source", pf.Lookup("log-add-source"))
	_ = v.BindPFlag("verbose", pf.Lookup("verbose"))
	_ = v.BindPFlag("locate.start_dir", pf.Lookup("start-dir"))
	_ = v.BindPFlag("locate.max_hops", pf.Lookup("max-hops"))

	cmd.AddCommand(
		newServeCmd(v),
		newLocateCmd(v),
		newCheckPortsCmd(),
		newVersionCmd(),
	)
	return cmd
}

// initConfig applies environment overrides and the optional config file.
func initConfig(v *viper.Viper) error {
	v.SetDefault("server.listen", defaultListen)
	v.SetDefault("logtail.poll_interval", defaultPollInterval)
	v.SetDefault("locate.max_hops", 5)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	cfgFile := strings.TrimSpace(v.GetString("config"))
	if cfgFile == "" {
		return nil
	}
	v.SetConfigFile(cfgFile)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", cfgFile, err)
	}
	return nil
}
