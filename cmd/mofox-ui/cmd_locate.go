package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"mofox-ui/pkg/startup"
)

// locateReport is the output of `mofox-ui locate`.
type locateReport struct {
	OK       bool     `json:"ok" yaml:"ok"`
	Message  string   `json:"message" yaml:"message"`
	Bot      string   `json:"bot" yaml:"bot"`
	Model    string   `json:"model" yaml:"model"`
	Napcat   string   `json:"napcat" yaml:"napcat"`
	BotRoot  string   `json:"bot_root" yaml:"bot_root"`
	Log      string   `json:"log" yaml:"log"`
	Layout   string   `json:"layout" yaml:"layout"`
	Searched string   `json:"search_root" yaml:"search_root"`
	Warnings []string `json:"warnings" yaml:"warnings"`
}

func newReport(st *startup.State) locateReport {
	return locateReport{
		OK:       st.OK(),
		Message:  st.Message(),
		Bot:      st.Paths.Bot,
		Model:    st.Paths.Model,
		Napcat:   st.Paths.Napcat,
		BotRoot:  st.Paths.BotRoot,
		Log:      st.LogPath,
		Layout:   string(st.Paths.Convention),
		Searched: st.Paths.SearchRoot,
		Warnings: st.Warnings,
	}
}

func newLocateCmd(v *viper.Viper) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "locate",
		Short: "Run discovery and print the resolved paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			state, err := discover(v, slog.New(slog.DiscardHandler))
			if err != nil {
				return err
			}
			if err := writeReport(cmd.OutOrStdout(), format, newReport(state)); err != nil {
				return err
			}
			if !state.OK() {
				return state.Err
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text|json|yaml.")
	return cmd
}

func writeReport(w io.Writer, format string, r locateReport) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(r)
	case "text", "":
		rows := []struct{ name, value string }{
			{"bot", r.Bot},
			{"model", r.Model},
			{"napcat", r.Napcat},
			{"bot_root", r.BotRoot},
			{"log", r.Log},
			{"layout", r.Layout},
			{"search_root", r.Searched},
		}
		for _, row := range rows {
			value := row.value
			if value == "" {
				value = "-"
			}
			if _, err := fmt.Fprintf(w, "%-12s %s\n", row.name, value); err != nil {
				return err
			}
		}
		for _, warn := range r.Warnings {
			if _, err := fmt.Fprintf(w, "warning      %s\n", warn); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
	}
}
