// Command rtkbase drives a u-blox base-station receiver through survey-in
// or fixed-position time mode and streams RTCM3 corrections to rover
// clients over UDP broadcast.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/muexxl/rtkbase/internal/applog"
	"github.com/muexxl/rtkbase/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var flags config.Flags
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "rtkbase",
		Short: "RTK GNSS base-station controller",
		RunE: func(cmd *cobra.Command, args []string) error {
			applyViperOverlay(v, cmd, &flags)
			return run(flags)
		},
		SilenceUsage: true,
	}

	pf := cmd.Flags()
	pf.StringVarP(&flags.OutputPositions, "output_positions", "o", "", "enter output_positions mode, logging fixes to PATH")
	pf.StringVarP(&flags.AssistanceFile, "assistance_file", "a", "", "enable the AssistNow task, writing the blob to PATH")
	pf.StringVarP(&flags.TimeDifference, "time_difference", "t", "", "enable the time-difference estimator, writing to PATH")
	pf.StringVarP(&flags.SurveyIn, "survey_in", "s", config.DefaultSurveyIn, "survey-in parameters \"MIN_DUR,ACC_M\"")
	pf.StringVarP(&flags.Location, "location", "l", "", "fixed location \"lat,lon,height,acc\" or an Antennas.loc name")
	pf.StringVar(&flags.TokenFile, "token-file", "", "AssistNow vendor token file (default ~/.keys/ublox_token.txt)")
	pf.StringVar(&flags.AntennasFile, "antennas-file", config.DefaultAntennasFile, "antenna location CSV")
	pf.StringVar(&flags.LogLevel, "log-level", "info", "logrus level (debug, info, warn, error)")
	pf.BoolVar(&flags.LogJSON, "log-json", false, "emit logs as JSON instead of text")

	// -o/-a/-t take an optional value, defaulting to the documented file
	// when given bare, matching the Python original's nargs="?".
	pf.Lookup("output_positions").NoOptDefVal = config.DefaultPositionsFile
	pf.Lookup("assistance_file").NoOptDefVal = config.DefaultAssistanceFile
	pf.Lookup("time_difference").NoOptDefVal = config.DefaultTimeDifferenceFile

	v.SetEnvPrefix("RTKBASE")
	v.AutomaticEnv()
	_ = v.BindPFlags(pf)

	return cmd
}

// applyViperOverlay lets an RTKBASE_* environment variable fill in one of
// the string flags listed below when the user did not pass it on the
// command line. No config file is read.
func applyViperOverlay(v *viper.Viper, cmd *cobra.Command, flags *config.Flags) {
	overlay := func(name string, dst *string) {
		if cmd.Flags().Changed(name) {
			return
		}
		if val := v.GetString(name); val != "" {
			*dst = val
		}
	}
	overlay("output_positions", &flags.OutputPositions)
	overlay("assistance_file", &flags.AssistanceFile)
	overlay("time_difference", &flags.TimeDifference)
	overlay("survey_in", &flags.SurveyIn)
	overlay("location", &flags.Location)
	overlay("token-file", &flags.TokenFile)
	overlay("log-level", &flags.LogLevel)
}

func run(flags config.Flags) error {
	cfg, err := config.New(flags)
	if err != nil {
		return err
	}

	log, err := applog.New(cfg.LogLevel, cfg.LogJSON)
	if err != nil {
		return err
	}

	return runController(cfg, log)
}
