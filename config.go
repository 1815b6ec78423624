/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Seednode/matchwheel/contact"
	"github.com/Seednode/matchwheel/insight"
	"github.com/Seednode/matchwheel/roster"
	"github.com/Seednode/matchwheel/wheel"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	bind           string
	port           int
	prefix         string
	profile        bool
	sessionTimeout time.Duration
	tlsCert        string
	tlsKey         string
	verbose        bool
	version        bool

	rosterPath  string
	title       string
	countryCode string

	apiKey         string
	model          string
	fallbackModels []string
	insightURL     string
	insightTimeout time.Duration

	spinDuration time.Duration
	minTurns     float64
	maxTurns     float64
	easing       string
	frameRate    int
	revealDelay  time.Duration

	// terminal wheel only
	self string
	mute bool
}

// Idle sessions are checked every half timeout.
const minSessionTimeout = time.Second

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if strings.TrimSpace(c.title) == "" {
		return errors.New("--title must not be empty")
	}
	if c.countryCode == "" || strings.Trim(c.countryCode, "0123456789") != "" {
		return fmt.Errorf("invalid country code (digits only): %q", c.countryCode)
	}
	if c.sessionTimeout < 0 || (c.sessionTimeout > 0 && c.sessionTimeout < minSessionTimeout) {
		return fmt.Errorf("invalid session timeout (0 to disable, otherwise at least %s): %s", minSessionTimeout, c.sessionTimeout)
	}
	if c.insightTimeout <= 0 {
		return fmt.Errorf("invalid insight timeout (must be positive): %s", c.insightTimeout)
	}
	if c.frameRate < 1 || c.frameRate > 240 {
		return fmt.Errorf("invalid frame rate (must be between 1-240 inclusive): %d", c.frameRate)
	}
	if c.revealDelay < 0 {
		return fmt.Errorf("invalid reveal delay (must not be negative): %s", c.revealDelay)
	}
	if _, ok := wheel.EasingByName(c.easing); !ok {
		return fmt.Errorf("unknown easing %q (want quart, cubic, or linear)", c.easing)
	}

	// Duration and turn bounds are checked by the engine itself.
	if _, err := wheel.New(c.wheelConfig(), zeroSource{}); err != nil {
		return err
	}

	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func (c *Config) wheelConfig() wheel.Config {
	easing, _ := wheel.EasingByName(c.easing)

	return wheel.Config{
		Duration: c.spinDuration,
		MinTurns: c.minTurns,
		MaxTurns: c.maxTurns,
		Easing:   easing,
	}
}

func (c *Config) frameInterval() time.Duration {
	return time.Second / time.Duration(c.frameRate)
}

func (c *Config) loadRoster() (*roster.Store, error) {
	if c.rosterPath == "" {
		return roster.Default()
	}
	return roster.Open(c.rosterPath)
}

func (c *Config) insightGenerator(log insight.Logger) insight.Generator {
	if c.apiKey == "" {
		return insight.Disabled{}
	}

	return insight.NewGemini(&http.Client{Timeout: c.insightTimeout}, c.apiKey, c.insightURL, c.model, c.fallbackModels, log)
}

// zeroSource lets validate build a throwaway engine.
type zeroSource struct{}

func (zeroSource) Float64() float64 { return 0 }

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) {
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		if f.Name == "api-key" {
			_ = v.BindEnv(f.Name, "MATCHWHEEL_API_KEY", "GEMINI_API_KEY", "API_KEY")
		} else {
			_ = v.BindEnv(f.Name)
		}
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("MATCHWHEEL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "matchwheel",
		Short:         "A spin-the-wheel connector that pairs members of a business network.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	spin := &cobra.Command{
		Use:   "spin",
		Short: "Spin the wheel in the terminal.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return RunTerminal(cmd.Context(), cfg)
		},
	}

	pfs := cmd.PersistentFlags()

	pfs.StringVar(&cfg.rosterPath, "roster", "", "path to a yaml, toml, or json roster; reloaded on change (env: MATCHWHEEL_ROSTER)")
	pfs.StringVar(&cfg.title, "title", "Platina Connector", "application title shown in pages and greetings (env: MATCHWHEEL_TITLE)")
	pfs.StringVar(&cfg.countryCode, "country-code", contact.DefaultCountryCode, "country code prefixed to national phone numbers (env: MATCHWHEEL_COUNTRY_CODE)")
	pfs.StringVar(&cfg.apiKey, "api-key", "", "Gemini API key; insights are disabled without one (env: MATCHWHEEL_API_KEY, GEMINI_API_KEY, API_KEY)")
	pfs.StringVar(&cfg.model, "model", insight.DefaultModel, "Gemini model used for insights (env: MATCHWHEEL_MODEL)")
	pfs.StringSliceVar(&cfg.fallbackModels, "fallback-models", nil, "models to try when the main model fails (env: MATCHWHEEL_FALLBACK_MODELS)")
	pfs.StringVar(&cfg.insightURL, "insight-url", insight.DefaultBaseURL, "base URL of the Gemini API (env: MATCHWHEEL_INSIGHT_URL)")
	pfs.DurationVar(&cfg.insightTimeout, "insight-timeout", 30*time.Second, "time allowed for one insight request (env: MATCHWHEEL_INSIGHT_TIMEOUT)")
	pfs.DurationVar(&cfg.spinDuration, "spin-duration", 5*time.Second, "length of one spin (env: MATCHWHEEL_SPIN_DURATION)")
	pfs.Float64Var(&cfg.minTurns, "min-turns", 5, "fewest full turns in a spin (env: MATCHWHEEL_MIN_TURNS)")
	pfs.Float64Var(&cfg.maxTurns, "max-turns", 8, "most full turns in a spin, exclusive and above min-turns (env: MATCHWHEEL_MAX_TURNS)")
	pfs.StringVar(&cfg.easing, "easing", "quart", "spin easing: quart, cubic, or linear (env: MATCHWHEEL_EASING)")
	pfs.IntVar(&cfg.frameRate, "frame-rate", 30, "wheel updates per second while spinning (env: MATCHWHEEL_FRAME_RATE)")
	pfs.DurationVar(&cfg.revealDelay, "reveal-delay", 500*time.Millisecond, "pause between the wheel stopping and the result (env: MATCHWHEEL_REVEAL_DELAY)")
	pfs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: MATCHWHEEL_VERBOSE)")

	fs := cmd.Flags()

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: MATCHWHEEL_BIND)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: MATCHWHEEL_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: MATCHWHEEL_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: MATCHWHEEL_PROFILE)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 60*time.Minute, "time before idle wheel sessions are ended, 0 to keep them (env: MATCHWHEEL_SESSION_TIMEOUT)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: MATCHWHEEL_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: MATCHWHEEL_TLS_KEY)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: MATCHWHEEL_VERSION)")

	sfs := spin.Flags()

	sfs.StringVar(&cfg.self, "as", "", "member ID or unique name to spin as; asks when empty (env: MATCHWHEEL_AS)")
	sfs.BoolVar(&cfg.mute, "mute", false, "disable the tick sound (env: MATCHWHEEL_MUTE)")

	bindFlags(v, pfs)
	bindFlags(v, fs)
	bindFlags(v, sfs)

	cmd.AddCommand(spin)

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("matchwheel v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
