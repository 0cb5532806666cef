// Package cli implements the command line subcommands besides serve.
package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/mrlokans/videoanalyzer/internal/auth"
	"github.com/mrlokans/videoanalyzer/internal/config"
)

const hiddenValue = "[HIDDEN]"

// sensitiveMarkers flag environment variables whose values are never printed.
var sensitiveMarkers = []string{"KEY", "SECRET", "PASSWORD", "TOKEN"}

// CheckEnvCommand prints the resolved configuration without revealing secrets.
type CheckEnvCommand struct {
	ShowAll bool

	Out      io.Writer
	Config   *config.Config
	Environ  func() []string
	LookPath func(file string) (string, error)
}

func NewCheckEnvCommand() *CheckEnvCommand {
	return &CheckEnvCommand{
		Out:      os.Stdout,
		Environ:  os.Environ,
		LookPath: exec.LookPath,
	}
}

func (cmd *CheckEnvCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("check-env", flag.ContinueOnError)
	fs.BoolVar(&cmd.ShowAll, "all", false, "List every environment variable, masking secrets")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s check-env [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Print the resolved configuration and authentication mode.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *CheckEnvCommand) Run() error {
	cfg := cmd.Config
	if cfg == nil {
		cfg = config.NewConfig()
	}
	out := cmd.Out

	mode := auth.ResolveMode(cfg.Auth, cfg.Deployment, cfg.Global.Environment)

	fmt.Fprintln(out, "=== Environment Check ===")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Environment:          %s\n", valueOr(cfg.Global.Environment, "(unset)"))
	fmt.Fprintf(out, "Listen address:       %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
	fmt.Fprintf(out, "Database path:        %s\n", cfg.Database.Path)
	fmt.Fprintf(out, "Static path:          %s\n", cfg.UI.StaticPath)

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Authentication:")
	fmt.Fprintf(out, "- Mode:               %s\n", mode.Mode)
	fmt.Fprintf(out, "- AUTH_MODE:          %s\n", valueOr(cfg.Auth.Mode, "(unset)"))
	fmt.Fprintf(out, "- Managed deployment: %t\n", mode.ManagedDeployment)
	fmt.Fprintf(out, "- Mode switching:     %t\n", mode.SwitchingAllowed)
	fmt.Fprintf(out, "- Session days:       %d\n", mode.SessionDays)
	fmt.Fprintf(out, "- Session store:      %s\n", cfg.Auth.Store)
	fmt.Fprintf(out, "- Secure cookies:     %t\n", mode.SecureCookies)
	fmt.Fprintf(out, "- API_KEY set:        %t\n", cfg.Auth.APIKey != "")
	if mode.Bypass() {
		fmt.Fprintln(out, "  WARNING: development mode disables authentication")
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "YouTube:")
	fmt.Fprintf(out, "- YOUTUBE_API_KEY set: %t\n", cfg.YouTube.APIKey != "")
	if path, err := cmd.LookPath(cfg.YouTube.YtDlpPath); err != nil {
		fmt.Fprintf(out, "- yt-dlp:              %s (not found)\n", cfg.YouTube.YtDlpPath)
	} else {
		fmt.Fprintf(out, "- yt-dlp:              %s\n", path)
	}

	if cmd.ShowAll {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "All environment variables:")
		for _, line := range MaskedEnviron(cmd.Environ()) {
			fmt.Fprintf(out, "- %s\n", line)
		}
	}

	return nil
}

// MaskedEnviron returns KEY: value lines sorted by name, hiding the values of
// variables whose name contains KEY, SECRET, PASSWORD or TOKEN.
func MaskedEnviron(environ []string) []string {
	lines := make([]string, 0, len(environ))
	for _, kv := range environ {
		name, value, _ := strings.Cut(kv, "=")
		if IsSensitive(name) {
			value = hiddenValue
		}
		lines = append(lines, name+": "+value)
	}
	sort.Strings(lines)
	return lines
}

// IsSensitive reports whether an environment variable name looks like it holds a secret.
func IsSensitive(name string) bool {
	upper := strings.ToUpper(name)
	for _, marker := range sensitiveMarkers {
		if strings.Contains(upper, marker) {
			return true
		}
	}
	return false
}

func valueOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
