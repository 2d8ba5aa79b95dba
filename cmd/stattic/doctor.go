package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-stattic/internal/config"
	"github.com/alnah/go-stattic/internal/hints"
	"github.com/alnah/go-stattic/internal/process"
)

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status     string          `json:"status"` // "ready", "warnings", "errors"
	Config     configInfo      `json:"config"`
	Converters []converterInfo `json:"converters"`
	Env        envInfo         `json:"environment"`
	System     systemInfo      `json:"system"`
	Warnings   []string        `json:"warnings,omitempty"`
	Errors     []string        `json:"errors,omitempty"`
}

// configInfo describes the configuration doctor checked against.
type configInfo struct {
	Path   string `json:"path,omitempty"` // empty when running on defaults
	Output string `json:"output"`
	Valid  bool   `json:"valid"`
}

// converterInfo describes one external image tool.
type converterInfo struct {
	Name    string `json:"name"`
	Allowed bool   `json:"allowed"`
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	Container bool   `json:"container"`
	CI        bool   `json:"ci"`
}

// systemInfo holds system check results.
type systemInfo struct {
	OutputWritable bool `json:"output_writable"`
	TempWritable   bool `json:"temp_writable"`
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found.
func runDoctorCmd(args []string, env *Environment) int {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	jsonOutput := fs.Bool("json", false, "output JSON")
	configPath := fs.StringP("config", "c", "", "config file path")
	fs.Usage = func() { printDoctorUsage(env.Stderr) }
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		fmt.Fprintf(env.Stderr, "Error: %v\n", err)
		return ExitUsage
	}

	result := runDoctor(env, *configPath)

	if *jsonOutput {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == "errors" {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(env *Environment, configPath string) *doctorResult {
	result := &doctorResult{
		Status: "ready",
		Env: envInfo{
			OS:   runtime.GOOS,
			Arch: runtime.GOARCH,
		},
	}

	cfg := checkConfig(result, env, configPath)
	checkConverters(result, env, cfg)
	checkEnvironment(result)
	checkSystem(result, cfg)

	// Determine final status
	if len(result.Errors) > 0 {
		result.Status = "errors"
	} else if len(result.Warnings) > 0 {
		result.Status = "warnings"
	}

	return result
}

// checkConfig loads the site config. On failure the defaults are used
// for the remaining checks.
func checkConfig(result *doctorResult, env *Environment, explicit string) *config.Config {
	if explicit != "" {
		explicit = inDir(env.Dir, explicit)
	}
	cfg, path, err := config.Resolve(explicit, env.Dir)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Config: %v", err))
		cfg = config.DefaultConfig()
	} else {
		result.Config.Valid = true
		result.Config.Path = path
		if path == "" {
			result.Warnings = append(result.Warnings,
				"No config file found, using defaults. Run \"stattic init\" to create one")
		}
	}
	resolvePaths(cfg, env.Dir)
	result.Config.Output = cfg.Output
	return cfg
}

// checkConverters reports the external image tools the config allows.
// A missing tool is a warning: builds fall back to the native converter.
func checkConverters(result *doctorResult, env *Environment, cfg *config.Config) {
	lookPath := env.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	runner := process.NewRunner(cfg.Security.AllowedBinaries, process.WithLookPath(lookPath))

	for _, name := range config.KnownBinaries {
		info := converterInfo{Name: name, Allowed: runner.Allowed(name)}
		if info.Allowed && runner.Available(name) {
			info.Found = true
			info.Path, _ = lookPath(name)
		}
		result.Converters = append(result.Converters, info)

		if info.Allowed && !info.Found {
			hint := strings.TrimPrefix(hints.ForConverterMissing(name), "\n  hint: ")
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s not found: %s", name, hint))
		}
	}
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(result *doctorResult) {
	result.Env.Container = hints.IsInContainer() || os.Getenv("KUBERNETES_SERVICE_HOST") != ""

	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}
	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}
}

// checkSystem verifies the output and temp directories accept files.
func checkSystem(result *doctorResult, cfg *config.Config) {
	if dir := nearestExisting(cfg.Output); dir == "" || !writable(dir) {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Output directory not writable: %s", cfg.Output))
	} else {
		result.System.OutputWritable = true
	}

	tmpDir := os.TempDir()
	if !writable(tmpDir) {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Temp directory not writable: %s", tmpDir))
	} else {
		result.System.TempWritable = true
	}
}

// nearestExisting returns dir or its closest existing ancestor, which is
// where the build would create the output tree.
func nearestExisting(dir string) string {
	p, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}
	for {
		if info, err := os.Stat(p); err == nil {
			if !info.IsDir() {
				return ""
			}
			return p
		}
		parent := filepath.Dir(p)
		if parent == p {
			return ""
		}
		p = parent
	}
}

func writable(dir string) bool {
	f, err := os.CreateTemp(dir, ".stattic-doctor-*")
	if err != nil {
		return false
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return true
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "stattic doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Config")
	switch {
	case !r.Config.Valid:
		fmt.Fprintln(w, "  [ERROR] Invalid (defaults used for the checks below)")
	case r.Config.Path == "":
		fmt.Fprintln(w, "  [OK] Defaults (no config file)")
	default:
		fmt.Fprintf(w, "  [OK] Loaded %s\n", r.Config.Path)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Image converters")
	for _, c := range r.Converters {
		switch {
		case !c.Allowed:
			fmt.Fprintf(w, "  [OK] %s: disabled by security.allowed_binaries\n", c.Name)
		case c.Found:
			fmt.Fprintf(w, "  [OK] %s: %s\n", c.Name, c.Path)
		default:
			fmt.Fprintf(w, "  [WARN] %s: not found (native fallback)\n", c.Name)
		}
	}
	fmt.Fprintln(w, "  [OK] native: webp, png, jpeg, gif, bmp, tiff")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintln(w, "  [OK] Container: detected")
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "System")
	if r.System.OutputWritable {
		fmt.Fprintf(w, "  [OK] Output directory: writable (%s)\n", r.Config.Output)
	} else {
		fmt.Fprintf(w, "  [ERROR] Output directory: not writable (%s)\n", r.Config.Output)
	}
	if r.System.TempWritable {
		fmt.Fprintln(w, "  [OK] Temp directory: writable")
	} else {
		fmt.Fprintln(w, "  [ERROR] Temp directory: not writable")
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case "ready":
		fmt.Fprintln(w, "Status: Ready to build")
	case "warnings":
		fmt.Fprintln(w, "Status: Ready with warnings")
	case "errors":
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
