package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: stattic [command] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  build      Build the site (default)")
	fmt.Fprintln(w, "  init       Create a config file and a starter site")
	fmt.Fprintln(w, "  watch      Build, then rebuild on every change")
	fmt.Fprintln(w, "  doctor     Check the system for build requirements")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'stattic help <command>' for details on a specific command.")
}

// printBuildUsage prints usage for the build and watch commands.
func printBuildUsage(w io.Writer, name string) {
	fmt.Fprintf(w, "Usage: stattic %s [flags]\n", name)
	fmt.Fprintln(w)
	if name == "watch" {
		fmt.Fprintln(w, "Build the site, then rebuild on changes under the content, templates")
		fmt.Fprintln(w, "and assets directories. Config file changes need a restart.")
	} else {
		fmt.Fprintln(w, "Build the site. Flags override the config file.")
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Paths:")
	fmt.Fprintln(w, "  -c, --config <path>       Config file (default: stattic.yml, .yaml or .json)")
	fmt.Fprintln(w, "  -o, --output <dir>        Output directory")
	fmt.Fprintln(w, "      --content <dir>       Content directory")
	fmt.Fprintln(w, "      --templates <dir>     Templates directory")
	fmt.Fprintln(w, "      --assets <dir>        Assets directory")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Site:")
	fmt.Fprintln(w, "      --site-title <s>      Site title")
	fmt.Fprintln(w, "      --site-tagline <s>    Site tagline")
	fmt.Fprintln(w, "      --site-url <url>      Absolute site URL (enables feed and sitemap)")
	fmt.Fprintln(w, "      --blog-slug <s>       Blog path segment")
	fmt.Fprintln(w, "      --posts-per-page <n>  Posts per index page")
	fmt.Fprintln(w, "      --sort-by <s>         Post order: date, title, author, order")
	fmt.Fprintln(w, "      --fonts <list>        Google Fonts families to localize")
	fmt.Fprintln(w, "      --robots <s>          robots.txt: public, private")
	fmt.Fprintln(w, "      --llms <s>            llms.txt: public, private")
	fmt.Fprintln(w, "      --drafts              Include drafts")
	fmt.Fprintln(w, "      --minify              Write .min.css and .min.js copies of assets")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Build:")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel workers (0 = auto)")
	fmt.Fprintln(w, "  -t, --timeout <d>         Global build timeout, e.g. 30s, 2m (0 = none)")
	fmt.Fprintln(w, "      --max-failures <n>    Failed entities tolerated (-1 = none)")
	fmt.Fprintln(w, "      --image-format <s>    Localized images: webp, png, jpeg")
	fmt.Fprintln(w, "      --metrics-file <path> Write Prometheus metrics after the build")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "      --log-format <s>      Log format: text, json")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show per-entity details and debug logs")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Exit codes: 0 success, 1 failure threshold exceeded, 2 usage, 3 I/O, 4 partial build.")
}

// printInitUsage prints usage for the init command.
func printInitUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: stattic init [--format yml|yaml|json]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Create a config file, templates, a stylesheet and sample content in the")
	fmt.Fprintln(w, "current directory. Existing files are never overwritten.")
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: stattic doctor [--json] [--config <path>]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check image converters, the output directory and the temp directory.")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case "build", "watch":
		printBuildUsage(env.Stdout, args[0])
	case "init":
		printInitUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: stattic version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: stattic help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
