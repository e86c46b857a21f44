package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/maxvaer/dirscan/internal/config"
	"github.com/maxvaer/dirscan/internal/hook"
	"github.com/maxvaer/dirscan/internal/netutil"
	"github.com/maxvaer/dirscan/internal/report"
	"github.com/maxvaer/dirscan/internal/reqparse"
	"github.com/maxvaer/dirscan/internal/resume"
	"github.com/maxvaer/dirscan/internal/scanlog"
	"github.com/maxvaer/dirscan/internal/scanmodel"
	"github.com/maxvaer/dirscan/internal/session"
	"github.com/maxvaer/dirscan/internal/tui"
	"github.com/maxvaer/dirscan/pkg/version"
)

var opts config.Options

type flagGroup struct {
	title string
	flags []string
}

var helpGroups = []flagGroup{
	{"TARGET", []string{"url", "urls-file", "request-file", "wordlist", "extra-wordlist", "extensions", "force-extensions", "cidr", "ports"}},
	{"DISCOVERY", []string{"recursive", "max-depth", "detect-wildcards", "crawl", "crawl-depth"}},
	{"MATCHERS", []string{"include-status"}},
	{"FILTERS", []string{"exclude-status"}},
	{"RATE-LIMIT", []string{"threads", "timeout", "delay", "adaptive-throttle", "max-retries"}},
	{"HTTP", []string{"header", "user-agent", "random-agent", "proxy", "follow-redirects"}},
	{"OUTPUT", []string{"output", "format", "quiet", "no-color", "sort", "tree", "on-result"}},
	{"CONFIGURATION", []string{"config", "resume-file"}},
}

var rootCmd = &cobra.Command{
	Use:     "dirscan -u <url> [flags]",
	Short:   "Concurrent web path/file discovery scanner with soft-404 detection",
	Version: version.Version,
	Long: `dirscan discovers hidden paths and files on a web server by probing a
wordlist against it, automatically calibrating against soft-404 (wildcard)
responses and recursing into discovered directories.`,
	Example: `  dirscan -u https://example.com
  dirscan -u https://example.com -e php,html -t 50
  dirscan -u https://example.com -w custom.txt --detect-wildcards
  dirscan -u https://example.com -i 200,301 -o results.json --format json
  dirscan -r burp.req -e php,html
  dirscan -l urls.txt -w wordlist.txt
  dirscan --cidr 192.168.1.0/24 --ports 80,443,8080
  dirscan -u https://example.com --resume-file scan.state
  dirscan -u https://example.com --on-result "notify-send {url}"`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if err := opts.LoadFile(cmd.Flags().Changed); err != nil {
			return err
		}
		if opts.RequestFile != "" {
			parsed, err := reqparse.ParseFile(opts.RequestFile)
			if err != nil {
				return fmt.Errorf("parsing request file: %w", err)
			}
			if !cmd.Flags().Changed("url") {
				opts.URL = parsed.URL
			}
			if opts.Headers == nil {
				opts.Headers = make(map[string]string)
			}
			for key, val := range parsed.Headers {
				k := strings.ToLower(key)
				if k == "host" || k == "content-length" || k == "accept-encoding" {
					continue
				}
				if _, exists := opts.Headers[key]; !exists {
					opts.Headers[key] = val
				}
			}
			if !cmd.Flags().Changed("user-agent") {
				if ua, ok := parsed.Headers["User-Agent"]; ok {
					opts.UserAgent = ua
				}
			}
			if !opts.Quiet {
				fmt.Fprintf(os.Stderr, "[+] Loaded request from %s -> %s\n", opts.RequestFile, opts.URL)
			}
		}
		if opts.URL == "" && opts.URLsFile == "" && opts.CIDRTargets == "" {
			_ = cmd.Help()
			fmt.Fprintln(os.Stderr)
			return fmt.Errorf("target required: use -u, -l, --cidr, or --request-file")
		}
		if opts.URL != "" && !strings.HasPrefix(opts.URL, "http://") && !strings.HasPrefix(opts.URL, "https://") {
			opts.URL = "http://" + opts.URL
		}
		if len(opts.IncludeStatus) > 0 && len(opts.ExcludeStatus) > 0 {
			return fmt.Errorf("--include-status and --exclude-status are mutually exclusive")
		}
		if opts.SortBy != "" && opts.SortBy != "status" && opts.SortBy != "path" && opts.SortBy != "size" {
			return fmt.Errorf("--sort must be one of: status, path, size")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		return run(ctx, &opts)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// run executes the full CLI pipeline: target resolution, per-target
// session execution, reporting and the optional resume checkpoint.
func run(ctx context.Context, o *config.Options) error {
	targets, err := resolveTargets(o)
	if err != nil {
		return err
	}

	log := scanlog.New(os.Stderr, o.Quiet)

	for idx, target := range targets {
		if len(targets) > 1 && !o.Quiet {
			fmt.Fprintf(os.Stderr, "\n[*] Target %d/%d: %s\n", idx+1, len(targets), target)
		}
		if err := runTarget(ctx, o, target, log); err != nil {
			if ctx.Err() != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "[!] Error scanning %s: %v\n", target, err)
		}
	}
	return nil
}

func runTarget(ctx context.Context, o *config.Options, target string, log scanlog.Logger) error {
	req := o.ToScanRequest(target)

	var ckpt *resume.State
	if o.ResumeFile != "" {
		loaded, err := resume.Load(o.ResumeFile)
		if err != nil {
			return err
		}
		if loaded != nil && loaded.URL == target {
			ckpt = loaded
		} else {
			ckpt = resume.New(o.ResumeFile, target, 0)
		}
	}

	sess := session.New(req, log)

	writer, err := report.New(o.OutputFormat, o.OutputFile, o.NoColor, o.Quiet)
	if err != nil {
		return err
	}
	if o.SortBy != "" {
		writer = report.NewSortedWriter(writer, o.SortBy)
	}
	defer writer.Close()
	if err := writer.WriteHeader(); err != nil {
		return err
	}

	var hookRunner *hook.Runner
	if o.OnResultCmd != "" {
		hookRunner = hook.NewRunner(o.OnResultCmd, o.Quiet)
	}

	if ckpt != nil {
		sess.SetCandidateFilter(func(root scanmodel.ScanRoot, path string) bool {
			return !ckpt.IsCompleted(root, path)
		})
		sess.SetProbedCallback(func(root scanmodel.ScanRoot, c scanmodel.Candidate) {
			ckpt.MarkCompleted(root, c)
		})
	}

	var findings []scanmodel.Finding
	sess.SetResultCallback(func(f *scanmodel.Finding) {
		findings = append(findings, *f)
		_ = writer.WriteFinding(f)
		if hookRunner != nil {
			hookRunner.Run(f)
		}
	})

	progress := tui.NewProgress(o.Quiet)
	sess.SetProgressCallback(progress.Update)
	defer progress.Done()

	cleanupPause := tui.PauseToggle(sess.Pauser(), o.Quiet)
	defer cleanupPause()

	resp, err := sess.Execute(ctx)
	if err != nil && resp == nil {
		return err
	}

	if writeErr := writer.WriteFooter(resp.Stats); writeErr != nil && err == nil {
		err = writeErr
	}

	if o.Tree {
		report.PrintTree(os.Stderr, sess.BuildDirectoryTree(findings))
	}

	if ckpt != nil {
		if ctx.Err() != nil {
			if saveErr := ckpt.Save(); saveErr != nil {
				fmt.Fprintf(os.Stderr, "[!] could not save resume state: %v\n", saveErr)
			}
		} else {
			_ = ckpt.Remove()
		}
	}

	return err
}

// resolveTargets builds the list of URLs to scan from -u, -l, and --cidr.
func resolveTargets(o *config.Options) ([]string, error) {
	var targets []string

	if o.URL != "" {
		targets = append(targets, o.URL)
	}

	if o.URLsFile != "" {
		f, err := os.Open(o.URLsFile)
		if err != nil {
			return nil, fmt.Errorf("opening URLs file: %w", err)
		}
		defer f.Close()
		sc := bufio.NewScanner(f)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line != "" && !strings.HasPrefix(line, "#") {
				if !strings.HasPrefix(line, "http://") && !strings.HasPrefix(line, "https://") {
					line = "http://" + line
				}
				targets = append(targets, line)
			}
		}
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("reading URLs file: %w", err)
		}
	}

	if o.CIDRTargets != "" {
		scheme := "https"
		if o.URL != "" && strings.HasPrefix(o.URL, "http://") {
			scheme = "http"
		}
		cidrURLs, err := netutil.ExpandTargets(o.CIDRTargets, o.Ports, scheme)
		if err != nil {
			return nil, fmt.Errorf("expanding CIDR: %w", err)
		}
		targets = append(targets, cidrURLs...)
	}

	if len(targets) == 0 {
		return nil, fmt.Errorf("no targets specified (-u, -l, or --cidr)")
	}
	return targets, nil
}

func init() {
	f := rootCmd.Flags()

	f.StringVarP(&opts.URL, "url", "u", "", "Target URL")
	f.StringVarP(&opts.URLsFile, "urls-file", "l", "", "File with one URL per line")
	f.StringVarP(&opts.WordlistPath, "wordlist", "w", "", "Custom wordlist path (default: built-in)")
	f.StringSliceVar(&opts.ExtraWordlists, "extra-wordlist", nil, "Additional wordlist paths to merge in")
	f.StringSliceVarP(&opts.Extensions, "extensions", "e", nil, "File extensions to test (e.g. php,html,js)")
	f.BoolVarP(&opts.ForceExtensions, "force-extensions", "f", false, "Append extensions to every wordlist entry")

	f.IntVarP(&opts.Threads, "threads", "t", 25, "Number of concurrent threads")
	f.DurationVar(&opts.Timeout, "timeout", 10*time.Second, "HTTP request timeout")
	f.DurationVar(&opts.Delay, "delay", 0, "Delay between requests per thread")
	f.BoolVar(&opts.AdaptiveThrottle, "adaptive-throttle", false, "Auto back-off on 429/503 responses")
	f.IntVar(&opts.MaxRetries, "max-retries", 2, "Retries per request before reporting an error")

	f.VarP(&intSliceValue{target: &opts.IncludeStatus}, "include-status", "i", "Only show these status codes (comma-separated)")
	f.VarP(&intSliceValue{target: &opts.ExcludeStatus}, "exclude-status", "x", "Hide these status codes (comma-separated, default 404)")

	f.StringVarP(&opts.OutputFile, "output", "o", "", "Output file path")
	f.StringVar(&opts.OutputFormat, "format", "text", "Output format: text, json, csv")
	f.BoolVarP(&opts.Quiet, "quiet", "q", false, "Minimal output")
	f.BoolVar(&opts.NoColor, "no-color", false, "Disable colored output")
	f.StringVar(&opts.SortBy, "sort", "", "Sort results: status, path, size (buffers until scan completes)")
	f.BoolVar(&opts.Tree, "tree", false, "Print directory tree summary after scan")

	f.BoolVar(&opts.Recursive, "recursive", false, "Enable recursive scanning into discovered directories")
	f.IntVarP(&opts.MaxDepth, "max-depth", "R", 3, "Maximum recursion depth (0 = engine default cap)")
	f.BoolVar(&opts.DetectWildcards, "detect-wildcards", true, "Calibrate against soft-404 wildcard responses")

	f.StringVar(&opts.ResumeFile, "resume-file", "", "File to save/load scan progress for resume")
	f.StringVar(&opts.ConfigFile, "config", "", "Path to a JSON/YAML/TOML config file layered under flags")

	f.StringVar(&opts.CIDRTargets, "cidr", "", "CIDR range to scan (e.g. 192.168.1.0/24)")
	f.StringVar(&opts.Ports, "ports", "", "Ports for CIDR targets (comma-separated, e.g. 80,443,8080)")

	f.StringVarP(&opts.RequestFile, "request-file", "r", "", "Raw HTTP request file (e.g. Burp Suite export)")
	f.StringSliceVarP(new([]string), "header", "H", nil, "Custom headers (Key: Value)")
	f.StringVar(&opts.UserAgent, "user-agent", "", "Custom User-Agent string")
	f.BoolVar(&opts.RandomUA, "random-agent", false, "Pick a random User-Agent per scan from a built-in pool")
	f.StringVar(&opts.Proxy, "proxy", "", "HTTP/SOCKS proxy URL")
	f.BoolVar(&opts.FollowRedirects, "follow-redirects", false, "Follow HTTP redirects")

	f.BoolVar(&opts.Crawl, "crawl", true, "Crawl discovered HTML pages for additional path candidates")
	f.IntVar(&opts.CrawlDepth, "crawl-depth", 2, "Maximum crawl depth (link-following hops)")

	f.StringVar(&opts.OnResultCmd, "on-result", "", "Shell command to run for each result (receives JSON on stdin)")

	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		w := os.Stderr
		fmt.Fprint(w, helpBanner(cmd.Version))
		fmt.Fprintf(w, "%s\n\nUsage:\n  %s\n", cmd.Long, cmd.UseLine())
		fmt.Fprintf(w, "\nExamples:\n%s\n", cmd.Example)
		fmt.Fprintf(w, "\nFlags:\n")
		for _, g := range helpGroups {
			fmt.Fprintf(w, "\n%s:\n", g.title)
			for _, name := range g.flags {
				if fl := cmd.Flags().Lookup(name); fl != nil {
					fmt.Fprintln(w, formatFlag(fl))
				}
			}
		}
		fmt.Fprintln(w)
	})

	rootCmd.PreRunE = chainPreRun(rootCmd.PreRunE, func(cmd *cobra.Command, args []string) error {
		headers, _ := f.GetStringSlice("header")
		if len(headers) > 0 {
			if opts.Headers == nil {
				opts.Headers = make(map[string]string, len(headers))
			}
			for _, h := range headers {
				parts := strings.SplitN(h, ":", 2)
				if len(parts) != 2 {
					return fmt.Errorf("invalid header format %q, expected 'Key: Value'", h)
				}
				opts.Headers[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
			}
		}
		return nil
	})
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func chainPreRun(first, second func(*cobra.Command, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if first != nil {
			if err := first(cmd, args); err != nil {
				return err
			}
		}
		return second(cmd, args)
	}
}

// intSliceValue implements pflag.Value for comma-separated int slices.
type intSliceValue struct {
	target *[]int
}

func (v *intSliceValue) String() string {
	if v.target == nil || len(*v.target) == 0 {
		return ""
	}
	parts := make([]string, len(*v.target))
	for i, val := range *v.target {
		parts[i] = strconv.Itoa(val)
	}
	return strings.Join(parts, ",")
}

func (v *intSliceValue) Set(s string) error {
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return fmt.Errorf("invalid status code %q: %w", p, err)
		}
		*v.target = append(*v.target, n)
	}
	return nil
}

func (v *intSliceValue) Type() string { return "ints" }

func formatFlag(f *pflag.Flag) string {
	var left string
	if f.Shorthand != "" {
		left = fmt.Sprintf("-%s, --%s", f.Shorthand, f.Name)
	} else {
		left = fmt.Sprintf("    --%s", f.Name)
	}

	typ := f.Value.Type()
	if typ != "bool" {
		left += " " + typ
	}

	const col = 36
	for len(left) < col {
		left += " "
	}

	right := f.Usage
	def := f.DefValue
	if def != "" && def != "false" && def != "0" && def != "0s" && def != "[]" {
		right += fmt.Sprintf(" (default %s)", def)
	}

	return "   " + left + right
}

func helpBanner(ver string) string {
	if ver != "dev" && ver != "" && !strings.HasPrefix(ver, "v") {
		ver = "v" + ver
	}
	return fmt.Sprintf(`
     _____ __
    / ___// /_  ___________________ _____
    \__ \/ __ \/ ___/ ___/ ___/ __ '/ __ \
   ___/ / / / / /__(__  ) /__/ /_/ / / / /
  /____/_/ /_/\___/____/\___/\__,_/_/ /_/   %s

`, ver)
}
