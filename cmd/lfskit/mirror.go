package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bamsammich/lfskit/internal/event"
	"github.com/bamsammich/lfskit/internal/filter"
	"github.com/bamsammich/lfskit/internal/mirror"
	"github.com/bamsammich/lfskit/internal/size"
	"github.com/bamsammich/lfskit/internal/stats"
)

type mirrorFlags struct {
	branch   string
	dest     string
	apiURL   string
	token    string
	maxDepth int
	bwLimit  string
	timeout  string
	dryRun   bool

	rules      []string // "+ glob" / "- glob", in command-line order
	filterFile string
	minSize    string
	maxSize    string
}

// ruleFlag appends to a shared rule list so --include and --exclude keep
// their command-line order.
type ruleFlag struct {
	rules  *[]string
	prefix string
}

func (*ruleFlag) String() string { return "" }
func (*ruleFlag) Type() string   { return "glob" }

func (r *ruleFlag) Set(val string) error {
	*r.rules = append(*r.rules, r.prefix+val)
	return nil
}

func (a *app) newMirrorCmd() *cobra.Command {
	var f mirrorFlags

	cmd := &cobra.Command{
		Use:   "mirror [repository] [folder]",
		Short: "Download a folder of a hosted repository, recursing into subfolders",
		Long: `Download every file under a folder of a hosted repository.

The repository is given as owner/name or as a URL; a URL of the form
https://github.com/owner/name/tree/<branch>/<folder> also sets the branch
and folder. Files are written below --dest with the first segment of their
repository path removed, so docs/guide/intro.md lands at <dest>/guide/intro.md.

Existing local files are overwritten. The first listing or download error
stops the run; files written before it are kept.`,
		Example: `  lfskit mirror octo/courses "Courses/Machine Learning"
  lfskit mirror https://github.com/octo/courses/tree/main/docs --dest ./docs
  GITHUB_TOKEN=... lfskit mirror octo/private-repo data`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.mirrorConfig(cmd, args, f)
			if err != nil {
				return err
			}
			return a.execute(cmd.Context(), cfg.Dest,
				func(ctx context.Context, events chan<- event.Event, collector *stats.Collector) error {
					cfg.Events = events
					cfg.Stats = collector
					return mirror.Run(ctx, cfg).Err
				})
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.branch, "branch", "b", "", "branch, tag or commit to read (default \"main\")")
	fl.StringVarP(&f.dest, "dest", "d", "", "local directory to write into (default \".\")")
	fl.StringVar(&f.apiURL, "api-url", "", "contents API base URL (default \"https://api.github.com\")")
	fl.StringVar(&f.token, "token", "", "API token (default: $GITHUB_TOKEN)")
	fl.IntVar(&f.maxDepth, "max-depth", mirror.DefaultMaxDepth, "maximum folder nesting to descend")
	fl.StringVar(&f.bwLimit, "bwlimit", "", "download bandwidth limit (e.g. 10M, 500K)")
	fl.StringVar(&f.timeout, "timeout", "", "per-request timeout (e.g. 30s, 2m)")
	fl.BoolVar(&f.dryRun, "dry-run", false, "list what would be downloaded without writing")
	fl.Var(&ruleFlag{rules: &f.rules, prefix: "- "}, "exclude", "skip entries matching GLOB (repeatable)")
	fl.Var(&ruleFlag{rules: &f.rules, prefix: "+ "}, "include", "keep entries matching GLOB (repeatable)")
	fl.StringVar(&f.filterFile, "filter", "", "read filter rules from FILE")
	fl.StringVar(&f.minSize, "min-size", "", "skip files smaller than SIZE (e.g. 1K)")
	fl.StringVar(&f.maxSize, "max-size", "", "skip files larger than SIZE (e.g. 100M)")
	return cmd
}

// mirrorConfig resolves a mirror.Config from arguments, flags, the config
// file and the environment, in that order of precedence.
//
//nolint:gocyclo,revive // cyclomatic: one branch per layered setting
func (a *app) mirrorConfig(cmd *cobra.Command, args []string, f mirrorFlags) (mirror.Config, error) {
	mc := a.cfg.Mirror
	changed := cmd.Flags().Changed

	repoArg := ""
	if len(args) > 0 {
		repoArg = args[0]
	} else if mc.Repository != nil {
		repoArg = *mc.Repository
	}
	if repoArg == "" {
		return mirror.Config{}, errors.New("a repository is required (argument or [mirror] repository in config)")
	}
	ref, err := mirror.ParseRef(repoArg)
	if err != nil {
		return mirror.Config{}, err
	}

	cfg := mirror.Config{
		Repository: ref.Repo,
		Folder:     ref.Folder,
		Branch:     ref.Branch,
		DryRun:     f.dryRun,
		UserAgent:  "lfskit/" + version,
		MaxDepth:   f.maxDepth,
	}

	switch {
	case len(args) > 1:
		cfg.Folder = args[1]
	case cfg.Folder == "" && mc.Folder != nil:
		cfg.Folder = *mc.Folder
	}

	switch {
	case changed("branch"):
		cfg.Branch = f.branch
	case cfg.Branch == "" && mc.Branch != nil:
		cfg.Branch = *mc.Branch
	}

	cfg.Dest = pick(changed("dest"), f.dest, mc.Dest)
	cfg.APIBaseURL = pick(changed("api-url"), f.apiURL, mc.APIURL)
	cfg.Token = pick(changed("token"), f.token, mc.Token)
	if cfg.Token == "" {
		cfg.Token = os.Getenv("GITHUB_TOKEN")
	}

	if !changed("max-depth") && mc.MaxDepth != nil {
		cfg.MaxDepth = *mc.MaxDepth
	}

	if s := pick(changed("bwlimit"), f.bwLimit, mc.BWLimit); s != "" {
		cfg.BWLimit, err = size.Parse(s)
		if err != nil {
			return mirror.Config{}, fmt.Errorf("invalid --bwlimit: %w", err)
		}
	}
	if s := pick(changed("timeout"), f.timeout, mc.Timeout); s != "" {
		cfg.Timeout, err = time.ParseDuration(s)
		if err != nil {
			return mirror.Config{}, fmt.Errorf("invalid --timeout: %w", err)
		}
	}

	cfg.Filter, err = mirrorFilter(f, mc.Rules, pick(changed("max-size"), f.maxSize, mc.MaxSize))
	if err != nil {
		return mirror.Config{}, err
	}
	return cfg, nil
}

// mirrorFilter builds the filter chain: config rules first, then the filter
// file, then --include/--exclude in command-line order.
func mirrorFilter(f mirrorFlags, cfgRules []string, maxSize string) (*filter.Chain, error) {
	chain := filter.NewChain()
	for _, line := range cfgRules {
		if err := chain.AddRule(line); err != nil {
			return nil, fmt.Errorf("config [mirror] rules: %w", err)
		}
	}
	if f.filterFile != "" {
		if err := chain.LoadFile(f.filterFile); err != nil {
			return nil, err
		}
	}
	for _, line := range f.rules {
		if err := chain.AddRule(line); err != nil {
			return nil, fmt.Errorf("invalid filter %q: %w", line, err)
		}
	}

	if f.minSize != "" {
		n, err := size.Parse(f.minSize)
		if err != nil {
			return nil, fmt.Errorf("invalid --min-size: %w", err)
		}
		chain.SetMinSize(n)
	}
	if maxSize != "" {
		n, err := size.Parse(maxSize)
		if err != nil {
			return nil, fmt.Errorf("invalid --max-size: %w", err)
		}
		chain.SetMaxSize(n)
	}

	return chain, nil
}

// pick returns the flag value when the flag was set on the command line,
// else the config value, else the (default) flag value.
func pick(flagSet bool, flagVal string, cfgVal *string) string {
	if !flagSet && cfgVal != nil {
		return *cfgVal
	}
	return flagVal
}
