package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/nesciens/levitation"
	"github.com/nesciens/levitation/internal/cliconfig"
)

const helpBanner = `
 _            _ _        _   _
| | _____   _(_) |_ __ _| |_(_) ___  _ __
| |/ _ \ \ / / | __/ _` + "`" + ` | __| |/ _ \| '_ \
| |  __/\ V /| | || (_| | |_| | (_) | | | |
|_|\___| \_/ |_|\__\__,_|\__|_|\___/|_| |_|
`

const helpDescription = `
Convert a MediaWiki full-history XML dump into a git fast-import stream,
one commit per revision.

Highlights:
  - Keeps the original author, timestamp, edit comment and minor flag on
    every commit, with machine-readable trailers for page and revision ids.
  - Streams: memory stays flat no matter how large the dump is.
  - Interrupted runs resume; already-converted dump parts are skipped.
  - Pipe the output straight into git fast-import.

Pages are read from the part files given as arguments, or from stdin when
none are given. Decompress first; levitation reads plain XML.
`

var longHelp = strings.TrimSpace(helpBanner) + "\n\n" + strings.TrimSpace(helpDescription)

var exampleUsage = strings.TrimSpace(`
  git init --bare wiki.git
  bunzip2 -c dump.xml.bz2 | levitation | GIT_DIR=wiki.git git fast-import
  levitation --max-pages -1 part-000.xml part-001.xml > history.fi
  levitation --only-blobs --follow parts/*.xml
  levitation clean
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string
	var sum levitation.Summary

	log := cliconfig.Logger()

	root := &cobra.Command{
		Use:     "levitation [parts...]",
		Short:   "Convert a MediaWiki XML dump into a git fast-import stream",
		Long:    longHelp,
		Example: exampleUsage,
		Args:    cobra.ArbitraryArgs,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Parts = args

			// Load config file first (default $HOME/.levitation/config.toml),
			// then env, then flag overrides via the changed map.
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}

			// Environment variables (LEVITATION_*) override file config but
			// are overridden by flags.
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			log.Info().Interface("config", cfg).Msg("configuration")

			libCfg := levitation.Config{
				Parts:        cfg.Parts,
				WorkDir:      cfg.WorkDir,
				MarksPath:    cfg.Marks,
				MaxPages:     cfg.MaxPages,
				Depth:        cfg.Depth,
				Branch:       cfg.Branch,
				Committer:    cfg.Committer,
				OnlyBlobs:    cfg.OnlyBlobs,
				Resume:       cfg.Resume,
				Strict:       cfg.Strict,
				Overwrite:    cfg.Overwrite,
				Follow:       cfg.Follow,
				PollInterval: cfg.PollInterval,
			}

			// Cancel the run on SIGINT/SIGTERM. State is durable at part
			// granularity, so a canceled run resumes cleanly.
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)
			go func() {
				<-sigCh
				log.Info().Msg("received signal, stopping...")
				cancel()
			}()

			var err error
			sum, err = levitation.Run(ctx, libCfg, levitation.WithLogger(log))
			return err
		},
	}

	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.levitation/config.toml)")
	root.Flags().StringVar(&cfg.WorkDir, "workdir", cfg.WorkDir, "working directory for index, progress and mark files")
	root.Flags().StringVar(&cfg.Marks, "marks", cfg.Marks, "backend mark table (default: <workdir>/marks.git)")

	root.Flags().IntVarP(&cfg.MaxPages, "max-pages", "m", cfg.MaxPages, "maximum pages to import this run, -1 for no limit")
	root.Flags().IntVarP(&cfg.Depth, "deepness", "d", cfg.Depth, "shard directory depth of generated paths")

	root.Flags().StringVar(&cfg.Branch, "branch", cfg.Branch, "ref the commits are built on")
	root.Flags().StringVarP(&cfg.Committer, "committer", "c", cfg.Committer, "committer identity as 'Name <email>'")

	root.Flags().BoolVar(&cfg.OnlyBlobs, "only-blobs", cfg.OnlyBlobs, "stop after depositing blobs; build commits in a later run")
	root.Flags().BoolVar(&cfg.Resume, "resume", cfg.Resume, "skip parts recorded complete by earlier runs")
	root.Flags().BoolVar(&cfg.Strict, "strict", cfg.Strict, "abort on structural dump errors instead of flagging the page")
	root.Flags().BoolVar(&cfg.Overwrite, "overwrite", cfg.Overwrite, "discard all recorded state before the run")
	root.Flags().BoolVar(&cfg.Follow, "follow", cfg.Follow, "keep watching the parts directory for new parts")
	root.Flags().DurationVar(&cfg.PollInterval, "poll", cfg.PollInterval, "directory sweep interval in follow mode")

	root.AddCommand(cleanCommand(log))

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("levitation")
		os.Exit(1)
	}
	if !sum.Complete() {
		log.Warn().
			Int("revisions_skipped", sum.SkippedRevisions).
			Int("pages_incomplete", len(sum.IncompletePages)).
			Msg("conversion finished partially")
		os.Exit(2)
	}
}
