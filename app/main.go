package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/vkuzmin/chromesift/app/aggregate"
	"github.com/vkuzmin/chromesift/app/bookmarks"
	"github.com/vkuzmin/chromesift/app/cfg"
	"github.com/vkuzmin/chromesift/app/export"
	"github.com/vkuzmin/chromesift/app/history"
	"github.com/vkuzmin/chromesift/app/logger"
	"github.com/vkuzmin/chromesift/app/merge"
	"github.com/vkuzmin/chromesift/app/policy"
	"github.com/vkuzmin/chromesift/app/profile"
	"github.com/vkuzmin/chromesift/app/report"
	"github.com/vkuzmin/chromesift/app/usage"
)

func main() {
	appCfg, err := cfg.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	log := logger.New(appCfg.LogLevel, true)
	defer log.Sync()

	log.Debug("Configuration loaded",
		logger.String("command", appCfg.Command),
		logger.String("profile", appCfg.Profile),
		logger.String("version", appCfg.Version))

	switch appCfg.Command {
	case "profiles":
		err = runProfiles()
	case "analyze":
		err = runAnalyze(appCfg, log)
	case "export":
		err = runExport(appCfg, log)
	case "merge-history":
		err = runMerge(appCfg, log)
	default:
		err = fmt.Errorf("no command given, see --help")
	}
	if err != nil {
		log.Fatal("Command failed", logger.Error(err))
	}
}

func runProfiles() error {
	profiles, err := profile.Discover()
	if err != nil {
		return err
	}
	if len(profiles) == 0 {
		fmt.Println("No Chrome profiles found.")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tDISPLAY NAME\tPATH")
	for _, p := range profiles {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Name, p.DisplayName, p.Path)
	}
	return tw.Flush()
}

func runAnalyze(appCfg *cfg.Cfg, log logger.Logger) error {
	p, err := buildPolicy(appCfg, appCfg.Analyze.SelectionOpts, nil)
	if err != nil {
		return err
	}

	root, store, err := loadProfileData(appCfg.Profile, log)
	if err != nil {
		return err
	}

	records := usage.Correlate(root, store)
	selected := p.Evaluate(records)
	log.Debug("Selection evaluated",
		logger.Int("records", len(records)),
		logger.Int("selected", len(selected)))

	if p.UnusedOnly {
		report.Unused(os.Stdout, root, policy.SelectionSet(selected), p.Top)
		return nil
	}

	groups := aggregate.Top(aggregate.Run(selected, p), p.Top)
	report.Sites(os.Stdout, groups)
	return nil
}

func runExport(appCfg *cfg.Cfg, log logger.Logger) error {
	opts := appCfg.Export
	p, err := buildPolicy(appCfg, opts.SelectionOpts, opts.IncludeUnvisited)
	if err != nil {
		return err
	}

	root, store, err := loadProfileData(appCfg.Profile, log)
	if err != nil {
		return err
	}

	records := usage.Correlate(root, store)
	selected := p.Evaluate(records)
	groups := aggregate.Top(aggregate.Run(selected, p), p.Top)
	plan := export.NewPlan(root, policy.SelectionSet(selected), groups)

	if opts.Count {
		report.ExportPreview(os.Stdout, plan)
		return nil
	}

	if err := os.MkdirAll(opts.Output, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	bookmarkFile := "bookmarks.html"
	if p.UnusedOnly {
		bookmarkFile = "unused_bookmarks.html"
	}
	if plan.Kept != nil {
		path := filepath.Join(opts.Output, bookmarkFile)
		if err := writeFile(path, func(f *os.File) error {
			return export.WriteNetscape(f, plan.Kept)
		}); err != nil {
			return err
		}
		log.Info("Wrote bookmark file",
			logger.String("path", path),
			logger.Int("bookmarks", plan.KeptCount()))
	} else {
		log.Warn("No bookmarks matched the selection, skipping bookmark file")
	}

	if len(plan.Groups) > 0 {
		csvPath := filepath.Join(opts.Output, "top_sites.csv")
		if err := writeFile(csvPath, func(f *os.File) error {
			return export.CSV(f, plan.Groups)
		}); err != nil {
			return err
		}
		jsonPath := filepath.Join(opts.Output, "top_sites.json")
		if err := writeFile(jsonPath, func(f *os.File) error {
			return export.JSON(f, plan.Groups, time.Now())
		}); err != nil {
			return err
		}
		log.Info("Wrote ranked site lists",
			logger.String("csv", csvPath),
			logger.String("json", jsonPath),
			logger.Int("sites", len(plan.Groups)))
	}

	fmt.Printf("Exported %d bookmarks to %s\n", plan.KeptCount(), opts.Output)
	return nil
}

func runMerge(appCfg *cfg.Cfg, log logger.Logger) error {
	opts := appCfg.Merge

	source, ok := profile.Find(opts.Args.Source)
	if !ok {
		return fmt.Errorf("source profile not found: %s", opts.Args.Source)
	}
	target, ok := profile.Find(opts.Args.Target)
	if !ok {
		return fmt.Errorf("target profile not found: %s", opts.Args.Target)
	}
	if source.Path == target.Path {
		return fmt.Errorf("source and target are the same profile: %s", source.Name)
	}

	sourceSnap, err := history.Snapshot(source.HistoryPath())
	if err != nil {
		return fmt.Errorf("failed to snapshot source history: %w", err)
	}
	defer os.Remove(sourceSnap)

	targetSnap, fresh, err := snapshotOrCreate(target.HistoryPath())
	if err != nil {
		return fmt.Errorf("failed to snapshot target history: %w", err)
	}
	defer os.Remove(targetSnap)
	if fresh {
		log.Info("Target has no history database, starting from an empty one",
			logger.String("profile", target.Name))
	}

	sourceStore, err := history.Load(sourceSnap)
	if err != nil {
		return err
	}
	targetStore, err := history.Load(targetSnap)
	if err != nil {
		return err
	}

	res := merge.Compute(sourceStore, targetStore)
	report.MergePlan(os.Stdout, source.DisplayName, target.DisplayName, res.Diff)

	if res.Diff.Inserted == 0 && res.Diff.Updated == 0 {
		fmt.Println("Nothing to merge.")
		return nil
	}
	if opts.DryRun {
		fmt.Println("Dry run, no changes applied.")
		return nil
	}

	if !opts.Yes && !confirm("Apply this merge? Chrome must be closed. [y/N] ") {
		fmt.Println("Merge cancelled.")
		return nil
	}

	sourceDB, err := history.Open(sourceSnap)
	if err != nil {
		return err
	}
	defer sourceDB.Close()
	targetDB, err := history.Open(targetSnap)
	if err != nil {
		return err
	}

	if err := merge.Commit(targetDB, sourceDB, res); err != nil {
		targetDB.Close()
		if errors.Is(err, merge.ErrMergeAborted) {
			log.Error("Merge aborted, target history untouched", logger.Error(err))
		}
		return err
	}
	if err := targetDB.Close(); err != nil {
		return fmt.Errorf("failed to finalize merged database: %w", err)
	}

	if err := history.Replace(target.HistoryPath(), targetSnap); err != nil {
		return err
	}

	log.Info("Merge complete",
		logger.String("source", source.Name),
		logger.String("target", target.Name),
		logger.Int("inserted", res.Diff.Inserted),
		logger.Int("updated", res.Diff.Updated))
	fmt.Printf("Merged %d new and %d updated URLs into %s\n",
		res.Diff.Inserted, res.Diff.Updated, target.DisplayName)
	return nil
}

// buildPolicy merges command flags with the optional pattern file and
// pins the evaluation time for the whole run.
func buildPolicy(appCfg *cfg.Cfg, opts cfg.SelectionOpts, includeUnvisited []string) (policy.Policy, error) {
	sets, err := cfg.LoadPatternSets(appCfg.PatternFile)
	if err != nil {
		return policy.Policy{}, err
	}
	return opts.Policy(sets, includeUnvisited, time.Now())
}

// loadProfileData parses the profile's Bookmarks file and loads its
// History database from a private snapshot, so a running browser never
// blocks the analysis.
func loadProfileData(name string, log logger.Logger) (bookmarks.Node, *history.Store, error) {
	prof, ok := profile.Find(name)
	if !ok {
		return nil, nil, fmt.Errorf("profile not found: %s (try the profiles command)", name)
	}
	log.Debug("Using profile",
		logger.String("name", prof.Name),
		logger.String("path", prof.Path))

	f, err := os.Open(prof.BookmarksPath())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open bookmarks file: %w", err)
	}
	root, err := bookmarks.Parse(f)
	f.Close()
	if err != nil {
		return nil, nil, err
	}

	snap, err := history.Snapshot(prof.HistoryPath())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to snapshot history: %w", err)
	}
	defer os.Remove(snap)

	store, err := history.Load(snap)
	if err != nil {
		return nil, nil, err
	}
	log.Debug("Profile data loaded",
		logger.Int("bookmarks", bookmarks.Count(root)),
		logger.Int("history urls", store.Len()))
	return root, store, nil
}

// snapshotOrCreate snapshots an existing History database, or builds an
// empty one with the Chrome schema when the profile has none yet.
func snapshotOrCreate(path string) (snap string, fresh bool, err error) {
	if _, statErr := os.Stat(path); statErr == nil {
		snap, err = history.Snapshot(path)
		return snap, false, err
	} else if !os.IsNotExist(statErr) {
		return "", false, statErr
	}

	tmp, err := os.CreateTemp("", "chromesift-history-*.db")
	if err != nil {
		return "", false, err
	}
	tmp.Close()

	db, err := history.Open(tmp.Name())
	if err != nil {
		os.Remove(tmp.Name())
		return "", false, err
	}
	defer db.Close()
	if err := history.EnsureSchema(db); err != nil {
		os.Remove(tmp.Name())
		return "", false, err
	}
	return tmp.Name(), true, nil
}

func confirm(prompt string) bool {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
