package cfg

// SelectionOpts are the policy flags shared by the analyze and export
// commands.
type SelectionOpts struct {
	Days            int      `short:"d" long:"days" description:"Only include history from the last N days (0 = unlimited)"`
	Include         []string `short:"i" long:"include" description:"Only include URLs matching pattern (repeatable)"`
	Exclude         []string `short:"x" long:"exclude" description:"Exclude URLs matching pattern (repeatable)"`
	BookmarkedOnly  bool     `short:"B" long:"bookmarked-only" description:"Only keep sites that are bookmarked"`
	Unused          bool     `short:"U" long:"unused" description:"Keep only bookmarks never visited within the window"`
	Aggregate       string   `short:"a" long:"aggregate" choice:"url" choice:"domain" description:"Aggregate all results by base URL or by domain"`
	AggregateURL    []string `long:"aggregate-url" description:"Force per-URL grouping for domains matching pattern (repeatable)"`
	AggregateDomain []string `long:"aggregate-domain" description:"Force per-domain grouping for domains matching pattern (repeatable)"`
	Top             int      `short:"t" long:"top" description:"Limit ranked results (0 = no limit)"`
}

// AnalyzeCmd shows the usage report for a profile.
type AnalyzeCmd struct {
	SelectionOpts
}

// ExportCmd writes the selective export artifacts.
type ExportCmd struct {
	SelectionOpts
	Output           string   `short:"o" long:"output" default:"./chromesift-export" description:"Output directory"`
	IncludeUnvisited []string `long:"include-unvisited" description:"Also export unvisited bookmarks matching pattern (repeatable)"`
	Count            bool     `short:"c" long:"count" description:"Preview per-folder counts without writing any files"`
}

// MergeCmd merges one profile's history into another.
type MergeCmd struct {
	DryRun bool `short:"n" long:"dry-run" description:"Compute the merge without modifying anything"`
	Yes    bool `short:"y" long:"yes" description:"Skip the confirmation prompt"`
	Args   struct {
		Source string `positional-arg-name:"SOURCE" description:"Profile to copy history from"`
		Target string `positional-arg-name:"TARGET" description:"Profile to merge history into"`
	} `positional-args:"true" required:"true"`
}

// ProfilesCmd lists the Chrome profiles found on this machine.
type ProfilesCmd struct{}

// Cfg is the fully-parsed configuration for one invocation.
type Cfg struct {
	Command string

	Profile     string
	PatternFile string
	LogLevel    string
	Debug       bool
	Version     string

	Analyze  AnalyzeCmd
	Export   ExportCmd
	Merge    MergeCmd
	Profiles ProfilesCmd
}
