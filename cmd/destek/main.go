// Command destek classifies tickets and manages the association store
// from the command line. Results are written to stdout as JSON.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/spf13/pflag"

	"github.com/cognicore/destek/internal/logging"
	"github.com/cognicore/destek/pkg/destek"
	"github.com/cognicore/destek/pkg/destek/config"
	"github.com/cognicore/destek/pkg/destek/store"
)

const usage = `Usage: destek [global flags] <command> [flags] [args]

Commands:
  analyze <text>                  classify a ticket
  explain <text>                  classify a ticket and explain the scores
  learn [--category ID] [--department ID] [--personnel ID] <text>
                                  confirm a classification
  suggest --kind KIND <text>      propose a new entity name if nothing fits
  create --kind KIND <name>       add a category, department or staff member
  list --kind KIND                list entities of a kind
  seed <file.yaml>                create entities and learn their keywords
  stats                           keyword spread over the associations

Global flags:
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if err != pflag.ErrHelp {
			fmt.Fprintln(os.Stderr, "destek:", err)
		}
		stop()
		os.Exit(1)
	}
}

type globalFlags struct {
	config   string
	driver   string
	dsn      string
	logLevel string
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var g globalFlags
	flags := pflag.NewFlagSet("destek", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.SetInterspersed(false)
	flags.StringVarP(&g.config, "config", "c", "", "YAML config file (default $DESTEK_CONFIG)")
	flags.StringVar(&g.driver, "store", "", "store driver: memory, sqlite or postgres")
	flags.StringVar(&g.dsn, "dsn", "", "sqlite file path or postgres URL")
	flags.StringVar(&g.logLevel, "log-level", "", "debug, info, warn or error")
	flags.Usage = func() {
		fmt.Fprint(stderr, usage)
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return err
	}
	rest := flags.Args()
	if len(rest) == 0 {
		flags.Usage()
		return pflag.ErrHelp
	}

	cmd, ok := commands[rest[0]]
	if !ok {
		return fmt.Errorf("unknown command %q", rest[0])
	}

	cfg, err := loadConfig(g)
	if err != nil {
		return err
	}
	logger := slog.New(logging.NewHandler(stderr, cfg.Log.Format, logging.ParseLevel(cfg.Log.Level)))

	opts, err := destek.OptionsFromConfig(ctx, cfg)
	if err != nil {
		return err
	}
	opts.Logger = logger
	engine := destek.New(opts)
	defer engine.Close()

	env := &cmdEnv{
		engine: engine,
		logger: logger,
		stdout: stdout,
		stderr: stderr,
	}
	return cmd(ctx, env, rest[1:])
}

func loadConfig(g globalFlags) (config.Config, error) {
	cfg, err := config.Load(g.config)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if g.driver != "" {
		cfg.Store.Driver = g.driver
	}
	if g.dsn != "" {
		cfg.Store.DSN = g.dsn
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

type cmdEnv struct {
	engine *destek.Engine
	logger *slog.Logger
	stdout io.Writer
	stderr io.Writer
}

func (e *cmdEnv) writeJSON(v any) error {
	enc := json.NewEncoder(e.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (e *cmdEnv) flagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(e.stderr)
	return fs
}

type command func(ctx context.Context, env *cmdEnv, args []string) error

var commands = map[string]command{
	"analyze": analyzeCmd,
	"explain": explainCmd,
	"learn":   learnCmd,
	"suggest": suggestCmd,
	"create":  createCmd,
	"list":    listCmd,
	"seed":    seedCmd,
	"stats":   statsCmd,
}

func textArg(args []string) (string, error) {
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		return "", fmt.Errorf("ticket text required")
	}
	return text, nil
}

func analyzeCmd(ctx context.Context, env *cmdEnv, args []string) error {
	text, err := textArg(args)
	if err != nil {
		return err
	}
	res, err := env.engine.Analyze(ctx, text)
	if err != nil {
		return err
	}
	return env.writeJSON(res)
}

func explainCmd(ctx context.Context, env *cmdEnv, args []string) error {
	text, err := textArg(args)
	if err != nil {
		return err
	}
	report, err := env.engine.Explain(ctx, text)
	if err != nil {
		return err
	}
	return env.writeJSON(report)
}

func learnCmd(ctx context.Context, env *cmdEnv, args []string) error {
	fs := env.flagSet("learn")
	category := fs.Int64("category", 0, "confirmed category id")
	department := fs.Int64("department", 0, "confirmed department id")
	personnel := fs.Int64("personnel", 0, "confirmed staff member id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	text, err := textArg(fs.Args())
	if err != nil {
		return err
	}

	req := destek.LearnRequest{Text: text}
	if fs.Changed("category") {
		req.CategoryID = category
	}
	if fs.Changed("department") {
		req.DepartmentID = department
	}
	if fs.Changed("personnel") {
		req.PersonnelID = personnel
	}

	fb, err := env.engine.Learn(ctx, req)
	if err != nil {
		return err
	}
	return env.writeJSON(fb)
}

func kindFlag(fs *pflag.FlagSet) *string {
	return fs.StringP("kind", "k", "", "category, department or personnel")
}

func parseKindFlag(fs *pflag.FlagSet, v string) (store.Kind, error) {
	if !fs.Changed("kind") {
		return 0, fmt.Errorf("--kind required")
	}
	return store.ParseKind(v)
}

func suggestCmd(ctx context.Context, env *cmdEnv, args []string) error {
	fs := env.flagSet("suggest")
	kindName := kindFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	kind, err := parseKindFlag(fs, *kindName)
	if err != nil {
		return err
	}
	text, err := textArg(fs.Args())
	if err != nil {
		return err
	}

	s, err := env.engine.SuggestNewEntity(ctx, kind, text)
	if err != nil {
		return err
	}
	return env.writeJSON(s)
}

func createCmd(ctx context.Context, env *cmdEnv, args []string) error {
	fs := env.flagSet("create")
	kindName := kindFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	kind, err := parseKindFlag(fs, *kindName)
	if err != nil {
		return err
	}

	ent, err := env.engine.CreateEntity(ctx, kind, strings.Join(fs.Args(), " "))
	if err != nil {
		return err
	}
	return env.writeJSON(ent)
}

func listCmd(ctx context.Context, env *cmdEnv, args []string) error {
	fs := env.flagSet("list")
	kindName := kindFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	kind, err := parseKindFlag(fs, *kindName)
	if err != nil {
		return err
	}

	list, err := env.engine.Entities(ctx, kind)
	if err != nil {
		return err
	}
	return env.writeJSON(list)
}

func statsCmd(ctx context.Context, env *cmdEnv, _ []string) error {
	report, err := env.engine.Stats(ctx)
	if err != nil {
		return err
	}
	return env.writeJSON(report)
}

// seedSummary counts what a seed run did per kind.
type seedSummary struct {
	Kind        store.Kind `json:"kind"`
	Created     int        `json:"created"`
	Existing    int        `json:"existing"`
	NewKeywords int        `json:"new_keywords"`
}

// seedCmd creates every entity named in a seed file that does not exist
// yet (names compared case-insensitively) and learns its keyword list
// once. Running it twice doubles the weights.
func seedCmd(ctx context.Context, env *cmdEnv, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: destek seed <file.yaml>")
	}
	seed, err := config.LoadSeed(args[0])
	if err != nil {
		return fmt.Errorf("load seed: %w", err)
	}

	summaries := make([]seedSummary, 0, len(store.Kinds))
	for _, kind := range store.Kinds {
		sum := seedSummary{Kind: kind}
		entries := seed.For(kind)
		if len(entries) == 0 {
			summaries = append(summaries, sum)
			continue
		}

		existing, err := env.engine.Entities(ctx, kind)
		if err != nil {
			return err
		}
		byName := make(map[string]int64, len(existing))
		for _, ent := range existing {
			byName[strings.ToLower(ent.Name)] = ent.ID
		}

		names := make([]string, 0, len(entries))
		for name := range entries {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			id, ok := byName[strings.ToLower(strings.TrimSpace(name))]
			if ok {
				sum.Existing++
			} else {
				ent, err := env.engine.CreateEntity(ctx, kind, name)
				if err != nil {
					return err
				}
				id = ent.ID
				sum.Created++
			}

			text := strings.Join(entries[name], " ")
			if strings.TrimSpace(text) == "" {
				continue
			}
			req := destek.LearnRequest{Text: text}
			switch kind {
			case store.Category:
				req.CategoryID = &id
			case store.Department:
				req.DepartmentID = &id
			case store.Personnel:
				req.PersonnelID = &id
			}
			fb, err := env.engine.Learn(ctx, req)
			if err != nil {
				return fmt.Errorf("seed %s %q: %w", kind, name, err)
			}
			sum.NewKeywords += fb.NewKeywords
		}
		env.logger.Info("seeded", "kind", kind, "created", sum.Created, "existing", sum.Existing)
		summaries = append(summaries, sum)
	}
	return env.writeJSON(summaries)
}
