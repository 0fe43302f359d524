package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"questdb/internal/config"
	"questdb/internal/filewalker"
	"questdb/internal/merge"
	"questdb/internal/parser"
	"questdb/internal/schema"
	"questdb/internal/store"
	"questdb/internal/validate"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// ErrIssuesFound is returned when a command completed but left findings
// that need attention. It maps to exit status 1.
var ErrIssuesFound = errors.New("unresolved issues found")

// Exit statuses.
const (
	exitClean  = 0
	exitIssues = 1
	exitFatal  = 2
)

// Execute runs the CLI application.
func Execute() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg := config.Load()
	zerolog.SetGlobalLevel(cfg.LogLevel)

	ctx, cancel := setupContext()
	err := newRootCmd(cfg).ExecuteContext(ctx)
	cancel()

	os.Exit(exitCode(err))
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitClean
	case errors.Is(err, ErrIssuesFound):
		log.Warn().Msg(err.Error())
		return exitIssues
	default:
		log.Error().Err(err).Msg("Command failed")
		return exitFatal
	}
}

// app carries configuration and persistent flags shared by every command.
type app struct {
	cfg        *config.Config
	verbose    bool
	all        bool
	policyPath string
	kind       string
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	a := &app{cfg: cfg}

	rootCmd := &cobra.Command{
		Use:   "questdb",
		Short: "Validate, repair and merge positional Lua quest and NPC databases",
		Long: `Curation toolkit for Questie-style Lua databases.
Checks record shape against the quest and NPC schemas, repairs misplaced
fields, merges contributed databases, cross-checks quest givers against the
NPC table and harvests submissions from GitHub issues.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if a.verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	flags.BoolVar(&a.all, "all", false, "List every finding instead of a sample per group")
	flags.StringVar(&a.policyPath, "policy", cfg.PolicyFile, "YAML repair policy file (built-in policy when empty)")
	flags.StringVar(&a.kind, "kind", "", "Record kind: quest or npc (inferred from the file name when empty)")

	rootCmd.AddCommand(a.validateCmd())
	rootCmd.AddCommand(a.fixCmd())
	rootCmd.AddCommand(a.dedupeCmd())
	rootCmd.AddCommand(a.mergeCmd())
	rootCmd.AddCommand(a.compareCmd())
	rootCmd.AddCommand(a.xrefCmd())
	rootCmd.AddCommand(a.exportGraphCmd())
	rootCmd.AddCommand(a.npcCmd())
	rootCmd.AddCommand(a.harvestCmd())
	rootCmd.AddCommand(a.migrateCmd())
	rootCmd.AddCommand(a.runsCmd())

	return rootCmd
}

// setupContext creates a cancellable context with signal handling.
func setupContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			log.Warn().Msg("Received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

func (a *app) policy() (schema.Policy, error) {
	return schema.LoadPolicy(a.policyPath)
}

func (a *app) mergePolicy() (merge.Policy, error) {
	p, err := a.policy()
	if err != nil {
		return merge.Policy{}, err
	}
	return merge.NewPolicy(p.Placeholders)
}

// kindFlag returns the --kind override, empty when unset.
func (a *app) kindFlag() (schema.Kind, error) {
	switch k := schema.Kind(a.kind); k {
	case "", schema.KindQuest, schema.KindNPC:
		return k, nil
	default:
		return "", fmt.Errorf("unknown kind %q (want quest or npc)", a.kind)
	}
}

// kindOf resolves the kind of path from --kind or the file name.
func (a *app) kindOf(path string) (schema.Kind, error) {
	k, err := a.kindFlag()
	if err != nil || k != "" {
		return k, err
	}
	return filewalker.InferKind(path), nil
}

func (a *app) table(kind schema.Kind) string {
	if kind == schema.KindNPC {
		return a.cfg.NPCTable
	}
	return a.cfg.QuestTable
}

func (a *app) locate(kind schema.Kind) parser.LocateOptions {
	return parser.LocateOptions{Table: a.table(kind)}
}

func (a *app) options(kind schema.Kind, policy schema.Policy) (validate.Options, error) {
	s, err := schema.ForKind(kind)
	if err != nil {
		return validate.Options{}, err
	}
	if err := policy.Validate(s); err != nil {
		return validate.Options{}, fmt.Errorf("policy: %w", err)
	}
	return validate.Options{
		Schema:     s,
		Policy:     policy,
		Table:      a.table(kind),
		Assignment: validate.DefaultAssignment,
	}, nil
}

// databasePaths returns args, or the configured databases when args is empty.
func (a *app) databasePaths(args []string) []string {
	if len(args) > 0 {
		return args
	}
	return []string{a.cfg.QuestDBPath, a.cfg.NPCDBPath}
}

func (a *app) openStore(ctx context.Context) (*store.Store, error) {
	if a.cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}
	return store.Open(ctx, a.cfg.DatabaseURL)
}

func (a *app) openGraph(ctx context.Context) (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext(a.cfg.Neo4jURI, neo4j.BasicAuth(a.cfg.Neo4jUser, a.cfg.Neo4jPassword, ""))
	if err != nil {
		return nil, fmt.Errorf("connect Neo4j: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("verify Neo4j connectivity: %w", err)
	}
	log.Info().Msg("Connected to Neo4j")

	return driver, nil
}
