// Command attune runs the relational conversation core: an interactive
// chat REPL over the orchestration pipeline.
package main

import (
	"bufio"
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"attune/internal/advisory"
	"attune/internal/agents"
	"attune/internal/cache"
	"attune/internal/config"
	"attune/internal/consult"
	"attune/internal/logging"
	"attune/internal/memory"
	"attune/internal/orchestrator"
	"attune/internal/repair"
	"attune/internal/rupture"
	"attune/internal/safety"
	"attune/internal/training"
	"attune/internal/types"
)

var version = "0.3.0"

var (
	flagConfig string
	flagUser   string
)

func main() {
	root := &cobra.Command{
		Use:   "attune",
		Short: "Relational conversation core",
		Long:  "attune routes conversation turns through safety, rupture repair, and a small ensemble of relational agents.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flagConfig)
			if err != nil {
				return err
			}
			if err := logging.Init(cfg.Logging.Level, cfg.Logging.JSON); err != nil {
				return fmt.Errorf("failed to initialize logging: %w", err)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&flagConfig, "config", "c", "attune.yaml", "config file path")

	chatCmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive conversation",
		RunE:  runChat,
	}
	chatCmd.Flags().StringVarP(&flagUser, "user", "u", "local", "user id for memory and typology")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("attune %s\n", version)
		},
	}

	root.AddCommand(chatCmd, versionCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	log := logging.Get(logging.CategoryBoot)
	defer logging.Sync()

	client, err := buildClient(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	c := cache.New(cache.Options{
		Capacity:      cfg.Cache.Capacity,
		SweepInterval: config.ParseDuration(cfg.Cache.SweepInterval, 5*time.Minute),
		CategoryTTLs:  cfg.Cache.ResolveTTLs(15 * time.Minute),
	})
	defer c.Close()

	detector := rupture.NewDetector()
	if cfg.Rupture.LexiconPath != "" {
		watcher, err := rupture.WatchLexicon(cfg.Rupture.LexiconPath, detector)
		if err != nil {
			log.Warn("lexicon unavailable, using built-in rules",
				zap.String("path", cfg.Rupture.LexiconPath),
				zap.Error(err))
		} else {
			defer watcher.Close()
		}
	}

	var store *memory.SQLiteStore
	var memStore types.MemoryStore
	var recaller agents.Recaller
	if cfg.Memory.DatabasePath != "" {
		store, err = memory.Open(cfg.Memory.DatabasePath)
		if err != nil {
			log.Warn("memory store unavailable", zap.Error(err))
		} else {
			defer store.Close()
			memStore = store
			recaller = store
		}
	}

	var advisor orchestrator.Consulter
	if cfg.Consult.Enabled {
		advisor = consult.NewService(client,
			config.ParseDuration(cfg.Consult.Timeout, 30*time.Second),
			cfg.Consult.ContextTurns)
	}

	o := orchestrator.New(orchestrator.Options{
		Config:   cfg,
		Suite:    agents.NewSuite(client, recaller),
		Safety:   safety.NewClassifier(),
		Detector: detector,
		Repairer: repair.NewGenerator(rand.NewSource(time.Now().UnixNano())),
		Advisor:  advisor,
		Training: training.NewLogger(cfg.Training.Dir),
		Memory:   memStore,
		Cache:    c,
	})

	log.Info("attune ready",
		zap.String("version", version),
		zap.String("provider", cfg.LLM.Provider))

	return chatLoop(cmd.Context(), o)
}

// buildClient selects the LLM backend. No API key means the offline stub,
// never a startup failure.
func buildClient(ctx context.Context, cfg *config.Config) (types.LLMClient, error) {
	switch cfg.LLM.Provider {
	case "gemini":
		if cfg.LLM.APIKey == "" {
			logging.Get(logging.CategoryBoot).Warn("no API key configured, using offline stub")
			return &advisory.StubClient{}, nil
		}
		return advisory.NewGeminiClient(ctx, advisory.GeminiConfig{
			APIKey: cfg.LLM.APIKey,
			Model:  cfg.LLM.Model,
		})
	case "stub", "":
		return &advisory.StubClient{}, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLM.Provider)
	}
}

func chatLoop(ctx context.Context, o *orchestrator.Orchestrator) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	conv := &types.ConversationContext{
		UserID:    flagUser,
		SessionID: fmt.Sprintf("session-%d", time.Now().Unix()),
	}

	fmt.Println("attune — type your message, /quit to exit")

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		fmt.Print("> ")
		select {
		case <-ctx.Done():
			fmt.Println("\ntake care.")
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			input := strings.TrimSpace(line)
			if input == "" {
				continue
			}
			if input == "/quit" || input == "/exit" {
				fmt.Println("take care.")
				return nil
			}

			resp := o.ProcessQuery(ctx, input, conv)
			fmt.Printf("\n%s\n\n", resp.Response)

			now := time.Now()
			conv.RecentHistory = append(conv.RecentHistory,
				types.ConversationTurn{Role: types.RoleUser, Content: input, Timestamp: now},
				types.ConversationTurn{Role: types.RoleAgent, Content: resp.Response, Timestamp: now},
			)
			if len(conv.RecentHistory) > 40 {
				conv.RecentHistory = conv.RecentHistory[len(conv.RecentHistory)-40:]
			}
		}
	}
}
