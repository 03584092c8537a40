// Command orchid runs a tool-calling agent from the terminal. It reads the
// prompt from the arguments, streams model output to stdout, and exits when
// the run reaches a terminal state.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/martinemde/orchid/agent"
	"github.com/martinemde/orchid/llmwire"
	"github.com/martinemde/orchid/skillfs"
)

var (
	flagModel     string
	flagProvider  string
	flagSystem    string
	flagSkillsDir string
	flagMaxSteps  int
	flagShowTools bool
	flagVerbose   bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "orchid [prompt]",
		Short: "Run a tool-calling agent against an LLM provider",
		Long: `orchid drives a streaming agent loop: it sends your prompt to the model,
dispatches any tools the model requests, feeds results back, and prints the
final answer. Set OPENAI_API_KEY or ANTHROPIC_API_KEY before running.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runAgent,

		SilenceUsage: true,
	}

	rootCmd.Flags().StringVarP(&flagModel, "model", "m", "gpt-4o-mini", "model identifier")
	rootCmd.Flags().StringVarP(&flagProvider, "provider", "p", "", "provider name (defaults to the only configured one)")
	rootCmd.Flags().StringVar(&flagSystem, "system", "You are a helpful assistant.", "static system prompt")
	rootCmd.Flags().StringVar(&flagSkillsDir, "skills", "", "directory of skills to load")
	rootCmd.Flags().IntVar(&flagMaxSteps, "max-steps", 30, "maximum model calls per run")
	rootCmd.Flags().BoolVar(&flagShowTools, "show-tools", false, "print tool invocations and results")
	rootCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "log engine diagnostics to stderr")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runAgent(cmd *cobra.Command, args []string) error {
	client := llmwire.NewClientFromEnv()
	if len(client.Providers()) == 0 {
		return fmt.Errorf("no provider configured: set OPENAI_API_KEY or ANTHROPIC_API_KEY")
	}

	cfg := agent.DefaultConfig()
	cfg.MaxSteps = flagMaxSteps
	if flagVerbose {
		cfg.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	a := agent.New("orchid", flagModel, flagSystem, &cfg)
	a.SetClient(client)
	if flagProvider != "" {
		a.SetProvider(flagProvider)
	}

	if err := registerBuiltinTools(a); err != nil {
		return err
	}

	if flagSkillsDir != "" {
		skills, err := skillfs.LoadDir(flagSkillsDir)
		if err != nil {
			return err
		}
		if err := a.AddSkills(skills...); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run := a.RunStream(ctx, strings.Join(args, " "))
	exitErr := error(nil)

	for chunk := range run.Chunks() {
		switch chunk.Type {
		case agent.ChunkResponse:
			fmt.Print(chunk.Content)
		case agent.ChunkReasoning:
			if flagVerbose {
				fmt.Fprint(os.Stderr, chunk.Content)
			}
		case agent.ChunkToolCall:
			if flagShowTools {
				fmt.Fprintf(os.Stderr, "\n[tool] %s %v\n", chunk.Content, chunk.Metadata["tool_args"])
			}
		case agent.ChunkToolResult:
			if flagShowTools {
				fmt.Fprintf(os.Stderr, "[result] %s\n", chunk.Content)
			}
		case agent.ChunkError:
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", chunk.Content)
			if terminal, _ := chunk.Metadata["terminal"].(bool); terminal {
				exitErr = fmt.Errorf("run aborted")
			}
		}
	}
	fmt.Println()

	return exitErr
}

// registerBuiltinTools adds the small default toolset.
func registerBuiltinTools(a *agent.Agent) error {
	tools := []agent.Tool{
		{
			Name:        "current_time",
			Description: "Get the current date and time.",
			Params: []agent.Param{
				{Name: "timezone", Type: agent.TypeString, Description: "IANA timezone name, e.g. Europe/Lisbon.", Optional: true},
			},
			Fn: func(timezone string) (string, error) {
				loc := time.Local
				if timezone != "" {
					var err error
					loc, err = time.LoadLocation(timezone)
					if err != nil {
						return "", fmt.Errorf("unknown timezone %q", timezone)
					}
				}
				return time.Now().In(loc).Format(time.RFC1123), nil
			},
		},
		{
			Name:        "read_file",
			Description: "Read a text file from the local filesystem.",
			Params: []agent.Param{
				{Name: "path", Type: agent.TypeString, Description: "Path to the file."},
			},
			Fn: func(path string) (string, error) {
				data, err := os.ReadFile(path)
				if err != nil {
					return "", err
				}
				return string(data), nil
			},
		},
	}

	for _, t := range tools {
		if err := a.RegisterTool(t); err != nil {
			return err
		}
	}
	return nil
}
