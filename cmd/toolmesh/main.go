package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hupe1980/toolmesh"
	"github.com/hupe1980/toolmesh/logging"
	"github.com/hupe1980/toolmesh/model"
	"github.com/hupe1980/toolmesh/model/anthropic"
	"github.com/hupe1980/toolmesh/model/openai"
	"github.com/hupe1980/toolmesh/registry"
)

var (
	version = "0.1.0"

	toolsDir string
	tags     []string
	verbose  bool
	logJSON  bool
)

func main() {
	root := &cobra.Command{
		Use:     "toolmesh",
		Short:   "ToolMesh: tool discovery, capability views and agent runs",
		Long:    "ToolMesh discovers executable tools from a directory, scopes them into tag-filtered capability views and drives tool-using agents against them.",
		Version: version,
	}

	root.PersistentFlags().StringVarP(&toolsDir, "tools-dir", "d", "tools", "directory to discover tools from")
	root.PersistentFlags().StringSliceVarP(&tags, "tags", "t", nil, "tags scoping the capability view (default: all tools)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().BoolVar(&logJSON, "log-json", false, "emit logs as JSON for aggregation")

	root.AddCommand(listCmd())
	root.AddCommand(describeCmd())
	root.AddCommand(runCmd())
	root.AddCommand(agentCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newMesh() *toolmesh.ToolMesh {
	level := logging.LogLevelWarn
	if verbose {
		level = logging.LogLevelDebug
	}

	logger := logging.Logger(logging.NewTextLogger(os.Stderr, level))
	if logJSON {
		logger = logging.NewJSONLogger(os.Stderr, level)
	}

	return toolmesh.New(toolsDir, func(o *toolmesh.Options) {
		o.Logger = logger
	})
}

// view resolves the capability view from the --tags flag, defaulting to the
// sentinel that matches every tool.
func view(mesh *toolmesh.ToolMesh) *registry.View {
	scope := tags
	if len(scope) == 0 {
		scope = []string{registry.TagAll}
	}

	return mesh.Registry().View(scope...)
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List discovered tools in the current capability view",
		RunE: func(cmd *cobra.Command, args []string) error {
			mesh := newMesh()
			v := view(mesh)

			tools := v.Tools()
			if len(tools) == 0 {
				color.Yellow("no tools found in %s for tags %v", toolsDir, v.Tags())
				return nil
			}

			for _, d := range tools {
				toolTags := "(no tags)"
				if len(d.Tags) > 0 {
					toolTags = strings.Join(d.Tags, ", ")
				}
				fmt.Printf("%s %s [%s] %s\n", color.GreenString("%-20s", d.ID), d.Name, d.Category, toolTags)
			}

			return nil
		},
	}
}

func describeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe",
		Short: "Show the formatted tool catalogue grouped by category",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(view(newMesh()).Describe(nil))
			return nil
		},
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <tool-id> [tool-args...]",
		Short: "Execute one tool through the capability view",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mesh := newMesh()

			result, err := view(mesh).Execute(cmd.Context(), args[0], args[1:])
			if err != nil {
				return err
			}

			if result.Success {
				color.Green("tool %s succeeded", args[0])
			} else {
				color.Red("tool %s failed: %s", args[0], result.Error)
			}

			if result.Content != "" {
				fmt.Println(result.Content)
			}

			return nil
		},
	}
}

func agentCmd() *cobra.Command {
	var (
		provider  string
		maxCycles int
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "agent <task>",
		Short: "Run a one-shot agent over the current capability view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var llm model.Model
			switch provider {
			case "anthropic":
				llm = anthropic.NewModel()
			case "openai":
				llm = openai.NewModel()
			default:
				return fmt.Errorf("unknown provider %q (anthropic or openai)", provider)
			}

			mesh := newMesh()

			scope := tags
			if len(scope) == 0 {
				scope = []string{registry.TagAll}
			}

			agent := mesh.NewAgent("toolmesh", llm, func(o *toolmesh.AgentOptions) {
				o.Tags = scope
				o.MaxCycles = maxCycles
			})

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			output, err := agent.Run(ctx, args[0])
			if err != nil {
				return err
			}

			for _, step := range output.Trace.Steps() {
				if step.Action != nil {
					color.Blue("-> %s(%s)", step.Action.Tool, step.Action.Arguments)
				}
			}

			fmt.Println(output.Content)

			return nil
		},
	}

	cmd.Flags().StringVarP(&provider, "provider", "p", "anthropic", "model provider (anthropic or openai)")
	cmd.Flags().IntVarP(&maxCycles, "max-cycles", "m", 10, "maximum reasoning cycles")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "overall run timeout")

	return cmd
}
