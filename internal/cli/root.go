// Package cli menuctl 指令：在終端機分析圖片並查詢目錄
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"menu-lens/internal/app"
	"menu-lens/internal/infrastructure/config"
	"menu-lens/internal/pkg/common"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type options struct {
	output   string
	logLevel string
	// build 可在測試中替換
	build func(ctx context.Context) (*app.App, error)
}

// NewRootCmd 建立 menuctl 根指令
func NewRootCmd() *cobra.Command {
	return newRootCmd(&options{})
}

func newRootCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "menuctl",
		Short: "Analyze menu or fridge photos and browse the resulting catalog",
		Long: `menuctl sends a photo of a restaurant menu or fridge contents to a vision
model, stores the resulting catalog and enriches every item with photos.

It shares configuration (.env, APP_* variables) and catalog storage with the API server.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.output != "json" && opts.output != "yaml" {
				return fmt.Errorf("unsupported output format %q", opts.output)
			}
			common.InitConsoleLogger(opts.logLevel, cmd.ErrOrStderr())
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			common.Sync()
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "json", "Output format: json or yaml")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level")

	if opts.build == nil {
		opts.build = func(ctx context.Context) (*app.App, error) {
			cfg, err := config.LoadConfig()
			if err != nil {
				return nil, err
			}
			return app.Build(ctx, cfg)
		}
	}

	cmd.AddCommand(newAnalyzeCmd(opts))
	cmd.AddCommand(newShowCmd(opts))
	cmd.AddCommand(newItemCmd(opts))
	cmd.AddCommand(newClearCmd(opts))
	cmd.AddCommand(newLinksCmd(opts))

	return cmd
}

// print 依 --output 輸出結果
func (o *options) print(w io.Writer, v interface{}) error {
	if o.output == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
