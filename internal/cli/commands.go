package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"menu-lens/internal/core/image"
	"menu-lens/internal/core/links"
	"menu-lens/internal/core/menu"
	"menu-lens/internal/core/style"

	"github.com/spf13/cobra"
)

// ErrNoMenuData 沒有目錄資料或已過期
var ErrNoMenuData = errors.New("no menu data (analyze a photo first)")

func newAnalyzeCmd(opts *options) *cobra.Command {
	var (
		apiKey     string
		imageCount int
		wait       bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <image>",
		Short: "Analyze a menu or fridge photo and store the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.build(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			data, err := image.NewService(a.Config.Image.MaxSizeBytes).ReadLimited(f)
			if err != nil {
				return err
			}
			dataURL, err := image.EncodeBytes(data)
			if err != nil {
				return err
			}

			result, err := a.Analysis.Analyze(cmd.Context(), dataURL, apiKey)
			if err != nil {
				return err
			}

			catalog := a.Menu.SetMenuData(cmd.Context(), *result, bytes.NewReader(data), imageCount)
			if wait {
				a.Menu.Wait()
				if current, ok := a.Menu.GetMenuData(cmd.Context()); ok {
					catalog = current
				}
			}
			catalog.OriginalImage = ""
			return opts.print(cmd.OutOrStdout(), catalog)
		},
	}

	cmd.Flags().StringVar(&apiKey, "api-key", os.Getenv("VISION_API_KEY"), "Vision model API key (overrides configuration)")
	cmd.Flags().IntVar(&imageCount, "image-count", 0, "Photos to fetch per item (0 uses the configured default)")
	cmd.Flags().BoolVar(&wait, "wait", true, "Wait for photo enrichment to finish before printing")

	return cmd
}

func newShowCmd(opts *options) *cobra.Command {
	var withImage bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the current catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.build(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			catalog, ok := a.Menu.GetMenuData(cmd.Context())
			if !ok {
				return ErrNoMenuData
			}
			if !withImage {
				catalog.OriginalImage = ""
			}
			return opts.print(cmd.OutOrStdout(), catalog)
		},
	}

	cmd.Flags().BoolVar(&withImage, "with-image", false, "Include the original photo as a data URL")
	return cmd
}

// itemView 單一品項與樣式、連結
type itemView struct {
	Item  *menu.Item  `json:"item" yaml:"item"`
	Style style.Style `json:"style" yaml:"style"`
	Links links.Set   `json:"links" yaml:"links"`
}

func newItemCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "item <name>",
		Short: "Print one item with its difficulty style and links",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.build(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			item, ok := a.Menu.GetMenuItem(cmd.Context(), args[0])
			if !ok {
				return fmt.Errorf("menu item %q not found", args[0])
			}
			return opts.print(cmd.OutOrStdout(), itemView{
				Item:  item,
				Style: style.DifficultyStyle(item.Price),
				Links: links.ForItem(item.Name, item.Allergens),
			})
		},
	}
}

func newClearCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove the stored catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.build(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			a.Menu.ClearData(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "catalog cleared")
			return nil
		},
	}
}

func newLinksCmd(opts *options) *cobra.Command {
	var allergens []string

	cmd := &cobra.Command{
		Use:   "links <dish>",
		Short: "Print image search, recipe search and allergen links for a dish",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.print(cmd.OutOrStdout(), links.ForItem(args[0], allergens))
		},
	}

	cmd.Flags().StringSliceVar(&allergens, "allergen", nil, "Allergen to link (repeatable)")
	return cmd
}
