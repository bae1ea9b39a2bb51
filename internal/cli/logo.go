package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/raphaelgruber/logoforge/internal/client"
	"github.com/spf13/cobra"
)

var (
	logoFavorite bool
	logoArchive  bool
	logoRestore  bool
)

var logoCmd = &cobra.Command{
	Use:   "logo <logo-id>",
	Short: "Show a logo or change its favorite/archived flags",
	Long: `Show a logo. With flags, update it first.

Examples:
  logoforge logo l-789
  logoforge logo l-789 --favorite
  logoforge logo l-789 --archive`,
	Args: cobra.ExactArgs(1),
	RunE: runLogo,
}

func init() {
	logoCmd.Flags().BoolVar(&logoFavorite, "favorite", false, "toggle favorite")
	logoCmd.Flags().BoolVar(&logoArchive, "archive", false, "archive the logo")
	logoCmd.Flags().BoolVar(&logoRestore, "restore", false, "un-archive the logo")
	logoCmd.MarkFlagsMutuallyExclusive("archive", "restore")
}

func runLogo(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	l, err := apiClient.GetLogo(ctx, args[0])
	if err != nil {
		return fmt.Errorf("get logo: %w", err)
	}

	var upd client.LogoUpdate
	changed := false
	if logoFavorite {
		fav := !l.IsFavorite
		upd.IsFavorite = &fav
		changed = true
	}
	if logoArchive || logoRestore {
		upd.IsArchived = &logoArchive
		changed = true
	}
	if changed {
		if l, err = apiClient.UpdateLogo(ctx, args[0], upd); err != nil {
			return fmt.Errorf("update logo: %w", err)
		}
	}

	fmt.Printf("Logo: %s\n", l.ID)
	fmt.Printf("  Type: %s (depth %d)\n", l.GenerationType, l.BranchDepth)
	if l.ParentLogoID != nil {
		fmt.Printf("  Parent: %s\n", *l.ParentLogoID)
	}
	if l.DirectionID != nil {
		fmt.Printf("  Direction: %s\n", *l.DirectionID)
	}
	if l.RefinementInstruction != nil {
		fmt.Printf("  Instruction: %s\n", *l.RefinementInstruction)
	}
	fmt.Printf("  Prompt: %s\n", l.Prompt)
	fmt.Printf("  Image: %s\n", l.StoragePath)
	fmt.Printf("  Favorite: %t, Archived: %t\n", l.IsFavorite, l.IsArchived)
	if l.Scores != nil {
		fmt.Printf("  Score: %d/100\n", l.Scores.Composite)
	}
	fmt.Printf("  Created: %s\n", l.CreatedAt.Format(time.RFC3339))
	return nil
}
