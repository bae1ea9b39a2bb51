package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/raphaelgruber/logoforge/internal/models"
	"github.com/spf13/cobra"
)

var (
	directionsCompetitors string
	directionsDeselect    bool
)

var directionsCmd = &cobra.Command{
	Use:   "directions <project-id>",
	Short: "List, propose and select creative directions",
	Long: `List a project's creative directions.

Examples:
  logoforge directions p-123
  logoforge directions propose p-123 --competitors "Globex uses a blue globe"
  logoforge directions select d-456
  logoforge directions select d-456 --off`,
	Args: cobra.ExactArgs(1),
	RunE: runDirections,
}

var directionsProposeCmd = &cobra.Command{
	Use:   "propose <project-id>",
	Short: "Replace the project's directions with new proposals",
	Args:  cobra.ExactArgs(1),
	RunE:  runDirectionsPropose,
}

var directionsSelectCmd = &cobra.Command{
	Use:   "select <direction-id>...",
	Short: "Select directions for generation",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDirectionsSelect,
}

func init() {
	directionsProposeCmd.Flags().StringVarP(&directionsCompetitors, "competitors", "c", "", "competitive analysis to consider")
	directionsSelectCmd.Flags().BoolVar(&directionsDeselect, "off", false, "deselect instead")

	directionsCmd.AddCommand(directionsProposeCmd)
	directionsCmd.AddCommand(directionsSelectCmd)
}

func runDirections(cmd *cobra.Command, args []string) error {
	dirs, err := apiClient.ListDirections(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("list directions: %w", err)
	}
	printDirections(dirs)
	return nil
}

func runDirectionsPropose(cmd *cobra.Command, args []string) error {
	dirs, err := apiClient.ProposeDirections(context.Background(), args[0], directionsCompetitors)
	if err != nil {
		return fmt.Errorf("propose directions: %w", err)
	}
	printDirections(dirs)
	return nil
}

func runDirectionsSelect(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	for _, id := range args {
		d, err := apiClient.SelectDirection(ctx, id, !directionsDeselect)
		if err != nil {
			return fmt.Errorf("select direction %s: %w", id, err)
		}
		mark := "selected"
		if !d.Selected {
			mark = "deselected"
		}
		fmt.Printf("%s: %s (%s)\n", mark, d.Name, d.Type)
	}
	return nil
}

func printDirections(dirs []models.Direction) {
	if len(dirs) == 0 {
		fmt.Println("No directions yet. Run 'logoforge directions propose <project-id>'.")
		return
	}
	for _, d := range dirs {
		check := "[ ]"
		if d.Selected {
			check = "[x]"
		}
		fmt.Printf("%s %s  %s (%s)\n", check, d.ID, d.Name, d.Type)
		if d.Rationale != "" {
			fmt.Printf("      %s\n", truncate(d.Rationale, 100))
		}
		if len(d.StyleKeywords) > 0 {
			fmt.Printf("      style: %s\n", strings.Join(d.StyleKeywords, ", "))
		}
		if d.Palette != nil && len(d.Palette.Colors) > 0 {
			fmt.Printf("      palette: %s\n", strings.Join(d.Palette.Colors, " "))
		}
	}
}
