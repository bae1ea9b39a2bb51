package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"
	"github.com/raphaelgruber/logoforge/internal/client"
	"github.com/raphaelgruber/logoforge/internal/lineage"
	"github.com/raphaelgruber/logoforge/internal/models"
	"github.com/spf13/cobra"
)

var treeArchived bool

var treeCmd = &cobra.Command{
	Use:   "tree <project-id>",
	Short: "Show the project's logo derivation tree",
	Long: `Show every logo of a project as a forest: initial and improved logos are
roots, branches and refinements hang below the logo they came from.

Examples:
  logoforge tree p-123
  logoforge tree p-123 --archived`,
	Args: cobra.ExactArgs(1),
	RunE: runTree,
}

var ancestorsCmd = &cobra.Command{
	Use:   "ancestors <logo-id>",
	Short: "Show the chain of logos a logo was derived from",
	Args:  cobra.ExactArgs(1),
	RunE:  runAncestors,
}

var descendantsCmd = &cobra.Command{
	Use:   "descendants <logo-id>",
	Short: "Show every logo derived from a logo",
	Args:  cobra.ExactArgs(1),
	RunE:  runDescendants,
}

func init() {
	treeCmd.Flags().BoolVarP(&treeArchived, "archived", "a", false, "include archived logos")
}

var (
	rootStyle  = lipgloss.NewStyle().Bold(true)
	enumStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C6C6C"))
	winnerMark = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700")).Render("★")
)

func runTree(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	p, err := apiClient.GetProject(ctx, args[0])
	if err != nil {
		return fmt.Errorf("get project: %w", err)
	}
	t, err := apiClient.Tree(ctx, args[0], treeArchived)
	if err != nil {
		return fmt.Errorf("get tree: %w", err)
	}

	winner := ""
	if p.WinnerLogoID != nil {
		winner = *p.WinnerLogoID
	}
	fmt.Print(renderForest(p.Name, t, winner))
	return nil
}

// renderForest draws the forest with one line per logo and a footer naming
// the logos that could not be placed.
func renderForest(title string, t *client.Tree, winner string) string {
	var b strings.Builder
	if len(t.Forest) == 0 {
		fmt.Fprintf(&b, "%s: no logos\n", title)
	} else {
		root := tree.Root(rootStyle.Render(title)).
			Enumerator(tree.RoundedEnumerator).
			EnumeratorStyle(enumStyle)
		for _, n := range t.Forest {
			root.Child(subtree(n, winner))
		}
		b.WriteString(root.String())
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\n%d logos", t.Report.Reachable)
	if n := len(t.Report.Orphans); n > 0 {
		fmt.Fprintf(&b, ", %d orphaned: %s", n, strings.Join(t.Report.Orphans, ", "))
	}
	b.WriteString("\n")
	return b.String()
}

func subtree(n *lineage.Node, winner string) any {
	label := logoLabel(n.Logo, winner)
	if len(n.Children) == 0 {
		return label
	}
	t := tree.Root(label).
		Enumerator(tree.RoundedEnumerator).
		EnumeratorStyle(enumStyle)
	for _, c := range n.Children {
		t.Child(subtree(c, winner))
	}
	return t
}

// logoLabel is the one-line description of a logo in tree and list output.
func logoLabel(l models.Logo, winner string) string {
	var flags []string
	if l.ID == winner {
		flags = append(flags, winnerMark)
	}
	if l.IsFavorite {
		flags = append(flags, "♥")
	}
	if l.IsArchived {
		flags = append(flags, "archived")
	}
	if l.Scores != nil {
		flags = append(flags, fmt.Sprintf("%d/100", l.Scores.Composite))
	}

	detail := truncate(l.Prompt, 50)
	if l.RefinementInstruction != nil && *l.RefinementInstruction != "" {
		detail = truncate(*l.RefinementInstruction, 50)
	}

	label := fmt.Sprintf("%s [%s] %s", shortID(l.ID), l.GenerationType, detail)
	if len(flags) > 0 {
		label += " " + strings.Join(flags, " ")
	}
	return label
}

func runAncestors(cmd *cobra.Command, args []string) error {
	logos, err := apiClient.Ancestors(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("get ancestors: %w", err)
	}
	if len(logos) == 0 {
		fmt.Println("No ancestors: this logo is a root")
		return nil
	}
	for i, l := range logos {
		fmt.Printf("%s%s\n", strings.Repeat("  ", i), logoLabel(l, ""))
	}
	fmt.Printf("%s%s\n", strings.Repeat("  ", len(logos)), args[0])
	return nil
}

func runDescendants(cmd *cobra.Command, args []string) error {
	logos, err := apiClient.Descendants(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("get descendants: %w", err)
	}
	if len(logos) == 0 {
		fmt.Println("No descendants")
		return nil
	}
	for _, l := range logos {
		fmt.Printf("depth %d  %s\n", l.BranchDepth, logoLabel(l, ""))
	}
	return nil
}
