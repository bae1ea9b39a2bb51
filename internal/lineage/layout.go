package lineage

import "github.com/raphaelgruber/logoforge/internal/models"

// LayoutOptions controls node spacing for graph rendering.
type LayoutOptions struct {
	StartX   float64
	StartY   float64
	SpacingX float64
	SpacingY float64
}

// DefaultLayout matches the spacing used by the web version tree.
var DefaultLayout = LayoutOptions{SpacingX: 250, SpacingY: 150}

// Position is a node's location on the canvas.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// FlowNode is one positioned logo in a rendered version graph.
type FlowNode struct {
	ID       string      `json:"id"`
	Type     string      `json:"type"`
	Position Position    `json:"position"`
	Data     models.Logo `json:"data"`
}

// FlowEdge connects a parent logo to a derived one.
type FlowEdge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type"`
	Label  string `json:"label"`
}

// Layout positions a forest for a left-to-right graph view.
// Depth maps to X; every node gets its own row in pre-order, and separate
// roots are set two rows apart.
func Layout(forest []*Node, opts LayoutOptions) ([]FlowNode, []FlowEdge) {
	nodes := []FlowNode{}
	edges := []FlowEdge{}
	y := opts.StartY

	type frame struct {
		node     *Node
		x        float64
		parentID string
	}

	for i, root := range forest {
		if i > 0 {
			y += opts.SpacingY * 2
		}

		stack := []frame{{node: root, x: opts.StartX}}
		first := true
		for len(stack) > 0 {
			f := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if !first {
				y += opts.SpacingY
			}
			first = false

			nodes = append(nodes, FlowNode{
				ID:       f.node.ID,
				Type:     "logoNode",
				Position: Position{X: f.x, Y: y},
				Data:     f.node.Logo,
			})
			if f.parentID != "" {
				edges = append(edges, FlowEdge{
					ID:     f.parentID + "-" + f.node.ID,
					Source: f.parentID,
					Target: f.node.ID,
					Type:   "smoothstep",
					Label:  string(f.node.GenerationType),
				})
			}

			for j := len(f.node.Children) - 1; j >= 0; j-- {
				stack = append(stack, frame{node: f.node.Children[j], x: f.x + opts.SpacingX, parentID: f.node.ID})
			}
		}
	}

	return nodes, edges
}
