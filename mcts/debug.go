package mcts

import (
	"fmt"

	"github.com/awalterschulze/gographviz"
)

// DebugMaxDepth bounds how many plies below the root DebugDOT descends,
// so a long-lived tree's dump stays readable instead of dumping every
// arena slot ever allocated.
const DebugMaxDepth = 6

// DebugDOT renders a bounded subtree of the held tree — at most
// DebugMaxDepth plies below the root — as a Graphviz DOT string: one node
// per arena slot in range, labeled with its visit count and Q, and one edge
// per parent-child link, labeled with the child's incoming move and prior,
// for manual inspection of search behavior. A child at the depth cap
// with further expansion is rendered as a single "..." leaf rather than
// descended into. Grounded on the teacher's debug tooling (mcts carried a
// textual tree dump); gographviz gives a real DOT writer instead of
// hand-built string concatenation.
func (e *Engine) DebugDOT() (string, error) {
	g := gographviz.NewGraph()
	if err := g.SetName("tree"); err != nil {
		return "", err
	}
	if err := g.SetDir(true); err != nil {
		return "", err
	}

	root := e.tree.Root()
	if !root.IsValid() {
		return g.String(), nil
	}

	var walk func(id NodeID, depth int) error
	walk = func(id NodeID, depth int) error {
		n := e.tree.node(id)
		label := fmt.Sprintf("\"N=%d Q=%.3f%s\"", n.visits, n.Q(), terminalSuffix(n))
		if err := g.AddNode("tree", nodeName(id), map[string]string{"label": label}); err != nil {
			return err
		}
		if depth >= DebugMaxDepth {
			if len(n.childOrder) > 0 {
				truncName := nodeName(id) + "_truncated"
				if err := g.AddNode("tree", truncName, map[string]string{"label": "\"...\""}); err != nil {
					return err
				}
				if err := g.AddEdge(nodeName(id), truncName, true, nil); err != nil {
					return err
				}
			}
			return nil
		}
		for _, mv := range n.childOrder {
			childID := n.children[mv]
			if err := walk(childID, depth+1); err != nil {
				return err
			}
			edgeLabel := fmt.Sprintf("\"%s P=%.3f\"", mv.String(), e.tree.node(childID).prior)
			if err := g.AddEdge(nodeName(id), nodeName(childID), true, map[string]string{"label": edgeLabel}); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(root, 0); err != nil {
		return "", err
	}
	return g.String(), nil
}

func nodeName(id NodeID) string {
	return fmt.Sprintf("n%d", id)
}

func terminalSuffix(n *Node) string {
	if n.terminal {
		return " term"
	}
	return ""
}
