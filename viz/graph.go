// ABOUTME: GraphViz exports of the sales funnel and team structure from a payload
// ABOUTME: Produces DOT (or SVG) text for piping into other tools
package viz

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
	"github.com/harperreed/salesdash/models"
)

// maxLostReasons caps the reason nodes hanging off the funnel.
const maxLostReasons = 5

// GraphGenerator builds graphs from one dashboard payload.
type GraphGenerator struct {
	payload *models.Payload
	format  graphviz.Format
}

// NewGraphGenerator renders DOT by default.
func NewGraphGenerator(p *models.Payload) *GraphGenerator {
	return &GraphGenerator{payload: p, format: graphviz.XDOT}
}

// WithFormat selects "dot" or "svg" output.
func (g *GraphGenerator) WithFormat(name string) (*GraphGenerator, error) {
	switch name {
	case "", "dot":
		g.format = graphviz.XDOT
	case "svg":
		g.format = graphviz.SVG
	default:
		return nil, fmt.Errorf("unknown graph format: %s (valid formats: dot, svg)", name)
	}
	return g, nil
}

// GenerateFunnelGraph draws leads -> quotes -> closed with step conversion
// rates, plus the most common lost reasons.
func (g *GraphGenerator) GenerateFunnelGraph(ctx context.Context) (string, error) {
	funnel, err := models.FunnelOf(g.payload)
	if err != nil {
		return "", fmt.Errorf("funnel section unavailable: %w", err)
	}
	reasons, _ := models.LostReasons(g.payload)

	return g.render(ctx, func(graph *cgraph.Graph) error {
		graph.SetLabel("Sales Funnel")
		graph.SetRankDir(cgraph.LRRank)

		leads, err := stageNode(graph, "leads", "Leads", funnel.Leads, "lightblue")
		if err != nil {
			return err
		}
		quotes, err := stageNode(graph, "quotes", "Quotes", funnel.Quotes, "lightyellow")
		if err != nil {
			return err
		}
		closed, err := stageNode(graph, "closed", "Closed", funnel.Closed, "lightgreen")
		if err != nil {
			return err
		}

		edge, err := graph.CreateEdgeByName("quoted", leads, quotes)
		if err != nil {
			return fmt.Errorf("failed to create edge: %w", err)
		}
		edge.SetLabel(fmt.Sprintf("%.1f%%", stepRate(funnel.Quotes, funnel.Leads)))

		edge, err = graph.CreateEdgeByName("won", quotes, closed)
		if err != nil {
			return fmt.Errorf("failed to create edge: %w", err)
		}
		edge.SetLabel(fmt.Sprintf("%.1f%%", stepRate(funnel.Closed, funnel.Quotes)))

		for i, reason := range reasons {
			if i == maxLostReasons {
				break
			}
			node, err := graph.CreateNodeByName(fmt.Sprintf("lost_%d", i))
			if err != nil {
				return fmt.Errorf("failed to create lost reason node: %w", err)
			}
			node.SetLabel(fmt.Sprintf("%s\n%.0f lost", reason.Reason, reason.Count))
			node.SetShape("note")
			node.SetStyle("filled")
			node.SetFillColor("mistyrose")

			edge, err := graph.CreateEdgeByName(fmt.Sprintf("lost_%d", i), quotes, node)
			if err != nil {
				return fmt.Errorf("failed to create edge: %w", err)
			}
			edge.SetStyle("dashed")
		}
		return nil
	})
}

// GenerateTeamGraph links each team to the people whose totals name it.
func (g *GraphGenerator) GenerateTeamGraph(ctx context.Context) (string, error) {
	teams, err := models.Teams(g.payload)
	if err != nil {
		return "", fmt.Errorf("summary section unavailable: %w", err)
	}
	people, _ := models.People(g.payload)

	return g.render(ctx, func(graph *cgraph.Graph) error {
		graph.SetLabel("Teams")
		graph.SetRankDir(cgraph.LRRank)

		teamNodes := make(map[string]*cgraph.Node)
		for i, team := range teams {
			node, err := graph.CreateNodeByName(fmt.Sprintf("team_%d", i))
			if err != nil {
				return fmt.Errorf("failed to create team node: %w", err)
			}
			node.SetLabel(fmt.Sprintf("%s\n%s sales", team.Team, compact(team.Sales)))
			node.SetShape("box")
			node.SetStyle("filled")
			node.SetFillColor("lightblue")
			teamNodes[team.Team] = node
		}

		for i, person := range people {
			teamNode, ok := teamNodes[person.Team]
			if !ok {
				continue
			}
			node, err := graph.CreateNodeByName(fmt.Sprintf("person_%d", i))
			if err != nil {
				return fmt.Errorf("failed to create person node: %w", err)
			}
			node.SetLabel(fmt.Sprintf("%s\n%s", person.Person, compact(person.Sales)))
			node.SetShape("ellipse")
			node.SetStyle("filled")
			node.SetFillColor("lightgreen")

			if _, err := graph.CreateEdgeByName("member", teamNode, node); err != nil {
				return fmt.Errorf("failed to create edge: %w", err)
			}
		}
		return nil
	})
}

func (g *GraphGenerator) render(ctx context.Context, build func(*cgraph.Graph) error) (string, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create graphviz: %w", err)
	}
	defer func() { _ = gv.Close() }()

	graph, err := gv.Graph()
	if err != nil {
		return "", fmt.Errorf("failed to create graph: %w", err)
	}
	defer func() { _ = graph.Close() }()

	if err := build(graph); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, g.format, &buf); err != nil {
		return "", fmt.Errorf("failed to render graph: %w", err)
	}
	return buf.String(), nil
}

func stageNode(graph *cgraph.Graph, name, label string, value float64, color string) (*cgraph.Node, error) {
	node, err := graph.CreateNodeByName(name)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s node: %w", name, err)
	}
	node.SetLabel(fmt.Sprintf("%s\n%.0f", label, value))
	node.SetShape("box")
	node.SetStyle("filled")
	node.SetFillColor(color)
	return node, nil
}

func stepRate(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return part / whole * 100
}
