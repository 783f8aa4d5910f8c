// Package depgraph builds and analyzes the application dependency graph:
// cycles, failure blast radius, critical paths, and retirement sequencing.
// Nodes are keyed by application name, matching the dependency lists on
// the records.
package depgraph

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/opensource-portfolio/kestrel/internal/domain"
)

// Criticality levels, strongest first.
const (
	CriticalityCritical = "critical"
	CriticalityHigh     = "high"
	CriticalityMedium   = "medium"
	CriticalityLow      = "low"
)

// Node is one application in the dependency graph.
type Node struct {
	ID             string   `json:"id,omitempty"`
	Name           string   `json:"name"`
	Category       string   `json:"category"`
	TIMECategory   string   `json:"time_category"`
	CompositeScore float64  `json:"composite_score"`
	Criticality    string   `json:"criticality"`
	Dependencies   []string `json:"dependencies,omitempty"`
	Dependents     []string `json:"dependents,omitempty"`
}

// Edge is one dependency relationship. Source depends on target.
type Edge struct {
	Source      string `json:"source"`
	Target      string `json:"target"`
	Type        string `json:"type"`
	Criticality string `json:"criticality"`
}

// ConnectedApp is one entry of the highly-connected list.
type ConnectedApp struct {
	Name        string `json:"name"`
	Connections int    `json:"connections"`
}

// Metrics summarizes the graph shape.
type Metrics struct {
	TotalNodes      int            `json:"total_nodes"`
	TotalEdges      int            `json:"total_edges"`
	AvgDependencies float64        `json:"average_dependencies"`
	HighlyConnected []ConnectedApp `json:"highly_connected_apps"`
	IsolatedApps    []string       `json:"isolated_apps"`
	Cycles          [][]string     `json:"circular_dependencies"`
}

// Summary is the full graph view.
type Summary struct {
	Nodes   []Node  `json:"nodes"`
	Edges   []Edge  `json:"edges"`
	Metrics Metrics `json:"metrics"`
}

// ImpactedApp is one application affected by a failure.
type ImpactedApp struct {
	Name        string `json:"name"`
	ImpactType  string `json:"impact_type"` // direct or indirect
	Criticality string `json:"criticality"`
}

// BlastRadius is the failure impact analysis for one application.
type BlastRadius struct {
	AppName            string        `json:"app_name"`
	DirectImpactCount  int           `json:"direct_impact_count"`
	IndirectImpact     int           `json:"indirect_impact_count"`
	TotalImpactCount   int           `json:"total_impact_count"`
	ImpactedApps       []ImpactedApp `json:"impacted_apps"`
	RiskLevel          string        `json:"risk_level"`
	EstimatedDowntime  float64       `json:"estimated_downtime_hours"`
	Recommendations    []string      `json:"recommendations"`
}

// CriticalPath is one dependency chain through the portfolio with its
// weakest member.
type CriticalPath struct {
	PathID           string   `json:"path_id"`
	PathName         string   `json:"path_name"`
	Apps             []string `json:"apps"`
	TotalLength      int      `json:"total_length"`
	WeakestLinkApp   string   `json:"weakest_link_app"`
	WeakestLinkScore float64  `json:"weakest_link_score"`
	RiskLevel        string   `json:"risk_level"`
}

// RetirementStep is one ordered step in a retirement sequence.
type RetirementStep struct {
	AppName        string `json:"app_name"`
	Phase          int    `json:"phase"`
	DependentCount int    `json:"dependent_count"`
	Notes          string `json:"notes"`
}

// RetirementPlan sequences a batch retirement, dependents first.
type RetirementPlan struct {
	Sequence  []RetirementStep `json:"retirement_sequence"`
	TotalApps int              `json:"total_apps"`
	Phases    int              `json:"phases"`
	Warnings  []string         `json:"warnings"`
}

// Graph is an immutable dependency graph built from a portfolio snapshot.
type Graph struct {
	nodes   map[string]*Node
	order   []string
	edges   []Edge
	forward map[string][]string
	reverse map[string][]string
}

// Build constructs the graph. Dependency references to apps outside the
// portfolio are dropped.
func Build(apps []*domain.Application) *Graph {
	g := &Graph{
		nodes:   make(map[string]*Node, len(apps)),
		forward: map[string][]string{},
		reverse: map[string][]string{},
	}

	for _, app := range apps {
		if app.Name == "" {
			continue
		}
		g.nodes[app.Name] = &Node{
			ID:             app.ID,
			Name:           app.Name,
			Category:       app.Category,
			TIMECategory:   app.TIMECategory.String(),
			CompositeScore: app.CompositeScore,
			Criticality:    inferCriticality(app),
			Dependencies:   append([]string(nil), app.Dependencies...),
		}
		g.order = append(g.order, app.Name)
	}

	for _, name := range g.order {
		node := g.nodes[name]
		for _, dep := range node.Dependencies {
			target, ok := g.nodes[dep]
			if !ok {
				continue
			}
			g.edges = append(g.edges, Edge{
				Source:      name,
				Target:      dep,
				Type:        inferEdgeType(node, target),
				Criticality: edgeCriticality(node, target),
			})
			g.forward[name] = append(g.forward[name], dep)
			g.reverse[dep] = append(g.reverse[dep], name)
			target.Dependents = append(target.Dependents, name)
		}
	}
	return g
}

func inferCriticality(app *domain.Application) string {
	switch {
	case app.BusinessValue >= 8 || app.MissionCriticality >= 8:
		return CriticalityCritical
	case app.CompositeScore >= 70 || app.BusinessValue >= 6:
		return CriticalityHigh
	case app.CompositeScore >= 40 || app.BusinessValue >= 4:
		return CriticalityMedium
	default:
		return CriticalityLow
	}
}

func inferEdgeType(source, target *Node) string {
	sc, tc := strings.ToLower(source.Category), strings.ToLower(target.Category)
	switch {
	case strings.Contains(sc, "database") || strings.Contains(tc, "database"):
		return "database"
	case strings.Contains(sc, "auth") || strings.Contains(tc, "identity"):
		return "authentication"
	case strings.Contains(sc, "analytics") || strings.Contains(tc, "report"):
		return "reporting"
	case strings.Contains(sc, "etl") || strings.Contains(tc, "integration"):
		return "file_transfer"
	default:
		return "api"
	}
}

func edgeCriticality(source, target *Node) string {
	switch {
	case source.Criticality == CriticalityCritical || target.Criticality == CriticalityCritical:
		return CriticalityCritical
	case source.Criticality == CriticalityHigh || target.Criticality == CriticalityHigh:
		return CriticalityHigh
	case source.Criticality == CriticalityMedium && target.Criticality == CriticalityMedium:
		return CriticalityMedium
	default:
		return CriticalityLow
	}
}

// Summary returns the graph with nodes, edges, and metrics.
func (g *Graph) Summary() Summary {
	nodes := make([]Node, 0, len(g.order))
	type conn struct {
		name  string
		count int
	}
	conns := make([]conn, 0, len(g.order))
	var isolated []string

	for _, name := range g.order {
		node := g.nodes[name]
		nodes = append(nodes, *node)
		count := len(g.forward[name]) + len(g.reverse[name])
		conns = append(conns, conn{name, count})
		if count == 0 {
			isolated = append(isolated, name)
		}
	}

	sort.SliceStable(conns, func(i, j int) bool { return conns[i].count > conns[j].count })
	top := conns
	if len(top) > 5 {
		top = top[:5]
	}
	highly := make([]ConnectedApp, 0, len(top))
	for _, c := range top {
		highly = append(highly, ConnectedApp{Name: c.name, Connections: c.count})
	}

	avg := 0.0
	if len(g.nodes) > 0 {
		avg = math.Round(float64(len(g.edges))/float64(len(g.nodes))*100) / 100
	}

	return Summary{
		Nodes: nodes,
		Edges: append([]Edge(nil), g.edges...),
		Metrics: Metrics{
			TotalNodes:      len(g.nodes),
			TotalEdges:      len(g.edges),
			AvgDependencies: avg,
			HighlyConnected: highly,
			IsolatedApps:    isolated,
			Cycles:          g.Cycles(),
		},
	}
}

// Cycles finds circular dependencies via DFS. Each cycle lists the member
// names, repeating the entry node at the end.
func (g *Graph) Cycles() [][]string {
	var cycles [][]string
	visited := map[string]bool{}
	onStack := map[string]bool{}
	var path []string

	var dfs func(name string)
	dfs = func(name string) {
		visited[name] = true
		onStack[name] = true
		path = append(path, name)

		for _, next := range g.forward[name] {
			if !visited[next] {
				dfs(next)
			} else if onStack[next] {
				start := 0
				for i, p := range path {
					if p == next {
						start = i
						break
					}
				}
				cycle := append(append([]string(nil), path[start:]...), next)
				cycles = append(cycles, cycle)
			}
		}

		path = path[:len(path)-1]
		onStack[name] = false
	}

	for _, name := range g.order {
		if !visited[name] {
			dfs(name)
		}
	}
	return cycles
}

// BlastRadius computes the set of applications affected if the named app
// fails, walking reverse edges breadth-first.
func (g *Graph) BlastRadius(name string) BlastRadius {
	node, ok := g.nodes[name]
	if !ok {
		return BlastRadius{AppName: name, RiskLevel: "unknown", ImpactedApps: []ImpactedApp{}, Recommendations: []string{}}
	}

	direct := map[string]bool{}
	for _, d := range g.reverse[name] {
		direct[d] = true
	}

	all := map[string]bool{}
	queue := append([]string(nil), g.reverse[name]...)
	var ordered []string
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if all[current] {
			continue
		}
		all[current] = true
		ordered = append(ordered, current)
		queue = append(queue, g.reverse[current]...)
	}

	impacted := make([]ImpactedApp, 0, len(ordered))
	criticalCount, highCount := 0, 0
	for _, affected := range ordered {
		n := g.nodes[affected]
		impactType := "indirect"
		if direct[affected] {
			impactType = "direct"
		}
		impacted = append(impacted, ImpactedApp{
			Name:        affected,
			ImpactType:  impactType,
			Criticality: n.Criticality,
		})
		switch n.Criticality {
		case CriticalityCritical:
			criticalCount++
		case CriticalityHigh:
			highCount++
		}
	}

	var risk string
	switch {
	case criticalCount >= 2 || len(all) >= 10:
		risk = CriticalityCritical
	case criticalCount >= 1 || highCount >= 3:
		risk = CriticalityHigh
	case len(all) >= 3:
		risk = CriticalityMedium
	default:
		risk = CriticalityLow
	}

	baseHours := 2.0
	if node.Criticality == CriticalityCritical {
		baseHours = 4.0
	}
	downtime := math.Round((baseHours+float64(len(all))*0.5)*10) / 10

	return BlastRadius{
		AppName:           name,
		DirectImpactCount: len(direct),
		IndirectImpact:    len(all) - len(direct),
		TotalImpactCount:  len(all),
		ImpactedApps:      impacted,
		RiskLevel:         risk,
		EstimatedDowntime: downtime,
		Recommendations:   blastRecommendations(node, impacted, risk),
	}
}

func blastRecommendations(node *Node, impacted []ImpactedApp, risk string) []string {
	var recs []string

	if risk == CriticalityCritical || risk == CriticalityHigh {
		recs = append(recs,
			fmt.Sprintf("High-risk dependency hub: consider implementing failover mechanisms for %s", node.Name),
			"Create detailed disaster recovery plan before any changes")
	}
	if len(impacted) > 5 {
		recs = append(recs, "Multiple downstream dependencies: implement circuit breakers to prevent cascade failures")
	}

	var criticalNames []string
	for _, a := range impacted {
		if a.Criticality == CriticalityCritical {
			criticalNames = append(criticalNames, a.Name)
		}
	}
	if len(criticalNames) > 0 {
		if len(criticalNames) > 3 {
			criticalNames = criticalNames[:3]
		}
		recs = append(recs, fmt.Sprintf("Critical systems affected: ensure %s have redundancy", strings.Join(criticalNames, ", ")))
	}

	if node.TIMECategory == domain.CategoryEliminate.String() {
		recs = append(recs, "Retirement planned: create migration path for dependent applications first")
	}
	return recs
}

// CriticalPaths finds dependency chains from exit points (no dependents)
// back to entry points (no dependencies), ranked by the weakest member's
// composite score. Search is bounded to keep output stable on dense
// graphs.
func (g *Graph) CriticalPaths() []CriticalPath {
	var entries, exits []string
	for _, name := range g.order {
		if len(g.forward[name]) == 0 {
			entries = append(entries, name)
		}
		if len(g.reverse[name]) == 0 {
			exits = append(exits, name)
		}
	}
	if len(entries) > 5 {
		entries = entries[:5]
	}
	if len(exits) > 5 {
		exits = exits[:5]
	}

	var paths []CriticalPath
	const maxPaths = 10

	var walk func(current, goal string, path []string, visited map[string]bool) [][]string
	walk = func(current, goal string, path []string, visited map[string]bool) [][]string {
		if current == goal {
			return [][]string{append([]string(nil), path...)}
		}
		var found [][]string
		for _, next := range g.forward[current] {
			if visited[next] {
				continue
			}
			visited[next] = true
			found = append(found, walk(next, goal, append(path, next), visited)...)
			delete(visited, next)
		}
		return found
	}

	for _, entry := range entries {
		for _, exit := range exits {
			if entry == exit || len(paths) >= maxPaths {
				continue
			}
			candidates := walk(exit, entry, []string{exit}, map[string]bool{exit: true})
			if len(candidates) > 2 {
				candidates = candidates[:2]
			}
			for _, p := range candidates {
				if len(p) < 3 || len(paths) >= maxPaths {
					continue
				}
				weakest := p[0]
				minScore := math.Inf(1)
				for _, member := range p {
					if score := g.nodes[member].CompositeScore; score < minScore {
						minScore = score
						weakest = member
					}
				}
				var risk string
				switch {
				case minScore < 30:
					risk = CriticalityCritical
				case minScore < 50:
					risk = CriticalityHigh
				case minScore < 70:
					risk = CriticalityMedium
				default:
					risk = CriticalityLow
				}
				paths = append(paths, CriticalPath{
					PathID:           uuid.New().String()[:8],
					PathName:         fmt.Sprintf("%s -> %s", p[0], p[len(p)-1]),
					Apps:             p,
					TotalLength:      len(p),
					WeakestLinkApp:   weakest,
					WeakestLinkScore: minScore,
					RiskLevel:        risk,
				})
			}
		}
	}

	rank := map[string]int{CriticalityCritical: 0, CriticalityHigh: 1, CriticalityMedium: 2, CriticalityLow: 3}
	sort.SliceStable(paths, func(i, j int) bool { return rank[paths[i].RiskLevel] < rank[paths[j].RiskLevel] })
	return paths
}

// RetirementSequence orders a batch retirement so that apps with no
// remaining dependents go first. Ties inside a cycle break on the lowest
// composite score. Steps group into phases of three.
func (g *Graph) RetirementSequence(names []string) RetirementPlan {
	remaining := map[string]bool{}
	for _, n := range names {
		remaining[n] = true
	}

	var sequence []RetirementStep
	for len(remaining) > 0 {
		var ready []string
		for name := range remaining {
			blocked := false
			for _, dependent := range g.reverse[name] {
				if remaining[dependent] {
					blocked = true
					break
				}
			}
			if !blocked {
				ready = append(ready, name)
			}
		}

		if len(ready) == 0 {
			// Cycle among the remaining apps: force the lowest score out.
			lowest := ""
			minScore := math.Inf(1)
			for name := range remaining {
				score := math.Inf(1)
				if node, ok := g.nodes[name]; ok {
					score = node.CompositeScore
				}
				if lowest == "" || score < minScore || (score == minScore && name < lowest) {
					lowest = name
					minScore = score
				}
			}
			ready = []string{lowest}
		}

		sort.Strings(ready)
		for _, name := range ready {
			if _, ok := g.nodes[name]; ok {
				sequence = append(sequence, RetirementStep{
					AppName:        name,
					Phase:          len(sequence)/3 + 1,
					DependentCount: len(g.reverse[name]),
					Notes:          g.retirementNotes(name),
				})
			}
			delete(remaining, name)
		}
	}

	return RetirementPlan{
		Sequence:  sequence,
		TotalApps: len(sequence),
		Phases:    len(sequence)/3 + 1,
		Warnings:  g.retirementWarnings(names),
	}
}

func (g *Graph) retirementNotes(name string) string {
	dependents := g.reverse[name]
	switch len(dependents) {
	case 0:
		return "No dependencies - safe to retire"
	case 1:
		return fmt.Sprintf("1 dependent app: %s", dependents[0])
	default:
		return fmt.Sprintf("%d dependent apps - coordinate retirement", len(dependents))
	}
}

func (g *Graph) retirementWarnings(names []string) []string {
	var warnings []string

	critical := 0
	inBatch := map[string]bool{}
	for _, name := range names {
		inBatch[name] = true
		if node, ok := g.nodes[name]; ok && node.Criticality == CriticalityCritical {
			critical++
		}
	}
	if critical > 0 {
		warnings = append(warnings, fmt.Sprintf("%d critical applications in retirement list", critical))
	}

	for _, cycle := range g.Cycles() {
		for _, member := range cycle {
			if inBatch[member] {
				warnings = append(warnings, fmt.Sprintf("Circular dependency detected: %s", strings.Join(cycle, " -> ")))
				break
			}
		}
	}
	return warnings
}
