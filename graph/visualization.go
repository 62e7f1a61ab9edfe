package graph

import (
	"fmt"
	"strings"
)

// DrawMermaid renders the graph as a Mermaid flowchart.
func (g *StateGraph[S]) DrawMermaid() string {
	var sb strings.Builder
	sb.WriteString("flowchart TD\n")
	sb.WriteString("    __start__([\"__start__\"])\n")

	usesEnd := false
	for _, name := range g.order {
		fmt.Fprintf(&sb, "    %s[\"%s\"]\n", name, name)
	}
	for _, e := range g.edges {
		if e.To == END {
			usesEnd = true
		}
	}
	for _, ce := range g.conditionalEdges {
		for _, t := range ce.targets {
			if t == END {
				usesEnd = true
			}
		}
	}
	if usesEnd {
		sb.WriteString("    __end__([\"__end__\"])\n")
	}

	if g.entryPoint != "" {
		fmt.Fprintf(&sb, "    __start__ --> %s\n", g.entryPoint)
	}
	for _, e := range g.edges {
		fmt.Fprintf(&sb, "    %s --> %s\n", e.From, mermaidID(e.To))
	}
	for _, from := range g.order {
		ce, ok := g.conditionalEdges[from]
		if !ok {
			continue
		}
		for _, t := range ce.targets {
			fmt.Fprintf(&sb, "    %s -.-> %s\n", from, mermaidID(t))
		}
	}
	return sb.String()
}

func mermaidID(name string) string {
	if name == END {
		return "__end__"
	}
	return name
}
