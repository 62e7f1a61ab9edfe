package message

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	roleStyles = map[Role]lipgloss.Style{
		RoleSystem:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("8")),
		RoleUser:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		RoleAssistant: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11")),
		RoleTool:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
	}
	headerLabels = map[Role]string{
		RoleSystem:    "System Message",
		RoleUser:      "Human Message",
		RoleAssistant: "Ai Message",
		RoleTool:      "Tool Message",
	}
)

// Pretty writes a transcript with one styled header per message.
func Pretty(w io.Writer, msgs []Message) error {
	for _, m := range msgs {
		if err := PrettyOne(w, m); err != nil {
			return err
		}
	}
	return nil
}

// PrettyOne writes a single message.
func PrettyOne(w io.Writer, m Message) error {
	label := headerLabels[m.Role]
	if label == "" {
		label = string(m.Role)
	}
	header := fmt.Sprintf("%s %s %s", strings.Repeat("=", 16), label, strings.Repeat("=", 16))

	var b strings.Builder
	b.WriteString(roleStyles[m.Role].Render(header))
	b.WriteString("\n")
	if m.Name != "" {
		fmt.Fprintf(&b, "Name: %s\n", m.Name)
	}
	if m.Content != "" {
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	for _, tc := range m.ToolCalls {
		fmt.Fprintf(&b, "Tool Call: %s (%s)\n  Args: %s\n", tc.Name, tc.ID, tc.Arguments)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
