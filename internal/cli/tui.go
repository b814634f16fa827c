package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/pedigree/pkg/family"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// PatientListModel - Interactive linked patient selection
// =============================================================================

// PatientChoice is one linked id offered for selection.
type PatientChoice struct {
	ID     string
	Name   string
	Gender string
	Known  bool
}

// patientChoices lists resolved patients first, then the ids the repository
// does not know.
func patientChoices(linked *family.Linked) []PatientChoice {
	out := make([]PatientChoice, 0, len(linked.Patients)+len(linked.Missing))
	for _, p := range linked.Patients {
		out = append(out, PatientChoice{ID: p.ID, Name: p.Name(), Gender: p.Gender, Known: true})
	}
	for _, id := range linked.Missing {
		out = append(out, PatientChoice{ID: id})
	}
	return out
}

// PatientListModel is the bubbletea model for picking the patient to unlink.
type PatientListModel struct {
	Family   string
	Choices  []PatientChoice
	Cursor   int
	Selected *PatientChoice
	Height   int
	Offset   int
}

// NewPatientListModel creates a new patient list model.
func NewPatientListModel(familyID string, choices []PatientChoice) PatientListModel {
	return PatientListModel{
		Family:  familyID,
		Choices: choices,
		Height:  15,
	}
}

func (m PatientListModel) Init() tea.Cmd {
	return nil
}

func (m PatientListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Choices)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Choices) == 0 {
				return m, tea.Quit
			}
			choice := m.Choices[m.Cursor]
			m.Selected = &choice
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m PatientListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Unlink a patient from " + m.Family))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ unlink  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.Choices) {
		end = len(m.Choices)
	}

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		p := m.Choices[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		name := p.Name
		if !p.Known {
			name = "unknown patient"
		}
		rows = append(rows, []string{cursor, p.ID, orDash(name), orDash(p.Gender)})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Patient", "Name", "Gender").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := m.Offset + row
			if idx >= len(m.Choices) {
				return lipgloss.NewStyle()
			}
			switch {
			case idx == m.Cursor:
				return listSelectedStyle
			case !m.Choices[idx].Known:
				return listDimStyle
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Choices))))

	return b.String()
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
