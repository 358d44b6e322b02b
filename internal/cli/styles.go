// Package cli provides styled terminal output using lipgloss.
package cli

import (
	"fmt"
	"strings"

	"github.com/DanteAc13/propintel/internal/model"
	"github.com/charmbracelet/lipgloss"
)

var (
	// PrimaryColor is the main theme color (slate blue).
	PrimaryColor = lipgloss.Color("#5B8DEF")
	// SuccessColor indicates successful operations.
	SuccessColor = lipgloss.Color("#4ECDC4") // Teal
	// WarningColor indicates warnings or caution messages.
	WarningColor = lipgloss.Color("#FFE66D") // Yellow
	// ErrorColor indicates errors or failure messages.
	ErrorColor = lipgloss.Color("#FF6B6B") // Red
	// InfoColor indicates informational messages.
	InfoColor = lipgloss.Color("#95E1D3") // Light teal
	// SubtleColor indicates less prominent UI elements.
	SubtleColor = lipgloss.Color("#666666") // Gray

	// TitleStyle is used for section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor).
			MarginBottom(1)

	// SuccessStyle formats success messages.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor)

	// WarningStyle formats warning messages.
	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	// ErrorStyle formats error messages.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor)

	// InfoStyle formats informational messages.
	InfoStyle = lipgloss.NewStyle().
			Foreground(InfoColor)

	// SubtleStyle formats less prominent text.
	SubtleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	// BoldStyle makes text bold.
	BoldStyle = lipgloss.NewStyle().
			Bold(true)

	// BoxStyle is used for bordered content boxes.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#333")).
			Padding(1, 2)

	// TableHeaderStyle is used for table headers.
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).
				BorderForeground(lipgloss.Color("#333"))

	// TableCellStyle formats table cells with appropriate padding.
	TableCellStyle = lipgloss.NewStyle().
			PaddingRight(2)
)

// Icons.
const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "⚠️"
	InfoIcon    = "ℹ️"
	HouseIcon   = "🏠"
	HazardIcon  = "🚨"
	ReviewIcon  = "🔍"
)

// severityStyles colors issues by severity label.
var severityStyles = map[model.SeverityLabel]lipgloss.Style{
	model.SeverityLabelCritical: lipgloss.NewStyle().Bold(true).Foreground(ErrorColor),
	model.SeverityLabelHigh:     lipgloss.NewStyle().Foreground(lipgloss.Color("#FF9F43")),
	model.SeverityLabelMedium:   WarningStyle,
	model.SeverityLabelLow:      SubtleStyle,
}

// FormatSuccess formats a success message with icon.
func FormatSuccess(message string) string {
	return SuccessStyle.Render(SuccessIcon + " " + message)
}

// FormatError formats an error message with icon.
func FormatError(message string) string {
	return ErrorStyle.Render(ErrorIcon + " " + message)
}

// FormatWarning formats a warning message with icon.
func FormatWarning(message string) string {
	return WarningStyle.Render(WarningIcon + " " + message)
}

// FormatInfo formats an info message with icon.
func FormatInfo(message string) string {
	return InfoStyle.Render(InfoIcon + " " + message)
}

// FormatTitle formats a title with the house icon.
func FormatTitle(title string) string {
	return TitleStyle.Render(HouseIcon + " " + title)
}

// FormatSeverity renders a severity label in its color.
func FormatSeverity(label model.SeverityLabel) string {
	style, ok := severityStyles[label]
	if !ok {
		style = SubtleStyle
	}
	return style.Render(string(label))
}

// RenderBox renders content in a styled box.
func RenderBox(title, content string) string {
	boxTitle := TitleStyle.
		UnsetMargins().
		Render(title)

	boxContent := lipgloss.JoinVertical(
		lipgloss.Left,
		boxTitle,
		content,
	)

	return BoxStyle.Render(boxContent)
}

// RenderMatch renders a match result. A miss renders as a manual review notice.
func RenderMatch(result model.MatchResult) string {
	if !result.Matched {
		return RenderBox(ReviewIcon+" No match", SubtleStyle.Render("Flag this observation for manual review."))
	}

	rows := [][2]string{
		{"Match", string(result.MatchType)},
		{"Defect", deref(result.DefectID)},
		{"Title", deref(result.NormalizedTitle)},
		{"Trade", deref(result.TradeCategory)},
		{"Score", derefInt(result.SeverityScore)},
		{"MasterFormat", deref(result.MasterFormatCode)},
		{"Risk", deref(result.RiskCategory)},
		{"Safety hazard", yesNo(result.IsSafetyHazard)},
		{"Insurance", yesNo(result.InsuranceRelevant)},
	}
	return RenderBox(SuccessIcon+" Matched", renderPairs(rows))
}

// RenderIssue renders one issue in a box.
func RenderIssue(issue *model.Issue) string {
	title := issue.NormalizedTitle
	if issue.IsSafetyHazard {
		title = HazardIcon + " " + title
	}

	var b strings.Builder
	b.WriteString(renderPairs([][2]string{
		{"Severity", FormatSeverity(issue.SeverityLabel) + fmt.Sprintf(" (%d)", issue.SeverityScore)},
		{"Urgency", string(issue.Urgency)},
		{"Trade", issue.TradeCategory},
		{"MasterFormat", deref(issue.MasterFormatCode)},
	}))
	if issue.HomeownerDescription != "" {
		b.WriteString("\n\n")
		b.WriteString(issue.HomeownerDescription)
	}
	return RenderBox(title, b.String())
}

// RenderIssueTable renders issues as a compact table, most severe first as given.
func RenderIssueTable(issues []model.Issue) string {
	header := lipgloss.JoinHorizontal(lipgloss.Top,
		TableCellStyle.Width(10).Render("SEVERITY"),
		TableCellStyle.Width(12).Render("URGENCY"),
		TableCellStyle.Width(18).Render("TRADE"),
		TableCellStyle.Render("TITLE"),
	)

	lines := []string{TableHeaderStyle.Render(header)}
	for i := range issues {
		issue := &issues[i]
		title := issue.NormalizedTitle
		if issue.IsSafetyHazard {
			title = HazardIcon + " " + title
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top,
			TableCellStyle.Width(10).Render(FormatSeverity(issue.SeverityLabel)),
			TableCellStyle.Width(12).Render(string(issue.Urgency)),
			TableCellStyle.Width(18).Render(issue.TradeCategory),
			TableCellStyle.Render(title),
		))
	}
	return strings.Join(lines, "\n")
}

func renderPairs(rows [][2]string) string {
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		if row[1] == "" {
			continue
		}
		lines = append(lines, BoldStyle.Width(14).Render(row[0])+row[1])
	}
	return strings.Join(lines, "\n")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(n *int) string {
	if n == nil {
		return ""
	}
	return fmt.Sprintf("%d", *n)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
