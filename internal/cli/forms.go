package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/alexanderramin/delegate/internal/cli/formatter"
	"github.com/alexanderramin/delegate/internal/domain"
)

// delegateHuhTheme matches huh forms to the formatter palette.
func delegateHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	t.Focused.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorGreen)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.FocusedButton = lipgloss.NewStyle().Foreground(formatter.ColorFg).Background(formatter.ColorHeader).Padding(0, 1)
	t.Focused.BlurredButton = lipgloss.NewStyle().Foreground(formatter.ColorDim).Padding(0, 1)
	t.Focused.TextInput.Cursor = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	return t
}

func huhConfirm(prompt string) (bool, error) {
	var ok bool
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(prompt).
				Affirmative("Yes").
				Negative("No").
				Value(&ok),
		),
	).WithTheme(delegateHuhTheme()).WithShowHelp(false).Run()
	return ok, err
}

// projectForm collects the fields of a new project that were not given as
// flags.
func projectForm(name *string, mode *string, end *string) *huh.Form {
	options := []huh.Option[string]{
		huh.NewOption("Agile", string(domain.MethodologyAgile)),
		huh.NewOption("PMI", string(domain.MethodologyPMI)),
		huh.NewOption("Hybrid", string(domain.MethodologyHybrid)),
	}
	if *mode == "" {
		*mode = string(domain.MethodologyAgile)
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Project name").
				Value(name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name is required")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Methodology").
				Options(options...).
				Value(mode),
			huh.NewInput().
				Title("End date (YYYY-MM-DD, blank for none)").
				Placeholder(time.Now().AddDate(0, 3, 0).Format(domain.DateLayout)).
				Value(end).
				Validate(validateOptionalDate),
		),
	).WithTheme(delegateHuhTheme()).WithShowHelp(false)
}

// validateOptionalDate accepts empty or a YYYY-MM-DD date.
func validateOptionalDate(s string) error {
	if s == "" {
		return nil
	}
	if _, err := time.Parse(domain.DateLayout, s); err != nil {
		return fmt.Errorf("use YYYY-MM-DD format")
	}
	return nil
}
