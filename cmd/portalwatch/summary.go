package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/sznuper/portalwatch/internal/config"
	"github.com/sznuper/portalwatch/internal/runner"
)

var (
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	dimStyle   = lipgloss.NewStyle().Faint(true)
	titleStyle = lipgloss.NewStyle().Bold(true)
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func renderSummary(results []runner.Result) string {
	passed, failed := runner.Summary(results)
	lines := []string{titleStyle.Render(fmt.Sprintf("Monitoring run: %d passed, %d failed", passed, failed))}

	for _, res := range results {
		mark := okStyle.Render("✓")
		if res.Failed() {
			mark = failStyle.Render("✗")
		}
		lines = append(lines, mark+" "+runner.Describe(res))
		if !res.Failed() {
			continue
		}
		for _, s := range res.Steps {
			if s.Screenshot != "" {
				lines = append(lines, dimStyle.Render("  screenshot: "+s.Screenshot))
			}
		}
		if res.Alerted() {
			lines = append(lines, dimStyle.Render("  alert dispatched"))
		}
	}

	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func renderTargets(cfg *config.Config, path string) string {
	lines := []string{titleStyle.Render("Config OK: " + path)}
	for _, t := range cfg.Targets {
		lines = append(lines, fmt.Sprintf("%s %s (%s) %s", okStyle.Render("•"), t.Name, t.Env, dimStyle.Render(t.URL)))
	}
	mode := "simulation (alerts are logged, not sent)"
	if cfg.Alerts.Enabled {
		mode = fmt.Sprintf("%s to %d recipient(s)", cfg.Alerts.Provider, len(cfg.Alerts.Recipients))
	}
	lines = append(lines, "Alerts: "+mode)
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
