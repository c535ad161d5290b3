package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/zpdzap/orgpool/internal/pool"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFD700")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF4444"))

	statusAvailable = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00"))
	statusAssigned  = lipgloss.NewStyle().Foreground(lipgloss.Color("#5599FF"))
	statusOther     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFAA00"))
)

func statusCell(s pool.Status) string {
	switch s {
	case pool.StatusAvailable:
		return statusAvailable.Render(string(s))
	case pool.StatusAssigned:
		return statusAssigned.Render(string(s))
	default:
		return statusOther.Render(string(s))
	}
}

func renderReport(r *pool.CreateReport) string {
	var b strings.Builder
	fmt.Fprintln(&b, headerStyle.Render(fmt.Sprintf("Pool %q create run", r.Tag)))
	fmt.Fprintf(&b, "  %s %s\n", labelStyle.Render("capacity:"),
		valueStyle.Render(fmt.Sprintf("%d remaining of %d", r.Remaining, r.Max)))
	fmt.Fprintf(&b, "  %s %s\n", labelStyle.Render("planned:"), valueStyle.Render(fmt.Sprint(r.Planned)))
	fmt.Fprintf(&b, "  %s %s\n", labelStyle.Render("provisioned:"), valueStyle.Render(fmt.Sprint(r.Provisioned)))
	fmt.Fprintf(&b, "  %s %s\n", labelStyle.Render("committed:"), valueStyle.Render(fmt.Sprint(r.Committed)))
	fmt.Fprintf(&b, "  %s %s\n", labelStyle.Render("failed:"), valueStyle.Render(fmt.Sprint(r.Failed)))

	if len(r.Users) > 1 {
		fmt.Fprintln(&b, headerStyle.Render("Consumers"))
		for _, u := range r.Users {
			name := u.Username
			if name == "" {
				name = "(pool)"
			}
			fmt.Fprintf(&b, "  %-28s priority %d  current %d  planned %d  provisioned %d\n",
				name, u.Priority, u.Current, u.Planned, u.Provisioned)
		}
	}

	for _, s := range r.Scripts {
		if s.Success {
			continue
		}
		fmt.Fprintf(&b, "  %s %s: %s\n", errorStyle.Render("script failed"), s.Username, s.Message)
	}
	return b.String()
}

func renderClaim(row *pool.Row) string {
	var b strings.Builder
	fmt.Fprintln(&b, headerStyle.Render("Scratch org assigned"))
	fmt.Fprintf(&b, "  %s %s\n", labelStyle.Render("username:"), valueStyle.Render(row.Username))
	fmt.Fprintf(&b, "  %s %s\n", labelStyle.Render("password:"), valueStyle.Render(row.Password))
	fmt.Fprintf(&b, "  %s %s\n", labelStyle.Render("login url:"), valueStyle.Render(row.LoginURL))
	if row.ExpirationDate != "" {
		fmt.Fprintf(&b, "  %s %s\n", labelStyle.Render("expires:"), valueStyle.Render(row.ExpirationDate))
	}
	return b.String()
}

func renderList(tag string, res *pool.ListResult, showAll bool) string {
	var b strings.Builder
	fmt.Fprintln(&b, headerStyle.Render(fmt.Sprintf("Pool %q", tag)))
	fmt.Fprintf(&b, "  %s %d   %s %d   %s %d   %s %d\n",
		labelStyle.Render("total"), res.Total,
		labelStyle.Render("in use"), res.InUse,
		labelStyle.Render("available"), res.Unused,
		labelStyle.Render("provisioning"), res.InProvision)

	if !showAll {
		return b.String()
	}
	for _, row := range res.Rows {
		fmt.Fprintf(&b, "  %-36s %-14s %s\n", row.Username, statusCell(row.Status), row.ExpirationDate)
	}
	return b.String()
}

func renderDelete(tag string, res *pool.DeleteResult) string {
	var b strings.Builder
	fmt.Fprintln(&b, headerStyle.Render(fmt.Sprintf("Pool %q delete", tag)))
	for _, row := range res.Deleted {
		fmt.Fprintf(&b, "  %s %s\n", statusOther.Render("deleted"), row.Username)
	}
	for _, row := range res.Failed {
		fmt.Fprintf(&b, "  %s %s\n", errorStyle.Render("failed"), row.Username)
	}
	fmt.Fprintf(&b, "  %s %d deleted, %d failed\n", labelStyle.Render("summary:"), len(res.Deleted), len(res.Failed))
	return b.String()
}
