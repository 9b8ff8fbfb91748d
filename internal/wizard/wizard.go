// Package wizard drives the interactive setup flow: pick servers from
// the catalog, collect the secrets they need, confirm. The huh forms
// live here; everything the forms feed on is built by pure helpers so
// the flow stays testable without a terminal.
package wizard

import (
	"fmt"
	"os"
	"sort"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"ftk/internal/catalog"
	"ftk/internal/config"
	"ftk/internal/secrets"
)

// Selection is what the wizard hands back to the caller.
type Selection struct {
	ServerIDs []string
	Secrets   map[string]string
	Confirmed bool
}

// SecretPrompt is one credential the wizard still has to ask for.
type SecretPrompt struct {
	ServerID string
	EnvVar   string
	Prompt   string
}

// IsInteractive reports whether stdin is a terminal.
func IsInteractive() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

// ServerOptions builds the multi-select options, preselecting servers
// already present in the manifest.
func ServerOptions(m config.Manifest) []huh.Option[string] {
	var opts []huh.Option[string]
	for _, srv := range catalog.All() {
		label := fmt.Sprintf("%s: %s", srv.Name, srv.Description)
		opt := huh.NewOption(label, srv.ID)
		if _, ok := config.FindServer(m, srv.ID); ok {
			opt = opt.Selected(true)
		}
		opts = append(opts, opt)
	}
	return opts
}

// PendingSecrets lists the prompts needed for the chosen servers,
// skipping anything already stored or exported, ordered by server then
// variable.
func PendingSecrets(serverIDs []string, sec secrets.File) []SecretPrompt {
	var out []SecretPrompt
	for _, id := range serverIDs {
		srv, ok := catalog.Find(id)
		if !ok {
			continue
		}
		for _, s := range srv.Secrets {
			if s.Optional {
				continue
			}
			if _, ok := secrets.Get(sec, s.EnvVar); ok {
				continue
			}
			if os.Getenv(s.EnvVar) != "" {
				continue
			}
			out = append(out, SecretPrompt{ServerID: id, EnvVar: s.EnvVar, Prompt: s.Prompt})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ServerID == out[j].ServerID {
			return out[i].EnvVar < out[j].EnvVar
		}
		return out[i].ServerID < out[j].ServerID
	})
	return out
}

var summaryStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))

// Summary renders the confirmation text shown before applying.
func Summary(serverIDs []string) string {
	s := summaryStyle.Render("Servers to configure:") + "\n"
	for _, id := range serverIDs {
		if srv, ok := catalog.Find(id); ok {
			s += fmt.Sprintf("  - %s (%s via %s)\n", srv.Name, srv.PackageName, srv.Registry)
		}
	}
	return s
}

// Run walks the full interactive flow against the current manifest and
// secrets file.
func Run(m config.Manifest, sec secrets.File) (Selection, error) {
	sel := Selection{Secrets: map[string]string{}}

	pick := huh.NewForm(huh.NewGroup(
		huh.NewMultiSelect[string]().
			Title("Which servers should this project use?").
			Options(ServerOptions(m)...).
			Value(&sel.ServerIDs),
	))
	if err := pick.Run(); err != nil {
		return Selection{}, fmt.Errorf("WIZ_SELECT: %w", err)
	}

	for _, prompt := range PendingSecrets(sel.ServerIDs, sec) {
		var value string
		input := huh.NewForm(huh.NewGroup(
			huh.NewInput().
				Title(prompt.Prompt).
				Description("stored in ftk.secrets.yaml for server " + prompt.ServerID).
				EchoMode(huh.EchoModePassword).
				Value(&value),
		))
		if err := input.Run(); err != nil {
			return Selection{}, fmt.Errorf("WIZ_SECRET: %w", err)
		}
		if value != "" {
			sel.Secrets[prompt.EnvVar] = value
		}
	}

	fmt.Print(Summary(sel.ServerIDs))
	confirm := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title("Write configuration and resolve versions?").
			Affirmative("Apply").
			Negative("Cancel").
			Value(&sel.Confirmed),
	))
	if err := confirm.Run(); err != nil {
		return Selection{}, fmt.Errorf("WIZ_CONFIRM: %w", err)
	}
	return sel, nil
}
