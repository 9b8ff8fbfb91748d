package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"ftk/internal/app"
	"ftk/internal/wizard"
)

type ExitCoder interface {
	ExitCode() int
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if ex, ok := err.(ExitCoder); ok {
			os.Exit(ex.ExitCode())
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var projectRoot string
	var jsonOutput bool

	newSvc := func() (*app.Service, error) {
		return app.New(app.Options{ProjectRoot: projectRoot})
	}

	cmd := &cobra.Command{
		Use:           "ftk",
		Short:         "Project setup toolkit for integration servers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&projectRoot, "project", "", "project root (default: current directory)")
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output JSON")

	cmd.AddCommand(newInitCmd(newSvc, &jsonOutput))
	cmd.AddCommand(newAddCmd(newSvc, &jsonOutput))
	cmd.AddCommand(newRemoveCmd(newSvc, &jsonOutput))
	cmd.AddCommand(newListCmd(newSvc, &jsonOutput))
	cmd.AddCommand(newResolveCmd(newSvc, &jsonOutput))
	cmd.AddCommand(newRenderCmd(newSvc, &jsonOutput))
	cmd.AddCommand(newDoctorCmd(newSvc, &jsonOutput))
	cmd.AddCommand(newSelfCmd(newSvc, &jsonOutput))
	cmd.AddCommand(newVersionCmd(&jsonOutput))

	return cmd
}

func newInitCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Pick servers interactively and set up the project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !wizard.IsInteractive() {
				return fmt.Errorf("init needs a terminal; use 'ftk add' in scripts")
			}
			svc, err := newSvc()
			if err != nil {
				return err
			}
			res, err := svc.Init(context.Background())
			if err != nil {
				return err
			}
			if res.Canceled {
				return print(*jsonOutput, res, "canceled, nothing written")
			}
			return print(*jsonOutput, res, fmt.Sprintf("configured %d servers, wrote %s", len(res.ServerIDs), res.HostConfig))
		},
	}
}

func newAddCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	var constraint string
	var pin string
	cmd := &cobra.Command{
		Use:     "add <server-id>",
		Aliases: []string{"install"},
		Short:   "Add a catalog server to the project",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			res, err := svc.Add(context.Background(), args[0], constraint, pin)
			if err != nil {
				return err
			}
			if res.Version == "" {
				return print(*jsonOutput, res, fmt.Sprintf("added %s (version unresolved, launcher default applies)", res.ServerID))
			}
			return print(*jsonOutput, res, fmt.Sprintf("added %s at %s (%s)", res.ServerID, res.Version, res.Source))
		},
	}
	cmd.Flags().StringVar(&constraint, "constraint", "", "version range, e.g. ^1.2.0")
	cmd.Flags().StringVar(&pin, "pin", "", "exact version to use")
	return cmd
}

func newRemoveCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <server-id>",
		Aliases: []string{"rm", "uninstall"},
		Short:   "Remove a server from the project",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			if err := svc.Remove(args[0]); err != nil {
				return err
			}
			return print(*jsonOutput, map[string]string{"removed": args[0]}, "removed "+args[0])
		},
	}
}

func newListCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List catalog servers and their project status",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			items := svc.List()
			if *jsonOutput {
				return print(true, items, "")
			}
			for _, item := range items {
				mark := " "
				if item.Configured {
					mark = "*"
				}
				line := fmt.Sprintf("%s %-12s %s", mark, item.ID, item.Description)
				if item.Locked != "" {
					line += " [" + item.Locked + "]"
				}
				fmt.Println(line)
			}
			return nil
		},
	}
}

func newResolveCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve",
		Short: "Resolve versions for every configured server",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			resolutions, err := svc.ResolveAll(context.Background())
			if err != nil {
				return err
			}
			if *jsonOutput {
				return print(true, resolutions, "")
			}
			for _, res := range resolutions {
				if res.Version == "" {
					fmt.Printf("%s: unresolved\n", res.ServerID)
					continue
				}
				fmt.Printf("%s: %s (%s)\n", res.ServerID, res.Version, res.Source)
			}
			return nil
		},
	}
}

func newRenderCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "render",
		Short: "Regenerate the host config from manifest and lock",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			path, notes, err := svc.Render()
			if err != nil {
				return err
			}
			payload := map[string]any{"path": path, "notes": notes}
			return print(*jsonOutput, payload, "wrote "+path)
		},
	}
}

func newDoctorCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:     "doctor",
		Aliases: []string{"check"},
		Short:   "Run project diagnostics",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			report := svc.CheckHealth(context.Background())
			if *jsonOutput {
				return print(true, report, "")
			}
			if report.Healthy {
				fmt.Println("healthy")
			} else {
				fmt.Println("issues found:")
			}
			for _, f := range report.Findings {
				fmt.Printf("- [%s] %s: %s\n", f.Level, f.Code, f.Message)
			}
			return nil
		},
	}
}

func newSelfCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	selfCmd := &cobra.Command{Use: "self", Short: "Manage ftk itself"}
	var ttl time.Duration
	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Check for a newer ftk release",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			res, err := svc.CheckRelease(context.Background(), ttl)
			if err != nil {
				return err
			}
			if *jsonOutput {
				return print(true, res, "")
			}
			if res.UpdateAvailable {
				fmt.Printf("update available: %s (current %s)\n", res.Latest, res.Current)
			} else {
				fmt.Printf("up to date (%s)\n", res.Current)
			}
			return nil
		},
	}
	checkCmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "cache lifetime for the release check")
	selfCmd.AddCommand(checkCmd)
	return selfCmd
}

func print(jsonOutput bool, payload any, message string) error {
	if jsonOutput {
		blob, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(blob))
		return nil
	}
	if message != "" {
		fmt.Println(message)
	}
	return nil
}
