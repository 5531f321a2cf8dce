package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/hmlegal/lexintake/internal/config"
	"github.com/hmlegal/lexintake/internal/db"
	"github.com/hmlegal/lexintake/internal/errors"
	"github.com/hmlegal/lexintake/internal/notify"
	"github.com/hmlegal/lexintake/internal/ops"
	"github.com/hmlegal/lexintake/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(database *sql.DB, cfg *config.Config, baseDir string) *cli.App {
	app := &cli.App{
		Name:    "lexintake",
		Usage:   "Immigration intake and case tracking",
		Version: Version,
		Commands: []*cli.Command{
			serveCmd(database, cfg, baseDir),
			intakeCmd(database),
			showCmd(database),
			submitCmd(database, cfg, baseDir),
			listCmd(database),
			updateCmd(database),
			exportCmd(database, cfg, baseDir),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// serveCmd creates the serve command.
func serveCmd(database *sql.DB, cfg *config.Config, baseDir string) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Aliases: []string{"b"}, Value: "127.0.0.1", Usage: "Address to bind to"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 8080, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			sender := notify.NewConsoleSender(os.Stdout, cfg.NotifyFrom)
			srv := web.NewServer(database, cfg, sender, db.UploadsDir(baseDir), Version, c.String("bind"), c.Int("port"))
			return web.Run(srv)
		},
	}
}

// intakeCmd creates the intake command.
func intakeCmd(database *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "intake",
		Usage: "Create a case record from questionnaire answers (all flags optional)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "full-name", Usage: "Client's full name"},
			&cli.StringFlag{Name: "email", Usage: "Client's email address"},
			&cli.StringFlag{Name: "phone", Usage: "Client's phone number"},
			&cli.StringFlag{Name: "country-citizenship", Usage: "Country of citizenship"},
			&cli.StringFlag{Name: "current-city-country", Usage: "Current city and country"},
			&cli.StringFlag{Name: "dob", Usage: "Date of birth"},
			&cli.StringFlag{Name: "case-type", Usage: "Type of immigration matter"},
			&cli.StringFlag{Name: "in-us", Usage: "Currently in the U.S.? (Yes/No)"},
			&cli.StringFlag{Name: "current-status", Usage: "Current immigration status"},
			&cli.StringFlag{Name: "prior-applications", Usage: "Prior applications filed"},
			&cli.StringFlag{Name: "arrest-history", Usage: "Any arrest history? (Yes/No)"},
			&cli.StringFlag{Name: "deported", Usage: "Ever deported or removed? (Yes/No)"},
			&cli.StringFlag{Name: "overstayed", Usage: "Ever overstayed a visa? (Yes/No)"},
			&cli.StringFlag{Name: "background-notes", Usage: "Anything else the office should know"},
			&cli.StringFlag{Name: "urgency", Usage: "How urgent the matter is"},
			&cli.StringFlag{Name: "communication", Usage: "Preferred communication channel"},
			&cli.StringFlag{Name: "referral-source", Usage: "How the client heard about the office"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Intake(database, ops.IntakeInput{
				FullName:           c.String("full-name"),
				Email:              c.String("email"),
				Phone:              c.String("phone"),
				CountryCitizenship: c.String("country-citizenship"),
				CurrentCityCountry: c.String("current-city-country"),
				DOB:                c.String("dob"),
				CaseType:           c.String("case-type"),
				InUS:               c.String("in-us"),
				CurrentStatus:      c.String("current-status"),
				PriorApplications:  c.String("prior-applications"),
				ArrestHistory:      c.String("arrest-history"),
				Deported:           c.String("deported"),
				Overstayed:         c.String("overstayed"),
				BackgroundNotes:    c.String("background-notes"),
				Urgency:            c.String("urgency"),
				Communication:      c.String("communication"),
				ReferralSource:     c.String("referral-source"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// showCmd creates the show command.
func showCmd(database *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show a case record",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "documents", Aliases: []string{"d"}, Usage: "Include document references"},
		},
		Action: func(c *cli.Context) error {
			id, err := parseIDArg(c)
			if err != nil {
				return outputError(err)
			}

			output, err := ops.Fetch(database, ops.FetchInput{
				ID:               id,
				IncludeDocuments: c.Bool("documents"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// submitCmd creates the submit command.
func submitCmd(database *sql.DB, cfg *config.Config, baseDir string) *cli.Command {
	return &cli.Command{
		Name:      "submit",
		Usage:     "Submit document files for a case",
		ArgsUsage: "<id> <file>...",
		Action: func(c *cli.Context) error {
			id, err := parseIDArg(c)
			if err != nil {
				return outputError(err)
			}

			var files []ops.FilePayload
			for _, path := range c.Args().Tail() {
				f, err := os.Open(path)
				if err != nil {
					return outputError(errors.NewFileNotFound(path))
				}
				defer f.Close()
				files = append(files, ops.FilePayload{Filename: path, Content: f})
			}

			sender := notify.NewConsoleSender(os.Stdout, cfg.NotifyFrom)
			output, err := ops.SubmitDocuments(c.Context, database, cfg, sender, ops.SubmitDocumentsInput{
				CaseID:    id,
				UploadDir: db.UploadsDir(baseDir),
				Files:     files,
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// listCmd creates the list command.
func listCmd(database *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List case summaries, newest first",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Maximum items to return"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Items to skip"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.List(database, ops.ListInput{
				Limit:  c.Int("limit"),
				Offset: c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// updateCmd creates the update command.
func updateCmd(database *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "Update a case's workflow fields and notes",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "notes", Usage: "Staff notes (replaces existing notes)"},
			&cli.StringFlag{Name: "status", Usage: "New status label"},
			&cli.StringFlag{Name: "next-action", Usage: "New next-action label"},
			&cli.StringFlag{Name: "docs-received", Usage: "Document state: None|Partial|Complete"},
		},
		Action: func(c *cli.Context) error {
			id, err := parseIDArg(c)
			if err != nil {
				return outputError(err)
			}

			input := ops.UpdateCaseInput{ID: id}
			if c.IsSet("notes") {
				notes := c.String("notes")
				input.Notes = &notes
			}
			if c.IsSet("status") {
				status := c.String("status")
				input.Status = &status
			}
			if c.IsSet("next-action") {
				nextAction := c.String("next-action")
				input.NextAction = &nextAction
			}
			if c.IsSet("docs-received") {
				docsReceived := c.String("docs-received")
				input.DocsReceived = &docsReceived
			}

			output, err := ops.UpdateCase(database, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// exportCmd creates the export command.
func exportCmd(database *sql.DB, cfg *config.Config, baseDir string) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export all cases to a JSONL file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Export file path (default: ~/.lexintake/exports/cases-<timestamp>.jsonl)"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Export(c.Context, database, cfg, ops.ExportInput{
				Path:       c.String("path"),
				ExportsDir: db.ExportsDir(baseDir),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// Helper functions

// parseIDArg parses the positional case id argument.
func parseIDArg(c *cli.Context) (int64, error) {
	if c.NArg() < 1 {
		return 0, errors.NewInvalidRequest("case id argument is required")
	}
	id, err := strconv.ParseInt(c.Args().First(), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NewInvalidRequest("case id must be a positive integer")
	}
	return id, nil
}

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if cErr, ok := err.(*errors.CaseError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", cErr.Code, cErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
