package commands

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// InteractiveCmd creates the interactive command. A session keeps one
// AppContext alive, which is the only way to work with memory storage
// across several commands.
func InteractiveCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "interactive",
		Short: "Start an interactive session (load config once, run multiple commands)",
		Long: `Start an interactive session where you can run multiple commands against the same storage.
Use 'as <subject>' to change who you are acting as. Type 'exit' or 'quit' to leave.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("\nStarting interactive session...")
			fmt.Println("Type 'help' for available commands, 'exit' or 'quit' to leave")

			commands := make(map[string]*cobra.Command)
			for _, subCmd := range cmd.Parent().Commands() {
				switch subCmd.Name() {
				case "interactive", "completion", "help", "serve":
					continue
				}
				commands[subCmd.Name()] = subCmd
			}

			scanner := bufio.NewScanner(os.Stdin)
			for {
				fmt.Printf("[%s]> ", displaySubject(app.Subject))
				if !scanner.Scan() {
					break
				}

				parts := splitArgs(scanner.Text())
				if len(parts) == 0 {
					continue
				}
				cmdName, cmdArgs := parts[0], parts[1:]

				switch cmdName {
				case "exit", "quit":
					fmt.Println("Goodbye!")
					return nil
				case "help":
					printInteractiveHelp(commands)
					continue
				case "as":
					app.Subject = ""
					if len(cmdArgs) > 0 {
						app.Subject = cmdArgs[0]
					}
					continue
				}

				targetCmd, exists := commands[cmdName]
				if !exists {
					fmt.Printf("Unknown command: %s (type 'help' for available commands)\n\n", cmdName)
					continue
				}
				if err := runInSession(targetCmd, cmdArgs); err != nil {
					fmt.Printf("Error: %v\n\n", err)
				}
			}

			if err := scanner.Err(); err != nil {
				return fmt.Errorf("error reading input: %w", err)
			}
			return nil
		},
	}
}

// runInSession runs a command's RunE directly so PersistentPreRunE does not
// rebuild the app (and with it a fresh memory store)
func runInSession(targetCmd *cobra.Command, args []string) error {
	targetCmd.Flags().VisitAll(func(flag *pflag.Flag) {
		flag.Changed = false
		_ = flag.Value.Set(flag.DefValue)
	})

	if err := targetCmd.ParseFlags(args); err != nil {
		return fmt.Errorf("parsing flags: %w", err)
	}
	args = targetCmd.Flags().Args()

	if targetCmd.Args != nil {
		if err := targetCmd.Args(targetCmd, args); err != nil {
			return err
		}
	}
	if targetCmd.RunE != nil {
		return targetCmd.RunE(targetCmd, args)
	}
	if targetCmd.Run != nil {
		targetCmd.Run(targetCmd, args)
	}
	return nil
}

// splitArgs splits a line on whitespace, keeping double-quoted text together
func splitArgs(line string) []string {
	var args []string
	var current strings.Builder
	inQuotes, hasToken := false, false

	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			hasToken = true
		case (r == ' ' || r == '\t') && !inQuotes:
			if hasToken {
				args = append(args, current.String())
				current.Reset()
				hasToken = false
			}
		default:
			current.WriteRune(r)
			hasToken = true
		}
	}
	if hasToken {
		args = append(args, current.String())
	}
	return args
}

func displaySubject(subject string) string {
	if subject == "" {
		return "anonymous"
	}
	return subject
}

func printInteractiveHelp(commands map[string]*cobra.Command) {
	fmt.Println("\nAvailable commands:")

	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Printf("  %-60s %s\n", commands[name].Use, commands[name].Short)
	}

	fmt.Printf("\n  %-60s %s\n", "as <subject>", "Act as another identity (no subject = anonymous)")
	fmt.Printf("  %-60s %s\n", "help", "Show this help message")
	fmt.Printf("  %-60s %s\n\n", "exit, quit", "Exit the interactive session")
}
