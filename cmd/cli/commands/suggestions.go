package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jakechorley/staff-ops/pkg/core/model"
	"github.com/jakechorley/staff-ops/pkg/core/services"
)

// CreateSuggestionCmd creates the createSuggestion command
func CreateSuggestionCmd(app *AppContext) *cobra.Command {
	var input services.CreateSuggestionInput

	cmd := &cobra.Command{
		Use:   "createSuggestion",
		Short: "Submit a suggestion",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			suggestion, err := services.CreateSuggestion(app.Ctx, app.Database, app.Logger, app.Subject, input)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Suggestion created: %s\n", suggestion.ID)
			fmt.Printf("Similarity hash: %s\n\n", suggestion.SimilarityHash)
			return nil
		},
	}

	cmd.Flags().StringVar(&input.Problem, "problem", "", "What is wrong (required)")
	cmd.Flags().StringVar(&input.Solution, "solution", "", "Proposed fix (required)")
	cmd.Flags().StringVar(&input.Location, "location", "", "Where the problem was seen")
	cmd.Flags().StringVar(&input.PageContext, "page", "", "Page or screen context")
	return cmd
}

// ListSuggestionsCmd creates the listSuggestions command
func ListSuggestionsCmd(app *AppContext) *cobra.Command {
	var status string
	var limit int
	var grouped bool

	cmd := &cobra.Command{
		Use:   "listSuggestions",
		Short: "List suggestions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := services.SuggestionFilter{Status: model.SuggestionStatus(status), Limit: limit}

			if !grouped {
				suggestions, err := services.ListSuggestions(app.Ctx, app.Database, app.Logger, app.Subject, filter)
				if err != nil {
					return err
				}
				printSuggestions(suggestions, "")
				return nil
			}

			groups, err := services.ListSuggestionsGrouped(app.Ctx, app.Database, app.Logger, app.Subject, filter)
			if err != nil {
				return err
			}
			for _, g := range groups {
				fmt.Printf("\n[%s] %d suggestion(s)\n", g.Fingerprint, len(g.Suggestions))
				printSuggestions(g.Suggestions, "  ")
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status: pending, reviewed, implemented, rejected")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of suggestions (0 = all)")
	cmd.Flags().BoolVar(&grouped, "grouped", false, "Group suggestions by similarity hash")
	return cmd
}

func printSuggestions(suggestions []model.Suggestion, indent string) {
	if len(suggestions) == 0 {
		fmt.Printf("%sNo suggestions\n", indent)
		return
	}
	for _, s := range suggestions {
		fmt.Printf("%s%s  %-11s  %s -> %s\n", indent, s.ID, s.Status, s.Problem, s.Solution)
		if len(s.RelatedSuggestions) > 0 {
			fmt.Printf("%s  related: %s\n", indent, strings.Join(s.RelatedSuggestions, ", "))
		}
	}
}

// ReviewSuggestionCmd creates the reviewSuggestion command
func ReviewSuggestionCmd(app *AppContext) *cobra.Command {
	var notes, implementedOn string

	cmd := &cobra.Command{
		Use:   "reviewSuggestion <suggestion_id> <status>",
		Short: "Set a suggestion's review status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := services.ReviewSuggestionInput{
				Status:             model.SuggestionStatus(args[1]),
				Notes:              notes,
				ImplementationDate: implementedOn,
			}

			suggestion, err := services.ReviewSuggestion(app.Ctx, app.Database, app.Logger, app.Subject, args[0], input)
			if err != nil {
				return err
			}
			fmt.Printf("\n✓ Suggestion %s is now %s\n\n", suggestion.ID, suggestion.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "Review notes")
	cmd.Flags().StringVar(&implementedOn, "implemented-on", "", "Implementation date (YYYY-MM-DD)")
	return cmd
}
