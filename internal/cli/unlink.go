package cli

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pedigree/pkg/errors"
)

// unlinkCommand removes a patient link from a family's document and image.
func (c *CLI) unlinkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unlink <family-id> [patient-id]",
		Short: "Remove a patient's links from a family",
		Long: `Unlink removes every link to the patient from the family's image and document.
Nodes stay in the tree. Patient ids match case-insensitively.

Without a patient id an interactive list of the linked patients is shown.`,
		Example: `  pedigree unlink FAM1 P0000001
  pedigree unlink FAM1`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			familyID := args[0]
			return c.run(cmd, func(ctx context.Context, b *backend) error {
				patientID := ""
				if len(args) == 2 {
					patientID = args[1]
				} else {
					picked, err := c.pickPatient(ctx, b, familyID)
					if err != nil || picked == "" {
						return err
					}
					patientID = picked
				}

				removed, err := b.svc.UnlinkPatient(ctx, familyID, patientID)
				if err != nil {
					return err
				}
				if removed == 0 {
					printInfo("%s is not linked from %s", patientID, familyID)
					return nil
				}
				printSuccess("Unlinked %s from %s", StyleHighlight.Render(patientID), familyID)
				printDetail("%d node(s) updated", removed)
				return nil
			})
		},
	}
}

// pickPatient runs the interactive list. An empty result means the user quit.
func (c *CLI) pickPatient(ctx context.Context, b *backend, familyID string) (string, error) {
	linked, err := b.svc.LinkedPatients(ctx, familyID)
	if err != nil {
		return "", err
	}
	choices := patientChoices(linked)
	if len(choices) == 0 {
		printInfo("%s links no patients", familyID)
		return "", nil
	}

	final, err := tea.NewProgram(NewPatientListModel(familyID, choices), tea.WithContext(ctx)).Run()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "patient picker")
	}
	m, ok := final.(PatientListModel)
	if !ok || m.Selected == nil {
		return "", nil
	}
	return m.Selected.ID, nil
}
