package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pedigree/pkg/errors"
)

// run opens the backend for the duration of fn.
func (c *CLI) run(cmd *cobra.Command, fn func(ctx context.Context, b *backend) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	b, err := c.open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := b.Close(); err != nil {
			c.Logger.Warn("close backend", "err", err)
		}
	}()
	return fn(ctx, b)
}

// familiesCommand lists the stored families.
func (c *CLI) familiesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "families",
		Short: "List stored families",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, b *backend) error {
				ids, err := b.svc.List(ctx)
				if err != nil {
					return err
				}
				if len(ids) == 0 {
					printInfo("No families stored")
					return nil
				}
				return writeLines(cmd.OutOrStdout(), ids)
			})
		},
	}
}

// importCommand stores a family document and, optionally, its image.
func (c *CLI) importCommand() *cobra.Command {
	var imagePath string

	cmd := &cobra.Command{
		Use:   "import <family-id> <document.json>",
		Short: "Store a family document and its rendered image",
		Long: `Import validates a pedigree document and stores it under the given family id.
The image, if given, must be an SVG whose linked regions carry data-patient-id.`,
		Example: `  pedigree import FAM1 family.json --image family.svg`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			familyID := args[0]
			data, err := os.ReadFile(args[1])
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidInput, err, "read document")
			}

			var image string
			if imagePath != "" {
				raw, err := os.ReadFile(imagePath)
				if err != nil {
					return errors.Wrap(errors.ErrCodeInvalidInput, err, "read image")
				}
				image = string(raw)
			}

			return c.run(cmd, func(ctx context.Context, b *backend) error {
				prog := newProgress(c.Logger)
				p, err := b.svc.Import(ctx, familyID, data, image)
				if err != nil {
					return err
				}
				ids, err := p.ExtractIDs()
				if err != nil {
					return err
				}
				prog.done("import finished", "family", familyID, "linked", len(ids))
				printSuccess("Stored family %s", StyleHighlight.Render(familyID))
				printDetail("%d linked nodes", len(ids))
				if image == "" {
					printNextStep("Render a preview", "pedigree preview "+familyID+" --save")
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&imagePath, "image", "", "SVG image of the pedigree")
	return cmd
}

// exportCommand writes the stored document, and optionally the image.
func (c *CLI) exportCommand() *cobra.Command {
	var output, imagePath string

	cmd := &cobra.Command{
		Use:   "export <family-id>",
		Short: "Write a stored family document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, b *backend) error {
				rec, err := b.svc.Export(ctx, args[0])
				if err != nil {
					return err
				}
				if err := writeOutput(cmd.OutOrStdout(), output, rec.Data); err != nil {
					return err
				}
				if imagePath != "" {
					if err := os.WriteFile(imagePath, []byte(rec.Image), 0644); err != nil {
						return err
					}
					printFile(imagePath)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&imagePath, "image", "", "also write the stored image to this file")
	return cmd
}

// idsCommand prints the linked patient ids in node order.
func (c *CLI) idsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ids <family-id>",
		Short: "List the patient ids linked from a family",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, b *backend) error {
				ids, err := b.svc.LinkedIDs(ctx, args[0])
				if err != nil {
					return err
				}
				return writeLines(cmd.OutOrStdout(), ids)
			})
		},
	}
}

// propsCommand prints the property bags of linked nodes as JSON.
func (c *CLI) propsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "props <family-id>",
		Short: "Print the properties of every node that has any",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, b *backend) error {
				props, err := b.svc.LinkedProperties(ctx, args[0])
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), props)
			})
		},
	}
}

// patientsCommand resolves linked ids through the patient repository.
func (c *CLI) patientsCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "patients <family-id>",
		Short: "Show the patients a family links to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, b *backend) error {
				linked, err := b.svc.LinkedPatients(ctx, args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), linked)
				}
				fmt.Fprintln(cmd.OutOrStdout(), patientTable(linked.Patients))
				for _, id := range linked.Missing {
					printWarning("%s is linked but unknown", id)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

// checkCommand compares the links of document and image.
func (c *CLI) checkCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "check <family-id>",
		Short: "Check that document and image link the same patients",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, b *backend) error {
				r, err := b.svc.Check(ctx, args[0])
				if err != nil {
					return err
				}
				if asJSON {
					if err := writeJSON(cmd.OutOrStdout(), r); err != nil {
						return err
					}
				} else if r.Consistent() {
					printSuccess("%s is consistent", r.FamilyID)
					printDetail("%d linked nodes, %d image regions", len(r.DocumentIDs), len(r.ImageIDs))
				} else {
					printWarning("%s is inconsistent", r.FamilyID)
					if len(r.OnlyInDocument) > 0 {
						printKeyValue("document", strings.Join(r.OnlyInDocument, ", "))
					}
					if len(r.OnlyInImage) > 0 {
						printKeyValue("image", strings.Join(r.OnlyInImage, ", "))
					}
				}
				if !r.Consistent() {
					return errors.New(errors.ErrCodeInvalidPedigree, "family %s: document and image disagree", r.FamilyID)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

// =============================================================================
// Output helpers
// =============================================================================

func writeLines(w io.Writer, lines []string) error {
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeOutput writes data to path, or to w when path is empty.
func writeOutput(w io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := w.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return err
	}
	printFile(path)
	return nil
}
