package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pedigree/pkg/errors"
	"github.com/matzehuels/pedigree/pkg/pedigree"
	"github.com/matzehuels/pedigree/pkg/preview"
)

// imageCommand prints the stored image highlighted for a viewer.
func (c *CLI) imageCommand() *cobra.Command {
	var viewer, output string

	cmd := &cobra.Command{
		Use:   "image <family-id>",
		Short: "Write the family image, highlighting the viewing patient",
		Example: `  pedigree image FAM1 --viewer P0000001 -o fam1.svg
  pedigree image FAM1 > fam1.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, b *backend) error {
				image, err := b.svc.Image(ctx, args[0], viewer)
				if err != nil {
					return err
				}
				if image == "" {
					printWarning("%s has no image", args[0])
					printNextStep("Render one with", "pedigree preview "+args[0]+" --save")
					return nil
				}
				return writeOutput(cmd.OutOrStdout(), output, []byte(image))
			})
		},
	}

	cmd.Flags().StringVar(&viewer, "viewer", "", "patient id to highlight")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

// previewCommand lays out a document with Graphviz.
func (c *CLI) previewCommand() *cobra.Command {
	var (
		file     string
		output   string
		detailed bool
		save     bool
	)

	cmd := &cobra.Command{
		Use:   "preview [family-id]",
		Short: "Render a preview image from a family document",
		Long: `Preview lays out the document's nodes with Graphviz. Linked nodes are annotated
so the result works with image, unlink and check like any imported image.

Use --save to store the preview as the family's image.`,
		Example: `  pedigree preview FAM1 --save
  pedigree preview --file family.json --detailed -o preview.svg`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := preview.Options{Detailed: detailed}

			if file != "" {
				if len(args) > 0 || save {
					return errors.New(errors.ErrCodeInvalidInput, "--file cannot be combined with a family id or --save")
				}
				f, err := os.Open(file)
				if err != nil {
					return errors.Wrap(errors.ErrCodeInvalidInput, err, "open document")
				}
				defer f.Close()
				d, err := pedigree.ReadDocument(f)
				if err != nil {
					return err
				}
				svg, err := c.render(cmd, d, opts)
				if err != nil {
					return err
				}
				return writeOutput(cmd.OutOrStdout(), output, []byte(svg))
			}

			if len(args) == 0 {
				return errors.New(errors.ErrCodeInvalidInput, "a family id or --file is required")
			}
			familyID := args[0]

			return c.run(cmd, func(ctx context.Context, b *backend) error {
				p, err := b.svc.Load(ctx, familyID)
				if err != nil {
					return err
				}
				svg, err := c.render(cmd, p.Document(), opts)
				if err != nil {
					return err
				}
				if save {
					if err := b.svc.SetImage(ctx, familyID, svg); err != nil {
						return err
					}
					printSuccess("Saved preview as the image of %s", StyleHighlight.Render(familyID))
					if output == "" {
						return nil
					}
				}
				return writeOutput(cmd.OutOrStdout(), output, []byte(svg))
			})
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "render a document file instead of a stored family")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "label nodes with their ids")
	cmd.Flags().BoolVar(&save, "save", false, "store the preview as the family image")
	return cmd
}

func (c *CLI) render(cmd *cobra.Command, d *pedigree.Document, opts preview.Options) (string, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	s := newSpinner(ctx, cmd.ErrOrStderr(), "Laying out pedigree...")
	s.Start()
	prog := newProgress(c.Logger)
	svg, err := preview.Render(ctx, d, opts)
	s.Stop()
	if err != nil {
		return "", err
	}
	prog.done("preview rendered", "nodes", len(d.Nodes))
	return svg, nil
}
