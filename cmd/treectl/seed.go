package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"sortabletree/internal/config"
	treeSvc "sortabletree/internal/domain/services/tree"
)

// seedNode is one entry of a seed file. Children nest to any depth.
type seedNode struct {
	Title    string         `yaml:"title"`
	Data     map[string]any `yaml:"data,omitempty"`
	Children []seedNode     `yaml:"children,omitempty"`
}

type seedFile struct {
	Nodes []seedNode `yaml:"nodes"`
}

var seedCmd = &cobra.Command{
	Use:   "seed <file.yaml>",
	Short: "Load a tree from a YAML file",
	Long: `Seed adds every node of the file under --parent, keeping file order.

Example file:
  nodes:
    - title: Book
      children:
        - title: Chapter 1
        - title: Chapter 2
          data: {draft: true}`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		nodes, err := parseSeed(f)
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}

		n, err := applySeed(cmd.Context(), service, flagSeedParent, nodes)
		if err != nil {
			return fmt.Errorf("seeded %d node(s) before failing: %w", n, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d node(s)\n", n)
		return nil
	},
}

var flagSeedParent int64

func init() {
	seedCmd.Flags().Int64Var(&flagSeedParent, "parent", 0, "parent of the top-level seed nodes")
}

// parseSeed decodes and checks a seed document
func parseSeed(r io.Reader) ([]seedNode, error) {
	var doc seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty seed file")
		}
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	if err := checkSeed(doc.Nodes, "nodes"); err != nil {
		return nil, err
	}
	return doc.Nodes, nil
}

func checkSeed(nodes []seedNode, path string) error {
	for i, n := range nodes {
		at := fmt.Sprintf("%s[%d]", path, i)
		if n.Title == "" {
			return fmt.Errorf("%s: title is required", at)
		}
		if len(n.Title) > config.MaxTitleLength {
			return fmt.Errorf("%s: title longer than %d", at, config.MaxTitleLength)
		}
		if err := checkSeed(n.Children, at+".children"); err != nil {
			return err
		}
	}
	return nil
}

// applySeed adds nodes depth-first under parentID and returns how many were created.
// Each node is its own transaction; a failure stops the walk.
func applySeed(ctx context.Context, svc treeSvc.TreeService, parentID int64, nodes []seedNode) (int, error) {
	created := 0
	for _, n := range nodes {
		node, err := svc.AddItem(ctx, &treeSvc.AddItemRequest{
			ParentID: parentID,
			Title:    n.Title,
			Data:     n.Data,
		})
		if err != nil {
			return created, fmt.Errorf("add %q: %w", n.Title, err)
		}
		created++

		c, err := applySeed(ctx, svc, node.ID, n.Children)
		created += c
		if err != nil {
			return created, err
		}
	}
	return created, nil
}
