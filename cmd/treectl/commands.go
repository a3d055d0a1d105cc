package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"sortabletree/internal/domain/models"
	treeSvc "sortabletree/internal/domain/services/tree"
)

var (
	flagParent   int64
	flagTarget   int64
	flagPosition string
	flagDepth    int
	flagDrop     bool
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Create the node and edge tables",
	Long: `Schema creates the tables if they are missing. With --drop it removes
them first, deleting every node.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagDrop {
			if err := db.DropSchema(cmd.Context()); err != nil {
				return err
			}
			if err := db.EnsureSchema(cmd.Context()); err != nil {
				return err
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "schema ready (%s)\n", db.Driver)
		return nil
	},
}

var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a node",
	Long: `Add creates a node under --parent (0 for a top-level node), after every
sibling or next to --target.

Example:
  treectl add "Chapter 1"
  treectl add "Scene" --parent 1
  treectl add "Prologue" --parent 1 --target 2 --position before`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		position, err := models.ParsePosition(flagPosition)
		if err != nil {
			return err
		}
		req := &treeSvc.AddItemRequest{
			ParentID: flagParent,
			Title:    args[0],
			Position: position,
		}
		if cmd.Flags().Changed("target") {
			req.TargetID = &flagTarget
		}

		node, err := service.AddItem(cmd.Context(), req)
		if err != nil {
			return err
		}
		return printNode(cmd.OutOrStdout(), node)
	},
}

var moveCmd = &cobra.Command{
	Use:   "move <id>",
	Short: "Move a node and its subtree",
	Long: `Move reparents a node under --parent, after every sibling or next to --target.

Example:
  treectl move 4 --parent 3
  treectl move 4 --parent 0 --target 1 --position before`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		position, err := models.ParsePosition(flagPosition)
		if err != nil {
			return err
		}
		req := &treeSvc.MoveRequest{ID: id, NewParentID: flagParent, Position: position}
		if cmd.Flags().Changed("target") {
			req.TargetID = &flagTarget
		}

		node, err := service.MoveTo(cmd.Context(), req)
		if err != nil {
			return err
		}
		return printNode(cmd.OutOrStdout(), node)
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a node and its subtree",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		n, err := service.DeleteRecursive(cmd.Context(), id)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %d node(s)\n", n)
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Print a subtree, or every tree without an id",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var depth *int
		if cmd.Flags().Changed("depth") {
			depth = &flagDepth
		}

		var forest []*models.NestedNode
		if len(args) == 1 {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			root, err := service.DescendingTree(cmd.Context(), id, depth)
			if err != nil {
				return err
			}
			forest = []*models.NestedNode{root}
		} else {
			var err error
			forest, err = service.NestedForest(cmd.Context(), depth)
			if err != nil {
				return err
			}
		}

		if flagJSON {
			return writeJSON(cmd.OutOrStdout(), forest)
		}
		for _, root := range forest {
			fmt.Fprint(cmd.OutOrStdout(), renderOutline(root))
		}
		return nil
	},
}

var rootsCmd = &cobra.Command{
	Use:   "roots",
	Short: "List top-level node ids",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := service.Roots(cmd.Context())
		if err != nil {
			return err
		}
		if flagJSON {
			return writeJSON(cmd.OutOrStdout(), ids)
		}
		for _, id := range ids {
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}
		return nil
	},
}

func init() {
	schemaCmd.Flags().BoolVar(&flagDrop, "drop", false, "drop the tables first")

	for _, c := range []*cobra.Command{addCmd, moveCmd} {
		c.Flags().Int64Var(&flagParent, "parent", 0, "parent id (0 for top level)")
		c.Flags().Int64Var(&flagTarget, "target", 0, "sibling to place the node next to")
		c.Flags().StringVar(&flagPosition, "position", "after", "before or after --target")
	}
	_ = moveCmd.MarkFlagRequired("parent")

	showCmd.Flags().IntVar(&flagDepth, "depth", 0, "levels below each root to include")
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func printNode(w io.Writer, node *models.Node) error {
	if flagJSON {
		return writeJSON(w, node)
	}
	_, err := fmt.Fprintf(w, "%d\t%s\tparent=%d level=%d sort=%d\n",
		node.ID, node.Title, node.ParentID, node.Level, node.Sort)
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
