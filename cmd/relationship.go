/*
Copyright © 2025 Ambor <saltbo@foxmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/eslsoft/conceptgraph/internal/app"
	"github.com/eslsoft/conceptgraph/internal/entity"
)

var relationshipCmd = &cobra.Command{
	Use:     "relationship",
	Aliases: []string{"rel"},
	Short:   "Link concepts",
}

var relationshipCreateCmd = &cobra.Command{
	Use:   "create <source-id> <target-id>",
	Short: "Create a directed relationship; ordering edges must keep the graph acyclic",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetString("type")
		relType, err := entity.ParseRelationshipType(raw)
		if err != nil {
			return err
		}
		return withContainer(cmd, func(ctx context.Context, c *app.Container) error {
			rel, err := c.Graph.CreateRelationship(ctx, args[0], args[1], relType)
			if err != nil {
				return err
			}
			return printJSON(cmd, rel)
		})
	},
}

var relationshipValidateCmd = &cobra.Command{
	Use:   "validate <source-id> <target-id>",
	Short: "Check whether source -> target could be added as a prerequisite",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(cmd, func(ctx context.Context, c *app.Container) error {
			check, err := c.Prerequisite.ValidateRelationship(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd, check)
		})
	},
}

func init() {
	rootCmd.AddCommand(relationshipCmd)
	relationshipCmd.AddCommand(relationshipCreateCmd, relationshipValidateCmd)

	relationshipCreateCmd.Flags().String("type", string(entity.RelationshipPrerequisite), "prerequisite, builds-upon or applies-to")
}
