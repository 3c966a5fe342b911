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
	"github.com/eslsoft/conceptgraph/internal/usecase"
)

var prereqsCmd = &cobra.Command{
	Use:   "prereqs",
	Short: "Traverse the prerequisite graph",
}

var prereqsListCmd = &cobra.Command{
	Use:   "list <concept-id>",
	Short: "List the prerequisites of a concept, recursively by default",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		direct, _ := cmd.Flags().GetBool("direct")
		rawTypes, _ := cmd.Flags().GetStringSlice("types")
		types, err := parseRelationshipTypes(rawTypes)
		if err != nil {
			return err
		}
		var opts []usecase.TraversalOption
		if direct {
			opts = append(opts, usecase.Direct())
		}
		if len(types) > 0 {
			opts = append(opts, usecase.WithEdgeTypes(types...))
		}
		return withContainer(cmd, func(ctx context.Context, c *app.Container) error {
			concepts, err := c.Graph.GetPrerequisites(ctx, args[0], opts...)
			if err != nil {
				return err
			}
			return printJSON(cmd, concepts)
		})
	},
}

var prereqsDependentsCmd = &cobra.Command{
	Use:   "dependents <concept-id>",
	Short: "List the concepts that directly build on a concept",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rawTypes, _ := cmd.Flags().GetStringSlice("types")
		types, err := parseRelationshipTypes(rawTypes)
		if err != nil {
			return err
		}
		return withContainer(cmd, func(ctx context.Context, c *app.Container) error {
			concepts, err := c.Graph.GetDependents(ctx, args[0], types...)
			if err != nil {
				return err
			}
			return printJSON(cmd, concepts)
		})
	},
}

var prereqsReadinessCmd = &cobra.Command{
	Use:   "readiness <student-id> <concept-id>",
	Short: "Report whether a student has mastered every prerequisite of a concept",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		given := masteredFlag(cmd)
		return withContainer(cmd, func(ctx context.Context, c *app.Container) error {
			mastered := given
			if mastered == nil {
				var err error
				if mastered, err = c.Mastery.MasteredSet(ctx, args[0]); err != nil {
					return err
				}
			}
			readiness, err := c.Prerequisite.CheckReadiness(ctx, args[0], args[1], mastered)
			if err != nil {
				return err
			}
			return printJSON(cmd, readiness)
		})
	},
}

func init() {
	rootCmd.AddCommand(prereqsCmd)
	prereqsCmd.AddCommand(prereqsListCmd, prereqsDependentsCmd, prereqsReadinessCmd)

	prereqsListCmd.Flags().Bool("direct", false, "only immediate prerequisites")
	prereqsListCmd.Flags().StringSlice("types", nil, "edge types to follow (default prerequisite,builds-upon)")
	prereqsDependentsCmd.Flags().StringSlice("types", nil, "edge types to follow (default prerequisite,builds-upon)")
	prereqsReadinessCmd.Flags().StringSlice("mastered", nil, "mastered concept ids (default: derived from performance history)")
}
