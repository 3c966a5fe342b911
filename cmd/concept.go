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
	"github.com/eslsoft/conceptgraph/internal/repository"
)

var conceptCmd = &cobra.Command{
	Use:   "concept",
	Short: "Create and look up concepts",
}

var conceptCreateCmd = &cobra.Command{
	Use:   "create [file|-|json]",
	Short: "Create a concept from a JSON document",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var draft entity.Concept
		if err := decodeInput(cmd, firstArg(args), &draft); err != nil {
			return err
		}
		return withContainer(cmd, func(ctx context.Context, c *app.Container) error {
			created, err := c.Graph.CreateConcept(ctx, &draft)
			if err != nil {
				return err
			}
			return printJSON(cmd, created)
		})
	},
}

var conceptBatchCmd = &cobra.Command{
	Use:   "batch [file|-]",
	Short: "Create many concepts; invalid items are reported and skipped",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var drafts []entity.Concept
		if err := decodeInput(cmd, firstArg(args), &drafts); err != nil {
			return err
		}
		return withContainer(cmd, func(ctx context.Context, c *app.Container) error {
			result, err := c.Graph.CreateConcepts(ctx, drafts)
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		})
	},
}

var conceptGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a concept",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(cmd, func(ctx context.Context, c *app.Container) error {
			concept, err := c.Graph.GetConcept(ctx, args[0])
			if err != nil {
				return err
			}
			if concept == nil {
				return &entity.NotFoundError{Kind: "Concept", ID: args[0]}
			}
			return printJSON(cmd, concept)
		})
	},
}

var conceptQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "List concepts matching a filter expression",
	Example: `  conceptgraph concept query --filter 'subject == "physics" && bloom_level >= 3'
  conceptgraph concept query --filter 'class_level >= 9 && keyword.contains("force")' --order-by 'class_level desc, name'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		expr, _ := cmd.Flags().GetString("filter")
		orderBy, _ := cmd.Flags().GetString("order-by")
		pageNo, _ := cmd.Flags().GetInt32("page")
		pageSize, _ := cmd.Flags().GetInt32("page-size")
		filter, err := repository.ParseConceptFilter(expr)
		if err != nil {
			return err
		}
		return withContainer(cmd, func(ctx context.Context, c *app.Container) error {
			concepts, err := c.Graph.QueryConcepts(ctx, filter)
			if err != nil {
				return err
			}
			if err := repository.SortConcepts(concepts, orderBy); err != nil {
				return err
			}
			return printJSON(cmd, repository.Page(concepts, repository.Pagination{PageNo: pageNo, PageSize: pageSize}))
		})
	},
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return "-"
	}
	return args[0]
}

func init() {
	rootCmd.AddCommand(conceptCmd)
	conceptCmd.AddCommand(conceptCreateCmd, conceptBatchCmd, conceptGetCmd, conceptQueryCmd)

	conceptQueryCmd.Flags().String("filter", "", "CEL filter over subject, class_level, keyword and the difficulty dimensions")
	conceptQueryCmd.Flags().String("order-by", "", "comma separated fields with optional asc/desc, e.g. \"class_level desc, name\"")
	conceptQueryCmd.Flags().Int32("page", 1, "1-based page number")
	conceptQueryCmd.Flags().Int32("page-size", 0, "concepts per page, 0 for all")
}
