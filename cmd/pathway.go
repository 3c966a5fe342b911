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

var pathwayCmd = &cobra.Command{
	Use:   "pathway",
	Short: "Plan what a student studies next",
}

var pathwayGenerateCmd = &cobra.Command{
	Use:   "generate <student-id>",
	Short: "Order every reachable concept up to a target class level",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, _ := cmd.Flags().GetInt("target-level")
		mastered := masteredFlag(cmd)
		return withContainer(cmd, func(ctx context.Context, c *app.Container) error {
			pathway, err := c.Pathway.GeneratePathway(ctx, args[0], target, mastered)
			if err != nil {
				return err
			}
			return printJSON(cmd, pathway)
		})
	},
}

var pathwayNextCmd = &cobra.Command{
	Use:   "next <student-id>",
	Short: "Recommend the next concepts to study",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		count, _ := cmd.Flags().GetInt("count")
		mastered := masteredFlag(cmd)
		return withContainer(cmd, func(ctx context.Context, c *app.Container) error {
			concepts, err := c.Pathway.NextConcepts(ctx, args[0], count, mastered)
			if err != nil {
				return err
			}
			return printJSON(cmd, concepts)
		})
	},
}

func init() {
	rootCmd.AddCommand(pathwayCmd)
	pathwayCmd.AddCommand(pathwayGenerateCmd, pathwayNextCmd)

	pathwayGenerateCmd.Flags().Int("target-level", entity.MaxClassLevel, "highest class level to include")
	pathwayGenerateCmd.Flags().StringSlice("mastered", nil, "mastered concept ids (default: derived from performance history)")
	pathwayNextCmd.Flags().Int("count", 5, "number of concepts to recommend")
	pathwayNextCmd.Flags().StringSlice("mastered", nil, "mastered concept ids (default: derived from performance history)")
}
