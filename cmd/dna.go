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

var dnaCmd = &cobra.Command{
	Use:   "dna",
	Short: "Work with difficulty vectors",
}

var dnaValidateCmd = &cobra.Command{
	Use:   "validate [file|-|json]",
	Short: "Check every dimension of a difficulty vector",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var v entity.DifficultyVector
		if err := decodeInput(cmd, firstArg(args), &v); err != nil {
			return err
		}
		return withContainer(cmd, func(_ context.Context, c *app.Container) error {
			result := c.Scorer.Validate(v)
			return printJSON(cmd, map[string]any{
				"is_valid": result.IsValid,
				"errors":   result.Errors,
				"score":    c.Scorer.Score(v),
			})
		})
	},
}

var dnaDistanceCmd = &cobra.Command{
	Use:   "distance <json-a> <json-b>",
	Short: "Weighted distance between two difficulty vectors",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var a, b entity.DifficultyVector
		if err := decodeInput(cmd, args[0], &a); err != nil {
			return err
		}
		if err := decodeInput(cmd, args[1], &b); err != nil {
			return err
		}
		return withContainer(cmd, func(_ context.Context, c *app.Container) error {
			return printJSON(cmd, map[string]float64{"distance": c.Scorer.Distance(a, b)})
		})
	},
}

var dnaFitsCmd = &cobra.Command{
	Use:   "fits [file|-|json]",
	Short: "Check a difficulty vector against a class level persona",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		level, _ := cmd.Flags().GetInt("level")
		var v entity.DifficultyVector
		if err := decodeInput(cmd, firstArg(args), &v); err != nil {
			return err
		}
		return withContainer(cmd, func(_ context.Context, c *app.Container) error {
			persona, err := c.Personas.Get(level)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]any{
				"class_level": level,
				"fits":        c.Scorer.FitsPersona(v, &persona),
			})
		})
	},
}

var dnaAdjustCmd = &cobra.Command{
	Use:   "adjust [file|-|json]",
	Short: "Shift a difficulty vector by a factor in [-1, 1]",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		factor, _ := cmd.Flags().GetFloat64("factor")
		var v entity.DifficultyVector
		if err := decodeInput(cmd, firstArg(args), &v); err != nil {
			return err
		}
		return withContainer(cmd, func(_ context.Context, c *app.Container) error {
			return printJSON(cmd, c.Scorer.Adjust(v, factor))
		})
	},
}

func init() {
	rootCmd.AddCommand(dnaCmd)
	dnaCmd.AddCommand(dnaValidateCmd, dnaDistanceCmd, dnaFitsCmd, dnaAdjustCmd)

	dnaFitsCmd.Flags().Int("level", entity.MinClassLevel, "class level of the persona")
	dnaAdjustCmd.Flags().Float64("factor", 0, "adjustment factor, negative makes it easier")
}
