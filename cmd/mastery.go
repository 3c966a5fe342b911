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
	"time"

	"github.com/spf13/cobra"

	"github.com/eslsoft/conceptgraph/internal/app"
	"github.com/eslsoft/conceptgraph/internal/entity"
)

var masteryCmd = &cobra.Command{
	Use:   "mastery",
	Short: "Record attempts and inspect derived mastery",
}

var masteryRecordCmd = &cobra.Command{
	Use:   "record [file|-|json]",
	Short: "Append a performance record",
	Long: `Append a performance record given as JSON:

  {"student_id": "s1", "concept_id": "...", "is_correct": true, "time_taken_seconds": 42,
   "question_difficulty": {"bloom_level": 3, ...}}`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var record entity.PerformanceRecord
		if err := decodeInput(cmd, firstArg(args), &record); err != nil {
			return err
		}
		return withContainer(cmd, func(ctx context.Context, c *app.Container) error {
			stored, err := c.Mastery.RecordPerformance(ctx, &record)
			if err != nil {
				return err
			}
			return printJSON(cmd, stored)
		})
	},
}

type masteryReport struct {
	StudentID    string    `json:"student_id"`
	ConceptID    string    `json:"concept_id"`
	MasteryLevel float64   `json:"mastery_level"`
	IsMastered   bool      `json:"is_mastered"`
	CheckedAt    time.Time `json:"checked_at"`
}

var masteryShowCmd = &cobra.Command{
	Use:   "show <student-id> <concept-id>",
	Short: "Compute the mastery of a student on a concept",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(cmd, func(ctx context.Context, c *app.Container) error {
			level, err := c.Mastery.CalculateMastery(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			mastered, err := c.Mastery.IsMastered(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd, masteryReport{
				StudentID:    args[0],
				ConceptID:    args[1],
				MasteryLevel: level,
				IsMastered:   mastered,
				CheckedAt:    time.Now().UTC(),
			})
		})
	},
}

var masteryHistoryCmd = &cobra.Command{
	Use:   "history <student-id>",
	Short: "Mastery of every concept the student attempted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(cmd, func(ctx context.Context, c *app.Container) error {
			history, err := c.Mastery.History(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, history)
		})
	},
}

var masteryRecommendCmd = &cobra.Command{
	Use:   "recommend <student-id> <concept-id>",
	Short: "Suggest a difficulty adjustment from the latest attempts",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(cmd, func(ctx context.Context, c *app.Container) error {
			adjustment, err := c.Mastery.RecommendAdjustment(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]any{
				"student_id": args[0],
				"concept_id": args[1],
				"adjustment": adjustment,
			})
		})
	},
}

func init() {
	rootCmd.AddCommand(masteryCmd)
	masteryCmd.AddCommand(masteryRecordCmd, masteryShowCmd, masteryHistoryCmd, masteryRecommendCmd)
}
