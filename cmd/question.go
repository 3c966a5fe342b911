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
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eslsoft/conceptgraph/internal/app"
	"github.com/eslsoft/conceptgraph/internal/entity"
	"github.com/eslsoft/conceptgraph/internal/usecase"
)

var questionCmd = &cobra.Command{
	Use:   "question",
	Short: "Check generated questions against a class level persona",
}

var questionCheckCmd = &cobra.Command{
	Use:   "check [text|-]",
	Short: "Readability check of question text",
	RunE: func(cmd *cobra.Command, args []string) error {
		level, _ := cmd.Flags().GetInt("level")
		text, err := questionText(cmd, args)
		if err != nil {
			return err
		}
		return withContainer(cmd, func(_ context.Context, c *app.Container) error {
			persona, err := c.Personas.Get(level)
			if err != nil {
				return err
			}
			return printJSON(cmd, c.TextChecker.Check(text, persona))
		})
	},
}

var questionReviewCmd = &cobra.Command{
	Use:   "review [file|-|json]",
	Short: "Review a generated question payload",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		level, _ := cmd.Flags().GetInt("level")
		var payload usecase.QuestionPayload
		if err := decodeInput(cmd, firstArg(args), &payload); err != nil {
			return err
		}
		return withContainer(cmd, func(_ context.Context, c *app.Container) error {
			persona, err := c.Personas.Get(level)
			if err != nil {
				return err
			}
			return printJSON(cmd, reviewQuestion(c.Content, &payload, persona))
		})
	},
}

var questionTargetCmd = &cobra.Command{
	Use:   "target <concept-id>",
	Short: "Difficulty vector a generated question should aim for",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		factor, _ := cmd.Flags().GetFloat64("factor")
		return withContainer(cmd, func(ctx context.Context, c *app.Container) error {
			target, err := questionTarget(ctx, c.Graph, c.Content, args[0], factor)
			if err != nil {
				return err
			}
			return printJSON(cmd, target)
		})
	},
}

// questionText joins the arguments, or reads stdin when there are none or the only one is "-".
func questionText(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 && !(len(args) == 1 && args[0] == "-") {
		return strings.Join(args, " "), nil
	}
	raw, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read question text: %w", err)
	}
	return string(raw), nil
}

type questionReview struct {
	Accepted bool     `json:"accepted"`
	Reasons  []string `json:"reasons"`
}

func reviewQuestion(content usecase.ContentValidator, payload *usecase.QuestionPayload, persona entity.Persona) questionReview {
	reasons := content.Review(payload, persona)
	if reasons == nil {
		reasons = []string{}
	}
	return questionReview{Accepted: len(reasons) == 0, Reasons: reasons}
}

func questionTarget(ctx context.Context, graph usecase.GraphManager, content usecase.ContentValidator, id string, factor float64) (entity.DifficultyVector, error) {
	concept, err := graph.GetConcept(ctx, id)
	if err != nil {
		return entity.DifficultyVector{}, err
	}
	if concept == nil {
		return entity.DifficultyVector{}, &entity.NotFoundError{Kind: "Concept", ID: id}
	}
	return content.TargetVector(*concept, factor), nil
}

func init() {
	rootCmd.AddCommand(questionCmd)
	questionCmd.AddCommand(questionCheckCmd, questionReviewCmd, questionTargetCmd)

	for _, c := range []*cobra.Command{questionCheckCmd, questionReviewCmd} {
		c.Flags().Int("level", entity.MinClassLevel, "class level of the persona")
	}
	questionTargetCmd.Flags().Float64("factor", 0, "adjustment factor, negative makes it easier")
}
