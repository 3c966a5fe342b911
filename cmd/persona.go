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
	"strconv"

	"github.com/spf13/cobra"

	"github.com/eslsoft/conceptgraph/internal/app"
	"github.com/eslsoft/conceptgraph/internal/entity"
)

var personaCmd = &cobra.Command{
	Use:   "persona",
	Short: "Inspect the class level personas",
}

var personaListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every persona",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(cmd, func(_ context.Context, c *app.Container) error {
			return printJSON(cmd, c.Personas.List())
		})
	},
}

var personaShowCmd = &cobra.Command{
	Use:   "show <class-level>",
	Short: "Show the persona of a class level",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := strconv.Atoi(args[0])
		if err != nil {
			return &entity.ValidationError{Field: "class_level", Problems: []string{err.Error()}}
		}
		return withContainer(cmd, func(_ context.Context, c *app.Container) error {
			persona, err := c.Personas.Get(level)
			if err != nil {
				return err
			}
			return printJSON(cmd, persona)
		})
	},
}

func init() {
	rootCmd.AddCommand(personaCmd)
	personaCmd.AddCommand(personaListCmd, personaShowCmd)
}
