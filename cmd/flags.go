package cmd

import (
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/eslsoft/conceptgraph/internal/entity"
)

func bindFlagToViper(key string, flag *pflag.Flag) {
	if flag == nil {
		return
	}
	cobra.CheckErr(viper.BindPFlag(key, flag))
}

func parseRelationshipTypes(values []string) ([]entity.RelationshipType, error) {
	types := make([]entity.RelationshipType, 0, len(values))
	for _, raw := range values {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		t, err := entity.ParseRelationshipType(raw)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return lo.Uniq(types), nil
}

// masteredFlag turns --mastered ids into a set. It returns nil when the flag was not given so
// the use case derives the set from performance history.
func masteredFlag(cmd *cobra.Command) map[string]bool {
	if !cmd.Flags().Changed("mastered") {
		return nil
	}
	ids, _ := cmd.Flags().GetStringSlice("mastered")
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			set[id] = true
		}
	}
	return set
}
