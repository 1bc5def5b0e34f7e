package transform

import (
	"github.com/Sahnee-DE/sahnee-bot-migrator/internal/legacy"
	"github.com/Sahnee-DE/sahnee-bot-migrator/internal/litedb"
)

// Entity binds a target table to the collection and rule that fill it.
type Entity struct {
	Name       string
	Table      string
	Collection string
	Columns    []string
	Build      func(records []litedb.Record) ([]Row, error)
}

// Entities returns the target tables in the order they are migrated.
func Entities() []Entity {
	return []Entity{
		{
			Name:       "warnings",
			Table:      "Warnings",
			Collection: legacy.CollectionWarnings,
			Columns:    []string{"Id", "GuildId", "UserId", "Time", "IssuerUserId", "Reason", "Number", "Type"},
			Build:      rows(BuildWarnings),
		},
		{
			Name:       "changelogs",
			Table:      "GuildStates",
			Collection: legacy.CollectionChangelog,
			Columns:    []string{"GuildId", "SetRoles", "LastChangelogVersion"},
			Build:      rows(BuildGuildStates),
		},
		{
			Name:       "roles",
			Table:      "Roles",
			Collection: legacy.CollectionRoles,
			Columns:    []string{"GuildId", "RoleId", "RoleType"},
			Build:      rows(BuildRoles),
		},
		{
			Name:       "states",
			Table:      "UserGuildStates",
			Collection: legacy.CollectionStates,
			Columns:    []string{"GuildId", "UserId", "WarningNumber", "MessageOptOut", "HasReceivedOptOutHint"},
			Build:      rows(BuildUserGuildStates),
		},
	}
}

func rows[T Row](build func([]litedb.Record) ([]T, error)) func([]litedb.Record) ([]Row, error) {
	return func(records []litedb.Record) ([]Row, error) {
		typed, err := build(records)
		if err != nil {
			return nil, err
		}
		out := make([]Row, len(typed))
		for i, r := range typed {
			out[i] = r
		}
		return out, nil
	}
}
