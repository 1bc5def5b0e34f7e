package transform

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sahnee-DE/sahnee-bot-migrator/internal/legacy"
	"github.com/Sahnee-DE/sahnee-bot-migrator/internal/litedb"
)

func long(v string) string {
	return fmt.Sprintf(`{"$numberLong": %q}`, v)
}

func records(docs ...string) []litedb.Record {
	out := make([]litedb.Record, len(docs))
	for i, d := range docs {
		out[i] = litedb.Record(d)
	}
	return out
}

func warningDoc(id, reason, typ string) string {
	return fmt.Sprintf(`{"_id": %q, "GuildId": %s, "To": %s, "From": %s, "Time": {"$date": "2021-02-03T04:05:06Z"}, "Reason": %q, "Number": %s, "WarningType": %q}`,
		id, long("100"), long("200"), long("300"), reason, long("4"), typ)
}

func changelogDoc(guild, version string) string {
	return fmt.Sprintf(`{"_id": "c", "GuildId": %s, "LatestVersion": %q}`, long(guild), version)
}

func roleDoc(guild, role, typ string) string {
	return fmt.Sprintf(`{"_id": "r", "GuildId": %s, "RoleId": %s, "RoleType": %q}`, long(guild), long(role), typ)
}

func TestBuildWarnings(t *testing.T) {
	rows, err := BuildWarnings(records(
		warningDoc("0000002a-0000-0000-0000-00000000002a", "spam", "Warning"),
		warningDoc("00000000-0000-0000-0000-000000000001", "", "Unwarning"),
	))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, WarningRow{
		ID:           84,
		GuildID:      "100",
		UserID:       "200",
		Time:         time.Date(2021, 2, 3, 4, 5, 6, 0, time.UTC),
		IssuerUserID: "300",
		Reason:       "spam",
		Number:       "4",
		Type:         WarningTypeWarning,
	}, rows[0])

	assert.Equal(t, int64(1), rows[1].ID)
	assert.Equal(t, "/", rows[1].Reason)
	assert.Equal(t, WarningTypeFormal, rows[1].Type)
}

func TestBuildWarnings_AbsentReasonAndType(t *testing.T) {
	doc := fmt.Sprintf(`{"_id": "1", "GuildId": %s, "To": %s, "From": %s, "Time": {"$date": "2021-02-03T04:05:06Z"}, "Number": %s}`,
		long("1"), long("2"), long("3"), long("4"))
	rows, err := BuildWarnings(records(doc))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "/", rows[0].Reason)
	assert.Equal(t, WarningTypeFormal, rows[0].Type)
}

func TestBuildWarnings_MalformedID(t *testing.T) {
	_, err := BuildWarnings(records(
		warningDoc("00000000-0000-0000-0000-000000000001", "ok", "Warning"),
		warningDoc("not-a-guid", "bad", "Warning"),
	))
	require.Error(t, err)
	assert.ErrorIs(t, err, legacy.ErrMalformedID)

	var recErr *RecordError
	require.ErrorAs(t, err, &recErr)
	assert.Equal(t, legacy.CollectionWarnings, recErr.Collection)
	assert.Equal(t, 1, recErr.Index)
	assert.Equal(t, "not-a-guid", recErr.ID)
	assert.Equal(t, "derive id", recErr.Stage)
}

func TestBuildWarnings_MalformedEnvelope(t *testing.T) {
	doc := `{"_id": "1", "GuildId": {"$numberLong": "abc"}, "To": {"$numberLong": "2"}, "From": {"$numberLong": "3"}, "Time": {"$date": "2021-02-03T04:05:06Z"}, "Number": {"$numberLong": "4"}}`
	_, err := BuildWarnings(records(doc))
	var recErr *RecordError
	require.ErrorAs(t, err, &recErr)
	assert.Equal(t, "decode", recErr.Stage)
	assert.Equal(t, "1", recErr.ID)
}

func TestBuildRoles_NonObjectRecord(t *testing.T) {
	_, err := BuildRoles(records(`"not a document"`))
	var recErr *RecordError
	require.ErrorAs(t, err, &recErr)
	assert.Equal(t, "decode", recErr.Stage)
	assert.Empty(t, recErr.ID)
	assert.Equal(t, "warningbot_roles record 0: decode: "+recErr.Err.Error(), recErr.Error())
}

func TestBuildGuildStates_StringOrderedVersions(t *testing.T) {
	rows, err := BuildGuildStates(records(
		changelogDoc("7", "1.2.0"),
		changelogDoc("7", "1.10.0"),
		changelogDoc("7", "1.2.5"),
	))
	require.NoError(t, err)
	// "1.2.5" > "1.10.0" when compared as strings.
	assert.Equal(t, []GuildStateRow{{GuildID: "7", SetRoles: true, LastChangelogVersion: "1.2.5"}}, rows)
}

func TestBuildGuildStates_GroupsInFirstSeenOrder(t *testing.T) {
	rows, err := BuildGuildStates(records(
		changelogDoc("2", "Sahnee-Bot v0.9.1 (beta)"),
		changelogDoc("1", "1.0.0"),
		changelogDoc("2", "v0.9.12"),
		changelogDoc("1", "0.5.0"),
	))
	require.NoError(t, err)
	assert.Equal(t, []GuildStateRow{
		{GuildID: "2", SetRoles: true, LastChangelogVersion: "0.9.12"},
		{GuildID: "1", SetRoles: true, LastChangelogVersion: "1.0.0"},
	}, rows)
}

func TestBuildGuildStates_NoVersion(t *testing.T) {
	_, err := BuildGuildStates(records(changelogDoc("1", "latest")))
	assert.ErrorIs(t, err, ErrMalformedVersion)
}

func TestBuildRoles_NotMerged(t *testing.T) {
	rows, err := BuildRoles(records(
		roleDoc("5", "6", "WarningBotAdmin"),
		roleDoc("5", "6", "WarningBotMod"),
	))
	require.NoError(t, err)
	assert.Equal(t, []RoleRow{
		{GuildID: "5", RoleID: "6", RoleType: 0b01},
		{GuildID: "5", RoleID: "6", RoleType: 0b10},
	}, rows)
}

func TestBuildRoles_UnknownType(t *testing.T) {
	_, err := BuildRoles(records(roleDoc("5", "6", "WarningBotAdmin"), roleDoc("5", "7", "Owner")))
	assert.ErrorIs(t, err, ErrUnknownRoleType)
	assert.Contains(t, err.Error(), "Owner")
}

func TestBuildUserGuildStates(t *testing.T) {
	doc := fmt.Sprintf(`{"_id": "s", "GuildId": %s, "UserId": %s, "Number": 12}`, long("1"), long("2"))
	rows, err := BuildUserGuildStates(records(doc))
	require.NoError(t, err)
	assert.Equal(t, []UserGuildStateRow{{GuildID: "1", UserID: "2", WarningNumber: "12"}}, rows)
	assert.Equal(t, []any{"1", "2", "12", false, false}, rows[0].Values())
}

func TestEntities_Order(t *testing.T) {
	var tables []string
	for _, e := range Entities() {
		tables = append(tables, e.Table)
	}
	assert.Equal(t, []string{"Warnings", "GuildStates", "Roles", "UserGuildStates"}, tables)
}

func TestEntities_ColumnsMatchRows(t *testing.T) {
	samples := map[string]Row{
		"Warnings":        WarningRow{},
		"GuildStates":     GuildStateRow{},
		"Roles":           RoleRow{},
		"UserGuildStates": UserGuildStateRow{},
	}
	for _, e := range Entities() {
		assert.Len(t, samples[e.Table].Values(), len(e.Columns), e.Table)
	}
}

func TestEntities_EmptyCollection(t *testing.T) {
	for _, e := range Entities() {
		rows, err := e.Build(nil)
		require.NoError(t, err)
		assert.Empty(t, rows)
	}
}
