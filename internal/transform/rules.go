package transform

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/goccy/go-json"

	"github.com/Sahnee-DE/sahnee-bot-migrator/internal/legacy"
	"github.com/Sahnee-DE/sahnee-bot-migrator/internal/litedb"
)

var (
	ErrUnknownRoleType  = errors.New("unknown role type")
	ErrMalformedVersion = errors.New("no MAJOR.MINOR.PATCH version")
)

const (
	WarningTypeWarning = 1
	WarningTypeFormal  = 2

	RoleTypeAdmin = 0b01
	RoleTypeMod   = 0b10

	defaultReason = "/"
)

var semver = regexp.MustCompile(`\d+\.\d+\.\d+`)

// Row is one tuple ready for insertion, ordered like its entity's columns.
type Row interface {
	Values() []any
}

// RecordError locates a failure at a single legacy document.
type RecordError struct {
	Collection string
	Index      int
	ID         string
	Stage      string
	Err        error
}

func (e *RecordError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s record %d (%s): %s: %v", e.Collection, e.Index, e.ID, e.Stage, e.Err)
	}
	return fmt.Sprintf("%s record %d: %s: %v", e.Collection, e.Index, e.Stage, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

type WarningRow struct {
	ID           int64
	GuildID      string
	UserID       string
	Time         time.Time
	IssuerUserID string
	Reason       string
	Number       string
	Type         int
}

func (r WarningRow) Values() []any {
	return []any{r.ID, r.GuildID, r.UserID, r.Time, r.IssuerUserID, r.Reason, r.Number, r.Type}
}

type GuildStateRow struct {
	GuildID              string
	SetRoles             bool
	LastChangelogVersion string
}

func (r GuildStateRow) Values() []any {
	return []any{r.GuildID, r.SetRoles, r.LastChangelogVersion}
}

type RoleRow struct {
	GuildID  string
	RoleID   string
	RoleType int
}

func (r RoleRow) Values() []any {
	return []any{r.GuildID, r.RoleID, r.RoleType}
}

type UserGuildStateRow struct {
	GuildID               string
	UserID                string
	WarningNumber         string
	MessageOptOut         bool
	HasReceivedOptOutHint bool
}

func (r UserGuildStateRow) Values() []any {
	return []any{r.GuildID, r.UserID, r.WarningNumber, r.MessageOptOut, r.HasReceivedOptOutHint}
}

// BuildWarnings maps every warning document to exactly one row.
func BuildWarnings(records []litedb.Record) ([]WarningRow, error) {
	out := make([]WarningRow, 0, len(records))
	for i, raw := range records {
		var w legacy.Warning
		if err := legacy.Decode(raw, &w); err != nil {
			return nil, recordErr(legacy.CollectionWarnings, i, raw, "decode", err)
		}
		id, err := legacy.DeriveID(string(w.ID))
		if err != nil {
			return nil, recordErr(legacy.CollectionWarnings, i, raw, "derive id", err)
		}
		reason := w.Reason
		if reason == "" {
			reason = defaultReason
		}
		typ := WarningTypeFormal
		if w.WarningType == "Warning" {
			typ = WarningTypeWarning
		}
		out = append(out, WarningRow{
			ID:           id,
			GuildID:      w.GuildID.String(),
			UserID:       w.To.String(),
			Time:         w.Time.Time,
			IssuerUserID: w.From.String(),
			Reason:       reason,
			Number:       w.Number.String(),
			Type:         typ,
		})
	}
	return out, nil
}

// BuildGuildStates keeps one row per guild holding the greatest changelog
// version. Versions are compared as plain strings, so "1.2.5" beats "1.10.0";
// the bot stored them that way and the migration keeps its ordering.
func BuildGuildStates(records []litedb.Record) ([]GuildStateRow, error) {
	var order []string
	latest := make(map[string]string)
	for i, raw := range records {
		var c legacy.Changelog
		if err := legacy.Decode(raw, &c); err != nil {
			return nil, recordErr(legacy.CollectionChangelog, i, raw, "decode", err)
		}
		version := semver.FindString(c.LatestVersion)
		if version == "" {
			return nil, recordErr(legacy.CollectionChangelog, i, raw, "extract version",
				fmt.Errorf("%w in %q", ErrMalformedVersion, c.LatestVersion))
		}
		guildID := c.GuildID.String()
		current, seen := latest[guildID]
		if !seen {
			order = append(order, guildID)
		}
		if !seen || version > current {
			latest[guildID] = version
		}
	}

	out := make([]GuildStateRow, 0, len(order))
	for _, guildID := range order {
		out = append(out, GuildStateRow{
			GuildID:              guildID,
			SetRoles:             true,
			LastChangelogVersion: latest[guildID],
		})
	}
	return out, nil
}

// BuildRoles maps every role document to one row. Unknown role types abort
// the migration rather than dropping a permission.
func BuildRoles(records []litedb.Record) ([]RoleRow, error) {
	out := make([]RoleRow, 0, len(records))
	for i, raw := range records {
		var r legacy.Role
		if err := legacy.Decode(raw, &r); err != nil {
			return nil, recordErr(legacy.CollectionRoles, i, raw, "decode", err)
		}
		var roleType int
		switch r.RoleType {
		case "WarningBotMod":
			roleType |= RoleTypeMod
		case "WarningBotAdmin":
			roleType |= RoleTypeAdmin
		default:
			return nil, recordErr(legacy.CollectionRoles, i, raw, "map role type",
				fmt.Errorf("%w %q", ErrUnknownRoleType, r.RoleType))
		}
		out = append(out, RoleRow{
			GuildID:  r.GuildID.String(),
			RoleID:   r.RoleID.String(),
			RoleType: roleType,
		})
	}
	return out, nil
}

// BuildUserGuildStates maps every state document to one row. The opt-out
// flags have no legacy counterpart and start false.
func BuildUserGuildStates(records []litedb.Record) ([]UserGuildStateRow, error) {
	out := make([]UserGuildStateRow, 0, len(records))
	for i, raw := range records {
		var s legacy.State
		if err := legacy.Decode(raw, &s); err != nil {
			return nil, recordErr(legacy.CollectionStates, i, raw, "decode", err)
		}
		out = append(out, UserGuildStateRow{
			GuildID:       s.GuildID.String(),
			UserID:        s.UserID.String(),
			WarningNumber: s.Number.String(),
		})
	}
	return out, nil
}

func recordErr(collection string, index int, raw []byte, stage string, err error) error {
	var probe struct {
		ID legacy.ID `json:"_id"`
	}
	var id string
	if err := json.Unmarshal(raw, &probe); err == nil {
		id = string(probe.ID)
	}
	return &RecordError{
		Collection: collection,
		Index:      index,
		ID:         id,
		Stage:      stage,
		Err:        err,
	}
}
