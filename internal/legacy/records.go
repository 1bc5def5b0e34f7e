package legacy

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Collection names as they appear in the LiteDB export.
const (
	CollectionWarnings  = "warnings"
	CollectionChangelog = "warningbot_changelog"
	CollectionRoles     = "warningbot_roles"
	CollectionStates    = "warningbot_state"
)

// Shape is a typed view of one legacy document.
type Shape interface {
	Validate() error
}

// Decode unmarshals one raw legacy document into shape and checks that every
// field the migration relies on was present.
func Decode(raw []byte, shape Shape) error {
	if err := json.Unmarshal(raw, shape); err != nil {
		return err
	}
	return shape.Validate()
}

// Warning is a document of the warnings collection.
type Warning struct {
	ID          ID     `json:"_id"`
	GuildID     Long   `json:"GuildId"`
	To          Long   `json:"To"`
	From        Long   `json:"From"`
	Time        Date   `json:"Time"`
	Reason      string `json:"Reason"`
	Number      Long   `json:"Number"`
	WarningType string `json:"WarningType"`
}

func (w *Warning) Validate() error {
	return requireFields(
		field{"_id", w.ID != ""},
		field{"GuildId", w.GuildID != ""},
		field{"To", w.To != ""},
		field{"From", w.From != ""},
		field{"Time", !w.Time.IsZero()},
		field{"Number", w.Number != ""},
	)
}

// Changelog records the newest changelog a guild was shown.
type Changelog struct {
	ID            ID     `json:"_id"`
	GuildID       Long   `json:"GuildId"`
	LatestVersion string `json:"LatestVersion"`
}

func (c *Changelog) Validate() error {
	return requireFields(
		field{"GuildId", c.GuildID != ""},
		field{"LatestVersion", c.LatestVersion != ""},
	)
}

// Role grants a warning bot permission to a guild role.
type Role struct {
	ID       ID     `json:"_id"`
	GuildID  Long   `json:"GuildId"`
	RoleID   Long   `json:"RoleId"`
	RoleType string `json:"RoleType"`
}

func (r *Role) Validate() error {
	return requireFields(
		field{"GuildId", r.GuildID != ""},
		field{"RoleId", r.RoleID != ""},
	)
}

// State is the per user and guild warning counter.
type State struct {
	ID      ID   `json:"_id"`
	GuildID Long `json:"GuildId"`
	UserID  Long `json:"UserId"`
	Number  Long `json:"Number"`
}

func (s *State) Validate() error {
	return requireFields(
		field{"GuildId", s.GuildID != ""},
		field{"UserId", s.UserID != ""},
		field{"Number", s.Number != ""},
	)
}

type field struct {
	name    string
	present bool
}

func requireFields(fields ...field) error {
	for _, f := range fields {
		if !f.present {
			return fmt.Errorf("%w: %s", ErrMissingField, f.name)
		}
	}
	return nil
}
