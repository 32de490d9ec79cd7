package types

import (
	"strconv"
	"strings"
)

// Property type tags as reported by the record database.
const (
	PropTitle    = "title"
	PropUniqueID = "unique_id"
	PropRelation = "relation"
	PropPeople   = "people"
	PropSelect   = "select"
	PropStatus   = "status"
	PropDate     = "date"
)

// Record is one raw page from the record database: an opaque id plus a
// property bag keyed by field name. A property missing from the bag reads as
// the zero Property and is treated as empty, never as an error.
type Record struct {
	ID         string              `json:"id"`
	Properties map[string]Property `json:"properties"`
}

// Property is a single typed property value. Only the member matching Type is
// populated; the others stay nil.
type Property struct {
	Type     string     `json:"type"`
	Title    []RichText `json:"title,omitempty"`
	UniqueID *UniqueID  `json:"unique_id,omitempty"`
	Relation []Ref      `json:"relation,omitempty"`
	People   []Person   `json:"people,omitempty"`
	Select   *Option    `json:"select,omitempty"`
	Status   *Option    `json:"status,omitempty"`
	Date     *DateRange `json:"date,omitempty"`
}

// RichText is a fragment of a title.
type RichText struct {
	PlainText string `json:"plain_text"`
}

// UniqueID is an auto-incrementing identifier with an optional prefix.
type UniqueID struct {
	Prefix string `json:"prefix"`
	Number *int   `json:"number"`
}

// Ref points at another record.
type Ref struct {
	ID string `json:"id"`
}

// Person is a workspace user.
type Person struct {
	ID   string  `json:"id,omitempty"`
	Name *string `json:"name,omitempty"`
}

// Option is a select or status choice.
type Option struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// DateRange holds ISO date or datetime strings; End may be empty.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Parsed is the result of a lenient read: Value is meaningful only when OK.
type Parsed[T any] struct {
	Value T
	OK    bool
}

// Or returns the parsed value, or def when parsing failed.
func (p Parsed[T]) Or(def T) T {
	if p.OK {
		return p.Value
	}
	return def
}

func parsed[T any](v T) Parsed[T] {
	return Parsed[T]{Value: v, OK: true}
}

// Prop returns the named property, or the zero Property when absent.
func (r *Record) Prop(name string) Property {
	if r == nil || r.Properties == nil {
		return Property{}
	}
	return r.Properties[name]
}

// FirstText returns the plain text of the first title fragment.
func (p Property) FirstText() Parsed[string] {
	if len(p.Title) == 0 {
		return Parsed[string]{}
	}
	return parsed(p.Title[0].PlainText)
}

// FullText joins every title fragment.
func (p Property) FullText() string {
	var b strings.Builder
	for _, t := range p.Title {
		b.WriteString(t.PlainText)
	}
	return b.String()
}

// DisplayID formats a unique-id property as prefix followed by number.
func (p Property) DisplayID() Parsed[string] {
	if p.Type != PropUniqueID || p.UniqueID == nil || p.UniqueID.Number == nil {
		return Parsed[string]{}
	}
	return parsed(p.UniqueID.Prefix + strconv.Itoa(*p.UniqueID.Number))
}

// FirstRelation returns the first related record id.
func (p Property) FirstRelation() Parsed[string] {
	if len(p.Relation) == 0 || p.Relation[0].ID == "" {
		return Parsed[string]{}
	}
	return parsed(p.Relation[0].ID)
}

// SelectInt parses the select option's name as an integer.
func (p Property) SelectInt() Parsed[int] {
	if p.Select == nil {
		return Parsed[int]{}
	}
	n, err := strconv.Atoi(strings.TrimSpace(p.Select.Name))
	if err != nil {
		return Parsed[int]{}
	}
	return parsed(n)
}

// ChoiceName reads the option name from either a status or a select property;
// deployments differ in which of the two shapes they use.
func (p Property) ChoiceName() Parsed[string] {
	var opt *Option
	switch p.Type {
	case PropStatus:
		opt = p.Status
	case PropSelect:
		opt = p.Select
	}
	if opt == nil || opt.Name == "" {
		return Parsed[string]{}
	}
	return parsed(opt.Name)
}

// Range returns the date range's raw start and end strings.
func (p Property) Range() (start, end string) {
	if p.Date == nil {
		return "", ""
	}
	return p.Date.Start, p.Date.End
}
