// Package diagnostics projects parsed issues and security findings onto
// file and line locations as annotations. It keeps two independent
// channels, general and security, each rebuilt wholesale from the
// artifacts on every update.
package diagnostics

import (
	"math"
	"sort"
	"strings"
)

// Level is the projected severity of an annotation.
type Level int

const (
	LevelError Level = iota
	LevelWarning
	LevelInformation
	LevelHint
)

func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarning:
		return "warning"
	case LevelInformation:
		return "information"
	default:
		return "hint"
	}
}

// MarshalText encodes the level by name.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// MapSeverity maps an artifact severity string onto a Level. It is total:
// unrecognised input maps to LevelHint.
func MapSeverity(severity string) Level {
	switch strings.ToLower(strings.TrimSpace(severity)) {
	case "error", "high", "critical":
		return LevelError
	case "warning", "medium":
		return LevelWarning
	case "info", "low":
		return LevelInformation
	default:
		return LevelHint
	}
}

// EndOfLine is the column sentinel meaning "to the end of the line".
const EndOfLine = math.MaxInt32

// Position is a zero-based line and column.
type Position struct {
	Line int `json:"line"`
	Col  int `json:"col"`
}

// Range spans from Start to End inclusive of whole lines.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// lineRange covers the whole of a one-based line.
func lineRange(line int) Range {
	l := max(line, 1) - 1
	return Range{Start: Position{Line: l}, End: Position{Line: l, Col: EndOfLine}}
}

// RelatedInfo is extra context attached to an annotation.
type RelatedInfo struct {
	File    string `json:"file"`
	Range   Range  `json:"range"`
	Message string `json:"message"`
}

// Annotation is one position-anchored diagnostic.
type Annotation struct {
	File    string        `json:"file"`
	Range   Range         `json:"range"`
	Level   Level         `json:"level"`
	Message string        `json:"message"`
	Source  string        `json:"source"`
	Code    string        `json:"code,omitempty"`
	Related []RelatedInfo `json:"related,omitempty"`
}

// Channel maps absolute file paths to their annotations.
type Channel map[string][]Annotation

// Len returns the total number of annotations across all files.
func (c Channel) Len() int {
	n := 0
	for _, list := range c {
		n += len(list)
	}
	return n
}

// Flatten returns every annotation ordered by file then line.
func (c Channel) Flatten() []Annotation {
	out := make([]Annotation, 0, c.Len())
	for _, list := range c {
		out = append(out, list...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].File != out[j].File {
			return out[i].File < out[j].File
		}
		return out[i].Range.Start.Line < out[j].Range.Start.Line
	})
	return out
}

func (c Channel) clone() Channel {
	out := make(Channel, len(c))
	for file, list := range c {
		cp := make([]Annotation, len(list))
		for i, a := range list {
			if a.Related != nil {
				a.Related = append([]RelatedInfo(nil), a.Related...)
			}
			cp[i] = a
		}
		out[file] = cp
	}
	return out
}

// Source names stamped on annotations.
const (
	SourceGeneral  = "healthsync"
	SourceSecurity = "healthsync-security"
)

// Suppression hides general annotations at a file and line. An empty Rule
// matches any rule on that line.
type Suppression struct {
	File string
	Line int
	Rule string
}

func (s Suppression) matches(a Annotation) bool {
	return s.File == a.File &&
		s.Line-1 == a.Range.Start.Line &&
		(s.Rule == "" || s.Rule == a.Code)
}
