// Package language maps a submission's language tag to the files and commands used to build
// and run it.
package language

import (
	"sort"
	"strings"
)

const (
	Java   = "java"
	Python = "python"
	Cpp    = "cpp"
)

// Profile describes how to lay out and launch one language.
type Profile struct {
	Name     string
	Version  string
	Filename string
	// Compile is empty for interpreted languages.
	Compile []string
	Run     []string
}

// Compiled reports whether the profile has a separate compile step.
func (p Profile) Compiled() bool {
	return len(p.Compile) > 0
}

// BuildAndRun returns the single command that builds and runs the program, the form a shell
// would execute it in.
func (p Profile) BuildAndRun() []string {
	if !p.Compiled() {
		return append([]string(nil), p.Run...)
	}
	return []string{"bash", "-c", strings.Join(p.Compile, " ") + " && " + strings.Join(p.Run, " ")}
}

// Table is a language lookup with a fallback profile for unknown tags.
type Table struct {
	profiles map[string]Profile
	fallback Profile
}

// NewTable creates a table. Tags are matched case-insensitively.
func NewTable(fallback Profile, profiles map[string]Profile) *Table {
	t := &Table{profiles: make(map[string]Profile, len(profiles)), fallback: fallback}
	for tag, p := range profiles {
		t.profiles[strings.ToLower(tag)] = p
	}
	return t
}

// ProfileFor returns the profile for language, or the fallback if the tag is unknown.
func (t *Table) ProfileFor(language string) Profile {
	if p, ok := t.profiles[normalize(language)]; ok {
		return p
	}
	return t.fallback
}

// IsKnown reports whether language has its own profile.
func (t *Table) IsKnown(language string) bool {
	_, ok := t.profiles[normalize(language)]
	return ok
}

// Languages returns the distinct known profiles sorted by name.
func (t *Table) Languages() []Profile {
	seen := make(map[string]bool)
	var out []Profile
	for _, p := range t.profiles {
		if seen[p.Name] {
			continue
		}
		seen[p.Name] = true
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func normalize(language string) string {
	return strings.ToLower(strings.TrimSpace(language))
}

var (
	javaProfile = Profile{
		Name:     Java,
		Version:  "17",
		Filename: "Main.java",
		Compile:  []string{"javac", "Main.java"},
		Run:      []string{"java", "Main"},
	}
	pythonProfile = Profile{
		Name:     Python,
		Version:  "3",
		Filename: "main.py",
		Run:      []string{"python3", "main.py"},
	}
	cppProfile = Profile{
		Name:     Cpp,
		Version:  "17",
		Filename: "main.cpp",
		Compile:  []string{"g++", "main.cpp", "-o", "main"},
		Run:      []string{"./main"},
	}
)

// Default is the production table. Unknown languages fall back to Java, which existing
// clients rely on.
var Default = NewTable(javaProfile, map[string]Profile{
	Java:   javaProfile,
	Python: pythonProfile,
	Cpp:    cppProfile,
	"c++":  cppProfile,
})
