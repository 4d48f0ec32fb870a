package language

import (
	"reflect"
	"testing"
)

func TestProfileFor(t *testing.T) {
	tests := []struct {
		language     string
		wantFilename string
		wantCommand  []string
	}{
		{"java", "Main.java", []string{"bash", "-c", "javac Main.java && java Main"}},
		{"python", "main.py", []string{"python3", "main.py"}},
		{"cpp", "main.cpp", []string{"bash", "-c", "g++ main.cpp -o main && ./main"}},
		{"c++", "main.cpp", []string{"bash", "-c", "g++ main.cpp -o main && ./main"}},
		{"PYTHON", "main.py", []string{"python3", "main.py"}},
		{" Java ", "Main.java", []string{"bash", "-c", "javac Main.java && java Main"}},
	}

	for _, tt := range tests {
		t.Run(tt.language, func(t *testing.T) {
			p := Default.ProfileFor(tt.language)
			if p.Filename != tt.wantFilename {
				t.Errorf("filename: got %s, want %s", p.Filename, tt.wantFilename)
			}
			if got := p.BuildAndRun(); !reflect.DeepEqual(got, tt.wantCommand) {
				t.Errorf("command: got %q, want %q", got, tt.wantCommand)
			}
		})
	}
}

func TestProfileFor_UnknownFallsBackToJava(t *testing.T) {
	for _, lang := range []string{"ruby", "", "go"} {
		p := Default.ProfileFor(lang)
		if p.Name != Java || p.Filename != "Main.java" {
			t.Errorf("%q: expected java fallback, got %+v", lang, p)
		}
		if Default.IsKnown(lang) {
			t.Errorf("%q: expected IsKnown false", lang)
		}
	}
}

func TestLanguages_DeduplicatesAliases(t *testing.T) {
	got := Default.Languages()
	var names []string
	for _, p := range got {
		names = append(names, p.Name)
	}
	want := []string{Cpp, Java, Python}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("languages: got %v, want %v", names, want)
	}
}

func TestBuildAndRun_DoesNotAliasRun(t *testing.T) {
	p := Default.ProfileFor(Python)
	cmd := p.BuildAndRun()
	cmd[0] = "mutated"
	if Default.ProfileFor(Python).Run[0] != "python3" {
		t.Error("BuildAndRun exposed the profile's Run slice")
	}
}
