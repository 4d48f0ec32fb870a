package judge

import (
	"os/exec"

	"github.com/shodhacode/judge/internal/language"
)

func lookSh() (string, error) {
	return exec.LookPath("sh")
}

func shTable() *language.Table {
	sh := language.Profile{Name: "sh", Filename: "main.sh", Run: []string{"sh", "main.sh"}}
	return language.NewTable(sh, map[string]language.Profile{"sh": sh})
}
