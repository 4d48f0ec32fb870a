package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shodhacode/judge/internal/language"
)

// LanguageInfo describes one supported language.
type LanguageInfo struct {
	Name     string `json:"name"`
	Version  string `json:"version"`
	Compiled bool   `json:"compiled"`
}

// LanguageHandler handles language listing requests.
type LanguageHandler struct {
	table *language.Table
}

// NewLanguageHandler creates a new LanguageHandler. A nil table lists language.Default.
func NewLanguageHandler(table *language.Table) *LanguageHandler {
	if table == nil {
		table = language.Default
	}
	return &LanguageHandler{table: table}
}

// List handles GET /api/languages
func (h *LanguageHandler) List(c *gin.Context) {
	profiles := h.table.Languages()
	languages := make([]LanguageInfo, 0, len(profiles))
	for _, p := range profiles {
		languages = append(languages, LanguageInfo{
			Name:     p.Name,
			Version:  p.Version,
			Compiled: p.Compiled(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"languages": languages})
}
