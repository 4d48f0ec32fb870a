package http

import (
	"errors"
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shodhacode/judge/internal/domain"
	"github.com/shodhacode/judge/internal/usecase"
)

// ProblemHandler serves the problem catalogue. Test cases never leave the server.
type ProblemHandler struct {
	problemsUC *usecase.ProblemsUsecase
	logger     *zap.Logger
}

// NewProblemHandler creates a new ProblemHandler.
func NewProblemHandler(problemsUC *usecase.ProblemsUsecase, logger *zap.Logger) *ProblemHandler {
	return &ProblemHandler{problemsUC: problemsUC, logger: logger}
}

// List handles GET /api/problems
func (h *ProblemHandler) List(c *gin.Context) {
	problems, err := h.problemsUC.List(c.Request.Context())
	if err != nil {
		h.logger.Error("List problems failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	views := make([]*domain.ProblemView, 0, len(problems))
	for _, p := range problems {
		views = append(views, p.View())
	}
	sort.Slice(views, func(i, j int) bool { return views[i].ID < views[j].ID })
	c.JSON(http.StatusOK, gin.H{"problems": views})
}

// GetByID handles GET /api/problems/:id
func (h *ProblemHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid problem ID format"})
		return
	}

	p, err := h.problemsUC.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrProblemNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Problem not found"})
			return
		}
		h.logger.Error("Get problem failed", zap.Error(err), zap.Int64("problem_id", id))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, p.View())
}
