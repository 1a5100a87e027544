// Package stub is a small stand-in for the downstream employee service. It
// stores employees in SQLite through package repo and answers the routes the
// gateway calls: /employee CRUD and /emp/error.
//
// It exists for local runs and end-to-end tests; the gateway never imports it.
package stub

import (
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-employee-gateway/internal/domain"
	"github.com/tbourn/go-employee-gateway/internal/http/handlers"
	"github.com/tbourn/go-employee-gateway/internal/http/middleware"
	"github.com/tbourn/go-employee-gateway/internal/repo"
)

// ErrorResponse is what GET /emp/error answers with.
type ErrorResponse struct {
	Status int
	Body   string
}

// Server serves the downstream employee API.
type Server struct {
	db *gorm.DB

	mu       sync.RWMutex
	errorRes ErrorResponse
}

// New returns a Server over db. The schema must already be migrated.
func New(db *gorm.DB, errorRes ErrorResponse) *Server {
	if errorRes.Status == 0 {
		errorRes.Status = http.StatusInternalServerError
	}
	return &Server{db: db, errorRes: errorRes}
}

// SetErrorResponse changes what /emp/error answers with.
func (s *Server) SetErrorResponse(res ErrorResponse) {
	s.mu.Lock()
	s.errorRes = res
	s.mu.Unlock()
}

func (s *Server) errorResponse() ErrorResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errorRes
}

// Handler builds a Gin engine with the stub routes and the usual
// request id, access log and recovery middleware.
func (s *Server) Handler() *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), middleware.Recovery())

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	emp := r.Group("/employee")
	{
		emp.GET("", s.list)
		emp.POST("", s.create)
		emp.GET("/:id", s.get)
		emp.PUT("/:id", s.update)
		emp.DELETE("/:id", s.delete)
	}
	r.GET("/emp/error", s.errorDemo)
	return r
}

func (s *Server) list(c *gin.Context) {
	out, err := repo.ListEmployees(c.Request.Context(), s.db)
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) get(c *gin.Context) {
	e, err := repo.GetEmployee(c.Request.Context(), s.db, c.Param("id"))
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (s *Server) create(c *gin.Context) {
	var in domain.Employee
	if err := c.ShouldBindJSON(&in); err != nil {
		handlers.Fail(c, http.StatusBadRequest, handlers.ErrCodeBadRequest, "invalid JSON body")
		return
	}
	out, err := repo.CreateEmployee(c.Request.Context(), s.db, in)
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (s *Server) update(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	var in domain.Employee
	if err := c.ShouldBindJSON(&in); err != nil {
		handlers.Fail(c, http.StatusBadRequest, handlers.ErrCodeBadRequest, "invalid JSON body")
		return
	}
	out, err := repo.UpdateEmployee(c.Request.Context(), s.db, id, in)
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) delete(c *gin.Context) {
	if err := repo.DeleteEmployee(c.Request.Context(), s.db, c.Param("id")); err != nil {
		storeError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// errorDemo answers with the configured status. A 2xx body is sent as JSON,
// anything else as plain text.
func (s *Server) errorDemo(c *gin.Context) {
	res := s.errorResponse()
	if res.Status >= 200 && res.Status < 300 {
		c.Data(res.Status, "application/json", []byte(res.Body))
		return
	}
	if res.Body == "" {
		c.Status(res.Status)
		return
	}
	c.Data(res.Status, "text/plain; charset=utf-8", []byte(res.Body))
}

func storeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "employee not found")
	case errors.Is(err, repo.ErrDuplicate):
		handlers.Fail(c, http.StatusConflict, handlers.ErrCodeConflict, "employee already exists")
	case errors.Is(err, domain.ErrInvalidEmployeeID):
		handlers.Fail(c, http.StatusBadRequest, handlers.ErrCodeBadRequest, err.Error())
	default:
		handlers.Fail(c, http.StatusInternalServerError, handlers.ErrCodeInternal, "internal error")
	}
}
