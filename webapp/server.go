package webapp

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"quizdesk/admin"
	"quizdesk/quiz"
)

const passphraseHeader = "X-Admin-Passphrase"

// Server runs one quiz at a time for the local user and exposes the admin
// API behind the shared passphrase.
type Server struct {
	engine  *quiz.Engine
	admin   *admin.Service
	gate    admin.Gate
	session *quiz.Session
	mu      sync.Mutex
}

func NewServer(engine *quiz.Engine, svc *admin.Service, gate admin.Gate) *Server {
	return &Server{engine: engine, admin: svc, gate: gate}
}

func Run(addr string, s *Server, origins []string) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      s.Router(origins),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	fmt.Printf("Web quiz available at http://%s\n", addr)
	return server.ListenAndServe()
}

func (s *Server) Router(origins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	if len(origins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:  origins,
			AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:  []string{"Content-Type", "Accept", passphraseHeader},
			ExposeHeaders: []string{"Content-Length"},
			MaxAge:        12 * time.Hour,
		}))
	}

	r.GET("/", s.handleHome)
	api := r.Group("/api")
	{
		api.GET("/categories", s.handleCategories)
		api.POST("/quiz/start", s.handleStart)
		api.GET("/state", s.handleState)
		api.POST("/answer", s.handleAnswer)
		api.GET("/summary", s.handleSummary)
		api.POST("/reset", s.handleReset)
		api.POST("/admin/login", s.handleLogin)
	}

	protected := api.Group("/admin", s.requireAdmin)
	{
		protected.GET("/categories", s.handleCategories)
		protected.POST("/categories", s.handleAddCategory)
		protected.GET("/questions", s.handleListQuestions)
		protected.POST("/questions", s.handleAddQuestion)
		protected.GET("/questions/:id", s.handleGetQuestion)
		protected.PUT("/questions/:id", s.handleUpdateQuestion)
		protected.DELETE("/questions/:id", s.handleDeleteQuestion)
	}
	return r
}

type startRequest struct {
	Category string `json:"category"`
}

type stateResponse struct {
	Active   bool             `json:"active"`
	Finished bool             `json:"finished"`
	Category string           `json:"category,omitempty"`
	Question *questionPayload `json:"question,omitempty"`
	Progress progressPayload  `json:"progress"`
	Summary  *summaryPayload  `json:"summary,omitempty"`
}

type questionPayload struct {
	Index          int             `json:"index"`
	Prompt         string          `json:"prompt"`
	Options        []optionPayload `json:"options"`
	MultipleChoice bool            `json:"multipleChoice"`
}

type optionPayload struct {
	Letter string `json:"letter"`
	Text   string `json:"text"`
}

type progressPayload struct {
	Answered  int `json:"answered"`
	Total     int `json:"total"`
	Remaining int `json:"remaining"`
	Score     int `json:"score"`
}

type answerRequest struct {
	Answers []string `json:"answers"`
}

type answerResponse struct {
	Correct        bool            `json:"correct"`
	CorrectAnswers []string        `json:"correctAnswers"`
	Feedback       string          `json:"feedback"`
	Finished       bool            `json:"finished"`
	Progress       progressPayload `json:"progress"`
}

type summaryPayload struct {
	Score      int          `json:"score"`
	Total      int          `json:"total"`
	Percentage float64      `json:"percentage"`
	Rows       []summaryRow `json:"rows"`
}

type summaryRow struct {
	Index          int      `json:"index"`
	Prompt         string   `json:"prompt"`
	Correct        bool     `json:"correct"`
	Selected       []string `json:"selected"`
	CorrectAnswers []string `json:"correctAnswers"`
}

type questionRequest struct {
	Category       string   `json:"category"`
	Question       string   `json:"question"`
	Options        []string `json:"options"`
	Answers        []string `json:"answers"`
	MultipleChoice bool     `json:"isMultipleChoice"`
	Feedback       string   `json:"feedback"`
}

func (s *Server) handleHome(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(indexHTML))
}

func (s *Server) handleCategories(c *gin.Context) {
	cats, err := s.admin.Categories(c.Request.Context())
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": cats})
}

func (s *Server) handleStart(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	session, err := s.engine.Start(c.Request.Context(), req.Category)
	if errors.Is(err, quiz.ErrNoQuestions) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": fmt.Sprintf("No questions available for %s.", req.Category),
			"code":  "NO_QUESTIONS",
		})
		return
	}
	if err != nil {
		internalError(c, err)
		return
	}
	s.mu.Lock()
	s.session = &session
	s.mu.Unlock()
	c.JSON(http.StatusOK, buildState(&session))
}

func (s *Server) handleState(c *gin.Context) {
	s.mu.Lock()
	session := s.session
	s.mu.Unlock()
	c.JSON(http.StatusOK, buildState(session))
}

func (s *Server) handleAnswer(c *gin.Context) {
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		noSession(c)
		return
	}
	next, out, err := s.session.Submit(req.Answers)
	switch {
	case errors.Is(err, quiz.ErrSelectionRequired):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Please select at least one answer.", "code": "SELECTION_REQUIRED"})
		return
	case errors.Is(err, quiz.ErrSingleSelection):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Please select only one answer.", "code": "SINGLE_SELECTION"})
		return
	case errors.Is(err, quiz.ErrSessionFinished):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "QUIZ_FINISHED"})
		return
	case err != nil:
		internalError(c, err)
		return
	}
	s.session = &next
	c.JSON(http.StatusOK, answerResponse{
		Correct:        out.Correct,
		CorrectAnswers: out.CorrectAnswers,
		Feedback:       out.Feedback,
		Finished:       next.Finished(),
		Progress:       progressOf(next),
	})
}

func (s *Server) handleSummary(c *gin.Context) {
	s.mu.Lock()
	session := s.session
	s.mu.Unlock()
	if session == nil {
		noSession(c)
		return
	}
	c.JSON(http.StatusOK, buildSummary(*session))
}

func (s *Server) handleReset(c *gin.Context) {
	s.mu.Lock()
	s.session = nil
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}

func (s *Server) handleLogin(c *gin.Context) {
	var req struct {
		Passphrase string `json:"passphrase"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !s.gate.Allow(req.Passphrase) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect password", "code": "ACCESS_DENIED"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) requireAdmin(c *gin.Context) {
	if !s.gate.Allow(c.GetHeader(passphraseHeader)) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Admin access required", "code": "ACCESS_DENIED"})
		return
	}
	c.Next()
}

func (s *Server) handleAddCategory(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ok, err := s.admin.AddCategory(c.Request.Context(), req.Name)
	if err != nil {
		adminError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("Category '%s' already exists.", req.Name), "code": "DUPLICATE_CATEGORY"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"name": req.Name})
}

func (s *Server) handleListQuestions(c *gin.Context) {
	qs, err := s.admin.Questions(c.Request.Context())
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"questions": qs})
}

func (s *Server) handleAddQuestion(c *gin.Context) {
	q, ok := bindQuestion(c)
	if !ok {
		return
	}
	id, err := s.admin.AddQuestion(c.Request.Context(), q.Category, q)
	if err != nil {
		adminError(c, err)
		return
	}
	s.respondQuestion(c, http.StatusCreated, id)
}

func (s *Server) handleGetQuestion(c *gin.Context) {
	id, ok := questionID(c)
	if !ok {
		return
	}
	s.respondQuestion(c, http.StatusOK, id)
}

func (s *Server) handleUpdateQuestion(c *gin.Context) {
	id, ok := questionID(c)
	if !ok {
		return
	}
	q, ok := bindQuestion(c)
	if !ok {
		return
	}
	if err := s.admin.UpdateQuestion(c.Request.Context(), id, q); err != nil {
		adminError(c, err)
		return
	}
	s.respondQuestion(c, http.StatusOK, id)
}

func (s *Server) handleDeleteQuestion(c *gin.Context) {
	id, ok := questionID(c)
	if !ok {
		return
	}
	if err := s.admin.DeleteQuestion(c.Request.Context(), id); err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func (s *Server) respondQuestion(c *gin.Context, status int, id int64) {
	q, err := s.admin.Question(c.Request.Context(), id)
	if err != nil {
		adminError(c, err)
		return
	}
	c.JSON(status, q)
}

func bindQuestion(c *gin.Context) (quiz.Question, bool) {
	var req questionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return quiz.Question{}, false
	}
	if len(req.Options) != quiz.OptionCount {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("exactly %d options are required, got %d", quiz.OptionCount, len(req.Options)),
			"code":  "INVALID_QUESTION",
		})
		return quiz.Question{}, false
	}
	q := quiz.Question{
		Category:       req.Category,
		Text:           req.Question,
		CorrectAnswers: req.Answers,
		MultipleChoice: req.MultipleChoice,
		Feedback:       req.Feedback,
	}
	copy(q.Options[:], req.Options)
	return q, true
}

func questionID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid question id"})
		return 0, false
	}
	return id, true
}

func adminError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, quiz.ErrInvalidQuestion), errors.Is(err, admin.ErrEmptyCategory):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "INVALID_QUESTION"})
	case errors.Is(err, admin.ErrQuestionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found.", "code": "NOT_FOUND"})
	default:
		internalError(c, err)
	}
}

func internalError(c *gin.Context, err error) {
	log.Printf("quizdesk: %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func noSession(c *gin.Context) {
	c.JSON(http.StatusConflict, gin.H{"error": "No quiz in progress.", "code": "NO_SESSION"})
}

func progressOf(s quiz.Session) progressPayload {
	answered, total := s.Progress()
	return progressPayload{
		Answered:  answered,
		Total:     total,
		Remaining: total - answered,
		Score:     s.Score(),
	}
}

func buildState(session *quiz.Session) stateResponse {
	if session == nil {
		return stateResponse{}
	}
	resp := stateResponse{
		Active:   true,
		Category: session.Category(),
		Progress: progressOf(*session),
	}
	q, ok := session.Current()
	if !ok {
		summary := buildSummary(*session)
		resp.Finished = true
		resp.Summary = &summary
		return resp
	}
	payload := &questionPayload{
		Index:          session.Position() + 1,
		Prompt:         q.Text,
		MultipleChoice: q.MultipleChoice,
	}
	for i, opt := range q.Options {
		payload.Options = append(payload.Options, optionPayload{Letter: quiz.OptionLetter(i), Text: opt})
	}
	resp.Question = payload
	return resp
}

func buildSummary(session quiz.Session) summaryPayload {
	res := session.Result()
	answers := session.Answers()
	rows := make([]summaryRow, 0, len(answers))
	for i, a := range answers {
		rows = append(rows, summaryRow{
			Index:          i + 1,
			Prompt:         a.Question.Text,
			Correct:        a.Correct,
			Selected:       a.Selected,
			CorrectAnswers: a.Question.CorrectAnswers,
		})
	}
	return summaryPayload{
		Score:      res.Score,
		Total:      res.Total,
		Percentage: res.Percentage,
		Rows:       rows,
	}
}
