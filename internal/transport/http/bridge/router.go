package bridgehttp

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"kiwoom/internal/calllog"
	"kiwoom/internal/journal"
	"kiwoom/internal/openapi"
	"kiwoom/internal/order"
	"kiwoom/internal/request"
)

// EventJournal is the read side of the dispatch journal.
type EventJournal interface {
	List(ctx context.Context, q journal.Query) ([]journal.Entry, error)
}

// CallLog is the read side of the outbound call log.
type CallLog interface {
	List(ctx context.Context, q calllog.Query) ([]calllog.Record, error)
}

// TRRequester runs TR queries.
type TRRequester interface {
	Do(ctx context.Context, req request.Request, collect request.Collector) (request.Response, error)
}

// Router holds the /api handlers.
type Router struct {
	api       *openapi.API
	autoLogin int
	journal   EventJournal
	calls     CallLog
	requests  TRRequester
}

func NewRouter(cfg ServerConfig) *Router {
	return &Router{
		api:       cfg.API,
		autoLogin: cfg.AutoLogin,
		journal:   cfg.Journal,
		calls:     cfg.Calls,
		requests:  cfg.Requests,
	}
}

// Register mounts the routes on group.
func (r *Router) Register(group *gin.RouterGroup) {
	if group == nil {
		return
	}
	group.GET("/state", r.handleState)
	group.POST("/connect", r.handleConnect)
	group.POST("/terminate", r.handleTerminate)
	group.GET("/login/:tag", r.handleLoginInfo)
	group.GET("/errors", r.handleErrorTable)
	group.GET("/errors/:code", r.handleErrorCode)
	group.GET("/registry", r.handleRegistry)
	group.GET("/methods", r.handleMethods)
	group.PUT("/policy", r.handlePolicy)
	group.GET("/events", r.handleEvents)
	group.GET("/calls", r.handleCalls)
	group.POST("/orders", r.handleOrder)
	group.POST("/requests", r.handleRequest)
}

func (r *Router) handleState(c *gin.Context) {
	state, err := r.api.GetConnectState()
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"connected": state == 1,
		"state":     state,
		"policy":    r.api.Policy().String(),
	})
}

func (r *Router) handleConnect(c *gin.Context) {
	var req struct {
		AutoLogin *int `json:"auto_login"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	autoLogin := r.autoLogin
	if req.AutoLogin != nil {
		autoLogin = *req.AutoLogin
	}
	code, err := r.api.CommConnect(autoLogin)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	if err := openapi.CheckCode(openapi.MethodCommConnect, code); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"code": code, "error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"code": code})
}

func (r *Router) handleTerminate(c *gin.Context) {
	if err := r.api.CommTerminate(); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "terminated"})
}

func (r *Router) handleLoginInfo(c *gin.Context) {
	tag := strings.ToUpper(strings.TrimSpace(c.Param("tag")))
	v, err := r.api.GetLoginInfo(tag)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tag": tag, "value": v})
}

func (r *Router) handleErrorTable(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"errors": openapi.ErrorMessages})
}

func (r *Router) handleErrorCode(c *gin.Context) {
	code := strings.TrimSpace(c.Param("code"))
	msg, ok := openapi.ErrorMessages[code]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown error code", "code": code})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": code, "message": msg})
}

func (r *Router) handleRegistry(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"registry": r.api.Registry().Snapshot()})
}

func (r *Router) handleMethods(c *gin.Context) {
	methods := openapi.Methods()
	out := make([]gin.H, 0, len(methods))
	for _, m := range methods {
		out = append(out, gin.H{"name": string(m), "signature": m.Signature()})
	}
	c.JSON(http.StatusOK, gin.H{"methods": out})
}

func (r *Router) handlePolicy(c *gin.Context) {
	var req struct {
		Policy string `json:"policy" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := openapi.ParsePolicy(req.Policy)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	r.api.SetPolicy(p)
	c.JSON(http.StatusOK, gin.H{"policy": p.String()})
}

func (r *Router) handleEvents(c *gin.Context) {
	if r.journal == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "journal disabled"})
		return
	}
	q := journal.Query{
		Event:  openapi.EventName(c.Query("event")),
		Key:    c.Query("key"),
		Limit:  queryInt(c, "limit", 100),
		Failed: c.Query("failed") == "true",
	}
	if q.Event != "" && !q.Event.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown event " + string(q.Event)})
		return
	}
	if since := c.Query("since"); since != "" {
		ts, err := time.Parse(time.RFC3339, since)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "since must be RFC3339"})
			return
		}
		q.Since = ts
	}
	entries, err := r.journal.List(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": entries})
}

func (r *Router) handleCalls(c *gin.Context) {
	if r.calls == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "call log disabled"})
		return
	}
	q := calllog.Query{
		Method:   openapi.Method(c.Query("method")),
		Failures: c.Query("failures") == "true",
		Limit:    queryInt(c, "limit", 100),
		Offset:   queryInt(c, "offset", 0),
	}
	records, err := r.calls.List(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"calls": records})
}

func (r *Router) handleOrder(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	o, err := order.Decode(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := order.Submit(r.api, o); err != nil {
		var ce *openapi.CodeError
		if errors.As(err, &ce) {
			c.JSON(http.StatusBadGateway, gin.H{"code": ce.Code, "error": ce.Error()})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"order": o.Args()})
}

func (r *Router) handleRequest(c *gin.Context) {
	if r.requests == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "requests disabled"})
		return
	}
	var req struct {
		request.Request
		Fields []string `json:"fields"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var collect request.Collector
	if len(req.Fields) > 0 {
		collect = request.Rows(req.Fields...)
	}
	resp, err := r.requests.Do(c.Request.Context(), req.Request, collect)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, request.ErrThrottled) {
			status = http.StatusTooManyRequests
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"response": resp})
}

func queryInt(c *gin.Context, key string, def int) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}
