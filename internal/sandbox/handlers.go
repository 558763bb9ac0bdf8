package sandbox

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/ochronus/gorecruitee/internal/config"
	"github.com/sirupsen/logrus"
)

// collection describes one CRUD resource served by the sandbox.
type collection struct {
	name     string
	singular string
	plural   string
	required []string
}

var (
	candidatesCollection = collection{name: "candidates", singular: "candidate", plural: "candidates", required: []string{"name"}}
	offersCollection     = collection{name: "offers", singular: "offer", plural: "offers", required: []string{"title"}}
	resultsCollection    = collection{name: "interview_results", singular: "interview_result", plural: "interview_results"}
	eventsCollection     = collection{name: "interview_events", singular: "interview_event", plural: "interview_events"}
	placementsCollection = collection{name: "placements", singular: "placement", plural: "placements"}
	fieldsCollection     = collection{name: "custom_fields", singular: "field", plural: "fields"}
	adminsCollection     = collection{name: "admins", singular: "admin", plural: "admins"}
)

// placementRequest is the body accepted by POST /placements.
type placementRequest struct {
	CandidateID int64 `json:"candidate_id" validate:"required,gt=0"`
	OfferID     int64 `json:"offer_id" validate:"required,gt=0"`
	StageID     int64 `json:"stage_id" validate:"omitempty,gt=0"`
}

// Handler serves a small in-memory imitation of the Recruitee API for a
// single company.
type Handler struct {
	config   *config.SandboxConfig
	logger   *logrus.Logger
	store    *Store
	validate *validator.Validate
}

// NewHandler creates a handler backed by store. The store is seeded with one
// admin so listing admins returns something.
func NewHandler(cfg *config.SandboxConfig, logger *logrus.Logger, store *Store) *Handler {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if len(store.List(adminsCollection.name)) == 0 {
		store.Insert(adminsCollection.name, map[string]any{
			"email":      "admin@" + cfg.CompanyID + ".example",
			"first_name": "Sandbox",
			"last_name":  "Admin",
			"role":       "admin",
		})
	}

	return &Handler{
		config:   cfg,
		logger:   logger,
		store:    store,
		validate: validate,
	}
}

// Register mounts the API routes under /c/:company.
func (h *Handler) Register(router gin.IRouter) {
	api := router.Group("/c/:company", h.Authenticate)

	api.GET("/admins", h.list(adminsCollection))

	api.GET("/candidates", h.list(candidatesCollection))
	api.POST("/candidates", h.CreateCandidate)
	api.GET("/candidates/:id", h.fetch(candidatesCollection))
	api.PATCH("/candidates/:id", h.update(candidatesCollection))
	api.DELETE("/candidates/:id", h.remove(candidatesCollection))

	api.GET("/offers", h.list(offersCollection))
	api.POST("/offers", h.create(offersCollection))
	api.GET("/offers/:id", h.fetch(offersCollection))
	api.PATCH("/offers/:id", h.update(offersCollection))
	api.DELETE("/offers/:id", h.remove(offersCollection))

	api.GET("/interview/results", h.list(resultsCollection))
	api.GET("/interview/results/:id", h.fetch(resultsCollection))
	api.PATCH("/interview/results/:id", h.update(resultsCollection))
	api.DELETE("/interview/results/:id", h.remove(resultsCollection))
	api.POST("/interview/candidates/:id/results", h.createForCandidate(resultsCollection))

	api.GET("/interview/events", h.list(eventsCollection))
	api.GET("/interview/events/:id", h.fetch(eventsCollection))
	api.PATCH("/interview/events/:id", h.update(eventsCollection))
	api.DELETE("/interview/events/:id", h.remove(eventsCollection))
	api.POST("/interview/events/:id/schedule", h.ScheduleEvent)
	api.POST("/interview/candidates/:id/events", h.createForCandidate(eventsCollection))

	api.POST("/placements", h.CreatePlacement)
	api.DELETE("/placements/:id", h.remove(placementsCollection))

	api.PATCH("/custom_fields/candidates/fields/:id", h.UpdateCandidateField)

	api.GET("/search/new/candidates", h.SearchCandidates)
	api.GET("/search/new/quick", h.QuickSearch)
}

// Authenticate checks the bearer token and the company segment of the path.
func (h *Handler) Authenticate(c *gin.Context) {
	if c.GetHeader("Authorization") != "Bearer "+h.config.APIToken {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error":      "Token not found.",
			"error_code": "invalid_token",
		})
		return
	}
	if c.Param("company") != h.config.CompanyID {
		abortWithErrors(c, http.StatusNotFound, nil, "Company not found")
		return
	}
	c.Next()
}

// abortWithErrors writes the API's error document: a list of messages and,
// for validation failures, the offending fields.
func abortWithErrors(c *gin.Context, status int, fields map[string][]string, messages ...string) {
	body := gin.H{"error": messages}
	if len(fields) > 0 {
		body["error_fields"] = fields
	}
	c.AbortWithStatusJSON(status, body)
}

func (h *Handler) list(col collection) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{col.plural: h.store.List(col.name)})
	}
}

func (h *Handler) fetch(col collection) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		rec, found := h.store.Get(col.name, id)
		if !found {
			abortWithErrors(c, http.StatusNotFound, nil, "Not found")
			return
		}
		c.JSON(http.StatusOK, gin.H{col.singular: rec})
	}
}

func (h *Handler) create(col collection) gin.HandlerFunc {
	return func(c *gin.Context) {
		fields, ok := h.envelope(c, col)
		if !ok {
			return
		}
		c.JSON(http.StatusCreated, gin.H{col.singular: h.store.Insert(col.name, fields)})
	}
}

func (h *Handler) createForCandidate(col collection) gin.HandlerFunc {
	return func(c *gin.Context) {
		candidateID, ok := pathID(c)
		if !ok {
			return
		}
		if _, found := h.store.Get(candidatesCollection.name, candidateID); !found {
			abortWithErrors(c, http.StatusNotFound, nil, "Candidate not found")
			return
		}
		fields, ok := h.envelope(c, col)
		if !ok {
			return
		}
		fields["candidate_id"] = candidateID
		c.JSON(http.StatusCreated, gin.H{col.singular: h.store.Insert(col.name, fields)})
	}
}

func (h *Handler) update(col collection) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		body, ok := h.readBody(c)
		if !ok {
			return
		}
		fields, _ := body[col.singular].(map[string]any)
		rec, found := h.store.Update(col.name, id, fields)
		if !found {
			abortWithErrors(c, http.StatusNotFound, nil, "Not found")
			return
		}
		c.JSON(http.StatusOK, gin.H{col.singular: rec})
	}
}

func (h *Handler) remove(col collection) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		rec, found := h.store.Delete(col.name, id)
		if !found {
			abortWithErrors(c, http.StatusNotFound, nil, "Not found")
			return
		}
		c.JSON(http.StatusOK, gin.H{col.singular: rec})
	}
}

// CreateCandidate handles POST /candidates, where the offer ids travel next
// to the candidate envelope.
func (h *Handler) CreateCandidate(c *gin.Context) {
	body, ok := h.readBody(c)
	if !ok {
		return
	}
	fields, ok := h.requireEnvelope(c, candidatesCollection, body)
	if !ok {
		return
	}
	offers, _ := body["offers"].([]any)
	if offers == nil {
		offers = []any{}
	}
	fields["offers"] = offers
	c.JSON(http.StatusCreated, gin.H{"candidate": h.store.Insert(candidatesCollection.name, fields)})
}

// ScheduleEvent handles POST /interview/events/:id/schedule.
func (h *Handler) ScheduleEvent(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	body, ok := h.readBody(c)
	if !ok {
		return
	}
	fields, _ := body[eventsCollection.singular].(map[string]any)
	if fields == nil {
		fields = make(map[string]any)
	}
	fields["status"] = "scheduled"
	rec, found := h.store.Update(eventsCollection.name, id, fields)
	if !found {
		abortWithErrors(c, http.StatusNotFound, nil, "Not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{eventsCollection.singular: rec})
}

// CreatePlacement handles POST /placements. Its fields are sent at the top
// level of the body.
func (h *Handler) CreatePlacement(c *gin.Context) {
	body, ok := h.readBody(c)
	if !ok {
		return
	}

	var req placementRequest
	var invalid []string
	for key, dest := range map[string]*int64{
		"candidate_id": &req.CandidateID,
		"offer_id":     &req.OfferID,
		"stage_id":     &req.StageID,
	} {
		v, present := body[key]
		if !present {
			continue
		}
		n, ok := toInt64(v)
		if !ok {
			invalid = append(invalid, key)
			continue
		}
		*dest = n
	}
	if len(invalid) > 0 {
		fields := make(map[string][]string, len(invalid))
		messages := make([]string, 0, len(invalid))
		for _, key := range invalid {
			fields[key] = []string{"is not a number"}
			messages = append(messages, fmt.Sprintf("%s is not a number", humanize(key)))
		}
		abortWithErrors(c, http.StatusUnprocessableEntity, fields, messages...)
		return
	}
	if !h.validateStruct(c, req) {
		return
	}

	if _, found := h.store.Get(candidatesCollection.name, req.CandidateID); !found {
		abortWithErrors(c, http.StatusNotFound, nil, "Candidate not found")
		return
	}
	if _, found := h.store.Get(offersCollection.name, req.OfferID); !found {
		abortWithErrors(c, http.StatusNotFound, nil, "Offer not found")
		return
	}

	fields := map[string]any{
		"candidate_id": req.CandidateID,
		"offer_id":     req.OfferID,
	}
	if req.StageID > 0 {
		fields["stage_id"] = req.StageID
	}
	c.JSON(http.StatusCreated, gin.H{placementsCollection.singular: h.store.Insert(placementsCollection.name, fields)})
}

// UpdateCandidateField handles PATCH /custom_fields/candidates/fields/:id.
func (h *Handler) UpdateCandidateField(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	body, ok := h.readBody(c)
	if !ok {
		return
	}
	fields, _ := body[fieldsCollection.singular].(map[string]any)
	c.JSON(http.StatusOK, gin.H{fieldsCollection.singular: h.store.Put(fieldsCollection.name, id, fields)})
}

// readBody decodes a JSON or multipart request body into a generic document.
func (h *Handler) readBody(c *gin.Context) (map[string]any, bool) {
	body := make(map[string]any)

	if c.ContentType() == gin.MIMEMultipartPOSTForm {
		form, err := c.MultipartForm()
		if err != nil {
			abortWithErrors(c, http.StatusBadRequest, nil, "Malformed multipart body")
			return nil, false
		}
		return unflattenForm(form), true
	}

	if c.Request.ContentLength == 0 {
		return body, true
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		h.logger.Debugf("Rejecting request body: %v", err)
		abortWithErrors(c, http.StatusBadRequest, nil, "Malformed JSON body")
		return nil, false
	}
	return body, true
}

// envelope reads the body and returns the fields nested under the
// collection's singular key.
func (h *Handler) envelope(c *gin.Context, col collection) (map[string]any, bool) {
	body, ok := h.readBody(c)
	if !ok {
		return nil, false
	}
	return h.requireEnvelope(c, col, body)
}

func (h *Handler) requireEnvelope(c *gin.Context, col collection, body map[string]any) (map[string]any, bool) {
	fields, ok := body[col.singular].(map[string]any)
	if !ok {
		fields = make(map[string]any)
	}

	errorFields := make(map[string][]string)
	var messages []string
	for _, key := range col.required {
		value := fields[key]
		if s, isString := value.(string); isString {
			value = strings.TrimSpace(s)
		}
		if h.validate.Var(value, "required") != nil {
			errorFields[key] = []string{"can't be blank"}
			messages = append(messages, humanize(key)+" can't be blank")
		}
	}
	if len(messages) > 0 {
		abortWithErrors(c, http.StatusUnprocessableEntity, errorFields, messages...)
		return nil, false
	}
	return fields, true
}

// validateStruct runs the validator over v and writes a 422 on failure.
func (h *Handler) validateStruct(c *gin.Context, v any) bool {
	err := h.validate.Struct(v)
	if err == nil {
		return true
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		abortWithErrors(c, http.StatusBadRequest, nil, err.Error())
		return false
	}

	fields := make(map[string][]string, len(validationErrors))
	messages := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		reason := "is invalid"
		if fe.Tag() == "required" {
			reason = "can't be blank"
		}
		fields[fe.Field()] = append(fields[fe.Field()], reason)
		messages = append(messages, humanize(fe.Field())+" "+reason)
	}
	abortWithErrors(c, http.StatusUnprocessableEntity, fields, messages...)
	return false
}

// pathID parses the :id path parameter, answering 404 when it is not a number.
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		abortWithErrors(c, http.StatusNotFound, nil, "Not found")
		return 0, false
	}
	return id, true
}

// humanize turns "candidate_id" into "Candidate id".
func humanize(key string) string {
	text := strings.ReplaceAll(key, "_", " ")
	if text == "" {
		return text
	}
	return strings.ToUpper(text[:1]) + text[1:]
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), n == float64(int64(n))
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		return i, err == nil
	case int64:
		return n, true
	case int:
		return int64(n), true
	default:
		return 0, false
	}
}
