package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"choir-library/internal/domain"
	"choir-library/internal/service"
	"choir-library/internal/storage"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	library   service.LibraryService
	grants    service.GrantService
	mutations service.MutationService
	users     service.UserService
	jwtSecret string
	tokenTTL  time.Duration
	logger    *logrus.Logger
}

func NewHandler(
	library service.LibraryService,
	grants service.GrantService,
	mutations service.MutationService,
	users service.UserService,
	jwtSecret string,
	tokenTTL time.Duration,
	logger *logrus.Logger,
) *Handler {
	return &Handler{
		library:   library,
		grants:    grants,
		mutations: mutations,
		users:     users,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		logger:    logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())
	router.Use(authMiddleware(h.jwtSecret))

	api := router.Group("/api")
	{
		api.POST("/auth/register", h.register)
		api.POST("/auth/login", h.login)

		api.GET("/public/services", h.listPublicServices)
		api.POST("/public/presign", h.publicPresign)

		api.GET("/library/list", h.listFolder)
		api.POST("/library/presign-get", h.presignGet)
		api.POST("/library/presign-put", h.presignPut)
		api.POST("/library/upload", h.upload)
		api.POST("/library/rename", h.rename)
		api.POST("/library/delete", h.remove)

		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// statusFor maps service and gateway errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrUnauthorized),
		errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrInvalidRegistrationCode):
		return http.StatusForbidden
	case errors.Is(err, service.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict),
		errors.Is(err, service.ErrUserAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Code     string `json:"code" binding:"required"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Username, req.Password, req.Code)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":       user.ID,
		"username": user.Username,
		"role":     user.Role,
	})
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}

	token, err := issueToken(h.jwtSecret, h.tokenTTL, user)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "role": user.Role})
}

// FileEntryResponse is the JSON shape of one listed file.
type FileEntryResponse struct {
	Key          string `json:"key"`
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	LastModified string `json:"lastModified,omitempty"`
	Category     string `json:"category"`
}

func fileToResponse(f domain.FileEntry) FileEntryResponse {
	resp := FileEntryResponse{
		Key:      f.Key,
		Name:     f.Name,
		Size:     f.Size,
		Category: string(f.Category),
	}
	if !f.LastModified.IsZero() {
		resp.LastModified = f.LastModified.UTC().Format(time.RFC3339)
	}
	return resp
}

func filesToResponse(files []domain.FileEntry) []FileEntryResponse {
	items := make([]FileEntryResponse, len(files))
	for i := range files {
		items[i] = fileToResponse(files[i])
	}
	return items
}

func (h *Handler) listFolder(c *gin.Context) {
	prefix := c.Query("prefix")

	listing, err := h.library.ListFolder(c.Request.Context(), prefix, currentRole(c))
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			// a broken folder must not break navigation of its siblings:
			// surface the error alongside an empty view
			h.logger.Errorf("list folder %q: %v", prefix, err)
			c.JSON(status, gin.H{
				"error":   "list failed",
				"prefix":  listing.Prefix,
				"folders": []string{},
				"items":   []FileEntryResponse{},
			})
			return
		}
		h.fail(c, err)
		return
	}

	folders := listing.Folders
	if folders == nil {
		folders = []string{}
	}
	c.JSON(http.StatusOK, gin.H{
		"prefix":  listing.Prefix,
		"folders": folders,
		"items":   filesToResponse(listing.Files),
	})
}

type presignGetRequest struct {
	Key        string `json:"key" binding:"required"`
	TTLSeconds int64  `json:"ttlSeconds"`
}

func (h *Handler) presignGet(c *gin.Context) {
	var req presignGetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	grant, err := h.grants.GrantRead(c.Request.Context(), req.Key, currentRole(c), time.Duration(req.TTLSeconds)*time.Second)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": grant.URL})
}

type presignPutRequest struct {
	Category    string   `json:"category" binding:"required"`
	FolderParts []string `json:"folderParts"`
	Filename    string   `json:"filename" binding:"required"`
	Mime        string   `json:"mime" binding:"required"`
}

func (h *Handler) presignPut(c *gin.Context) {
	var req presignPutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	grant, err := h.grants.GrantWrite(c.Request.Context(), req.Category, req.FolderParts, req.Filename, req.Mime, currentRole(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": grant.URL, "key": grant.Key})
}

func (h *Handler) upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	defer file.Close()

	category := c.PostForm("category")
	var folderParts []string
	if folder := strings.TrimSpace(c.PostForm("folder")); folder != "" {
		folderParts = strings.Split(folder, "/")
	}

	key, err := h.mutations.Upload(
		c.Request.Context(),
		category,
		folderParts,
		header.Filename,
		header.Header.Get("Content-Type"),
		file,
		currentRole(c),
	)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "key": key})
}

type renameRequest struct {
	FromKey string `json:"fromKey" binding:"required"`
	NewName string `json:"newName" binding:"required"`
}

func (h *Handler) rename(c *gin.Context) {
	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	toKey, err := h.mutations.Rename(c.Request.Context(), req.FromKey, req.NewName, currentRole(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "toKey": toKey})
}

type deleteRequest struct {
	Key string `json:"key" binding:"required"`
}

func (h *Handler) remove(c *gin.Context) {
	var req deleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.mutations.Remove(c.Request.Context(), req.Key, currentRole(c)); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) listPublicServices(c *gin.Context) {
	year := c.Query("year")
	if year == "" {
		year = strconv.Itoa(time.Now().Year())
	}

	dates, err := h.library.ListServiceDates(c.Request.Context(), year)
	if err != nil {
		h.fail(c, err)
		return
	}

	date := c.Query("date")
	if date == "" && len(dates) > 0 {
		date = dates[0]
	}

	items := []FileEntryResponse{}
	if date != "" {
		files, err := h.library.ListServiceAudio(c.Request.Context(), year, date)
		if err != nil {
			h.fail(c, err)
			return
		}
		items = filesToResponse(files)
	}

	if dates == nil {
		dates = []string{}
	}
	c.JSON(http.StatusOK, gin.H{
		"year":  year,
		"date":  date,
		"dates": dates,
		"items": items,
	})
}

type publicPresignRequest struct {
	Key string `json:"key" binding:"required"`
}

func (h *Handler) publicPresign(c *gin.Context) {
	var req publicPresignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	grant, err := h.grants.GrantPublicRead(c.Request.Context(), req.Key)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": grant.URL})
}
