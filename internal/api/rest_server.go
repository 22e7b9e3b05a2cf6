package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/annel0/blockmap/internal/app"
	"github.com/annel0/blockmap/internal/logging"
	"github.com/annel0/blockmap/internal/middleware"
	"github.com/annel0/blockmap/internal/spatial"
	"github.com/annel0/blockmap/internal/storage"
	"github.com/annel0/blockmap/internal/vec"
	"github.com/annel0/blockmap/internal/world"
	"github.com/annel0/blockmap/internal/world/block"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// RestServer предоставляет HTTP API редактора карт
type RestServer struct {
	router     *gin.Engine
	httpServer *http.Server
	registry   *app.MapRegistry
	spatialCfg *spatial.Config
	metrics    *ServerMetrics
	port       string
}

// Config содержит конфигурацию REST сервера
type Config struct {
	Port     string
	Registry *app.MapRegistry
	Spatial  *spatial.Config
}

// NewRestServer создает новый REST сервер редактора
func NewRestServer(config *Config) (*RestServer, error) {
	if config.Registry == nil {
		return nil, fmt.Errorf("registry не может быть nil")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.NewRequestLogger().Handler())
	router.Use(otelgin.Middleware("blockmap-rest"))

	prom := middleware.NewPrometheusMiddleware("blockmap")
	router.Use(prom.Handler())
	prom.RegisterMetricsEndpoint(router)

	// CORS для веб-редактора
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	server := &RestServer{
		router:     router,
		registry:   config.Registry,
		spatialCfg: config.Spatial,
		metrics:    NewServerMetrics(),
		port:       config.Port,
	}

	server.setupRoutes()
	return server, nil
}

func (rs *RestServer) setupRoutes() {
	rs.router.GET("/health", rs.handleHealth)

	api := rs.router.Group("/api")
	{
		api.GET("/stats", rs.handleStats)

		api.POST("/maps", rs.handleCreateMap)
		api.GET("/maps", rs.handleListMaps)
		api.GET("/maps/:key", rs.handleGetMap)
		api.POST("/maps/:key/save", rs.handleSaveMap)
		api.DELETE("/maps/:key", rs.handleDeleteMap)

		api.POST("/maps/:key/archetypes", rs.handleNewArchetype)
		api.PUT("/maps/:key/archetypes/:id/effect", rs.handleSetArchetypeEffect)
		api.POST("/maps/:key/palette/collision", rs.handleResolveCollision)
		api.POST("/maps/:key/palette/effect", rs.handleResolveEffect)

		api.POST("/maps/:key/blocks", rs.handlePlaceBlock)
		api.DELETE("/maps/:key/blocks", rs.handleRemoveBlock)

		queries := api.Group("/maps/:key/queries")
		{
			queries.GET("/surface", rs.handleSurfaceHeight)
			queries.GET("/occupy", rs.handleCanOccupy)
			queries.GET("/stand", rs.handleCanStand)
			queries.GET("/traverse", rs.handleCanTraverse)
		}
	}
}

// Start запускает HTTP сервер в отдельной горутине
func (rs *RestServer) Start() error {
	rs.httpServer = &http.Server{
		Addr:         ":" + rs.port,
		Handler:      rs.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logging.Info("🌐 REST API редактора запущен на порту %s", rs.port)
		if err := rs.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error("Ошибка REST сервера: %v", err)
		}
	}()
	return nil
}

// Stop останавливает HTTP сервер
func (rs *RestServer) Stop(ctx context.Context) error {
	if rs.httpServer == nil {
		return nil
	}
	return rs.httpServer.Shutdown(ctx)
}

func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"uptime": rs.metrics.GetUptime(),
	})
}

func (rs *RestServer) handleStats(c *gin.Context) {
	cpuUsage, err := rs.metrics.GetCPUUsage()
	if err != nil {
		cpuUsage = 0
	}

	keys, err := rs.registry.ListMaps()
	if err != nil {
		keys = nil
	}

	c.JSON(http.StatusOK, gin.H{
		"uptime":     rs.metrics.GetUptime(),
		"memory_mb":  rs.metrics.GetMemoryUsage(),
		"cpu_pct":    cpuUsage,
		"memory":     rs.metrics.GetDetailedMemoryStats(),
		"maps":       keys,
		"maps_count": len(keys),
	})
}

type createMapRequest struct {
	Key      string `json:"key" binding:"required"`
	Width    int    `json:"width" binding:"required"`
	Height   int    `json:"height" binding:"required"`
	Depth    int    `json:"depth" binding:"required"`
	Generate bool   `json:"generate"`
	Seed     int64  `json:"seed"`
}

func (rs *RestServer) handleCreateMap(c *gin.Context) {
	var req createMapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	m, err := rs.registry.CreateMap(req.Key, req.Width, req.Height, req.Depth, req.Generate, req.Seed)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"success": false, "message": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"key":     m.Key,
		"width":   m.Width,
		"height":  m.Height,
		"depth":   m.Depth,
		"blocks":  len(m.Blocks),
	})
}

func (rs *RestServer) handleListMaps(c *gin.Context) {
	keys, err := rs.registry.ListMaps()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "maps": keys})
}

func (rs *RestServer) handleGetMap(c *gin.Context) {
	m, err := rs.registry.Snapshot(c.Param("key"))
	if err != nil {
		rs.mapError(c, err)
		return
	}

	data, err := storage.EncodeMap(m)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}

func (rs *RestServer) handleSaveMap(c *gin.Context) {
	if err := rs.registry.SaveMap(c.Param("key")); err != nil {
		rs.mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (rs *RestServer) handleDeleteMap(c *gin.Context) {
	if err := rs.registry.DeleteMap(c.Param("key")); err != nil {
		rs.mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type newArchetypeRequest struct {
	Name     string `json:"name" binding:"required"`
	Model    string `json:"model"`
	Category string `json:"category"`
}

func (rs *RestServer) handleNewArchetype(c *gin.Context) {
	var req newArchetypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	id, err := rs.registry.NewArchetype(c.Param("key"), req.Name, req.Model, req.Category)
	if err != nil {
		rs.mapError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "id": id})
}

type collisionVariantRequest struct {
	ArchetypeID block.BlockTypeID `json:"archetype_id" binding:"required"`
	Enabled     bool              `json:"enabled"`
}

func (rs *RestServer) handleResolveCollision(c *gin.Context) {
	var req collisionVariantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	id, err := rs.registry.ResolveCollisionVariant(c.Param("key"), req.ArchetypeID, req.Enabled)
	if err != nil {
		rs.mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "id": id})
}

type effectVariantRequest struct {
	BaseID block.BlockTypeID `json:"base_id" binding:"required"`
	Effect *block.Effect     `json:"effect"`
}

func (rs *RestServer) handleResolveEffect(c *gin.Context) {
	var req effectVariantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	id, err := rs.registry.ResolveEffectVariant(c.Param("key"), req.BaseID, req.Effect)
	if err != nil {
		rs.mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "id": id})
}

type archetypeEffectRequest struct {
	Effect *block.Effect `json:"effect"`
}

func (rs *RestServer) handleSetArchetypeEffect(c *gin.Context) {
	rawID, err := strconv.ParseUint(c.Param("id"), 10, 16)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "некорректный ID архетипа"})
		return
	}

	var req archetypeEffectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	if err := rs.registry.SetArchetypeEffect(c.Param("key"), block.BlockTypeID(rawID), req.Effect); err != nil {
		rs.mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type placeBlockRequest struct {
	Cell        vec.Vec3          `json:"cell"`
	BlockTypeID block.BlockTypeID `json:"block_type_id" binding:"required"`
	Rotation    *world.Rotation   `json:"rotation"`
}

func (rs *RestServer) handlePlaceBlock(c *gin.Context) {
	var req placeBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	if err := rs.registry.PlaceBlock(c.Param("key"), req.Cell, req.BlockTypeID, req.Rotation); err != nil {
		rs.mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type removeBlockRequest struct {
	Cell vec.Vec3 `json:"cell"`
}

func (rs *RestServer) handleRemoveBlock(c *gin.Context) {
	var req removeBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	if err := rs.registry.RemoveBlock(c.Param("key"), req.Cell); err != nil {
		rs.mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (rs *RestServer) handleSurfaceHeight(c *gin.Context) {
	pos, ok := rs.parsePos(c)
	if !ok {
		return
	}

	var height float64
	var found bool
	err := rs.registry.Query(c.Param("key"), func(m *world.BlockMapDefinition) error {
		height, found = spatial.SurfaceHeight(rs.spatialCfg, m, pos)
		return nil
	})
	if err != nil {
		rs.mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "height": height, "found": found})
}

func (rs *RestServer) handleCanOccupy(c *gin.Context) {
	pos, ok := rs.parsePos(c)
	if !ok {
		return
	}
	height, err := strconv.ParseFloat(c.DefaultQuery("height", "1"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "некорректный параметр height"})
		return
	}

	var result bool
	err = rs.registry.Query(c.Param("key"), func(m *world.BlockMapDefinition) error {
		result = spatial.CanOccupy(rs.spatialCfg, m, pos, height)
		return nil
	})
	if err != nil {
		rs.mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "can_occupy": result})
}

func (rs *RestServer) handleCanStand(c *gin.Context) {
	cell, ok := rs.parseCell(c, "x", "y", "z")
	if !ok {
		return
	}

	var result bool
	err := rs.registry.Query(c.Param("key"), func(m *world.BlockMapDefinition) error {
		result = spatial.CanStandInCell(rs.spatialCfg, m, cell)
		return nil
	})
	if err != nil {
		rs.mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "can_stand": result})
}

func (rs *RestServer) handleCanTraverse(c *gin.Context) {
	from, ok := rs.parsePosNamed(c, "from_x", "from_y", "from_z")
	if !ok {
		return
	}
	to, ok := rs.parsePosNamed(c, "to_x", "to_y", "to_z")
	if !ok {
		return
	}
	maxStep, err := strconv.ParseFloat(c.DefaultQuery("max_step", "0"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "некорректный параметр max_step"})
		return
	}

	var result bool
	err = rs.registry.Query(c.Param("key"), func(m *world.BlockMapDefinition) error {
		result = spatial.CanTraverse(rs.spatialCfg, m, from, to, maxStep)
		return nil
	})
	if err != nil {
		rs.mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "can_traverse": result})
}

// parsePos читает мировую позицию из query-параметров x, y, z
func (rs *RestServer) parsePos(c *gin.Context) (vec.Vec3Float, bool) {
	return rs.parsePosNamed(c, "x", "y", "z")
}

func (rs *RestServer) parsePosNamed(c *gin.Context, xKey, yKey, zKey string) (vec.Vec3Float, bool) {
	x, errX := strconv.ParseFloat(c.DefaultQuery(xKey, "0"), 64)
	y, errY := strconv.ParseFloat(c.DefaultQuery(yKey, "0"), 64)
	z, errZ := strconv.ParseFloat(c.DefaultQuery(zKey, "0"), 64)
	if errX != nil || errY != nil || errZ != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "некорректные координаты"})
		return vec.Vec3Float{}, false
	}
	return vec.Vec3Float{X: x, Y: y, Z: z}, true
}

func (rs *RestServer) parseCell(c *gin.Context, xKey, yKey, zKey string) (vec.Vec3, bool) {
	x, errX := strconv.Atoi(c.DefaultQuery(xKey, "0"))
	y, errY := strconv.Atoi(c.DefaultQuery(yKey, "0"))
	z, errZ := strconv.Atoi(c.DefaultQuery(zKey, "0"))
	if errX != nil || errY != nil || errZ != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "некорректные координаты ячейки"})
		return vec.Vec3{}, false
	}
	return vec.Vec3{X: x, Y: y, Z: z}, true
}

// mapError переводит доменные ошибки в HTTP статусы
func (rs *RestServer) mapError(c *gin.Context, err error) {
	if errors.Is(err, storage.ErrMapNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": err.Error()})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
}
