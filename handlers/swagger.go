package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the admin API.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>blogdesk - Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

// OpenAPI document for the admin and public endpoints.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "blogdesk", "version": "v0.1.0" },
  "paths": {
    "/posts": {
      "get": { "summary": "List posts, or read one with ?filename=", "responses": { "200": { "description": "posts or post" }, "404": { "description": "not found" } } },
      "post": { "summary": "Create a post", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"filename":{"type":"string"},"frontmatter":{"type":"object"},"body":{"type":"string"}}}}}}, "responses": { "201": { "description": "created" }, "400": { "description": "invalid or exists" } } },
      "put": { "summary": "Update a post", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"filename":{"type":"string"},"frontmatter":{"type":"object"},"body":{"type":"string"},"sha":{"type":"string"}}}}}}, "responses": { "200": { "description": "updated" }, "409": { "description": "stale sha" } } },
      "delete": { "summary": "Move a post to the trash", "responses": { "200": { "description": "trashed" } } }
    },
    "/pages": {
      "get": { "summary": "List pages, or read one with ?filename=", "responses": { "200": { "description": "pages or page" } } },
      "post": { "summary": "Create a page", "responses": { "201": { "description": "created" } } },
      "put": { "summary": "Update a page", "responses": { "200": { "description": "updated" }, "409": { "description": "stale sha" } } },
      "delete": { "summary": "Move a page to the trash; protected pages are refused", "responses": { "200": { "description": "trashed" }, "400": { "description": "protected" } } }
    },
    "/trash": {
      "get": { "summary": "List trashed files", "responses": { "200": { "description": "items" } } },
      "post": { "summary": "Move a file to the trash", "responses": { "200": { "description": "moved" }, "400": { "description": "name already in the trash" } } },
      "put": { "summary": "Restore a trashed file, by default to the directory it was trashed from", "responses": { "200": { "description": "restored" }, "400": { "description": "destination exists or rejects the name" } } },
      "delete": { "summary": "Permanently delete a trashed file", "responses": { "200": { "description": "deleted" } } }
    },
    "/settings": {
      "get": { "summary": "Read _config.yml", "responses": { "200": { "description": "settings and sha" } } },
      "put": { "summary": "Update top-level settings", "responses": { "200": { "description": "updated" } } }
    },
    "/menus": {
      "get": { "summary": "Read menus (?refresh=true bypasses the cache)", "responses": { "200": { "description": "menus" } } },
      "put": { "summary": "Write menus", "responses": { "200": { "description": "updated" } } }
    },
    "/deployment-status": { "get": { "summary": "Build state of a commit (?sha=)", "responses": { "200": { "description": "state" } } } },
    "/deployment-history": { "get": { "summary": "Recent builds (?limit=)", "responses": { "200": { "description": "runs" } } } },
    "/media": { "get": { "summary": "List Cloudinary resources", "responses": { "200": { "description": "resources" }, "503": { "description": "not configured" } } } },
    "/cloudinary-folders": { "get": { "summary": "List Cloudinary folders (?folder=)", "responses": { "200": { "description": "folders" } } } },
    "/comments-submit": {
      "post": { "summary": "Submit a comment", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"postSlug":{"type":"string"},"name":{"type":"string"},"email":{"type":"string"},"message":{"type":"string"}}}}}}, "responses": { "201": { "description": "accepted for moderation" }, "400": { "description": "invalid" }, "429": { "description": "rate limited" } } }
    },
    "/comments": {
      "get": { "summary": "List comments (?postSlug=&status=)", "responses": { "200": { "description": "comments" } } },
      "put": { "summary": "Approve or reject a comment", "responses": { "200": { "description": "moderated" }, "404": { "description": "not found" } } },
      "delete": { "summary": "Delete a comment", "responses": { "200": { "description": "deleted" } } }
    },
    "/track": { "post": { "summary": "Record a page view", "responses": { "200": { "description": "recorded" }, "429": { "description": "rate limited" } } } },
    "/analytics": {
      "get": { "summary": "Analytics summary (?top=)", "responses": { "200": { "description": "summary and data" } } },
      "delete": { "summary": "Reset analytics", "responses": { "200": { "description": "purged" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } }
  }
}`
