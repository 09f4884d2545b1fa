// Package api holds the HTTP handlers of the image generation service. The
// handlers translate requests into queue submissions and history lookups and
// render outcomes as JSON. Routing lives in cmd/server.
package api
