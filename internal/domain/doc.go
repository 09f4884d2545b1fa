// Package domain contains the core entities of the image generation service:
// the history record of a queued job and the tagged outcome of a generation.
// It is independent of any specific infrastructure or delivery mechanism.
package domain
