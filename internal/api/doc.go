// Package api exposes the engine's internal HTTP surface: a health probe and
// on-demand generation for a single template. It translates HTTP concerns to
// driver calls and template events, and maps their errors to JSON responses.
package api
