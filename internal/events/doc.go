// Package events carries template lifecycle notifications from the services
// that own templates to the components that react to them.
//
// Emitters publish a TemplateEvent without knowing who handles it. The
// recurring task engine registers a handler that turns created, activated and
// start-date-changed events into on-demand generation jobs.
package events
