// Package config provides the typed configuration of the modelview tools.
//
// Configuration is assembled from three sources, later ones overriding
// earlier ones:
//
//  1. Built-in defaults (Default)
//  2. A TOML or YAML file, chosen by extension
//  3. MODELVIEW_* environment variables
//
// Sections:
//
//	[log]      level, format, add_source
//	[viewer]   auto_expand, width
//	[loop]     capacity
//	[jobs]     workers, queue_size, timeout
//	[state]    path, in_memory
//	[metrics]  enabled, addr
//
// Environment variables name a section and a setting:
// MODELVIEW_JOBS_QUEUE_SIZE sets jobs.queue_size.
//
// A Watcher reloads the file whenever it changes on disk.
package config
