// package models defines the data model for the streaming radio client.
//
// These are plain value types shared by the service client, the session
// manager, the prefetch pipeline, and the playback engine. None of them are
// persisted; the only on-disk state the application owns is cached audio.
package models
