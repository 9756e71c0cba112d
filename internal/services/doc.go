// Package services holds the error taxonomy shared by the external
// collaborator clients (ffmpeg, ffprobe, ab-av1, title lookup, Plex) and the
// pipeline that drives them, along with small helpers for wrapping stage
// errors with context.
package services
