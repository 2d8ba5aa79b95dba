package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field names shared by every package.
const (
	KeyBuildID    = "build_id"
	KeyEntity     = "entity"
	KeyKind       = "kind"
	KeyURL        = "url"
	KeyPath       = "path"
	KeyWorker     = "worker"
	KeyWorkers    = "workers"
	KeyReason     = "reason"
	KeyStrategy   = "strategy"
	KeyStatus     = "status"
	KeyDurationMS = "duration_ms"
	KeyCount      = "count"
	KeyError      = "error"
)

func BuildID(id string) slog.Attr        { return slog.String(KeyBuildID, id) }
func Entity(id string) slog.Attr         { return slog.String(KeyEntity, id) }
func Kind(k string) slog.Attr            { return slog.String(KeyKind, k) }
func URL(u string) slog.Attr             { return slog.String(KeyURL, u) }
func Path(p string) slog.Attr            { return slog.String(KeyPath, p) }
func Worker(n int) slog.Attr             { return slog.Int(KeyWorker, n) }
func Workers(n int) slog.Attr            { return slog.Int(KeyWorkers, n) }
func Reason(r string) slog.Attr          { return slog.String(KeyReason, r) }
func Strategy(name string) slog.Attr     { return slog.String(KeyStrategy, name) }
func Status(s string) slog.Attr          { return slog.String(KeyStatus, s) }
func Count(n int) slog.Attr              { return slog.Int(KeyCount, n) }
func Duration(d time.Duration) slog.Attr { return slog.Int64(KeyDurationMS, d.Milliseconds()) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
