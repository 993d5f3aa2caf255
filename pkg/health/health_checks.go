package health

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileCheck reports whether path is a readable regular file.
func FileCheck(path string) CheckFunc {
	return func(ctx context.Context) Check {
		check := Check{Details: map[string]any{"path": path}}

		info, err := os.Stat(path)
		if err != nil {
			check.Status = StatusUnhealthy
			check.Message = err.Error()
			return check
		}
		if info.IsDir() {
			check.Status = StatusUnhealthy
			check.Message = "is a directory"
			return check
		}
		f, err := os.Open(path)
		if err != nil {
			check.Status = StatusUnhealthy
			check.Message = err.Error()
			return check
		}
		f.Close()

		check.Details["size_bytes"] = info.Size()
		if info.Size() == 0 {
			check.Status = StatusDegraded
			check.Message = "Empty file"
			return check
		}
		check.Status = StatusHealthy
		check.Message = "Readable"
		return check
	}
}

// DirWritableCheck creates dir when missing and checks it with a temporary
// file.
func DirWritableCheck(dir string) CheckFunc {
	return func(ctx context.Context) Check {
		check := Check{Details: map[string]any{"path": dir}}

		if err := os.MkdirAll(dir, 0o755); err != nil {
			check.Status = StatusUnhealthy
			check.Message = err.Error()
			return check
		}
		f, err := os.CreateTemp(dir, ".preflight-*")
		if err != nil {
			check.Status = StatusUnhealthy
			check.Message = err.Error()
			return check
		}
		name := f.Name()
		f.Close()
		os.Remove(name)

		check.Status = StatusHealthy
		check.Message = fmt.Sprintf("Writable (%s)", filepath.Clean(dir))
		return check
	}
}

// PingCheck wraps a connectivity ping for an external service.
func PingCheck(target string, ping func(ctx context.Context) error) CheckFunc {
	return func(ctx context.Context) Check {
		check := Check{Details: map[string]any{"target": target}}

		if err := ping(ctx); err != nil {
			check.Status = StatusUnhealthy
			check.Message = err.Error()
		} else {
			check.Status = StatusHealthy
			check.Message = "Connected"
		}

		return check
	}
}

// DisabledCheck records a component that is switched off.
func DisabledCheck() CheckFunc {
	return func(ctx context.Context) Check {
		return Check{Status: StatusHealthy, Message: "Disabled"}
	}
}
