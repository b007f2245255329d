package health

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// DirChecker reports whether a spec directory is readable and populated.
type DirChecker struct {
	name   string
	dir    string
	suffix string
}

// NewDirChecker checks dir for files ending in suffix.
// No matching files is degraded; an unreadable dir is unhealthy.
func NewDirChecker(name, dir, suffix string) *DirChecker {
	return &DirChecker{name: name, dir: dir, suffix: suffix}
}

// Name returns the name of this checker.
func (c *DirChecker) Name() string {
	return c.name
}

// Check lists the directory.
func (c *DirChecker) Check(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Unhealthy("context cancelled", err)
	}

	details := map[string]any{"dir": c.dir, "suffix": c.suffix}

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return Unhealthy("spec directory unreadable", errors.Join(ErrCheckFailed, err)).WithDetails(details)
	}

	count := 0
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), c.suffix) {
			count++
		}
	}
	details["files"] = count

	if count == 0 {
		return Degraded("no spec files found").WithDetails(details)
	}
	return Healthy(fmt.Sprintf("%d spec files", count)).WithDetails(details)
}

// SecretLengthChecker reports whether a signing key is long enough.
// The key itself never appears in the result.
type SecretLengthChecker struct {
	name      string
	length    int
	minLength int
}

// NewSecretLengthChecker checks that secret has at least minLength bytes.
// An empty secret is unhealthy; a short one is degraded.
func NewSecretLengthChecker(name string, secret []byte, minLength int) *SecretLengthChecker {
	return &SecretLengthChecker{name: name, length: len(secret), minLength: minLength}
}

// Name returns the name of this checker.
func (c *SecretLengthChecker) Name() string {
	return c.name
}

// Check compares the key length.
func (c *SecretLengthChecker) Check(context.Context) Result {
	details := map[string]any{"length": c.length, "min_length": c.minLength}

	switch {
	case c.length == 0:
		return Unhealthy("signing key is empty", ErrCheckFailed).WithDetails(details)
	case c.length < c.minLength:
		return Degraded("signing key is shorter than recommended").WithDetails(details)
	default:
		return Healthy("signing key length ok").WithDetails(details)
	}
}
