package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"jwbindex/internal/catalog"
	"jwbindex/internal/services"
)

const catalogTimeout = 15 * time.Second

// CheckCatalog verifies that the catalog API answers for url. It uses a
// single attempt with a short timeout.
func CheckCatalog(ctx context.Context, fetcher catalog.Fetcher, url string) Result {
	const name = "Catalog API"

	checkCtx, cancel := context.WithTimeout(ctx, catalogTimeout)
	defer cancel()

	body, err := fetcher.Fetch(checkCtx, url)
	if err != nil {
		return Result{Name: name, Detail: summarizeFetchError(err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("reachable (%s)", humanize.Bytes(uint64(len(body))))}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFreeSpace verifies that the volume holding path has more than floor
// bytes available.
func CheckFreeSpace(name, path string, floor uint64) Result {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	free := stat.Bavail * uint64(stat.Bsize)
	detail := fmt.Sprintf("%s available, %s reserved", humanize.IBytes(free), humanize.IBytes(floor))
	if free <= floor {
		return Result{Name: name, Detail: detail + " (error: below floor)"}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

func summarizeFetchError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "request timed out (catalog API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "request timed out (catalog API unreachable)"
	}
	if errors.Is(err, services.ErrNotFound) {
		return "first seed category not found (check crawl.categories and language)"
	}
	return err.Error()
}
