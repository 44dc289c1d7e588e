package download

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sys/unix"

	"jwbindex/internal/catalog"
	"jwbindex/internal/fileutil"
	"jwbindex/internal/history"
	"jwbindex/internal/logging"
	"jwbindex/internal/services"
)

const (
	lockFileName = ".jwb-index.lock"
	partSuffix   = ".part"
)

var (
	// ErrLocked reports that another run holds the download directory lock.
	ErrLocked = errors.New("download directory is locked by another run")
	// ErrInsufficientSpace reports that a download would breach the free space floor.
	ErrInsufficientSpace = errors.New("insufficient free space")
	// ErrVerification reports a size or checksum mismatch.
	ErrVerification = errors.New("download verification failed")
)

// Recorder remembers completed downloads. *history.Store satisfies it.
type Recorder interface {
	Lookup(ctx context.Context, filename string) (history.Entry, bool, error)
	Record(ctx context.Context, e history.Entry) error
}

// Options configures a Downloader.
type Options struct {
	Dir           string
	Subtitles     bool
	Checksums     bool
	KeepFreeBytes uint64
	UserAgent     string
	// Progress enables a progress bar written to ProgressWriter.
	Progress       bool
	ProgressWriter io.Writer
}

// Summary counts the outcome of one run.
type Summary struct {
	Downloaded int    `json:"downloaded"`
	Skipped    int    `json:"skipped"`
	Failed     int    `json:"failed"`
	Bytes      int64  `json:"bytes"`
	Subtitles  int    `json:"subtitles"`
	Dir        string `json:"dir"`
}

// statfsFunc allows tests to stub filesystem stats.
type statfsFunc func(path string) (free uint64, err error)

// Downloader fetches media files sequentially.
type Downloader struct {
	opts       Options
	httpClient *http.Client
	recorder   Recorder
	logger     *slog.Logger
	statfs     statfsFunc
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(d *Downloader) {
		if client != nil {
			d.httpClient = client
		}
	}
}

// New builds a Downloader. recorder may be nil to disable history.
func New(opts Options, recorder Recorder, logger *slog.Logger, options ...Option) (*Downloader, error) {
	opts.Dir = strings.TrimSpace(opts.Dir)
	if opts.Dir == "" {
		return nil, services.Wrap(services.ErrConfiguration, "download", "new", "download directory required", nil)
	}
	if opts.ProgressWriter == nil {
		opts.ProgressWriter = os.Stderr
	}
	d := &Downloader{
		opts: opts,
		// No overall timeout: media files can take a long time to transfer.
		httpClient: &http.Client{},
		recorder:   recorder,
		logger:     logging.NewComponentLogger(logger, "download"),
		statfs:     realStatfs,
	}
	for _, opt := range options {
		opt(d)
	}
	return d, nil
}

// Run downloads every media item reachable from roots. Per-file failures are
// logged and counted; a lost lock, a full disk, or cancellation stop the run.
func (d *Downloader) Run(ctx context.Context, roots []*catalog.Category) (Summary, error) {
	summary := Summary{Dir: d.opts.Dir}
	if err := os.MkdirAll(d.opts.Dir, 0o755); err != nil {
		return summary, fmt.Errorf("create download directory: %w", err)
	}

	lock := flock.New(filepath.Join(d.opts.Dir, lockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return summary, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return summary, ErrLocked
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			d.logger.Warn("failed to release download lock", logging.Error(err))
		}
	}()

	seen := make(map[string]struct{})
	walkErr := catalog.Walk(roots, func(cat *catalog.Category) error {
		for _, media := range cat.Media() {
			name := media.Filename()
			if name == "" {
				continue
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}

			if err := ctx.Err(); err != nil {
				return err
			}
			if err := d.fetchMedia(ctx, cat.Key, media, &summary); err != nil {
				if errors.Is(err, ErrInsufficientSpace) || ctx.Err() != nil {
					return err
				}
				summary.Failed++
				logging.WarnWithContext(d.logger, "download failed; continuing", "download_failed",
					logging.String("file", name),
					logging.String(logging.FieldCategory, cat.Key),
					logging.Error(err),
					logging.String(logging.FieldImpact, "file not downloaded this run"),
					logging.String(logging.FieldErrorHint, "rerun jwb-index download to retry"),
				)
			}
		}
		return nil
	})
	return summary, walkErr
}

func (d *Downloader) fetchMedia(ctx context.Context, category string, media *catalog.Media, summary *Summary) error {
	name := media.Filename()
	dest := filepath.Join(d.opts.Dir, name)

	if d.opts.Subtitles && media.SubtitleURL != "" {
		if err := d.fetchSubtitle(ctx, media, summary); err != nil {
			d.logger.Info("subtitle download failed",
				logging.String("file", media.SubtitleFilename()),
				logging.Error(err),
			)
		}
	}

	if info, err := os.Stat(dest); err == nil {
		if media.Size <= 0 || info.Size() == media.Size {
			summary.Skipped++
			return d.remember(ctx, history.Entry{Filename: name, URL: media.URL, MD5: media.MD5, Size: info.Size(), Category: category, DownloadedAt: info.ModTime()}, false)
		}
		d.logger.Info("existing file has wrong size; downloading again",
			logging.String("file", name),
			logging.Int64("size", info.Size()),
			logging.Int64("expected", media.Size),
		)
	} else if d.recorder != nil {
		if _, found, err := d.recorder.Lookup(ctx, name); err != nil {
			return err
		} else if found {
			summary.Skipped++
			d.logger.Debug("already downloaded earlier", logging.String("file", name))
			return nil
		}
	}

	if err := d.ensureSpace(media.Size); err != nil {
		return err
	}

	d.logger.Info("downloading: "+name,
		logging.String("size", sizeLabel(media.Size)),
		logging.String(logging.FieldCategory, category),
	)
	written, sum, err := d.fetchFile(ctx, media.URL, dest, media.Size, media.MD5, name)
	if err != nil {
		return err
	}
	if !media.Published.IsZero() {
		_ = os.Chtimes(dest, media.Published, media.Published)
	}
	summary.Downloaded++
	summary.Bytes += written
	return d.remember(ctx, history.Entry{Filename: name, URL: media.URL, MD5: sum, Size: written, Category: category, DownloadedAt: time.Now()}, true)
}

// remember records e in history. Files found on disk are only recorded when
// history has no entry yet.
func (d *Downloader) remember(ctx context.Context, e history.Entry, replace bool) error {
	if d.recorder == nil {
		return nil
	}
	if !replace {
		if _, found, err := d.recorder.Lookup(ctx, e.Filename); err != nil || found {
			return err
		}
	}
	return d.recorder.Record(ctx, e)
}

func (d *Downloader) fetchSubtitle(ctx context.Context, media *catalog.Media, summary *Summary) error {
	name := media.SubtitleFilename()
	if name == "" {
		return nil
	}
	dest := filepath.Join(d.opts.Dir, name)
	if _, err := os.Stat(dest); err == nil {
		return nil
	}
	if _, _, err := d.fetchFile(ctx, media.SubtitleURL, dest, 0, "", ""); err != nil {
		return err
	}
	summary.Subtitles++
	return nil
}

func (d *Downloader) ensureSpace(size int64) error {
	if d.opts.KeepFreeBytes == 0 || d.statfs == nil {
		return nil
	}
	free, err := d.statfs(d.opts.Dir)
	if err != nil {
		return fmt.Errorf("statfs: %w", err)
	}
	need := d.opts.KeepFreeBytes
	if size > 0 {
		need += uint64(size)
	}
	if free < need {
		return fmt.Errorf("%w: %s free, need %s", ErrInsufficientSpace, humanize.IBytes(free), humanize.IBytes(need))
	}
	return nil
}

// fetchFile streams rawURL into dest via a part file and returns the bytes
// written and their MD5. label, when set, names the progress bar.
func (d *Downloader) fetchFile(ctx context.Context, rawURL, dest string, expectSize int64, expectMD5, label string) (int64, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, "", fmt.Errorf("build request: %w", err)
	}
	if d.opts.UserAgent != "" {
		req.Header.Set("User-Agent", d.opts.UserAgent)
	}
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return 0, "", services.Wrap(services.ErrTransport, "download", "fetch", rawURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		marker := services.ErrTransport
		if resp.StatusCode == http.StatusNotFound {
			marker = services.ErrNotFound
		}
		return 0, "", services.Wrap(marker, "download", "fetch", fmt.Sprintf("%s returned %d", rawURL, resp.StatusCode), nil)
	}

	part := dest + partSuffix
	out, err := os.Create(part)
	if err != nil {
		return 0, "", err
	}
	renamed := false
	defer func() {
		if !renamed {
			_ = os.Remove(part)
		}
	}()

	hasher := md5.New()
	writers := []io.Writer{out, hasher}
	var bar *progressbar.ProgressBar
	if d.opts.Progress && label != "" {
		total := expectSize
		if total <= 0 {
			total = resp.ContentLength
		}
		bar = newBar(d.opts.ProgressWriter, total, label)
		writers = append(writers, bar)
	}

	written, copyErr := io.Copy(io.MultiWriter(writers...), resp.Body)
	if bar != nil {
		_ = bar.Finish()
	}
	if closeErr := out.Close(); copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		return 0, "", fmt.Errorf("write %s: %w", filepath.Base(part), copyErr)
	}

	sum := hex.EncodeToString(hasher.Sum(nil))
	if expectSize > 0 && written != expectSize {
		return 0, "", fmt.Errorf("%w: %s is %d bytes, expected %d", ErrVerification, filepath.Base(dest), written, expectSize)
	}
	if d.opts.Checksums && !fileutil.ChecksumMatches(expectMD5, sum) {
		return 0, "", fmt.Errorf("%w: %s md5 %s, expected %s", ErrVerification, filepath.Base(dest), sum, expectMD5)
	}

	if err := os.Rename(part, dest); err != nil {
		return 0, "", fmt.Errorf("rename %s: %w", filepath.Base(part), err)
	}
	renamed = true
	return written, sum, nil
}

func newBar(w io.Writer, total int64, label string) *progressbar.ProgressBar {
	if total <= 0 {
		total = -1
	}
	return progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(label),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

func sizeLabel(size int64) string {
	if size <= 0 {
		return "unknown"
	}
	return humanize.IBytes(uint64(size))
}

func realStatfs(path string) (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, err
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}
