package fetch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"dem-manager/core/source"
	"dem-manager/core/storage"
	"dem-manager/core/tile"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ErrRejected is returned when a download cannot be queued.
var ErrRejected = errors.New("fetch: download rejected")

// Listener receives download progress.
type Listener interface {
	OnStarted(id string)
	OnSucceeded(id, path string, typ tile.Type)
	OnFailed(id string, err error)
}

// Config holds the pool sizing.
type Config struct {
	// Workers is the number of concurrent downloads.
	Workers int `mapstructure:"workers" default:"2"`
	// QueueSize is the number of downloads that may wait for a worker.
	QueueSize int `mapstructure:"queue_size" default:"64"`
}

type job struct {
	id       string
	src      source.Source
	listener Listener
}

// Pool is a bounded pool of download workers.
type Pool struct {
	logger     *zap.Logger
	transports map[string]Transport
	jobs       chan job
	group      singleflight.Group

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// Option customizes a Pool.
type Option func(*Pool)

// WithStorage enables s3:// sources through client.
func WithStorage(client storage.Client) Option {
	return func(p *Pool) {
		if client != nil {
			p.transports["s3"] = S3Transport{Client: client}
		}
	}
}

// WithTransport registers t for a URL scheme, replacing the default one.
func WithTransport(scheme string, t Transport) Option {
	return func(p *Pool) {
		p.transports[scheme] = t
	}
}

// NewPool starts cfg.Workers download workers.
func NewPool(cfg Config, logger *zap.Logger, opts ...Option) *Pool {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize < 0 {
		cfg.QueueSize = 0
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		logger: logger,
		transports: map[string]Transport{
			"http":  HTTPTransport{},
			"https": HTTPTransport{},
		},
		jobs:   make(chan job, cfg.QueueSize),
		ctx:    ctx,
		cancel: cancel,
	}
	for _, opt := range opts {
		opt(p)
	}
	for i := 0; i < cfg.Workers; i++ {
		p.wg.Add(1)
		go p.run()
	}
	return p
}

// Fetch queues the download of tile id from src. It never blocks.
func (p *Pool) Fetch(id string, src source.Source, l Listener) error {
	if !src.CanDownload() {
		return fmt.Errorf("source %s does not allow downloads: %w", src.Name, ErrRejected)
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrRejected
	}
	select {
	case p.jobs <- job{id: id, src: src, listener: l}:
		return nil
	default:
		return ErrRejected
	}
}

// Close stops accepting downloads, aborts running transfers and waits for the workers.
// Queued downloads are reported as failed.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()
	return nil
}

func (p *Pool) run() {
	defer p.wg.Done()
	for j := range p.jobs {
		if p.ctx.Err() != nil {
			j.listener.OnFailed(j.id, context.Canceled)
			continue
		}
		p.handle(j)
	}
}

func (p *Pool) handle(j job) {
	j.listener.OnStarted(j.id)

	key := j.src.Name + "/" + j.id
	v, err, shared := p.group.Do(key, func() (interface{}, error) {
		return p.download(j.id, j.src)
	})
	if err != nil {
		p.logger.Warn("Tile download failed",
			zap.String("tile", j.id),
			zap.String("source", j.src.Name),
			zap.Error(err))
		j.listener.OnFailed(j.id, err)
		return
	}
	p.logger.Debug("Tile downloaded",
		zap.String("tile", j.id),
		zap.String("source", j.src.Name),
		zap.Bool("shared", shared))
	j.listener.OnSucceeded(j.id, v.(string), j.src.Type)
}

func (p *Pool) download(id string, src source.Source) (string, error) {
	t, err := p.transportFor(src.DownloadURL)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(src.Directory, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", src.Directory, err)
	}

	tmp, err := os.CreateTemp(src.Directory, "."+id+"-*.part")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := t.Download(p.ctx, src.DownloadURL, id, tmp); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", tmpName, err)
	}

	dest := filepath.Join(src.Directory, ArchiveName(id))
	if err := os.Rename(tmpName, dest); err != nil {
		return "", fmt.Errorf("failed to move archive into place: %w", err)
	}
	return dest, nil
}
