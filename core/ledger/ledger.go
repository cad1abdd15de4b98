package ledger

import (
	"context"
	"fmt"
	"time"

	"dem-manager/core/database"
	"dem-manager/core/tile"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxErrorLength = 512

// TileDownload is one row of the download ledger.
type TileDownload struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	TileID    string    `gorm:"column:tile_id;size:16;uniqueIndex:idx_tile_source" json:"tile_id"`
	Source    string    `gorm:"column:source;size:32;uniqueIndex:idx_tile_source" json:"source"`
	Status    string    `gorm:"column:status;size:32;index" json:"status"`
	Attempts  int       `gorm:"column:attempts" json:"attempts"`
	LastError string    `gorm:"column:last_error;size:512" json:"last_error,omitempty"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName implements gorm's tabler.
func (TileDownload) TableName() string {
	return "tile_downloads"
}

// Ledger records download progress.
type Ledger struct {
	db     *gorm.DB
	logger *zap.Logger
}

// New creates a ledger. A nil db yields a ledger that records nothing.
func New(db *gorm.DB, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{db: db, logger: logger}
}

// Enabled reports whether the ledger is backed by a database.
func (l *Ledger) Enabled() bool {
	return l != nil && l.db != nil
}

// Migrate creates or updates the ledger table.
func (l *Ledger) Migrate(ctx context.Context) error {
	if !l.Enabled() {
		return nil
	}
	db := l.db.WithContext(ctx)
	if err := db.AutoMigrate(&TileDownload{}); err != nil {
		return fmt.Errorf("failed to migrate ledger: %w", err)
	}
	missing, err := database.HasColumns(db, TileDownload{}.TableName(),
		"tile_id", "source", "status", "attempts", "last_error", "updated_at")
	if err != nil {
		return fmt.Errorf("failed to inspect ledger table: %w", err)
	}
	if len(missing) > 0 {
		return fmt.Errorf("ledger table is missing columns %v", missing)
	}
	return nil
}

// Record stores the status of a tile download. Entering DOWNLOADING counts as an attempt.
func (l *Ledger) Record(ctx context.Context, tileID, source string, status tile.Status, cause error) error {
	if !l.Enabled() {
		return nil
	}
	row := TileDownload{
		TileID:    tileID,
		Source:    source,
		Status:    status.String(),
		UpdatedAt: time.Now().UTC(),
	}
	if cause != nil {
		row.LastError = truncate(cause.Error(), maxErrorLength)
	}
	inc := 0
	if status == tile.StatusDownloading {
		inc = 1
	}
	row.Attempts = inc

	updates := map[string]interface{}{
		"status":     row.Status,
		"updated_at": row.UpdatedAt,
		"attempts":   gorm.Expr("attempts + ?", inc),
	}
	if cause != nil {
		updates["last_error"] = row.LastError
	}

	err := l.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tile_id"}, {Name: "source"}},
		DoUpdates: clause.Assignments(updates),
	}).Create(&row).Error
	if err != nil {
		l.logger.Warn("Failed to record tile download",
			zap.String("tile", tileID),
			zap.String("source", source),
			zap.Error(err))
		return fmt.Errorf("failed to record download of %s: %w", tileID, err)
	}
	return nil
}

// List returns the recorded downloads ordered by tile id. An empty status lists all rows.
func (l *Ledger) List(ctx context.Context, status string) ([]TileDownload, error) {
	if !l.Enabled() {
		return []TileDownload{}, nil
	}
	var rows []TileDownload
	q := l.db.WithContext(ctx).Order("tile_id").Order("source")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list downloads: %w", err)
	}
	return rows, nil
}

// Forget removes the rows of a tile.
func (l *Ledger) Forget(ctx context.Context, tileID string) error {
	if !l.Enabled() {
		return nil
	}
	if err := l.db.WithContext(ctx).Where("tile_id = ?", tileID).Delete(&TileDownload{}).Error; err != nil {
		return fmt.Errorf("failed to forget %s: %w", tileID, err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
