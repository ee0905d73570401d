package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"MiniCatalog/internal/config"
)

// WriteReport stores a rendered product report as UTF-8 text, one file per
// product id and client tag. An existing report is replaced.
func (s *FileStore) WriteReport(ctx context.Context, id int, client, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if client == "" || strings.ContainsAny(client, `/\`) || client == "." || client == ".." {
		return fmt.Errorf("invalid report client tag %q", client)
	}

	if err := os.MkdirAll(s.cfg.ReportsDir, 0o755); err != nil {
		return fmt.Errorf("create reports dir: %w", err)
	}
	file := s.ReportPath(id, client)
	if err := writeFileAtomic(file, []byte(text)); err != nil {
		return err
	}
	s.log.Debug("product report written", zap.Int("id", id), zap.String("file", file))
	return nil
}

// ReportPath returns where WriteReport puts the report for id and client.
func (s *FileStore) ReportPath(id int, client string) string {
	return filepath.Join(s.cfg.ReportsDir, config.Expand(s.cfg.ReportFile, id, client))
}
