package settings

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Archiver transitions products of disabled manufacturers to archived.
type Archiver interface {
	ArchiveByManufacturers(ctx context.Context, manufacturerIDs []string) (int64, error)
}

// Service owns the enabled-manufacturer configuration set. Removing a
// manufacturer from the set archives all of its staged products.
type Service struct {
	repo     Repository
	archiver Archiver
	logger   *slog.Logger
}

// NewService constructs the settings service.
func NewService(repo Repository, archiver Archiver, logger *slog.Logger) *Service {
	return &Service{repo: repo, archiver: archiver, logger: logger}
}

// Enabled returns the currently enabled supplier manufacturer ids.
func (s *Service) Enabled(ctx context.Context) ([]string, error) {
	return s.repo.EnabledManufacturers(ctx)
}

// SetEnabled replaces the enabled set and archives products belonging to
// manufacturers that were removed.
func (s *Service) SetEnabled(ctx context.Context, ids []string) error {
	next := dedupe(ids)

	current, err := s.repo.EnabledManufacturers(ctx)
	if err != nil {
		return fmt.Errorf("settings: read enabled manufacturers: %w", err)
	}

	if err := s.repo.SaveEnabledManufacturers(ctx, next); err != nil {
		return fmt.Errorf("settings: save enabled manufacturers: %w", err)
	}

	removed := difference(current, next)
	if len(removed) == 0 {
		return nil
	}
	archived, err := s.archiver.ArchiveByManufacturers(ctx, removed)
	if err != nil {
		return fmt.Errorf("settings: archive disabled manufacturers: %w", err)
	}
	s.logger.Info("archived products of disabled manufacturers",
		slog.Int("manufacturers", len(removed)), slog.Int64("products", archived))
	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func difference(a, b []string) []string {
	keep := make(map[string]struct{}, len(b))
	for _, id := range b {
		keep[id] = struct{}{}
	}
	var out []string
	for _, id := range a {
		if _, ok := keep[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
