package clinic

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrInfoMissing     = errors.New("clinic information has not been configured")
	ErrServiceNotFound = errors.New("clinic service not found")
)

// Directory answers read-only questions about the clinic itself.
type Directory struct {
	repo Repository
}

func NewDirectory(repo Repository) *Directory {
	return &Directory{repo: repo}
}

func (d *Directory) Info(ctx context.Context) (*Info, error) {
	return d.repo.GetInfo(ctx)
}

func (d *Directory) ListServices(ctx context.Context, category string) ([]*Service, error) {
	return d.repo.ListServices(ctx, strings.TrimSpace(category))
}

func (d *Directory) FindService(ctx context.Context, name string) (*Service, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrServiceNotFound
	}
	return d.repo.GetServiceByName(ctx, name)
}
