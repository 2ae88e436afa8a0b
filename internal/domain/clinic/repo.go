package clinic

import (
	"context"
)

type Repository interface {
	GetInfo(ctx context.Context) (*Info, error)
	ListServices(ctx context.Context, category string) ([]*Service, error)
	GetServiceByName(ctx context.Context, name string) (*Service, error)
}
