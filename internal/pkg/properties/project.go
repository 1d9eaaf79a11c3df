package properties

import (
	"context"

	"github.com/pkg/errors"
)

// Project reads the project id kept under ProjectKey
type Project struct {
	store Store
}

// NewProject creates project id reader
func NewProject(store Store) (*Project, error) {
	if store == nil {
		return nil, errors.New("no store")
	}
	return &Project{store: store}, nil
}

// Project returns the stored id, "" when nothing is stored
func (p *Project) Project(ctx context.Context) (string, error) {
	res, err := p.store.Get(ctx, ProjectKey)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return res, nil
}
