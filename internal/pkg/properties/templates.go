package properties

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/pkg/errors"
)

// Templates manages user defined note templates
type Templates struct {
	store Store
}

// NewTemplates creates template repository
func NewTemplates(store Store) (*Templates, error) {
	if store == nil {
		return nil, fmt.Errorf("no store")
	}
	return &Templates{store: store}, nil
}

// Save adds or replaces the template, returns all template names
func (t *Templates) Save(ctx context.Context, name, instructions string) ([]string, error) {
	if name == "" || instructions == "" {
		return nil, fmt.Errorf("template name and instructions are required: %w", ErrValidation)
	}
	all, err := t.All(ctx)
	if err != nil {
		return nil, err
	}
	all[name] = instructions
	if err := t.save(ctx, all); err != nil {
		return nil, err
	}
	goapp.Log.Info().Str("name", goapp.Sanitize(name)).Msg("template saved")
	return names(all), nil
}

// All returns name -> instructions map, empty if none stored
func (t *Templates) All(ctx context.Context) (map[string]string, error) {
	s, err := t.store.Get(ctx, TemplatesKey)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("can't load templates: %w", err)
	}
	res := map[string]string{}
	if err := json.Unmarshal([]byte(s), &res); err != nil {
		return nil, fmt.Errorf("can't decode templates: %w", err)
	}
	if res == nil {
		res = map[string]string{}
	}
	return res, nil
}

// Delete removes the template, returns remaining names
func (t *Templates) Delete(ctx context.Context, name string) ([]string, error) {
	all, err := t.All(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := all[name]; !ok {
		return nil, fmt.Errorf("template '%s': %w", name, ErrNotFound)
	}
	delete(all, name)
	if err := t.save(ctx, all); err != nil {
		return nil, err
	}
	goapp.Log.Info().Str("name", goapp.Sanitize(name)).Msg("template deleted")
	return names(all), nil
}

// Instructions returns stored instructions or "" if the template is unknown
func (t *Templates) Instructions(ctx context.Context, name string) (string, error) {
	all, err := t.All(ctx)
	if err != nil {
		return "", err
	}
	return all[name], nil
}

func (t *Templates) save(ctx context.Context, all map[string]string) error {
	b, err := json.Marshal(all)
	if err != nil {
		return fmt.Errorf("can't encode templates: %w", err)
	}
	if err := t.store.Set(ctx, TemplatesKey, string(b)); err != nil {
		return fmt.Errorf("can't save templates: %w", err)
	}
	return nil
}

func names(all map[string]string) []string {
	res := make([]string, 0, len(all))
	for k := range all {
		res = append(res, k)
	}
	sort.Strings(res)
	return res
}
