package cli

import (
	"context"
	"errors"

	"tasklist/internal/client"
	"tasklist/pkg/task"
)

var errNotFound = errors.New("task not found")

// Tasks is the task list the commands operate on: either a repository
// opened directly on storage, or a running server reached over HTTP.
type Tasks interface {
	Add(ctx context.Context, d task.Draft) (task.Task, error)
	Toggle(ctx context.Context, id string) (task.Task, error)
	Update(ctx context.Context, id string, p task.Patch) (task.Task, error)
	Delete(ctx context.Context, id string) error
	ClearCompleted(ctx context.Context) (int, error)
	View(ctx context.Context, f task.Filter) (task.View, error)
	Stats(ctx context.Context) (task.Stats, error)
}

// Local runs commands against a repository this process owns.
type Local struct {
	Repo *task.Repository
}

func (l Local) Add(ctx context.Context, d task.Draft) (task.Task, error) {
	return l.Repo.Add(ctx, d), nil
}

func (l Local) Toggle(ctx context.Context, id string) (task.Task, error) {
	return found(l.Repo.Toggle(ctx, id))
}

func (l Local) Update(ctx context.Context, id string, p task.Patch) (task.Task, error) {
	return found(l.Repo.Update(ctx, id, p))
}

func (l Local) Delete(ctx context.Context, id string) error {
	if !l.Repo.Delete(ctx, id) {
		return errNotFound
	}
	return nil
}

func (l Local) ClearCompleted(ctx context.Context) (int, error) {
	return l.Repo.ClearCompleted(ctx), nil
}

func (l Local) View(_ context.Context, f task.Filter) (task.View, error) {
	return l.Repo.View(f), nil
}

func (l Local) Stats(context.Context) (task.Stats, error) {
	return l.Repo.Stats(), nil
}

func found(t task.Task, ok bool) (task.Task, error) {
	if !ok {
		return task.Task{}, errNotFound
	}
	return t, nil
}

// Remote runs commands against a tasklist server, which stays the only
// writer of its storage.
type Remote struct {
	API *client.Client
}

func (r Remote) Add(ctx context.Context, d task.Draft) (task.Task, error) {
	it, err := r.API.Create(ctx, d)
	return it.Task, remoteErr(err)
}

func (r Remote) Toggle(ctx context.Context, id string) (task.Task, error) {
	it, err := r.API.Toggle(ctx, id)
	return it.Task, remoteErr(err)
}

func (r Remote) Update(ctx context.Context, id string, p task.Patch) (task.Task, error) {
	it, err := r.API.Update(ctx, id, p)
	return it.Task, remoteErr(err)
}

func (r Remote) Delete(ctx context.Context, id string) error {
	return remoteErr(r.API.Delete(ctx, id))
}

func (r Remote) ClearCompleted(ctx context.Context) (int, error) {
	return r.API.ClearCompleted(ctx)
}

func (r Remote) View(ctx context.Context, f task.Filter) (task.View, error) {
	l, err := r.API.List(ctx, f)
	if err != nil {
		return task.View{}, err
	}
	v := task.View{Tasks: make([]task.Task, 0, len(l.Tasks)), Stats: l.Stats, Version: l.Version}
	for _, it := range l.Tasks {
		v.Tasks = append(v.Tasks, it.Task)
	}
	return v, nil
}

func (r Remote) Stats(ctx context.Context) (task.Stats, error) {
	return r.API.Stats(ctx)
}

func remoteErr(err error) error {
	if errors.Is(err, client.ErrNotFound) {
		return errNotFound
	}
	return err
}
