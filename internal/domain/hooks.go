// Package domain provides lifecycle plumbing shared by the document services.
package domain

import (
	"context"
)

// HookEvent represents lifecycle event type.
type HookEvent string

const (
	BeforeValidate HookEvent = "before_validate"
	BeforeSubmit   HookEvent = "before_submit"
	AfterSubmit    HookEvent = "after_submit"
	BeforeCancel   HookEvent = "before_cancel"
	AfterCancel    HookEvent = "after_cancel"
)

// Hook is a function that runs at specific lifecycle points.
type Hook[T any] func(ctx context.Context, doc T) error

// HookRegistry stores lifecycle hooks for a document type.
type HookRegistry[T any] struct {
	hooks map[HookEvent][]Hook[T]
}

// NewHookRegistry creates an empty hook registry.
func NewHookRegistry[T any]() *HookRegistry[T] {
	return &HookRegistry[T]{
		hooks: make(map[HookEvent][]Hook[T]),
	}
}

// On registers a hook for the specified event.
func (r *HookRegistry[T]) On(event HookEvent, hook Hook[T]) {
	r.hooks[event] = append(r.hooks[event], hook)
}

// Run executes all hooks for the specified event and stops at the first error.
func (r *HookRegistry[T]) Run(ctx context.Context, event HookEvent, doc T) error {
	for _, hook := range r.hooks[event] {
		if err := hook(ctx, doc); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of hooks registered for event.
func (r *HookRegistry[T]) Count(event HookEvent) int {
	return len(r.hooks[event])
}

// OnBeforeValidate registers a hook to run before validation.
func (r *HookRegistry[T]) OnBeforeValidate(hook Hook[T]) {
	r.On(BeforeValidate, hook)
}

// OnBeforeSubmit registers a hook to run before submit.
func (r *HookRegistry[T]) OnBeforeSubmit(hook Hook[T]) {
	r.On(BeforeSubmit, hook)
}

// OnAfterSubmit registers a hook to run after submit.
func (r *HookRegistry[T]) OnAfterSubmit(hook Hook[T]) {
	r.On(AfterSubmit, hook)
}

// OnBeforeCancel registers a hook to run before cancel.
func (r *HookRegistry[T]) OnBeforeCancel(hook Hook[T]) {
	r.On(BeforeCancel, hook)
}

// OnAfterCancel registers a hook to run after cancel.
func (r *HookRegistry[T]) OnAfterCancel(hook Hook[T]) {
	r.On(AfterCancel, hook)
}
