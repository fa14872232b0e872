package lintctx

import (
	"context"

	"github.com/dotcommander/classlint/internal/types"
)

// ElementSource supplies the elements of one page. Calls may fail or be
// slow; failures are absorbed per element.
type ElementSource interface {
	Elements(ctx context.Context) ([]types.ElementSnapshot, error)
	AppliedClasses(ctx context.Context, elementID string) ([]types.AppliedClass, error)
	Children(ctx context.Context, elementID string) ([]string, error)
}

// StyleSource supplies the style definitions of the design.
type StyleSource interface {
	Styles(ctx context.Context) ([]types.StyleDefinition, error)
	// Properties returns the declared properties of a style at breakpoint.
	Properties(ctx context.Context, styleID, breakpoint string) (map[string]any, error)
}
