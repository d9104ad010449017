package domain

import (
	"context"
	"encoding/json"
	"log/slog"
)

func (app *Application) ListProductsFirstPage(ctx context.Context, f ProductFilter, limit int) (*ProductPage, error) {
	if limit <= 0 || limit > maxPageSize {
		return nil, ErrInvalidData
	}
	products, err := app.store.ListProductsFirstPage(ctx, f, limit)
	if err != nil {
		return nil, unhandled(ctx, "list products first page", err)
	}
	page := &ProductPage{Products: products}
	if len(products) == limit {
		page.Next = app.makeCursor(products[len(products)-1], DESC, f)
	}
	return page, nil
}

// ListProductsByCursor continues a listing. The filter travels inside the cursor.
func (app *Application) ListProductsByCursor(ctx context.Context, rawCursor string, limit int) (*ProductPage, error) {
	if limit <= 0 || limit > maxPageSize {
		return nil, ErrInvalidData
	}
	tok, err := app.decodeCursorToken(rawCursor)
	if err != nil {
		slog.DebugContext(ctx, "invalid cursor", slog.Any("error", err))
		return nil, ErrInvalidData
	}

	products, err := app.store.ListProductsByCursor(ctx, tok.Filter, tok.Pivot.CreatedAt, tok.Pivot.ID, tok.Direction, limit)
	if err != nil {
		return nil, unhandled(ctx, "list products by cursor", err)
	}

	page := &ProductPage{Products: products}
	if len(products) == 0 {
		return page, nil
	}
	first, last := products[0], products[len(products)-1]
	full := len(products) == limit
	switch tok.Direction {
	case DESC:
		page.Prev = app.makeCursor(first, ASC, tok.Filter)
		if full {
			page.Next = app.makeCursor(last, DESC, tok.Filter)
		}
	case ASC:
		page.Next = app.makeCursor(last, DESC, tok.Filter)
		if full {
			page.Prev = app.makeCursor(first, ASC, tok.Filter)
		}
	}
	return page, nil
}

func (app *Application) makeCursor(p Product, dir CursorDirection, f ProductFilter) string {
	tok := &CursorPaginationToken{
		TTL:       app.clock.Now().Add(app.cursorTTL),
		Direction: dir,
		Filter:    f,
	}
	tok.Pivot.CreatedAt = p.CreatedAt
	tok.Pivot.ID = p.ID
	s, err := app.encodeCursorToken(tok)
	if err != nil {
		return ""
	}
	return s
}

func (app *Application) encodeCursorToken(tok *CursorPaginationToken) (string, error) {
	if tok == nil || app.signer == nil {
		return "", ErrInvalidData
	}
	b, err := json.Marshal(tok)
	if err != nil {
		return "", err
	}
	return app.signer.Sign(b)
}

func (app *Application) decodeCursorToken(s string) (*CursorPaginationToken, error) {
	if s == "" || app.signer == nil {
		return nil, ErrInvalidData
	}
	raw, err := app.signer.Verify(s)
	if err != nil {
		return nil, ErrInvalidData
	}
	var tok CursorPaginationToken
	if err := json.Unmarshal(raw, &tok); err != nil {
		return nil, ErrInvalidData
	}
	if tok.TTL.IsZero() || app.clock.Now().After(tok.TTL) {
		return nil, ErrInvalidData
	}
	if tok.Direction != ASC && tok.Direction != DESC {
		return nil, ErrInvalidData
	}
	return &tok, nil
}
