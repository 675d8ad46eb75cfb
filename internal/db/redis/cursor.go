package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/termgen/internal/db"
)

// OpenCursor runs FT.AGGREGATE ... WITHCURSOR and returns the first chunk.
func (s *Store) OpenCursor(ctx context.Context, q *db.CursorQuery) (*db.CursorPage, error) {
	if q == nil {
		return nil, errors.New("query is required")
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	cmd := s.b().Arbitrary("FT.AGGREGATE").Args(q.Args()...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		if isUnknownIndex(err) {
			return nil, db.ErrIndexNotFound
		}
		return nil, &db.Error{Op: db.OpAggregate, Err: err}
	}

	page, err := parseCursorReply(raw)
	if err != nil {
		return nil, &db.Error{Op: db.OpAggregate, Err: err}
	}
	return page, nil
}

// ReadCursor runs FT.CURSOR READ.
func (s *Store) ReadCursor(ctx context.Context, index string, cursorID int64, count int) (*db.CursorPage, error) {
	if cursorID == 0 {
		return &db.CursorPage{}, nil
	}

	args := []string{index, strconv.FormatInt(cursorID, 10)}
	if count > 0 {
		args = append(args, "COUNT", strconv.Itoa(count))
	}

	cmd := s.b().Arbitrary("FT.CURSOR", "READ").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		if isRedisErr(err, "cursor not found") {
			return nil, db.ErrCursorNotFound
		}
		return nil, &db.Error{Op: db.OpCursorRead, Err: err}
	}

	page, err := parseCursorReply(raw)
	if err != nil {
		return nil, &db.Error{Op: db.OpCursorRead, Err: err}
	}
	return page, nil
}

// DeleteCursor runs FT.CURSOR DEL. An unknown cursor is not an error.
func (s *Store) DeleteCursor(ctx context.Context, index string, cursorID int64) error {
	if cursorID == 0 {
		return nil
	}

	cmd := s.b().Arbitrary("FT.CURSOR", "DEL").Args(index, strconv.FormatInt(cursorID, 10)).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "cursor does not exist", "cursor not found") {
			return nil
		}
		return &db.Error{Op: db.OpCursorDel, Err: err}
	}
	return nil
}

// parseCursorReply decodes [[total, row1, row2, ...], cursorID]; each row is a flat field/value array.
func parseCursorReply(raw []rueidis.RedisMessage) (*db.CursorPage, error) {
	if len(raw) != 2 {
		return nil, fmt.Errorf("unexpected cursor reply length %d", len(raw))
	}

	id, err := raw[1].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse cursor id: %w", err)
	}

	results, err := raw[0].ToArray()
	if err != nil {
		return nil, fmt.Errorf("parse results: %w", err)
	}

	page := &db.CursorPage{CursorID: id}
	if len(results) <= 1 {
		return page, nil
	}

	page.Rows = make([]map[string]string, 0, len(results)-1)
	for _, row := range results[1:] {
		fields, err := row.ToArray()
		if err != nil {
			continue
		}
		page.Rows = append(page.Rows, parseFieldPairs(fields))
	}
	return page, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}
