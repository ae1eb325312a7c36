package tool

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ogurasousui/planner-assistant/internal/core/calendar"
)

// Args はツール引数です。値は JSON 相当の型 (string, bool, float64, []any, map[string]any) を想定します。
type Args map[string]any

// IsMissing は nil、空白のみの文字列、空のリストを未指定とみなします。
func IsMissing(v any) bool {
	switch value := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(value) == ""
	case []any:
		return len(value) == 0
	case []map[string]any:
		return len(value) == 0
	default:
		return false
	}
}

// Merge は next の指定済みの値で上書きした新しい Args を返します。
func (a Args) Merge(next Args) Args {
	merged := make(Args, len(a)+len(next))
	for k, v := range a {
		merged[k] = v
	}
	for k, v := range next {
		if IsMissing(v) {
			continue
		}
		merged[k] = v
	}
	return merged
}

func (a Args) String(key string) (string, error) {
	value, err := a.OptionalString(key)
	if err != nil {
		return "", err
	}
	if value == nil {
		return "", fmt.Errorf("%s is required: %w", key, ErrInvalidArgument)
	}
	return *value, nil
}

func (a Args) OptionalString(key string) (*string, error) {
	v, ok := a[key]
	if !ok || IsMissing(v) {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("%s must be a string: %w", key, ErrInvalidArgument)
	}
	trimmed := strings.TrimSpace(s)
	return &trimmed, nil
}

func (a Args) Date(key string) (time.Time, error) {
	value, err := a.OptionalDate(key)
	if err != nil {
		return time.Time{}, err
	}
	if value == nil {
		return time.Time{}, fmt.Errorf("%s is required: %w", key, ErrInvalidArgument)
	}
	return *value, nil
}

func (a Args) OptionalDate(key string) (*time.Time, error) {
	raw, err := a.OptionalString(key)
	if err != nil || raw == nil {
		return nil, err
	}
	d, err := calendar.Parse(*raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return &d, nil
}

// OptionalBool は真偽値か "true" / "false" の文字列を受け付けます。
func (a Args) OptionalBool(key string) (*bool, error) {
	v, ok := a[key]
	if !ok || IsMissing(v) {
		return nil, nil
	}
	switch value := v.(type) {
	case bool:
		return &value, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("%s must be a boolean: %w", key, ErrInvalidArgument)
		}
		return &b, nil
	default:
		return nil, fmt.Errorf("%s must be a boolean: %w", key, ErrInvalidArgument)
	}
}

// Int は整数値か、整数を表す数値・文字列を受け付けます。
func (a Args) Int(key string) (int, error) {
	v, ok := a[key]
	if !ok || IsMissing(v) {
		return 0, fmt.Errorf("%s is required: %w", key, ErrInvalidArgument)
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("%s must be a whole number: %w", key, ErrInvalidArgument)
		}
		return int(n), nil
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, fmt.Errorf("%s must be a number: %w", key, ErrInvalidArgument)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("%s must be a number: %w", key, ErrInvalidArgument)
	}
}

// Objects はオブジェクトのリストを取り出します。
func (a Args) Objects(key string) ([]Args, error) {
	v, ok := a[key]
	if !ok || IsMissing(v) {
		return nil, fmt.Errorf("%s is required: %w", key, ErrInvalidArgument)
	}

	var raw []any
	switch list := v.(type) {
	case []any:
		raw = list
	case []map[string]any:
		for _, item := range list {
			raw = append(raw, item)
		}
	default:
		return nil, fmt.Errorf("%s must be a list: %w", key, ErrInvalidArgument)
	}

	items := make([]Args, 0, len(raw))
	for i, item := range raw {
		switch obj := item.(type) {
		case map[string]any:
			items = append(items, Args(obj))
		case Args:
			items = append(items, obj)
		default:
			return nil, fmt.Errorf("%s[%d] must be an object: %w", key, i, ErrInvalidArgument)
		}
	}
	return items, nil
}

type companyKey struct{}

// WithCompanyID は呼び出し元の会社 ID をコンテキストに設定します。
func WithCompanyID(ctx context.Context, companyID string) context.Context {
	return context.WithValue(ctx, companyKey{}, strings.TrimSpace(companyID))
}

// CompanyIDFromContext はコンテキストの会社 ID を返します。未設定の場合は空文字です。
func CompanyIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(companyKey{}).(string)
	return id
}
