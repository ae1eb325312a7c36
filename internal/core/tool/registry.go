// Package tool はアシスタントが呼び出せる操作のカタログです。
// カタログは起動時に一度だけ組み立て、以後は変更しません。
package tool

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ParamType は引数の意味上の型です。
type ParamType string

const (
	TypeString ParamType = "string"
	TypeDate   ParamType = "date"
	TypeBool   ParamType = "bool"
	TypeInt    ParamType = "int"
	TypeList   ParamType = "list"
)

// Param はツール引数の宣言です。Label は利用者に問い返すときの表示名です。
type Param struct {
	Name     string
	Type     ParamType
	Required bool
	Label    string
}

// Result はツール実行結果です。
type Result struct {
	Summary string
	Records []map[string]any
	Data    map[string]any
}

// Handler はツール本体です。
type Handler func(ctx context.Context, args Args) (*Result, error)

// Tool はカタログに登録される操作です。
// Validate は書き込みを伴わない事前検証で、必須引数がそろってから呼ばれます。
type Tool struct {
	Name        string
	Description string
	Params      []Param
	Mutates     bool
	Validate    func(ctx context.Context, args Args) error
	Handler     Handler
}

// Required は必須引数の名前を宣言順に返します。
func (t *Tool) Required() []string {
	var names []string
	for _, p := range t.Params {
		if p.Required {
			names = append(names, p.Name)
		}
	}
	return names
}

// Param は名前に一致する引数宣言を返します。
func (t *Tool) Param(name string) (Param, bool) {
	for _, p := range t.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// Missing は args に不足している必須引数を宣言順に返します。
func (t *Tool) Missing(args Args) []string {
	var missing []string
	for _, name := range t.Required() {
		if IsMissing(args[name]) {
			missing = append(missing, name)
		}
	}
	return missing
}

// Registry は名前でツールを引けるカタログです。
type Registry struct {
	tools map[string]*Tool
	order []string
}

// NewRegistry はツール一覧からカタログを組み立てます。
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]*Tool, len(tools))}
	for i := range tools {
		t := tools[i]
		name := strings.TrimSpace(t.Name)
		if name == "" {
			return nil, errors.New("tool: name is required")
		}
		if t.Handler == nil {
			return nil, fmt.Errorf("tool %s: handler is required", name)
		}
		if _, exists := r.tools[name]; exists {
			return nil, fmt.Errorf("tool %s: registered twice", name)
		}
		t.Name = name
		r.tools[name] = &t
		r.order = append(r.order, name)
	}
	return r, nil
}

// Lookup は名前に一致するツールを返します。
func (r *Registry) Lookup(name string) (*Tool, bool) {
	t, ok := r.tools[strings.TrimSpace(name)]
	return t, ok
}

// List は登録順のツール一覧を返します。
func (r *Registry) List() []*Tool {
	result := make([]*Tool, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.tools[name])
	}
	return result
}

// Check は必須引数の有無とツールの事前検証だけを行います。
func (r *Registry) Check(ctx context.Context, name string, args Args) error {
	t, err := r.resolve(name, args)
	if err != nil {
		return err
	}
	if t.Validate == nil {
		return nil
	}
	return t.Validate(ctx, args)
}

// Invoke はツールを一度だけ実行します。
// 必須引数が欠けている場合は、宣言順で最初に欠けている引数を *MissingParameterError で返します。
func (r *Registry) Invoke(ctx context.Context, name string, args Args) (*Result, error) {
	t, err := r.resolve(name, args)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return t.Handler(ctx, args)
}

func (r *Registry) resolve(name string, args Args) (*Tool, error) {
	t, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownTool)
	}
	if missing := t.Missing(args); len(missing) > 0 {
		return nil, &MissingParameterError{Tool: t.Name, Param: missing[0]}
	}
	return t, nil
}
