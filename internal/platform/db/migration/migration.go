package migration

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// ErrUnsupportedAction は未知のマイグレーション操作を表します。
var ErrUnsupportedAction = errors.New("migration: unsupported action")

// Status は適用済みのバージョンです。
type Status struct {
	Version uint
	Dirty   bool
	Applied bool
}

// Runner は golang-migrate をラップします。
type Runner struct {
	m *migrate.Migrate
}

// SourceURL はディレクトリを file:// 形式のソース URL に変換します。
func SourceURL(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve path for %s: %w", dir, err)
	}
	return "file://" + filepath.ToSlash(abs), nil
}

// New は dir のマイグレーションを dsn に適用する Runner を生成します。
func New(dir, dsn string) (*Runner, error) {
	source, err := SourceURL(dir)
	if err != nil {
		return nil, err
	}
	m, err := migrate.New(source, dsn)
	if err != nil {
		return nil, fmt.Errorf("create migrate instance: %w", err)
	}
	return &Runner{m: m}, nil
}

// Close はソースとデータベースの接続を閉じます。
func (r *Runner) Close() error {
	srcErr, dbErr := r.m.Close()
	return errors.Join(srcErr, dbErr)
}

// Up は未適用のマイグレーションをすべて適用します。
func (r *Runner) Up() error {
	return ignoreNoChange(r.m.Up())
}

// Down はすべてのマイグレーションを巻き戻します。
func (r *Runner) Down() error {
	return ignoreNoChange(r.m.Down())
}

// Steps は n 件進めます。負の値で巻き戻します。
func (r *Runner) Steps(n int) error {
	return ignoreNoChange(r.m.Steps(n))
}

// Drop はスキーマ内のすべてを削除します。
func (r *Runner) Drop() error {
	return r.m.Drop()
}

// Status は現在のバージョンを返します。
func (r *Runner) Status() (Status, error) {
	version, dirty, err := r.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return Status{}, nil
	}
	if err != nil {
		return Status{}, err
	}
	return Status{Version: version, Dirty: dirty, Applied: true}, nil
}

// Run は CLI の操作名に対応する処理を実行します。
// steps は "steps" 操作でのみ使います。
func (r *Runner) Run(action string, args ...string) error {
	switch action {
	case "up":
		return r.Up()
	case "down":
		return r.Down()
	case "drop":
		return r.Drop()
	case "steps":
		if len(args) == 0 {
			return fmt.Errorf("%w: steps requires a count", ErrUnsupportedAction)
		}
		n, err := strconv.Atoi(args[0])
		if err != nil || n == 0 {
			return fmt.Errorf("%w: invalid step count %q", ErrUnsupportedAction, args[0])
		}
		return r.Steps(n)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedAction, action)
	}
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}
