package tool

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownTool はカタログに存在しないツール名が指定された場合に返却されます。
	ErrUnknownTool = errors.New("tool: unknown tool")
	// ErrMissingParameter は必須引数が不足している場合の識別子です。
	ErrMissingParameter = errors.New("tool: missing parameter")
	// ErrInvalidArgument は引数の形式が不正な場合に返却されます。
	ErrInvalidArgument = errors.New("tool: invalid argument")
)

// MissingParameterError は最初に不足している必須引数を表します。
type MissingParameterError struct {
	Tool  string
	Param string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("tool %s: missing parameter %s", e.Tool, e.Param)
}

func (e *MissingParameterError) Is(target error) bool {
	return target == ErrMissingParameter
}
