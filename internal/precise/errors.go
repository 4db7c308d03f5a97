package precise

import "fmt"

// ArithmeticError 算术错误，目前只有除零一种
type ArithmeticError struct {
	Op      string // 运算名称
	Operand string // 出错的操作数
}

// Error 实现error接口
func (e *ArithmeticError) Error() string {
	return fmt.Sprintf("precise: %s by zero (operand %q)", e.Op, e.Operand)
}

// FormatError 数值字符串格式错误
type FormatError struct {
	Input  string
	Reason string
}

// Error 实现error接口
func (e *FormatError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("precise: malformed decimal %q: %s", e.Input, e.Reason)
	}
	return fmt.Sprintf("precise: malformed decimal %q", e.Input)
}
