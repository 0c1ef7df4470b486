package script

import "errors"

var (
	ErrUnresolvedLabel     = errors.New("script: unresolved label")
	ErrDuplicateLabelIndex = errors.New("script: duplicate label index")
	ErrLabelName           = errors.New("script: label name too long")
	ErrOperand             = errors.New("script: invalid operand")
)
