package notification

import (
	"time"
)

type Sender interface {
	CanSend() bool
	Send(title string, description string, runTime time.Duration, fields []Field) error
	Name() string
}

type Field struct {
	Name  string
	Value string
}
