package entity

import "time"

// Frame is a single encoded camera image. Data must not be modified after it is published.
type Frame struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
	Seq         uint64
	CapturedAt  time.Time
}
