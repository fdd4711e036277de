package engine

import (
	"fmt"
	"time"
)

func (it *iteration) logAt(timeStamp time.Duration, format string, args ...interface{}) {
	if it.log == nil {
		return
	}
	ts := timeStamp.Round(time.Millisecond).Seconds()
	prefix := fmt.Sprintf("[%6.2fs] ", ts)
	fmt.Fprintf(it.log, prefix+format+"\n", args...)
}
